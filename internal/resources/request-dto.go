package resources

type AssignRequest struct {
	Date          string   `json:"date" binding:"required,datetime=2006-01-02"`
	Time          string   `json:"time" binding:"required,datetime=15:04"`
	DurationHours *float64 `json:"duration_hours" binding:"omitempty,gte=1,lte=24"`
	EventID       string   `json:"event_id" binding:"required,max=64"`
}
