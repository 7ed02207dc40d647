package schedule

type CheckConflictsRequest struct {
	Date           string   `json:"date" binding:"required,datetime=2006-01-02"`
	Time           string   `json:"time" binding:"required,datetime=15:04"`
	DurationHours  *float64 `json:"duration_hours" binding:"omitempty,gte=1,lte=24"`
	ResourceKey    string   `json:"resource_key" binding:"required,max=255"`
	ExcludeOwnerID string   `json:"exclude_owner_id" binding:"omitempty,max=255"`
}
