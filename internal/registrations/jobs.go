package registrations

import (
	"context"
	"sync"
	"time"

	"campusbook/pkg/logger"
)

// JobProcessor runs the waitlist reconciler in the background
type JobProcessor struct {
	service Service
	config  *JobConfig
	log     *logger.Logger
	done    chan struct{}
	once    sync.Once

	mu           sync.Mutex
	running      bool
	runs         int
	lastRun      time.Time
	lastPromoted int
	lastError    string
}

type JobConfig struct {
	ReconcileInterval time.Duration
}

func DefaultJobConfig() *JobConfig {
	return &JobConfig{
		ReconcileInterval: 1 * time.Minute,
	}
}

func NewJobProcessor(service Service, config *JobConfig) *JobProcessor {
	if config == nil {
		config = DefaultJobConfig()
	}

	return &JobProcessor{
		service: service,
		config:  config,
		log:     logger.GetDefault(),
		done:    make(chan struct{}),
	}
}

// Start launches the reconciler; it stops on Stop or when ctx is done.
func (jp *JobProcessor) Start(ctx context.Context) {
	jp.setRunning(true)
	go jp.startReconciler(ctx)
	jp.log.Info("Waitlist reconciler started", "interval", jp.config.ReconcileInterval.String())
}

func (jp *JobProcessor) Stop() {
	jp.once.Do(func() {
		close(jp.done)
		jp.setRunning(false)
		jp.log.Info("Waitlist reconciler stopped")
	})
}

func (jp *JobProcessor) setRunning(running bool) {
	jp.mu.Lock()
	jp.running = running
	jp.mu.Unlock()
}

func (jp *JobProcessor) startReconciler(ctx context.Context) {
	ticker := time.NewTicker(jp.config.ReconcileInterval)
	defer ticker.Stop()
	defer jp.setRunning(false)

	for {
		select {
		case <-ticker.C:
			jp.reconcile(ctx)
		case <-jp.done:
			return
		case <-ctx.Done():
			return
		}
	}
}

func (jp *JobProcessor) reconcile(ctx context.Context) {
	promoted, err := jp.service.ReconcileAll(ctx)

	jp.mu.Lock()
	jp.runs++
	jp.lastRun = time.Now().UTC()
	jp.lastPromoted = promoted
	jp.lastError = ""
	if err != nil {
		jp.lastError = err.Error()
	}
	jp.mu.Unlock()

	if err != nil {
		jp.log.WithError(err).ErrorContext(ctx, "Error reconciling waitlists")
		return
	}
	if promoted > 0 {
		jp.log.InfoContext(ctx, "Promoted waitlisted attendees", "count", promoted)
	}
}

// GetJobStatus reports whether the reconciler loop is alive and what its last pass did.
func (jp *JobProcessor) GetJobStatus() map[string]interface{} {
	jp.mu.Lock()
	defer jp.mu.Unlock()

	status := "stopped"
	if jp.running {
		status = "running"
	}
	out := map[string]interface{}{
		"reconcile_interval": jp.config.ReconcileInterval.String(),
		"status":             status,
		"runs":               jp.runs,
		"last_promoted":      jp.lastPromoted,
	}
	if !jp.lastRun.IsZero() {
		out["last_run"] = jp.lastRun
	}
	if jp.lastError != "" {
		out["last_error"] = jp.lastError
	}
	return out
}
