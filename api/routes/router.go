// api/routes/router.go
package routes

import (
	"context"
	"net/http"
	"time"

	"campusbook/internal/eligibility"
	"campusbook/internal/events"
	"campusbook/internal/notifications"
	"campusbook/internal/registrations"
	"campusbook/internal/resources"
	"campusbook/internal/schedule"
	"campusbook/internal/seed"
	"campusbook/internal/shared/config"
	"campusbook/internal/shared/database"
	"campusbook/internal/shared/locks"
	"campusbook/internal/shared/middleware"
	"campusbook/internal/users"
	"campusbook/pkg/cache"
	"campusbook/pkg/logger"
	"campusbook/pkg/ratelimit"

	"github.com/gin-gonic/gin"
)

// Services are the engine components built from configuration.
type Services struct {
	Conflicts     schedule.Service
	Events        events.Service
	Registrations registrations.Service
	Resources     resources.Service
}

// Router holds all route dependencies
type Router struct {
	config      *config.Config
	db          *database.DB
	rateLimiter *ratelimit.RateLimiter
	publisher   notifications.Publisher
	log         *logger.Logger

	services   *Services
	reconciler *registrations.JobProcessor
}

// NewRouter creates a new router instance and builds the services behind it
func NewRouter(cfg *config.Config, db *database.DB, rateLimiter *ratelimit.RateLimiter, publisher notifications.Publisher) *Router {
	if publisher == nil {
		publisher = notifications.NoopPublisher{}
	}
	r := &Router{
		config:      cfg,
		db:          db,
		rateLimiter: rateLimiter,
		publisher:   publisher,
		log:         logger.GetDefault(),
	}
	r.services = r.buildServices()
	return r
}

func (r *Router) Services() *Services {
	return r.services
}

// AttachReconciler reports the background waitlist job on /status
func (r *Router) AttachReconciler(jp *registrations.JobProcessor) {
	r.reconciler = jp
}

func (r *Router) detectorConfig() *schedule.DetectorConfig {
	sc := r.config.Scheduling
	dc := schedule.DefaultDetectorConfig()
	dc.Thresholds = schedule.Thresholds{High: sc.HighOverlap, Medium: sc.MediumOverlap}
	dc.BusinessStartHour = sc.BusinessStartHour
	dc.BusinessEndHour = sc.BusinessEndHour
	dc.MaxSuggestions = sc.MaxSuggestions
	dc.AlternativeDays = sc.AlternativeDays
	dc.MaxAlternatives = sc.MaxAlternatives
	return dc
}

func (r *Router) ledgerLocker() locks.Locker {
	if r.config.Ledger.Lock != "redis" || r.db.GetRedisClient() == nil {
		return locks.Noop{}
	}
	lc := locks.DefaultRedisLockerConfig()
	lc.TTL = r.config.Ledger.LockTTL
	lc.MaxWait = r.config.Ledger.LockMaxWait
	return locks.NewRedisLocker(r.db.GetRedisClient(), lc, r.log)
}

func (r *Router) eventOptions() []events.Option {
	if !r.config.Cache.Enabled || r.db.GetRedisClient() == nil {
		return nil
	}
	return []events.Option{events.WithCache(cache.NewService(r.db.GetRedisClient(), r.log), r.config.Cache.EventTTL)}
}

func (r *Router) buildServices() *Services {
	var (
		eventRepo    events.Repository
		userRepo     users.Repository
		attendeeRepo registrations.Repository
		resourceRepo resources.Repository
	)
	pg := r.db.GetPostgreSQL()
	if pg != nil {
		eventRepo = events.NewRepository(pg)
		userRepo = users.NewRepository(pg)
		attendeeRepo = registrations.NewRepository(pg)
		resourceRepo = resources.NewRepository(pg)
	} else {
		r.log.Warn("Using in-memory ledger store, state is lost on restart")
		eventRepo = events.NewMemoryRepository()
		userRepo = users.NewMemoryRepository()
		attendeeRepo = registrations.NewMemoryRepository(eventRepo)
		resourceRepo = resources.NewMemoryRepository()
	}

	loc := r.config.Scheduling.Location()
	detector := schedule.NewDetector(r.detectorConfig())
	locker := r.ledgerLocker()

	bookings := schedule.MultiSource{
		events.NewBookingSource(eventRepo),
		resources.NewBookingSource(resourceRepo),
	}
	conflicts := schedule.NewService(detector, bookings, loc, r.log)

	services := &Services{
		Conflicts: conflicts,
		Events:    events.NewService(eventRepo, conflicts, loc, r.log, r.eventOptions()...),
		Registrations: registrations.NewService(attendeeRepo, eventRepo, userRepo,
			eligibility.NewEvaluator(detector),
			registrations.WithLocker(locker),
			registrations.WithPublisher(r.publisher),
			registrations.WithLogger(r.log),
		),
		Resources: resources.NewService(resourceRepo, detector, loc,
			resources.WithLocker(locker),
			resources.WithPublisher(r.publisher),
			resources.WithLogger(r.log),
		),
	}

	if pg == nil {
		seeder := seed.New(userRepo, services.Events, services.Resources, loc)
		if _, err := seeder.SeedAll(context.Background(), time.Now()); err != nil {
			r.log.Error("Failed to seed in-memory store", "error", err)
		}
	}
	return services
}

// SetupRoutes configures all application routes
func (r *Router) SetupRoutes(engine *gin.Engine) {
	r.setupHealthRoutes(engine)

	auth := middleware.JWTAuthWithConfig(r.config)

	var writeGuards []gin.HandlerFunc
	if r.rateLimiter != nil {
		writeGuards = append(writeGuards, ratelimit.ForType(r.rateLimiter, ratelimit.RateLimitTypeRegistration))
	}

	api := engine.Group(r.config.GetAPIBasePath())
	{
		schedule.SetupConflictRoutes(api, schedule.NewController(r.services.Conflicts))
		events.SetupEventRoutes(api, events.NewController(r.services.Events), auth)
		registrations.SetupRegistrationRoutes(api, registrations.NewController(r.services.Registrations), auth, writeGuards...)
		resources.SetupResourceRoutes(api, resources.NewController(r.services.Resources), auth, writeGuards...)
	}
}

// setupHealthRoutes sets up health check and system status routes
func (r *Router) setupHealthRoutes(engine *gin.Engine) {
	engine.GET("/health", func(c *gin.Context) {
		if err := r.db.HealthCheck(c.Request.Context()); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"status":    "unhealthy",
				"error":     err.Error(),
				"timestamp": time.Now(),
				"service":   "campusbook",
			})
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"status":    "healthy",
			"timestamp": time.Now(),
			"service":   "campusbook",
		})
	})

	engine.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"message": "pong",
			"version": r.config.APIVersion,
		})
	})

	engine.GET("/status", func(c *gin.Context) {
		status := gin.H{
			"status":       "operational",
			"api_version":  r.config.APIVersion,
			"ledger_store": r.config.Ledger.Store,
			"ledger_lock":  r.config.Ledger.Lock,
			"timestamp":    time.Now(),
		}
		if r.reconciler != nil {
			status["waitlist_reconciler"] = r.reconciler.GetJobStatus()
		}
		c.JSON(http.StatusOK, status)
	})
}
