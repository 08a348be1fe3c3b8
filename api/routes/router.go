// api/routes/router.go
package routes

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"eventwizard/internal/checkin"
	"eventwizard/internal/draftstore"
	"eventwizard/internal/listing"
	"eventwizard/internal/marketplace"
	"eventwizard/internal/notifications"
	"eventwizard/internal/shared/config"
	"eventwizard/internal/shared/database"
	"eventwizard/internal/submission"
	"eventwizard/internal/wizard"
	"eventwizard/pkg/logger"

	"github.com/gin-gonic/gin"
)

// Dependencies are the shared components the route modules are built on
type Dependencies struct {
	DB          *database.DB
	Drafts      draftstore.Store
	Marketplace *marketplace.Client
	Publisher   notifications.Publisher
	Transformer *submission.Transformer
	Logger      *logger.Logger
}

// Router holds all route dependencies
type Router struct {
	config *config.Config
	deps   Dependencies

	// Set up by SetupRoutes; swept by the janitor
	wizardService  wizard.Service
	listingService listing.Service
}

// NewRouter creates a new router instance
func NewRouter(cfg *config.Config, deps Dependencies) *Router {
	if deps.Logger == nil {
		deps.Logger = logger.GetDefault()
	}
	return &Router{
		config: cfg,
		deps:   deps,
	}
}

// SetupRoutes configures all application routes
func (r *Router) SetupRoutes(engine *gin.Engine) {
	// Health check and basic info endpoints
	r.setupHealthRoutes(engine)

	// API routes
	api := engine.Group(r.config.GetAPIBasePath())
	{
		r.setupWizardRoutes(api)
		r.setupListingRoutes(api)
		r.setupCheckInRoutes(api)
	}
}

// setupHealthRoutes sets up health check and system status routes
func (r *Router) setupHealthRoutes(engine *gin.Engine) {
	engine.GET("/health", func(c *gin.Context) {
		if err := r.healthCheck(c.Request.Context()); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"status":    "unhealthy",
				"error":     err.Error(),
				"timestamp": time.Now(),
				"service":   "eventwizard",
			})
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"status":      "healthy",
			"timestamp":   time.Now(),
			"service":     "eventwizard",
			"draft_store": r.config.Drafts.Backend,
		})
	})

	engine.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"message": "pong",
			"version": r.config.APIVersion,
		})
	})

	engine.GET("/status", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":      "operational",
			"api_version": r.config.APIVersion,
			"timestamp":   time.Now(),
		})
	})
}

func (r *Router) healthCheck(ctx context.Context) error {
	if r.deps.DB != nil {
		if err := r.deps.DB.HealthCheck(ctx); err != nil {
			return err
		}
	}
	if r.deps.Drafts != nil {
		if err := r.deps.Drafts.Ping(ctx); err != nil {
			return err
		}
	}
	return nil
}

// setupWizardRoutes configures the create/edit event wizard
func (r *Router) setupWizardRoutes(rg *gin.RouterGroup) {
	r.wizardService = wizard.NewService(
		r.deps.Drafts,
		r.deps.Marketplace,
		r.deps.Transformer,
		r.deps.Publisher,
		wizard.WithLogger(r.deps.Logger),
		wizard.WithLocation(r.config.EventLocation()),
	)
	wizardController := wizard.NewController(r.wizardService, r.deps.Logger)

	wizard.SetupWizardRoutes(rg, wizardController, r.config)
}

// setupListingRoutes configures the paged list screens
func (r *Router) setupListingRoutes(rg *gin.RouterGroup) {
	r.listingService = listing.NewService(r.deps.Marketplace)
	listingController := listing.NewController(r.listingService)

	listing.SetupListingRoutes(rg, listingController, r.config)
}

// setupCheckInRoutes configures door check-in
func (r *Router) setupCheckInRoutes(rg *gin.RouterGroup) {
	checkInService := checkin.NewService(r.deps.Marketplace, r.deps.Logger)
	checkInController := checkin.NewController(checkInService)

	checkin.SetupCheckInRoutes(rg, checkInController, r.config)
}

// RunJanitor closes idle wizard sessions and list screens and purges expired
// drafts every interval, until ctx is done. A non-positive interval disables it.
func (r *Router) RunJanitor(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		r.deps.Logger.WarnContext(ctx, "Janitor disabled", slog.Duration("interval", interval))
		return
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			r.sweep(ctx)
		}
	}
}

func (r *Router) sweep(ctx context.Context) {
	idle := r.config.Drafts.SessionIdle

	sessions, views := 0, 0
	if r.wizardService != nil {
		sessions = r.wizardService.PruneIdle(idle)
	}
	if r.listingService != nil {
		views = r.listingService.Prune(idle)
	}

	var purged int64
	if purger, ok := r.deps.Drafts.(draftstore.Purger); ok {
		n, err := purger.PurgeExpired(ctx)
		if err != nil {
			r.deps.Logger.WithError(err).ErrorContext(ctx, "Failed to purge expired drafts")
		}
		purged = n
	}

	if sessions+views > 0 || purged > 0 {
		r.deps.Logger.InfoContext(ctx, "Janitor sweep",
			slog.Int("sessions_closed", sessions),
			slog.Int("views_closed", views),
			slog.Int64("drafts_purged", purged),
		)
	}
}
