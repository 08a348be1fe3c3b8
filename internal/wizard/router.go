package wizard

import (
	"eventwizard/internal/shared/config"
	"eventwizard/internal/shared/middleware"

	"github.com/gin-gonic/gin"
)

func SetupWizardRoutes(router *gin.RouterGroup, controller Controller, cfg *config.Config) {
	wizard := router.Group("/wizard")
	wizard.Use(
		middleware.JWTAuthWithConfig(cfg),
		middleware.RequireRoles(middleware.RoleProducer, middleware.RoleAdmin),
	)
	{
		wizard.POST("/create", controller.OpenCreate)        // POST /api/v1/wizard/create - Open or restore the create draft
		wizard.POST("/edit/:eventId", controller.OpenEdit)   // POST /api/v1/wizard/edit/:eventId - Open, restore or hydrate an edit draft
		wizard.GET("/:draft", controller.GetSession)         // GET /api/v1/wizard/:draft - Draft, errors and counts
		wizard.DELETE("/:draft", controller.Cancel)          // DELETE /api/v1/wizard/:draft - Discard the draft
		wizard.PATCH("/:draft/fields", controller.UpdateField)

		// Service selection
		wizard.POST("/:draft/services", controller.ToggleService)
		wizard.POST("/:draft/offerings", controller.ToggleOffering)
		wizard.POST("/:draft/packages", controller.TogglePackage)

		// Ticket tiers
		wizard.POST("/:draft/tickets", controller.AddTicket)
		wizard.PUT("/:draft/tickets/:ticketId", controller.UpdateTicket)
		wizard.DELETE("/:draft/tickets/:ticketId", controller.RemoveTicket)

		// Navigation and submission
		wizard.POST("/:draft/advance", controller.Advance)
		wizard.POST("/:draft/retreat", controller.Retreat)
		wizard.POST("/:draft/submit", controller.Submit)
		wizard.POST("/:draft/suppliers", controller.PushSuppliers) // Edit drafts only
	}
}
