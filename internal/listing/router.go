package listing

import (
	"eventwizard/internal/shared/config"
	"eventwizard/internal/shared/middleware"

	"github.com/gin-gonic/gin"
)

func SetupListingRoutes(router *gin.RouterGroup, controller Controller, cfg *config.Config) {
	auth := middleware.JWTAuthWithConfig(cfg)
	organizers := middleware.RequireRoles(middleware.RoleProducer, middleware.RoleAdmin)
	doorStaff := middleware.RequireRoles(middleware.RoleProducer, middleware.RoleAdmin, middleware.RoleStaff)

	events := router.Group("/events")
	{
		events.GET("", middleware.OptionalAuthWithConfig(cfg), controller.GetEvents) // GET /api/v1/events - Browse events
		events.GET("/mine", auth, organizers, controller.GetMyEvents)               // GET /api/v1/events/mine - Producer's own events
		events.GET("/:eventId/attendees", auth, doorStaff, controller.GetAttendees)  // GET /api/v1/events/:eventId/attendees
		events.POST("/:eventId/register", auth, controller.RegisterForEvent)        // POST /api/v1/events/:eventId/register
	}

	suppliers := router.Group("/suppliers")
	suppliers.Use(auth, organizers)
	{
		suppliers.GET("/services", controller.GetSupplierServices) // GET /api/v1/suppliers/services - Supplier browser
	}
}
