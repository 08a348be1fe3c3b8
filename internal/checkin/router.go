package checkin

import (
	"eventwizard/internal/shared/config"
	"eventwizard/internal/shared/middleware"

	"github.com/gin-gonic/gin"
)

func SetupCheckInRoutes(router *gin.RouterGroup, controller Controller, cfg *config.Config) {
	checkin := router.Group("/checkin")
	checkin.Use(
		middleware.JWTAuthWithConfig(cfg),
		middleware.RequireRoles(middleware.RoleProducer, middleware.RoleAdmin, middleware.RoleStaff),
	)
	{
		checkin.POST("/tickets/:ticketId", controller.CheckInTicket) // POST /api/v1/checkin/tickets/:ticketId - Check one ticket in
		checkin.POST("/events/:eventId", controller.CheckInAll)      // POST /api/v1/checkin/events/:eventId - Check in every ticket
		checkin.POST("/verify", controller.VerifyQR)                 // POST /api/v1/checkin/verify - Verify a scanned QR code
	}
}
