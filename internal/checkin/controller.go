package checkin

import (
	"errors"
	"net/http"

	"eventwizard/internal/marketplace"
	"eventwizard/internal/shared/middleware"
	"eventwizard/internal/shared/utils/response"

	"github.com/gin-gonic/gin"
)

type Controller interface {
	CheckInTicket(c *gin.Context)
	CheckInAll(c *gin.Context)
	VerifyQR(c *gin.Context)
}

type controller struct {
	service Service
}

func NewController(service Service) Controller {
	return &controller{service: service}
}

func (ctrl *controller) CheckInTicket(c *gin.Context) {
	ctx := marketplace.WithToken(c.Request.Context(), middleware.GetAccessToken(c))
	res, err := ctrl.service.CheckInTicket(ctx, c.Param("ticketId"))
	if err != nil {
		fail(c, err, "Ticket not found")
		return
	}
	response.Success(c, http.StatusOK, "Ticket checked in", res)
}

func (ctrl *controller) CheckInAll(c *gin.Context) {
	ctx := marketplace.WithToken(c.Request.Context(), middleware.GetAccessToken(c))
	res, err := ctrl.service.CheckInAll(ctx, c.Param("eventId"))
	if err != nil {
		fail(c, err, "Event not found")
		return
	}
	response.Success(c, http.StatusOK, "All tickets checked in", res)
}

func (ctrl *controller) VerifyQR(c *gin.Context) {
	var req VerifyQRRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "Invalid request body", err.Error())
		return
	}

	ctx := marketplace.WithToken(c.Request.Context(), middleware.GetAccessToken(c))
	res, err := ctrl.service.VerifyQR(ctx, req.QRCode)
	if err != nil {
		fail(c, err, "Ticket not found")
		return
	}
	if !res.Valid {
		response.RespondJSON(c, "error", http.StatusUnprocessableEntity, "Ticket is not valid", res, nil)
		return
	}
	response.Success(c, http.StatusOK, "Ticket verified", res)
}

func fail(c *gin.Context, err error, notFound string) {
	switch {
	case errors.Is(err, ErrInvalidCode):
		response.Error(c, http.StatusBadRequest, err.Error(), nil)
	case errors.Is(err, marketplace.ErrNotFound):
		response.Error(c, http.StatusNotFound, notFound, nil)
	default:
		response.Error(c, http.StatusBadGateway, marketplace.Message(err), nil)
	}
}
