package listing

import (
	"context"
	"errors"
	"net/http"

	"eventwizard/internal/marketplace"
	"eventwizard/internal/shared/middleware"
	"eventwizard/internal/shared/utils/response"

	"github.com/gin-gonic/gin"
)

type Controller interface {
	GetMyEvents(c *gin.Context)
	GetEvents(c *gin.Context)
	GetAttendees(c *gin.Context)
	GetSupplierServices(c *gin.Context)
	RegisterForEvent(c *gin.Context)
}

type controller struct {
	service Service
}

func NewController(service Service) Controller {
	return &controller{service: service}
}

func requestContext(c *gin.Context) context.Context {
	return marketplace.WithToken(c.Request.Context(), middleware.GetAccessToken(c))
}

// viewer names whose screen a request drives; anonymous browsers are told apart by address
func viewer(c *gin.Context) string {
	if userID := middleware.GetUserID(c); userID != "" {
		return userID
	}
	return "anonymous:" + c.ClientIP()
}

func (ctrl *controller) GetMyEvents(c *gin.Context) {
	var q marketplace.MyEventsQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		response.Error(c, http.StatusBadRequest, "Invalid query parameters", err.Error())
		return
	}

	state, err := ctrl.service.MyEvents(requestContext(c), viewer(c), q)
	respondState(c, state, err, "Events retrieved successfully")
}

func (ctrl *controller) GetEvents(c *gin.Context) {
	var f marketplace.EventFilter
	if err := c.ShouldBindQuery(&f); err != nil {
		response.Error(c, http.StatusBadRequest, "Invalid query parameters", err.Error())
		return
	}

	state, err := ctrl.service.Events(requestContext(c), viewer(c), f)
	respondState(c, state, err, "Events retrieved successfully")
}

func (ctrl *controller) GetAttendees(c *gin.Context) {
	var q marketplace.AttendeeQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		response.Error(c, http.StatusBadRequest, "Invalid query parameters", err.Error())
		return
	}

	state, err := ctrl.service.Attendees(requestContext(c), viewer(c), AttendeeQuery{
		EventID:       c.Param("eventId"),
		AttendeeQuery: q,
	})
	respondState(c, state, err, "Attendees retrieved successfully")
}

func (ctrl *controller) GetSupplierServices(c *gin.Context) {
	var q marketplace.ServiceQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		response.Error(c, http.StatusBadRequest, "Invalid query parameters", err.Error())
		return
	}

	state, err := ctrl.service.SupplierServices(requestContext(c), viewer(c), q)
	respondState(c, state, err, "Services retrieved successfully")
}

func (ctrl *controller) RegisterForEvent(c *gin.Context) {
	var req marketplace.RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "Invalid request body", err.Error())
		return
	}

	reg, err := ctrl.service.Register(requestContext(c), c.Param("eventId"), req)
	switch {
	case errors.Is(err, marketplace.ErrNotFound):
		response.Error(c, http.StatusNotFound, "Event not found", nil)
	case err != nil:
		response.Error(c, http.StatusBadGateway, marketplace.Message(err), nil)
	default:
		response.Success(c, http.StatusCreated, "Registered successfully", reg)
	}
}

// respondState answers with the screen state. A superseded load reports the newer
// state with 409; a failed fetch reports the error kept in the state.
func respondState[Q, T any](c *gin.Context, state State[Q, T], err error, message string) {
	switch {
	case errors.Is(err, ErrSuperseded):
		response.RespondJSON(c, "error", http.StatusConflict, err.Error(), state, nil)
	case err != nil:
		response.RespondJSON(c, "error", http.StatusBadGateway, state.Error, state, nil)
	default:
		response.Success(c, http.StatusOK, message, state)
	}
}
