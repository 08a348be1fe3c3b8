package wizard

import (
	"context"
	"errors"
	"net/http"

	"eventwizard/internal/drafts"
	"eventwizard/internal/marketplace"
	"eventwizard/internal/shared/middleware"
	"eventwizard/internal/shared/utils/response"
	"eventwizard/pkg/logger"

	"github.com/gin-gonic/gin"
)

type Controller interface {
	OpenCreate(c *gin.Context)
	OpenEdit(c *gin.Context)
	GetSession(c *gin.Context)
	UpdateField(c *gin.Context)
	ToggleService(c *gin.Context)
	ToggleOffering(c *gin.Context)
	TogglePackage(c *gin.Context)
	AddTicket(c *gin.Context)
	UpdateTicket(c *gin.Context)
	RemoveTicket(c *gin.Context)
	Advance(c *gin.Context)
	Retreat(c *gin.Context)
	Submit(c *gin.Context)
	Cancel(c *gin.Context)
	PushSuppliers(c *gin.Context)
}

type controller struct {
	service Service
	logger  *logger.Logger
}

func NewController(service Service, log *logger.Logger) Controller {
	if log == nil {
		log = logger.GetDefault()
	}
	return &controller{service: service, logger: log}
}

// requestContext forwards the caller's token to the marketplace
func requestContext(c *gin.Context) context.Context {
	return marketplace.WithToken(c.Request.Context(), middleware.GetAccessToken(c))
}

func (ctrl *controller) OpenCreate(c *gin.Context) {
	session, err := ctrl.service.Open(requestContext(c), middleware.GetUserID(c), CreateDraft)
	if err != nil {
		ctrl.fail(c, err)
		return
	}
	response.Success(c, http.StatusOK, "Draft opened", session)
}

func (ctrl *controller) OpenEdit(c *gin.Context) {
	eventID := c.Param("eventId")
	if eventID == "" || eventID == CreateDraft {
		response.Error(c, http.StatusBadRequest, "Invalid event ID", nil)
		return
	}

	session, err := ctrl.service.Open(requestContext(c), middleware.GetUserID(c), eventID)
	if err != nil {
		ctrl.fail(c, err)
		return
	}
	response.Success(c, http.StatusOK, "Draft opened", session)
}

func (ctrl *controller) GetSession(c *gin.Context) {
	session, err := ctrl.service.Open(requestContext(c), middleware.GetUserID(c), c.Param("draft"))
	if err != nil {
		ctrl.fail(c, err)
		return
	}
	response.Success(c, http.StatusOK, "Draft retrieved successfully", session)
}

func (ctrl *controller) UpdateField(c *gin.Context) {
	var req UpdateFieldRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "Invalid request body", err.Error())
		return
	}

	session, err := ctrl.service.UpdateField(requestContext(c), middleware.GetUserID(c), c.Param("draft"), req.Field, req.Value)
	if err != nil {
		ctrl.fail(c, err)
		return
	}
	response.Success(c, http.StatusOK, "Field updated", session)
}

func (ctrl *controller) ToggleService(c *gin.Context) {
	var req ToggleServiceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "Invalid request body", err.Error())
		return
	}

	session, err := ctrl.service.ToggleService(requestContext(c), middleware.GetUserID(c), c.Param("draft"), req)
	if err != nil {
		ctrl.fail(c, err)
		return
	}
	response.Success(c, http.StatusOK, "Services updated", session)
}

func (ctrl *controller) ToggleOffering(c *gin.Context) {
	var req ToggleOfferingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "Invalid request body", err.Error())
		return
	}

	session, err := ctrl.service.ToggleOffering(requestContext(c), middleware.GetUserID(c), c.Param("draft"), req)
	if err != nil {
		ctrl.fail(c, err)
		return
	}
	response.Success(c, http.StatusOK, "Suppliers updated", session)
}

func (ctrl *controller) TogglePackage(c *gin.Context) {
	var req TogglePackageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "Invalid request body", err.Error())
		return
	}

	session, err := ctrl.service.TogglePackage(requestContext(c), middleware.GetUserID(c), c.Param("draft"), req)
	if err != nil {
		ctrl.fail(c, err)
		return
	}
	response.Success(c, http.StatusOK, "Package updated", session)
}

func (ctrl *controller) AddTicket(c *gin.Context) {
	var req AddTicketRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "Invalid request body", err.Error())
		return
	}

	session, err := ctrl.service.AddTicket(requestContext(c), middleware.GetUserID(c), c.Param("draft"), req)
	if err != nil {
		ctrl.fail(c, err)
		return
	}
	response.Success(c, http.StatusCreated, "Ticket added", session)
}

func (ctrl *controller) UpdateTicket(c *gin.Context) {
	var req UpdateTicketRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "Invalid request body", err.Error())
		return
	}

	session, err := ctrl.service.UpdateTicket(requestContext(c), middleware.GetUserID(c), c.Param("draft"), c.Param("ticketId"), req)
	if err != nil {
		ctrl.fail(c, err)
		return
	}
	response.Success(c, http.StatusOK, "Ticket updated", session)
}

func (ctrl *controller) RemoveTicket(c *gin.Context) {
	session, err := ctrl.service.RemoveTicket(requestContext(c), middleware.GetUserID(c), c.Param("draft"), c.Param("ticketId"))
	if err != nil {
		ctrl.fail(c, err)
		return
	}
	response.Success(c, http.StatusOK, "Ticket removed", session)
}

func (ctrl *controller) Advance(c *gin.Context) {
	session, err := ctrl.service.Advance(requestContext(c), middleware.GetUserID(c), c.Param("draft"))
	var verr *ValidationError
	if errors.As(err, &verr) {
		response.RespondJSON(c, "error", http.StatusUnprocessableEntity, "Please fix the highlighted fields", session, verr.Errors)
		return
	}
	if err != nil {
		ctrl.fail(c, err)
		return
	}
	response.Success(c, http.StatusOK, "Moved to the next step", session)
}

func (ctrl *controller) Retreat(c *gin.Context) {
	session, err := ctrl.service.Retreat(requestContext(c), middleware.GetUserID(c), c.Param("draft"))
	if err != nil {
		ctrl.fail(c, err)
		return
	}
	response.Success(c, http.StatusOK, "Moved to the previous step", session)
}

func (ctrl *controller) Submit(c *gin.Context) {
	result, err := ctrl.service.Submit(requestContext(c), middleware.GetUserID(c), c.Param("draft"))
	if err != nil {
		ctrl.fail(c, err)
		return
	}

	if result.Mode == drafts.ModeEdit {
		response.Success(c, http.StatusOK, "Event updated successfully", result)
		return
	}
	response.Success(c, http.StatusCreated, "Event created successfully", result)
}

func (ctrl *controller) Cancel(c *gin.Context) {
	if err := ctrl.service.Cancel(c.Request.Context(), middleware.GetUserID(c), c.Param("draft")); err != nil {
		ctrl.fail(c, err)
		return
	}
	response.Success(c, http.StatusOK, "Draft discarded", nil)
}

func (ctrl *controller) PushSuppliers(c *gin.Context) {
	result, err := ctrl.service.PushSuppliers(requestContext(c), middleware.GetUserID(c), c.Param("draft"))
	if err != nil {
		ctrl.fail(c, err)
		return
	}
	response.Success(c, http.StatusOK, "Suppliers added to the event", result)
}

// fail maps service errors onto the response envelope
func (ctrl *controller) fail(c *gin.Context, err error) {
	var (
		verr     *ValidationError
		upstream *UpstreamError
	)

	switch {
	case errors.As(err, &verr):
		response.Error(c, http.StatusUnprocessableEntity, "Please fix the highlighted fields", verr.Errors)
	case errors.As(err, &upstream):
		ctrl.logger.LogHTTPError(c, err, http.StatusBadGateway)
		response.Error(c, http.StatusBadGateway, marketplace.Message(upstream.Err), nil)
	case errors.Is(err, ErrEventNotFound), errors.Is(err, drafts.ErrTicketNotFound):
		response.Error(c, http.StatusNotFound, err.Error(), nil)
	case errors.Is(err, drafts.ErrUnknownField),
		errors.Is(err, drafts.ErrInvalidValue),
		errors.Is(err, drafts.ErrInvalidTicket),
		errors.Is(err, ErrNotEditSession):
		response.Error(c, http.StatusBadRequest, err.Error(), nil)
	case errors.Is(err, drafts.ErrServiceNotSelected),
		errors.Is(err, drafts.ErrOfferingNotSelected),
		errors.Is(err, drafts.ErrDuplicateTicket),
		errors.Is(err, drafts.ErrSubmitInProgress),
		errors.Is(err, drafts.ErrSessionClosed):
		response.Error(c, http.StatusConflict, err.Error(), nil)
	case errors.Is(err, ErrNoSuppliers):
		response.Error(c, http.StatusUnprocessableEntity, err.Error(),
			map[string]string{drafts.FieldSuppliers: "Select at least one supplier"})
	default:
		ctrl.logger.LogHTTPError(c, err, http.StatusInternalServerError)
		response.Error(c, http.StatusInternalServerError, "Something went wrong", nil)
	}
}
