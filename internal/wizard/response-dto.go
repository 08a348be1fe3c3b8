package wizard

import (
	"slices"

	"eventwizard/internal/drafts"
	"eventwizard/internal/marketplace"
)

// SessionResponse is the wizard state a client renders
type SessionResponse struct {
	Draft                  string            `json:"draft"`
	Mode                   drafts.Mode       `json:"mode"`
	EventID                string            `json:"eventId,omitempty"`
	CurrentStep            drafts.Step       `json:"currentStep"`
	StepIndex              int               `json:"stepIndex"`
	Steps                  []drafts.Step     `json:"steps"`
	Data                   drafts.EventDraft `json:"data"`
	Errors                 map[string]string `json:"errors"`
	SelectedServicesCount  int               `json:"selectedServicesCount"`
	SelectedSuppliersCount int               `json:"selectedSuppliersCount"`
	TotalTickets           int               `json:"totalTickets"`
}

func newSessionResponse(w *drafts.Wizard) *SessionResponse {
	d := w.Snapshot()
	return &SessionResponse{
		Draft:                  draftParam(w),
		Mode:                   w.Mode(),
		EventID:                w.EventID(),
		CurrentStep:            d.CurrentStep,
		StepIndex:              slices.Index(drafts.Steps, d.CurrentStep),
		Steps:                  drafts.Steps,
		Data:                   d,
		Errors:                 w.Errors(),
		SelectedServicesCount:  d.SelectedServicesCount(),
		SelectedSuppliersCount: d.SelectedSuppliersCount(),
		TotalTickets:           d.TotalTickets(),
	}
}

func draftParam(w *drafts.Wizard) string {
	if w.Mode() == drafts.ModeEdit {
		return w.EventID()
	}
	return CreateDraft
}

// SubmitResponse reports the event the marketplace created or updated
type SubmitResponse struct {
	Mode  drafts.Mode               `json:"mode"`
	Event *marketplace.EventSummary `json:"event"`
}

// SuppliersResponse lists the supplier requests sent to an existing event
type SuppliersResponse struct {
	EventID   string                        `json:"eventId"`
	Suppliers []marketplace.SupplierRequest `json:"suppliers"`
}
