package wizard

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"eventwizard/internal/drafts"
	"eventwizard/internal/marketplace"
	"eventwizard/internal/notifications"
	"eventwizard/internal/shared/constants"
	"eventwizard/internal/submission"
	"eventwizard/pkg/logger"
)

// Marketplace is the part of the marketplace API the wizard submits to
type Marketplace interface {
	GetEvent(ctx context.Context, id string) (*marketplace.Event, error)
	CreateEvent(ctx context.Context, payload *marketplace.EventPayload) (*marketplace.EventSummary, error)
	UpdateEvent(ctx context.Context, id string, payload *marketplace.EventPayload) (*marketplace.EventSummary, error)
	AddEventSuppliers(ctx context.Context, id string, suppliers []marketplace.SupplierRequest) error
}

type Service interface {
	// Open restores the user's draft, or starts one. Edit drafts with no snapshot
	// are hydrated from the marketplace event.
	Open(ctx context.Context, userID, draft string) (*SessionResponse, error)
	UpdateField(ctx context.Context, userID, draft, field string, value json.RawMessage) (*SessionResponse, error)
	ToggleService(ctx context.Context, userID, draft string, req ToggleServiceRequest) (*SessionResponse, error)
	ToggleOffering(ctx context.Context, userID, draft string, req ToggleOfferingRequest) (*SessionResponse, error)
	TogglePackage(ctx context.Context, userID, draft string, req TogglePackageRequest) (*SessionResponse, error)
	AddTicket(ctx context.Context, userID, draft string, req AddTicketRequest) (*SessionResponse, error)
	UpdateTicket(ctx context.Context, userID, draft, ticketID string, req UpdateTicketRequest) (*SessionResponse, error)
	RemoveTicket(ctx context.Context, userID, draft, ticketID string) (*SessionResponse, error)
	Advance(ctx context.Context, userID, draft string) (*SessionResponse, error)
	Retreat(ctx context.Context, userID, draft string) (*SessionResponse, error)
	Submit(ctx context.Context, userID, draft string) (*SubmitResponse, error)
	Cancel(ctx context.Context, userID, draft string) error
	PushSuppliers(ctx context.Context, userID, draft string) (*SuppliersResponse, error)

	// PruneIdle closes sessions untouched for idle; their snapshots stay persisted
	PruneIdle(idle time.Duration) int
}

type service struct {
	store       drafts.DraftStore
	market      Marketplace
	transformer *submission.Transformer
	publisher   notifications.Publisher
	sessions    *sessions
	location    *time.Location
	logger      *logger.Logger
	now         func() time.Time
}

// Option configures the service
type Option func(*service)

func WithLogger(l *logger.Logger) Option {
	return func(s *service) { s.logger = l }
}

// WithLocation sets the time zone hydrated event dates are shown in
func WithLocation(loc *time.Location) Option {
	return func(s *service) { s.location = loc }
}

func WithClock(now func() time.Time) Option {
	return func(s *service) { s.now = now }
}

func NewService(store drafts.DraftStore, market Marketplace, transformer *submission.Transformer, publisher notifications.Publisher, opts ...Option) Service {
	s := &service{
		store:       store,
		market:      market,
		transformer: transformer,
		publisher:   publisher,
		sessions:    newSessions(),
		location:    time.UTC,
		logger:      logger.GetDefault(),
		now:         time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.publisher == nil {
		s.publisher = notifications.NoopPublisher{}
	}
	return s
}

func draftKey(userID, draft string) (string, drafts.Mode) {
	if draft == CreateDraft {
		return constants.BuildCreateDraftKey(userID), drafts.ModeCreate
	}
	return constants.BuildEditDraftKey(userID, draft), drafts.ModeEdit
}

// session returns the open wizard of a draft, opening it on first use
func (s *service) session(ctx context.Context, userID, draft string) (*drafts.Wizard, error) {
	key, mode := draftKey(userID, draft)
	if w, ok := s.sessions.get(key, s.now()); ok {
		return w, nil
	}

	opts := []drafts.WizardOption{
		drafts.WithLogger(s.logger.WithUserID(userID)),
		drafts.WithLocation(s.location),
	}
	if mode == drafts.ModeEdit {
		opts = append(opts, drafts.WithEventID(draft))
	}
	w := drafts.NewWizard(s.store, key, mode, opts...)

	restored, err := w.Restore(ctx)
	if err != nil {
		return nil, err
	}

	switch {
	case restored:
		s.logger.DebugContext(ctx, "Draft restored", slog.String("draft_key", key))
	case mode == drafts.ModeEdit:
		event, err := s.market.GetEvent(ctx, draft)
		if errors.Is(err, marketplace.ErrNotFound) {
			return nil, ErrEventNotFound
		}
		if err != nil {
			return nil, &UpstreamError{Op: "load event", Err: err}
		}
		w.RestoreFromEvent(ctx, *event)
	default:
		if err := w.Persist(ctx); err != nil {
			s.logger.LogDraftPersistFailed(ctx, key, err)
		}
	}

	return s.sessions.add(w, s.now()), nil
}

func (s *service) Open(ctx context.Context, userID, draft string) (*SessionResponse, error) {
	w, err := s.session(ctx, userID, draft)
	if err != nil {
		return nil, err
	}
	return newSessionResponse(w), nil
}

// apply runs one command against the session
func (s *service) apply(ctx context.Context, userID, draft string, cmd drafts.Command) (*SessionResponse, error) {
	w, err := s.session(ctx, userID, draft)
	if err != nil {
		return nil, err
	}
	if err := w.Update(ctx, cmd); err != nil {
		return nil, err
	}
	return newSessionResponse(w), nil
}

func (s *service) UpdateField(ctx context.Context, userID, draft, field string, value json.RawMessage) (*SessionResponse, error) {
	cmd, err := drafts.ParseUpdate(field, value)
	if err != nil {
		return nil, err
	}
	return s.apply(ctx, userID, draft, cmd)
}

func (s *service) ToggleService(ctx context.Context, userID, draft string, req ToggleServiceRequest) (*SessionResponse, error) {
	return s.apply(ctx, userID, draft, drafts.ToggleService{Category: req.Category, Selected: *req.Selected})
}

func (s *service) ToggleOffering(ctx context.Context, userID, draft string, req ToggleOfferingRequest) (*SessionResponse, error) {
	return s.apply(ctx, userID, draft, drafts.ToggleSupplierOffering{
		Category:   req.Category,
		SupplierID: req.SupplierID,
		OfferingID: req.OfferingID,
	})
}

func (s *service) TogglePackage(ctx context.Context, userID, draft string, req TogglePackageRequest) (*SessionResponse, error) {
	return s.apply(ctx, userID, draft, drafts.TogglePackage{
		OfferingID: req.OfferingID,
		PackageID:  req.PackageID,
		Details:    req.PackageDetails,
	})
}

func (s *service) AddTicket(ctx context.Context, userID, draft string, req AddTicketRequest) (*SessionResponse, error) {
	return s.apply(ctx, userID, draft, drafts.AddTicket{Tier: req.tier()})
}

func (s *service) UpdateTicket(ctx context.Context, userID, draft, ticketID string, req UpdateTicketRequest) (*SessionResponse, error) {
	return s.apply(ctx, userID, draft, drafts.UpdateTicket{ID: ticketID, Patch: req.patch()})
}

func (s *service) RemoveTicket(ctx context.Context, userID, draft, ticketID string) (*SessionResponse, error) {
	return s.apply(ctx, userID, draft, drafts.RemoveTicket{ID: ticketID})
}

func (s *service) Advance(ctx context.Context, userID, draft string) (*SessionResponse, error) {
	w, err := s.session(ctx, userID, draft)
	if err != nil {
		return nil, err
	}
	if errs := w.Advance(ctx); len(errs) > 0 {
		return newSessionResponse(w), &ValidationError{Errors: errs}
	}
	return newSessionResponse(w), nil
}

func (s *service) Retreat(ctx context.Context, userID, draft string) (*SessionResponse, error) {
	w, err := s.session(ctx, userID, draft)
	if err != nil {
		return nil, err
	}
	w.Retreat(ctx)
	return newSessionResponse(w), nil
}

// Submit validates every step, converts the draft and creates or updates the
// event. The draft is only discarded once the marketplace accepted it. A second
// submit of the same draft while one is in flight gets ErrSubmitInProgress.
func (s *service) Submit(ctx context.Context, userID, draft string) (*SubmitResponse, error) {
	w, err := s.session(ctx, userID, draft)
	if err != nil {
		return nil, err
	}
	if err := w.BeginSubmit(); err != nil {
		return nil, err
	}
	defer w.EndSubmit()

	if errs := w.ValidateAll(); len(errs) > 0 {
		return nil, &ValidationError{Errors: errs}
	}

	payload, err := s.transformer.Transform(w.Snapshot())
	if errors.Is(err, submission.ErrInvalidSchedule) {
		return nil, &ValidationError{Errors: map[string]string{drafts.FieldDate: "Enter a valid date and time"}}
	}
	if err != nil {
		return nil, err
	}

	var (
		summary *marketplace.EventSummary
		msgType notifications.MessageType
	)
	if w.Mode() == drafts.ModeEdit {
		summary, err = s.market.UpdateEvent(ctx, w.EventID(), payload)
		msgType = notifications.MessageTypeEventUpdated
	} else {
		summary, err = s.market.CreateEvent(ctx, payload)
		msgType = notifications.MessageTypeEventCreated
	}
	if err != nil {
		return nil, &UpstreamError{Op: "submit event", Err: err}
	}

	s.sessions.evict(w.Key())
	w.Close()
	if err := w.Discard(ctx); err != nil {
		s.logger.WithDraft(w.Key()).WithError(err).WarnContext(ctx, "Failed to discard submitted draft")
	}

	msg := notifications.NewEventSubmitted(msgType, summary.ID, userID, payload, s.now())
	if err := s.publisher.PublishEventSubmitted(ctx, msg); err != nil {
		s.logger.WithError(err).ErrorContext(ctx, "Failed to publish event submission",
			slog.String("event_id", summary.ID))
	}

	s.logger.LogEventSubmitted(ctx, summary.ID, userID, string(w.Mode()))
	return &SubmitResponse{Mode: w.Mode(), Event: summary}, nil
}

// Cancel closes the open session, then drops the snapshot
func (s *service) Cancel(ctx context.Context, userID, draft string) error {
	key, mode := draftKey(userID, draft)
	s.sessions.evict(key)

	w := drafts.NewWizard(s.store, key, mode, drafts.WithLogger(s.logger))
	return w.Discard(ctx)
}

// PushSuppliers sends the selected suppliers of an edit draft to its existing
// event without touching the rest of the event
func (s *service) PushSuppliers(ctx context.Context, userID, draft string) (*SuppliersResponse, error) {
	if draft == CreateDraft {
		return nil, ErrNotEditSession
	}
	w, err := s.session(ctx, userID, draft)
	if err != nil {
		return nil, err
	}

	suppliers := submission.Suppliers(w.Snapshot())
	if len(suppliers) == 0 {
		return nil, ErrNoSuppliers
	}
	if err := s.market.AddEventSuppliers(ctx, w.EventID(), suppliers); err != nil {
		return nil, &UpstreamError{Op: "add suppliers", Err: fmt.Errorf("event %s: %w", w.EventID(), err)}
	}

	return &SuppliersResponse{EventID: w.EventID(), Suppliers: suppliers}, nil
}

func (s *service) PruneIdle(idle time.Duration) int {
	return s.sessions.prune(s.now().Add(-idle))
}
