package wizard

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"eventwizard/internal/drafts"
	"eventwizard/internal/draftstore"
	"eventwizard/internal/marketplace"
	"eventwizard/internal/notifications"
	"eventwizard/internal/shared/constants"
	"eventwizard/internal/submission"
	"eventwizard/pkg/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeMarketplace struct {
	mu sync.Mutex

	events    map[string]*marketplace.Event
	getErr    error
	submitErr error
	created   []*marketplace.EventPayload
	updated   map[string]*marketplace.EventPayload
	added     map[string][]marketplace.SupplierRequest
	getCalls  int

	// when set, CreateEvent signals entered and waits for gate to close
	gate    chan struct{}
	entered chan struct{}
}

func newFakeMarketplace() *fakeMarketplace {
	return &fakeMarketplace{
		events:  map[string]*marketplace.Event{},
		updated: map[string]*marketplace.EventPayload{},
		added:   map[string][]marketplace.SupplierRequest{},
	}
}

func (f *fakeMarketplace) GetEvent(_ context.Context, id string) (*marketplace.Event, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.getCalls++
	if f.getErr != nil {
		return nil, f.getErr
	}
	event, ok := f.events[id]
	if !ok {
		return nil, &marketplace.APIError{StatusCode: 404, Message: "Event not found"}
	}
	return event, nil
}

func (f *fakeMarketplace) CreateEvent(_ context.Context, payload *marketplace.EventPayload) (*marketplace.EventSummary, error) {
	if f.gate != nil {
		f.entered <- struct{}{}
		<-f.gate
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.submitErr != nil {
		return nil, f.submitErr
	}
	f.created = append(f.created, payload)
	return &marketplace.EventSummary{ID: "ev-new", Name: payload.Name}, nil
}

func (f *fakeMarketplace) UpdateEvent(_ context.Context, id string, payload *marketplace.EventPayload) (*marketplace.EventSummary, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.submitErr != nil {
		return nil, f.submitErr
	}
	f.updated[id] = payload
	return &marketplace.EventSummary{ID: id, Name: payload.Name}, nil
}

func (f *fakeMarketplace) AddEventSuppliers(_ context.Context, id string, suppliers []marketplace.SupplierRequest) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.submitErr != nil {
		return f.submitErr
	}
	f.added[id] = suppliers
	return nil
}

type fakePublisher struct {
	mu   sync.Mutex
	sent []*notifications.EventSubmitted
	err  error
}

func (p *fakePublisher) PublishEventSubmitted(_ context.Context, msg *notifications.EventSubmitted) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return p.err
	}
	p.sent = append(p.sent, msg)
	return nil
}

func (p *fakePublisher) Close() error { return nil }

type fixture struct {
	svc       Service
	store     *draftstore.Memory
	market    *fakeMarketplace
	publisher *fakePublisher
	now       time.Time
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		store:     draftstore.NewMemory(time.Hour),
		market:    newFakeMarketplace(),
		publisher: &fakePublisher{},
		now:       time.Date(2025, 5, 1, 9, 0, 0, 0, time.UTC),
	}
	f.svc = NewService(f.store, f.market, submission.NewTransformer(), f.publisher,
		WithLogger(logger.Discard()),
		WithClock(func() time.Time { return f.now }),
	)
	return f
}

func raw(v any) json.RawMessage {
	data, _ := json.Marshal(v)
	return data
}

// fillDetails makes the details step valid
func fillDetails(t *testing.T, svc Service, userID, draft string) {
	t.Helper()
	ctx := context.Background()
	fields := map[string]any{
		"name":        "Gala",
		"description": "A long enough description",
		"date":        "2025-06-01",
		"time":        "18:00",
		"location":    "Main Hall, Haifa",
		"eventType":   "conference",
	}
	for field, value := range fields {
		_, err := svc.UpdateField(ctx, userID, draft, field, raw(value))
		require.NoError(t, err, field)
	}
}

func TestService_OpenCreate(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	f := newFixture(t)

	session, err := f.svc.Open(ctx, "u1", CreateDraft)
	require.NoError(t, err)
	assert.Equal(t, CreateDraft, session.Draft)
	assert.Equal(t, drafts.ModeCreate, session.Mode)
	assert.Equal(t, drafts.StepDetails, session.CurrentStep)
	assert.Equal(t, 0, session.StepIndex)

	_, err = f.store.Get(ctx, constants.BuildCreateDraftKey("u1"))
	assert.NoError(t, err, "a new draft is persisted right away")
}

func TestService_RestoresPersistedDraft(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	f := newFixture(t)

	snapshot := `{"name":"Saved","startDate":"2025-07-01","tickets":[{"id":"t1","name":"VIP","quantity":"5","price":"abc"}],"currentStep":"services"}`
	require.NoError(t, f.store.Set(ctx, constants.BuildCreateDraftKey("u1"), []byte(snapshot)))

	session, err := f.svc.Open(ctx, "u1", CreateDraft)
	require.NoError(t, err)
	assert.Equal(t, "Saved", session.Data.Name)
	assert.Equal(t, "2025-07-01", session.Data.Date)
	assert.Equal(t, drafts.StepServices, session.CurrentStep)
	assert.Equal(t, 5, session.TotalTickets)
	assert.Equal(t, 0.0, session.Data.Tickets[0].Price)
}

func TestService_OpenEdit(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	t.Run("hydrates from the marketplace", func(t *testing.T) {
		f := newFixture(t)
		public := true
		f.market.events["ev1"] = &marketplace.Event{
			ID:          "ev1",
			Name:        "Gala",
			Description: "Annual gala dinner",
			StartDate:   "2025-06-01T18:00:00Z",
			Location:    marketplace.Location{Address: "Main Hall", City: "Haifa"},
			EventType:   "conference",
			IsPublic:    &public,
		}

		session, err := f.svc.Open(ctx, "u1", "ev1")
		require.NoError(t, err)
		assert.Equal(t, "ev1", session.Draft)
		assert.Equal(t, "ev1", session.EventID)
		assert.Equal(t, drafts.ModeEdit, session.Mode)
		assert.Equal(t, "Gala", session.Data.Name)
		assert.Equal(t, "Main Hall, Haifa", session.Data.Location)

		_, err = f.store.Get(ctx, constants.BuildEditDraftKey("u1", "ev1"))
		assert.NoError(t, err)
	})

	t.Run("prefers the persisted snapshot", func(t *testing.T) {
		f := newFixture(t)
		require.NoError(t, f.store.Set(ctx, constants.BuildEditDraftKey("u1", "ev1"), []byte(`{"name":"Edited"}`)))

		session, err := f.svc.Open(ctx, "u1", "ev1")
		require.NoError(t, err)
		assert.Equal(t, "Edited", session.Data.Name)
		assert.Equal(t, 0, f.market.getCalls)
	})

	t.Run("unknown event", func(t *testing.T) {
		f := newFixture(t)
		_, err := f.svc.Open(ctx, "u1", "missing")
		assert.ErrorIs(t, err, ErrEventNotFound)
	})

	t.Run("upstream failure", func(t *testing.T) {
		f := newFixture(t)
		f.market.getErr = &marketplace.APIError{StatusCode: 500, Message: "boom"}

		_, err := f.svc.Open(ctx, "u1", "ev1")
		var upstream *UpstreamError
		require.ErrorAs(t, err, &upstream)
		assert.Equal(t, "boom", marketplace.Message(upstream.Err))
	})
}

func TestService_OpenEditWithMalformedEvent(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `{"success":true,"data":{
			"id":"ev1","name":"Gala","description":"Annual gala dinner",
			"startDate":"2025-06-01T18:00:00Z","isPublic":true,
			"location":{"address":"Main Hall","city":"Haifa"},
			"tickets":[{"id":"t1","name":"GA","quantity":"100","price":50},{"id":"t2","quantity":"lots"}],
			"suppliers":[{"supplierId":"s1","serviceId":"o1","category":"music"},{"supplierId":"s2"}]
		}}`)
	}))
	t.Cleanup(srv.Close)

	store := draftstore.NewMemory(time.Hour)
	client := marketplace.NewClient(srv.URL, marketplace.WithLogger(logger.Discard()))
	svc := NewService(store, client, submission.NewTransformer(), nil, WithLogger(logger.Discard()))

	session, err := svc.Open(ctx, "u1", "ev1")
	require.NoError(t, err)

	assert.Equal(t, "Gala", session.Data.Name)
	assert.Equal(t, "2025-06-01", session.Data.Date)
	assert.Equal(t, "Main Hall, Haifa", session.Data.Location)
	require.Len(t, session.Data.Tickets, 1)
	assert.Equal(t, 100, session.Data.Tickets[0].Quantity)
	assert.Equal(t, map[string]map[string][]string{"music": {"s1": {"o1"}}}, session.Data.SelectedSuppliers)

	_, err = store.Get(ctx, constants.BuildEditDraftKey("u1", "ev1"))
	assert.NoError(t, err, "the partial draft is persisted")
}

func TestService_Mutations(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	f := newFixture(t)

	_, err := f.svc.UpdateField(ctx, "u1", CreateDraft, "colour", raw("red"))
	assert.ErrorIs(t, err, drafts.ErrUnknownField)

	session, err := f.svc.ToggleService(ctx, "u1", CreateDraft, ToggleServiceRequest{Category: "music", Selected: ptr(true)})
	require.NoError(t, err)
	assert.Equal(t, 1, session.SelectedServicesCount)

	session, err = f.svc.ToggleOffering(ctx, "u1", CreateDraft, ToggleOfferingRequest{Category: "music", SupplierID: "sup1", OfferingID: "off1"})
	require.NoError(t, err)
	assert.Equal(t, 1, session.SelectedSuppliersCount)

	_, err = f.svc.ToggleOffering(ctx, "u1", CreateDraft, ToggleOfferingRequest{Category: "catering", SupplierID: "sup2", OfferingID: "off2"})
	assert.ErrorIs(t, err, drafts.ErrServiceNotSelected)

	session, err = f.svc.AddTicket(ctx, "u1", CreateDraft, AddTicketRequest{Name: "VIP", Quantity: 10, Price: 50})
	require.NoError(t, err)
	require.Len(t, session.Data.Tickets, 1)
	ticketID := session.Data.Tickets[0].ID
	assert.NotEmpty(t, ticketID)

	session, err = f.svc.UpdateTicket(ctx, "u1", CreateDraft, ticketID, UpdateTicketRequest{Quantity: ptr(4)})
	require.NoError(t, err)
	assert.Equal(t, 4, session.TotalTickets)

	_, err = f.svc.RemoveTicket(ctx, "u1", CreateDraft, "nope")
	assert.ErrorIs(t, err, drafts.ErrTicketNotFound)

	session, err = f.svc.ToggleService(ctx, "u1", CreateDraft, ToggleServiceRequest{Category: "music", Selected: ptr(false)})
	require.NoError(t, err)
	assert.Equal(t, 0, session.SelectedSuppliersCount)
	assert.Empty(t, session.Data.SelectedSuppliers)
}

func TestService_AdvanceAndRetreat(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	f := newFixture(t)

	session, err := f.svc.Advance(ctx, "u1", CreateDraft)
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Contains(t, verr.Errors, drafts.FieldName)
	assert.Equal(t, drafts.StepDetails, session.CurrentStep)
	assert.Equal(t, verr.Errors, session.Errors)

	fillDetails(t, f.svc, "u1", CreateDraft)

	session, err = f.svc.Advance(ctx, "u1", CreateDraft)
	require.NoError(t, err)
	assert.Equal(t, drafts.StepServices, session.CurrentStep)
	assert.Empty(t, session.Errors)

	session, err = f.svc.Retreat(ctx, "u1", CreateDraft)
	require.NoError(t, err)
	assert.Equal(t, drafts.StepDetails, session.CurrentStep)
}

func TestService_Submit(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	t.Run("blocked by validation", func(t *testing.T) {
		f := newFixture(t)
		_, err := f.svc.Submit(ctx, "u1", CreateDraft)
		var verr *ValidationError
		require.ErrorAs(t, err, &verr)
		assert.Contains(t, verr.Errors, drafts.FieldDescription)
		assert.Empty(t, f.market.created)
	})

	t.Run("creates the event and discards the draft", func(t *testing.T) {
		f := newFixture(t)
		fillDetails(t, f.svc, "u1", CreateDraft)
		_, err := f.svc.ToggleService(ctx, "u1", CreateDraft, ToggleServiceRequest{Category: "music", Selected: ptr(true)})
		require.NoError(t, err)
		_, err = f.svc.ToggleOffering(ctx, "u1", CreateDraft, ToggleOfferingRequest{Category: "music", SupplierID: "sup1", OfferingID: "off1"})
		require.NoError(t, err)

		result, err := f.svc.Submit(ctx, "u1", CreateDraft)
		require.NoError(t, err)
		assert.Equal(t, drafts.ModeCreate, result.Mode)
		assert.Equal(t, "ev-new", result.Event.ID)

		require.Len(t, f.market.created, 1)
		assert.Equal(t, "Haifa", f.market.created[0].Location.City)
		assert.Equal(t, []string{"music"}, f.market.created[0].RequiredServices)

		_, err = f.store.Get(ctx, constants.BuildCreateDraftKey("u1"))
		assert.ErrorIs(t, err, drafts.ErrDraftNotFound)

		require.Len(t, f.publisher.sent, 1)
		assert.Equal(t, notifications.MessageTypeEventCreated, f.publisher.sent[0].Type)
		assert.Equal(t, "ev-new", f.publisher.sent[0].EventID)
		assert.Equal(t, f.now, f.publisher.sent[0].SubmittedAt)

		session, err := f.svc.Open(ctx, "u1", CreateDraft)
		require.NoError(t, err)
		assert.Empty(t, session.Data.Name, "the next open starts a fresh draft")
	})

	t.Run("keeps the draft when the marketplace rejects it", func(t *testing.T) {
		f := newFixture(t)
		fillDetails(t, f.svc, "u1", CreateDraft)
		f.market.submitErr = &marketplace.APIError{StatusCode: 400, Message: "Venue unavailable"}

		_, err := f.svc.Submit(ctx, "u1", CreateDraft)
		var upstream *UpstreamError
		require.ErrorAs(t, err, &upstream)
		assert.Equal(t, "Venue unavailable", marketplace.Message(upstream.Err))

		session, err := f.svc.Open(ctx, "u1", CreateDraft)
		require.NoError(t, err)
		assert.Equal(t, "Gala", session.Data.Name)
		assert.Empty(t, f.publisher.sent)
	})

	t.Run("publisher failures do not fail the submission", func(t *testing.T) {
		f := newFixture(t)
		f.publisher.err = errors.New("broker down")
		fillDetails(t, f.svc, "u1", CreateDraft)

		_, err := f.svc.Submit(ctx, "u1", CreateDraft)
		require.NoError(t, err)
	})

	t.Run("updates an edited event", func(t *testing.T) {
		f := newFixture(t)
		require.NoError(t, f.store.Set(ctx, constants.BuildEditDraftKey("u1", "ev1"), []byte(`{"name":"Old"}`)))
		fillDetails(t, f.svc, "u1", "ev1")

		result, err := f.svc.Submit(ctx, "u1", "ev1")
		require.NoError(t, err)
		assert.Equal(t, drafts.ModeEdit, result.Mode)
		require.Contains(t, f.market.updated, "ev1")
		assert.Equal(t, "Gala", f.market.updated["ev1"].Name)
		assert.Equal(t, notifications.MessageTypeEventUpdated, f.publisher.sent[0].Type)
	})
}

func TestService_SubmitInFlight(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	f := newFixture(t)
	fillDetails(t, f.svc, "u1", CreateDraft)

	f.market.gate = make(chan struct{})
	f.market.entered = make(chan struct{}, 1)

	done := make(chan error, 1)
	go func() {
		_, err := f.svc.Submit(ctx, "u1", CreateDraft)
		done <- err
	}()
	<-f.market.entered

	_, err := f.svc.Submit(ctx, "u1", CreateDraft)
	assert.ErrorIs(t, err, drafts.ErrSubmitInProgress)
	_, err = f.svc.UpdateField(ctx, "u1", CreateDraft, "name", raw("Changed"))
	assert.ErrorIs(t, err, drafts.ErrSubmitInProgress)

	close(f.market.gate)
	require.NoError(t, <-done)
	assert.Len(t, f.market.created, 1)
	assert.Equal(t, "Gala", f.market.created[0].Name)
}

func TestService_CancelClosesHeldSession(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	f := newFixture(t)
	svc := f.svc.(*service)

	held, err := svc.session(ctx, "u1", CreateDraft)
	require.NoError(t, err)
	require.NoError(t, f.svc.Cancel(ctx, "u1", CreateDraft))

	err = held.Update(ctx, drafts.SetName("Late edit"))
	assert.ErrorIs(t, err, drafts.ErrSessionClosed)
	held.Retreat(ctx)

	_, err = f.store.Get(ctx, constants.BuildCreateDraftKey("u1"))
	assert.ErrorIs(t, err, drafts.ErrDraftNotFound, "a cancelled draft stays gone")
}

func TestService_PushSuppliers(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	f := newFixture(t)
	require.NoError(t, f.store.Set(ctx, constants.BuildEditDraftKey("u1", "ev1"), []byte(`{"name":"Gala"}`)))

	_, err := f.svc.PushSuppliers(ctx, "u1", CreateDraft)
	assert.ErrorIs(t, err, ErrNotEditSession)

	_, err = f.svc.PushSuppliers(ctx, "u1", "ev1")
	assert.ErrorIs(t, err, ErrNoSuppliers)

	_, err = f.svc.ToggleService(ctx, "u1", "ev1", ToggleServiceRequest{Category: "music", Selected: ptr(true)})
	require.NoError(t, err)
	_, err = f.svc.ToggleOffering(ctx, "u1", "ev1", ToggleOfferingRequest{Category: "music", SupplierID: "sup1", OfferingID: "off1"})
	require.NoError(t, err)

	result, err := f.svc.PushSuppliers(ctx, "u1", "ev1")
	require.NoError(t, err)
	assert.Equal(t, "ev1", result.EventID)
	require.Len(t, f.market.added["ev1"], 1)
	assert.Equal(t, "sup1", f.market.added["ev1"][0].SupplierID)

	_, err = f.store.Get(ctx, constants.BuildEditDraftKey("u1", "ev1"))
	assert.NoError(t, err, "pushing suppliers keeps the draft")
}

func TestService_CancelAndPrune(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	f := newFixture(t)

	_, err := f.svc.UpdateField(ctx, "u1", CreateDraft, "name", raw("Gala"))
	require.NoError(t, err)
	_, err = f.svc.Open(ctx, "u2", CreateDraft)
	require.NoError(t, err)

	require.NoError(t, f.svc.Cancel(ctx, "u1", CreateDraft))
	_, err = f.store.Get(ctx, constants.BuildCreateDraftKey("u1"))
	assert.ErrorIs(t, err, drafts.ErrDraftNotFound)
	require.NoError(t, f.svc.Cancel(ctx, "u1", CreateDraft), "cancelling twice is fine")

	session, err := f.svc.Open(ctx, "u1", CreateDraft)
	require.NoError(t, err)
	assert.Empty(t, session.Data.Name)

	assert.Equal(t, 0, f.svc.PruneIdle(time.Minute))
	f.now = f.now.Add(2 * time.Minute)
	assert.Equal(t, 2, f.svc.PruneIdle(time.Minute))
}

func ptr[T any](v T) *T {
	return &v
}

func TestSessions(t *testing.T) {
	t.Parallel()
	store := draftstore.NewMemory(time.Hour)
	start := time.Date(2025, 5, 1, 9, 0, 0, 0, time.UTC)
	s := newSessions()

	first := drafts.NewWizard(store, "k1", drafts.ModeCreate)
	second := drafts.NewWizard(store, "k1", drafts.ModeCreate)
	assert.Same(t, first, s.add(first, start))
	assert.Same(t, first, s.add(second, start), "a concurrent open shares the first wizard")

	s.add(drafts.NewWizard(store, "k2", drafts.ModeCreate), start)
	assert.Equal(t, 2, s.len())

	_, ok := s.get("k1", start.Add(time.Hour))
	require.True(t, ok)
	assert.Equal(t, 1, s.prune(start.Add(time.Minute)))
	assert.Equal(t, 1, s.len())

	s.evict("k1")
	_, ok = s.get("k1", start)
	assert.False(t, ok)
	assert.Equal(t, 0, s.len())
}
