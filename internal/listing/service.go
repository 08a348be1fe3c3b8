package listing

import (
	"context"
	"time"

	"eventwizard/internal/marketplace"
)

// Marketplace is the read side of the marketplace API the list screens use
type Marketplace interface {
	GetMyEvents(ctx context.Context, q marketplace.MyEventsQuery) (*marketplace.Page[marketplace.EventSummary], error)
	GetAllEvents(ctx context.Context, f marketplace.EventFilter) (*marketplace.Page[marketplace.EventSummary], error)
	GetEventAttendees(ctx context.Context, eventID string, q marketplace.AttendeeQuery) (*marketplace.Page[marketplace.Attendee], error)
	GetServicesWithSuppliers(ctx context.Context, q marketplace.ServiceQuery) (*marketplace.Page[marketplace.ServiceWithSuppliers], error)
	RegisterForEvent(ctx context.Context, id string, req marketplace.RegisterRequest) (*marketplace.Registration, error)
}

// AttendeeQuery scopes an attendee page to one event
type AttendeeQuery struct {
	EventID string `json:"eventId"`
	marketplace.AttendeeQuery
}

type (
	EventsState    = State[marketplace.EventFilter, marketplace.EventSummary]
	MyEventsState  = State[marketplace.MyEventsQuery, marketplace.EventSummary]
	AttendeesState = State[AttendeeQuery, marketplace.Attendee]
	ServicesState  = State[marketplace.ServiceQuery, marketplace.ServiceWithSuppliers]
)

type Service interface {
	MyEvents(ctx context.Context, viewer string, q marketplace.MyEventsQuery) (MyEventsState, error)
	Events(ctx context.Context, viewer string, f marketplace.EventFilter) (EventsState, error)
	Attendees(ctx context.Context, viewer string, q AttendeeQuery) (AttendeesState, error)
	SupplierServices(ctx context.Context, viewer string, q marketplace.ServiceQuery) (ServicesState, error)
	Register(ctx context.Context, eventID string, req marketplace.RegisterRequest) (*marketplace.Registration, error)

	// Prune forgets list screens idle for longer than idle
	Prune(idle time.Duration) int
}

type service struct {
	market    Marketplace
	myEvents  *Registry[marketplace.MyEventsQuery, marketplace.EventSummary]
	events    *Registry[marketplace.EventFilter, marketplace.EventSummary]
	attendees *Registry[AttendeeQuery, marketplace.Attendee]
	services  *Registry[marketplace.ServiceQuery, marketplace.ServiceWithSuppliers]
}

func NewService(market Marketplace) Service {
	return &service{
		market:   market,
		myEvents: NewRegistry(market.GetMyEvents),
		events:   NewRegistry(market.GetAllEvents),
		attendees: NewRegistry(func(ctx context.Context, q AttendeeQuery) (*marketplace.Page[marketplace.Attendee], error) {
			return market.GetEventAttendees(ctx, q.EventID, q.AttendeeQuery)
		}),
		services: NewRegistry(market.GetServicesWithSuppliers),
	}
}

func (s *service) MyEvents(ctx context.Context, viewer string, q marketplace.MyEventsQuery) (MyEventsState, error) {
	return s.myEvents.View(viewer).Load(ctx, q)
}

func (s *service) Events(ctx context.Context, viewer string, f marketplace.EventFilter) (EventsState, error) {
	return s.events.View(viewer).Load(ctx, f)
}

// Attendees keeps one view per viewer and event
func (s *service) Attendees(ctx context.Context, viewer string, q AttendeeQuery) (AttendeesState, error) {
	return s.attendees.View(viewer+":"+q.EventID).Load(ctx, q)
}

func (s *service) SupplierServices(ctx context.Context, viewer string, q marketplace.ServiceQuery) (ServicesState, error) {
	return s.services.View(viewer).Load(ctx, q)
}

func (s *service) Register(ctx context.Context, eventID string, req marketplace.RegisterRequest) (*marketplace.Registration, error) {
	return s.market.RegisterForEvent(ctx, eventID, req)
}

func (s *service) Prune(idle time.Duration) int {
	return s.myEvents.Prune(idle) +
		s.events.Prune(idle) +
		s.attendees.Prune(idle) +
		s.services.Prune(idle)
}
