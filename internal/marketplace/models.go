package marketplace

import (
	"encoding/json"
	"time"
)

// envelope is the {success, data, message, pagination} wrapper every endpoint answers with.
type envelope struct {
	Success    bool            `json:"success"`
	Data       json.RawMessage `json:"data"`
	Message    string          `json:"message"`
	Pagination *Pagination     `json:"pagination"`
}

// Pagination describes one page of a list endpoint
type Pagination struct {
	CurrentPage int  `json:"currentPage" validate:"gte=0"`
	TotalPages  int  `json:"totalPages" validate:"gte=0"`
	TotalItems  int  `json:"totalItems" validate:"gte=0"`
	HasNextPage bool `json:"hasNextPage"`
	HasPrevPage bool `json:"hasPrevPage"`
}

// Page is a decoded list response
type Page[T any] struct {
	Items      []T        `json:"items"`
	Pagination Pagination `json:"pagination"`
}

// ================== EVENTS (read side) ==================

// Location is the structured event location used by the API
type Location struct {
	Address string `json:"address"`
	City    string `json:"city"`
}

// PriceRange of the ticket tiers
type PriceRange struct {
	Min float64 `json:"min" validate:"gte=0"`
	Max float64 `json:"max" validate:"gte=0"`
}

// TicketInfo is the aggregate ticket description of an event
type TicketInfo struct {
	TotalTickets     int        `json:"totalTickets" validate:"gte=0"`
	AvailableTickets int        `json:"availableTickets" validate:"gte=0"`
	IsFree           bool       `json:"isFree"`
	PriceRange       PriceRange `json:"priceRange"`
}

// EventTicket is one ticket tier attached to a fetched event
type EventTicket struct {
	ID       string  `json:"id"`
	Name     string  `json:"name"`
	Quantity int     `json:"quantity" validate:"gte=0"`
	Price    float64 `json:"price" validate:"gte=0"`
}

// PackageDetails is the snapshot of a package as shown to the producer
type PackageDetails struct {
	Name        string   `json:"name"`
	Description string   `json:"description,omitempty"`
	Price       float64  `json:"price" validate:"gte=0"`
	Features    []string `json:"features,omitempty"`
	Duration    string   `json:"duration,omitempty"`
}

// Package is a priced bundle offered for a service
type Package struct {
	ID string `json:"id" validate:"required"`
	PackageDetails
}

// ServiceRef is the service embedded in a supplier assignment
type ServiceRef struct {
	ID       string    `json:"id"`
	Title    string    `json:"title"`
	Category string    `json:"category"`
	Packages []Package `json:"packages" validate:"dive"`
}

// SupplierAssignment is one flat (supplier, service) row on a fetched event
type SupplierAssignment struct {
	SupplierID        string          `json:"supplierId" validate:"required"`
	ServiceID         string          `json:"serviceId" validate:"required"`
	Category          string          `json:"category"`
	Status            string          `json:"status,omitempty"`
	SelectedPackageID string          `json:"selectedPackageId,omitempty"`
	PackageDetails    *PackageDetails `json:"packageDetails,omitempty"`
	Service           *ServiceRef     `json:"service,omitempty"`
}

// Event is the full event representation used to hydrate the edit wizard.
// It is decoded leniently by Client.GetEvent.
type Event struct {
	ID               string               `json:"id"`
	Name             string               `json:"name"`
	Description      string               `json:"description"`
	StartDate        string               `json:"startDate"`
	EndDate          string               `json:"endDate"`
	Location         Location             `json:"location"`
	EventType        string               `json:"eventType"`
	IsPublic         *bool                `json:"isPublic"`
	Password         string               `json:"password,omitempty"`
	Status           string               `json:"status,omitempty"`
	RequiredServices []string             `json:"requiredServices"`
	Tickets          []EventTicket        `json:"tickets"`
	TicketInfo       *TicketInfo          `json:"ticketInfo"`
	Suppliers        []SupplierAssignment `json:"suppliers"`

	// Issues lists the parts of the response that could not be read and were left out
	Issues []FieldIssue `json:"-"`
}

// FieldIssue is one unreadable part of a fetched event
type FieldIssue struct {
	Field string
	Err   error
}

// EventSummary is a row of the browse and "my events" lists
type EventSummary struct {
	ID         string      `json:"id" validate:"required"`
	Name       string      `json:"name"`
	StartDate  string      `json:"startDate"`
	Location   Location    `json:"location"`
	EventType  string      `json:"eventType"`
	IsPublic   bool        `json:"isPublic"`
	Status     string      `json:"status"`
	TicketInfo *TicketInfo `json:"ticketInfo,omitempty"`
}

// Attendee is a row of an event's attendee list
type Attendee struct {
	ID          string     `json:"id" validate:"required"`
	Name        string     `json:"name"`
	Email       string     `json:"email"`
	TicketID    string     `json:"ticketId"`
	TicketType  string     `json:"ticketType"`
	Status      string     `json:"status"`
	CheckedIn   bool       `json:"checkedIn"`
	CheckedInAt *time.Time `json:"checkedInAt,omitempty"`
}

// SupplierInfo is the supplier side of a service listing
type SupplierInfo struct {
	ID     string  `json:"id" validate:"required"`
	Name   string  `json:"name"`
	Rating float64 `json:"rating" validate:"gte=0"`
}

// ServiceWithSuppliers is a row of the supplier browser
type ServiceWithSuppliers struct {
	ID          string       `json:"id" validate:"required"`
	Title       string       `json:"title"`
	Category    string       `json:"category"`
	Description string       `json:"description"`
	Price       float64      `json:"price" validate:"gte=0"`
	Packages    []Package    `json:"packages" validate:"dive"`
	Supplier    SupplierInfo `json:"supplier"`
}

// CheckInResult is returned by a single ticket check-in
type CheckInResult struct {
	TicketID     string     `json:"ticketId" validate:"required"`
	Status       string     `json:"status"`
	AttendeeName string     `json:"attendeeName"`
	CheckedInAt  *time.Time `json:"checkedInAt,omitempty"`
}

// BulkCheckInResult is returned by the check-in-all call
type BulkCheckInResult struct {
	CheckedIn      int `json:"checkedIn" validate:"gte=0"`
	AlreadyChecked int `json:"alreadyCheckedIn" validate:"gte=0"`
}

// QRVerification is the outcome of scanning a ticket QR code
type QRVerification struct {
	Valid        bool   `json:"valid"`
	TicketID     string `json:"ticketId"`
	EventID      string `json:"eventId"`
	AttendeeName string `json:"attendeeName"`
	Status       string `json:"status"`
}

// ================== EVENTS (write side) ==================

// EventPayload is the body of create and update calls
type EventPayload struct {
	Name             string            `json:"name"`
	Description      string            `json:"description"`
	StartDate        time.Time         `json:"startDate"`
	EndDate          time.Time         `json:"endDate"`
	Location         Location          `json:"location"`
	EventType        string            `json:"eventType"`
	IsPublic         bool              `json:"isPublic"`
	Password         string            `json:"password,omitempty"`
	RequiredServices []string          `json:"requiredServices"`
	Suppliers        []SupplierRequest `json:"suppliers"`
	Tickets          []TicketRequest   `json:"tickets,omitempty"`
	TicketInfo       TicketInfo        `json:"ticketInfo"`
	Budget           *Budget           `json:"budget,omitempty"`
}

// SupplierRequest groups the services requested from one supplier
type SupplierRequest struct {
	SupplierID string           `json:"supplierId"`
	Services   []ServiceRequest `json:"services"`
}

// ServiceRequest is one requested offering
type ServiceRequest struct {
	ServiceID         string          `json:"serviceId"`
	Priority          string          `json:"priority"`
	Notes             string          `json:"notes"`
	SelectedPackageID string          `json:"selectedPackageId,omitempty"`
	PackageDetails    *PackageDetails `json:"packageDetails,omitempty"`
	RequestedPrice    *float64        `json:"requestedPrice,omitempty"`
}

// TicketRequest is a ticket tier as sent to the API
type TicketRequest struct {
	Name     string  `json:"name"`
	Quantity int     `json:"quantity"`
	Price    float64 `json:"price"`
}

// Budget is the expected revenue envelope of a paid event
type Budget struct {
	Min      float64 `json:"min"`
	Max      float64 `json:"max"`
	Currency string  `json:"currency"`
}

// AddSuppliersRequest is the body of the add-suppliers call
type AddSuppliersRequest struct {
	Suppliers []SupplierRequest `json:"suppliers"`
}

// RegisterRequest registers the caller as an attendee
type RegisterRequest struct {
	TicketType string `json:"ticketType,omitempty"`
	Quantity   int    `json:"quantity" binding:"required,min=1,max=20"`
}

// Registration is the answer of a successful registration
type Registration struct {
	EventID   string   `json:"eventId" validate:"required"`
	TicketIDs []string `json:"ticketIds" validate:"min=1"`
}

// ================== QUERIES ==================

// MyEventsQuery pages the producer's own events
type MyEventsQuery struct {
	Page      int    `form:"page" binding:"omitempty,min=1"`
	Limit     int    `form:"limit" binding:"omitempty,min=1,max=100"`
	SortBy    string `form:"sortBy" binding:"omitempty,oneof=startDate createdAt name"`
	SortOrder string `form:"sortOrder" binding:"omitempty,oneof=asc desc"`
}

// EventFilter pages the public browse list
type EventFilter struct {
	Page     int    `form:"page" binding:"omitempty,min=1"`
	Limit    int    `form:"limit" binding:"omitempty,min=1,max=100"`
	Search   string `form:"search"`
	Category string `form:"category"`
	City     string `form:"city"`
	DateFrom string `form:"dateFrom"`
	DateTo   string `form:"dateTo"`
}

// AttendeeQuery pages an event's attendees
type AttendeeQuery struct {
	Page   int    `form:"page" binding:"omitempty,min=1"`
	Limit  int    `form:"limit" binding:"omitempty,min=1,max=100"`
	Search string `form:"search"`
	Status string `form:"status"`
}

// ServiceQuery pages the supplier browser
type ServiceQuery struct {
	Category string `form:"category"`
	Page     int    `form:"page" binding:"omitempty,min=1"`
	Limit    int    `form:"limit" binding:"omitempty,min=1,max=100"`
}
