package drafts

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"eventwizard/internal/marketplace"
)

var (
	ErrUnknownField        = errors.New("unknown draft field")
	ErrInvalidValue        = errors.New("invalid value for draft field")
	ErrServiceNotSelected  = errors.New("service category is not selected")
	ErrOfferingNotSelected = errors.New("offering is not selected")
	ErrTicketNotFound      = errors.New("ticket not found")
	ErrDuplicateTicket     = errors.New("ticket id already exists")
	ErrInvalidTicket       = errors.New("ticket quantity and price must not be negative")
)

// Command is one mutation of a draft. The set of commands is closed: only the
// constructors and types of this package implement it.
type Command interface {
	// apply mutates d and returns the fields whose validation errors it clears.
	apply(d *EventDraft) ([]string, error)
}

// ================== FIELD SETTERS ==================

type setField struct {
	field string
	set   func(f *EventFields)
}

func (c setField) apply(d *EventDraft) ([]string, error) {
	c.set(&d.EventFields)
	return []string{c.field}, nil
}

func SetName(v string) Command {
	return setField{FieldName, func(f *EventFields) { f.Name = v }}
}

func SetDescription(v string) Command {
	return setField{FieldDescription, func(f *EventFields) { f.Description = v }}
}

func SetDate(v string) Command {
	return setField{FieldDate, func(f *EventFields) { f.Date = v }}
}

func SetTime(v string) Command {
	return setField{FieldTime, func(f *EventFields) { f.Time = v }}
}

func SetEndDate(v string) Command {
	return setField{FieldEndDate, func(f *EventFields) { f.EndDate = v }}
}

func SetEndTime(v string) Command {
	return setField{FieldEndTime, func(f *EventFields) { f.EndTime = v }}
}

func SetLocation(v string) Command {
	return setField{FieldLocation, func(f *EventFields) { f.Location = v }}
}

func SetEventType(v string) Command {
	return setField{FieldEventType, func(f *EventFields) { f.EventType = v }}
}

func SetPrivate(v bool) Command {
	return setField{FieldIsPrivate, func(f *EventFields) { f.IsPrivate = v }}
}

func SetPassword(v string) Command {
	return setField{FieldPassword, func(f *EventFields) { f.Password = v }}
}

// SetPaid marks the event paid; isFree is cleared since the two are exclusive.
func SetPaid(v bool) Command {
	return setField{FieldIsPaid, func(f *EventFields) {
		f.IsPaid = v
		if v {
			f.IsFree = false
		}
	}}
}

// SetFree marks the event free; isPaid is cleared since the two are exclusive.
func SetFree(v bool) Command {
	return setField{FieldIsFree, func(f *EventFields) {
		f.IsFree = v
		if v {
			f.IsPaid = false
		}
	}}
}

func SetFreeTicketLimit(v int) Command {
	return setField{FieldFreeTicketLimit, func(f *EventFields) { f.FreeTicketLimit = v }}
}

// ParseUpdate turns a {field, value} pair from a client into a Command.
// "startDate" and "startTime" are accepted for date and time.
func ParseUpdate(field string, value json.RawMessage) (Command, error) {
	switch field {
	case FieldName:
		return stringCommand(field, value, SetName)
	case FieldDescription:
		return stringCommand(field, value, SetDescription)
	case FieldDate, "startDate":
		return stringCommand(field, value, SetDate)
	case FieldTime, "startTime":
		return stringCommand(field, value, SetTime)
	case FieldEndDate:
		return stringCommand(field, value, SetEndDate)
	case FieldEndTime:
		return stringCommand(field, value, SetEndTime)
	case FieldLocation:
		return stringCommand(field, value, SetLocation)
	case FieldEventType:
		return stringCommand(field, value, SetEventType)
	case FieldPassword:
		return stringCommand(field, value, SetPassword)
	case FieldIsPrivate:
		return boolCommand(field, value, SetPrivate)
	case FieldIsPaid:
		return boolCommand(field, value, SetPaid)
	case FieldIsFree:
		return boolCommand(field, value, SetFree)
	case FieldFreeTicketLimit:
		var n int
		if err := json.Unmarshal(value, &n); err != nil || n < 0 {
			return nil, fmt.Errorf("%w %q: expected a non-negative integer", ErrInvalidValue, field)
		}
		return SetFreeTicketLimit(n), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownField, field)
	}
}

func stringCommand(field string, value json.RawMessage, build func(string) Command) (Command, error) {
	var s string
	if err := json.Unmarshal(value, &s); err != nil {
		return nil, fmt.Errorf("%w %q: expected a string", ErrInvalidValue, field)
	}
	return build(s), nil
}

func boolCommand(field string, value json.RawMessage, build func(bool) Command) (Command, error) {
	var b bool
	if err := json.Unmarshal(value, &b); err != nil {
		return nil, fmt.Errorf("%w %q: expected a boolean", ErrInvalidValue, field)
	}
	return build(b), nil
}

// ================== SELECTIONS ==================

// ToggleService selects or unselects a service category
type ToggleService struct {
	Category string
	Selected bool
}

func (c ToggleService) apply(d *EventDraft) ([]string, error) {
	category := strings.TrimSpace(c.Category)
	if category == "" {
		return nil, fmt.Errorf("%w: empty service category", ErrInvalidValue)
	}
	d.toggleService(category, c.Selected)
	return []string{FieldServices}, nil
}

// ToggleSupplierOffering flips one offering of one supplier within a selected category
type ToggleSupplierOffering struct {
	Category   string
	SupplierID string
	OfferingID string
}

func (c ToggleSupplierOffering) apply(d *EventDraft) ([]string, error) {
	if c.Category == "" || c.SupplierID == "" || c.OfferingID == "" {
		return nil, fmt.Errorf("%w: category, supplier and offering are required", ErrInvalidValue)
	}
	if !d.HasService(c.Category) {
		return nil, fmt.Errorf("%w: %s", ErrServiceNotSelected, c.Category)
	}
	d.toggleSupplierOffering(c.Category, c.SupplierID, c.OfferingID)
	return []string{FieldSuppliers}, nil
}

// TogglePackage selects (or clears, when already chosen) the package of a selected offering
type TogglePackage struct {
	OfferingID string
	PackageID  string
	Details    marketplace.PackageDetails
}

func (c TogglePackage) apply(d *EventDraft) ([]string, error) {
	if c.OfferingID == "" || c.PackageID == "" {
		return nil, fmt.Errorf("%w: offering and package are required", ErrInvalidValue)
	}
	if c.Details.Price < 0 {
		return nil, fmt.Errorf("%w: package price must not be negative", ErrInvalidValue)
	}
	if !d.offeringSelected(c.OfferingID) {
		return nil, fmt.Errorf("%w: %s", ErrOfferingNotSelected, c.OfferingID)
	}
	d.togglePackage(c.OfferingID, c.PackageID, c.Details)
	return []string{FieldPackages}, nil
}

// ================== TICKETS ==================

// AddTicket appends a tier; an empty ID is replaced by a generated one.
type AddTicket struct {
	Tier TicketTier
}

func (c AddTicket) apply(d *EventDraft) ([]string, error) {
	if _, err := d.addTicket(c.Tier); err != nil {
		return nil, err
	}
	return []string{FieldTickets}, nil
}

// TicketPatch lists the tier attributes to change; nil leaves one untouched
type TicketPatch struct {
	Name     *string
	Quantity *int
	Price    *float64
}

// UpdateTicket edits a tier in place
type UpdateTicket struct {
	ID    string
	Patch TicketPatch
}

func (c UpdateTicket) apply(d *EventDraft) ([]string, error) {
	if err := d.updateTicket(c.ID, c.Patch); err != nil {
		return nil, err
	}
	return []string{FieldTickets}, nil
}

// RemoveTicket drops a tier
type RemoveTicket struct {
	ID string
}

func (c RemoveTicket) apply(d *EventDraft) ([]string, error) {
	if err := d.removeTicket(c.ID); err != nil {
		return nil, err
	}
	return []string{FieldTickets}, nil
}
