package marketplace

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
)

var (
	errNotString = errors.New("expected a string")
	errNotNumber = errors.New("expected a non-negative number")
)

// rawEvent keeps every part of an event as raw JSON so each can fail on its own
type rawEvent struct {
	ID               json.RawMessage `json:"id"`
	Name             json.RawMessage `json:"name"`
	Description      json.RawMessage `json:"description"`
	StartDate        json.RawMessage `json:"startDate"`
	EndDate          json.RawMessage `json:"endDate"`
	Location         json.RawMessage `json:"location"`
	EventType        json.RawMessage `json:"eventType"`
	IsPublic         json.RawMessage `json:"isPublic"`
	Password         json.RawMessage `json:"password"`
	Status           json.RawMessage `json:"status"`
	RequiredServices json.RawMessage `json:"requiredServices"`
	Tickets          json.RawMessage `json:"tickets"`
	TicketInfo       json.RawMessage `json:"ticketInfo"`
	Suppliers        json.RawMessage `json:"suppliers"`
}

// eventDecoder reads an event field by field. Unreadable fields keep their zero
// value and unreadable ticket or supplier rows are dropped; each is recorded as an issue.
type eventDecoder struct {
	validate *validator.Validate
	issues   []FieldIssue
}

// decodeEvent decodes the data of a GetEvent response. Only a body that is not
// an object at all is malformed; an event without an id takes requestedID.
func (c *Client) decodeEvent(env *envelope, requestedID string) (*Event, error) {
	if len(env.Data) == 0 || string(env.Data) == "null" {
		return nil, fmt.Errorf("%w: missing data", ErrMalformedResponse)
	}
	var raw rawEvent
	if err := json.Unmarshal(env.Data, &raw); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}

	d := &eventDecoder{validate: c.validate}
	event := &Event{
		ID:               d.str("id", raw.ID),
		Name:             d.str("name", raw.Name),
		Description:      d.str("description", raw.Description),
		StartDate:        d.str("startDate", raw.StartDate),
		EndDate:          d.str("endDate", raw.EndDate),
		Location:         d.location(raw.Location),
		EventType:        d.str("eventType", raw.EventType),
		IsPublic:         d.boolean("isPublic", raw.IsPublic),
		Password:         d.str("password", raw.Password),
		Status:           d.str("status", raw.Status),
		RequiredServices: d.stringList("requiredServices", raw.RequiredServices),
		Tickets:          d.tickets(raw.Tickets),
		TicketInfo:       d.ticketInfo(raw.TicketInfo),
		Suppliers:        d.suppliers(raw.Suppliers),
	}
	if event.ID == "" {
		d.issue("id", errors.New("missing, using the requested id"))
		event.ID = requestedID
	}
	event.Issues = d.issues
	return event, nil
}

func (d *eventDecoder) issue(field string, err error) {
	d.issues = append(d.issues, FieldIssue{Field: field, Err: err})
}

func absent(raw json.RawMessage) bool {
	return len(raw) == 0 || string(raw) == "null"
}

func (d *eventDecoder) str(field string, raw json.RawMessage) string {
	if absent(raw) {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		d.issue(field, errNotString)
		return ""
	}
	return s
}

func (d *eventDecoder) boolean(field string, raw json.RawMessage) *bool {
	if absent(raw) {
		return nil
	}
	var b bool
	if err := json.Unmarshal(raw, &b); err == nil {
		return &b
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		if parsed, err := strconv.ParseBool(strings.TrimSpace(s)); err == nil {
			return &parsed
		}
	}
	d.issue(field, errors.New("expected a boolean"))
	return nil
}

// location accepts the structured form or a plain address string
func (d *eventDecoder) location(raw json.RawMessage) Location {
	if absent(raw) {
		return Location{}
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return Location{Address: s}
	}
	var fields struct {
		Address json.RawMessage `json:"address"`
		City    json.RawMessage `json:"city"`
	}
	if err := json.Unmarshal(raw, &fields); err != nil {
		d.issue("location", errors.New("expected an object or a string"))
		return Location{}
	}
	return Location{
		Address: d.str("location.address", fields.Address),
		City:    d.str("location.city", fields.City),
	}
}

func (d *eventDecoder) rows(field string, raw json.RawMessage) []json.RawMessage {
	if absent(raw) {
		return nil
	}
	var rows []json.RawMessage
	if err := json.Unmarshal(raw, &rows); err != nil {
		d.issue(field, errors.New("expected a list"))
		return nil
	}
	return rows
}

func (d *eventDecoder) stringList(field string, raw json.RawMessage) []string {
	var out []string
	for i, row := range d.rows(field, raw) {
		var s string
		if err := json.Unmarshal(row, &s); err != nil {
			d.issue(fmt.Sprintf("%s[%d]", field, i), errNotString)
			continue
		}
		out = append(out, s)
	}
	return out
}

// tickets reads each tier on its own; quantity and price may be numeric strings
func (d *eventDecoder) tickets(raw json.RawMessage) []EventTicket {
	var out []EventTicket
	for i, row := range d.rows("tickets", raw) {
		field := fmt.Sprintf("tickets[%d]", i)
		var t struct {
			ID       json.RawMessage `json:"id"`
			Name     json.RawMessage `json:"name"`
			Quantity json.RawMessage `json:"quantity"`
			Price    json.RawMessage `json:"price"`
		}
		if err := json.Unmarshal(row, &t); err != nil {
			d.issue(field, errors.New("expected an object"))
			continue
		}
		quantity, ok := number(t.Quantity)
		if !ok {
			d.issue(field+".quantity", errNotNumber)
			continue
		}
		price, ok := number(t.Price)
		if !ok {
			d.issue(field+".price", errNotNumber)
			continue
		}
		out = append(out, EventTicket{
			ID:       d.str(field+".id", t.ID),
			Name:     d.str(field+".name", t.Name),
			Quantity: int(quantity),
			Price:    price,
		})
	}
	return out
}

func (d *eventDecoder) ticketInfo(raw json.RawMessage) *TicketInfo {
	if absent(raw) {
		return nil
	}
	var info TicketInfo
	if err := json.Unmarshal(raw, &info); err != nil {
		d.issue("ticketInfo", err)
		return nil
	}
	if err := d.validate.Struct(&info); err != nil {
		d.issue("ticketInfo", err)
		return nil
	}
	return &info
}

// suppliers validates every assignment row separately and drops the bad ones
func (d *eventDecoder) suppliers(raw json.RawMessage) []SupplierAssignment {
	var out []SupplierAssignment
	for i, row := range d.rows("suppliers", raw) {
		field := fmt.Sprintf("suppliers[%d]", i)
		var a SupplierAssignment
		if err := json.Unmarshal(row, &a); err != nil {
			d.issue(field, err)
			continue
		}
		if err := d.validate.Struct(&a); err != nil {
			d.issue(field, err)
			continue
		}
		out = append(out, a)
	}
	return out
}

// number reads a JSON number or numeric string. Absent values read as 0; negative
// and non-numeric values are rejected.
func number(raw json.RawMessage) (float64, bool) {
	if absent(raw) {
		return 0, true
	}
	var f float64
	if err := json.Unmarshal(raw, &f); err != nil {
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return 0, false
		}
		if f, err = strconv.ParseFloat(strings.TrimSpace(s), 64); err != nil {
			return 0, false
		}
	}
	return f, f >= 0
}
