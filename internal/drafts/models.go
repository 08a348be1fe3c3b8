package drafts

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"

	"eventwizard/internal/marketplace"
)

// Step identifies one screen of the wizard
type Step string

const (
	StepDetails   Step = "details"
	StepServices  Step = "services"
	StepSuppliers Step = "suppliers"
	StepReview    Step = "review"
)

// Steps is the declared step sequence, in order
var Steps = []Step{StepDetails, StepServices, StepSuppliers, StepReview}

// IsValid checks if the step is one of the declared steps
func (s Step) IsValid() bool {
	return s.index() >= 0
}

func (s Step) index() int {
	for i, step := range Steps {
		if step == s {
			return i
		}
	}
	return -1
}

// Mode tells whether a draft creates a new event or edits an existing one
type Mode string

const (
	ModeCreate Mode = "create"
	ModeEdit   Mode = "edit"
)

// Field names, as used in update requests and in validation error maps
const (
	FieldName            = "name"
	FieldDescription     = "description"
	FieldDate            = "date"
	FieldTime            = "time"
	FieldEndDate         = "endDate"
	FieldEndTime         = "endTime"
	FieldLocation        = "location"
	FieldEventType       = "eventType"
	FieldIsPrivate       = "isPrivate"
	FieldPassword        = "password"
	FieldIsPaid          = "isPaid"
	FieldIsFree          = "isFree"
	FieldFreeTicketLimit = "freeTicketLimit"
	FieldServices        = "services"
	FieldSuppliers       = "selectedSuppliers"
	FieldPackages        = "selectedPackages"
	FieldTickets         = "tickets"
)

// EventFields are the flat scalar fields of a draft
type EventFields struct {
	Name            string `json:"name"`
	Description     string `json:"description"`
	Date            string `json:"date"`
	Time            string `json:"time"`
	EndDate         string `json:"endDate,omitempty"`
	EndTime         string `json:"endTime,omitempty"`
	Location        string `json:"location"`
	EventType       string `json:"eventType"`
	IsPrivate       bool   `json:"isPrivate"`
	Password        string `json:"password"`
	IsPaid          bool   `json:"isPaid"`
	IsFree          bool   `json:"isFree"`
	FreeTicketLimit int    `json:"freeTicketLimit"`
}

// PackageSelection is the package chosen for one offering
type PackageSelection struct {
	PackageID      string                     `json:"packageId"`
	PackageDetails marketplace.PackageDetails `json:"packageDetails"`
}

// TicketTier is one ticket type of the event. Identity is ID.
type TicketTier struct {
	ID       string  `json:"id"`
	Name     string  `json:"name"`
	Quantity int     `json:"quantity"`
	Price    float64 `json:"price"`
}

// Revenue is quantity × price
func (t TicketTier) Revenue() float64 {
	return float64(t.Quantity) * t.Price
}

// EventDraft is the whole in-progress event of one wizard session.
// SelectedSuppliers is category -> supplierID -> offering IDs and never holds an empty
// collection; SelectedPackages only names offerings present in SelectedSuppliers.
type EventDraft struct {
	EventFields
	Services          []string                       `json:"services"`
	SelectedSuppliers map[string]map[string][]string `json:"selectedSuppliers"`
	SelectedPackages  map[string]PackageSelection    `json:"selectedPackages"`
	Tickets           []TicketTier                   `json:"tickets"`
	CurrentStep       Step                           `json:"currentStep"`
}

// NewDraft returns an empty draft positioned on the first step
func NewDraft() EventDraft {
	return EventDraft{
		Services:          []string{},
		SelectedSuppliers: map[string]map[string][]string{},
		SelectedPackages:  map[string]PackageSelection{},
		Tickets:           []TicketTier{},
		CurrentStep:       StepDetails,
	}
}

// UnmarshalJSON reads snapshots leniently: legacy startDate/startTime keys fill
// date/time when those are missing, and nil collections become empty ones.
func (d *EventDraft) UnmarshalJSON(data []byte) error {
	type plain EventDraft
	var aux struct {
		plain
		StartDate string `json:"startDate"`
		StartTime string `json:"startTime"`
	}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}

	*d = EventDraft(aux.plain)
	if d.Date == "" {
		d.Date = aux.StartDate
	}
	if d.Time == "" {
		d.Time = aux.StartTime
	}
	d.normalize()
	return nil
}

// normalize restores the collection invariants on data that came from outside
func (d *EventDraft) normalize() {
	if d.Services == nil {
		d.Services = []string{}
	}
	if d.SelectedSuppliers == nil {
		d.SelectedSuppliers = map[string]map[string][]string{}
	}
	if d.SelectedPackages == nil {
		d.SelectedPackages = map[string]PackageSelection{}
	}
	if d.Tickets == nil {
		d.Tickets = []TicketTier{}
	}
	if !d.CurrentStep.IsValid() {
		d.CurrentStep = StepDetails
	}

	for category, suppliers := range d.SelectedSuppliers {
		for supplierID, offerings := range suppliers {
			if len(offerings) == 0 {
				delete(suppliers, supplierID)
			}
		}
		if len(suppliers) == 0 {
			delete(d.SelectedSuppliers, category)
		}
	}
	for offeringID := range d.SelectedPackages {
		if !d.offeringSelected(offeringID) {
			delete(d.SelectedPackages, offeringID)
		}
	}
}

// Clone returns a deep copy
func (d EventDraft) Clone() EventDraft {
	out := d
	out.Services = append([]string{}, d.Services...)
	out.Tickets = append([]TicketTier{}, d.Tickets...)

	out.SelectedSuppliers = make(map[string]map[string][]string, len(d.SelectedSuppliers))
	for category, suppliers := range d.SelectedSuppliers {
		inner := make(map[string][]string, len(suppliers))
		for supplierID, offerings := range suppliers {
			inner[supplierID] = append([]string{}, offerings...)
		}
		out.SelectedSuppliers[category] = inner
	}

	out.SelectedPackages = make(map[string]PackageSelection, len(d.SelectedPackages))
	for offeringID, sel := range d.SelectedPackages {
		sel.PackageDetails.Features = append([]string(nil), sel.PackageDetails.Features...)
		out.SelectedPackages[offeringID] = sel
	}
	return out
}

// UnmarshalJSON coerces quantity and price the way the browser did: numbers and
// numeric strings are accepted, anything else (or a negative value) reads as 0.
func (t *TicketTier) UnmarshalJSON(data []byte) error {
	var raw struct {
		ID       json.RawMessage `json:"id"`
		Name     json.RawMessage `json:"name"`
		Quantity json.RawMessage `json:"quantity"`
		Price    json.RawMessage `json:"price"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	t.ID = looseString(raw.ID)
	t.Name = looseString(raw.Name)
	t.Quantity = int(looseNumber(raw.Quantity))
	t.Price = looseNumber(raw.Price)
	return nil
}

func looseString(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	var n json.Number
	if err := json.Unmarshal(raw, &n); err == nil {
		return n.String()
	}
	return ""
}

func looseNumber(raw json.RawMessage) float64 {
	if len(raw) == 0 {
		return 0
	}

	var f float64
	if err := json.Unmarshal(raw, &f); err != nil {
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return 0
		}
		parsed, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
		if err != nil {
			return 0
		}
		f = parsed
	}

	if math.IsNaN(f) || math.IsInf(f, 0) || f < 0 {
		return 0
	}
	return f
}
