package submission

import (
	"errors"
	"fmt"
	"slices"
	"sort"
	"strings"
	"time"

	"eventwizard/internal/drafts"
	"eventwizard/internal/marketplace"
)

const (
	// DefaultDuration is the length given to events without an explicit end
	DefaultDuration = 4 * time.Hour
	// DefaultCurrency of the budget block
	DefaultCurrency = "ILS"
	// DefaultPriority of every requested service
	DefaultPriority = "medium"
)

var ErrInvalidSchedule = errors.New("invalid event date or time")

// Transformer reduces a draft to the marketplace request body. It holds no state
// besides its settings and is safe for concurrent use.
type Transformer struct {
	location *time.Location
	currency string
}

// Option configures a Transformer
type Option func(*Transformer)

// WithLocation sets the time zone that draft dates and times are read in
func WithLocation(loc *time.Location) Option {
	return func(t *Transformer) {
		if loc != nil {
			t.location = loc
		}
	}
}

// WithCurrency sets the budget currency
func WithCurrency(currency string) Option {
	return func(t *Transformer) {
		if currency != "" {
			t.currency = currency
		}
	}
}

func NewTransformer(opts ...Option) *Transformer {
	t := &Transformer{location: time.UTC, currency: DefaultCurrency}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Transform builds the create/update payload of d
func (t *Transformer) Transform(d drafts.EventDraft) (*marketplace.EventPayload, error) {
	start, end, err := t.Schedule(d)
	if err != nil {
		return nil, err
	}

	summary := AggregateTickets(d.Tickets)
	address, city := SplitLocation(d.Location)

	payload := &marketplace.EventPayload{
		Name:             d.Name,
		Description:      d.Description,
		StartDate:        start,
		EndDate:          end,
		Location:         marketplace.Location{Address: address, City: city},
		EventType:        d.EventType,
		IsPublic:         !d.IsPrivate,
		RequiredServices: NormalizeServices(d.Services),
		Suppliers:        Suppliers(d),
		TicketInfo:       ticketInfo(d, summary),
	}

	if d.IsPrivate && d.Password != "" {
		payload.Password = d.Password
	}
	for _, tier := range d.Tickets {
		payload.Tickets = append(payload.Tickets, marketplace.TicketRequest{
			Name:     tier.Name,
			Quantity: tier.Quantity,
			Price:    tier.Price,
		})
	}
	if d.IsPaid && summary.TotalRevenue > 0 {
		payload.Budget = &marketplace.Budget{Min: 0, Max: summary.TotalRevenue, Currency: t.currency}
	}

	return payload, nil
}

// Schedule returns the start and end instants of d, in UTC. Without an explicit
// end date the event lasts DefaultDuration; an explicit end date without a time
// reuses the start time.
func (t *Transformer) Schedule(d drafts.EventDraft) (time.Time, time.Time, error) {
	start, err := t.combine(d.Date, d.Time)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("%w: start: %v", ErrInvalidSchedule, err)
	}
	if strings.TrimSpace(d.EndDate) == "" {
		return start, start.Add(DefaultDuration), nil
	}

	endTime := d.EndTime
	if strings.TrimSpace(endTime) == "" {
		endTime = d.Time
	}
	end, err := t.combine(d.EndDate, endTime)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("%w: end: %v", ErrInvalidSchedule, err)
	}
	return start, end, nil
}

func (t *Transformer) combine(date, clock string) (time.Time, error) {
	date, clock = strings.TrimSpace(date), strings.TrimSpace(clock)
	if date == "" {
		return time.Time{}, errors.New("date is empty")
	}
	if clock == "" {
		clock = "00:00"
	}

	for _, layout := range []string{"2006-01-02 15:04", "2006-01-02 15:04:05"} {
		if ts, err := time.ParseInLocation(layout, date+" "+clock, t.location); err == nil {
			return ts.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("cannot parse %q %q", date, clock)
}

// Suppliers regroups the category -> supplier -> offerings selection by supplier.
// Categories and supplier ids are walked in sorted order, offerings in list order,
// so the result is stable for a given draft.
func Suppliers(d drafts.EventDraft) []marketplace.SupplierRequest {
	requests := []marketplace.SupplierRequest{}
	index := map[string]int{}

	for _, category := range sortedKeys(d.SelectedSuppliers) {
		bySupplier := d.SelectedSuppliers[category]
		for _, supplierID := range sortedKeys(bySupplier) {
			i, ok := index[supplierID]
			if !ok {
				i = len(requests)
				index[supplierID] = i
				requests = append(requests, marketplace.SupplierRequest{SupplierID: supplierID})
			}
			for _, offeringID := range bySupplier[supplierID] {
				requests[i].Services = append(requests[i].Services, serviceRequest(d, category, offeringID))
			}
		}
	}
	return requests
}

func serviceRequest(d drafts.EventDraft, category, offeringID string) marketplace.ServiceRequest {
	req := marketplace.ServiceRequest{
		ServiceID: offeringID,
		Priority:  DefaultPriority,
		Notes:     fmt.Sprintf("Selected for %s service", category),
	}
	if sel, ok := d.SelectedPackages[offeringID]; ok {
		details := sel.PackageDetails
		details.Features = slices.Clone(details.Features)
		price := details.Price
		req.SelectedPackageID = sel.PackageID
		req.PackageDetails = &details
		req.RequestedPrice = &price
	}
	return req
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// TicketSummary aggregates the ticket tiers of a draft
type TicketSummary struct {
	TotalTickets int
	TotalRevenue float64
	MinPrice     float64
	MaxPrice     float64
}

// AggregateTickets totals quantities and revenue and finds the price range.
// Prices are 0 when there are no tiers.
func AggregateTickets(tiers []drafts.TicketTier) TicketSummary {
	var s TicketSummary
	for i, tier := range tiers {
		s.TotalTickets += tier.Quantity
		s.TotalRevenue += tier.Revenue()
		if i == 0 {
			s.MinPrice, s.MaxPrice = tier.Price, tier.Price
			continue
		}
		s.MinPrice = min(s.MinPrice, tier.Price)
		s.MaxPrice = max(s.MaxPrice, tier.Price)
	}
	return s
}

// ticketInfo is always emitted: the priced form for paid events, a zeroed free form otherwise
func ticketInfo(d drafts.EventDraft, s TicketSummary) marketplace.TicketInfo {
	if d.IsPaid && s.MinPrice != 0 {
		return marketplace.TicketInfo{
			TotalTickets:     s.TotalTickets,
			AvailableTickets: s.TotalTickets,
			IsFree:           false,
			PriceRange:       marketplace.PriceRange{Min: s.MinPrice, Max: s.MaxPrice},
		}
	}

	total := s.TotalTickets
	if d.IsFree && d.FreeTicketLimit > 0 {
		total = d.FreeTicketLimit
	}
	return marketplace.TicketInfo{
		TotalTickets:     total,
		AvailableTickets: total,
		IsFree:           true,
	}
}

// SplitLocation splits "address, city": the last comma separated segment is the
// city and the rest is the address. A single segment fills both.
func SplitLocation(location string) (address, city string) {
	var segments []string
	for _, part := range strings.Split(location, ",") {
		if part = strings.TrimSpace(part); part != "" {
			segments = append(segments, part)
		}
	}

	switch len(segments) {
	case 0:
		return "", ""
	case 1:
		return segments[0], segments[0]
	default:
		last := len(segments) - 1
		return strings.Join(segments[:last], ", "), segments[last]
	}
}
