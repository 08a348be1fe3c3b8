package drafts

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"eventwizard/internal/marketplace"

	"github.com/google/uuid"
)

const (
	generalAdmission = "General Admission"
	fallbackCategory = "other"

	dateLayout = "2006-01-02"
	timeLayout = "15:04"
)

var errMissing = errors.New("missing")

// RestoreFromEvent replaces the draft with the contents of a fetched event. Fields
// that cannot be read keep their defaults; every such problem is logged and
// hydration carries on with the rest.
func (w *Wizard) RestoreFromEvent(ctx context.Context, event marketplace.Event) {
	w.mu.Lock()
	defer w.mu.Unlock()

	h := hydrator{ctx: ctx, wizard: w, eventID: event.ID}
	w.draft = h.draft(event)
	w.errors = map[string]string{}
	w.persist(ctx)
}

type hydrator struct {
	ctx     context.Context
	wizard  *Wizard
	eventID string
}

func (h hydrator) issue(field string, err error) {
	h.wizard.logger.LogHydrationIssue(h.ctx, h.eventID, field, err)
}

func (h hydrator) draft(event marketplace.Event) EventDraft {
	for _, issue := range event.Issues {
		h.issue(issue.Field, issue.Err)
	}

	d := NewDraft()
	d.Name = event.Name
	d.Description = event.Description
	d.EventType = event.EventType
	d.Location = flattenLocation(event.Location)

	if date, clock, err := h.splitInstant(event.StartDate); err != nil {
		h.issue("startDate", err)
	} else {
		d.Date, d.Time = date, clock
	}
	if event.EndDate != "" {
		if date, clock, err := h.splitInstant(event.EndDate); err != nil {
			h.issue("endDate", err)
		} else {
			d.EndDate, d.EndTime = date, clock
		}
	}

	if event.IsPublic == nil {
		h.issue("isPublic", errMissing)
	} else {
		d.IsPrivate = !*event.IsPublic
	}
	if d.IsPrivate {
		d.Password = event.Password
	}

	d.Tickets = h.tickets(event)
	d.IsPaid = minTicketPrice(event) > 0
	d.IsFree = !d.IsPaid
	if d.IsFree && event.TicketInfo != nil {
		d.FreeTicketLimit = event.TicketInfo.TotalTickets
	}

	for _, category := range event.RequiredServices {
		if category = strings.TrimSpace(category); category != "" && !d.HasService(category) {
			d.Services = append(d.Services, category)
		}
	}
	h.suppliers(&d, event.Suppliers)

	return d
}

func (h hydrator) splitInstant(value string) (string, string, error) {
	if value == "" {
		return "", "", errMissing
	}
	t, err := time.Parse(time.RFC3339, value)
	if err != nil {
		if t, err = time.Parse(dateLayout, value); err != nil {
			return "", "", fmt.Errorf("unparseable instant %q", value)
		}
		return t.Format(dateLayout), "", nil
	}
	t = t.In(h.wizard.location)
	return t.Format(dateLayout), t.Format(timeLayout), nil
}

// flattenLocation renders a structured location as "address, city"
func flattenLocation(loc marketplace.Location) string {
	address := strings.TrimSpace(loc.Address)
	city := strings.TrimSpace(loc.City)
	switch {
	case address == "":
		return city
	case city == "" || strings.EqualFold(address, city):
		return address
	default:
		return address + ", " + city
	}
}

func minTicketPrice(event marketplace.Event) float64 {
	if len(event.Tickets) > 0 {
		lowest := event.Tickets[0].Price
		for _, t := range event.Tickets[1:] {
			lowest = min(lowest, t.Price)
		}
		return lowest
	}
	if event.TicketInfo != nil {
		return event.TicketInfo.PriceRange.Min
	}
	return 0
}

// tickets copies the event's tiers, or synthesizes a single tier from the aggregate
// ticket info when the event carries none.
func (h hydrator) tickets(event marketplace.Event) []TicketTier {
	tiers := []TicketTier{}
	for _, t := range event.Tickets {
		id := t.ID
		if id == "" || slices.ContainsFunc(tiers, func(existing TicketTier) bool { return existing.ID == id }) {
			id = uuid.NewString()
		}
		tiers = append(tiers, TicketTier{ID: id, Name: t.Name, Quantity: t.Quantity, Price: t.Price})
	}
	if len(tiers) > 0 {
		return tiers
	}

	info := event.TicketInfo
	if info == nil {
		h.issue("tickets", errMissing)
		return tiers
	}
	if info.TotalTickets == 0 {
		return tiers
	}
	return append(tiers, TicketTier{
		ID:       uuid.NewString(),
		Name:     generalAdmission,
		Quantity: info.TotalTickets,
		Price:    info.PriceRange.Min,
	})
}

// suppliers regroups the flat assignment rows into category -> supplier -> offerings
// and recovers the chosen package of each offering.
func (h hydrator) suppliers(d *EventDraft, assignments []marketplace.SupplierAssignment) {
	for _, a := range assignments {
		if a.SupplierID == "" || a.ServiceID == "" {
			h.issue("suppliers", errors.New("assignment without supplier or service id"))
			continue
		}

		category := strings.TrimSpace(a.Category)
		if category == "" && a.Service != nil {
			category = strings.TrimSpace(a.Service.Category)
		}
		if category == "" {
			h.issue("suppliers", fmt.Errorf("service %s has no category", a.ServiceID))
			category = fallbackCategory
		}

		if !d.HasService(category) {
			d.Services = append(d.Services, category)
		}
		if !d.offeringSelected(a.ServiceID) {
			d.toggleSupplierOffering(category, a.SupplierID, a.ServiceID)
		}

		if a.SelectedPackageID == "" {
			continue
		}
		details, ok := packageDetails(a)
		if !ok {
			h.issue("selectedPackages", fmt.Errorf("package %s not found for service %s", a.SelectedPackageID, a.ServiceID))
			continue
		}
		d.SelectedPackages[a.ServiceID] = PackageSelection{PackageID: a.SelectedPackageID, PackageDetails: details}
	}
}

func packageDetails(a marketplace.SupplierAssignment) (marketplace.PackageDetails, bool) {
	if a.PackageDetails != nil {
		return *a.PackageDetails, true
	}
	if a.Service == nil {
		return marketplace.PackageDetails{}, false
	}
	for _, p := range a.Service.Packages {
		if p.ID == a.SelectedPackageID {
			return p.PackageDetails, true
		}
	}
	return marketplace.PackageDetails{}, false
}
