package drafts

import (
	"slices"

	"github.com/google/uuid"
)

func (d EventDraft) ticketIndex(id string) int {
	return slices.IndexFunc(d.Tickets, func(t TicketTier) bool { return t.ID == id })
}

// TotalTickets sums tier quantities
func (d EventDraft) TotalTickets() int {
	total := 0
	for _, t := range d.Tickets {
		total += t.Quantity
	}
	return total
}

func (d *EventDraft) addTicket(t TicketTier) (TicketTier, error) {
	if err := checkTier(t); err != nil {
		return TicketTier{}, err
	}
	if t.ID == "" {
		t.ID = uuid.NewString()
	}
	if d.ticketIndex(t.ID) >= 0 {
		return TicketTier{}, ErrDuplicateTicket
	}
	d.Tickets = append(d.Tickets, t)
	return t, nil
}

func (d *EventDraft) updateTicket(id string, patch TicketPatch) error {
	idx := d.ticketIndex(id)
	if idx < 0 {
		return ErrTicketNotFound
	}

	updated := d.Tickets[idx]
	if patch.Name != nil {
		updated.Name = *patch.Name
	}
	if patch.Quantity != nil {
		updated.Quantity = *patch.Quantity
	}
	if patch.Price != nil {
		updated.Price = *patch.Price
	}
	if err := checkTier(updated); err != nil {
		return err
	}

	d.Tickets = slices.Clone(d.Tickets)
	d.Tickets[idx] = updated
	return nil
}

func (d *EventDraft) removeTicket(id string) error {
	idx := d.ticketIndex(id)
	if idx < 0 {
		return ErrTicketNotFound
	}
	d.Tickets = slices.Delete(slices.Clone(d.Tickets), idx, idx+1)
	return nil
}

func checkTier(t TicketTier) error {
	if t.Quantity < 0 || t.Price < 0 {
		return ErrInvalidTicket
	}
	return nil
}
