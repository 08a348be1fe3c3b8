package notifications

import (
	"encoding/json"
	"time"

	"eventwizard/internal/marketplace"

	"github.com/google/uuid"
)

// MessageType names what happened to the event
type MessageType string

const (
	MessageTypeEventCreated MessageType = "event.created"
	MessageTypeEventUpdated MessageType = "event.updated"
)

// SupplierNotice lists the services requested from one supplier
type SupplierNotice struct {
	SupplierID string   `json:"supplier_id"`
	ServiceIDs []string `json:"service_ids"`
}

// EventSubmitted is published after the marketplace accepted a wizard submission,
// so supplier facing workers can notify the suppliers that were requested.
type EventSubmitted struct {
	ID               uuid.UUID        `json:"id"`
	Type             MessageType      `json:"type"`
	EventID          string           `json:"event_id"`
	ProducerID       string           `json:"producer_id"`
	Name             string           `json:"name"`
	StartDate        time.Time        `json:"start_date"`
	EndDate          time.Time        `json:"end_date"`
	City             string           `json:"city"`
	RequiredServices []string         `json:"required_services"`
	Suppliers        []SupplierNotice `json:"suppliers"`
	SubmittedAt      time.Time        `json:"submitted_at"`
}

// NewEventSubmitted builds the message for a submitted payload
func NewEventSubmitted(msgType MessageType, eventID, producerID string, payload *marketplace.EventPayload, now time.Time) *EventSubmitted {
	msg := &EventSubmitted{
		ID:               uuid.New(),
		Type:             msgType,
		EventID:          eventID,
		ProducerID:       producerID,
		Name:             payload.Name,
		StartDate:        payload.StartDate,
		EndDate:          payload.EndDate,
		City:             payload.Location.City,
		RequiredServices: payload.RequiredServices,
		Suppliers:        make([]SupplierNotice, 0, len(payload.Suppliers)),
		SubmittedAt:      now.UTC(),
	}
	for _, s := range payload.Suppliers {
		notice := SupplierNotice{SupplierID: s.SupplierID, ServiceIDs: make([]string, 0, len(s.Services))}
		for _, svc := range s.Services {
			notice.ServiceIDs = append(notice.ServiceIDs, svc.ServiceID)
		}
		msg.Suppliers = append(msg.Suppliers, notice)
	}
	return msg
}

// GetPartitionKey keeps all messages of one event on the same partition
func (m *EventSubmitted) GetPartitionKey() string {
	return m.EventID
}

func (m *EventSubmitted) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}
