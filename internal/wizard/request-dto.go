package wizard

import (
	"encoding/json"

	"eventwizard/internal/drafts"
	"eventwizard/internal/marketplace"
)

// UpdateFieldRequest sets one scalar field of the draft
type UpdateFieldRequest struct {
	Field string          `json:"field" binding:"required"`
	Value json.RawMessage `json:"value" binding:"required"`
}

type ToggleServiceRequest struct {
	Category string `json:"category" binding:"required"`
	Selected *bool  `json:"selected" binding:"required"`
}

type ToggleOfferingRequest struct {
	Category   string `json:"category" binding:"required"`
	SupplierID string `json:"supplierId" binding:"required"`
	OfferingID string `json:"offeringId" binding:"required"`
}

type TogglePackageRequest struct {
	OfferingID     string                     `json:"offeringId" binding:"required"`
	PackageID      string                     `json:"packageId" binding:"required"`
	PackageDetails marketplace.PackageDetails `json:"packageDetails"`
}

type AddTicketRequest struct {
	ID       string  `json:"id"`
	Name     string  `json:"name" binding:"required"`
	Quantity int     `json:"quantity" binding:"gte=0"`
	Price    float64 `json:"price" binding:"gte=0"`
}

func (r AddTicketRequest) tier() drafts.TicketTier {
	return drafts.TicketTier{ID: r.ID, Name: r.Name, Quantity: r.Quantity, Price: r.Price}
}

type UpdateTicketRequest struct {
	Name     *string  `json:"name"`
	Quantity *int     `json:"quantity" binding:"omitempty,gte=0"`
	Price    *float64 `json:"price" binding:"omitempty,gte=0"`
}

func (r UpdateTicketRequest) patch() drafts.TicketPatch {
	return drafts.TicketPatch{Name: r.Name, Quantity: r.Quantity, Price: r.Price}
}
