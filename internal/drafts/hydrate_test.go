package drafts

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"
	_ "time/tzdata"

	"eventwizard/internal/marketplace"
	"eventwizard/pkg/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWizard_RestoreFromEvent(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	jerusalem, err := time.LoadLocation("Asia/Jerusalem")
	require.NoError(t, err)

	newEditWizard := func(store DraftStore) *Wizard {
		return NewWizard(store, "u1:editEventData_ev1", ModeEdit,
			WithEventID("ev1"), WithLocation(jerusalem), WithLogger(logger.Discard()))
	}

	t.Run("maps a complete event", func(t *testing.T) {
		store := newFakeStore()
		w := newEditWizard(store)

		w.RestoreFromEvent(ctx, marketplace.Event{
			ID:          "ev1",
			Name:        "Gala",
			Description: "Annual fundraising gala",
			StartDate:   "2025-06-01T15:00:00Z",
			EndDate:     "2025-06-01T20:30:00Z",
			Location:    marketplace.Location{Address: "Main Hall", City: "Haifa"},
			EventType:   "party",
			IsPublic:    ptr(false),
			Password:    "secret",
			Tickets: []marketplace.EventTicket{
				{ID: "t1", Name: "GA", Quantity: 100, Price: 50},
				{ID: "t2", Name: "VIP", Quantity: 10, Price: 200},
			},
			RequiredServices: []string{"music"},
			Suppliers: []marketplace.SupplierAssignment{
				{
					SupplierID: "sup1", ServiceID: "off1", Category: "music",
					SelectedPackageID: "p1",
					PackageDetails:    &marketplace.PackageDetails{Name: "Basic", Price: 500},
				},
				{
					SupplierID: "sup1", ServiceID: "off2",
					SelectedPackageID: "p9",
					Service: &marketplace.ServiceRef{
						ID: "off2", Category: "catering",
						Packages: []marketplace.Package{
							{ID: "p8", PackageDetails: marketplace.PackageDetails{Name: "Lunch"}},
							{ID: "p9", PackageDetails: marketplace.PackageDetails{Name: "Dinner", Price: 900}},
						},
					},
				},
				{SupplierID: "sup2", ServiceID: "off3", Category: "music", SelectedPackageID: "missing"},
			},
		})

		d := w.Snapshot()
		assert.Equal(t, "Gala", d.Name)
		assert.Equal(t, "2025-06-01", d.Date)
		assert.Equal(t, "18:00", d.Time)
		assert.Equal(t, "2025-06-01", d.EndDate)
		assert.Equal(t, "23:30", d.EndTime)
		assert.Equal(t, "Main Hall, Haifa", d.Location)
		assert.True(t, d.IsPrivate)
		assert.Equal(t, "secret", d.Password)
		assert.True(t, d.IsPaid)
		assert.False(t, d.IsFree)
		assert.Equal(t, []string{"t1", "t2"}, ticketIDs(d.Tickets))
		assert.Equal(t, []string{"music", "catering"}, d.Services)
		assert.Equal(t, map[string]map[string][]string{
			"music":    {"sup1": {"off1"}, "sup2": {"off3"}},
			"catering": {"sup1": {"off2"}},
		}, d.SelectedSuppliers)
		assert.Equal(t, map[string]PackageSelection{
			"off1": {PackageID: "p1", PackageDetails: marketplace.PackageDetails{Name: "Basic", Price: 500}},
			"off2": {PackageID: "p9", PackageDetails: marketplace.PackageDetails{Name: "Dinner", Price: 900}},
		}, d.SelectedPackages)

		assert.Equal(t, "Gala", store.snapshot(t, w.Key()).Name)
	})

	t.Run("synthesizes general admission from ticket info", func(t *testing.T) {
		w := newEditWizard(newFakeStore())
		w.RestoreFromEvent(ctx, marketplace.Event{
			ID:       "ev1",
			IsPublic: ptr(true),
			TicketInfo: &marketplace.TicketInfo{
				TotalTickets: 80,
				PriceRange:   marketplace.PriceRange{Min: 30, Max: 30},
			},
		})

		d := w.Snapshot()
		require.Len(t, d.Tickets, 1)
		assert.Equal(t, "General Admission", d.Tickets[0].Name)
		assert.Equal(t, 80, d.Tickets[0].Quantity)
		assert.Equal(t, 30.0, d.Tickets[0].Price)
		assert.NotEmpty(t, d.Tickets[0].ID)
		assert.True(t, d.IsPaid)
		assert.False(t, d.IsPrivate)
	})

	t.Run("free event keeps its ticket limit", func(t *testing.T) {
		w := newEditWizard(newFakeStore())
		w.RestoreFromEvent(ctx, marketplace.Event{
			ID:         "ev1",
			TicketInfo: &marketplace.TicketInfo{TotalTickets: 40, IsFree: true},
		})

		d := w.Snapshot()
		assert.True(t, d.IsFree)
		assert.False(t, d.IsPaid)
		assert.Equal(t, 40, d.FreeTicketLimit)
	})

	t.Run("malformed fields degrade to defaults", func(t *testing.T) {
		w := newEditWizard(newFakeStore())
		w.RestoreFromEvent(ctx, marketplace.Event{
			ID:        "ev1",
			Name:      "Still editable",
			StartDate: "next tuesday",
			Location:  marketplace.Location{Address: "Haifa", City: "Haifa"},
			Suppliers: []marketplace.SupplierAssignment{{SupplierID: "sup1", ServiceID: "off1"}},
		})

		d := w.Snapshot()
		assert.Equal(t, "Still editable", d.Name)
		assert.Empty(t, d.Date)
		assert.Empty(t, d.Time)
		assert.Equal(t, "Haifa", d.Location)
		assert.Empty(t, d.Tickets)
		assert.Equal(t, map[string]map[string][]string{"other": {"sup1": {"off1"}}}, d.SelectedSuppliers)
		assert.Equal(t, StepDetails, d.CurrentStep)
	})

	t.Run("decode issues are logged", func(t *testing.T) {
		var logs bytes.Buffer
		w := NewWizard(newFakeStore(), "u1:editEventData_ev1", ModeEdit,
			WithEventID("ev1"), WithLogger(logger.NewWithWriter(&logs, "debug")))

		w.RestoreFromEvent(ctx, marketplace.Event{
			ID:     "ev1",
			Name:   "Gala",
			Issues: []marketplace.FieldIssue{{Field: "tickets[1].quantity", Err: errors.New("expected a non-negative number")}},
		})

		assert.Equal(t, "Gala", w.Snapshot().Name)
		assert.Contains(t, logs.String(), "Event Hydration Issue")
		assert.Contains(t, logs.String(), "tickets[1].quantity")
	})
}

func TestFlattenLocation(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "Main Hall, Haifa", flattenLocation(marketplace.Location{Address: "Main Hall", City: "Haifa"}))
	assert.Equal(t, "Haifa", flattenLocation(marketplace.Location{Address: "Haifa", City: "Haifa"}))
	assert.Equal(t, "Haifa", flattenLocation(marketplace.Location{City: "Haifa"}))
	assert.Equal(t, "", flattenLocation(marketplace.Location{}))
}
