package marketplace

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"eventwizard/pkg/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewClient(srv.URL+"/api", WithLogger(logger.Discard()))
}

func TestGetEventDecodesAndForwardsToken(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/events/ev-1", r.URL.Path)
		assert.Equal(t, "Bearer tok", r.Header.Get("Authorization"))
		_, _ = io.WriteString(w, `{"success":true,"data":{
			"id":"ev-1","name":"Gala","startDate":"2025-06-01T18:00:00Z",
			"location":{"address":"Main Hall","city":"Haifa"},
			"suppliers":[{"supplierId":"sup1","serviceId":"off1","category":"dj"}]
		}}`)
	})

	ctx := WithToken(context.Background(), "tok")
	event, err := client.GetEvent(ctx, "ev-1")
	require.NoError(t, err)
	assert.Equal(t, "Gala", event.Name)
	assert.Equal(t, "Haifa", event.Location.City)
	require.Len(t, event.Suppliers, 1)
	assert.Equal(t, "sup1", event.Suppliers[0].SupplierID)
}

func TestGetEventRejectsMissingData(t *testing.T) {
	for name, body := range map[string]string{
		"null data":     `{"success":true,"data":null}`,
		"not an object": `{"success":true,"data":["ev-1"]}`,
	} {
		t.Run(name, func(t *testing.T) {
			client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				_, _ = io.WriteString(w, body)
			})
			_, err := client.GetEvent(context.Background(), "e")
			assert.ErrorIs(t, err, ErrMalformedResponse)
		})
	}
}

func TestGetEventKeepsReadableParts(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `{"success":true,"data":{
			"name":"Gala","startDate":1748800800,"isPublic":"false",
			"location":"Main Hall, Haifa",
			"requiredServices":["music",7],
			"tickets":[
				{"id":"t1","name":"GA","quantity":"100","price":"50"},
				{"id":"t2","name":"VIP","quantity":"lots","price":200},
				{"id":"t3","name":"Crew","quantity":5,"price":-1}
			],
			"ticketInfo":{"totalTickets":"many"},
			"suppliers":[
				{"supplierId":"s1","serviceId":"o1","category":"music"},
				{"supplierId":"s2"},
				"broken"
			]
		}}`)
	})

	event, err := client.GetEvent(context.Background(), "ev-7")
	require.NoError(t, err)

	assert.Equal(t, "ev-7", event.ID, "a missing id falls back to the requested one")
	assert.Equal(t, "Gala", event.Name)
	assert.Empty(t, event.StartDate)
	require.NotNil(t, event.IsPublic)
	assert.False(t, *event.IsPublic)
	assert.Equal(t, Location{Address: "Main Hall, Haifa"}, event.Location)
	assert.Equal(t, []string{"music"}, event.RequiredServices)
	assert.Equal(t, []EventTicket{{ID: "t1", Name: "GA", Quantity: 100, Price: 50}}, event.Tickets)
	assert.Nil(t, event.TicketInfo)
	require.Len(t, event.Suppliers, 1)
	assert.Equal(t, "s1", event.Suppliers[0].SupplierID)

	var fields []string
	for _, issue := range event.Issues {
		fields = append(fields, issue.Field)
	}
	assert.ElementsMatch(t, []string{
		"id", "startDate", "requiredServices[1]",
		"tickets[1].quantity", "tickets[2].price", "ticketInfo",
		"suppliers[1]", "suppliers[2]",
	}, fields)
}

func TestErrorMessageExtraction(t *testing.T) {
	t.Run("json message", func(t *testing.T) {
		client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusBadRequest)
			_, _ = io.WriteString(w, `{"success":false,"message":"Start date must be in the future"}`)
		})
		_, err := client.CreateEvent(context.Background(), &EventPayload{Name: "x"})
		require.Error(t, err)

		var apiErr *APIError
		require.True(t, errors.As(err, &apiErr))
		assert.Equal(t, http.StatusBadRequest, apiErr.StatusCode)
		assert.Equal(t, "Start date must be in the future", Message(err))
	})

	t.Run("raw text", func(t *testing.T) {
		client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusBadGateway)
			_, _ = io.WriteString(w, "upstream exploded\n")
		})
		_, err := client.CreateEvent(context.Background(), &EventPayload{})
		assert.Equal(t, "upstream exploded", Message(err))
	})

	t.Run("success false with 200", func(t *testing.T) {
		client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			_, _ = io.WriteString(w, `{"success":false,"message":"quota reached"}`)
		})
		_, err := client.CheckInTicket(context.Background(), "t1")
		assert.Equal(t, "quota reached", Message(err))
	})

	t.Run("not found", func(t *testing.T) {
		client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusNotFound)
		})
		_, err := client.GetEvent(context.Background(), "missing")
		assert.ErrorIs(t, err, ErrNotFound)
		assert.Equal(t, "Not Found", Message(err))
	})
}

func TestGetEventAttendeesSendsQuery(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/events/ev-1/attendees", r.URL.Path)
		q := r.URL.Query()
		assert.Equal(t, "2", q.Get("page"))
		assert.Equal(t, "20", q.Get("limit"))
		assert.Equal(t, "dana", q.Get("search"))
		assert.False(t, q.Has("status"))
		_, _ = io.WriteString(w, `{"success":true,"data":[{"id":"a1","name":"Dana"}],
			"pagination":{"currentPage":2,"totalPages":3,"totalItems":41,"hasNextPage":true,"hasPrevPage":true}}`)
	})

	page, err := client.GetEventAttendees(context.Background(), "ev-1", AttendeeQuery{Page: 2, Limit: 20, Search: "dana"})
	require.NoError(t, err)
	require.Len(t, page.Items, 1)
	assert.Equal(t, "Dana", page.Items[0].Name)
	assert.Equal(t, Pagination{CurrentPage: 2, TotalPages: 3, TotalItems: 41, HasNextPage: true, HasPrevPage: true}, page.Pagination)
}

func TestGetPageRequiresPagination(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `{"success":true,"data":[]}`)
	})
	_, err := client.GetAllEvents(context.Background(), EventFilter{})
	assert.ErrorIs(t, err, ErrMalformedResponse)
}

func TestAddEventSuppliersBody(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/api/events/ev-9/suppliers", r.URL.Path)

		var body AddSuppliersRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		require.Len(t, body.Suppliers, 1)
		assert.Equal(t, "sup1", body.Suppliers[0].SupplierID)
		_, _ = io.WriteString(w, `{"success":true}`)
	})

	err := client.AddEventSuppliers(context.Background(), "ev-9", []SupplierRequest{{
		SupplierID: "sup1",
		Services:   []ServiceRequest{{ServiceID: "off1", Priority: "medium", Notes: "Selected for dj service"}},
	}})
	require.NoError(t, err)
}
