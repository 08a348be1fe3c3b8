package marketplace

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"eventwizard/pkg/logger"

	"github.com/go-playground/validator/v10"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "eventwizard/internal/marketplace"

// maxBodyBytes caps how much of an upstream answer is read.
const maxBodyBytes = 4 << 20

type tokenKey struct{}

// WithToken attaches the caller's bearer token to ctx; the client forwards it upstream.
func WithToken(ctx context.Context, token string) context.Context {
	return context.WithValue(ctx, tokenKey{}, token)
}

func tokenFrom(ctx context.Context) string {
	token, _ := ctx.Value(tokenKey{}).(string)
	return token
}

// Client talks to the marketplace REST API. Every response is decoded into a typed
// result and validated before it is handed to callers.
type Client struct {
	baseURL    string
	httpClient *http.Client
	validate   *validator.Validate
	logger     *logger.Logger
	tracer     trace.Tracer
}

// Option configures a Client
type Option func(*Client)

// WithHTTPClient replaces the default http.Client
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithTimeout sets the per-request timeout of the default http.Client
func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.httpClient.Timeout = d }
}

// WithLogger sets the logger used for upstream call logs
func WithLogger(l *logger.Logger) Option {
	return func(c *Client) { c.logger = l }
}

// NewClient creates a marketplace client rooted at baseURL
func NewClient(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: 20 * time.Second},
		validate:   validator.New(),
		logger:     logger.GetDefault(),
		tracer:     otel.Tracer(tracerName),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// ================== EVENTS ==================

// GetEvent fetches one event for hydration. Unreadable fields and rows are left
// out and listed in Event.Issues instead of failing the call.
func (c *Client) GetEvent(ctx context.Context, id string) (*Event, error) {
	env, err := c.do(ctx, http.MethodGet, "/events/"+url.PathEscape(id), nil, nil)
	if err != nil {
		return nil, err
	}
	return c.decodeEvent(env, id)
}

// CreateEvent submits a new event
func (c *Client) CreateEvent(ctx context.Context, payload *EventPayload) (*EventSummary, error) {
	env, err := c.do(ctx, http.MethodPost, "/events", nil, payload)
	if err != nil {
		return nil, err
	}
	var created EventSummary
	if err := c.decodeOne(env, &created); err != nil {
		return nil, err
	}
	return &created, nil
}

// UpdateEvent replaces an existing event
func (c *Client) UpdateEvent(ctx context.Context, id string, payload *EventPayload) (*EventSummary, error) {
	env, err := c.do(ctx, http.MethodPut, "/events/"+url.PathEscape(id), nil, payload)
	if err != nil {
		return nil, err
	}
	var updated EventSummary
	if err := c.decodeOne(env, &updated); err != nil {
		return nil, err
	}
	return &updated, nil
}

// AddEventSuppliers attaches supplier requests to an already created event
func (c *Client) AddEventSuppliers(ctx context.Context, id string, suppliers []SupplierRequest) error {
	_, err := c.do(ctx, http.MethodPost, "/events/"+url.PathEscape(id)+"/suppliers", nil,
		AddSuppliersRequest{Suppliers: suppliers})
	return err
}

// RegisterForEvent registers the caller as an attendee
func (c *Client) RegisterForEvent(ctx context.Context, id string, req RegisterRequest) (*Registration, error) {
	env, err := c.do(ctx, http.MethodPost, "/events/"+url.PathEscape(id)+"/register", nil, req)
	if err != nil {
		return nil, err
	}
	var reg Registration
	if err := c.decodeOne(env, &reg); err != nil {
		return nil, err
	}
	return &reg, nil
}

// GetMyEvents pages the caller's own events
func (c *Client) GetMyEvents(ctx context.Context, q MyEventsQuery) (*Page[EventSummary], error) {
	query := pageValues(q.Page, q.Limit)
	setIf(query, "sortBy", q.SortBy)
	setIf(query, "sortOrder", q.SortOrder)
	return getPage[EventSummary](ctx, c, "/events/my-events", query)
}

// GetAllEvents pages the public event list
func (c *Client) GetAllEvents(ctx context.Context, f EventFilter) (*Page[EventSummary], error) {
	query := pageValues(f.Page, f.Limit)
	setIf(query, "search", f.Search)
	setIf(query, "category", f.Category)
	setIf(query, "city", f.City)
	setIf(query, "dateFrom", f.DateFrom)
	setIf(query, "dateTo", f.DateTo)
	return getPage[EventSummary](ctx, c, "/events", query)
}

// GetEventAttendees pages an event's attendees
func (c *Client) GetEventAttendees(ctx context.Context, eventID string, q AttendeeQuery) (*Page[Attendee], error) {
	query := pageValues(q.Page, q.Limit)
	setIf(query, "search", q.Search)
	setIf(query, "status", q.Status)
	return getPage[Attendee](ctx, c, "/events/"+url.PathEscape(eventID)+"/attendees", query)
}

// GetServicesWithSuppliers pages the supplier browser
func (c *Client) GetServicesWithSuppliers(ctx context.Context, q ServiceQuery) (*Page[ServiceWithSuppliers], error) {
	query := pageValues(q.Page, q.Limit)
	setIf(query, "category", q.Category)
	return getPage[ServiceWithSuppliers](ctx, c, "/services/with-suppliers", query)
}

// ================== CHECK-IN ==================

// CheckInTicket checks a single ticket in
func (c *Client) CheckInTicket(ctx context.Context, ticketID string) (*CheckInResult, error) {
	env, err := c.do(ctx, http.MethodPost, "/tickets/"+url.PathEscape(ticketID)+"/check-in", nil, nil)
	if err != nil {
		return nil, err
	}
	var res CheckInResult
	if err := c.decodeOne(env, &res); err != nil {
		return nil, err
	}
	return &res, nil
}

// CheckInAllTickets checks in every ticket of an event
func (c *Client) CheckInAllTickets(ctx context.Context, eventID string) (*BulkCheckInResult, error) {
	env, err := c.do(ctx, http.MethodPost, "/events/"+url.PathEscape(eventID)+"/check-in-all", nil, nil)
	if err != nil {
		return nil, err
	}
	var res BulkCheckInResult
	if err := c.decodeOne(env, &res); err != nil {
		return nil, err
	}
	return &res, nil
}

// VerifyQR verifies a scanned ticket code
func (c *Client) VerifyQR(ctx context.Context, code string) (*QRVerification, error) {
	env, err := c.do(ctx, http.MethodPost, "/tickets/verify-qr", nil, map[string]string{"qrCode": code})
	if err != nil {
		return nil, err
	}
	var res QRVerification
	if err := c.decodeOne(env, &res); err != nil {
		return nil, err
	}
	return &res, nil
}

// ================== TRANSPORT ==================

func (c *Client) do(ctx context.Context, method, path string, query url.Values, body any) (*envelope, error) {
	ctx, span := c.tracer.Start(ctx, "marketplace "+method+" "+path,
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("http.method", method),
			attribute.String("http.route", path),
		),
	)
	defer span.End()

	start := time.Now()
	status, env, err := c.roundTrip(ctx, method, path, query, body)
	c.logger.LogUpstreamCall(ctx, method, path, status, time.Since(start), err)

	span.SetAttributes(attribute.Int("http.status_code", status))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	return env, nil
}

func (c *Client) roundTrip(ctx context.Context, method, path string, query url.Values, body any) (int, *envelope, error) {
	endpoint := c.baseURL + path
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return 0, nil, fmt.Errorf("failed to marshal request body: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, reader)
	if err != nil {
		return 0, nil, fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token := tokenFrom(ctx); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, nil, fmt.Errorf("marketplace request failed: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return resp.StatusCode, nil, fmt.Errorf("failed to read marketplace response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return resp.StatusCode, nil, &APIError{
			StatusCode: resp.StatusCode,
			Message:    extractMessage(resp.StatusCode, raw),
		}
	}

	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return resp.StatusCode, nil, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}
	if !env.Success {
		msg := env.Message
		if msg == "" {
			msg = "request was not successful"
		}
		return resp.StatusCode, nil, &APIError{StatusCode: resp.StatusCode, Message: msg}
	}

	return resp.StatusCode, &env, nil
}

// decodeOne decodes env.Data into dest (a pointer to struct) and validates it.
func (c *Client) decodeOne(env *envelope, dest any) error {
	if len(env.Data) == 0 || string(env.Data) == "null" {
		return fmt.Errorf("%w: missing data", ErrMalformedResponse)
	}
	if err := json.Unmarshal(env.Data, dest); err != nil {
		return fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}
	if err := c.validate.Struct(dest); err != nil {
		return fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}
	return nil
}

func getPage[T any](ctx context.Context, c *Client, path string, query url.Values) (*Page[T], error) {
	env, err := c.do(ctx, http.MethodGet, path, query, nil)
	if err != nil {
		return nil, err
	}

	items := []T{}
	if len(env.Data) > 0 && string(env.Data) != "null" {
		if err := json.Unmarshal(env.Data, &items); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
		}
	}
	for i := range items {
		if err := c.validate.Struct(&items[i]); err != nil {
			return nil, fmt.Errorf("%w: item %d: %v", ErrMalformedResponse, i, err)
		}
	}

	if env.Pagination == nil {
		return nil, fmt.Errorf("%w: missing pagination", ErrMalformedResponse)
	}
	if err := c.validate.Struct(env.Pagination); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}

	return &Page[T]{Items: items, Pagination: *env.Pagination}, nil
}

func pageValues(page, limit int) url.Values {
	query := url.Values{}
	if page > 0 {
		query.Set("page", strconv.Itoa(page))
	}
	if limit > 0 {
		query.Set("limit", strconv.Itoa(limit))
	}
	return query
}

func setIf(query url.Values, key, value string) {
	if value != "" {
		query.Set(key, value)
	}
}
