// Package listing drives the paged list screens (my events, browse, attendees,
// supplier browser). Every filter or page change fetches afresh; responses to
// requests that have since been superseded are dropped.
package listing

import (
	"context"
	"errors"
	"sync"
	"time"

	"eventwizard/internal/marketplace"
)

// ErrSuperseded is returned for a response that arrived after a newer request was issued
var ErrSuperseded = errors.New("superseded by a newer request")

// Fetcher loads one page for a query
type Fetcher[Q, T any] func(ctx context.Context, query Q) (*marketplace.Page[T], error)

// State is what a list screen renders
type State[Q, T any] struct {
	Query      Q                      `json:"query"`
	Loading    bool                   `json:"loading"`
	Error      string                 `json:"error,omitempty"`
	Items      []T                    `json:"items"`
	Pagination marketplace.Pagination `json:"pagination"`
	Generation uint64                 `json:"generation"`
}

// View is the state of one list screen. Each Load takes a new generation; only
// the response of the latest generation is applied.
type View[Q, T any] struct {
	mu         sync.Mutex
	fetch      Fetcher[Q, T]
	generation uint64
	state      State[Q, T]
	touched    time.Time
}

func NewView[Q, T any](fetch Fetcher[Q, T]) *View[Q, T] {
	return &View[Q, T]{
		fetch:   fetch,
		state:   State[Q, T]{Items: []T{}},
		touched: time.Now(),
	}
}

// Load fetches the page for query and applies it, unless another Load started
// meanwhile, in which case ErrSuperseded is returned and the state is left to the
// newer request. A fetch error is recorded in the state and returned, and the
// items and pagination of the previous query are cleared.
func (v *View[Q, T]) Load(ctx context.Context, query Q) (State[Q, T], error) {
	v.mu.Lock()
	v.generation++
	gen := v.generation
	v.state.Query = query
	v.state.Loading = true
	v.state.Generation = gen
	v.touched = time.Now()
	v.mu.Unlock()

	page, err := v.fetch(ctx, query)

	v.mu.Lock()
	defer v.mu.Unlock()

	if gen != v.generation {
		return v.state, ErrSuperseded
	}

	v.state.Loading = false
	if err != nil {
		v.state.Error = marketplace.Message(err)
		v.state.Items = []T{}
		v.state.Pagination = marketplace.Pagination{}
		return v.state, err
	}

	v.state.Error = ""
	v.state.Items = page.Items
	if v.state.Items == nil {
		v.state.Items = []T{}
	}
	v.state.Pagination = page.Pagination
	return v.state, nil
}

// State returns the last applied state
func (v *View[Q, T]) State() State[Q, T] {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.state
}

func (v *View[Q, T]) idleSince() time.Time {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.touched
}
