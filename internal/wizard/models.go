package wizard

import (
	"errors"
	"maps"
	"sync"
	"time"

	"eventwizard/internal/drafts"
)

// CreateDraft is the :draft path value of the create flow; any other value is the
// id of the event being edited.
const CreateDraft = "create"

var (
	ErrNotEditSession = errors.New("suppliers can only be added to an existing event")
	ErrNoSuppliers    = errors.New("no suppliers selected")
	ErrEventNotFound  = errors.New("event not found")
)

// ValidationError carries the field map that blocked a step or a submission
type ValidationError struct {
	Errors map[string]string
}

func (e *ValidationError) Error() string {
	return "draft has validation errors"
}

// UpstreamError is a marketplace failure while loading or submitting an event.
// The draft is kept so the request can be retried.
type UpstreamError struct {
	Op  string
	Err error
}

func (e *UpstreamError) Error() string {
	return e.Op + ": " + e.Err.Error()
}

func (e *UpstreamError) Unwrap() error {
	return e.Err
}

// sessions holds the open wizards, one per draft key
type sessions struct {
	mu   sync.Mutex
	open map[string]*session
}

type session struct {
	wizard  *drafts.Wizard
	touched time.Time
}

func newSessions() *sessions {
	return &sessions{open: map[string]*session{}}
}

func (s *sessions) get(key string, now time.Time) (*drafts.Wizard, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.open[key]
	if !ok {
		return nil, false
	}
	entry.touched = now
	return entry.wizard, true
}

// add keeps the first wizard registered for a key; concurrent opens share it
func (s *sessions) add(w *drafts.Wizard, now time.Time) *drafts.Wizard {
	s.mu.Lock()
	defer s.mu.Unlock()

	if entry, ok := s.open[w.Key()]; ok {
		entry.touched = now
		return entry.wizard
	}
	s.open[w.Key()] = &session{wizard: w, touched: now}
	return w
}

// evict removes and closes the wizard of key, so requests still holding it can no
// longer persist
func (s *sessions) evict(key string) {
	s.mu.Lock()
	entry, ok := s.open[key]
	delete(s.open, key)
	s.mu.Unlock()

	if ok {
		entry.wizard.Close()
	}
}

// prune drops sessions untouched since before cutoff; their snapshots stay in the store
func (s *sessions) prune(cutoff time.Time) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	before := len(s.open)
	maps.DeleteFunc(s.open, func(_ string, entry *session) bool {
		return entry.touched.Before(cutoff)
	})
	return before - len(s.open)
}

func (s *sessions) len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.open)
}
