package drafts

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"maps"
	"sync"
	"time"

	"eventwizard/pkg/logger"
)

// Wizard owns one draft for the lifetime of a create or edit session. All mutation
// goes through Update so that persistence and error clearing stay in step.
// A Wizard is safe for concurrent use; calls are serialized.
type Wizard struct {
	mu sync.Mutex

	store    DraftStore
	key      string
	mode     Mode
	eventID  string
	location *time.Location
	logger   *logger.Logger

	draft  EventDraft
	errors map[string]string

	submitting bool
	closed     bool
}

var (
	ErrSubmitInProgress = errors.New("draft is already being submitted")
	ErrSessionClosed    = errors.New("draft session was closed")
)

// WizardOption configures a Wizard
type WizardOption func(*Wizard)

// WithLogger sets the wizard logger
func WithLogger(l *logger.Logger) WizardOption {
	return func(w *Wizard) { w.logger = l }
}

// WithEventID binds an edit session to the event it edits
func WithEventID(eventID string) WizardOption {
	return func(w *Wizard) { w.eventID = eventID }
}

// WithLocation sets the time zone that dates of hydrated events are shown in
func WithLocation(loc *time.Location) WizardOption {
	return func(w *Wizard) {
		if loc != nil {
			w.location = loc
		}
	}
}

// NewWizard creates a wizard holding an empty draft, persisted under key
func NewWizard(store DraftStore, key string, mode Mode, opts ...WizardOption) *Wizard {
	w := &Wizard{
		store:    store,
		key:      key,
		mode:     mode,
		location: time.UTC,
		logger:   logger.GetDefault(),
		draft:    NewDraft(),
		errors:   map[string]string{},
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

func (w *Wizard) Key() string     { return w.key }
func (w *Wizard) Mode() Mode      { return w.mode }
func (w *Wizard) EventID() string { return w.eventID }

// Snapshot returns a deep copy of the current draft
func (w *Wizard) Snapshot() EventDraft {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.draft.Clone()
}

// Errors returns the validation errors currently visible
func (w *Wizard) Errors() map[string]string {
	w.mu.Lock()
	defer w.mu.Unlock()
	return maps.Clone(w.errors)
}

// Restore loads the persisted snapshot, if any. It reports whether one was found.
// An unreadable snapshot is logged and ignored so the session starts empty.
func (w *Wizard) Restore(ctx context.Context) (bool, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	data, err := w.store.Get(ctx, w.key)
	if errors.Is(err, ErrDraftNotFound) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to read draft %s: %w", w.key, err)
	}

	var draft EventDraft
	if err := json.Unmarshal(data, &draft); err != nil {
		w.logger.WithDraft(w.key).WithError(err).WarnContext(ctx, "Discarding unreadable draft snapshot")
		return false, nil
	}

	w.draft = draft
	w.errors = map[string]string{}
	return true, nil
}

// Persist writes the current snapshot to the store
func (w *Wizard) Persist(ctx context.Context) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.write(ctx)
}

func (w *Wizard) write(ctx context.Context) error {
	data, err := json.Marshal(w.draft)
	if err != nil {
		return fmt.Errorf("failed to encode draft: %w", err)
	}
	if err := w.store.Set(ctx, w.key, data); err != nil {
		return fmt.Errorf("failed to write draft %s: %w", w.key, err)
	}
	w.logger.LogDraftPersisted(ctx, w.key, len(data))
	return nil
}

// persist is the after-mutation write: failures are logged and the last write wins.
// A closed wizard no longer writes, so a late mutation cannot bring back a
// submitted or cancelled draft.
func (w *Wizard) persist(ctx context.Context) {
	if w.closed {
		return
	}
	if err := w.write(ctx); err != nil {
		w.logger.LogDraftPersistFailed(ctx, w.key, err)
	}
}

// Update applies cmd, clears the errors of the fields it touched and persists.
// A rejected command leaves the draft unchanged.
func (w *Wizard) Update(ctx context.Context, cmd Command) error {
	if cmd == nil {
		return ErrUnknownField
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	switch {
	case w.closed:
		return ErrSessionClosed
	case w.submitting:
		return ErrSubmitInProgress
	}

	next := w.draft.Clone()
	cleared, err := cmd.apply(&next)
	if err != nil {
		return err
	}

	w.draft = next
	for _, field := range cleared {
		delete(w.errors, field)
	}
	w.persist(ctx)
	return nil
}

// Advance moves to the next step when the current one validates. Otherwise the
// step is kept and the returned errors become the visible ones.
func (w *Wizard) Advance(ctx context.Context) map[string]string {
	w.mu.Lock()
	defer w.mu.Unlock()

	errs := Validate(w.draft, w.draft.CurrentStep)
	if len(errs) > 0 {
		w.errors = errs
		return maps.Clone(errs)
	}

	w.errors = map[string]string{}
	if idx := w.draft.CurrentStep.index(); idx < len(Steps)-1 {
		w.draft.CurrentStep = Steps[idx+1]
	}
	w.persist(ctx)
	return map[string]string{}
}

// Retreat moves to the previous step, staying on the first one
func (w *Wizard) Retreat(ctx context.Context) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if idx := w.draft.CurrentStep.index(); idx > 0 {
		w.draft.CurrentStep = Steps[idx-1]
	}
	w.persist(ctx)
}

// ValidateAll runs the gate of every step and merges the results. Used before submission.
func (w *Wizard) ValidateAll() map[string]string {
	w.mu.Lock()
	defer w.mu.Unlock()

	errs := map[string]string{}
	for _, step := range Steps {
		maps.Copy(errs, Validate(w.draft, step))
	}
	if len(errs) > 0 {
		w.errors = maps.Clone(errs)
	}
	return errs
}

// BeginSubmit marks the draft as being submitted. Only one submission may be in
// flight; mutations are refused until EndSubmit.
func (w *Wizard) BeginSubmit() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	switch {
	case w.closed:
		return ErrSessionClosed
	case w.submitting:
		return ErrSubmitInProgress
	}
	w.submitting = true
	return nil
}

// EndSubmit clears the mark set by BeginSubmit
func (w *Wizard) EndSubmit() {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.submitting = false
}

// Close ends the session. It waits for an in-progress mutation, after which the
// wizard refuses updates and stops persisting.
func (w *Wizard) Close() {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.closed = true
}

// Discard removes the persisted snapshot
func (w *Wizard) Discard(ctx context.Context) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if err := w.store.Delete(ctx, w.key); err != nil && !errors.Is(err, ErrDraftNotFound) {
		return fmt.Errorf("failed to delete draft %s: %w", w.key, err)
	}
	return nil
}
