package recommend

import (
	"errors"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"stackfast/internal/models"
)

// State is a step of the selection pipeline.
type State string

const (
	StateIdle             State = "Idle"
	StateAnalyzingProject State = "AnalyzingProject"
	StateLoadingCatalog   State = "LoadingCatalog"
	StateScoring          State = "Scoring"
	StateCompleting       State = "Completing"
	StateDeduplicating    State = "Deduplicating"
	StateDone             State = "Done"
	StateFailed           State = "Failed"
)

// ErrInvalidTransition is returned for a move the state machine forbids.
var ErrInvalidTransition = errors.New("invalid pipeline transition")

var transitions = map[State]State{
	StateIdle:             StateAnalyzingProject,
	StateAnalyzingProject: StateLoadingCatalog,
	StateLoadingCatalog:   StateScoring,
	StateScoring:          StateCompleting,
	StateCompleting:       StateDeduplicating,
	StateDeduplicating:    StateDone,
}

// Terminal reports whether no transition leaves s.
func (s State) Terminal() bool {
	return s == StateDone || s == StateFailed
}

// Transition records one state change.
type Transition struct {
	From    State
	To      State
	Message string
	At      time.Time
}

// Observer is told about every transition, in order.
type Observer func(Transition)

// Tracker holds the state and the advisory warnings of one pipeline run.
type Tracker struct {
	mu       sync.Mutex
	state    State
	history  []Transition
	warnings []models.Warning
	observer Observer
	now      func() time.Time
	fields   logrus.Fields
}

// NewTracker starts a tracker in StateIdle.
func NewTracker(observer Observer, fields logrus.Fields) *Tracker {
	return &Tracker{
		state:    StateIdle,
		observer: observer,
		now:      time.Now,
		fields:   fields,
	}
}

// State returns the current state.
func (t *Tracker) State() State {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.state
}

// Advance moves to the next state. Only the single successor of the current
// state is accepted.
func (t *Tracker) Advance(to State, message string) error {
	t.mu.Lock()
	from := t.state
	if next, ok := transitions[from]; !ok || next != to {
		t.mu.Unlock()
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, from, to)
	}
	tr := t.record(to, message)
	t.mu.Unlock()

	t.notify(tr)
	return nil
}

// Fail moves to StateFailed from any non-terminal state.
func (t *Tracker) Fail(message string) error {
	t.mu.Lock()
	from := t.state
	if from.Terminal() {
		t.mu.Unlock()
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, from, StateFailed)
	}
	tr := t.record(StateFailed, message)
	t.mu.Unlock()

	t.notify(tr)
	return nil
}

func (t *Tracker) record(to State, message string) Transition {
	tr := Transition{From: t.state, To: to, Message: message, At: t.now()}
	t.state = to
	t.history = append(t.history, tr)
	return tr
}

func (t *Tracker) notify(tr Transition) {
	entry := logrus.WithFields(t.fields).WithField("state", tr.To)
	if tr.To == StateFailed {
		entry.Warn(tr.Message)
	} else {
		entry.Info(tr.Message)
	}
	if t.observer != nil {
		t.observer(tr)
	}
}

// History returns a copy of every transition so far.
func (t *Tracker) History() []Transition {
	t.mu.Lock()
	defer t.mu.Unlock()
	return slices.Clone(t.history)
}

// AddWarning records an advisory warning, ignoring exact repeats.
func (t *Tracker) AddWarning(kind, message string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	w := models.Warning{Type: kind, Message: message}
	if slices.Contains(t.warnings, w) {
		return
	}
	t.warnings = append(t.warnings, w)
	logrus.WithFields(t.fields).Debugf("Warning added: %s: %s", kind, message)
}

// Warnings returns the recorded warnings, never nil.
func (t *Tracker) Warnings() []models.Warning {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]models.Warning, len(t.warnings))
	copy(out, t.warnings)
	return out
}
