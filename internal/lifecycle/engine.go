// Package lifecycle implements the task state machine: completion, not-done,
// postponement, undo and the regeneration of recurring series.
//
// Operations take tasks by value and return new values together with the
// ChangeSet a storage provider must persist. A failed operation leaves its
// input untouched.
package lifecycle

import (
	"time"

	"github.com/google/uuid"

	"github.com/julianstephens/cadence/internal/constants"
	apperrors "github.com/julianstephens/cadence/internal/errors"
	"github.com/julianstephens/cadence/internal/models"
)

// TaskSource gives the engine read access to the task collection.
type TaskSource interface {
	ListTasks() ([]models.Task, error)
	ListTasksByGroup(groupID string) ([]models.Task, error)
}

// Scoring holds the point values applied on transitions. Penalties are
// negative.
type Scoring struct {
	// CompletionReward maps a task priority to its completion reward.
	CompletionReward map[int]int
	DefaultReward    int
	NotDonePenalty   int
	PostponePenalty  int
}

// DefaultScoring returns the built-in point values.
func DefaultScoring() Scoring {
	return Scoring{
		CompletionReward: map[int]int{},
		DefaultReward:    constants.DefaultCompletionReward,
		NotDonePenalty:   constants.DefaultNotDonePenalty,
		PostponePenalty:  constants.DefaultPostponePenalty,
	}
}

func (s Scoring) reward(priority int) int {
	if r, ok := s.CompletionReward[priority]; ok {
		return r
	}
	return s.DefaultReward
}

type Engine struct {
	source  TaskSource
	now     func() time.Time
	newID   func() string
	scoring Scoring
}

type Option func(*Engine)

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) {
		if now != nil {
			e.now = now
		}
	}
}

// WithIDGenerator overrides how new task and group ids are generated.
func WithIDGenerator(newID func() string) Option {
	return func(e *Engine) {
		if newID != nil {
			e.newID = newID
		}
	}
}

func WithScoring(s Scoring) Option {
	return func(e *Engine) {
		e.scoring = s
	}
}

// New creates an engine reading sibling instances from source. A nil source
// behaves like an empty collection.
func New(source TaskSource, opts ...Option) *Engine {
	if source == nil {
		source = emptySource{}
	}
	e := &Engine{
		source:  source,
		now:     time.Now,
		newID:   uuid.NewString,
		scoring: DefaultScoring(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

type emptySource struct{}

func (emptySource) ListTasks() ([]models.Task, error)               { return nil, nil }
func (emptySource) ListTasksByGroup(string) ([]models.Task, error) { return nil, nil }

// findTask looks a live task up by id.
func (e *Engine) findTask(id string) (models.Task, bool, error) {
	tasks, err := e.source.ListTasks()
	if err != nil {
		return models.Task{}, false, err
	}
	for _, t := range tasks {
		if t.ID == id {
			return t, true, nil
		}
	}
	return models.Task{}, false, nil
}

func transitionErr(op string, task models.Task, err error) error {
	return &apperrors.TransitionError{
		Op:     op,
		TaskID: task.ID,
		Status: string(task.Status),
		Err:    err,
	}
}

// negative forces a caller supplied penalty to be a deduction.
func negative(p int) int {
	if p > 0 {
		return -p
	}
	return p
}
