package lifecycle

import (
	"errors"
	"fmt"
	"reflect"
	"testing"
	"time"

	apperrors "github.com/julianstephens/cadence/internal/errors"
	"github.com/julianstephens/cadence/internal/models"
)

type sliceSource []models.Task

func (s sliceSource) ListTasks() ([]models.Task, error) {
	var out []models.Task
	for _, t := range s {
		if t.DeletedAt == nil {
			out = append(out, t)
		}
	}
	return out, nil
}

func (s sliceSource) ListTasksByGroup(groupID string) ([]models.Task, error) {
	var out []models.Task
	for _, t := range s {
		if t.DeletedAt == nil && t.GroupID() == groupID {
			out = append(out, t)
		}
	}
	return out, nil
}

var testNow = time.Date(2026, 1, 10, 14, 0, 0, 0, time.UTC)

func day(m time.Month, d int) time.Time {
	return time.Date(2026, m, d, 0, 0, 0, 0, time.UTC)
}

func seqIDs() func() string {
	n := 0
	return func() string {
		n++
		return fmt.Sprintf("id-%d", n)
	}
}

func newEngine(src TaskSource) *Engine {
	return New(src, WithClock(func() time.Time { return testNow }), WithIDGenerator(seqIDs()))
}

func pendingTask(id string, due time.Time) models.Task {
	return models.Task{
		ID:        id,
		Title:     "water plants",
		Priority:  2,
		DueDate:   due,
		Status:    models.StatusPending,
		CreatedAt: day(time.January, 1),
	}
}

func dailySeries(t *testing.T, id string, due time.Time, end models.EndCondition, limit int) models.Task {
	t.Helper()
	rule, err := models.NewRecurrenceRule(models.RecurrenceRule{
		Type:            models.RecurrenceDaily,
		StartDate:       due,
		EndCondition:    end,
		OccurrenceLimit: limit,
	})
	if err != nil {
		t.Fatalf("NewRecurrenceRule() error = %v", err)
	}
	task := pendingTask(id, due)
	task.RecurrenceRule = &rule
	task.RecurrenceGroupID = "group-1"
	task.OccurrenceIndex = 1
	return task
}

func intPtr(v int) *int { return &v }

func TestComplete_OneOff(t *testing.T) {
	e := newEngine(nil)
	task := pendingTask("t1", day(time.January, 5))

	res, err := e.Complete(task, CompleteOptions{})
	if err != nil {
		t.Fatalf("Complete() error = %v", err)
	}
	if res.Task.Status != models.StatusCompleted {
		t.Errorf("Status = %s, want completed", res.Task.Status)
	}
	if res.Task.CompletedAt == nil || !res.Task.CompletedAt.Equal(testNow) {
		t.Errorf("CompletedAt = %v, want %v", res.Task.CompletedAt, testNow)
	}
	if res.Task.PointsEarned != 10 || res.Task.TransitionPoints != 10 {
		t.Errorf("points = %d/%d, want 10/10", res.Task.PointsEarned, res.Task.TransitionPoints)
	}
	if res.Spawned != nil {
		t.Errorf("one-off task spawned %+v", res.Spawned)
	}
	if cs := res.Changes(); len(cs.Upsert) != 1 || len(cs.Delete) != 0 {
		t.Errorf("Changes() = %+v, want a single upsert", cs)
	}
	if task.Status != models.StatusPending || task.CompletedAt != nil {
		t.Error("Complete() modified its input")
	}
}

func TestComplete_Rewards(t *testing.T) {
	scoring := DefaultScoring()
	scoring.CompletionReward = map[int]int{1: 20, 2: 15}
	e := New(nil, WithScoring(scoring), WithClock(func() time.Time { return testNow }))

	tests := []struct {
		name     string
		priority int
		override *int
		want     int
	}{
		{"mapped priority", 1, nil, 20},
		{"unmapped priority", 5, nil, 10},
		{"caller override", 1, intPtr(3), 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			task := pendingTask("t1", day(time.January, 5))
			task.Priority = tt.priority
			res, err := e.Complete(task, CompleteOptions{Reward: tt.override})
			if err != nil {
				t.Fatalf("Complete() error = %v", err)
			}
			if res.Task.PointsEarned != tt.want {
				t.Errorf("PointsEarned = %d, want %d", res.Task.PointsEarned, tt.want)
			}
		})
	}
}

func TestForwardTransitions_RequirePending(t *testing.T) {
	e := newEngine(nil)
	done := pendingTask("t1", day(time.January, 5))
	done.Status = models.StatusCompleted
	done.CompletedAt = &testNow

	if _, err := e.Complete(done, CompleteOptions{}); !errors.Is(err, apperrors.ErrInvalidState) {
		t.Errorf("Complete() error = %v, want ErrInvalidState", err)
	}
	if _, err := e.MarkNotDone(done, "", NotDoneOptions{}); !errors.Is(err, apperrors.ErrInvalidState) {
		t.Errorf("MarkNotDone() error = %v, want ErrInvalidState", err)
	}
	if _, err := e.Postpone(done, day(time.January, 9), "", PostponeOptions{}); !errors.Is(err, apperrors.ErrInvalidState) {
		t.Errorf("Postpone() error = %v, want ErrInvalidState", err)
	}

	var te *apperrors.TransitionError
	_, err := e.Complete(done, CompleteOptions{})
	if !errors.As(err, &te) || te.TaskID != "t1" || te.Status != "completed" {
		t.Errorf("Complete() error = %v, want TransitionError for t1", err)
	}
}

func TestComplete_RejectsInvalidRecord(t *testing.T) {
	e := newEngine(nil)
	task := pendingTask("t1", day(time.January, 5))
	task.PostponeCount = 2

	if _, err := e.Complete(task, CompleteOptions{}); !errors.Is(err, apperrors.ErrInvalidState) {
		t.Errorf("Complete() error = %v, want ErrInvalidState", err)
	}
}

func TestCompleteUndo_RoundTrip(t *testing.T) {
	task := dailySeries(t, "t1", day(time.January, 5), models.EndNever, 0)
	e := newEngine(sliceSource{task})

	res, err := e.Complete(task, CompleteOptions{})
	if err != nil {
		t.Fatalf("Complete() error = %v", err)
	}
	if res.Spawned == nil {
		t.Fatal("Complete() did not spawn the next instance")
	}
	if !res.Spawned.DueDate.Equal(day(time.January, 6)) || res.Spawned.OccurrenceIndex != 2 {
		t.Errorf("spawned due=%v index=%d, want Jan 6 / 2", res.Spawned.DueDate, res.Spawned.OccurrenceIndex)
	}
	if res.Spawned.RecurrenceGroupID != "group-1" || res.Spawned.Status != models.StatusPending {
		t.Errorf("spawned = %+v, want pending instance of group-1", res.Spawned)
	}
	if res.Task.SpawnedTaskID != res.Spawned.ID {
		t.Errorf("SpawnedTaskID = %q, want %q", res.Task.SpawnedTaskID, res.Spawned.ID)
	}

	e = newEngine(sliceSource{res.Task, *res.Spawned})
	undo, err := e.Undo(res.Task)
	if err != nil {
		t.Fatalf("Undo() error = %v", err)
	}
	if undo.DeletedTaskID != res.Spawned.ID {
		t.Errorf("DeletedTaskID = %q, want %q", undo.DeletedTaskID, res.Spawned.ID)
	}
	if !reflect.DeepEqual(undo.Task, task) {
		t.Errorf("Undo(Complete(t)) = %+v\nwant %+v", undo.Task, task)
	}
	if cs := undo.Changes(); len(cs.Delete) != 1 || cs.Delete[0] != res.Spawned.ID {
		t.Errorf("Changes().Delete = %v", cs.Delete)
	}
}

func TestUndoComplete_SpawnedAlreadyActedOn(t *testing.T) {
	task := dailySeries(t, "t1", day(time.January, 5), models.EndNever, 0)
	e := newEngine(sliceSource{task})
	res, err := e.Complete(task, CompleteOptions{})
	if err != nil {
		t.Fatalf("Complete() error = %v", err)
	}

	next := *res.Spawned
	next.Status = models.StatusCompleted
	next.CompletedAt = &testNow

	e = newEngine(sliceSource{res.Task, next})
	if _, err := e.UndoComplete(res.Task); !errors.Is(err, apperrors.ErrInvalidState) {
		t.Errorf("UndoComplete() error = %v, want ErrInvalidState", err)
	}
}

func TestComplete_SkipsExistingNextInstance(t *testing.T) {
	task := dailySeries(t, "t1", day(time.January, 5), models.EndNever, 0)
	existing := dailySeries(t, "t2", day(time.January, 6), models.EndNever, 0)
	existing.OccurrenceIndex = 2

	e := newEngine(sliceSource{task, existing})
	res, err := e.Complete(task, CompleteOptions{})
	if err != nil {
		t.Fatalf("Complete() error = %v", err)
	}
	if res.Spawned != nil {
		t.Errorf("Complete() spawned a duplicate instance %+v", res.Spawned)
	}
}

func TestComplete_ExhaustedSeries(t *testing.T) {
	task := dailySeries(t, "t1", day(time.January, 5), models.EndAfterOccurrences, 2)
	e := newEngine(sliceSource{task})

	res, err := e.Complete(task, CompleteOptions{})
	if err != nil {
		t.Fatalf("Complete() error = %v", err)
	}
	if res.Spawned == nil {
		t.Fatal("second instance of a two-instance series was not spawned")
	}

	e = newEngine(sliceSource{res.Task, *res.Spawned})
	last, err := e.Complete(*res.Spawned, CompleteOptions{})
	if err != nil {
		t.Fatalf("Complete() on last instance error = %v", err)
	}
	if last.Spawned != nil {
		t.Errorf("exhausted series spawned %+v", last.Spawned)
	}
	if last.Task.Status != models.StatusCompleted {
		t.Errorf("Status = %s, want completed", last.Task.Status)
	}
}

func TestComplete_RoutineAnchorsOnCompletionDay(t *testing.T) {
	rule, err := models.NewRecurrenceRule(models.RecurrenceRule{Type: models.RecurrenceDaily, Interval: 3, StartDate: day(time.January, 5)})
	if err != nil {
		t.Fatal(err)
	}
	task := pendingTask("t1", day(time.January, 5))
	task.RecurrenceRule = &rule
	task.RoutineGroupID = "routine-1"
	task.IsRoutineActive = true
	task.OccurrenceIndex = 1

	res, err := newEngine(sliceSource{task}).Complete(task, CompleteOptions{})
	if err != nil {
		t.Fatalf("Complete() error = %v", err)
	}
	if res.Spawned == nil || !res.Spawned.DueDate.Equal(day(time.January, 13)) {
		t.Fatalf("spawned = %+v, want due Jan 13", res.Spawned)
	}
	if res.Spawned.RoutineGroupID != "routine-1" || !res.Spawned.IsRoutineActive {
		t.Errorf("spawned routine fields = %q/%v", res.Spawned.RoutineGroupID, res.Spawned.IsRoutineActive)
	}

	task.IsRoutineActive = false
	paused, err := newEngine(sliceSource{task}).Complete(task, CompleteOptions{})
	if err != nil {
		t.Fatalf("Complete() error = %v", err)
	}
	if paused.Spawned != nil {
		t.Error("paused routine spawned a new instance")
	}
}

func routineTask(t *testing.T, id string, rule models.RecurrenceRule, due time.Time) models.Task {
	t.Helper()
	normalized, err := models.NewRecurrenceRule(rule)
	if err != nil {
		t.Fatalf("NewRecurrenceRule() error = %v", err)
	}
	task := pendingTask(id, due)
	task.RecurrenceRule = &normalized
	task.RoutineGroupID = "routine-1"
	task.IsRoutineActive = true
	task.OccurrenceIndex = 1
	return task
}

func TestRoutine_FinishedBeforeDueDay(t *testing.T) {
	// testNow is Sat Jan 10.
	t.Run("complete early", func(t *testing.T) {
		task := routineTask(t, "t1", models.RecurrenceRule{
			Type:       models.RecurrenceWeekly,
			DaysOfWeek: []time.Weekday{time.Wednesday},
			StartDate:  day(time.January, 14),
		}, day(time.January, 14))

		res, err := newEngine(sliceSource{task}).Complete(task, CompleteOptions{})
		if err != nil {
			t.Fatalf("Complete() error = %v", err)
		}
		if res.Spawned == nil || !res.Spawned.DueDate.Equal(day(time.January, 21)) {
			t.Errorf("spawned = %+v, want due Jan 21", res.Spawned)
		}
	})

	t.Run("not done early", func(t *testing.T) {
		task := routineTask(t, "t1", models.RecurrenceRule{
			Type:      models.RecurrenceDaily,
			StartDate: day(time.January, 12),
		}, day(time.January, 12))
		e := newEngine(nil)

		notDone, err := e.MarkNotDone(task, "", NotDoneOptions{})
		if err != nil {
			t.Fatalf("MarkNotDone() error = %v", err)
		}
		res, err := e.Regenerate([]models.Task{notDone.Task})
		if err != nil {
			t.Fatalf("Regenerate() error = %v", err)
		}
		if res.Spawned == nil || !res.Spawned.DueDate.Equal(day(time.January, 13)) {
			t.Errorf("spawned = %+v, want due Jan 13", res.Spawned)
		}
	})
}

func TestComplete_RecurringAnchorsOnOriginalDueDate(t *testing.T) {
	task := dailySeries(t, "t1", day(time.January, 5), models.EndNever, 0)
	e := newEngine(sliceSource{task})

	post, err := e.Postpone(task, day(time.January, 8), "", PostponeOptions{})
	if err != nil {
		t.Fatalf("Postpone() error = %v", err)
	}
	e = newEngine(sliceSource{post.Archived, post.Child})
	res, err := e.Complete(post.Child, CompleteOptions{})
	if err != nil {
		t.Fatalf("Complete() error = %v", err)
	}
	if res.Spawned == nil || !res.Spawned.DueDate.Equal(day(time.January, 6)) {
		t.Errorf("spawned = %+v, want due Jan 6", res.Spawned)
	}
}

func TestMarkNotDoneUndo_RoundTrip(t *testing.T) {
	e := newEngine(nil)
	task := pendingTask("t1", day(time.January, 5))
	task.PointsEarned = 30

	res, err := e.MarkNotDone(task, "too tired", NotDoneOptions{})
	if err != nil {
		t.Fatalf("MarkNotDone() error = %v", err)
	}
	if res.Task.Status != models.StatusNotDone || res.Task.NotDoneReason != "too tired" {
		t.Errorf("task = %+v", res.Task)
	}
	if res.Task.PointsEarned != 20 || res.Task.TransitionPoints != -10 {
		t.Errorf("points = %d/%d, want 20/-10", res.Task.PointsEarned, res.Task.TransitionPoints)
	}

	undo, err := e.Undo(res.Task)
	if err != nil {
		t.Fatalf("Undo() error = %v", err)
	}
	if !reflect.DeepEqual(undo.Task, task) {
		t.Errorf("Undo(MarkNotDone(t)) = %+v\nwant %+v", undo.Task, task)
	}
	if undo.DeletedTaskID != "" {
		t.Errorf("DeletedTaskID = %q, want empty", undo.DeletedTaskID)
	}
}

func TestMarkNotDone_PenaltyIsDeduction(t *testing.T) {
	e := newEngine(nil)
	res, err := e.MarkNotDone(pendingTask("t1", day(time.January, 5)), "", NotDoneOptions{Penalty: intPtr(4)})
	if err != nil {
		t.Fatalf("MarkNotDone() error = %v", err)
	}
	if res.Task.PointsEarned != -4 {
		t.Errorf("PointsEarned = %d, want -4", res.Task.PointsEarned)
	}
}

func TestPostponeUndo_RoundTrip(t *testing.T) {
	task := dailySeries(t, "t1", day(time.January, 5), models.EndNever, 0)
	task.DueTime = &models.TimeOfDay{Hour: 8}
	task.PointsEarned = 12
	e := newEngine(sliceSource{task})

	res, err := e.Postpone(task, day(time.January, 9), "[Moved] dentist", PostponeOptions{})
	if err != nil {
		t.Fatalf("Postpone() error = %v", err)
	}

	a, c := res.Archived, res.Child
	if a.Status != models.StatusPostponed || a.PostponeCount != 1 || a.PointsEarned != 7 {
		t.Errorf("archived = status %s count %d points %d", a.Status, a.PostponeCount, a.PointsEarned)
	}
	entry, _ := a.LastPostpone()
	if !entry.From.Equal(day(time.January, 5)) || !entry.To.Equal(day(time.January, 9)) || entry.PenaltyApplied != -5 || entry.Reason != "[Moved] dentist" {
		t.Errorf("postpone entry = %+v", entry)
	}
	if a.SpawnedTaskID != c.ID {
		t.Errorf("archived SpawnedTaskID = %q, want %q", a.SpawnedTaskID, c.ID)
	}
	if c.Status != models.StatusPending || !c.DueDate.Equal(day(time.January, 9)) || c.ParentTaskID != "t1" {
		t.Errorf("child = status %s due %v parent %q", c.Status, c.DueDate, c.ParentTaskID)
	}
	if c.OriginalDueDate == nil || !c.OriginalDueDate.Equal(day(time.January, 5)) {
		t.Errorf("child OriginalDueDate = %v, want Jan 5", c.OriginalDueDate)
	}
	if c.PostponeCount != 1 || len(c.PostponeHistory) != 1 || c.PointsEarned != 7 {
		t.Errorf("child running record = count %d history %d points %d", c.PostponeCount, len(c.PostponeHistory), c.PointsEarned)
	}
	if c.RecurrenceGroupID != "group-1" || c.OccurrenceIndex != 1 || c.DueTime == nil || c.DueTime.Hour != 8 {
		t.Errorf("child series fields not carried over: %+v", c)
	}
	if err := c.Validate(); err != nil {
		t.Errorf("child is not a valid record: %v", err)
	}

	e = newEngine(sliceSource{a, c})
	undo, err := e.Undo(a)
	if err != nil {
		t.Fatalf("Undo() error = %v", err)
	}
	if !reflect.DeepEqual(undo.Task, task) {
		t.Errorf("Undo(Postpone(t)) = %+v\nwant %+v", undo.Task, task)
	}
	if undo.DeletedTaskID != c.ID {
		t.Errorf("DeletedTaskID = %q, want %q", undo.DeletedTaskID, c.ID)
	}
}

func TestPostpone_PenaltyConservation(t *testing.T) {
	e := newEngine(nil)
	task := pendingTask("t1", day(time.January, 5))
	task.PointsEarned = 40
	before := task.PointsEarned

	penalties := []*int{nil, intPtr(-3), intPtr(0), nil}
	cur := task
	for i, p := range penalties {
		res, err := e.Postpone(cur, cur.DueDate.AddDate(0, 0, 2), fmt.Sprintf("round %d", i), PostponeOptions{Penalty: p})
		if err != nil {
			t.Fatalf("Postpone() round %d error = %v", i, err)
		}
		cur = res.Child
	}

	if got := cur.PenaltyTotal(); got != cur.PointsEarned-before {
		t.Errorf("sum(penaltyApplied) = %d, points delta = %d", got, cur.PointsEarned-before)
	}
	if cur.PenaltyTotal() != -13 {
		t.Errorf("PenaltyTotal() = %d, want -13", cur.PenaltyTotal())
	}
	if cur.PostponeCount != 4 || cur.OriginalDueDate == nil || !cur.OriginalDueDate.Equal(day(time.January, 5)) {
		t.Errorf("count = %d original = %v", cur.PostponeCount, cur.OriginalDueDate)
	}
}

func TestPostpone_RequiresLaterDay(t *testing.T) {
	e := newEngine(nil)
	task := pendingTask("t1", day(time.January, 5))

	for _, d := range []time.Time{day(time.January, 5).Add(20 * time.Hour), day(time.January, 4)} {
		if _, err := e.Postpone(task, d, "", PostponeOptions{}); !errors.Is(err, apperrors.ErrInvalidState) {
			t.Errorf("Postpone(%v) error = %v, want ErrInvalidState", d, err)
		}
	}
}

func TestUndo_Errors(t *testing.T) {
	e := newEngine(nil)
	task := pendingTask("t1", day(time.January, 5))

	if _, err := e.Undo(task); !errors.Is(err, apperrors.ErrNothingToUndo) {
		t.Errorf("Undo(pending) error = %v, want ErrNothingToUndo", err)
	}
	if _, err := e.UndoPostpone(task); !errors.Is(err, apperrors.ErrNothingToUndo) {
		t.Errorf("UndoPostpone(pending) error = %v, want ErrNothingToUndo", err)
	}

	done := task
	done.Status = models.StatusCompleted
	done.CompletedAt = &testNow
	if _, err := e.UndoNotDone(done); !errors.Is(err, apperrors.ErrInvalidState) {
		t.Errorf("UndoNotDone(completed) error = %v, want ErrInvalidState", err)
	}
}

func TestNewSeries(t *testing.T) {
	e := newEngine(nil)
	task := models.Task{Title: "review budget", Priority: 1}
	rule := models.RecurrenceRule{
		Type:        models.RecurrenceMonthly,
		StartDate:   day(time.January, 20),
		DaysOfMonth: []int{1},
	}

	out, err := e.NewSeries(task, rule, false)
	if err != nil {
		t.Fatalf("NewSeries() error = %v", err)
	}
	if out.ID == "" || out.RecurrenceGroupID == "" || out.RoutineGroupID != "" {
		t.Errorf("ids = %q group %q routine %q", out.ID, out.RecurrenceGroupID, out.RoutineGroupID)
	}
	if !out.DueDate.Equal(day(time.February, 1)) || out.OccurrenceIndex != 1 || out.Status != models.StatusPending {
		t.Errorf("due %v index %d status %s", out.DueDate, out.OccurrenceIndex, out.Status)
	}
	if !out.IsSeriesActive() {
		t.Error("new series should be active")
	}

	routine, err := e.NewSeries(task, rule, true)
	if err != nil {
		t.Fatalf("NewSeries(routine) error = %v", err)
	}
	if routine.RoutineGroupID == "" || !routine.IsRoutineActive {
		t.Errorf("routine group %q active %v", routine.RoutineGroupID, routine.IsRoutineActive)
	}

	if _, err := e.NewSeries(task, models.RecurrenceRule{Type: models.RecurrenceWeekly}, false); !errors.Is(err, apperrors.ErrMalformedRule) {
		t.Errorf("NewSeries(bad rule) error = %v, want ErrMalformedRule", err)
	}
	if _, err := e.NewSeries(task, models.RecurrenceRule{}, false); !errors.Is(err, apperrors.ErrMalformedRule) {
		t.Errorf("NewSeries(none) error = %v, want ErrMalformedRule", err)
	}

	// Mon Jan 12 to Wed Jan 14 holds no Friday.
	end := day(time.January, 14)
	noRoom := models.RecurrenceRule{
		Type:         models.RecurrenceWeekly,
		DaysOfWeek:   []time.Weekday{time.Friday},
		StartDate:    day(time.January, 12),
		EndCondition: models.EndOnDate,
		EndDate:      &end,
	}
	if _, err := e.NewSeries(task, noRoom, false); !errors.Is(err, apperrors.ErrMalformedRule) {
		t.Errorf("NewSeries(no occurrences) error = %v, want ErrMalformedRule", err)
	}
}

func TestRegenerate(t *testing.T) {
	task := dailySeries(t, "t1", day(time.January, 5), models.EndNever, 0)
	e := newEngine(nil)

	notDone, err := e.MarkNotDone(task, "", NotDoneOptions{})
	if err != nil {
		t.Fatalf("MarkNotDone() error = %v", err)
	}

	res, err := e.Regenerate([]models.Task{notDone.Task})
	if err != nil {
		t.Fatalf("Regenerate() error = %v", err)
	}
	if res.Spawned == nil {
		t.Fatal("Regenerate() did not spawn after not-done")
	}
	if res.Spawned.OccurrenceIndex != 2 || !res.Spawned.DueDate.Equal(day(time.January, 6)) {
		t.Errorf("spawned index %d due %v", res.Spawned.OccurrenceIndex, res.Spawned.DueDate)
	}
	if res.Source.SpawnedTaskID != res.Spawned.ID {
		t.Errorf("source SpawnedTaskID = %q", res.Source.SpawnedTaskID)
	}
	if len(res.Changes().Upsert) != 2 {
		t.Errorf("Changes() = %+v", res.Changes())
	}

	again, err := e.Regenerate([]models.Task{res.Source, *res.Spawned})
	if err != nil {
		t.Fatalf("Regenerate() second run error = %v", err)
	}
	if again.Spawned != nil || !again.Changes().IsEmpty() {
		t.Errorf("second Regenerate() was not a no-op: %+v", again)
	}

	pending, err := e.Regenerate([]models.Task{task})
	if err != nil || pending.Spawned != nil {
		t.Errorf("Regenerate(pending) = %+v, %v; want no-op", pending, err)
	}

	// Undoing the not-done removes the regenerated instance again.
	undo, err := newEngine(sliceSource{res.Source, *res.Spawned}).Undo(res.Source)
	if err != nil {
		t.Fatalf("Undo() error = %v", err)
	}
	if undo.DeletedTaskID != res.Spawned.ID {
		t.Errorf("DeletedTaskID = %q, want %q", undo.DeletedTaskID, res.Spawned.ID)
	}
}

func TestRegenerate_PostponedArchiveDoesNotCount(t *testing.T) {
	task := dailySeries(t, "t1", day(time.January, 5), models.EndNever, 0)
	e := newEngine(nil)
	post, err := e.Postpone(task, day(time.January, 7), "", PostponeOptions{})
	if err != nil {
		t.Fatalf("Postpone() error = %v", err)
	}

	res, err := e.Regenerate([]models.Task{post.Archived, post.Child})
	if err != nil || res.Spawned != nil {
		t.Errorf("Regenerate() = %+v, %v; want no-op while child is pending", res, err)
	}
}

func TestSweep(t *testing.T) {
	a := dailySeries(t, "a1", day(time.January, 5), models.EndNever, 0)
	a.Status = models.StatusNotDone
	a.NotDoneAt = &testNow

	b := dailySeries(t, "b1", day(time.January, 5), models.EndNever, 0)
	b.RecurrenceGroupID = "group-2"

	oneOff := pendingTask("c1", day(time.January, 5))

	results, err := newEngine(sliceSource{a, b, oneOff}).Sweep()
	if err != nil {
		t.Fatalf("Sweep() error = %v", err)
	}
	if len(results) != 1 || results[0].Source.ID != "a1" {
		t.Fatalf("Sweep() = %+v, want one regeneration for a1", results)
	}
}

func TestSetRoutineActive(t *testing.T) {
	first := routineTask(t, "r1", models.RecurrenceRule{Type: models.RecurrenceDaily, StartDate: day(time.January, 5)}, day(time.January, 5))
	first.Status = models.StatusCompleted
	first.CompletedAt = &testNow
	first.SpawnedTaskID = "r2"
	second := routineTask(t, "r2", *first.RecurrenceRule, day(time.January, 11))
	second.OccurrenceIndex = 2

	paused, err := newEngine(sliceSource{first, second}).SetRoutineActive(second, false)
	if err != nil {
		t.Fatalf("SetRoutineActive(false) error = %v", err)
	}
	if len(paused.Updated) != 2 || paused.Spawned != nil {
		t.Fatalf("pause result = %+v", paused)
	}
	for _, u := range paused.Changes().Upsert {
		if u.IsRoutineActive {
			t.Errorf("instance %s still active after pause", u.ID)
		}
	}
	pausedFirst, pausedSecond := paused.Updated[0], paused.Updated[1]

	if _, err := newEngine(sliceSource{pausedFirst, pausedSecond}).SetRoutineActive(pausedSecond, false); !errors.Is(err, apperrors.ErrInvalidState) {
		t.Errorf("pausing twice error = %v, want ErrInvalidState", err)
	}

	e := newEngine(sliceSource{pausedFirst, pausedSecond})
	done, err := e.Complete(pausedSecond, CompleteOptions{})
	if err != nil {
		t.Fatalf("Complete() error = %v", err)
	}
	if done.Spawned != nil {
		t.Errorf("paused routine spawned %+v on Complete", done.Spawned)
	}

	results, err := newEngine(sliceSource{pausedFirst, done.Task}).Sweep()
	if err != nil {
		t.Fatalf("Sweep() error = %v", err)
	}
	if len(results) != 0 {
		t.Errorf("Sweep() regenerated a paused routine: %+v", results)
	}

	resumed, err := newEngine(sliceSource{pausedFirst, done.Task}).SetRoutineActive(done.Task, true)
	if err != nil {
		t.Fatalf("SetRoutineActive(true) error = %v", err)
	}
	if resumed.Spawned == nil || resumed.Spawned.OccurrenceIndex != 3 || !resumed.Spawned.IsRoutineActive {
		t.Fatalf("resume spawned = %+v, want index 3", resumed.Spawned)
	}
	if len(resumed.Changes().Upsert) != 3 {
		t.Errorf("resume Changes() = %d tasks, want 3", len(resumed.Changes().Upsert))
	}
	for _, u := range resumed.Updated {
		if u.ID == done.Task.ID && u.SpawnedTaskID != resumed.Spawned.ID {
			t.Errorf("resumed source SpawnedTaskID = %q", u.SpawnedTaskID)
		}
	}

	oneOff := pendingTask("c1", day(time.January, 5))
	if _, err := newEngine(nil).SetRoutineActive(oneOff, false); !errors.Is(err, apperrors.ErrInvalidState) {
		t.Errorf("SetRoutineActive(one-off) error = %v, want ErrInvalidState", err)
	}
}
