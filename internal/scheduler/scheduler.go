// Package scheduler runs periodic jobs, such as the regeneration sweep,
// on standard five-field cron schedules.
package scheduler

import (
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/julianstephens/cadence/internal/logger"
)

var parser = cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor)

// Scheduler wraps a cron runner bound to one timezone.
type Scheduler struct {
	cron *cron.Cron
	loc  *time.Location

	mu      sync.Mutex
	running bool
}

func New(loc *time.Location) *Scheduler {
	if loc == nil {
		loc = time.Local
	}
	return &Scheduler{
		cron: cron.New(cron.WithLocation(loc), cron.WithParser(parser)),
		loc:  loc,
	}
}

// Validate parses spec without scheduling anything.
func Validate(spec string) error {
	if _, err := parser.Parse(spec); err != nil {
		return fmt.Errorf("invalid schedule %q: %w", spec, err)
	}
	return nil
}

// Schedule registers job on a cron spec such as "5 0 * * *" or "@hourly".
// A job still running when its next tick arrives is skipped.
func (s *Scheduler) Schedule(name, spec string, job func() error) (cron.EntryID, error) {
	sched, err := parser.Parse(spec)
	if err != nil {
		return 0, fmt.Errorf("invalid schedule %q: %w", spec, err)
	}

	var busy sync.Mutex
	id := s.cron.Schedule(sched, cron.FuncJob(func() {
		if !busy.TryLock() {
			logger.Warn("Skipping job, previous run still active", "job", name)
			return
		}
		defer busy.Unlock()

		start := time.Now()
		if err := job(); err != nil {
			logger.Error("Scheduled job failed", "job", name, "error", err)
			return
		}
		logger.Debug("Scheduled job finished", "job", name, "duration", time.Since(start))
	}))
	logger.Info("Job scheduled", "job", name, "spec", spec)
	return id, nil
}

// ScheduleDaily registers job at the given HH:MM time.
func (s *Scheduler) ScheduleDaily(name, timeStr string, job func() error) (cron.EntryID, error) {
	spec, err := buildDailySpec(timeStr)
	if err != nil {
		return 0, err
	}
	return s.Schedule(name, spec, job)
}

// Next returns the next activation of the entry, or the zero time if the
// scheduler has not been started.
func (s *Scheduler) Next(id cron.EntryID) time.Time {
	return s.cron.Entry(id).Next
}

// NextAfter computes the activation following t without starting the runner.
func (s *Scheduler) NextAfter(spec string, t time.Time) (time.Time, error) {
	sched, err := parser.Parse(spec)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid schedule %q: %w", spec, err)
	}
	return sched.Next(t.In(s.loc)), nil
}

func (s *Scheduler) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.running {
		return
	}
	s.running = true
	s.cron.Start()
}

// Stop halts the runner and waits for in-flight jobs.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return
	}
	s.running = false
	s.mu.Unlock()

	ctx := s.cron.Stop()
	<-ctx.Done()
}

func buildDailySpec(timeStr string) (string, error) {
	parts := strings.Split(timeStr, ":")
	if len(parts) != 2 {
		return "", fmt.Errorf("invalid time %q, expected HH:MM", timeStr)
	}
	hour, err := strconv.Atoi(parts[0])
	if err != nil || hour < 0 || hour > 23 {
		return "", fmt.Errorf("invalid hour in %q", timeStr)
	}
	minute, err := strconv.Atoi(parts[1])
	if err != nil || minute < 0 || minute > 59 {
		return "", fmt.Errorf("invalid minute in %q", timeStr)
	}
	return fmt.Sprintf("%d %d * * *", minute, hour), nil
}
