package tasks

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sort"
	"sync"
	"time"

	"github.com/teambition/rrule-go"

	"autobuy_panel_echo/internal/models"
)

const historyLimit = 20

var (
	ErrUnknownTask    = errors.New("unknown task")
	ErrAlreadyRunning = errors.New("task is already running")
	ErrStarted        = errors.New("scheduler already started")
)

type job struct {
	state   models.ScheduledTask
	rule    *rrule.RRule
	handler TaskHandler
	history []models.ScheduledTaskHistory
}

// Scheduler runs registered tasks on RFC 5545 recurrence rules.
// It owns its goroutines: Stop cancels the loop and waits for in-flight runs.
type Scheduler struct {
	registry *Registry
	tick     time.Duration
	now      func() time.Time

	mu   sync.Mutex
	jobs map[string]*job

	cancel context.CancelFunc
	done   chan struct{}
	runs   sync.WaitGroup
}

func NewScheduler(registry *Registry) *Scheduler {
	return &Scheduler{
		registry: registry,
		tick:     time.Second,
		now:      time.Now,
		jobs:     make(map[string]*job),
	}
}

// NextDue returns the first occurrence of rule strictly after after, counting from start.
// The zero time means the rule has no further occurrences.
func NextDue(rule string, start, after time.Time) (time.Time, error) {
	r, err := rrule.StrToRRule(rule)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid recurrence %q: %w", rule, err)
	}
	r.DTStart(start)
	return r.After(after, false), nil
}

// Schedule attaches a recurrence rule to a registered task
func (s *Scheduler) Schedule(name, rule string) error {
	handler, ok := s.registry.Get(name)
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownTask, name)
	}
	r, err := rrule.StrToRRule(rule)
	if err != nil {
		return fmt.Errorf("invalid recurrence %q for %s: %w", rule, name, err)
	}

	now := s.now()
	r.DTStart(now)
	next := r.After(now, false)

	state := models.ScheduledTask{
		TaskName:          name,
		RecurringInterval: rule,
		Due:               next,
		Status:            models.ScheduledTaskStatusActive,
	}
	if next.IsZero() {
		state.Status = models.ScheduledTaskStatusDone
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.jobs[name] = &job{state: state, rule: r, handler: handler}
	return nil
}

// Start launches the scheduling loop. It stops when ctx is cancelled or Stop is called.
func (s *Scheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.cancel != nil {
		s.mu.Unlock()
		return ErrStarted
	}
	ctx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	s.done = make(chan struct{})
	s.mu.Unlock()

	go s.loop(ctx)
	log.Printf("Scheduler started with %d jobs", len(s.Jobs()))
	return nil
}

// Stop cancels the loop and waits for running jobs to return
func (s *Scheduler) Stop() {
	s.mu.Lock()
	cancel, done := s.cancel, s.done
	s.mu.Unlock()
	if cancel == nil {
		return
	}
	cancel()
	<-done
	s.runs.Wait()
	log.Println("Scheduler stopped")
}

func (s *Scheduler) loop(ctx context.Context) {
	defer close(s.done)

	ticker := time.NewTicker(s.tick)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.dispatchDue(ctx)
		case <-ctx.Done():
			return
		}
	}
}

func (s *Scheduler) dispatchDue(ctx context.Context) {
	now := s.now()

	s.mu.Lock()
	var due []string
	for name, j := range s.jobs {
		if j.state.Status == models.ScheduledTaskStatusActive && !j.state.Due.After(now) {
			due = append(due, name)
		}
	}
	s.mu.Unlock()

	for _, name := range due {
		s.runs.Add(1)
		go func(name string) {
			defer s.runs.Done()
			if _, err := s.run(ctx, name, true); err != nil && !errors.Is(err, ErrAlreadyRunning) {
				log.Printf("Task %s failed: %v", name, err)
			}
		}(name)
	}
}

// RunNow executes a scheduled task immediately on the calling goroutine.
// The regular recurrence is left untouched.
func (s *Scheduler) RunNow(ctx context.Context, name string) (models.ScheduledTaskHistory, error) {
	return s.run(ctx, name, false)
}

func (s *Scheduler) run(ctx context.Context, name string, advance bool) (models.ScheduledTaskHistory, error) {
	s.mu.Lock()
	j, ok := s.jobs[name]
	if !ok {
		s.mu.Unlock()
		return models.ScheduledTaskHistory{}, fmt.Errorf("%w: %s", ErrUnknownTask, name)
	}
	if j.state.Status == models.ScheduledTaskStatusRunning {
		s.mu.Unlock()
		return models.ScheduledTaskHistory{}, ErrAlreadyRunning
	}
	previous := j.state.Status
	j.state.Status = models.ScheduledTaskStatusRunning
	s.mu.Unlock()

	startTime := s.now()
	result, err := j.handler(ctx)
	runtimeMs := int(time.Since(startTime).Milliseconds())

	entry := models.ScheduledTaskHistory{
		TaskName: name,
		RunAt:    startTime,
		Runtime:  runtimeMs,
		Status:   "success",
		Result:   result,
	}
	if err != nil {
		entry.Status = "failure"
		entry.Result = map[string]interface{}{"error": err.Error()}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	j.state.LastRun = &startTime
	j.state.LastStatus = entry.Status
	j.state.Status = previous
	if advance {
		// check the next due is in the future, so a slow run is not repeated immediately
		next := j.rule.After(s.now(), false)
		j.state.Due = next
		if next.IsZero() {
			j.state.Status = models.ScheduledTaskStatusDone
		}
	}
	j.history = append(j.history, entry)
	if len(j.history) > historyLimit {
		j.history = j.history[len(j.history)-historyLimit:]
	}
	return entry, err
}

// Jobs returns the state of every scheduled task ordered by name
func (s *Scheduler) Jobs() []models.ScheduledTask {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]models.ScheduledTask, 0, len(s.jobs))
	for _, j := range s.jobs {
		out = append(out, j.state)
	}
	sort.Slice(out, func(i, k int) bool { return out[i].TaskName < out[k].TaskName })
	return out
}

// History returns the most recent executions of name, oldest first
func (s *Scheduler) History(name string) ([]models.ScheduledTaskHistory, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	j, ok := s.jobs[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownTask, name)
	}
	return append([]models.ScheduledTaskHistory{}, j.history...), nil
}
