package tasks

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"autobuy_panel_echo/internal/models"
)

func TestNextDue(t *testing.T) {
	start := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)

	tests := []struct {
		name  string
		rule  string
		after time.Time
		want  time.Time
	}{
		{"minutely", "FREQ=MINUTELY;INTERVAL=1", start, start.Add(time.Minute)},
		{"minutely mid interval", "FREQ=MINUTELY;INTERVAL=1", start.Add(90 * time.Second), start.Add(2 * time.Minute)},
		{"daily", "FREQ=DAILY;INTERVAL=1", start.Add(time.Hour), start.Add(24 * time.Hour)},
		{"exhausted", "FREQ=DAILY;COUNT=1", start, time.Time{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := NextDue(tt.rule, start, tt.after)
			if err != nil {
				t.Fatalf("NextDue: %v", err)
			}
			if !got.Equal(tt.want) {
				t.Errorf("NextDue = %v, want %v", got, tt.want)
			}
		})
	}

	if _, err := NextDue("FREQ=SOMETIMES", start, start); err == nil {
		t.Error("expected error for invalid rule")
	}
}

func TestScheduleRejectsUnknownTaskAndBadRule(t *testing.T) {
	registry := NewRegistry()
	registry.Register("known", func(ctx context.Context) (map[string]interface{}, error) { return nil, nil })
	s := NewScheduler(registry)

	if err := s.Schedule("missing", "FREQ=MINUTELY"); !errors.Is(err, ErrUnknownTask) {
		t.Errorf("Schedule(missing) error = %v, want ErrUnknownTask", err)
	}
	if err := s.Schedule("known", "not a rule"); err == nil {
		t.Error("expected error for invalid rule")
	}
	if len(s.Jobs()) != 0 {
		t.Errorf("Jobs() = %v, want none", s.Jobs())
	}
}

func TestRunNowRecordsHistoryWithoutMovingDue(t *testing.T) {
	now := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
	calls := 0

	registry := NewRegistry()
	registry.Register("job", func(ctx context.Context) (map[string]interface{}, error) {
		calls++
		if calls == 2 {
			return nil, errors.New("boom")
		}
		return map[string]interface{}{"call": calls}, nil
	})
	s := NewScheduler(registry)
	s.now = func() time.Time { return now }

	if err := s.Schedule("job", "FREQ=MINUTELY;INTERVAL=1"); err != nil {
		t.Fatalf("Schedule: %v", err)
	}

	run, err := s.RunNow(context.Background(), "job")
	if err != nil {
		t.Fatalf("RunNow: %v", err)
	}
	if run.Status != "success" || run.Result["call"] != 1 {
		t.Errorf("run = %+v", run)
	}

	if _, err := s.RunNow(context.Background(), "job"); err == nil {
		t.Error("expected handler error to be returned")
	}

	jobs := s.Jobs()
	if len(jobs) != 1 {
		t.Fatalf("Jobs() len = %d", len(jobs))
	}
	if !jobs[0].Due.Equal(now.Add(time.Minute)) {
		t.Errorf("Due = %v, want %v", jobs[0].Due, now.Add(time.Minute))
	}
	if jobs[0].Status != models.ScheduledTaskStatusActive || jobs[0].LastStatus != "failure" {
		t.Errorf("job state = %+v", jobs[0])
	}

	history, err := s.History("job")
	if err != nil {
		t.Fatalf("History() error = %v", err)
	}
	if len(history) != 2 || history[0].Status != "success" || history[1].Status != "failure" {
		t.Errorf("history = %+v", history)
	}

	if _, err := s.RunNow(context.Background(), "missing"); !errors.Is(err, ErrUnknownTask) {
		t.Errorf("RunNow(missing) error = %v", err)
	}
	if _, err := s.History("missing"); !errors.Is(err, ErrUnknownTask) {
		t.Errorf("History(missing) error = %v", err)
	}
}

func TestHistoryIsBounded(t *testing.T) {
	registry := NewRegistry()
	registry.Register("job", func(ctx context.Context) (map[string]interface{}, error) { return nil, nil })
	s := NewScheduler(registry)
	if err := s.Schedule("job", "FREQ=DAILY"); err != nil {
		t.Fatal(err)
	}
	for i := 0; i < historyLimit+5; i++ {
		if _, err := s.RunNow(context.Background(), "job"); err != nil {
			t.Fatal(err)
		}
	}
	history, _ := s.History("job")
	if got := len(history); got != historyLimit {
		t.Errorf("history len = %d, want %d", got, historyLimit)
	}
}

func TestStartRunsDueJobsAndStopWaits(t *testing.T) {
	var runs atomic.Int32
	fired := make(chan struct{}, 10)

	registry := NewRegistry()
	registry.Register("tick", func(ctx context.Context) (map[string]interface{}, error) {
		runs.Add(1)
		fired <- struct{}{}
		return nil, nil
	})
	s := NewScheduler(registry)
	s.tick = 5 * time.Millisecond
	if err := s.Schedule("tick", "FREQ=SECONDLY;INTERVAL=1"); err != nil {
		t.Fatal(err)
	}

	if err := s.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if err := s.Start(context.Background()); !errors.Is(err, ErrStarted) {
		t.Errorf("second Start error = %v, want ErrStarted", err)
	}

	select {
	case <-fired:
	case <-time.After(3 * time.Second):
		t.Fatal("scheduled job never ran")
	}
	s.Stop()

	after := runs.Load()
	time.Sleep(20 * time.Millisecond)
	if runs.Load() != after {
		t.Error("job ran after Stop returned")
	}

	jobs := s.Jobs()
	if jobs[0].LastRun == nil || !jobs[0].Due.After(*jobs[0].LastRun) {
		t.Errorf("job state after run = %+v", jobs[0])
	}
}

func TestStopWithoutStart(t *testing.T) {
	s := NewScheduler(NewRegistry())
	s.Stop()
}
