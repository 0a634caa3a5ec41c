package models

import "time"

// ScheduledTaskStatus represents the status of a recurring job
type ScheduledTaskStatus string

const (
	ScheduledTaskStatusActive  ScheduledTaskStatus = "active"
	ScheduledTaskStatusRunning ScheduledTaskStatus = "running"
	ScheduledTaskStatusDone    ScheduledTaskStatus = "done"
)

// ScheduledTask is the state of a recurring job owned by the scheduler
type ScheduledTask struct {
	TaskName          string              `json:"task_name"`
	RecurringInterval string              `json:"recurring_interval"`
	Due               time.Time           `json:"due"`
	LastRun           *time.Time          `json:"last_run,omitempty"`
	LastStatus        string              `json:"last_status,omitempty"`
	Status            ScheduledTaskStatus `json:"status"`
}

// ScheduledTaskHistory is one execution of a job
type ScheduledTaskHistory struct {
	TaskName string                 `json:"task_name"`
	RunAt    time.Time              `json:"run_at"`
	Runtime  int                    `json:"runtime"` // milliseconds
	Status   string                 `json:"status"`
	Result   map[string]interface{} `json:"result,omitempty"`
}
