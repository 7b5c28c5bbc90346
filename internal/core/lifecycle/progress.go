package lifecycle

import "time"

// Task labels written to current_task
const (
	TaskStarting = "Initializing..."
	TaskComplete = "Complete"
)

// Progress is the build_progress record. Completed never decreases within a run
// and never exceeds Total; Advance is the only way to move it
type Progress struct {
	TotalTasks     int       `json:"total_tasks"`
	CompletedTasks int       `json:"completed_tasks"`
	CurrentTask    string    `json:"current_task"`
	StartedAt      time.Time `json:"started_at"`
}

// NewProgress starts a run of total tasks
func NewProgress(total int, now time.Time) Progress {
	if total < 0 {
		total = 0
	}
	return Progress{
		TotalTasks:  total,
		CurrentTask: TaskStarting,
		StartedAt:   now.UTC(),
	}
}

// Advance moves completed forward, clamped to [current, total]
func (p Progress) Advance(completed int, current string) Progress {
	if completed > p.TotalTasks {
		completed = p.TotalTasks
	}
	if completed < p.CompletedTasks {
		completed = p.CompletedTasks
	}
	p.CompletedTasks = completed
	if current != "" {
		p.CurrentTask = current
	}
	return p
}

// Complete fills the run and labels it done
func (p Progress) Complete() Progress {
	p.CompletedTasks = p.TotalTasks
	p.CurrentTask = TaskComplete
	return p
}

// Done reports whether every task has been accounted for
func (p Progress) Done() bool { return p.CompletedTasks >= p.TotalTasks }

// Percent is completed over total rounded down, 100 for an empty run
func (p Progress) Percent() int {
	if p.TotalTasks == 0 {
		return 100
	}
	return p.CompletedTasks * 100 / p.TotalTasks
}
