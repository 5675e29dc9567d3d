package entities

import "time"

const (
	RunStatusCompiling   = "compiling"
	RunStatusRunning     = "running"
	RunStatusCompleted   = "completed"
	RunStatusCancelled   = "cancelled"
	RunStatusFailed      = "failed"
	RunStatusInterrupted = "interrupted"
)

// ScanRun - сохраненный запуск сценария сканирования.
type ScanRun struct {
	RunID      string     `gorm:"primaryKey;not null" json:"run_id"`
	Status     string     `gorm:"not null;index" json:"status"` // compiling / running / completed / cancelled / failed / interrupted
	Wafers     int        `json:"wafers"`
	Points     int        `json:"points"`
	TotalSteps int        `json:"total_steps"`
	StepsRun   int        `json:"steps_run"`
	Camera     int        `json:"camera"`
	Request    string     `gorm:"type:text" json:"request"` // исходный запрос в JSON
	Error      string     `gorm:"type:text" json:"error,omitempty"`
	CreatedAt  time.Time  `json:"created_at"`
	UpdatedAt  time.Time  `json:"updated_at"`
	FinishedAt *time.Time `json:"finished_at,omitempty"`
}

// Finished сообщает, находится ли запуск в конечном состоянии.
func (r *ScanRun) Finished() bool {
	switch r.Status {
	case RunStatusCompleted, RunStatusCancelled, RunStatusFailed, RunStatusInterrupted:
		return true
	}
	return false
}
