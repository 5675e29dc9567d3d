package models

import "time"

// CommandRequest определяет структуру запроса на отправку сырой команды станции.
type CommandRequest struct {
	Command string `json:"command" binding:"required"` // "GETPOSX"
}

// RunRequest определяет структуру для запросов, использующих RunID.
// Пустой RunID означает все активные сценарии.
type RunRequest struct {
	RunID string `json:"run_id"`
}

// RunInfo представляет сценарий сканирования в пуле активных запусков.
type RunInfo struct {
	RunID      string    `json:"run_id"`
	Status     string    `json:"status"`
	Points     int       `json:"points"`
	TotalSteps int       `json:"total_steps"`
	StartedAt  time.Time `json:"started_at"`
}
