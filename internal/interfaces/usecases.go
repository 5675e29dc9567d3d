package interfaces

import (
	"github.com/iwtcode/transferStation/internal/domain/entities"
	"github.com/iwtcode/transferStation/internal/domain/models"
)

// Usecases - это агрегирующий интерфейс для всех use cases REST API
type Usecases interface {
	GetPosition() (*models.Position, error)
	SendCommand(command string) (*string, error)
	GetCommandHistory() []models.CommandRecord
	GetResponseHistory() []models.ResponseRecord
	StartScan(req models.ScanRequest) (*models.RunInfo, error)
	GetActiveScans() []*models.RunInfo
	GetStoredScans() ([]entities.ScanRun, error)
	CancelScan(runID string) ([]string, error)
	PauseAll()
	ResumeAll()
	IsPaused() bool
}
