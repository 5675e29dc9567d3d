package interfaces

import (
	"github.com/iwtcode/transferStation/internal/domain/entities"
)

// ScanRunRepository определяет контракт для работы с сохраненными запусками сканирования в БД
type ScanRunRepository interface {
	Create(run *entities.ScanRun) error
	UpdateStatus(runID, status string, stepsRun int, errMsg string) error
	GetByRunID(runID string) (*entities.ScanRun, error)
	GetByStatus(status string) ([]entities.ScanRun, error)
	GetAll() ([]entities.ScanRun, error)
}
