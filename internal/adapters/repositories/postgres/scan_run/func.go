package scan_run

import (
	"time"

	"github.com/iwtcode/transferStation/internal/domain/entities"
	"gorm.io/gorm"
)

func (r *ScanRunRepositoryImpl) Create(run *entities.ScanRun) error {
	return r.db.Create(run).Error
}

// UpdateStatus обновляет статус запуска; для конечных статусов проставляет время окончания
func (r *ScanRunRepositoryImpl) UpdateStatus(runID, status string, stepsRun int, errMsg string) error {
	updates := map[string]interface{}{
		"status":    status,
		"steps_run": stepsRun,
		"error":     errMsg,
	}
	probe := entities.ScanRun{Status: status}
	if probe.Finished() {
		updates["finished_at"] = time.Now()
	}

	result := r.db.Model(&entities.ScanRun{}).Where("run_id = ?", runID).Updates(updates)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *ScanRunRepositoryImpl) GetByRunID(runID string) (*entities.ScanRun, error) {
	var run entities.ScanRun
	err := r.db.Where("run_id = ?", runID).First(&run).Error
	if err != nil {
		return nil, err
	}
	return &run, nil
}

// GetByStatus возвращает запуски в указанном статусе
func (r *ScanRunRepositoryImpl) GetByStatus(status string) ([]entities.ScanRun, error) {
	var runs []entities.ScanRun
	if err := r.db.Where("status = ?", status).Order("created_at").Find(&runs).Error; err != nil {
		return nil, err
	}
	return runs, nil
}

// GetAll возвращает все сохраненные запуски, новые первыми
func (r *ScanRunRepositoryImpl) GetAll() ([]entities.ScanRun, error) {
	var runs []entities.ScanRun
	if err := r.db.Order("created_at desc").Find(&runs).Error; err != nil {
		return nil, err
	}
	return runs, nil
}
