package scan_run

import (
	"github.com/iwtcode/transferStation/internal/interfaces"
	"gorm.io/gorm"
)

type ScanRunRepositoryImpl struct {
	db *gorm.DB
}

func NewScanRunRepository(db *gorm.DB) interfaces.ScanRunRepository {
	return &ScanRunRepositoryImpl{db: db}
}
