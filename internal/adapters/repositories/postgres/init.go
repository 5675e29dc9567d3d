package postgres

import (
	"fmt"
	"log"
	"os"
	"time"

	"github.com/iwtcode/transferStation/internal/adapters/repositories/memory"
	"github.com/iwtcode/transferStation/internal/adapters/repositories/postgres/scan_run"
	"github.com/iwtcode/transferStation/internal/config"
	"github.com/iwtcode/transferStation/internal/domain/entities"
	"github.com/iwtcode/transferStation/internal/interfaces"
	"github.com/iwtcode/transferStation/internal/middleware/logging"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

type Repository struct {
	interfaces.ScanRunRepository
}

// NewRepository возвращает хранилище запусков сканирования.
// При DB_ENABLE=false запуски хранятся только в памяти процесса.
func NewRepository(cfg *config.AppConfig, appLogger *logging.Logger) (interfaces.ScanRunRepository, error) {
	dbLog := appLogger.WithPrefix("DB")
	if !cfg.Database.Enable {
		dbLog.Info("Database disabled, scan runs are kept in memory")
		return memory.NewScanRunRepository(), nil
	}

	if err := ensureDatabase(cfg.Database, dbLog); err != nil {
		return nil, err
	}

	appDb, err := gorm.Open(postgres.Open(dsn(cfg.Database, cfg.Database.DBName)), &gorm.Config{Logger: gormLogger()})
	if err != nil {
		return nil, fmt.Errorf("ошибка подключения к базе данных '%s': %w", cfg.Database.DBName, err)
	}

	// AutoMigrate создает таблицу scan_runs и добавляет новые колонки
	if err := appDb.AutoMigrate(&entities.ScanRun{}); err != nil {
		return nil, fmt.Errorf("ошибка выполнения автомиграций: %w", err)
	}

	dbLog.Info("Connected to database", "db_name", cfg.Database.DBName)
	return &Repository{
		ScanRunRepository: scan_run.NewScanRunRepository(appDb),
	}, nil
}

func dsn(db config.DatabaseConfig, name string) string {
	return fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%s sslmode=disable",
		db.Host, db.Username, db.Password, name, db.Port)
}

// ensureDatabase создает целевую БД через служебную 'postgres', если ее нет.
func ensureDatabase(db config.DatabaseConfig, dbLog *logging.Logger) error {
	admin, err := gorm.Open(postgres.Open(dsn(db, "postgres")), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return fmt.Errorf("не удалось подключиться к служебной БД 'postgres': %w", err)
	}
	defer func() {
		if sqlDB, err := admin.DB(); err == nil {
			_ = sqlDB.Close()
		}
	}()

	var exists bool
	if err := admin.Raw("SELECT EXISTS (SELECT 1 FROM pg_database WHERE datname = ?)", db.DBName).Scan(&exists).Error; err != nil {
		return fmt.Errorf("не удалось проверить существование БД '%s': %w", db.DBName, err)
	}
	if exists {
		return nil
	}

	dbLog.Info("Database not found. Creating...", "db_name", db.DBName)
	if err := admin.Exec(fmt.Sprintf("CREATE DATABASE %s", db.DBName)).Error; err != nil {
		return fmt.Errorf("не удалось создать БД '%s': %w", db.DBName, err)
	}
	dbLog.Info("Database created successfully.", "db_name", db.DBName)
	return nil
}

func gormLogger() logger.Interface {
	return logger.New(
		log.New(os.Stdout, "\r\n", log.LstdFlags),
		logger.Config{
			SlowThreshold:             200 * time.Millisecond,
			LogLevel:                  logger.Warn,
			IgnoreRecordNotFoundError: true,
			Colorful:                  true,
		},
	)
}
