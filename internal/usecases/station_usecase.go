package usecases

import (
	"fmt"
	"strings"

	"github.com/iwtcode/transferStation/internal/domain/entities"
	"github.com/iwtcode/transferStation/internal/domain/models"
	"github.com/iwtcode/transferStation/internal/interfaces"
	appErrors "github.com/iwtcode/transferStation/pkg/errors"
)

type Usecase struct {
	station interfaces.StationController
	engine  interfaces.ScanEngine
	repo    interfaces.ScanRunRepository
}

func NewUsecase(station interfaces.StationController, engine interfaces.ScanEngine, repo interfaces.ScanRunRepository) interfaces.Usecases {
	return &Usecase{
		station: station,
		engine:  engine,
		repo:    repo,
	}
}

func (u *Usecase) GetPosition() (*models.Position, error) {
	x, err := u.station.PosX()
	if err != nil {
		return nil, fmt.Errorf("не удалось получить позицию X: %w", err)
	}
	y, err := u.station.PosY()
	if err != nil {
		return nil, fmt.Errorf("не удалось получить позицию Y: %w", err)
	}
	z, err := u.station.PosZ()
	if err != nil {
		return nil, fmt.Errorf("не удалось получить позицию Z: %w", err)
	}
	return &models.Position{X: x, Y: y, Z: z}, nil
}

func (u *Usecase) SendCommand(command string) (*string, error) {
	command = strings.TrimSpace(command)
	if command == "" {
		return nil, appErrors.Validation("Command must not be empty", nil)
	}
	return u.station.SendCommand(command)
}

func (u *Usecase) GetCommandHistory() []models.CommandRecord {
	return u.station.SendHistory()
}

func (u *Usecase) GetResponseHistory() []models.ResponseRecord {
	return u.station.ReceiveHistory()
}

func (u *Usecase) StartScan(req models.ScanRequest) (*models.RunInfo, error) {
	return u.engine.StartScan(req)
}

func (u *Usecase) GetActiveScans() []*models.RunInfo {
	return u.engine.Active()
}

func (u *Usecase) GetStoredScans() ([]entities.ScanRun, error) {
	return u.repo.GetAll()
}

// CancelScan отменяет один запуск или все, если runID пуст.
func (u *Usecase) CancelScan(runID string) ([]string, error) {
	cancelled := u.engine.Cancel(runID)
	if runID != "" && len(cancelled) == 0 {
		return nil, appErrors.NewAppError(appErrors.NotFoundErrorCode,
			fmt.Sprintf("сценарий '%s' не найден среди активных", runID), appErrors.ErrRunNotFound, false)
	}
	return cancelled, nil
}

func (u *Usecase) PauseAll() {
	u.engine.Pause()
}

func (u *Usecase) ResumeAll() {
	u.engine.Resume()
}

func (u *Usecase) IsPaused() bool {
	return u.engine.Paused()
}
