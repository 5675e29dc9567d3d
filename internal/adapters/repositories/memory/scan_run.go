package memory

import (
	"sort"
	"sync"
	"time"

	"github.com/iwtcode/transferStation/internal/domain/entities"
	"github.com/iwtcode/transferStation/internal/interfaces"
	appErrors "github.com/iwtcode/transferStation/pkg/errors"
)

// ScanRunRepository хранит запуски в памяти, когда БД отключена.
type ScanRunRepository struct {
	mu   sync.RWMutex
	runs map[string]entities.ScanRun
	now  func() time.Time
}

var _ interfaces.ScanRunRepository = (*ScanRunRepository)(nil)

func NewScanRunRepository() *ScanRunRepository {
	return &ScanRunRepository{
		runs: make(map[string]entities.ScanRun),
		now:  time.Now,
	}
}

func (r *ScanRunRepository) Create(run *entities.ScanRun) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.runs[run.RunID]; ok {
		return appErrors.NewAppError(appErrors.ConflictErrorCode, "запуск "+run.RunID+" уже существует", nil, false)
	}
	now := r.now()
	if run.CreatedAt.IsZero() {
		run.CreatedAt = now
	}
	run.UpdatedAt = now
	r.runs[run.RunID] = *run
	return nil
}

func (r *ScanRunRepository) UpdateStatus(runID, status string, stepsRun int, errMsg string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	run, ok := r.runs[runID]
	if !ok {
		return appErrors.ErrRunNotFound
	}
	run.Status = status
	run.StepsRun = stepsRun
	run.Error = errMsg
	run.UpdatedAt = r.now()
	if run.Finished() {
		finished := run.UpdatedAt
		run.FinishedAt = &finished
	}
	r.runs[runID] = run
	return nil
}

func (r *ScanRunRepository) GetByRunID(runID string) (*entities.ScanRun, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	run, ok := r.runs[runID]
	if !ok {
		return nil, appErrors.ErrRunNotFound
	}
	return &run, nil
}

func (r *ScanRunRepository) GetByStatus(status string) ([]entities.ScanRun, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]entities.ScanRun, 0)
	for _, run := range r.runs {
		if run.Status == status {
			out = append(out, run)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

// GetAll возвращает все запуски, новые первыми.
func (r *ScanRunRepository) GetAll() ([]entities.ScanRun, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]entities.ScanRun, 0, len(r.runs))
	for _, run := range r.runs {
		out = append(out, run)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}
