package script_engine

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/iwtcode/transferStation/internal/domain/entities"
	"github.com/iwtcode/transferStation/internal/domain/models"
	"github.com/iwtcode/transferStation/internal/interfaces"
	"github.com/iwtcode/transferStation/internal/metrics"
	"github.com/iwtcode/transferStation/internal/middleware/logging"
	appErrors "github.com/iwtcode/transferStation/pkg/errors"
)

const produceTimeout = 5 * time.Second

// Deps - внешние участники, которых вызывают шаги сценария.
// Repo и Producer необязательны.
type Deps struct {
	Motion      interfaces.MotionController
	Cameras     interfaces.CameraSet
	Images      interfaces.ImageContainer
	Broadcaster interfaces.Broadcaster
	Repo        interfaces.ScanRunRepository
	Producer    interfaces.KafkaService
}

type Options struct {
	PausePoll time.Duration
	Sleep     func(time.Duration)
	Now       func() time.Time
}

// Result - итог одного запуска.
type Result struct {
	RunID      string
	Status     string
	StepsRun   int
	TotalSteps int
	Points     int
	Err        error
}

func (r Result) message() string {
	switch r.Status {
	case entities.RunStatusCompleted:
		return fmt.Sprintf("Trace over completed: %d points, %d commands", r.Points, r.StepsRun)
	case entities.RunStatusCancelled:
		return fmt.Sprintf("Trace over cancelled after %d of %d commands", r.StepsRun, r.TotalSteps)
	default:
		return appErrors.MessageOf(r.Err)
	}
}

// Packet превращает итог в TRACE_OVER_RESULT.
func (r Result) Packet() models.TraceOverResultPacket {
	return models.TraceOverResultPacket{
		Type:        models.PacketTraceOverResult,
		RunID:       r.RunID,
		Status:      r.Status,
		Success:     r.Status == entities.RunStatusCompleted,
		Message:     r.message(),
		Points:      r.Points,
		CommandsRun: r.StepsRun,
		TotalSteps:  r.TotalSteps,
	}
}

// Handle - один выполняющийся сценарий.
type Handle struct {
	id        string
	script    *Script
	startedAt time.Time
	ctx       context.Context
	cancel    context.CancelFunc
	cancelled atomic.Bool
	stepsRun  atomic.Int64
	done      chan struct{}
	result    Result
}

func (h *Handle) ID() string { return h.id }

// Cancel ставит флаг отмены. Текущий шаг доработает до конца.
func (h *Handle) Cancel() {
	h.cancelled.Store(true)
	h.cancel()
}

func (h *Handle) Cancelled() bool { return h.cancelled.Load() }

func (h *Handle) Done() <-chan struct{} { return h.done }

// Wait дожидается окончания запуска.
func (h *Handle) Wait() Result {
	<-h.done
	return h.result
}

func (h *Handle) StepsRun() int { return int(h.stepsRun.Load()) }

func (h *Handle) Info() *models.RunInfo {
	status := entities.RunStatusRunning
	if h.Cancelled() {
		status = entities.RunStatusCancelled
	}
	return &models.RunInfo{
		RunID:      h.id,
		Status:     status,
		Points:     len(h.script.Points),
		TotalSteps: len(h.script.Steps),
		StartedAt:  h.startedAt,
	}
}

// Engine компилирует запросы сканирования и выполняет сценарии в фоне.
type Engine struct {
	compiler *Compiler
	deps     Deps
	gate     *PauseGate
	sleep    func(time.Duration)
	now      func() time.Time

	mu   sync.Mutex
	live map[string]*Handle
	wg   sync.WaitGroup

	logger  *logging.Logger
	metrics *metrics.Metrics
}

var _ interfaces.ScanEngine = (*Engine)(nil)

func NewEngine(compiler *Compiler, deps Deps, opts Options, logger *logging.Logger, m *metrics.Metrics) *Engine {
	if compiler == nil {
		compiler = NewCompiler(nil)
	}
	if opts.Sleep == nil {
		opts.Sleep = time.Sleep
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Engine{
		compiler: compiler,
		deps:     deps,
		gate:     NewPauseGate(opts.PausePoll),
		sleep:    opts.Sleep,
		now:      opts.Now,
		live:     make(map[string]*Handle),
		logger:   logger.WithPrefix("ENGINE"),
		metrics:  m,
	}
}

func (e *Engine) broadcast(v interface{}) {
	if e.deps.Broadcaster != nil {
		e.deps.Broadcaster.SendAllJSON(v)
	}
}

// Compile строит сценарий. Ошибка компиляции рассылается всем клиентам.
func (e *Engine) Compile(req models.ScanRequest) (*Script, error) {
	script, err := e.compiler.Compile(req)
	if err != nil {
		e.logger.Warn("Script compilation failed", "error", err)
		e.broadcast(models.NewErrorPacket(appErrors.CodeOf(err), appErrors.MessageOf(err)))
		return script, err
	}
	e.logger.Debug("Script compiled", "points", len(script.Points), "steps", len(script.Steps), "wafers", script.Wafers)
	return script, nil
}

// Start компилирует запрос и запускает сценарий.
func (e *Engine) Start(req models.ScanRequest) (*Handle, error) {
	e.broadcast(models.NewMessagePacket("Serializing a script to run trace over"))

	script, err := e.Compile(req)
	if err != nil {
		return nil, err
	}
	e.broadcast(models.NewMessagePacket(fmt.Sprintf("Generated %d points and %d commands", len(script.Points), len(script.Steps))))

	raw, err := json.Marshal(req)
	if err != nil {
		raw = nil
	}
	return e.launch(script, string(raw)), nil
}

// StartScan - Start для слоя usecases.
func (e *Engine) StartScan(req models.ScanRequest) (*models.RunInfo, error) {
	h, err := e.Start(req)
	if err != nil {
		return nil, err
	}
	return h.Info(), nil
}

// Run запускает уже построенный сценарий.
func (e *Engine) Run(script *Script) *Handle {
	return e.launch(script, "")
}

func (e *Engine) launch(script *Script, request string) *Handle {
	if script == nil {
		script = &Script{}
	}
	ctx, cancel := context.WithCancel(context.Background())
	h := &Handle{
		id:        uuid.New().String(),
		script:    script,
		startedAt: e.now(),
		ctx:       ctx,
		cancel:    cancel,
		done:      make(chan struct{}),
	}

	if e.deps.Repo != nil {
		run := &entities.ScanRun{
			RunID:      h.id,
			Status:     entities.RunStatusRunning,
			Wafers:     script.Wafers,
			Points:     len(script.Points),
			TotalSteps: len(script.Steps),
			Camera:     script.Camera,
			Request:    request,
		}
		if err := e.deps.Repo.Create(run); err != nil {
			e.logger.Warn("Failed to persist scan run", "runID", h.id, "error", err)
		}
	}

	e.mu.Lock()
	e.live[h.id] = h
	e.mu.Unlock()

	e.metrics.RunStarted()
	e.logger.Info("Running trace over", "runID", h.id, "steps", len(script.Steps), "points", len(script.Points))
	e.broadcast(models.NewMessagePacket("Running trace over"))

	e.wg.Add(1)
	go e.execute(h)
	return h
}

func (e *Engine) execute(h *Handle) {
	defer e.wg.Done()
	defer close(h.done)
	defer h.cancel()

	h.result = e.runSteps(h)
	e.finish(h)
}

func (e *Engine) runSteps(h *Handle) Result {
	res := Result{
		RunID:      h.id,
		TotalSteps: len(h.script.Steps),
		Points:     len(h.script.Points),
	}

	for i, step := range h.script.Steps {
		if h.Cancelled() {
			res.Status, res.StepsRun = entities.RunStatusCancelled, i
			return res
		}
		if err := e.gate.Wait(h.ctx); err != nil || h.Cancelled() {
			res.Status, res.StepsRun = entities.RunStatusCancelled, i
			return res
		}

		if err := e.safeStep(h.script, step); err != nil {
			res.Status, res.StepsRun = entities.RunStatusFailed, i
			res.Err = appErrors.NewAppError(appErrors.InternalServerErrorCode,
				fmt.Sprintf("Trace over failed at step %d (%s): %v", i+1, step.Op, err),
				fmt.Errorf("%w: %w", appErrors.ErrScriptExecution, err), false)
			return res
		}
		h.stepsRun.Store(int64(i + 1))
		e.metrics.StepExecuted(step.Op.String())
	}

	res.Status, res.StepsRun = entities.RunStatusCompleted, len(h.script.Steps)
	return res
}

func (e *Engine) safeStep(script *Script, step Step) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
	}()
	return e.step(script, step)
}

func (e *Engine) step(script *Script, s Step) error {
	switch s.Op {
	case OpNewWafer:
		if script.SaveImages {
			if e.deps.Images == nil {
				return fmt.Errorf("хранилище снимков не настроено")
			}
			if err := e.deps.Images.NewWafer(s.Camera); err != nil {
				return err
			}
		}
		e.broadcast(models.NewMessagePacket(fmt.Sprintf("Scanning wafer %d of %d", s.Wafer, script.Wafers)))
		return nil

	case OpMoveXY:
		if e.deps.Motion == nil {
			return fmt.Errorf("станция не настроена")
		}
		return e.deps.Motion.MoveXY(s.X, s.Y)

	case OpWait:
		if s.Seconds > 0 {
			e.sleep(time.Duration(s.Seconds * float64(time.Second)))
		}
		return nil

	case OpAutoFocus:
		if e.deps.Motion == nil {
			return fmt.Errorf("станция не настроена")
		}
		res, err := e.deps.Motion.AutoFocus(s.Camera)
		if err != nil {
			return err
		}
		e.logger.Debug("Autofocus step", "point", s.Point, "moved", res.Moved, "z", res.BestZ, "reason", res.Reason)
		return nil

	case OpSnapshot:
		if e.deps.Cameras == nil {
			return fmt.Errorf("камеры не настроены")
		}
		cam, err := e.deps.Cameras.Camera(s.Camera)
		if err != nil {
			return err
		}
		if err := cam.SnapImage(); err != nil {
			return err
		}
		e.broadcast(models.SnapshotPacket{Type: models.PacketRefreshSnapshot, Camera: s.Camera})
		return nil

	case OpCapture:
		if e.deps.Images == nil {
			return fmt.Errorf("хранилище снимков не настроено")
		}
		if err := e.deps.Images.AddImage(s.Camera); err != nil {
			return err
		}
		e.broadcast(models.SnapshotPacket{Type: models.PacketRefreshSnapshot, Camera: s.Camera})
		return nil
	}
	return fmt.Errorf("неизвестная операция %s", s.Op)
}

func (e *Engine) finish(h *Handle) {
	res := h.result

	e.mu.Lock()
	delete(e.live, h.id)
	e.mu.Unlock()

	e.metrics.RunStopped()
	e.metrics.RunFinished(res.Status)

	errMsg := ""
	if res.Err != nil {
		errMsg = res.Err.Error()
		e.logger.Error("Trace over failed", "runID", h.id, "stepsRun", res.StepsRun, "error", res.Err)
		e.broadcast(models.NewErrorPacket(appErrors.CodeOf(res.Err), appErrors.MessageOf(res.Err)))
	} else {
		e.logger.Info("Trace over finished", "runID", h.id, "status", res.Status, "stepsRun", res.StepsRun, "totalSteps", res.TotalSteps)
	}

	if e.deps.Repo != nil {
		if err := e.deps.Repo.UpdateStatus(h.id, res.Status, res.StepsRun, errMsg); err != nil {
			e.logger.Warn("Failed to update scan run", "runID", h.id, "error", err)
		}
	}

	packet := res.Packet()
	e.broadcast(packet)

	if e.deps.Producer != nil {
		payload, err := json.Marshal(packet)
		if err == nil {
			ctx, cancel := context.WithTimeout(context.Background(), produceTimeout)
			err = e.deps.Producer.Produce(ctx, []byte(h.id), payload)
			cancel()
		}
		if err != nil {
			e.logger.Warn("Failed to produce scan result", "runID", h.id, "error", err)
		}
	}
}

// Cancel отменяет сценарий по идентификатору, пустой идентификатор отменяет все.
// Возвращает идентификаторы отмененных запусков.
func (e *Engine) Cancel(runID string) []string {
	e.mu.Lock()
	var targets []*Handle
	for id, h := range e.live {
		if runID == "" || id == runID {
			targets = append(targets, h)
		}
	}
	e.mu.Unlock()

	ids := make([]string, 0, len(targets))
	for _, h := range targets {
		h.Cancel()
		ids = append(ids, h.id)
	}
	sort.Strings(ids)
	if len(ids) > 0 {
		e.logger.Info("Trace over cancelled", "runIDs", ids)
	}
	return ids
}

// Handle возвращает живой запуск по идентификатору.
func (e *Engine) Handle(runID string) (*Handle, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	h, ok := e.live[runID]
	return h, ok
}

// Active возвращает живые запуски в порядке старта.
func (e *Engine) Active() []*models.RunInfo {
	e.mu.Lock()
	handles := make([]*Handle, 0, len(e.live))
	for _, h := range e.live {
		handles = append(handles, h)
	}
	e.mu.Unlock()

	sort.Slice(handles, func(i, j int) bool {
		return handles[i].startedAt.Before(handles[j].startedAt)
	})
	infos := make([]*models.RunInfo, len(handles))
	for i, h := range handles {
		infos[i] = h.Info()
	}
	return infos
}

func (e *Engine) Pause() {
	if e.gate.Pause() {
		e.logger.Info("All scripts paused")
	}
}

func (e *Engine) Resume() {
	if e.gate.Resume() {
		e.logger.Info("All scripts resumed")
	}
}

func (e *Engine) Paused() bool { return e.gate.Paused() }

// Shutdown отменяет все запуски и ждет их завершения.
func (e *Engine) Shutdown(ctx context.Context) error {
	e.Cancel("")
	done := make(chan struct{})
	go func() {
		e.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
