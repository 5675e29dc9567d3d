package script_engine

import (
	"context"
	"encoding/json"
	"errors"
	"image"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iwtcode/transferStation/internal/domain/entities"
	"github.com/iwtcode/transferStation/internal/domain/models"
	"github.com/iwtcode/transferStation/internal/interfaces"
	"github.com/iwtcode/transferStation/internal/middleware/logging"
	appErrors "github.com/iwtcode/transferStation/pkg/errors"
)

type fakeMotion struct {
	mu       sync.Mutex
	moves    []Point
	focuses  int
	failMove error
	panicky  bool

	blockAt int           // номер вызова MoveXY (с 1), на котором нужно остановиться
	entered chan struct{} // закрывается при входе в заблокированный вызов
	release chan struct{}
}

func (m *fakeMotion) MoveXY(x, y float64) error {
	m.mu.Lock()
	m.moves = append(m.moves, Point{x, y})
	call := len(m.moves)
	m.mu.Unlock()

	if m.panicky {
		panic("stage fell over")
	}
	if m.failMove != nil {
		return m.failMove
	}
	if m.blockAt > 0 && call == m.blockAt {
		close(m.entered)
		<-m.release
	}
	return nil
}

func (m *fakeMotion) AutoFocus(int) (models.AutoFocusResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.focuses++
	return models.AutoFocusResult{Reason: "no features in frame"}, nil
}

func (m *fakeMotion) moveCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.moves)
}

type fakeCamera struct {
	mu    sync.Mutex
	snaps int
}

func (c *fakeCamera) GetFrame() image.Image { return nil }

func (c *fakeCamera) SnapImage() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.snaps++
	return nil
}

func (c *fakeCamera) count() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snaps
}

type fakeCameras struct{ cam *fakeCamera }

func (f fakeCameras) Camera(index int) (interfaces.Camera, error) {
	if index != 0 {
		return nil, appErrors.ErrCameraNotFound
	}
	return f.cam, nil
}

type fakeImages struct {
	mu     sync.Mutex
	wafers int
	images int
}

func (f *fakeImages) NewWafer(int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.wafers++
	return nil
}

func (f *fakeImages) AddImage(int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.images++
	return nil
}

type fakeBroadcaster struct {
	mu      sync.Mutex
	packets []interface{}
}

func (f *fakeBroadcaster) SendAll([]byte) {}

func (f *fakeBroadcaster) SendAllJSON(v interface{}) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.packets = append(f.packets, v)
}

func (f *fakeBroadcaster) errorPackets() []models.ErrorPacket {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.ErrorPacket
	for _, p := range f.packets {
		if e, ok := p.(models.ErrorPacket); ok {
			out = append(out, e)
		}
	}
	return out
}

func (f *fakeBroadcaster) results() []models.TraceOverResultPacket {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.TraceOverResultPacket
	for _, p := range f.packets {
		if r, ok := p.(models.TraceOverResultPacket); ok {
			out = append(out, r)
		}
	}
	return out
}

type fakeRepo struct {
	mu   sync.Mutex
	runs map[string]*entities.ScanRun
}

func newFakeRepo() *fakeRepo { return &fakeRepo{runs: map[string]*entities.ScanRun{}} }

func (r *fakeRepo) Create(run *entities.ScanRun) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *run
	r.runs[run.RunID] = &cp
	return nil
}

func (r *fakeRepo) UpdateStatus(runID, status string, stepsRun int, errMsg string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	run, ok := r.runs[runID]
	if !ok {
		return appErrors.ErrRunNotFound
	}
	run.Status, run.StepsRun, run.Error = status, stepsRun, errMsg
	return nil
}

func (r *fakeRepo) GetByRunID(runID string) (*entities.ScanRun, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	run, ok := r.runs[runID]
	if !ok {
		return nil, appErrors.ErrRunNotFound
	}
	cp := *run
	return &cp, nil
}

func (r *fakeRepo) GetByStatus(string) ([]entities.ScanRun, error) { return nil, nil }
func (r *fakeRepo) GetAll() ([]entities.ScanRun, error)            { return nil, nil }

type fakeProducer struct {
	mu       sync.Mutex
	messages map[string][]byte
}

func (p *fakeProducer) Produce(_ context.Context, key, value []byte) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.messages == nil {
		p.messages = map[string][]byte{}
	}
	p.messages[string(key)] = value
	return nil
}

func (p *fakeProducer) Close() error { return nil }

type harness struct {
	engine   *Engine
	motion   *fakeMotion
	camera   *fakeCamera
	images   *fakeImages
	bc       *fakeBroadcaster
	repo     *fakeRepo
	producer *fakeProducer
}

func newHarness(motion *fakeMotion) *harness {
	h := &harness{
		motion:   motion,
		camera:   &fakeCamera{},
		images:   &fakeImages{},
		bc:       &fakeBroadcaster{},
		repo:     newFakeRepo(),
		producer: &fakeProducer{},
	}
	h.engine = NewEngine(NewCompiler(unitTable()), Deps{
		Motion:      motion,
		Cameras:     fakeCameras{cam: h.camera},
		Images:      h.images,
		Broadcaster: h.bc,
		Repo:        h.repo,
		Producer:    h.producer,
	}, Options{PausePoll: 5 * time.Millisecond, Sleep: func(time.Duration) {}}, logging.NewNop(), nil)
	return h
}

func waitResult(t *testing.T, handle *Handle) Result {
	t.Helper()
	select {
	case <-handle.Done():
		return handle.Wait()
	case <-time.After(2 * time.Second):
		t.Fatal("script did not finish")
		return Result{}
	}
}

func TestRunUnitAreaEndToEnd(t *testing.T) {
	h := newHarness(&fakeMotion{})

	handle, err := h.engine.Start(unitRequest())
	require.NoError(t, err)
	res := waitResult(t, handle)

	assert.Equal(t, entities.RunStatusCompleted, res.Status)
	assert.Equal(t, 15, res.StepsRun)
	assert.Equal(t, 4, res.Points)
	assert.NoError(t, res.Err)

	assert.Equal(t, []Point{{0, 0}, {0, 0}, {1, 0}, {1, -1}, {0, -1}}, h.motion.moves)
	assert.Equal(t, 4, h.camera.count())
	assert.Empty(t, h.engine.Active())

	results := h.bc.results()
	require.Len(t, results, 1)
	assert.True(t, results[0].Success)
	assert.Equal(t, handle.ID(), results[0].RunID)
	assert.Equal(t, 15, results[0].CommandsRun)

	stored, err := h.repo.GetByRunID(handle.ID())
	require.NoError(t, err)
	assert.Equal(t, entities.RunStatusCompleted, stored.Status)
	assert.Equal(t, 15, stored.StepsRun)
	assert.Contains(t, stored.Request, `"magnification":1`)

	var produced models.TraceOverResultPacket
	require.NoError(t, json.Unmarshal(h.producer.messages[handle.ID()], &produced))
	assert.Equal(t, entities.RunStatusCompleted, produced.Status)
}

func TestRunSaveImagesWritesToContainer(t *testing.T) {
	h := newHarness(&fakeMotion{})
	req := unitRequest()
	req.SaveImages = true

	handle, err := h.engine.Start(req)
	require.NoError(t, err)
	res := waitResult(t, handle)

	assert.Equal(t, entities.RunStatusCompleted, res.Status)
	assert.Equal(t, 1, h.images.wafers)
	assert.Equal(t, 4, h.images.images)
	assert.Equal(t, 0, h.camera.count())
}

func TestCancelStopsAtStepBoundary(t *testing.T) {
	motion := &fakeMotion{blockAt: 2, entered: make(chan struct{}), release: make(chan struct{})}
	h := newHarness(motion)

	script, err := h.engine.Compile(unitRequest())
	require.NoError(t, err)
	handle := h.engine.Run(script)

	<-motion.entered
	assert.Equal(t, []string{handle.ID()}, h.engine.Cancel(handle.ID()))
	close(motion.release)

	res := waitResult(t, handle)
	assert.Equal(t, entities.RunStatusCancelled, res.Status)
	// шаги 0..3 (маркер, подвод, ожидание, первый подвод к точке) выполнены ровно один раз
	assert.Equal(t, 4, res.StepsRun)
	assert.Equal(t, 2, motion.moveCount())
	assert.Equal(t, 0, h.camera.count())

	results := h.bc.results()
	require.Len(t, results, 1)
	assert.False(t, results[0].Success)
	assert.Equal(t, entities.RunStatusCancelled, results[0].Status)
}

func TestPausedRunCanBeCancelled(t *testing.T) {
	h := newHarness(&fakeMotion{})
	h.engine.Pause()
	require.True(t, h.engine.Paused())

	script, err := h.engine.Compile(unitRequest())
	require.NoError(t, err)
	handle := h.engine.Run(script)

	time.Sleep(30 * time.Millisecond)
	assert.Equal(t, 0, h.motion.moveCount())
	require.Len(t, h.engine.Active(), 1)

	assert.Equal(t, []string{handle.ID()}, h.engine.Cancel(""))
	res := waitResult(t, handle)
	assert.Equal(t, entities.RunStatusCancelled, res.Status)
	assert.Equal(t, 0, res.StepsRun)
}

func TestResumeContinuesRun(t *testing.T) {
	h := newHarness(&fakeMotion{})
	h.engine.Pause()

	script, err := h.engine.Compile(unitRequest())
	require.NoError(t, err)
	handle := h.engine.Run(script)

	time.Sleep(20 * time.Millisecond)
	h.engine.Resume()

	res := waitResult(t, handle)
	assert.Equal(t, entities.RunStatusCompleted, res.Status)
	assert.False(t, h.engine.Paused())
}

func TestStepErrorFailsRun(t *testing.T) {
	h := newHarness(&fakeMotion{failMove: errors.New("stage timeout")})

	handle, err := h.engine.Start(unitRequest())
	require.NoError(t, err)
	res := waitResult(t, handle)

	assert.Equal(t, entities.RunStatusFailed, res.Status)
	assert.Equal(t, 1, res.StepsRun)
	assert.ErrorIs(t, res.Err, appErrors.ErrScriptExecution)
	assert.Equal(t, 1, h.motion.moveCount())

	errs := h.bc.errorPackets()
	require.Len(t, errs, 1)
	assert.Equal(t, 500, errs[0].Data.Code)
	assert.Contains(t, errs[0].Data.Message, "move_xy")

	stored, err := h.repo.GetByRunID(handle.ID())
	require.NoError(t, err)
	assert.Equal(t, entities.RunStatusFailed, stored.Status)
	assert.Contains(t, stored.Error, "stage timeout")
}

func TestStepPanicFailsRun(t *testing.T) {
	h := newHarness(&fakeMotion{panicky: true})

	script, err := h.engine.Compile(unitRequest())
	require.NoError(t, err)
	res := waitResult(t, h.engine.Run(script))

	assert.Equal(t, entities.RunStatusFailed, res.Status)
	assert.Contains(t, res.Err.Error(), "stage fell over")
}

func TestStartCompileErrorBroadcasts(t *testing.T) {
	h := newHarness(&fakeMotion{})

	handle, err := h.engine.Start(models.ScanRequest{Magnification: 1})
	require.Error(t, err)
	assert.Nil(t, handle)
	assert.ErrorIs(t, err, appErrors.ErrScriptCompilation)

	errs := h.bc.errorPackets()
	require.Len(t, errs, 1)
	assert.Equal(t, 400, errs[0].Data.Code)
	assert.Empty(t, h.engine.Active())
}

func TestCancelUnknownRun(t *testing.T) {
	h := newHarness(&fakeMotion{})
	assert.Empty(t, h.engine.Cancel("missing"))
	assert.Empty(t, h.engine.Cancel(""))
}

func TestShutdownCancelsLiveRuns(t *testing.T) {
	h := newHarness(&fakeMotion{})
	h.engine.Pause()

	script, err := h.engine.Compile(unitRequest())
	require.NoError(t, err)
	handle := h.engine.Run(script)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, h.engine.Shutdown(ctx))
	assert.Equal(t, entities.RunStatusCancelled, handle.Wait().Status)
}

func TestPauseGateWaitHonoursContext(t *testing.T) {
	g := NewPauseGate(time.Millisecond)
	require.NoError(t, g.Wait(context.Background()))

	assert.True(t, g.Pause())
	assert.False(t, g.Pause())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, g.Wait(ctx), context.Canceled)

	assert.True(t, g.Resume())
	assert.False(t, g.Resume())
	assert.NoError(t, g.Wait(context.Background()))
}
