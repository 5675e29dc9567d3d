package packets

import (
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iwtcode/transferStation/internal/domain/entities"
	"github.com/iwtcode/transferStation/internal/domain/models"
	"github.com/iwtcode/transferStation/internal/interfaces"
	"github.com/iwtcode/transferStation/internal/middleware/logging"
	"github.com/iwtcode/transferStation/internal/services/packet_router"
	"github.com/iwtcode/transferStation/internal/services/vision"
	appErrors "github.com/iwtcode/transferStation/pkg/errors"
)

type recorder struct {
	mu      sync.Mutex
	packets []interface{}
}

func (r *recorder) SendAll([]byte) {}

func (r *recorder) SendAllJSON(v interface{}) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.packets = append(r.packets, v)
}

func (r *recorder) all() []interface{} {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]interface{}(nil), r.packets...)
}

func (r *recorder) last() interface{} {
	all := r.all()
	if len(all) == 0 {
		return nil
	}
	return all[len(all)-1]
}

type fakeUsecases struct {
	paused    bool
	scanReq   models.ScanRequest
	scanErr   error
	cancelArg string
	commands  []string
}

func (f *fakeUsecases) GetPosition() (*models.Position, error) {
	return &models.Position{X: 1.5, Y: -2}, nil
}

func (f *fakeUsecases) SendCommand(command string) (*string, error) {
	f.commands = append(f.commands, command)
	resp := "OK"
	return &resp, nil
}

func (f *fakeUsecases) GetCommandHistory() []models.CommandRecord {
	return []models.CommandRecord{{Command: "GETPOSX"}}
}

func (f *fakeUsecases) GetResponseHistory() []models.ResponseRecord {
	return []models.ResponseRecord{{Response: "X=1"}}
}

func (f *fakeUsecases) StartScan(req models.ScanRequest) (*models.RunInfo, error) {
	f.scanReq = req
	if f.scanErr != nil {
		return nil, f.scanErr
	}
	return &models.RunInfo{RunID: "run-1"}, nil
}

func (f *fakeUsecases) GetActiveScans() []*models.RunInfo         { return nil }
func (f *fakeUsecases) GetStoredScans() ([]entities.ScanRun, error) { return nil, nil }

func (f *fakeUsecases) CancelScan(runID string) ([]string, error) {
	f.cancelArg = runID
	if runID == "missing" {
		return nil, appErrors.NewAppError(appErrors.NotFoundErrorCode, "not found", appErrors.ErrRunNotFound, false)
	}
	return []string{"run-1"}, nil
}

func (f *fakeUsecases) PauseAll()      { f.paused = true }
func (f *fakeUsecases) ResumeAll()     { f.paused = false }
func (f *fakeUsecases) IsPaused() bool { return f.paused }

type fakeStation struct {
	interfaces.StationController
	executed []interface{}
	focusErr error
}

func (f *fakeStation) Execute(name string, params []interface{}) (interface{}, error) {
	f.executed = params
	return map[string]interface{}{"command": name}, nil
}

func (f *fakeStation) AutoFocus(cameraIndex int) (models.AutoFocusResult, error) {
	if f.focusErr != nil {
		return models.AutoFocusResult{}, f.focusErr
	}
	return models.AutoFocusResult{Moved: true, BestZ: 0.01, Samples: 20}, nil
}

type fixture struct {
	router  *packet_router.Router
	rec     *recorder
	uc      *fakeUsecases
	station *fakeStation
	camera  *vision.MockCamera
}

func newFixture() *fixture {
	rec := &recorder{}
	uc := &fakeUsecases{}
	st := &fakeStation{}
	cam := vision.NewMockCamera(32, 32)
	cameras := vision.NewCameras()
	cameras.Add(0, cam)

	h := NewHandlers(uc, st, cameras, rec, logging.NewNop())
	return &fixture{
		router:  packet_router.NewRouter(h.Registry(), rec, logging.NewNop(), nil),
		rec:     rec,
		uc:      uc,
		station: st,
		camera:  cam,
	}
}

func (f *fixture) send(raw string) { f.router.HandlePacket([]byte(raw)) }

func TestRegistryCoversInboundPackets(t *testing.T) {
	h := NewHandlers(&fakeUsecases{}, &fakeStation{}, vision.NewCameras(), &recorder{}, logging.NewNop())
	registry := h.Registry()
	for _, packetType := range []string{
		models.PacketPing, models.PacketSendCommand, models.PacketTSCommand,
		models.PacketRequestPosition, models.PacketRequestLogCommands, models.PacketRequestLogResponse,
		models.PacketSnapShot, models.PacketSnapShotFlakeHunted, models.PacketAutoFocus,
		models.PacketTraceOver, models.PacketCancelTraceOver, models.PacketPauseAll, models.PacketResumeAll,
	} {
		assert.Contains(t, registry, packetType)
	}
}

func TestPingAndPosition(t *testing.T) {
	f := newFixture()

	f.send(`{"type":"PING"}`)
	assert.Equal(t, models.AckPacket{Type: models.PacketAck}, f.rec.last())

	f.send(`{"type":"REQUEST_POSITION"}`)
	assert.Equal(t, models.PositionPacket{Type: models.PacketPosition, X: 1.5, Y: -2}, f.rec.last())
}

func TestSendCommand(t *testing.T) {
	f := newFixture()

	f.send(`{"type":"SEND_COMMAND","command":"GETPOSX"}`)
	result, ok := f.rec.last().(models.CommandResultPacket)
	require.True(t, ok)
	assert.Equal(t, "GETPOSX", result.Command)
	require.NotNil(t, result.Response)
	assert.Equal(t, "OK", *result.Response)

	f.send(`{"type":"SEND_COMMAND"}`)
	errPacket, ok := f.rec.last().(models.ErrorPacket)
	require.True(t, ok)
	assert.Equal(t, 400, errPacket.Data.Code)
	assert.Equal(t, []string{"GETPOSX"}, f.uc.commands)
}

func TestTSCommandParameters(t *testing.T) {
	f := newFixture()

	f.send(`{"type":"TS_COMMAND","command":"moveX","parameters":[1.25]}`)
	assert.Equal(t, []interface{}{1.25}, f.station.executed)
	_, ok := f.rec.last().(models.CommandResultPacket)
	assert.True(t, ok)

	f.send(`{"type":"TS_COMMAND","command":"moveX","parameters":"1.25"}`)
	errPacket, ok := f.rec.last().(models.ErrorPacket)
	require.True(t, ok)
	assert.Equal(t, 400, errPacket.Data.Code)
}

func TestLogPackets(t *testing.T) {
	f := newFixture()

	f.send(`{"type":"REQUEST_LOG_COMMANDS"}`)
	assert.Equal(t, models.PacketResponseLogCommands, f.rec.last().(models.LogPacket).Type)

	f.send(`{"type":"REQUEST_LOG_RESPONSE"}`)
	assert.Equal(t, models.PacketResponseLogResponse, f.rec.last().(models.LogPacket).Type)
}

func TestSnapShotReplies(t *testing.T) {
	f := newFixture()

	f.send(`{"type":"SNAP_SHOT","camera":0}`)
	assert.Equal(t, models.SnapshotPacket{Type: models.PacketRefreshSnapshot}, f.rec.last())

	f.send(`{"type":"SNAP_SHOT_FLAKE_HUNTED"}`)
	assert.Equal(t, models.SnapshotPacket{Type: models.PacketRefreshSnapshotFlakeHunted}, f.rec.last())
	assert.Equal(t, 2, f.camera.Snaps())

	f.send(`{"type":"SNAP_SHOT","camera":1.5}`)
	errPacket, ok := f.rec.last().(models.ErrorPacket)
	require.True(t, ok)
	assert.Equal(t, 400, errPacket.Data.Code)

	f.send(`{"type":"SNAP_SHOT","camera":3}`)
	errPacket, ok = f.rec.last().(models.ErrorPacket)
	require.True(t, ok)
	assert.NotEqual(t, 400, errPacket.Data.Code)
}

func TestAutoFocus(t *testing.T) {
	f := newFixture()

	f.send(`{"type":"AUTO_FOCUS","camera":0}`)
	packets := f.rec.all()
	require.Len(t, packets, 2)
	assert.IsType(t, models.MessagePacket{}, packets[0])
	result := packets[1].(models.AutoFocusResultPacket)
	assert.True(t, result.Result.Moved)

	f.station.focusErr = errors.New("camera lost")
	f.send(`{"type":"AUTO_FOCUS"}`)
	assert.Equal(t, models.NewErrorPacket(500, "camera lost"), f.rec.last())
}

func TestTraceOver(t *testing.T) {
	f := newFixture()

	f.send(`{"type":"TRACE_OVER","bottom_x":0,"bottom_y":0,"top_x":1,"top_y":-1,"magnification":5,"save_images":true}`)
	require.Len(t, f.uc.scanReq.Regions(), 1)
	assert.Equal(t, 5, f.uc.scanReq.Magnification)
	assert.True(t, f.uc.scanReq.SaveImages)
	assert.Empty(t, f.rec.all())

	f.uc.scanErr = appErrors.NewAppError(appErrors.BadRequestCode, "Invalid magnification", appErrors.ErrScriptCompilation, false)
	f.send(`{"type":"TRACE_OVER","magnification":7}`)
	assert.Empty(t, f.rec.all())

	f.send(`{"type":"TRACE_OVER","magnification":"high"}`)
	errPacket, ok := f.rec.last().(models.ErrorPacket)
	require.True(t, ok)
	assert.Equal(t, 400, errPacket.Data.Code)
}

func TestCancelTraceOver(t *testing.T) {
	f := newFixture()

	f.send(`{"type":"CANCEL_TRACE_OVER"}`)
	assert.Equal(t, "", f.uc.cancelArg)
	assert.Equal(t, models.CancelResponsePacket{Type: models.PacketCancelTraceOverResponse, Cancelled: []string{"run-1"}}, f.rec.last())

	f.send(`{"type":"CANCEL_TRACE_OVER","run_id":"missing"}`)
	errPacket, ok := f.rec.last().(models.ErrorPacket)
	require.True(t, ok)
	assert.Equal(t, 404, errPacket.Data.Code)
}

func TestPauseAndResume(t *testing.T) {
	f := newFixture()

	f.send(`{"type":"PAUSE_ALL"}`)
	assert.Equal(t, models.PausePacket{Type: models.PacketPauseResponse, Paused: true}, f.rec.last())

	f.send(`{"type":"RESUME_ALL"}`)
	assert.Equal(t, models.PausePacket{Type: models.PacketPauseResponse, Paused: false}, f.rec.last())
}
