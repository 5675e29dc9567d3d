package packets

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"

	"github.com/iwtcode/transferStation/internal/domain/models"
	"github.com/iwtcode/transferStation/internal/interfaces"
	"github.com/iwtcode/transferStation/internal/middleware/logging"
	"github.com/iwtcode/transferStation/internal/services/packet_router"
	"github.com/iwtcode/transferStation/internal/services/station_service"
	appErrors "github.com/iwtcode/transferStation/pkg/errors"
)

// Handlers - обработчики пакетов UI. Каждый сам отвечает за рассылку результата.
type Handlers struct {
	usecase     interfaces.Usecases
	station     interfaces.StationController
	cameras     interfaces.CameraSet
	broadcaster interfaces.Broadcaster
	logger      *logging.Logger
}

func NewHandlers(
	usecase interfaces.Usecases,
	station interfaces.StationController,
	cameras interfaces.CameraSet,
	broadcaster interfaces.Broadcaster,
	logger *logging.Logger,
) *Handlers {
	return &Handlers{
		usecase:     usecase,
		station:     station,
		cameras:     cameras,
		broadcaster: broadcaster,
		logger:      logger.WithPrefix("PACKETS"),
	}
}

// Registry возвращает таблицу обработчиков для роутера.
func (h *Handlers) Registry() packet_router.Registry {
	return packet_router.Registry{
		models.PacketPing:                h.Ping,
		models.PacketSendCommand:         h.SendCommand,
		models.PacketTSCommand:           h.TSCommand,
		models.PacketRequestPosition:     h.RequestPosition,
		models.PacketRequestLogCommands:  h.RequestLogCommands,
		models.PacketRequestLogResponse:  h.RequestLogResponse,
		models.PacketSnapShot:            h.SnapShot,
		models.PacketSnapShotFlakeHunted: h.SnapShot,
		models.PacketAutoFocus:           h.AutoFocus,
		models.PacketTraceOver:           h.TraceOver,
		models.PacketCancelTraceOver:     h.CancelTraceOver,
		models.PacketPauseAll:            h.Pause,
		models.PacketResumeAll:           h.Pause,
	}
}

func (h *Handlers) Ping(string, map[string]interface{}) error {
	h.broadcaster.SendAllJSON(models.AckPacket{Type: models.PacketAck})
	return nil
}

func (h *Handlers) SendCommand(_ string, data map[string]interface{}) error {
	command, err := requiredString(data, "command")
	if err != nil {
		return err
	}

	response, err := h.usecase.SendCommand(command)
	if err != nil {
		return err
	}
	h.broadcaster.SendAllJSON(models.CommandResultPacket{
		Type:     models.PacketCommandResult,
		Command:  command,
		Response: response,
	})
	return nil
}

// TSCommand выполняет именованную команду станции с параметрами из JSON массива.
func (h *Handlers) TSCommand(_ string, data map[string]interface{}) error {
	command, err := requiredString(data, "command")
	if err != nil {
		return err
	}
	params, err := station_service.ParseParameters(data["parameters"])
	if err != nil {
		return appErrors.Validation("Invalid command parameters", err)
	}

	h.logger.Debug("Executing station command", "command", command, "params", len(params))
	result, err := h.station.Execute(command, params)
	if err != nil {
		return err
	}
	h.broadcaster.SendAllJSON(models.CommandResultPacket{
		Type:    models.PacketCommandResult,
		Command: command,
		Result:  result,
	})
	return nil
}

func (h *Handlers) RequestPosition(string, map[string]interface{}) error {
	pos, err := h.usecase.GetPosition()
	if err != nil {
		return err
	}
	h.broadcaster.SendAllJSON(models.PositionPacket{Type: models.PacketPosition, X: pos.X, Y: pos.Y})
	return nil
}

func (h *Handlers) RequestLogCommands(string, map[string]interface{}) error {
	h.broadcaster.SendAllJSON(models.LogPacket{
		Type: models.PacketResponseLogCommands,
		Data: h.usecase.GetCommandHistory(),
	})
	return nil
}

func (h *Handlers) RequestLogResponse(string, map[string]interface{}) error {
	h.broadcaster.SendAllJSON(models.LogPacket{
		Type: models.PacketResponseLogResponse,
		Data: h.usecase.GetResponseHistory(),
	})
	return nil
}

// SnapShot обновляет снимок камеры. Ответ зависит от типа запроса.
func (h *Handlers) SnapShot(packetType string, data map[string]interface{}) error {
	index, err := optionalInt(data, "camera", 0)
	if err != nil {
		return err
	}
	cam, err := h.cameras.Camera(index)
	if err != nil {
		return err
	}
	if err := cam.SnapImage(); err != nil {
		return err
	}

	reply := models.PacketRefreshSnapshot
	if packetType == models.PacketSnapShotFlakeHunted {
		reply = models.PacketRefreshSnapshotFlakeHunted
	}
	h.broadcaster.SendAllJSON(models.SnapshotPacket{Type: reply, Camera: index})
	return nil
}

func (h *Handlers) AutoFocus(_ string, data map[string]interface{}) error {
	index, err := optionalInt(data, "camera", 0)
	if err != nil {
		return err
	}
	h.broadcaster.SendAllJSON(models.NewMessagePacket(fmt.Sprintf("Autofocusing camera %d", index)))

	result, err := h.station.AutoFocus(index)
	if err != nil {
		return err
	}
	h.broadcaster.SendAllJSON(models.AutoFocusResultPacket{
		Type:   models.PacketAutoFocusResult,
		Camera: index,
		Result: result,
	})
	return nil
}

// TraceOver компилирует и запускает сканирование. Итог приходит отдельным TRACE_OVER_RESULT.
func (h *Handlers) TraceOver(_ string, data map[string]interface{}) error {
	req, err := decodeScanRequest(data)
	if err != nil {
		return err
	}

	if _, err := h.usecase.StartScan(req); err != nil {
		// ошибку компиляции движок уже разослал
		if errors.Is(err, appErrors.ErrScriptCompilation) {
			return nil
		}
		return err
	}
	return nil
}

func (h *Handlers) CancelTraceOver(_ string, data map[string]interface{}) error {
	runID, err := optionalString(data, "run_id")
	if err != nil {
		return err
	}
	cancelled, err := h.usecase.CancelScan(runID)
	if err != nil {
		return err
	}
	h.broadcaster.SendAllJSON(models.CancelResponsePacket{
		Type:      models.PacketCancelTraceOverResponse,
		Cancelled: cancelled,
	})
	return nil
}

// Pause обрабатывает PAUSE_ALL и RESUME_ALL.
func (h *Handlers) Pause(packetType string, _ map[string]interface{}) error {
	if packetType == models.PacketResumeAll {
		h.usecase.ResumeAll()
	} else {
		h.usecase.PauseAll()
	}
	h.broadcaster.SendAllJSON(models.PausePacket{Type: models.PacketPauseResponse, Paused: h.usecase.IsPaused()})
	return nil
}

func decodeScanRequest(data map[string]interface{}) (models.ScanRequest, error) {
	var req models.ScanRequest
	raw, err := json.Marshal(data)
	if err != nil {
		return req, appErrors.Validation("Invalid trace over request", err)
	}
	if err := json.Unmarshal(raw, &req); err != nil {
		return req, appErrors.Validation("Invalid trace over request", err)
	}
	return req, nil
}

func requiredString(data map[string]interface{}, key string) (string, error) {
	v, ok := data[key]
	if !ok {
		return "", appErrors.Validation(fmt.Sprintf("Missing required field: %s", key), nil)
	}
	s, ok := v.(string)
	if !ok || s == "" {
		return "", appErrors.Validation(fmt.Sprintf("Field %s must be a non-empty string", key), nil)
	}
	return s, nil
}

func optionalString(data map[string]interface{}, key string) (string, error) {
	v, ok := data[key]
	if !ok || v == nil {
		return "", nil
	}
	s, ok := v.(string)
	if !ok {
		return "", appErrors.Validation(fmt.Sprintf("Field %s must be a string", key), nil)
	}
	return s, nil
}

func optionalInt(data map[string]interface{}, key string, fallback int) (int, error) {
	v, ok := data[key]
	if !ok || v == nil {
		return fallback, nil
	}
	f, ok := v.(float64)
	if !ok || f != math.Trunc(f) {
		return 0, appErrors.Validation(fmt.Sprintf("Field %s must be an integer", key), nil)
	}
	return int(f), nil
}
