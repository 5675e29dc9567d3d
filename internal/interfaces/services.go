package interfaces

import (
	"context"
	"image"

	"github.com/iwtcode/transferStation/internal/domain/models"
)

// StationController - типизированные операции станции и история обмена.
type StationController interface {
	MotionController
	SendCommand(command string) (*string, error)
	Execute(name string, params []interface{}) (interface{}, error)
	VacuumOn() error
	VacuumOff() error
	SetLED(level float64) error
	PosX() (float64, error)
	PosY() (float64, error)
	PosZ() (float64, error)
	State() models.StationState
	SinceLastSend() []models.CommandRecord
	SinceLastReceive() []models.ResponseRecord
	SendHistory() []models.CommandRecord
	ReceiveHistory() []models.ResponseRecord
}

// MotionController - часть станции, которая нужна исполнителю сценариев.
type MotionController interface {
	MoveXY(x, y float64) error
	AutoFocus(cameraIndex int) (models.AutoFocusResult, error)
}

// Requester - транспорт запрос/ответ до командного сервера станции.
type Requester interface {
	Request(ctx context.Context, command string) (string, error)
}

// Camera - источник кадров.
type Camera interface {
	GetFrame() image.Image
	SnapImage() error
}

// CameraSet - набор камер по индексу.
type CameraSet interface {
	Camera(index int) (Camera, error)
}

// ImageAnalyzer - оценка резкости и наличия деталей на кадре.
type ImageAnalyzer interface {
	CalculateFocusScore(img image.Image) float64
	ExistColorFeatures(img image.Image) bool
}

// ImageContainer - сохранение снимков сканирования на диск.
type ImageContainer interface {
	NewWafer(cameraIndex int) error
	AddImage(cameraIndex int) error
}

// Broadcaster - рассылка JSON всем подключенным UI клиентам.
type Broadcaster interface {
	SendAll(payload []byte)
	SendAllJSON(v interface{})
}

// ScanEngine - компиляция и выполнение сценариев сканирования.
type ScanEngine interface {
	StartScan(req models.ScanRequest) (*models.RunInfo, error)
	Active() []*models.RunInfo
	Cancel(runID string) []string
	Pause()
	Resume()
	Paused() bool
}
