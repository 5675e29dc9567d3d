package gocvcam

import (
	"fmt"
	"image"
	"sync"

	"gocv.io/x/gocv"

	"github.com/iwtcode/transferStation/internal/interfaces"
	"github.com/iwtcode/transferStation/internal/middleware/logging"
)

// Camera - захват кадров через OpenCV VideoCapture.
type Camera struct {
	id     int
	mu     sync.Mutex
	video  *gocv.VideoCapture
	snap   image.Image
	logger *logging.Logger
}

var _ interfaces.Camera = (*Camera)(nil)

// Open открывает устройство захвата и выставляет разрешение 1280x720.
func Open(id int, logger *logging.Logger) (*Camera, error) {
	video, err := gocv.OpenVideoCapture(id)
	if err != nil {
		return nil, fmt.Errorf("не удалось открыть камеру %d: %w", id, err)
	}
	if !video.IsOpened() {
		_ = video.Close()
		return nil, fmt.Errorf("камера %d не открыта", id)
	}
	video.Set(gocv.VideoCaptureFrameWidth, 1280)
	video.Set(gocv.VideoCaptureFrameHeight, 720)

	return &Camera{
		id:     id,
		video:  video,
		logger: logger.WithPrefix(fmt.Sprintf("CAMERA-%d", id)),
	}, nil
}

// GetFrame читает один кадр. nil, если кадр прочитать не удалось.
func (c *Camera) GetFrame() image.Image {
	c.mu.Lock()
	defer c.mu.Unlock()

	mat := gocv.NewMat()
	defer mat.Close()

	if ok := c.video.Read(&mat); !ok || mat.Empty() {
		c.logger.Warn("Could not read frame")
		return nil
	}
	img, err := mat.ToImage()
	if err != nil {
		c.logger.Warn("Could not convert frame", "error", err)
		return nil
	}
	return img
}

// SnapImage запоминает текущий кадр как снимок для UI.
func (c *Camera) SnapImage() error {
	frame := c.GetFrame()
	if frame == nil {
		return fmt.Errorf("камера %d не вернула кадр", c.id)
	}
	c.mu.Lock()
	c.snap = frame
	c.mu.Unlock()
	return nil
}

// Snapshot возвращает последний снимок.
func (c *Camera) Snapshot() image.Image {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snap
}

func (c *Camera) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.video.Close()
}
