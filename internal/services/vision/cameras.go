package vision

import (
	"fmt"
	"image"
	"image/color"
	"sync"

	"github.com/iwtcode/transferStation/internal/interfaces"
	appErrors "github.com/iwtcode/transferStation/pkg/errors"
)

// Cameras - набор камер по индексу, собирается при старте и передается в конструкторы.
type Cameras struct {
	mu   sync.RWMutex
	byID map[int]interfaces.Camera
}

var _ interfaces.CameraSet = (*Cameras)(nil)

func NewCameras() *Cameras {
	return &Cameras{byID: make(map[int]interfaces.Camera)}
}

func (c *Cameras) Add(index int, cam interfaces.Camera) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.byID[index] = cam
}

func (c *Cameras) Camera(index int) (interfaces.Camera, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	cam, ok := c.byID[index]
	if !ok {
		return nil, appErrors.NewAppError(appErrors.NotFoundErrorCode, fmt.Sprintf("камера %d не найдена", index), appErrors.ErrCameraNotFound, false)
	}
	return cam, nil
}

// IDs возвращает индексы зарегистрированных камер.
func (c *Cameras) IDs() []int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	ids := make([]int, 0, len(c.byID))
	for id := range c.byID {
		ids = append(ids, id)
	}
	return ids
}

// MockCamera отдает синтетический кадр: шахматное поле на сером фоне.
type MockCamera struct {
	mu       sync.Mutex
	frame    image.Image
	snapshot image.Image
	snaps    int
}

var _ interfaces.Camera = (*MockCamera)(nil)

func NewMockCamera(width, height int) *MockCamera {
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			c := color.RGBA{R: 120, G: 120, B: 130, A: 255}
			if (x/16+y/16)%2 == 0 {
				c = color.RGBA{R: 60, G: 70, B: 160, A: 255}
			}
			img.Set(x, y, c)
		}
	}
	return &MockCamera{frame: img}
}

// NewStaticCamera отдает заданный кадр (nil означает отсутствие кадра).
func NewStaticCamera(frame image.Image) *MockCamera {
	return &MockCamera{frame: frame}
}

func (m *MockCamera) GetFrame() image.Image {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.frame
}

func (m *MockCamera) SnapImage() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.frame == nil {
		return fmt.Errorf("камера не вернула кадр")
	}
	m.snapshot = m.frame
	m.snaps++
	return nil
}

// Snaps возвращает количество выполненных снимков.
func (m *MockCamera) Snaps() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.snaps
}
