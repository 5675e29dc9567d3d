package vision

import (
	"fmt"
	"image/png"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/iwtcode/transferStation/internal/interfaces"
	"github.com/iwtcode/transferStation/internal/middleware/logging"
)

const waferTimeLayout = "02-01-2006-15-04-05"

type waferDir struct {
	path  string
	count int
}

// ImageContainer раскладывает снимки сканирования по каталогам
// <root>/camera<id>-<dd-mm-yyyy-hh-mm-ss>/<n>-camera<id>.png.
type ImageContainer struct {
	root    string
	cameras interfaces.CameraSet
	now     func() time.Time
	logger  *logging.Logger

	mu     sync.Mutex
	wafers map[int]*waferDir
}

var _ interfaces.ImageContainer = (*ImageContainer)(nil)

func NewImageContainer(root string, cameras interfaces.CameraSet, logger *logging.Logger) *ImageContainer {
	return &ImageContainer{
		root:    root,
		cameras: cameras,
		now:     time.Now,
		logger:  logger.WithPrefix("IMAGES"),
		wafers:  make(map[int]*waferDir),
	}
}

// NewWafer открывает новый каталог для камеры и сбрасывает нумерацию.
func (c *ImageContainer) NewWafer(cameraIndex int) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.newWaferLocked(cameraIndex)
}

func (c *ImageContainer) newWaferLocked(cameraIndex int) error {
	base := fmt.Sprintf("camera%d-%s", cameraIndex, c.now().Format(waferTimeLayout))
	path := filepath.Join(c.root, base)
	for i := 2; ; i++ {
		if _, err := os.Stat(path); os.IsNotExist(err) {
			break
		}
		path = filepath.Join(c.root, fmt.Sprintf("%s-%d", base, i))
	}
	if err := os.MkdirAll(path, 0o755); err != nil {
		return fmt.Errorf("не удалось создать каталог снимков %s: %w", path, err)
	}
	c.wafers[cameraIndex] = &waferDir{path: path}
	c.logger.Info("New wafer directory", "camera", cameraIndex, "path", path)
	return nil
}

// AddImage снимает кадр с камеры и сохраняет его в текущий каталог.
func (c *ImageContainer) AddImage(cameraIndex int) error {
	cam, err := c.cameras.Camera(cameraIndex)
	if err != nil {
		return err
	}
	frame := cam.GetFrame()
	if frame == nil {
		return fmt.Errorf("камера %d не вернула кадр", cameraIndex)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	dir, ok := c.wafers[cameraIndex]
	if !ok {
		if err := c.newWaferLocked(cameraIndex); err != nil {
			return err
		}
		dir = c.wafers[cameraIndex]
	}
	dir.count++

	name := filepath.Join(dir.path, fmt.Sprintf("%d-camera%d.png", dir.count, cameraIndex))
	f, err := os.Create(name)
	if err != nil {
		return fmt.Errorf("не удалось создать файл %s: %w", name, err)
	}
	defer f.Close()

	if err := png.Encode(f, frame); err != nil {
		return fmt.Errorf("не удалось сохранить снимок %s: %w", name, err)
	}
	c.logger.Debug("Image saved", "file", name)
	return nil
}

// CurrentDir возвращает каталог текущей области для камеры.
func (c *ImageContainer) CurrentDir(cameraIndex int) (string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	dir, ok := c.wafers[cameraIndex]
	if !ok {
		return "", false
	}
	return dir.path, true
}
