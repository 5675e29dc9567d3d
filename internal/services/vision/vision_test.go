package vision

import (
	"image"
	"image/color"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/iwtcode/transferStation/internal/middleware/logging"
	appErrors "github.com/iwtcode/transferStation/pkg/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func filled(w, h int, c color.Color) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, c)
		}
	}
	return img
}

func TestAnalyzerUniformFrameHasNoFeatures(t *testing.T) {
	a := NewAnalyzer()
	img := filled(64, 48, color.RGBA{R: 90, G: 90, B: 90, A: 255})

	assert.False(t, a.ExistColorFeatures(img))
	assert.InDelta(t, 0, a.CalculateFocusScore(img), 1e-9)
	assert.False(t, a.ExistColorFeatures(nil))
	assert.Equal(t, 0.0, a.CalculateFocusScore(nil))
}

func TestAnalyzerSharperFrameScoresHigher(t *testing.T) {
	a := NewAnalyzer()

	sharp := NewMockCamera(64, 64).GetFrame()
	soft := image.NewRGBA(image.Rect(0, 0, 64, 64))
	for y := 0; y < 64; y++ {
		for x := 0; x < 64; x++ {
			v := uint8(100 + x/2)
			soft.Set(x, y, color.RGBA{R: v, G: v, B: v, A: 255})
		}
	}

	assert.True(t, a.ExistColorFeatures(sharp))
	assert.Greater(t, a.CalculateFocusScore(sharp), a.CalculateFocusScore(soft))
}

func TestAnalyzerDownscalesWideFrames(t *testing.T) {
	a := &Analyzer{MaxWidth: 32, FeatureStdDev: 2}
	small := a.downscale(filled(128, 64, color.White))
	assert.Equal(t, 32, small.Bounds().Dx())
	assert.Equal(t, 16, small.Bounds().Dy())
}

func TestCamerasLookup(t *testing.T) {
	cams := NewCameras()
	cams.Add(0, NewMockCamera(8, 8))

	_, err := cams.Camera(0)
	require.NoError(t, err)

	_, err = cams.Camera(3)
	assert.ErrorIs(t, err, appErrors.ErrCameraNotFound)
	assert.Equal(t, appErrors.NotFoundErrorCode, appErrors.CodeOf(err))
}

func TestImageContainerLayout(t *testing.T) {
	root := t.TempDir()
	cams := NewCameras()
	cams.Add(1, NewMockCamera(16, 16))

	c := NewImageContainer(root, cams, logging.NewNop())
	c.now = func() time.Time { return time.Date(2024, 4, 16, 3, 27, 25, 0, time.UTC) }

	require.NoError(t, c.NewWafer(1))
	require.NoError(t, c.AddImage(1))
	require.NoError(t, c.AddImage(1))

	dir := filepath.Join(root, "camera1-16-04-2024-03-27-25")
	assert.FileExists(t, filepath.Join(dir, "1-camera1.png"))
	assert.FileExists(t, filepath.Join(dir, "2-camera1.png"))

	// вторая область в ту же секунду получает суффикс и новую нумерацию
	require.NoError(t, c.NewWafer(1))
	require.NoError(t, c.AddImage(1))
	assert.FileExists(t, filepath.Join(root, "camera1-16-04-2024-03-27-25-2", "1-camera1.png"))

	entries, err := os.ReadDir(root)
	require.NoError(t, err)
	assert.Len(t, entries, 2)
}

func TestImageContainerMissingFrame(t *testing.T) {
	cams := NewCameras()
	cams.Add(0, NewStaticCamera(nil))
	c := NewImageContainer(t.TempDir(), cams, logging.NewNop())

	assert.Error(t, c.AddImage(0))
	assert.ErrorIs(t, c.AddImage(5), appErrors.ErrCameraNotFound)
}
