package vision

import (
	"image"
	"image/color"
	"math"

	"golang.org/x/image/draw"
	"gonum.org/v1/gonum/stat"

	"github.com/iwtcode/transferStation/internal/interfaces"
)

// Analyzer оценивает резкость кадра (дисперсия лапласиана) и наличие деталей.
type Analyzer struct {
	// MaxWidth - кадры шире уменьшаются перед анализом.
	MaxWidth int
	// FeatureStdDev - минимальное СКО яркости или цветности, при котором кадр считается содержательным.
	FeatureStdDev float64
}

var _ interfaces.ImageAnalyzer = (*Analyzer)(nil)

func NewAnalyzer() *Analyzer {
	return &Analyzer{MaxWidth: 640, FeatureStdDev: 2.0}
}

// CalculateFocusScore: размытие 3x3, лапласиан 3x3, дисперсия отклика.
func (a *Analyzer) CalculateFocusScore(img image.Image) float64 {
	if img == nil {
		return 0
	}
	gray := a.grayscale(img)
	w, h := gray.Bounds().Dx(), gray.Bounds().Dy()
	if w < 3 || h < 3 {
		return 0
	}

	blurred := boxBlur(gray, w, h)
	lap := make([]float64, 0, (w-2)*(h-2))
	for y := 1; y < h-1; y++ {
		for x := 1; x < w-1; x++ {
			c := blurred[y*w+x]
			v := blurred[(y-1)*w+x] + blurred[(y+1)*w+x] + blurred[y*w+x-1] + blurred[y*w+x+1] - 4*c
			lap = append(lap, v)
		}
	}
	return stat.Variance(lap, nil)
}

// ExistColorFeatures сообщает, есть ли на кадре что-то кроме однородного фона.
func (a *Analyzer) ExistColorFeatures(img image.Image) bool {
	if img == nil {
		return false
	}
	small := a.downscale(img)
	b := small.Bounds()
	n := b.Dx() * b.Dy()
	if n == 0 {
		return false
	}

	luma := make([]float64, 0, n)
	cb := make([]float64, 0, n)
	cr := make([]float64, 0, n)
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			r, g, bl, _ := small.At(x, y).RGBA()
			yy, u, v := color.RGBToYCbCr(uint8(r>>8), uint8(g>>8), uint8(bl>>8))
			luma = append(luma, float64(yy))
			cb = append(cb, float64(u))
			cr = append(cr, float64(v))
		}
	}

	for _, ch := range [][]float64{luma, cb, cr} {
		if stat.StdDev(ch, nil) > a.FeatureStdDev {
			return true
		}
	}
	return false
}

func (a *Analyzer) downscale(img image.Image) image.Image {
	b := img.Bounds()
	if a.MaxWidth <= 0 || b.Dx() <= a.MaxWidth {
		return img
	}
	h := int(math.Max(1, math.Round(float64(b.Dy())*float64(a.MaxWidth)/float64(b.Dx()))))
	dst := image.NewRGBA(image.Rect(0, 0, a.MaxWidth, h))
	draw.ApproxBiLinear.Scale(dst, dst.Bounds(), img, b, draw.Src, nil)
	return dst
}

func (a *Analyzer) grayscale(img image.Image) *image.Gray {
	src := a.downscale(img)
	b := src.Bounds()
	gray := image.NewGray(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(gray, gray.Bounds(), src, b.Min, draw.Src)
	return gray
}

func boxBlur(gray *image.Gray, w, h int) []float64 {
	out := make([]float64, w*h)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			var sum float64
			var cnt float64
			for dy := -1; dy <= 1; dy++ {
				for dx := -1; dx <= 1; dx++ {
					xx, yy := x+dx, y+dy
					if xx < 0 || yy < 0 || xx >= w || yy >= h {
						continue
					}
					sum += float64(gray.Pix[yy*gray.Stride+xx])
					cnt++
				}
			}
			out[y*w+x] = sum / cnt
		}
	}
	return out
}
