package station_service

import (
	"fmt"
	"math"
	"time"

	"github.com/iwtcode/transferStation/internal/domain/models"
	"github.com/iwtcode/transferStation/internal/interfaces"
	appErrors "github.com/iwtcode/transferStation/pkg/errors"
)

// AutoFocusParams - параметры поиска фокуса по контрасту.
type AutoFocusParams struct {
	CoarseSteps  int           // количество точек грубого прохода
	Range        float64       // полуширина грубого прохода по Z
	FineStep     float64       // шаг точного прохода
	Settle       time.Duration // пауза после каждого перемещения по Z
	MaxFineSteps int           // ограничение точного прохода
}

func (p AutoFocusParams) withDefaults() AutoFocusParams {
	if p.CoarseSteps < 2 {
		p.CoarseSteps = 15
	}
	if p.Range <= 0 {
		p.Range = 0.05
	}
	if p.FineStep <= 0 {
		p.FineStep = 0.001
	}
	if p.MaxFineSteps < 2 {
		p.MaxFineSteps = 2000
	}
	return p
}

type focusSample struct {
	z     float64
	score float64
}

// AutoFocus ищет Z с максимальной дисперсией лапласиана:
// грубый проход вокруг текущей высоты, затем точный проход в найденной вилке.
// Если положительных оценок нет, столик возвращается на исходную высоту.
func (s *Station) AutoFocus(cameraIndex int) (models.AutoFocusResult, error) {
	started := time.Now()
	defer func() { s.metrics.ObserveAutoFocus(time.Since(started).Seconds()) }()

	if s.cameras == nil {
		return models.AutoFocusResult{}, fmt.Errorf("%w: камеры не настроены", appErrors.ErrCameraNotFound)
	}
	if s.analyzer == nil {
		return models.AutoFocusResult{}, fmt.Errorf("анализатор изображений не настроен")
	}
	cam, err := s.cameras.Camera(cameraIndex)
	if err != nil {
		return models.AutoFocusResult{}, err
	}

	frame := cam.GetFrame()
	if frame == nil || !s.analyzer.ExistColorFeatures(frame) {
		s.logger.Info("Autofocus skipped: nothing to focus on", "camera", cameraIndex)
		return models.AutoFocusResult{Reason: "no features in frame"}, nil
	}

	startZ, err := s.PosZ()
	if err != nil {
		return models.AutoFocusResult{}, err
	}

	// Грубый проход
	coarse := make([]focusSample, 0, s.af.CoarseSteps)
	span := 2 * s.af.Range
	for i := 0; i < s.af.CoarseSteps; i++ {
		z := startZ - s.af.Range + span*float64(i)/float64(s.af.CoarseSteps-1)
		score, err := s.scoreAt(cam, z)
		if err != nil {
			return models.AutoFocusResult{}, err
		}
		if score > 0 {
			coarse = append(coarse, focusSample{z: z, score: score})
		}
	}

	if len(coarse) == 0 {
		s.logger.Warn("Autofocus found no positive focus scores, restoring start height", "camera", cameraIndex, "z", startZ)
		return s.restore(startZ, "no positive coarse scores", s.af.CoarseSteps)
	}

	lo, hi := coarse[0].z, coarse[0].z
	for _, smp := range coarse[1:] {
		lo = math.Min(lo, smp.z)
		hi = math.Max(hi, smp.z)
	}

	// Точный проход
	step := s.af.FineStep
	steps := int(math.Floor((hi-lo)/step+1e-9)) + 1
	if steps > s.af.MaxFineSteps {
		steps = s.af.MaxFineSteps
		step = (hi - lo) / float64(steps-1)
	}

	best := focusSample{score: 0}
	for i := 0; i < steps; i++ {
		z := lo + step*float64(i)
		score, err := s.scoreAt(cam, z)
		if err != nil {
			return models.AutoFocusResult{}, err
		}
		if score > best.score {
			best = focusSample{z: z, score: score}
		}
	}

	samples := s.af.CoarseSteps + steps
	if best.score <= 0 {
		s.logger.Warn("Autofocus fine sweep found no positive focus scores, restoring start height", "camera", cameraIndex, "z", startZ)
		return s.restore(startZ, "no positive fine scores", samples)
	}

	if err := s.MoveZ(best.z); err != nil {
		return models.AutoFocusResult{}, err
	}
	s.logger.Info("Autofocus complete", "camera", cameraIndex, "z", best.z, "score", best.score, "samples", samples)
	return models.AutoFocusResult{Moved: true, BestZ: best.z, Score: best.score, Samples: samples}, nil
}

func (s *Station) scoreAt(cam interfaces.Camera, z float64) (float64, error) {
	if err := s.MoveZ(z); err != nil {
		return 0, err
	}
	s.sleep(s.af.Settle)
	frame := cam.GetFrame()
	if frame == nil {
		return 0, nil
	}
	return s.analyzer.CalculateFocusScore(frame), nil
}

func (s *Station) restore(startZ float64, reason string, samples int) (models.AutoFocusResult, error) {
	if err := s.MoveZ(startZ); err != nil {
		return models.AutoFocusResult{}, err
	}
	return models.AutoFocusResult{BestZ: startZ, Samples: samples, Reason: reason}, nil
}
