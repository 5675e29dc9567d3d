package app

import (
	"context"
	"errors"

	"github.com/iwtcode/transferStation/internal/config"
	"github.com/iwtcode/transferStation/internal/interfaces"
	"github.com/iwtcode/transferStation/internal/metrics"
	"github.com/iwtcode/transferStation/internal/middleware/logging"
	"github.com/iwtcode/transferStation/internal/services/script_engine"
	"github.com/iwtcode/transferStation/internal/services/station_service"
	"github.com/iwtcode/transferStation/internal/services/vision"
	"github.com/iwtcode/transferStation/internal/services/vision/gocvcam"

	"go.uber.org/fx"
)

const (
	simFrameWidth  = 640
	simFrameHeight = 480
)

// BuildCameras открывает камеры из CAMERA_IDS. В режиме симуляции камеры
// заменяются генератором кадров. Камеры, которые не удалось открыть, пропускаются.
// Возвращаемая функция закрывает открытые устройства.
func BuildCameras(cfg *config.AppConfig, logger *logging.Logger) (*vision.Cameras, func() error) {
	camLog := logger.WithPrefix("CAMERAS")
	cameras := vision.NewCameras()

	if cfg.Station.Simulate {
		for _, id := range cfg.Vision.CameraIDs {
			cameras.Add(id, vision.NewMockCamera(simFrameWidth, simFrameHeight))
		}
		camLog.Info("Simulated cameras registered", "ids", cameras.IDs())
		return cameras, func() error { return nil }
	}

	var opened []*gocvcam.Camera
	for _, id := range cfg.Vision.CameraIDs {
		cam, err := gocvcam.Open(id, logger)
		if err != nil {
			camLog.Warn("Camera skipped", "id", id, "error", err)
			continue
		}
		cameras.Add(id, cam)
		opened = append(opened, cam)
	}
	camLog.Info("Cameras opened", "ids", cameras.IDs())

	return cameras, func() error {
		var errs []error
		for _, cam := range opened {
			errs = append(errs, cam.Close())
		}
		return errors.Join(errs...)
	}
}

func ProvideCameras(lc fx.Lifecycle, cfg *config.AppConfig, logger *logging.Logger) (*vision.Cameras, interfaces.CameraSet) {
	cameras, closeAll := BuildCameras(cfg, logger)
	lc.Append(fx.Hook{OnStop: func(context.Context) error { return closeAll() }})
	return cameras, cameras
}

func ProvideAnalyzer() interfaces.ImageAnalyzer {
	return vision.NewAnalyzer()
}

func ProvideImageContainer(cfg *config.AppConfig, cameras interfaces.CameraSet, logger *logging.Logger) interfaces.ImageContainer {
	return vision.NewImageContainer(cfg.Vision.ImageRepoDir, cameras, logger)
}

// StationOptions собирает параметры станции из конфигурации.
func StationOptions(cfg *config.AppConfig, cameras interfaces.CameraSet, analyzer interfaces.ImageAnalyzer) station_service.Options {
	sc := cfg.Station
	opts := station_service.Options{
		MotorPort:   sc.MotorPort,
		PerfPort:    sc.PerfPort,
		BaudRate:    sc.BaudRate,
		ReadTimeout: sc.ReadTimeout,
		Simulate:    sc.Simulate,
		Cameras:     cameras,
		Analyzer:    analyzer,
		AutoFocus: station_service.AutoFocusParams{
			CoarseSteps: sc.AutoFocus.CoarseSteps,
			Range:       sc.AutoFocus.Range,
			FineStep:    sc.AutoFocus.FineStep,
			Settle:      sc.AutoFocus.Settle,
		},
	}

	switch {
	case sc.CommandServerAddr != "":
		opts.Requester = station_service.NewSocketRequester(sc.CommandServerNetwork, sc.CommandServerAddr, 0)
	case sc.Simulate:
		opts.Requester = station_service.SimRequester{}
	}
	return opts
}

func ProvideStation(cfg *config.AppConfig, cameras interfaces.CameraSet, analyzer interfaces.ImageAnalyzer, logger *logging.Logger, m *metrics.Metrics) *station_service.Station {
	return station_service.NewStation(StationOptions(cfg, cameras, analyzer), logger, m)
}

// EngineDeps описывает зависимости исполнителя сценариев для fx.
type EngineDeps struct {
	fx.In

	Config      *config.AppConfig
	Station     interfaces.StationController
	Cameras     interfaces.CameraSet
	Images      interfaces.ImageContainer
	Broadcaster interfaces.Broadcaster
	Repo        interfaces.ScanRunRepository
	Producer    interfaces.KafkaService
	Logger      *logging.Logger
	Metrics     *metrics.Metrics
}

func ProvideEngine(d EngineDeps) *script_engine.Engine {
	compiler := script_engine.NewCompiler(nil).WithMaxPoints(d.Config.Engine.MaxPoints)
	return script_engine.NewEngine(compiler, script_engine.Deps{
		Motion:      d.Station,
		Cameras:     d.Cameras,
		Images:      d.Images,
		Broadcaster: d.Broadcaster,
		Repo:        d.Repo,
		Producer:    d.Producer,
	}, script_engine.Options{PausePoll: d.Config.Engine.PausePoll}, d.Logger, d.Metrics)
}
