package app

import (
	"context"
	"net/http"
	"time"

	"github.com/iwtcode/transferStation/internal/adapters/handlers"
	"github.com/iwtcode/transferStation/internal/adapters/packets"
	"github.com/iwtcode/transferStation/internal/adapters/repositories/postgres"
	"github.com/iwtcode/transferStation/internal/config"
	"github.com/iwtcode/transferStation/internal/domain/entities"
	"github.com/iwtcode/transferStation/internal/interfaces"
	"github.com/iwtcode/transferStation/internal/metrics"
	"github.com/iwtcode/transferStation/internal/middleware/logging"
	"github.com/iwtcode/transferStation/internal/middleware/swagger"
	"github.com/iwtcode/transferStation/internal/services/broadcast"
	"github.com/iwtcode/transferStation/internal/services/history_pump"
	"github.com/iwtcode/transferStation/internal/services/kafka"
	"github.com/iwtcode/transferStation/internal/services/packet_router"
	"github.com/iwtcode/transferStation/internal/services/script_engine"
	"github.com/iwtcode/transferStation/internal/services/station_service"
	"github.com/iwtcode/transferStation/internal/usecases"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/fx"
)

// New создает новый экземпляр fx.App
func New() *fx.App {
	return fx.New(
		ConfigModule,
		LoggingModule,
		MetricsModule,
		RepositoryModule,
		ProducerModule,
		VisionModule,
		StationModule,
		BroadcastModule,
		EngineModule,
		UsecaseModule,
		PacketModule,
		PumpModule,
		HttpServerModule,
		// Invoke-функции для запуска фоновых задач и хуков жизненного цикла
		fx.Invoke(InvokeStation),
		fx.Invoke(InvokeMarkInterruptedRuns),
	)
}

// --- Модули FX ---

var ConfigModule = fx.Module("config_module",
	fx.Provide(config.LoadConfiguration),
)

func ProvideLogger(cfg *config.AppConfig) *logging.Logger {
	loggerCfg := &logging.Config{
		Enabled:    cfg.Logging.Enable,
		Level:      cfg.Logging.Level,
		LogsDir:    cfg.Logging.LogsDir,
		SavingDays: uint(cfg.Logging.SavingDays),
	}
	return logging.NewLogger(loggerCfg, "TransferStation")
}

var LoggingModule = fx.Module("logging_module",
	fx.Provide(ProvideLogger),
	fx.Invoke(func(lc fx.Lifecycle, logger *logging.Logger) {
		lc.Append(fx.Hook{OnStop: func(context.Context) error { return logger.Close() }})
	}),
)

// ProvideRegistry создает отдельный реестр Prometheus (без глобального состояния).
func ProvideRegistry() (*prometheus.Registry, prometheus.Registerer, prometheus.Gatherer) {
	registry := prometheus.NewRegistry()
	return registry, registry, registry
}

var MetricsModule = fx.Module("metrics_module",
	fx.Provide(ProvideRegistry, metrics.NewMetrics),
)

var RepositoryModule = fx.Module("repository_module",
	fx.Provide(postgres.NewRepository),
)

var ProducerModule = fx.Module("producer_module",
	fx.Provide(kafka.NewKafkaProducer),
	fx.Invoke(func(lc fx.Lifecycle, producer interfaces.KafkaService) {
		lc.Append(fx.Hook{OnStop: func(context.Context) error { return producer.Close() }})
	}),
)

var VisionModule = fx.Module("vision_module",
	fx.Provide(ProvideCameras, ProvideAnalyzer, ProvideImageContainer),
)

var StationModule = fx.Module("station_module",
	fx.Provide(
		ProvideStation,
		func(s *station_service.Station) interfaces.StationController { return s },
	),
)

var BroadcastModule = fx.Module("broadcast_module",
	fx.Provide(
		broadcast.NewBroadcaster,
		func(b *broadcast.Broadcaster) interfaces.Broadcaster { return b },
	),
)

var EngineModule = fx.Module("engine_module",
	fx.Provide(
		ProvideEngine,
		func(e *script_engine.Engine) interfaces.ScanEngine { return e },
	),
	fx.Invoke(func(lc fx.Lifecycle, e *script_engine.Engine) {
		lc.Append(fx.Hook{OnStop: e.Shutdown})
	}),
)

var UsecaseModule = fx.Module("usecases_module",
	fx.Provide(usecases.NewUsecases),
)

// ProvidePacketRouter регистрирует обработчики пакетов UI.
func ProvidePacketRouter(h *packets.Handlers, b *broadcast.Broadcaster, logger *logging.Logger, m *metrics.Metrics) *packet_router.Router {
	return packet_router.NewRouter(h.Registry(), b, logger, m)
}

var PacketModule = fx.Module("packet_module",
	fx.Provide(packets.NewHandlers, ProvidePacketRouter),
)

func ProvidePump(s *station_service.Station, b *broadcast.Broadcaster, producer interfaces.KafkaService, logger *logging.Logger) *history_pump.Pump {
	return history_pump.NewPump(s, b, producer, logger)
}

var PumpModule = fx.Module("pump_module",
	fx.Provide(ProvidePump),
	fx.Invoke(InvokePump),
)

// NewSwaggerConfig отключает Swagger UI в release режиме gin.
func NewSwaggerConfig(cfg *config.AppConfig) *swagger.Config {
	return &swagger.Config{
		Enabled: cfg.GinMode != "release",
		Path:    "/swagger",
		Host:    "localhost:" + cfg.ServerPort,
	}
}

var HttpServerModule = fx.Module("http_server_module",
	fx.Provide(
		NewSwaggerConfig,
		handlers.NewHandler,
		handlers.ProvideRouter,
	),
	fx.Invoke(InvokeHttpServer),
)

// InvokeStation открывает оба последовательных канала при старте.
// Ошибка открытия порта останавливает запуск приложения.
func InvokeStation(lc fx.Lifecycle, s *station_service.Station, logger *logging.Logger) {
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			if err := s.Start(); err != nil {
				logger.Error("FATAL: Failed to open station serial ports", "error", err)
				return err
			}
			logger.Info("Station serial ports opened")
			return nil
		},
		OnStop: func(ctx context.Context) error {
			logger.Info("Closing station serial ports...")
			return s.Stop()
		},
	})
}

// InvokePump запускает рассылку истории обмена со станцией.
func InvokePump(lc fx.Lifecycle, cfg *config.AppConfig, p *history_pump.Pump) {
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			return p.Start(cfg.Station.PumpInterval)
		},
		OnStop: func(ctx context.Context) error {
			p.Stop()
			return nil
		},
	})
}

// InvokeMarkInterruptedRuns помечает запуски, оставшиеся в статусе running после
// прошлого завершения процесса. Сценарии не возобновляются: положение столика неизвестно.
func InvokeMarkInterruptedRuns(lc fx.Lifecycle, repo interfaces.ScanRunRepository, logger *logging.Logger) {
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			runs, err := repo.GetByStatus(entities.RunStatusRunning)
			if err != nil {
				logger.Error("Failed to get scan runs from DB", "error", err)
				return nil // Не фатально, просто продолжаем
			}
			for _, run := range runs {
				logger.Warn("Marking scan run as interrupted", "runID", run.RunID, "stepsRun", run.StepsRun)
				if err := repo.UpdateStatus(run.RunID, entities.RunStatusInterrupted, run.StepsRun, "process restarted"); err != nil {
					logger.Warn("Failed to mark scan run", "runID", run.RunID, "error", err)
				}
			}
			return nil
		},
	})
}

// InvokeHttpServer запускает HTTP-сервер.
func InvokeHttpServer(lc fx.Lifecycle, cfg *config.AppConfig, h http.Handler, logger *logging.Logger) {
	serverAddr := ":" + cfg.ServerPort
	server := &http.Server{
		Addr:              serverAddr,
		Handler:           h,
		ReadHeaderTimeout: 10 * time.Second,
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			logger.Info("HTTP Server is starting", "address", serverAddr)
			go func() {
				if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
					logger.Error("Failed to start server", "error", err)
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			logger.Info("Stopping HTTP server...")
			return server.Shutdown(ctx)
		},
	})
}
