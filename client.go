package station

import (
	"context"
	"errors"
	"strings"

	"github.com/iwtcode/transferStation/internal/adapters/packets"
	"github.com/iwtcode/transferStation/internal/adapters/repositories/memory"
	"github.com/iwtcode/transferStation/internal/domain/models"
	"github.com/iwtcode/transferStation/internal/interfaces"
	"github.com/iwtcode/transferStation/internal/middleware/logging"
	"github.com/iwtcode/transferStation/internal/services/broadcast"
	"github.com/iwtcode/transferStation/internal/services/kafka"
	"github.com/iwtcode/transferStation/internal/services/packet_router"
	"github.com/iwtcode/transferStation/internal/services/script_engine"
	"github.com/iwtcode/transferStation/internal/services/station_service"
	"github.com/iwtcode/transferStation/internal/services/vision"
	"github.com/iwtcode/transferStation/internal/usecases"
)

type (
	Camera      = interfaces.Camera
	Conn        = broadcast.Conn
	ScanRequest = models.ScanRequest
	Wafer       = models.Wafer
	RunInfo     = models.RunInfo
	Position    = models.Position
	Script      = script_engine.Script
	Handle      = script_engine.Handle
	Station     = station_service.Station
	Router      = packet_router.Router
	Registry    = packet_router.Registry
	Broadcaster = interfaces.Broadcaster
)

// StartStation открывает моторный и вспомогательный каналы без камер.
// Ошибка открытия любого порта возвращается вызывающему.
func StartStation(motorPort, perfPort string, simulate bool) (*Station, error) {
	opts := station_service.Options{MotorPort: motorPort, PerfPort: perfPort, Simulate: simulate}
	if simulate {
		opts.Requester = station_service.SimRequester{}
	}
	st := station_service.NewStation(opts, logging.NewNop(), nil)
	if err := st.Start(); err != nil {
		return nil, err
	}
	return st, nil
}

// StartRouter создает роутер пакетов с заданной таблицей обработчиков.
func StartRouter(registry Registry, broadcaster Broadcaster) *Router {
	return packet_router.NewRouter(registry, broadcaster, logging.NewNop(), nil)
}

// CompileScript строит сценарий по стандартной таблице увеличений.
func CompileScript(req ScanRequest) (*Script, error) {
	return script_engine.NewCompiler(nil).Compile(req)
}

// Client является основной точкой входа для встраивания станции в другой процесс:
// последовательные каналы, исполнитель сценариев и роутер пакетов UI без HTTP слоя.
type Client struct {
	station     *station_service.Station
	engine      *script_engine.Engine
	broadcaster *broadcast.Broadcaster
	router      *packet_router.Router
	usecase     interfaces.Usecases
	logger      *logging.Logger
}

// New собирает станцию и открывает оба канала.
func New(cfg *Config) (*Client, error) {
	logger := logging.NewLogger(&logging.Config{
		Enabled: !strings.EqualFold(cfg.LogLevel, "off") && !strings.EqualFold(cfg.LogLevel, "none"),
		Level:   cfg.LogLevel,
	}, "Station")

	cameras := vision.NewCameras()
	for id, cam := range cfg.Cameras {
		cameras.Add(id, cam)
	}
	if cfg.Simulate && len(cfg.Cameras) == 0 {
		cameras.Add(0, vision.NewMockCamera(640, 480))
	}

	opts := station_service.Options{
		MotorPort: cfg.MotorPort,
		PerfPort:  cfg.PerfPort,
		BaudRate:  cfg.BaudRate,
		Simulate:  cfg.Simulate,
		Cameras:   cameras,
		Analyzer:  vision.NewAnalyzer(),
		Sleep:     cfg.Sleep,
	}
	switch {
	case cfg.CommandServerAddr != "":
		opts.Requester = station_service.NewSocketRequester("tcp", cfg.CommandServerAddr, 0)
	case cfg.Simulate:
		opts.Requester = station_service.SimRequester{}
	}

	st := station_service.NewStation(opts, logger, nil)
	if err := st.Start(); err != nil {
		_ = logger.Close()
		return nil, err
	}

	bc := broadcast.NewBroadcaster(logger, nil)
	repo := memory.NewScanRunRepository()
	engine := script_engine.NewEngine(nil, script_engine.Deps{
		Motion:      st,
		Cameras:     cameras,
		Images:      vision.NewImageContainer(cfg.ImageRepoDir, cameras, logger),
		Broadcaster: bc,
		Repo:        repo,
		Producer:    kafka.DiscardProducer{},
	}, script_engine.Options{PausePoll: cfg.PausePoll, Sleep: cfg.Sleep}, logger, nil)

	uc := usecases.NewUsecases(st, engine, repo)
	handlers := packets.NewHandlers(uc, st, cameras, bc, logger)

	return &Client{
		station:     st,
		engine:      engine,
		broadcaster: bc,
		router:      packet_router.NewRouter(handlers.Registry(), bc, logger, nil),
		usecase:     uc,
		logger:      logger,
	}, nil
}

// Close отменяет активные сценарии и закрывает каналы станции.
func (c *Client) Close(ctx context.Context) error {
	c.engine.Cancel("")
	return errors.Join(c.engine.Shutdown(ctx), c.station.Stop(), c.logger.Close())
}

// GetPosition возвращает текущее положение столика.
func (c *Client) GetPosition() (*Position, error) {
	return c.usecase.GetPosition()
}

// SendCommand отправляет сырую команду контроллеру.
func (c *Client) SendCommand(command string) (*string, error) {
	return c.usecase.SendCommand(command)
}

// RunScript запускает готовый сценарий в фоне. Итог доступен через Handle.Wait.
func (c *Client) RunScript(script *Script) *Handle {
	return c.engine.Run(script)
}

// StartScan компилирует и запускает запрос сканирования.
func (c *Client) StartScan(req ScanRequest) (*RunInfo, error) {
	return c.usecase.StartScan(req)
}

// CancelScript отменяет запуск по id или все запуски при пустом id.
func (c *Client) CancelScript(runID string) ([]string, error) {
	return c.usecase.CancelScan(runID)
}

func (c *Client) PauseAll()  { c.usecase.PauseAll() }
func (c *Client) ResumeAll() { c.usecase.ResumeAll() }

// HandlePacket обрабатывает JSON пакет UI. Ответы уходят подписчикам.
func (c *Client) HandlePacket(raw []byte) {
	c.router.HandlePacket(raw)
}

// Subscribe подключает получателя пакетов и возвращает его id.
func (c *Client) Subscribe(conn Conn) string {
	return c.broadcaster.Register(conn)
}

func (c *Client) Unsubscribe(id string) bool {
	return c.broadcaster.Unregister(id)
}
