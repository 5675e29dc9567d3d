package station_service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/iwtcode/transferStation/internal/domain/models"
	"github.com/iwtcode/transferStation/internal/interfaces"
	"github.com/iwtcode/transferStation/internal/metrics"
	"github.com/iwtcode/transferStation/internal/middleware/logging"
	appErrors "github.com/iwtcode/transferStation/pkg/errors"
)

// Options - параметры сборки станции.
type Options struct {
	MotorPort   string
	PerfPort    string
	BaudRate    int
	ReadTimeout time.Duration
	Simulate    bool

	// MotorOpener и PerfOpener подменяют открытие портов (тесты, симуляция).
	MotorOpener PortOpener
	PerfOpener  PortOpener

	// Requester - синхронный транспорт запрос/ответ. nil означает отправку
	// команд в моторный канал без ответа.
	Requester      interfaces.Requester
	RequestTimeout time.Duration

	// PositionWait ограничивает ожидание ответа "X:"/"Y:" на GETPOSX/GETPOSY
	// при работе без командного сервера.
	PositionWait time.Duration

	Cameras   interfaces.CameraSet
	Analyzer  interfaces.ImageAnalyzer
	AutoFocus AutoFocusParams

	Sleep func(time.Duration)
	Now   func() time.Time
}

// Station объединяет моторный и вспомогательный каналы, ведет историю обмена
// и предоставляет типизированные операции.
type Station struct {
	motor *DeviceLink
	perf  *DeviceLink

	requester      interfaces.Requester
	requestTimeout time.Duration
	positionWait   time.Duration
	cameras        interfaces.CameraSet
	analyzer       interfaces.ImageAnalyzer
	af             AutoFocusParams
	sleep          func(time.Duration)
	now            func() time.Time

	cmdMu sync.Mutex // порядок команд и записей в истории

	stateMu    sync.RWMutex
	state      models.StationState
	commandedZ float64
	// закрывается и пересоздается при каждом обновлении оси ("X:", "Y:")
	posUpdated map[string]chan struct{}

	sent     *History[models.CommandRecord]
	received *History[models.ResponseRecord]

	commands map[string]stationCommand

	logger  *logging.Logger
	metrics *metrics.Metrics
}

var _ interfaces.StationController = (*Station)(nil)

func NewStation(opts Options, logger *logging.Logger, m *metrics.Metrics) *Station {
	s := &Station{
		requester:      opts.Requester,
		requestTimeout: opts.RequestTimeout,
		positionWait:   opts.PositionWait,
		cameras:        opts.Cameras,
		analyzer:       opts.Analyzer,
		af:             opts.AutoFocus.withDefaults(),
		sleep:          opts.Sleep,
		now:            opts.Now,
		sent:           NewHistory[models.CommandRecord](),
		received:       NewHistory[models.ResponseRecord](),
		logger:         logger.WithPrefix("STATION"),
		metrics:        m,
		posUpdated: map[string]chan struct{}{
			"X:": make(chan struct{}),
			"Y:": make(chan struct{}),
		},
	}
	if s.sleep == nil {
		s.sleep = time.Sleep
	}
	if s.now == nil {
		s.now = time.Now
	}
	if s.requestTimeout <= 0 {
		s.requestTimeout = 30 * time.Second
	}
	if s.positionWait <= 0 {
		s.positionWait = 200 * time.Millisecond
	}

	s.motor = NewDeviceLink(LinkConfig{
		Name:        models.SourceMotor,
		PortName:    opts.MotorPort,
		BaudRate:    opts.BaudRate,
		ReadTimeout: opts.ReadTimeout,
		Simulate:    opts.Simulate,
		Opener:      opts.MotorOpener,
	}, func(line string) { s.dispatch(models.SourceMotor, line) }, logger, m)

	s.perf = NewDeviceLink(LinkConfig{
		Name:        models.SourcePerf,
		PortName:    opts.PerfPort,
		BaudRate:    opts.BaudRate,
		ReadTimeout: opts.ReadTimeout,
		Simulate:    opts.Simulate,
		Opener:      opts.PerfOpener,
	}, func(line string) { s.dispatch(models.SourcePerf, line) }, logger, m)

	s.commands = newCommandTable()
	return s
}

// Start открывает оба канала. Ошибка открытия любого из них фатальна.
func (s *Station) Start() error {
	s.logger.Info("Starting serial communication", "motor", s.motor.cfg.PortName, "perf", s.perf.cfg.PortName)
	if err := s.motor.Start(); err != nil {
		return err
	}
	if err := s.perf.Start(); err != nil {
		_ = s.motor.Stop()
		return err
	}
	return nil
}

// Stop закрывает оба канала.
func (s *Station) Stop() error {
	return errors.Join(s.motor.Stop(), s.perf.Stop())
}

// Dispatch обрабатывает строку моторного канала.
func (s *Station) Dispatch(message string) {
	s.dispatch(models.SourceMotor, message)
}

func (s *Station) dispatch(source, message string) {
	s.received.Append(models.ResponseRecord{
		Timestamp: s.now(),
		Response:  message,
		Source:    source,
	})

	prefix, value, ok := parseResponse(message)
	if !ok {
		s.metrics.Unrecognized()
		s.logger.Debug("Unrecognized response", "source", source, "message", message, "error", appErrors.ErrProtocolParse)
		return
	}

	s.stateMu.Lock()
	defer s.stateMu.Unlock()
	switch prefix {
	case "X:":
		s.state.X = value
		s.notifyPosition(prefix)
	case "Y:":
		s.state.Y = value
		s.notifyPosition(prefix)
	case "TEMP:":
		s.state.Temperature = value
	case "DONEZOOM:":
		s.state.DoneZoom = value
	case "PRES:":
		s.state.Pressure = value
	}
}

// notifyPosition будит ожидающих ответа по оси. Вызывается под stateMu.
func (s *Station) notifyPosition(prefix string) {
	close(s.posUpdated[prefix])
	s.posUpdated[prefix] = make(chan struct{})
}

// State возвращает последние значения, пришедшие от станции.
func (s *Station) State() models.StationState {
	s.stateMu.RLock()
	defer s.stateMu.RUnlock()
	return s.state
}

// SendCommand отправляет команду через командный сервер (ответ сохраняется в истории)
// или, если он не настроен, в моторный канал без ответа.
func (s *Station) SendCommand(command string) (*string, error) {
	s.cmdMu.Lock()
	defer s.cmdMu.Unlock()

	if s.requester == nil {
		return nil, s.sendLinkLocked(s.motor, command)
	}

	ctx, cancel := context.WithTimeout(context.Background(), s.requestTimeout)
	defer cancel()

	resp, err := s.requester.Request(ctx, command)
	if err != nil {
		s.record(command, nil)
		return nil, fmt.Errorf("команда %q не выполнена: %w", command, err)
	}
	s.metrics.CommandSent("server")
	s.record(command, &resp)
	return &resp, nil
}

func (s *Station) sendLink(link *DeviceLink, command string) error {
	s.cmdMu.Lock()
	defer s.cmdMu.Unlock()
	return s.sendLinkLocked(link, command)
}

func (s *Station) sendLinkLocked(link *DeviceLink, command string) error {
	if err := link.Send(command); err != nil {
		return err
	}
	s.record(command, nil)
	return nil
}

func (s *Station) record(command string, response *string) {
	s.sent.Append(models.CommandRecord{
		Timestamp: s.now(),
		Command:   command,
		Response:  response,
	})
}

// --- Движение ---

func (s *Station) MoveX(x float64) error {
	_, err := s.SendCommand("SETPOSX" + formatValue(x))
	return err
}

func (s *Station) MoveY(y float64) error {
	_, err := s.SendCommand("SETPOSY" + formatValue(y))
	return err
}

func (s *Station) MoveZ(z float64) error {
	if _, err := s.SendCommand("SETPOSZ" + formatValue(z)); err != nil {
		return err
	}
	s.stateMu.Lock()
	s.commandedZ = z
	s.stateMu.Unlock()
	return nil
}

// MoveXY двигает по X, затем по Y.
func (s *Station) MoveXY(x, y float64) error {
	if err := s.MoveX(x); err != nil {
		return err
	}
	return s.MoveY(y)
}

func (s *Station) MoveRelX(v float64) error {
	return s.sendLink(s.motor, "RELX"+formatValue(v))
}

func (s *Station) MoveRelY(v float64) error {
	return s.sendLink(s.motor, "RELY"+formatValue(v))
}

func (s *Station) MoveAbs(x, y float64) error {
	return s.sendLink(s.motor, "ABS"+formatValue(x)+formatValue(y))
}

// Home отправляет поиск нуля по X и Y.
func (s *Station) Home() error {
	if err := s.sendLink(s.motor, "FHMX"); err != nil {
		return err
	}
	return s.sendLink(s.motor, "FHMY")
}

// HardwareAutoFocus запускает встроенный автофокус станции.
func (s *Station) HardwareAutoFocus() (*string, error) {
	return s.SendCommand("AUTFOC")
}

// --- Вспомогательный контроллер ---

func (s *Station) VacuumOn() error {
	return s.sendLink(s.perf, "VAC_ON")
}

func (s *Station) VacuumOff() error {
	return s.sendLink(s.perf, "VAC_OFF")
}

func (s *Station) SetLED(level float64) error {
	return s.sendLink(s.perf, "LEV="+formatValue(level))
}

// PrepareStage: подсветка, вакуум, поиск нуля.
func (s *Station) PrepareStage() error {
	if err := s.SetLED(10); err != nil {
		return err
	}
	if err := s.VacuumOn(); err != nil {
		return err
	}
	return s.Home()
}

// --- Позиция ---

// PosX запрашивает X. Без командного сервера ждет следующую строку "X:" не дольше
// PositionWait; если ответ не пришел, возвращается предыдущее известное значение.
func (s *Station) PosX() (float64, error) {
	return s.queryPosition("GETPOSX", "X:", func(st models.StationState, _ float64) float64 { return st.X })
}

// PosY работает как PosX для строки "Y:".
func (s *Station) PosY() (float64, error) {
	return s.queryPosition("GETPOSY", "Y:", func(st models.StationState, _ float64) float64 { return st.Y })
}

// PosZ без командного сервера возвращает последнюю заданную высоту.
func (s *Station) PosZ() (float64, error) {
	return s.queryPosition("GETPOSZ", "", func(_ models.StationState, z float64) float64 { return z })
}

func (s *Station) queryPosition(command, prefix string, cached func(models.StationState, float64) float64) (float64, error) {
	var updated <-chan struct{}
	if s.requester == nil && prefix != "" {
		s.stateMu.RLock()
		updated = s.posUpdated[prefix]
		s.stateMu.RUnlock()
	}

	resp, err := s.SendCommand(command)
	if err != nil {
		return 0, err
	}
	if s.requester != nil {
		return ParseFirstFloat(resp), nil
	}

	if updated != nil {
		timer := time.NewTimer(s.positionWait)
		select {
		case <-updated:
		case <-timer.C:
			s.logger.Debug("No position reply, using last known value", "command", command, "wait", s.positionWait)
		}
		timer.Stop()
	}

	s.stateMu.RLock()
	defer s.stateMu.RUnlock()
	return cached(s.state, s.commandedZ), nil
}

// Position возвращает X, Y, Z.
func (s *Station) Position() (*models.Position, error) {
	x, err := s.PosX()
	if err != nil {
		return nil, err
	}
	y, err := s.PosY()
	if err != nil {
		return nil, err
	}
	z, err := s.PosZ()
	if err != nil {
		return nil, err
	}
	return &models.Position{X: x, Y: y, Z: z}, nil
}

// --- История ---

func (s *Station) SinceLastSend() []models.CommandRecord {
	return s.sent.SinceLast()
}

func (s *Station) SinceLastReceive() []models.ResponseRecord {
	return s.received.SinceLast()
}

func (s *Station) SendHistory() []models.CommandRecord {
	return s.sent.All()
}

func (s *Station) ReceiveHistory() []models.ResponseRecord {
	return s.received.All()
}
