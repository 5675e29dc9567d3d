package station_service

import (
	"bytes"
	"fmt"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/iwtcode/transferStation/internal/metrics"
	"github.com/iwtcode/transferStation/internal/middleware/logging"
	appErrors "github.com/iwtcode/transferStation/pkg/errors"
)

const maxLineBytes = 4096

// LinkConfig описывает один последовательный канал.
type LinkConfig struct {
	Name        string // motor / perf
	PortName    string
	BaudRate    int
	ReadTimeout time.Duration
	Simulate    bool
	Opener      PortOpener
}

// DeviceLink владеет одним физическим каналом: синхронная отправка
// и фоновый цикл чтения строк.
type DeviceLink struct {
	cfg      LinkConfig
	callback func(line string)
	logger   *logging.Logger
	metrics  *metrics.Metrics

	mu      sync.Mutex // сериализует запись в порт
	port    Port
	stopCh  chan struct{}
	done    chan struct{}
	started bool
	stopped bool
}

func NewDeviceLink(cfg LinkConfig, callback func(line string), logger *logging.Logger, m *metrics.Metrics) *DeviceLink {
	if cfg.ReadTimeout <= 0 {
		cfg.ReadTimeout = 100 * time.Millisecond
	}
	if cfg.BaudRate <= 0 {
		cfg.BaudRate = 9600
	}
	return &DeviceLink{
		cfg:      cfg,
		callback: callback,
		logger:   logger.WithPrefix("LINK-" + strings.ToUpper(cfg.Name)),
		metrics:  m,
	}
}

// Start открывает канал и запускает цикл чтения. Возвращает управление сразу.
func (l *DeviceLink) Start() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.started {
		return fmt.Errorf("%w: link %s already started", appErrors.ErrDeviceOpen, l.cfg.Name)
	}

	port, err := l.open()
	if err != nil {
		return fmt.Errorf("%w: %s (%s): %v", appErrors.ErrDeviceOpen, l.cfg.Name, l.cfg.PortName, err)
	}
	if err := port.SetReadTimeout(l.cfg.ReadTimeout); err != nil {
		_ = port.Close()
		return fmt.Errorf("%w: %s: set read timeout: %v", appErrors.ErrDeviceOpen, l.cfg.Name, err)
	}

	l.port = port
	l.stopCh = make(chan struct{})
	l.done = make(chan struct{})
	l.started = true

	go l.receiveLoop(port, l.stopCh, l.done)

	l.logger.Info("Device link started", "port", l.cfg.PortName, "simulate", l.cfg.Simulate)
	return nil
}

func (l *DeviceLink) open() (Port, error) {
	if l.cfg.Opener != nil {
		return l.cfg.Opener(l.cfg.PortName, l.cfg.BaudRate)
	}
	if l.cfg.Simulate {
		return NewMockPort(), nil
	}
	return SerialOpener(l.cfg.PortName, l.cfg.BaudRate)
}

// Send пишет команду с CRLF синхронно из вызывающей горутины.
func (l *DeviceLink) Send(command string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if !l.started {
		return appErrors.ErrLinkNotStarted
	}
	if l.stopped {
		return appErrors.ErrLinkClosed
	}

	if _, err := l.port.Write([]byte(command + "\r\n")); err != nil {
		return fmt.Errorf("link %s write %q: %w", l.cfg.Name, command, err)
	}
	l.metrics.CommandSent(l.cfg.Name)
	l.logger.Debug("Command sent", "command", command)
	return nil
}

// Stop останавливает цикл чтения, дожидается его и закрывает канал.
// Повторный вызов возвращает ErrLinkClosed.
func (l *DeviceLink) Stop() error {
	l.mu.Lock()
	if !l.started {
		l.mu.Unlock()
		return appErrors.ErrLinkNotStarted
	}
	if l.stopped {
		l.mu.Unlock()
		return appErrors.ErrLinkClosed
	}
	l.stopped = true
	close(l.stopCh)
	done := l.done
	port := l.port
	l.mu.Unlock()

	<-done

	if err := port.Close(); err != nil {
		return fmt.Errorf("link %s close: %w", l.cfg.Name, err)
	}
	l.logger.Info("Device link stopped")
	return nil
}

// Name возвращает имя канала.
func (l *DeviceLink) Name() string {
	return l.cfg.Name
}

func (l *DeviceLink) receiveLoop(port Port, stopCh <-chan struct{}, done chan<- struct{}) {
	defer close(done)

	buf := make([]byte, 256)
	var acc []byte

	for {
		select {
		case <-stopCh:
			return
		default:
		}

		n, err := port.Read(buf)
		if err != nil {
			select {
			case <-stopCh:
				return
			default:
			}
			l.metrics.ReadError(l.cfg.Name)
			l.logger.Warn("Serial read failed, skipping tick", "error", fmt.Errorf("%w: %v", appErrors.ErrTransientRead, err))
			acc = acc[:0]
			time.Sleep(l.cfg.ReadTimeout)
			continue
		}
		if n == 0 {
			continue
		}

		acc = append(acc, buf[:n]...)
		for {
			idx := bytes.IndexByte(acc, '\n')
			if idx < 0 {
				break
			}
			raw := acc[:idx]
			acc = acc[idx+1:]
			l.deliver(raw)
		}

		if len(acc) > maxLineBytes {
			l.logger.Warn("Dropping unterminated input", "bytes", len(acc))
			acc = acc[:0]
		}
	}
}

func (l *DeviceLink) deliver(raw []byte) {
	if !utf8.Valid(raw) {
		l.logger.Debug("Skipping malformed line", "bytes", len(raw))
		return
	}
	line := strings.TrimRight(string(raw), "\r\n")
	if strings.TrimSpace(line) == "" {
		return
	}
	l.metrics.LineReceived(l.cfg.Name)
	if l.callback != nil {
		l.callback(line)
	}
}
