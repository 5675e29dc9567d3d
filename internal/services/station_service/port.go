package station_service

import (
	"io"
	"sync"
	"time"

	"go.bug.st/serial"
)

// Port - физический канал, с которым работает DeviceLink.
// serial.Port удовлетворяет этому интерфейсу.
type Port interface {
	io.ReadWriteCloser
	SetReadTimeout(t time.Duration) error
}

// PortOpener открывает порт по имени.
type PortOpener func(name string, baudRate int) (Port, error)

// Убедимся, что serial.Port удовлетворяет интерфейсу Port.
var _ Port = (serial.Port)(nil)

// SerialOpener открывает настоящий последовательный порт.
func SerialOpener(name string, baudRate int) (Port, error) {
	p, err := serial.Open(name, &serial.Mode{BaudRate: baudRate})
	if err != nil {
		return nil, err
	}
	return p, nil
}

// MockPort - детерминированный канал для режима симуляции:
// записи принимаются молча, чтение ничего не возвращает, пока строки не добавлены через Inject.
type MockPort struct {
	mu       sync.Mutex
	written  []string
	pending  []byte
	incoming chan []byte
	closed   chan struct{}
	once     sync.Once
	timeout  time.Duration
}

var _ Port = (*MockPort)(nil)

func NewMockPort() *MockPort {
	return &MockPort{
		incoming: make(chan []byte, 64),
		closed:   make(chan struct{}),
		timeout:  10 * time.Millisecond,
	}
}

// MockOpener возвращает PortOpener, который всегда отдает указанный порт.
func MockOpener(p *MockPort) PortOpener {
	return func(string, int) (Port, error) { return p, nil }
}

func (m *MockPort) SetReadTimeout(t time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.timeout = t
	return nil
}

func (m *MockPort) Write(p []byte) (int, error) {
	select {
	case <-m.closed:
		return 0, io.ErrClosedPipe
	default:
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.written = append(m.written, string(p))
	return len(p), nil
}

func (m *MockPort) Read(p []byte) (int, error) {
	m.mu.Lock()
	if len(m.pending) > 0 {
		n := copy(p, m.pending)
		m.pending = m.pending[n:]
		m.mu.Unlock()
		return n, nil
	}
	timeout := m.timeout
	m.mu.Unlock()

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case <-m.closed:
		return 0, io.EOF
	case <-timer.C:
		return 0, nil
	case b := <-m.incoming:
		n := copy(p, b)
		if n < len(b) {
			m.mu.Lock()
			m.pending = append(m.pending, b[n:]...)
			m.mu.Unlock()
		}
		return n, nil
	}
}

func (m *MockPort) Close() error {
	m.once.Do(func() { close(m.closed) })
	return nil
}

// Inject имитирует строку, пришедшую от устройства.
func (m *MockPort) Inject(raw string) {
	m.incoming <- []byte(raw)
}

// Written возвращает копию всех записанных данных.
func (m *MockPort) Written() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, len(m.written))
	copy(out, m.written)
	return out
}
