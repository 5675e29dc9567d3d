package station_service

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/iwtcode/transferStation/internal/middleware/logging"
	appErrors "github.com/iwtcode/transferStation/pkg/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type lineSink struct {
	mu    sync.Mutex
	lines []string
}

func (s *lineSink) add(line string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lines = append(s.lines, line)
}

func (s *lineSink) get() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.lines...)
}

func newTestLink(t *testing.T, port *MockPort, sink *lineSink) *DeviceLink {
	t.Helper()
	link := NewDeviceLink(LinkConfig{
		Name:        "motor",
		PortName:    "SIM",
		ReadTimeout: 5 * time.Millisecond,
		Opener:      MockOpener(port),
	}, sink.add, logging.NewNop(), nil)
	require.NoError(t, link.Start())
	return link
}

func TestDeviceLinkSendAppendsCRLF(t *testing.T) {
	port := NewMockPort()
	link := newTestLink(t, port, &lineSink{})
	defer link.Stop()

	require.NoError(t, link.Send("RELX10"))
	require.NoError(t, link.Send("VAC_ON"))

	assert.Equal(t, []string{"RELX10\r\n", "VAC_ON\r\n"}, port.Written())
}

func TestDeviceLinkDeliversLinesInOrder(t *testing.T) {
	port := NewMockPort()
	sink := &lineSink{}
	link := newTestLink(t, port, sink)
	defer link.Stop()

	port.Inject("X:1.5\r\nY:")
	port.Inject("2.5\r\n\r\n")
	port.Inject("DONE\n")

	require.Eventually(t, func() bool { return len(sink.get()) == 3 }, time.Second, 5*time.Millisecond)
	assert.Equal(t, []string{"X:1.5", "Y:2.5", "DONE"}, sink.get())
}

func TestDeviceLinkSkipsMalformedLines(t *testing.T) {
	port := NewMockPort()
	sink := &lineSink{}
	link := newTestLink(t, port, sink)
	defer link.Stop()

	port.Inject("\xff\xfe\r\n")
	port.Inject("TEMP:20\r\n")

	require.Eventually(t, func() bool { return len(sink.get()) == 1 }, time.Second, 5*time.Millisecond)
	assert.Equal(t, []string{"TEMP:20"}, sink.get())
}

func TestDeviceLinkOpenFailure(t *testing.T) {
	link := NewDeviceLink(LinkConfig{
		Name: "perf",
		Opener: func(string, int) (Port, error) {
			return nil, errors.New("port busy")
		},
	}, nil, logging.NewNop(), nil)

	err := link.Start()
	require.Error(t, err)
	assert.ErrorIs(t, err, appErrors.ErrDeviceOpen)
	assert.ErrorIs(t, link.Send("VAC_ON"), appErrors.ErrLinkNotStarted)
}

func TestDeviceLinkStopTwice(t *testing.T) {
	port := NewMockPort()
	link := newTestLink(t, port, &lineSink{})

	require.NoError(t, link.Stop())
	assert.ErrorIs(t, link.Stop(), appErrors.ErrLinkClosed)
	assert.ErrorIs(t, link.Send("RELX1"), appErrors.ErrLinkClosed)
}
