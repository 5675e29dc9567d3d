package packet_router

import (
	"errors"
	"sync"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iwtcode/transferStation/internal/domain/models"
	"github.com/iwtcode/transferStation/internal/metrics"
	"github.com/iwtcode/transferStation/internal/middleware/logging"
	appErrors "github.com/iwtcode/transferStation/pkg/errors"
)

type recorder struct {
	mu      sync.Mutex
	packets []interface{}
}

func (r *recorder) SendAll([]byte) {}

func (r *recorder) SendAllJSON(v interface{}) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.packets = append(r.packets, v)
}

func (r *recorder) errorPackets() []models.ErrorPacket {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []models.ErrorPacket
	for _, p := range r.packets {
		if e, ok := p.(models.ErrorPacket); ok {
			out = append(out, e)
		}
	}
	return out
}

func newTestRouter(registry Registry) (*Router, *recorder, *metrics.Metrics) {
	rec := &recorder{}
	m := metrics.NewMetrics(prometheus.NewRegistry())
	return NewRouter(registry, rec, logging.NewNop(), m), rec, m
}

func TestHandlePacketDispatchesByType(t *testing.T) {
	var gotType string
	var gotData map[string]interface{}
	router, rec, m := newTestRouter(Registry{
		"PING": func(packetType string, data map[string]interface{}) error {
			gotType, gotData = packetType, data
			return nil
		},
	})

	router.HandlePacket([]byte(`{"type":"PING","camera":1}`))

	assert.Equal(t, "PING", gotType)
	assert.Equal(t, "PING", gotData["type"])
	assert.Equal(t, 1.0, gotData["camera"])
	assert.Empty(t, rec.errorPackets())
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Packets.WithLabelValues("PING", "ok")))
}

func TestHandlePacketValidation(t *testing.T) {
	cases := map[string]string{
		"malformed json":  `{"type":`,
		"missing type":    `{"command":"GETPOSX"}`,
		"non-string type": `{"type":42}`,
		"empty type":      `{"type":""}`,
		"not an object":   `["PING"]`,
		"null":            `null`,
	}
	for name, raw := range cases {
		t.Run(name, func(t *testing.T) {
			called := false
			router, rec, _ := newTestRouter(Registry{
				"PING": func(string, map[string]interface{}) error {
					called = true
					return nil
				},
			})

			router.HandlePacket([]byte(raw))

			errs := rec.errorPackets()
			require.Len(t, errs, 1)
			assert.Equal(t, models.PacketError, errs[0].Type)
			assert.Equal(t, 400, errs[0].Data.Code)
			assert.False(t, called)
		})
	}
}

func TestHandlePacketUnknownTypeOnlyLogs(t *testing.T) {
	router, rec, _ := newTestRouter(Registry{})
	router.HandlePacket([]byte(`{"type":"SOMETHING_NEW"}`))
	assert.Empty(t, rec.packets)
}

func TestHandlerErrorBecomesErrorPacket(t *testing.T) {
	router, rec, m := newTestRouter(Registry{
		"SEND_COMMAND": func(string, map[string]interface{}) error {
			return errors.New("port busy")
		},
		"TS_COMMAND": func(string, map[string]interface{}) error {
			return appErrors.Validation("Parameters must be a JSON array", nil)
		},
	})

	router.HandlePacket([]byte(`{"type":"SEND_COMMAND","command":"GETPOSX"}`))
	router.HandlePacket([]byte(`{"type":"TS_COMMAND","command":"moveX"}`))

	errs := rec.errorPackets()
	require.Len(t, errs, 2)
	assert.Equal(t, models.NewErrorPacket(500, "port busy"), errs[0])
	assert.Equal(t, 400, errs[1].Data.Code)
	assert.Contains(t, errs[1].Data.Message, "Parameters must be a JSON array")
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Packets.WithLabelValues("SEND_COMMAND", "error")))
}

func TestHandlerPanicIsContained(t *testing.T) {
	router, rec, _ := newTestRouter(Registry{
		"AUTO_FOCUS": func(string, map[string]interface{}) error {
			panic("camera unplugged")
		},
		"PING": func(string, map[string]interface{}) error { return nil },
	})

	assert.NotPanics(t, func() { router.HandlePacket([]byte(`{"type":"AUTO_FOCUS","camera":0}`)) })
	router.HandlePacket([]byte(`{"type":"PING"}`))

	errs := rec.errorPackets()
	require.Len(t, errs, 1)
	assert.Equal(t, models.NewErrorPacket(500, "camera unplugged"), errs[0])
}

func TestToErrorPacket(t *testing.T) {
	assert.Equal(t, 404, ToErrorPacket(appErrors.NewAppError(404, "Camera 3 not found", appErrors.ErrCameraNotFound, false)).Data.Code)
	assert.Equal(t, models.NewErrorPacket(500, "boom"), ToErrorPacket(errors.New("boom")))
}
