package station

import (
	"context"
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingConn struct {
	mu      sync.Mutex
	packets []map[string]interface{}
}

func (c *recordingConn) WriteMessage(_ int, data []byte) error {
	var packet map[string]interface{}
	if err := json.Unmarshal(data, &packet); err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.packets = append(c.packets, packet)
	return nil
}

func (c *recordingConn) SetWriteDeadline(time.Time) error { return nil }
func (c *recordingConn) Close() error                     { return nil }

func (c *recordingConn) find(packetType string) map[string]interface{} {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, p := range c.packets {
		if p["type"] == packetType {
			return p
		}
	}
	return nil
}

func ptr[T any](v T) *T { return &v }

func setupTest(t *testing.T) (*Client, *recordingConn) {
	t.Helper()
	c, err := New(&Config{
		MotorPort:    "SIM-MOTOR",
		PerfPort:     "SIM-PERF",
		Simulate:     true,
		ImageRepoDir: t.TempDir(),
		PausePoll:    10 * time.Millisecond,
		LogLevel:     "off",
		Sleep:        func(time.Duration) {},
	})
	require.NoError(t, err, "Не удалось собрать станцию")
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		assert.NoError(t, c.Close(ctx))
	})

	conn := &recordingConn{}
	c.Subscribe(conn)
	return c, conn
}

func scanRequest() ScanRequest {
	return ScanRequest{
		BottomX:         ptr(0.0),
		BottomY:         ptr(0.0),
		TopX:            ptr(0.4),
		TopY:            ptr(-0.15),
		InitialFocus:    ptr(false),
		InitialWaitTime: ptr(0.0),
	}
}

func TestLoadDefaults(t *testing.T) {
	t.Setenv("MOTOR_PORT", "")
	t.Setenv("SERIAL_BAUD", "oops")
	t.Setenv("SIM_TEST", "true")

	cfg := Load()
	assert.Equal(t, "COM3", cfg.MotorPort)
	assert.Equal(t, 9600, cfg.BaudRate)
	assert.True(t, cfg.Simulate)
	assert.Equal(t, "images", cfg.ImageRepoDir)
}

func TestPingOverPacketRouter(t *testing.T) {
	c, conn := setupTest(t)

	c.HandlePacket([]byte(`{"type":"PING"}`))
	assert.NotNil(t, conn.find("ACK"))

	c.HandlePacket([]byte(`{"command":"PING"}`))
	errPacket := conn.find("ERROR")
	require.NotNil(t, errPacket)
	assert.Equal(t, 400.0, errPacket["data"].(map[string]interface{})["code"])
}

func TestCompileScript(t *testing.T) {
	script, err := CompileScript(scanRequest())
	require.NoError(t, err)
	assert.Len(t, script.Points, 6)

	_, err = CompileScript(ScanRequest{})
	assert.Error(t, err)
}

func TestRunScriptWaitsForResult(t *testing.T) {
	c, _ := setupTest(t)

	script, err := CompileScript(scanRequest())
	require.NoError(t, err)

	result := c.RunScript(script).Wait()
	require.NoError(t, result.Err)
	assert.Equal(t, "completed", result.Status)
	assert.Equal(t, len(script.Steps), result.StepsRun)
}

func TestStartStationAndRouter(t *testing.T) {
	st, err := StartStation("SIM-MOTOR", "SIM-PERF", true)
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Stop() })

	x, err := st.PosX()
	require.NoError(t, err)
	assert.Equal(t, 0.0, x)

	var got string
	router := StartRouter(Registry{"PING": func(packetType string, _ map[string]interface{}) error {
		got = packetType
		return nil
	}}, nil)
	router.HandlePacket([]byte(`{"type":"PING"}`))
	assert.Equal(t, "PING", got)
}

func TestStartScanCompletes(t *testing.T) {
	c, conn := setupTest(t)

	info, err := c.StartScan(scanRequest())
	require.NoError(t, err)
	require.NotEmpty(t, info.RunID)

	require.Eventually(t, func() bool { return conn.find("TRACE_OVER_RESULT") != nil }, 5*time.Second, 10*time.Millisecond)
	result := conn.find("TRACE_OVER_RESULT")
	assert.Equal(t, info.RunID, result["run_id"])
	assert.Equal(t, true, result["success"])
	assert.Equal(t, 6.0, result["points"])
}

func TestCancelUnknownScript(t *testing.T) {
	c, _ := setupTest(t)

	_, err := c.CancelScript("missing")
	assert.Error(t, err)

	cancelled, err := c.CancelScript("")
	require.NoError(t, err)
	assert.Empty(t, cancelled)
}
