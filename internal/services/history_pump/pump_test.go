package history_pump

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iwtcode/transferStation/internal/domain/models"
	"github.com/iwtcode/transferStation/internal/middleware/logging"
)

type fakeSource struct {
	mu        sync.Mutex
	commands  []models.CommandRecord
	responses []models.ResponseRecord
}

func (f *fakeSource) addCommand(cmd string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.commands = append(f.commands, models.CommandRecord{Timestamp: time.Now(), Command: cmd})
}

func (f *fakeSource) addResponse(resp string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.responses = append(f.responses, models.ResponseRecord{Timestamp: time.Now(), Response: resp, Source: models.SourceMotor})
}

func (f *fakeSource) SinceLastSend() []models.CommandRecord {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := f.commands
	f.commands = nil
	return out
}

func (f *fakeSource) SinceLastReceive() []models.ResponseRecord {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := f.responses
	f.responses = nil
	return out
}

type sink struct {
	mu       sync.Mutex
	payloads []string
}

func (s *sink) SendAll(payload []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.payloads = append(s.payloads, string(payload))
}

func (s *sink) SendAllJSON(v interface{}) {
	b, _ := json.Marshal(v)
	s.SendAll(b)
}

func (s *sink) all() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.payloads...)
}

type keyedProducer struct {
	mu   sync.Mutex
	keys []string
	err  error
}

func (k *keyedProducer) Produce(_ context.Context, key, _ []byte) error {
	k.mu.Lock()
	defer k.mu.Unlock()
	k.keys = append(k.keys, string(key))
	return k.err
}

func (k *keyedProducer) Close() error { return nil }

func TestDrainBroadcastsInOrder(t *testing.T) {
	src, out, prod := &fakeSource{}, &sink{}, &keyedProducer{}
	p := NewPump(src, out, prod, logging.NewNop())

	src.addCommand("GETPOSX")
	src.addCommand("VAC_ON")
	src.addResponse("X:12.5")

	assert.Equal(t, 3, p.Drain())
	assert.Equal(t, 0, p.Drain())

	got := out.all()
	require.Len(t, got, 3)

	var first models.CommandPacket
	require.NoError(t, json.Unmarshal([]byte(got[0]), &first))
	assert.Equal(t, models.PacketCommand, first.Type)
	assert.Equal(t, "GETPOSX", first.Command)
	assert.Nil(t, first.Response)

	var resp models.ResponsePacket
	require.NoError(t, json.Unmarshal([]byte(got[2]), &resp))
	assert.Equal(t, models.PacketResponse, resp.Type)
	assert.Equal(t, "X:12.5", resp.Response)
	assert.Equal(t, models.SourceMotor, resp.Source)

	assert.Equal(t, []string{commandsKey, commandsKey, responsesKey}, prod.keys)
}

func TestDrainSurvivesProducerErrors(t *testing.T) {
	src, out := &fakeSource{}, &sink{}
	p := NewPump(src, out, &keyedProducer{err: errors.New("broker down")}, logging.NewNop())

	src.addResponse("TEMP:21")
	assert.Equal(t, 1, p.Drain())
	assert.Len(t, out.all(), 1)
}

func TestStartStop(t *testing.T) {
	src, out := &fakeSource{}, &sink{}
	p := NewPump(src, out, nil, logging.NewNop())

	require.NoError(t, p.Start(5*time.Millisecond))
	assert.Error(t, p.Start(5*time.Millisecond))
	assert.True(t, p.IsRunning())

	src.addCommand("RELX10")
	require.Eventually(t, func() bool { return len(out.all()) == 1 }, time.Second, 5*time.Millisecond)

	src.addCommand("RELY10")
	p.Stop()
	assert.False(t, p.IsRunning())
	// финальный проход при остановке забирает хвост
	assert.Len(t, out.all(), 2)

	p.Stop()
	assert.Error(t, p.Start(0))
}
