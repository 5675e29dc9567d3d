package history_pump

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/iwtcode/transferStation/internal/domain/models"
	"github.com/iwtcode/transferStation/internal/interfaces"
	"github.com/iwtcode/transferStation/internal/middleware/logging"
)

const (
	commandsKey    = "station-commands"
	responsesKey   = "station-responses"
	produceTimeout = 5 * time.Second
)

// HistorySource - курсоры истории обмена со станцией.
type HistorySource interface {
	SinceLastSend() []models.CommandRecord
	SinceLastReceive() []models.ResponseRecord
}

type activePump struct {
	ticker *time.Ticker
	done   chan struct{}
	exited chan struct{}
}

// Pump - единственный потребитель курсоров истории: забирает новые записи,
// рассылает их UI как COMMAND / RESPONSE и отправляет в Kafka.
type Pump struct {
	source      HistorySource
	broadcaster interfaces.Broadcaster
	producer    interfaces.KafkaService
	logger      *logging.Logger

	mu     sync.Mutex
	active *activePump
	drain  sync.Mutex
}

func NewPump(source HistorySource, broadcaster interfaces.Broadcaster, producer interfaces.KafkaService, logger *logging.Logger) *Pump {
	return &Pump{
		source:      source,
		broadcaster: broadcaster,
		producer:    producer,
		logger:      logger.WithPrefix("PUMP"),
	}
}

func (p *Pump) IsRunning() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.active != nil
}

// Start запускает опрос курсоров с указанным интервалом.
func (p *Pump) Start(interval time.Duration) error {
	if interval <= 0 {
		return fmt.Errorf("интервал опроса истории должен быть положительным, получено %s", interval)
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if p.active != nil {
		return fmt.Errorf("опрос истории уже запущен")
	}

	a := &activePump{
		ticker: time.NewTicker(interval),
		done:   make(chan struct{}),
		exited: make(chan struct{}),
	}
	p.active = a

	go func() {
		p.logger.Info("Starting history pump", "interval", interval)
		defer func() {
			close(a.exited)
			p.logger.Info("History pump stopped")
		}()

		for {
			select {
			case <-a.done:
				// последний проход, чтобы не потерять хвост истории
				p.Drain()
				return
			case <-a.ticker.C:
				p.Drain()
			}
		}
	}()
	return nil
}

// Stop останавливает опрос и дожидается выхода горутины.
func (p *Pump) Stop() {
	p.mu.Lock()
	a := p.active
	p.active = nil
	p.mu.Unlock()

	if a == nil {
		return
	}
	a.ticker.Stop()
	close(a.done)
	<-a.exited
}

// Drain забирает все новые записи истории и рассылает их. Возвращает количество записей.
func (p *Pump) Drain() int {
	p.drain.Lock()
	defer p.drain.Unlock()

	commands := p.source.SinceLastSend()
	for _, rec := range commands {
		p.publish(commandsKey, models.CommandPacket{
			Type:      models.PacketCommand,
			Command:   rec.Command,
			Response:  rec.Response,
			Timestamp: rec.Timestamp,
		})
	}

	responses := p.source.SinceLastReceive()
	for _, rec := range responses {
		p.publish(responsesKey, models.ResponsePacket{
			Type:      models.PacketResponse,
			Response:  rec.Response,
			Source:    rec.Source,
			Timestamp: rec.Timestamp,
		})
	}

	if n := len(commands) + len(responses); n > 0 {
		p.logger.Debug("History drained", "commands", len(commands), "responses", len(responses))
	}
	return len(commands) + len(responses)
}

func (p *Pump) publish(key string, packet interface{}) {
	payload, err := json.Marshal(packet)
	if err != nil {
		p.logger.Error("Failed to serialize history record", "error", err)
		return
	}
	p.broadcaster.SendAll(payload)

	if p.producer == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), produceTimeout)
	defer cancel()
	if err := p.producer.Produce(ctx, []byte(key), payload); err != nil {
		p.logger.Error("Failed to send history record to Kafka", "key", key, "error", err)
	}
}
