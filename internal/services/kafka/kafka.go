package kafka

import (
	"context"

	"github.com/iwtcode/transferStation/internal/config"
	"github.com/iwtcode/transferStation/internal/interfaces"
	"github.com/iwtcode/transferStation/internal/middleware/logging"

	"github.com/segmentio/kafka-go"
)

type KafkaProducer struct {
	writer *kafka.Writer
}

// NewKafkaProducer создает продюсера телеметрии станции.
// При KAFKA_ENABLE=false сообщения отбрасываются.
func NewKafkaProducer(cfg *config.AppConfig, logger *logging.Logger) (interfaces.KafkaService, error) {
	if !cfg.KafkaEnable {
		logger.WithPrefix("KAFKA").Info("Kafka disabled, telemetry is not exported")
		return DiscardProducer{}, nil
	}
	writer := &kafka.Writer{
		Addr:                   kafka.TCP(cfg.KafkaBroker),
		Topic:                  cfg.KafkaTopic,
		Balancer:               &kafka.Hash{},
		AllowAutoTopicCreation: true,
	}
	return &KafkaProducer{writer: writer}, nil
}

// Produce отправляет сообщение в Kafka. Ключ задает партицию, поэтому
// сообщения одного запуска или одной истории идут по порядку.
func (p *KafkaProducer) Produce(ctx context.Context, key, value []byte) error {
	return p.writer.WriteMessages(ctx,
		kafka.Message{
			Key:   key,
			Value: value,
		},
	)
}

// Close закрывает соединение с Kafka
func (p *KafkaProducer) Close() error {
	return p.writer.Close()
}

// DiscardProducer - продюсер для работы без Kafka.
type DiscardProducer struct{}

func (DiscardProducer) Produce(context.Context, []byte, []byte) error { return nil }

func (DiscardProducer) Close() error { return nil }
