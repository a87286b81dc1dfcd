package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/segmentio/kafka-go"

	"github.com/Gunvolt24/mpsync/internal/domain"
	"github.com/Gunvolt24/mpsync/internal/ports"
	"github.com/Gunvolt24/mpsync/pkg/metrics"
)

// Проверка, что Producer удовлетворяет интерфейсу JobQueue.
var _ ports.JobQueue = (*Producer)(nil)

// writer — минимальный контракт над kafka.Writer (подменяется в тестах).
type writer interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Producer — постановка задач в топик. Ключ сообщения — job.Key (или id задачи),
// поэтому задачи одного заказа читаются по порядку.
type Producer struct {
	writer    writer
	topic     string
	log       ports.Logger
	closeOnce sync.Once
}

// NewProducer — конструктор.
func NewProducer(cfg *ProducerConfig, log ports.Logger) *Producer {
	return &Producer{writer: cfg.Writer(), topic: cfg.Topic, log: log}
}

// Enqueue — запись задачи; ошибка брокера возвращается вызывающему.
func (p *Producer) Enqueue(ctx context.Context, job domain.Job) error {
	raw, err := json.Marshal(job)
	if err != nil {
		return fmt.Errorf("marshal job %s: %w", job.ID, err)
	}

	key := job.Key
	if key == "" {
		key = job.ID
	}
	msg := kafka.Message{
		Key:   []byte(key),
		Value: raw,
		Headers: []kafka.Header{
			{Key: "kind", Value: []byte(job.Kind)},
			{Key: "channel", Value: []byte(job.Channel)},
		},
	}
	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("write job %s to %s: %w", job.ID, p.topic, err)
	}
	metrics.JobsEnqueued.WithLabelValues(string(job.Kind), job.Channel).Inc()
	return nil
}

// Close — сбрасывает буфер и закрывает writer.
func (p *Producer) Close() (retErr error) {
	p.closeOnce.Do(func() {
		retErr = p.writer.Close()
	})
	return retErr
}
