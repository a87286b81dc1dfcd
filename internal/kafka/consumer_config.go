package kafka

import (
	"strings"
	"time"

	"github.com/segmentio/kafka-go"
)

// ConsumerConfig — параметры чтения топика задач.
type ConsumerConfig struct {
	Brokers     []string
	Topic       string
	GroupID     string
	StartOffset string // first|last (по умолчанию last)

	ProcessTimeout time.Duration // таймаут обработки одной задачи
	RetryInitial   time.Duration // начальная задержка повтора
	RetryMax       time.Duration // верхняя граница задержки
}

// ReaderConfig — конфигурация kafka.Reader с ручным коммитом оффсетов.
func (c *ConsumerConfig) ReaderConfig() kafka.ReaderConfig {
	rc := kafka.ReaderConfig{
		Brokers:        c.Brokers,
		GroupID:        c.GroupID,
		Topic:          c.Topic,
		CommitInterval: 0,
	}

	switch strings.ToLower(strings.TrimSpace(c.StartOffset)) {
	case "first":
		rc.StartOffset = kafka.FirstOffset
	default:
		rc.StartOffset = kafka.LastOffset
	}

	return rc
}

// writerBatchTimeout — ожидание добора пачки; задачи пишутся по одной.
const writerBatchTimeout = 5 * time.Millisecond

// ProducerConfig — параметры записи задач в топик.
type ProducerConfig struct {
	Brokers      []string
	Topic        string
	WriteTimeout time.Duration
}

// Writer — kafka.Writer с партиционированием по ключу (задачи одного заказа в одной партиции).
func (c *ProducerConfig) Writer() *kafka.Writer {
	timeout := c.WriteTimeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &kafka.Writer{
		Addr:                   kafka.TCP(c.Brokers...),
		Topic:                  c.Topic,
		Balancer:               &kafka.Hash{},
		RequiredAcks:           kafka.RequireAll,
		BatchTimeout:           writerBatchTimeout,
		WriteTimeout:           timeout,
		AllowAutoTopicCreation: true,
	}
}
