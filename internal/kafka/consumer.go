package kafka

import (
	"context"
	"sync"
	"time"

	"github.com/Gunvolt24/mpsync/internal/ports"
	"github.com/Gunvolt24/mpsync/internal/queue"
	"github.com/Gunvolt24/mpsync/pkg/metrics"
	"github.com/segmentio/kafka-go"
)

// Проверка, что Consumer удовлетворяет интерфейсу верхнего уровня (порт приложения).
var _ ports.MessageConsumer = (*Consumer)(nil)

// reader — минимальный контракт над источником (kafka.Reader),
// чтобы легко подменять его моками в тестах.
type reader interface {
	FetchMessage(ctx context.Context) (kafka.Message, error)
	CommitMessages(ctx context.Context, msgs ...kafka.Message) error
	Config() kafka.ReaderConfig
	Close() error
}

// Consumer — обёртка над kafka.Reader: задачи из топика уходят в JobHandler,
// повторы ставятся обратно в очередь с Attempt+1.
type Consumer struct {
	reader         reader
	handler        ports.JobHandler
	requeue        ports.JobQueue
	log            ports.Logger
	processTimeout time.Duration
	backoff        *queue.Backoff // и для повторов задач, и для ошибок брокера
	now            func() time.Time
	closeOnce      sync.Once
}

// NewConsumer — конструктор. ReaderConfig() настроен на ручной коммит оффсетов.
func NewConsumer(cfg *ConsumerConfig, handler ports.JobHandler, requeue ports.JobQueue, log ports.Logger) *Consumer {
	reader := kafka.NewReader(cfg.ReaderConfig())

	// Параметры по умолчанию (если не заданы в конфиге)
	pt := cfg.ProcessTimeout
	if pt <= 0 {
		pt = 30 * time.Second
	}

	return &Consumer{
		reader:         reader,
		handler:        handler,
		requeue:        requeue,
		log:            log,
		processTimeout: pt,
		backoff:        queue.NewBackoff(cfg.RetryInitial, cfg.RetryMax),
		now:            time.Now,
	}
}

// Run — основной цикл:
// 1) читаем сообщение без авто-коммита;
// 2) задача обработана, отброшена или исчерпала попытки → CommitMessages;
// 3) временная ошибка → повторная постановка с Attempt+1 и только затем коммит;
// 4) не удалось поставить повтор → без коммита (at-least-once).
func (c *Consumer) Run(ctx context.Context) error {
	rc := c.reader.Config()
	c.log.Infof(ctx, "kafka consumer started topic=%s group_id=%s brokers=%v", rc.Topic, rc.GroupID, rc.Brokers)

	// подряд идущие ошибки FetchMessage — номер попытки для backoff
	failures := 0

	for {
		msg, fetchErr := c.reader.FetchMessage(ctx)
		if fetchErr != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			// Временная ошибка брокера/сети. Ожидаем и повторяем
			sleep := c.backoff.Delay(failures)
			c.log.Warnf(ctx, "fetch failed: %v (will retry in %s)", fetchErr, sleep)
			if !c.sleepWithBackoff(ctx, sleep) {
				return ctx.Err()
			}
			failures++
			continue
		}

		failures = 0
		metrics.KafkaMessagesConsumed.WithLabelValues(rc.Topic).Inc()

		if shouldCommit := c.handleMessage(ctx, rc.Topic, &msg); shouldCommit {
			c.commitSafely(ctx, &msg)
		} else if ctx.Err() != nil {
			return ctx.Err()
		}
	}
}

// Close - закрывает reader. Вызывается при остановке приложения.
func (c *Consumer) Close() (retErr error) {
	c.closeOnce.Do(func() {
		retErr = c.reader.Close()
	})
	return retErr
}
