package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/Gunvolt24/mpsync/internal/domain"
	"github.com/Gunvolt24/mpsync/internal/queue"
	"github.com/Gunvolt24/mpsync/pkg/ctxmeta"
	"github.com/Gunvolt24/mpsync/pkg/metrics"
	"github.com/segmentio/kafka-go"
)

// handleMessage обрабатывает одну задачу и определяет, нужно ли коммитить оффсет.
func (c *Consumer) handleMessage(ctx context.Context, topic string, msg *kafka.Message) bool {
	job, err := decodeJob(msg.Value)
	if err != nil {
		// Нечитаемая задача: повтор не поможет, пропускаем навсегда
		metrics.KafkaMessagesFailed.WithLabelValues(topic).Inc()
		metrics.JobsDropped.WithLabelValues("unknown").Inc()
		c.log.Warnf(ctx, "invalid job offset=%d: %v (skipped)", msg.Offset, err)
		return true
	}
	ctx = ctxmeta.WithJobID(ctx, job.ID)
	kind := string(job.Kind)

	ctxTimeout, cancel := context.WithTimeout(ctx, c.processTimeout)
	err = c.handler.HandleJob(ctxTimeout, job)
	cancel()

	switch queue.Decide(err, job, c.handler.MaxAttempts(ctx, job)) {
	case queue.Done:
		metrics.KafkaMessagesProcessed.WithLabelValues(topic).Inc()
		return true
	case queue.Drop:
		metrics.KafkaMessagesFailed.WithLabelValues(topic).Inc()
		metrics.JobsDropped.WithLabelValues(kind).Inc()
		c.log.Warnf(ctx, "job %s kind=%s dropped: %v", job.ID, kind, err)
		return true
	case queue.Exhausted:
		metrics.KafkaMessagesFailed.WithLabelValues(topic).Inc()
		metrics.JobsExhausted.WithLabelValues(kind).Inc()
		c.log.Errorf(ctx, "job %s kind=%s exhausted after %d attempts: %v", job.ID, kind, job.Attempt+1, err)
		c.handler.OnExhausted(ctx, job, err)
		return true
	default:
		metrics.KafkaMessagesFailed.WithLabelValues(topic).Inc()
		c.log.Warnf(ctx, "job %s kind=%s attempt=%d failed: %v (will retry)", job.ID, kind, job.Attempt, err)
		return c.retryLater(ctx, job)
	}
}

// retryLater — пауза по backoff и постановка следующей попытки.
// Коммит исходного сообщения только после успешной постановки.
func (c *Consumer) retryLater(ctx context.Context, job domain.Job) bool {
	if !c.sleepWithBackoff(ctx, c.backoff.Delay(job.Attempt)) {
		return false
	}
	next := queue.NextAttempt(job, c.now())
	for failures := 0; ; failures++ {
		err := c.requeue.Enqueue(ctx, next)
		if err == nil {
			metrics.JobsRetried.WithLabelValues(string(job.Kind)).Inc()
			return true
		}
		wait := c.backoff.Delay(failures)
		c.log.Warnf(ctx, "requeue job %s failed: %v (will retry in %s)", job.ID, err, wait)
		if !c.sleepWithBackoff(ctx, wait) {
			return false
		}
	}
}

// commitSafely пытается закоммитить оффсет и залогировать ошибку.
func (c *Consumer) commitSafely(ctx context.Context, msg *kafka.Message) {
	if commitErr := c.reader.CommitMessages(ctx, *msg); commitErr != nil {
		c.log.Warnf(ctx, "commit failed offset=%d: %v", msg.Offset, commitErr)
	}
}

// sleepWithBackoff ждет backoff или останавливается по контексту.
func (c *Consumer) sleepWithBackoff(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}

func decodeJob(raw []byte) (domain.Job, error) {
	var job domain.Job
	if err := json.Unmarshal(raw, &job); err != nil {
		return job, fmt.Errorf("%w: %v", domain.ErrInvalidJob, err)
	}
	return job, job.Validate()
}
