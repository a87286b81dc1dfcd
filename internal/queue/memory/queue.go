// Пакет memory — очередь задач в памяти процесса (буферизованный канал + воркеры).
// Задачи не переживают рестарт; используется без Kafka и в тестах.
package memory

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/Gunvolt24/mpsync/internal/domain"
	"github.com/Gunvolt24/mpsync/internal/ports"
	"github.com/Gunvolt24/mpsync/internal/queue"
	"github.com/Gunvolt24/mpsync/pkg/ctxmeta"
	"github.com/Gunvolt24/mpsync/pkg/metrics"
)

// ErrQueueClosed — постановка в закрытую очередь.
var ErrQueueClosed = errors.New("job queue closed")

var (
	_ ports.JobQueue        = (*Queue)(nil)
	_ ports.MessageConsumer = (*Consumer)(nil)
)

// Queue — буфер задач. Enqueue блокируется, пока буфер полон.
type Queue struct {
	jobs      chan domain.Job
	done      chan struct{}
	closeOnce sync.Once
}

// NewQueue — buffer <= 0 заменяется на 1024.
func NewQueue(buffer int) *Queue {
	if buffer <= 0 {
		buffer = 1024
	}
	return &Queue{jobs: make(chan domain.Job, buffer), done: make(chan struct{})}
}

// Enqueue — постановка задачи; ждёт места в буфере до отмены контекста.
func (q *Queue) Enqueue(ctx context.Context, job domain.Job) error {
	select {
	case <-q.done:
		return ErrQueueClosed
	default:
	}

	select {
	case q.jobs <- job:
		metrics.JobsEnqueued.WithLabelValues(string(job.Kind), job.Channel).Inc()
		return nil
	case <-q.done:
		return ErrQueueClosed
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Len — число задач в буфере.
func (q *Queue) Len() int { return len(q.jobs) }

// Close — новые задачи не принимаются, воркеры завершаются.
func (q *Queue) Close() error {
	q.closeOnce.Do(func() { close(q.done) })
	return nil
}

// ConsumerConfig — параметры воркеров.
type ConsumerConfig struct {
	Workers        int
	ProcessTimeout time.Duration
	RetryInitial   time.Duration
	RetryMax       time.Duration
}

// Consumer — пул воркеров над Queue с той же политикой повторов, что и у Kafka-консьюмера.
type Consumer struct {
	queue          *Queue
	handler        ports.JobHandler
	log            ports.Logger
	workers        int
	processTimeout time.Duration
	backoff        *queue.Backoff
	now            func() time.Time

	pending sync.WaitGroup // отложенные повторы
}

// NewConsumer — workers <= 0 заменяется на 4, processTimeout <= 0 на 30s.
func NewConsumer(q *Queue, cfg ConsumerConfig, handler ports.JobHandler, log ports.Logger) *Consumer {
	workers := cfg.Workers
	if workers <= 0 {
		workers = 4
	}
	pt := cfg.ProcessTimeout
	if pt <= 0 {
		pt = 30 * time.Second
	}
	return &Consumer{
		queue:          q,
		handler:        handler,
		log:            log,
		workers:        workers,
		processTimeout: pt,
		backoff:        queue.NewBackoff(cfg.RetryInitial, cfg.RetryMax),
		now:            time.Now,
	}
}

// Run — запускает воркеры и ждёт их завершения (отмена контекста или закрытие очереди).
func (c *Consumer) Run(ctx context.Context) error {
	c.log.Infof(ctx, "memory job queue started workers=%d buffer=%d", c.workers, cap(c.queue.jobs))

	var wg sync.WaitGroup
	for i := 0; i < c.workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			c.work(ctx)
		}()
	}
	wg.Wait()
	c.pending.Wait()
	return ctx.Err()
}

// Close — закрывает очередь.
func (c *Consumer) Close() error {
	return c.queue.Close()
}

func (c *Consumer) work(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-c.queue.done:
			return
		case job := <-c.queue.jobs:
			c.handle(ctx, job)
		}
	}
}

func (c *Consumer) handle(ctx context.Context, job domain.Job) {
	ctx = ctxmeta.WithJobID(ctx, job.ID)
	kind := string(job.Kind)

	ctxTimeout, cancel := context.WithTimeout(ctx, c.processTimeout)
	err := c.handler.HandleJob(ctxTimeout, job)
	cancel()

	switch queue.Decide(err, job, c.handler.MaxAttempts(ctx, job)) {
	case queue.Done:
	case queue.Drop:
		metrics.JobsDropped.WithLabelValues(kind).Inc()
		c.log.Warnf(ctx, "job %s kind=%s dropped: %v", job.ID, kind, err)
	case queue.Exhausted:
		metrics.JobsExhausted.WithLabelValues(kind).Inc()
		c.log.Errorf(ctx, "job %s kind=%s exhausted after %d attempts: %v", job.ID, kind, job.Attempt+1, err)
		c.handler.OnExhausted(ctx, job, err)
	default:
		c.log.Warnf(ctx, "job %s kind=%s attempt=%d failed: %v (will retry)", job.ID, kind, job.Attempt, err)
		c.retryLater(ctx, job)
	}
}

// retryLater — повтор ставится из отдельной горутины, чтобы воркер не ждал backoff
// и не блокировался на полном буфере.
func (c *Consumer) retryLater(ctx context.Context, job domain.Job) {
	delay := c.backoff.Delay(job.Attempt)
	c.pending.Add(1)
	go func() {
		defer c.pending.Done()
		t := time.NewTimer(delay)
		defer t.Stop()
		select {
		case <-ctx.Done():
			return
		case <-c.queue.done:
			return
		case <-t.C:
		}
		if err := c.queue.Enqueue(ctx, queue.NextAttempt(job, c.now())); err != nil {
			c.log.Errorf(ctx, "requeue job %s failed: %v", job.ID, err)
			return
		}
		metrics.JobsRetried.WithLabelValues(string(job.Kind)).Inc()
	}()
}
