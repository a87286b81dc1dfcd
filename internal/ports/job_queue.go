package ports

import (
	"context"

	"github.com/Gunvolt24/mpsync/internal/domain"
)

// JobQueue — диспетчер асинхронных задач с доставкой at-least-once.
type JobQueue interface {
	Enqueue(ctx context.Context, job domain.Job) error
}

// JobHandler — обработчик задач из очереди.
type JobHandler interface {
	HandleJob(ctx context.Context, job domain.Job) error
	// MaxAttempts — общее число попыток задачи (первая + повторы).
	MaxAttempts(ctx context.Context, job domain.Job) int
	// OnExhausted — задача окончательно провалена после всех попыток.
	OnExhausted(ctx context.Context, job domain.Job, err error)
}
