// Пакет queue — общая политика повторов для потребителей задач.
package queue

import (
	"math/rand"
	"sync"
	"time"

	"github.com/Gunvolt24/mpsync/internal/domain"
)

// Outcome — что делать с задачей после обработки.
type Outcome int

const (
	Done      Outcome = iota // успешно
	Drop                     // постоянная ошибка: не повторять
	Retry                    // временная ошибка: повторить с Attempt+1
	Exhausted                // попытки исчерпаны
)

func (o Outcome) String() string {
	switch o {
	case Done:
		return "done"
	case Drop:
		return "drop"
	case Retry:
		return "retry"
	default:
		return "exhausted"
	}
}

// Decide — классификация ошибки обработчика с учётом номера попытки.
func Decide(err error, job domain.Job, maxAttempts int) Outcome {
	switch {
	case err == nil:
		return Done
	case domain.IsPermanent(err):
		return Drop
	case job.Attempt+1 >= maxAttempts:
		return Exhausted
	default:
		return Retry
	}
}

// Backoff — экспоненциальная задержка с equal-jitter: initial·2^attempt, не больше max.
type Backoff struct {
	Initial time.Duration
	Max     time.Duration

	mu   sync.Mutex
	rand *rand.Rand
}

// NewBackoff — initial/max <= 0 заменяются на 1s/30s.
func NewBackoff(initial, max time.Duration) *Backoff {
	if initial <= 0 {
		initial = time.Second
	}
	if max <= 0 {
		max = 30 * time.Second
	}
	return &Backoff{Initial: initial, Max: max, rand: rand.New(rand.NewSource(time.Now().UnixNano()))}
}

// Delay — задержка перед попыткой attempt+1.
func (b *Backoff) Delay(attempt int) time.Duration {
	d := b.Initial
	for i := 0; i < attempt && d < b.Max; i++ {
		d *= 2
	}
	if d > b.Max {
		d = b.Max
	}
	return b.jitterEqual(d)
}

// jitterEqual — половина задержки фиксирована, вторая половина случайная.
func (b *Backoff) jitterEqual(d time.Duration) time.Duration {
	if d <= 0 {
		return 0
	}
	half := d / 2
	b.mu.Lock()
	jitter := time.Duration(b.rand.Int63n(int64(d-half) + 1))
	b.mu.Unlock()
	return half + jitter
}

// NextAttempt — копия задачи для повторной постановки.
func NextAttempt(job domain.Job, now time.Time) domain.Job {
	job.Attempt++
	job.EnqueuedAt = now.UTC()
	return job
}
