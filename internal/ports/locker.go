package ports

import "context"

// Unlock — освобождение блокировки.
type Unlock func(ctx context.Context) error

// Locker — блокировка по ключу (сериализация сверки одного external id).
type Locker interface {
	Lock(ctx context.Context, key string) (Unlock, error)
}
