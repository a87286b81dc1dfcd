// Пакет redis — распределённая блокировка по ключу на SET NX PX.
package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	goredis "github.com/redis/go-redis/v9"

	"github.com/Gunvolt24/mpsync/internal/domain"
	"github.com/Gunvolt24/mpsync/internal/ports"
)

// Проверка, что Locker удовлетворяет интерфейсу Locker.
var _ ports.Locker = (*Locker)(nil)

const (
	defaultTTL   = 60 * time.Second
	defaultWait  = 10 * time.Second
	pollInterval = 50 * time.Millisecond
	keyPrefix    = "mpsync:lock:"
)

// releaseScript — удаляет ключ, только если он всё ещё принадлежит владельцу токена.
var releaseScript = goredis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// Locker — блокировка на Redis. TTL страхует от зависших владельцев,
// wait ограничивает ожидание, если в контексте нет дедлайна.
type Locker struct {
	client goredis.UniversalClient
	ttl    time.Duration
	wait   time.Duration
}

// TTLFor — TTL блокировки не короче двух таймаутов обработки задачи.
func TTLFor(ttl, processTimeout time.Duration) time.Duration {
	if ttl <= 0 {
		ttl = defaultTTL
	}
	if floor := 2 * processTimeout; ttl < floor {
		return floor
	}
	return ttl
}

// NewLocker — ttl/wait <= 0 заменяются значениями по умолчанию.
func NewLocker(client goredis.UniversalClient, ttl, wait time.Duration) *Locker {
	if ttl <= 0 {
		ttl = defaultTTL
	}
	if wait <= 0 {
		wait = defaultWait
	}
	return &Locker{client: client, ttl: ttl, wait: wait}
}

// Lock — опрашивает SET NX до успеха, дедлайна контекста или истечения wait.
func (l *Locker) Lock(ctx context.Context, key string) (ports.Unlock, error) {
	redisKey := keyPrefix + key
	token := uuid.NewString()

	waitCtx, cancel := context.WithTimeout(ctx, l.wait)
	defer cancel()

	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()

	for {
		ok, err := l.client.SetNX(waitCtx, redisKey, token, l.ttl).Result()
		switch {
		case err == nil && ok:
			return l.unlockFunc(redisKey, token), nil
		case err != nil && !errors.Is(err, context.DeadlineExceeded) && !errors.Is(err, context.Canceled):
			return nil, fmt.Errorf("redis lock %q: %w", key, err)
		}

		select {
		case <-waitCtx.Done():
			return nil, fmt.Errorf("%w: key %q", domain.ErrLockTimeout, key)
		case <-ticker.C:
		}
	}
}

func (l *Locker) unlockFunc(redisKey, token string) ports.Unlock {
	return func(ctx context.Context) error {
		// снимаем блокировку даже при отменённом контексте вызывающего
		ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
		defer cancel()
		if err := releaseScript.Run(ctx, l.client, []string{redisKey}, token).Err(); err != nil {
			return fmt.Errorf("redis unlock %q: %w", redisKey, err)
		}
		return nil
	}
}

// NewClient — клиент go-redis с проверкой соединения.
func NewClient(ctx context.Context, addr, password string, db int) (*goredis.Client, error) {
	client := goredis.NewClient(&goredis.Options{Addr: addr, Password: password, DB: db})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis ping %s: %w", addr, err)
	}
	return client, nil
}
