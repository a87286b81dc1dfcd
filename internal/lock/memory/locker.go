// Пакет memory — блокировка по ключу в пределах одного процесса.
package memory

import (
	"context"
	"fmt"
	"sync"

	"github.com/Gunvolt24/mpsync/internal/domain"
	"github.com/Gunvolt24/mpsync/internal/ports"
)

// Проверка, что KeyedMutex удовлетворяет интерфейсу Locker.
var _ ports.Locker = (*KeyedMutex)(nil)

type slot struct {
	ch   chan struct{} // ёмкость 1: занятый слот = захваченная блокировка
	refs int
}

// KeyedMutex — мьютекс на каждый ключ; слот удаляется, когда его никто не ждёт.
type KeyedMutex struct {
	mu    sync.Mutex
	slots map[string]*slot
}

// NewKeyedMutex — конструктор.
func NewKeyedMutex() *KeyedMutex {
	return &KeyedMutex{slots: make(map[string]*slot)}
}

// Lock — ждёт освобождения ключа до отмены контекста.
func (k *KeyedMutex) Lock(ctx context.Context, key string) (ports.Unlock, error) {
	s := k.acquireSlot(key)

	select {
	case s.ch <- struct{}{}:
	case <-ctx.Done():
		k.releaseSlot(key, s)
		return nil, fmt.Errorf("%w: key %q: %v", domain.ErrLockTimeout, key, ctx.Err())
	}

	var once sync.Once
	return func(context.Context) error {
		once.Do(func() {
			<-s.ch
			k.releaseSlot(key, s)
		})
		return nil
	}, nil
}

func (k *KeyedMutex) acquireSlot(key string) *slot {
	k.mu.Lock()
	defer k.mu.Unlock()
	s, ok := k.slots[key]
	if !ok {
		s = &slot{ch: make(chan struct{}, 1)}
		k.slots[key] = s
	}
	s.refs++
	return s
}

func (k *KeyedMutex) releaseSlot(key string, s *slot) {
	k.mu.Lock()
	defer k.mu.Unlock()
	s.refs--
	if s.refs == 0 {
		delete(k.slots, key)
	}
}
