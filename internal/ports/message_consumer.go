package ports

import "context"

// MessageConsumer — обработчики очереди задач (Kafka-группа или воркеры в памяти).
// Run блокируется до отмены ctx или Close; Close можно вызывать повторно.
type MessageConsumer interface {
	Run(ctx context.Context) error
	Close() error
}
