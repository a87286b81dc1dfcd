package ports

import "context"

// Logger — контракт логгера сервисов и транспорта.
// request_id, job_id и trace_id реализация берёт из ctx (см. pkg/ctxmeta).
type Logger interface {
	Infof(ctx context.Context, format string, args ...any)
	Warnf(ctx context.Context, format string, args ...any)
	Errorf(ctx context.Context, format string, args ...any)
}
