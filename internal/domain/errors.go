package domain

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
)

var (
	// ErrInvalidOrder — базовая ошибка валидации входящего заказа.
	ErrInvalidOrder = errors.New("order validation failed")
	// ErrInvalidConfig — некорректная конфигурация маркетплейса.
	ErrInvalidConfig = errors.New("invalid marketplace config")
	// ErrConfigExists — попытка создать вторую конфигурацию.
	ErrConfigExists = errors.New("marketplace config already exists")
	// ErrConfigNotFound — конфигурация ещё не создана.
	ErrConfigNotFound = errors.New("marketplace config not found")
	// ErrNotFound — запись не найдена.
	ErrNotFound = errors.New("not found")
	// ErrDuplicateExternalID — нарушение уникальности external id.
	ErrDuplicateExternalID = errors.New("duplicate external order id")
	// ErrNoLines — ни одна строка заказа не создана.
	ErrNoLines = errors.New("order has no lines")
	// ErrInvalidJob — задача с неизвестным видом или повреждённым телом.
	ErrInvalidJob = errors.New("invalid job")
	// ErrLockTimeout — не удалось захватить блокировку по ключу.
	ErrLockTimeout = errors.New("lock acquire timeout")
)

// APIErrorKind — класс ошибки обращения к API маркетплейса.
type APIErrorKind string

const (
	APIErrHTTP       APIErrorKind = "http"
	APIErrTimeout    APIErrorKind = "timeout"
	APIErrConnection APIErrorKind = "connection"
	APIErrDecode     APIErrorKind = "decode"
	APIErrRequest    APIErrorKind = "request"
	APIErrRejected   APIErrorKind = "rejected"
)

// APIError — неуспешный ответ маркетплейса.
type APIError struct {
	Kind       APIErrorKind
	StatusCode int
	Message    string
	Body       string
	Detail     any
}

func (e *APIError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("API Error %d: %s", e.StatusCode, e.Message)
	}
	return e.Message
}

// Retryable — таймауты, сетевые ошибки, 5xx и 429 повторяются; прочие 4xx нет.
func (e *APIError) Retryable() bool {
	switch e.Kind {
	case APIErrTimeout, APIErrConnection:
		return true
	case APIErrHTTP:
		return e.StatusCode >= http.StatusInternalServerError || e.StatusCode == http.StatusTooManyRequests
	default:
		return false
	}
}

// StateConflictError — недопустимый переход состояния или заблокированная отмена.
type StateConflictError struct {
	OrderID int64
	From    OrderState
	To      OrderState
	Reasons []string
}

func (e *StateConflictError) Error() string {
	msg := fmt.Sprintf("order %d: transition %s -> %s refused", e.OrderID, e.From, e.To)
	if len(e.Reasons) > 0 {
		msg += ": " + strings.Join(e.Reasons, "; ")
	}
	return msg
}

// IsPermanent — ошибка не исчезнет при повторе (валидация, 4xx, конфликт состояний, дубликаты).
func IsPermanent(err error) bool {
	if err == nil {
		return false
	}
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return !apiErr.Retryable()
	}
	var conflict *StateConflictError
	if errors.As(err, &conflict) {
		return true
	}
	return errors.Is(err, ErrInvalidOrder) ||
		errors.Is(err, ErrInvalidJob) ||
		errors.Is(err, ErrDuplicateExternalID) ||
		errors.Is(err, ErrNoLines) ||
		errors.Is(err, ErrInvalidConfig) ||
		errors.Is(err, ErrConfigNotFound) ||
		errors.Is(err, ErrNotFound)
}

// UserMessage — короткое классифицированное сообщение для внешнего пользователя.
// Полные детали остаются в логах и журнале синхронизации.
func UserMessage(err error) string {
	var apiErr *APIError
	var conflict *StateConflictError
	switch {
	case err == nil:
		return ""
	case errors.As(err, &apiErr):
		switch {
		case apiErr.Kind == APIErrTimeout:
			return "marketplace request timed out"
		case apiErr.Kind == APIErrConnection:
			return "cannot reach marketplace"
		case apiErr.StatusCode == http.StatusUnauthorized || apiErr.StatusCode == http.StatusForbidden:
			return "marketplace rejected credentials"
		case apiErr.StatusCode >= http.StatusInternalServerError:
			return "marketplace server error"
		default:
			return "marketplace request failed"
		}
	case errors.As(err, &conflict):
		return fmt.Sprintf("cannot move order from %s to %s", conflict.From, conflict.To)
	case errors.Is(err, ErrInvalidOrder):
		return "invalid order payload"
	case errors.Is(err, ErrConfigNotFound):
		return "marketplace is not configured"
	case errors.Is(err, ErrConfigExists):
		return "marketplace config already exists"
	case errors.Is(err, ErrInvalidConfig):
		return "invalid marketplace config"
	case errors.Is(err, ErrNotFound):
		return "not found"
	case errors.Is(err, ErrDuplicateExternalID):
		return "duplicate marketplace order"
	default:
		return "internal error"
	}
}
