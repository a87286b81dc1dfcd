package httpx

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/gin-gonic/gin"
)

// ErrNotPositive — параметр запроса не является положительным целым.
var ErrNotPositive = errors.New("must be a positive integer")

// ClampInt — ограничение значения v в диапазоне [lo, hi].
func ClampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// ParseLimitOffset — limit/offset страницы в границах [1, maxLimit];
// нечисловые значения заменяются значениями по умолчанию.
func ParseLimitOffset(c *gin.Context, defaultLimit, maxLimit int) (limit, offset int) {
	limit = ClampInt(defaultLimit, 1, maxLimit)
	if v, err := strconv.Atoi(c.Query("limit")); err == nil {
		limit = ClampInt(v, 1, maxLimit)
	}
	if v, err := strconv.Atoi(c.Query("offset")); err == nil && v >= 0 {
		offset = v
	}
	return limit, offset
}

// PositiveQuery — необязательный положительный параметр: 0, если параметра нет.
func PositiveQuery(c *gin.Context, key string) (int64, error) {
	raw, ok := c.GetQuery(key)
	if !ok || raw == "" {
		return 0, nil
	}
	v, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || v <= 0 {
		return 0, fmt.Errorf("%s %w", key, ErrNotPositive)
	}
	return v, nil
}
