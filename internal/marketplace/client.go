package marketplace

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/Gunvolt24/mpsync/internal/domain"
	"github.com/Gunvolt24/mpsync/internal/ports"
	"github.com/Gunvolt24/mpsync/pkg/metrics"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

// Проверка, что Client удовлетворяет интерфейсу MarketplaceAPI.
var _ ports.MarketplaceAPI = (*Client)(nil)

const (
	userAgent    = "mpsync/1.0"
	maxBodyBytes = 4 << 20
	maxErrorText = 512
)

// Request — описание одного обращения к API.
type Request struct {
	Op       string // метка для метрик (не содержит идентификаторов)
	Endpoint string
	Method   string
	Body     any
	Query    url.Values
}

// Result — результат обращения. Клиент всегда возвращает Result и не паникует
// на ожидаемых классах ошибок (таймаут, сеть, не-2xx).
type Result struct {
	StatusCode int
	Raw        any  // разобранный JSON для 200/201 (без нормализации)
	NoContent  bool // 204
	Err        *domain.APIError
	Duration   time.Duration
}

// OK — успешный HTTP-ответ.
func (r Result) OK() bool { return r.Err == nil }

// Error — ошибка как error (без ловушки typed-nil).
func (r Result) Error() error {
	if r.Err == nil {
		return nil
	}
	return r.Err
}

// Envelope — нормализованный ответ.
func (r Result) Envelope() domain.Envelope {
	switch {
	case r.Err != nil:
		return domain.Envelope{Success: false, Error: r.Err.Error(), Data: r.Err.Detail}
	case r.NoContent:
		return domain.Envelope{Success: true}
	default:
		return Normalize(r.Raw)
	}
}

// Client — HTTP-клиент REST API маркетплейса. Повторов не делает: это забота слоя задач.
type Client struct {
	http *http.Client
	log  ports.Logger
}

// NewClient — конструктор. При httpClient == nil используется клиент с otelhttp-транспортом.
func NewClient(httpClient *http.Client, log ports.Logger) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Transport: otelhttp.NewTransport(http.DefaultTransport)}
	}
	return &Client{http: httpClient, log: log}
}

// Call — выполняет запрос с авторизацией и таймаутом из конфигурации.
func (c *Client) Call(ctx context.Context, cfg *domain.MarketplaceConfig, req Request) Result {
	start := time.Now()
	res := c.do(ctx, cfg, req)
	res.Duration = time.Since(start)

	op := req.Op
	if op == "" {
		op = "call"
	}
	outcome := "ok"
	if res.Err != nil {
		outcome = string(res.Err.Kind)
		c.log.Warnf(ctx, "marketplace %s %s failed: %v (took=%s)", req.Method, req.Endpoint, res.Err, res.Duration)
	}
	metrics.MarketplaceRequests.WithLabelValues(op, outcome).Inc()
	metrics.MarketplaceLatency.WithLabelValues(op).Observe(res.Duration.Seconds())
	return res
}

func (c *Client) do(ctx context.Context, cfg *domain.MarketplaceConfig, req Request) Result {
	if cfg == nil {
		return Result{Err: &domain.APIError{Kind: domain.APIErrRequest, Message: "marketplace config is required"}}
	}

	method := strings.ToUpper(strings.TrimSpace(req.Method))
	if method == "" {
		method = http.MethodGet
	}
	target := JoinURL(cfg.BaseURL, req.Endpoint)

	var body io.Reader
	if hasBody(method) {
		if req.Body != nil {
			b, err := json.Marshal(req.Body)
			if err != nil {
				return Result{Err: &domain.APIError{Kind: domain.APIErrRequest, Message: fmt.Sprintf("encode body: %v", err)}}
			}
			body = bytes.NewReader(b)
		}
	} else if len(req.Query) > 0 {
		target += "?" + req.Query.Encode()
	}

	if cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, cfg.Timeout)
		defer cancel()
	}

	httpReq, err := http.NewRequestWithContext(ctx, method, target, body)
	if err != nil {
		return Result{Err: &domain.APIError{Kind: domain.APIErrRequest, Message: fmt.Sprintf("build request: %v", err)}}
	}
	header := cfg.AuthHeader
	if header == "" {
		header = domain.DefaultAuthHeader
	}
	httpReq.Header.Set(header, cfg.AuthToken)
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("User-Agent", userAgent)

	resp, err := c.http.Do(httpReq)
	if err != nil {
		if isTimeout(err) {
			return Result{Err: &domain.APIError{
				Kind:    domain.APIErrTimeout,
				Message: fmt.Sprintf("Request timeout after %s", cfg.Timeout),
			}}
		}
		return Result{Err: &domain.APIError{Kind: domain.APIErrConnection, Message: fmt.Sprintf("Connection error: %v", err)}}
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return Result{StatusCode: resp.StatusCode, Err: &domain.APIError{
			Kind: domain.APIErrConnection, StatusCode: 0, Message: fmt.Sprintf("Connection error: read body: %v", err),
		}}
	}

	switch resp.StatusCode {
	case http.StatusOK, http.StatusCreated:
		if len(bytes.TrimSpace(data)) == 0 {
			return Result{StatusCode: resp.StatusCode, Raw: map[string]any{"success": true}}
		}
		var raw any
		if err := json.Unmarshal(data, &raw); err != nil {
			return Result{StatusCode: resp.StatusCode, Raw: map[string]any{"success": true, "data": string(data)}}
		}
		return Result{StatusCode: resp.StatusCode, Raw: raw}
	case http.StatusNoContent:
		return Result{StatusCode: resp.StatusCode, NoContent: true}
	default:
		apiErr := &domain.APIError{
			Kind:       domain.APIErrHTTP,
			StatusCode: resp.StatusCode,
			Message:    truncate(strings.TrimSpace(string(data)), maxErrorText),
			Body:       string(data),
		}
		var detail any
		if json.Unmarshal(data, &detail) == nil {
			apiErr.Detail = detail
		}
		return Result{StatusCode: resp.StatusCode, Err: apiErr}
	}
}

// JoinURL — base без завершающих "/" + "/" + endpoint без ведущих "/".
func JoinURL(base, endpoint string) string {
	return strings.TrimRight(base, "/") + "/" + strings.TrimLeft(endpoint, "/")
}

func hasBody(method string) bool {
	return method == http.MethodPost || method == http.MethodPut || method == http.MethodPatch
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
