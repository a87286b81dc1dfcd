package rest_test

import (
	"context"
	"sync"
	"time"

	"github.com/Gunvolt24/mpsync/internal/domain"
	"github.com/Gunvolt24/mpsync/internal/usecase"
)

type noopLogger struct{}

func (noopLogger) Infof(context.Context, string, ...any)  {}
func (noopLogger) Warnf(context.Context, string, ...any)  {}
func (noopLogger) Errorf(context.Context, string, ...any) {}

// fakeJobs — запоминает поставленные задачи.
type fakeJobs struct {
	mu    sync.Mutex
	err   error
	calls []string
	raw   []byte
	ids   []int64
	from  *time.Time
}

func (f *fakeJobs) record(call string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return "", f.err
	}
	f.calls = append(f.calls, call)
	return "job-" + call, nil
}

func (f *fakeJobs) AcceptOrder(_ context.Context, raw []byte) (string, error) {
	f.raw = raw
	return f.record("order")
}

func (f *fakeJobs) AcceptStatus(_ context.Context, orderID, status string) (string, error) {
	return f.record("status:" + orderID + ":" + status)
}

func (f *fakeJobs) RequestPull(_ context.Context, from, _ *time.Time) (string, error) {
	f.from = from
	return f.record("pull")
}

func (f *fakeJobs) RequestProductSync(_ context.Context, stock bool, ids []int64) (string, error) {
	f.ids = ids
	if stock {
		return f.record("stock")
	}
	return f.record("products")
}

func (f *fakeJobs) RequestPush(_ context.Context, externalID string) (string, error) {
	return f.record("push:" + externalID)
}

// fakeActions — действия оператора с заданным результатом.
type fakeActions struct {
	err      error
	warnings []string
	reasons  []string
	calls    []string
	reason   domain.CancellationReason
}

func (f *fakeActions) Confirm(_ context.Context, id string) error {
	f.calls = append(f.calls, "confirm:"+id)
	return f.err
}

func (f *fakeActions) Assign(_ context.Context, id string) ([]string, error) {
	f.calls = append(f.calls, "assign:"+id)
	return f.warnings, f.err
}

func (f *fakeActions) Deliver(_ context.Context, id string) error {
	f.calls = append(f.calls, "deliver:"+id)
	return f.err
}

func (f *fakeActions) Cancel(_ context.Context, id string, reason domain.CancellationReason) error {
	f.calls = append(f.calls, "cancel:"+id)
	f.reason = reason
	return f.err
}

func (f *fakeActions) CancelDiagnostics(_ context.Context, _ string) ([]string, error) {
	return f.reasons, f.err
}

// fakeConfigs — конфигурация в памяти.
type fakeConfigs struct {
	cfg     *domain.MarketplaceConfig
	created *domain.MarketplaceConfig
	patch   usecase.ConfigPatch
	err     error
}

func (f *fakeConfigs) Current(context.Context) (*domain.MarketplaceConfig, error) {
	if f.cfg == nil {
		return nil, domain.ErrConfigNotFound
	}
	return f.cfg, nil
}

func (f *fakeConfigs) Create(_ context.Context, cfg *domain.MarketplaceConfig) error {
	if f.err != nil {
		return f.err
	}
	cfg.ID = 1
	f.created = cfg
	return nil
}

func (f *fakeConfigs) Update(_ context.Context, p usecase.ConfigPatch) (*domain.MarketplaceConfig, error) {
	if f.cfg == nil {
		return nil, domain.ErrConfigNotFound
	}
	f.patch = p
	return f.cfg, nil
}

func (f *fakeConfigs) TestConnection(context.Context) (*usecase.ConnectionResult, error) {
	return &usecase.ConnectionResult{Success: false, Status: domain.ConnectionError, Message: "Invalid token"}, nil
}

// fakeJournal — журнал с заданными записями.
type fakeJournal struct {
	entries []*domain.SyncLogEntry
	filter  domain.SyncLogFilter
	summary int64 // config id последнего Summary
	days    int
}

func (f *fakeJournal) List(_ context.Context, flt domain.SyncLogFilter) ([]*domain.SyncLogEntry, error) {
	f.filter = flt
	return f.entries, nil
}

func (f *fakeJournal) Summary(_ context.Context, configID int64) (*domain.SyncLogSummary, error) {
	f.summary = configID
	return &domain.SyncLogSummary{Total: int64(len(f.entries)), ByStatus: map[domain.LogStatus]int64{domain.LogSuccess: int64(len(f.entries))}, SuccessRate: 100}, nil
}

func (f *fakeJournal) Prune(_ context.Context, days int) (int64, error) {
	f.days = days
	return 3, nil
}
