package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Gunvolt24/mpsync/internal/domain"
	"github.com/Gunvolt24/mpsync/internal/marketplace"
	"github.com/Gunvolt24/mpsync/internal/ports"
)

// ConnectionResult — итог проверки соединения.
type ConnectionResult struct {
	Success bool                    `json:"success"`
	Status  domain.ConnectionStatus `json:"status"`
	Message string                  `json:"message"`
}

// ConfigService — единственная конфигурация маркетплейса и её статистика.
type ConfigService struct {
	repo    ports.ConfigRepository
	api     ports.MarketplaceAPI
	journal *SyncLogService
	log     ports.Logger
	now     func() time.Time
}

// NewConfigService — конструктор.
func NewConfigService(repo ports.ConfigRepository, api ports.MarketplaceAPI, journal *SyncLogService, log ports.Logger) *ConfigService {
	return &ConfigService{repo: repo, api: api, journal: journal, log: log, now: time.Now}
}

// Active — активная конфигурация или domain.ErrConfigNotFound.
func (s *ConfigService) Active(ctx context.Context) (*domain.MarketplaceConfig, error) {
	cfg, err := s.repo.Get(ctx)
	if err != nil {
		return nil, fmt.Errorf("load marketplace config: %w", err)
	}
	if cfg == nil {
		return nil, domain.ErrConfigNotFound
	}
	return cfg, nil
}

// Current — конфигурация (в том числе неактивная) или domain.ErrConfigNotFound.
func (s *ConfigService) Current(ctx context.Context) (*domain.MarketplaceConfig, error) {
	cfg, err := s.repo.Current(ctx)
	if err != nil {
		return nil, fmt.Errorf("load marketplace config: %w", err)
	}
	if cfg == nil {
		return nil, domain.ErrConfigNotFound
	}
	return cfg, nil
}

// Resolve — конфигурация задачи: по id, если он задан, иначе активная.
func (s *ConfigService) Resolve(ctx context.Context, id int64) (*domain.MarketplaceConfig, error) {
	if id == 0 {
		return s.Active(ctx)
	}
	cfg, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("load marketplace config %d: %w", id, err)
	}
	if cfg == nil {
		return nil, domain.ErrConfigNotFound
	}
	return cfg, nil
}

// Create — значения по умолчанию, проверка, запись. Вторая конфигурация → domain.ErrConfigExists.
func (s *ConfigService) Create(ctx context.Context, cfg *domain.MarketplaceConfig) error {
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return err
	}
	if err := s.repo.Create(ctx, cfg); err != nil {
		return fmt.Errorf("create marketplace config: %w", err)
	}
	s.log.Infof(ctx, "marketplace config created id=%d name=%s base_url=%s", cfg.ID, cfg.Name, cfg.BaseURL)
	return nil
}

// ConfigPatch — изменяемые поля; nil не меняется.
type ConfigPatch struct {
	Name          *string        `json:"name"`
	BaseURL       *string        `json:"base_url"`
	AuthToken     *string        `json:"auth_token"`
	AuthHeader    *string        `json:"auth_header"`
	BatchSize     *int           `json:"batch_size"`
	Timeout       *time.Duration `json:"-"`
	RetryAttempts *int           `json:"retry_attempts"`
	Active        *bool          `json:"active"`
}

// Update — частичное изменение с повторной проверкой.
func (s *ConfigService) Update(ctx context.Context, patch ConfigPatch) (*domain.MarketplaceConfig, error) {
	// неактивную конфигурацию тоже можно изменить (например, включить)
	cfg, err := s.repo.Current(ctx)
	if err != nil {
		return nil, fmt.Errorf("load marketplace config: %w", err)
	}
	if cfg == nil {
		return nil, domain.ErrConfigNotFound
	}

	applyPatch(cfg, patch)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if err := s.repo.Update(ctx, cfg); err != nil {
		return nil, fmt.Errorf("update marketplace config: %w", err)
	}
	s.log.Infof(ctx, "marketplace config updated id=%d", cfg.ID)
	return cfg, nil
}

// Seed — создаёт конфигурацию из окружения, если её ещё нет.
func (s *ConfigService) Seed(ctx context.Context, seed *domain.MarketplaceConfig) error {
	if seed == nil || seed.AuthToken == "" {
		return nil
	}
	err := s.Create(ctx, seed)
	if errors.Is(err, domain.ErrConfigExists) {
		return nil
	}
	return err
}

// TestConnection — проверка токена и адреса; результат сохраняется в конфигурации и журнале.
func (s *ConfigService) TestConnection(ctx context.Context) (*ConnectionResult, error) {
	cfg, err := s.Active(ctx)
	if err != nil {
		return nil, err
	}

	start := s.now()
	env, apiErr := s.api.TestConnection(ctx, cfg)
	took := s.now().Sub(start)

	res := &ConnectionResult{Success: apiErr == nil, Status: domain.ConnectionOK, Message: marketplace.ConnectionMessage(apiErr)}
	entry := &domain.SyncLogEntry{
		ConfigID:     cfg.ID,
		Operation:    domain.OpConnectionTest,
		Status:       domain.LogSuccess,
		Message:      res.Message,
		ResponseData: marshalQuiet(env),
		Duration:     took,
	}
	errText := ""
	if apiErr != nil {
		res.Status = domain.ConnectionError
		entry.Status = domain.LogError
		entry.ErrorDetails = apiErr.Error()
		errText = res.Message
	}

	if err := s.repo.SetConnectionStatus(ctx, cfg.ID, res.Status, errText, s.now().UTC()); err != nil {
		s.log.Errorf(ctx, "save connection status: %v", err)
	}
	s.journal.Record(ctx, entry)
	s.log.Infof(ctx, "connection test config=%d success=%t took=%s", cfg.ID, res.Success, took)
	return res, nil
}

// RecordPull — статистика после выгрузки заказов.
func (s *ConfigService) RecordPull(ctx context.Context, cfg *domain.MarketplaceConfig, n int) {
	if err := s.repo.AddOrdersPulled(ctx, cfg.ID, n, s.now().UTC()); err != nil {
		s.log.Warnf(ctx, "update pull statistics: %v", err)
	}
}

// RecordProductSync — статистика после синхронизации товаров.
func (s *ConfigService) RecordProductSync(ctx context.Context, cfg *domain.MarketplaceConfig, n int) {
	if err := s.repo.AddProductsSynced(ctx, cfg.ID, n, s.now().UTC()); err != nil {
		s.log.Warnf(ctx, "update product sync statistics: %v", err)
	}
}

func applyPatch(cfg *domain.MarketplaceConfig, p ConfigPatch) {
	if p.Name != nil {
		cfg.Name = *p.Name
	}
	if p.BaseURL != nil {
		cfg.BaseURL = *p.BaseURL
	}
	if p.AuthToken != nil {
		cfg.AuthToken = *p.AuthToken
	}
	if p.AuthHeader != nil {
		cfg.AuthHeader = *p.AuthHeader
	}
	if p.BatchSize != nil {
		cfg.BatchSize = *p.BatchSize
	}
	if p.Timeout != nil {
		cfg.Timeout = *p.Timeout
	}
	if p.RetryAttempts != nil {
		cfg.RetryAttempts = *p.RetryAttempts
	}
	if p.Active != nil {
		cfg.Active = *p.Active
	}
}
