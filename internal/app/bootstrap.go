package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/Gunvolt24/mpsync/config"
	cachemem "github.com/Gunvolt24/mpsync/internal/cache/memory"
	"github.com/Gunvolt24/mpsync/internal/domain"
	"github.com/Gunvolt24/mpsync/internal/kafka"
	lockmem "github.com/Gunvolt24/mpsync/internal/lock/memory"
	lockredis "github.com/Gunvolt24/mpsync/internal/lock/redis"
	"github.com/Gunvolt24/mpsync/internal/marketplace"
	"github.com/Gunvolt24/mpsync/internal/ports"
	queuemem "github.com/Gunvolt24/mpsync/internal/queue/memory"
	"github.com/Gunvolt24/mpsync/internal/repo/postgres"
	rest "github.com/Gunvolt24/mpsync/internal/transport/http"
	"github.com/Gunvolt24/mpsync/internal/usecase"
	"github.com/Gunvolt24/mpsync/pkg/logger"
	"github.com/Gunvolt24/mpsync/pkg/metrics"
	"github.com/Gunvolt24/mpsync/pkg/telemetry"
)

// Runner — фоновый компонент с остановкой по контексту.
type Runner interface {
	Run(ctx context.Context) error
}

// App — собранное приложение и его внешние интерфейсы (HTTP, обработчики очереди, планировщик).
type App struct {
	Logger          ports.Logger          // логгер
	HTTPServer      *http.Server          // HTTP-сервер
	Workers         ports.MessageConsumer // обработчики очереди задач (Kafka или память)
	Scheduler       Runner                // периодические задачи (может быть nil)
	gracefulTimeout time.Duration         // время ожидания завершения HTTP-сервера
}

// Cleanup — функция освобождения ресурсов.
type Cleanup func()

// applyGinMode — устанавливает режим Gin по строке;
// неизвестное значение → debug и предупреждение в лог.
func applyGinMode(ctx context.Context, mode string, log ports.Logger) {
	switch strings.ToLower(strings.TrimSpace(mode)) {
	case "release":
		gin.SetMode(gin.ReleaseMode)
	case "test":
		gin.SetMode(gin.TestMode)
	case "", "debug":
		gin.SetMode(gin.DebugMode)
	default:
		gin.SetMode(gin.DebugMode)
		log.Warnf(ctx, "unknown GIN_MODE=%q, fallback to debug", mode)
	}
}

// cleanups — стек функций очистки, выполняется в обратном порядке.
type cleanups []func()

func (c *cleanups) add(fn func()) { *c = append(*c, fn) }

func (c cleanups) run() {
	for i := len(c) - 1; i >= 0; i-- {
		c[i]()
	}
}

// Bootstrap — собирает зависимости и возвращает приложение, функцию очистки и ошибку.
func Bootstrap(ctx context.Context, cfg *config.Config) (*App, Cleanup, error) {
	// Логгер (dev/prod режим задаётся конфигурацией).
	logg, cleanupLogger, err := logger.NewZapLogger(cfg.Logger.IsProd)
	if err != nil {
		return nil, func() {}, err
	}

	var stack cleanups
	stack.add(func() {
		if cErr := cleanupLogger(); cErr != nil {
			logg.Warnf(ctx, "cleanup logger: %v", cErr)
		}
	})
	fail := func(err error) (*App, Cleanup, error) {
		stack.run()
		return nil, func() {}, err
	}

	// Регистрация метрик (Prometheus).
	metrics.MustRegister()

	// Трейсинг OTEL (при включённой конфигурации); по умолчанию — no-op.
	if cfg.Tracing.Enabled {
		shutdownTrace, tErr := telemetry.SetupTracing(ctx, cfg.Tracing.ServiceName, cfg.Tracing.Endpoint, cfg.Tracing.SampleRatio)
		if tErr != nil {
			logg.Warnf(ctx, "failed to setup tracing: %v", tErr)
		} else {
			logg.Infof(ctx, "otel tracing enabled service=%s endpoint=%s sample=%.2f",
				cfg.Tracing.ServiceName, cfg.Tracing.Endpoint, cfg.Tracing.SampleRatio)
			stack.add(func() {
				if terr := shutdownTrace(context.Background()); terr != nil {
					logg.Warnf(ctx, "shutdown tracing: %v", terr)
				}
			})
		}
	}

	// Хранилище.
	var storage Storage
	switch cfg.Storage.Driver {
	case "memory":
		logg.Warnf(ctx, "storage driver=memory: data is lost on restart")
		storage = MemoryStorage()
	case "", "postgres":
		pool, pErr := postgres.NewPool(ctx, cfg.Postgres.DSN, cfg.Postgres.MaxConns)
		if pErr != nil {
			return fail(fmt.Errorf("postgres pool: %w", pErr))
		}
		stack.add(pool.Close)
		if cfg.Postgres.AutoMigrate {
			if mErr := postgres.Migrate(ctx, pool); mErr != nil {
				return fail(mErr)
			}
		}
		storage = PostgresStorage(pool)
	default:
		return fail(fmt.Errorf("unknown storage driver %q", cfg.Storage.Driver))
	}

	// Блокировки по external id: Redis (несколько экземпляров) или в памяти процесса.
	var locker ports.Locker = lockmem.NewKeyedMutex()
	if cfg.Redis.Enabled {
		rdb, rErr := lockredis.NewClient(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
		if rErr != nil {
			return fail(fmt.Errorf("redis client: %w", rErr))
		}
		stack.add(func() {
			if cerr := rdb.Close(); cerr != nil {
				logg.Warnf(ctx, "redis close: %v", cerr)
			}
		})
		lockTTL := lockredis.TTLFor(cfg.Redis.LockTTL, cfg.Kafka.ProcessTimeout)
		if lockTTL != cfg.Redis.LockTTL {
			logg.Warnf(ctx, "redis lock ttl raised to %s (process timeout %s)", lockTTL, cfg.Kafka.ProcessTimeout)
		}
		locker = lockredis.NewLocker(rdb, lockTTL, cfg.Redis.LockWait)
	}

	// Очередь задач и обработчики.
	var (
		jobQueue ports.JobQueue
		bindJobs func(handler ports.JobHandler) ports.MessageConsumer
	)
	switch cfg.Queue.Driver {
	case "memory":
		q := queuemem.NewQueue(cfg.Queue.Buffer)
		jobQueue = q
		bindJobs = func(h ports.JobHandler) ports.MessageConsumer {
			return queuemem.NewConsumer(q, queuemem.ConsumerConfig{
				Workers:        cfg.Queue.Workers,
				ProcessTimeout: cfg.Kafka.ProcessTimeout,
				RetryInitial:   cfg.Kafka.RetryInitial,
				RetryMax:       cfg.Kafka.RetryMax,
			}, h, logg)
		}
	case "", "kafka":
		producer := kafka.NewProducer(&kafka.ProducerConfig{
			Brokers: cfg.Kafka.Brokers,
			Topic:   cfg.Kafka.Topic,
		}, logg)
		stack.add(func() {
			if perr := producer.Close(); perr != nil {
				logg.Warnf(ctx, "kafka producer close error: %v", perr)
			}
		})
		jobQueue = producer
		bindJobs = func(h ports.JobHandler) ports.MessageConsumer {
			return kafka.NewConsumer(&kafka.ConsumerConfig{
				Brokers:        cfg.Kafka.Brokers,
				GroupID:        cfg.Kafka.GroupID,
				Topic:          cfg.Kafka.Topic,
				StartOffset:    cfg.Kafka.StartOffset,
				ProcessTimeout: cfg.Kafka.ProcessTimeout,
				RetryInitial:   cfg.Kafka.RetryInitial,
				RetryMax:       cfg.Kafka.RetryMax,
			}, h, producer, logg)
		}
	default:
		return fail(fmt.Errorf("unknown queue driver %q", cfg.Queue.Driver))
	}

	// Сборка зависимостей доменного слоя.
	orderCache := cachemem.NewLRUCacheTTL(cfg.Cache.Capacity, cfg.Cache.TTL)
	core := NewCore(CoreDeps{
		Storage:      storage,
		Queue:        jobQueue,
		Locker:       locker,
		Cache:        orderCache,
		API:          marketplace.NewClient(nil, logg),
		StateMapping: cfg.Marketplace.StateMapping,
		PullLookback: cfg.Pull.Lookback,
		Log:          logg,
	})
	workers := bindJobs(core.Dispatcher)
	stack.add(func() {
		if werr := workers.Close(); werr != nil {
			logg.Warnf(ctx, "job workers close error: %v", werr)
		}
	})

	// Начальная конфигурация маркетплейса из окружения.
	if err := core.Configs.Seed(ctx, seedConfig(cfg.Marketplace)); err != nil {
		logg.Warnf(ctx, "seed marketplace config: %v", err)
	}

	// Прогрев кэша
	if n := cfg.Cache.WarmUpN; n > 0 {
		if err := core.Orders.WarmUpCache(ctx, n); err != nil {
			logg.Warnf(ctx, "warm-up cache failed: %v", err)
		}
	}

	// Режим Gin.
	applyGinMode(ctx, cfg.HTTP.GinMode, logg)

	// Имя сервиса для otelgin (только при включённом трейсинге).
	otelServiceName := ""
	if cfg.Tracing.Enabled {
		otelServiceName = cfg.Tracing.ServiceName
	}

	// Роутер и HTTP-сервер.
	httpHandler := rest.NewHandler(core.HTTPServices(), logg, cfg.HTTP.HandlerTimeout)
	router := rest.NewRouter(httpHandler, otelServiceName)

	httpSrv := &http.Server{
		Addr:              cfg.HTTP.Addr,
		Handler:           router,
		ReadTimeout:       cfg.HTTP.ReadTimeout,
		WriteTimeout:      cfg.HTTP.WriteTimeout,
		ReadHeaderTimeout: cfg.HTTP.ReadHeaderTimeout,
		IdleTimeout:       cfg.HTTP.IdleTimeout,
	}

	app := &App{
		Logger:     logg,
		HTTPServer: httpSrv,
		Workers:    workers,
		Scheduler: usecase.NewScheduler(logg,
			usecase.PullTask(core.Jobs, cfg.Pull.Interval),
			usecase.PruneTask(core.Journal, cfg.SyncLog.PruneInterval, cfg.SyncLog.RetentionDays),
		),
		gracefulTimeout: cfg.HTTP.GracefulTimeout,
	}

	return app, Cleanup(stack.run), nil
}

// seedConfig — конфигурация маркетплейса из окружения (nil, если токен не задан).
func seedConfig(m config.Marketplace) *domain.MarketplaceConfig {
	if strings.TrimSpace(m.AuthToken) == "" {
		return nil
	}
	return &domain.MarketplaceConfig{
		Name:          m.Name,
		BaseURL:       m.BaseURL,
		AuthToken:     m.AuthToken,
		AuthHeader:    m.AuthHeader,
		BatchSize:     m.BatchSize,
		Timeout:       m.Timeout,
		RetryAttempts: m.RetryAttempts,
		Active:        true,
	}
}

// Run — запускает HTTP-сервер, обработчики очереди и планировщик;
// ждёт отмены контекста или ошибки и останавливает их.
func (a *App) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	errCh := make(chan error, 3)
	var wg sync.WaitGroup

	// Запуск обработчиков очереди.
	wg.Add(1)
	go func() {
		defer wg.Done()
		a.Logger.Infof(ctx, "job workers starting")
		if err := a.Workers.Run(ctx); err != nil {
			errCh <- err
		}
	}()

	// Запуск планировщика.
	if a.Scheduler != nil {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := a.Scheduler.Run(ctx); err != nil {
				errCh <- err
			}
		}()
	}

	// Запуск HTTP-сервера.
	go func() {
		a.Logger.Infof(ctx, "http server starting (addr=%s)", a.HTTPServer.Addr)
		if err := a.HTTPServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	// Ожидание сигнала остановки или фоновой ошибки.
	select {
	case <-ctx.Done():
		a.Logger.Infof(ctx, "shutdown requested, starting graceful shutdown")
	case err := <-errCh:
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			a.Logger.Infof(ctx, "background component stopped: %v", err)
		} else {
			a.Logger.Warnf(ctx, "background error: %v", err)
		}
	}

	gt := a.gracefulTimeout
	if gt <= 0 {
		gt = 5 * time.Second
	}

	// Корректная остановка HTTP-сервера: новые задачи больше не принимаются.
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), gt)
	defer shutdownCancel()

	if err := a.HTTPServer.Shutdown(shutdownCtx); err != nil {
		a.Logger.Warnf(ctx, "http server shutdown failed: %v", err)
	} else {
		a.Logger.Infof(ctx, "http server stopped gracefully")
	}

	// Остановка обработчиков и планировщика.
	cancel()
	wg.Wait()
	if err := a.Workers.Close(); err != nil {
		a.Logger.Warnf(ctx, "job workers close error: %v", err)
	}

	a.Logger.Infof(ctx, "service stopped")
	return nil
}
