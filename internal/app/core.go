package app

import (
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Gunvolt24/mpsync/internal/ledger"
	"github.com/Gunvolt24/mpsync/internal/ports"
	"github.com/Gunvolt24/mpsync/internal/repo/memory"
	"github.com/Gunvolt24/mpsync/internal/repo/postgres"
	"github.com/Gunvolt24/mpsync/internal/status"
	rest "github.com/Gunvolt24/mpsync/internal/transport/http"
	"github.com/Gunvolt24/mpsync/internal/usecase"
	"github.com/Gunvolt24/mpsync/pkg/validate"
)

// Storage — набор репозиториев одного драйвера.
type Storage struct {
	Orders    ports.OrderRepository
	Customers ports.CustomerRepository
	Products  ports.ProductRepository
	Configs   ports.ConfigRepository
	SyncLogs  ports.SyncLogRepository
}

// MemoryStorage — репозитории в памяти процесса.
func MemoryStorage() Storage {
	products := memory.NewProductRepository()
	return Storage{
		Orders:    memory.NewOrderRepository(products),
		Customers: memory.NewCustomerRepository(),
		Products:  products,
		Configs:   memory.NewConfigRepository(),
		SyncLogs:  memory.NewSyncLogRepository(),
	}
}

// PostgresStorage — репозитории поверх пула Postgres.
func PostgresStorage(pool *pgxpool.Pool) Storage {
	return Storage{
		Orders:    postgres.NewOrderRepository(pool),
		Customers: postgres.NewCustomerRepository(pool),
		Products:  postgres.NewProductRepository(pool),
		Configs:   postgres.NewConfigRepository(pool),
		SyncLogs:  postgres.NewSyncLogRepository(pool),
	}
}

// CoreDeps — внешние зависимости доменного слоя.
type CoreDeps struct {
	Storage      Storage
	Queue        ports.JobQueue
	Locker       ports.Locker
	Cache        ports.OrderCache
	API          ports.MarketplaceAPI
	StateMapping map[string]string // переопределения входящих статусов
	PullLookback time.Duration
	Log          ports.Logger
}

// Core — собранные сервисы доменного слоя.
type Core struct {
	Configs     *usecase.ConfigService
	Jobs        *usecase.JobService
	Orders      *usecase.OrderService
	Journal     *usecase.SyncLogService
	Reconciler  *usecase.Reconciler
	Puller      *usecase.PullService
	ProductSync *usecase.ProductSyncService
	Dispatcher  *usecase.JobDispatcher
}

// NewCore — сборка сервисов; обработчик задач очереди — Core.Dispatcher.
func NewCore(d CoreDeps) *Core {
	st := d.Storage
	journal := usecase.NewSyncLogService(st.SyncLogs, d.Log)
	configs := usecase.NewConfigService(st.Configs, d.API, journal, d.Log)
	trigger := usecase.NewSyncTrigger(d.Queue, d.Log)
	led := ledger.NewService(st.Orders, st.Products, trigger, d.Cache, d.Log)
	normalizer := validate.NewOrderNormalizer(validate.NewOrderValidator(), d.Log)

	reconciler := usecase.NewReconciler(usecase.ReconcilerDeps{
		Orders:    st.Orders,
		Customers: st.Customers,
		Products:  st.Products,
		Ledger:    led,
		Locker:    d.Locker,
		Inbound:   status.NewInboundTable(d.StateMapping),
		Cache:     d.Cache,
		Journal:   journal,
		Log:       d.Log,
	})
	pusher := usecase.NewStatusPusher(st.Orders, d.API, d.Cache, journal, d.Log)
	puller := usecase.NewPullService(d.API, normalizer, reconciler, configs, journal, d.Log, d.PullLookback)
	productSync := usecase.NewProductSyncService(st.Products, d.API, configs, journal, d.Log)

	return &Core{
		Configs:     configs,
		Jobs:        usecase.NewJobService(configs, d.Queue, d.Log),
		Orders:      usecase.NewOrderService(st.Orders, d.Cache, led, d.Locker, d.Log),
		Journal:     journal,
		Reconciler:  reconciler,
		Puller:      puller,
		ProductSync: productSync,
		Dispatcher: usecase.NewJobDispatcher(usecase.JobDispatcherDeps{
			Configs:     configs,
			Normalizer:  normalizer,
			Reconciler:  reconciler,
			Pusher:      pusher,
			Puller:      puller,
			ProductSync: productSync,
			Journal:     journal,
			Log:         d.Log,
		}),
	}
}

// HTTPServices — сервисы для HTTP-обработчиков.
func (c *Core) HTTPServices() rest.Services {
	return rest.Services{
		Orders:  c.Orders,
		Actions: c.Orders,
		Jobs:    c.Jobs,
		Configs: c.Configs,
		Journal: c.Journal,
	}
}
