package usecase

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/Gunvolt24/mpsync/internal/domain"
	"github.com/Gunvolt24/mpsync/internal/ports"
	"github.com/Gunvolt24/mpsync/internal/status"
	"github.com/Gunvolt24/mpsync/pkg/metrics"
)

const placeholderProductName = "Marketplace Product %s"

// Reconciler — идемпотентная сверка входящего заказа с учётной системой.
// Изменения состояния идут через Ledger с origin=external и не отправляются обратно.
type Reconciler struct {
	orders    ports.OrderRepository
	customers ports.CustomerRepository
	products  ports.ProductRepository
	ledger    ports.Ledger
	locker    ports.Locker
	inbound   *status.InboundTable
	cache     ports.OrderCache
	journal   *SyncLogService
	log       ports.Logger
	now       func() time.Time
}

// ReconcilerDeps — зависимости Reconciler (cache может быть nil).
type ReconcilerDeps struct {
	Orders    ports.OrderRepository
	Customers ports.CustomerRepository
	Products  ports.ProductRepository
	Ledger    ports.Ledger
	Locker    ports.Locker
	Inbound   *status.InboundTable
	Cache     ports.OrderCache
	Journal   *SyncLogService
	Log       ports.Logger
}

// NewReconciler — DI-конструктор.
func NewReconciler(d ReconcilerDeps) *Reconciler {
	inbound := d.Inbound
	if inbound == nil {
		inbound = status.NewInboundTable(nil)
	}
	return &Reconciler{
		orders:    d.Orders,
		customers: d.Customers,
		products:  d.Products,
		ledger:    d.Ledger,
		locker:    d.Locker,
		inbound:   inbound,
		cache:     d.Cache,
		journal:   d.Journal,
		log:       d.Log,
		now:       time.Now,
	}
}

// Reconcile — создаёт заказ или применяет к существующему новый статус.
// Любая ошибка превращается в sync_status=error, запись журнала и ResultFailed;
// решение о повторе принимает вызывающая сторона по domain.IsPermanent.
func (r *Reconciler) Reconcile(ctx context.Context, cfg *domain.MarketplaceConfig, in *domain.NormalizedOrder) (domain.ReconcileResult, error) {
	if in == nil || in.ExternalID == "" {
		return domain.ResultFailed, fmt.Errorf("%w: empty normalized order", domain.ErrInvalidOrder)
	}

	unlock, err := r.locker.Lock(ctx, in.ExternalID)
	if err != nil {
		return r.fail(ctx, cfg, in.ExternalID, 0, fmt.Errorf("reconcile %s: %w", in.ExternalID, err))
	}
	defer r.release(ctx, in.ExternalID, unlock)

	existing, err := r.find(ctx, in.ExternalID)
	if err != nil {
		return r.fail(ctx, cfg, in.ExternalID, 0, err)
	}

	if existing == nil {
		order, err := r.create(ctx, cfg, in)
		if err != nil {
			return r.fail(ctx, cfg, in.ExternalID, 0, err)
		}
		if err := r.applyState(ctx, order, in.Status); err != nil {
			return r.fail(ctx, cfg, in.ExternalID, order.ID, err)
		}
		r.log.Infof(ctx, "order created %s external_id=%s lines=%d status=%s", order.Name, order.ExternalID, len(order.Lines), in.Status)
		return r.done(ctx, in.ExternalID, domain.ResultCreated), nil
	}

	res, err := r.update(ctx, existing, in.Status, in.RawStatus)
	if err != nil {
		return r.fail(ctx, cfg, in.ExternalID, existing.ID, err)
	}
	return r.done(ctx, in.ExternalID, res), nil
}

// ApplyStatus — обновление статуса существующего заказа (webhook статуса).
func (r *Reconciler) ApplyStatus(ctx context.Context, cfg *domain.MarketplaceConfig, externalID, rawStatus string) (domain.ReconcileResult, error) {
	st, ok := domain.ParseMarketplaceStatus(rawStatus)
	if !ok {
		r.log.Warnf(ctx, "order %s: unknown marketplace status %q", externalID, rawStatus)
	}

	unlock, err := r.locker.Lock(ctx, externalID)
	if err != nil {
		return r.fail(ctx, cfg, externalID, 0, fmt.Errorf("apply status %s: %w", externalID, err))
	}
	defer r.release(ctx, externalID, unlock)

	existing, err := r.find(ctx, externalID)
	if err != nil {
		return r.fail(ctx, cfg, externalID, 0, err)
	}
	if existing == nil {
		return r.fail(ctx, cfg, externalID, 0, fmt.Errorf("order %s: %w", externalID, domain.ErrNotFound))
	}

	res, err := r.update(ctx, existing, st, rawStatus)
	if err != nil {
		return r.fail(ctx, cfg, externalID, existing.ID, err)
	}
	return r.done(ctx, externalID, res), nil
}

// find — самый ранний заказ с external id; дубликаты только логируются.
func (r *Reconciler) find(ctx context.Context, externalID string) (*domain.LedgerOrder, error) {
	found, err := r.orders.FindByExternalID(ctx, externalID)
	if err != nil {
		return nil, fmt.Errorf("find order %s: %w", externalID, err)
	}
	if len(found) == 0 {
		return nil, nil
	}
	if len(found) > 1 {
		r.log.Warnf(ctx, "duplicate orders for external_id=%s count=%d, using %s", externalID, len(found), found[0].Name)
	}
	return found[0], nil
}

// update — пропуск без записи, если статус и состояние уже согласованы.
func (r *Reconciler) update(ctx context.Context, order *domain.LedgerOrder, st domain.MarketplaceStatus, rawStatus string) (domain.ReconcileResult, error) {
	stored := storedStatus(st, rawStatus)
	if order.MarketplaceStatus == stored && !r.needsAction(order, st) {
		r.log.Infof(ctx, "order %s unchanged status=%s (skipped)", order.ExternalID, stored)
		return domain.ResultSkipped, nil
	}

	now := r.now().UTC()
	if err := r.orders.UpdateSync(ctx, order.ID, domain.SyncUpdate{
		Status:            domain.SyncSynced,
		MarketplaceStatus: &stored,
		SyncedAt:          &now,
	}); err != nil {
		return domain.ResultFailed, fmt.Errorf("update sync %s: %w", order.ExternalID, err)
	}
	if err := r.applyState(ctx, order, st); err != nil {
		return domain.ResultFailed, err
	}
	r.log.Infof(ctx, "order %s updated status=%s state=%s", order.ExternalID, stored, order.State)
	return domain.ResultUpdated, nil
}

// needsAction — отличается ли состояние заказа от состояния, в которое отображается статус.
// Повторное резервирование при том же состоянии — действие оператора (assign), не сверки.
func (r *Reconciler) needsAction(order *domain.LedgerOrder, st domain.MarketplaceStatus) bool {
	if st == domain.StatusUnknown || st == domain.StatusReturn {
		return false
	}
	if order.State.IsTerminal() {
		return false
	}
	return r.inbound.Map(st) != order.State
}

// applyState — действие над заказом по статусу маркетплейса.
func (r *Reconciler) applyState(ctx context.Context, order *domain.LedgerOrder, st domain.MarketplaceStatus) error {
	state := order.State
	confirm := func() error {
		if !state.IsInitial() {
			return nil
		}
		if err := r.ledger.Confirm(ctx, order.ID, domain.OriginExternal); err != nil {
			return err
		}
		state = domain.StateSale
		return nil
	}
	assign := func() error {
		if state != domain.StateSale {
			return nil
		}
		warnings, err := r.ledger.Assign(ctx, order.ID, domain.OriginExternal)
		for _, w := range warnings {
			r.log.Warnf(ctx, "order %s: assign warning: %v", order.ExternalID, w)
		}
		return err
	}

	var err error
	switch {
	case st == domain.StatusApproved:
		err = confirm()
	case st == domain.StatusAssignedToSalesman:
		if err = confirm(); err == nil {
			err = assign()
		}
	case st == domain.StatusDelivered:
		if state == domain.StateDone {
			return nil
		}
		if err = confirm(); err == nil {
			err = assign()
		}
		if err == nil {
			err = r.ledger.Complete(ctx, order.ID, domain.OriginExternal)
			state = domain.StateDone
		}
	case st.IsCancellation():
		if !state.IsTerminal() {
			err = r.ledger.Cancel(ctx, order.ID, domain.OriginExternal)
			state = domain.StateCancel
		}
	case st == domain.StatusReturn:
		r.log.Infof(ctx, "order %s returned by marketplace: manual handling required", order.ExternalID)
	}
	if err != nil {
		return fmt.Errorf("apply status %s to order %s: %w", st, order.ExternalID, err)
	}
	order.State = state
	return nil
}

// create — покупатель, товары и заказ в draft одной транзакцией репозитория.
func (r *Reconciler) create(ctx context.Context, cfg *domain.MarketplaceConfig, in *domain.NormalizedOrder) (*domain.LedgerOrder, error) {
	customer, err := r.resolveCustomer(ctx, &in.Customer)
	if err != nil {
		return nil, err
	}

	now := r.now().UTC()
	stored := storedStatus(in.Status, in.RawStatus)
	order := &domain.LedgerOrder{
		ExternalID:        in.ExternalID,
		ConfigID:          cfg.ID,
		CustomerID:        customer.ID,
		State:             domain.StateDraft,
		MarketplaceStatus: stored,
		SyncStatus:        domain.SyncSynced,
		SyncedAt:          &now,
		DeliveredBy:       in.DeliveredBy,
		PaymentMethod:     in.PaymentMethod,
		RetailerOTP:       in.RetailerOTP,
		OrderNumber:       in.OrderNumber,
		Origin:            cfg.Name,
		Currency:          in.Currency,
		AmountTotal:       decimal.Zero,
		OrderedAt:         in.OrderedAt,
	}

	for i := range in.Lines {
		nl := &in.Lines[i]
		product, err := r.resolveProduct(ctx, nl)
		if err != nil {
			r.log.Warnf(ctx, "order %s: line %s skipped: %v", in.ExternalID, nl.ExternalProductID, err)
			continue
		}
		order.Lines = append(order.Lines, domain.LedgerLine{
			ProductID:           product.ID,
			ExternalLineID:      nl.ExternalLineID,
			Description:         lineDescription(nl, product),
			Quantity:            nl.Quantity,
			UnitPrice:           nl.UnitPrice,
			Total:               nl.Total,
			SupplierDiscount:    nl.SupplierDiscount,
			MarketplaceDiscount: nl.MarketplaceDiscount,
			Comment:             nl.Comment,
		})
		order.AmountTotal = order.AmountTotal.Add(nl.Total)
	}
	if len(order.Lines) == 0 {
		return nil, fmt.Errorf("order %s: no line could be resolved: %w", in.ExternalID, domain.ErrNoLines)
	}

	if err := r.orders.Create(ctx, order); err != nil {
		return nil, fmt.Errorf("create order %s: %w", in.ExternalID, err)
	}
	return order, nil
}

// resolveCustomer — по external id, телефону, имени; найденный обновляется.
func (r *Reconciler) resolveCustomer(ctx context.Context, p *domain.CustomerPayload) (*domain.Customer, error) {
	c, err := r.customers.FindByExternalID(ctx, p.ExternalID)
	if err == nil && c == nil && p.Phone != "" {
		c, err = r.customers.FindByPhone(ctx, p.Phone)
	}
	if err == nil && c == nil && p.Name != "" {
		c, err = r.customers.FindByName(ctx, p.Name)
	}
	if err != nil {
		return nil, fmt.Errorf("resolve customer %s: %w", p.ExternalID, err)
	}

	if c == nil {
		c = &domain.Customer{ExternalID: p.ExternalID, Name: p.Name, Phone: p.Phone, Email: p.Email, Address: p.Address}
		if err := r.customers.Create(ctx, c); err != nil {
			return nil, fmt.Errorf("create customer %s: %w", p.ExternalID, err)
		}
		return c, nil
	}

	if mergeCustomer(c, p) {
		if err := r.customers.Update(ctx, c); err != nil {
			return nil, fmt.Errorf("update customer %s: %w", p.ExternalID, err)
		}
	}
	return c, nil
}

// resolveProduct — по external id, затем по SKU (с привязкой external id), иначе заглушка.
func (r *Reconciler) resolveProduct(ctx context.Context, nl *domain.NormalizedLine) (*domain.Product, error) {
	p, err := r.products.FindByExternalID(ctx, nl.ExternalProductID)
	if err != nil {
		return nil, fmt.Errorf("find product %s: %w", nl.ExternalProductID, err)
	}
	if p != nil {
		return p, nil
	}

	if nl.SKU != "" {
		p, err = r.products.FindBySKU(ctx, nl.SKU)
		if err != nil {
			return nil, fmt.Errorf("find product sku %s: %w", nl.SKU, err)
		}
		if p != nil {
			p.ExternalID = nl.ExternalProductID
			if err := r.products.Update(ctx, p); err != nil {
				return nil, fmt.Errorf("link product %d to %s: %w", p.ID, nl.ExternalProductID, err)
			}
			return p, nil
		}
	}

	p = &domain.Product{
		ExternalID: nl.ExternalProductID,
		SKU:        nl.SKU,
		Name:       fmt.Sprintf(placeholderProductName, nl.ExternalProductID),
		Price:      nl.UnitPrice,
		SyncStatus: domain.SyncNotSynced,
	}
	if err := r.products.Create(ctx, p); err != nil {
		return nil, fmt.Errorf("create placeholder product %s: %w", nl.ExternalProductID, err)
	}
	r.log.Infof(ctx, "placeholder product created id=%d external_id=%s", p.ID, p.ExternalID)
	return p, nil
}

// fail — sync_status=error на существующем заказе, запись журнала, метрика.
func (r *Reconciler) fail(ctx context.Context, cfg *domain.MarketplaceConfig, externalID string, orderID int64, err error) (domain.ReconcileResult, error) {
	r.log.Errorf(ctx, "reconcile failed external_id=%s: %v", externalID, err)
	metrics.ReconcileResults.WithLabelValues(string(domain.ResultFailed)).Inc()

	if orderID != 0 {
		if syncErr := r.orders.UpdateSync(ctx, orderID, domain.SyncUpdate{
			Status:       domain.SyncError,
			Error:        domain.UserMessage(err),
			ErrorDetails: err.Error(),
		}); syncErr != nil {
			r.log.Errorf(ctx, "mark order %s sync error: %v", externalID, syncErr)
		}
	}
	if r.cache != nil {
		r.cache.Invalidate(ctx, externalID)
	}

	var configID int64
	if cfg != nil {
		configID = cfg.ID
	}
	r.journal.RecordError(ctx, configID, domain.OpOrderPull, "order", orderID, externalID, err)
	return domain.ResultFailed, err
}

func (r *Reconciler) done(ctx context.Context, externalID string, res domain.ReconcileResult) domain.ReconcileResult {
	metrics.ReconcileResults.WithLabelValues(string(res)).Inc()
	if r.cache != nil && res != domain.ResultSkipped {
		r.cache.Invalidate(ctx, externalID)
	}
	return res
}

func (r *Reconciler) release(ctx context.Context, key string, unlock ports.Unlock) {
	if err := unlock(ctx); err != nil {
		r.log.Warnf(ctx, "unlock %s: %v", key, err)
	}
}

// storedStatus — известный статус в каноническом виде, неизвестный как пришёл.
func storedStatus(st domain.MarketplaceStatus, raw string) string {
	if st != domain.StatusUnknown {
		return string(st)
	}
	return raw
}

func mergeCustomer(c *domain.Customer, p *domain.CustomerPayload) bool {
	changed := false
	set := func(dst *string, v string) {
		if v != "" && *dst != v {
			*dst = v
			changed = true
		}
	}
	if c.ExternalID == "" {
		set(&c.ExternalID, p.ExternalID)
	}
	set(&c.Phone, p.Phone)
	set(&c.Email, p.Email)
	set(&c.Address, p.Address)
	return changed
}

func lineDescription(nl *domain.NormalizedLine, p *domain.Product) string {
	if nl.Name != "" {
		return nl.Name
	}
	return p.Name
}
