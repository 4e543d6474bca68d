package service_test

import (
	"context"
	"errors"
	"strings"
	"time"

	"lanepos/internal/dto"
	"lanepos/internal/model"
	"lanepos/internal/repository"
	"lanepos/internal/service"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// ── Item repo stub ────────────────────────────────────────────────────────────

// stubItemRepo is an in-memory ItemRepository for testing.
type stubItemRepo struct {
	items    map[uuid.UUID]*model.Item
	barcodes map[string]uuid.UUID

	// failSetQuantity simulates a persistence failure for one item id,
	// exercising the best-effort inventory paths.
	failSetQuantity map[uuid.UUID]bool
}

func newStubItemRepo() *stubItemRepo {
	return &stubItemRepo{
		items:           make(map[uuid.UUID]*model.Item),
		barcodes:        make(map[string]uuid.UUID),
		failSetQuantity: make(map[uuid.UUID]bool),
	}
}

func (r *stubItemRepo) Create(_ context.Context, item *model.Item) error {
	if item.ID == uuid.Nil {
		item.ID = uuid.New()
	}
	r.items[item.ID] = item
	for _, b := range item.Barcodes {
		r.barcodes[b.Code] = item.ID
	}
	return nil
}

func (r *stubItemRepo) FindByID(_ context.Context, id uuid.UUID) (*model.Item, error) {
	item, ok := r.items[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return item, nil
}

func (r *stubItemRepo) FindByBarcode(_ context.Context, code string) (*model.Item, error) {
	id, ok := r.barcodes[code]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	item := r.items[id]
	if !item.Active {
		return nil, gorm.ErrRecordNotFound
	}
	return item, nil
}

func (r *stubItemRepo) List(_ context.Context, filter dto.ItemFilter) ([]model.Item, int64, error) {
	var out []model.Item
	for _, item := range r.items {
		switch filter.Active {
		case "all":
		case "false":
			if item.Active {
				continue
			}
		default:
			if !item.Active {
				continue
			}
		}
		if filter.Name != "" && !strings.Contains(strings.ToLower(item.Name), strings.ToLower(filter.Name)) {
			continue
		}
		out = append(out, *item)
	}
	return out, int64(len(out)), nil
}

func (r *stubItemRepo) Update(_ context.Context, item *model.Item) error {
	if _, ok := r.items[item.ID]; !ok {
		return gorm.ErrRecordNotFound
	}
	r.items[item.ID] = item
	return nil
}

func (r *stubItemRepo) Deactivate(_ context.Context, id uuid.UUID) error {
	item, ok := r.items[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	item.Active = false
	return nil
}

func (r *stubItemRepo) Reactivate(_ context.Context, id uuid.UUID) error {
	item, ok := r.items[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	item.Active = true
	return nil
}

func (r *stubItemRepo) AddBarcode(_ context.Context, b *model.Barcode) error {
	if _, taken := r.barcodes[b.Code]; taken {
		return errors.New("duplicate barcode")
	}
	r.barcodes[b.Code] = b.ItemID
	item := r.items[b.ItemID]
	item.Barcodes = append(item.Barcodes, *b)
	return nil
}

func (r *stubItemRepo) RemoveBarcode(_ context.Context, itemID uuid.UUID, code string) error {
	delete(r.barcodes, code)
	item, ok := r.items[itemID]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	kept := item.Barcodes[:0]
	for _, b := range item.Barcodes {
		if b.Code != code {
			kept = append(kept, b)
		}
	}
	item.Barcodes = kept
	return nil
}

func (r *stubItemRepo) ListBarcodes(_ context.Context, itemID uuid.UUID) ([]model.Barcode, error) {
	item, ok := r.items[itemID]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return item.Barcodes, nil
}

func (r *stubItemRepo) FindByIDTx(_ *gorm.DB, id uuid.UUID) (*model.Item, error) {
	return r.FindByID(context.Background(), id)
}

func (r *stubItemRepo) SetQuantityTx(_ *gorm.DB, id uuid.UUID, qty int) error {
	if r.failSetQuantity[id] {
		return errors.New("stock write failed")
	}
	item, ok := r.items[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	item.Quantity = qty
	return nil
}

func (r *stubItemRepo) DB() *gorm.DB { return nil }

var _ repository.ItemRepository = (*stubItemRepo)(nil)

// ── Transaction repo stub ─────────────────────────────────────────────────────

type stubTxRepo struct {
	txs map[uuid.UUID]*model.Transaction
}

func newStubTxRepo() *stubTxRepo {
	return &stubTxRepo{txs: make(map[uuid.UUID]*model.Transaction)}
}

func (r *stubTxRepo) Create(_ context.Context, t *model.Transaction) error {
	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}
	if t.CreatedAt.IsZero() {
		t.CreatedAt = time.Now()
	}
	r.txs[t.ID] = t
	return nil
}

func (r *stubTxRepo) CreateTx(tx *gorm.DB, t *model.Transaction) error {
	return r.Create(context.Background(), t)
}

func (r *stubTxRepo) FindByID(_ context.Context, id uuid.UUID) (*model.Transaction, error) {
	t, ok := r.txs[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return t, nil
}

func (r *stubTxRepo) FindByIDTx(_ *gorm.DB, id uuid.UUID) (*model.Transaction, error) {
	return r.FindByID(context.Background(), id)
}

func (r *stubTxRepo) CreateLineTx(_ *gorm.DB, line *model.TransactionLine) error {
	t, ok := r.txs[line.TransactionID]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	t.Lines = append(t.Lines, *line)
	return nil
}

func (r *stubTxRepo) MarkLineRefundedTx(_ *gorm.DB, lineID, refundID uuid.UUID) error {
	for _, t := range r.txs {
		for i := range t.Lines {
			if t.Lines[i].ID == lineID && t.Lines[i].RefundedBy == nil {
				id := refundID
				t.Lines[i].RefundedBy = &id
			}
		}
	}
	return nil
}

func (r *stubTxRepo) UpdateTotalsTx(_ *gorm.DB, id uuid.UUID, subtotal, tax, total decimal.Decimal) error {
	t, ok := r.txs[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	t.Subtotal, t.Tax, t.Total = subtotal, tax, total
	return nil
}

func (r *stubTxRepo) UpdateStatusTx(_ *gorm.DB, id uuid.UUID, status string) error {
	t, ok := r.txs[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	t.Status = status
	return nil
}

func (r *stubTxRepo) DeleteTx(_ *gorm.DB, id uuid.UUID) error {
	delete(r.txs, id)
	return nil
}

func (r *stubTxRepo) List(_ context.Context, filter dto.TransactionFilter, excludeIDs []uuid.UUID) ([]model.Transaction, error) {
	excluded := make(map[uuid.UUID]bool, len(excludeIDs))
	for _, id := range excludeIDs {
		excluded[id] = true
	}
	var out []model.Transaction
	for _, t := range r.txs {
		if excluded[t.ID] || len(t.Lines) == 0 {
			continue
		}
		if filter.Status != "" && filter.Status != "all" {
			if t.Status != filter.Status {
				continue
			}
		} else if t.Status != model.TxFinalized && t.Status != model.TxRefunded {
			continue
		}
		out = append(out, *t)
	}
	return out, nil
}

func (r *stubTxRepo) ListStaleOpen(_ context.Context, cutoff time.Time) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	for _, t := range r.txs {
		if t.Status == model.TxOpen && t.CreatedAt.Before(cutoff) {
			ids = append(ids, t.ID)
		}
	}
	return ids, nil
}

func (r *stubTxRepo) DB() *gorm.DB { return nil }

var _ repository.TransactionRepository = (*stubTxRepo)(nil)

// ── Refund repo stub ──────────────────────────────────────────────────────────

type stubRefundRepo struct {
	refunds map[uuid.UUID]*model.Refund // keyed by original tx id
}

func newStubRefundRepo() *stubRefundRepo {
	return &stubRefundRepo{refunds: make(map[uuid.UUID]*model.Refund)}
}

func (r *stubRefundRepo) FindByOriginalTx(_ context.Context, originalTxID uuid.UUID) (*model.Refund, error) {
	ref, ok := r.refunds[originalTxID]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return ref, nil
}

func (r *stubRefundRepo) FindByOriginalTxTx(_ *gorm.DB, originalTxID uuid.UUID) (*model.Refund, error) {
	return r.FindByOriginalTx(context.Background(), originalTxID)
}

func (r *stubRefundRepo) CreateTx(_ *gorm.DB, ref *model.Refund) error {
	if _, dup := r.refunds[ref.OriginalTxID]; dup {
		return errors.New("duplicate refund record")
	}
	r.refunds[ref.OriginalTxID] = ref
	return nil
}

func (r *stubRefundRepo) ListReversalTxIDs(_ context.Context) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	for _, ref := range r.refunds {
		ids = append(ids, ref.RefundTxID)
	}
	return ids, nil
}

var _ repository.RefundRepository = (*stubRefundRepo)(nil)

// ── Payment repo stub ─────────────────────────────────────────────────────────

type stubPaymentRepo struct {
	payments []model.Payment
	failNext bool
}

func (r *stubPaymentRepo) CreateTx(_ *gorm.DB, p *model.Payment) error {
	if r.failNext {
		r.failNext = false
		return errors.New("payment write failed")
	}
	r.payments = append(r.payments, *p)
	return nil
}

func (r *stubPaymentRepo) ListByTransaction(_ context.Context, txID uuid.UUID) ([]model.Payment, error) {
	var out []model.Payment
	for _, p := range r.payments {
		if p.TransactionID == txID {
			out = append(out, p)
		}
	}
	return out, nil
}

var _ repository.PaymentRepository = (*stubPaymentRepo)(nil)

// ── Stock movement repo stub ──────────────────────────────────────────────────

type stubMovementRepo struct {
	movements []model.StockMovement
}

func (r *stubMovementRepo) CreateTx(_ *gorm.DB, m *model.StockMovement) error {
	r.movements = append(r.movements, *m)
	return nil
}

func (r *stubMovementRepo) Create(_ context.Context, m *model.StockMovement) error {
	r.movements = append(r.movements, *m)
	return nil
}

func (r *stubMovementRepo) ListByItem(_ context.Context, itemID uuid.UUID, _ int) ([]model.StockMovement, error) {
	var out []model.StockMovement
	for _, m := range r.movements {
		if m.ItemID == itemID {
			out = append(out, m)
		}
	}
	return out, nil
}

var _ repository.StockMovementRepository = (*stubMovementRepo)(nil)

// ── Fixtures / builders ───────────────────────────────────────────────────────

// seedItem registers an active item with one barcode and returns it.
func seedItem(repo *stubItemRepo, name, barcode string, price float64, taxRate float64, qty int) *model.Item {
	item := &model.Item{
		ID:       uuid.New(),
		Name:     name,
		Price:    decimal.NewFromFloat(price),
		TaxRate:  decimal.NewFromFloat(taxRate),
		Quantity: qty,
		PackSize: 1,
		Active:   true,
	}
	item.Barcodes = []model.Barcode{{ID: uuid.New(), ItemID: item.ID, Code: barcode}}
	_ = repo.Create(context.Background(), item)
	return item
}

type ledgerFixture struct {
	ledger    service.LedgerService
	refunds   service.RefundService
	txRepo    *stubTxRepo
	itemRepo  *stubItemRepo
	refRepo   *stubRefundRepo
	payments  *stubPaymentRepo
	movements *stubMovementRepo
}

func newLedgerFixture() *ledgerFixture {
	itemRepo := newStubItemRepo()
	txRepo := newStubTxRepo()
	refRepo := newStubRefundRepo()
	payments := &stubPaymentRepo{}
	movements := &stubMovementRepo{}

	inventory := service.NewInventoryService(itemRepo, movements)
	catalog := service.NewCatalogService(itemRepo, inventory, nil)
	locks := service.NewTxLocks()

	return &ledgerFixture{
		ledger:    service.NewLedgerService(txRepo, refRepo, payments, catalog, inventory, locks, nil),
		refunds:   service.NewRefundService(txRepo, refRepo, payments, inventory, locks),
		txRepo:    txRepo,
		itemRepo:  itemRepo,
		refRepo:   refRepo,
		payments:  payments,
		movements: movements,
	}
}
