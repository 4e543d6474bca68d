package service

import (
	"context"

	"lanepos/internal/apperr"
	"lanepos/internal/dto"
	"lanepos/internal/model"
	"lanepos/internal/money"
	"lanepos/internal/repository"
	"lanepos/internal/worker"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// LedgerService owns the transaction lifecycle: open → add lines → finalize,
// or cancel while still open. Totals are always recomputed from the full
// current line set, never incrementally patched, so the invariant
// total == subtotal + tax == Σ lines holds after every mutation regardless
// of ordering or partial failure.
type LedgerService interface {
	Open(ctx context.Context) (*dto.TransactionResponse, error)
	AddLine(ctx context.Context, txID uuid.UUID, req dto.AddLineRequest) (*dto.TransactionResponse, error)
	Finalize(ctx context.Context, txID uuid.UUID, req dto.FinalizeRequest) (*dto.FinalizeResponse, error)
	Cancel(ctx context.Context, txID uuid.UUID) error
	Get(ctx context.Context, txID uuid.UUID) (*dto.TransactionResponse, error)
	List(ctx context.Context, filter dto.TransactionFilter) (*dto.TransactionListResponse, error)
}

type ledgerService struct {
	repo       repository.TransactionRepository
	refundRepo repository.RefundRepository
	payments   repository.PaymentRepository
	catalog    CatalogService
	inventory  InventoryService
	locks      *TxLocks
	dispatcher *worker.Dispatcher // nil in unit tests
}

func NewLedgerService(
	repo repository.TransactionRepository,
	refundRepo repository.RefundRepository,
	payments repository.PaymentRepository,
	catalog CatalogService,
	inventory InventoryService,
	locks *TxLocks,
	dispatcher *worker.Dispatcher,
) LedgerService {
	return &ledgerService{
		repo:       repo,
		refundRepo: refundRepo,
		payments:   payments,
		catalog:    catalog,
		inventory:  inventory,
		locks:      locks,
		dispatcher: dispatcher,
	}
}

// runTx executes fn inside a GORM transaction when db is available,
// or calls fn(nil) directly when db is nil (unit test mode).
func runTx(ctx context.Context, db *gorm.DB, fn func(tx *gorm.DB) error) error {
	if db == nil {
		return fn(nil)
	}
	return db.WithContext(ctx).Transaction(fn)
}

// bestEffortTx runs fn under a savepoint and rolls back to it on failure,
// so a failed secondary write does not abort the surrounding postgres
// transaction. With a nil tx (unit test mode) fn runs directly.
func bestEffortTx(tx *gorm.DB, name string, fn func() error) error {
	if tx == nil {
		return fn()
	}
	if err := tx.SavePoint(name).Error; err != nil {
		return err
	}
	if err := fn(); err != nil {
		tx.RollbackTo(name)
		return err
	}
	return nil
}


func (s *ledgerService) Open(ctx context.Context) (*dto.TransactionResponse, error) {
	t := &model.Transaction{
		ID:       uuid.New(),
		Status:   model.TxOpen,
		Subtotal: decimal.Zero,
		Tax:      decimal.Zero,
		Total:    decimal.Zero,
	}
	if err := s.repo.Create(ctx, t); err != nil {
		return nil, err
	}
	return txToResponse(t), nil
}

// Resolves the barcode to an active item, snapshots its price and tax rate
// into a new line, then recomputes and persists the transaction totals,
// all inside one DB transaction. Inventory is untouched here: the decrement
// happens only at finalize.

func (s *ledgerService) AddLine(ctx context.Context, txID uuid.UUID, req dto.AddLineRequest) (*dto.TransactionResponse, error) {
	if req.Quantity <= 0 {
		return nil, apperr.New(apperr.InvalidInput, "quantity must be at least 1")
	}

	unlock := s.locks.Lock(txID)
	defer unlock()

	t, err := s.repo.FindByID(ctx, txID)
	if err != nil {
		return nil, apperr.New(apperr.NotFound, "transaction not found")
	}
	if t.Status != model.TxOpen {
		return nil, apperr.Newf(apperr.InvalidState, "cannot add a line to a %s transaction", t.Status)
	}

	item, err := s.catalog.ResolveBarcode(ctx, req.Barcode)
	if err != nil {
		return nil, err
	}

	line := &model.TransactionLine{
		ID:            uuid.New(),
		TransactionID: txID,
		ItemID:        item.ID,
		Quantity:      req.Quantity,
		UnitPrice:     item.Price,
		TaxRate:       item.TaxRate,
		LineTotal:     money.Round2(money.LineTotal(item.Price, req.Quantity, item.TaxRate)),
	}

	txErr := runTx(ctx, s.repo.DB(), func(tx *gorm.DB) error {
		if err := s.repo.CreateLineTx(tx, line); err != nil {
			return err
		}
		return s.recomputeTotalsTx(tx, txID)
	})
	if txErr != nil {
		return nil, txErr
	}

	return s.Get(ctx, txID)
}

// recomputeTotalsTx re-derives subtotal/tax/total from the current line set
// at full precision and persists them rounded. O(lines) per mutation.
func (s *ledgerService) recomputeTotalsTx(tx *gorm.DB, txID uuid.UUID) error {
	t, err := s.repo.FindByIDTx(tx, txID)
	if err != nil {
		return err
	}
	lines := make([]money.Line, 0, len(t.Lines))
	for _, l := range t.Lines {
		lines = append(lines, money.Line{UnitPrice: l.UnitPrice, Quantity: l.Quantity, TaxRate: l.TaxRate})
	}
	sub, tax, total := money.Totals(lines)
	return s.repo.UpdateTotalsTx(tx, txID, sub, tax, total)
}

// Irreversible: sets status to finalized, records the cash payment, and
// decrements stock per line. Stock decrements are best-effort: an item-level
// failure is logged and skipped so the sale itself always completes.
// Finalize never fails for
// insufficient stock; quantities floor at zero.

func (s *ledgerService) Finalize(ctx context.Context, txID uuid.UUID, req dto.FinalizeRequest) (*dto.FinalizeResponse, error) {
	if req.CashAmount.LessThanOrEqual(decimal.Zero) {
		return nil, apperr.New(apperr.InvalidInput, "cash amount must be greater than zero")
	}

	unlock := s.locks.Lock(txID)
	defer unlock()

	t, err := s.repo.FindByID(ctx, txID)
	if err != nil {
		return nil, apperr.New(apperr.NotFound, "transaction not found")
	}
	if t.Status != model.TxOpen {
		return nil, apperr.Newf(apperr.InvalidState, "cannot finalize a %s transaction", t.Status)
	}

	// Fresh recompute for the payment check; stored totals are never trusted.
	lines := make([]money.Line, 0, len(t.Lines))
	for _, l := range t.Lines {
		lines = append(lines, money.Line{UnitPrice: l.UnitPrice, Quantity: l.Quantity, TaxRate: l.TaxRate})
	}
	sub, tax, total := money.Totals(lines)

	if req.CashAmount.LessThan(total) {
		return nil, apperr.Newf(apperr.InsufficientPayment, "cash %s is below total %s", req.CashAmount, total)
	}
	change := req.CashAmount.Sub(total)

	txErr := runTx(ctx, s.repo.DB(), func(tx *gorm.DB) error {
		if err := s.repo.UpdateTotalsTx(tx, txID, sub, tax, total); err != nil {
			return err
		}
		if err := s.repo.UpdateStatusTx(tx, txID, model.TxFinalized); err != nil {
			return err
		}
		if err := s.payments.CreateTx(tx, &model.Payment{
			ID:            uuid.New(),
			TransactionID: txID,
			Method:        model.PaymentCash,
			Amount:        req.CashAmount,
		}); err != nil {
			return err
		}
		// Best-effort stock decrements: one item's failure must not abort
		// the sale or block the other items.
		ref := txID
		for _, l := range t.Lines {
			if err := bestEffortTx(tx, "sale_stock", func() error {
				return s.inventory.DecrementTx(tx, l.ItemID, l.Quantity, "sale", &ref)
			}); err != nil {
				log.Warn().
					Err(err).
					Str("transaction_id", txID.String()).
					Str("item_id", l.ItemID.String()).
					Int("quantity", l.Quantity).
					Msg("ledger: stock decrement failed, skipping item")
			}
		}
		return nil
	})
	if txErr != nil {
		return nil, txErr
	}

	// Async receipt job, fire and forget.
	if s.dispatcher != nil {
		payload := worker.ReceiptJobPayload{
			TransactionID: txID.String(),
			CustomerEmail: req.CustomerEmail,
		}
		if err := s.dispatcher.EnqueueReceipt(ctx, payload); err != nil {
			log.Warn().Err(err).Str("transaction_id", txID.String()).Msg("ledger: receipt enqueue failed")
		}
	}

	finalized, err := s.repo.FindByID(ctx, txID)
	if err != nil {
		return nil, err
	}
	return &dto.FinalizeResponse{Transaction: *txToResponse(finalized), Change: change}, nil
}

// Deletes an open transaction and all its lines permanently. No inventory or
// payment side effects: nothing was ever decremented while it stayed open.

func (s *ledgerService) Cancel(ctx context.Context, txID uuid.UUID) error {
	unlock := s.locks.Lock(txID)
	defer unlock()

	t, err := s.repo.FindByID(ctx, txID)
	if err != nil {
		return apperr.New(apperr.NotFound, "transaction not found")
	}
	if t.Status != model.TxOpen {
		return apperr.Newf(apperr.InvalidState, "cannot cancel a %s transaction", t.Status)
	}

	return runTx(ctx, s.repo.DB(), func(tx *gorm.DB) error {
		return s.repo.DeleteTx(tx, txID)
	})
}


func (s *ledgerService) Get(ctx context.Context, txID uuid.UUID) (*dto.TransactionResponse, error) {
	t, err := s.repo.FindByID(ctx, txID)
	if err != nil {
		return nil, apperr.New(apperr.NotFound, "transaction not found")
	}
	return txToResponse(t), nil
}

// List returns finalized/refunded sales newest-first, each annotated with a
// derived refund status. Reversal transactions (the target of some Refund
// record) and finalized transactions that ended up with zero lines are
// excluded from the listing.
func (s *ledgerService) List(ctx context.Context, filter dto.TransactionFilter) (*dto.TransactionListResponse, error) {
	if filter.Limit < 1 {
		filter.Limit = 50
	}

	reversalIDs, err := s.refundRepo.ListReversalTxIDs(ctx)
	if err != nil {
		return nil, err
	}

	txs, err := s.repo.List(ctx, filter, reversalIDs)
	if err != nil {
		return nil, err
	}

	items := make([]dto.TransactionListItem, 0, len(txs))
	for i := range txs {
		t := &txs[i]
		items = append(items, dto.TransactionListItem{
			ID:           t.ID.String(),
			Status:       t.Status,
			Subtotal:     t.Subtotal,
			Tax:          t.Tax,
			Total:        t.Total,
			LineCount:    len(t.Lines),
			RefundStatus: deriveRefundStatus(t.Lines),
			CreatedAt:    t.CreatedAt.Format("2006-01-02T15:04:05Z"),
		})
	}
	return &dto.TransactionListResponse{Data: items, Total: len(items)}, nil
}

// deriveRefundStatus computes none|partial|full from the fraction of lines
// whose refunded_by is set.
func deriveRefundStatus(lines []model.TransactionLine) string {
	if len(lines) == 0 {
		return model.RefundNone
	}
	refunded := 0
	for _, l := range lines {
		if l.RefundedBy != nil {
			refunded++
		}
	}
	switch refunded {
	case 0:
		return model.RefundNone
	case len(lines):
		return model.RefundFull
	default:
		return model.RefundPartial
	}
}

func txToResponse(t *model.Transaction) *dto.TransactionResponse {
	lines := make([]dto.LineResponse, 0, len(t.Lines))
	for _, l := range t.Lines {
		name := ""
		if l.Item != nil {
			name = l.Item.Name
		}
		refundedBy := ""
		if l.RefundedBy != nil {
			refundedBy = l.RefundedBy.String()
		}
		lines = append(lines, dto.LineResponse{
			ID:         l.ID.String(),
			ItemID:     l.ItemID.String(),
			ItemName:   name,
			Quantity:   l.Quantity,
			UnitPrice:  l.UnitPrice,
			TaxRate:    l.TaxRate,
			LineTotal:  l.LineTotal,
			RefundedBy: refundedBy,
		})
	}
	payments := make([]dto.PaymentResponse, 0, len(t.Payments))
	for _, p := range t.Payments {
		payments = append(payments, dto.PaymentResponse{Method: p.Method, Amount: p.Amount})
	}
	return &dto.TransactionResponse{
		ID:        t.ID.String(),
		Status:    t.Status,
		Subtotal:  t.Subtotal,
		Tax:       t.Tax,
		Total:     t.Total,
		Lines:     lines,
		Payments:  payments,
		CreatedAt: t.CreatedAt.Format("2006-01-02T15:04:05Z"),
	}
}
