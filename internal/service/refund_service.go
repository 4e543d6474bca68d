package service

import (
	"context"

	"lanepos/internal/apperr"
	"lanepos/internal/dto"
	"lanepos/internal/model"
	"lanepos/internal/money"
	"lanepos/internal/repository"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// RefundService reverses lines of a finalized sale. Each line can be
// refunded at most once; repeated partial refunds against the same sale
// reuse a single Refund record and a single reversal transaction.
type RefundService interface {
	Refund(ctx context.Context, originalID uuid.UUID, req dto.RefundRequest) (*dto.RefundResponse, error)
}

type refundService struct {
	txRepo     repository.TransactionRepository
	refundRepo repository.RefundRepository
	payments   repository.PaymentRepository
	inventory  InventoryService
	locks      *TxLocks
}

func NewRefundService(
	txRepo repository.TransactionRepository,
	refundRepo repository.RefundRepository,
	payments repository.PaymentRepository,
	inventory InventoryService,
	locks *TxLocks,
) RefundService {
	return &refundService{
		txRepo:     txRepo,
		refundRepo: refundRepo,
		payments:   payments,
		inventory:  inventory,
		locks:      locks,
	}
}

// Refund marks the selected lines as refunded, records a negative payment
// on the reversal transaction, and restocks the items. Line marking, the
// Refund record, and the reversal transaction live in one DB transaction;
// the payment row and stock increments are best-effort and never undo a
// committed refund.
func (s *refundService) Refund(ctx context.Context, originalID uuid.UUID, req dto.RefundRequest) (*dto.RefundResponse, error) {
	lineIDs, err := parseLineIDs(req.LineIDs)
	if err != nil {
		return nil, err
	}

	unlock := s.locks.Lock(originalID)
	defer unlock()

	original, err := s.txRepo.FindByID(ctx, originalID)
	if err != nil {
		return nil, apperr.New(apperr.NotFound, "transaction not found")
	}
	if original.Status != model.TxFinalized {
		return nil, apperr.Newf(apperr.InvalidState, "cannot refund a %s transaction", original.Status)
	}

	// Validate ownership and one-shot semantics before touching anything.
	byID := make(map[uuid.UUID]*model.TransactionLine, len(original.Lines))
	for i := range original.Lines {
		byID[original.Lines[i].ID] = &original.Lines[i]
	}
	selected := make([]*model.TransactionLine, 0, len(lineIDs))
	for _, id := range lineIDs {
		line, ok := byID[id]
		if !ok {
			return nil, apperr.Newf(apperr.InvalidInput, "line %s does not belong to transaction %s", id, originalID)
		}
		if line.RefundedBy != nil {
			return nil, apperr.Newf(apperr.InvalidInput, "line %s is already refunded", id)
		}
		selected = append(selected, line)
	}

	// Refund amount from the snapshotted line prices, same rounding rules
	// as the sale itself.
	mlines := make([]money.Line, 0, len(selected))
	for _, l := range selected {
		mlines = append(mlines, money.Line{UnitPrice: l.UnitPrice, Quantity: l.Quantity, TaxRate: l.TaxRate})
	}
	sub, tax, total := money.Totals(mlines)

	// Is this refund going to cover the last unrefunded lines?
	unrefunded := 0
	for i := range original.Lines {
		if original.Lines[i].RefundedBy == nil {
			unrefunded++
		}
	}
	full := unrefunded == len(selected)

	var refund *model.Refund
	txErr := runTx(ctx, s.txRepo.DB(), func(tx *gorm.DB) error {
		var err error
		refund, err = s.getOrCreateRefundTx(tx, originalID, sub, tax, total)
		if err != nil {
			return err
		}
		for _, l := range selected {
			if err := s.txRepo.MarkLineRefundedTx(tx, l.ID, refund.ID); err != nil {
				return err
			}
		}
		if full {
			if err := s.txRepo.UpdateStatusTx(tx, originalID, model.TxRefunded); err != nil {
				return err
			}
		}
		// Negative payment on the reversal transaction: the money that
		// left the drawer. Best-effort, same as stock.
		if err := bestEffortTx(tx, "refund_payment", func() error {
			return s.payments.CreateTx(tx, &model.Payment{
				ID:            uuid.New(),
				TransactionID: refund.RefundTxID,
				Method:        model.PaymentCash,
				Amount:        total.Neg(),
			})
		}); err != nil {
			log.Warn().
				Err(err).
				Str("refund_tx", refund.RefundTxID.String()).
				Msg("refund: payment record failed, continuing")
		}
		for _, l := range selected {
			ref := refund.RefundTxID
			if err := bestEffortTx(tx, "refund_restock", func() error {
				return s.inventory.IncrementTx(tx, l.ItemID, l.Quantity, "refund", &ref)
			}); err != nil {
				log.Warn().
					Err(err).
					Str("item_id", l.ItemID.String()).
					Int("quantity", l.Quantity).
					Msg("refund: restock failed, skipping item")
			}
		}
		return nil
	})
	if txErr != nil {
		return nil, txErr
	}

	return &dto.RefundResponse{
		RefundID:            refund.ID.String(),
		RefundTransactionID: refund.RefundTxID.String(),
		Subtotal:            sub,
		Tax:                 tax,
		Total:               total,
		Partial:             !full,
	}, nil
}

// getOrCreateRefundTx returns the sale's Refund record, creating it together
// with its reversal transaction on first use. The reversal transaction is
// born finalized, carries no lines, and its totals mirror the refunded
// amounts; a later partial refund against the same sale adds its amounts
// onto the reversal's stored totals.
func (s *refundService) getOrCreateRefundTx(tx *gorm.DB, originalID uuid.UUID, sub, tax, total decimal.Decimal) (*model.Refund, error) {
	existing, err := s.refundRepo.FindByOriginalTxTx(tx, originalID)
	if err == nil {
		reversal, err := s.txRepo.FindByIDTx(tx, existing.RefundTxID)
		if err != nil {
			return nil, err
		}
		if err := s.txRepo.UpdateTotalsTx(tx, existing.RefundTxID,
			reversal.Subtotal.Add(sub), reversal.Tax.Add(tax), reversal.Total.Add(total)); err != nil {
			return nil, err
		}
		return existing, nil
	}

	reversal := &model.Transaction{
		ID:       uuid.New(),
		Status:   model.TxFinalized,
		Subtotal: sub,
		Tax:      tax,
		Total:    total,
	}
	if err := s.txRepo.CreateTx(tx, reversal); err != nil {
		return nil, err
	}
	refund := &model.Refund{
		ID:           uuid.New(),
		OriginalTxID: originalID,
		RefundTxID:   reversal.ID,
	}
	if err := s.refundRepo.CreateTx(tx, refund); err != nil {
		return nil, err
	}
	return refund, nil
}

// parseLineIDs validates and dedupes the requested line ids.
func parseLineIDs(raw []string) ([]uuid.UUID, error) {
	if len(raw) == 0 {
		return nil, apperr.New(apperr.InvalidInput, "line_ids must not be empty")
	}
	seen := make(map[uuid.UUID]struct{}, len(raw))
	out := make([]uuid.UUID, 0, len(raw))
	for _, s := range raw {
		id, err := uuid.Parse(s)
		if err != nil {
			return nil, apperr.Newf(apperr.InvalidInput, "invalid line id %q", s)
		}
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out, nil
}
