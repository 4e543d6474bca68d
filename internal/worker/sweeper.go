package worker

// sweeper.go
// Background goroutine that periodically cancels open transactions older
// than the configured TTL — abandoned carts from crashed or walked-away
// registers. Cancelling an open transaction has no inventory or payment
// side effects, so the sweep is always safe.

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

const sweepTickInterval = 10 * time.Minute

// TxSweepStore is the slice of the ledger the sweeper needs.
type TxSweepStore interface {
	ListStaleOpen(ctx context.Context, cutoff time.Time) ([]uuid.UUID, error)
}

// TxCanceller cancels one open transaction; implemented by the ledger service.
type TxCanceller interface {
	Cancel(ctx context.Context, id uuid.UUID) error
}

// StartSweeper launches a goroutine ticking every 10 minutes, cancelling
// open transactions created more than ttl ago. Respects ctx for shutdown.
func StartSweeper(ctx context.Context, store TxSweepStore, canceller TxCanceller, ttl time.Duration) {
	go func() {
		ticker := time.NewTicker(sweepTickInterval)
		defer ticker.Stop()

		log.Info().Dur("ttl", ttl).Msg("sweeper: started")

		for {
			select {
			case <-ctx.Done():
				log.Info().Msg("sweeper: shutting down")
				return
			case <-ticker.C:
				sweepOnce(ctx, store, canceller, ttl)
			}
		}
	}()
}

func sweepOnce(ctx context.Context, store TxSweepStore, canceller TxCanceller, ttl time.Duration) {
	cutoff := time.Now().Add(-ttl)
	ids, err := store.ListStaleOpen(ctx, cutoff)
	if err != nil {
		log.Error().Err(err).Msg("sweeper: listing stale open transactions failed")
		return
	}
	for _, id := range ids {
		if err := canceller.Cancel(ctx, id); err != nil {
			// Already finalized/cancelled by a racing register — skip.
			log.Warn().Err(err).Str("transaction_id", id.String()).Msg("sweeper: cancel failed")
			continue
		}
		log.Info().Str("transaction_id", id.String()).Msg("sweeper: cancelled stale open transaction")
	}
}
