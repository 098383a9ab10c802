package worker

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/tradehaus/wholesale-api/internal/repository"
)

// ReservationSweeper periodically releases stock held by abandoned carts.
// Only meaningful under the eager reservation policy; under the optimistic
// policy no holds exist and every sweep is a no-op.
type ReservationSweeper struct {
	reservations *repository.ReservationRepository
	maxAge       time.Duration
	interval     time.Duration
}

// NewReservationSweeper constructs a ReservationSweeper. maxAge should match
// the cart TTL so a hold outlives its cart by at most one sweep interval.
func NewReservationSweeper(reservations *repository.ReservationRepository, maxAge, interval time.Duration) *ReservationSweeper {
	return &ReservationSweeper{
		reservations: reservations,
		maxAge:       maxAge,
		interval:     interval,
	}
}

// Start begins the periodic sweep loop and listens for context cancellation.
func (w *ReservationSweeper) Start(ctx context.Context) {
	log.Info().Dur("interval", w.interval).Dur("max_age", w.maxAge).Msg("Starting reservation sweeper")

	// Run immediately on start
	w.run(ctx)

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			w.run(ctx)
		case <-ctx.Done():
			log.Info().Msg("Reservation sweeper stopped")
			return
		}
	}
}

func (w *ReservationSweeper) run(ctx context.Context) {
	start := time.Now()
	released, err := w.reservations.ReleaseExpired(ctx, w.maxAge)
	if err != nil {
		log.Error().Err(err).Msg("Failed to sweep expired reservations")
		return
	}
	if released > 0 {
		log.Info().Int("released", released).Dur("duration", time.Since(start)).Msg("Reservation sweep completed")
	}
}
