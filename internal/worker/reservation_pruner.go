package worker

import (
	"context"
	"log/slog"
	"time"
)

type PruneService interface {
	PruneExpired(ctx context.Context) (int64, error)
}

// ReservationPruner periodically removes reservations past their expiry.
// Pruning needs no coordination with admission: expired rows already stopped
// counting toward capacity, the sweep only reclaims the storage.
type ReservationPruner struct {
	reservations PruneService
	logger       *slog.Logger
	interval     time.Duration
}

func NewReservationPruner(reservations PruneService, logger *slog.Logger, interval time.Duration) *ReservationPruner {
	return &ReservationPruner{
		reservations: reservations,
		logger:       logger,
		interval:     interval,
	}
}

func (w *ReservationPruner) Start(ctx context.Context) {
	w.logger.Info("reservation pruner starting", "interval", w.interval)
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			w.logger.Info("reservation pruner shutting down")
			return
		case <-ticker.C:
			w.prune(ctx)
		}
	}
}

func (w *ReservationPruner) prune(ctx context.Context) {
	pruned, err := w.reservations.PruneExpired(ctx)
	if err != nil {
		w.logger.Error("failed to prune expired reservations", "error", err)
		return
	}
	if pruned > 0 {
		w.logger.Info("pruned expired reservations", "count", pruned)
	}
}
