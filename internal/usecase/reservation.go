package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/rwestland/store-stock/internal/domain"
)

type ReservationUseCase interface {
	ListActiveReservations(ctx context.Context, storeIDs, productIDs, userIDs []string) ([]*domain.Reservation, error)
	Reserve(ctx context.Context, input ReserveInput) (*domain.Reservation, error)
	Release(ctx context.Context, storeID, productID, userID string) error
	PruneExpired(ctx context.Context) (int64, error)
}

type ReserveInput struct {
	StoreID   string
	ProductID string
	UserID    string
	Amount    int64
	// IdempotencyKey is optional; when set, a retried request with the same
	// key returns the reservation placed by the first attempt.
	IdempotencyKey string
}

type IdempotencyStore interface {
	Get(ctx context.Context, key string) (string, error)
	SetNX(ctx context.Context, key string, value string, ttl time.Duration) (bool, error)
	Set(ctx context.Context, key string, value string, ttl time.Duration) error
	Del(ctx context.Context, key string) error
}

type reservationUseCase struct {
	stockRepo       domain.StockRepository
	reservationRepo domain.ReservationRepository
	idempotency     IdempotencyStore
	logger          *slog.Logger
	ttl             time.Duration
	idempotencyTTL  time.Duration
	now             func() time.Time
}

func NewReservationUseCase(
	stockRepo domain.StockRepository,
	reservationRepo domain.ReservationRepository,
	idempotency IdempotencyStore,
	logger *slog.Logger,
	ttl time.Duration,
	idempotencyTTL time.Duration,
) ReservationUseCase {
	return &reservationUseCase{
		stockRepo:       stockRepo,
		reservationRepo: reservationRepo,
		idempotency:     idempotency,
		logger:          logger,
		ttl:             ttl,
		idempotencyTTL:  idempotencyTTL,
		now:             func() time.Time { return time.Now().UTC() },
	}
}

func (uc *reservationUseCase) ListActiveReservations(ctx context.Context, storeIDs, productIDs, userIDs []string) ([]*domain.Reservation, error) {
	return uc.reservationRepo.ListActive(ctx, storeIDs, productIDs, userIDs, uc.now())
}

// Reserve admits a hold against stock. The stock and one-per-user lookups
// are advisory pre-checks that produce precise errors; the conditional
// insert re-evaluates capacity on its own and remains the sole authority,
// since state can change between the checks and the write.
func (uc *reservationUseCase) Reserve(ctx context.Context, input ReserveInput) (*domain.Reservation, error) {
	if input.Amount < 0 {
		return nil, domain.ErrInvalidAmount
	}

	now := uc.now()

	var lockAcquired bool
	if input.IdempotencyKey != "" {
		locked, err := uc.idempotency.SetNX(ctx, input.IdempotencyKey, "processing", uc.idempotencyTTL)
		if err != nil {
			return nil, err
		}
		if !locked {
			recorded, err := uc.idempotency.Get(ctx, input.IdempotencyKey)
			if err != nil {
				return nil, err
			}
			if recorded == "processing" {
				return nil, domain.ErrIdempotencyKeyExists
			}
			// Key was recorded by a completed attempt; replay its result.
			return uc.reservationRepo.FindActive(ctx, input.StoreID, input.ProductID, input.UserID, now)
		}
		lockAcquired = true
	}

	var committed bool
	defer func() {
		if lockAcquired && !committed {
			_ = uc.idempotency.Del(context.Background(), input.IdempotencyKey)
		}
	}()

	stock, err := uc.stockRepo.Find(ctx, input.StoreID, input.ProductID)
	if err != nil {
		if errors.Is(err, domain.ErrStockNotFound) {
			uc.logger.Warn("reservation failed, store does not carry product",
				slog.String("store_id", input.StoreID),
				slog.String("product_id", input.ProductID),
			)
			return nil, domain.ErrProductNotCarried
		}
		return nil, err
	}
	if !stock.InStock() {
		uc.logger.Warn("reservation failed, store is out of stock",
			slog.String("store_id", input.StoreID),
			slog.String("product_id", input.ProductID),
		)
		return nil, domain.ErrOutOfStock
	}

	existing, err := uc.reservationRepo.FindActive(ctx, input.StoreID, input.ProductID, input.UserID, now)
	if err != nil && !errors.Is(err, domain.ErrReservationNotFound) {
		return nil, err
	}
	if existing != nil {
		uc.logger.Warn("reservation failed, user already holds one",
			slog.String("store_id", input.StoreID),
			slog.String("product_id", input.ProductID),
			slog.String("user_id", input.UserID),
			slog.Int64("held_amount", existing.Amount),
		)
		return nil, fmt.Errorf("already %d units reserved: %w", existing.Amount, domain.ErrReservationExists)
	}

	reservation, err := domain.NewReservation(input.StoreID, input.ProductID, input.UserID, input.Amount, uc.ttl, now)
	if err != nil {
		return nil, err
	}

	inserted, err := uc.reservationRepo.CreateIfCapacity(ctx, reservation, now)
	if err != nil {
		return nil, err
	}
	if !inserted {
		uc.logger.Warn("reservation failed, conditions not met at commit time",
			slog.String("store_id", input.StoreID),
			slog.String("product_id", input.ProductID),
			slog.String("user_id", input.UserID),
			slog.Int64("amount", input.Amount),
		)
		return nil, domain.ErrInsufficientStock
	}

	committed = true
	if input.IdempotencyKey != "" {
		_ = uc.idempotency.Set(ctx, input.IdempotencyKey, reservation.ID.String(), uc.idempotencyTTL)
	}

	uc.logger.Info("reservation created",
		slog.String("store_id", input.StoreID),
		slog.String("product_id", input.ProductID),
		slog.String("user_id", input.UserID),
		slog.Int64("amount", input.Amount),
		slog.Time("expires_at", reservation.ExpiresAt),
	)
	return reservation, nil
}

// Release deletes the reservation unconditionally; an expired but not yet
// swept row may be released too.
func (uc *reservationUseCase) Release(ctx context.Context, storeID, productID, userID string) error {
	rows, err := uc.reservationRepo.Delete(ctx, storeID, productID, userID)
	if err != nil {
		return err
	}
	if rows == 0 {
		return domain.ErrReservationNotFound
	}

	uc.logger.Info("reservation released",
		slog.String("store_id", storeID),
		slog.String("product_id", productID),
		slog.String("user_id", userID),
	)
	return nil
}

func (uc *reservationUseCase) PruneExpired(ctx context.Context) (int64, error) {
	return uc.reservationRepo.DeleteExpired(ctx, uc.now())
}
