package usecase

import (
	"context"
	"log/slog"
	"time"

	"github.com/rwestland/store-stock/internal/domain"
)

type StockUseCase interface {
	GetStock(ctx context.Context, storeID, productID string) (*domain.Stock, error)
	ListStock(ctx context.Context, storeIDs, productIDs []string) ([]*domain.Stock, error)
	SetStock(ctx context.Context, storeID, productID string, quantity int64) error
	DeleteStock(ctx context.Context, storeID, productID string) error
}

type stockUseCase struct {
	stockRepo domain.StockRepository
	logger    *slog.Logger
	now       func() time.Time
}

func NewStockUseCase(stockRepo domain.StockRepository, logger *slog.Logger) StockUseCase {
	return &stockUseCase{
		stockRepo: stockRepo,
		logger:    logger,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

func (uc *stockUseCase) GetStock(ctx context.Context, storeID, productID string) (*domain.Stock, error) {
	return uc.stockRepo.Find(ctx, storeID, productID)
}

func (uc *stockUseCase) ListStock(ctx context.Context, storeIDs, productIDs []string) ([]*domain.Stock, error) {
	return uc.stockRepo.List(ctx, storeIDs, productIDs)
}

// SetStock creates or overwrites the stock level for a (store, product)
// pair. A negative quantity is rejected before any write.
func (uc *stockUseCase) SetStock(ctx context.Context, storeID, productID string, quantity int64) error {
	if quantity < 0 {
		return domain.ErrInvalidQuantity
	}

	rows, err := uc.stockRepo.Upsert(ctx, storeID, productID, quantity, uc.now())
	if err != nil {
		return err
	}
	if rows == 0 {
		uc.logger.Warn("stock write affected no rows",
			slog.String("store_id", storeID),
			slog.String("product_id", productID),
		)
		return domain.ErrStockWriteConflict
	}

	uc.logger.Info("stock level set",
		slog.String("store_id", storeID),
		slog.String("product_id", productID),
		slog.Int64("quantity", quantity),
	)
	return nil
}

// DeleteStock removes the stock level. Reservations are independent rows
// and deliberately survive until they expire.
func (uc *stockUseCase) DeleteStock(ctx context.Context, storeID, productID string) error {
	rows, err := uc.stockRepo.Delete(ctx, storeID, productID)
	if err != nil {
		return err
	}
	if rows == 0 {
		return domain.ErrStockNotFound
	}

	uc.logger.Info("stock level deleted",
		slog.String("store_id", storeID),
		slog.String("product_id", productID),
	)
	return nil
}
