package domain

import (
	"context"
	"time"
)

// Stock is the current stock level a store carries for a product.
// (StoreID, ProductID) is unique; Quantity is never negative.
type Stock struct {
	StoreID    string
	ProductID  string
	Quantity   int64
	CreatedAt  time.Time
	ModifiedAt time.Time
}

type StockRepository interface {
	Find(ctx context.Context, storeID, productID string) (*Stock, error)
	// List returns stock levels matching the filters. An empty filter slice
	// matches every value on that dimension.
	List(ctx context.Context, storeIDs, productIDs []string) ([]*Stock, error)
	// Upsert creates the row or overwrites quantity and modified_at for an
	// existing (storeID, productID) pair. Returns the number of rows written.
	Upsert(ctx context.Context, storeID, productID string, quantity int64, now time.Time) (int64, error)
	Delete(ctx context.Context, storeID, productID string) (int64, error)
}

func (s *Stock) InStock() bool {
	return s.Quantity > 0
}
