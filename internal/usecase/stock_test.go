package usecase

import (
	"context"
	"errors"
	"testing"

	"github.com/rwestland/store-stock/internal/domain"
)

func TestStockUseCase_SetStock(t *testing.T) {
	tests := []struct {
		name     string
		quantity int64
		setup    func(*mockStockRepo)
		wantErr  error
	}{
		{
			name:     "creates stock level",
			quantity: 50,
		},
		{
			name:     "overwrites existing stock level",
			quantity: 126,
			setup: func(m *mockStockRepo) {
				m.seed("store-1", "product-1", 50)
			},
		},
		{
			name:     "accepts zero",
			quantity: 0,
		},
		{
			name:     "rejects negative quantity",
			quantity: -1,
			wantErr:  domain.ErrInvalidQuantity,
		},
		{
			name:     "surfaces a write that affected no rows",
			quantity: 10,
			setup: func(m *mockStockRepo) {
				var zero int64
				m.upsertRows = &zero
			},
			wantErr: domain.ErrStockWriteConflict,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := newMockStockRepo()
			if tt.setup != nil {
				tt.setup(repo)
			}
			uc := NewStockUseCase(repo, discardLogger())

			err := uc.SetStock(context.Background(), "store-1", "product-1", tt.quantity)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("SetStock() error = %v, want %v", err, tt.wantErr)
			}

			if tt.wantErr == nil {
				got, ok := repo.quantity("store-1", "product-1")
				if !ok || got != tt.quantity {
					t.Errorf("stored quantity = %d (exists=%v), want %d", got, ok, tt.quantity)
				}
			}
			if errors.Is(tt.wantErr, domain.ErrInvalidQuantity) {
				if _, ok := repo.quantity("store-1", "product-1"); ok {
					t.Error("invalid quantity must be rejected before any write")
				}
			}
		})
	}
}

func TestStockUseCase_SetStock_UpsertKeepsSingleRow(t *testing.T) {
	repo := newMockStockRepo()
	uc := NewStockUseCase(repo, discardLogger())
	ctx := context.Background()

	if err := uc.SetStock(ctx, "store-1", "product-1", 50); err != nil {
		t.Fatalf("first set: %v", err)
	}
	if err := uc.SetStock(ctx, "store-1", "product-1", 126); err != nil {
		t.Fatalf("second set: %v", err)
	}

	levels, err := uc.ListStock(ctx, nil, nil)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(levels) != 1 {
		t.Fatalf("rows = %d, want 1 (upsert must not duplicate)", len(levels))
	}
	if levels[0].Quantity != 126 {
		t.Errorf("quantity = %d, want 126", levels[0].Quantity)
	}
}

func TestStockUseCase_DeleteStock(t *testing.T) {
	repo := newMockStockRepo()
	repo.seed("store-1", "product-1", 50)
	uc := NewStockUseCase(repo, discardLogger())
	ctx := context.Background()

	if err := uc.DeleteStock(ctx, "store-1", "product-1"); err != nil {
		t.Fatalf("first delete: %v", err)
	}

	// Repeated delete is safe but reports not found.
	if err := uc.DeleteStock(ctx, "store-1", "product-1"); !errors.Is(err, domain.ErrStockNotFound) {
		t.Fatalf("second delete error = %v, want %v", err, domain.ErrStockNotFound)
	}
	if err := uc.DeleteStock(ctx, "store-9", "missing"); !errors.Is(err, domain.ErrStockNotFound) {
		t.Fatalf("delete of unknown pair error = %v, want %v", err, domain.ErrStockNotFound)
	}
}

func TestStockUseCase_GetStock(t *testing.T) {
	repo := newMockStockRepo()
	repo.seed("store-1", "product-1", 50)
	uc := NewStockUseCase(repo, discardLogger())
	ctx := context.Background()

	stock, err := uc.GetStock(ctx, "store-1", "product-1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if stock.Quantity != 50 {
		t.Errorf("quantity = %d, want 50", stock.Quantity)
	}

	if _, err := uc.GetStock(ctx, "store-1", "missing"); !errors.Is(err, domain.ErrStockNotFound) {
		t.Fatalf("get of unknown pair error = %v, want %v", err, domain.ErrStockNotFound)
	}
}

func TestStockUseCase_ListStock_Filters(t *testing.T) {
	repo := newMockStockRepo()
	repo.seed("store-1", "product-10", 50)
	repo.seed("store-2", "product-10", 73)
	repo.seed("store-3", "product-10", 21)
	repo.seed("store-1", "product-20", 99)
	repo.seed("store-3", "product-20", 5)
	repo.seed("store-2", "product-30", 12)

	uc := NewStockUseCase(repo, discardLogger())
	ctx := context.Background()

	tests := []struct {
		name       string
		storeIDs   []string
		productIDs []string
		wantCount  int
	}{
		{"no filters returns everything", nil, nil, 6},
		{"single store", []string{"store-3"}, nil, 2},
		{"store and product combined", []string{"store-3"}, []string{"product-10"}, 1},
		{"two products across stores", nil, []string{"product-20", "product-30"}, 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			levels, err := uc.ListStock(ctx, tt.storeIDs, tt.productIDs)
			if err != nil {
				t.Fatalf("list: %v", err)
			}
			if len(levels) != tt.wantCount {
				t.Errorf("count = %d, want %d", len(levels), tt.wantCount)
			}
		})
	}

	t.Run("store-3 quantities", func(t *testing.T) {
		levels, err := uc.ListStock(ctx, []string{"store-3"}, nil)
		if err != nil {
			t.Fatalf("list: %v", err)
		}
		got := map[string]int64{}
		for _, s := range levels {
			got[s.ProductID] = s.Quantity
		}
		if got["product-10"] != 21 || got["product-20"] != 5 {
			t.Errorf("store-3 levels = %v, want product-10=21 product-20=5", got)
		}
	})
}
