package usecase

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/rwestland/store-stock/internal/domain"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type stockKey struct {
	store   string
	product string
}

// mockStockRepo is a test double for domain.StockRepository backed by a map.
type mockStockRepo struct {
	mu         sync.Mutex
	levels     map[stockKey]*domain.Stock
	findErr    error
	upsertRows *int64 // overrides the reported rows-affected when set
}

func newMockStockRepo() *mockStockRepo {
	return &mockStockRepo{levels: make(map[stockKey]*domain.Stock)}
}

func (m *mockStockRepo) Find(ctx context.Context, storeID, productID string) (*domain.Stock, error) {
	if m.findErr != nil {
		return nil, m.findErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.levels[stockKey{storeID, productID}]
	if !ok {
		return nil, domain.ErrStockNotFound
	}
	cp := *s
	return &cp, nil
}

func (m *mockStockRepo) List(ctx context.Context, storeIDs, productIDs []string) ([]*domain.Stock, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*domain.Stock
	for _, s := range m.levels {
		if len(storeIDs) > 0 && !slices.Contains(storeIDs, s.StoreID) {
			continue
		}
		if len(productIDs) > 0 && !slices.Contains(productIDs, s.ProductID) {
			continue
		}
		cp := *s
		out = append(out, &cp)
	}
	return out, nil
}

func (m *mockStockRepo) Upsert(ctx context.Context, storeID, productID string, quantity int64, now time.Time) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.upsertRows != nil {
		return *m.upsertRows, nil
	}
	key := stockKey{storeID, productID}
	if existing, ok := m.levels[key]; ok {
		existing.Quantity = quantity
		existing.ModifiedAt = now
	} else {
		m.levels[key] = &domain.Stock{
			StoreID:    storeID,
			ProductID:  productID,
			Quantity:   quantity,
			CreatedAt:  now,
			ModifiedAt: now,
		}
	}
	return 1, nil
}

func (m *mockStockRepo) Delete(ctx context.Context, storeID, productID string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	key := stockKey{storeID, productID}
	if _, ok := m.levels[key]; !ok {
		return 0, nil
	}
	delete(m.levels, key)
	return 1, nil
}

func (m *mockStockRepo) quantity(storeID, productID string) (int64, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.levels[stockKey{storeID, productID}]
	if !ok {
		return 0, false
	}
	return s.Quantity, true
}

func (m *mockStockRepo) seed(storeID, productID string, quantity int64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	now := time.Now().UTC()
	m.levels[stockKey{storeID, productID}] = &domain.Stock{
		StoreID:    storeID,
		ProductID:  productID,
		Quantity:   quantity,
		CreatedAt:  now,
		ModifiedAt: now,
	}
}

// mockReservationRepo mimics the conditional-insert contract: the capacity
// check and the insert happen under one lock, the way the database evaluates
// them in one statement.
type mockReservationRepo struct {
	mu           sync.Mutex
	stocks       *mockStockRepo
	reservations map[uuid.UUID]*domain.Reservation
	createErr    error
}

func newMockReservationRepo(stocks *mockStockRepo) *mockReservationRepo {
	return &mockReservationRepo{
		stocks:       stocks,
		reservations: make(map[uuid.UUID]*domain.Reservation),
	}
}

func (m *mockReservationRepo) ListActive(ctx context.Context, storeIDs, productIDs, userIDs []string, now time.Time) ([]*domain.Reservation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*domain.Reservation
	for _, res := range m.reservations {
		if res.Expired(now) {
			continue
		}
		if len(storeIDs) > 0 && !slices.Contains(storeIDs, res.StoreID) {
			continue
		}
		if len(productIDs) > 0 && !slices.Contains(productIDs, res.ProductID) {
			continue
		}
		if len(userIDs) > 0 && !slices.Contains(userIDs, res.UserID) {
			continue
		}
		cp := *res
		out = append(out, &cp)
	}
	return out, nil
}

func (m *mockReservationRepo) FindActive(ctx context.Context, storeID, productID, userID string, now time.Time) (*domain.Reservation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, res := range m.reservations {
		if res.StoreID == storeID && res.ProductID == productID && res.UserID == userID && res.Active(now) {
			cp := *res
			return &cp, nil
		}
	}
	return nil, domain.ErrReservationNotFound
}

func (m *mockReservationRepo) CreateIfCapacity(ctx context.Context, reservation *domain.Reservation, now time.Time) (bool, error) {
	if m.createErr != nil {
		return false, m.createErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	stock, ok := m.stocks.quantity(reservation.StoreID, reservation.ProductID)
	if !ok {
		return false, nil
	}

	var reserved int64
	for _, res := range m.reservations {
		if res.StoreID == reservation.StoreID && res.ProductID == reservation.ProductID && res.Active(now) {
			reserved += res.Amount
		}
	}
	if stock <= reserved+reservation.Amount {
		return false, nil
	}

	cp := *reservation
	m.reservations[reservation.ID] = &cp
	return true, nil
}

func (m *mockReservationRepo) Delete(ctx context.Context, storeID, productID, userID string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var deleted int64
	for id, res := range m.reservations {
		if res.StoreID == storeID && res.ProductID == productID && res.UserID == userID {
			delete(m.reservations, id)
			deleted++
		}
	}
	return deleted, nil
}

func (m *mockReservationRepo) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var deleted int64
	for id, res := range m.reservations {
		if res.ExpiresAt.Before(now) {
			delete(m.reservations, id)
			deleted++
		}
	}
	return deleted, nil
}

func (m *mockReservationRepo) seed(res *domain.Reservation) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.reservations[res.ID] = res
}

func (m *mockReservationRepo) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.reservations)
}

// mockIdempotencyStore is an in-memory stand-in for the Redis store.
type mockIdempotencyStore struct {
	mu     sync.Mutex
	values map[string]string
}

var errKeyMissing = errors.New("key not found")

func newMockIdempotencyStore() *mockIdempotencyStore {
	return &mockIdempotencyStore{values: make(map[string]string)}
}

func (m *mockIdempotencyStore) Get(ctx context.Context, key string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	val, ok := m.values[key]
	if !ok {
		return "", errKeyMissing
	}
	return val, nil
}

func (m *mockIdempotencyStore) SetNX(ctx context.Context, key string, value string, ttl time.Duration) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.values[key]; ok {
		return false, nil
	}
	m.values[key] = value
	return true, nil
}

func (m *mockIdempotencyStore) Set(ctx context.Context, key string, value string, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.values[key] = value
	return nil
}

func (m *mockIdempotencyStore) Del(ctx context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.values, key)
	return nil
}
