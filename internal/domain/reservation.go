package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Reservation is a time-limited hold of stock for a single user. A row is
// never updated after creation; it stops counting against stock the moment
// ExpiresAt passes and is physically removed by the prune sweep or an
// explicit release.
type Reservation struct {
	ID         uuid.UUID
	StoreID    string
	ProductID  string
	UserID     string
	Amount     int64
	ExpiresAt  time.Time
	CreatedAt  time.Time
	ModifiedAt time.Time
}

type ReservationRepository interface {
	// ListActive returns reservations with expires_at > now matching the
	// filters. An empty filter slice matches every value on that dimension.
	ListActive(ctx context.Context, storeIDs, productIDs, userIDs []string, now time.Time) ([]*Reservation, error)
	// FindActive returns the non-expired reservation held by userID for the
	// (storeID, productID) pair, or ErrReservationNotFound.
	FindActive(ctx context.Context, storeID, productID, userID string, now time.Time) (*Reservation, error)
	// CreateIfCapacity inserts the reservation only if the stock level for
	// its (storeID, productID) exceeds the sum of active reservations plus
	// the requested amount, evaluated by the store as a single statement.
	// Returns false when the capacity condition did not hold at commit time.
	CreateIfCapacity(ctx context.Context, reservation *Reservation, now time.Time) (bool, error)
	Delete(ctx context.Context, storeID, productID, userID string) (int64, error)
	// DeleteExpired removes every reservation with expires_at < now and
	// returns the number of rows removed.
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
}

// NewReservation builds a hold expiring ttl after now. The caller supplies
// now so the expiry and the capacity window in CreateIfCapacity derive from
// one clock read.
func NewReservation(storeID, productID, userID string, amount int64, ttl time.Duration, now time.Time) (*Reservation, error) {
	if amount < 0 {
		return nil, ErrInvalidAmount
	}

	id, err := uuid.NewV7()
	if err != nil {
		id = uuid.New()
	}

	now = now.UTC()
	return &Reservation{
		ID:         id,
		StoreID:    storeID,
		ProductID:  productID,
		UserID:     userID,
		Amount:     amount,
		ExpiresAt:  now.Add(ttl),
		CreatedAt:  now,
		ModifiedAt: now,
	}, nil
}

func (r *Reservation) Active(now time.Time) bool {
	return now.Before(r.ExpiresAt)
}

func (r *Reservation) Expired(now time.Time) bool {
	return !r.Active(now)
}
