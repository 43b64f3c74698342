package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/rwestland/store-stock/internal/domain"
)

type PostgresReservationRepository struct {
	pool *pgxpool.Pool
}

func NewPostgresReservationRepository(pool *pgxpool.Pool) *PostgresReservationRepository {
	return &PostgresReservationRepository{pool: pool}
}

func (r *PostgresReservationRepository) ListActive(ctx context.Context, storeIDs, productIDs, userIDs []string, now time.Time) ([]*domain.Reservation, error) {
	query := `
		SELECT id, store_id, product_id, user_id, reserved_stock, expires_at, created_at, modified_at
		FROM store_stock_reservation
	`
	args := []any{now.UTC()}
	conds := []string{"expires_at > $1"}
	if len(storeIDs) > 0 {
		args = append(args, storeIDs)
		conds = append(conds, fmt.Sprintf("store_id = ANY($%d)", len(args)))
	}
	if len(productIDs) > 0 {
		args = append(args, productIDs)
		conds = append(conds, fmt.Sprintf("product_id = ANY($%d)", len(args)))
	}
	if len(userIDs) > 0 {
		args = append(args, userIDs)
		conds = append(conds, fmt.Sprintf("user_id = ANY($%d)", len(args)))
	}
	query += " WHERE " + strings.Join(conds, " AND ") + " ORDER BY store_id, product_id, user_id"

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var reservations []*domain.Reservation
	for rows.Next() {
		var res domain.Reservation
		if err := rows.Scan(
			&res.ID,
			&res.StoreID,
			&res.ProductID,
			&res.UserID,
			&res.Amount,
			&res.ExpiresAt,
			&res.CreatedAt,
			&res.ModifiedAt,
		); err != nil {
			return nil, err
		}
		reservations = append(reservations, &res)
	}
	return reservations, rows.Err()
}

func (r *PostgresReservationRepository) FindActive(ctx context.Context, storeID, productID, userID string, now time.Time) (*domain.Reservation, error) {
	query := `
		SELECT id, store_id, product_id, user_id, reserved_stock, expires_at, created_at, modified_at
		FROM store_stock_reservation
		WHERE store_id = $1 AND product_id = $2 AND user_id = $3 AND expires_at > $4
	`
	var res domain.Reservation
	err := r.pool.QueryRow(ctx, query, storeID, productID, userID, now.UTC()).Scan(
		&res.ID,
		&res.StoreID,
		&res.ProductID,
		&res.UserID,
		&res.Amount,
		&res.ExpiresAt,
		&res.CreatedAt,
		&res.ModifiedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrReservationNotFound
		}
		return nil, err
	}
	return &res, nil
}

// CreateIfCapacity inserts the reservation through a conditional
// INSERT ... SELECT: the row is produced only while the summed stock level
// exceeds the summed active reservations plus the requested amount. The
// comparison and the insert execute as one statement, so two concurrent
// admissions can never both commit past the stock level; the losing one
// simply affects zero rows.
func (r *PostgresReservationRepository) CreateIfCapacity(ctx context.Context, reservation *domain.Reservation, now time.Time) (bool, error) {
	query := `
		INSERT INTO store_stock_reservation
			(id, store_id, product_id, user_id, reserved_stock, expires_at, created_at, modified_at)
		SELECT $1, $2, $3, $4, $5, $6, $7, $8
		WHERE (
			SELECT SUM(stock)
			FROM store_stock
			WHERE store_id = $2 AND product_id = $3
		) > (
			SELECT COALESCE(SUM(reserved_stock), 0)
			FROM store_stock_reservation
			WHERE store_id = $2 AND product_id = $3 AND expires_at > $9
		) + $5
	`
	result, err := r.pool.Exec(ctx, query,
		reservation.ID,
		reservation.StoreID,
		reservation.ProductID,
		reservation.UserID,
		reservation.Amount,
		reservation.ExpiresAt,
		reservation.CreatedAt,
		reservation.ModifiedAt,
		now.UTC(),
	)
	if err != nil {
		return false, err
	}
	return result.RowsAffected() > 0, nil
}

func (r *PostgresReservationRepository) Delete(ctx context.Context, storeID, productID, userID string) (int64, error) {
	query := `
		DELETE FROM store_stock_reservation
		WHERE store_id = $1 AND product_id = $2 AND user_id = $3
	`
	result, err := r.pool.Exec(ctx, query, storeID, productID, userID)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected(), nil
}

func (r *PostgresReservationRepository) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	query := `
		DELETE FROM store_stock_reservation
		WHERE expires_at < $1
	`
	result, err := r.pool.Exec(ctx, query, now.UTC())
	if err != nil {
		return 0, err
	}
	return result.RowsAffected(), nil
}
