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

type PostgresStockRepository struct {
	pool *pgxpool.Pool
}

func NewPostgresStockRepository(pool *pgxpool.Pool) *PostgresStockRepository {
	return &PostgresStockRepository{pool: pool}
}

func (r *PostgresStockRepository) Find(ctx context.Context, storeID, productID string) (*domain.Stock, error) {
	query := `
		SELECT store_id, product_id, stock, created_at, modified_at
		FROM store_stock
		WHERE store_id = $1 AND product_id = $2
	`
	var s domain.Stock
	err := r.pool.QueryRow(ctx, query, storeID, productID).Scan(
		&s.StoreID,
		&s.ProductID,
		&s.Quantity,
		&s.CreatedAt,
		&s.ModifiedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrStockNotFound
		}
		return nil, err
	}
	return &s, nil
}

func (r *PostgresStockRepository) List(ctx context.Context, storeIDs, productIDs []string) ([]*domain.Stock, error) {
	query := `
		SELECT store_id, product_id, stock, created_at, modified_at
		FROM store_stock
	`
	var conds []string
	var args []any
	if len(storeIDs) > 0 {
		args = append(args, storeIDs)
		conds = append(conds, fmt.Sprintf("store_id = ANY($%d)", len(args)))
	}
	if len(productIDs) > 0 {
		args = append(args, productIDs)
		conds = append(conds, fmt.Sprintf("product_id = ANY($%d)", len(args)))
	}
	if len(conds) > 0 {
		query += " WHERE " + strings.Join(conds, " AND ")
	}
	query += " ORDER BY store_id, product_id"

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var levels []*domain.Stock
	for rows.Next() {
		var s domain.Stock
		if err := rows.Scan(&s.StoreID, &s.ProductID, &s.Quantity, &s.CreatedAt, &s.ModifiedAt); err != nil {
			return nil, err
		}
		levels = append(levels, &s)
	}
	return levels, rows.Err()
}

func (r *PostgresStockRepository) Upsert(ctx context.Context, storeID, productID string, quantity int64, now time.Time) (int64, error) {
	query := `
		INSERT INTO store_stock (store_id, product_id, stock, created_at, modified_at)
		VALUES ($1, $2, $3, $4, $4)
		ON CONFLICT (store_id, product_id)
		DO UPDATE SET stock = EXCLUDED.stock, modified_at = EXCLUDED.modified_at
	`
	result, err := r.pool.Exec(ctx, query, storeID, productID, quantity, now.UTC())
	if err != nil {
		return 0, err
	}
	return result.RowsAffected(), nil
}

func (r *PostgresStockRepository) Delete(ctx context.Context, storeID, productID string) (int64, error) {
	query := `
		DELETE FROM store_stock
		WHERE store_id = $1 AND product_id = $2
	`
	result, err := r.pool.Exec(ctx, query, storeID, productID)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected(), nil
}
