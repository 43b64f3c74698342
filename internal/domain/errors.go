package domain

import "errors"

var (
	ErrStockNotFound       = errors.New("stock not found")
	ErrReservationNotFound = errors.New("reservation not found")
)

var (
	ErrInvalidQuantity = errors.New("stock level must be a non-negative number")
	ErrInvalidAmount   = errors.New("cannot reserve a negative amount")
)

var (
	ErrProductNotCarried = errors.New("store does not carry product")
	ErrOutOfStock        = errors.New("store is out of stock for product")
)

var (
	ErrReservationExists    = errors.New("user already holds a reservation for product")
	ErrInsufficientStock    = errors.New("insufficient stock available to reserve")
	ErrStockWriteConflict   = errors.New("stock write affected no rows")
	ErrIdempotencyKeyExists = errors.New("idempotency key already processed")
)
