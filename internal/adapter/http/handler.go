package http

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/rwestland/store-stock/internal/domain"
	"github.com/rwestland/store-stock/internal/usecase"
)

type Handler struct {
	stockUC       usecase.StockUseCase
	reservationUC usecase.ReservationUseCase
	logger        *slog.Logger
}

func NewHandler(stockUC usecase.StockUseCase, reservationUC usecase.ReservationUseCase, logger *slog.Logger) *Handler {
	return &Handler{
		stockUC:       stockUC,
		reservationUC: reservationUC,
		logger:        logger,
	}
}

// Router returns an http.Handler with all stock and reservation routes.
func (h *Handler) Router() http.Handler {
	mux := http.NewServeMux()

	// Stock levels per store/product
	mux.HandleFunc("GET /stores/{storeId}/products/{productId}/stock", h.handleGetStock)
	mux.HandleFunc("PUT /stores/{storeId}/products/{productId}/stock", h.handleSetStock)
	mux.HandleFunc("DELETE /stores/{storeId}/products/{productId}/stock", h.handleDeleteStock)

	// Cross-store/product stock navigation
	mux.HandleFunc("GET /store-product-stock", h.handleListStock)

	// Reservations
	mux.HandleFunc("GET /stock-reservations", h.handleListReservations)
	mux.HandleFunc("POST /stores/{storeId}/products/{productId}/reservations", h.handleCreateReservation)
	mux.HandleFunc("DELETE /stores/{storeId}/products/{productId}/reservations/users/{userId}", h.handleDeleteReservation)

	mux.HandleFunc("GET /healthz", h.handleHealthz)

	return mux
}

type stockResponse struct {
	StoreID   string `json:"storeId"`
	ProductID string `json:"productId"`
	Stock     int64  `json:"stock"`
}

type setStockRequest struct {
	Stock int64 `json:"stock"`
}

type reservationResponse struct {
	StoreID   string    `json:"storeId"`
	ProductID string    `json:"productId"`
	UserID    string    `json:"userId"`
	Stock     int64     `json:"stock"`
	ExpiresAt time.Time `json:"expiresAt"`
}

type createReservationRequest struct {
	UserID          string `json:"userId"`
	AmountToReserve int64  `json:"amountToReserve"`
}

func (h *Handler) handleGetStock(w http.ResponseWriter, r *http.Request) {
	storeID := r.PathValue("storeId")
	productID := r.PathValue("productId")

	stock, err := h.stockUC.GetStock(r.Context(), storeID, productID)
	if err != nil {
		if errors.Is(err, domain.ErrStockNotFound) {
			writeError(w, http.StatusNotFound, "stock not found")
			return
		}
		h.serverError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, stockResponse{
		StoreID:   stock.StoreID,
		ProductID: stock.ProductID,
		Stock:     stock.Quantity,
	})
}

func (h *Handler) handleSetStock(w http.ResponseWriter, r *http.Request) {
	storeID := r.PathValue("storeId")
	productID := r.PathValue("productId")

	var req setStockRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := h.stockUC.SetStock(r.Context(), storeID, productID, req.Stock); err != nil {
		switch {
		case errors.Is(err, domain.ErrInvalidQuantity):
			writeError(w, http.StatusBadRequest, err.Error())
		case errors.Is(err, domain.ErrStockWriteConflict):
			writeError(w, http.StatusUnprocessableEntity, err.Error())
		default:
			h.serverError(w, r, err)
		}
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleDeleteStock(w http.ResponseWriter, r *http.Request) {
	storeID := r.PathValue("storeId")
	productID := r.PathValue("productId")

	if err := h.stockUC.DeleteStock(r.Context(), storeID, productID); err != nil {
		if errors.Is(err, domain.ErrStockNotFound) {
			writeError(w, http.StatusNotFound, "stock not found")
			return
		}
		h.serverError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleListStock(w http.ResponseWriter, r *http.Request) {
	storeIDs := queryList(r, "storeId")
	productIDs := queryList(r, "productId")

	levels, err := h.stockUC.ListStock(r.Context(), storeIDs, productIDs)
	if err != nil {
		h.serverError(w, r, err)
		return
	}

	out := make([]stockResponse, 0, len(levels))
	for _, s := range levels {
		out = append(out, stockResponse{
			StoreID:   s.StoreID,
			ProductID: s.ProductID,
			Stock:     s.Quantity,
		})
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *Handler) handleListReservations(w http.ResponseWriter, r *http.Request) {
	storeIDs := queryList(r, "storeId")
	productIDs := queryList(r, "productId")
	userIDs := queryList(r, "user")

	reservations, err := h.reservationUC.ListActiveReservations(r.Context(), storeIDs, productIDs, userIDs)
	if err != nil {
		h.serverError(w, r, err)
		return
	}

	out := make([]reservationResponse, 0, len(reservations))
	for _, res := range reservations {
		out = append(out, reservationResponse{
			StoreID:   res.StoreID,
			ProductID: res.ProductID,
			UserID:    res.UserID,
			Stock:     res.Amount,
			ExpiresAt: res.ExpiresAt,
		})
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *Handler) handleCreateReservation(w http.ResponseWriter, r *http.Request) {
	storeID := r.PathValue("storeId")
	productID := r.PathValue("productId")

	var req createReservationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.UserID == "" {
		writeError(w, http.StatusBadRequest, "userId is required")
		return
	}

	_, err := h.reservationUC.Reserve(r.Context(), usecase.ReserveInput{
		StoreID:        storeID,
		ProductID:      productID,
		UserID:         req.UserID,
		Amount:         req.AmountToReserve,
		IdempotencyKey: r.Header.Get("Idempotency-Key"),
	})
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrInvalidAmount):
			writeError(w, http.StatusBadRequest, err.Error())
		case errors.Is(err, domain.ErrProductNotCarried),
			errors.Is(err, domain.ErrOutOfStock),
			errors.Is(err, domain.ErrReservationExists),
			errors.Is(err, domain.ErrInsufficientStock),
			errors.Is(err, domain.ErrReservationNotFound):
			writeError(w, http.StatusUnprocessableEntity, err.Error())
		case errors.Is(err, domain.ErrIdempotencyKeyExists):
			writeError(w, http.StatusConflict, err.Error())
		default:
			h.serverError(w, r, err)
		}
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleDeleteReservation(w http.ResponseWriter, r *http.Request) {
	storeID := r.PathValue("storeId")
	productID := r.PathValue("productId")
	userID := r.PathValue("userId")

	if err := h.reservationUC.Release(r.Context(), storeID, productID, userID); err != nil {
		if errors.Is(err, domain.ErrReservationNotFound) {
			writeError(w, http.StatusNotFound, "reservation not found")
			return
		}
		h.serverError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleHealthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "serving"})
}

func (h *Handler) serverError(w http.ResponseWriter, r *http.Request, err error) {
	h.logger.Error("request failed",
		slog.String("method", r.Method),
		slog.String("path", r.URL.Path),
		slog.String("error", err.Error()),
	)
	writeError(w, http.StatusInternalServerError, "internal server error")
}

// queryList collects a repeatable query parameter, additionally splitting
// comma-separated values. Absent parameters yield an empty slice, which
// repositories treat as "match any".
func queryList(r *http.Request, name string) []string {
	var out []string
	for _, raw := range r.URL.Query()[name] {
		for _, v := range strings.Split(raw, ",") {
			if v = strings.TrimSpace(v); v != "" {
				out = append(out, v)
			}
		}
	}
	return out
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
