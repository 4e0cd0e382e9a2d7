// Package handler exposes the cart operations over HTTP. Handlers validate
// transport concerns (parsing, status mapping) and delegate every decision
// about cart semantics to the cart package.
package handler

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"trolley/internal/cart"
	"trolley/internal/platform/metrics"
	"trolley/internal/platform/middleware"
	"trolley/pkg/domain"
	dErrors "trolley/pkg/domain-errors"
)

// Carts resolves a session's cart. Satisfied by *cart.Manager.
type Carts interface {
	Get(ctx context.Context, id domain.CartID) (*cart.Cart, error)
}

// Handler handles cart endpoints.
type Handler struct {
	carts    Carts
	logger   *slog.Logger
	metrics  *metrics.Metrics
	tokenKey []byte
}

// New creates a cart Handler. tokenKey signs the cart session token.
func New(carts Carts, tokenKey []byte, logger *slog.Logger, m *metrics.Metrics) *Handler {
	return &Handler{
		carts:    carts,
		logger:   logger,
		metrics:  m,
		tokenKey: tokenKey,
	}
}

// Register registers the cart routes with the chi router.
func (h *Handler) Register(r chi.Router) {
	cartRouter := chi.NewRouter()
	cartRouter.Use(middleware.Recovery(h.logger))
	cartRouter.Use(middleware.RequestID)
	cartRouter.Use(middleware.Logger(h.logger))
	cartRouter.Use(middleware.Timeout(30 * time.Second))
	cartRouter.Use(middleware.ContentTypeJSON)
	cartRouter.Use(middleware.LatencyMiddleware(h.metrics))
	cartRouter.Use(middleware.CartToken(h.tokenKey, h.logger))
	cartRouter.Use(middleware.DeviceDetection)

	cartRouter.Get("/cart", h.handleGetCart)
	cartRouter.Delete("/cart", h.handleClearCart)
	cartRouter.Post("/cart/items", h.handleAddItem)
	cartRouter.Put("/cart/items/{productID}", h.handleUpdateQuantity)
	cartRouter.Delete("/cart/items/{productID}", h.handleRemoveItem)
	cartRouter.Post("/cart/coupon", h.handleApplyCoupon)
	cartRouter.Delete("/cart/coupon", h.handleRemoveCoupon)

	r.Mount("/", cartRouter)
}

// sessionCart resolves the cart pinned by the session token middleware.
func (h *Handler) sessionCart(w http.ResponseWriter, r *http.Request) (*cart.Cart, bool) {
	ctx := r.Context()
	cartID := middleware.GetCartID(ctx)
	if cartID.IsNil() {
		// Should never happen if CartToken middleware is configured.
		h.logger.ErrorContext(ctx, "cart id missing from context despite token middleware",
			"request_id", middleware.GetRequestID(ctx),
		)
		writeError(w, dErrors.New(dErrors.CodeInternal, "cart session error"))
		return nil, false
	}

	c, err := h.carts.Get(ctx, cartID)
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to resolve cart",
			"request_id", middleware.GetRequestID(ctx),
			"cart_id", cartID.String(),
			"error", err.Error(),
		)
		writeError(w, dErrors.New(dErrors.CodeInternal, "failed to resolve cart"))
		return nil, false
	}
	return c, true
}

func (h *Handler) handleGetCart(w http.ResponseWriter, r *http.Request) {
	c, ok := h.sessionCart(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, c.View())
}

type addItemRequest struct {
	ProductID string          `json:"product_id"`
	Name      string          `json:"name"`
	UnitPrice decimal.Decimal `json:"unit_price"`
	Quantity  *int            `json:"quantity"`
	Variant   string          `json:"variant"`
}

func (h *Handler) handleAddItem(w http.ResponseWriter, r *http.Request) {
	c, ok := h.sessionCart(w, r)
	if !ok {
		return
	}

	var req addItemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}
	// Quantity defaults to 1 when omitted; an explicit 0 is still invalid.
	quantity := 1
	if req.Quantity != nil {
		quantity = *req.Quantity
	}

	view, err := c.AddItem(r.Context(), req.ProductID, req.Name, req.UnitPrice, quantity, req.Variant)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

type updateQuantityRequest struct {
	Quantity *int `json:"quantity"`
}

func (h *Handler) handleUpdateQuantity(w http.ResponseWriter, r *http.Request) {
	c, ok := h.sessionCart(w, r)
	if !ok {
		return
	}

	var req updateQuantityRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Quantity == nil {
		writeError(w, dErrors.New(dErrors.CodeBadRequest, "quantity is required"))
		return
	}

	view, err := c.UpdateQuantity(r.Context(),
		chi.URLParam(r, "productID"), r.URL.Query().Get("variant"), *req.Quantity)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

func (h *Handler) handleRemoveItem(w http.ResponseWriter, r *http.Request) {
	c, ok := h.sessionCart(w, r)
	if !ok {
		return
	}

	view, err := c.RemoveItem(r.Context(),
		chi.URLParam(r, "productID"), r.URL.Query().Get("variant"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

type applyCouponRequest struct {
	Code string `json:"code"`
}

func (h *Handler) handleApplyCoupon(w http.ResponseWriter, r *http.Request) {
	c, ok := h.sessionCart(w, r)
	if !ok {
		return
	}

	var req applyCouponRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}

	view, err := c.ApplyCoupon(r.Context(), req.Code)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

func (h *Handler) handleRemoveCoupon(w http.ResponseWriter, r *http.Request) {
	c, ok := h.sessionCart(w, r)
	if !ok {
		return
	}

	view, err := c.RemoveCoupon(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

func (h *Handler) handleClearCart(w http.ResponseWriter, r *http.Request) {
	c, ok := h.sessionCart(w, r)
	if !ok {
		return
	}

	view, err := c.ClearCart(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}
