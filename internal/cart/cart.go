// Package cart holds the authoritative in-memory cart state and its mutation
// semantics. One Cart is owned by one session; persistence, validation, and
// audit are injected collaborators.
package cart

import (
	"context"
	"log/slog"
	"sync"

	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	"trolley/internal/audit"
	"trolley/internal/cart/snapshot"
	"trolley/internal/coupon"
	"trolley/internal/platform/metrics"
	"trolley/internal/pricing"
	"trolley/pkg/domain"
	dErrors "trolley/pkg/domain-errors"
)

var tracer = otel.Tracer("trolley/internal/cart")

// Cart is the mutable aggregate. All operations recompute the derived totals
// from scratch before returning; nothing is incrementally adjusted, so the
// derived fields can never drift from the items.
//
// Locking: mu guards everything. Only ApplyCoupon releases the lock mid
// operation (to await the validator); item mutations always run to completion
// synchronously and are never blocked by an in-flight validation.
type Cart struct {
	id domain.CartID

	mu         sync.Mutex
	items      []LineItem
	coupon     *AppliedCoupon
	validating bool
	// couponGen detects supersession: RemoveCoupon and ClearCart bump it, so
	// a validation that resolves after either is discarded instead of
	// repopulating state that has moved on.
	couponGen uint64

	tiers     []pricing.Tier
	validator coupon.Validator
	writer    *snapshot.Writer
	publisher audit.Publisher
	channel   func(context.Context) string
	logger    *slog.Logger
	metrics   *metrics.Metrics
}

// Option configures a Cart.
type Option func(*Cart)

// WithTiers supplies the quantity-tier table. The table is externally owned
// configuration; the cart only reads it.
func WithTiers(tiers []pricing.Tier) Option {
	return func(c *Cart) {
		c.tiers = tiers
	}
}

// WithValidator wires the coupon validation boundary.
func WithValidator(v coupon.Validator) Option {
	return func(c *Cart) {
		c.validator = v
	}
}

// WithSnapshotWriter wires fire-and-forget persistence.
func WithSnapshotWriter(w *snapshot.Writer) Option {
	return func(c *Cart) {
		c.writer = w
	}
}

// WithAuditPublisher wires the cart event sink.
func WithAuditPublisher(p audit.Publisher) Option {
	return func(c *Cart) {
		c.publisher = p
	}
}

// WithChannelResolver supplies the request-channel lookup for audit events,
// keeping the cart free of transport imports.
func WithChannelResolver(fn func(context.Context) string) Option {
	return func(c *Cart) {
		c.channel = fn
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(c *Cart) {
		c.logger = logger
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(c *Cart) {
		c.metrics = m
	}
}

// New creates an empty cart for the given session.
func New(id domain.CartID, opts ...Option) *Cart {
	c := &Cart{id: id}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// ID returns the cart's session identifier.
func (c *Cart) ID() domain.CartID {
	return c.id
}

// restore seeds state from a persisted snapshot. Called once before the cart
// is handed to its owner; invalid entries are dropped rather than trusted.
func (c *Cart) restore(snap *snapshot.Snapshot) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, it := range snap.Items {
		if it.ProductID == "" || it.Quantity < 1 || it.UnitPrice.IsNegative() {
			continue
		}
		c.items = append(c.items, LineItem{
			ProductID: it.ProductID,
			Name:      it.Name,
			UnitPrice: it.UnitPrice,
			Quantity:  it.Quantity,
			Variant:   it.Variant,
		})
	}
	if snap.Coupon != nil && !snap.Coupon.Discount.IsNegative() {
		c.coupon = &AppliedCoupon{
			Code:                 coupon.Normalize(snap.Coupon.Code),
			Discount:             snap.Coupon.Discount,
			SubtotalAtValidation: snap.Coupon.SubtotalAtValidation,
		}
	}
}

// AddItem merges into an existing line sharing (productID, variant) or
// appends a new one. Invalid input fails with a bad_request error and leaves
// state untouched.
func (c *Cart) AddItem(ctx context.Context, productID, name string, unitPrice decimal.Decimal, quantity int, variant string) (View, error) {
	ctx, span := tracer.Start(ctx, "cart.AddItem")
	defer span.End()

	if productID == "" {
		return c.View(), invalidItem(span, "product id is required")
	}
	if unitPrice.IsNegative() {
		return c.View(), invalidItem(span, "unit price must not be negative")
	}
	if quantity < 1 {
		return c.View(), invalidItem(span, "quantity must be at least 1")
	}

	c.mu.Lock()
	item := LineItem{ProductID: productID, Name: name, UnitPrice: unitPrice, Quantity: quantity, Variant: variant}
	if idx := c.indexOfLocked(item.key()); idx >= 0 {
		c.items[idx].Quantity += quantity
	} else {
		c.items = append(c.items, item)
	}
	view := c.viewLocked()
	c.persistLocked()
	c.mu.Unlock()

	if c.metrics != nil {
		c.metrics.ItemsAdded.Inc()
	}
	c.emit(ctx, audit.Event{
		Action:    audit.ActionItemAdded,
		ProductID: productID,
		Variant:   variant,
		Quantity:  quantity,
	})
	return view, nil
}

// RemoveItem deletes the matching line item. Removing an absent item is a
// no-op, not an error.
func (c *Cart) RemoveItem(ctx context.Context, productID, variant string) (View, error) {
	ctx, span := tracer.Start(ctx, "cart.RemoveItem")
	defer span.End()

	c.mu.Lock()
	idx := c.indexOfLocked(lineKey{productID: productID, variant: variant})
	removed := idx >= 0
	if removed {
		c.items = append(c.items[:idx], c.items[idx+1:]...)
		c.persistLocked()
	}
	view := c.viewLocked()
	c.mu.Unlock()

	if removed {
		if c.metrics != nil {
			c.metrics.ItemsRemoved.Inc()
		}
		c.emit(ctx, audit.Event{
			Action:    audit.ActionItemRemoved,
			ProductID: productID,
			Variant:   variant,
		})
	}
	return view, nil
}

// UpdateQuantity replaces a line's quantity. A quantity at or below zero
// removes the line instead of leaving a zero-quantity entry.
func (c *Cart) UpdateQuantity(ctx context.Context, productID, variant string, quantity int) (View, error) {
	if quantity <= 0 {
		return c.RemoveItem(ctx, productID, variant)
	}

	ctx, span := tracer.Start(ctx, "cart.UpdateQuantity")
	defer span.End()

	c.mu.Lock()
	idx := c.indexOfLocked(lineKey{productID: productID, variant: variant})
	if idx < 0 {
		view := c.viewLocked()
		c.mu.Unlock()
		err := dErrors.New(dErrors.CodeNotFound, "item is not in the cart")
		span.RecordError(err)
		return view, err
	}
	c.items[idx].Quantity = quantity
	view := c.viewLocked()
	c.persistLocked()
	c.mu.Unlock()

	c.emit(ctx, audit.Event{
		Action:    audit.ActionQuantityUpdated,
		ProductID: productID,
		Variant:   variant,
		Quantity:  quantity,
	})
	return view, nil
}

// ApplyCoupon validates a code against the current subtotal and stores the
// granted discount. Only one validation may be in flight per cart; item
// mutations proceed during the await. A validation superseded by RemoveCoupon
// or ClearCart is discarded without touching state.
func (c *Cart) ApplyCoupon(ctx context.Context, code string) (View, error) {
	ctx, span := tracer.Start(ctx, "cart.ApplyCoupon")
	defer span.End()

	normalized := coupon.Normalize(code)
	if normalized == "" {
		return c.View(), c.rejectCoupon(span, dErrors.New(dErrors.CodeInvalidCoupon, "coupon code is required"))
	}
	if c.validator == nil {
		return c.View(), c.rejectCoupon(span, dErrors.New(dErrors.CodeUnavailable, "coupon validation is not configured"))
	}

	c.mu.Lock()
	if c.validating {
		view := c.viewLocked()
		c.mu.Unlock()
		return view, c.rejectCoupon(span, dErrors.New(dErrors.CodeValidationInProgress, "a coupon validation is already in flight"))
	}
	if c.coupon != nil && c.coupon.Code == normalized {
		view := c.viewLocked()
		c.mu.Unlock()
		return view, c.rejectCoupon(span, dErrors.New(dErrors.CodeAlreadyApplied, "coupon is already applied"))
	}
	gen := c.couponGen
	orderValue := c.subtotalLocked()
	c.validating = true
	c.mu.Unlock()

	result, err := c.validator.Validate(ctx, normalized, orderValue)

	c.mu.Lock()
	c.validating = false
	if c.couponGen != gen {
		// The cart moved on (coupon removed or cart cleared) while the
		// validation was in flight. Drop the result, whatever it was.
		view := c.viewLocked()
		c.mu.Unlock()
		return view, c.rejectCoupon(span, dErrors.New(dErrors.CodeValidationSuperseded, "cart changed during validation; coupon not applied"))
	}
	if err != nil {
		// Rejection is an expected outcome: report it, keep the previous
		// coupon (if any) intact.
		view := c.viewLocked()
		c.mu.Unlock()
		return view, c.rejectCoupon(span, err)
	}
	c.coupon = &AppliedCoupon{
		Code:                 result.Code,
		Discount:             result.Discount,
		SubtotalAtValidation: orderValue,
	}
	view := c.viewLocked()
	c.persistLocked()
	c.mu.Unlock()

	if c.metrics != nil {
		c.metrics.CouponsApplied.Inc()
	}
	c.emit(ctx, audit.Event{
		Action: audit.ActionCouponApplied,
		Amount: result.Discount.String(),
	})
	return view, nil
}

// RemoveCoupon clears the applied coupon. Always succeeds; any in-flight
// validation is superseded.
func (c *Cart) RemoveCoupon(ctx context.Context) (View, error) {
	ctx, span := tracer.Start(ctx, "cart.RemoveCoupon")
	defer span.End()

	c.mu.Lock()
	removed := c.coupon != nil
	c.coupon = nil
	c.couponGen++
	view := c.viewLocked()
	c.persistLocked()
	c.mu.Unlock()

	if removed {
		c.emit(ctx, audit.Event{Action: audit.ActionCouponRemoved})
	}
	return view, nil
}

// ClearCart resets to empty state and persists the empty snapshot. Always
// succeeds; any in-flight validation is superseded.
func (c *Cart) ClearCart(ctx context.Context) (View, error) {
	ctx, span := tracer.Start(ctx, "cart.ClearCart")
	defer span.End()

	c.mu.Lock()
	c.items = nil
	c.coupon = nil
	c.couponGen++
	view := c.viewLocked()
	c.persistLocked()
	c.mu.Unlock()

	c.emit(ctx, audit.Event{Action: audit.ActionCartCleared})
	return view, nil
}

// View returns the full derived state.
func (c *Cart) View() View {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.viewLocked()
}

// Items returns a copy of the line items in insertion order.
func (c *Cart) Items() []LineItem {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]LineItem, len(c.items))
	copy(out, c.items)
	return out
}

// ItemCount is the sum of all line quantities.
func (c *Cart) ItemCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.itemCountLocked()
}

// Subtotal is the sum of tier-discounted line totals.
func (c *Cart) Subtotal() decimal.Decimal {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.subtotalLocked()
}

// Total is the subtotal less the coupon discount, floored at zero.
func (c *Cart) Total() decimal.Decimal {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.totalLocked()
}

// Coupon returns the applied coupon, or nil.
func (c *Cart) Coupon() *AppliedCoupon {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.coupon == nil {
		return nil
	}
	out := *c.coupon
	return &out
}

// CouponStale reports whether the subtotal has changed since the applied
// coupon was validated. The cart never revalidates on its own; the caller
// decides whether to prompt a re-apply.
func (c *Cart) CouponStale() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.couponStaleLocked()
}

func (c *Cart) indexOfLocked(key lineKey) int {
	for i, it := range c.items {
		if it.key() == key {
			return i
		}
	}
	return -1
}

func (c *Cart) itemCountLocked() int {
	count := 0
	for _, it := range c.items {
		count += it.Quantity
	}
	return count
}

// subtotalLocked sums tier-discounted line totals. This is the single place
// that applies the fixed ordering: tier discount per line first, coupon once
// afterwards in totalLocked.
func (c *Cart) subtotalLocked() decimal.Decimal {
	subtotal := decimal.Zero
	for _, it := range c.items {
		percent := pricing.TierDiscountPercent(it.Quantity, c.tiers)
		subtotal = subtotal.Add(pricing.LineTotal(it.UnitPrice, it.Quantity, percent).Round(2))
	}
	return subtotal
}

func (c *Cart) totalLocked() decimal.Decimal {
	subtotal := c.subtotalLocked()
	if c.coupon == nil {
		return subtotal
	}
	total := subtotal.Sub(c.coupon.Discount)
	if total.IsNegative() {
		return decimal.Zero
	}
	return total
}

func (c *Cart) couponStaleLocked() bool {
	return c.coupon != nil && !c.coupon.SubtotalAtValidation.Equal(c.subtotalLocked())
}

func (c *Cart) viewLocked() View {
	lines := make([]PricedLine, 0, len(c.items))
	for _, it := range c.items {
		percent := pricing.TierDiscountPercent(it.Quantity, c.tiers)
		lines = append(lines, PricedLine{
			LineItem:               it,
			DiscountPercent:        percent,
			UnitPriceAfterDiscount: pricing.UnitPriceAfterDiscount(it.UnitPrice, percent),
			LineTotal:              pricing.LineTotal(it.UnitPrice, it.Quantity, percent).Round(2),
		})
	}
	var applied *AppliedCoupon
	if c.coupon != nil {
		cp := *c.coupon
		applied = &cp
	}
	return View{
		Lines:       lines,
		ItemCount:   c.itemCountLocked(),
		Subtotal:    c.subtotalLocked(),
		Total:       c.totalLocked(),
		Coupon:      applied,
		CouponStale: c.couponStaleLocked(),
	}
}

// persistLocked schedules a snapshot write for the current state. Must be
// called while holding mu so snapshots enqueue in mutation order.
func (c *Cart) persistLocked() {
	if c.writer == nil {
		return
	}
	snap := &snapshot.Snapshot{Items: make([]snapshot.Item, 0, len(c.items))}
	for _, it := range c.items {
		snap.Items = append(snap.Items, snapshot.Item{
			ProductID: it.ProductID,
			Name:      it.Name,
			UnitPrice: it.UnitPrice,
			Quantity:  it.Quantity,
			Variant:   it.Variant,
		})
	}
	if c.coupon != nil {
		snap.Coupon = &snapshot.Coupon{
			Code:                 c.coupon.Code,
			Discount:             c.coupon.Discount,
			SubtotalAtValidation: c.coupon.SubtotalAtValidation,
		}
	}
	c.writer.Enqueue(c.id, snap)
}

func (c *Cart) emit(ctx context.Context, event audit.Event) {
	event.CartID = c.id.String()
	if c.channel != nil {
		event.Channel = c.channel(ctx)
	}
	audit.Emit(ctx, c.publisher, c.logger, event)
}

// rejectCoupon records the rejection on the span and in metrics, then hands
// the error back unchanged for the caller to surface.
func (c *Cart) rejectCoupon(span trace.Span, err error) error {
	span.RecordError(err)
	if c.metrics != nil {
		c.metrics.IncCouponRejection(string(dErrors.CodeOf(err)))
	}
	return err
}

func invalidItem(span trace.Span, msg string) error {
	err := dErrors.New(dErrors.CodeBadRequest, "invalid item: "+msg)
	span.RecordError(err)
	return err
}
