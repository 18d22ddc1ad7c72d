package trade

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/uhyunpark/papertrader/pkg/util"
)

// Options configures a new Engine. Zero values fall back to defaults.
type Options struct {
	Clock        util.Clock
	Logger       *zap.Logger
	Journal      Journal
	StartingCash map[Currency]decimal.Decimal // nil = DefaultStartingCash()
	SettleMin    time.Duration
	SettleMax    time.Duration
}

// DefaultStartingCash returns the demo account's opening fiat balances
func DefaultStartingCash() map[Currency]decimal.Decimal {
	return map[Currency]decimal.Decimal{
		USD: decimal.NewFromInt(100_000),
		JPY: decimal.NewFromInt(10_000_000),
		CNY: decimal.NewFromInt(500_000),
	}
}

// Engine is the single demo account: ledger, positions, orders and the
// settlement queue, all mutated under one lock.
//
// Every operation runs as one critical section. Snapshots are built and
// queued inside it, then delivered after mu is released, in mutation order.
type Engine struct {
	mu sync.Mutex

	clock   util.Clock
	logger  *zap.Logger
	journal Journal

	ledger    *Ledger
	positions *PositionBook
	orders    *OrderBook
	sched     *Scheduler
	pub       *Publisher
}

// New creates an engine with fresh state
func New(opts Options) *Engine {
	if opts.Clock == nil {
		opts.Clock = util.RealClock{}
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if opts.Journal == nil {
		opts.Journal = NopJournal{}
	}
	if opts.StartingCash == nil {
		opts.StartingCash = DefaultStartingCash()
	}
	if opts.SettleMin <= 0 {
		opts.SettleMin = DefaultSettleMin
	}
	if opts.SettleMax <= 0 {
		opts.SettleMax = DefaultSettleMax
	}
	logger := opts.Logger.Named("engine")
	return &Engine{
		clock:     opts.Clock,
		logger:    logger,
		journal:   opts.Journal,
		ledger:    NewLedger(opts.StartingCash, opts.Clock.Now()),
		positions: NewPositionBook(),
		orders:    NewOrderBook(),
		sched:     NewScheduler(opts.SettleMin, opts.SettleMax),
		pub:       NewPublisher(logger),
	}
}

// ==============================
// Lock helpers
// ==============================

func (e *Engine) snapshotLocked(now time.Time) Snapshot {
	return project(now, e.ledger, e.positions, e.orders)
}

// unlock releases mu without broadcasting (failed operations, reads)
func (e *Engine) unlock() {
	e.mu.Unlock()
}

// unlockAndPublish queues snap while mu is still held, releases mu, then
// drains the queue with no engine lock held.
func (e *Engine) unlockAndPublish(snap Snapshot) {
	e.pub.Enqueue(snap)
	e.mu.Unlock()
	e.pub.Drain()
}

func (e *Engine) record(kind EventKind, o *Order, now time.Time) {
	ev := OrderEvent{OrderID: o.ID, Kind: kind, At: now, Order: o.Record()}
	if err := e.journal.Record(ev); err != nil {
		e.logger.Warn("journal_write_failed", zap.String("order_id", o.ID), zap.String("kind", string(kind)), zap.Error(err))
	}
}

// ==============================
// Reads
// ==============================

// GetAccountSnapshot returns the current account projection
func (e *Engine) GetAccountSnapshot() Snapshot {
	e.mu.Lock()
	defer e.unlock()
	return e.snapshotLocked(e.clock.Now())
}

// SubscribeAccountSnapshot registers fn and immediately replays the current
// snapshot to it. The returned func unsubscribes.
func (e *Engine) SubscribeAccountSnapshot(fn Subscriber) (unsubscribe func()) {
	e.mu.Lock()
	id := e.pub.add(fn)
	e.pub.enqueueTo(id, e.snapshotLocked(e.clock.Now()))
	e.mu.Unlock()
	e.pub.Drain()

	var once sync.Once
	return func() { once.Do(func() { e.pub.remove(id) }) }
}

// SettlementTime returns when a pending limit order is due to fill
func (e *Engine) SettlementTime(orderID string) (time.Time, bool) {
	e.mu.Lock()
	defer e.unlock()
	return e.sched.FireAt(orderID)
}

// PendingCount returns how many limit orders wait for settlement
func (e *Engine) PendingCount() int {
	e.mu.Lock()
	defer e.unlock()
	return e.sched.Len()
}

// Validate checks every state invariant; intended for tests and debugging
func (e *Engine) Validate() error {
	e.mu.Lock()
	defer e.unlock()
	if err := e.ledger.Validate(); err != nil {
		return err
	}
	if err := e.positions.Validate(); err != nil {
		return err
	}
	for id, o := range e.orders.orders {
		_, queued := e.sched.FireAt(id)
		switch {
		case o.Status == StatusPending && !queued:
			return fmt.Errorf("pending order %s has no settlement", id)
		case o.Status != StatusPending && queued:
			return fmt.Errorf("%s order %s still queued", o.Status, id)
		case o.Status.Terminal() && !o.ReservedValue.IsZero():
			return fmt.Errorf("%s order %s keeps reservation %s", o.Status, id, o.ReservedValue)
		}
	}
	return nil
}

// ==============================
// PlaceOrder
// ==============================

// PlaceOrder validates and executes req. Market orders fill or reject
// immediately; limit orders reserve and wait for settlement.
// Rejections are stored for audit and broadcast like any other change.
func (e *Engine) PlaceOrder(req OrderRequest) TradeOrderResponse {
	e.mu.Lock()
	now := e.clock.Now()

	o := newOrder(req, now)
	var warnings []string
	reason := e.validateOrder(o)
	if reason == "" {
		if o.OrderType == Market {
			if o.TimeInForce != "" {
				warnings = append(warnings, "timeInForce is ignored for market orders")
			}
			reason = e.executeMarket(o, now)
		} else {
			reason = e.reserveLimit(o, now)
		}
	}

	if reason != "" {
		o.Status = StatusRejected
		o.Reason = reason
		o.ReservedValue = decimal.Zero
	}
	o.UpdatedAt = now
	e.orders.Add(o)

	switch o.Status {
	case StatusPending:
		fireAt := e.sched.Schedule(o.ID, now)
		e.record(EventPlaced, o, now)
		e.logger.Info("order_pending",
			zap.String("order_id", o.ID),
			zap.String("symbol", o.Symbol),
			zap.String("side", string(o.Side)),
			zap.Time("settles_at", fireAt))
	case StatusFilled:
		e.record(EventFilled, o, now)
		e.logger.Info("order_filled",
			zap.String("order_id", o.ID),
			zap.String("symbol", o.Symbol),
			zap.String("side", string(o.Side)),
			zap.String("fill_value", o.FillValue.String()))
	default:
		e.record(EventRejected, o, now)
		e.logger.Info("order_rejected", zap.String("order_id", o.ID), zap.String("reason", reason))
	}

	resp := TradeOrderResponse{
		OrderID:    o.ID,
		Status:     o.Status,
		ReceivedAt: now,
		Summary:    summarize(o),
		Order:      req,
		Warnings:   warnings,
		Reason:     o.Reason,
		Record:     o.Record(),
	}
	resp.Order.Currency = o.Currency
	if o.FilledAt != nil {
		resp.FilledAt = resp.Record.FilledAt
		resp.FillPrice = resp.Record.FillPrice
		resp.FillValue = resp.Record.FillValue
	}
	resp.Snapshot = e.snapshotLocked(now)
	e.unlockAndPublish(resp.Snapshot)
	return resp
}

func newOrder(req OrderRequest, now time.Time) *Order {
	o := &Order{
		ID:          "ord_" + uuid.NewString(),
		Status:      StatusPending,
		CreatedAt:   now,
		UpdatedAt:   now,
		ProductType: req.ProductType,
		Symbol:      strings.TrimSpace(req.Symbol),
		Side:        req.Side,
		OrderType:   req.OrderType,
		Currency:    req.Currency,
		TimeInForce: req.TimeInForce,
		Note:        req.Note,
		OptionType:  req.OptionType,
		Expiry:      req.Expiry,
		Maturity:    req.Maturity,
	}
	if o.Currency == "" {
		o.Currency = USD
	}
	if o.ProductType == Crypto {
		o.Currency = USD
	}
	if qty, ok := toDecimal(req.Quantity); ok {
		o.Quantity = quantityRound(o.ProductType, qty)
	}
	if o.OrderType == Limit && req.LimitPrice != nil {
		if lp, ok := toDecimal(*req.LimitPrice); ok {
			lp = round2(lp)
			o.LimitPrice = &lp
		}
	}
	if req.Strike != nil {
		s := *req.Strike
		o.Strike = &s
	}
	return o
}

// validateOrder returns a rejection reason, or "" when o may proceed
func (e *Engine) validateOrder(o *Order) string {
	switch {
	case o.Symbol == "":
		return ErrSymbolRequired.Error()
	case !o.ProductType.Valid():
		return fmt.Sprintf("unsupported productType %q", o.ProductType)
	case !o.Side.Valid():
		return "side must be buy or sell"
	case !o.OrderType.Valid():
		return "orderType must be market or limit"
	case !o.TimeInForce.Valid():
		return ErrInvalidTimeInForce.Error()
	case !o.Quantity.IsPositive():
		return ErrQuantityPositive.Error()
	}

	if o.ProductType == Crypto {
		base, ok := cryptoBase(o.Symbol)
		if !ok {
			return ErrUnsupportedCrypto.Error()
		}
		o.Symbol = string(base)
	} else if !o.Currency.IsFiat() {
		return ErrFiatOnly.Error()
	}

	if o.OrderType == Limit && (o.LimitPrice == nil || !o.LimitPrice.IsPositive()) {
		return ErrLimitPricePositive.Error()
	}
	return ""
}

func insufficientFunds(need decimal.Decimal, c Currency) string {
	return fmt.Sprintf("%s: need %s %s", ErrInsufficientFunds, need.StringFixed(c.Places()), c)
}

func insufficientPosition(need, have decimal.Decimal) string {
	return fmt.Sprintf("%s: need %s, have %s", ErrInsufficientPosition, need, have)
}

// executeMarket fills o at the oracle price or returns a rejection reason
func (e *Engine) executeMarket(o *Order, now time.Time) string {
	px := Price(o.ProductType, o.Symbol, o.Currency)
	if !px.IsPositive() {
		return ErrPriceUnavailable.Error()
	}
	qty := o.Quantity
	value := round2(px.Mul(qty))

	if o.ProductType == Crypto {
		base := Currency(o.Symbol)
		if o.Side == Buy {
			if err := e.ledger.Debit(o.Currency, value, now); err != nil {
				return insufficientFunds(value, o.Currency)
			}
			e.ledger.Credit(base, qty, now)
		} else {
			if err := e.ledger.Debit(base, qty, now); err != nil {
				return insufficientPosition(qty, e.ledger.Available(base))
			}
			e.ledger.Credit(o.Currency, value, now)
		}
	} else {
		key := keyOf(o.ProductType, o.Symbol, o.Currency)
		if o.Side == Buy {
			if err := e.ledger.Debit(o.Currency, value, now); err != nil {
				return insufficientFunds(value, o.Currency)
			}
			e.positions.AddFill(key, o.Symbol, qty, value, px, now)
		} else {
			if err := e.positions.Remove(key, qty, now); err != nil {
				return insufficientPosition(qty, e.positions.Quantity(key))
			}
			e.ledger.Credit(o.Currency, value, now)
		}
	}

	o.Status = StatusFilled
	filledAt := now
	o.FilledAt = &filledAt
	o.FillPrice = px
	o.FillValue = value
	return ""
}

// reserveLimit sets aside what o needs to settle or returns a rejection reason
//   - buy: cash round2(limit × qty), available → reserved
//   - crypto sell: coin quantity, available → reserved
//   - other sell: quantity taken out of the position until fill/cancel
func (e *Engine) reserveLimit(o *Order, now time.Time) string {
	qty := o.Quantity
	if o.Side == Buy {
		need := round2(o.LimitPrice.Mul(qty))
		if err := e.ledger.Reserve(o.Currency, need, now); err != nil {
			return insufficientFunds(need, o.Currency)
		}
		o.ReservedValue = need
		return ""
	}

	if o.ProductType == Crypto {
		base := Currency(o.Symbol)
		if err := e.ledger.Reserve(base, qty, now); err != nil {
			return insufficientPosition(qty, e.ledger.Available(base))
		}
		o.ReservedValue = qty
		return ""
	}

	key := keyOf(o.ProductType, o.Symbol, o.Currency)
	if err := e.positions.Remove(key, qty, now); err != nil {
		return insufficientPosition(qty, e.positions.Quantity(key))
	}
	o.ReservedValue = qty
	return ""
}

func summarize(o *Order) string {
	what := fmt.Sprintf("%s %s %s %s", o.Side, o.Quantity, o.ProductType, o.Symbol)
	switch o.Status {
	case StatusFilled:
		return fmt.Sprintf("filled (market): %s at %s %s", what, o.FillPrice.StringFixed(2), o.Currency)
	case StatusPending:
		return fmt.Sprintf("submitted (limit, pending): %s, limit %s %s", what, o.LimitPrice.StringFixed(2), o.Currency)
	default:
		return "rejected: " + o.Reason
	}
}

// ==============================
// CancelOrder
// ==============================

// CancelOrder drops a pending order's settlement and releases its reservation
func (e *Engine) CancelOrder(orderID string) CancelOrderResponse {
	e.mu.Lock()
	now := e.clock.Now()
	resp := CancelOrderResponse{AsOf: now}

	o := e.orders.Get(orderID)
	if o == nil {
		resp.Error = ErrOrderNotFound.Error()
		resp.Snapshot = e.snapshotLocked(now)
		e.unlock()
		return resp
	}
	if o.Status != StatusPending {
		rec := o.Record()
		resp.Error = ErrNotPending.Error()
		resp.Order = &rec
		resp.Snapshot = e.snapshotLocked(now)
		e.unlock()
		return resp
	}

	e.sched.Cancel(orderID)
	e.releaseReservation(o, now)
	o.Status = StatusCanceled
	o.UpdatedAt = now
	e.record(EventCanceled, o, now)
	e.logger.Info("order_canceled", zap.String("order_id", orderID))

	rec := o.Record()
	resp.OK = true
	resp.Order = &rec
	resp.Snapshot = e.snapshotLocked(now)
	e.unlockAndPublish(resp.Snapshot)
	return resp
}

// releaseReservation is the exact inverse of reserveLimit
func (e *Engine) releaseReservation(o *Order, now time.Time) {
	rv := o.ReservedValue
	o.ReservedValue = decimal.Zero
	switch {
	case o.Side == Buy:
		e.ledger.Release(o.Currency, rv, now)
	case o.ProductType == Crypto:
		e.ledger.Release(Currency(o.Symbol), rv, now)
	default:
		e.positions.Restore(keyOf(o.ProductType, o.Symbol, o.Currency), o.Symbol, rv, now)
	}
}

// ==============================
// ModifyOrder
// ==============================

// ModifyOrder amends a pending limit order, reserving or releasing only the
// difference between the old and new requirement. The settlement time is kept;
// the fill uses whatever limit price the order carries when it fires.
func (e *Engine) ModifyOrder(orderID string, patch ModifyPatch) ModifyOrderResponse {
	e.mu.Lock()
	now := e.clock.Now()
	resp := ModifyOrderResponse{AsOf: now}

	o := e.orders.Get(orderID)
	if o == nil {
		resp.Error = ErrOrderNotFound.Error()
		resp.Snapshot = e.snapshotLocked(now)
		e.unlock()
		return resp
	}

	fail := func(err error) ModifyOrderResponse {
		rec := o.Record()
		resp.Error = err.Error()
		resp.Order = &rec
		resp.Snapshot = e.snapshotLocked(now)
		e.unlock()
		return resp
	}

	if o.Status != StatusPending || o.OrderType != Limit {
		return fail(ErrNotModifiable)
	}

	nextQty := o.Quantity
	if patch.Quantity != nil {
		q, ok := toDecimal(*patch.Quantity)
		if !ok {
			return fail(ErrQuantityPositive)
		}
		nextQty = quantityRound(o.ProductType, q)
	}
	if !nextQty.IsPositive() {
		return fail(ErrQuantityPositive)
	}

	nextLimit := *o.LimitPrice
	if patch.LimitPrice != nil {
		lp, ok := toDecimal(*patch.LimitPrice)
		if !ok {
			return fail(ErrLimitPricePositive)
		}
		nextLimit = round2(lp)
	}
	if !nextLimit.IsPositive() {
		return fail(ErrLimitPricePositive)
	}
	if patch.TimeInForce != nil && !patch.TimeInForce.Valid() {
		return fail(ErrInvalidTimeInForce)
	}

	prev := o.ReservedValue
	switch {
	case o.Side == Buy:
		required := round2(nextLimit.Mul(nextQty))
		delta := round2(required.Sub(prev))
		if delta.IsPositive() {
			if err := e.ledger.Reserve(o.Currency, delta, now); err != nil {
				return fail(ErrInsufficientFunds)
			}
		} else if delta.IsNegative() {
			e.ledger.Release(o.Currency, delta.Neg(), now)
		}
		o.ReservedValue = required

	case o.ProductType == Crypto:
		base := Currency(o.Symbol)
		delta := round8(nextQty.Sub(prev))
		if delta.IsPositive() {
			if err := e.ledger.Reserve(base, delta, now); err != nil {
				return fail(ErrInsufficientPosition)
			}
		} else if delta.IsNegative() {
			e.ledger.Release(base, delta.Neg(), now)
		}
		o.ReservedValue = nextQty

	default:
		key := keyOf(o.ProductType, o.Symbol, o.Currency)
		delta := round2(nextQty.Sub(prev))
		if delta.IsPositive() {
			if err := e.positions.Remove(key, delta, now); err != nil {
				return fail(ErrInsufficientPosition)
			}
		} else if delta.IsNegative() {
			e.positions.Restore(key, o.Symbol, delta.Neg(), now)
		}
		o.ReservedValue = nextQty
	}

	o.Quantity = nextQty
	o.LimitPrice = &nextLimit
	if patch.TimeInForce != nil {
		o.TimeInForce = *patch.TimeInForce
	}
	if patch.Note != nil {
		o.Note = *patch.Note
	}
	o.UpdatedAt = now
	e.record(EventModified, o, now)
	e.logger.Info("order_modified",
		zap.String("order_id", orderID),
		zap.String("quantity", nextQty.String()),
		zap.String("limit_price", nextLimit.String()))

	rec := o.Record()
	resp.OK = true
	resp.Order = &rec
	resp.Snapshot = e.snapshotLocked(now)
	e.unlockAndPublish(resp.Snapshot)
	return resp
}

// ==============================
// Settlement
// ==============================

// SettleDue fills every pending limit order whose settlement time is at or
// before now, each as its own critical section. Returns the number filled.
func (e *Engine) SettleDue(now time.Time) int {
	filled := 0
	for {
		done, ok := e.settleNext(now)
		if !ok {
			return filled
		}
		if done {
			filled++
		}
	}
}

// settleNext pops one due entry. ok is false when nothing is due.
func (e *Engine) settleNext(now time.Time) (filled, ok bool) {
	e.mu.Lock()
	id, ok := e.sched.PopDue(now)
	if !ok {
		e.unlock()
		return false, false
	}
	o := e.orders.Get(id)
	if o == nil || o.Status != StatusPending || o.OrderType != Limit || o.LimitPrice == nil {
		// stale entry
		e.unlock()
		return false, true
	}
	fillAt := e.clock.Now()
	e.applyFill(o, round2(*o.LimitPrice), fillAt)
	snap := e.snapshotLocked(fillAt)
	e.unlockAndPublish(snap)
	return true, true
}

// applyFill consumes o's reservation exactly and credits the counter-side
func (e *Engine) applyFill(o *Order, fillPrice decimal.Decimal, now time.Time) {
	qty := o.Quantity
	value := round2(fillPrice.Mul(qty))
	reserved := o.ReservedValue

	if o.Side == Buy {
		e.ledger.Consume(o.Currency, reserved, now)
		// refund any cash reserved beyond the fill value
		if diff := round2(reserved.Sub(value)); diff.IsPositive() {
			e.ledger.Credit(o.Currency, diff, now)
		}
		if o.ProductType == Crypto {
			e.ledger.Credit(Currency(o.Symbol), qty, now)
		} else {
			firstCost := round2(value.Div(qty))
			e.positions.AddFill(keyOf(o.ProductType, o.Symbol, o.Currency), o.Symbol, qty, value, firstCost, now)
		}
	} else {
		if o.ProductType == Crypto {
			e.ledger.Consume(Currency(o.Symbol), reserved, now)
		}
		// non-crypto sells already took the quantity out of the position
		e.ledger.Credit(o.Currency, value, now)
	}

	o.ReservedValue = decimal.Zero
	o.Status = StatusFilled
	filledAt := now
	o.FilledAt = &filledAt
	o.FillPrice = fillPrice
	o.FillValue = value
	o.UpdatedAt = now
	e.sched.Cancel(o.ID)

	e.record(EventFilled, o, now)
	e.logger.Info("order_settled",
		zap.String("order_id", o.ID),
		zap.String("symbol", o.Symbol),
		zap.String("fill_price", fillPrice.String()),
		zap.String("fill_value", value.String()))
}

// Run drives settlement until ctx is done: it sleeps until the earliest
// queued fire time (or until the queue changes) and then settles what is due.
func (e *Engine) Run(ctx context.Context) error {
	e.logger.Info("settlement_loop_started")
	for {
		e.SettleDue(e.clock.Now())

		e.mu.Lock()
		next, ok := e.sched.Next()
		e.mu.Unlock()

		var timer <-chan time.Time
		if ok {
			timer = e.clock.After(next.Sub(e.clock.Now()))
		}

		select {
		case <-ctx.Done():
			e.logger.Info("settlement_loop_stopped")
			return ctx.Err()
		case <-e.sched.Wake():
		case <-timer:
		}
	}
}

// ==============================
// Cash operations
// ==============================

// ConvertCurrency exchanges amount of from into to at the fixed demo rate
func (e *Engine) ConvertCurrency(from, to Currency, amount float64) FxConvertResponse {
	e.mu.Lock()
	now := e.clock.Now()
	resp := FxConvertResponse{AsOf: now}

	fail := func(err error) FxConvertResponse {
		resp.Error = err.Error()
		resp.Snapshot = e.snapshotLocked(now)
		e.unlock()
		return resp
	}

	if !from.IsFiat() || !to.IsFiat() {
		return fail(ErrFiatOnly)
	}
	amt, ok := toDecimal(amount)
	if !ok {
		return fail(ErrAmountPositive)
	}
	amt = roundBy(from, amt)
	if !amt.IsPositive() {
		return fail(ErrAmountPositive)
	}
	if from == to {
		return fail(ErrSameCurrency)
	}
	if !e.ledger.CanSpend(from, amt) {
		return fail(ErrInsufficientFunds)
	}

	rate := Rate(from, to)
	credited := roundBy(to, amt.Mul(rate))
	if err := e.ledger.Debit(from, amt, now); err != nil {
		return fail(err)
	}
	e.ledger.Credit(to, credited, now)
	e.logger.Info("fx_converted",
		zap.String("from", string(from)),
		zap.String("to", string(to)),
		zap.String("debited", amt.String()),
		zap.String("credited", credited.String()))

	resp.OK = true
	resp.Rate = floatPtr(rate)
	resp.Debited = floatPtr(amt)
	resp.Credited = floatPtr(credited)
	resp.Snapshot = e.snapshotLocked(now)
	e.unlockAndPublish(resp.Snapshot)
	return resp
}

// AdjustBalance deposits (amount > 0) or withdraws (amount < 0) fiat cash
func (e *Engine) AdjustBalance(currency Currency, amount float64) BalanceAdjustResponse {
	e.mu.Lock()
	now := e.clock.Now()
	resp := BalanceAdjustResponse{AsOf: now}

	fail := func(err error) BalanceAdjustResponse {
		resp.Error = err.Error()
		resp.Snapshot = e.snapshotLocked(now)
		e.unlock()
		return resp
	}

	if !currency.IsFiat() {
		return fail(ErrFiatOnly)
	}
	amt, ok := toDecimal(amount)
	if !ok {
		return fail(ErrAmountNonZero)
	}
	amt = round2(amt)
	if amt.IsZero() {
		return fail(ErrAmountNonZero)
	}
	if amt.IsNegative() {
		if err := e.ledger.Debit(currency, amt.Neg(), now); err != nil {
			return fail(err)
		}
	} else {
		e.ledger.Credit(currency, amt, now)
	}
	e.logger.Info("balance_adjusted", zap.String("currency", string(currency)), zap.String("amount", amt.String()))

	resp.OK = true
	resp.Snapshot = e.snapshotLocked(now)
	e.unlockAndPublish(resp.Snapshot)
	return resp
}
