package trade

import (
	"time"
)

// OrderRequest is a caller's order ticket
type OrderRequest struct {
	ProductType ProductType `json:"productType"`
	Symbol      string      `json:"symbol"`
	Side        Side        `json:"side"`
	Quantity    float64     `json:"quantity"`
	OrderType   OrderType   `json:"orderType"`
	LimitPrice  *float64    `json:"limitPrice,omitempty"`
	Currency    Currency    `json:"currency,omitempty"` // USD when empty
	TimeInForce TimeInForce `json:"timeInForce,omitempty"`
	Note        string      `json:"note,omitempty"`

	// Option-specific
	OptionType string   `json:"optionType,omitempty"` // call | put
	Strike     *float64 `json:"strike,omitempty"`
	Expiry     string   `json:"expiry,omitempty"`

	// Bond-specific
	Maturity string `json:"maturity,omitempty"`
}

// ModifyPatch lists the fields of a pending limit order that may change.
// Nil fields are left as they are.
type ModifyPatch struct {
	Quantity    *float64     `json:"quantity,omitempty"`
	LimitPrice  *float64     `json:"limitPrice,omitempty"`
	TimeInForce *TimeInForce `json:"timeInForce,omitempty"`
	Note        *string      `json:"note,omitempty"`
}

// TradeOrderResponse is the outcome of PlaceOrder
type TradeOrderResponse struct {
	OrderID    string       `json:"orderId"`
	Status     OrderStatus  `json:"status"`
	ReceivedAt time.Time    `json:"receivedAt"`
	Summary    string       `json:"summary"`
	Order      OrderRequest `json:"order"` // request echo with the effective currency
	Warnings   []string     `json:"warnings,omitempty"`
	FilledAt   *time.Time   `json:"filledAt,omitempty"`
	FillPrice  *float64     `json:"fillPrice,omitempty"`
	FillValue  *float64     `json:"fillValue,omitempty"`
	Reason     string       `json:"reason,omitempty"`
	Record     OrderRecord  `json:"record"`
	Snapshot   Snapshot     `json:"snapshot"`
}

// CancelOrderResponse is the outcome of CancelOrder
type CancelOrderResponse struct {
	OK       bool         `json:"ok"`
	AsOf     time.Time    `json:"asOf"`
	Error    string       `json:"error,omitempty"`
	Order    *OrderRecord `json:"order,omitempty"`
	Snapshot Snapshot     `json:"snapshot"`
}

// ModifyOrderResponse is the outcome of ModifyOrder
type ModifyOrderResponse struct {
	OK       bool         `json:"ok"`
	AsOf     time.Time    `json:"asOf"`
	Error    string       `json:"error,omitempty"`
	Order    *OrderRecord `json:"order,omitempty"`
	Snapshot Snapshot     `json:"snapshot"`
}

// FxConvertResponse is the outcome of ConvertCurrency
type FxConvertResponse struct {
	OK       bool      `json:"ok"`
	AsOf     time.Time `json:"asOf"`
	Rate     *float64  `json:"rate,omitempty"`
	Debited  *float64  `json:"debited,omitempty"`
	Credited *float64  `json:"credited,omitempty"`
	Error    string    `json:"error,omitempty"`
	Snapshot Snapshot  `json:"snapshot"`
}

// BalanceAdjustResponse is the outcome of AdjustBalance
type BalanceAdjustResponse struct {
	OK       bool      `json:"ok"`
	AsOf     time.Time `json:"asOf"`
	Error    string    `json:"error,omitempty"`
	Snapshot Snapshot  `json:"snapshot"`
}
