package trade

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"
)

// Order is the engine's internal order record
type Order struct {
	ID          string
	Status      OrderStatus
	CreatedAt   time.Time
	UpdatedAt   time.Time
	ProductType ProductType
	Symbol      string
	Side        Side
	Quantity    decimal.Decimal
	OrderType   OrderType
	LimitPrice  *decimal.Decimal // limit orders only
	Currency    Currency
	TimeInForce TimeInForce
	Note        string

	// Cash (buy) or quantity (sell) set aside at placement. Zero once terminal.
	ReservedValue decimal.Decimal

	FilledAt  *time.Time
	FillPrice decimal.Decimal
	FillValue decimal.Decimal

	Reason string // rejection reason

	// Carried for display; not used by engine math
	OptionType string
	Strike     *float64
	Expiry     string
	Maturity   string

	seq uint64
}

// OrderRecord is the JSON view of an order
type OrderRecord struct {
	OrderID     string      `json:"orderId"`
	Status      OrderStatus `json:"status"`
	CreatedAt   time.Time   `json:"createdAt"`
	UpdatedAt   time.Time   `json:"updatedAt"`
	ProductType ProductType `json:"productType"`
	Symbol      string      `json:"symbol"`
	Side        Side        `json:"side"`
	Quantity    float64     `json:"quantity"`
	OrderType   OrderType   `json:"orderType"`
	LimitPrice  *float64    `json:"limitPrice,omitempty"`
	Currency    Currency    `json:"currency"`
	TimeInForce TimeInForce `json:"timeInForce,omitempty"`
	Note        string      `json:"note,omitempty"`

	ReservedValue *float64 `json:"reservedValue,omitempty"`

	FilledAt  *time.Time `json:"filledAt,omitempty"`
	FillPrice *float64   `json:"fillPrice,omitempty"`
	FillValue *float64   `json:"fillValue,omitempty"`

	Reason string `json:"reason,omitempty"`

	OptionType string   `json:"optionType,omitempty"`
	Strike     *float64 `json:"strike,omitempty"`
	Expiry     string   `json:"expiry,omitempty"`
	Maturity   string   `json:"maturity,omitempty"`
}

func floatPtr(d decimal.Decimal) *float64 {
	f := num(d)
	return &f
}

// Record returns a deep copy of o in its JSON shape
func (o *Order) Record() OrderRecord {
	r := OrderRecord{
		OrderID:     o.ID,
		Status:      o.Status,
		CreatedAt:   o.CreatedAt,
		UpdatedAt:   o.UpdatedAt,
		ProductType: o.ProductType,
		Symbol:      o.Symbol,
		Side:        o.Side,
		Quantity:    num(o.Quantity),
		OrderType:   o.OrderType,
		Currency:    o.Currency,
		TimeInForce: o.TimeInForce,
		Note:        o.Note,
		Reason:      o.Reason,
		OptionType:  o.OptionType,
		Expiry:      o.Expiry,
		Maturity:    o.Maturity,
	}
	if o.LimitPrice != nil {
		r.LimitPrice = floatPtr(*o.LimitPrice)
	}
	// only limit orders that made it past validation ever reserved anything
	if o.OrderType == Limit && o.Status != StatusRejected {
		r.ReservedValue = floatPtr(o.ReservedValue)
	}
	if o.FilledAt != nil {
		t := *o.FilledAt
		r.FilledAt = &t
		r.FillPrice = floatPtr(o.FillPrice)
		r.FillValue = floatPtr(o.FillValue)
	}
	if o.Strike != nil {
		s := *o.Strike
		r.Strike = &s
	}
	return r
}

// OrderBook stores every order ever placed, including rejections
// Not safe for concurrent use.
type OrderBook struct {
	orders  map[string]*Order
	nextSeq uint64
}

func NewOrderBook() *OrderBook {
	return &OrderBook{orders: make(map[string]*Order)}
}

// Add stores o. IDs are unique; a duplicate is a programmer error.
func (b *OrderBook) Add(o *Order) {
	if _, exists := b.orders[o.ID]; exists {
		panic("orderbook: duplicate order id " + o.ID)
	}
	b.nextSeq++
	o.seq = b.nextSeq
	b.orders[o.ID] = o
}

// Get returns the order with id, or nil
func (b *OrderBook) Get(id string) *Order {
	return b.orders[id]
}

// Records returns JSON views of all orders, newest first
// Ties on CreatedAt fall back to placement order (later first)
func (b *OrderBook) Records() []OrderRecord {
	list := make([]*Order, 0, len(b.orders))
	for _, o := range b.orders {
		list = append(list, o)
	}
	sort.Slice(list, func(i, j int) bool {
		if !list[i].CreatedAt.Equal(list[j].CreatedAt) {
			return list[i].CreatedAt.After(list[j].CreatedAt)
		}
		return list[i].seq > list[j].seq
	})
	out := make([]OrderRecord, len(list))
	for i, o := range list {
		out[i] = o.Record()
	}
	return out
}

// Len returns number of stored orders
func (b *OrderBook) Len() int {
	return len(b.orders)
}
