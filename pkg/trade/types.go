package trade

import (
	"math"
	"strings"

	"github.com/shopspring/decimal"
)

// Currency is one of the fixed fiat or crypto codes the simulator knows about.
type Currency string

const (
	USD  Currency = "USD"
	JPY  Currency = "JPY"
	CNY  Currency = "CNY"
	BTC  Currency = "BTC"
	ETH  Currency = "ETH"
	USDT Currency = "USDT"
	USDC Currency = "USDC"
)

// FiatCurrencies lists cash currencies in snapshot order.
var FiatCurrencies = []Currency{USD, JPY, CNY}

// CryptoCurrencies lists coin balances in the order they are synthesized into assets.
var CryptoCurrencies = []Currency{BTC, ETH, USDT, USDC}

// IsFiat reports whether c is a cash currency (2 decimal places)
func (c Currency) IsFiat() bool {
	return c == USD || c == JPY || c == CNY
}

// IsCrypto reports whether c is a coin (8 decimal places)
func (c Currency) IsCrypto() bool {
	return c == BTC || c == ETH || c == USDT || c == USDC
}

// Valid reports whether c is a known currency code
func (c Currency) Valid() bool {
	return c.IsFiat() || c.IsCrypto()
}

// Places returns the rounding precision for amounts in c.
func (c Currency) Places() int32 {
	if c.IsCrypto() {
		return 8
	}
	return 2
}

// ParseCurrency upper-cases and validates a currency code.
func ParseCurrency(s string) (Currency, bool) {
	c := Currency(strings.ToUpper(strings.TrimSpace(s)))
	return c, c.Valid()
}

type ProductType string

const (
	Stock  ProductType = "stock"
	Bond   ProductType = "bond"
	Fund   ProductType = "fund"
	Option ProductType = "option"
	Crypto ProductType = "crypto"
)

// Valid reports whether p is one of the tradable product types
func (p ProductType) Valid() bool {
	switch p {
	case Stock, Bond, Fund, Option, Crypto:
		return true
	}
	return false
}

type Side string

const (
	Buy  Side = "buy"
	Sell Side = "sell"
)

func (s Side) Valid() bool { return s == Buy || s == Sell }

type OrderType string

const (
	Market OrderType = "market"
	Limit  OrderType = "limit"
)

func (t OrderType) Valid() bool { return t == Market || t == Limit }

type TimeInForce string

const (
	Day TimeInForce = "day"
	GTC TimeInForce = "gtc"
)

// Valid accepts the empty value as "not specified".
func (t TimeInForce) Valid() bool { return t == "" || t == Day || t == GTC }

// OrderStatus is the lifecycle state of an order.
// filled, canceled and rejected are terminal.
type OrderStatus string

const (
	StatusPending  OrderStatus = "pending"
	StatusFilled   OrderStatus = "filled"
	StatusCanceled OrderStatus = "canceled"
	StatusRejected OrderStatus = "rejected"
)

// Terminal reports whether no further transition is possible.
func (s OrderStatus) Terminal() bool {
	return s == StatusFilled || s == StatusCanceled || s == StatusRejected
}

// ==============================
// Rounding helpers
// ==============================

func round2(d decimal.Decimal) decimal.Decimal { return d.Round(2) }
func round8(d decimal.Decimal) decimal.Decimal { return d.Round(8) }

func roundBy(c Currency, d decimal.Decimal) decimal.Decimal { return d.Round(c.Places()) }

// quantityRound rounds an order or position quantity: 8dp for crypto, 2dp otherwise.
func quantityRound(p ProductType, d decimal.Decimal) decimal.Decimal {
	if p == Crypto {
		return round8(d)
	}
	return round2(d)
}

// toDecimal converts a caller-supplied float, rejecting NaN and ±Inf.
func toDecimal(f float64) (decimal.Decimal, bool) {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return decimal.Zero, false
	}
	return decimal.NewFromFloat(f), true
}

// num converts an internal amount to a JSON number.
func num(d decimal.Decimal) float64 {
	return d.InexactFloat64()
}

// cryptoBase returns the coin an order symbol refers to, if supported.
func cryptoBase(symbol string) (Currency, bool) {
	c := Currency(strings.ToUpper(strings.TrimSpace(symbol)))
	return c, c.IsCrypto()
}
