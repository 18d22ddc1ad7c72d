package trade

import (
	"strings"
	"unicode/utf16"

	"github.com/shopspring/decimal"
)

// Fixed demo rates: units of each currency per 1 USD.
var usdTo = map[Currency]decimal.Decimal{
	USD:  decimal.NewFromInt(1),
	JPY:  decimal.NewFromInt(150),
	CNY:  decimal.RequireFromString("7.2"),
	BTC:  decimal.NewFromInt(1).Div(decimal.NewFromInt(100_000)),
	ETH:  decimal.NewFromInt(1).Div(decimal.NewFromInt(4_000)),
	USDT: decimal.NewFromInt(1),
	USDC: decimal.NewFromInt(1),
}

// USD reference prices for the supported coins.
var cryptoUSD = map[Currency]decimal.Decimal{
	BTC:  decimal.NewFromInt(100_000),
	ETH:  decimal.NewFromInt(4_000),
	USDT: decimal.NewFromInt(1),
	USDC: decimal.NewFromInt(1),
}

// Rate returns how many units of to one unit of from buys.
// Unknown currencies yield zero.
func Rate(from, to Currency) decimal.Decimal {
	if from == to {
		return decimal.NewFromInt(1)
	}
	f, ok1 := usdTo[from]
	t, ok2 := usdTo[to]
	if !ok1 || !ok2 {
		return decimal.Zero
	}
	return t.Div(f)
}

const (
	fnvOffset32 = 2166136261
	fnvPrime32  = 16777619
)

// hash32 is FNV-1a folded over UTF-16 code units rather than bytes, so
// non-ASCII symbols hash the same as they do in a JavaScript client.
func hash32(s string) uint32 {
	h := uint32(fnvOffset32)
	for _, u := range utf16.Encode([]rune(s)) {
		h ^= uint32(u)
		h *= fnvPrime32
	}
	return h
}

// hash01 maps s onto [0, 1).
func hash01(s string) float64 {
	return float64(hash32(s)) / float64(uint64(1)<<32)
}

// Price is the deterministic stand-in market price of a product in currency.
// The returned value is rounded to 2 decimal places and may be zero when the
// currency cannot express it (e.g. a stock quoted in BTC).
func Price(productType ProductType, symbol string, currency Currency) decimal.Decimal {
	sym := strings.ToUpper(strings.TrimSpace(symbol))
	fx := Rate(USD, currency)
	if productType == Crypto {
		if usd, ok := cryptoUSD[Currency(sym)]; ok {
			return round2(usd.Mul(fx))
		}
	}
	base := decimal.NewFromFloat(10 + 490*hash01(string(productType)+":"+sym))
	return round2(base.Mul(fx))
}

// Quote is the result of a price lookup.
type Quote struct {
	OK          bool        `json:"ok"`
	Price       float64     `json:"price,omitempty"`
	Currency    Currency    `json:"currency"`
	ProductType ProductType `json:"productType"`
	Symbol      string      `json:"symbol"`
	Error       string      `json:"error,omitempty"`
}

// GetMarketPrice quotes symbol in currency (USD when empty).
func GetMarketPrice(productType ProductType, symbol string, currency Currency) Quote {
	if currency == "" {
		currency = USD
	}
	sym := strings.TrimSpace(symbol)
	q := Quote{Currency: currency, ProductType: productType, Symbol: sym}
	if sym == "" {
		q.Error = ErrSymbolRequired.Error()
		return q
	}
	px := Price(productType, sym, currency)
	if !px.IsPositive() {
		q.Error = ErrPriceUnavailable.Error()
		return q
	}
	q.OK = true
	q.Price = num(px)
	return q
}
