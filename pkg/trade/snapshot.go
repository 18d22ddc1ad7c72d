package trade

import (
	"strings"
	"time"
)

// AccountBalance is one fiat cash line of a snapshot
type AccountBalance struct {
	Currency  Currency `json:"currency"`
	Available float64  `json:"available"`
	Reserved  float64  `json:"reserved"`
	Total     float64  `json:"total"`
}

// AssetPosition is a holding as callers see it. Crypto coins are synthesized
// from ledger balances with id pos_crypto_<CCY> and zero avgCost.
type AssetPosition struct {
	ID          string      `json:"id"`
	ProductType ProductType `json:"productType"`
	Symbol      string      `json:"symbol"`
	Currency    Currency    `json:"currency"`
	Quantity    float64     `json:"quantity"`
	AvgCost     float64     `json:"avgCost"`
	UpdatedAt   time.Time   `json:"updatedAt"`
}

// Snapshot is a point-in-time, deep-copied projection of the account
type Snapshot struct {
	AsOf     time.Time        `json:"asOf"`
	Balances []AccountBalance `json:"balances"`
	Assets   []AssetPosition  `json:"assets"`
	Orders   []OrderRecord    `json:"orders"`
}

// project builds a snapshot from engine state. Caller holds the engine lock.
func project(asOf time.Time, ledger *Ledger, positions *PositionBook, orders *OrderBook) Snapshot {
	snap := Snapshot{
		AsOf:     asOf,
		Balances: make([]AccountBalance, 0, len(FiatCurrencies)),
		Assets:   make([]AssetPosition, 0, positions.Len()+len(CryptoCurrencies)),
		Orders:   orders.Records(),
	}

	for _, c := range FiatCurrencies {
		b := ledger.Balance(c)
		snap.Balances = append(snap.Balances, AccountBalance{
			Currency:  c,
			Available: num(b.Available),
			Reserved:  num(b.Reserved),
			Total:     num(b.Total(c)),
		})
	}

	// Coins go ahead of stored positions, last code first
	for i := len(CryptoCurrencies) - 1; i >= 0; i-- {
		c := CryptoCurrencies[i]
		b := ledger.Balance(c)
		qty := b.Total(c)
		if !qty.IsPositive() {
			continue
		}
		snap.Assets = append(snap.Assets, AssetPosition{
			ID:          "pos_crypto_" + string(c),
			ProductType: Crypto,
			Symbol:      string(c),
			Currency:    c,
			Quantity:    num(qty),
			AvgCost:     0,
			UpdatedAt:   b.UpdatedAt,
		})
	}

	for _, p := range positions.List() {
		snap.Assets = append(snap.Assets, AssetPosition{
			ID:          p.ID,
			ProductType: p.ProductType,
			Symbol:      p.Symbol,
			Currency:    p.Currency,
			Quantity:    num(p.Quantity),
			AvgCost:     num(p.AvgCost),
			UpdatedAt:   p.UpdatedAt,
		})
	}
	return snap
}

// Balance returns the fiat line for c, if present
func (s Snapshot) Balance(c Currency) (AccountBalance, bool) {
	for _, b := range s.Balances {
		if b.Currency == c {
			return b, true
		}
	}
	return AccountBalance{}, false
}

// Asset returns the first asset matching productType and symbol
func (s Snapshot) Asset(productType ProductType, symbol string) (AssetPosition, bool) {
	for _, a := range s.Assets {
		if a.ProductType == productType && strings.EqualFold(a.Symbol, symbol) {
			return a, true
		}
	}
	return AssetPosition{}, false
}

// Order returns the record for id, if present
func (s Snapshot) Order(id string) (OrderRecord, bool) {
	for _, o := range s.Orders {
		if o.OrderID == id {
			return o, true
		}
	}
	return OrderRecord{}, false
}
