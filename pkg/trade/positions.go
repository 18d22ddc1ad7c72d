package trade

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// PositionKey identifies a holding: one stored position per (product, symbol, currency)
type PositionKey struct {
	ProductType ProductType
	Symbol      string // upper-cased
	Currency    Currency
}

func keyOf(p ProductType, symbol string, c Currency) PositionKey {
	return PositionKey{ProductType: p, Symbol: strings.ToUpper(strings.TrimSpace(symbol)), Currency: c}
}

// Position is a non-crypto holding
// Quantity > 0 while stored; depleted positions are deleted
type Position struct {
	ID          string
	ProductType ProductType
	Symbol      string
	Currency    Currency
	Quantity    decimal.Decimal
	AvgCost     decimal.Decimal // volume-weighted, 2dp
	UpdatedAt   time.Time

	seq uint64 // insertion order for stable listing
}

// PositionBook holds stored positions. Crypto coins live in the Ledger instead.
// Not safe for concurrent use.
type PositionBook struct {
	positions map[PositionKey]*Position
	nextSeq   uint64
}

func NewPositionBook() *PositionBook {
	return &PositionBook{positions: make(map[PositionKey]*Position)}
}

// Get returns the stored position for key, or nil
func (b *PositionBook) Get(key PositionKey) *Position {
	return b.positions[key]
}

// Quantity returns the held quantity for key (zero when absent)
func (b *PositionBook) Quantity(key PositionKey) decimal.Decimal {
	if p, ok := b.positions[key]; ok {
		return p.Quantity
	}
	return decimal.Zero
}

func (b *PositionBook) create(key PositionKey, symbol string, qty, avg decimal.Decimal, now time.Time) *Position {
	b.nextSeq++
	p := &Position{
		ID:          "pos_" + uuid.NewString(),
		ProductType: key.ProductType,
		Symbol:      symbol,
		Currency:    key.Currency,
		Quantity:    qty,
		AvgCost:     avg,
		UpdatedAt:   now,
		seq:         b.nextSeq,
	}
	b.positions[key] = p
	return p
}

// AddFill merges a buy fill of qty for value into the position.
// Formula: newAvg = round2(round2(oldAvg × oldQty + value) / newQty)
// A new position starts at firstCost.
func (b *PositionBook) AddFill(key PositionKey, symbol string, qty, value, firstCost decimal.Decimal, now time.Time) *Position {
	existing, ok := b.positions[key]
	if !ok {
		return b.create(key, symbol, round2(qty), round2(firstCost), now)
	}
	newQty := round2(existing.Quantity.Add(qty))
	totalCost := round2(existing.AvgCost.Mul(existing.Quantity).Add(value))
	if newQty.IsPositive() {
		existing.AvgCost = round2(totalCost.Div(newQty))
	} else {
		existing.AvgCost = decimal.Zero
	}
	existing.Quantity = newQty
	existing.UpdatedAt = now
	return existing
}

// Remove takes qty out of the position, deleting it on depletion
// Returns ErrInsufficientPosition without mutating if the holding is short
func (b *PositionBook) Remove(key PositionKey, qty decimal.Decimal, now time.Time) error {
	p, ok := b.positions[key]
	if !ok || p.Quantity.LessThan(qty) {
		return ErrInsufficientPosition
	}
	p.Quantity = round2(p.Quantity.Sub(qty))
	p.UpdatedAt = now
	if !p.Quantity.IsPositive() {
		delete(b.positions, key)
	}
	return nil
}

// Restore puts back quantity taken by a sell reservation.
// If the position was depleted in between it is recreated at zero cost.
func (b *PositionBook) Restore(key PositionKey, symbol string, qty decimal.Decimal, now time.Time) {
	if !qty.IsPositive() {
		return
	}
	if p, ok := b.positions[key]; ok {
		p.Quantity = round2(p.Quantity.Add(qty))
		p.UpdatedAt = now
		return
	}
	b.create(key, symbol, round2(qty), decimal.Zero, now)
}

// Seed stores a position directly (demo holdings)
func (b *PositionBook) Seed(key PositionKey, qty, avg decimal.Decimal, now time.Time) {
	b.create(key, key.Symbol, round2(qty), round2(avg), now)
}

// List returns copies of all positions in insertion order
func (b *PositionBook) List() []Position {
	out := make([]Position, 0, len(b.positions))
	for _, p := range b.positions {
		out = append(out, *p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].seq < out[j].seq })
	return out
}

// Len returns number of stored positions
func (b *PositionBook) Len() int {
	return len(b.positions)
}

// Validate checks position invariants
func (b *PositionBook) Validate() error {
	for key, p := range b.positions {
		if !p.Quantity.IsPositive() {
			return fmt.Errorf("stored position %s/%s/%s has quantity %s", key.ProductType, key.Symbol, key.Currency, p.Quantity)
		}
		if p.AvgCost.IsNegative() {
			return fmt.Errorf("negative avg cost for %s: %s", key.Symbol, p.AvgCost)
		}
	}
	return nil
}
