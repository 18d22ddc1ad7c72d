package trade

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// Balance is the cash or coin held in one currency.
// Total = Available + Reserved
type Balance struct {
	Available decimal.Decimal
	Reserved  decimal.Decimal
	UpdatedAt time.Time
}

// Total returns available plus reserved, rounded for the currency
func (b *Balance) Total(c Currency) decimal.Decimal {
	return roundBy(c, b.Available.Add(b.Reserved))
}

// Ledger tracks every currency's available/reserved split.
// Amounts are rounded to the currency's precision before every step.
// Not safe for concurrent use: the Engine serializes all access.
type Ledger struct {
	balances map[Currency]*Balance
}

// NewLedger creates a ledger holding every known currency, seeded with the
// given available amounts
func NewLedger(initial map[Currency]decimal.Decimal, now time.Time) *Ledger {
	l := &Ledger{balances: make(map[Currency]*Balance)}
	for _, c := range append(append([]Currency{}, FiatCurrencies...), CryptoCurrencies...) {
		l.balances[c] = &Balance{
			Available: roundBy(c, initial[c]),
			UpdatedAt: now,
		}
	}
	return l
}

func (l *Ledger) get(c Currency) *Balance {
	b, ok := l.balances[c]
	if !ok {
		panic(fmt.Sprintf("ledger: unknown currency %q", c))
	}
	return b
}

// Balance returns a copy of the balance for c
func (l *Ledger) Balance(c Currency) Balance {
	return *l.get(c)
}

// Available returns the spendable amount of c
func (l *Ledger) Available(c Currency) decimal.Decimal {
	return l.get(c).Available
}

// CanSpend reports whether amount of c is available
func (l *Ledger) CanSpend(c Currency, amount decimal.Decimal) bool {
	return l.get(c).Available.GreaterThanOrEqual(amount)
}

// Credit adds amount to available
func (l *Ledger) Credit(c Currency, amount decimal.Decimal, now time.Time) {
	amount = roundBy(c, amount)
	b := l.get(c)
	b.Available = roundBy(c, b.Available.Add(amount))
	b.UpdatedAt = now
}

// Debit removes amount from available
// Returns ErrInsufficientFunds if available is short
func (l *Ledger) Debit(c Currency, amount decimal.Decimal, now time.Time) error {
	amount = roundBy(c, amount)
	b := l.get(c)
	if b.Available.LessThan(amount) {
		return ErrInsufficientFunds
	}
	b.Available = roundBy(c, b.Available.Sub(amount))
	b.UpdatedAt = now
	return nil
}

// Reserve moves amount from available to reserved
// Returns ErrInsufficientFunds without mutating if available is short
func (l *Ledger) Reserve(c Currency, amount decimal.Decimal, now time.Time) error {
	if amount.IsNegative() {
		return fmt.Errorf("reserve amount cannot be negative: %s", amount)
	}
	amount = roundBy(c, amount)
	b := l.get(c)
	if b.Available.LessThan(amount) {
		return ErrInsufficientFunds
	}
	b.Available = roundBy(c, b.Available.Sub(amount))
	b.Reserved = roundBy(c, b.Reserved.Add(amount))
	b.UpdatedAt = now
	return nil
}

// Release moves amount from reserved back to available
// Used when orders are cancelled or reduced
func (l *Ledger) Release(c Currency, amount decimal.Decimal, now time.Time) {
	amount = roundBy(c, amount)
	if !amount.IsPositive() {
		return
	}
	b := l.get(c)
	b.Reserved = roundBy(c, b.Reserved.Sub(amount))
	b.Available = roundBy(c, b.Available.Add(amount))
	b.UpdatedAt = now
}

// Consume drops amount from reserved (the counter-side is credited elsewhere)
func (l *Ledger) Consume(c Currency, amount decimal.Decimal, now time.Time) {
	amount = roundBy(c, amount)
	if !amount.IsPositive() {
		return
	}
	b := l.get(c)
	b.Reserved = roundBy(c, b.Reserved.Sub(amount))
	b.UpdatedAt = now
}

// Validate checks ledger invariants
func (l *Ledger) Validate() error {
	for c, b := range l.balances {
		if b.Available.IsNegative() {
			return fmt.Errorf("negative available %s: %s", c, b.Available)
		}
		if b.Reserved.IsNegative() {
			return fmt.Errorf("negative reserved %s: %s", c, b.Reserved)
		}
	}
	return nil
}
