package trade

import "errors"

// Business failures. Their messages are what callers see in the "error"
// field of failed responses.
var (
	ErrOrderNotFound        = errors.New("order not found")
	ErrNotPending           = errors.New("only pending orders can be canceled")
	ErrNotModifiable        = errors.New("only pending limit orders can be modified")
	ErrInsufficientFunds    = errors.New("insufficient funds")
	ErrInsufficientPosition = errors.New("insufficient position")
	ErrFiatOnly             = errors.New("only USD/JPY/CNY are supported")
	ErrSameCurrency         = errors.New("from and to must be different")
	ErrAmountPositive       = errors.New("amount must be > 0")
	ErrAmountNonZero        = errors.New("amount must be a non-zero number")
	ErrQuantityPositive     = errors.New("quantity must be > 0")
	ErrLimitPricePositive   = errors.New("limitPrice must be > 0 for limit orders")
	ErrSymbolRequired       = errors.New("symbol is required")
	ErrPriceUnavailable     = errors.New("price unavailable")
	ErrUnsupportedCrypto    = errors.New("only BTC/ETH/USDT/USDC are supported")
	ErrInvalidTimeInForce   = errors.New("timeInForce must be day or gtc")
)
