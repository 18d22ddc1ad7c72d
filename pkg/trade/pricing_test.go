package trade

import (
	"fmt"
	"testing"

	"github.com/shopspring/decimal"
)

func TestHash01_FNV1a(t *testing.T) {
	// empty input hashes to the FNV-1a offset basis
	want := float64(2166136261) / float64(uint64(1)<<32)
	if got := hash01(""); got != want {
		t.Errorf("hash01(\"\") = %v, want %v", got, want)
	}
	// code units as a JavaScript client sees them: ASCII matches byte-wise
	// FNV-1a, CJK and astral symbols do not
	pinned := []struct {
		in   string
		want uint32
	}{
		{"stock:AAPL", 1186861747},
		{"stock:腾讯", 3382489762},
		{"fund:招商银行", 1099523651},
		{"stock:😀", 4016195648},
	}
	for _, tt := range pinned {
		if got := hash32(tt.in); got != tt.want {
			t.Errorf("hash32(%q) = %d, want %d", tt.in, got, tt.want)
		}
	}
	if got := Price(Stock, "腾讯", USD); !got.Equal(decimal.RequireFromString("395.90")) {
		t.Errorf("Price(stock, 腾讯) = %s, want 395.90", got)
	}

	for _, s := range []string{"a", "stock:AAPL", "ord_0000"} {
		h := hash01(s)
		if h < 0 || h >= 1 {
			t.Errorf("hash01(%q) = %v, outside [0,1)", s, h)
		}
	}
}

func TestPrice_Deterministic(t *testing.T) {
	for _, sym := range []string{"AAPL", "MSFT", "SPY", "UST10Y", "AAPL240119C00190000"} {
		for _, pt := range []ProductType{Stock, Bond, Fund, Option} {
			a := Price(pt, sym, USD)
			b := Price(pt, sym, USD)
			if !a.Equal(b) {
				t.Fatalf("%s %s: %s != %s", pt, sym, a, b)
			}
			if a.LessThan(decimal.NewFromInt(10)) || a.GreaterThanOrEqual(decimal.NewFromInt(500)) {
				t.Errorf("%s %s USD price %s outside [10, 500)", pt, sym, a)
			}
			if !a.Equal(a.Round(2)) {
				t.Errorf("%s %s price %s not rounded to cents", pt, sym, a)
			}
		}
	}
}

func TestPrice_CaseAndWhitespace(t *testing.T) {
	if a, b := Price(Stock, " aapl ", USD), Price(Stock, "AAPL", USD); !a.Equal(b) {
		t.Errorf("normalized symbol mismatch: %s vs %s", a, b)
	}
}

func TestPrice_Crypto(t *testing.T) {
	tests := []struct {
		sym  string
		ccy  Currency
		want string
	}{
		{"BTC", USD, "100000"},
		{"btc", JPY, "15000000"},
		{"ETH", CNY, "28800"},
		{"USDT", USD, "1"},
		{"USDC", JPY, "150"},
	}
	for _, tt := range tests {
		t.Run(fmt.Sprintf("%s_%s", tt.sym, tt.ccy), func(t *testing.T) {
			if got := Price(Crypto, tt.sym, tt.ccy); !got.Equal(decimal.RequireFromString(tt.want)) {
				t.Errorf("Price = %s, want %s", got, tt.want)
			}
		})
	}
}

func TestPrice_FXConversion(t *testing.T) {
	usd := Price(Stock, "NVDA", USD)
	jpy := Price(Stock, "NVDA", JPY)
	// both are rounded from the same unrounded base
	diff := jpy.Sub(usd.Mul(decimal.NewFromInt(150))).Abs()
	if diff.GreaterThan(decimal.RequireFromString("0.76")) {
		t.Errorf("JPY price %s far from 150 × %s", jpy, usd)
	}
}

func TestRate(t *testing.T) {
	tests := []struct {
		from, to Currency
		want     string
	}{
		{USD, USD, "1"},
		{USD, JPY, "150"},
		{USD, CNY, "7.2"},
		{BTC, USD, "100000"},
		{ETH, BTC, "0.04"},
		{JPY, CNY, "0.048"},
		{CNY, JPY, "20.8333333333333333"},
		{JPY, USD, "0.0066666666666667"},
	}
	for _, tt := range tests {
		// table ratios come out exact, repeating ones at 16 places
		got := Rate(tt.from, tt.to)
		want := decimal.RequireFromString(tt.want)
		if !got.Equal(want) {
			t.Errorf("Rate(%s, %s) = %s, want %s", tt.from, tt.to, got, tt.want)
		}
	}
	if !Rate("XYZ", USD).IsZero() {
		t.Error("unknown currency should yield zero rate")
	}
}

func TestGetMarketPrice(t *testing.T) {
	q := GetMarketPrice(Stock, "AAPL", "")
	if !q.OK || q.Currency != USD || q.Price != num(Price(Stock, "AAPL", USD)) {
		t.Errorf("quote = %+v", q)
	}

	empty := GetMarketPrice(Stock, "   ", JPY)
	if empty.OK || empty.Error != ErrSymbolRequired.Error() || empty.Symbol != "" {
		t.Errorf("empty symbol quote = %+v", empty)
	}

	// a stock quoted in BTC rounds to zero cents
	tiny := GetMarketPrice(Stock, "AAPL", BTC)
	if tiny.OK || tiny.Error != ErrPriceUnavailable.Error() {
		t.Errorf("BTC quote = %+v", tiny)
	}
}
