package trade

import (
	"math/rand/v2"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

var (
	demoStocks = []string{"MSFT", "AAPL", "NVDA", "AMZN", "GOOGL", "META", "TSLA", "NFLX"}
	demoFunds  = []string{"SPY", "QQQ", "VTI", "VOO", "IWM"}
)

// coin balance ranges for seeded crypto holdings
var demoCoinRange = map[Currency][2]float64{
	BTC:  {0.002, 0.03},
	ETH:  {0.05, 1.2},
	USDT: {200, 3000},
	USDC: {200, 3000},
}

type demoPick struct {
	productType ProductType
	symbol      string
}

func randInt(rng *rand.Rand, lo, hi int) int {
	return lo + rng.IntN(hi-lo+1)
}

func randFloat(rng *rand.Rand, lo, hi float64) float64 {
	return lo + rng.Float64()*(hi-lo)
}

// SeedDemo stores 2-3 random USD stock/fund positions (cost basis within
// ±15% of the oracle price) and sets exactly 2 random coin balances.
// Existing coin balances are replaced.
func (e *Engine) SeedDemo(rng *rand.Rand) {
	e.mu.Lock()
	now := e.clock.Now()

	picks := make([]demoPick, 0, len(demoStocks)+len(demoFunds))
	for _, s := range demoStocks {
		picks = append(picks, demoPick{Stock, s})
	}
	for _, s := range demoFunds {
		picks = append(picks, demoPick{Fund, s})
	}
	rng.Shuffle(len(picks), func(i, j int) { picks[i], picks[j] = picks[j], picks[i] })
	picks = picks[:randInt(rng, 2, 3)]

	for _, p := range picks {
		qty := randInt(rng, 5, 200)
		if p.productType == Fund {
			qty = randInt(rng, 10, 500)
		}
		mkt := Price(p.productType, p.symbol, USD)
		avg := round2(mkt.Mul(decimal.NewFromFloat(randFloat(rng, 0.85, 1.15))))
		key := keyOf(p.productType, p.symbol, USD)
		if e.positions.Get(key) != nil {
			continue
		}
		e.positions.Seed(key, decimal.NewFromInt(int64(qty)), avg, now)
	}

	coins := append([]Currency{}, CryptoCurrencies...)
	rng.Shuffle(len(coins), func(i, j int) { coins[i], coins[j] = coins[j], coins[i] })
	for _, c := range CryptoCurrencies {
		b := e.ledger.get(c)
		b.Available = decimal.Zero
		b.UpdatedAt = now
	}
	for _, c := range coins[:2] {
		r := demoCoinRange[c]
		e.ledger.Credit(c, round8(decimal.NewFromFloat(randFloat(rng, r[0], r[1]))), now)
	}

	e.logger.Info("demo_seeded",
		zap.Int("positions", e.positions.Len()),
		zap.String("coins", string(coins[0])+","+string(coins[1])))

	snap := e.snapshotLocked(now)
	e.unlockAndPublish(snap)
}
