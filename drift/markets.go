package drift

import (
	"fmt"
	"sort"
)

// Markets maps perp symbols to their base asset. The zero value is empty;
// values are never mutated after construction.
type Markets struct {
	base map[string]string
}

var defaultMarkets = map[string]string{
	"BTC-PERP":    "BTC",
	"ETH-PERP":    "ETH",
	"SOL-PERP":    "SOL",
	"XRP-PERP":    "XRP",
	"DOGE-PERP":   "DOGE",
	"APT-PERP":    "APT",
	"RNDR-PERP":   "RNDR",
	"SUI-PERP":    "SUI",
	"ARB-PERP":    "ARB",
	"BNB-PERP":    "BNB",
	"OP-PERP":     "OP",
	"MATIC-PERP":  "MATIC",
	"1MBONK-PERP": "1MBONK",
	"1MPEPE-PERP": "1MPEPE",
}

// DefaultMarkets returns the perp markets with published history.
func DefaultMarkets() Markets {
	return NewMarkets(defaultMarkets)
}

// NewMarkets copies m into a Markets table.
func NewMarkets(m map[string]string) Markets {
	base := make(map[string]string, len(m))
	for k, v := range m {
		base[k] = v
	}
	return Markets{base: base}
}

// ListMarkets returns the symbols in sorted order.
func (m Markets) ListMarkets() []string {
	out := make([]string, 0, len(m.base))
	for k := range m.base {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

func (m Markets) MarketBase(symbol string) (string, error) {
	b, ok := m.base[symbol]
	if !ok {
		return "", fmt.Errorf("drift: unknown market %q", symbol)
	}
	return b, nil
}

func (m Markets) Has(symbol string) bool {
	_, ok := m.base[symbol]
	return ok
}
