package fx

import (
	"context"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// Conversion is the result of a currency conversion.
type Conversion struct {
	Amount decimal.Decimal
	Rate   decimal.Decimal
}

// Converter converts an amount between currencies. The router uses it
// opportunistically: a conversion failure never fails a request.
type Converter interface {
	Convert(ctx context.Context, amount decimal.Decimal, from, to string) (Conversion, error)
}

// Static converts through a fixed USD-based rate table. Deployments wanting
// live rates drop a market-data client behind the Converter interface.
type Static struct{}

var _ Converter = Static{}

// usdRates holds units of currency per one USD.
var usdRates = map[string]decimal.Decimal{
	"USD": decimal.NewFromInt(1),
	"EUR": decimal.RequireFromString("0.92"),
	"GBP": decimal.RequireFromString("0.79"),
	"INR": decimal.RequireFromString("83.10"),
	"NGN": decimal.RequireFromString("1530.00"),
	"KES": decimal.RequireFromString("129.00"),
	"ZAR": decimal.RequireFromString("18.20"),
	"GHS": decimal.RequireFromString("15.60"),
	"BRL": decimal.RequireFromString("5.43"),
	"MXN": decimal.RequireFromString("18.70"),
	"ARS": decimal.RequireFromString("950.00"),
	"COP": decimal.RequireFromString("4100.00"),
	"JPY": decimal.RequireFromString("151.00"),
	"CAD": decimal.RequireFromString("1.37"),
	"AUD": decimal.RequireFromString("1.52"),
	"SGD": decimal.RequireFromString("1.34"),
}

// Convert computes to-amount and the effective rate via the USD cross.
func (Static) Convert(_ context.Context, amount decimal.Decimal, from, to string) (Conversion, error) {
	from = strings.ToUpper(strings.TrimSpace(from))
	to = strings.ToUpper(strings.TrimSpace(to))
	if from == to {
		return Conversion{Amount: amount, Rate: decimal.NewFromInt(1)}, nil
	}
	fromRate, ok := usdRates[from]
	if !ok {
		return Conversion{}, fmt.Errorf("fx: no rate for %s", from)
	}
	toRate, ok := usdRates[to]
	if !ok {
		return Conversion{}, fmt.Errorf("fx: no rate for %s", to)
	}
	rate := toRate.DivRound(fromRate, 8)
	return Conversion{
		Amount: amount.Mul(rate).Round(2),
		Rate:   rate,
	}, nil
}
