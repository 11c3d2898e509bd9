package tax

import (
	"github.com/AnnaCarter465/tax-advisor/ruleset"
	"github.com/shopspring/decimal"
)

type Rate struct {
	Percentage float64
	Max        float64 // -1 for the top bracket
	Label      string
}

type TaxConfig struct {
	Rates []Rate
}

// RatesFromRuleset converts the brackets of a ruleset.
func RatesFromRuleset(r *ruleset.Ruleset) []Rate {
	rates := make([]Rate, 0, len(r.Brackets))
	for _, b := range r.Brackets {
		rates = append(rates, Rate{Percentage: b.Rate, Max: b.Max, Label: b.Label})
	}

	return rates
}

type Tax struct {
	income     float64
	deductions float64
	taxConf    TaxConfig
}

func NewTax(taxConf TaxConfig) *Tax {
	return &Tax{
		taxConf: taxConf,
	}
}

func (t *Tax) SetIncome(income float64) *Tax {
	t.income = sanitize(income)
	return t
}

func (t *Tax) SetDeductions(total float64) *Tax {
	t.deductions = sanitize(total)
	return t
}

type TaxStatement struct {
	Rate Rate
	Tax  float64
}

type TaxSummary struct {
	TaxStatements []TaxStatement
	TaxableIncome float64
	Tax           float64
	EffectiveRate float64 // percent of gross income, 2 decimals
}

func (t *Tax) CalculateTaxSummary() TaxSummary {
	netIncome := t.income - t.deductions

	if netIncome <= 0 {
		return TaxSummary{}
	}

	statements, total := progressive(t.taxConf.Rates, decimal.NewFromFloat(netIncome))

	// whole baht, fractions dropped
	tax := total.Truncate(0)

	return TaxSummary{
		TaxStatements: statements,
		TaxableIncome: netIncome,
		Tax:           tax.InexactFloat64(),
		EffectiveRate: EffectiveRate(tax.InexactFloat64(), t.income),
	}
}

// ProgressiveTax is the whole-baht tax owed on a taxable income.
func ProgressiveTax(rates []Rate, taxableIncome float64) float64 {
	if taxableIncome <= 0 {
		return 0
	}

	_, total := progressive(rates, decimal.NewFromFloat(taxableIncome))
	return total.Truncate(0).InexactFloat64()
}

// TaxSaving is the tax avoided by deducting investment from taxableIncome, across every
// bracket the investment spans.
func TaxSaving(rates []Rate, taxableIncome, investment float64) float64 {
	if investment <= 0 || taxableIncome <= 0 {
		return 0
	}

	reduced := taxableIncome - investment
	if reduced < 0 {
		reduced = 0
	}

	return ProgressiveTax(rates, taxableIncome) - ProgressiveTax(rates, reduced)
}

// EffectiveRate is tax over gross in percent, rounded to 2 places. Zero gross gives zero.
func EffectiveRate(tax, gross float64) float64 {
	if gross <= 0 {
		return 0
	}

	return decimal.NewFromFloat(tax).
		Div(decimal.NewFromFloat(gross)).
		Mul(decimal.NewFromInt(100)).
		Round(2).
		InexactFloat64()
}

func progressive(rates []Rate, netIncome decimal.Decimal) ([]TaxStatement, decimal.Decimal) {
	ts := make([]TaxStatement, 0, len(rates))

	total := decimal.Zero
	lower := decimal.Zero

	for _, rate := range rates {
		if netIncome.LessThanOrEqual(lower) {
			ts = append(ts, TaxStatement{Rate: rate, Tax: 0})
			continue
		}

		upper := netIncome
		if rate.Max != -1 {
			upper = decimal.Min(netIncome, decimal.NewFromFloat(rate.Max))
		}

		tax := upper.Sub(lower).Mul(decimal.NewFromFloat(rate.Percentage))
		total = total.Add(tax)

		ts = append(ts, TaxStatement{
			Rate: rate,
			Tax:  tax.InexactFloat64(),
		})

		if rate.Max != -1 {
			lower = decimal.NewFromFloat(rate.Max)
		}
	}

	return ts, total
}
