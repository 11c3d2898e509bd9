package recommend

import (
	"errors"
	"testing"

	"github.com/AnnaCarter465/tax-advisor/calcapi"
	"github.com/AnnaCarter465/tax-advisor/ruleset"
	"github.com/AnnaCarter465/tax-advisor/tax"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRecommender(t *testing.T) *Recommender {
	t.Helper()

	templates, err := LoadTemplates()
	require.NoError(t, err)

	rules, err := ruleset.Load(ruleset.Default)
	require.NoError(t, err)

	return New(templates, tax.RatesFromRuleset(rules))
}

func TestLoadTemplates(t *testing.T) {
	templates, err := LoadTemplates()
	require.NoError(t, err)

	for _, risk := range []calcapi.RiskTolerance{calcapi.RiskLow, calcapi.RiskMedium, calcapi.RiskHigh} {
		assert.Len(t, templates[risk].Plans, 3, risk)
	}
	assert.Equal(t, "conservative", templates[calcapi.RiskLow].PlanType)
	assert.Equal(t, "aggressive", templates[calcapi.RiskHigh].PlanType)
}

func TestTiers(t *testing.T) {
	type TC struct {
		gross    float64
		expected [3]float64
	}

	tcs := []TC{
		{gross: 0, expected: [3]float64{40_000, 60_000, 80_000}},
		{gross: 599_999, expected: [3]float64{40_000, 60_000, 80_000}},
		{gross: 600_000, expected: [3]float64{60_000, 100_000, 150_000}},
		{gross: 1_000_000, expected: [3]float64{200_000, 350_000, 500_000}},
		{gross: 1_500_000, expected: [3]float64{300_000, 500_000, 800_000}},
		{gross: 2_000_000, expected: [3]float64{500_000, 800_000, 1_200_000}},
		{gross: 3_000_000, expected: [3]float64{800_000, 1_200_000, 1_800_000}},
	}

	for _, tc := range tcs {
		assert.Equal(t, tc.expected, Tiers(tc.gross), tc.gross)
	}
}

func TestPlans(t *testing.T) {
	r := newRecommender(t)

	got, err := r.Plans(calcapi.RiskMedium, calcapi.TaxResult{GrossIncome: 600_000, TaxableIncome: 540_000, TaxAmount: 33_500})
	require.NoError(t, err)
	require.Len(t, got.Plans, 3)

	type TC struct {
		investment float64
		saving     float64
	}

	tcs := []TC{
		{investment: 60_000, saving: 8_000},
		{investment: 100_000, saving: 12_000},
		{investment: 150_000, saving: 17_000},
	}

	for i, tc := range tcs {
		assert.Equal(t, tc.investment, got.Plans[i].TotalInvestment)
		assert.Equal(t, tc.saving, got.Plans[i].TotalTaxSaving)
		assert.Equal(t, "moderate", got.Plans[i].PlanType)
		assert.Equal(t, "medium", got.Plans[i].OverallRisk)
	}

	first := got.Plans[0].Allocations
	require.Len(t, first, 4)
	assert.Equal(t, float64(30_000), first[0].InvestmentAmount)
	assert.Equal(t, float64(4_000), first[0].TaxSaving)
	assert.Equal(t, float64(800), first[3].TaxSaving)
	require.NotNil(t, first[0].ExpectedReturn5Y)
}

func TestPlanPercentagesSumToHundred(t *testing.T) {
	r := newRecommender(t)

	for _, risk := range []calcapi.RiskTolerance{calcapi.RiskLow, calcapi.RiskMedium, calcapi.RiskHigh} {
		got, err := r.Plans(risk, calcapi.TaxResult{GrossIncome: 1_200_000, TaxableIncome: 900_000})
		require.NoError(t, err)

		for _, p := range got.Plans {
			sum := 0.0
			for _, a := range p.Allocations {
				sum += a.Percentage
			}
			assert.InDelta(t, 100, sum, 0.05, p.PlanName)
		}
	}
}

func TestNormalize(t *testing.T) {
	got := normalize([]AllocationTemplate{{Percentage: 1}, {Percentage: 1}, {Percentage: 2}, {Percentage: -5}})

	assert.Equal(t, []float64{25, 25, 50, 0}, got)
	assert.Equal(t, []float64{0}, normalize([]AllocationTemplate{{Percentage: 0}}))
}

func TestPlansUnknownTemplates(t *testing.T) {
	r := New(Templates{}, nil)

	_, err := r.Plans(calcapi.RiskLow, calcapi.TaxResult{})

	assert.True(t, errors.Is(err, ErrNoTemplates))
}

func TestLegacy(t *testing.T) {
	r := newRecommender(t)

	recs, summary, err := r.Legacy(calcapi.RiskLow, calcapi.CurrentTax{
		GrossIncome:          600_000,
		TaxableIncome:        540_000,
		TaxAmount:            33_500,
		EffectiveTaxRate:     5.58,
		RequiresOptimization: true,
	})

	require.NoError(t, err)
	require.Len(t, recs, 3)
	assert.Equal(t, float64(30_000), recs[0].InvestmentAmount)
	assert.Contains(t, summary, "saves 8000 THB")

	_, summary, err = r.Legacy(calcapi.RiskLow, calcapi.CurrentTax{GrossIncome: 100_000})
	require.NoError(t, err)
	assert.Contains(t, summary, "No further tax planning")
}
