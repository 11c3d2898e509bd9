package view

import (
	"bytes"
	"errors"
	"testing"

	"github.com/AnnaCarter465/tax-advisor/calcapi"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func samplePlans() []calcapi.InvestmentPlan {
	return []calcapi.InvestmentPlan{
		{
			PlanID:          "conservative",
			PlanName:        "Conservative",
			OverallRisk:     "low",
			TotalInvestment: 60_000,
			Allocations: []calcapi.AllocationItem{
				{Category: "Life insurance", InvestmentAmount: 30_000, Percentage: 50},
				{Category: "Pension insurance", InvestmentAmount: 30_000, Percentage: 50},
			},
		},
		{
			PlanID:          "aggressive",
			PlanName:        "Aggressive",
			OverallRisk:     "high",
			TotalInvestment: 100_000,
			Allocations: []calcapi.AllocationItem{
				{Category: "RMF equity", InvestmentAmount: 33_300, Percentage: 33.3},
				{Category: "ThaiESG", InvestmentAmount: 33_300, Percentage: 33.3},
				{Category: "PVD", InvestmentAmount: 33_300, Percentage: 33.3},
				{Category: "Empty", Percentage: 0},
			},
		},
	}
}

func TestSelection(t *testing.T) {
	r := New(calcapi.TaxResult{}, samplePlans(), false)

	assert.Equal(t, 0, r.Selected())

	require.NoError(t, r.Select(1))
	assert.Equal(t, 1, r.Selected())

	err := r.Select(2)
	assert.True(t, errors.Is(err, ErrPlanOutOfRange))
	assert.Equal(t, 1, r.Selected())

	assert.Error(t, r.Select(-1))
}

func TestRowsFollowSelection(t *testing.T) {
	r := New(calcapi.TaxResult{}, samplePlans(), false)

	assert.Len(t, r.Rows(), 2)

	require.NoError(t, r.Select(1))
	rows := r.Rows()
	assert.Len(t, rows, 4)
	assert.Equal(t, "RMF equity", rows[0].Category)
}

func TestSlicesSumToOne(t *testing.T) {
	r := New(calcapi.TaxResult{}, samplePlans(), false)

	for i := range samplePlans() {
		require.NoError(t, r.Select(i))

		sum := 0.0
		for _, s := range r.Slices() {
			sum += s.Fraction
		}
		assert.InDelta(t, 1.0, sum, 1e-9)
	}

	assert.Len(t, r.Slices(), 3)
}

func TestNoPlans(t *testing.T) {
	r := New(calcapi.TaxResult{GrossIncome: 200_000, TaxableIncome: 140_000}, nil, true)

	_, ok := r.Plan()
	assert.False(t, ok)
	assert.Nil(t, r.Rows())
	assert.Nil(t, r.Slices())
	assert.Error(t, r.Select(0))

	cards := r.Summary()
	assert.Equal(t, Card{Title: "Status", Value: "No tax required"}, cards[len(cards)-1])
	assert.Equal(t, "0 THB", cards[2].Value)
}

func TestRender(t *testing.T) {
	r := New(calcapi.TaxResult{GrossIncome: 600_000, TaxableIncome: 540_000, TaxAmount: 33_500, EffectiveTaxRate: 5.58}, samplePlans(), false)

	var buf bytes.Buffer
	require.NoError(t, r.Render(&buf))

	out := buf.String()
	assert.Contains(t, out, "33,500 THB")
	assert.Contains(t, out, "5.58%")
	assert.Contains(t, out, "* 0")
	assert.Contains(t, out, "Life insurance")
}

func TestBaht(t *testing.T) {
	type TC struct {
		in       float64
		expected string
	}

	tcs := []TC{
		{in: 0, expected: "0 THB"},
		{in: 999, expected: "999 THB"},
		{in: 1_000, expected: "1,000 THB"},
		{in: 1_615_000, expected: "1,615,000 THB"},
		{in: -2_500.6, expected: "-2,501 THB"},
	}

	for _, tc := range tcs {
		assert.Equal(t, tc.expected, Baht(tc.in))
	}
}
