package tax

import (
	"testing"
)

var testRates = []Rate{
	{Percentage: 0, Max: 150_000, Label: "0-150,000"},
	{Percentage: 0.05, Max: 300_000, Label: "150,001-300,000"},
	{Percentage: 0.1, Max: 500_000, Label: "300,001-500,000"},
	{Percentage: 0.15, Max: 750_000, Label: "500,001-750,000"},
	{Percentage: 0.2, Max: 1_000_000, Label: "750,001-1,000,000"},
	{Percentage: 0.25, Max: 2_000_000, Label: "1,000,001-2,000,000"},
	{Percentage: 0.3, Max: 5_000_000, Label: "2,000,001-5,000,000"},
	{Percentage: 0.35, Max: -1, Label: "5,000,001 ขึ้นไป"},
}

func TestCalculateTax(t *testing.T) {
	type TC struct {
		name          string
		income        float64
		deductions    float64
		expectedTax   float64
		expectedRate  float64
		expectedTaxab float64
	}

	tcs := []TC{
		{
			name:          "income 600,000 with personal deduction only",
			income:        600_000,
			deductions:    60_000,
			expectedTax:   33_500,
			expectedRate:  5.58,
			expectedTaxab: 540_000,
		},
		{
			name:          "inside the exempt bracket",
			income:        200_000,
			deductions:    60_000,
			expectedTax:   0,
			expectedRate:  0,
			expectedTaxab: 140_000,
		},
		{
			name:          "deductions larger than income",
			income:        100_000,
			deductions:    160_000,
			expectedTax:   0,
			expectedRate:  0,
			expectedTaxab: 0,
		},
		{
			name:          "top bracket",
			income:        6_060_000,
			deductions:    60_000,
			expectedTax:   1_615_000,
			expectedRate:  26.65,
			expectedTaxab: 6_000_000,
		},
		{
			name:          "fraction of a baht is dropped",
			income:        210_015,
			deductions:    60_000,
			expectedTax:   0,
			expectedRate:  0,
			expectedTaxab: 150_015,
		},
	}

	t.Parallel()

	for _, tc := range tcs {
		t.Run(tc.name, func(t *testing.T) {
			summary := NewTax(TaxConfig{Rates: testRates}).
				SetIncome(tc.income).
				SetDeductions(tc.deductions).
				CalculateTaxSummary()

			if summary.Tax != tc.expectedTax {
				t.Errorf("Wrong tax expected %v, but got %v", tc.expectedTax, summary.Tax)
			}

			if summary.EffectiveRate != tc.expectedRate {
				t.Errorf("Wrong effective rate expected %v, but got %v", tc.expectedRate, summary.EffectiveRate)
			}

			if summary.TaxableIncome != tc.expectedTaxab {
				t.Errorf("Wrong taxable income expected %v, but got %v", tc.expectedTaxab, summary.TaxableIncome)
			}
		})
	}
}

func TestTaxStatements(t *testing.T) {
	summary := NewTax(TaxConfig{Rates: testRates}).SetIncome(560_000).SetDeductions(60_000).CalculateTaxSummary()

	want := []float64{0, 7_500, 20_000, 0, 0, 0, 0, 0}

	if len(summary.TaxStatements) != len(want) {
		t.Fatalf("expected %d statements, got %d", len(want), len(summary.TaxStatements))
	}

	for i, statement := range summary.TaxStatements {
		if statement.Tax != want[i] {
			t.Errorf("level %s: expected %v, but got %v", statement.Rate.Label, want[i], statement.Tax)
		}
	}
}

func TestTaxSaving(t *testing.T) {
	type TC struct {
		name       string
		taxable    float64
		investment float64
		expected   float64
	}

	tcs := []TC{
		{name: "single bracket", taxable: 540_000, investment: 40_000, expected: 6_000},
		{name: "spans two brackets", taxable: 540_000, investment: 100_000, expected: 12_000},
		{name: "investment larger than taxable income", taxable: 200_000, investment: 500_000, expected: 2_500},
		{name: "no investment", taxable: 540_000, investment: 0, expected: 0},
	}

	for _, tc := range tcs {
		t.Run(tc.name, func(t *testing.T) {
			got := TaxSaving(testRates, tc.taxable, tc.investment)

			if got != tc.expected {
				t.Errorf("Wrong saving expected %v, but got %v", tc.expected, got)
			}
		})
	}
}
