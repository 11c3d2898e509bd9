package tax

import "math"

// ExemptThreshold is the upper bound of the 0% bracket.
const ExemptThreshold = 150_000

type Check struct {
	GrossIncome     float64 `json:"gross_income"`
	TotalDeductions float64 `json:"total_deductions"`
	TaxableIncome   float64 `json:"taxable_income"`
	Threshold       float64 `json:"threshold"`
	RequiresTax     bool    `json:"requires_tax"`
}

// QuickCheck computes the taxable income and whether it exceeds the exempt threshold.
func QuickCheck(grossIncome, totalDeductions, threshold float64) Check {
	taxable := math.Max(0, sanitize(grossIncome)-sanitize(totalDeductions))

	return Check{
		GrossIncome:     sanitize(grossIncome),
		TotalDeductions: sanitize(totalDeductions),
		TaxableIncome:   taxable,
		Threshold:       threshold,
		RequiresTax:     taxable > threshold,
	}
}
