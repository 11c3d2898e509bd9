package form

import (
	"github.com/AnnaCarter465/tax-advisor/calcapi"
	"github.com/AnnaCarter465/tax-advisor/tax"
)

// FormState is one submission of the income and deduction form.
type FormState struct {
	GrossIncome float64 `json:"gross_income" validate:"gte=0"`
	Bonus       float64 `json:"bonus" validate:"gte=0"`

	IncomeType    string `json:"income_type,omitempty"`
	BusinessType  string `json:"business_type,omitempty"`
	ExpenseMethod string `json:"expense_method,omitempty" validate:"omitempty,oneof=flat actual"`

	HasSpouse        bool `json:"has_spouse"`
	NumberOfChildren int  `json:"number_of_children" validate:"gte=0"`
	NumberOfParents  int  `json:"number_of_parents" validate:"gte=0"`
	NumberOfDisabled int  `json:"number_of_disabled" validate:"gte=0"`

	// Deductions holds line-item amounts keyed by category.
	Deductions map[string]float64 `json:"deductions" validate:"dive,gte=0"`
	// Toggles holds explicit has_<category> switches; false zeroes the category.
	Toggles map[string]bool `json:"toggles,omitempty"`

	RiskTolerance calcapi.RiskTolerance `json:"risk_tolerance" validate:"oneof=low medium high"`
}

// New returns an empty form with the default risk tolerance.
func New() FormState {
	return FormState{
		Deductions:    map[string]float64{},
		Toggles:       map[string]bool{},
		RiskTolerance: calcapi.RiskMedium,
	}
}

// Income is gross income plus bonus.
func (f FormState) Income() float64 {
	return f.GrossIncome + f.Bonus
}

// LineItems returns the deduction amounts with disabled toggles applied.
func (f FormState) LineItems() tax.Allowances {
	items := make(tax.Allowances, len(f.Deductions))

	for category, amount := range f.Deductions {
		if enabled, ok := f.Toggles[category]; ok && !enabled {
			continue
		}
		items[category] = amount
	}

	return items
}

// DeductionInput adapts the form to the aggregator.
func (f FormState) DeductionInput() tax.DeductionInput {
	return tax.DeductionInput{
		GrossIncome: f.Income(),
		Salary:      f.GrossIncome,
		HasSpouse:   f.HasSpouse,
		Children:    f.NumberOfChildren,
		Parents:     f.NumberOfParents,
		Disabled:    f.NumberOfDisabled,
		LineItems:   f.LineItems(),
	}
}
