package tax

import (
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/AnnaCarter465/tax-advisor/ruleset"
)

var ErrCapExceeded = errors.New("deduction exceeds its limit")

// Allowances maps a deduction category to an amount in baht.
type Allowances map[string]float64

type DeductionInput struct {
	GrossIncome float64 // salary plus bonus
	Salary      float64 // base of salary-ratio ceilings
	HasSpouse   bool
	Children    int
	Parents     int
	Disabled    int
	LineItems   Allowances
}

// Violation describes an amount above the ceiling of its category or head count.
type Violation struct {
	Category string  `json:"category"`
	Amount   float64 `json:"amount"`
	Limit    float64 `json:"limit"`
}

func (v Violation) String() string {
	return fmt.Sprintf("%s: %.0f exceeds limit %.0f", v.Category, v.Amount, v.Limit)
}

type CapViolationError struct {
	Violations []Violation
}

func (e *CapViolationError) Error() string {
	parts := make([]string, 0, len(e.Violations))
	for _, v := range e.Violations {
		parts = append(parts, v.String())
	}

	return ErrCapExceeded.Error() + ": " + strings.Join(parts, "; ")
}

func (e *CapViolationError) Unwrap() error {
	return ErrCapExceeded
}

type Deductions struct {
	Personal float64 `json:"personal"`
	Spouse   float64 `json:"spouse"`
	Children float64 `json:"children"`
	Parents  float64 `json:"parents"`
	Disabled float64 `json:"disabled"`

	// LineItems holds the capped amount of every category of the ruleset, before multipliers.
	LineItems Allowances `json:"line_items"`

	Total    float64     `json:"total"`
	Warnings []Violation `json:"warnings,omitempty"`
}

// Family is the sum of the per-head deductions.
func (d Deductions) Family() float64 {
	return d.Spouse + d.Children + d.Parents + d.Disabled
}

// Aggregate sums the personal, family and line-item deductions of in under rules.
// Over-cap line items are clamped and reported in Warnings; with the reject policy a
// *CapViolationError is returned alongside the clamped result.
func Aggregate(rules *ruleset.Ruleset, in DeductionInput) (Deductions, error) {
	gross := sanitize(in.GrossIncome)
	salary := sanitize(in.Salary)

	d := Deductions{
		Personal: rules.PersonalDeduction,
	}

	spouse := 0
	if in.HasSpouse {
		spouse = 1
	}

	d.Spouse = rules.Family.Spouse.Resolve(spouse)
	d.Children = resolveHeads(&d, "children", rules.Family.Children, in.Children)
	d.Parents = resolveHeads(&d, "parents", rules.Family.Parents, in.Parents)
	d.Disabled = resolveHeads(&d, "disabled", rules.Family.Disabled, in.Disabled)

	items, itemsTotal, violations := CapLineItems(rules, gross, salary, in.LineItems)

	d.LineItems = items
	d.Warnings = append(d.Warnings, violations...)
	d.Total = d.Personal + d.Family() + itemsTotal

	if rules.Policy == ruleset.PolicyReject && len(violations) > 0 {
		return d, &CapViolationError{Violations: violations}
	}

	return d, nil
}

// CapLineItems clamps every category of rules to its ceiling and returns the capped amounts,
// their weighted total and one Violation per clamped category. Categories outside rules are
// dropped.
func CapLineItems(rules *ruleset.Ruleset, gross, salary float64, items Allowances) (Allowances, float64, []Violation) {
	capped := make(Allowances, len(rules.Categories))

	var (
		total      float64
		violations []Violation
	)

	for _, c := range rules.Categories {
		amount := sanitize(items[c.Name])

		if limit, ok := c.Limit(sanitize(gross), sanitize(salary)); ok && amount > limit {
			violations = append(violations, Violation{Category: c.Name, Amount: amount, Limit: limit})
			amount = limit
		}

		capped[c.Name] = amount
		total += amount * c.Weight()
	}

	return capped, total, violations
}

// head-count ceilings always clamp, whatever the policy
func resolveHeads(d *Deductions, name string, p ruleset.PerHead, count int) float64 {
	if p.MaxHeads > 0 && count > p.MaxHeads {
		d.Warnings = append(d.Warnings, Violation{
			Category: name,
			Amount:   float64(count) * p.Amount,
			Limit:    float64(p.MaxHeads) * p.Amount,
		})
	}

	return p.Resolve(count)
}

func sanitize(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) || v < 0 {
		return 0
	}

	return v
}
