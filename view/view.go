// Package view projects a calculation outcome into summary cards, the allocation table of the
// selected plan and its chart slices.
package view

import (
	"errors"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/AnnaCarter465/tax-advisor/calcapi"
	"github.com/shopspring/decimal"
)

var ErrPlanOutOfRange = errors.New("plan index out of range")

type Card struct {
	Title string `json:"title"`
	Value string `json:"value"`
}

type Row struct {
	Category   string  `json:"category"`
	Amount     float64 `json:"amount"`
	Percentage float64 `json:"percentage"`
	TaxSaving  float64 `json:"tax_saving"`
	RiskLevel  string  `json:"risk_level"`
}

type Slice struct {
	Label    string  `json:"label"`
	Fraction float64 `json:"fraction"`
}

// Result holds the plan selection; it starts on the first plan.
type Result struct {
	result   calcapi.TaxResult
	plans    []calcapi.InvestmentPlan
	noTax    bool
	selected int
}

func New(result calcapi.TaxResult, plans []calcapi.InvestmentPlan, noTaxRequired bool) *Result {
	return &Result{
		result: result,
		plans:  plans,
		noTax:  noTaxRequired,
	}
}

func (r *Result) Selected() int {
	return r.selected
}

// Select changes the selected plan. An out of range index leaves the selection unchanged.
func (r *Result) Select(i int) error {
	if i < 0 || i >= len(r.plans) {
		return fmt.Errorf("%w: %d of %d", ErrPlanOutOfRange, i, len(r.plans))
	}

	r.selected = i
	return nil
}

func (r *Result) Plan() (calcapi.InvestmentPlan, bool) {
	if len(r.plans) == 0 {
		return calcapi.InvestmentPlan{}, false
	}

	return r.plans[r.selected], true
}

func (r *Result) Summary() []Card {
	cards := []Card{
		{Title: "Gross income", Value: Baht(r.result.GrossIncome)},
		{Title: "Taxable income", Value: Baht(r.result.TaxableIncome)},
		{Title: "Tax", Value: Baht(r.result.TaxAmount)},
		{Title: "Effective rate", Value: fmt.Sprintf("%.2f%%", r.result.EffectiveTaxRate)},
	}

	if r.noTax {
		cards = append(cards, Card{Title: "Status", Value: "No tax required"})
	}

	return cards
}

func (r *Result) Rows() []Row {
	plan, ok := r.Plan()
	if !ok {
		return nil
	}

	rows := make([]Row, 0, len(plan.Allocations))
	for _, a := range plan.Allocations {
		rows = append(rows, Row{
			Category:   a.Category,
			Amount:     a.InvestmentAmount,
			Percentage: a.Percentage,
			TaxSaving:  a.TaxSaving,
			RiskLevel:  a.RiskLevel,
		})
	}

	return rows
}

// Slices returns the chart slices of the selected plan. Fractions are taken from the allocation
// percentages and sum to 1; a plan without positive percentages has no slices.
func (r *Result) Slices() []Slice {
	plan, ok := r.Plan()
	if !ok {
		return nil
	}

	total := decimal.Zero
	for _, a := range plan.Allocations {
		if a.Percentage > 0 {
			total = total.Add(decimal.NewFromFloat(a.Percentage))
		}
	}

	if !total.IsPositive() {
		return nil
	}

	slices := make([]Slice, 0, len(plan.Allocations))
	for _, a := range plan.Allocations {
		if a.Percentage <= 0 {
			continue
		}

		fraction, _ := decimal.NewFromFloat(a.Percentage).Div(total).Float64()
		slices = append(slices, Slice{Label: a.Category, Fraction: fraction})
	}

	return slices
}

// Render writes the summary, the plan list and the selected plan as plain text.
func (r *Result) Render(w io.Writer) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)

	for _, c := range r.Summary() {
		fmt.Fprintf(tw, "%s\t%s\n", c.Title, c.Value)
	}

	if len(r.plans) > 0 {
		fmt.Fprintln(tw)
		for i, p := range r.plans {
			marker := " "
			if i == r.selected {
				marker = "*"
			}
			fmt.Fprintf(tw, "%s %d\t%s\t%s\tinvest %s\tsave %s\n", marker, i, p.PlanName, p.OverallRisk, Baht(p.TotalInvestment), Baht(p.TotalTaxSaving))
		}

		plan, _ := r.Plan()
		if plan.Description != "" {
			fmt.Fprintf(tw, "\n%s\n", plan.Description)
		}

		fmt.Fprintln(tw)
		fmt.Fprintln(tw, "Category\tAmount\tShare\tTax saving\tRisk")
		for _, row := range r.Rows() {
			fmt.Fprintf(tw, "%s\t%s\t%.1f%%\t%s\t%s\n", row.Category, Baht(row.Amount), row.Percentage, Baht(row.TaxSaving), row.RiskLevel)
		}
	}

	return tw.Flush()
}

// Baht formats an amount with thousands separators and no fraction.
func Baht(v float64) string {
	s := decimal.NewFromFloat(v).Round(0).String()

	sign := ""
	if strings.HasPrefix(s, "-") {
		sign, s = "-", s[1:]
	}

	var b strings.Builder
	for i, c := range s {
		if i > 0 && (len(s)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(c)
	}

	return sign + b.String() + " THB"
}
