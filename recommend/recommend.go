// Package recommend builds investment plans for the reference calculation service from
// templates keyed by risk tolerance.
package recommend

import (
	"embed"
	"errors"
	"fmt"
	"path"

	"github.com/AnnaCarter465/tax-advisor/calcapi"
	"github.com/AnnaCarter465/tax-advisor/tax"
	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"
)

//go:embed templates/*.yaml
var templateFiles embed.FS

const Disclaimer = "Projected returns are illustrative and not guaranteed. Check the current deduction rules of the Revenue Department before investing."

var ErrNoTemplates = errors.New("no plan templates for risk tolerance")

type AllocationTemplate struct {
	Category         string   `yaml:"category"`
	Percentage       float64  `yaml:"percentage"`
	RiskLevel        string   `yaml:"risk_level"`
	Pros             []string `yaml:"pros"`
	Cons             []string `yaml:"cons"`
	ExpectedReturn1Y *float64 `yaml:"expected_return_1y"`
	ExpectedReturn3Y *float64 `yaml:"expected_return_3y"`
	ExpectedReturn5Y *float64 `yaml:"expected_return_5y"`
}

type PlanTemplate struct {
	ID          string               `yaml:"id"`
	Name        string               `yaml:"name"`
	Description string               `yaml:"description"`
	Allocations []AllocationTemplate `yaml:"allocations"`
}

type templateFile struct {
	Risk     calcapi.RiskTolerance `yaml:"risk"`
	PlanType string                `yaml:"plan_type"`
	Plans    []PlanTemplate        `yaml:"plans"`
}

type Templates map[calcapi.RiskTolerance]templateFile

// LoadTemplates reads the embedded plan templates.
func LoadTemplates() (Templates, error) {
	entries, err := templateFiles.ReadDir("templates")
	if err != nil {
		return nil, err
	}

	templates := make(Templates, len(entries))
	for _, entry := range entries {
		data, err := templateFiles.ReadFile(path.Join("templates", entry.Name()))
		if err != nil {
			return nil, err
		}

		var f templateFile
		if err := yaml.Unmarshal(data, &f); err != nil {
			return nil, fmt.Errorf("template %s: %w", entry.Name(), err)
		}

		templates[f.Risk] = f
	}

	return templates, nil
}

// Tiers returns the total investment of each of the three plans for a gross income.
func Tiers(grossIncome float64) [3]float64 {
	switch {
	case grossIncome < 600_000:
		return [3]float64{40_000, 60_000, 80_000}
	case grossIncome < 1_000_000:
		return [3]float64{60_000, 100_000, 150_000}
	case grossIncome < 1_500_000:
		return [3]float64{200_000, 350_000, 500_000}
	case grossIncome < 2_000_000:
		return [3]float64{300_000, 500_000, 800_000}
	case grossIncome < 3_000_000:
		return [3]float64{500_000, 800_000, 1_200_000}
	default:
		return [3]float64{800_000, 1_200_000, 1_800_000}
	}
}

type Recommender struct {
	templates Templates
	rates     []tax.Rate
}

func New(templates Templates, rates []tax.Rate) *Recommender {
	return &Recommender{
		templates: templates,
		rates:     rates,
	}
}

// Plans builds the plans of risk for a calculated tax result. Each plan invests the tier amount
// of its position; its saving is the tax difference across every bracket the investment spans,
// split over the allocations by percentage.
func (r *Recommender) Plans(risk calcapi.RiskTolerance, result calcapi.TaxResult) (calcapi.InvestmentPlans, error) {
	tf, ok := r.templates[calcapi.ParseRiskTolerance(string(risk))]
	if !ok || len(tf.Plans) == 0 {
		return calcapi.InvestmentPlans{}, fmt.Errorf("%w: %s", ErrNoTemplates, risk)
	}

	tiers := Tiers(result.GrossIncome)
	plans := make([]calcapi.InvestmentPlan, 0, len(tf.Plans))

	for i, tpl := range tf.Plans {
		total := tiers[len(tiers)-1]
		if i < len(tiers) {
			total = tiers[i]
		}

		saving := tax.TaxSaving(r.rates, result.TaxableIncome, total)

		plans = append(plans, calcapi.InvestmentPlan{
			PlanID:          tpl.ID,
			PlanName:        tpl.Name,
			PlanType:        tf.PlanType,
			Description:     tpl.Description,
			TotalInvestment: total,
			TotalTaxSaving:  saving,
			OverallRisk:     string(tf.Risk),
			Allocations:     allocate(tpl.Allocations, total, saving),
		})
	}

	return calcapi.InvestmentPlans{Plans: plans}, nil
}

// Legacy builds the recommendation list of the flat endpoint from the first plan of risk.
func (r *Recommender) Legacy(risk calcapi.RiskTolerance, current calcapi.CurrentTax) ([]calcapi.Recommendation, string, error) {
	plans, err := r.Plans(risk, calcapi.TaxResult{
		GrossIncome:   current.GrossIncome,
		TaxableIncome: current.TaxableIncome,
	})
	if err != nil {
		return nil, "", err
	}

	plan := plans.Plans[0]

	recs := make([]calcapi.Recommendation, 0, len(plan.Allocations))
	for _, a := range plan.Allocations {
		recs = append(recs, calcapi.Recommendation{
			Strategy:         a.Category,
			Description:      plan.Description,
			InvestmentAmount: a.InvestmentAmount,
			TaxSaving:        a.TaxSaving,
			RiskLevel:        a.RiskLevel,
			ExpectedReturn1Y: a.ExpectedReturn1Y,
			ExpectedReturn3Y: a.ExpectedReturn3Y,
			ExpectedReturn5Y: a.ExpectedReturn5Y,
			Pros:             a.Pros,
			Cons:             a.Cons,
		})
	}

	summary := fmt.Sprintf("Tax due %.0f THB at an effective rate of %.2f%%. Investing %.0f THB as recommended saves %.0f THB.",
		current.TaxAmount, current.EffectiveTaxRate, plan.TotalInvestment, plan.TotalTaxSaving)
	if !current.RequiresOptimization {
		summary = fmt.Sprintf("Tax due %.0f THB. No further tax planning is needed.", current.TaxAmount)
	}

	return recs, summary, nil
}

func allocate(templates []AllocationTemplate, total, saving float64) []calcapi.AllocationItem {
	percentages := normalize(templates)

	items := make([]calcapi.AllocationItem, 0, len(templates))
	for i, a := range templates {
		share := decimal.NewFromFloat(percentages[i]).Div(decimal.NewFromInt(100))

		items = append(items, calcapi.AllocationItem{
			Category:         a.Category,
			InvestmentAmount: share.Mul(decimal.NewFromFloat(total)).Truncate(0).InexactFloat64(),
			Percentage:       percentages[i],
			TaxSaving:        share.Mul(decimal.NewFromFloat(saving)).Truncate(0).InexactFloat64(),
			RiskLevel:        a.RiskLevel,
			Pros:             a.Pros,
			Cons:             a.Cons,
			ExpectedReturn1Y: a.ExpectedReturn1Y,
			ExpectedReturn3Y: a.ExpectedReturn3Y,
			ExpectedReturn5Y: a.ExpectedReturn5Y,
		})
	}

	return items
}

// normalize scales template percentages so they sum to 100, rounded to 2 places.
func normalize(templates []AllocationTemplate) []float64 {
	sum := decimal.Zero
	for _, a := range templates {
		if a.Percentage > 0 {
			sum = sum.Add(decimal.NewFromFloat(a.Percentage))
		}
	}

	out := make([]float64, len(templates))
	if !sum.IsPositive() {
		return out
	}

	hundred := decimal.NewFromInt(100)
	for i, a := range templates {
		if a.Percentage <= 0 {
			continue
		}
		out[i] = decimal.NewFromFloat(a.Percentage).Mul(hundred).Div(sum).Round(2).InexactFloat64()
	}

	return out
}
