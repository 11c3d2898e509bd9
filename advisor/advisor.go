// Package advisor runs one form submission through aggregation, the threshold pre-check and,
// when tax is due, the calculation service.
package advisor

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/AnnaCarter465/tax-advisor/calcapi"
	"github.com/AnnaCarter465/tax-advisor/form"
	"github.com/AnnaCarter465/tax-advisor/metrics"
	"github.com/AnnaCarter465/tax-advisor/ruleset"
	"github.com/AnnaCarter465/tax-advisor/tax"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

var (
	ErrInvalidPayload = errors.New("invalid calculation payload")
	ErrRemote         = errors.New("calculation service failed")
)

// Calculator is the remote calculation service.
type Calculator interface {
	CalculateTax(ctx context.Context, req calcapi.CalculateTaxRequest) (calcapi.CalculateTaxResponse, error)
	Calculate(ctx context.Context, req calcapi.CalculateRequest) (calcapi.CalculateResponse, error)
}

// Outcome is everything the result view needs for one submission.
type Outcome struct {
	SubmissionID  string                     `json:"submission_id"`
	Ruleset       string                     `json:"ruleset"`
	Check         tax.Check                  `json:"check"`
	Deductions    tax.Deductions             `json:"deductions"`
	Warnings      []tax.Violation            `json:"warnings"`
	NoTaxRequired bool                       `json:"no_tax_required"`
	Payload       *form.Payload              `json:"payload,omitempty"`
	Result        calcapi.TaxResult          `json:"tax_result"`
	Plans         []calcapi.InvestmentPlan   `json:"plans"`
	Legacy        *calcapi.CalculateResponse `json:"legacy,omitempty"`
}

type Advisor struct {
	rules    *ruleset.Ruleset
	calc     Calculator
	validate *validator.Validate
	metrics  *metrics.Metrics
	logger   *zap.Logger
}

func New(rules *ruleset.Ruleset, calc Calculator, validate *validator.Validate, m *metrics.Metrics, logger *zap.Logger) *Advisor {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Advisor{
		rules:    rules,
		calc:     calc,
		validate: validate,
		metrics:  m,
		logger:   logger,
	}
}

func (a *Advisor) Ruleset() *ruleset.Ruleset {
	return a.rules
}

// Prepare aggregates deductions and runs the threshold pre-check without contacting the
// calculation service. With no tax due the outcome already carries a zero-tax result.
func (a *Advisor) Prepare(f form.FormState) (Outcome, error) {
	d, err := tax.Aggregate(a.rules, f.DeductionInput())

	for _, w := range d.Warnings {
		a.metrics.IncClamped(w.Category)
	}

	out := Outcome{
		SubmissionID: uuid.NewString(),
		Ruleset:      a.rules.Name,
		Deductions:   d,
		Warnings:     d.Warnings,
	}

	if err != nil {
		return out, err
	}

	out.Check = tax.QuickCheck(f.Income(), d.Total, a.rules.ExemptThreshold)
	a.metrics.ObserveQuickCheck(out.Check.RequiresTax)

	if !out.Check.RequiresTax {
		out.NoTaxRequired = true
		out.Result = calcapi.TaxResult{
			GrossIncome:     out.Check.GrossIncome,
			TaxableIncome:   out.Check.TaxableIncome,
			TotalDeductions: d.Total,
		}
	}

	return out, nil
}

// Evaluate runs the whole flow for one submission.
func (a *Advisor) Evaluate(ctx context.Context, f form.FormState) (Outcome, error) {
	out, err := a.Prepare(f)
	if err != nil || out.NoTaxRequired {
		return out, err
	}

	payload := form.Transform(f, out.Deductions, a.rules)
	if err := a.validate.Struct(payload.Body()); err != nil {
		return out, fmt.Errorf("%w: %v", ErrInvalidPayload, err)
	}
	out.Payload = &payload

	start := time.Now()

	switch payload.Endpoint {
	case ruleset.EndpointCalculate:
		var resp calcapi.CalculateResponse
		resp, err = a.calc.Calculate(ctx, *payload.Calculate)
		if err == nil {
			out.Result = legacyResult(resp.CurrentTax)
			out.Plans = LegacyPlans(resp)
			out.Legacy = &resp
		}
	default:
		var resp calcapi.CalculateTaxResponse
		resp, err = a.calc.CalculateTax(ctx, *payload.CalculateTax)
		if err == nil {
			out.Result = resp.TaxResult
			if resp.InvestmentPlans != nil {
				out.Plans = resp.InvestmentPlans.Plans
			}
		}
	}

	if !errors.Is(err, context.Canceled) {
		a.metrics.ObserveRemoteCall(string(payload.Endpoint), time.Since(start), err)
	}

	if err != nil {
		a.logger.Warn("calculation service failed",
			zap.String("submission_id", out.SubmissionID),
			zap.String("endpoint", string(payload.Endpoint)),
			zap.Error(err),
		)
		return out, fmt.Errorf("%w: %w", ErrRemote, err)
	}

	a.logger.Debug("submission evaluated",
		zap.String("submission_id", out.SubmissionID),
		zap.Float64("tax_amount", out.Result.TaxAmount),
		zap.Int("plans", len(out.Plans)),
	)

	return out, nil
}

func legacyResult(c calcapi.CurrentTax) calcapi.TaxResult {
	return calcapi.TaxResult{
		GrossIncome:          c.GrossIncome,
		TaxableIncome:        c.TaxableIncome,
		TaxAmount:            c.TaxAmount,
		EffectiveTaxRate:     c.EffectiveTaxRate,
		TotalDeductions:      c.TotalDeductions,
		RequiresOptimization: c.RequiresOptimization,
	}
}

// LegacyPlans presents the recommendations of the legacy endpoint as a single plan.
func LegacyPlans(resp calcapi.CalculateResponse) []calcapi.InvestmentPlan {
	if len(resp.Recommendations) == 0 {
		return nil
	}

	plan := calcapi.InvestmentPlan{
		PlanID:      "legacy",
		PlanName:    "Recommendations",
		PlanType:    "moderate",
		Description: resp.Summary,
		Allocations: make([]calcapi.AllocationItem, 0, len(resp.Recommendations)),
	}

	for _, r := range resp.Recommendations {
		plan.TotalInvestment += r.InvestmentAmount
		plan.TotalTaxSaving += r.TaxSaving
	}

	for _, r := range resp.Recommendations {
		pct := 0.0
		if plan.TotalInvestment > 0 {
			pct = math.Round(r.InvestmentAmount/plan.TotalInvestment*1000) / 10
		}

		plan.Allocations = append(plan.Allocations, calcapi.AllocationItem{
			Category:         r.Strategy,
			InvestmentAmount: r.InvestmentAmount,
			Percentage:       pct,
			TaxSaving:        r.TaxSaving,
			RiskLevel:        r.RiskLevel,
			Pros:             r.Pros,
			Cons:             r.Cons,
			ExpectedReturn1Y: r.ExpectedReturn1Y,
			ExpectedReturn3Y: r.ExpectedReturn3Y,
			ExpectedReturn5Y: r.ExpectedReturn5Y,
		})
	}

	plan.OverallRisk = resp.Recommendations[0].RiskLevel

	return []calcapi.InvestmentPlan{plan}
}
