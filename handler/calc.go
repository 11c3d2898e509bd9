package handler

import (
	"context"
	"net/http"

	"github.com/AnnaCarter465/tax-advisor/calcapi"
	"github.com/AnnaCarter465/tax-advisor/database"
	"github.com/AnnaCarter465/tax-advisor/metrics"
	"github.com/AnnaCarter465/tax-advisor/recommend"
	"github.com/AnnaCarter465/tax-advisor/ruleset"
	"github.com/AnnaCarter465/tax-advisor/tax"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

// IDB is the store of deduction cap overrides.
type IDB interface {
	FindAllDeductionCaps(ctx context.Context, ruleset string) ([]database.DeductionCap, error)
	UpdateDeductionCap(ctx context.Context, ruleset, category string, maxAmount float64) (database.DeductionCap, error)
	DeleteDeductionCap(ctx context.Context, ruleset, category string) error
}

// CalcHandler serves the calculation endpoints the advisor posts to.
type CalcHandler struct {
	vl          *validator.Validate
	db          IDB
	rules       *ruleset.Ruleset
	legacyRules *ruleset.Ruleset
	recommender *recommend.Recommender
	legacyRec   *recommend.Recommender
	metrics     *metrics.Metrics
	logger      *zap.Logger
}

// NewCalcHandler wires the calculation endpoints. db may be nil, in which case the ruleset
// ceilings apply unchanged.
func NewCalcHandler(vl *validator.Validate, db IDB, rules, legacyRules *ruleset.Ruleset, templates recommend.Templates, m *metrics.Metrics, logger *zap.Logger) *CalcHandler {
	if logger == nil {
		logger = zap.NewNop()
	}

	return &CalcHandler{
		vl:          vl,
		db:          db,
		rules:       rules,
		legacyRules: legacyRules,
		recommender: recommend.New(templates, tax.RatesFromRuleset(rules)),
		legacyRec:   recommend.New(templates, tax.RatesFromRuleset(legacyRules)),
		metrics:     m,
		logger:      logger,
	}
}

func (h *CalcHandler) effectiveRules(ctx context.Context, base *ruleset.Ruleset) (*ruleset.Ruleset, error) {
	if h.db == nil {
		return base, nil
	}

	caps, err := h.db.FindAllDeductionCaps(ctx, base.Name)
	if err != nil {
		return nil, err
	}

	return base.WithCaps(database.Caps(caps)), nil
}

func (h *CalcHandler) CalculateTax(c echo.Context) error {
	var req calcapi.CalculateTaxRequest

	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ResponseMsg{
			Message: "Bad request",
		})
	}

	req.RiskTolerance = calcapi.ParseRiskTolerance(string(req.RiskTolerance))

	if err := h.vl.Struct(req); err != nil {
		return c.JSON(http.StatusBadRequest, ResponseMsg{
			Message: "Bad request",
		})
	}

	rules, err := h.effectiveRules(c.Request().Context(), h.rules)
	if err != nil {
		h.logger.Error("load deduction caps", zap.String("ruleset", h.rules.Name), zap.Error(err))
		return c.JSON(http.StatusInternalServerError, ResponseMsg{
			Message: "Failed to load deduction caps",
		})
	}

	gross := float64(req.GrossIncome)

	_, itemsTotal, violations := tax.CapLineItems(rules, gross, gross, toAllowances(req.LineItems()))
	for _, v := range violations {
		h.logger.Debug("line item clamped", zap.String("category", v.Category), zap.Float64("amount", v.Amount), zap.Float64("limit", v.Limit))
	}

	family := req.SpouseDeduction + req.ChildDeduction + req.ParentSupport + req.DisabledSupport
	total := float64(req.PersonalDeduction+family) + itemsTotal

	summary := tax.NewTax(tax.TaxConfig{Rates: tax.RatesFromRuleset(rules)}).
		SetIncome(gross).
		SetDeductions(total).
		CalculateTaxSummary()

	result := calcapi.TaxResult{
		GrossIncome:          gross,
		TaxableIncome:        summary.TaxableIncome,
		TaxAmount:            summary.Tax,
		EffectiveTaxRate:     summary.EffectiveRate,
		TotalDeductions:      total,
		RequiresOptimization: summary.Tax > 0,
	}

	plans := calcapi.InvestmentPlans{Plans: []calcapi.InvestmentPlan{}}
	if result.RequiresOptimization {
		plans, err = h.recommender.Plans(req.RiskTolerance, result)
		if err != nil {
			h.logger.Error("build investment plans", zap.Error(err))
			return c.JSON(http.StatusInternalServerError, ResponseMsg{
				Message: "Failed to build investment plans",
			})
		}
	}

	h.metrics.IncCalculation(string(ruleset.EndpointCalculateTax), string(req.RiskTolerance))

	return c.JSON(http.StatusOK, calcapi.CalculateTaxResponse{
		TaxResult:       result,
		InvestmentPlans: &plans,
	})
}

// Calculate serves the flat legacy endpoint. Gross income is salary plus bonus.
func (h *CalcHandler) Calculate(c echo.Context) error {
	var req calcapi.CalculateRequest

	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ResponseMsg{
			Message: "Bad request",
		})
	}

	req.RiskTolerance = calcapi.ParseRiskTolerance(string(req.RiskTolerance))

	if err := h.vl.Struct(req); err != nil {
		return c.JSON(http.StatusBadRequest, ResponseMsg{
			Message: "Bad request",
		})
	}

	rules, err := h.effectiveRules(c.Request().Context(), h.legacyRules)
	if err != nil {
		h.logger.Error("load deduction caps", zap.String("ruleset", h.legacyRules.Name), zap.Error(err))
		return c.JSON(http.StatusInternalServerError, ResponseMsg{
			Message: "Failed to load deduction caps",
		})
	}

	salary := float64(req.Salary)
	gross := salary + float64(req.Bonus)

	_, itemsTotal, _ := tax.CapLineItems(rules, gross, salary, toAllowances(req.LineItems()))
	total := float64(req.PersonalAllowance+req.SpouseAllowance+req.ChildAllowance) + itemsTotal

	summary := tax.NewTax(tax.TaxConfig{Rates: tax.RatesFromRuleset(rules)}).
		SetIncome(gross).
		SetDeductions(total).
		CalculateTaxSummary()

	current := calcapi.CurrentTax{
		GrossIncome:          gross,
		TotalDeductions:      total,
		TaxableIncome:        summary.TaxableIncome,
		TaxAmount:            summary.Tax,
		NetIncome:            gross - summary.Tax,
		EffectiveTaxRate:     summary.EffectiveRate,
		RequiresOptimization: summary.Tax > 0,
	}

	recs, text, err := h.legacyRec.Legacy(req.RiskTolerance, current)
	if err != nil {
		h.logger.Error("build recommendations", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, ResponseMsg{
			Message: "Failed to build recommendations",
		})
	}

	h.metrics.IncCalculation(string(ruleset.EndpointCalculate), string(req.RiskTolerance))

	return c.JSON(http.StatusOK, calcapi.CalculateResponse{
		CurrentTax:      current,
		Recommendations: recs,
		Summary:         text,
		Disclaimer:      recommend.Disclaimer,
	})
}

func toAllowances(items map[string]int64) tax.Allowances {
	out := make(tax.Allowances, len(items))
	for k, v := range items {
		out[k] = float64(v)
	}
	return out
}
