package form

import (
	"math"

	"github.com/AnnaCarter465/tax-advisor/calcapi"
	"github.com/AnnaCarter465/tax-advisor/ruleset"
	"github.com/AnnaCarter465/tax-advisor/tax"
)

// Payload is the body posted to the calculation service. Exactly one of
// CalculateTax and Calculate is set, matching Endpoint.
type Payload struct {
	Endpoint     ruleset.Endpoint             `json:"endpoint"`
	CalculateTax *calcapi.CalculateTaxRequest `json:"calculate_tax,omitempty"`
	Calculate    *calcapi.CalculateRequest    `json:"calculate,omitempty"`
}

// Body returns the request that goes on the wire.
func (p Payload) Body() interface{} {
	if p.Endpoint == ruleset.EndpointCalculate {
		return p.Calculate
	}

	return p.CalculateTax
}

// Transform builds the payload for the endpoint of rules from the form and its resolved deductions.
func Transform(f FormState, d tax.Deductions, rules *ruleset.Ruleset) Payload {
	if rules.Endpoint == ruleset.EndpointCalculate {
		req := ToLegacyRequest(f, d)
		return Payload{Endpoint: ruleset.EndpointCalculate, Calculate: &req}
	}

	req := ToCalculateTaxRequest(f, d, rules)
	return Payload{Endpoint: ruleset.EndpointCalculateTax, CalculateTax: &req}
}

// ToCalculateTaxRequest replaces head counts with resolved family amounts and carries the
// clamped line items. Classification fields are sent only when the ruleset asks for them.
func ToCalculateTaxRequest(f FormState, d tax.Deductions, rules *ruleset.Ruleset) calcapi.CalculateTaxRequest {
	req := calcapi.CalculateTaxRequest{
		GrossIncome:       baht(f.Income()),
		PersonalDeduction: baht(d.Personal),
		SpouseDeduction:   baht(d.Spouse),
		ChildDeduction:    baht(d.Children),
		ParentSupport:     baht(d.Parents),
		DisabledSupport:   baht(d.Disabled),
		RiskTolerance:     calcapi.ParseRiskTolerance(string(f.RiskTolerance)),
	}

	if rules.Classification {
		req.IncomeType = f.IncomeType
		req.BusinessType = f.BusinessType
		req.ExpenseMethod = f.ExpenseMethod
	}

	for category, amount := range d.LineItems {
		req.SetLineItem(category, baht(amount))
	}

	return req
}

// ToLegacyRequest maps the form onto the flat schema of /api/calculate.
func ToLegacyRequest(f FormState, d tax.Deductions) calcapi.CalculateRequest {
	return calcapi.CalculateRequest{
		Salary:            baht(f.GrossIncome),
		Bonus:             baht(f.Bonus),
		PersonalAllowance: baht(d.Personal),
		SpouseAllowance:   baht(d.Spouse),
		ChildAllowance:    baht(d.Children),
		SocialSecurity:    baht(d.LineItems["social_security"]),
		LifeInsurance:     baht(d.LineItems["life_insurance"]),
		HealthInsurance:   baht(d.LineItems["health_insurance"]),
		ProvidentFund:     baht(d.LineItems["provident_fund"]),
		RMF:               baht(d.LineItems["rmf"]),
		SSF:               baht(d.LineItems["ssf"]),
		PensionInsurance:  baht(d.LineItems["pension_insurance"]),
		Donation:          baht(d.LineItems["donation"]),
		RiskTolerance:     calcapi.ParseRiskTolerance(string(f.RiskTolerance)),
	}
}

func baht(v float64) int64 {
	if math.IsNaN(v) || math.IsInf(v, 0) || v <= 0 {
		return 0
	}

	return int64(math.Round(v))
}
