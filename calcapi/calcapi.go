// Package calcapi holds the request and response shapes of the tax calculation service.
package calcapi

const (
	PathCalculateTax = "/api/calculate-tax"
	PathCalculate    = "/api/calculate"
)

type RiskTolerance string

const (
	RiskLow    RiskTolerance = "low"
	RiskMedium RiskTolerance = "medium"
	RiskHigh   RiskTolerance = "high"
)

// ParseRiskTolerance falls back to medium for anything unknown.
func ParseRiskTolerance(s string) RiskTolerance {
	switch RiskTolerance(s) {
	case RiskLow, RiskMedium, RiskHigh:
		return RiskTolerance(s)
	default:
		return RiskMedium
	}
}

// CalculateTaxRequest is the body of POST /api/calculate-tax. Every amount is a resolved
// deduction in whole baht; no head counts or flags travel on the wire.
type CalculateTaxRequest struct {
	GrossIncome int64 `json:"gross_income" validate:"gte=0"`

	IncomeType    string `json:"income_type,omitempty"`
	BusinessType  string `json:"business_type,omitempty"`
	ExpenseMethod string `json:"expense_method,omitempty" validate:"omitempty,oneof=flat actual"`

	PersonalDeduction int64 `json:"personal_deduction" validate:"gte=0"`
	SpouseDeduction   int64 `json:"spouse_deduction" validate:"gte=0"`
	ChildDeduction    int64 `json:"child_deduction" validate:"gte=0"`
	ParentSupport     int64 `json:"parent_support" validate:"gte=0"`
	DisabledSupport   int64 `json:"disabled_support" validate:"gte=0"`

	LifeInsurance          int64 `json:"life_insurance" validate:"gte=0"`
	LifeInsurancePension   int64 `json:"life_insurance_pension" validate:"gte=0"`
	LifeInsuranceParents   int64 `json:"life_insurance_parents" validate:"gte=0"`
	HealthInsurance        int64 `json:"health_insurance" validate:"gte=0"`
	HealthInsuranceParents int64 `json:"health_insurance_parents" validate:"gte=0"`
	SocialSecurity         int64 `json:"social_security" validate:"gte=0"`

	PensionInsurance int64 `json:"pension_insurance" validate:"gte=0"`
	ProvidentFund    int64 `json:"provident_fund" validate:"gte=0"`
	GPF              int64 `json:"gpf" validate:"gte=0"`
	PVD              int64 `json:"pvd" validate:"gte=0"`
	PVDTeacher       int64 `json:"pvd_teacher" validate:"gte=0"`
	RMF              int64 `json:"rmf" validate:"gte=0"`
	SSF              int64 `json:"ssf" validate:"gte=0"`
	ThaiESG          int64 `json:"thai_esg" validate:"gte=0"`
	ThaiESGXNew      int64 `json:"thai_esgx_new" validate:"gte=0"`
	ThaiESGXLTF      int64 `json:"thai_esgx_ltf" validate:"gte=0"`
	NSF              int64 `json:"nsf" validate:"gte=0"`

	StockInvestment   int64 `json:"stock_investment" validate:"gte=0"`
	EasyEReceipt      int64 `json:"easy_e_receipt" validate:"gte=0"`
	HomeLoanInterest  int64 `json:"home_loan_interest" validate:"gte=0"`
	ShoppingDeduction int64 `json:"shopping_deduction" validate:"gte=0"`
	OTOPDeduction     int64 `json:"otop_deduction" validate:"gte=0"`
	TravelDeduction   int64 `json:"travel_deduction" validate:"gte=0"`

	DonationGeneral          int64 `json:"donation_general" validate:"gte=0"`
	DonationEducation        int64 `json:"donation_education" validate:"gte=0"`
	DonationSocialEnterprise int64 `json:"donation_social_enterprise" validate:"gte=0"`
	DonationPolitical        int64 `json:"donation_political" validate:"gte=0"`

	RiskTolerance RiskTolerance `json:"risk_tolerance" validate:"oneof=low medium high"`
}

// LineItems returns the deduction categories of the request keyed by their wire name.
func (r CalculateTaxRequest) LineItems() map[string]int64 {
	return map[string]int64{
		"life_insurance":             r.LifeInsurance,
		"life_insurance_pension":     r.LifeInsurancePension,
		"life_insurance_parents":     r.LifeInsuranceParents,
		"health_insurance":           r.HealthInsurance,
		"health_insurance_parents":   r.HealthInsuranceParents,
		"social_security":            r.SocialSecurity,
		"pension_insurance":          r.PensionInsurance,
		"provident_fund":             r.ProvidentFund,
		"gpf":                        r.GPF,
		"pvd":                        r.PVD,
		"pvd_teacher":                r.PVDTeacher,
		"rmf":                        r.RMF,
		"ssf":                        r.SSF,
		"thai_esg":                   r.ThaiESG,
		"thai_esgx_new":              r.ThaiESGXNew,
		"thai_esgx_ltf":              r.ThaiESGXLTF,
		"nsf":                        r.NSF,
		"stock_investment":           r.StockInvestment,
		"easy_e_receipt":             r.EasyEReceipt,
		"home_loan_interest":         r.HomeLoanInterest,
		"shopping_deduction":         r.ShoppingDeduction,
		"otop_deduction":             r.OTOPDeduction,
		"travel_deduction":           r.TravelDeduction,
		"donation_general":           r.DonationGeneral,
		"donation_education":         r.DonationEducation,
		"donation_social_enterprise": r.DonationSocialEnterprise,
		"donation_political":         r.DonationPolitical,
	}
}

// SetLineItem assigns amount to the field named by category. It reports false for names that
// have no field on the request.
func (r *CalculateTaxRequest) SetLineItem(category string, amount int64) bool {
	fields := map[string]*int64{
		"life_insurance":             &r.LifeInsurance,
		"life_insurance_pension":     &r.LifeInsurancePension,
		"life_insurance_parents":     &r.LifeInsuranceParents,
		"health_insurance":           &r.HealthInsurance,
		"health_insurance_parents":   &r.HealthInsuranceParents,
		"social_security":            &r.SocialSecurity,
		"pension_insurance":          &r.PensionInsurance,
		"provident_fund":             &r.ProvidentFund,
		"gpf":                        &r.GPF,
		"pvd":                        &r.PVD,
		"pvd_teacher":                &r.PVDTeacher,
		"rmf":                        &r.RMF,
		"ssf":                        &r.SSF,
		"thai_esg":                   &r.ThaiESG,
		"thai_esgx_new":              &r.ThaiESGXNew,
		"thai_esgx_ltf":              &r.ThaiESGXLTF,
		"nsf":                        &r.NSF,
		"stock_investment":           &r.StockInvestment,
		"easy_e_receipt":             &r.EasyEReceipt,
		"home_loan_interest":         &r.HomeLoanInterest,
		"shopping_deduction":         &r.ShoppingDeduction,
		"otop_deduction":             &r.OTOPDeduction,
		"travel_deduction":           &r.TravelDeduction,
		"donation_general":           &r.DonationGeneral,
		"donation_education":         &r.DonationEducation,
		"donation_social_enterprise": &r.DonationSocialEnterprise,
		"donation_political":         &r.DonationPolitical,
	}

	field, ok := fields[category]
	if !ok {
		return false
	}

	*field = amount
	return true
}

type TaxResult struct {
	GrossIncome          float64 `json:"gross_income"`
	TaxableIncome        float64 `json:"taxable_income"`
	TaxAmount            float64 `json:"tax_amount"`
	EffectiveTaxRate     float64 `json:"effective_tax_rate"`
	TotalDeductions      float64 `json:"total_deductions,omitempty"`
	RequiresOptimization bool    `json:"requires_optimization,omitempty"`
}

type AllocationItem struct {
	Category         string   `json:"category"`
	InvestmentAmount float64  `json:"investment_amount"`
	Percentage       float64  `json:"percentage"`
	TaxSaving        float64  `json:"tax_saving"`
	RiskLevel        string   `json:"risk_level"`
	Pros             []string `json:"pros"`
	Cons             []string `json:"cons"`
	ExpectedReturn1Y *float64 `json:"expected_return_1y,omitempty"`
	ExpectedReturn3Y *float64 `json:"expected_return_3y,omitempty"`
	ExpectedReturn5Y *float64 `json:"expected_return_5y,omitempty"`
}

type InvestmentPlan struct {
	PlanID          string           `json:"plan_id"`
	PlanName        string           `json:"plan_name"`
	PlanType        string           `json:"plan_type"`
	Description     string           `json:"description"`
	TotalInvestment float64          `json:"total_investment"`
	TotalTaxSaving  float64          `json:"total_tax_saving"`
	OverallRisk     string           `json:"overall_risk"`
	Allocations     []AllocationItem `json:"allocations"`
}

type InvestmentPlans struct {
	Plans []InvestmentPlan `json:"plans"`
}

type CalculateTaxResponse struct {
	TaxResult       TaxResult        `json:"tax_result"`
	InvestmentPlans *InvestmentPlans `json:"investment_plans"`
}

// CalculateRequest is the flat body of the legacy POST /api/calculate.
type CalculateRequest struct {
	Salary            int64         `json:"salary" validate:"gte=0"`
	Bonus             int64         `json:"bonus" validate:"gte=0"`
	PersonalAllowance int64         `json:"personal_allowance" validate:"gte=0"`
	SpouseAllowance   int64         `json:"spouse_allowance" validate:"gte=0"`
	ChildAllowance    int64         `json:"child_allowance" validate:"gte=0"`
	SocialSecurity    int64         `json:"social_security" validate:"gte=0"`
	LifeInsurance     int64         `json:"life_insurance" validate:"gte=0"`
	HealthInsurance   int64         `json:"health_insurance" validate:"gte=0"`
	ProvidentFund     int64         `json:"provident_fund" validate:"gte=0"`
	RMF               int64         `json:"rmf" validate:"gte=0"`
	SSF               int64         `json:"ssf" validate:"gte=0"`
	PensionInsurance  int64         `json:"pension_insurance" validate:"gte=0"`
	Donation          int64         `json:"donation" validate:"gte=0"`
	RiskTolerance     RiskTolerance `json:"risk_tolerance" validate:"oneof=low medium high"`
}

// LineItems returns the categories of the legacy request keyed by name.
func (r CalculateRequest) LineItems() map[string]int64 {
	return map[string]int64{
		"social_security":   r.SocialSecurity,
		"life_insurance":    r.LifeInsurance,
		"health_insurance":  r.HealthInsurance,
		"provident_fund":    r.ProvidentFund,
		"rmf":               r.RMF,
		"ssf":               r.SSF,
		"pension_insurance": r.PensionInsurance,
		"donation":          r.Donation,
	}
}

type CurrentTax struct {
	GrossIncome          float64 `json:"gross_income"`
	TotalDeductions      float64 `json:"total_deductions"`
	TaxableIncome        float64 `json:"taxable_income"`
	TaxAmount            float64 `json:"tax_amount"`
	NetIncome            float64 `json:"net_income"`
	EffectiveTaxRate     float64 `json:"effective_tax_rate"`
	RequiresOptimization bool    `json:"requires_optimization"`
}

type Recommendation struct {
	Strategy         string   `json:"strategy"`
	Description      string   `json:"description"`
	InvestmentAmount float64  `json:"investment_amount"`
	TaxSaving        float64  `json:"tax_saving"`
	RiskLevel        string   `json:"risk_level"`
	ExpectedReturn1Y *float64 `json:"expected_return_1y"`
	ExpectedReturn3Y *float64 `json:"expected_return_3y"`
	ExpectedReturn5Y *float64 `json:"expected_return_5y"`
	Pros             []string `json:"pros"`
	Cons             []string `json:"cons"`
}

type CalculateResponse struct {
	CurrentTax      CurrentTax       `json:"current_tax"`
	Recommendations []Recommendation `json:"recommendations"`
	Summary         string           `json:"summary"`
	Disclaimer      string           `json:"disclaimer"`
}
