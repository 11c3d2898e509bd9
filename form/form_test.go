package form

import (
	"math"
	"testing"

	"github.com/AnnaCarter465/tax-advisor/calcapi"
	"github.com/AnnaCarter465/tax-advisor/ruleset"
	"github.com/AnnaCarter465/tax-advisor/tax"
	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecode(t *testing.T) {
	type TC struct {
		name     string
		body     string
		expected func(t *testing.T, f FormState)
	}

	tcs := []TC{
		{
			name: "flat snake case form",
			body: `{"gross_income": 600000, "bonus": 50000, "has_spouse": true, "number_of_children": 2, "life_insurance": 30000, "risk_tolerance": "high"}`,
			expected: func(t *testing.T, f FormState) {
				assert.Equal(t, float64(600_000), f.GrossIncome)
				assert.Equal(t, float64(50_000), f.Bonus)
				assert.True(t, f.HasSpouse)
				assert.Equal(t, 2, f.NumberOfChildren)
				assert.Equal(t, float64(30_000), f.Deductions["life_insurance"])
				assert.Equal(t, calcapi.RiskHigh, f.RiskTolerance)
			},
		},
		{
			name: "camel case simplified form",
			body: `{"salary": "720,000", "numberOfChildren": "1", "hasRMF": true, "rmfAmount": 50000, "providentFundAmount": 12000}`,
			expected: func(t *testing.T, f FormState) {
				assert.Equal(t, float64(720_000), f.GrossIncome)
				assert.Equal(t, 1, f.NumberOfChildren)
				assert.True(t, f.Toggles["rmf"])
				assert.Equal(t, float64(50_000), f.Deductions["rmf"])
				assert.Equal(t, float64(12_000), f.Deductions["provident_fund"])
			},
		},
		{
			name: "unparsable values become zero",
			body: `{"gross_income": "abc", "bonus": null, "life_insurance": "", "number_of_parents": "two"}`,
			expected: func(t *testing.T, f FormState) {
				assert.Zero(t, f.GrossIncome)
				assert.Zero(t, f.Bonus)
				assert.Zero(t, f.Deductions["life_insurance"])
				assert.Zero(t, f.NumberOfParents)
			},
		},
		{
			name: "negative values become zero",
			body: `{"gross_income": -100, "number_of_children": -3, "rmf": -1}`,
			expected: func(t *testing.T, f FormState) {
				assert.Zero(t, f.GrossIncome)
				assert.Zero(t, f.NumberOfChildren)
				assert.Zero(t, f.Deductions["rmf"])
			},
		},
		{
			name: "unknown risk tolerance defaults to medium",
			body: `{"risk_tolerance": "yolo"}`,
			expected: func(t *testing.T, f FormState) {
				assert.Equal(t, calcapi.RiskMedium, f.RiskTolerance)
			},
		},
		{
			name: "nested deductions and toggles",
			body: `{"deductions": {"ssf": 10000}, "toggles": {"has_ssf": false}, "expense_method": "FLAT"}`,
			expected: func(t *testing.T, f FormState) {
				assert.Equal(t, float64(10_000), f.Deductions["ssf"])
				assert.False(t, f.Toggles["ssf"])
				assert.Equal(t, "flat", f.ExpenseMethod)
			},
		},
		{
			name: "personal deduction is not taken from the form",
			body: `{"personal_deduction": 999999}`,
			expected: func(t *testing.T, f FormState) {
				assert.NotContains(t, f.Deductions, "personal_deduction")
			},
		},
	}

	for _, tc := range tcs {
		t.Run(tc.name, func(t *testing.T) {
			f, err := Decode([]byte(tc.body))
			require.NoError(t, err)

			tc.expected(t, f)
			assert.NoError(t, validator.New().Struct(f))
		})
	}
}

func TestDecodeNotAnObject(t *testing.T) {
	for _, body := range []string{`[]`, `"text"`, `null`, `{`} {
		_, err := Decode([]byte(body))
		assert.Error(t, err, body)
	}
}

func TestLineItemsAppliesToggles(t *testing.T) {
	f := New()
	f.Deductions["rmf"] = 50_000
	f.Deductions["ssf"] = 20_000
	f.Toggles["ssf"] = false
	f.Toggles["rmf"] = true

	items := f.LineItems()

	assert.Equal(t, float64(50_000), items["rmf"])
	assert.NotContains(t, items, "ssf")
}

func TestDeductionInput(t *testing.T) {
	f := New()
	f.GrossIncome = 600_000
	f.Bonus = 100_000
	f.NumberOfParents = 2

	in := f.DeductionInput()

	assert.Equal(t, float64(700_000), in.GrossIncome)
	assert.Equal(t, float64(600_000), in.Salary)
	assert.Equal(t, 2, in.Parents)
}

func TestToCalculateTaxRequest(t *testing.T) {
	rules, err := ruleset.Load("2568")
	require.NoError(t, err)

	f := New()
	f.GrossIncome = 1_000_000
	f.HasSpouse = true
	f.NumberOfChildren = 3
	f.NumberOfParents = 2
	f.IncomeType = "40(1)"
	f.Deductions["life_insurance"] = 150_000
	f.Deductions["donation_education"] = 10_000.4
	f.Deductions["unknown"] = 5_000

	d, err := tax.Aggregate(rules, f.DeductionInput())
	require.NoError(t, err)

	req := ToCalculateTaxRequest(f, d, rules)

	assert.Equal(t, int64(1_000_000), req.GrossIncome)
	assert.Equal(t, int64(60_000), req.PersonalDeduction)
	assert.Equal(t, int64(60_000), req.SpouseDeduction)
	assert.Equal(t, int64(90_000), req.ChildDeduction)
	assert.Equal(t, int64(120_000), req.ParentSupport)
	assert.Equal(t, int64(100_000), req.LifeInsurance)
	assert.Equal(t, int64(10_000), req.DonationEducation)
	assert.Equal(t, calcapi.RiskMedium, req.RiskTolerance)
	assert.Equal(t, "40(1)", req.IncomeType)
	assert.NoError(t, validator.New().Struct(req))

	without, err := ruleset.Load("2567")
	require.NoError(t, err)

	assert.Empty(t, ToCalculateTaxRequest(f, d, without).IncomeType)
}

func TestTransformPicksEndpoint(t *testing.T) {
	type TC struct {
		ruleset  string
		endpoint ruleset.Endpoint
	}

	tcs := []TC{
		{ruleset: "2568", endpoint: ruleset.EndpointCalculateTax},
		{ruleset: "2567", endpoint: ruleset.EndpointCalculateTax},
		{ruleset: "legacy", endpoint: ruleset.EndpointCalculate},
	}

	for _, tc := range tcs {
		t.Run(tc.ruleset, func(t *testing.T) {
			rules, err := ruleset.Load(tc.ruleset)
			require.NoError(t, err)

			f := New()
			f.GrossIncome = 600_000
			f.Bonus = 60_000
			f.Deductions["donation"] = 100_000

			d, err := tax.Aggregate(rules, f.DeductionInput())
			require.NoError(t, err)

			p := Transform(f, d, rules)

			assert.Equal(t, tc.endpoint, p.Endpoint)
			assert.NotNil(t, p.Body())

			if tc.endpoint == ruleset.EndpointCalculate {
				require.NotNil(t, p.Calculate)
				assert.Nil(t, p.CalculateTax)
				assert.Equal(t, int64(600_000), p.Calculate.Salary)
				assert.Equal(t, int64(60_000), p.Calculate.Bonus)
				assert.Equal(t, int64(66_000), p.Calculate.Donation)
			} else {
				require.NotNil(t, p.CalculateTax)
				assert.Nil(t, p.Calculate)
				assert.Equal(t, int64(660_000), p.CalculateTax.GrossIncome)
			}
		})
	}
}

func TestBaht(t *testing.T) {
	assert.Equal(t, int64(10), baht(9.5))
	assert.Equal(t, int64(0), baht(-4))
	assert.Equal(t, int64(1_234), baht(1_234.4))
	assert.Equal(t, int64(0), baht(math.NaN()))
	assert.Equal(t, int64(0), baht(math.Inf(1)))
	assert.Equal(t, int64(0), baht(math.Inf(-1)))
}

func TestTransformNonFiniteIncome(t *testing.T) {
	rules, err := ruleset.Load("2568")
	require.NoError(t, err)

	f := New()
	f.GrossIncome = 600_000
	f.Deductions["life_insurance"] = 50_000

	d, err := tax.Aggregate(rules, f.DeductionInput())
	require.NoError(t, err)

	f.GrossIncome = math.NaN()

	req := ToCalculateTaxRequest(f, d, rules)

	assert.Equal(t, int64(0), req.GrossIncome)
	assert.Equal(t, int64(60_000), req.PersonalDeduction)
	assert.Equal(t, int64(50_000), req.LifeInsurance)
	assert.NoError(t, validator.New().Struct(req))

	f.GrossIncome = 600_000
	f.Bonus = math.Inf(1)

	legacy := ToLegacyRequest(f, d)

	assert.Equal(t, int64(600_000), legacy.Salary)
	assert.Equal(t, int64(0), legacy.Bonus)
	assert.Equal(t, int64(0), ToCalculateTaxRequest(f, d, rules).GrossIncome)
}
