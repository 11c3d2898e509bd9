package form

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"unicode"

	"github.com/AnnaCarter465/tax-advisor/calcapi"
)

var ErrNotAnObject = errors.New("form must be a JSON object")

// aliases of the simplified form
var fieldAliases = map[string]string{
	"salary":         "gross_income",
	"has_spouse":     "has_spouse",
	"children":       "number_of_children",
	"parents":        "number_of_parents",
	"disabled":       "number_of_disabled",
	"donation":       "donation",
	"risk":           "risk_tolerance",
	"risk_level":     "risk_tolerance",
	"personal":       "personal_deduction",
	"personal_allow": "personal_deduction",
}

// Decode parses a form body. Only a body that is not a JSON object is an error: numbers that do
// not parse become 0, negative amounts become 0 and unknown risk tolerances become medium.
func Decode(data []byte) (FormState, error) {
	f := New()

	if err := json.Unmarshal(data, &f); err != nil {
		return New(), err
	}

	return f, nil
}

func (f *FormState) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage

	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	if err := dec.Decode(&raw); err != nil || raw == nil {
		return ErrNotAnObject
	}

	*f = New()

	for key, value := range raw {
		f.set(normalizeKey(key), value)
	}

	return nil
}

func (f *FormState) set(key string, value json.RawMessage) {
	switch key {
	case "gross_income":
		f.GrossIncome = coerceAmount(value)
	case "bonus":
		f.Bonus = coerceAmount(value)
	case "income_type":
		f.IncomeType = coerceString(value)
	case "business_type":
		f.BusinessType = coerceString(value)
	case "expense_method":
		method := strings.ToLower(coerceString(value))
		if method == "flat" || method == "actual" {
			f.ExpenseMethod = method
		}
	case "has_spouse":
		f.HasSpouse = coerceBool(value)
	case "number_of_children":
		f.NumberOfChildren = coerceCount(value)
	case "number_of_parents":
		f.NumberOfParents = coerceCount(value)
	case "number_of_disabled":
		f.NumberOfDisabled = coerceCount(value)
	case "risk_tolerance":
		f.RiskTolerance = calcapi.ParseRiskTolerance(strings.ToLower(coerceString(value)))
	case "personal_deduction":
		// fixed by the ruleset
	case "deductions":
		var nested map[string]json.RawMessage
		if err := json.Unmarshal(value, &nested); err == nil {
			for k, v := range nested {
				f.set(normalizeKey(k), v)
			}
		}
	case "toggles":
		var nested map[string]json.RawMessage
		if err := json.Unmarshal(value, &nested); err == nil {
			for k, v := range nested {
				f.Toggles[strings.TrimPrefix(normalizeKey(k), "has_")] = coerceBool(v)
			}
		}
	default:
		if category, ok := strings.CutPrefix(key, "has_"); ok {
			f.Toggles[category] = coerceBool(value)
			return
		}
		f.Deductions[key] = coerceAmount(value)
	}
}

// normalizeKey maps camelCase and *_amount spellings to the snake_case category name.
func normalizeKey(key string) string {
	key = toSnake(strings.TrimSpace(key))
	key = strings.TrimSuffix(key, "_amount")

	if alias, ok := fieldAliases[key]; ok {
		return alias
	}

	return key
}

func toSnake(s string) string {
	runes := []rune(s)

	var b strings.Builder
	for i, r := range runes {
		if unicode.IsUpper(r) {
			prevLower := i > 0 && (unicode.IsLower(runes[i-1]) || unicode.IsDigit(runes[i-1]))
			nextLower := i > 0 && i+1 < len(runes) && unicode.IsUpper(runes[i-1]) && unicode.IsLower(runes[i+1])
			if prevLower || nextLower {
				b.WriteByte('_')
			}
			b.WriteRune(unicode.ToLower(r))
			continue
		}
		if r == '-' || r == ' ' {
			b.WriteByte('_')
			continue
		}
		b.WriteRune(r)
	}

	return b.String()
}

func coerceAmount(value json.RawMessage) float64 {
	n := coerceNumber(value)
	if n < 0 {
		return 0
	}

	return n
}

func coerceCount(value json.RawMessage) int {
	n := coerceNumber(value)
	if n < 0 || n > math.MaxInt32 {
		return 0
	}

	return int(n)
}

func coerceNumber(value json.RawMessage) float64 {
	var v interface{}

	dec := json.NewDecoder(bytes.NewReader(value))
	dec.UseNumber()
	if err := dec.Decode(&v); err != nil {
		return 0
	}

	var s string
	switch t := v.(type) {
	case json.Number:
		s = t.String()
	case string:
		s = strings.NewReplacer(",", "", " ", "", "_", "").Replace(t)
	case bool:
		if t {
			return 1
		}
		return 0
	default:
		return 0
	}

	n, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(n) || math.IsInf(n, 0) {
		return 0
	}

	return n
}

func coerceBool(value json.RawMessage) bool {
	var v interface{}
	if err := json.Unmarshal(value, &v); err != nil {
		return false
	}

	switch t := v.(type) {
	case bool:
		return t
	case float64:
		return t != 0
	case string:
		b, err := strconv.ParseBool(strings.TrimSpace(t))
		return err == nil && b
	default:
		return false
	}
}

func coerceString(value json.RawMessage) string {
	var v interface{}
	if err := json.Unmarshal(value, &v); err != nil {
		return ""
	}

	switch t := v.(type) {
	case string:
		return strings.TrimSpace(t)
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	default:
		return ""
	}
}

// String summarises the form for logs without amounts of individual categories.
func (f FormState) String() string {
	return fmt.Sprintf("income=%.0f spouse=%t children=%d parents=%d disabled=%d categories=%d risk=%s",
		f.Income(), f.HasSpouse, f.NumberOfChildren, f.NumberOfParents, f.NumberOfDisabled, len(f.Deductions), f.RiskTolerance)
}
