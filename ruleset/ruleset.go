package ruleset

import (
	"embed"
	"errors"
	"fmt"
	"math"
	"os"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

// Default is the ruleset used when none is configured.
const Default = "2568"

var (
	ErrUnknownRuleset = errors.New("unknown ruleset")
	ErrInvalidRuleset = errors.New("invalid ruleset")
)

//go:embed profiles/*.yaml
var profiles embed.FS

type Policy string

const (
	// PolicyClamp clamps over-cap amounts and reports a warning.
	PolicyClamp Policy = "clamp"
	// PolicyReject refuses a form with any over-cap amount.
	PolicyReject Policy = "reject"
)

type Endpoint string

const (
	EndpointCalculateTax Endpoint = "calculate-tax"
	EndpointCalculate    Endpoint = "calculate"
)

type IncomeBase string

const (
	IncomeBaseGross  IncomeBase = "gross"
	IncomeBaseSalary IncomeBase = "salary"
)

type PerHead struct {
	Amount   float64 `yaml:"amount" json:"amount"`
	MaxHeads int     `yaml:"max_heads" json:"max_heads"` // 0 = unlimited
}

// Resolve returns the deduction for count heads, honouring the head-count ceiling.
func (p PerHead) Resolve(count int) float64 {
	if count <= 0 {
		return 0
	}

	if p.MaxHeads > 0 && count > p.MaxHeads {
		count = p.MaxHeads
	}

	return float64(count) * p.Amount
}

type Family struct {
	Spouse   PerHead `yaml:"spouse" json:"spouse"`
	Children PerHead `yaml:"children" json:"children"`
	Parents  PerHead `yaml:"parents" json:"parents"`
	Disabled PerHead `yaml:"disabled" json:"disabled"`
}

type Category struct {
	Name           string     `yaml:"name" json:"name"`
	Group          string     `yaml:"group" json:"group"`
	MaxAmount      float64    `yaml:"max_amount" json:"max_amount,omitempty"`             // 0 = no flat ceiling
	MaxIncomeRatio float64    `yaml:"max_income_ratio" json:"max_income_ratio,omitempty"` // 0 = no ratio ceiling
	IncomeBase     IncomeBase `yaml:"income_base" json:"income_base,omitempty"`
	Multiplier     float64    `yaml:"multiplier" json:"multiplier,omitempty"`
}

// Limit returns the ceiling of the category for the given income figures.
// ok is false when the category is uncapped.
func (c Category) Limit(gross, salary float64) (limit float64, ok bool) {
	limit = math.Inf(1)

	if c.MaxAmount > 0 {
		limit = c.MaxAmount
		ok = true
	}

	if c.MaxIncomeRatio > 0 {
		base := gross
		if c.IncomeBase == IncomeBaseSalary {
			base = salary
		}

		limit = math.Min(limit, math.Max(0, base*c.MaxIncomeRatio))
		ok = true
	}

	if !ok {
		return 0, false
	}

	return limit, true
}

// Weight is the multiplier applied to the capped amount.
func (c Category) Weight() float64 {
	if c.Multiplier <= 0 {
		return 1
	}

	return c.Multiplier
}

type Bracket struct {
	Max   float64 `yaml:"max" json:"max"` // -1 = open-ended top bracket
	Rate  float64 `yaml:"rate" json:"rate"`
	Label string  `yaml:"label" json:"label"`
}

// Ruleset is one tax-year profile: per-head family amounts, category caps and brackets.
type Ruleset struct {
	Name              string     `yaml:"name" json:"name"`
	Description       string     `yaml:"description" json:"description"`
	Endpoint          Endpoint   `yaml:"endpoint" json:"endpoint"`
	Classification    bool       `yaml:"classification" json:"classification"`
	Policy            Policy     `yaml:"policy" json:"policy"`
	PersonalDeduction float64    `yaml:"personal_deduction" json:"personal_deduction"`
	ExemptThreshold   float64    `yaml:"exempt_threshold" json:"exempt_threshold"`
	Family            Family     `yaml:"family" json:"family"`
	Categories        []Category `yaml:"categories" json:"categories"`
	Brackets          []Bracket  `yaml:"brackets" json:"brackets"`
}

// Category looks up a category by name.
func (r *Ruleset) Category(name string) (Category, bool) {
	for _, c := range r.Categories {
		if c.Name == name {
			return c, true
		}
	}

	return Category{}, false
}

// WithPolicy returns a copy of the ruleset using policy p.
func (r *Ruleset) WithPolicy(p Policy) *Ruleset {
	cp := r.clone()
	cp.Policy = p
	return cp
}

// WithCaps returns a copy where the flat ceiling of every category named in caps is replaced.
// Names that are not categories of the ruleset are ignored.
func (r *Ruleset) WithCaps(caps map[string]float64) *Ruleset {
	cp := r.clone()

	for i, c := range cp.Categories {
		if amount, ok := caps[c.Name]; ok {
			cp.Categories[i].MaxAmount = amount
		}
	}

	return cp
}

func (r *Ruleset) clone() *Ruleset {
	cp := *r
	cp.Categories = append([]Category(nil), r.Categories...)
	cp.Brackets = append([]Bracket(nil), r.Brackets...)
	return &cp
}

// Validate checks the ruleset is internally consistent.
func (r *Ruleset) Validate() error {
	if strings.TrimSpace(r.Name) == "" {
		return fmt.Errorf("%w: name is required", ErrInvalidRuleset)
	}

	switch r.Endpoint {
	case EndpointCalculateTax, EndpointCalculate:
	default:
		return fmt.Errorf("%w: %s: unknown endpoint %q", ErrInvalidRuleset, r.Name, r.Endpoint)
	}

	if _, err := ParsePolicy(string(r.Policy)); err != nil {
		return fmt.Errorf("%w: %s: %v", ErrInvalidRuleset, r.Name, err)
	}

	if r.PersonalDeduction < 0 || r.ExemptThreshold < 0 {
		return fmt.Errorf("%w: %s: negative personal deduction or threshold", ErrInvalidRuleset, r.Name)
	}

	seen := make(map[string]bool, len(r.Categories))
	for _, c := range r.Categories {
		if c.Name == "" {
			return fmt.Errorf("%w: %s: category without name", ErrInvalidRuleset, r.Name)
		}
		if seen[c.Name] {
			return fmt.Errorf("%w: %s: duplicated category %q", ErrInvalidRuleset, r.Name, c.Name)
		}
		if c.MaxAmount < 0 || c.MaxIncomeRatio < 0 || c.Multiplier < 0 {
			return fmt.Errorf("%w: %s: negative limit on %q", ErrInvalidRuleset, r.Name, c.Name)
		}
		seen[c.Name] = true
	}

	if len(r.Brackets) == 0 {
		return fmt.Errorf("%w: %s: no brackets", ErrInvalidRuleset, r.Name)
	}

	prev := 0.0
	for i, b := range r.Brackets {
		last := i == len(r.Brackets)-1
		if b.Max == -1 {
			if !last {
				return fmt.Errorf("%w: %s: open-ended bracket must be last", ErrInvalidRuleset, r.Name)
			}
			continue
		}
		if b.Max <= prev {
			return fmt.Errorf("%w: %s: brackets must be ascending", ErrInvalidRuleset, r.Name)
		}
		prev = b.Max
	}

	if r.Brackets[len(r.Brackets)-1].Max != -1 {
		return fmt.Errorf("%w: %s: last bracket must be open-ended", ErrInvalidRuleset, r.Name)
	}

	return nil
}

// ParsePolicy parses a cap policy name. Empty means clamp.
func ParsePolicy(s string) (Policy, error) {
	switch Policy(strings.ToLower(strings.TrimSpace(s))) {
	case "", PolicyClamp:
		return PolicyClamp, nil
	case PolicyReject:
		return PolicyReject, nil
	default:
		return "", fmt.Errorf("unknown cap policy %q", s)
	}
}

// Parse decodes a YAML ruleset and validates it.
func Parse(data []byte) (*Ruleset, error) {
	var r Ruleset
	if err := yaml.Unmarshal(data, &r); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidRuleset, err)
	}

	if r.Policy == "" {
		r.Policy = PolicyClamp
	}

	if err := r.Validate(); err != nil {
		return nil, err
	}

	return &r, nil
}

// Load returns a built-in ruleset by name.
func Load(name string) (*Ruleset, error) {
	if name == "" {
		name = Default
	}

	data, err := profiles.ReadFile("profiles/" + name + ".yaml")
	if err != nil {
		return nil, fmt.Errorf("%w: %q", ErrUnknownRuleset, name)
	}

	return Parse(data)
}

// LoadFile reads a ruleset from a YAML file.
func LoadFile(path string) (*Ruleset, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read ruleset %s: %w", path, err)
	}

	return Parse(data)
}

// Names lists the built-in rulesets.
func Names() []string {
	entries, err := profiles.ReadDir("profiles")
	if err != nil {
		return nil
	}

	var names []string
	for _, e := range entries {
		names = append(names, strings.TrimSuffix(e.Name(), ".yaml"))
	}
	sort.Strings(names)

	return names
}
