package edge

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/EAGLE605/nfl-betting-system-sub001/internal/models"
	"github.com/EAGLE605/nfl-betting-system-sub001/pkg/significance"
)

var ErrDuplicateRule = errors.New("duplicate rule name")

// Predicate decides whether a rule applies to a game. It must not read the outcome.
type Predicate func(g *models.Game) bool

// RuleStats are the historical statistics attached when the rule was discovered
type RuleStats struct {
	WinRate    float64     `yaml:"win_rate" json:"win_rate"`
	ROI        float64     `yaml:"roi" json:"roi"`
	SampleSize int         `yaml:"sample_size" json:"sample_size"`
	PValue     float64     `yaml:"p_value" json:"p_value"`
	Tier       models.Tier `yaml:"tier" json:"tier"`
}

// Rule is a named edge pattern
type Rule struct {
	Name        string
	Description string
	Match       Predicate
	Stats       RuleStats
}

// Registry holds rules in registration order. It is read-only once a run starts.
type Registry struct {
	rules  []Rule
	byName map[string]int
}

// NewRegistry creates a registry from the given rules
func NewRegistry(rules ...Rule) (*Registry, error) {
	r := &Registry{byName: make(map[string]int)}
	for _, rule := range rules {
		if err := r.Register(rule); err != nil {
			return nil, err
		}
	}
	return r, nil
}

// Register adds a rule. A missing tier is derived from the rule's p-value and sample size;
// a rule without positive historical ROI is graded insufficient.
func (r *Registry) Register(rule Rule) error {
	if rule.Name == "" {
		return fmt.Errorf("rule name is required")
	}
	if rule.Match == nil {
		return fmt.Errorf("rule %s has no predicate", rule.Name)
	}
	if _, exists := r.byName[rule.Name]; exists {
		return fmt.Errorf("%w: %s", ErrDuplicateRule, rule.Name)
	}
	if rule.Stats.Tier == "" {
		rule.Stats.Tier = models.TierInsufficient
		if rule.Stats.ROI > 0 {
			rule.Stats.Tier = significance.TierFor(rule.Stats.PValue, rule.Stats.SampleSize)
		}
	}

	r.byName[rule.Name] = len(r.rules)
	r.rules = append(r.rules, rule)
	return nil
}

// Get returns a rule by name
func (r *Registry) Get(name string) (Rule, bool) {
	i, ok := r.byName[name]
	if !ok {
		return Rule{}, false
	}
	return r.rules[i], true
}

// Rules returns a copy of the registered rules
func (r *Registry) Rules() []Rule {
	out := make([]Rule, len(r.rules))
	copy(out, r.rules)
	return out
}

// Len returns the number of registered rules
func (r *Registry) Len() int {
	return len(r.rules)
}

// Matching returns every rule whose predicate accepts the game
func (r *Registry) Matching(g *models.Game) []Rule {
	var matched []Rule
	for _, rule := range r.rules {
		if rule.Match(g) {
			matched = append(matched, rule)
		}
	}
	return matched
}

// RuleSpec is the declarative form of a rule
type RuleSpec struct {
	Name        string      `yaml:"name"`
	Description string      `yaml:"description"`
	Conditions  []Condition `yaml:"conditions"`
	Stats       RuleStats   `yaml:"stats"`
}

type ruleFile struct {
	Rules []RuleSpec `yaml:"rules"`
}

// CompileRule turns a RuleSpec into a rule with a compiled predicate
func CompileRule(rs RuleSpec) (Rule, error) {
	if len(rs.Conditions) == 0 {
		return Rule{}, fmt.Errorf("rule %s has no conditions", rs.Name)
	}

	predicates := make([]Predicate, 0, len(rs.Conditions))
	for i, cond := range rs.Conditions {
		p, err := cond.Compile()
		if err != nil {
			return Rule{}, fmt.Errorf("rule %s condition %d: %w", rs.Name, i, err)
		}
		predicates = append(predicates, p)
	}

	return Rule{
		Name:        rs.Name,
		Description: rs.Description,
		Match:       All(predicates...),
		Stats:       rs.Stats,
	}, nil
}

// ParseRules parses a YAML rule document
func ParseRules(data []byte) ([]Rule, error) {
	var file ruleFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse rules: %w", err)
	}

	rules := make([]Rule, 0, len(file.Rules))
	for _, rs := range file.Rules {
		rule, err := CompileRule(rs)
		if err != nil {
			return nil, err
		}
		rules = append(rules, rule)
	}
	return rules, nil
}

// LoadRegistry reads a YAML rule file into a registry. An empty path yields an empty registry.
func LoadRegistry(path string) (*Registry, error) {
	if path == "" {
		return NewRegistry()
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read rules file: %w", err)
	}

	rules, err := ParseRules(data)
	if err != nil {
		return nil, err
	}
	return NewRegistry(rules...)
}

// All combines predicates with AND
func All(predicates ...Predicate) Predicate {
	return func(g *models.Game) bool {
		for _, p := range predicates {
			if !p(g) {
				return false
			}
		}
		return true
	}
}
