package table

import (
	"strings"

	"github.com/samber/lo"
)

// Class is what a column-key rule says about a column.
type Class int

const (
	// ClassIdentifier columns are never summed even when numeric.
	ClassIdentifier Class = iota + 1
	// ClassMonetary columns are rendered with two decimals.
	ClassMonetary
)

func (c Class) String() string {
	switch c {
	case ClassIdentifier:
		return "identifier"
	case ClassMonetary:
		return "monetary"
	default:
		return "unknown"
	}
}

// Rule classifies every column whose raw key contains Pattern, ignoring case.
type Rule struct {
	Pattern string
	Class   Class
}

type Rules []Rule

// DefaultRules covers the field names of the partner statistics API in both
// English and Russian.
var DefaultRules = Rules{
	{Pattern: "id", Class: ClassIdentifier},
	{Pattern: "index", Class: ClassIdentifier},
	{Pattern: "номер", Class: ClassIdentifier},
	{Pattern: "индекс", Class: ClassIdentifier},

	{Pattern: "cpm", Class: ClassMonetary},
	{Pattern: "ecpm", Class: ClassMonetary},
	{Pattern: "revenue", Class: ClassMonetary},
	{Pattern: "reward", Class: ClassMonetary},
	{Pattern: "money", Class: ClassMonetary},
	{Pattern: "вознаграждение", Class: ClassMonetary},
	{Pattern: "руб", Class: ClassMonetary},
	{Pattern: "деньги", Class: ClassMonetary},
}

// Match reports whether any rule of the given class matches key.
func (r Rules) Match(key string, class Class) bool {
	lower := strings.ToLower(key)
	return lo.ContainsBy(r, func(rule Rule) bool {
		return rule.Class == class && strings.Contains(lower, strings.ToLower(rule.Pattern))
	})
}

// Patterns lists the patterns of one class in rule order.
func (r Rules) Patterns(class Class) []string {
	return lo.FilterMap(r, func(rule Rule, _ int) (string, bool) {
		return rule.Pattern, rule.Class == class
	})
}
