// Package routes classifies request paths into protection levels. The
// rule table is built once at startup, either from the built-in defaults
// or from a YAML rules file, and is never mutated afterwards.
package routes

import (
	"fmt"
	"os"
	"strings"

	"github.com/goccy/go-yaml"
)

type ProtectionLevel int

const (
	// PublicEnhanced passes through with auth context attached when present.
	PublicEnhanced ProtectionLevel = iota
	// AuthPage serves the auth flow; signed-in users are redirected away.
	AuthPage
	// ProtectedPage redirects unauthenticated users into the auth flow.
	ProtectedPage
	// CriticalAPI rejects unauthenticated requests with a JSON 401, never
	// a redirect.
	CriticalAPI
)

func (l ProtectionLevel) String() string {
	switch l {
	case CriticalAPI:
		return "critical_api"
	case ProtectedPage:
		return "protected_page"
	case AuthPage:
		return "auth_page"
	case PublicEnhanced:
		return "public_enhanced"
	default:
		return fmt.Sprintf("unknown(%d)", int(l))
	}
}

func ParseLevel(s string) (ProtectionLevel, error) {
	switch s {
	case "critical_api":
		return CriticalAPI, nil
	case "protected_page":
		return ProtectedPage, nil
	case "auth_page":
		return AuthPage, nil
	case "public_enhanced":
		return PublicEnhanced, nil
	default:
		return PublicEnhanced, fmt.Errorf("unknown protection level %q", s)
	}
}

// Rule matches a path by prefix or substring. Exactly one of Prefix and
// Contains is set.
type Rule struct {
	Prefix   string
	Contains string
	Level    ProtectionLevel
}

func (r Rule) matches(path string) bool {
	if r.Prefix != "" {
		return strings.HasPrefix(path, r.Prefix)
	}

	if r.Contains != "" {
		return strings.Contains(path, r.Contains)
	}

	return false
}

type Classifier struct {
	rules []Rule
}

// DefaultRules is the built-in table. Order matters: the first match wins,
// so the specific prefixes come before the broad substring fallbacks.
func DefaultRules() []Rule {
	return []Rule{
		{Prefix: "/lucid/api/admin/", Level: CriticalAPI},
		{Prefix: "/lucid/api/debug", Level: CriticalAPI},
		{Contains: "/api/admin/", Level: CriticalAPI},
		{Prefix: "/lucid/admin", Level: ProtectedPage},
		{Contains: "/admin", Level: ProtectedPage},
		{Prefix: "/lucid/auth", Level: AuthPage},
		{Contains: "/auth", Level: AuthPage},
	}
}

func NewClassifier(rules []Rule) *Classifier {
	return &Classifier{rules: rules}
}

// Classify returns the protection level of the first matching rule, or
// PublicEnhanced when nothing matches.
func (c *Classifier) Classify(path string) ProtectionLevel {
	for _, rule := range c.rules {
		if rule.matches(path) {
			return rule.Level
		}
	}

	return PublicEnhanced
}

type ruleFile struct {
	Rules []struct {
		Prefix   string `yaml:"prefix"`
		Contains string `yaml:"contains"`
		Level    string `yaml:"level"`
	} `yaml:"rules"`
}

// LoadRules reads an ordered rule table from a YAML file.
func LoadRules(path string) ([]Rule, error) {
	bytes, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading rules file: %w", err)
	}

	var file ruleFile
	if err := yaml.Unmarshal(bytes, &file); err != nil {
		return nil, fmt.Errorf("parsing rules file: %w", err)
	}

	rules := make([]Rule, 0, len(file.Rules))

	for i, raw := range file.Rules {
		if (raw.Prefix == "") == (raw.Contains == "") {
			return nil, fmt.Errorf("rule %d: exactly one of prefix and contains must be set", i)
		}

		level, err := ParseLevel(raw.Level)
		if err != nil {
			return nil, fmt.Errorf("rule %d: %w", i, err)
		}

		rules = append(rules, Rule{Prefix: raw.Prefix, Contains: raw.Contains, Level: level})
	}

	return rules, nil
}
