package universe

import (
	"fmt"
	"regexp"
	"sort"
	"strings"
)

// Rule rewrites a raw ticker suffix, e.g. ".UN" to "-UN" for Yahoo.
type Rule struct {
	Suffix  string
	Replace string
}

// Table is a versioned, static set of rewrite rules for one exchange.
type Table struct {
	Version        string
	Rules          []Rule // first matching suffix wins
	ExchangeSuffix string
	Pattern        string
}

// TSXTable is the built-in table for Toronto Stock Exchange listings.
var TSXTable = Table{
	Version: "tsx-1",
	Rules: []Rule{
		{Suffix: ".UN", Replace: "-UN"},
		{Suffix: ".U", Replace: "-U"},
	},
	ExchangeSuffix: ".TO",
	Pattern:        `^[A-Z0-9\-\.]{1,12}\.TO$`,
}

// Normalizer turns raw index listings into data-provider tickers.
type Normalizer struct {
	table   Table
	pattern *regexp.Regexp
}

// NewNormalizer compiles a rewrite table.
func NewNormalizer(t Table) (*Normalizer, error) {
	re, err := regexp.Compile(t.Pattern)
	if err != nil {
		return nil, fmt.Errorf("normalization %s: compile pattern: %w", t.Version, err)
	}
	return &Normalizer{table: t, pattern: re}, nil
}

// Version identifies the rewrite table in use.
func (n *Normalizer) Version() string { return n.table.Version }

// One normalizes a single raw symbol. ok is false when the symbol is dropped.
func (n *Normalizer) One(raw string) (string, bool) {
	s := strings.ToUpper(strings.ReplaceAll(strings.TrimSpace(raw), " ", ""))
	if s == "" || s == "NAN" || s == "NONE" {
		return "", false
	}

	suffix := n.table.ExchangeSuffix
	s = strings.TrimSuffix(s, suffix)
	for _, r := range n.table.Rules {
		if strings.HasSuffix(s, r.Suffix) {
			s = strings.TrimSuffix(s, r.Suffix) + r.Replace
			break
		}
	}
	s += suffix

	if !n.pattern.MatchString(s) {
		return "", false
	}
	return s, true
}

// Normalize normalizes, deduplicates and sorts raw symbols.
func (n *Normalizer) Normalize(raw []string) []string {
	seen := make(map[string]struct{}, len(raw))
	out := make([]string, 0, len(raw))
	for _, r := range raw {
		s, ok := n.One(r)
		if !ok {
			continue
		}
		if _, dup := seen[s]; dup {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	sort.Strings(out)
	return out
}
