// Package access holds the resource-server access table: an ordered list of
// Ant-style path patterns, each mapped to a Decision.
package access

import (
	"fmt"
	"path"
	"strings"
)

type Decision int

const (
	Public Decision = iota
	RequiresAuth
)

func (d Decision) String() string {
	switch d {
	case Public:
		return "PUBLIC"
	case RequiresAuth:
		return "REQUIRES_AUTH"
	default:
		return fmt.Sprintf("Decision(%d)", int(d))
	}
}

// Rule binds a pattern to a decision.
// Patterns: "*" matches inside one segment, "**" matches zero or more segments.
type Rule struct {
	Pattern  string
	Decision Decision

	segments []string
}

func (r Rule) matches(p string) bool {
	return matchSegments(r.segments, splitPath(p))
}

// Policy is immutable after construction and safe for concurrent use.
type Policy struct {
	rules []Rule
}

// DefaultRules is the platform's resource-server table. Order matters.
func DefaultRules() []Rule {
	return []Rule{
		{Pattern: "/swagger-ui.html", Decision: Public},
		{Pattern: "/api/data/browser/**", Decision: Public},
		{Pattern: "/api/users/forgot-password", Decision: Public},
		{Pattern: "/api/users/check-reset-password-token", Decision: Public},
		{Pattern: "/api/users/reset-password", Decision: Public},
		{Pattern: "/oauth/**", Decision: RequiresAuth},
		{Pattern: "/api/**", Decision: RequiresAuth},
	}
}

func New(rules ...Rule) (*Policy, error) {
	out := make([]Rule, 0, len(rules))
	for i, r := range rules {
		if !strings.HasPrefix(r.Pattern, "/") {
			return nil, fmt.Errorf("access rule %d: pattern %q must start with /", i, r.Pattern)
		}
		if r.Decision != Public && r.Decision != RequiresAuth {
			return nil, fmt.Errorf("access rule %d: unknown decision %d", i, r.Decision)
		}
		for _, seg := range splitPath(r.Pattern) {
			if seg == "**" {
				continue
			}
			if _, err := path.Match(seg, ""); err != nil {
				return nil, fmt.Errorf("access rule %d: pattern %q: %w", i, r.Pattern, err)
			}
		}
		r.segments = splitPath(r.Pattern)
		out = append(out, r)
	}
	return &Policy{rules: out}, nil
}

// Default builds the policy from DefaultRules. The table is static so this cannot fail.
func Default() *Policy {
	p, err := New(DefaultRules()...)
	if err != nil {
		panic(err)
	}
	return p
}

// Decide returns the decision of the first matching rule, Public when none match.
func (p *Policy) Decide(reqPath string) Decision {
	for _, r := range p.rules {
		if r.matches(reqPath) {
			return r.Decision
		}
	}
	return Public
}

// Rules returns a copy of the ordered table.
func (p *Policy) Rules() []Rule {
	out := make([]Rule, len(p.rules))
	copy(out, p.rules)
	return out
}

func splitPath(p string) []string {
	p = strings.Trim(p, "/")
	if p == "" {
		return nil
	}
	return strings.Split(p, "/")
}

func matchSegments(pat, segs []string) bool {
	for len(pat) > 0 {
		if pat[0] == "**" {
			rest := pat[1:]
			for i := 0; i <= len(segs); i++ {
				if matchSegments(rest, segs[i:]) {
					return true
				}
			}
			return false
		}
		if len(segs) == 0 {
			return false
		}
		ok, err := path.Match(pat[0], segs[0])
		if err != nil || !ok {
			return false
		}
		pat, segs = pat[1:], segs[1:]
	}
	return len(segs) == 0
}
