package validation

import (
	"fmt"

	"github.com/gridmarket/charges/internal/shared"
)

// RuleSet is an ordered, immutable collection of pre-evaluated rules. The
// construction order is significant: downstream error messages render failed
// rules in exactly this order.
type RuleSet struct {
	rules []Rule
}

// NewRuleSet copies the rules into an immutable set. An empty set validates
// to success.
func NewRuleSet(rules ...Rule) RuleSet {
	out := make([]Rule, len(rules))
	copy(out, rules)
	return RuleSet{rules: out}
}

// Rules returns a copy of the set's rules in construction order.
func (s RuleSet) Rules() []Rule {
	out := make([]Rule, len(s.rules))
	copy(out, s.rules)
	return out
}

// Validate reduces the set to a result. Rules were evaluated at construction,
// so this is a pure walk: every invalid rule is collected in original order.
func (s RuleSet) Validate() Result {
	var invalid []Rule
	for _, r := range s.rules {
		if !r.IsValid {
			invalid = append(invalid, r)
		}
	}
	if len(invalid) == 0 {
		return Success()
	}
	return Result{failed: true, invalid: invalid}
}

// Result is the outcome of validating a rule set. A failed result carries
// every invalid rule, order preserved; "first failure only" is not enough for
// downstream consumers, which render all reasons in one message.
type Result struct {
	failed  bool
	invalid []Rule
}

// Success returns a passing result.
func Success() Result {
	return Result{}
}

// NewFailure builds a failed result. A failure without failed rules, or one
// claiming a valid rule failed, is a caller defect and is rejected with
// shared.ErrInvariantViolation rather than tolerated by convention.
func NewFailure(invalid []Rule) (Result, error) {
	if len(invalid) == 0 {
		return Result{}, fmt.Errorf("%w: validation failure requires at least one failed rule", shared.ErrInvariantViolation)
	}
	for _, r := range invalid {
		if r.IsValid {
			return Result{}, fmt.Errorf("%w: rule %s reported valid inside a failure", shared.ErrInvariantViolation, r.Identifier)
		}
	}
	out := make([]Rule, len(invalid))
	copy(out, invalid)
	return Result{failed: true, invalid: out}, nil
}

// IsFailed reports whether any rule failed.
func (r Result) IsFailed() bool {
	return r.failed
}

// InvalidRules returns the failed rules in their original evaluation order.
func (r Result) InvalidRules() []Rule {
	out := make([]Rule, len(r.invalid))
	copy(out, r.invalid)
	return out
}
