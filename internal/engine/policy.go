package engine

import (
	"fmt"
	"time"
	"unicode"
)

// CombineFunc merges a pending clarification embedding with the
// follow-up answer's embedding into a single comparison vector. It must
// be commutative so neither half of the split answer is privileged.
type CombineFunc func(partial, followup []float64) []float64

// AverageVectors is the default combination strategy: coordinate-wise
// mean of the two embeddings. Bounded and commutative. If the vectors
// disagree on dimension (the provider changed between attempts) the
// follow-up is scored alone.
func AverageVectors(partial, followup []float64) []float64 {
	if len(partial) != len(followup) {
		return followup
	}
	out := make([]float64, len(followup))
	for i := range out {
		out[i] = (partial[i] + followup[i]) / 2
	}
	return out
}

// PasswordPolicy is the configurable strength policy applied at enrollment.
type PasswordPolicy struct {
	MinLength  int
	MinClasses int // distinct character classes: lower, upper, digit, symbol
}

// Check returns ErrWeakPassword (wrapped with the reason) if the
// password fails the policy.
func (p PasswordPolicy) Check(password string) error {
	if len(password) < p.MinLength {
		return fmt.Errorf("%w: shorter than %d characters", ErrWeakPassword, p.MinLength)
	}

	var lower, upper, digit, symbol bool
	for _, r := range password {
		switch {
		case unicode.IsLower(r):
			lower = true
		case unicode.IsUpper(r):
			upper = true
		case unicode.IsDigit(r):
			digit = true
		default:
			symbol = true
		}
	}
	classes := 0
	for _, ok := range []bool{lower, upper, digit, symbol} {
		if ok {
			classes++
		}
	}
	if classes < p.MinClasses {
		return fmt.Errorf("%w: needs at least %d character classes", ErrWeakPassword, p.MinClasses)
	}
	return nil
}

// Policy holds the decision thresholds and lockout parameters of the
// verification engine. Thresholds must preserve the ordering
// denied < ambiguous < authorized.
type Policy struct {
	AuthorizedThreshold float64 // score >= this: authorized
	AmbiguousThreshold  float64 // score >= this (below authorized): ambiguous
	MaxAttempts         int     // consecutive denials before lockout
	LockoutDuration     time.Duration
	ClarificationTTL    time.Duration // pending contexts older than this are stale
	Combine             CombineFunc
	Password            PasswordPolicy
}

// DefaultPolicy returns the stock policy.
func DefaultPolicy() Policy {
	return Policy{
		AuthorizedThreshold: 0.80,
		AmbiguousThreshold:  0.65,
		MaxAttempts:         5,
		LockoutDuration:     10 * time.Minute,
		ClarificationTTL:    5 * time.Minute,
		Combine:             AverageVectors,
		Password:            PasswordPolicy{MinLength: 8, MinClasses: 2},
	}
}

func (p *Policy) applyDefaults() {
	def := DefaultPolicy()
	if p.AuthorizedThreshold == 0 {
		p.AuthorizedThreshold = def.AuthorizedThreshold
	}
	if p.AmbiguousThreshold == 0 {
		p.AmbiguousThreshold = def.AmbiguousThreshold
	}
	if p.MaxAttempts == 0 {
		p.MaxAttempts = def.MaxAttempts
	}
	if p.LockoutDuration == 0 {
		p.LockoutDuration = def.LockoutDuration
	}
	if p.ClarificationTTL == 0 {
		p.ClarificationTTL = def.ClarificationTTL
	}
	if p.Combine == nil {
		p.Combine = def.Combine
	}
	if p.Password.MinLength == 0 {
		p.Password = def.Password
	}
}

// Validate rejects threshold orderings that would collapse or invert
// the decision tiers, and non-positive limits.
func (p Policy) Validate() error {
	if p.AmbiguousThreshold >= p.AuthorizedThreshold {
		return fmt.Errorf("ambiguous threshold %.2f must be below authorized threshold %.2f",
			p.AmbiguousThreshold, p.AuthorizedThreshold)
	}
	if p.AmbiguousThreshold <= 0 || p.AuthorizedThreshold > 1 {
		return fmt.Errorf("thresholds must lie in (0, 1]")
	}
	if p.MaxAttempts <= 0 {
		return fmt.Errorf("max attempts must be positive, got %d", p.MaxAttempts)
	}
	if p.LockoutDuration <= 0 {
		return fmt.Errorf("lockout duration must be positive, got %s", p.LockoutDuration)
	}
	if p.ClarificationTTL <= 0 {
		return fmt.Errorf("clarification ttl must be positive, got %s", p.ClarificationTTL)
	}
	return nil
}
