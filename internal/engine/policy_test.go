package engine

import (
	"errors"
	"math"
	"testing"
	"time"
)

func TestPolicyValidate(t *testing.T) {
	good := DefaultPolicy()
	if err := good.Validate(); err != nil {
		t.Fatalf("default policy invalid: %v", err)
	}

	cases := []struct {
		name   string
		mutate func(*Policy)
	}{
		{"inverted thresholds", func(p *Policy) { p.AmbiguousThreshold = 0.9 }},
		{"equal thresholds", func(p *Policy) { p.AmbiguousThreshold = p.AuthorizedThreshold }},
		{"threshold above one", func(p *Policy) { p.AuthorizedThreshold = 1.5 }},
		{"negative ambiguous", func(p *Policy) { p.AmbiguousThreshold = -0.1 }},
		{"negative attempts", func(p *Policy) { p.MaxAttempts = -1 }},
		{"negative lockout", func(p *Policy) { p.LockoutDuration = -time.Minute }},
		{"negative ttl", func(p *Policy) { p.ClarificationTTL = -time.Second }},
	}
	for _, c := range cases {
		p := DefaultPolicy()
		c.mutate(&p)
		if err := p.Validate(); err == nil {
			t.Errorf("%s: expected validation error", c.name)
		}
	}
}

func TestPolicyDefaults(t *testing.T) {
	var p Policy
	p.applyDefaults()
	if err := p.Validate(); err != nil {
		t.Fatalf("zero policy after defaults invalid: %v", err)
	}
	if p.Combine == nil {
		t.Fatal("combine strategy not defaulted")
	}
	if p.MaxAttempts != 5 {
		t.Errorf("max attempts = %d, want 5", p.MaxAttempts)
	}
}

func TestAverageVectors(t *testing.T) {
	got := AverageVectors([]float64{1, 0}, []float64{0, 1})
	want := []float64{0.5, 0.5}
	for i := range want {
		if math.Abs(got[i]-want[i]) > 1e-12 {
			t.Errorf("avg[%d] = %f, want %f", i, got[i], want[i])
		}
	}

	// Commutative
	rev := AverageVectors([]float64{0, 1}, []float64{1, 0})
	for i := range got {
		if got[i] != rev[i] {
			t.Errorf("not commutative at %d: %f vs %f", i, got[i], rev[i])
		}
	}

	// Dimension mismatch falls back to the follow-up alone
	fallback := AverageVectors([]float64{1, 0, 0}, []float64{0, 1})
	if len(fallback) != 2 || fallback[0] != 0 || fallback[1] != 1 {
		t.Errorf("mismatch fallback = %v, want [0 1]", fallback)
	}
}

func TestPasswordPolicyCheck(t *testing.T) {
	p := PasswordPolicy{MinLength: 8, MinClasses: 2}

	cases := []struct {
		password string
		ok       bool
	}{
		{"correct-Horse9", true},
		{"lowerUPPER", true},
		{"lower1234", true},
		{"short1A", false},
		{"alllowercase", false},
		{"123456789", false},
	}
	for _, c := range cases {
		err := p.Check(c.password)
		if c.ok && err != nil {
			t.Errorf("Check(%q) = %v, want nil", c.password, err)
		}
		if !c.ok && !errors.Is(err, ErrWeakPassword) {
			t.Errorf("Check(%q) = %v, want ErrWeakPassword", c.password, err)
		}
	}
}
