package engine

import (
	"context"
	"fmt"
	"sync"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/recallguard/recall/internal/store"
)

// Status is the graded outcome of a verification attempt.
type Status string

const (
	StatusAuthorized Status = "authorized"
	StatusAmbiguous  Status = "ambiguous"
	StatusDenied     Status = "denied"
)

// Decision is the result of a verification attempt that was actually
// scored (locked accounts reject before scoring, via LockedError).
type Decision struct {
	Status            Status
	Score             float64
	AttemptsRemaining int // denials left before lockout
}

// LookupResult reports account existence and lock state.
type LookupResult struct {
	Exists      bool
	Locked      bool
	LockedUntil time.Time
}

// Engine is the semantic verification core. It scores recovery answers
// against enrolled memory embeddings, runs the one-strike clarification
// state machine, and keeps the per-user attempt/lockout bookkeeping.
//
// All mutations for one user are serialized behind a per-user mutex;
// operations on different users proceed in parallel. Embedding calls
// (the only slow step) happen before the mutex is taken.
type Engine struct {
	DB       *store.DB
	Embedder Embedder
	Policy   Policy

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// New creates an Engine. Zero policy fields are filled with defaults;
// an inconsistent policy is rejected.
func New(db *store.DB, embedder Embedder, policy Policy) (*Engine, error) {
	policy.applyDefaults()
	if err := policy.Validate(); err != nil {
		return nil, fmt.Errorf("verification policy: %w", err)
	}
	return &Engine{
		DB:       db,
		Embedder: embedder,
		Policy:   policy,
		locks:    make(map[string]*sync.Mutex),
	}, nil
}

func (e *Engine) userLock(userID string) *sync.Mutex {
	e.mu.Lock()
	defer e.mu.Unlock()
	l, ok := e.locks[userID]
	if !ok {
		l = &sync.Mutex{}
		e.locks[userID] = l
	}
	return l
}

// Lookup reports whether the user exists and whether the account is
// currently locked.
func (e *Engine) Lookup(userID string) (LookupResult, error) {
	acct, err := e.DB.GetAccount(userID)
	if err != nil {
		return LookupResult{}, err
	}
	if acct == nil {
		return LookupResult{}, nil
	}
	res := LookupResult{Exists: true}
	if acct.LockedUntil > time.Now().UnixMilli() {
		res.Locked = true
		res.LockedUntil = time.UnixMilli(acct.LockedUntil)
	}
	return res, nil
}

// Verify scores inputText against the user's enrolled memories and
// returns a graded decision.
//
// A pending clarification context is consumed unconditionally: the user
// gets exactly one follow-up round, whether or not the combined answer
// passes. Contexts older than the configured TTL are discarded without
// combining. A denial that trips the attempt threshold locks the
// account and is reported as LockedError rather than a denied decision.
func (e *Engine) Verify(ctx context.Context, userID, inputText string) (Decision, error) {
	acct, err := e.DB.GetAccount(userID)
	if err != nil {
		return Decision{}, err
	}
	if acct == nil {
		return Decision{}, ErrNotFound
	}
	if until := acct.LockedUntil; until > time.Now().UnixMilli() {
		return Decision{}, &LockedError{Until: time.UnixMilli(until)}
	}

	// Embed before entering the per-user critical section; the provider
	// call is slow and touches no shared state.
	vec, err := e.Embedder.Embed(ctx, CleanText(inputText))
	if err != nil {
		return Decision{}, fmt.Errorf("%w: %v", ErrProvider, err)
	}

	lock := e.userLock(userID)
	lock.Lock()
	defer lock.Unlock()

	// Re-read under the lock; a concurrent attempt may have moved the
	// attempt counter or locked the account while we were embedding.
	acct, err = e.DB.GetAccount(userID)
	if err != nil {
		return Decision{}, err
	}
	if acct == nil {
		return Decision{}, ErrNotFound
	}
	now := time.Now()
	if acct.LockedUntil > now.UnixMilli() {
		return Decision{}, &LockedError{Until: time.UnixMilli(acct.LockedUntil)}
	}

	clar, err := e.DB.GetClarification(userID)
	if err != nil {
		return Decision{}, err
	}
	comparison := vec
	consumed := false
	if clar != nil {
		age := time.Duration(now.UnixMilli()-clar.CreatedAt) * time.Millisecond
		if age <= e.Policy.ClarificationTTL {
			comparison = e.Policy.Combine(clar.Partial, vec)
			consumed = true
		}
		// A stale context is deleted below without combining; the new
		// input is scored on its own.
	}

	entries, err := e.DB.ListMemories(userID)
	if err != nil {
		return Decision{}, err
	}
	score := 0.0
	for _, m := range entries {
		if s := CosineSimilarity(comparison, m.Embedding); s > score {
			score = s
		}
	}

	status := e.tier(score)
	if status == StatusAmbiguous && consumed {
		// The one free clarification round is spent.
		status = StatusDenied
	}

	var lockedAt time.Time
	attemptsRemaining := e.Policy.MaxAttempts
	err = e.DB.WithTx(func(tx *store.Tx) error {
		if clar != nil {
			if err := tx.DeleteClarification(userID); err != nil {
				return err
			}
		}
		switch status {
		case StatusAuthorized:
			return tx.SetAttempts(userID, 0, 0)
		case StatusAmbiguous:
			attemptsRemaining = e.Policy.MaxAttempts - acct.FailedAttempts
			return tx.SaveClarification(userID, vec, now.UnixMilli())
		default:
			var err error
			lockedAt, attemptsRemaining, err = e.applyDenied(tx, userID, acct.FailedAttempts, now)
			return err
		}
	})
	if err != nil {
		return Decision{}, err
	}

	if !lockedAt.IsZero() {
		return Decision{Status: StatusDenied, Score: score}, &LockedError{Until: lockedAt}
	}
	return Decision{Status: status, Score: score, AttemptsRemaining: attemptsRemaining}, nil
}

// VerifyPassword checks a password against the stored digest, with the
// same lock gate and attempt bookkeeping as phrase verification. It does
// not touch a pending clarification context, which belongs to the phrase
// flow, except when a denial locks the account.
func (e *Engine) VerifyPassword(userID, password string) (Decision, error) {
	acct, err := e.DB.GetAccount(userID)
	if err != nil {
		return Decision{}, err
	}
	if acct == nil {
		return Decision{}, ErrNotFound
	}
	if until := acct.LockedUntil; until > time.Now().UnixMilli() {
		return Decision{}, &LockedError{Until: time.UnixMilli(until)}
	}

	lock := e.userLock(userID)
	lock.Lock()
	defer lock.Unlock()

	acct, err = e.DB.GetAccount(userID)
	if err != nil {
		return Decision{}, err
	}
	if acct == nil {
		return Decision{}, ErrNotFound
	}
	now := time.Now()
	if acct.LockedUntil > now.UnixMilli() {
		return Decision{}, &LockedError{Until: time.UnixMilli(acct.LockedUntil)}
	}

	match := bcrypt.CompareHashAndPassword([]byte(acct.PasswordDigest), []byte(password)) == nil

	var lockedAt time.Time
	attemptsRemaining := e.Policy.MaxAttempts
	err = e.DB.WithTx(func(tx *store.Tx) error {
		if match {
			return tx.SetAttempts(userID, 0, 0)
		}
		var err error
		lockedAt, attemptsRemaining, err = e.applyDenied(tx, userID, acct.FailedAttempts, now)
		return err
	})
	if err != nil {
		return Decision{}, err
	}

	if !lockedAt.IsZero() {
		return Decision{Status: StatusDenied}, &LockedError{Until: lockedAt}
	}
	if match {
		return Decision{Status: StatusAuthorized, AttemptsRemaining: attemptsRemaining}, nil
	}
	return Decision{Status: StatusDenied, AttemptsRemaining: attemptsRemaining}, nil
}

func (e *Engine) tier(score float64) Status {
	switch {
	case score >= e.Policy.AuthorizedThreshold:
		return StatusAuthorized
	case score >= e.Policy.AmbiguousThreshold:
		return StatusAmbiguous
	default:
		return StatusDenied
	}
}

// applyDenied records one failed attempt inside tx. When the failure
// trips the attempt threshold it locks the account, resets the counter,
// and clears any pending clarification so a locked account never holds
// one. Returns the lock expiry (zero if not locked) and attempts left.
func (e *Engine) applyDenied(tx *store.Tx, userID string, priorAttempts int, now time.Time) (time.Time, int, error) {
	attempts := priorAttempts + 1
	if attempts >= e.Policy.MaxAttempts {
		until := now.Add(e.Policy.LockoutDuration)
		if err := tx.DeleteClarification(userID); err != nil {
			return time.Time{}, 0, err
		}
		if err := tx.SetAttempts(userID, 0, until.UnixMilli()); err != nil {
			return time.Time{}, 0, err
		}
		return until, 0, nil
	}
	if err := tx.SetAttempts(userID, attempts, 0); err != nil {
		return time.Time{}, 0, err
	}
	return time.Time{}, e.Policy.MaxAttempts - attempts, nil
}
