package engine

import (
	"context"
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

// Enroll creates an account with a hashed password and one memory entry
// per phrase. The raw phrase strings are confined to this call: they go
// to the embedder, the resulting vectors are persisted, and nothing else
// retains them. No logging of phrase or password content happens on any
// path through here.
//
// The account row and all memory entries land in a single transaction,
// so a half-enrolled user is never observable.
func (e *Engine) Enroll(ctx context.Context, userID, password string, phrases []string) error {
	if userID == "" {
		return fmt.Errorf("user id required")
	}
	if err := e.Policy.Password.Check(password); err != nil {
		return err
	}

	acct, err := e.DB.GetAccount(userID)
	if err != nil {
		return err
	}
	if acct != nil {
		return ErrDuplicateUser
	}

	// Embed every phrase before any write. The vectors are all that
	// travel past this loop.
	embeddings := make([][]float64, 0, len(phrases))
	for _, phrase := range phrases {
		vec, err := e.Embedder.Embed(ctx, CleanText(phrase))
		if err != nil {
			return fmt.Errorf("%w: %v", ErrProvider, err)
		}
		embeddings = append(embeddings, vec)
	}

	digest, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}

	lock := e.userLock(userID)
	lock.Lock()
	defer lock.Unlock()

	if err := e.DB.CreateAccountWithMemories(userID, string(digest), embeddings, e.Embedder.Model()); err != nil {
		return fmt.Errorf("persist enrollment: %w", err)
	}
	return nil
}

// UpdatePassword overwrites the stored digest for an existing user.
// Callers must have obtained an authorized verification result first;
// ordering is enforced by the surrounding service layer, not here.
// Memory entries, attempts, and lock state are untouched.
func (e *Engine) UpdatePassword(userID, newPassword string) error {
	digest, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}

	ok, err := e.DB.UpdatePasswordDigest(userID, string(digest))
	if err != nil {
		return err
	}
	if !ok {
		return ErrNotFound
	}
	return nil
}
