package store

import (
	"database/sql"
	"fmt"
	"time"
)

// Account holds a user's credential digest and lockout state.
// LockedUntil is a unix-millisecond timestamp; 0 means unlocked.
type Account struct {
	UserID         string
	PasswordDigest string
	LockedUntil    int64
	FailedAttempts int
	CreatedAt      int64
	UpdatedAt      int64
}

// GetAccount returns the account for userID, or nil if not found.
func (db *DB) GetAccount(userID string) (*Account, error) {
	var a Account
	err := db.QueryRow(`
		SELECT user_id, password_digest, locked_until, failed_attempts, created_at, updated_at
		FROM accounts WHERE user_id = ?
	`, userID).Scan(&a.UserID, &a.PasswordDigest, &a.LockedUntil, &a.FailedAttempts, &a.CreatedAt, &a.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get account: %w", err)
	}
	return &a, nil
}

// CreateAccountWithMemories inserts the account row and all of its memory
// entries in a single transaction. A partially enrolled user (account
// without memories, or the reverse) is never observable.
func (db *DB) CreateAccountWithMemories(userID, passwordDigest string, embeddings [][]float64, model string) error {
	now := time.Now().UnixMilli()
	return db.WithTx(func(tx *Tx) error {
		if _, err := tx.tx.Exec(`
			INSERT INTO accounts (user_id, password_digest, locked_until, failed_attempts, created_at, updated_at)
			VALUES (?, ?, 0, 0, ?, ?)
		`, userID, passwordDigest, now, now); err != nil {
			return fmt.Errorf("insert account: %w", err)
		}
		for _, vec := range embeddings {
			if err := tx.InsertMemory(userID, vec, model, now); err != nil {
				return err
			}
		}
		return nil
	})
}

// UpdatePasswordDigest overwrites the stored digest for userID.
// Returns false if the user does not exist. Lock and attempt state
// are left untouched.
func (db *DB) UpdatePasswordDigest(userID, passwordDigest string) (bool, error) {
	res, err := db.Exec(`
		UPDATE accounts SET password_digest = ?, updated_at = ? WHERE user_id = ?
	`, passwordDigest, time.Now().UnixMilli(), userID)
	if err != nil {
		return false, fmt.Errorf("update password digest: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("update password digest: %w", err)
	}
	return n > 0, nil
}

// SetAttempts writes the failed-attempt counter and lock timestamp for
// userID inside the transaction.
func (t *Tx) SetAttempts(userID string, attempts int, lockedUntil int64) error {
	_, err := t.tx.Exec(`
		UPDATE accounts SET failed_attempts = ?, locked_until = ?, updated_at = ? WHERE user_id = ?
	`, attempts, lockedUntil, time.Now().UnixMilli(), userID)
	if err != nil {
		return fmt.Errorf("set attempts: %w", err)
	}
	return nil
}
