package store

import (
	"database/sql"
	"fmt"
)

// Clarification states. A missing row means no clarification is pending;
// the state column makes the pending row explicit rather than inferred.
const ClarificationPending = "pending"

// Clarification holds one user's pending ambiguous attempt: the
// embedding of the answer that landed in the gray zone, waiting for
// exactly one follow-up.
type Clarification struct {
	UserID    string
	Partial   []float64
	State     string
	CreatedAt int64
}

// GetClarification returns the pending clarification for userID, or nil
// if none exists.
func (db *DB) GetClarification(userID string) (*Clarification, error) {
	var c Clarification
	var blob []byte
	err := db.QueryRow(`
		SELECT user_id, partial_embedding, state, created_at
		FROM clarification_context WHERE user_id = ?
	`, userID).Scan(&c.UserID, &blob, &c.State, &c.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get clarification: %w", err)
	}
	c.Partial = decodeEmbedding(blob)
	return &c, nil
}

// SaveClarification stores or replaces the pending clarification for
// userID inside the transaction. The user_id primary key enforces the
// at-most-one-pending invariant.
func (t *Tx) SaveClarification(userID string, partial []float64, createdAt int64) error {
	blob := encodeEmbedding(partial)
	_, err := t.tx.Exec(`
		INSERT INTO clarification_context (user_id, partial_embedding, state, created_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(user_id) DO UPDATE SET partial_embedding = ?, state = ?, created_at = ?
	`, userID, blob, ClarificationPending, createdAt,
		blob, ClarificationPending, createdAt)
	if err != nil {
		return fmt.Errorf("save clarification: %w", err)
	}
	return nil
}

// DeleteClarification removes the pending clarification for userID
// inside the transaction. Deleting a missing row is not an error.
func (t *Tx) DeleteClarification(userID string) error {
	_, err := t.tx.Exec("DELETE FROM clarification_context WHERE user_id = ?", userID)
	if err != nil {
		return fmt.Errorf("delete clarification: %w", err)
	}
	return nil
}
