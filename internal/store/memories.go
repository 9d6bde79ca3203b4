package store

import (
	"encoding/binary"
	"fmt"
	"math"
)

// MemoryEntry holds one enrolled phrase embedding. The raw phrase text
// is discarded at enrollment and never reaches this layer.
type MemoryEntry struct {
	ID         int64
	UserID     string
	Embedding  []float64
	Model      string
	Dimensions int
	CreatedAt  int64
}

// encodeEmbedding converts a []float64 to a binary BLOB (8 bytes per float64).
// The round-trip is bit-exact, so stored similarity scores match in-memory ones.
func encodeEmbedding(vec []float64) []byte {
	buf := make([]byte, len(vec)*8)
	for i, v := range vec {
		binary.LittleEndian.PutUint64(buf[i*8:], math.Float64bits(v))
	}
	return buf
}

// decodeEmbedding converts a binary BLOB back to []float64.
func decodeEmbedding(buf []byte) []float64 {
	n := len(buf) / 8
	vec := make([]float64, n)
	for i := 0; i < n; i++ {
		vec[i] = math.Float64frombits(binary.LittleEndian.Uint64(buf[i*8:]))
	}
	return vec
}

// InsertMemory stores one embedding for userID inside the transaction.
func (t *Tx) InsertMemory(userID string, embedding []float64, model string, createdAt int64) error {
	_, err := t.tx.Exec(`
		INSERT INTO memory_entries (user_id, embedding, model, dimensions, created_at)
		VALUES (?, ?, ?, ?, ?)
	`, userID, encodeEmbedding(embedding), model, len(embedding), createdAt)
	if err != nil {
		return fmt.Errorf("insert memory: %w", err)
	}
	return nil
}

// ListMemories returns all enrolled embeddings for userID.
func (db *DB) ListMemories(userID string) ([]MemoryEntry, error) {
	rows, err := db.Query(`
		SELECT id, user_id, embedding, model, dimensions, created_at
		FROM memory_entries WHERE user_id = ?
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("list memories: %w", err)
	}
	defer rows.Close()

	var entries []MemoryEntry
	for rows.Next() {
		var m MemoryEntry
		var blob []byte
		if err := rows.Scan(&m.ID, &m.UserID, &blob, &m.Model, &m.Dimensions, &m.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan memory: %w", err)
		}
		m.Embedding = decodeEmbedding(blob)
		entries = append(entries, m)
	}
	return entries, rows.Err()
}

// CountMemories returns the number of enrolled embeddings for userID.
func (db *DB) CountMemories(userID string) (int, error) {
	var n int
	err := db.QueryRow("SELECT COUNT(*) FROM memory_entries WHERE user_id = ?", userID).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count memories: %w", err)
	}
	return n, nil
}
