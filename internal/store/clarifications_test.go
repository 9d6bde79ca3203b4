package store

import (
	"testing"
)

func TestSaveAndGetClarification(t *testing.T) {
	db := testDB(t)
	db.CreateAccountWithMemories("alice", "d", nil, "test")

	partial := []float64{0.25, -0.5, 0.75}
	err := db.WithTx(func(tx *Tx) error {
		return tx.SaveClarification("alice", partial, 1000)
	})
	if err != nil {
		t.Fatalf("SaveClarification: %v", err)
	}

	c, err := db.GetClarification("alice")
	if err != nil {
		t.Fatalf("GetClarification: %v", err)
	}
	if c == nil {
		t.Fatal("expected clarification, got nil")
	}
	if c.State != ClarificationPending {
		t.Errorf("state = %q, want %q", c.State, ClarificationPending)
	}
	if c.CreatedAt != 1000 {
		t.Errorf("created_at = %d, want 1000", c.CreatedAt)
	}
	for i := range partial {
		if c.Partial[i] != partial[i] {
			t.Errorf("partial[%d] = %f, want %f", i, c.Partial[i], partial[i])
		}
	}
}

func TestSaveClarificationReplace(t *testing.T) {
	db := testDB(t)
	db.CreateAccountWithMemories("bob", "d", nil, "test")

	db.WithTx(func(tx *Tx) error { return tx.SaveClarification("bob", []float64{1, 0}, 1) })
	db.WithTx(func(tx *Tx) error { return tx.SaveClarification("bob", []float64{0, 1}, 2) })

	c, _ := db.GetClarification("bob")
	if c.CreatedAt != 2 {
		t.Errorf("created_at = %d, want 2", c.CreatedAt)
	}
	if c.Partial[0] != 0 || c.Partial[1] != 1 {
		t.Errorf("partial = %v, want [0 1]", c.Partial)
	}
}

func TestGetClarificationNotFound(t *testing.T) {
	db := testDB(t)

	c, err := db.GetClarification("ghost")
	if err != nil {
		t.Fatalf("GetClarification: %v", err)
	}
	if c != nil {
		t.Error("expected nil for missing clarification")
	}
}

func TestDeleteClarification(t *testing.T) {
	db := testDB(t)
	db.CreateAccountWithMemories("carol", "d", nil, "test")

	db.WithTx(func(tx *Tx) error { return tx.SaveClarification("carol", []float64{1, 0}, 1) })

	err := db.WithTx(func(tx *Tx) error { return tx.DeleteClarification("carol") })
	if err != nil {
		t.Fatalf("DeleteClarification: %v", err)
	}

	c, _ := db.GetClarification("carol")
	if c != nil {
		t.Error("expected nil after delete")
	}

	// Deleting again is not an error
	err = db.WithTx(func(tx *Tx) error { return tx.DeleteClarification("carol") })
	if err != nil {
		t.Fatalf("second DeleteClarification: %v", err)
	}
}
