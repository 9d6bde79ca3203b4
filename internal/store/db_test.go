package store

import (
	"testing"
)

func testDB(t *testing.T) *DB {
	t.Helper()
	db, err := OpenMemory()
	if err != nil {
		t.Fatalf("OpenMemory: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func TestMigrate(t *testing.T) {
	db := testDB(t)

	version, err := db.SchemaVersion()
	if err != nil {
		t.Fatalf("SchemaVersion: %v", err)
	}
	if version != len(migrations) {
		t.Errorf("schema version = %d, want %d", version, len(migrations))
	}

	// Running migrations again must be a no-op
	if err := db.migrate(); err != nil {
		t.Fatalf("second migrate: %v", err)
	}
}

func TestWithTxRollback(t *testing.T) {
	db := testDB(t)

	if err := db.CreateAccountWithMemories("u1", "digest", nil, "test"); err != nil {
		t.Fatalf("CreateAccountWithMemories: %v", err)
	}

	wantErr := "boom"
	err := db.WithTx(func(tx *Tx) error {
		if err := tx.SetAttempts("u1", 3, 0); err != nil {
			return err
		}
		return errTest(wantErr)
	})
	if err == nil || err.Error() != wantErr {
		t.Fatalf("WithTx err = %v, want %q", err, wantErr)
	}

	a, err := db.GetAccount("u1")
	if err != nil {
		t.Fatalf("GetAccount: %v", err)
	}
	if a.FailedAttempts != 0 {
		t.Errorf("failed_attempts = %d after rollback, want 0", a.FailedAttempts)
	}
}

type errTest string

func (e errTest) Error() string { return string(e) }
