package database

import (
	"path/filepath"
	"testing"
)

func newTestDB(t *testing.T) *DB {
	t.Helper()

	db, err := NewConnection(filepath.Join(t.TempDir(), "newsdesk.db"))
	if err != nil {
		t.Fatalf("Failed to open database: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	if _, _, err := RunMigrations(db); err != nil {
		t.Fatalf("Failed to run migrations: %v", err)
	}

	return db
}

func TestNewConnection(t *testing.T) {
	if _, err := NewConnection(""); err == nil {
		t.Error("Expected error for empty database path")
	}

	if _, err := NewConnection(filepath.Join(t.TempDir(), "missing", "dir", "db.sqlite")); err == nil {
		t.Error("Expected error for database in a missing directory")
	}
}

func TestRunMigrations(t *testing.T) {
	db := newTestDB(t)

	version, dirty, err := RunMigrations(db)
	if err != nil {
		t.Fatalf("Expected repeated migration to succeed, got: %v", err)
	}
	if version != 2 {
		t.Errorf("Expected schema version 2, got %d", version)
	}
	if dirty {
		t.Error("Expected clean schema")
	}
}

func TestIDs(t *testing.T) {
	id := NewID()
	if len(id) != 24 {
		t.Errorf("Expected 24-character id, got %q", id)
	}
	if !ValidID(id) {
		t.Errorf("Expected generated id %q to be valid", id)
	}

	for _, invalid := range []string{"", "123", "not-an-object-id-at-all!", "zzzzzzzzzzzzzzzzzzzzzzzz"} {
		if ValidID(invalid) {
			t.Errorf("Expected %q to be invalid", invalid)
		}
	}
}
