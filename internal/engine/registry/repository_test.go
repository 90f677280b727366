package registry

import (
	"database/sql"
	"errors"
	"testing"

	_ "github.com/mattn/go-sqlite3"
)

func setupTestDB(t *testing.T) *sql.DB {
	db, err := sql.Open("sqlite3", ":memory:")
	if err != nil {
		t.Fatalf("Failed to open db: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	query := `
	CREATE TABLE codes (
		id TEXT PRIMARY KEY,
		label TEXT NOT NULL,
		resource_path TEXT,
		payload TEXT NOT NULL,
		scan_count INTEGER NOT NULL DEFAULT 0,
		created_at INTEGER NOT NULL,
		expires_at INTEGER NOT NULL
	);
	`
	_, err = db.Exec(query)
	if err != nil {
		t.Fatalf("Failed to create table: %v", err)
	}
	return db
}

func TestRepository_InsertAndGet(t *testing.T) {
	repo := NewRepository(setupTestDB(t))

	rec := &Record{
		ID:        "code1",
		Label:     "https://example.com",
		Payload:   "https://example.com",
		CreatedAt: 1000,
		ExpiresAt: 2000,
	}

	if err := repo.Insert(rec); err != nil {
		t.Fatalf("Failed to insert record: %v", err)
	}

	fetched, err := repo.GetByID("code1")
	if err != nil {
		t.Fatalf("Failed to get record: %v", err)
	}

	if fetched.Payload != "https://example.com" {
		t.Errorf("Expected payload https://example.com, got %s", fetched.Payload)
	}
	if fetched.ResourcePath != "" {
		t.Errorf("Expected empty resource path, got %s", fetched.ResourcePath)
	}
	if fetched.ScanCount != 0 {
		t.Errorf("Expected scan count 0, got %d", fetched.ScanCount)
	}
}

func TestRepository_GetMissing(t *testing.T) {
	repo := NewRepository(setupTestDB(t))

	_, err := repo.GetByID("nope")
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("GetByID() error = %v, want ErrNotFound", err)
	}
}

func TestRepository_ListAllOrderedByCreation(t *testing.T) {
	repo := NewRepository(setupTestDB(t))

	for _, rec := range []*Record{
		{ID: "c", Label: "c", Payload: "c", CreatedAt: 300, ExpiresAt: 900},
		{ID: "a", Label: "a", Payload: "a", CreatedAt: 100, ExpiresAt: 900},
		{ID: "b", Label: "b", Payload: "b", CreatedAt: 200, ExpiresAt: 900},
	} {
		if err := repo.Insert(rec); err != nil {
			t.Fatalf("Failed to insert record: %v", err)
		}
	}

	records, err := repo.ListAll()
	if err != nil {
		t.Fatalf("Failed to list records: %v", err)
	}

	want := []string{"a", "b", "c"}
	if len(records) != len(want) {
		t.Fatalf("Expected %d records, got %d", len(want), len(records))
	}
	for i, id := range want {
		if records[i].ID != id {
			t.Errorf("Position %d: expected %s, got %s", i, id, records[i].ID)
		}
	}
}

func TestRepository_ListExpired(t *testing.T) {
	repo := NewRepository(setupTestDB(t))

	records := []*Record{
		{ID: "old", Label: "old", Payload: "old", CreatedAt: 100, ExpiresAt: 500},
		{ID: "edge", Label: "edge", Payload: "edge", CreatedAt: 100, ExpiresAt: 1000},
		{ID: "live", Label: "live", Payload: "live", CreatedAt: 100, ExpiresAt: 2000},
	}
	for _, rec := range records {
		if err := repo.Insert(rec); err != nil {
			t.Fatalf("Failed to insert record: %v", err)
		}
	}

	expired, err := repo.ListExpired(1000)
	if err != nil {
		t.Fatalf("Failed to list expired: %v", err)
	}

	// Strictly before the cutoff: the record expiring exactly at 1000
	// is not yet eligible.
	if len(expired) != 1 || expired[0].ID != "old" {
		t.Errorf("Expected only 'old' expired, got %+v", expired)
	}
}

func TestRepository_IncrementScan(t *testing.T) {
	repo := NewRepository(setupTestDB(t))

	rec := &Record{ID: "code1", Label: "l", Payload: "p", CreatedAt: 100, ExpiresAt: 900}
	if err := repo.Insert(rec); err != nil {
		t.Fatalf("Failed to insert record: %v", err)
	}

	ok, err := repo.IncrementScan("code1")
	if err != nil {
		t.Fatalf("Failed to increment: %v", err)
	}
	if !ok {
		t.Error("Expected increment to hit the record")
	}

	fetched, err := repo.GetByID("code1")
	if err != nil {
		t.Fatalf("Failed to get record: %v", err)
	}
	if fetched.ScanCount != 1 {
		t.Errorf("Expected scan count 1, got %d", fetched.ScanCount)
	}

	ok, err = repo.IncrementScan("missing")
	if err != nil {
		t.Fatalf("Increment on missing id errored: %v", err)
	}
	if ok {
		t.Error("Increment on missing id reported a hit")
	}
}

func TestRepository_Delete(t *testing.T) {
	repo := NewRepository(setupTestDB(t))

	rec := &Record{ID: "code1", Label: "l", Payload: "p", CreatedAt: 100, ExpiresAt: 900}
	if err := repo.Insert(rec); err != nil {
		t.Fatalf("Failed to insert record: %v", err)
	}

	if err := repo.Delete("code1"); err != nil {
		t.Fatalf("Failed to delete record: %v", err)
	}
	if _, err := repo.GetByID("code1"); !errors.Is(err, ErrNotFound) {
		t.Errorf("GetByID() after delete error = %v, want ErrNotFound", err)
	}

	// Deleting an already-absent id is not an error.
	if err := repo.Delete("code1"); err != nil {
		t.Errorf("Second delete errored: %v", err)
	}
}
