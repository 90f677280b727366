package storage

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestSaveAndRemove(t *testing.T) {
	store, err := New(t.TempDir())
	if err != nil {
		t.Fatalf("Failed to create store: %v", err)
	}

	path, err := store.Save("id1", "report.pdf", strings.NewReader("hello"))
	if err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	if filepath.Base(path) != "id1_report.pdf" {
		t.Errorf("Saved as %q, want id1_report.pdf", filepath.Base(path))
	}

	content, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Failed to read saved file: %v", err)
	}
	if string(content) != "hello" {
		t.Errorf("Content = %q, want hello", content)
	}

	if err := store.Remove(path); err != nil {
		t.Fatalf("Remove() error = %v", err)
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Error("File still exists after Remove")
	}

	// Removing an already-missing file is not an error.
	if err := store.Remove(path); err != nil {
		t.Errorf("Second Remove() error = %v, want nil", err)
	}
}

func TestSaveStripsDirectoryComponents(t *testing.T) {
	dir := t.TempDir()
	store, err := New(dir)
	if err != nil {
		t.Fatalf("Failed to create store: %v", err)
	}

	path, err := store.Save("id2", "../../etc/passwd", strings.NewReader("x"))
	if err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	if filepath.Dir(path) != dir {
		t.Errorf("File escaped the storage dir: %s", path)
	}
	if filepath.Base(path) != "id2_passwd" {
		t.Errorf("Saved as %q, want id2_passwd", filepath.Base(path))
	}
}

func TestLocator(t *testing.T) {
	store, err := New(t.TempDir())
	if err != nil {
		t.Fatalf("Failed to create store: %v", err)
	}

	if got := store.Locator("/tmp/uploads/id_report.pdf"); got != "file:///tmp/uploads/id_report.pdf" {
		t.Errorf("Locator() = %q", got)
	}
}
