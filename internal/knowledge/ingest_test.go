package knowledge

import (
	"context"
	"os"
	"path/filepath"
	"testing"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadFileTextWithTopicHeader(t *testing.T) {
	path := writeFile(t, t.TempDir(), "food_vocab.txt", "Topic: 飲食美食\ncuisine, flavor, recipe\n")

	doc, err := LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile() error = %v", err)
	}
	if doc.Topic != "飲食美食" {
		t.Errorf("topic = %q, want header value", doc.Topic)
	}
	if doc.Content != "cuisine, flavor, recipe" {
		t.Errorf("content = %q, want body without header", doc.Content)
	}
	if doc.ID != "food_vocab" {
		t.Errorf("id = %q, want file stem", doc.ID)
	}
}

func TestLoadFileTextWithoutHeaderFallsBackToFileName(t *testing.T) {
	path := writeFile(t, t.TempDir(), "travel.txt", "itinerary, boarding pass\n")

	doc, err := LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile() error = %v", err)
	}
	if doc.Topic != "travel" {
		t.Errorf("topic = %q, want file stem", doc.Topic)
	}
	if doc.Content != "itinerary, boarding pass" {
		t.Errorf("content = %q", doc.Content)
	}
}

func TestLoadFileRejectsEmptyAndUnknown(t *testing.T) {
	dir := t.TempDir()

	empty := writeFile(t, dir, "empty.txt", "Topic: x\n")
	if _, err := LoadFile(empty); err == nil {
		t.Error("LoadFile() accepted a header-only file")
	}

	other := writeFile(t, dir, "notes.md", "hello")
	if _, err := LoadFile(other); err == nil {
		t.Error("LoadFile() accepted an unsupported extension")
	}

	if _, err := LoadFile(filepath.Join(dir, "missing.txt")); err == nil {
		t.Error("LoadFile() accepted a missing file")
	}
}

func TestIngestFilesSkipsBadFilesAndCounts(t *testing.T) {
	dir := t.TempDir()
	good1 := writeFile(t, dir, "food.txt", "Topic: Food\ncuisine")
	good2 := writeFile(t, dir, "travel.txt", "itinerary")
	bad := writeFile(t, dir, "broken.csv", "x")

	db := &fakeDB{}
	s := newTestStore(t, db, &mockEmbedder{})

	added, err := s.IngestFiles(context.Background(), []string{good1, bad, good2})
	if added != 2 {
		t.Errorf("added = %d, want 2", added)
	}
	if err == nil {
		t.Error("IngestFiles() error = nil, want joined skip error")
	}
	if len(db.execSQL) != 2 {
		t.Errorf("upserts = %d, want 2", len(db.execSQL))
	}
}
