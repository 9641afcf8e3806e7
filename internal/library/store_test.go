package library

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"go.yaml.in/yaml/v3"

	"github.com/datahackshaw/sourcesearch/pkg/types"
)

func testStore(t *testing.T) *Store {
	t.Helper()
	s, err := NewStore(types.LibraryConfig{LibraryDir: t.TempDir()})
	if err != nil {
		t.Fatalf("NewStore() error = %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func sampleRecord() types.PaperRecord {
	return types.PaperRecord{
		Title:     "Attention Is All You Need",
		Authors:   "Ashish Vaswani, Noam Shazeer",
		Source:    types.SourceCrossRef,
		DOI:       "10.5555/test.2017",
		URL:       "https://doi.org/10.5555/test.2017",
		Abstract:  "The dominant sequence transduction models are based on recurrent networks.",
		Year:      "2017",
		Journal:   "NeurIPS",
		Citations: 90000,
	}
}

// --- Schema ---

func TestNewStoreCreatesSchema(t *testing.T) {
	s := testStore(t)

	for _, name := range []string{"papers", "papers_fts"} {
		var n int
		err := s.db.QueryRow(
			`SELECT count(*) FROM sqlite_master WHERE type='table' AND name=?`, name,
		).Scan(&n)
		if err != nil {
			t.Fatalf("querying sqlite_master: %v", err)
		}
		if n != 1 {
			t.Errorf("table %s: count = %d, want 1", name, n)
		}
	}

	var triggers int
	err := s.db.QueryRow(
		`SELECT count(*) FROM sqlite_master WHERE type='trigger' AND name LIKE 'papers_a%'`,
	).Scan(&triggers)
	if err != nil {
		t.Fatalf("querying triggers: %v", err)
	}
	if triggers != 3 {
		t.Errorf("trigger count = %d, want 3", triggers)
	}
}

func TestNewStoreCreatesDBFile(t *testing.T) {
	dir := t.TempDir()
	s, err := NewStore(types.LibraryConfig{LibraryDir: dir})
	if err != nil {
		t.Fatalf("NewStore() error = %v", err)
	}
	defer s.Close()

	if _, err := os.Stat(filepath.Join(dir, dbFile)); err != nil {
		t.Errorf("database file not created: %v", err)
	}
}

func TestStoreSurvivesReopen(t *testing.T) {
	dir := t.TempDir()
	cfg := types.LibraryConfig{LibraryDir: dir}
	ctx := context.Background()

	s, err := NewStore(cfg)
	if err != nil {
		t.Fatalf("NewStore() error = %v", err)
	}
	if _, err := s.Save(ctx, sampleRecord()); err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	s.Close()

	s2, err := NewStore(cfg)
	if err != nil {
		t.Fatalf("reopening store: %v", err)
	}
	defer s2.Close()

	n, err := s2.Count(ctx)
	if err != nil {
		t.Fatalf("Count() error = %v", err)
	}
	if n != 1 {
		t.Errorf("count after reopen = %d, want 1", n)
	}
}

// --- Save and Get ---

func TestSaveAndGet(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	key, err := s.Save(ctx, sampleRecord())
	if err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	if key != "10.5555/test.2017" {
		t.Errorf("key = %q, want %q", key, "10.5555/test.2017")
	}

	// Lookup normalizes case, so the DOI as printed also resolves.
	e, err := s.Get(ctx, "10.5555/TEST.2017")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if e.Title != "Attention Is All You Need" {
		t.Errorf("Title = %q", e.Title)
	}
	if e.Authors != "Ashish Vaswani, Noam Shazeer" {
		t.Errorf("Authors = %q", e.Authors)
	}
	if e.Source != types.SourceCrossRef {
		t.Errorf("Source = %q", e.Source)
	}
	if e.Citations != 90000 {
		t.Errorf("Citations = %d", e.Citations)
	}
	if e.AddedAt.IsZero() {
		t.Error("AddedAt is zero")
	}
}

func TestSaveUpsertRefreshesFields(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	rec := sampleRecord()
	if _, err := s.Save(ctx, rec); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	rec.Citations = 95000
	if _, err := s.Save(ctx, rec); err != nil {
		t.Fatalf("second Save() error = %v", err)
	}

	n, err := s.Count(ctx)
	if err != nil {
		t.Fatalf("Count() error = %v", err)
	}
	if n != 1 {
		t.Errorf("count = %d, want 1", n)
	}

	e, err := s.Get(ctx, rec.DOI)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if e.Citations != 95000 {
		t.Errorf("Citations = %d, want 95000", e.Citations)
	}
}

func TestSaveUsesTitleKeyWhenNoDOI(t *testing.T) {
	s := testStore(t)

	rec := sampleRecord()
	rec.DOI = ""
	key, err := s.Save(context.Background(), rec)
	if err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	if key != "attention is all you need" {
		t.Errorf("key = %q", key)
	}
}

func TestSaveRejectsShortKey(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	if _, err := s.Save(ctx, types.PaperRecord{Title: "ml"}); err == nil {
		t.Fatal("Save() accepted a record with a 2-character key")
	}

	n, err := s.Count(ctx)
	if err != nil {
		t.Fatalf("Count() error = %v", err)
	}
	if n != 0 {
		t.Errorf("count = %d, want 0", n)
	}
}

func TestGetMissing(t *testing.T) {
	s := testStore(t)

	_, err := s.Get(context.Background(), "10.9999/absent")
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("Get() error = %v, want ErrNotFound", err)
	}
}

// --- List and Find ---

func TestListReturnsAllEntries(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	first := sampleRecord()
	second := sampleRecord()
	second.DOI = "10.5555/other.2020"
	second.Title = "Deep Residual Learning for Image Recognition"

	for _, rec := range []types.PaperRecord{first, second} {
		if _, err := s.Save(ctx, rec); err != nil {
			t.Fatalf("Save() error = %v", err)
		}
	}

	entries, err := s.List(ctx)
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(entries) != 2 {
		t.Errorf("len(entries) = %d, want 2", len(entries))
	}
}

func TestFindFullText(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	other := types.PaperRecord{
		Title:    "Deep Residual Learning for Image Recognition",
		Authors:  "Kaiming He",
		Source:   types.SourceSemanticScholar,
		DOI:      "10.5555/resnet.2016",
		Abstract: "Deeper convolutional networks are hard to train.",
	}
	for _, rec := range []types.PaperRecord{sampleRecord(), other} {
		if _, err := s.Save(ctx, rec); err != nil {
			t.Fatalf("Save() error = %v", err)
		}
	}

	tests := []struct {
		query   string
		want    int
		wantKey string
	}{
		{"attention", 1, "10.5555/test.2017"},
		{"convolutional", 1, "10.5555/resnet.2016"}, // abstract term
		{"Vaswani", 1, "10.5555/test.2017"},         // author term
		{"spectroscopy", 0, ""},
	}

	for _, tt := range tests {
		entries, err := s.Find(ctx, tt.query, 0)
		if err != nil {
			t.Fatalf("Find(%q) error = %v", tt.query, err)
		}
		if len(entries) != tt.want {
			t.Errorf("Find(%q) returned %d entries, want %d", tt.query, len(entries), tt.want)
			continue
		}
		if tt.want == 1 && entries[0].Key != tt.wantKey {
			t.Errorf("Find(%q) key = %q, want %q", tt.query, entries[0].Key, tt.wantKey)
		}
	}
}

func TestFindEmptyQueryListsRecent(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	if _, err := s.Save(ctx, sampleRecord()); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	entries, err := s.Find(ctx, "   ", 0)
	if err != nil {
		t.Fatalf("Find() error = %v", err)
	}
	if len(entries) != 1 {
		t.Errorf("len(entries) = %d, want 1", len(entries))
	}
}

func TestFindRespectsMaxResults(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	for _, doi := range []string{"10.1/aaa1", "10.1/aaa2", "10.1/aaa3"} {
		rec := sampleRecord()
		rec.DOI = doi
		if _, err := s.Save(ctx, rec); err != nil {
			t.Fatalf("Save() error = %v", err)
		}
	}

	entries, err := s.Find(ctx, "", 2)
	if err != nil {
		t.Fatalf("Find() error = %v", err)
	}
	if len(entries) != 2 {
		t.Errorf("len(entries) = %d, want 2", len(entries))
	}
}

func TestFindIndexFollowsUpdates(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	if _, err := s.Save(ctx, sampleRecord()); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	updated := sampleRecord()
	updated.Title = "Transformer Networks Revisited"
	updated.Abstract = "Self-supervised pretraining at scale."
	if _, err := s.Save(ctx, updated); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	entries, err := s.Find(ctx, "attention", 0)
	if err != nil {
		t.Fatalf("Find() error = %v", err)
	}
	if len(entries) != 0 {
		t.Errorf("stale index: Find(attention) returned %d entries", len(entries))
	}

	entries, err = s.Find(ctx, "revisited", 0)
	if err != nil {
		t.Fatalf("Find() error = %v", err)
	}
	if len(entries) != 1 {
		t.Errorf("Find(revisited) returned %d entries, want 1", len(entries))
	}
}

// --- Remove ---

func TestRemove(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	key, err := s.Save(ctx, sampleRecord())
	if err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	if err := s.Remove(ctx, "10.5555/TEST.2017"); err != nil {
		t.Fatalf("Remove() error = %v", err)
	}

	if _, err := s.Get(ctx, key); !errors.Is(err, ErrNotFound) {
		t.Errorf("Get() after Remove = %v, want ErrNotFound", err)
	}

	// The full-text index drops the row too.
	entries, err := s.Find(ctx, "attention", 0)
	if err != nil {
		t.Fatalf("Find() error = %v", err)
	}
	if len(entries) != 0 {
		t.Errorf("Find() after Remove returned %d entries", len(entries))
	}
}

func TestRemoveMissing(t *testing.T) {
	s := testStore(t)

	err := s.Remove(context.Background(), "10.9999/absent")
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("Remove() error = %v, want ErrNotFound", err)
	}
}

// --- Export ---

func TestExportYAML(t *testing.T) {
	dir := t.TempDir()
	s, err := NewStore(types.LibraryConfig{LibraryDir: dir})
	if err != nil {
		t.Fatalf("NewStore() error = %v", err)
	}
	defer s.Close()
	ctx := context.Background()

	if _, err := s.Save(ctx, sampleRecord()); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	if err := s.ExportYAML(ctx, ""); err != nil {
		t.Fatalf("ExportYAML() error = %v", err)
	}

	data, err := os.ReadFile(filepath.Join(dir, "export.yaml"))
	if err != nil {
		t.Fatalf("reading export: %v", err)
	}

	var entries []Entry
	if err := yaml.Unmarshal(data, &entries); err != nil {
		t.Fatalf("parsing export: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("len(entries) = %d, want 1", len(entries))
	}
	if entries[0].Key != "10.5555/test.2017" {
		t.Errorf("Key = %q", entries[0].Key)
	}
	if entries[0].Title != "Attention Is All You Need" {
		t.Errorf("Title = %q", entries[0].Title)
	}
}

func TestExportJSON(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	if _, err := s.Save(ctx, sampleRecord()); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	path := filepath.Join(t.TempDir(), "out.json")
	if err := s.ExportJSON(ctx, path); err != nil {
		t.Fatalf("ExportJSON() error = %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("reading export: %v", err)
	}

	var entries []Entry
	if err := json.Unmarshal(data, &entries); err != nil {
		t.Fatalf("parsing export: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("len(entries) = %d, want 1", len(entries))
	}
	if entries[0].Journal != "NeurIPS" {
		t.Errorf("Journal = %q", entries[0].Journal)
	}
}
