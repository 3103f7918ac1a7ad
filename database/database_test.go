package database

import (
	"path/filepath"
	"testing"
	"time"
)

func TestRecordAndRecent(t *testing.T) {
	db, err := New(filepath.Join(t.TempDir(), "nested", "history.db"))
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	defer db.Close()

	base := time.Date(2026, 10, 1, 12, 0, 0, 0, time.UTC)
	records := []LookupRecord{
		{Query: "Shake It Off", Title: "Shake It Off", Artist: "Taylor Swift", Path: "/a", Found: true, Strategy: "container-class", WordCount: 40, LookedUpAt: base},
		{Query: "Love Story", Title: "Love Story", Artist: "Taylor Swift", Path: "/b", Found: false, LookedUpAt: base.Add(time.Minute)},
		{Query: "Blank Space", LookedUpAt: base.Add(2 * time.Minute)},
	}
	for _, r := range records {
		if err := db.Record(r); err != nil {
			t.Fatalf("Record() error = %v", err)
		}
	}

	got, err := db.Recent(2)
	if err != nil {
		t.Fatalf("Recent() error = %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("Recent(2) returned %d rows", len(got))
	}
	if got[0].Query != "Blank Space" || got[1].Query != "Love Story" {
		t.Errorf("Recent order = %q, %q", got[0].Query, got[1].Query)
	}
	if got[1].Found {
		t.Error("Love Story should not be marked found")
	}
	if !got[1].LookedUpAt.Equal(base.Add(time.Minute)) {
		t.Errorf("LookedUpAt = %v", got[1].LookedUpAt)
	}

	all, err := db.Recent(0)
	if err != nil {
		t.Fatalf("Recent(0) error = %v", err)
	}
	if len(all) != 3 {
		t.Fatalf("Recent(0) returned %d rows, want 3", len(all))
	}
	last := all[2]
	if !last.Found || last.Strategy != "container-class" || last.WordCount != 40 || last.Artist != "Taylor Swift" {
		t.Errorf("oldest record = %+v", last)
	}
}

func TestNewInMemory(t *testing.T) {
	db, err := New(":memory:")
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	defer db.Close()

	if err := db.Record(LookupRecord{Query: "x"}); err != nil {
		t.Fatalf("Record() error = %v", err)
	}
	got, err := db.Recent(5)
	if err != nil || len(got) != 1 {
		t.Fatalf("Recent() = %v, %v", got, err)
	}
	if got[0].LookedUpAt.IsZero() {
		t.Error("zero LookedUpAt should default to now")
	}
}

func TestNewRequiresPath(t *testing.T) {
	if _, err := New(""); err == nil {
		t.Error("expected error for empty path")
	}
}
