package logbook

import (
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestTailReturnsRecentLinesAndTotal(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "logs", "ctxlayer.log")
	book, err := New(path)
	if err != nil {
		t.Fatalf("new logbook: %v", err)
	}
	for i := 0; i < 5; i++ {
		book.Info("entry-%d", i)
	}
	lines, total := book.Tail(3)
	if total != 5 {
		t.Fatalf("total lines = %d, want 5", total)
	}
	if len(lines) != 3 {
		t.Fatalf("len(lines) = %d, want 3", len(lines))
	}
	for idx, want := range []string{"entry-2", "entry-3", "entry-4"} {
		if !strings.Contains(lines[idx], want) {
			t.Fatalf("line %d = %q, missing %s", idx, lines[idx], want)
		}
	}
}

func TestAppendFormatsLine(t *testing.T) {
	fixed := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	book, err := New(filepath.Join(t.TempDir(), "j.log"), WithClock(func() time.Time { return fixed }))
	if err != nil {
		t.Fatal(err)
	}
	book.Error("delete domain %q:\n  %s", "alpha", "boom")
	lines, _ := book.Tail(1)
	want := `2024-03-01T12:00:00Z ERROR delete domain "alpha": boom`
	if len(lines) != 1 || lines[0] != want {
		t.Fatalf("line = %q, want %q", lines, want)
	}
}

func TestNilLogbookIsNoop(t *testing.T) {
	var book *Logbook
	book.Info("ignored")
	if lines, total := book.Tail(5); lines != nil || total != 0 {
		t.Fatalf("nil Tail = (%v, %d)", lines, total)
	}
}
