package store

import (
	"path/filepath"
	"testing"
)

func newTestSQLiteStore(t *testing.T) *SQLiteStore {
	t.Helper()
	s, err := NewSQLiteStore(filepath.Join(t.TempDir(), "alerts.db"))
	if err != nil {
		t.Fatalf("NewSQLiteStore: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestSQLiteStoreRoundtrip(t *testing.T) {
	s := newTestSQLiteStore(t)

	book := Book{}
	for _, target := range []string{"10", "5"} {
		if err := AddTarget(book, "42", 4242, d(t, target)); err != nil {
			t.Fatalf("AddTarget: %v", err)
		}
	}
	if err := s.Save(book); err != nil {
		t.Fatalf("Save: %v", err)
	}

	loaded, err := s.Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	ua, ok := loaded["42"]
	if !ok {
		t.Fatal("user 42 missing after reload")
	}
	if ua.ChatID != 4242 {
		t.Errorf("ChatID = %d, want 4242", ua.ChatID)
	}
	got := ListTargets(loaded, "42")
	if len(got) != 2 || !got[0].Equal(d(t, "5")) || !got[1].Equal(d(t, "10")) {
		t.Errorf("targets after reload = %v, want [5 10]", got)
	}
}

func TestSQLiteStoreSaveReplaces(t *testing.T) {
	s := newTestSQLiteStore(t)

	first := Book{}
	if err := AddTarget(first, "old", 1, d(t, "5")); err != nil {
		t.Fatalf("AddTarget: %v", err)
	}
	if err := s.Save(first); err != nil {
		t.Fatalf("Save: %v", err)
	}

	second := Book{}
	if err := AddTarget(second, "new", 2, d(t, "10")); err != nil {
		t.Fatalf("AddTarget: %v", err)
	}
	if err := s.Save(second); err != nil {
		t.Fatalf("Save: %v", err)
	}

	loaded, err := s.Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if _, ok := loaded["old"]; ok {
		t.Error("old user survived a full replace")
	}
	if _, ok := loaded["new"]; !ok {
		t.Error("new user missing after save")
	}
}

func TestSQLiteStoreLastPrice(t *testing.T) {
	s := newTestSQLiteStore(t)

	if _, ok, err := s.LoadLastPrice(); err != nil || ok {
		t.Fatalf("LoadLastPrice on fresh store = ok=%v err=%v, want none", ok, err)
	}

	if err := s.SaveLastPrice(d(t, "7.25")); err != nil {
		t.Fatalf("SaveLastPrice: %v", err)
	}
	if err := s.SaveLastPrice(d(t, "8.00")); err != nil {
		t.Fatalf("SaveLastPrice overwrite: %v", err)
	}

	p, ok, err := s.LoadLastPrice()
	if err != nil || !ok {
		t.Fatalf("LoadLastPrice = ok=%v err=%v, want stored price", ok, err)
	}
	if !p.Equal(d(t, "8.00")) {
		t.Errorf("last price = %s, want 8.00", p)
	}
}
