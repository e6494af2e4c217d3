package store

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func newTestFileStore(t *testing.T) *FileStore {
	t.Helper()
	s, err := NewFileStore(filepath.Join(t.TempDir(), "alerts.json"))
	if err != nil {
		t.Fatalf("NewFileStore: %v", err)
	}
	return s
}

func TestFileStoreRoundtrip(t *testing.T) {
	s := newTestFileStore(t)

	book := Book{}
	if err := AddTarget(book, "42", 4242, d(t, "7.5")); err != nil {
		t.Fatalf("AddTarget: %v", err)
	}
	if err := AddTarget(book, "42", 4242, d(t, "5")); err != nil {
		t.Fatalf("AddTarget: %v", err)
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
	if len(got) != 2 || !got[0].Equal(d(t, "5")) || !got[1].Equal(d(t, "7.5")) {
		t.Errorf("targets after reload = %v, want [5 7.5]", got)
	}
}

func TestFileStoreLayout(t *testing.T) {
	s := newTestFileStore(t)

	book := Book{}
	if err := AddTarget(book, "42", 4242, d(t, "7.5")); err != nil {
		t.Fatalf("AddTarget: %v", err)
	}
	if err := s.Save(book); err != nil {
		t.Fatalf("Save: %v", err)
	}

	data, err := os.ReadFile(s.path)
	if err != nil {
		t.Fatalf("read alerts file: %v", err)
	}
	// The on-disk layout is the contract with pre-existing alerts.json
	// files: chat_id and targets keys, targets as bare numbers.
	for _, want := range []string{`"chat_id": 4242`, `"targets"`, "7.5"} {
		if !strings.Contains(string(data), want) {
			t.Errorf("alerts file missing %q:\n%s", want, data)
		}
	}
	if strings.Contains(string(data), `"7.5"`) {
		t.Errorf("target persisted as a quoted string:\n%s", data)
	}
}

func TestFileStoreLoadFailOpen(t *testing.T) {
	t.Run("missing file yields an empty book", func(t *testing.T) {
		s := newTestFileStore(t)
		book, err := s.Load()
		if err != nil {
			t.Fatalf("Load: %v", err)
		}
		if len(book) != 0 {
			t.Errorf("book = %v, want empty", book)
		}
	})

	t.Run("corrupt file yields an empty book", func(t *testing.T) {
		s := newTestFileStore(t)
		if err := os.WriteFile(s.path, []byte("{not json"), 0o644); err != nil {
			t.Fatalf("write corrupt file: %v", err)
		}
		book, err := s.Load()
		if err != nil {
			t.Fatalf("Load: %v", err)
		}
		if len(book) != 0 {
			t.Errorf("book = %v, want empty", book)
		}
	})
}

func TestFileStoreLock(t *testing.T) {
	s := newTestFileStore(t)
	if err := s.Lock(); err != nil {
		t.Fatalf("Lock: %v", err)
	}
	if err := s.Unlock(); err != nil {
		t.Fatalf("Unlock: %v", err)
	}
}

func TestFileStoreLastPrice(t *testing.T) {
	s := newTestFileStore(t)

	if _, ok, err := s.LoadLastPrice(); err != nil || ok {
		t.Fatalf("LoadLastPrice on fresh store = ok=%v err=%v, want none", ok, err)
	}

	if err := s.SaveLastPrice(d(t, "7.25")); err != nil {
		t.Fatalf("SaveLastPrice: %v", err)
	}
	p, ok, err := s.LoadLastPrice()
	if err != nil || !ok {
		t.Fatalf("LoadLastPrice = ok=%v err=%v, want stored price", ok, err)
	}
	if !p.Equal(d(t, "7.25")) {
		t.Errorf("last price = %s, want 7.25", p)
	}
}
