package store

import (
	"testing"

	"github.com/shopspring/decimal"
)

func d(t *testing.T, s string) decimal.Decimal {
	t.Helper()
	v, err := decimal.NewFromString(s)
	if err != nil {
		t.Fatalf("bad decimal %q: %v", s, err)
	}
	return v
}

func TestAddTarget(t *testing.T) {
	t.Run("keeps targets sorted ascending", func(t *testing.T) {
		book := Book{}
		for _, s := range []string{"10", "5", "7.5"} {
			if err := AddTarget(book, "u1", 100, d(t, s)); err != nil {
				t.Fatalf("AddTarget(%s): %v", s, err)
			}
		}

		got := ListTargets(book, "u1")
		want := []string{"5", "7.5", "10"}
		if len(got) != len(want) {
			t.Fatalf("got %d targets, want %d", len(got), len(want))
		}
		for i, w := range want {
			if !got[i].Equal(d(t, w)) {
				t.Errorf("target[%d] = %s, want %s", i, got[i], w)
			}
		}
	})

	t.Run("creates the user entry on first registration", func(t *testing.T) {
		book := Book{}
		if err := AddTarget(book, "u1", 100, d(t, "7.5")); err != nil {
			t.Fatalf("AddTarget: %v", err)
		}
		ua, ok := book["u1"]
		if !ok {
			t.Fatal("user entry not created")
		}
		if ua.ChatID != 100 {
			t.Errorf("ChatID = %d, want 100", ua.ChatID)
		}
	})

	t.Run("rejects duplicates after rounding", func(t *testing.T) {
		book := Book{}
		if err := AddTarget(book, "u1", 100, d(t, "7.50")); err != nil {
			t.Fatalf("AddTarget: %v", err)
		}
		if err := AddTarget(book, "u1", 100, d(t, "7.501")); err != ErrDuplicateTarget {
			t.Fatalf("AddTarget duplicate = %v, want ErrDuplicateTarget", err)
		}
		if got := len(ListTargets(book, "u1")); got != 1 {
			t.Errorf("book changed by failed add: %d targets", got)
		}
	})

	t.Run("rejects non-positive prices", func(t *testing.T) {
		book := Book{}
		for _, s := range []string{"0", "-5"} {
			if err := AddTarget(book, "u1", 100, d(t, s)); err != ErrInvalidPrice {
				t.Errorf("AddTarget(%s) = %v, want ErrInvalidPrice", s, err)
			}
		}
		if len(book) != 0 {
			t.Error("failed add must not create a user entry")
		}
	})
}

func TestListTargets(t *testing.T) {
	book := Book{}
	if got := ListTargets(book, "nobody"); len(got) != 0 {
		t.Errorf("ListTargets for unknown user = %v, want empty", got)
	}
}

func TestPruneAndRemove(t *testing.T) {
	t.Run("empty kept list removes the user", func(t *testing.T) {
		book := Book{}
		if err := AddTarget(book, "u1", 100, d(t, "5")); err != nil {
			t.Fatalf("AddTarget: %v", err)
		}
		PruneAndRemove(book, "u1", nil)
		if _, ok := book["u1"]; ok {
			t.Error("user entry still present after pruning to empty")
		}
	})

	t.Run("non-empty kept list replaces targets", func(t *testing.T) {
		book := Book{}
		for _, s := range []string{"5", "10"} {
			if err := AddTarget(book, "u1", 100, d(t, s)); err != nil {
				t.Fatalf("AddTarget: %v", err)
			}
		}
		PruneAndRemove(book, "u1", []decimal.Decimal{d(t, "10")})
		got := ListTargets(book, "u1")
		if len(got) != 1 || !got[0].Equal(d(t, "10")) {
			t.Errorf("targets after prune = %v, want [10]", got)
		}
	})
}
