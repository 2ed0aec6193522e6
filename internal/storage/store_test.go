package storage

import (
	"database/sql"
	"testing"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := New(":memory:")
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestSetAndGet(t *testing.T) {
	s := newTestStore(t)
	if err := s.Set(NamespaceGame, "current_round", "3"); err != nil {
		t.Fatalf("set: %v", err)
	}
	got, err := s.Get(NamespaceGame, "current_round")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got != "3" {
		t.Fatalf("expected 3, got %s", got)
	}
}

func TestGetNotFound(t *testing.T) {
	s := newTestStore(t)
	_, err := s.Get(NamespaceGame, "nonexistent")
	if err != sql.ErrNoRows {
		t.Fatalf("expected sql.ErrNoRows, got %v", err)
	}
}

func TestSetUpsert(t *testing.T) {
	s := newTestStore(t)
	s.Set(NamespaceGame, "players", `[{"v":1}]`)
	s.Set(NamespaceGame, "players", `[{"v":2}]`)

	got, err := s.Get(NamespaceGame, "players")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got != `[{"v":2}]` {
		t.Fatalf("expected upserted value, got %s", got)
	}
}

func TestNamespacesAreSeparate(t *testing.T) {
	s := newTestStore(t)
	s.Set(NamespaceGame, "gameName", "game")
	s.Set(NamespacePrefs, "gameName", "prefs")

	got, _ := s.Get(NamespacePrefs, "gameName")
	if got != "prefs" {
		t.Fatalf("expected prefs value, got %s", got)
	}
	if err := s.Delete(NamespaceGame, "gameName"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := s.Get(NamespacePrefs, "gameName"); err != nil {
		t.Fatalf("deleting game key removed prefs key: %v", err)
	}
}

func TestSetMany(t *testing.T) {
	s := newTestStore(t)
	err := s.SetMany(NamespaceGame, map[string]string{
		"game_active":   "true",
		"current_round": "1",
		"starter_index": "0",
	})
	if err != nil {
		t.Fatalf("set many: %v", err)
	}
	for _, k := range []string{"game_active", "current_round", "starter_index"} {
		if _, err := s.Get(NamespaceGame, k); err != nil {
			t.Fatalf("get %s: %v", k, err)
		}
	}
}

func TestDeleteKeys(t *testing.T) {
	s := newTestStore(t)
	s.SetMany(NamespaceGame, map[string]string{"a": "1", "b": "2", "c": "3"})

	if err := s.Delete(NamespaceGame, "a", "b", "missing"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := s.Get(NamespaceGame, "a"); err != sql.ErrNoRows {
		t.Fatalf("expected a deleted, got %v", err)
	}
	if _, err := s.Get(NamespaceGame, "c"); err != nil {
		t.Fatalf("expected c kept, got %v", err)
	}
	if err := s.Delete(NamespaceGame); err != nil {
		t.Fatalf("delete with no keys: %v", err)
	}
}

func TestHistoryOrder(t *testing.T) {
	s := newTestStore(t)
	s.AppendHistory("aaa", `{"n":1}`)
	s.AppendHistory("bbb", `{"n":2}`)
	s.AppendHistory("ccc", `{"n":3}`)

	rows, err := s.ListHistory()
	if err != nil {
		t.Fatalf("list history: %v", err)
	}
	if len(rows) != 3 {
		t.Fatalf("expected 3 entries, got %d", len(rows))
	}
	if rows[0].ID != "aaa" || rows[2].ID != "ccc" {
		t.Fatalf("expected append order, got %s..%s", rows[0].ID, rows[2].ID)
	}
	if rows[0].CreatedAt.IsZero() {
		t.Fatal("expected non-zero CreatedAt")
	}
}

func TestAppendHistoryDuplicateID(t *testing.T) {
	s := newTestStore(t)
	if err := s.AppendHistory("aaa", `{}`); err != nil {
		t.Fatalf("append: %v", err)
	}
	if err := s.AppendHistory("aaa", `{}`); err == nil {
		t.Fatal("expected error on duplicate id")
	}
}

func TestGetHistory(t *testing.T) {
	s := newTestStore(t)
	s.AppendHistory("aaa", `{"n":1}`)

	row, err := s.GetHistory("aaa")
	if err != nil {
		t.Fatalf("get history: %v", err)
	}
	if row.EntryJSON != `{"n":1}` {
		t.Fatalf("unexpected entry %s", row.EntryJSON)
	}
	if _, err := s.GetHistory("nope"); err != sql.ErrNoRows {
		t.Fatalf("expected sql.ErrNoRows, got %v", err)
	}
}

func TestDeleteLastHistory(t *testing.T) {
	s := newTestStore(t)
	removed, err := s.DeleteLastHistory()
	if err != nil {
		t.Fatalf("delete on empty: %v", err)
	}
	if removed {
		t.Fatal("expected nothing removed from empty history")
	}

	s.AppendHistory("aaa", `{}`)
	s.AppendHistory("bbb", `{}`)
	removed, err = s.DeleteLastHistory()
	if err != nil || !removed {
		t.Fatalf("expected removal, got %v %v", removed, err)
	}
	rows, _ := s.ListHistory()
	if len(rows) != 1 || rows[0].ID != "aaa" {
		t.Fatalf("expected only aaa left, got %+v", rows)
	}
}
