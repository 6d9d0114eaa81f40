package store

import (
	"errors"
	"path/filepath"
	"testing"
)

func TestLocalRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "croc.db")
	s, err := NewLocal(path)
	if err != nil {
		t.Fatalf("NewLocal: %v", err)
	}
	defer s.Close()

	if _, err := s.Get("missing"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}

	if err := s.Set(CurrentUserKey(), []byte(`{"id":"u1"}`)); err != nil {
		t.Fatalf("Set: %v", err)
	}
	got, err := s.Get(CurrentUserKey())
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if string(got) != `{"id":"u1"}` {
		t.Fatalf("Get = %s", got)
	}

	// Overwrite replaces, never appends.
	if err := s.Set(CurrentUserKey(), []byte(`{"id":"u2"}`)); err != nil {
		t.Fatalf("Set overwrite: %v", err)
	}
	got, _ = s.Get(CurrentUserKey())
	if string(got) != `{"id":"u2"}` {
		t.Fatalf("after overwrite = %s", got)
	}

	if err := s.Delete(CurrentUserKey()); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := s.Get(CurrentUserKey()); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound after delete, got %v", err)
	}
	// Deleting again is a no-op.
	if err := s.Delete(CurrentUserKey()); err != nil {
		t.Fatalf("Delete missing: %v", err)
	}
}

func TestLocalPersistsAcrossReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "croc.db")

	s, err := NewLocal(path)
	if err != nil {
		t.Fatalf("NewLocal: %v", err)
	}
	if err := s.Set(SessionsKey("u1"), []byte(`[]`)); err != nil {
		t.Fatalf("Set: %v", err)
	}
	s.Close()

	s2, err := NewLocal(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer s2.Close()
	got, err := s2.Get(SessionsKey("u1"))
	if err != nil {
		t.Fatalf("Get after reopen: %v", err)
	}
	if string(got) != `[]` {
		t.Fatalf("Get after reopen = %s", got)
	}
}

func TestSessionsKeyIsPerUser(t *testing.T) {
	if SessionsKey("a") == SessionsKey("b") {
		t.Fatal("session keys must be scoped per user")
	}
}
