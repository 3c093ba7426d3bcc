package store_test

import (
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"mm-replacer/store"
)

func TestOpenMissingFile(t *testing.T) {
	s, err := store.Open(t.TempDir() + "/nonexistent.json")
	if err != nil {
		t.Fatalf("expected no error for missing file, got %v", err)
	}
	if len(s.Snapshot()) != 0 {
		t.Fatalf("expected empty store, got %v", s.Snapshot())
	}
	if _, ok := s.Get(store.KeyTheme); ok {
		t.Fatal("expected theme to be absent")
	}
}

func TestSetAndReload(t *testing.T) {
	path := t.TempDir() + "/state.json"
	s, _ := store.Open(path)

	if err := s.Set(store.KeyTheme, "light"); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if err := s.SetMany(map[string]string{
		store.KeyDictionary: `[{"find":"a","replace":"b"}]`,
		store.KeyLastSync:   "2026-01-02T03:04:05.000Z",
	}); err != nil {
		t.Fatalf("SetMany: %v", err)
	}

	s2, err := store.Open(path)
	if err != nil {
		t.Fatalf("Open reload: %v", err)
	}
	if v, _ := s2.Get(store.KeyTheme); v != "light" {
		t.Fatalf("expected theme 'light', got %q", v)
	}
	if v, _ := s2.Get(store.KeyLastSync); v != "2026-01-02T03:04:05.000Z" {
		t.Fatalf("unexpected lastSync %q", v)
	}
}

func TestDelete(t *testing.T) {
	path := t.TempDir() + "/state.json"
	s, _ := store.Open(path)
	s.SetMany(map[string]string{store.KeyTheme: "light", store.KeyContrast: "on", store.KeyLastSync: "x"})

	if err := s.Delete(store.KeyTheme, store.KeyContrast, "never-set"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	s2, _ := store.Open(path)
	snap := s2.Snapshot()
	if len(snap) != 1 || snap[store.KeyLastSync] != "x" {
		t.Fatalf("unexpected state after delete: %v", snap)
	}
}

func TestOpenCorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.json")
	os.WriteFile(path, []byte("{not json"), 0644)

	s, err := store.Open(path)
	if !errors.Is(err, store.ErrUnavailable) {
		t.Fatalf("expected ErrUnavailable, got %v", err)
	}
	if s == nil || len(s.Snapshot()) != 0 {
		t.Fatalf("expected an empty usable store, got %v", s)
	}

	if err := s.Set(store.KeyTheme, "light"); err != nil {
		t.Fatalf("Set after corrupt open: %v", err)
	}
	s2, err := store.Open(path)
	if err != nil {
		t.Fatalf("reopen after rewrite: %v", err)
	}
	if v, _ := s2.Get(store.KeyTheme); v != "light" {
		t.Fatalf("expected rewritten file, got %v", s2.Snapshot())
	}
}

func TestSetUnwritable(t *testing.T) {
	sub := filepath.Join(t.TempDir(), "sub")
	s, err := store.Open(filepath.Join(sub, "state.json"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	// The parent "directory" is now a regular file, so MkdirAll fails.
	os.WriteFile(sub, []byte("x"), 0644)
	err = s.Set(store.KeyTheme, "dark")
	if !errors.Is(err, store.ErrUnavailable) {
		t.Fatalf("expected ErrUnavailable, got %v", err)
	}
	if _, ok := s.Get(store.KeyTheme); ok {
		t.Fatal("failed write must not update memory")
	}
}

func TestConcurrentSet(t *testing.T) {
	s, _ := store.Open(t.TempDir() + "/state.json")

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			s.Set(store.KeyContrast, "on")
		}(i)
	}
	wg.Wait()
	if v, _ := s.Get(store.KeyContrast); v != "on" {
		t.Fatalf("expected 'on', got %q", v)
	}
}

func TestTwoStoresSameFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "state.json")
	a, _ := store.Open(path)
	b, _ := store.Open(path)

	var wg sync.WaitGroup
	errs := make(chan error, 40)
	for i := 0; i < 20; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			errs <- a.Set(store.KeyTheme, "light")
		}()
		go func() {
			defer wg.Done()
			errs <- b.Set(store.KeyContrast, "on")
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		if err != nil {
			t.Fatalf("concurrent write from two stores: %v", err)
		}
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 1 || entries[0].Name() != "state.json" {
		names := []string{}
		for _, e := range entries {
			names = append(names, e.Name())
		}
		t.Fatalf("expected only state.json to remain, got %v", names)
	}
	if _, err := store.Open(path); err != nil {
		t.Fatalf("file left undecodable: %v", err)
	}
}
