package creditstore

import (
	"path/filepath"
	"testing"
)

func TestFileStoreSetAndBalance(t *testing.T) {
	dir := t.TempDir()
	s, err := NewFileStore(filepath.Join(dir, "balances.json"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := s.SetBalance("key1", 10); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	bal, _ := s.Balance("key1")
	if bal != 10 {
		t.Errorf("expected 10, got %d", bal)
	}
}

func TestFileStoreUnknownKeyZero(t *testing.T) {
	s, _ := NewFileStore(filepath.Join(t.TempDir(), "balances.json"))
	bal, err := s.Balance("nope")
	if err != nil || bal != 0 {
		t.Errorf("expected 0/nil, got %d/%v", bal, err)
	}
}

func TestFileStoreAddCredits(t *testing.T) {
	s, _ := NewFileStore(filepath.Join(t.TempDir(), "balances.json"))
	s.SetBalance("k", 5)
	bal, err := s.AddCredits("k", 3)
	if err != nil || bal != 8 {
		t.Errorf("expected 8, got %d/%v", bal, err)
	}
}

func TestFileStoreChargeSufficientBalance(t *testing.T) {
	s, _ := NewFileStore(filepath.Join(t.TempDir(), "balances.json"))
	s.SetBalance("k", 5)
	bal, err := s.Charge("k", 2)
	if err != nil || bal != 3 {
		t.Errorf("expected 3, got %d/%v", bal, err)
	}
}

func TestFileStoreChargeInsufficientBalance(t *testing.T) {
	s, _ := NewFileStore(filepath.Join(t.TempDir(), "balances.json"))
	s.SetBalance("k", 1)
	_, err := s.Charge("k", 5)
	if err != ErrOutOfCredits {
		t.Errorf("expected ErrOutOfCredits, got %v", err)
	}
}

func TestFileStorePersistsAcrossReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "balances.json")
	s1, _ := NewFileStore(path)
	s1.SetBalance("k", 42)

	s2, err := NewFileStore(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	bal, _ := s2.Balance("k")
	if bal != 42 {
		t.Errorf("expected 42 after reopen, got %d", bal)
	}
}

func TestSQLiteStoreSetAndCharge(t *testing.T) {
	path := filepath.Join(t.TempDir(), "balances.db")
	s, err := NewSQLiteStore(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer s.Close()

	if err := s.SetBalance("k", 10); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	bal, err := s.Charge("k", 4)
	if err != nil || bal != 6 {
		t.Errorf("expected 6, got %d/%v", bal, err)
	}
}

func TestSQLiteStoreChargeOutOfCredits(t *testing.T) {
	path := filepath.Join(t.TempDir(), "balances.db")
	s, _ := NewSQLiteStore(path)
	defer s.Close()

	_, err := s.Charge("unknown", 1)
	if err != ErrOutOfCredits {
		t.Errorf("expected ErrOutOfCredits, got %v", err)
	}
}
