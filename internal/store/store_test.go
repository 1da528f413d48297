package store

import (
	"errors"
	"testing"
	"time"

	"github.com/spf13/afero"
)

func TestAccountStoreUpdateCreatesRecord(t *testing.T) {
	fs := afero.NewMemMapFs()
	s, err := NewAccountStore(fs, "/data")
	if err != nil {
		t.Fatalf("NewAccountStore: %v", err)
	}

	acc, err := s.Update("1001", func(a *Account) error {
		a.Registered = true
		a.FileCount = 3
		return nil
	})
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if acc.ID != "1001" || !acc.Registered || acc.FileCount != 3 {
		t.Fatalf("unexpected account: %+v", acc)
	}
	if acc.Plan != PlanNormal {
		t.Fatalf("new accounts must default to normal plan, got %q", acc.Plan)
	}

	// A fresh store over the same fs must see the persisted state.
	s2, err := NewAccountStore(fs, "/data")
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	got, ok := s2.Get("1001")
	if !ok || got.FileCount != 3 {
		t.Fatalf("persisted account not found: %+v ok=%v", got, ok)
	}
}

func TestAccountStoreUpdateAbortsOnError(t *testing.T) {
	fs := afero.NewMemMapFs()
	s, _ := NewAccountStore(fs, "/data")
	s.Update("7", func(a *Account) error { a.FileCount = 1; return nil })

	wantErr := errors.New("nope")
	if _, err := s.Update("7", func(a *Account) error {
		a.FileCount = 99
		return wantErr
	}); !errors.Is(err, wantErr) {
		t.Fatalf("expected fn error back, got %v", err)
	}
	// In-memory value changed but must not have been persisted.
	s2, _ := NewAccountStore(fs, "/data")
	got, _ := s2.Get("7")
	if got.FileCount != 1 {
		t.Fatalf("aborted update leaked to disk: %+v", got)
	}
}

func TestAccountStoreGetReturnsCopy(t *testing.T) {
	fs := afero.NewMemMapFs()
	s, _ := NewAccountStore(fs, "/data")
	s.Update("9", func(a *Account) error { a.FileCount = 5; return nil })

	got, _ := s.Get("9")
	got.FileCount = 100
	again, _ := s.Get("9")
	if again.FileCount != 5 {
		t.Fatalf("Get must return a copy, store mutated to %d", again.FileCount)
	}
}

func TestKeyStoreActivationFlow(t *testing.T) {
	fs := afero.NewMemMapFs()
	s, err := NewKeyStore(fs, "/data")
	if err != nil {
		t.Fatalf("NewKeyStore: %v", err)
	}

	now := time.Now().UTC()
	key := &LicenseKey{
		Key:       "AAAAA-BBBBB-CCCCC-DDDDD",
		Duration:  "1day",
		MaxUsers:  2,
		CreatedAt: now,
		ExpiresAt: now.Add(24 * time.Hour),
	}
	if err := s.Put(key); err != nil {
		t.Fatalf("Put: %v", err)
	}

	updated, err := s.Update(key.Key, func(k *LicenseKey) error {
		k.ActivatedBy = append(k.ActivatedBy, Activation{UserID: "42", ActivatedAt: now})
		return nil
	})
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if updated.Remaining() != 1 {
		t.Fatalf("expected 1 slot left, got %d", updated.Remaining())
	}

	// fn error must leave the key untouched on disk.
	abort := errors.New("full")
	if _, err := s.Update(key.Key, func(k *LicenseKey) error {
		k.ActivatedBy = append(k.ActivatedBy, Activation{UserID: "43"})
		return abort
	}); !errors.Is(err, abort) {
		t.Fatalf("expected abort error, got %v", err)
	}
	s2, _ := NewKeyStore(fs, "/data")
	persisted, ok := s2.Get(key.Key)
	if !ok || len(persisted.ActivatedBy) != 1 {
		t.Fatalf("aborted activation leaked: %+v", persisted)
	}
}

func TestKeyStoreDelete(t *testing.T) {
	fs := afero.NewMemMapFs()
	s, _ := NewKeyStore(fs, "/data")
	s.Put(&LicenseKey{Key: "K", MaxUsers: 1})

	removed, ok, err := s.Delete("K")
	if err != nil || !ok {
		t.Fatalf("Delete: ok=%v err=%v", ok, err)
	}
	if removed.Key != "K" {
		t.Fatalf("unexpected removed key: %+v", removed)
	}
	if _, ok, _ := s.Delete("K"); ok {
		t.Fatalf("second delete must report missing")
	}
}

func TestStatsStoreDateRollover(t *testing.T) {
	fs := afero.NewMemMapFs()
	s, _ := NewStatsStore(fs, "/data")

	stats, err := s.AddScans("2026-08-29", 4)
	if err != nil {
		t.Fatalf("AddScans: %v", err)
	}
	if stats.Scans != 4 {
		t.Fatalf("expected 4, got %d", stats.Scans)
	}

	stats, _ = s.AddScans("2026-08-30", 2)
	if stats.Date != "2026-08-30" || stats.Scans != 2 {
		t.Fatalf("date change must reset counter: %+v", stats)
	}

	if snap := s.Snapshot("2026-08-31"); snap.Scans != 0 {
		t.Fatalf("stale snapshot must read zero: %+v", snap)
	}
	if snap := s.Snapshot("2026-08-30"); snap.Scans != 2 {
		t.Fatalf("same-day snapshot lost data: %+v", snap)
	}
}

func TestStoresTolerateMissingFiles(t *testing.T) {
	fs := afero.NewMemMapFs()
	if _, err := NewAccountStore(fs, "/empty"); err != nil {
		t.Fatalf("accounts: %v", err)
	}
	if _, err := NewKeyStore(fs, "/empty"); err != nil {
		t.Fatalf("keys: %v", err)
	}
	if _, err := NewStatsStore(fs, "/empty"); err != nil {
		t.Fatalf("stats: %v", err)
	}
}
