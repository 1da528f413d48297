// Package store persists bot state as JSON documents on an afero
// filesystem, which keeps tests on an in-memory fs and production on
// the real one.
package store

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/spf13/afero"
)

const (
	accountsFile = "users_db.json"
	keysFile     = "keys_db.json"
	statsFile    = "daily_stats.json"
)

// document is the shared load/save core. Each concrete store holds one
// and serializes access through its mutex; there is a single writer per
// document, so a plain file write is enough.
type document struct {
	fs   afero.Fs
	path string
	mu   sync.Mutex
}

func (d *document) load(v interface{}) error {
	raw, err := afero.ReadFile(d.fs, d.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("reading %s: %w", d.path, err)
	}
	if len(raw) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return fmt.Errorf("parsing %s: %w", d.path, err)
	}
	return nil
}

func (d *document) save(v interface{}) error {
	raw, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding %s: %w", d.path, err)
	}
	if err := d.fs.MkdirAll(filepath.Dir(d.path), 0o755); err != nil {
		return fmt.Errorf("creating data dir: %w", err)
	}
	if err := afero.WriteFile(d.fs, d.path, raw, 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", d.path, err)
	}
	return nil
}

// AccountStore holds every known bot account keyed by user ID.
type AccountStore struct {
	doc      document
	accounts map[string]*Account
}

func NewAccountStore(fs afero.Fs, dataDir string) (*AccountStore, error) {
	s := &AccountStore{
		doc:      document{fs: fs, path: filepath.Join(dataDir, accountsFile)},
		accounts: make(map[string]*Account),
	}
	if err := s.doc.load(&s.accounts); err != nil {
		return nil, err
	}
	return s, nil
}

// Get returns a copy of the account, so callers can read without racing
// concurrent updates.
func (s *AccountStore) Get(id string) (Account, bool) {
	s.doc.mu.Lock()
	defer s.doc.mu.Unlock()
	acc, ok := s.accounts[id]
	if !ok {
		return Account{}, false
	}
	return *acc, true
}

// Update applies fn to the account under the store lock and persists the
// result. A missing account is created first with the bare ID set, so
// every path that touches a user materializes its record.
func (s *AccountStore) Update(id string, fn func(*Account) error) (Account, error) {
	s.doc.mu.Lock()
	defer s.doc.mu.Unlock()

	acc, ok := s.accounts[id]
	if !ok {
		acc = &Account{ID: id, Plan: PlanNormal}
		s.accounts[id] = acc
	}
	if err := fn(acc); err != nil {
		return Account{}, err
	}
	if err := s.doc.save(s.accounts); err != nil {
		return Account{}, err
	}
	return *acc, nil
}

// All returns copies of every account, for admin reporting.
func (s *AccountStore) All() []Account {
	s.doc.mu.Lock()
	defer s.doc.mu.Unlock()
	out := make([]Account, 0, len(s.accounts))
	for _, acc := range s.accounts {
		out = append(out, *acc)
	}
	return out
}

func (s *AccountStore) Count() int {
	s.doc.mu.Lock()
	defer s.doc.mu.Unlock()
	return len(s.accounts)
}

// KeyStore holds license keys keyed by the key string itself.
type KeyStore struct {
	doc  document
	keys map[string]*LicenseKey
}

func NewKeyStore(fs afero.Fs, dataDir string) (*KeyStore, error) {
	s := &KeyStore{
		doc:  document{fs: fs, path: filepath.Join(dataDir, keysFile)},
		keys: make(map[string]*LicenseKey),
	}
	if err := s.doc.load(&s.keys); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *KeyStore) Get(key string) (LicenseKey, bool) {
	s.doc.mu.Lock()
	defer s.doc.mu.Unlock()
	k, ok := s.keys[key]
	if !ok {
		return LicenseKey{}, false
	}
	return copyKey(k), true
}

func (s *KeyStore) Put(k *LicenseKey) error {
	s.doc.mu.Lock()
	defer s.doc.mu.Unlock()
	stored := copyKey(k)
	s.keys[k.Key] = &stored
	return s.doc.save(s.keys)
}

// Update applies fn to the key under the store lock; returning an error
// from fn aborts without persisting, which is what makes key activation
// a single atomic check-and-claim.
func (s *KeyStore) Update(key string, fn func(*LicenseKey) error) (LicenseKey, error) {
	s.doc.mu.Lock()
	defer s.doc.mu.Unlock()

	k, ok := s.keys[key]
	if !ok {
		return LicenseKey{}, os.ErrNotExist
	}
	if err := fn(k); err != nil {
		return LicenseKey{}, err
	}
	if err := s.doc.save(s.keys); err != nil {
		return LicenseKey{}, err
	}
	return copyKey(k), nil
}

// Delete removes the key and reports whether it existed.
func (s *KeyStore) Delete(key string) (LicenseKey, bool, error) {
	s.doc.mu.Lock()
	defer s.doc.mu.Unlock()

	k, ok := s.keys[key]
	if !ok {
		return LicenseKey{}, false, nil
	}
	removed := copyKey(k)
	delete(s.keys, key)
	if err := s.doc.save(s.keys); err != nil {
		return LicenseKey{}, false, err
	}
	return removed, true, nil
}

func (s *KeyStore) Count() int {
	s.doc.mu.Lock()
	defer s.doc.mu.Unlock()
	return len(s.keys)
}

func copyKey(k *LicenseKey) LicenseKey {
	out := *k
	out.ActivatedBy = append([]Activation(nil), k.ActivatedBy...)
	return out
}

// StatsStore tracks the rolling daily scan counter.
type StatsStore struct {
	doc   document
	stats DailyStats
}

func NewStatsStore(fs afero.Fs, dataDir string) (*StatsStore, error) {
	s := &StatsStore{
		doc: document{fs: fs, path: filepath.Join(dataDir, statsFile)},
	}
	if err := s.doc.load(&s.stats); err != nil {
		return nil, err
	}
	return s, nil
}

// AddScans bumps the counter for today, resetting it first when the
// stored date is stale.
func (s *StatsStore) AddScans(today string, n int) (DailyStats, error) {
	s.doc.mu.Lock()
	defer s.doc.mu.Unlock()

	if s.stats.Date != today {
		s.stats = DailyStats{Date: today}
	}
	s.stats.Scans += n
	if err := s.doc.save(&s.stats); err != nil {
		return DailyStats{}, err
	}
	return s.stats, nil
}

// Snapshot returns the counter as of today; a stale date reads as zero
// without being persisted.
func (s *StatsStore) Snapshot(today string) DailyStats {
	s.doc.mu.Lock()
	defer s.doc.mu.Unlock()
	if s.stats.Date != today {
		return DailyStats{Date: today}
	}
	return s.stats
}
