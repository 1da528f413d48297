// Package license issues and redeems time-boxed multi-user activation
// keys. Redeeming a slot grants the user VIP access for the key's
// duration, rounded up to whole days.
package license

import (
	"crypto/rand"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/lunhatthanh83-boop/bottele/internal/store"
)

var (
	ErrKeyNotFound      = errors.New("key does not exist")
	ErrKeyExpired       = errors.New("key has expired")
	ErrAlreadyActivated = errors.New("key already activated by this user")
	ErrKeyFull          = errors.New("key has reached its activation limit")
)

const (
	keySegments   = 4
	segmentLength = 5
	keyAlphabet   = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
)

// VIPGranter is the slice of the quota tracker the manager needs.
type VIPGranter interface {
	GrantVIP(userID string, days int) error
}

type Manager struct {
	keys    *store.KeyStore
	granter VIPGranter
	logger  *zap.Logger
	now     func() time.Time
}

func NewManager(keys *store.KeyStore, granter VIPGranter, logger *zap.Logger) *Manager {
	return &Manager{
		keys:    keys,
		granter: granter,
		logger:  logger,
		now:     time.Now,
	}
}

// Generate mints a new key valid for the parsed duration with maxUsers
// activation slots.
func (m *Manager) Generate(durationSpec string, maxUsers int, createdBy string) (store.LicenseKey, error) {
	if maxUsers < 1 {
		maxUsers = 1
	}
	token, err := newToken()
	if err != nil {
		return store.LicenseKey{}, fmt.Errorf("generating key token: %w", err)
	}

	d := ParseDuration(durationSpec)
	now := m.now().UTC()
	key := store.LicenseKey{
		Key:             token,
		Duration:        durationSpec,
		DurationSeconds: int64(d / time.Second),
		MaxUsers:        maxUsers,
		CreatedBy:       createdBy,
		CreatedAt:       now,
		ExpiresAt:       now.Add(d),
	}
	if err := m.keys.Put(&key); err != nil {
		return store.LicenseKey{}, err
	}
	m.logger.Info("License key generated",
		zap.String("key", token),
		zap.String("duration", durationSpec),
		zap.Int("max_users", maxUsers),
		zap.String("created_by", createdBy),
	)
	return key, nil
}

// ActivationResult describes a successful redemption.
type ActivationResult struct {
	Key       store.LicenseKey
	VIPDays   int
	Remaining int
}

// Activate redeems one slot on the key for the user. The whole
// check-and-claim runs inside a single store update, so two users racing
// for the last slot cannot both win. Validation order is fixed:
// existence, expiry, duplicate user, capacity.
func (m *Manager) Activate(token, userID, username, firstName string) (*ActivationResult, error) {
	token = strings.ToUpper(strings.TrimSpace(token))
	now := m.now().UTC()

	updated, err := m.keys.Update(token, func(k *store.LicenseKey) error {
		if k.IsExpired(now) {
			return ErrKeyExpired
		}
		if k.ActivatedByUser(userID) {
			return ErrAlreadyActivated
		}
		if k.IsFull() {
			return ErrKeyFull
		}
		k.ActivatedBy = append(k.ActivatedBy, store.Activation{
			UserID:      userID,
			Username:    username,
			FirstName:   firstName,
			ActivatedAt: now,
		})
		return nil
	})
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, ErrKeyNotFound
		}
		return nil, err
	}

	days := VIPDays(time.Duration(updated.DurationSeconds) * time.Second)
	if err := m.granter.GrantVIP(userID, days); err != nil {
		return nil, fmt.Errorf("granting access for key %s: %w", token, err)
	}

	m.logger.Info("License key activated",
		zap.String("key", token),
		zap.String("user_id", userID),
		zap.Int("vip_days", days),
		zap.Int("remaining", updated.Remaining()),
	)
	return &ActivationResult{Key: updated, VIPDays: days, Remaining: updated.Remaining()}, nil
}

// Remove deletes the key and returns how many users had activated it.
// Existing grants are not revoked.
func (m *Manager) Remove(token string) (int, error) {
	token = strings.ToUpper(strings.TrimSpace(token))
	removed, ok, err := m.keys.Delete(token)
	if err != nil {
		return 0, err
	}
	if !ok {
		return 0, ErrKeyNotFound
	}
	m.logger.Info("License key removed",
		zap.String("key", token),
		zap.Int("activations", len(removed.ActivatedBy)),
	)
	return len(removed.ActivatedBy), nil
}

// Get looks up a key without touching it.
func (m *Manager) Get(token string) (store.LicenseKey, bool) {
	return m.keys.Get(strings.ToUpper(strings.TrimSpace(token)))
}

// newToken builds a key like K7Q2M-8XDFA-33PLZ-QW9RT from crypto/rand.
func newToken() (string, error) {
	segments := make([]string, keySegments)
	buf := make([]byte, segmentLength)
	for i := range segments {
		if _, err := rand.Read(buf); err != nil {
			return "", err
		}
		chars := make([]byte, segmentLength)
		for j, b := range buf {
			chars[j] = keyAlphabet[int(b)%len(keyAlphabet)]
		}
		segments[i] = string(chars)
	}
	return strings.Join(segments, "-"), nil
}
