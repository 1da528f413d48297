// Package quota enforces the rolling scan allowance per account and
// manages plan transitions between normal and vip.
package quota

import (
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/lunhatthanh83-boop/bottele/internal/config"
	"github.com/lunhatthanh83-boop/bottele/internal/store"
)

const (
	defaultScanLimit = 50
	defaultWindow    = 24 * time.Hour
)

// Tracker is the single gatekeeper between a user and a scan. All plan
// normalization is lazy: expiries and window rollovers are applied the
// next time the account is touched, never by a background job.
type Tracker struct {
	accounts *store.AccountStore
	limit    int
	window   time.Duration
	adminID  string
	logger   *zap.Logger
	now      func() time.Time
}

func NewTracker(accounts *store.AccountStore, cfg config.QuotaConfig, adminID string, logger *zap.Logger) *Tracker {
	limit := cfg.ScanLimit
	if limit <= 0 {
		limit = defaultScanLimit
	}
	window := time.Duration(cfg.ResetHours) * time.Hour
	if window <= 0 {
		window = defaultWindow
	}
	return &Tracker{
		accounts: accounts,
		limit:    limit,
		window:   window,
		adminID:  adminID,
		logger:   logger,
		now:      time.Now,
	}
}

func (t *Tracker) Limit() int { return t.limit }

// Account fetches the user's record, materializing and normalizing it.
func (t *Tracker) Account(id string) (store.Account, error) {
	return t.accounts.Update(id, func(a *store.Account) error {
		t.normalize(a)
		return nil
	})
}

// Register marks the account as a bot member. Idempotent.
func (t *Tracker) Register(id string) (store.Account, error) {
	return t.accounts.Update(id, func(a *store.Account) error {
		t.normalize(a)
		if !a.Registered {
			a.Registered = true
			now := t.now().UTC()
			a.JoinDate = &now
		}
		return nil
	})
}

func (t *Tracker) IsRegistered(id string) bool {
	acc, ok := t.accounts.Get(id)
	return ok && acc.Registered
}

// CanScan reports whether the user may start a scan right now. Denials
// come back with a user-facing reason; vip accounts are never limited.
func (t *Tracker) CanScan(id string) (bool, string, error) {
	allowed := false
	reason := ""
	_, err := t.accounts.Update(id, func(a *store.Account) error {
		t.normalize(a)
		if a.Plan == store.PlanVIP {
			allowed = true
			return nil
		}
		now := t.now().UTC()
		if a.FileCount >= t.limit {
			wait := t.window - now.Sub(a.LastReset)
			if wait < 0 {
				wait = 0
			}
			hours := int(wait / time.Hour)
			minutes := int((wait % time.Hour) / time.Minute)
			reason = fmt.Sprintf(
				"You have used all %d scan attempts. Please wait %d hours %d minutes to reset or upgrade to VIP!",
				t.limit, hours, minutes,
			)
			return nil
		}
		allowed = true
		return nil
	})
	if err != nil {
		return false, "", err
	}
	return allowed, reason, nil
}

// RecordScan consumes n units of the allowance after a batch completes.
func (t *Tracker) RecordScan(id string, n int) error {
	if n <= 0 {
		return nil
	}
	acc, err := t.accounts.Update(id, func(a *store.Account) error {
		t.normalize(a)
		a.FileCount += n
		return nil
	})
	if err != nil {
		return err
	}
	t.logger.Debug("Scan recorded",
		zap.String("user_id", id),
		zap.Int("files", n),
		zap.Int("used", acc.FileCount),
	)
	return nil
}

// GrantVIP upgrades the account for the given number of days. Stacking a
// grant on an active vip extends from the current expiry, not from now.
func (t *Tracker) GrantVIP(id string, days int) error {
	if days < 1 {
		days = 1
	}
	now := t.now().UTC()
	acc, err := t.accounts.Update(id, func(a *store.Account) error {
		t.normalize(a)
		base := now
		if a.Plan == store.PlanVIP && a.VIPExpiry != nil && a.VIPExpiry.After(now) {
			base = *a.VIPExpiry
		} else {
			a.VIPStart = &now
		}
		expiry := base.Add(time.Duration(days) * 24 * time.Hour)
		a.Plan = store.PlanVIP
		a.VIPExpiry = &expiry
		return nil
	})
	if err != nil {
		return err
	}
	t.logger.Info("VIP granted",
		zap.String("user_id", id),
		zap.Int("days", days),
		zap.Timep("expires", acc.VIPExpiry),
	)
	return nil
}

// RevokeVIP drops the account back to normal immediately.
func (t *Tracker) RevokeVIP(id string) error {
	_, err := t.accounts.Update(id, func(a *store.Account) error {
		t.downgrade(a)
		return nil
	})
	if err != nil {
		return err
	}
	t.logger.Info("VIP revoked", zap.String("user_id", id))
	return nil
}

// normalize applies the lazy state transitions: the admin account is
// pinned to vip with no expiry, an expired vip falls back to normal with
// fresh counters, and an exhausted window resets the allowance.
func (t *Tracker) normalize(a *store.Account) {
	now := t.now().UTC()

	if a.ID == t.adminID {
		a.Plan = store.PlanVIP
		a.VIPExpiry = nil
		return
	}

	if a.Plan == store.PlanVIP && a.VIPExpiry != nil && now.After(*a.VIPExpiry) {
		t.downgrade(a)
	}
	if a.Plan != store.PlanVIP {
		if a.LastReset.IsZero() {
			a.LastReset = now
		} else if now.Sub(a.LastReset) >= t.window {
			a.FileCount = 0
			a.LastReset = now
		}
	}
}

func (t *Tracker) downgrade(a *store.Account) {
	a.Plan = store.PlanNormal
	a.VIPExpiry = nil
	a.VIPStart = nil
	a.FileCount = 0
	a.LastReset = t.now().UTC()
}
