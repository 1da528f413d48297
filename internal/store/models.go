package store

import "time"

type Plan string

const (
	PlanNormal Plan = "normal"
	PlanVIP    Plan = "vip"
)

// Account is one bot user record. Mutated only through the quota tracker
// and license manager, never reached into directly.
type Account struct {
	ID         string     `json:"id"`
	Registered bool       `json:"registered"`
	Plan       Plan       `json:"plan"`
	FileCount  int        `json:"file_count"`
	LastReset  time.Time  `json:"last_reset"`
	VIPExpiry  *time.Time `json:"vip_expiry,omitempty"`
	VIPStart   *time.Time `json:"vip_start,omitempty"`
	JoinDate   *time.Time `json:"join_date,omitempty"`
}

// Activation records one user redeeming a slot on a license key.
type Activation struct {
	UserID      string    `json:"user_id"`
	Username    string    `json:"username"`
	FirstName   string    `json:"first_name"`
	ActivatedAt time.Time `json:"activated_at"`
}

// LicenseKey is a time-boxed multi-activation access token. The record is
// retained after it expires or fills up, until explicitly removed.
type LicenseKey struct {
	Key             string       `json:"key"`
	Duration        string       `json:"duration"`
	DurationSeconds int64        `json:"duration_seconds"`
	MaxUsers        int          `json:"max_users"`
	CreatedBy       string       `json:"created_by"`
	CreatedAt       time.Time    `json:"created_at"`
	ExpiresAt       time.Time    `json:"expires_at"`
	ActivatedBy     []Activation `json:"activated_by"`
}

func (k *LicenseKey) Remaining() int {
	return k.MaxUsers - len(k.ActivatedBy)
}

func (k *LicenseKey) IsFull() bool {
	return len(k.ActivatedBy) >= k.MaxUsers
}

func (k *LicenseKey) IsExpired(now time.Time) bool {
	return now.After(k.ExpiresAt)
}

func (k *LicenseKey) ActivatedByUser(userID string) bool {
	for _, a := range k.ActivatedBy {
		if a.UserID == userID {
			return true
		}
	}
	return false
}

// DailyStats is the process-wide scan counter, reset whenever the stored
// date differs from the current one.
type DailyStats struct {
	Date  string `json:"date"`
	Scans int    `json:"scans"`
}
