package mailcheck

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"go.uber.org/zap"
)

func TestParseLine(t *testing.T) {
	cases := []struct {
		line  string
		email string
		pass  string
		ok    bool
	}{
		{"user@example.com:secret", "user@example.com", "secret", true},
		{"  user@example.com : secret  ", "user@example.com", "secret", true},
		{"user@example.com:pa:ss:word", "user@example.com", "pa:ss:word", true},
		{"no-at-sign:secret", "", "", false},
		{"user@example.com", "", "", false},
		{"user@example.com:", "", "", false},
		{":secret", "", "", false},
		{"", "", "", false},
	}
	for _, tc := range cases {
		cred, ok := ParseLine(tc.line)
		if ok != tc.ok {
			t.Errorf("ParseLine(%q) ok = %v, want %v", tc.line, ok, tc.ok)
			continue
		}
		if ok && (cred.Email != tc.email || cred.Password != tc.pass) {
			t.Errorf("ParseLine(%q) = %q/%q, want %q/%q", tc.line, cred.Email, cred.Password, tc.email, tc.pass)
		}
	}
}

func TestParseListKeepsRawLines(t *testing.T) {
	content := "a@b.com:one\n\ngarbage line\nc@d.com:two\n"
	creds := ParseList(content)
	if len(creds) != 2 {
		t.Fatalf("expected 2 credentials, got %d", len(creds))
	}
	if creds[0].Raw != "a@b.com:one" || creds[1].Raw != "c@d.com:two" {
		t.Fatalf("raw lines lost: %+v", creds)
	}
}

func newTestChecker(url string, retries int) *Checker {
	c := NewChecker(url, retries, zap.NewNop(), nil)
	c.sleep = func(time.Duration) {}
	return c
}

func TestCheckLiveVerdict(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.FormValue("email") != "a@b.com" {
			t.Errorf("email not forwarded: %q", r.FormValue("email"))
		}
		w.Write([]byte("HIT premium account"))
	}))
	defer srv.Close()

	c := newTestChecker(srv.URL, 3)
	cred, _ := ParseLine("a@b.com:pw")
	if got := c.Check(context.Background(), cred); got != VerdictLive {
		t.Fatalf("expected live, got %s", got)
	}
}

func TestCheckDefinitiveBadStopsRetries(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.Write([]byte("BAD credentials"))
	}))
	defer srv.Close()

	c := newTestChecker(srv.URL, 3)
	cred, _ := ParseLine("a@b.com:pw")
	if got := c.Check(context.Background(), cred); got != VerdictDie {
		t.Fatalf("expected die, got %s", got)
	}
	if calls != 1 {
		t.Fatalf("definitive verdict must not retry, got %d calls", calls)
	}
}

func TestCheckRetriesTransientThenSucceeds(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		if calls < 3 {
			w.Write([]byte("Request Error"))
			return
		}
		w.Write([]byte("FREE account"))
	}))
	defer srv.Close()

	c := newTestChecker(srv.URL, 3)
	cred, _ := ParseLine("a@b.com:pw")
	if got := c.Check(context.Background(), cred); got != VerdictLive {
		t.Fatalf("expected live after retries, got %s", got)
	}
	if calls != 3 {
		t.Fatalf("expected 3 calls, got %d", calls)
	}
}

func TestCheckExhaustedRetriesIsDie(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close() // transport fault on every attempt

	c := newTestChecker(srv.URL, 2)
	cred, _ := ParseLine("a@b.com:pw")
	if got := c.Check(context.Background(), cred); got != VerdictDie {
		t.Fatalf("expected die on exhausted retries, got %s", got)
	}
}

func TestCheckEmptyCredential(t *testing.T) {
	c := newTestChecker("http://127.0.0.1:0", 3)
	if got := c.Check(context.Background(), Credential{}); got != VerdictDie {
		t.Fatalf("expected die for empty credential, got %s", got)
	}
}
