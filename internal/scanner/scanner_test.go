package scanner

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"go.uber.org/zap"

	"github.com/lunhatthanh83-boop/bottele/internal/config"
	"github.com/lunhatthanh83-boop/bottele/internal/probe"
)

func cookieLine(domain, name, value string) string {
	return domain + "\tTRUE\t/\tTRUE\t1799999999\t" + name + "\t" + value + "\n"
}

func newTestScanner(targets map[string]config.TargetConfig) *Scanner {
	reg := probe.NewRegistry(targets, config.ScannerConfig{})
	return New(reg, 3, zap.NewNop(), nil)
}

func TestScanSingleTargetSuccess(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("Account overview for you"))
	}))
	defer srv.Close()

	s := newTestScanner(map[string]config.TargetConfig{
		"netflix": {Name: "Netflix", ProbeURL: srv.URL, Contains: "Account", Domains: []string{".netflix.com", "netflix.com"}},
	})

	content := cookieLine(".netflix.com", "NetflixId", "abc") + "malformed line without tabs\n"
	report, err := s.Scan(context.Background(), []Payload{{Name: "cookies.txt", Content: []byte(content)}}, "netflix")
	if err != nil {
		t.Fatalf("Scan error: %v", err)
	}

	res := report.Files["cookies.txt"]["netflix"]
	if res == nil {
		t.Fatalf("missing result, report: %+v", report)
	}
	if res.Status != probe.StatusSuccess {
		t.Fatalf("expected success, got %s (%s)", res.Status, res.Message)
	}
	if res.CookieCount != 1 {
		t.Fatalf("expected cookie count 1, got %d", res.CookieCount)
	}
	if report.Processed != 1 {
		t.Fatalf("expected 1 processed file, got %d", report.Processed)
	}
	if len(report.Live["netflix"]) != 1 {
		t.Fatalf("expected live entry, got %+v", report.Live)
	}
	if string(report.Live["netflix"][0].Content) != content {
		t.Fatalf("live entry must carry original container bytes")
	}
}

func TestScanRedirectToLogin(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/login", http.StatusFound)
	})
	mux.HandleFunc("/login", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("sign in"))
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	s := newTestScanner(map[string]config.TargetConfig{
		"netflix": {Name: "Netflix", ProbeURL: srv.URL, Contains: "Account", Domains: []string{".netflix.com"}},
	})

	report, err := s.Scan(context.Background(), []Payload{
		{Name: "c.txt", Content: []byte(cookieLine(".netflix.com", "NetflixId", "x"))},
	}, "netflix")
	if err != nil {
		t.Fatalf("Scan error: %v", err)
	}
	res := report.Files["c.txt"]["netflix"]
	if res.Status != probe.StatusDead {
		t.Fatalf("expected dead, got %s", res.Status)
	}
	if res.Message != "Cookie DEAD - Redirect to login" {
		t.Fatalf("unexpected message: %q", res.Message)
	}
}

func TestScanAllCompletesDespiteFaults(t *testing.T) {
	live := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("Welcome marker"))
	}))
	defer live.Close()
	broken := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	broken.Close() // connection refused, transport fault

	s := newTestScanner(map[string]config.TargetConfig{
		"alpha": {Name: "Alpha", ProbeURL: live.URL, Contains: "marker", Domains: []string{".alpha.com"}},
		"beta":  {Name: "Beta", ProbeURL: broken.URL, Contains: "marker", Domains: []string{".beta.com"}},
	})

	both := cookieLine(".alpha.com", "a", "1") + cookieLine(".beta.com", "b", "2")
	alphaOnly := cookieLine(".alpha.com", "a", "1")
	payloads := []Payload{
		{Name: "one.txt", Content: []byte(both)},
		{Name: "two.txt", Content: []byte(both)},
		{Name: "three.txt", Content: []byte(alphaOnly)},
	}

	report, err := s.Scan(context.Background(), payloads, TargetAll)
	if err != nil {
		t.Fatalf("Scan error: %v", err)
	}

	if len(report.Files) != 3 {
		t.Fatalf("expected 3 top-level entries, got %d", len(report.Files))
	}
	for _, name := range []string{"one.txt", "two.txt"} {
		byTarget := report.Files[name]
		if len(byTarget) != 2 {
			t.Fatalf("%s: expected results for both targets, got %d", name, len(byTarget))
		}
		if byTarget["alpha"].Status != probe.StatusSuccess {
			t.Fatalf("%s alpha: got %s", name, byTarget["alpha"].Status)
		}
		if byTarget["beta"].Status != probe.StatusError {
			t.Fatalf("%s beta: fault must surface as error entry, got %s", name, byTarget["beta"].Status)
		}
	}
	// three.txt has no beta cookies, so beta is skipped, not errored.
	if len(report.Files["three.txt"]) != 1 {
		t.Fatalf("three.txt: expected only alpha, got %+v", report.Files["three.txt"])
	}
	if got := len(report.Live["alpha"]); got != 3 {
		t.Fatalf("expected 3 live alpha entries, got %d", got)
	}
	if report.Processed != 3 {
		t.Fatalf("expected 3 processed, got %d", report.Processed)
	}
}

func TestScanEmptyContainer(t *testing.T) {
	s := newTestScanner(map[string]config.TargetConfig{
		"netflix": {Name: "Netflix", ProbeURL: "http://127.0.0.1:0", Contains: "Account", Domains: []string{".netflix.com"}},
	})

	report, err := s.Scan(context.Background(), []Payload{
		{Name: "empty.txt", Content: []byte("# just a comment\n")},
	}, "netflix")
	if err != nil {
		t.Fatalf("Scan error: %v", err)
	}
	if report.FileErrors["empty.txt"] != "No valid cookies found in file" {
		t.Fatalf("unexpected file errors: %+v", report.FileErrors)
	}
	if report.Processed != 0 {
		t.Fatalf("empty container must not count as processed")
	}
}

func TestScanNoMatchingCookies(t *testing.T) {
	s := newTestScanner(map[string]config.TargetConfig{
		"netflix": {Name: "Netflix", ProbeURL: "http://127.0.0.1:0", Contains: "Account", Domains: []string{".netflix.com"}},
	})

	report, err := s.Scan(context.Background(), []Payload{
		{Name: "spotify.txt", Content: []byte(cookieLine(".spotify.com", "sp_dc", "tok"))},
	}, "netflix")
	if err != nil {
		t.Fatalf("Scan error: %v", err)
	}
	res := report.Files["spotify.txt"]["netflix"]
	if res == nil {
		t.Fatalf("expected a no-cookies result, got %+v", report.Files)
	}
	if res.Status != probe.StatusNoCookies {
		t.Fatalf("expected no_cookies, got %s", res.Status)
	}
	if res.Message != "No suitable cookies found for Netflix" {
		t.Fatalf("unexpected message: %q", res.Message)
	}
	if report.Processed != 0 {
		t.Fatalf("unmatched container must not count as processed")
	}
}

func TestScanAllNoMatchingCookies(t *testing.T) {
	s := newTestScanner(map[string]config.TargetConfig{
		"netflix": {Name: "Netflix", ProbeURL: "http://127.0.0.1:0", Contains: "Account", Domains: []string{".netflix.com"}},
	})

	report, err := s.Scan(context.Background(), []Payload{
		{Name: "other.txt", Content: []byte(cookieLine(".example.com", "sid", "tok"))},
	}, TargetAll)
	if err != nil {
		t.Fatalf("Scan error: %v", err)
	}
	if report.FileErrors["other.txt"] != "No target cookies found in file" {
		t.Fatalf("unexpected file errors: %+v", report.FileErrors)
	}
	if len(report.Files) != 0 {
		t.Fatalf("expected no probe results, got %+v", report.Files)
	}
	if report.Processed != 0 {
		t.Fatalf("unmatched container must not count as processed")
	}
}

func TestScanUnknownTarget(t *testing.T) {
	s := newTestScanner(map[string]config.TargetConfig{})
	if _, err := s.Scan(context.Background(), nil, "whatever"); err == nil {
		t.Fatalf("expected error for unknown target")
	}
}
