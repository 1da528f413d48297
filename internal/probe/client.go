package probe

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"time"

	"github.com/lunhatthanh83-boop/bottele/internal/cookie"
)

const userAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"

// Response bodies are capped; marker and pattern checks never need more.
const maxBodySize = 1024 * 1024

type clientOptions struct {
	timeout      time.Duration
	maxRedirects int
}

// page is the raw HTTP outcome handed to classification.
type page struct {
	StatusCode int
	FinalURL   string
	Body       string
}

// newSession builds a one-shot HTTP client carrying the given cookies in
// its jar. Each probe gets its own client; sessions are never shared
// between jobs.
func newSession(cookies []cookie.Cookie, opts clientOptions, followRedirects bool) *http.Client {
	jar, _ := cookiejar.New(nil)
	for _, c := range cookies {
		scope := &url.URL{Scheme: "https", Host: c.BareDomain(), Path: "/"}
		jar.SetCookies(scope, []*http.Cookie{{
			Name:   c.CappedName(),
			Value:  c.CappedValue(),
			Path:   c.Path,
			Domain: c.BareDomain(),
			Secure: c.Secure,
		}})
	}

	client := &http.Client{
		Timeout: opts.timeout,
		Jar:     jar,
	}
	if followRedirects {
		limit := opts.maxRedirects
		client.CheckRedirect = func(req *http.Request, via []*http.Request) error {
			if len(via) >= limit {
				return fmt.Errorf("stopped after %d redirects", limit)
			}
			return nil
		}
	} else {
		client.CheckRedirect = func(req *http.Request, via []*http.Request) error {
			return http.ErrUseLastResponse
		}
	}
	return client
}

// fetch issues one GET and returns the resolved page. Extra headers are
// layered over the default browser-like set.
func fetch(ctx context.Context, client *http.Client, rawURL string, headers map[string]string) (*page, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept-Language", "en-US,en;q=0.9")
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return nil, fmt.Errorf("reading response body: %w", err)
	}

	return &page{
		StatusCode: resp.StatusCode,
		FinalURL:   resp.Request.URL.String(),
		Body:       string(body),
	}, nil
}

func isRedirectStatus(code int) bool {
	switch code {
	case http.StatusMovedPermanently, http.StatusFound, http.StatusSeeOther,
		http.StatusTemporaryRedirect, http.StatusPermanentRedirect:
		return true
	}
	return false
}

// errorResult converts a transport fault into a terminal probe result. No
// fault escapes the prober boundary.
func errorResult(what string, err error) *Result {
	return &Result{
		Status:   StatusError,
		Message:  fmt.Sprintf("Error testing %s: %v", what, err),
		PlanInfo: "Status: Error",
	}
}
