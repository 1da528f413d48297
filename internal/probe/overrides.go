package probe

import (
	"context"
	"fmt"
	"strings"

	"github.com/lunhatthanh83-boop/bottele/internal/cookie"
)

// robloxProber follows redirects but judges success by the final path: a
// logged-in session stays on the localized home page.
type robloxProber struct {
	target *Target
	opts   clientOptions
}

func (p *robloxProber) Probe(ctx context.Context, cookies []cookie.Cookie) *Result {
	client := newSession(cookies, p.opts, true)
	pg, err := fetch(ctx, client, p.target.ProbeURL, map[string]string{
		"Referer": "https://www.roblox.com/",
	})
	if err != nil {
		return errorResult("Roblox login", err)
	}

	switch {
	case pg.StatusCode == 200:
		if strings.Contains(pg.FinalURL, "/vi/home") {
			return &Result{Status: StatusSuccess, Message: "Cookie LIVE - Logged into Roblox home page", FinalURL: pg.FinalURL, StatusCode: pg.StatusCode}
		}
		return &Result{Status: StatusDead, Message: "Cookie DEAD - Unexpected redirect", FinalURL: pg.FinalURL, StatusCode: pg.StatusCode}
	case isRedirectStatus(pg.StatusCode):
		if strings.Contains(strings.ToLower(pg.FinalURL), "login") {
			return &Result{Status: StatusDead, Message: "Cookie DEAD - Redirected to login page", FinalURL: pg.FinalURL, StatusCode: pg.StatusCode}
		}
		return &Result{Status: StatusUnknown, Message: fmt.Sprintf("Unexpected redirect (Status: %d)", pg.StatusCode), FinalURL: pg.FinalURL, StatusCode: pg.StatusCode}
	default:
		return &Result{Status: StatusDead, Message: fmt.Sprintf("Cookie DEAD - HTTP %d", pg.StatusCode), FinalURL: pg.FinalURL, StatusCode: pg.StatusCode}
	}
}

// facebookProber treats the checkpoint interstitial as a soft-dead cookie
// before looking at the settings page itself.
type facebookProber struct {
	target *Target
	opts   clientOptions
}

func (p *facebookProber) Probe(ctx context.Context, cookies []cookie.Cookie) *Result {
	client := newSession(cookies, p.opts, true)
	pg, err := fetch(ctx, client, p.target.ProbeURL, map[string]string{
		"Referer": "https://www.facebook.com/",
	})
	if err != nil {
		return errorResult("Facebook", err)
	}

	if containsFold(pg.FinalURL, "checkpoint") || containsFold(pg.Body, "checkpoint") {
		return &Result{Status: StatusDead, Message: "Cookie DEAD - Checkpoint", FinalURL: pg.FinalURL, StatusCode: pg.StatusCode}
	}
	if pg.StatusCode == 200 {
		if containsFold(pg.FinalURL, "settings") || containsFold(pg.Body, "account settings") {
			return &Result{Status: StatusSuccess, Message: "Cookie LIVE", FinalURL: pg.FinalURL, StatusCode: pg.StatusCode}
		}
		return &Result{Status: StatusDead, Message: "Cookie DEAD", FinalURL: pg.FinalURL, StatusCode: pg.StatusCode}
	}
	return &Result{Status: StatusDead, Message: fmt.Sprintf("Cookie DEAD - HTTP %d", pg.StatusCode), FinalURL: pg.FinalURL, StatusCode: pg.StatusCode}
}

// instagramProber requires the exact account-edit path to survive the
// redirect chain.
type instagramProber struct {
	target *Target
	opts   clientOptions
}

func (p *instagramProber) Probe(ctx context.Context, cookies []cookie.Cookie) *Result {
	client := newSession(cookies, p.opts, true)
	pg, err := fetch(ctx, client, p.target.ProbeURL, map[string]string{
		"Referer": "https://www.instagram.com/",
	})
	if err != nil {
		return errorResult("Instagram", err)
	}

	if pg.StatusCode == 200 {
		if strings.Contains(pg.FinalURL, "/accounts/edit/") {
			return &Result{Status: StatusSuccess, Message: "Cookie LIVE", FinalURL: pg.FinalURL, StatusCode: pg.StatusCode, PlanInfo: "Status: LIVE"}
		}
		return &Result{Status: StatusDead, Message: "Cookie DEAD", FinalURL: pg.FinalURL, StatusCode: pg.StatusCode, PlanInfo: "Status: DEAD"}
	}
	return &Result{Status: StatusDead, Message: fmt.Sprintf("Cookie DEAD - HTTP %d", pg.StatusCode), FinalURL: pg.FinalURL, StatusCode: pg.StatusCode, PlanInfo: "Status: DEAD"}
}

// redirectProber inspects the first response without following redirects:
// any 3xx off an authenticated-only URL means the session is gone. Used
// for YouTube, LinkedIn and Amazon, which all signal this way.
type redirectProber struct {
	target *Target
	opts   clientOptions
}

func (p *redirectProber) Probe(ctx context.Context, cookies []cookie.Cookie) *Result {
	client := newSession(cookies, p.opts, false)
	pg, err := fetch(ctx, client, p.target.ProbeURL, map[string]string{
		"Accept": "text/html,application/xhtml+xml,application/xml;q=0.9,image/webp,*/*;q=0.8",
	})
	if err != nil {
		return errorResult(p.target.Name+" login", err)
	}

	switch {
	case isRedirectStatus(pg.StatusCode):
		return &Result{Status: StatusDead, Message: "Cookie DEAD", FinalURL: pg.FinalURL, StatusCode: pg.StatusCode}
	case pg.StatusCode == 200:
		return &Result{Status: StatusSuccess, Message: "Cookie LIVE", FinalURL: pg.FinalURL, StatusCode: pg.StatusCode}
	default:
		return &Result{Status: StatusUnknown, Message: "Unexpected response", FinalURL: pg.FinalURL, StatusCode: pg.StatusCode}
	}
}

type wordpressProber struct {
	target *Target
	opts   clientOptions
}

func (p *wordpressProber) Probe(ctx context.Context, cookies []cookie.Cookie) *Result {
	client := newSession(cookies, p.opts, true)
	pg, err := fetch(ctx, client, p.target.ProbeURL, map[string]string{
		"Accept": "text/html,application/xhtml+xml,application/xml;q=0.9,image/webp,*/*;q=0.8",
	})
	if err != nil {
		return errorResult("WordPress login", err)
	}

	switch {
	case pg.StatusCode == 200 && (strings.Contains(pg.FinalURL, "/me/") || strings.Contains(pg.Body, "Your Profile")):
		return &Result{
			Status:     StatusSuccess,
			Message:    "Cookie LIVE - Access to WordPress profile page",
			FinalURL:   pg.FinalURL,
			StatusCode: pg.StatusCode,
			PlanInfo:   "Status: LIVE - WordPress user profile accessible",
		}
	case isRedirectStatus(pg.StatusCode):
		if containsFold(pg.FinalURL, "log-in") || containsFold(pg.FinalURL, "wp-login.php") {
			return &Result{
				Status:     StatusDead,
				Message:    "Cookie DEAD - Redirected to login page",
				FinalURL:   pg.FinalURL,
				StatusCode: pg.StatusCode,
				PlanInfo:   "Status: DEAD - Redirected to WordPress login",
			}
		}
		return &Result{Status: StatusUnknown, Message: fmt.Sprintf("Unexpected redirect (Status: %d)", pg.StatusCode), FinalURL: pg.FinalURL, StatusCode: pg.StatusCode}
	default:
		return &Result{
			Status:     StatusDead,
			Message:    fmt.Sprintf("Cookie DEAD or no access to WordPress profile (Status: %d)", pg.StatusCode),
			FinalURL:   pg.FinalURL,
			StatusCode: pg.StatusCode,
			PlanInfo:   "Status: DEAD - WordPress profile not accessible",
		}
	}
}

type canvaProber struct {
	target *Target
	opts   clientOptions
}

func (p *canvaProber) Probe(ctx context.Context, cookies []cookie.Cookie) *Result {
	client := newSession(cookies, p.opts, true)
	pg, err := fetch(ctx, client, p.target.ProbeURL, map[string]string{
		"Accept": "text/html,application/xhtml+xml,application/xml;q=0.9,image/webp,*/*;q=0.8",
	})
	if err != nil {
		return errorResult("Canva login", err)
	}

	switch {
	case pg.StatusCode == 200 && containsFold(pg.FinalURL, "settings"):
		return &Result{
			Status:     StatusSuccess,
			Message:    "Cookie LIVE",
			FinalURL:   pg.FinalURL,
			StatusCode: pg.StatusCode,
			PlanInfo:   safeExtract(ExtractorFunc(CanvaPlan), pg.Body),
		}
	case isRedirectStatus(pg.StatusCode):
		if isLoginURL(pg.FinalURL) {
			return &Result{Status: StatusDead, Message: "Cookie DEAD - Redirected to login", FinalURL: pg.FinalURL, StatusCode: pg.StatusCode, PlanInfo: "Status: DEAD"}
		}
		return &Result{Status: StatusUnknown, Message: "Unexpected redirect", FinalURL: pg.FinalURL, StatusCode: pg.StatusCode}
	default:
		return &Result{Status: StatusDead, Message: fmt.Sprintf("Cookie DEAD - HTTP %d", pg.StatusCode), FinalURL: pg.FinalURL, StatusCode: pg.StatusCode, PlanInfo: "Status: DEAD"}
	}
}

// capcutProber labels the subscription tier from a boolean flag embedded in
// the inline page data before deciding liveness.
type capcutProber struct {
	target *Target
	opts   clientOptions
}

func (p *capcutProber) Probe(ctx context.Context, cookies []cookie.Cookie) *Result {
	client := newSession(cookies, p.opts, true)
	pg, err := fetch(ctx, client, p.target.ProbeURL, map[string]string{
		"Accept": "text/html,application/xhtml+xml,application/xml;q=0.9,image/webp,*/*;q=0.8",
	})
	if err != nil {
		return errorResult("CapCut login", err)
	}

	// A bounce back to the bare landing page means the session was rejected.
	if pg.FinalURL == "https://www.capcut.com" || pg.FinalURL == "https://www.capcut.com/" {
		return &Result{Status: StatusDead, Message: "Cookie DEAD", FinalURL: pg.FinalURL, StatusCode: pg.StatusCode}
	}

	plan := "Unknown"
	if tier, ok := CapCutTier(pg.Body); ok {
		plan = tier
	}

	if pg.StatusCode == 200 && (strings.Contains(pg.FinalURL, "my-edit") || strings.Contains(pg.Body, "/my-edit")) {
		return &Result{Status: StatusSuccess, Message: "Cookie LIVE", FinalURL: pg.FinalURL, StatusCode: pg.StatusCode, PlanInfo: "Plan: " + plan}
	}
	return &Result{Status: StatusUnknown, Message: "Unexpected response", FinalURL: pg.FinalURL, StatusCode: pg.StatusCode}
}

type paypalProber struct {
	target *Target
	opts   clientOptions
}

func (p *paypalProber) Probe(ctx context.Context, cookies []cookie.Cookie) *Result {
	client := newSession(cookies, p.opts, true)
	pg, err := fetch(ctx, client, p.target.ProbeURL, map[string]string{
		"Referer":                   "https://www.paypal.com/",
		"Accept":                    "text/html,application/xhtml+xml,application/xml;q=0.9,image/webp,*/*;q=0.8",
		"Upgrade-Insecure-Requests": "1",
	})
	if err != nil {
		return errorResult("PayPal login", err)
	}

	if containsFold(pg.FinalURL, "/signin") {
		return &Result{Status: StatusDead, Message: "Cookie DEAD - Redirected to signin page", FinalURL: pg.FinalURL, StatusCode: pg.StatusCode, PlanInfo: "Status: DEAD"}
	}
	if pg.StatusCode == 200 && containsFold(pg.FinalURL, "/myaccount/profile") {
		return &Result{Status: StatusSuccess, Message: "Cookie LIVE", FinalURL: pg.FinalURL, StatusCode: pg.StatusCode, PlanInfo: "Status: LIVE"}
	}
	return &Result{Status: StatusUnknown, Message: fmt.Sprintf("Unexpected response (Status: %d)", pg.StatusCode), FinalURL: pg.FinalURL, StatusCode: pg.StatusCode}
}
