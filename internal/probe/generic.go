package probe

import (
	"context"
	"strings"

	"github.com/lunhatthanh83-boop/bottele/internal/cookie"
)

// GenericProber is the default strategy: attach the cookies, follow
// redirects to the probe URL, and look for the success marker in a 200
// response. A redirect landing on a login flow outranks a bare dead
// verdict.
type GenericProber struct {
	target    *Target
	opts      clientOptions
	extractor Extractor
}

func (g *GenericProber) Probe(ctx context.Context, cookies []cookie.Cookie) *Result {
	client := newSession(cookies, g.opts, true)
	pg, err := fetch(ctx, client, g.target.ProbeURL, nil)
	if err != nil {
		return errorResult("cookies", err)
	}
	return g.classify(pg)
}

func (g *GenericProber) classify(pg *page) *Result {
	if pg.StatusCode == 200 && containsFold(pg.Body, g.target.SuccessMarker) {
		r := &Result{
			Status:     StatusSuccess,
			Message:    "Cookie LIVE",
			FinalURL:   pg.FinalURL,
			StatusCode: pg.StatusCode,
		}
		if g.extractor != nil {
			r.PlanInfo = safeExtract(g.extractor, pg.Body)
		}
		return r
	}
	if isLoginURL(pg.FinalURL) {
		return &Result{
			Status:     StatusDead,
			Message:    "Cookie DEAD - Redirect to login",
			FinalURL:   pg.FinalURL,
			StatusCode: pg.StatusCode,
			PlanInfo:   "Status: DEAD",
		}
	}
	return &Result{
		Status:     StatusDead,
		Message:    "Cookie DEAD or no access to target",
		FinalURL:   pg.FinalURL,
		StatusCode: pg.StatusCode,
		PlanInfo:   "Status: DEAD",
	}
}

func containsFold(haystack, needle string) bool {
	return strings.Contains(strings.ToLower(haystack), strings.ToLower(needle))
}

func isLoginURL(rawURL string) bool {
	lower := strings.ToLower(rawURL)
	return strings.Contains(lower, "login") || strings.Contains(lower, "signin")
}
