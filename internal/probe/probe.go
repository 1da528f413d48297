// Package probe validates cookie sets against the configured targets and
// classifies the outcome of each attempt.
package probe

import (
	"context"
	"sort"
	"time"

	"github.com/lunhatthanh83-boop/bottele/internal/config"
	"github.com/lunhatthanh83-boop/bottele/internal/cookie"
)

type Status string

const (
	StatusSuccess   Status = "success"
	StatusDead      Status = "dead"
	StatusUnknown   Status = "unknown"
	StatusError     Status = "error"
	StatusNoCookies Status = "no_cookies"
)

// Result is the verdict of one probe. StatusCode is 0 when no HTTP response
// was observed.
type Result struct {
	Status      Status `json:"status"`
	Message     string `json:"message"`
	FinalURL    string `json:"final_url,omitempty"`
	StatusCode  int    `json:"status_code,omitempty"`
	PlanInfo    string `json:"plan_info,omitempty"`
	CookieCount int    `json:"cookie_count,omitempty"`
}

// Target describes one entry of the scan catalog. Immutable after startup.
type Target struct {
	ID            string
	Name          string
	ProbeURL      string
	SuccessMarker string
	Domains       []string
}

// Prober is the single capability every target strategy implements. A
// prober must return exactly one result and never panic past its boundary;
// transport faults come back as StatusError results.
type Prober interface {
	Probe(ctx context.Context, cookies []cookie.Cookie) *Result
}

// Registry maps target ids to their probing strategy. Targets without a
// dedicated strategy fall back to the generic marker-match prober.
type Registry struct {
	targets map[string]*Target
	probers map[string]Prober
	ids     []string
}

func NewRegistry(targets map[string]config.TargetConfig, scanner config.ScannerConfig) *Registry {
	opts := clientOptions{
		timeout:      scanner.ProbeTimeout,
		maxRedirects: scanner.MaxRedirects,
	}
	if opts.timeout <= 0 {
		opts.timeout = 20 * time.Second
	}
	if opts.maxRedirects <= 0 {
		opts.maxRedirects = 10
	}

	r := &Registry{
		targets: make(map[string]*Target, len(targets)),
		probers: make(map[string]Prober, len(targets)),
	}
	for id, tc := range targets {
		t := &Target{
			ID:            id,
			Name:          tc.Name,
			ProbeURL:      tc.ProbeURL,
			SuccessMarker: tc.Contains,
			Domains:       tc.Domains,
		}
		r.targets[id] = t
		r.probers[id] = buildProber(id, t, opts)
		r.ids = append(r.ids, id)
	}
	sort.Strings(r.ids)
	return r
}

// IDs returns the catalog ids in stable order.
func (r *Registry) IDs() []string {
	return r.ids
}

func (r *Registry) Target(id string) (*Target, bool) {
	t, ok := r.targets[id]
	return t, ok
}

func (r *Registry) Prober(id string) (Prober, bool) {
	p, ok := r.probers[id]
	return p, ok
}

// DisplayName resolves a target id to its human name, falling back to the
// id itself for unknown targets.
func (r *Registry) DisplayName(id string) string {
	if t, ok := r.targets[id]; ok && t.Name != "" {
		return t.Name
	}
	return id
}

// buildProber selects the per-target strategy. Sites signal "authenticated"
// differently, so several targets carry a dedicated prober; the rest use
// the generic marker match.
func buildProber(id string, t *Target, opts clientOptions) Prober {
	switch id {
	case "netflix":
		return &GenericProber{target: t, opts: opts, extractor: ExtractorFunc(NetflixPlan)}
	case "tiktok":
		return &GenericProber{target: t, opts: opts, extractor: ExtractorFunc(TikTokStatus)}
	case "roblox":
		return &robloxProber{target: t, opts: opts}
	case "facebook":
		return &facebookProber{target: t, opts: opts}
	case "instagram":
		return &instagramProber{target: t, opts: opts}
	case "youtube", "linkedin", "amazon":
		return &redirectProber{target: t, opts: opts}
	case "wordpress":
		return &wordpressProber{target: t, opts: opts}
	case "canva":
		return &canvaProber{target: t, opts: opts}
	case "capcut":
		return &capcutProber{target: t, opts: opts}
	case "paypal":
		return &paypalProber{target: t, opts: opts}
	default:
		return &GenericProber{target: t, opts: opts}
	}
}
