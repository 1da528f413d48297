package probe

import (
	"fmt"
	"regexp"
	"strings"
)

// Extractor pulls best-effort plan/account metadata out of a page body.
// Extraction heuristics track live markup and are expected to rot; a miss
// reports false, never an error.
type Extractor interface {
	Extract(body string) (string, bool)
}

type ExtractorFunc func(body string) (string, bool)

func (f ExtractorFunc) Extract(body string) (string, bool) {
	return f(body)
}

// safeExtract runs an extractor with a recovery net. A miss yields
// "Plan: Unknown"; a panic yields an error-tagged plan string. Extraction
// failures never reach the probe verdict.
func safeExtract(ex Extractor, body string) (info string) {
	defer func() {
		if r := recover(); r != nil {
			info = fmt.Sprintf("Plan: Error when checking - %v", r)
		}
	}()
	if s, ok := ex.Extract(body); ok {
		return s
	}
	return "Plan: Unknown"
}

var (
	netflixPlanPatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?is)<h3[^>]*data-uia="account-membership-page\+plan-card\+title"[^>]*>([^<]+)</h3>`),
		regexp.MustCompile(`(?is)<h3[^>]*class="[^"]*"[^>]*>([^<]+)</h3>`),
		regexp.MustCompile(`(?is)<div[^>]*class="[^"]*default-ltr-cache-1rvukw7[^"]*"[^>]*>.*?<h3[^>]*>([^<]+)</h3>`),
		regexp.MustCompile(`(?is)<div[^>]*class="[^"]*e1devdx33[^"]*"[^>]*>.*?<h3[^>]*>([^<]+)</h3>`),
	}
	anyDigit = regexp.MustCompile(`\d`)
)

// NetflixPlan finds the membership plan name on the account page. Pricing
// rows also match the loose h3 pattern, so names carrying digits are
// rejected.
func NetflixPlan(body string) (string, bool) {
	for _, re := range netflixPlanPatterns {
		m := re.FindStringSubmatch(body)
		if m == nil {
			continue
		}
		name := strings.TrimSpace(m[1])
		if name != "" && len(name) < 50 && !anyDigit.MatchString(name) {
			return "Plan: " + name, true
		}
	}
	return "", false
}

var (
	canvaPlanPatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?i)Canva\s+Pro`),
		regexp.MustCompile(`(?i)Canva\s+Teams?`),
		regexp.MustCompile(`(?i)Canva\s+Business`),
		regexp.MustCompile(`(?i)Canva\s+Enterprise`),
		regexp.MustCompile(`(?i)Canva\s+Gratis`),
		regexp.MustCompile(`(?i)Canva\s+Free`),
	}
	genericPlanPatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?i)Plan:\s*([A-Za-z0-9 \-()]+)`),
		regexp.MustCompile(`(?i)Subscription:\s*([A-Za-z0-9 \-()]+)`),
	}
)

// CanvaPlan matches the known tier names, then falls back to generic
// "Plan:"/"Subscription:" labels.
func CanvaPlan(body string) (string, bool) {
	for _, re := range canvaPlanPatterns {
		if m := re.FindString(body); m != "" {
			return "Plan: " + m, true
		}
	}
	for _, re := range genericPlanPatterns {
		if m := re.FindStringSubmatch(body); m != nil {
			return "Plan: " + strings.TrimSpace(m[1]), true
		}
	}
	return "", false
}

var capcutFlagPattern = regexp.MustCompile(`subscribe_info["\\\s]*:["\\\s]*\{["\\\s]*flag["\\\s]*:["\\\s]*(true|false)`)

// CapCutTier reads the subscription flag embedded in the inline page data.
func CapCutTier(body string) (string, bool) {
	m := capcutFlagPattern.FindStringSubmatch(body)
	if m == nil {
		return "", false
	}
	if m[1] == "true" {
		return "Pro", true
	}
	return "Free", true
}

var (
	tiktokUniqueID = regexp.MustCompile(`"uniqueId":"([^"]+)"`)
	tiktokHeading  = regexp.MustCompile(`<h1[^>]*>([^<]+)</h1>`)
)

// TikTokUsername digs the account handle out of the settings page.
func TikTokUsername(body string) (string, bool) {
	if m := tiktokUniqueID.FindStringSubmatch(body); m != nil {
		return m[1], true
	}
	if m := tiktokHeading.FindStringSubmatch(body); m != nil {
		name := strings.TrimSpace(m[1])
		if name != "" && len(name) < 50 {
			return name, true
		}
	}
	return "", false
}

// TikTokStatus renders the handle as a status label when the settings
// page exposes one.
func TikTokStatus(body string) (string, bool) {
	name, ok := TikTokUsername(body)
	if !ok {
		return "", false
	}
	return "Status: LIVE (" + name + ")", true
}

var (
	publicPlanPattern   = regexp.MustCompile(`Plan:\s*([A-Za-z0-9 \-()]+)`)
	publicStatusPattern = regexp.MustCompile(`Status:\s*([A-Za-z0-9 \-()]+)`)
)

// PublicPlanInfo redacts raw plan info down to the portion safe to show an
// end user. Anything that matches neither label is dropped entirely.
func PublicPlanInfo(planInfo string) string {
	if planInfo == "" {
		return ""
	}
	if m := publicPlanPattern.FindStringSubmatch(planInfo); m != nil {
		return "Plan: " + strings.TrimSpace(m[1])
	}
	if m := publicStatusPattern.FindStringSubmatch(planInfo); m != nil {
		return "Status: " + strings.TrimSpace(m[1])
	}
	return ""
}
