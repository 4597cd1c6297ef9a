package fetcher

import (
	"errors"
	"strings"
)

// ErrBlocked marks a rendered page that is a bot-challenge interstitial
// rather than a listing. It is retryable under the shared policy.
var ErrBlocked = errors.New("bot challenge detected")

// Markers that anti-automation interstitials leave in the rendered DOM.
var blockMarkers = []string{
	"captcha",
	"access denied",
	"verify you are human",
	"unusual traffic",
	"cf-browser-verification",
	"just a moment...",
}

// Blocked reports whether the rendered HTML looks like a challenge page.
// Detection is heuristic and only applied to suspiciously small documents,
// since a real listing page can legitimately mention these words.
func Blocked(html string) bool {
	if len(html) > 64*1024 {
		return false
	}
	lower := strings.ToLower(html)
	for _, marker := range blockMarkers {
		if strings.Contains(lower, marker) {
			return true
		}
	}
	return false
}
