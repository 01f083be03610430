package normalize

import (
	"net/url"
	"strings"
)

// PositionScore maps a result's index within one provider's list onto
// the shared 0..1 relevance scale by linear position decay: (n-i)/n.
func PositionScore(total, index int) float64 {
	if total <= 0 || index < 0 || index >= total {
		return 0
	}
	return float64(total-index) / float64(total)
}

// ClampScore forces provider-native scores onto the shared 0..1 scale.
func ClampScore(score float64) float64 {
	if score < 0 {
		return 0
	}
	if score > 1 {
		return 1
	}
	return score
}

// CanonicalURL produces the deduplication key for a result URL:
// lowercase, no fragment, trailing slash ignored.
func CanonicalURL(raw string) string {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return ""
	}
	lowered := strings.ToLower(trimmed)
	if idx := strings.Index(lowered, "#"); idx >= 0 {
		lowered = lowered[:idx]
	}
	return strings.TrimRight(lowered, "/")
}

// DomainOf extracts the registrable host of a result URL, without port
// or leading www.
func DomainOf(raw string) string {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return ""
	}
	if !strings.Contains(trimmed, "://") {
		trimmed = "https://" + trimmed
	}
	parsed, err := url.Parse(trimmed)
	if err != nil || parsed.Hostname() == "" {
		return ""
	}
	host := strings.ToLower(parsed.Hostname())
	return strings.TrimPrefix(host, "www.")
}
