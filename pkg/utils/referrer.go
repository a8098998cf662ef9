package utils

import (
	"net/url"
	"strings"

	"golang.org/x/net/publicsuffix"
)

// NormalizeReferrer reduces a raw Referer header to its registrable domain
// for grouping ("www.google.com/search?q=x" -> "google.com"). An empty or
// unparseable referrer is labeled "Direct".
func NormalizeReferrer(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "Direct"
	}

	if !strings.Contains(raw, "://") {
		raw = "https://" + raw
	}

	u, err := url.Parse(raw)
	if err != nil || u.Hostname() == "" {
		return "Direct"
	}

	host := strings.ToLower(u.Hostname())
	if domain, err := publicsuffix.EffectiveTLDPlusOne(host); err == nil {
		return domain
	}
	// IPs, localhost and bare hostnames have no registrable domain.
	return host
}
