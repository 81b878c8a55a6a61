package registry

import (
	"strings"

	"github.com/RomRMX/mothership/internal/config"
)

// containsFold reports whether s contains substr, case-insensitively.
func containsFold(s, substr string) bool {
	return strings.Contains(strings.ToLower(s), strings.ToLower(substr))
}

// matchesAny reports whether the name contains any of the keywords,
// case-insensitively.
func matchesAny(name string, keywords []string) bool {
	for _, k := range keywords {
		if containsFold(name, k) {
			return true
		}
	}
	return false
}

// correctName applies the name-normalization rule: a known model keyword
// without the expected group prefix gets the prefix prepended.
func correctName(s *config.Settings, name string) string {
	if s.GroupPrefix == "" {
		return name
	}
	if matchesAny(name, s.ModelKeywords) && !containsFold(name, s.GroupPrefix) {
		return s.GroupPrefix + " " + name
	}
	return name
}

// admitFound runs the stateless half of the filtering pipeline over a
// found-event: name validation, IP validation, name correction, deny-list,
// allow-list. Returns the corrected display name and whether the event
// qualifies. Deduplication against existing devices happens in the
// manager, which owns that state.
func admitFound(s *config.Settings, name, ip string) (string, bool) {
	// Generic or empty names carry no identity
	if name == "" || name == "Unknown Device" {
		return "", false
	}

	// Unresolvable or placeholder addresses
	trimmedIP := strings.TrimSpace(ip)
	if trimmedIP == "" || trimmedIP == "unknown" || trimmedIP == "0.0.0.0" {
		return "", false
	}

	displayName := correctName(s, name)

	// Deny-list: exact or substring, case-insensitive
	normalized := strings.ToLower(strings.TrimSpace(displayName))
	for _, denied := range s.DenyList {
		d := strings.ToLower(strings.TrimSpace(denied))
		if d == "" {
			continue
		}
		if normalized == d || strings.Contains(normalized, d) {
			return "", false
		}
	}

	// Allow-list: empty means allow all, otherwise substring match required
	if len(s.AllowList) > 0 && !matchesAny(displayName, s.AllowList) {
		return "", false
	}

	return displayName, true
}

// isIPv4 treats any address without a colon as IPv4 for the purpose of the
// IPv4-preference tie-break.
func isIPv4(ip string) bool {
	return !strings.Contains(ip, ":")
}
