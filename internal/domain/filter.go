package domain

import (
	"net"
	"strings"
)

// MinLength is the shortest hostname worth probing.
const MinLength = 4

var localSuffixes = []string{".localhost", ".local", ".localdomain", ".internal"}

// ShouldExclude reports whether a normalized domain must not be probed: it
// contains one of the excluded substrings, is an IPv4 literal, names a
// loopback or local host, or is shorter than MinLength.
func ShouldExclude(domain string, exclude []string) bool {
	for _, ex := range exclude {
		ex = strings.ToLower(strings.TrimSpace(ex))
		if ex != "" && strings.Contains(domain, ex) {
			return true
		}
	}

	if ip := net.ParseIP(domain); ip != nil && ip.To4() != nil {
		return true
	}

	if isLocal(domain) {
		return true
	}

	return len(domain) < MinLength
}

func isLocal(domain string) bool {
	if domain == "localhost" || domain == "local" {
		return true
	}
	for _, suffix := range localSuffixes {
		if strings.HasSuffix(domain, suffix) {
			return true
		}
	}
	return false
}

// Filter normalizes every raw entry, drops the ones that fail, deduplicates
// by normalized value keeping the first occurrence, and removes excluded
// domains. The result preserves input order.
func Filter(raw []string, exclude []string) []string {
	return FilterFunc(raw, exclude, nil)
}

// FilterFunc is Filter with a callback invoked for every dropped entry.
// The callback receives the raw value and the reason it was dropped.
func FilterFunc(raw []string, exclude []string, dropped func(raw string, reason error)) []string {
	filtered := make([]string, 0, len(raw))
	seen := make(map[string]struct{}, len(raw))

	for _, r := range raw {
		d, err := Normalize(r)
		if err != nil {
			if dropped != nil {
				dropped(r, err)
			}
			continue
		}

		if _, ok := seen[d]; ok {
			continue
		}
		seen[d] = struct{}{}

		if ShouldExclude(d, exclude) {
			if dropped != nil {
				dropped(r, ErrExcluded)
			}
			continue
		}

		filtered = append(filtered, d)
	}

	return filtered
}
