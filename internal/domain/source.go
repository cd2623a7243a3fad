package domain

import (
	"errors"
	"strings"
)

// ErrExcluded marks an entry dropped by the exclusion rules.
var ErrExcluded = errors.New("domain excluded")

// Source describes where candidate domains come from before filtering.
type Source struct {
	// Manual entries, in the order the user gave them.
	Manual []string
	// Fallback is used only when Manual yields nothing and UseFallback is set.
	Fallback    []string
	UseFallback bool
	// Max caps the number of raw entries handed to Filter. Zero means no cap.
	Max int
}

// Gather merges the manual entries (deduplicated by raw value), falls back to
// the static list when nothing was supplied, and truncates to Max.
func (s Source) Gather() []string {
	out := dedupeRaw(s.Manual)
	if len(out) == 0 && s.UseFallback {
		out = dedupeRaw(s.Fallback)
	}
	if s.Max > 0 && len(out) > s.Max {
		out = out[:s.Max]
	}
	return out
}

// SplitList splits a comma separated list, trimming blanks.
func SplitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func dedupeRaw(in []string) []string {
	out := make([]string, 0, len(in))
	seen := make(map[string]struct{}, len(in))
	for _, v := range in {
		v = strings.TrimSpace(v)
		if v == "" {
			continue
		}
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}
