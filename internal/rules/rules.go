// Package rules renders reroute verdicts as proxy routing rules of the form
// "<verb>,<domain>,<target>".
package rules

import (
	"fmt"
	"strings"
	"time"

	"github.com/angeloszaimis/region-probe/internal/probe"
)

// DefaultVerb matches the domain and every subdomain of it.
const DefaultVerb = "DOMAIN-SUFFIX"

// Line formats a single rule.
func Line(verb, domain, target string) string {
	return verb + "," + domain + "," + target
}

// Lines returns one rule per rerouted domain, in report order.
func Lines(report *probe.BatchReport, verb, target string) []string {
	out := make([]string, 0, len(report.Rerouted))
	for _, v := range report.Rerouted {
		out = append(out, Line(verb, v.Domain, target))
	}
	return out
}

// Render produces a rule set document: a commented header, then for each
// rerouted domain a comment with the primary egress block reason followed by
// its rule line.
func Render(report *probe.BatchReport, verb, target string, generatedAt time.Time) string {
	var b strings.Builder

	fmt.Fprintf(&b, "# Region-restricted domains\n")
	fmt.Fprintf(&b, "# Generated: %s\n", generatedAt.Format(time.RFC3339))
	fmt.Fprintf(&b, "# Domains: %d\n", len(report.Rerouted))
	fmt.Fprintf(&b, "# Blocked through the primary egress, reachable through %s\n", target)
	b.WriteString("\n")

	for _, v := range report.Rerouted {
		reason := v.Reason()
		if reason == "" {
			reason = "blocked through primary egress"
		}
		fmt.Fprintf(&b, "# %s\n", reason)
		b.WriteString(Line(verb, v.Domain, target))
		b.WriteString("\n")
	}

	return b.String()
}
