package rules_test

import (
	"strings"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/angeloszaimis/region-probe/internal/probe"
	"github.com/angeloszaimis/region-probe/internal/reachability"
	"github.com/angeloszaimis/region-probe/internal/rules"
)

func rerouted(domain, reason string) probe.Verdict {
	return probe.Verdict{
		Domain:       domain,
		Primary:      &probe.Attempt{Classification: reachability.Classification{Blocked: true, Reason: reason}},
		NeedsReroute: true,
	}
}

var _ = Describe("Rules", func() {
	var report *probe.BatchReport

	BeforeEach(func() {
		now := time.Now()
		report = probe.NewBatchReport("id", now, now, []probe.Verdict{
			rerouted("foo.bar", "HTTP 403"),
			{Domain: "ok.com", Primary: &probe.Attempt{Accessible: true}},
			rerouted("binance.com", ""),
		})
	})

	It("should format a single rule", func() {
		Expect(rules.Line(rules.DefaultVerb, "foo.bar", "Japan")).To(Equal("DOMAIN-SUFFIX,foo.bar,Japan"))
	})

	It("should emit one line per rerouted domain", func() {
		Expect(rules.Lines(report, rules.DefaultVerb, "Japan")).To(Equal([]string{
			"DOMAIN-SUFFIX,foo.bar,Japan",
			"DOMAIN-SUFFIX,binance.com,Japan",
		}))
	})

	It("should render a commented rule set", func() {
		at := time.Date(2026, 10, 17, 12, 0, 0, 0, time.UTC)
		doc := rules.Render(report, "DOMAIN", "JP", at)

		Expect(doc).To(HavePrefix("# Region-restricted domains\n"))
		Expect(doc).To(ContainSubstring("# Generated: 2026-10-17T12:00:00Z\n"))
		Expect(doc).To(ContainSubstring("# Domains: 2\n"))
		Expect(doc).To(ContainSubstring("# HTTP 403\nDOMAIN,foo.bar,JP\n"))
		Expect(doc).To(ContainSubstring("# blocked through primary egress\nDOMAIN,binance.com,JP\n"))
		Expect(doc).NotTo(ContainSubstring("ok.com"))
	})

	It("should render only the header for an empty report", func() {
		now := time.Now()
		empty := probe.NewBatchReport("id", now, now, nil)
		doc := rules.Render(empty, rules.DefaultVerb, "Japan", now)
		Expect(strings.Count(doc, "DOMAIN-SUFFIX")).To(BeZero())
		Expect(doc).To(ContainSubstring("# Domains: 0\n"))
	})
})
