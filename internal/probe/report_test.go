package probe_test

import (
	"errors"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/angeloszaimis/region-probe/internal/probe"
	"github.com/angeloszaimis/region-probe/internal/reachability"
)

var _ = Describe("Verdict", func() {
	accessible := &probe.Attempt{Egress: us, Accessible: true}
	blocked := &probe.Attempt{
		Egress:         us,
		Classification: reachability.Classification{Blocked: true, Reason: "HTTP 403"},
	}

	DescribeTable("Status",
		func(v probe.Verdict, want probe.Status) {
			Expect(v.Status()).To(Equal(want))
		},
		Entry("recorded error wins over reroute",
			probe.Verdict{Primary: blocked, NeedsReroute: true, Err: errors.New("x")}, probe.StatusFailed),
		Entry("error without reroute",
			probe.Verdict{Primary: blocked, Err: errors.New("x")}, probe.StatusFailed),
		Entry("accessible primary",
			probe.Verdict{Primary: accessible}, probe.StatusReachable),
		Entry("blocked without alternate",
			probe.Verdict{Primary: blocked, Secondary: blocked}, probe.StatusUnresolved),
		Entry("no attempt at all",
			probe.Verdict{}, probe.StatusUnresolved),
	)

	It("should expose the primary reason", func() {
		Expect(probe.Verdict{Primary: blocked}.Reason()).To(Equal("HTTP 403"))
		Expect(probe.Verdict{}.Reason()).To(BeEmpty())
	})
})

var _ = Describe("BatchReport", func() {
	It("should partition verdicts and keep input order", func() {
		start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
		verdicts := []probe.Verdict{
			{Domain: "a.com", Primary: &probe.Attempt{Accessible: true}},
			{Domain: "b.com", Primary: &probe.Attempt{}, NeedsReroute: true},
			{Domain: "c.com", Primary: &probe.Attempt{}},
			{Domain: "d.com", Err: errors.New("boom")},
		}

		r := probe.NewBatchReport("id", start, start.Add(3*time.Second), verdicts)

		Expect(r.Verdicts).To(Equal(verdicts))
		Expect(r.Reachable[0].Domain).To(Equal("a.com"))
		Expect(r.Rerouted[0].Domain).To(Equal("b.com"))
		Expect(r.Unresolved[0].Domain).To(Equal("c.com"))
		Expect(r.Failed[0].Domain).To(Equal("d.com"))
		Expect(r.Counts()).To(Equal(probe.Counts{Total: 4, Rerouted: 1, Reachable: 1, Unresolved: 1, Failed: 1}))
		Expect(r.Duration()).To(Equal(3 * time.Second))
	})
})
