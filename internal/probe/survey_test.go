package probe_test

import (
	"context"
	"io"
	"log/slog"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/angeloszaimis/region-probe/internal/egress"
	"github.com/angeloszaimis/region-probe/internal/probe"
	"github.com/angeloszaimis/region-probe/internal/reachability"
)

var _ = Describe("Survey", func() {
	var (
		tr    *scriptedTransport
		coord *probe.Coordinator
	)

	BeforeEach(func() {
		tr = newScriptedTransport()
		coord = probe.New(tr, reachability.New(reachability.DefaultKeywords, 500),
			probe.Config{Primary: us, Secondary: japan, Timeout: time.Second},
			probe.WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))))
	})

	It("should probe every egress even when the first is accessible", func() {
		res, err := coord.Survey(context.Background(), "foo.bar", []egress.Egress{us, japan, egress.Direct})
		Expect(err).NotTo(HaveOccurred())

		Expect(res.Attempts).To(HaveLen(3))
		Expect(tr.callsTo(us)).To(Equal(1))
		Expect(tr.callsTo(japan)).To(Equal(1))
		Expect(tr.callsTo(egress.Direct)).To(Equal(1))
		Expect(res.Compared).To(BeTrue())
		Expect(res.NeedsReroute).To(BeFalse())
	})

	It("should derive the reroute verdict from the configured egresses", func() {
		tr.on("foo.bar", us, status(403))

		res, err := coord.Survey(context.Background(), "foo.bar", []egress.Egress{egress.Direct, japan, us})
		Expect(err).NotTo(HaveOccurred())
		Expect(res.Compared).To(BeTrue())
		Expect(res.NeedsReroute).To(BeTrue())

		a, ok := res.Attempt(us)
		Expect(ok).To(BeTrue())
		Expect(a.Classification.Reason).To(Equal("HTTP 403"))
	})

	It("should not compare when an egress of the pair is missing", func() {
		tr.on("foo.bar", us, status(403))

		res, err := coord.Survey(context.Background(), "foo.bar", []egress.Egress{us, egress.Direct})
		Expect(err).NotTo(HaveOccurred())
		Expect(res.Compared).To(BeFalse())
		Expect(res.NeedsReroute).To(BeFalse())
	})

	It("should pause between egresses on the injected clock", func() {
		clk := newSteppingClock()
		c := probe.New(withLatency(tr, clk, 300*time.Millisecond), reachability.New(reachability.DefaultKeywords, 500),
			probe.Config{Primary: us, Secondary: japan, Timeout: time.Second, SurveyInterval: time.Second},
			probe.WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))), probe.WithClock(clk))
		start := clk.Now()

		res, err := c.Survey(context.Background(), "foo.bar", []egress.Egress{us, japan, egress.Direct})
		Expect(err).NotTo(HaveOccurred())

		Expect(clk.slept()).To(Equal([]time.Duration{time.Second, time.Second}))
		Expect(clk.Since(start)).To(Equal(2*time.Second + 3*300*time.Millisecond))
		for _, a := range res.Attempts {
			Expect(a.Outcome.Elapsed).To(Equal(300 * time.Millisecond))
		}
	})

	It("should probe duplicate egresses once", func() {
		_, err := coord.Survey(context.Background(), "foo.bar", []egress.Egress{us, us, ""})
		Expect(err).NotTo(HaveOccurred())
		Expect(tr.callsTo(us)).To(Equal(1))
	})

	It("should reject an empty egress list", func() {
		_, err := coord.Survey(context.Background(), "foo.bar", nil)
		Expect(err).To(MatchError(probe.ErrNoEgress))
	})

	It("should surface a panicking transport as an error", func() {
		tr.on("foo.bar", japan, reply{panic: true})
		_, err := coord.Survey(context.Background(), "foo.bar", []egress.Egress{us, japan})
		Expect(err).To(MatchError(ContainSubstring("panic")))
	})
})
