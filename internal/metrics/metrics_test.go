package metrics_test

import (
	"bytes"
	"encoding/json"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/angeloszaimis/region-probe/internal/metrics"
)

var _ = Describe("Metrics", func() {
	var m *metrics.Metrics

	BeforeEach(func() {
		m = metrics.NewMetrics()
	})

	Describe("RecordProbe", func() {
		It("should count probes, failures and blocks per egress", func() {
			m.RecordProbe("US", 100*time.Millisecond, 403, false, true)
			m.RecordProbe("US", 0, 0, true, true)
			m.RecordProbe("Japan", 50*time.Millisecond, 200, false, false)

			snap := m.Snapshot()
			us := snap.Egresses["US"]
			Expect(us.Probes).To(Equal(int64(2)))
			Expect(us.Failures).To(Equal(int64(1)))
			Expect(us.Blocked).To(Equal(int64(2)))
			Expect(us.StatusCodes).To(Equal(map[int]int64{403: 1}))

			jp := snap.Egresses["Japan"]
			Expect(jp.Probes).To(Equal(int64(1)))
			Expect(jp.Blocked).To(BeZero())
			Expect(jp.StatusCodes[200]).To(Equal(int64(1)))
		})

		It("should calculate percentiles", func() {
			for i := 1; i <= 100; i++ {
				m.RecordProbe("US", time.Duration(i)*time.Millisecond, 200, false, false)
			}

			us := m.Snapshot().Egresses["US"]
			Expect(us.P50Response).To(Equal(51 * time.Millisecond))
			Expect(us.P95Response).To(Equal(96 * time.Millisecond))
			Expect(us.P99Response).To(Equal(100 * time.Millisecond))
			Expect(us.AvgResponse).To(Equal(50500 * time.Microsecond))
		})

		It("should keep at most 1000 samples", func() {
			for i := 0; i < 1001; i++ {
				m.RecordProbe("US", time.Hour, 200, false, false)
			}
			m.RecordProbe("US", 0, 200, false, false)

			us := m.Snapshot().Egresses["US"]
			Expect(us.Probes).To(Equal(int64(1002)))
			Expect(us.P50Response).To(Equal(time.Hour))
		})
	})

	Describe("batch progress", func() {
		It("should track completion and verdict counts", func() {
			m.StartBatch("b1", 4)
			m.UpdateProgress(1, 4)
			m.RecordVerdict("reroute")
			m.RecordVerdict("reachable")
			m.RecordVerdict("reachable")

			snap := m.Snapshot()
			Expect(snap.BatchID).To(Equal("b1"))
			Expect(snap.Progress).To(BeNumerically("~", 0.25))
			Expect(snap.Finished).To(BeFalse())
			Expect(snap.Verdicts).To(Equal(map[string]int64{"reroute": 1, "reachable": 2}))

			m.FinishBatch()
			snap = m.Snapshot()
			Expect(snap.Finished).To(BeTrue())
			Expect(snap.Completed).To(Equal(4))
			Expect(snap.Progress).To(BeNumerically("~", 1.0))
		})

		It("should reset verdicts when a new batch starts", func() {
			m.StartBatch("b1", 1)
			m.RecordVerdict("failed")
			m.StartBatch("b2", 2)

			snap := m.Snapshot()
			Expect(snap.BatchID).To(Equal("b2"))
			Expect(snap.Verdicts).To(BeEmpty())
			Expect(snap.Completed).To(BeZero())
		})
	})

	Describe("Snapshot", func() {
		It("should handle empty metrics", func() {
			snap := m.Snapshot()
			Expect(snap.Egresses).To(BeEmpty())
			Expect(snap.Progress).To(BeZero())
		})

		It("should return an independent copy", func() {
			m.RecordProbe("US", time.Millisecond, 200, false, false)
			snap := m.Snapshot()
			snap.Egresses["US"].StatusCodes[200] = 99

			Expect(m.Snapshot().Egresses["US"].StatusCodes[200]).To(Equal(int64(1)))
		})

		It("should encode as JSON", func() {
			m.RecordProbe("US", time.Millisecond, 200, false, false)

			var buf bytes.Buffer
			Expect(m.Snapshot().WriteJSON(&buf)).To(Succeed())

			var decoded map[string]any
			Expect(json.Unmarshal(buf.Bytes(), &decoded)).To(Succeed())
			Expect(decoded).To(HaveKey("egresses"))
		})
	})
})
