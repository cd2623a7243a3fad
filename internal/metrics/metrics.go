package metrics

import (
	"encoding/json"
	"io"
	"sort"
	"sync"
	"time"
)

const maxSamples = 1000

type Metrics struct {
	mutex         sync.RWMutex
	probes        map[string]int64
	failures      map[string]int64
	blocked       map[string]int64
	responseTimes map[string][]time.Duration
	statusCodes   map[string]map[int]int64
	verdicts      map[string]int64
	batchID       string
	total         int
	completed     int
	finished      bool
	startTime     time.Time
}

type Snapshot struct {
	BatchID   string                   `json:"batch_id"`
	Total     int                      `json:"total"`
	Completed int                      `json:"completed"`
	Progress  float64                  `json:"progress"`
	Finished  bool                     `json:"finished"`
	Verdicts  map[string]int64         `json:"verdicts"`
	Uptime    time.Duration            `json:"uptime"`
	Egresses  map[string]EgressMetrics `json:"egresses"`
}

type EgressMetrics struct {
	Probes      int64         `json:"probes"`
	Failures    int64         `json:"failures"`
	Blocked     int64         `json:"blocked"`
	AvgResponse time.Duration `json:"avg_response"`
	P50Response time.Duration `json:"p50_response"`
	P95Response time.Duration `json:"p95_response"`
	P99Response time.Duration `json:"p99_response"`
	StatusCodes map[int]int64 `json:"status_codes"`
}

func NewMetrics() *Metrics {
	return &Metrics{
		probes:        make(map[string]int64),
		failures:      make(map[string]int64),
		blocked:       make(map[string]int64),
		responseTimes: make(map[string][]time.Duration),
		statusCodes:   make(map[string]map[int]int64),
		verdicts:      make(map[string]int64),
		startTime:     time.Now(),
	}
}

func (m *Metrics) StartBatch(id string, total int) {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	m.batchID = id
	m.total = total
	m.completed = 0
	m.finished = false
	m.verdicts = make(map[string]int64)
}

func (m *Metrics) RecordProbe(egress string, duration time.Duration, statusCode int, failed, blocked bool) {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	m.probes[egress]++
	if blocked {
		m.blocked[egress]++
	}

	m.responseTimes[egress] = append(m.responseTimes[egress], duration)
	if len(m.responseTimes[egress]) > maxSamples {
		m.responseTimes[egress] = m.responseTimes[egress][1:]
	}

	if failed {
		m.failures[egress]++
		return
	}

	if m.statusCodes[egress] == nil {
		m.statusCodes[egress] = make(map[int]int64)
	}
	m.statusCodes[egress][statusCode]++
}

func (m *Metrics) RecordVerdict(status string) {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	m.verdicts[status]++
}

func (m *Metrics) UpdateProgress(completed, total int) {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	m.completed = completed
	if total > 0 {
		m.total = total
	}
}

func (m *Metrics) FinishBatch() {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	m.finished = true
	m.completed = m.total
}

func (m *Metrics) Snapshot() Snapshot {
	m.mutex.RLock()
	defer m.mutex.RUnlock()

	snap := Snapshot{
		BatchID:   m.batchID,
		Total:     m.total,
		Completed: m.completed,
		Finished:  m.finished,
		Verdicts:  make(map[string]int64, len(m.verdicts)),
		Uptime:    time.Since(m.startTime),
		Egresses:  make(map[string]EgressMetrics),
	}
	if m.total > 0 {
		snap.Progress = float64(m.completed) / float64(m.total)
	}
	for k, v := range m.verdicts {
		snap.Verdicts[k] = v
	}

	for egress, n := range m.probes {
		em := EgressMetrics{
			Probes:      n,
			Failures:    m.failures[egress],
			Blocked:     m.blocked[egress],
			StatusCodes: make(map[int]int64, len(m.statusCodes[egress])),
		}
		for code, count := range m.statusCodes[egress] {
			em.StatusCodes[code] = count
		}

		durations := m.responseTimes[egress]
		if len(durations) > 0 {
			sorted := make([]time.Duration, len(durations))
			copy(sorted, durations)
			sort.Slice(sorted, func(i, j int) bool {
				return sorted[i] < sorted[j]
			})

			em.AvgResponse = average(sorted)
			em.P50Response = percentile(sorted, 0.50)
			em.P95Response = percentile(sorted, 0.95)
			em.P99Response = percentile(sorted, 0.99)
		}

		snap.Egresses[egress] = em
	}

	return snap
}

// WriteJSON encodes the snapshot as indented JSON.
func (s Snapshot) WriteJSON(w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(s)
}

func average(durations []time.Duration) time.Duration {
	if len(durations) == 0 {
		return 0
	}

	var sum time.Duration
	for _, d := range durations {
		sum += d
	}

	return sum / time.Duration(len(durations))
}

func percentile(sorted []time.Duration, p float64) time.Duration {
	if len(sorted) == 0 {
		return 0
	}

	index := int(float64(len(sorted)) * p)
	if index >= len(sorted) {
		index = len(sorted) - 1
	}

	return sorted[index]
}
