package probe

import "time"

// BatchReport holds every verdict of a batch, in input order, and the same
// verdicts partitioned by Status. It is built once and not modified.
type BatchReport struct {
	ID         string
	StartedAt  time.Time
	FinishedAt time.Time

	Verdicts   []Verdict
	Rerouted   []Verdict
	Reachable  []Verdict
	Unresolved []Verdict
	Failed     []Verdict
}

// Counts summarizes a report.
type Counts struct {
	Total      int
	Rerouted   int
	Reachable  int
	Unresolved int
	Failed     int
}

// NewBatchReport partitions verdicts by status.
func NewBatchReport(id string, startedAt, finishedAt time.Time, verdicts []Verdict) *BatchReport {
	r := &BatchReport{
		ID:         id,
		StartedAt:  startedAt,
		FinishedAt: finishedAt,
		Verdicts:   verdicts,
	}

	for _, v := range verdicts {
		switch v.Status() {
		case StatusReroute:
			r.Rerouted = append(r.Rerouted, v)
		case StatusReachable:
			r.Reachable = append(r.Reachable, v)
		case StatusUnresolved:
			r.Unresolved = append(r.Unresolved, v)
		case StatusFailed:
			r.Failed = append(r.Failed, v)
		}
	}

	return r
}

func (r *BatchReport) Counts() Counts {
	return Counts{
		Total:      len(r.Verdicts),
		Rerouted:   len(r.Rerouted),
		Reachable:  len(r.Reachable),
		Unresolved: len(r.Unresolved),
		Failed:     len(r.Failed),
	}
}

// Duration is the wall time the batch took.
func (r *BatchReport) Duration() time.Duration {
	return r.FinishedAt.Sub(r.StartedAt)
}
