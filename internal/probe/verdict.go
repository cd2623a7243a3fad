package probe

import (
	"github.com/angeloszaimis/region-probe/internal/egress"
	"github.com/angeloszaimis/region-probe/internal/reachability"
)

// Status is the report partition a verdict belongs to.
type Status string

const (
	StatusReroute    Status = "reroute"
	StatusReachable  Status = "reachable"
	StatusUnresolved Status = "blocked_no_alternate"
	StatusFailed     Status = "failed"
)

// Attempt is one classified probe through one egress.
type Attempt struct {
	Egress         egress.Egress
	Outcome        reachability.Outcome
	Classification reachability.Classification
	Accessible     bool
}

// Verdict is the per-domain result. Secondary is nil when the primary
// attempt was accessible or when probing stopped before it. Err records the
// transport failure or panic that ended the domain; NeedsReroute is always
// false when it is set.
type Verdict struct {
	Domain       string
	Primary      *Attempt
	Secondary    *Attempt
	NeedsReroute bool
	Err          error
}

// Blocked reports whether the domain is unreachable through the primary egress.
func (v Verdict) Blocked() bool {
	return v.Primary == nil || !v.Primary.Accessible
}

// Status places the verdict in a report partition.
func (v Verdict) Status() Status {
	switch {
	case v.Err != nil:
		return StatusFailed
	case v.NeedsReroute:
		return StatusReroute
	case !v.Blocked():
		return StatusReachable
	default:
		return StatusUnresolved
	}
}

// Reason is the primary egress block reason, if any.
func (v Verdict) Reason() string {
	if v.Primary == nil {
		return ""
	}
	return v.Primary.Classification.Reason
}
