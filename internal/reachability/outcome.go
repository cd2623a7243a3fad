package reachability

import (
	"net/http"
	"time"
)

// Outcome is the result of one HTTP attempt against one domain through one
// egress. Exactly one of Err or StatusCode is meaningful: a non-nil Err means
// no response was obtained.
type Outcome struct {
	StatusCode int
	Body       []byte
	Elapsed    time.Duration
	Err        error
}

// Failed reports whether the attempt produced no response at all.
func (o Outcome) Failed() bool {
	return o.Err != nil
}

// Classification is the blocked/not-blocked determination for one Outcome.
type Classification struct {
	Blocked bool
	Reason  string
}

// Accessible reports whether the attempt reached the site: status 200 and
// no block signal. A 200 that carries a block signal is not accessible.
func Accessible(o Outcome, c Classification) bool {
	return !o.Failed() && o.StatusCode == http.StatusOK && !c.Blocked
}
