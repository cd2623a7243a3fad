package probe

import (
	"net/http"
	"time"

	"github.com/angeloszaimis/region-probe/internal/egress"
)

const (
	DefaultTimeout        = 10 * time.Second
	DefaultInterval       = 2 * time.Second
	DefaultSurveyInterval = time.Second
	DefaultProgressEvery  = 10
)

// Mobile Safari request headers sent with every probe so that all egresses
// receive the same content negotiation.
const (
	DefaultUserAgent      = "Mozilla/5.0 (iPhone; CPU iPhone OS 16_0 like Mac OS X) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/16.0 Mobile/15E148 Safari/604.1"
	DefaultAccept         = "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8"
	DefaultAcceptLanguage = "en-US,en;q=0.9"
)

// Config is the immutable coordinator configuration.
type Config struct {
	Primary   egress.Egress
	Secondary egress.Egress

	// Timeout is the hard upper bound for a single attempt.
	Timeout time.Duration
	// Interval is the pause after every domain of a batch except the last.
	Interval time.Duration
	// SurveyInterval is the pause between egresses in Survey.
	SurveyInterval time.Duration
	// ProgressEvery emits a progress event after every N completed domains.
	ProgressEvery int
}

func (c Config) withDefaults() Config {
	if c.Timeout <= 0 {
		c.Timeout = DefaultTimeout
	}
	if c.Interval < 0 {
		c.Interval = 0
	}
	if c.SurveyInterval < 0 {
		c.SurveyInterval = 0
	}
	if c.ProgressEvery <= 0 {
		c.ProgressEvery = DefaultProgressEvery
	}
	return c
}

// DefaultHeader returns a fresh copy of the probe request headers.
func DefaultHeader() http.Header {
	h := http.Header{}
	h.Set("User-Agent", DefaultUserAgent)
	h.Set("Accept", DefaultAccept)
	h.Set("Accept-Language", DefaultAcceptLanguage)
	return h
}
