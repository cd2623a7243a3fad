package reachability

import (
	"bytes"
	"fmt"
	"net/http"
	"strings"
)

const (
	ReasonRequestFailed = "request failed"
	ReasonForbidden     = "HTTP 403"
	ReasonLegal         = "HTTP 451 (legal restriction)"
	ReasonSmallBody     = "response body too small"
)

// DefaultMinBodySize is the body length under which a 200 page is treated
// as a soft-block placeholder.
const DefaultMinBodySize = 500

// DefaultKeywords is the block keyword list used when none is configured.
var DefaultKeywords = []string{
	"not available",
	"restricted",
	"access denied",
	"geo-block",
	"vpn detected",
	"region",
	"country",
	"地区限制",
	"不可用",
}

type keyword struct {
	original string
	lower    []byte
}

// Classifier applies the ordered block rules. It is immutable and safe for
// concurrent use.
type Classifier struct {
	keywords    []keyword
	minBodySize int
}

// New builds a classifier from the configured keywords, kept in order.
// Blank keywords are ignored. A non-positive minBodySize falls back to
// DefaultMinBodySize.
func New(keywords []string, minBodySize int) *Classifier {
	if minBodySize <= 0 {
		minBodySize = DefaultMinBodySize
	}

	kws := make([]keyword, 0, len(keywords))
	for _, k := range keywords {
		if strings.TrimSpace(k) == "" {
			continue
		}
		kws = append(kws, keyword{original: k, lower: []byte(strings.ToLower(k))})
	}

	return &Classifier{keywords: kws, minBodySize: minBodySize}
}

// Classify derives the classification for a single outcome.
func (c *Classifier) Classify(o Outcome) Classification {
	if o.Failed() {
		return Classification{Blocked: true, Reason: ReasonRequestFailed}
	}

	switch status := o.StatusCode; {
	case status == http.StatusForbidden:
		return Classification{Blocked: true, Reason: ReasonForbidden}
	case status == http.StatusUnavailableForLegalReasons:
		return Classification{Blocked: true, Reason: ReasonLegal}
	case status >= 400 && status < 500:
		return Classification{Blocked: true, Reason: fmt.Sprintf("HTTP %d", status)}
	case status != http.StatusOK:
		return Classification{}
	}

	// Content rules only apply to a non-empty body.
	if len(o.Body) == 0 {
		return Classification{}
	}

	if kw, ok := c.matchKeyword(o.Body); ok {
		return Classification{Blocked: true, Reason: "matched keyword: " + kw}
	}

	if len(o.Body) < c.minBodySize {
		return Classification{Blocked: true, Reason: ReasonSmallBody}
	}

	return Classification{}
}

func (c *Classifier) matchKeyword(body []byte) (string, bool) {
	if len(body) == 0 || len(c.keywords) == 0 {
		return "", false
	}

	lower := bytes.ToLower(body)
	for _, kw := range c.keywords {
		if bytes.Contains(lower, kw.lower) {
			return kw.original, true
		}
	}
	return "", false
}
