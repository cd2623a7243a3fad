package transport

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/angeloszaimis/region-probe/internal/egress"
)

var ErrUnknownEgress = errors.New("unknown egress")

// Request describes one probe attempt.
type Request struct {
	URL     string
	Method  string
	Header  http.Header
	Timeout time.Duration
	Egress  egress.Egress
}

// Response is what came back from the target.
type Response struct {
	StatusCode int
	Header     http.Header
	Body       []byte
}

// Transport sends a request through the egress it names. An error means no
// response was obtained.
type Transport interface {
	Send(ctx context.Context, req Request) (Response, error)
}

// Func adapts a plain function to Transport.
type Func func(ctx context.Context, req Request) (Response, error)

func (f Func) Send(ctx context.Context, req Request) (Response, error) {
	return f(ctx, req)
}

// IsTimeout reports whether err was caused by a deadline.
func IsTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var ne net.Error
	return errors.As(err, &ne) && ne.Timeout()
}
