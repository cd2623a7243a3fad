package transport

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"time"

	"golang.org/x/net/html/charset"
	"golang.org/x/net/proxy"

	"github.com/angeloszaimis/region-probe/internal/egress"
)

// DefaultMaxBodyBytes bounds how much of a response body is read.
const DefaultMaxBodyBytes = 1 << 20

// HTTPTransport routes every request through the http.Client built for its
// egress. Clients are created up front from the registry, so Send never
// mutates shared state.
type HTTPTransport struct {
	clients      map[egress.Egress]*http.Client
	maxBodyBytes int64
	logger       *slog.Logger
}

// NewHTTPTransport builds one client per registered egress.
func NewHTTPTransport(registry *egress.Registry, maxBodyBytes int64, logger *slog.Logger) (*HTTPTransport, error) {
	if maxBodyBytes <= 0 {
		maxBodyBytes = DefaultMaxBodyBytes
	}
	if logger == nil {
		logger = slog.Default()
	}

	t := &HTTPTransport{
		clients:      make(map[egress.Egress]*http.Client),
		maxBodyBytes: maxBodyBytes,
		logger:       logger,
	}

	for _, name := range registry.Names() {
		node, _ := registry.Lookup(name)
		rt, err := roundTripperFor(node)
		if err != nil {
			return nil, fmt.Errorf("egress %s: %w", name, err)
		}
		t.clients[name] = &http.Client{Transport: rt}
	}

	return t, nil
}

// Send issues the request and reads at most maxBodyBytes of the body,
// decoded to UTF-8 according to the response charset. The request timeout
// bounds the whole attempt, body included.
func (t *HTTPTransport) Send(ctx context.Context, r Request) (Response, error) {
	client, ok := t.clients[r.Egress]
	if !ok {
		return Response{}, fmt.Errorf("%w: %s", ErrUnknownEgress, r.Egress)
	}

	if r.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.Timeout)
		defer cancel()
	}

	method := r.Method
	if method == "" {
		method = http.MethodGet
	}

	req, err := http.NewRequestWithContext(ctx, method, r.URL, nil)
	if err != nil {
		return Response{}, err
	}
	for k, vs := range r.Header {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}

	res, err := client.Do(req)
	if err != nil {
		return Response{}, err
	}
	defer res.Body.Close()

	body, err := t.readBody(res)
	if err != nil {
		return Response{}, fmt.Errorf("read body: %w", err)
	}

	t.logger.Debug("probe response",
		slog.String("url", r.URL),
		slog.String("egress", r.Egress.String()),
		slog.Int("status", res.StatusCode),
		slog.Int("bytes", len(body)))

	return Response{
		StatusCode: res.StatusCode,
		Header:     res.Header,
		Body:       body,
	}, nil
}

func (t *HTTPTransport) readBody(res *http.Response) ([]byte, error) {
	limited := io.LimitReader(res.Body, t.maxBodyBytes)

	decoded, err := charset.NewReader(limited, res.Header.Get("Content-Type"))
	if errors.Is(err, io.EOF) {
		return []byte{}, nil
	}
	if err != nil {
		return nil, err
	}
	return io.ReadAll(decoded)
}

func roundTripperFor(node *egress.Node) (http.RoundTripper, error) {
	base := http.DefaultTransport.(*http.Transport).Clone()
	base.Proxy = nil

	if node.IsDirect() {
		return base, nil
	}

	u := node.ProxyURL()
	switch strings.ToLower(u.Scheme) {
	case "http", "https":
		base.Proxy = http.ProxyURL(u)
		return base, nil
	case "socks5", "socks5h":
		dialer, err := proxy.FromURL(u, &net.Dialer{Timeout: 30 * time.Second, KeepAlive: 30 * time.Second})
		if err != nil {
			return nil, err
		}
		cd, ok := dialer.(proxy.ContextDialer)
		if !ok {
			return nil, fmt.Errorf("socks dialer for %s does not support contexts", u.Redacted())
		}
		base.DialContext = cd.DialContext
		return base, nil
	default:
		return nil, fmt.Errorf("%w: %q", egress.ErrUnsupportedScheme, u.Scheme)
	}
}
