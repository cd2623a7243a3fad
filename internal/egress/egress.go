package egress

import (
	"errors"
	"fmt"
	"net/url"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"
)

// Direct is the default name of the no-proxy egress.
const Direct Egress = "DIRECT"

var (
	ErrUnsupportedScheme = errors.New("unsupported proxy scheme")
	ErrDuplicateEgress   = errors.New("duplicate egress")
)

// Egress identifies a network path. Only equality is meaningful.
type Egress string

func (e Egress) String() string {
	return string(e)
}

// Node is a named proxy egress.
type Node struct {
	name  Egress
	proxy *url.URL
}

// Name returns the egress name.
func (n *Node) Name() Egress {
	return n.name
}

// ProxyURL returns the proxy that carries this egress, or nil for direct.
func (n *Node) ProxyURL() *url.URL {
	return n.proxy
}

// IsDirect reports whether the node bypasses any proxy.
func (n *Node) IsDirect() bool {
	return n.proxy == nil
}

// Registry resolves egress names to nodes. It is built once and read-only
// afterwards.
type Registry struct {
	direct Egress
	nodes  map[Egress]*Node
	order  []Egress
}

// NewRegistry creates a registry whose direct sentinel is named direct.
// An empty name falls back to Direct.
func NewRegistry(direct Egress) *Registry {
	if direct == "" {
		direct = Direct
	}
	r := &Registry{
		direct: direct,
		nodes:  make(map[Egress]*Node),
	}
	r.nodes[direct] = &Node{name: direct}
	r.order = append(r.order, direct)
	return r
}

// Add registers a proxy egress. The raw URL must use http, https, socks5
// or socks5h and carry a host.
func (r *Registry) Add(name Egress, rawURL string) error {
	if name == "" {
		return fmt.Errorf("egress name cannot be empty")
	}
	if _, exists := r.nodes[name]; exists {
		return fmt.Errorf("%w: %s", ErrDuplicateEgress, name)
	}

	u, err := ParseProxyURL(rawURL)
	if err != nil {
		return fmt.Errorf("egress %s: %w", name, err)
	}

	r.nodes[name] = &Node{name: name, proxy: u}
	r.order = append(r.order, name)
	return nil
}

// Lookup returns the node registered under name.
func (r *Registry) Lookup(name Egress) (*Node, bool) {
	n, ok := r.nodes[name]
	return n, ok
}

// DirectName returns the name of the direct sentinel.
func (r *Registry) DirectName() Egress {
	return r.direct
}

// Names returns every registered egress in registration order, direct first.
func (r *Registry) Names() []Egress {
	out := make([]Egress, len(r.order))
	copy(out, r.order)
	return out
}

// ParseProxyURL validates a proxy URL.
func ParseProxyURL(raw string) (*url.URL, error) {
	if strings.TrimSpace(raw) == "" {
		return nil, validation.NewError("validation_empty_url", "proxy URL cannot be empty")
	}

	u, err := url.Parse(raw)
	if err != nil {
		return nil, validation.NewError("validation_invalid_url", "must be a valid URL")
	}

	switch strings.ToLower(u.Scheme) {
	case "http", "https", "socks5", "socks5h":
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedScheme, u.Scheme)
	}

	host := u.Hostname()
	if host == "" {
		return nil, validation.NewError("validation_missing_host", "URL must have a host")
	}
	if err := is.Host.Validate(host); err != nil {
		return nil, validation.NewError("validation_invalid_host", "invalid host")
	}

	return u, nil
}
