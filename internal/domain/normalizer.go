package domain

import (
	"errors"
	"fmt"
	"net"
	"strings"
	"unicode/utf8"

	"golang.org/x/net/idna"
)

// ErrInvalidDomain is returned when a raw entry cannot be turned into a hostname.
var ErrInvalidDomain = errors.New("invalid domain")

// Normalize converts a hostname or URL as a user would paste it into a
// lowercase hostname with no scheme, userinfo, path, port or trailing dot,
// and with leading "www." labels removed. Normalize never panics and
// Normalize(Normalize(x)) == Normalize(x).
func Normalize(raw string) (string, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return "", fmt.Errorf("%w: empty input", ErrInvalidDomain)
	}

	if i := strings.Index(s, "://"); i != -1 {
		s = s[i+3:]
	}

	// Path, query and fragment all end the authority.
	if end := strings.IndexAny(s, "/?#"); end != -1 {
		s = s[:end]
	}

	if at := strings.LastIndexByte(s, '@'); at != -1 {
		s = s[at+1:]
	}

	host, err := stripPort(s)
	if err != nil {
		return "", err
	}

	host = strings.TrimRight(host, ".")
	if host == "" {
		return "", fmt.Errorf("%w: empty host in %q", ErrInvalidDomain, raw)
	}

	if !isASCII(host) {
		ascii, err := idna.Lookup.ToASCII(host)
		if err != nil {
			return "", fmt.Errorf("%w: idna: %v", ErrInvalidDomain, err)
		}
		host = ascii
	}
	host = strings.ToLower(host)

	for strings.HasPrefix(host, "www.") && strings.Contains(host[4:], ".") {
		host = host[4:]
	}

	if err := validateHost(host); err != nil {
		return "", err
	}

	return host, nil
}

func stripPort(hostport string) (string, error) {
	if strings.HasPrefix(hostport, "[") {
		return "", fmt.Errorf("%w: ip6 literal %q", ErrInvalidDomain, hostport)
	}

	switch strings.Count(hostport, ":") {
	case 0:
		return hostport, nil
	case 1:
		host, _, err := net.SplitHostPort(hostport)
		if err != nil {
			return "", fmt.Errorf("%w: %v", ErrInvalidDomain, err)
		}
		return host, nil
	default:
		return "", fmt.Errorf("%w: ip6 literal %q", ErrInvalidDomain, hostport)
	}
}

func validateHost(host string) error {
	for _, label := range strings.Split(host, ".") {
		if label == "" {
			return fmt.Errorf("%w: empty label in %q", ErrInvalidDomain, host)
		}
		for i := 0; i < len(label); i++ {
			c := label[i]
			switch {
			case c >= 'a' && c <= 'z', c >= '0' && c <= '9', c == '-', c == '_':
			default:
				return fmt.Errorf("%w: unexpected character %q in %q", ErrInvalidDomain, c, host)
			}
		}
	}
	return nil
}

func isASCII(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] >= utf8.RuneSelf {
			return false
		}
	}
	return true
}
