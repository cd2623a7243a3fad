// Package egress names the network paths a probe can take. An egress is an
// opaque name; the Registry maps names to the proxy that carries traffic for
// them, or to no proxy at all for the direct-connection sentinel.
package egress
