// Package transport sends probe requests through a named egress. The
// Transport interface is the only thing the probe coordinator depends on;
// HTTPTransport implements it with one http.Client per egress, routed
// through an HTTP(S) proxy, a SOCKS5 proxy, or no proxy at all.
package transport
