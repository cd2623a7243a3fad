// Package probe drives reachability probes for domains through a primary and
// a secondary egress and derives a per-domain reroute verdict.
//
// A domain is first requested through the primary egress. If that attempt is
// accessible the domain needs no reroute and the secondary egress is never
// contacted. Otherwise the same request goes through the secondary egress and
// the domain needs a reroute exactly when the secondary attempt is
// accessible. Domains that stay blocked through both egresses are reported
// separately from reachable ones.
//
// Batches are probed strictly one domain at a time, in input order, with a
// fixed delay after every domain except the last.
package probe
