// Package domain turns raw candidate hostnames and URLs into the normalized
// domain list that gets probed. It strips schemes, paths, ports and leading
// "www." labels, drops excluded and invalid entries, and deduplicates while
// preserving first-seen order.
package domain
