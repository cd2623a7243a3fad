// Package config handles loading and validation of configuration from YAML
// files and environment variables. It defines the egress names and proxy
// nodes, probe timing, classification thresholds, domain sources and rule
// output, and converts them into the values the probe packages consume.
package config
