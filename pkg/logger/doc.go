// Package logger builds the structured slog logger used across the probe
// tool: JSON records in production, text records otherwise, every record
// tagged with the environment.
package logger
