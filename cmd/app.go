package main

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/angeloszaimis/region-probe/internal/domain"
	"github.com/angeloszaimis/region-probe/internal/metrics"
	"github.com/angeloszaimis/region-probe/internal/probe"
)

const eventBufferSize = 256

func (a *app) coordinator(events chan<- metrics.Event) (*probe.Coordinator, error) {
	pc, err := a.cfg.ProbeSettings()
	if err != nil {
		return nil, err
	}

	opts := []probe.Option{probe.WithLogger(a.log)}
	if events != nil {
		opts = append(opts, probe.WithEvents(events))
	}
	return probe.New(a.transport, a.cfg.Classifier(), pc, opts...), nil
}

// collectDomains gathers the candidate domains and runs them through the
// filter. Both an empty source and an empty filter result yield
// probe.ErrNoDomains.
func (a *app) collectDomains(manual []string) ([]string, error) {
	raw := a.cfg.DomainSource(manual).Gather()
	if len(raw) == 0 {
		return nil, probe.ErrNoDomains
	}

	domains := domain.FilterFunc(raw, a.cfg.Probe.ExcludeDomains, func(entry string, reason error) {
		if errors.Is(reason, domain.ErrExcluded) {
			a.log.Debug("Domain excluded", slog.String("domain", entry))
			return
		}
		a.log.Warn("Domain skipped", slog.String("entry", entry), slog.Any("err", reason))
	})
	if len(domains) == 0 {
		return nil, fmt.Errorf("%w: all %d entries were filtered out", probe.ErrNoDomains, len(raw))
	}

	a.log.Info("Domains collected",
		slog.Int("candidates", len(raw)),
		slog.Int("domains", len(domains)))
	return domains, nil
}

// progressListener logs the collector's progress events.
func (a *app) progressListener(e metrics.Event) {
	if e.Type != metrics.EventProgress {
		return
	}
	a.log.Info("Progress",
		slog.Int("completed", e.Index),
		slog.Int("total", e.Total))
}

func (a *app) logStatistics(snap metrics.Snapshot) {
	a.log.Info("Batch statistics",
		slog.String("batch", snap.BatchID),
		slog.Int("total", snap.Total),
		slog.Int("completed", snap.Completed),
		slog.Any("verdicts", snap.Verdicts))

	for name, em := range snap.Egresses {
		a.log.Info("Egress statistics",
			slog.String("egress", name),
			slog.Int64("probes", em.Probes),
			slog.Int64("failures", em.Failures),
			slog.Int64("blocked", em.Blocked),
			slog.Duration("avg", em.AvgResponse.Round(time.Millisecond)),
			slog.Duration("p95", em.P95Response.Round(time.Millisecond)))
	}
}
