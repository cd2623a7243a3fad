package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/spf13/cobra"

	"github.com/angeloszaimis/region-probe/internal/domain"
	"github.com/angeloszaimis/region-probe/internal/metrics"
	"github.com/angeloszaimis/region-probe/internal/rules"
)

type batchOptions struct {
	domains   string
	outTarget string
	stats     bool
}

func batchCmd(a *app) *cobra.Command {
	var opts batchOptions

	cmd := &cobra.Command{
		Use:   "batch [domain...]",
		Short: "Probe domains through the primary egress and print rules for the rerouted ones",
		RunE: func(cmd *cobra.Command, args []string) error {
			manual := append(append([]string{}, args...), domain.SplitList(opts.domains)...)
			return a.runBatch(cmd.Context(), cmd.OutOrStdout(), cmd.ErrOrStderr(), manual, opts)
		},
	}

	cmd.Flags().StringVar(&opts.domains, "domains", "", "comma separated domains to probe")
	cmd.Flags().StringVar(&opts.outTarget, "out-target", "", "policy name written into rules (default rules.target or the secondary egress)")
	cmd.Flags().BoolVar(&opts.stats, "stats", false, "write batch statistics as JSON to stderr")
	return cmd
}

func (a *app) runBatch(ctx context.Context, out, errOut io.Writer, manual []string, opts batchOptions) error {
	domains, err := a.collectDomains(manual)
	if err != nil {
		a.log.Error("No domains to probe", slog.Any("err", err))
		return err
	}

	collector := metrics.NewCollector(eventBufferSize, a.log, a.progressListener)
	collectorCtx, stopCollector := context.WithCancel(context.Background())
	collector.Start(collectorCtx)

	coord, err := a.coordinator(collector.EventChannel())
	if err != nil {
		stopCollector()
		return err
	}

	report, err := coord.ProbeBatch(ctx, domains)

	stopCollector()
	<-collector.Done()

	if err != nil {
		a.log.Error("Batch aborted", slog.Any("err", err))
		return err
	}

	target := opts.outTarget
	if target == "" {
		target = a.cfg.RuleTarget()
	}

	if _, err := io.WriteString(out, rules.Render(report, a.cfg.Rules.Verb, target, time.Now())); err != nil {
		return fmt.Errorf("write rules: %w", err)
	}

	counts := report.Counts()
	a.log.Info("Batch summary",
		slog.String("batch", report.ID),
		slog.Int("total", counts.Total),
		slog.Int("rerouted", counts.Rerouted),
		slog.Int("reachable", counts.Reachable),
		slog.Int("blocked_no_alternate", counts.Unresolved),
		slog.Int("failed", counts.Failed),
		slog.Duration("duration", report.Duration().Round(time.Millisecond)))

	snap := collector.Snapshot()
	a.logStatistics(snap)
	if opts.stats {
		if err := snap.WriteJSON(errOut); err != nil {
			return fmt.Errorf("write statistics: %w", err)
		}
	}

	return nil
}
