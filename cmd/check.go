package main

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/angeloszaimis/region-probe/internal/domain"
	"github.com/angeloszaimis/region-probe/internal/egress"
	"github.com/angeloszaimis/region-probe/internal/probe"
	"github.com/angeloszaimis/region-probe/internal/rules"
)

func checkCmd(a *app) *cobra.Command {
	var egresses string

	cmd := &cobra.Command{
		Use:   "check <domain>",
		Short: "Probe one domain through several egresses and compare the results",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runCheck(cmd.Context(), cmd.OutOrStdout(), args[0], domain.SplitList(egresses))
		},
	}

	cmd.Flags().StringVar(&egresses, "egress", "", "comma separated egresses to probe (default primary,secondary,direct)")
	return cmd
}

func (a *app) runCheck(ctx context.Context, out io.Writer, raw string, names []string) error {
	d, err := domain.Normalize(raw)
	if err != nil {
		return err
	}

	list, err := a.surveyEgresses(names)
	if err != nil {
		return err
	}

	coord, err := a.coordinator(nil)
	if err != nil {
		return err
	}

	res, err := coord.Survey(ctx, d, list)
	if err != nil {
		return err
	}

	fmt.Fprintf(out, "%s\n", res.Domain)
	for _, at := range res.Attempts {
		fmt.Fprintf(out, "  %-12s %s\n", at.Egress, describeAttempt(at))
	}

	if res.Compared && res.NeedsReroute {
		fmt.Fprintln(out, rules.Line(a.cfg.Rules.Verb, res.Domain, a.cfg.RuleTarget()))
	}
	return nil
}

// surveyEgresses resolves the requested egress names, defaulting to the
// configured primary, secondary and direct egresses.
func (a *app) surveyEgresses(names []string) ([]egress.Egress, error) {
	registry, err := a.cfg.Registry()
	if err != nil {
		return nil, err
	}

	if len(names) == 0 {
		names = []string{a.cfg.Egress.Primary, a.cfg.Egress.Secondary, a.cfg.Egress.Direct}
	}

	list := make([]egress.Egress, 0, len(names))
	for _, n := range names {
		e := egress.Egress(n)
		if _, ok := registry.Lookup(e); !ok {
			return nil, fmt.Errorf("%q: unknown egress", n)
		}
		list = append(list, e)
	}
	return list, nil
}

func describeAttempt(at probe.Attempt) string {
	elapsed := at.Outcome.Elapsed.Round(time.Millisecond)
	switch {
	case at.Accessible:
		return fmt.Sprintf("accessible (HTTP %d, %s)", at.Outcome.StatusCode, elapsed)
	case at.Outcome.Err != nil:
		return fmt.Sprintf("failed: %v (%s)", at.Outcome.Err, elapsed)
	case at.Classification.Blocked:
		return fmt.Sprintf("blocked: %s (%s)", at.Classification.Reason, elapsed)
	default:
		return fmt.Sprintf("not accessible (HTTP %d, %s)", at.Outcome.StatusCode, elapsed)
	}
}
