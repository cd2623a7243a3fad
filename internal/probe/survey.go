package probe

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/angeloszaimis/region-probe/internal/egress"
)

// SurveyResult lists one attempt per surveyed egress, in the order given.
// Compared is true when both configured egresses were part of the survey,
// in which case NeedsReroute follows the same rule as ProbeDomain.
type SurveyResult struct {
	Domain       string
	Attempts     []Attempt
	Compared     bool
	NeedsReroute bool
}

// Attempt returns the attempt made through e.
func (r *SurveyResult) Attempt(e egress.Egress) (*Attempt, bool) {
	for i := range r.Attempts {
		if r.Attempts[i].Egress == e {
			return &r.Attempts[i], true
		}
	}
	return nil, false
}

// Survey probes one domain through every listed egress without short
// circuiting, pausing SurveyInterval between attempts. Duplicate egresses
// are probed once.
func (c *Coordinator) Survey(ctx context.Context, domain string, egresses []egress.Egress) (*SurveyResult, error) {
	egresses = uniqueEgresses(egresses)
	if len(egresses) == 0 {
		return nil, ErrNoEgress
	}

	log := c.logger.With(slog.String("domain", domain))
	res := &SurveyResult{Domain: domain, Attempts: make([]Attempt, 0, len(egresses))}

	for i, e := range egresses {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("survey interrupted: %w", err)
		}

		a, err := c.safeAttempt(ctx, log, domain, e)
		if err != nil {
			return nil, err
		}
		res.Attempts = append(res.Attempts, a)

		if i < len(egresses)-1 {
			if err := c.sleep(ctx, c.cfg.SurveyInterval); err != nil {
				return nil, fmt.Errorf("survey interrupted: %w", err)
			}
		}
	}

	primary, okP := res.Attempt(c.cfg.Primary)
	secondary, okS := res.Attempt(c.cfg.Secondary)
	if okP && okS {
		res.Compared = true
		res.NeedsReroute = !primary.Accessible && secondary.Accessible
	}

	log.Info("Survey completed",
		slog.Int("egresses", len(res.Attempts)),
		slog.Bool("compared", res.Compared),
		slog.Bool("needs_reroute", res.NeedsReroute))

	return res, nil
}

func (c *Coordinator) safeAttempt(ctx context.Context, log *slog.Logger, domain string, e egress.Egress) (a Attempt, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("survey %s via %s: panic: %v", domain, e, r)
		}
	}()
	return c.attempt(ctx, log, domain, e), nil
}

func uniqueEgresses(in []egress.Egress) []egress.Egress {
	out := make([]egress.Egress, 0, len(in))
	seen := make(map[egress.Egress]struct{}, len(in))
	for _, e := range in {
		if e == "" {
			continue
		}
		if _, ok := seen[e]; ok {
			continue
		}
		seen[e] = struct{}{}
		out = append(out, e)
	}
	return out
}
