package probe

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/google/uuid"

	"github.com/angeloszaimis/region-probe/internal/egress"
	"github.com/angeloszaimis/region-probe/internal/metrics"
	"github.com/angeloszaimis/region-probe/internal/reachability"
	"github.com/angeloszaimis/region-probe/internal/transport"
)

var (
	// ErrNoDomains aborts a batch before any probe is sent.
	ErrNoDomains = errors.New("no domains to probe")
	ErrNoEgress  = errors.New("no egress to survey")
)

type Option func(*Coordinator)

func WithLogger(logger *slog.Logger) Option {
	return func(c *Coordinator) { c.logger = logger }
}

// WithClock replaces the wall clock used for elapsed times and delays.
func WithClock(clk clock.Clock) Option {
	return func(c *Coordinator) { c.clock = clk }
}

// WithEvents sends notifications to ch. Sends never block; events are
// dropped when the channel is full.
func WithEvents(ch chan<- metrics.Event) Option {
	return func(c *Coordinator) { c.events = ch }
}

// WithHeader overrides the request headers sent with every probe.
func WithHeader(h http.Header) Option {
	return func(c *Coordinator) { c.header = h.Clone() }
}

// Coordinator sequences probes for one domain or a batch of domains. It
// holds no per-batch state; each call builds its own verdicts.
type Coordinator struct {
	transport  transport.Transport
	classifier *reachability.Classifier
	cfg        Config
	header     http.Header
	clock      clock.Clock
	logger     *slog.Logger
	events     chan<- metrics.Event
	newID      func() string
}

func New(t transport.Transport, classifier *reachability.Classifier, cfg Config, opts ...Option) *Coordinator {
	c := &Coordinator{
		transport:  t,
		classifier: classifier,
		cfg:        cfg.withDefaults(),
		header:     DefaultHeader(),
		clock:      clock.New(),
		logger:     slog.Default(),
		newID:      uuid.NewString,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Config returns the effective configuration.
func (c *Coordinator) Config() Config {
	return c.cfg
}

// ProbeDomain runs the two-stage probe for one domain. It never returns an
// error: a transport failure or a panic in either step ends the domain with
// NeedsReroute false and Err set. A failed primary step is not followed by
// the secondary one.
func (c *Coordinator) ProbeDomain(ctx context.Context, domain string) Verdict {
	return c.probeDomain(ctx, c.logger, domain)
}

func (c *Coordinator) probeDomain(ctx context.Context, log *slog.Logger, domain string) (v Verdict) {
	v = Verdict{Domain: domain}
	log = log.With(slog.String("domain", domain))

	defer func() {
		if r := recover(); r != nil {
			v.NeedsReroute = false
			v.Err = fmt.Errorf("probe %s: panic: %v", domain, r)
			log.Warn("Probe aborted", slog.Any("err", v.Err))
		}
	}()

	primary := c.attempt(ctx, log, domain, c.cfg.Primary)
	v.Primary = &primary
	if v.Err = attemptErr(domain, primary); v.Err != nil {
		return v
	}

	if primary.Accessible {
		log.Debug("Reachable through primary egress, skipping secondary",
			slog.String("egress", c.cfg.Primary.String()))
		return v
	}

	secondary := c.attempt(ctx, log, domain, c.cfg.Secondary)
	v.Secondary = &secondary
	if v.Err = attemptErr(domain, secondary); v.Err != nil {
		return v
	}

	v.NeedsReroute = !primary.Accessible && secondary.Accessible
	return v
}

func (c *Coordinator) attempt(ctx context.Context, log *slog.Logger, domain string, e egress.Egress) Attempt {
	start := c.clock.Now()
	res, err := c.transport.Send(ctx, transport.Request{
		URL:     "https://" + domain,
		Method:  http.MethodGet,
		Header:  c.header.Clone(),
		Timeout: c.cfg.Timeout,
		Egress:  e,
	})

	o := reachability.Outcome{Elapsed: c.clock.Since(start)}
	if err != nil {
		o.Err = c.describeFailure(err)
	} else {
		o.StatusCode = res.StatusCode
		o.Body = res.Body
	}

	cls := c.classifier.Classify(o)
	a := Attempt{
		Egress:         e,
		Outcome:        o,
		Classification: cls,
		Accessible:     reachability.Accessible(o, cls),
	}

	attrs := []any{
		slog.String("egress", e.String()),
		slog.Duration("elapsed", o.Elapsed),
		slog.Bool("accessible", a.Accessible),
	}
	if o.Failed() {
		attrs = append(attrs, slog.Any("err", o.Err))
	} else {
		attrs = append(attrs, slog.Int("status", o.StatusCode), slog.Int("bytes", len(o.Body)))
	}
	if cls.Blocked {
		attrs = append(attrs, slog.String("reason", cls.Reason))
	}
	log.Debug("Probe completed", attrs...)

	c.emit(metrics.Event{
		Type:       metrics.EventProbeCompleted,
		Timestamp:  c.clock.Now(),
		Domain:     domain,
		Egress:     e.String(),
		Duration:   o.Elapsed,
		StatusCode: o.StatusCode,
		Failed:     o.Failed(),
		Blocked:    cls.Blocked,
		Reason:     cls.Reason,
	})

	return a
}

func (c *Coordinator) describeFailure(err error) error {
	if transport.IsTimeout(err) {
		return fmt.Errorf("timed out after %s: %w", c.cfg.Timeout, err)
	}
	return fmt.Errorf("request failed: %w", err)
}

func attemptErr(domain string, a Attempt) error {
	if !a.Outcome.Failed() {
		return nil
	}
	return fmt.Errorf("%s via %s: %w", domain, a.Egress, a.Outcome.Err)
}

// ProbeBatch probes domains one at a time in input order, pausing for the
// configured interval after every domain except the last. A failing domain
// never stops the batch. The only errors are ErrNoDomains and context
// cancellation, which abandons the whole batch.
func (c *Coordinator) ProbeBatch(ctx context.Context, domains []string) (*BatchReport, error) {
	total := len(domains)
	if total == 0 {
		return nil, ErrNoDomains
	}

	id := c.newID()
	log := c.logger.With(slog.String("batch", id))
	started := c.clock.Now()

	log.Info("Batch started",
		slog.Int("domains", total),
		slog.String("primary", c.cfg.Primary.String()),
		slog.String("secondary", c.cfg.Secondary.String()))
	c.emit(metrics.Event{Type: metrics.EventBatchStarted, Timestamp: started, BatchID: id, Total: total})

	verdicts := make([]Verdict, 0, total)
	for i, d := range domains {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("batch interrupted after %d of %d domains: %w", i, total, err)
		}

		log.Debug("Probing domain",
			slog.String("domain", d),
			slog.String("progress", fmt.Sprintf("%d/%d", i+1, total)))

		v := c.probeDomain(ctx, log, d)
		verdicts = append(verdicts, v)
		c.logVerdict(log, v)

		c.emit(metrics.Event{
			Type:      metrics.EventDomainVerdict,
			Timestamp: c.clock.Now(),
			BatchID:   id,
			Domain:    d,
			Status:    string(v.Status()),
			Reason:    v.Reason(),
		})

		if (i+1)%c.cfg.ProgressEvery == 0 || i == total-1 {
			c.emit(metrics.Event{
				Type:      metrics.EventProgress,
				Timestamp: c.clock.Now(),
				BatchID:   id,
				Domain:    d,
				Index:     i + 1,
				Total:     total,
			})
		}

		if i < total-1 {
			if err := c.sleep(ctx, c.cfg.Interval); err != nil {
				return nil, fmt.Errorf("batch interrupted after %d of %d domains: %w", i+1, total, err)
			}
		}
	}

	report := NewBatchReport(id, started, c.clock.Now(), verdicts)
	counts := report.Counts()

	c.emit(metrics.Event{Type: metrics.EventBatchCompleted, Timestamp: report.FinishedAt, BatchID: id, Total: total})
	log.Info("Batch completed",
		slog.Int("total", counts.Total),
		slog.Int("reroute", counts.Rerouted),
		slog.Int("reachable", counts.Reachable),
		slog.Int("blocked_no_alternate", counts.Unresolved),
		slog.Int("failed", counts.Failed),
		slog.Duration("took", report.Duration()))

	return report, nil
}

func (c *Coordinator) logVerdict(log *slog.Logger, v Verdict) {
	attrs := []any{
		slog.String("domain", v.Domain),
		slog.String("status", string(v.Status())),
	}
	if r := v.Reason(); r != "" {
		attrs = append(attrs, slog.String("reason", r))
	}

	switch v.Status() {
	case StatusFailed:
		log.Warn("Domain probe failed", append(attrs, slog.Any("err", v.Err))...)
	case StatusReroute:
		log.Info("Domain needs reroute", append(attrs, slog.String("via", c.cfg.Secondary.String()))...)
	default:
		log.Info("Domain probed", attrs...)
	}
}

func (c *Coordinator) sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}

	t := c.clock.Timer(d)
	defer t.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

func (c *Coordinator) emit(event metrics.Event) {
	if c.events == nil {
		return
	}

	select {
	case c.events <- event:
	default:
		c.logger.Debug("Event dropped",
			slog.String("type", string(event.Type)),
			slog.String("domain", event.Domain))
	}
}
