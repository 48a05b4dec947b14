// Package batch drives a whole transcript through the noiser and collects
// the resulting sentence pairs together with run statistics.
package batch

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/montanaflynn/stats"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/rcoulter13/phonoise/internal/dataset"
	"github.com/rcoulter13/phonoise/internal/noise"
	"github.com/rcoulter13/phonoise/internal/observe"
)

// LatencySummary describes per-sentence noising latency.
type LatencySummary struct {
	Mean   time.Duration
	Median time.Duration
	P95    time.Duration
	Max    time.Duration
}

// Report is the outcome of [Controller.Run].
type Report struct {
	// RunID identifies the run in logs, metrics, and database rows.
	RunID string

	// Pairs holds one (noised, original) pair per processed sentence, in
	// input order.
	Pairs []dataset.Pair

	// Processed counts sentences that produced a pair.
	Processed int

	// Skipped counts blank lines.
	Skipped int

	// Changed counts pairs whose noised side differs from the original.
	Changed int

	// Fallbacks counts sentences too short for a full engine run.
	Fallbacks int

	// Ops totals operation outcomes across all sentences.
	Ops map[noise.OpName]noise.OpStats

	// Stops counts engine runs by stop reason.
	Stops map[noise.StopReason]int

	// Elapsed is the wall time of the run.
	Elapsed time.Duration

	// Latency summarises per-sentence noising time.
	Latency LatencySummary
}

// Throughput returns processed sentences per second.
func (r *Report) Throughput() float64 {
	if r.Elapsed <= 0 {
		return 0
	}
	return float64(r.Processed) / r.Elapsed.Seconds()
}

// Controller runs a [noise.Noiser] over many lines. Sentences share no state
// apart from the noiser's random source.
type Controller struct {
	noiser  *noise.Noiser
	metrics *observe.Metrics
	runID   string

	done  atomic.Int64
	total atomic.Int64
}

// Progress is a point-in-time view of a running batch.
type Progress struct {
	RunID string `json:"run_id"`
	Done  int64  `json:"done"`
	Total int64  `json:"total"`
}

// Progress reports how many input lines the current or last run has
// consumed. It is safe to call from other goroutines while Run executes.
func (c *Controller) Progress() Progress {
	return Progress{RunID: c.runID, Done: c.done.Load(), Total: c.total.Load()}
}

// Option configures a [Controller].
type Option func(*Controller)

// WithMetrics records per-sentence metrics on m. Default:
// [observe.DefaultMetrics].
func WithMetrics(m *observe.Metrics) Option {
	return func(c *Controller) {
		if m != nil {
			c.metrics = m
		}
	}
}

// WithRunID fixes the run identifier. Default: a random UUID.
func WithRunID(id string) Option {
	return func(c *Controller) {
		if id != "" {
			c.runID = id
		}
	}
}

// NewController returns a [Controller] driving n.
func NewController(n *noise.Noiser, opts ...Option) *Controller {
	c := &Controller{noiser: n}
	for _, o := range opts {
		o(c)
	}
	if c.metrics == nil {
		c.metrics = observe.DefaultMetrics()
	}
	if c.runID == "" {
		c.runID = uuid.NewString()
	}
	return c
}

// RunID returns the identifier used for this controller's runs.
func (c *Controller) RunID() string { return c.runID }

// Run noises every line. If ctx is cancelled between sentences, Run stops
// and returns the partial report along with an error wrapping ctx.Err().
func (c *Controller) Run(ctx context.Context, lines []string) (*Report, error) {
	ctx = observe.WithRunID(ctx, c.runID)
	ctx, span := observe.StartSpan(ctx, "batch.run",
		trace.WithAttributes(attribute.Int("lines", len(lines))),
	)
	defer span.End()
	log := observe.Logger(ctx)

	rep := &Report{
		RunID: c.runID,
		Pairs: make([]dataset.Pair, 0, len(lines)),
		Ops:   make(map[noise.OpName]noise.OpStats),
		Stops: make(map[noise.StopReason]int),
	}
	latencies := make([]float64, 0, len(lines))

	c.done.Store(0)
	c.total.Store(int64(len(lines)))
	log.Info("batch started", "lines", len(lines))
	start := time.Now()
	var runErr error
	for i, line := range lines {
		if err := ctx.Err(); err != nil {
			runErr = fmt.Errorf("batch: interrupted after %d of %d lines: %w", i, len(lines), err)
			break
		}

		t0 := time.Now()
		out, ok := c.noiser.NoiseLine(ctx, line)
		c.done.Add(1)
		if !ok {
			rep.Skipped++
			c.metrics.RecordSkip(ctx)
			continue
		}
		d := time.Since(t0)

		rep.Pairs = append(rep.Pairs, dataset.Pair{Befr: out.Noised, En: out.Original})
		rep.Processed++
		if out.Changed() {
			rep.Changed++
		}
		if out.Fallback {
			rep.Fallbacks++
		}
		rep.Stops[out.Result.Reason]++
		for op, st := range out.Result.Ops {
			tot := rep.Ops[op]
			tot.Succeeded += st.Succeeded
			tot.Failed += st.Failed
			rep.Ops[op] = tot
			c.metrics.RecordOperation(ctx, string(op), st.Succeeded, st.Failed)
		}
		c.metrics.RecordSentence(ctx, out.Changed(), out.Result.Budget, d)
		c.metrics.RecordStop(ctx, string(out.Result.Reason))
		latencies = append(latencies, d.Seconds())

		log.Debug("sentence noised",
			"line", i+1,
			"tokens", out.Tokens,
			"budget", out.Result.Budget,
			"remaining", out.Result.Remaining,
			"reason", out.Result.Reason,
		)
	}
	rep.Elapsed = time.Since(start)
	rep.Latency = summarize(latencies)

	span.SetAttributes(
		attribute.Int("processed", rep.Processed),
		attribute.Int("skipped", rep.Skipped),
	)
	if runErr != nil {
		span.RecordError(runErr)
		log.Warn("batch interrupted", "processed", rep.Processed, "err", runErr)
		return rep, runErr
	}
	log.Info("batch complete",
		"processed", rep.Processed,
		"skipped", rep.Skipped,
		"changed", rep.Changed,
		"elapsed", rep.Elapsed,
	)
	return rep, nil
}

// summarize computes the latency summary of samples given in seconds. An
// empty sample yields the zero summary.
func summarize(samples []float64) LatencySummary {
	if len(samples) == 0 {
		return LatencySummary{}
	}
	var s LatencySummary
	if v, err := stats.Mean(samples); err == nil {
		s.Mean = seconds(v)
	}
	if v, err := stats.Median(samples); err == nil {
		s.Median = seconds(v)
	}
	if v, err := stats.Percentile(samples, 95); err == nil {
		s.P95 = seconds(v)
	}
	if v, err := stats.Max(samples); err == nil {
		s.Max = seconds(v)
	}
	return s
}

func seconds(v float64) time.Duration {
	return time.Duration(v * float64(time.Second))
}
