package resilience

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/rcoulter13/phonoise/internal/observe"
	"github.com/rcoulter13/phonoise/pkg/provider/homophone"
)

const defaultLookupTimeout = 2 * time.Second

// HomophoneFallback implements [homophone.Provider] across several lookup
// backends. Each backend call is bounded by a timeout and guarded by its own
// circuit breaker; a backend that errors, times out, or has no answer hands
// the word to the next one.
//
// "No homophones" answers never trip a breaker. Timeouts do, so a backend
// that keeps hanging is skipped until its reset timeout elapses.
type HomophoneFallback struct {
	group   *FallbackGroup[homophone.Provider]
	timeout time.Duration
	metrics *observe.Metrics
}

var _ homophone.Provider = (*HomophoneFallback)(nil)

// HomophoneOption configures a [HomophoneFallback].
type HomophoneOption func(*HomophoneFallback)

// WithLookupTimeout bounds each backend call. Default: 2s.
func WithLookupTimeout(d time.Duration) HomophoneOption {
	return func(f *HomophoneFallback) {
		if d > 0 {
			f.timeout = d
		}
	}
}

// WithMetrics records lookup latency and outcomes on m.
func WithMetrics(m *observe.Metrics) HomophoneOption {
	return func(f *HomophoneFallback) {
		f.metrics = m
	}
}

// NewHomophoneFallback creates a [HomophoneFallback] with primary as the
// preferred backend.
func NewHomophoneFallback(primary homophone.Provider, primaryName string, cfg FallbackConfig, opts ...HomophoneOption) *HomophoneFallback {
	if cfg.CircuitBreaker.IsFailure == nil {
		cfg.CircuitBreaker.IsFailure = isLookupFailure
	}
	f := &HomophoneFallback{
		group:   NewFallbackGroup(primary, primaryName, cfg),
		timeout: defaultLookupTimeout,
	}
	for _, o := range opts {
		o(f)
	}
	return f
}

// AddFallback registers another backend, tried after all earlier ones.
func (f *HomophoneFallback) AddFallback(name string, p homophone.Provider) {
	f.group.AddFallback(name, p)
}

// Backends returns the number of registered backends.
func (f *HomophoneFallback) Backends() int { return len(f.group.members) }

// Timeout returns the per-backend timeout.
func (f *HomophoneFallback) Timeout() time.Duration { return f.timeout }

// ErrNoBackends is returned by [HomophoneFallback.Check] when every backend's
// breaker is open.
var ErrNoBackends = errors.New("no homophone backend available")

// Check reports whether at least one backend would currently accept a
// lookup. It matches the health checker signature.
func (f *HomophoneFallback) Check(_ context.Context) error {
	states := f.group.States()
	var open []string
	for name, st := range states {
		if st == StateOpen {
			open = append(open, name)
		}
	}
	if len(open) == len(states) {
		slices.Sort(open)
		return fmt.Errorf("%w: open breakers: %s", ErrNoBackends, strings.Join(open, ", "))
	}
	return nil
}

// Homophones implements [homophone.Provider]. When every backend comes up
// empty the error matches both [ErrAllFailed] and, if the last backend had no
// answer, [homophone.ErrNoHomophones].
func (f *HomophoneFallback) Homophones(ctx context.Context, word string) ([]string, error) {
	return ExecuteWithResult(f.group, func(name string, p homophone.Provider) ([]string, error) {
		callCtx, cancel := context.WithTimeout(ctx, f.timeout)
		defer cancel()

		callCtx, span := observe.StartSpan(callCtx, "homophone.lookup",
			trace.WithAttributes(
				attribute.String("backend", name),
				attribute.String("word", word),
			),
		)
		defer span.End()

		start := time.Now()
		words, err := p.Homophones(callCtx, word)
		if err == nil && len(words) == 0 {
			err = homophone.ErrNoHomophones
		}
		if f.metrics != nil {
			f.metrics.RecordLookup(ctx, name, time.Since(start), err)
		}
		if err != nil {
			span.RecordError(err)
		}
		return words, err
	})
}

func isLookupFailure(err error) bool {
	return err != nil && !errors.Is(err, homophone.ErrNoHomophones) && !errors.Is(err, context.Canceled)
}
