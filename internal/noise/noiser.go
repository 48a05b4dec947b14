package noise

import (
	"context"
	"math"
	"strings"
)

// Outcome is the result of noising one line.
type Outcome struct {
	// Noised is the merged, edited line.
	Noised string

	// Original is the whitespace-normalised input line.
	Original string

	// Tokens is the number of input words.
	Tokens int

	// Fallback is true when the budget rounded below one and a single
	// manner swap was attempted instead of a full engine run.
	Fallback bool

	// Result describes the engine run, or the single fallback attempt.
	Result Result
}

// Changed reports whether any edit altered the line.
func (o Outcome) Changed() bool { return o.Noised != o.Original }

// Noiser is the per-line driver: it normalises and tokenizes input, sizes
// the budget, and runs the [Engine]. A Noiser holds no per-line state, but
// it is not safe for concurrent use because it owns its [Rand].
type Noiser struct {
	percent float64
	engine  *Engine
	rng     Rand
}

// Option is a functional option for configuring a [Noiser].
type Option func(*Noiser)

// WithRand sets the random source. Default: [NewRand] with a time seed.
func WithRand(rng Rand) Option {
	return func(n *Noiser) {
		if rng != nil {
			n.rng = rng
		}
	}
}

// WithEngine replaces the default engine, which uses [DefaultGuidebook]
// without a homophone provider.
func WithEngine(e *Engine) Option {
	return func(n *Noiser) {
		if e != nil {
			n.engine = e
		}
	}
}

// NewNoiser returns a [Noiser] that targets percent (0.0–1.0) of each
// line's words for corruption.
func NewNoiser(percent float64, opts ...Option) *Noiser {
	n := &Noiser{percent: percent}
	for _, o := range opts {
		o(n)
	}
	if n.engine == nil {
		n.engine = NewEngine(DefaultGuidebook())
	}
	if n.rng == nil {
		n.rng = NewRand(0)
	}
	return n
}

// Budget returns round(percent × tokens), rounding halves away from zero.
func (n *Noiser) Budget(tokens int) float64 {
	return math.Round(n.percent * float64(tokens))
}

// NoiseLine noises a single line. It returns ok == false for lines that are
// empty after whitespace normalisation; such lines produce no output row.
func (n *Noiser) NoiseLine(ctx context.Context, line string) (out Outcome, ok bool) {
	words := strings.Fields(line)
	if len(words) == 0 {
		return Outcome{}, false
	}
	out.Original = strings.Join(words, " ")
	out.Tokens = len(words)

	s := NewSentence(words)
	budget := n.Budget(len(words))
	if budget < 1 {
		out.Fallback = true
		out.Result = n.fallback(ctx, s)
	} else {
		out.Result = n.engine.Run(ctx, s, budget, n.rng)
	}
	out.Noised = s.Merge()
	return out, true
}

// fallback attempts exactly one manner swap. On failure s is untouched, so
// the merged line equals the input.
func (n *Noiser) fallback(ctx context.Context, s *Sentence) Result {
	op, ok := n.engine.Operation(OpManner)
	if !ok {
		op = &MannerSwap{}
	}
	res := Result{Steps: 1, Ops: make(map[OpName]OpStats, 1), Reason: StopBudget}
	if op.Apply(ctx, s, n.rng) {
		res.Ops[OpManner] = OpStats{Succeeded: 1}
	} else {
		res.Ops[OpManner] = OpStats{Failed: 1}
	}
	return res
}
