// Package noise implements the phonetic noising engine that turns clean
// transcripts into plausibly mis-heard ones for grammar-error-correction
// training data.
//
// A [Noiser] tokenizes a line into a [Sentence], derives a corruption budget
// from the configured percentage, and hands both to an [Engine]. The engine
// repeatedly draws an edit from its [Guidebook] (weighted by cost), applies
// it, and charges the cost on success until the budget is spent or no edit
// can make further progress. Three edits are available:
//
//   - [Assimilation] merges two adjacent words ("I like" → "like").
//   - [HomophoneSwap] replaces a word with a homophone ("sent" → "scent").
//   - [MannerSwap] swaps a letter or cluster for a similar-sounding one
//     ("phone" → "fone").
//
// Every random decision is drawn from an injected [Rand], so a fixed seed
// reproduces a run exactly given the same homophone provider.
package noise

import "context"

// defaultMaxStalls is the number of consecutive unsuccessful attempts after
// which the engine gives up on a sentence.
const defaultMaxStalls = 64

// StopReason records why [Engine.Run] returned.
type StopReason string

const (
	// StopBudget means the budget was fully spent.
	StopBudget StopReason = "budget"

	// StopExhausted means no operation could be attempted: every slot was
	// claimed or the remainder is below the cheapest cost.
	StopExhausted StopReason = "exhausted"

	// StopStalled means MaxStalls consecutive attempts failed.
	StopStalled StopReason = "stalled"

	// StopCanceled means the context was cancelled mid-sentence.
	StopCanceled StopReason = "canceled"
)

// OpStats counts outcomes for a single operation.
type OpStats struct {
	Succeeded int
	Failed    int
}

// Result describes one [Engine.Run].
type Result struct {
	// Budget is the budget the run started with.
	Budget float64

	// Remaining is the unspent budget. It is never negative.
	Remaining float64

	// Steps is the number of attempted operations.
	Steps int

	// Ops holds per-operation outcome counts.
	Ops map[OpName]OpStats

	// Reason explains why the run stopped.
	Reason StopReason
}

// Spent returns the budget consumed by successful operations.
func (r Result) Spent() float64 { return r.Budget - r.Remaining }

// Engine applies weighted edit operations against a budget.
type Engine struct {
	guide     Guidebook
	ops       map[OpName]Operation
	maxStalls int
}

// EngineOption is a functional option for configuring an [Engine].
type EngineOption func(*Engine)

// WithMaxStalls sets how many consecutive unsuccessful attempts end a run.
// Default: 64.
func WithMaxStalls(n int) EngineOption {
	return func(e *Engine) {
		if n > 0 {
			e.maxStalls = n
		}
	}
}

// WithOperation registers op, replacing any operation of the same name.
func WithOperation(op Operation) EngineOption {
	return func(e *Engine) {
		e.ops[op.Name()] = op
	}
}

// NewEngine returns an [Engine] drawing from guide. Assimilation and a
// default-table [MannerSwap] are registered automatically; homophone swaps
// need [WithOperation] because they depend on a provider.
func NewEngine(guide Guidebook, opts ...EngineOption) *Engine {
	e := &Engine{
		guide: guide,
		ops: map[OpName]Operation{
			OpAssimilation: Assimilation{},
			OpManner:       &MannerSwap{},
		},
		maxStalls: defaultMaxStalls,
	}
	for _, o := range opts {
		o(e)
	}
	return e
}

// Operation returns the registered operation for name, if any.
func (e *Engine) Operation(name OpName) (Operation, bool) {
	op, ok := e.ops[name]
	return op, ok
}

// Run edits s until budget is spent or no further edit can succeed.
//
// The budget only decreases, and only by the cost of an operation that
// succeeded. A drawn operation with no registered implementation counts as
// a failed attempt.
func (e *Engine) Run(ctx context.Context, s *Sentence, budget float64, rng Rand) Result {
	res := Result{
		Budget:    budget,
		Remaining: budget,
		Ops:       make(map[OpName]OpStats, len(e.ops)),
	}
	stalls := 0
	for {
		switch {
		case res.Remaining <= 0:
			res.Reason = StopBudget
			return res
		case ctx.Err() != nil:
			res.Reason = StopCanceled
			return res
		case s.Available() == 0:
			res.Reason = StopExhausted
			return res
		case stalls >= e.maxStalls:
			res.Reason = StopStalled
			return res
		}

		entry, ok := e.guide.Draw(res.Remaining, rng)
		if !ok {
			res.Reason = StopExhausted
			return res
		}

		res.Steps++
		st := res.Ops[entry.Op]
		if op, ok := e.ops[entry.Op]; ok && op.Apply(ctx, s, rng) {
			st.Succeeded++
			res.Remaining -= entry.Cost
			stalls = 0
		} else {
			st.Failed++
			stalls++
		}
		res.Ops[entry.Op] = st
	}
}
