package noise

import (
	"context"
	"slices"
	"strings"
	"testing"

	"github.com/rcoulter13/phonoise/pkg/provider/homophone/mock"
)

func mustGuidebook(t *testing.T, costs map[OpName]float64) Guidebook {
	t.Helper()
	g, err := NewGuidebook(costs)
	if err != nil {
		t.Fatalf("NewGuidebook: %v", err)
	}
	return g
}

func TestEngine_ZeroBudgetIsIdentity(t *testing.T) {
	t.Parallel()
	s := NewSentence(strings.Fields("the quick brown fox"))
	res := NewEngine(DefaultGuidebook()).Run(context.Background(), s, 0, NewRand(1))
	if res.Reason != StopBudget || res.Steps != 0 {
		t.Errorf("Result = %+v, want immediate budget stop", res)
	}
	if got := s.Merge(); got != "the quick brown fox" {
		t.Errorf("Merge = %q, want input unchanged", got)
	}
}

func TestEngine_StallGuard(t *testing.T) {
	t.Parallel()
	// Homophone is drawn every step but no provider is registered, so every
	// attempt fails.
	e := NewEngine(mustGuidebook(t, map[OpName]float64{OpHomophone: 1}), WithMaxStalls(5))
	s := NewSentence(strings.Fields("some words here"))
	res := e.Run(context.Background(), s, 3, NewRand(1))
	if res.Reason != StopStalled {
		t.Fatalf("Reason = %v, want stalled", res.Reason)
	}
	if res.Steps != 5 || res.Ops[OpHomophone].Failed != 5 {
		t.Errorf("Result = %+v, want 5 failed steps", res)
	}
	if res.Remaining != 3 {
		t.Errorf("Remaining = %v, want untouched 3", res.Remaining)
	}
}

func TestEngine_ExhaustedWhenNoSlotsRemain(t *testing.T) {
	t.Parallel()
	e := NewEngine(mustGuidebook(t, map[OpName]float64{OpAssimilation: 2}))
	s := NewSentence([]string{"a", "b"})
	res := e.Run(context.Background(), s, 10, NewRand(1))
	if res.Reason != StopExhausted {
		t.Fatalf("Reason = %v, want exhausted", res.Reason)
	}
	if res.Remaining != 8 || res.Ops[OpAssimilation].Succeeded != 1 {
		t.Errorf("Result = %+v, want one assimilation", res)
	}
	if got := s.Merge(); got != "b" {
		t.Errorf("Merge = %q, want %q", got, "b")
	}
}

func TestEngine_ExhaustedWhenRemainderTooSmall(t *testing.T) {
	t.Parallel()
	res := NewEngine(DefaultGuidebook()).Run(context.Background(), NewSentence([]string{"cat"}), 0.25, NewRand(1))
	if res.Reason != StopExhausted || res.Steps != 0 {
		t.Errorf("Result = %+v, want exhausted without steps", res)
	}
}

func TestEngine_Canceled(t *testing.T) {
	t.Parallel()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	res := NewEngine(DefaultGuidebook()).Run(ctx, NewSentence([]string{"cat", "dog"}), 2, NewRand(1))
	if res.Reason != StopCanceled || res.Steps != 0 {
		t.Errorf("Result = %+v, want canceled before any step", res)
	}
}

func TestEngine_WithHomophoneOperation(t *testing.T) {
	t.Parallel()
	p := &mock.Provider{Results: map[string][]string{"sea": {"see"}}}
	e := NewEngine(
		mustGuidebook(t, map[OpName]float64{OpHomophone: 1}),
		WithOperation(&HomophoneSwap{Provider: p}),
	)
	if _, ok := e.Operation(OpHomophone); !ok {
		t.Fatal("homophone operation not registered")
	}
	s := NewSentence([]string{"sea"})
	res := e.Run(context.Background(), s, 1, NewRand(1))
	if res.Reason != StopBudget || res.Remaining != 0 {
		t.Errorf("Result = %+v, want budget spent", res)
	}
	if got := s.Merge(); got != "see" {
		t.Errorf("Merge = %q, want see", got)
	}
}

func TestEngine_BudgetAccounting(t *testing.T) {
	t.Parallel()
	g := DefaultGuidebook()
	e := NewEngine(g)
	rng := NewRand(2024)
	lines := []string{
		"the quick brown fox jumps over the lazy dog",
		"she sells sea shells by the sea shore",
		"I like cats",
		"a b c d e f g",
		"photograph knight whistle",
	}
	for i := range 300 {
		words := strings.Fields(lines[i%len(lines)])
		s := NewSentence(words)
		budget := float64(1 + i%6)
		res := e.Run(context.Background(), s, budget, rng)

		if res.Remaining < 0 {
			t.Fatalf("Remaining = %v, want >= 0", res.Remaining)
		}
		if res.Remaining > budget {
			t.Fatalf("Remaining %v exceeds budget %v", res.Remaining, budget)
		}
		var spent float64
		for op, st := range res.Ops {
			c, _ := g.Cost(op)
			spent += float64(st.Succeeded) * c
		}
		if spent != res.Spent() {
			t.Fatalf("Spent = %v, successes cost %v", res.Spent(), spent)
		}
		if s.Len() != len(words) {
			t.Fatalf("Len = %d, want %d", s.Len(), len(words))
		}
		merged := s.Merge()
		if strings.Contains(merged, "  ") || strings.TrimSpace(merged) != merged {
			t.Fatalf("Merge = %q has uncollapsed whitespace", merged)
		}
		if res.Reason == "" {
			t.Fatal("missing stop reason")
		}
	}
}

func TestEngine_LengthPreservedWithoutAssimilation(t *testing.T) {
	t.Parallel()
	p := &mock.Provider{Results: map[string][]string{
		"sea":    {"see", "c"},
		"knight": {"night"},
		"sent":   {"scent", "cent", "two words"},
	}}
	e := NewEngine(
		mustGuidebook(t, map[OpName]float64{OpHomophone: 1, OpManner: 0.5}),
		WithOperation(&HomophoneSwap{Provider: p}),
	)
	rng := NewRand(77)
	lines := []string{
		"the knight sent his men to sea",
		"photograph whistle church",
		"she sells sea shells by the shore",
		"two apples fell",
	}
	for i := range 300 {
		words := strings.Fields(lines[i%len(lines)])
		s := NewSentence(words)
		e.Run(context.Background(), s, float64(1+i%5), rng)
		if got := strings.Fields(s.Merge()); len(got) != len(words) {
			t.Fatalf("%q became %q: %d tokens, want %d", lines[i%len(lines)], s.Merge(), len(got), len(words))
		}
	}
}

func TestEngine_SingleLetterDeletionShortensOutput(t *testing.T) {
	t.Parallel()
	// The zero draw selects manner, the identity permutation claims "a",
	// and index 4 of its row is the deletion token.
	e := NewEngine(mustGuidebook(t, map[OpName]float64{OpManner: 1}))
	s := NewSentence([]string{"a", "b", "c"})
	res := e.Run(context.Background(), s, 1, &scriptedRand{ints: []int{4}})
	if res.Reason != StopBudget || res.Ops[OpManner].Succeeded != 1 {
		t.Fatalf("Result = %+v, want one manner swap", res)
	}
	if got := s.Merge(); got != "b c" {
		t.Errorf("Merge = %q, want %q", got, "b c")
	}
	if s.Len() != 3 || s.Token(0) != (Token{Kind: KindReplaced, Text: DeletionToken}) {
		t.Errorf("slot 0 = %+v, want replaced by the deletion token", s.Token(0))
	}
}

func TestEngine_OnlyDeletedSingleLettersShortenOutput(t *testing.T) {
	t.Parallel()
	e := NewEngine(mustGuidebook(t, map[OpName]float64{OpManner: 1}))
	words := strings.Fields("a b c d e")
	for seed := range uint64(200) {
		s := NewSentence(words)
		e.Run(context.Background(), s, 2, NewRand(seed+1))
		deleted := 0
		for i := range s.Len() {
			if s.Token(i).Text == DeletionToken {
				deleted++
			}
		}
		if got := len(strings.Fields(s.Merge())); got != len(words)-deleted {
			t.Fatalf("seed %d: %q has %d tokens, want %d (%d deletions)", seed+1, s.Merge(), got, len(words)-deleted, deleted)
		}
	}
}

func TestEngine_SkipsSlotsNoOperationCanEdit(t *testing.T) {
	t.Parallel()
	words := append([]string{"cat"}, slices.Repeat([]string{"42"}, 200)...)
	e := NewEngine(mustGuidebook(t, map[OpName]float64{OpManner: 1}))
	for seed := range uint64(50) {
		s := NewSentence(words)
		res := e.Run(context.Background(), s, 1, NewRand(seed+1))
		if res.Reason != StopBudget {
			t.Fatalf("seed %d: Reason = %v, want budget", seed+1, res.Reason)
		}
		if res.Ops[OpManner] != (OpStats{Succeeded: 1}) {
			t.Fatalf("seed %d: manner = %+v, want one success and no failures", seed+1, res.Ops[OpManner])
		}
		if s.Token(0).Kind != KindReplaced {
			t.Fatalf("seed %d: cat not edited", seed+1)
		}
	}
}
