package noise

import (
	"errors"
	"fmt"
	"slices"
)

// GuideEntry pairs an operation with its cost.
type GuideEntry struct {
	Op   OpName
	Cost float64
}

// Guidebook is the cost table for edit operations. Each cost is also the
// operation's selection weight: an operation that spends twice the budget
// is drawn twice as often.
//
// Entries are kept in canonical operation order so a seeded [Rand] always
// maps to the same draw.
type Guidebook struct {
	entries []GuideEntry
}

// canonicalOrder fixes the draw order independent of how costs were
// supplied.
var canonicalOrder = []OpName{OpAssimilation, OpHomophone, OpManner}

// DefaultGuidebook returns assimilation=2.0, homophone=1.0, manner=0.5.
func DefaultGuidebook() Guidebook {
	g, _ := NewGuidebook(map[OpName]float64{
		OpAssimilation: 2.0,
		OpHomophone:    1.0,
		OpManner:       0.5,
	})
	return g
}

// NewGuidebook validates costs and returns a [Guidebook]. Unknown operation
// names and non-positive costs are rejected. Operations absent from costs
// are never drawn.
func NewGuidebook(costs map[OpName]float64) (Guidebook, error) {
	var errs []error
	for op, c := range costs {
		if !op.IsValid() {
			errs = append(errs, fmt.Errorf("guidebook: unknown operation %q", op))
			continue
		}
		if c <= 0 {
			errs = append(errs, fmt.Errorf("guidebook: %s cost %.2f must be positive", op, c))
		}
	}
	if len(costs) == 0 {
		errs = append(errs, errors.New("guidebook: at least one operation is required"))
	}
	if err := errors.Join(errs...); err != nil {
		return Guidebook{}, err
	}

	g := Guidebook{}
	for _, op := range canonicalOrder {
		if c, ok := costs[op]; ok {
			g.entries = append(g.entries, GuideEntry{Op: op, Cost: c})
		}
	}
	return g, nil
}

// Entries returns a copy of the guidebook entries in draw order.
func (g Guidebook) Entries() []GuideEntry { return slices.Clone(g.entries) }

// Cost returns the cost of op and whether op is present.
func (g Guidebook) Cost(op OpName) (float64, bool) {
	for _, e := range g.entries {
		if e.Op == op {
			return e.Cost, true
		}
	}
	return 0, false
}

// MinCost returns the cheapest cost, or 0 for an empty guidebook.
func (g Guidebook) MinCost() float64 {
	if len(g.entries) == 0 {
		return 0
	}
	m := g.entries[0].Cost
	for _, e := range g.entries[1:] {
		m = min(m, e.Cost)
	}
	return m
}

// Draw picks an operation whose cost fits within remaining, weighted by
// cost. It reports false when nothing is affordable.
func (g Guidebook) Draw(remaining float64, rng Rand) (GuideEntry, bool) {
	var total float64
	for _, e := range g.entries {
		if e.Cost <= remaining {
			total += e.Cost
		}
	}
	if total == 0 {
		return GuideEntry{}, false
	}
	r := rng.Float64() * total
	var last GuideEntry
	for _, e := range g.entries {
		if e.Cost > remaining {
			continue
		}
		last = e
		if r < e.Cost {
			return e, true
		}
		r -= e.Cost
	}
	// Float rounding can leave r marginally above the final weight.
	return last, true
}
