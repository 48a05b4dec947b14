package noise

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"
	"unicode"

	"github.com/rcoulter13/phonoise/pkg/provider/homophone"
)

// OpName identifies an edit operation in a [Guidebook].
type OpName string

const (
	// OpAssimilation merges two neighbouring words into one.
	OpAssimilation OpName = "assimilation"

	// OpHomophone swaps a word for one of its homophones.
	OpHomophone OpName = "homophone"

	// OpManner swaps a letter or letter cluster for one with a similar
	// manner of articulation.
	OpManner OpName = "manner"
)

// IsValid reports whether n names a known operation.
func (n OpName) IsValid() bool {
	switch n {
	case OpAssimilation, OpHomophone, OpManner:
		return true
	}
	return false
}

// Operation is a single budgeted edit. Apply claims slots from s, attempts
// its substitution, and reports whether s was modified. A false return
// leaves every token unchanged; the operation may only record slots it can
// never edit (see [Sentence.Excluded]).
type Operation interface {
	Name() OpName
	Apply(ctx context.Context, s *Sentence, rng Rand) bool
}

var (
	_ Operation = Assimilation{}
	_ Operation = (*HomophoneSwap)(nil)
	_ Operation = (*MannerSwap)(nil)
)

// ─────────────────────────────────────────────────────────────────────────────
// Assimilation
// ─────────────────────────────────────────────────────────────────────────────

// Assimilation joins two adjacent available words by dropping the final
// letter of the first and appending the second. The merged word takes the
// first slot and the second slot is consumed.
type Assimilation struct{}

// Name implements [Operation].
func (Assimilation) Name() OpName { return OpAssimilation }

// Apply implements [Operation].
func (Assimilation) Apply(_ context.Context, s *Sentence, rng Rand) bool {
	slots := FindSlots(s, 2, rng)
	if len(slots) != 2 {
		return false
	}
	first, second := s.Token(slots[0]).Text, s.Token(slots[1]).Text
	s.replace(slots[0], dropLastRune(first)+second)
	s.consume(slots[1])
	return true
}

func dropLastRune(w string) string {
	r := []rune(w)
	if len(r) == 0 {
		return w
	}
	return string(r[:len(r)-1])
}

// ─────────────────────────────────────────────────────────────────────────────
// Homophone swap
// ─────────────────────────────────────────────────────────────────────────────

// defaultLookupTimeout bounds a single homophone lookup when
// [HomophoneSwap.Timeout] is zero.
const defaultLookupTimeout = 2 * time.Second

// HomophoneSwap replaces one lowercase ASCII word with a homophone returned by
// Provider. Lookup errors, timeouts, and empty results all count as a failed
// attempt. A word the provider has no homophones for is not looked up again
// within the same sentence.
type HomophoneSwap struct {
	// Provider answers homophone queries. A nil Provider makes every attempt
	// fail.
	Provider homophone.Provider

	// Timeout bounds each lookup. Zero selects a 2s default.
	Timeout time.Duration
}

// Name implements [Operation].
func (*HomophoneSwap) Name() OpName { return OpHomophone }

// Apply implements [Operation].
func (h *HomophoneSwap) Apply(ctx context.Context, s *Sentence, rng Rand) bool {
	if h.Provider == nil {
		return false
	}
	slot, ok := findSlot(s, OpHomophone, rng, isLowerASCII)
	if !ok {
		return false
	}
	word := s.Token(slot).Text

	timeout := h.Timeout
	if timeout <= 0 {
		timeout = defaultLookupTimeout
	}
	lookupCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	found, err := h.Provider.Homophones(lookupCtx, word)
	if err != nil {
		if errors.Is(err, homophone.ErrNoHomophones) {
			s.exclude(slot, OpHomophone)
		}
		slog.Debug("homophone lookup failed", "word", word, "err", err)
		return false
	}
	candidates := usableCandidates(found)
	if len(candidates) == 0 {
		s.exclude(slot, OpHomophone)
		return false
	}
	s.replace(slot, pick(rng, candidates))
	return true
}

func isLowerASCII(w string) bool {
	if w == "" {
		return false
	}
	for i := 0; i < len(w); i++ {
		if w[i] < 'a' || w[i] > 'z' {
			return false
		}
	}
	return true
}

// usableCandidates drops empty and multi-word results, which would break
// the one-slot-one-word shape of the sentence.
func usableCandidates(found []string) []string {
	out := found[:0:0]
	for _, c := range found {
		if c == "" || strings.IndexFunc(c, unicode.IsSpace) >= 0 {
			continue
		}
		out = append(out, c)
	}
	return out
}

// ─────────────────────────────────────────────────────────────────────────────
// Manner swap
// ─────────────────────────────────────────────────────────────────────────────

// confusedNumerals covers the one word family the letter table cannot
// express.
var confusedNumerals = map[string][]string{
	"two": {"too", "to"},
	"too": {"two", "to"},
	"to":  {"two", "too"},
}

// MannerSwap substitutes one letter or letter cluster inside a word using a
// [MannerTable].
type MannerSwap struct {
	// Table supplies substitutions. Nil selects [DefaultMannerTable].
	Table *MannerTable
}

// Name implements [Operation].
func (*MannerSwap) Name() OpName { return OpManner }

// Apply implements [Operation].
func (m *MannerSwap) Apply(_ context.Context, s *Sentence, rng Rand) bool {
	slot, ok := findSlot(s, OpManner, rng, m.CanSwap)
	if !ok {
		return false
	}
	out, ok := m.Swap(s.Token(slot).Text, rng)
	if !ok {
		return false
	}
	s.replace(slot, out)
	return true
}

func (m *MannerSwap) table() *MannerTable {
	if m.Table == nil {
		return DefaultMannerTable
	}
	return m.Table
}

// CanSwap reports whether some choice of bigram lets [MannerSwap.Swap]
// substitute inside word. A false result is permanent for that word.
func (m *MannerSwap) CanSwap(word string) bool {
	if _, ok := confusedNumerals[word]; ok {
		return true
	}
	table := m.table()
	letters := []rune(word)
	if len(letters) == 1 {
		_, ok := table.Candidates(word)
		return ok
	}
	for k := 0; k+1 < len(letters); k++ {
		if _, ok := table.Candidates(string(letters[k : k+2])); ok {
			return true
		}
		if _, ok := table.Candidates(string(letters[k+1])); ok {
			return true
		}
	}
	return false
}

// Swap returns word with one substitution applied.
//
// Single-letter words are looked up whole and may become the
// [DeletionToken]. Longer words pick one bigram: the bigram itself is tried
// as a table key first, then its second letter alone. Only the chosen bigram
// is considered. Inside a longer word the deletion token removes the matched
// letters; a swap that would leave nothing is rejected.
func (m *MannerSwap) Swap(word string, rng Rand) (string, bool) {
	if alts, ok := confusedNumerals[word]; ok {
		return pick(rng, alts), true
	}
	table := m.table()

	letters := []rune(word)
	switch len(letters) {
	case 0:
		return "", false
	case 1:
		c, ok := table.Candidates(word)
		if !ok {
			return "", false
		}
		return pick(rng, c), true
	}

	k := rng.IntN(len(letters) - 1)
	var (
		head []rune
		sub  string
	)
	if c, ok := table.Candidates(string(letters[k : k+2])); ok {
		head, sub = letters[:k], pick(rng, c)
	} else if c, ok := table.Candidates(string(letters[k+1])); ok {
		head, sub = letters[:k+1], pick(rng, c)
	} else {
		return "", false
	}
	if sub == DeletionToken {
		sub = ""
	}

	out := string(head) + sub + string(letters[k+2:])
	if out == "" {
		return "", false
	}
	return out, true
}
