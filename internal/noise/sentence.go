package noise

import "strings"

// Kind is the lifecycle state of a single token slot.
type Kind int

const (
	// KindOriginal marks a slot that still holds unedited input text and may
	// be claimed by an edit operation.
	KindOriginal Kind = iota

	// KindReplaced marks a slot whose text was written by an edit operation.
	KindReplaced

	// KindConsumed marks a slot whose original text was absorbed into a
	// neighbouring slot. It contributes nothing to the merged output.
	KindConsumed
)

// String returns the human-readable name of the kind.
func (k Kind) String() string {
	switch k {
	case KindOriginal:
		return "original"
	case KindReplaced:
		return "replaced"
	case KindConsumed:
		return "consumed"
	default:
		return "unknown"
	}
}

// Token is one slot of a [Sentence].
type Token struct {
	Kind Kind
	Text string
}

// Sentence is the mutable editing state for one input line. The number of
// slots is fixed at construction; edit operations only change slot kinds and
// texts.
type Sentence struct {
	tokens []Token

	// excluded records slots an operation has found it can never edit.
	excluded map[slotOp]struct{}
}

type slotOp struct {
	slot int
	op   OpName
}

// NewSentence returns a sentence whose slots hold words as original text.
func NewSentence(words []string) *Sentence {
	s := &Sentence{tokens: make([]Token, len(words))}
	for i, w := range words {
		s.tokens[i] = Token{Kind: KindOriginal, Text: w}
	}
	return s
}

// Len returns the number of slots.
func (s *Sentence) Len() int { return len(s.tokens) }

// Token returns the slot at i.
func (s *Sentence) Token(i int) Token { return s.tokens[i] }

// IsAvailable reports whether slot i still holds original, non-empty text.
func (s *Sentence) IsAvailable(i int) bool {
	return i >= 0 && i < len(s.tokens) &&
		s.tokens[i].Kind == KindOriginal && s.tokens[i].Text != ""
}

// Available returns the number of slots an edit operation could still claim.
func (s *Sentence) Available() int {
	n := 0
	for i := range s.tokens {
		if s.IsAvailable(i) {
			n++
		}
	}
	return n
}

// Excluded reports whether op has given up on slot i. Other operations may
// still claim it.
func (s *Sentence) Excluded(i int, op OpName) bool {
	_, ok := s.excluded[slotOp{i, op}]
	return ok
}

// exclude stops op from being offered slot i again.
func (s *Sentence) exclude(i int, op OpName) {
	if s.excluded == nil {
		s.excluded = make(map[slotOp]struct{})
	}
	s.excluded[slotOp{i, op}] = struct{}{}
}

// replace writes text into slot i.
func (s *Sentence) replace(i int, text string) {
	s.tokens[i] = Token{Kind: KindReplaced, Text: text}
}

// consume drops slot i from the merged output.
func (s *Sentence) consume(i int) {
	s.tokens[i] = Token{Kind: KindConsumed}
}

// Merge flattens the sentence into a single line. Replaced slots contribute
// their new text, original slots their input text, and consumed slots
// nothing. Whitespace runs, including those introduced by deletion
// candidates, collapse to a single space.
func (s *Sentence) Merge() string {
	var b strings.Builder
	for _, t := range s.tokens {
		if t.Kind == KindConsumed {
			continue
		}
		b.WriteString(t.Text)
		b.WriteByte(' ')
	}
	return strings.Join(strings.Fields(b.String()), " ")
}
