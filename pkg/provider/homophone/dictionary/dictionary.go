// Package dictionary implements [homophone.Provider] with an in-memory word
// index. Homophones come from two sources:
//
//  1. Explicit groups: sets of words declared to sound alike
//     (e.g. "sent scent cent"). Every member of a group is a homophone of
//     every other member.
//
//  2. Phonetic derivation: plain word lists are indexed by their Double
//     Metaphone codes. Two words sharing a code are treated as homophones when
//     their Jaro-Winkler similarity also meets the configured threshold, which
//     filters out the many distant words a coarse phonetic code collapses
//     together ("night" and "knot").
//
// Results are returned sorted, explicit group members first, so that a seeded
// caller always picks the same candidate.
package dictionary

import (
	"context"
	"slices"
	"strings"
	"sync"

	"github.com/antzucaro/matchr"

	"github.com/rcoulter13/phonoise/pkg/provider/homophone"
)

const defaultSimilarity = 0.80

var _ homophone.Provider = (*Dictionary)(nil)

// Option is a functional option for configuring a [Dictionary].
type Option func(*Dictionary)

// WithSimilarity sets the minimum Jaro-Winkler score a phonetically-derived
// candidate needs. Default: 0.80.
func WithSimilarity(threshold float64) Option {
	return func(d *Dictionary) {
		d.similarity = threshold
	}
}

// WithMaxResults caps the number of homophones returned per lookup. Zero
// means unlimited.
func WithMaxResults(n int) Option {
	return func(d *Dictionary) {
		if n >= 0 {
			d.maxResults = n
		}
	}
}

// Dictionary is an in-memory homophone index. It is safe for concurrent use;
// words may be added while lookups are in flight.
type Dictionary struct {
	similarity float64
	maxResults int

	mu     sync.RWMutex
	groups map[string]map[string]struct{} // word -> explicit homophones
	codes  map[string]map[string]struct{} // metaphone code -> words
}

// New returns an empty [Dictionary].
func New(opts ...Option) *Dictionary {
	d := &Dictionary{
		similarity: defaultSimilarity,
		groups:     make(map[string]map[string]struct{}),
		codes:      make(map[string]map[string]struct{}),
	}
	for _, o := range opts {
		o(d)
	}
	return d
}

// AddGroup declares words as mutual homophones. Words are lowercased;
// groups with fewer than two distinct words are ignored. Adding a word to
// several groups unions them for that word.
func (d *Dictionary) AddGroup(words ...string) {
	group := normalize(words)
	if len(group) < 2 {
		return
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	for _, w := range group {
		set, ok := d.groups[w]
		if !ok {
			set = make(map[string]struct{}, len(group)-1)
			d.groups[w] = set
		}
		for _, other := range group {
			if other != w {
				set[other] = struct{}{}
			}
		}
	}
}

// AddWords indexes words for phonetic derivation.
func (d *Dictionary) AddWords(words ...string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	for _, w := range normalize(words) {
		for _, code := range codes(w) {
			set, ok := d.codes[code]
			if !ok {
				set = make(map[string]struct{})
				d.codes[code] = set
			}
			set[w] = struct{}{}
		}
	}
}

// Len returns the number of distinct words known to the dictionary.
func (d *Dictionary) Len() int {
	d.mu.RLock()
	defer d.mu.RUnlock()
	seen := make(map[string]struct{}, len(d.groups))
	for w := range d.groups {
		seen[w] = struct{}{}
	}
	for _, set := range d.codes {
		for w := range set {
			seen[w] = struct{}{}
		}
	}
	return len(seen)
}

// Homophones implements [homophone.Provider].
func (d *Dictionary) Homophones(ctx context.Context, word string) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	word = strings.ToLower(strings.TrimSpace(word))
	if word == "" {
		return nil, homophone.ErrNoHomophones
	}

	d.mu.RLock()
	explicit := sortedKeys(d.groups[word])
	derived := make(map[string]struct{})
	for _, code := range codes(word) {
		for cand := range d.codes[code] {
			if cand == word {
				continue
			}
			if _, dup := d.groups[word][cand]; dup {
				continue
			}
			if matchr.JaroWinkler(word, cand, false) >= d.similarity {
				derived[cand] = struct{}{}
			}
		}
	}
	d.mu.RUnlock()

	out := append(explicit, sortedKeys(derived)...)
	if len(out) == 0 {
		return nil, homophone.ErrNoHomophones
	}
	if d.maxResults > 0 && len(out) > d.maxResults {
		out = out[:d.maxResults]
	}
	return out, nil
}

// codes returns the distinct, non-empty Double Metaphone codes for w.
func codes(w string) []string {
	primary, secondary := matchr.DoubleMetaphone(w)
	var out []string
	if primary != "" {
		out = append(out, primary)
	}
	if secondary != "" && secondary != primary {
		out = append(out, secondary)
	}
	return out
}

func normalize(words []string) []string {
	out := make([]string, 0, len(words))
	for _, w := range words {
		w = strings.ToLower(strings.TrimSpace(w))
		if w == "" || slices.Contains(out, w) {
			continue
		}
		out = append(out, w)
	}
	return out
}

func sortedKeys(set map[string]struct{}) []string {
	out := make([]string, 0, len(set))
	for k := range set {
		out = append(out, k)
	}
	slices.Sort(out)
	return out
}
