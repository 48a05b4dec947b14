package noise

import (
	"fmt"
	"iter"
	"slices"
)

// DeletionToken is the mapping candidate that removes the matched letters
// instead of substituting them.
const DeletionToken = " "

// Candidate groups shared by many table rows. Each group collects letters
// that are commonly confused because they share a manner of articulation.
var (
	plosives   = []string{"p", "b", "t", "d", "k", "g"}
	fricatives = []string{"f", "v", "s", "z", "j", "h"}
	liquids    = []string{"j", "y", "l", "r", "w"}
	nasals     = []string{"m", "n"}
)

// mannerRows lists every key of the default table exactly once.
var mannerRows = []struct {
	key        string
	candidates []string
}{
	// Single letters.
	{"a", []string{"i", "e", "u", "o"}},
	{"b", []string{"p", "t", "d", "k", "g"}},
	{"c", join(plosives, fricatives)},
	{"d", []string{"p", "b", "t", "k", "g"}},
	{"e", []string{"i", "a"}},
	{"f", []string{"v", "s", "z", "j", "h"}},
	{"g", []string{"p", "b", "t", "d", "k"}},
	{"h", []string{"f", "v", "s", "z", "j"}},
	{"i", []string{"e", "a"}},
	{"j", join([]string{"y", "l", "r", "w"}, fricatives)},
	{"k", []string{"p", "b", "t", "d", "g"}},
	{"l", []string{"j", "y", "r", "w"}},
	{"m", []string{"n"}},
	{"n", []string{"m"}},
	{"o", []string{"u", "a"}},
	{"p", []string{"b", "t", "d", "k", "g"}},
	{"q", plosives},
	{"r", []string{"j", "y", "l", "w"}},
	{"s", []string{"f", "v", "z", "j", "h"}},
	{"t", []string{"p", "b", "d", "k", "g"}},
	{"u", []string{"o", "a"}},
	{"v", []string{"f", "s", "z", "j", "h"}},
	{"w", []string{"j", "y", "l", "r"}},
	{"x", join(plosives, fricatives)},
	{"y", []string{"j", "l", "r", "w"}},
	{"z", []string{"f", "v", "s", "j", "h"}},

	// Plosive clusters.
	{"bb", plosives},
	{"dd", plosives},
	{"pp", plosives},
	{"tt", plosives},
	{"ht", plosives},

	// Fricative clusters.
	{"ch", fricatives},
	{"ff", fricatives},
	{"ph", fricatives},
	{"gh", fricatives},
	{"lf", fricatives},
	{"ft", fricatives},
	{"wh", fricatives},
	{"dg", fricatives},
	{"gg", fricatives},
	{"ss", fricatives},
	{"sc", fricatives},
	{"th", fricatives},
	{"zz", fricatives},
	{"cc", join(fricatives, plosives)},

	// Liquid clusters.
	{"ll", liquids},
	{"rr", liquids},
	{"wr", liquids},
	{"rh", liquids},

	// Nasal clusters.
	{"mm", nasals},
	{"mb", nasals},
	{"lm", nasals},
	{"nn", nasals},
	{"kn", nasals},
	{"gn", nasals},
	{"pn", nasals},

	// Vowel clusters.
	{"ai", []string{"i", "e", "a"}},
	{"ea", []string{"ay", "ae", "ei", "eo", "a"}},
	{"ui", []string{"i"}},
	{"oo", []string{"u", "ou"}},
	{"ou", []string{"u", "oo"}},
	{"eu", []string{"u"}},
}

// MannerTable maps a one- or two-letter cluster to the clusters it may be
// confused with. It is immutable after construction and safe for concurrent
// reads.
type MannerTable struct {
	rows map[string][]string
}

// DefaultMannerTable is the table used when a [Noiser] is not given one.
// Every row also allows the [DeletionToken].
var DefaultMannerTable = mustBuildTable()

func mustBuildTable() *MannerTable {
	t, err := NewMannerTable(func(yield func(string, []string) bool) {
		for _, r := range mannerRows {
			if !yield(r.key, append(slices.Clone(r.candidates), DeletionToken)) {
				return
			}
		}
	})
	if err != nil {
		panic("noise: " + err.Error())
	}
	return t
}

// NewMannerTable builds a table from rows. A key may appear only once; a
// repeated key is rejected rather than silently overwritten.
func NewMannerTable(rows iter.Seq2[string, []string]) (*MannerTable, error) {
	t := &MannerTable{rows: make(map[string][]string)}
	for key, candidates := range rows {
		if n := len([]rune(key)); n < 1 || n > 2 {
			return nil, fmt.Errorf("manner table: key %q must be one or two letters", key)
		}
		if _, dup := t.rows[key]; dup {
			return nil, fmt.Errorf("manner table: duplicate key %q", key)
		}
		if len(candidates) == 0 {
			return nil, fmt.Errorf("manner table: key %q has no candidates", key)
		}
		t.rows[key] = slices.Clone(candidates)
	}
	return t, nil
}

// Candidates returns the substitutions for key and whether key is present.
// The returned slice must not be modified.
func (t *MannerTable) Candidates(key string) ([]string, bool) {
	c, ok := t.rows[key]
	return c, ok
}

// Len returns the number of keys in the table.
func (t *MannerTable) Len() int { return len(t.rows) }

func join(groups ...[]string) []string {
	var out []string
	for _, g := range groups {
		out = append(out, g...)
	}
	return out
}
