package dataset

// Permuter supplies random permutations. *math/rand/v2.Rand satisfies it.
type Permuter interface {
	Perm(n int) []int
}

// Split moves int(len(pairs) × fraction) randomly chosen pairs into split
// and returns the others as rest. Both keep the input order. fraction is
// clamped to [0, 1].
func Split(pairs []Pair, fraction float64, rng Permuter) (rest, split []Pair) {
	fraction = min(max(fraction, 0), 1)
	k := int(float64(len(pairs)) * fraction)
	if k == 0 {
		return pairs, nil
	}

	chosen := make([]bool, len(pairs))
	for _, i := range rng.Perm(len(pairs))[:k] {
		chosen[i] = true
	}
	rest = make([]Pair, 0, len(pairs)-k)
	split = make([]Pair, 0, k)
	for i, p := range pairs {
		if chosen[i] {
			split = append(split, p)
		} else {
			rest = append(rest, p)
		}
	}
	return rest, split
}
