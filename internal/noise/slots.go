package noise

// FindSlots reports which slots an operation of the given cost could claim.
// It returns a single index for cost 1, an ordered pair [lo, hi] with
// hi-lo == cost-1 for larger costs, and nil when nothing fits. Start
// positions are visited in a random order and the sentence is never
// modified.
func FindSlots(s *Sentence, cost int, rng Rand) []int {
	n := s.Len()
	if n == 0 || cost < 1 || s.Available() == 0 {
		return nil
	}
	gap := cost - 1
	for _, i := range rng.Perm(n) {
		if !s.IsAvailable(i) {
			continue
		}
		if gap == 0 {
			return []int{i}
		}
		if s.IsAvailable(i + gap) {
			return []int{i, i + gap}
		}
		if s.IsAvailable(i - gap) {
			return []int{i - gap, i}
		}
	}
	return nil
}

// findSlot returns one available slot for op, visiting slots in random
// order. Slots op was already excluded from are skipped, and a slot whose
// text fails eligible is excluded for op on the way, so one attempt never
// wastes itself on text the operation cannot edit.
func findSlot(s *Sentence, op OpName, rng Rand, eligible func(word string) bool) (int, bool) {
	n := s.Len()
	if n == 0 || s.Available() == 0 {
		return 0, false
	}
	for _, i := range rng.Perm(n) {
		if !s.IsAvailable(i) || s.Excluded(i, op) {
			continue
		}
		if !eligible(s.tokens[i].Text) {
			s.exclude(i, op)
			continue
		}
		return i, true
	}
	return 0, false
}
