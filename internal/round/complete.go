package round

// Complete derives the last seat when exactly one is unset, assigning it the
// negated sum of the other three. Any other input, or one holding a value
// beyond MaxPoints, is returned unchanged. Legality is left to Validate.
func Complete(p PartialRound) PartialRound {
	unset := p.Unset()
	if len(unset) != 1 {
		return p
	}
	for _, k := range Keys {
		if v, ok := p.Get(k); ok && !InRange(v) {
			return p
		}
	}

	missing := unset[0]
	auto := 0
	for _, k := range Keys {
		if k == missing {
			continue
		}
		v, _ := p.Get(k)
		auto -= v
	}
	return p.With(missing, auto)
}
