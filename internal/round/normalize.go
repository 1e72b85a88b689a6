package round

// Parser extracts a raw round guess from free text. It returns false when
// nothing usable could be extracted.
type Parser func(text string, dir Directory) (PartialRound, bool)

// Normalized is the result of running shorthand text through a Normalizer.
type Normalized struct {
	// Parsed is false when the parser could not extract anything.
	Parsed bool
	// Partial holds the negated, auto-completed values. When Valid is false
	// this is what the user is left to correct.
	Partial PartialRound
	// Round is set when Valid is true.
	Round Round
	Valid bool
}

// Normalizer turns shorthand into signed round deltas. Shorthand records the
// amount deducted from each player, so every extracted value is negated
// before completion.
type Normalizer struct {
	parse Parser
}

// NewNormalizer wraps parse.
func NewNormalizer(parse Parser) *Normalizer {
	return &Normalizer{parse: parse}
}

// Normalize parses text, negates the extracted values and completes the
// round when exactly one seat is missing.
func (n *Normalizer) Normalize(text string, dir Directory) Normalized {
	if n == nil || n.parse == nil {
		return Normalized{}
	}
	raw, ok := n.parse(text, dir)
	if !ok || raw.IsEmpty() {
		return Normalized{}
	}

	next := Complete(raw.Negate())
	out := Normalized{Parsed: true, Partial: next}
	if r, ok := next.Round(); ok && r.Valid() {
		out.Round = r
		out.Valid = true
	}
	return out
}
