package round

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
)

// NumPlayers is the fixed seat count of a round.
const NumPlayers = 4

// MaxPoints bounds the magnitude of a single seat value. Four bounded values
// cannot overflow when summed.
const MaxPoints = 100000

// InRange reports whether v is an acceptable seat value.
func InRange(v int) bool {
	return v >= -MaxPoints && v <= MaxPoints
}

// PlayerKey identifies one of the four seats.
type PlayerKey int

const (
	A PlayerKey = iota
	B
	C
	D
)

// Keys lists the seats in iteration order. Tie-breaks depend on this order.
var Keys = [NumPlayers]PlayerKey{A, B, C, D}

// Valid reports whether k is one of the four seats.
func (k PlayerKey) Valid() bool {
	return k >= A && k <= D
}

func (k PlayerKey) String() string {
	if !k.Valid() {
		return fmt.Sprintf("PlayerKey(%d)", int(k))
	}
	return string(rune('A' + int(k)))
}

// MarshalText encodes the key as its letter.
func (k PlayerKey) MarshalText() ([]byte, error) {
	if !k.Valid() {
		return nil, fmt.Errorf("round: invalid player key %d", int(k))
	}
	return []byte(k.String()), nil
}

// UnmarshalText decodes a key letter.
func (k *PlayerKey) UnmarshalText(text []byte) error {
	parsed, err := ParsePlayerKey(string(text))
	if err != nil {
		return err
	}
	*k = parsed
	return nil
}

// ParsePlayerKey parses "A".."D", case-insensitively.
func ParsePlayerKey(s string) (PlayerKey, error) {
	s = strings.TrimSpace(s)
	if len(s) != 1 {
		return 0, fmt.Errorf("round: unknown player key %q", s)
	}
	c := s[0]
	if c >= 'a' && c <= 'z' {
		c -= 'a' - 'A'
	}
	if c < 'A' || c > 'D' {
		return 0, fmt.Errorf("round: unknown player key %q", s)
	}
	return PlayerKey(c - 'A'), nil
}

// PartialRound holds the values typed so far. Each seat is either set to an
// integer or unset. The zero value has every seat unset.
type PartialRound struct {
	values [NumPlayers]int
	set    [NumPlayers]bool
}

// Get returns the value for k and whether it is set.
func (p PartialRound) Get(k PlayerKey) (int, bool) {
	if !k.Valid() {
		return 0, false
	}
	return p.values[k], p.set[k]
}

// With returns a copy of p with k set to v.
func (p PartialRound) With(k PlayerKey, v int) PartialRound {
	if !k.Valid() {
		return p
	}
	p.values[k] = v
	p.set[k] = true
	return p
}

// Without returns a copy of p with k unset.
func (p PartialRound) Without(k PlayerKey) PartialRound {
	if !k.Valid() {
		return p
	}
	p.values[k] = 0
	p.set[k] = false
	return p
}

// Unset returns the unset seats in key order.
func (p PartialRound) Unset() []PlayerKey {
	var keys []PlayerKey
	for _, k := range Keys {
		if !p.set[k] {
			keys = append(keys, k)
		}
	}
	return keys
}

// IsEmpty reports whether no seat is set.
func (p PartialRound) IsEmpty() bool {
	return len(p.Unset()) == NumPlayers
}

// Negate flips the sign of every set value. Unset seats stay unset.
func (p PartialRound) Negate() PartialRound {
	for _, k := range Keys {
		if p.set[k] {
			p.values[k] = -p.values[k]
		}
	}
	return p
}

// Round returns the values as a Round when all four seats are set. The
// result is not checked against the zero-sum rule; see Validate.
func (p PartialRound) Round() (Round, bool) {
	var r Round
	for _, k := range Keys {
		if !p.set[k] {
			return Round{}, false
		}
		r[k] = p.values[k]
	}
	return r, true
}

func (p PartialRound) String() string {
	parts := make([]string, 0, NumPlayers)
	for _, k := range Keys {
		if v, ok := p.Get(k); ok {
			parts = append(parts, fmt.Sprintf("%s=%d", k, v))
		} else {
			parts = append(parts, fmt.Sprintf("%s=_", k))
		}
	}
	return strings.Join(parts, " ")
}

// MarshalJSON encodes p as {"A":5,"B":null,...}.
func (p PartialRound) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, k := range Keys {
		if i > 0 {
			buf.WriteByte(',')
		}
		fmt.Fprintf(&buf, "%q:", k.String())
		if v, ok := p.Get(k); ok {
			fmt.Fprintf(&buf, "%d", v)
		} else {
			buf.WriteString("null")
		}
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON decodes an object keyed by seat letter. Missing and null
// seats are unset.
func (p *PartialRound) UnmarshalJSON(data []byte) error {
	var raw map[string]*int
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("round: decode partial round: %w", err)
	}
	var next PartialRound
	for name, v := range raw {
		k, err := ParsePlayerKey(name)
		if err != nil {
			return err
		}
		if v != nil {
			if !InRange(*v) {
				return fmt.Errorf("%w: seat %s = %d", ErrOutOfRange, k, *v)
			}
			next = next.With(k, *v)
		}
	}
	*p = next
	return nil
}

// Round is a finalized set of four point deltas indexed by PlayerKey.
type Round [NumPlayers]int

// Get returns the delta for k.
func (r Round) Get(k PlayerKey) int {
	if !k.Valid() {
		return 0
	}
	return r[k]
}

// Sum returns the total of all four deltas.
func (r Round) Sum() int {
	total := 0
	for _, v := range r {
		total += v
	}
	return total
}

// AllZero reports whether every delta is zero.
func (r Round) AllZero() bool {
	for _, v := range r {
		if v != 0 {
			return false
		}
	}
	return true
}

// Valid reports whether r sums to zero, is not the all-zero round and holds
// only values within MaxPoints.
func (r Round) Valid() bool {
	return Classify(r.Partial()) == nil
}

// Partial converts r back into a fully set PartialRound.
func (r Round) Partial() PartialRound {
	var p PartialRound
	for _, k := range Keys {
		p = p.With(k, r[k])
	}
	return p
}

// Map returns the deltas keyed by seat letter.
func (r Round) Map() map[string]int {
	m := make(map[string]int, NumPlayers)
	for _, k := range Keys {
		m[k.String()] = r[k]
	}
	return m
}

func (r Round) String() string {
	return r.Partial().String()
}

// MarshalJSON encodes r as {"A":5,"B":-5,...}.
func (r Round) MarshalJSON() ([]byte, error) {
	return r.Partial().MarshalJSON()
}

// UnmarshalJSON requires all four seats.
func (r *Round) UnmarshalJSON(data []byte) error {
	var p PartialRound
	if err := p.UnmarshalJSON(data); err != nil {
		return err
	}
	decoded, ok := p.Round()
	if !ok {
		return fmt.Errorf("round: decode round: missing seats %v", p.Unset())
	}
	*r = decoded
	return nil
}
