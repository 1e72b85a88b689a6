// Package shorthand reads free-text round notes such as "an 5, binh -5, chi 0".
//
// Text is a sequence of <player> <integer> pairs. A player is referenced by
// seat letter, full display name, first name, or an unambiguous name prefix.
// Names are compared after folding case and Vietnamese diacritics, so
// "Đức" and "duc" match. A bare list of up to four integers is assigned to
// seats in A, B, C, D order.
package shorthand

import (
	"strconv"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"github.com/lox/scorepad/internal/round"
)

// Parse implements round.Parser.
func Parse(text string, dir round.Directory) (round.PartialRound, bool) {
	fields := tokenize(text)
	if len(fields) == 0 {
		return round.PartialRound{}, false
	}

	if p, ok := parsePositional(fields); ok {
		return p, true
	}

	idx := newIndex(dir)
	var (
		out   round.PartialRound
		words []string
		found bool
	)
	for _, f := range fields {
		v, isNum := parseInt(f)
		if !isNum {
			words = append(words, f)
			continue
		}
		if len(words) == 0 {
			return round.PartialRound{}, false
		}
		k, ok := idx.resolve(strings.Join(words, " "))
		if !ok {
			return round.PartialRound{}, false
		}
		out = out.With(k, v)
		found = true
		words = words[:0]
	}
	if len(words) > 0 || !found {
		return round.PartialRound{}, false
	}
	return out, true
}

func tokenize(text string) []string {
	return strings.FieldsFunc(text, func(r rune) bool {
		switch r {
		case ',', ';', ':', '=', '|':
			return true
		}
		return unicode.IsSpace(r)
	})
}

func parsePositional(fields []string) (round.PartialRound, bool) {
	if len(fields) > round.NumPlayers {
		return round.PartialRound{}, false
	}
	var out round.PartialRound
	for i, f := range fields {
		v, ok := parseInt(f)
		if !ok {
			return round.PartialRound{}, false
		}
		out = out.With(round.Keys[i], v)
	}
	return out, true
}

func parseInt(s string) (int, bool) {
	s = strings.TrimPrefix(s, "+")
	if s == "" {
		return 0, false
	}
	v, err := strconv.Atoi(s)
	if err != nil || !round.InRange(v) {
		return 0, false
	}
	return v, true
}

type index struct {
	names [round.NumPlayers]string
}

func newIndex(dir round.Directory) index {
	var idx index
	if dir == nil {
		return idx
	}
	for _, k := range round.Keys {
		if name, ok := dir.DisplayName(k); ok {
			idx.names[k] = Fold(name)
		}
	}
	return idx
}

func (idx index) resolve(ref string) (round.PlayerKey, bool) {
	ref = Fold(ref)
	if ref == "" {
		return 0, false
	}
	if len(ref) == 1 {
		if k, err := round.ParsePlayerKey(ref); err == nil {
			return k, true
		}
	}

	matchers := []func(name string) bool{
		func(name string) bool { return name == ref },
		func(name string) bool {
			first, _, _ := strings.Cut(name, " ")
			return first == ref
		},
		func(name string) bool { return strings.HasPrefix(name, ref) },
	}
	for _, match := range matchers {
		hit, count := round.PlayerKey(0), 0
		for _, k := range round.Keys {
			if idx.names[k] != "" && match(idx.names[k]) {
				hit = k
				count++
			}
		}
		if count == 1 {
			return hit, true
		}
		if count > 1 {
			return 0, false
		}
	}
	return 0, false
}

// Fold lowercases s and strips diacritics for name comparison.
func Fold(s string) string {
	stripMarks := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	folded, _, err := transform.String(stripMarks, s)
	if err != nil {
		folded = s
	}
	folded = strings.Map(func(r rune) rune {
		switch r {
		case 'đ', 'Đ':
			return 'd'
		}
		return unicode.ToLower(r)
	}, folded)
	return strings.Join(strings.Fields(folded), " ")
}
