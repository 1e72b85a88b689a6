package round

import (
	"sort"
	"strconv"
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// UnknownPlayer is shown for seats the directory cannot resolve.
const UnknownPlayer = "Unknown"

// Directory resolves seats to player identities.
type Directory interface {
	// ProfileID returns the stable player identifier seated at k.
	ProfileID(k PlayerKey) (string, bool)
	// DisplayName returns the human-readable name seated at k.
	DisplayName(k PlayerKey) (string, bool)
}

const (
	msgResult = "Result: %s."
	msgPlus   = "%s: plus %d"
	msgMinus  = "%s: minus %d"
)

func init() {
	for _, entry := range []struct {
		tag      language.Tag
		key, val string
	}{
		{language.English, msgResult, "Result: %s."},
		{language.English, msgPlus, "%s: plus %d"},
		{language.English, msgMinus, "%s: minus %d"},
		{language.Vietnamese, msgResult, "Kết quả: %s."},
		{language.Vietnamese, msgPlus, "%s: cộng %d"},
		{language.Vietnamese, msgMinus, "%s: trừ %d"},
	} {
		if err := message.SetString(entry.tag, entry.key, entry.val); err != nil {
			panic(err)
		}
	}
}

// Standing is one seat's line in a summary.
type Standing struct {
	Key    PlayerKey `json:"key"`
	Name   string    `json:"name"`
	Points int       `json:"points"`
}

// DisplayName resolves k through dir, falling back to UnknownPlayer.
func DisplayName(dir Directory, k PlayerKey) string {
	if dir == nil {
		return UnknownPlayer
	}
	if name, ok := dir.DisplayName(k); ok && strings.TrimSpace(name) != "" {
		return name
	}
	return UnknownPlayer
}

// Standings orders the seats by ascending points. Equal points keep key order.
func Standings(r Round, dir Directory) []Standing {
	out := make([]Standing, 0, NumPlayers)
	for _, k := range Keys {
		out = append(out, Standing{Key: k, Name: DisplayName(dir, k), Points: r[k]})
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Points < out[j].Points
	})
	return out
}

// Winner returns the first seat, in key order, holding the maximum value.
func Winner(r Round) PlayerKey {
	best := A
	for _, k := range Keys[1:] {
		if r[k] > r[best] {
			best = k
		}
	}
	return best
}

// Summary renders standings as a narration sentence in the given locale.
func Summary(tag language.Tag, standings []Standing) string {
	p := message.NewPrinter(tag)
	parts := make([]string, 0, len(standings))
	for _, s := range standings {
		if s.Points >= 0 {
			parts = append(parts, p.Sprintf(msgPlus, s.Name, s.Points))
		} else {
			parts = append(parts, p.Sprintf(msgMinus, s.Name, -s.Points))
		}
	}
	return p.Sprintf(msgResult, strings.Join(parts, ", "))
}

// ChatText renders standings as "Name: points" pairs for chat delivery.
func ChatText(standings []Standing) string {
	parts := make([]string, 0, len(standings))
	for _, s := range standings {
		parts = append(parts, s.Name+": "+strconv.Itoa(s.Points))
	}
	return strings.Join(parts, ", ")
}
