// Package history exports a game's rounds as a sectioned TOML file:
//
//	[game]
//	id = "..."
//	players = ["An", "Binh", "Chi", "Dung"]
//
//	[round_1]
//	seq = 1
//	A = 5
//	...
package history

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/lox/scorepad/internal/round"
	"github.com/lox/scorepad/internal/store"
)

const sectionPrefix = "round_"

// Meta describes the exported game.
type Meta struct {
	ID         string    `toml:"id"`
	GameType   string    `toml:"game_type"`
	Ended      bool      `toml:"ended"`
	CreatedAt  time.Time `toml:"created_at"`
	Players    []string  `toml:"players"`
	ProfileIDs []string  `toml:"profile_ids"`
}

// Entry is one recorded round.
type Entry struct {
	Seq        int       `toml:"seq"`
	RecordedAt time.Time `toml:"recorded_at"`
	A          int       `toml:"A"`
	B          int       `toml:"B"`
	C          int       `toml:"C"`
	D          int       `toml:"D"`
	Winner     string    `toml:"winner"`
}

// Round returns the entry's values.
func (e Entry) Round() round.Round {
	return round.Round{e.A, e.B, e.C, e.D}
}

// History is a game with its rounds in sequence order.
type History struct {
	Game   Meta
	Rounds []Entry
}

// Totals sums every round per seat.
func (h History) Totals() round.Round {
	var out round.Round
	for _, e := range h.Rounds {
		r := e.Round()
		for _, k := range round.Keys {
			out[k] += r[k]
		}
	}
	return out
}

// Build assembles a History from stored rows.
func Build(game store.Game, dir round.Directory, rows []store.RoundRow) History {
	h := History{
		Game: Meta{
			ID:         game.ID,
			GameType:   game.GameType,
			Ended:      game.IsEnded,
			CreatedAt:  game.CreatedAt.UTC(),
			Players:    make([]string, 0, round.NumPlayers),
			ProfileIDs: make([]string, 0, round.NumPlayers),
		},
		Rounds: make([]Entry, 0, len(rows)),
	}
	for _, k := range round.Keys {
		h.Game.Players = append(h.Game.Players, round.DisplayName(dir, k))
		h.Game.ProfileIDs = append(h.Game.ProfileIDs, game.Seats[k])
	}
	for _, row := range rows {
		h.Rounds = append(h.Rounds, Entry{
			Seq:        row.Seq,
			RecordedAt: row.RecordedAt.UTC(),
			A:          row.Round[round.A],
			B:          row.Round[round.B],
			C:          row.Round[round.C],
			D:          row.Round[round.D],
			Winner:     round.DisplayName(dir, round.Winner(row.Round)),
		})
	}
	return h
}

// Encode writes h as TOML with one section per round.
func Encode(w io.Writer, h History) error {
	enc := toml.NewEncoder(w)
	enc.Indent = ""
	if err := enc.Encode(struct {
		Game Meta `toml:"game"`
	}{h.Game}); err != nil {
		return fmt.Errorf("history: encode game: %w", err)
	}
	for _, e := range h.Rounds {
		if _, err := fmt.Fprintf(w, "\n[%s%d]\n", sectionPrefix, e.Seq); err != nil {
			return err
		}
		if err := toml.NewEncoder(w).Encode(e); err != nil {
			return fmt.Errorf("history: encode round %d: %w", e.Seq, err)
		}
	}
	return nil
}

// Decode reads a file produced by Encode. Rounds come back in seq order.
func Decode(r io.Reader) (History, error) {
	var sections map[string]toml.Primitive
	md, err := toml.NewDecoder(r).Decode(&sections)
	if err != nil {
		return History{}, fmt.Errorf("history: decode: %w", err)
	}

	var h History
	game, ok := sections["game"]
	if !ok {
		return History{}, fmt.Errorf("history: missing [game] section")
	}
	if err := md.PrimitiveDecode(game, &h.Game); err != nil {
		return History{}, fmt.Errorf("history: decode game: %w", err)
	}

	for key, prim := range sections {
		if !strings.HasPrefix(key, sectionPrefix) {
			continue
		}
		var e Entry
		if err := md.PrimitiveDecode(prim, &e); err != nil {
			return History{}, fmt.Errorf("history: decode %s: %w", key, err)
		}
		h.Rounds = append(h.Rounds, e)
	}
	sort.Slice(h.Rounds, func(i, j int) bool { return h.Rounds[i].Seq < h.Rounds[j].Seq })
	return h, nil
}

// WriteFile encodes h to path. Readers never observe a partial file.
func WriteFile(path string, h History) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), filepath.Base(path)+".tmp.*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpPath := tmp.Name()
	defer func() {
		if tmp != nil {
			_ = tmp.Close()
			_ = os.Remove(tmpPath)
		}
	}()

	if err := Encode(tmp, h); err != nil {
		return err
	}
	if err := tmp.Sync(); err != nil {
		return fmt.Errorf("sync temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp file: %w", err)
	}
	tmp = nil

	if err := os.Chmod(tmpPath, 0o644); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("set permissions: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("rename temp file: %w", err)
	}
	return nil
}

// ReadFile decodes the history stored at path.
func ReadFile(path string) (History, error) {
	f, err := os.Open(path)
	if err != nil {
		return History{}, err
	}
	defer f.Close()
	return Decode(f)
}
