// Package sqlite provides a SQLite-backed store.Store.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"math"
	"path/filepath"
	"strings"
	"time"

	"github.com/coder/quartz"
	msqlite "modernc.org/sqlite"
	sqlite3lib "modernc.org/sqlite/lib"

	"github.com/lox/scorepad/internal/gameid"
	"github.com/lox/scorepad/internal/round"
	"github.com/lox/scorepad/internal/store"
	"github.com/lox/scorepad/internal/store/sqlite/migrations"
)

// Store persists games and rounds in SQLite.
type Store struct {
	db    *sql.DB
	clock quartz.Clock
	ids   *gameid.Generator
}

// Option configures a Store.
type Option func(*Store)

// WithClock sets the clock used for created_at stamps.
func WithClock(clock quartz.Clock) Option {
	return func(s *Store) { s.clock = clock }
}

// WithIDGenerator sets the game ID generator.
func WithIDGenerator(g *gameid.Generator) Option {
	return func(s *Store) { s.ids = g }
}

func toMillis(value time.Time) int64 {
	return value.UTC().UnixMilli()
}

func fromMillis(value int64) time.Time {
	return time.UnixMilli(value).UTC()
}

// Open opens the database at path and applies embedded migrations.
func Open(ctx context.Context, path string, opts ...Option) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("storage path is required")
	}
	dsn := "file:" + filepath.Clean(path) +
		"?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	// A single connection keeps round sequencing serialized.
	db.SetMaxOpenConns(1)
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}
	if err := applyMigrations(ctx, db, migrations.FS); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	s := &Store{db: db, clock: quartz.NewReal(), ids: gameid.NewGenerator(nil)}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Close closes the database handle.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// UpsertProfile creates or updates a profile.
func (s *Store) UpsertProfile(ctx context.Context, p store.Profile) error {
	id := strings.TrimSpace(p.ID)
	name := strings.TrimSpace(p.Name)
	if id == "" {
		return fmt.Errorf("profile id is required")
	}
	if name == "" {
		return fmt.Errorf("profile name is required")
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO profiles (id, name, email, user_id) VALUES (?, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET name = excluded.name, email = excluded.email, user_id = excluded.user_id`,
		id, name, strings.TrimSpace(p.Email), strings.TrimSpace(p.UserID),
	)
	if err != nil {
		return fmt.Errorf("upsert profile: %w", err)
	}
	return nil
}

// Profiles lists every profile ordered by name.
func (s *Store) Profiles(ctx context.Context) ([]store.Profile, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, name, email, user_id FROM profiles ORDER BY name, id`)
	if err != nil {
		return nil, fmt.Errorf("list profiles: %w", err)
	}
	defer rows.Close()

	var out []store.Profile
	for rows.Next() {
		var p store.Profile
		if err := rows.Scan(&p.ID, &p.Name, &p.Email, &p.UserID); err != nil {
			return nil, fmt.Errorf("scan profile: %w", err)
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// CreateGame inserts a game with its four seats.
func (s *Store) CreateGame(ctx context.Context, g store.NewGame) (store.Game, error) {
	gameType := strings.TrimSpace(g.GameType)
	if gameType == "" {
		return store.Game{}, fmt.Errorf("game type is required")
	}
	for _, k := range round.Keys {
		if strings.TrimSpace(g.Seats[k]) == "" {
			return store.Game{}, fmt.Errorf("seat %s is required", k)
		}
	}

	game := store.Game{
		ID:          s.ids.Generate(),
		GameType:    gameType,
		SlackThread: strings.TrimSpace(g.SlackThread),
		Seats:       make(map[round.PlayerKey]string, round.NumPlayers),
		CreatedAt:   fromMillis(toMillis(s.clock.Now())),
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return store.Game{}, fmt.Errorf("begin create game: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO games (id, game_type, is_ended, slack_thread, created_at) VALUES (?, ?, 0, ?, ?)`,
		game.ID, game.GameType, game.SlackThread, toMillis(game.CreatedAt),
	); err != nil {
		return store.Game{}, fmt.Errorf("insert game: %w", err)
	}
	for _, k := range round.Keys {
		profileID := strings.TrimSpace(g.Seats[k])
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO game_seats (game_id, seat, profile_id) VALUES (?, ?, ?)`,
			game.ID, k.String(), profileID,
		); err != nil {
			if isForeignKeyViolation(err) {
				return store.Game{}, fmt.Errorf("seat %s profile %q: %w", k, profileID, store.ErrNotFound)
			}
			return store.Game{}, fmt.Errorf("insert seat %s: %w", k, err)
		}
		game.Seats[k] = profileID
	}
	if err := tx.Commit(); err != nil {
		return store.Game{}, fmt.Errorf("commit create game: %w", err)
	}
	return game, nil
}

type querier interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

// Game returns a game with its seats.
func (s *Store) Game(ctx context.Context, id string) (store.Game, error) {
	return loadGame(ctx, s.db, id)
}

func loadGame(ctx context.Context, q querier, id string) (store.Game, error) {
	var (
		g         store.Game
		ended     int
		createdAt int64
	)
	err := q.QueryRowContext(ctx,
		`SELECT id, game_type, is_ended, slack_thread, created_at FROM games WHERE id = ?`, id,
	).Scan(&g.ID, &g.GameType, &ended, &g.SlackThread, &createdAt)
	if errors.Is(err, sql.ErrNoRows) {
		return store.Game{}, store.ErrNotFound
	}
	if err != nil {
		return store.Game{}, fmt.Errorf("get game: %w", err)
	}
	g.IsEnded = ended != 0
	g.CreatedAt = fromMillis(createdAt)

	seats, err := loadSeats(ctx, q, id)
	if err != nil {
		return store.Game{}, err
	}
	g.Seats = seats
	return g, nil
}

func loadSeats(ctx context.Context, q querier, gameID string) (map[round.PlayerKey]string, error) {
	rows, err := q.QueryContext(ctx, `SELECT seat, profile_id FROM game_seats WHERE game_id = ?`, gameID)
	if err != nil {
		return nil, fmt.Errorf("list seats: %w", err)
	}
	defer rows.Close()

	seats := make(map[round.PlayerKey]string, round.NumPlayers)
	for rows.Next() {
		var seat, profileID string
		if err := rows.Scan(&seat, &profileID); err != nil {
			return nil, fmt.Errorf("scan seat: %w", err)
		}
		k, err := round.ParsePlayerKey(seat)
		if err != nil {
			return nil, err
		}
		seats[k] = profileID
	}
	return seats, rows.Err()
}

// RecordRound implements round.Recorder. Rounds are numbered per game.
func (s *Store) RecordRound(ctx context.Context, rec round.RoundRecord) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin record round: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	var ended int
	err = tx.QueryRowContext(ctx, `SELECT is_ended FROM games WHERE id = ?`, rec.GameID).Scan(&ended)
	if errors.Is(err, sql.ErrNoRows) {
		return store.ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("get game: %w", err)
	}
	if ended != 0 {
		return store.ErrGameEnded
	}

	var seq int
	if err := tx.QueryRowContext(ctx,
		`SELECT COALESCE(MAX(seq), 0) + 1 FROM rounds WHERE game_id = ?`, rec.GameID,
	).Scan(&seq); err != nil {
		return fmt.Errorf("next round seq: %w", err)
	}

	recordedAt := rec.RecordedAt
	if recordedAt.IsZero() {
		recordedAt = s.clock.Now()
	}
	for _, k := range round.Keys {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO rounds (game_id, seq, seat, profile_id, points, recorded_at) VALUES (?, ?, ?, ?, ?, ?)`,
			rec.GameID, seq, k.String(), rec.Seating[k], rec.Round.Get(k), toMillis(recordedAt),
		); err != nil {
			return fmt.Errorf("insert round seat %s: %w", k, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit round: %w", err)
	}
	return nil
}

// Rounds returns the recorded rounds of a game in order.
func (s *Store) Rounds(ctx context.Context, gameID string) ([]store.RoundRow, error) {
	if _, err := loadGame(ctx, s.db, gameID); err != nil {
		return nil, err
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT seq, seat, points, recorded_at FROM rounds WHERE game_id = ? ORDER BY seq, seat`, gameID)
	if err != nil {
		return nil, fmt.Errorf("list rounds: %w", err)
	}
	defer rows.Close()

	var out []store.RoundRow
	for rows.Next() {
		var (
			seq, points int
			seat        string
			recordedAt  int64
		)
		if err := rows.Scan(&seq, &seat, &points, &recordedAt); err != nil {
			return nil, fmt.Errorf("scan round: %w", err)
		}
		k, err := round.ParsePlayerKey(seat)
		if err != nil {
			return nil, err
		}
		if n := len(out); n == 0 || out[n-1].Seq != seq {
			out = append(out, store.RoundRow{Seq: seq, RecordedAt: fromMillis(recordedAt)})
		}
		out[len(out)-1].Round[k] = points
	}
	return out, rows.Err()
}

// EndGame sums each seated profile's rounds into profile_points and marks
// the game ended.
func (s *Store) EndGame(ctx context.Context, id string) ([]store.PlayerPoints, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin end game: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	game, err := loadGame(ctx, tx, id)
	if err != nil {
		return nil, err
	}
	if game.IsEnded {
		return nil, store.ErrGameEnded
	}

	rows, err := tx.QueryContext(ctx,
		`SELECT gs.profile_id, p.name, COALESCE(SUM(r.points), 0)
		   FROM game_seats gs
		   JOIN profiles p ON p.id = gs.profile_id
		   LEFT JOIN rounds r ON r.game_id = gs.game_id AND r.seat = gs.seat
		  WHERE gs.game_id = ?
		  GROUP BY gs.profile_id, p.name
		  ORDER BY MIN(gs.seat)`, id)
	if err != nil {
		return nil, fmt.Errorf("sum rounds: %w", err)
	}
	var totals []store.PlayerPoints
	for rows.Next() {
		var pp store.PlayerPoints
		if err := rows.Scan(&pp.ProfileID, &pp.Name, &pp.Points); err != nil {
			rows.Close()
			return nil, fmt.Errorf("scan total: %w", err)
		}
		totals = append(totals, pp)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, err
	}
	rows.Close()

	now := toMillis(s.clock.Now())
	for _, pp := range totals {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO profile_points (game_id, profile_id, points, created_at) VALUES (?, ?, ?, ?)`,
			id, pp.ProfileID, pp.Points, now,
		); err != nil {
			return nil, fmt.Errorf("insert profile points: %w", err)
		}
	}
	if _, err := tx.ExecContext(ctx, `UPDATE games SET is_ended = 1 WHERE id = ?`, id); err != nil {
		return nil, fmt.Errorf("mark game ended: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit end game: %w", err)
	}
	return totals, nil
}

// DeleteGame removes a game and everything recorded against it.
func (s *Store) DeleteGame(ctx context.Context, id string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin delete game: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	for _, stmt := range []string{
		`DELETE FROM profile_points WHERE game_id = ?`,
		`DELETE FROM rounds WHERE game_id = ?`,
		`DELETE FROM game_seats WHERE game_id = ?`,
	} {
		if _, err := tx.ExecContext(ctx, stmt, id); err != nil {
			return fmt.Errorf("delete game rows: %w", err)
		}
	}
	res, err := tx.ExecContext(ctx, `DELETE FROM games WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete game: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return store.ErrNotFound
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit delete game: %w", err)
	}
	return nil
}

func rangeBounds(q store.GameQuery) (int64, int64) {
	from, to := int64(math.MinInt64), int64(math.MaxInt64)
	if !q.From.IsZero() {
		from = toMillis(q.From)
	}
	if !q.To.IsZero() {
		to = toMillis(q.To)
	}
	return from, to
}

// GamesByType lists games of a type created in range, oldest first, with
// their final point rows.
func (s *Store) GamesByType(ctx context.Context, q store.GameQuery) ([]store.GameWithPoints, error) {
	from, to := rangeBounds(q)
	rows, err := s.db.QueryContext(ctx,
		`SELECT id FROM games WHERE game_type = ? AND created_at >= ? AND created_at <= ? ORDER BY created_at, id`,
		q.GameType, from, to)
	if err != nil {
		return nil, fmt.Errorf("list games: %w", err)
	}
	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			rows.Close()
			return nil, fmt.Errorf("scan game id: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, err
	}
	rows.Close()

	out := make([]store.GameWithPoints, 0, len(ids))
	for _, id := range ids {
		game, err := loadGame(ctx, s.db, id)
		if err != nil {
			return nil, err
		}
		points, err := s.gamePoints(ctx, id)
		if err != nil {
			return nil, err
		}
		out = append(out, store.GameWithPoints{Game: game, Points: points})
	}
	return out, nil
}

func (s *Store) gamePoints(ctx context.Context, gameID string) ([]store.PlayerPoints, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT pp.profile_id, p.name, pp.points
		   FROM profile_points pp JOIN profiles p ON p.id = pp.profile_id
		  WHERE pp.game_id = ?
		  ORDER BY p.name`, gameID)
	if err != nil {
		return nil, fmt.Errorf("list game points: %w", err)
	}
	defer rows.Close()

	var out []store.PlayerPoints
	for rows.Next() {
		var pp store.PlayerPoints
		if err := rows.Scan(&pp.ProfileID, &pp.Name, &pp.Points); err != nil {
			return nil, fmt.Errorf("scan game points: %w", err)
		}
		out = append(out, pp)
	}
	return out, rows.Err()
}

// ReportByDate sums final points per profile over games of a type in range.
func (s *Store) ReportByDate(ctx context.Context, q store.GameQuery) ([]store.NamePoints, error) {
	from, to := rangeBounds(q)
	rows, err := s.db.QueryContext(ctx,
		`SELECT p.name, SUM(pp.points)
		   FROM profile_points pp
		   JOIN games g ON g.id = pp.game_id
		   JOIN profiles p ON p.id = pp.profile_id
		  WHERE g.game_type = ? AND g.created_at >= ? AND g.created_at <= ?
		  GROUP BY pp.profile_id, p.name
		  ORDER BY SUM(pp.points) DESC, p.name`,
		q.GameType, from, to)
	if err != nil {
		return nil, fmt.Errorf("report by date: %w", err)
	}
	defer rows.Close()

	var out []store.NamePoints
	for rows.Next() {
		var np store.NamePoints
		if err := rows.Scan(&np.Name, &np.Point); err != nil {
			return nil, fmt.Errorf("scan report row: %w", err)
		}
		out = append(out, np)
	}
	return out, rows.Err()
}

// ReportByUser lists per-game totals for the profile matching ref, which is
// an email when it contains "@" and an external user ID otherwise.
func (s *Store) ReportByUser(ctx context.Context, ref string) ([]store.UserGamePoint, error) {
	ref = strings.TrimSpace(ref)
	column := "user_id"
	if strings.Contains(ref, "@") {
		column = "email"
	}
	var profileID string
	err := s.db.QueryRowContext(ctx,
		`SELECT id FROM profiles WHERE `+column+` = ? AND `+column+` != '' LIMIT 1`, ref,
	).Scan(&profileID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find profile: %w", err)
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT g.id, g.game_type, SUM(pp.points), g.created_at
		   FROM profile_points pp JOIN games g ON g.id = pp.game_id
		  WHERE pp.profile_id = ?
		  GROUP BY g.id, g.game_type, g.created_at
		  ORDER BY g.created_at, g.id`, profileID)
	if err != nil {
		return nil, fmt.Errorf("report by user: %w", err)
	}
	defer rows.Close()

	var out []store.UserGamePoint
	for rows.Next() {
		var (
			ugp       store.UserGamePoint
			createdAt int64
		)
		if err := rows.Scan(&ugp.GameID, &ugp.GameType, &ugp.Point, &createdAt); err != nil {
			return nil, fmt.Errorf("scan user report row: %w", err)
		}
		ugp.GameDate = fromMillis(createdAt)
		out = append(out, ugp)
	}
	return out, rows.Err()
}

func isForeignKeyViolation(err error) bool {
	var sqliteErr *msqlite.Error
	if errors.As(err, &sqliteErr) {
		return sqliteErr.Code() == sqlite3lib.SQLITE_CONSTRAINT_FOREIGNKEY
	}
	return strings.Contains(strings.ToLower(err.Error()), "foreign key constraint failed")
}

var _ store.Store = (*Store)(nil)
