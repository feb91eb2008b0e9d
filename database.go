package main

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"wavesurvival/sim"
)

// ErrStatsNotFound is returned when a username has never submitted a score
var ErrStatsNotFound = errors.New("player stats not found")

// DB wraps the SQLite database connection
type DB struct {
	conn *sql.DB
}

// ScoreRow is one finished session
type ScoreRow struct {
	ID         int64     `json:"id"`
	Username   string    `json:"username"`
	Score      int       `json:"score"`
	Wave       int       `json:"wave"`
	Kills      sim.Kills `json:"kills"`
	Playtime   int       `json:"playtime"` // seconds
	Difficulty string    `json:"difficulty"`
	DidDie     bool      `json:"didDie"`
	CreatedAt  time.Time `json:"createdAt"`
}

// StatsRow is the lifetime aggregate for one username
type StatsRow struct {
	Username         string    `json:"username"`
	TotalPlaytime    int       `json:"totalPlaytime"`
	TotalGamesPlayed int       `json:"totalGamesPlayed"`
	HighScore        int       `json:"highScore"`
	BestWave         int       `json:"bestWave"`
	TotalKills       sim.Kills `json:"totalKills"`
	TotalDeaths      int       `json:"totalDeaths"`
	CreatedAt        time.Time `json:"createdAt"`
	UpdatedAt        time.Time `json:"updatedAt"`
}

// AccountRow is a reserved username
type AccountRow struct {
	ID        int64
	Username  string
	PassHash  string
	CreatedAt time.Time
}

// OpenDB opens (or creates) the SQLite database
func OpenDB(path string) (*DB, error) {
	conn, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	// in-memory databases exist per connection
	if path == ":memory:" {
		conn.SetMaxOpenConns(1)
	}

	if _, err := conn.Exec("PRAGMA journal_mode=WAL"); err != nil {
		conn.Close()
		return nil, fmt.Errorf("enable WAL: %w", err)
	}
	if _, err := conn.Exec("PRAGMA busy_timeout=5000"); err != nil {
		conn.Close()
		return nil, fmt.Errorf("set busy timeout: %w", err)
	}

	db := &DB{conn: conn}
	if err := db.migrate(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return db, nil
}

// Close closes the database connection
func (db *DB) Close() error {
	return db.conn.Close()
}

func (db *DB) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS scores (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		username TEXT NOT NULL,
		score INTEGER NOT NULL,
		wave INTEGER NOT NULL DEFAULT 1,
		zombie_kills INTEGER NOT NULL DEFAULT 0,
		titan_kills INTEGER NOT NULL DEFAULT 0,
		playtime INTEGER NOT NULL DEFAULT 0,
		difficulty TEXT NOT NULL DEFAULT 'medium',
		did_die INTEGER NOT NULL DEFAULT 1,
		created_at DATETIME NOT NULL
	);

	CREATE TABLE IF NOT EXISTS player_stats (
		username TEXT PRIMARY KEY,
		total_playtime INTEGER NOT NULL DEFAULT 0,
		total_games INTEGER NOT NULL DEFAULT 0,
		high_score INTEGER NOT NULL DEFAULT 0,
		best_wave INTEGER NOT NULL DEFAULT 0,
		zombie_kills INTEGER NOT NULL DEFAULT 0,
		titan_kills INTEGER NOT NULL DEFAULT 0,
		total_deaths INTEGER NOT NULL DEFAULT 0,
		created_at DATETIME NOT NULL,
		updated_at DATETIME NOT NULL
	);

	CREATE TABLE IF NOT EXISTS accounts (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		username TEXT NOT NULL UNIQUE,
		pass_hash TEXT NOT NULL,
		created_at DATETIME NOT NULL
	);

	CREATE TABLE IF NOT EXISTS settings (
		key TEXT PRIMARY KEY,
		value TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS activity_events (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		event_type TEXT NOT NULL,
		username TEXT,
		connection_id TEXT,
		data TEXT,
		created_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_scores_score ON scores(score DESC);
	CREATE INDEX IF NOT EXISTS idx_stats_high ON player_stats(high_score DESC);
	CREATE INDEX IF NOT EXISTS idx_activity_created ON activity_events(created_at);
	`
	_, err := db.conn.Exec(schema)
	return err
}

// SaveResult records a finished session and folds it into the player's
// lifetime stats: totals are summed, highScore and bestWave only grow.
func (db *DB) SaveResult(s ScoreRow) (ScoreRow, StatsRow, error) {
	if s.CreatedAt.IsZero() {
		s.CreatedAt = time.Now().UTC()
	}
	deaths := 0
	if s.DidDie {
		deaths = 1
	}

	tx, err := db.conn.Begin()
	if err != nil {
		return ScoreRow{}, StatsRow{}, err
	}
	defer tx.Rollback()

	res, err := tx.Exec(
		`INSERT INTO scores (username, score, wave, zombie_kills, titan_kills, playtime, difficulty, did_die, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		s.Username, s.Score, s.Wave, s.Kills.Zombies, s.Kills.Titans, s.Playtime, s.Difficulty, s.DidDie, s.CreatedAt,
	)
	if err != nil {
		return ScoreRow{}, StatsRow{}, fmt.Errorf("insert score: %w", err)
	}
	if s.ID, err = res.LastInsertId(); err != nil {
		return ScoreRow{}, StatsRow{}, err
	}

	_, err = tx.Exec(`
		INSERT INTO player_stats (username, total_playtime, total_games, high_score, best_wave,
			zombie_kills, titan_kills, total_deaths, created_at, updated_at)
		VALUES (?, ?, 1, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(username) DO UPDATE SET
			total_playtime = total_playtime + excluded.total_playtime,
			total_games = total_games + 1,
			high_score = MAX(high_score, excluded.high_score),
			best_wave = MAX(best_wave, excluded.best_wave),
			zombie_kills = zombie_kills + excluded.zombie_kills,
			titan_kills = titan_kills + excluded.titan_kills,
			total_deaths = total_deaths + excluded.total_deaths,
			updated_at = excluded.updated_at`,
		s.Username, s.Playtime, s.Score, s.Wave, s.Kills.Zombies, s.Kills.Titans, deaths, s.CreatedAt, s.CreatedAt,
	)
	if err != nil {
		return ScoreRow{}, StatsRow{}, fmt.Errorf("upsert stats: %w", err)
	}

	stats, err := scanStats(tx.QueryRow(statsSelect+" WHERE username = ?", s.Username))
	if err != nil {
		return ScoreRow{}, StatsRow{}, err
	}
	if err := tx.Commit(); err != nil {
		return ScoreRow{}, StatsRow{}, err
	}
	return s, stats, nil
}

const statsSelect = `SELECT username, total_playtime, total_games, high_score, best_wave,
	zombie_kills, titan_kills, total_deaths, created_at, updated_at FROM player_stats`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanStats(row rowScanner) (StatsRow, error) {
	var s StatsRow
	err := row.Scan(&s.Username, &s.TotalPlaytime, &s.TotalGamesPlayed, &s.HighScore, &s.BestWave,
		&s.TotalKills.Zombies, &s.TotalKills.Titans, &s.TotalDeaths, &s.CreatedAt, &s.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return StatsRow{}, ErrStatsNotFound
	}
	return s, err
}

// GetStats returns the lifetime stats for username
func (db *DB) GetStats(username string) (StatsRow, error) {
	return scanStats(db.conn.QueryRow(statsSelect+" WHERE username = ?", username))
}

// TopStats returns players ordered by high score
func (db *DB) TopStats(limit int) ([]StatsRow, error) {
	rows, err := db.conn.Query(statsSelect+" ORDER BY high_score DESC, best_wave DESC LIMIT ?", limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	result := []StatsRow{}
	for rows.Next() {
		s, err := scanStats(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, s)
	}
	return result, rows.Err()
}

// TopScores returns the best individual sessions
func (db *DB) TopScores(limit int) ([]ScoreRow, error) {
	rows, err := db.conn.Query(`
		SELECT id, username, score, wave, zombie_kills, titan_kills, playtime, difficulty, did_die, created_at
		FROM scores ORDER BY score DESC, id ASC LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	result := []ScoreRow{}
	for rows.Next() {
		var s ScoreRow
		if err := rows.Scan(&s.ID, &s.Username, &s.Score, &s.Wave, &s.Kills.Zombies, &s.Kills.Titans,
			&s.Playtime, &s.Difficulty, &s.DidDie, &s.CreatedAt); err != nil {
			return nil, err
		}
		result = append(result, s)
	}
	return result, rows.Err()
}

// CreateAccount reserves a username (returns account ID)
func (db *DB) CreateAccount(username, passHash string) (int64, error) {
	res, err := db.conn.Exec(
		"INSERT INTO accounts (username, pass_hash, created_at) VALUES (?, ?, ?)",
		username, passHash, time.Now().UTC(),
	)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

// GetAccount returns the account for username, or nil if it is not reserved
func (db *DB) GetAccount(username string) (*AccountRow, error) {
	a := &AccountRow{}
	err := db.conn.QueryRow(
		"SELECT id, username, pass_hash, created_at FROM accounts WHERE username = ?",
		username,
	).Scan(&a.ID, &a.Username, &a.PassHash, &a.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	return a, err
}

// UsernameReserved checks if a username belongs to an account
func (db *DB) UsernameReserved(username string) (bool, error) {
	var count int
	err := db.conn.QueryRow("SELECT COUNT(*) FROM accounts WHERE username = ?", username).Scan(&count)
	return count > 0, err
}

// GetSetting returns a stored setting, or "" if unset
func (db *DB) GetSetting(key string) string {
	var v string
	if err := db.conn.QueryRow("SELECT value FROM settings WHERE key = ?", key).Scan(&v); err != nil {
		return ""
	}
	return v
}

// SetSetting stores a setting
func (db *DB) SetSetting(key, value string) error {
	_, err := db.conn.Exec(
		"INSERT INTO settings (key, value) VALUES (?, ?) ON CONFLICT(key) DO UPDATE SET value = excluded.value",
		key, value,
	)
	return err
}
