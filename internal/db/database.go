package db

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"

	"github.com/calvinwijaya/blackjack-trainer/internal/game"
	"github.com/calvinwijaya/blackjack-trainer/internal/session"
	"github.com/calvinwijaya/blackjack-trainer/internal/trainer"
)

// ErrNotFound is returned when a requested row does not exist.
var ErrNotFound = errors.New("not found")

type Database struct {
	db *sql.DB
}

// HandRecord is the settled outcome of one player hand.
type HandRecord struct {
	ID          string          `json:"id"`
	GameID      string          `json:"gameId"`
	HandIndex   int             `json:"handIndex"`
	Result      game.HandResult `json:"result"`
	PlayerValue int             `json:"playerValue"`
	DealerValue int             `json:"dealerValue"`
	Bet         int             `json:"bet"`
	CreatedAt   time.Time       `json:"createdAt"`
}

// Stats summarizes finished rounds and drill answers.
type Stats struct {
	GamesPlayed   int    `json:"gamesPlayed"`
	HandsPlayed   int    `json:"handsPlayed"`
	HandsWon      int    `json:"handsWon"`
	HandsLost     int    `json:"handsLost"`
	HandsPushed   int    `json:"handsPushed"`
	DrillAnswers  int    `json:"drillAnswers"`
	DrillCorrect  int    `json:"drillCorrect"`
	DrillAccuracy string `json:"drillAccuracy"`
}

// Open connects to a database and creates the tables if needed. driver is
// "sqlite3" or "postgres".
func Open(driver, dsn string) (*Database, error) {
	switch driver {
	case "sqlite3", "postgres":
	default:
		return nil, fmt.Errorf("unsupported database driver %q", driver)
	}

	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("error opening database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("error connecting to the database: %w", err)
	}

	if driver == "sqlite3" {
		// SQLite allows a single writer.
		db.SetMaxOpenConns(1)
	} else {
		db.SetMaxOpenConns(10)
		db.SetMaxIdleConns(5)
		db.SetConnMaxLifetime(time.Hour)
	}

	if err := initTables(db); err != nil {
		db.Close()
		return nil, err
	}

	return &Database{db: db}, nil
}

// initTables creates the necessary tables if they don't exist
func initTables(db *sql.DB) error {
	_, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS games (
			id TEXT PRIMARY KEY,
			status TEXT NOT NULL,
			game_state TEXT NOT NULL,
			created_at TIMESTAMP NOT NULL,
			updated_at TIMESTAMP NOT NULL
		)
	`)
	if err != nil {
		return fmt.Errorf("error creating games table: %w", err)
	}

	_, err = db.Exec(`
		CREATE TABLE IF NOT EXISTS hand_results (
			id TEXT PRIMARY KEY,
			game_id TEXT NOT NULL REFERENCES games (id),
			hand_index INTEGER NOT NULL,
			result TEXT NOT NULL,
			player_value INTEGER NOT NULL,
			dealer_value INTEGER NOT NULL,
			bet INTEGER NOT NULL,
			created_at TIMESTAMP NOT NULL,
			UNIQUE (game_id, hand_index)
		)
	`)
	if err != nil {
		return fmt.Errorf("error creating hand_results table: %w", err)
	}

	_, err = db.Exec(`
		CREATE TABLE IF NOT EXISTS drills (
			id TEXT PRIMARY KEY,
			correct INTEGER NOT NULL DEFAULT 0,
			incorrect INTEGER NOT NULL DEFAULT 0,
			hand_state TEXT NOT NULL,
			created_at TIMESTAMP NOT NULL,
			updated_at TIMESTAMP NOT NULL
		)
	`)
	if err != nil {
		return fmt.Errorf("error creating drills table: %w", err)
	}

	return nil
}

// Close closes the database connection
func (d *Database) Close() error {
	return d.db.Close()
}

// SaveGame inserts or updates a game snapshot.
func (d *Database) SaveGame(s session.Snapshot) error {
	gameState, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("marshal game %s: %w", s.ID, err)
	}

	_, err = d.db.Exec(`
		INSERT INTO games (id, status, game_state, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (id) DO UPDATE
		SET status = excluded.status, game_state = excluded.game_state, updated_at = excluded.updated_at
	`,
		s.ID, s.State.Status.String(), string(gameState), s.CreatedAt.UTC(), s.UpdatedAt.UTC())
	if err != nil {
		return fmt.Errorf("save game %s: %w", s.ID, err)
	}
	return nil
}

// GetGame retrieves a game snapshot by ID
func (d *Database) GetGame(id string) (session.Snapshot, error) {
	var gameState string
	err := d.db.QueryRow(`SELECT game_state FROM games WHERE id = $1`, id).Scan(&gameState)
	if errors.Is(err, sql.ErrNoRows) {
		return session.Snapshot{}, ErrNotFound
	}
	if err != nil {
		return session.Snapshot{}, fmt.Errorf("get game %s: %w", id, err)
	}

	s, err := decodeSnapshot(gameState)
	if err != nil {
		return session.Snapshot{}, fmt.Errorf("decode game %s: %w", id, err)
	}
	return s, nil
}

// decodeSnapshot parses a stored snapshot and rejects states the engine
// could not have produced.
func decodeSnapshot(data string) (session.Snapshot, error) {
	var s session.Snapshot
	if err := json.Unmarshal([]byte(data), &s); err != nil {
		return session.Snapshot{}, err
	}
	if err := s.State.Validate(); err != nil {
		return session.Snapshot{}, err
	}
	return s, nil
}

// GetAllGames returns every stored game, newest first.
func (d *Database) GetAllGames() ([]session.Snapshot, error) {
	rows, err := d.db.Query(`SELECT game_state FROM games ORDER BY created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("list games: %w", err)
	}
	defer rows.Close()

	var games []session.Snapshot
	for rows.Next() {
		var gameState string
		if err := rows.Scan(&gameState); err != nil {
			return nil, err
		}

		s, err := decodeSnapshot(gameState)
		if err != nil {
			return nil, fmt.Errorf("decode game: %w", err)
		}
		games = append(games, s)
	}

	return games, rows.Err()
}

// DeleteGame removes a game and its hand results.
func (d *Database) DeleteGame(id string) error {
	tx, err := d.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`DELETE FROM hand_results WHERE game_id = $1`, id); err != nil {
		return fmt.Errorf("delete hand results for %s: %w", id, err)
	}
	res, err := tx.Exec(`DELETE FROM games WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete game %s: %w", id, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrNotFound
	}
	return tx.Commit()
}

// SaveHandResults records the outcome of every hand of a settled round.
// Saving the same round twice keeps the first record of each hand.
func (d *Database) SaveHandResults(s session.Snapshot) error {
	if !s.State.Status.IsTerminal() {
		return fmt.Errorf("game %s is not settled: %s", s.ID, s.State.Status)
	}

	tx, err := d.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	dealer := game.HandValue(s.State.DealerHand)
	now := s.UpdatedAt.UTC()
	for i, hand := range s.State.PlayerHands {
		_, err := tx.Exec(`
			INSERT INTO hand_results (id, game_id, hand_index, result, player_value, dealer_value, bet, created_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
			ON CONFLICT (game_id, hand_index) DO NOTHING
		`,
			uuid.New().String(), s.ID, i, s.State.HandResults[i].String(),
			game.HandValue(hand), dealer, s.State.Bet, now)
		if err != nil {
			return fmt.Errorf("save result of hand %d of %s: %w", i, s.ID, err)
		}
	}

	return tx.Commit()
}

// GetHandResults returns the recorded hands of a game in hand order.
func (d *Database) GetHandResults(gameID string) ([]HandRecord, error) {
	rows, err := d.db.Query(`
		SELECT id, game_id, hand_index, result, player_value, dealer_value, bet, created_at
		FROM hand_results WHERE game_id = $1 ORDER BY hand_index
	`, gameID)
	if err != nil {
		return nil, fmt.Errorf("list hand results: %w", err)
	}
	defer rows.Close()

	var records []HandRecord
	for rows.Next() {
		var r HandRecord
		var result string
		if err := rows.Scan(&r.ID, &r.GameID, &r.HandIndex, &result, &r.PlayerValue, &r.DealerValue, &r.Bet, &r.CreatedAt); err != nil {
			return nil, err
		}
		if err := r.Result.UnmarshalText([]byte(result)); err != nil {
			return nil, err
		}
		records = append(records, r)
	}

	return records, rows.Err()
}

// SaveDrill inserts or updates a drill with its counters and current hand.
func (d *Database) SaveDrill(dr *trainer.Drill) error {
	hand, err := json.Marshal(dr.Hand)
	if err != nil {
		return fmt.Errorf("marshal drill %s: %w", dr.ID, err)
	}

	_, err = d.db.Exec(`
		INSERT INTO drills (id, correct, incorrect, hand_state, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (id) DO UPDATE
		SET correct = excluded.correct, incorrect = excluded.incorrect,
			hand_state = excluded.hand_state, updated_at = excluded.updated_at
	`,
		dr.ID, dr.Correct, dr.Incorrect, string(hand), dr.CreatedAt.UTC(), dr.UpdatedAt.UTC())
	if err != nil {
		return fmt.Errorf("save drill %s: %w", dr.ID, err)
	}
	return nil
}

// GetDrill retrieves a drill by ID
func (d *Database) GetDrill(id string) (*trainer.Drill, error) {
	var dr trainer.Drill
	var hand string

	err := d.db.QueryRow(`
		SELECT id, correct, incorrect, hand_state, created_at, updated_at FROM drills WHERE id = $1
	`, id).Scan(&dr.ID, &dr.Correct, &dr.Incorrect, &hand, &dr.CreatedAt, &dr.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get drill %s: %w", id, err)
	}

	if err := json.Unmarshal([]byte(hand), &dr.Hand); err != nil {
		return nil, fmt.Errorf("decode drill %s: %w", id, err)
	}
	if err := dr.Hand.Validate(); err != nil {
		return nil, fmt.Errorf("decode drill %s: %w", id, err)
	}
	return &dr, nil
}

// GetStats aggregates recorded hands and drill counters.
func (d *Database) GetStats() (*Stats, error) {
	var stats Stats

	err := d.db.QueryRow(`SELECT COUNT(DISTINCT game_id), COUNT(*) FROM hand_results`).
		Scan(&stats.GamesPlayed, &stats.HandsPlayed)
	if err != nil {
		return nil, fmt.Errorf("count hands: %w", err)
	}

	rows, err := d.db.Query(`SELECT result, COUNT(*) FROM hand_results GROUP BY result`)
	if err != nil {
		return nil, fmt.Errorf("count results: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var result string
		var n int
		if err := rows.Scan(&result, &n); err != nil {
			return nil, err
		}
		switch result {
		case game.HandWin.String():
			stats.HandsWon += n
		case game.HandLose.String(), game.HandBust.String():
			stats.HandsLost += n
		case game.HandPush.String():
			stats.HandsPushed += n
		}
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	var correct, incorrect int
	err = d.db.QueryRow(`SELECT COALESCE(SUM(correct), 0), COALESCE(SUM(incorrect), 0) FROM drills`).
		Scan(&correct, &incorrect)
	if err != nil {
		return nil, fmt.Errorf("sum drills: %w", err)
	}

	total := trainer.Drill{Correct: correct, Incorrect: incorrect}
	stats.DrillAnswers = total.Attempts()
	stats.DrillCorrect = correct
	stats.DrillAccuracy = total.Accuracy()

	return &stats, nil
}
