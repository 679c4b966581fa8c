// Package mastery persists per-concept learning statistics. The store is the
// one shared mutable resource in the system: every live session records
// teach-back scores into it and queries it for the weakest concepts.
package mastery

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	_ "github.com/mattn/go-sqlite3"
	"go.uber.org/zap"
)

// ErrNotFound is returned when a score is recorded for a concept that was
// never registered with UpsertConcept.
var ErrNotFound = errors.New("concept not registered")

// Record is the aggregate mastery state for one concept. AvgScore is a
// running average maintained incrementally; no raw score history is kept.
type Record struct {
	ConceptID       string
	Title           string
	TimesExplained  int
	TimesQuizzed    int
	TimesTaughtBack int
	LastScore       int
	AvgScore        float64
	ScoreCount      int
}

// ConceptRank is one row of the weakest-concepts ranking.
type ConceptRank struct {
	Title      string
	AvgScore   float64
	ScoreCount int
}

// Store wraps a SQLite database holding the concept_mastery table. Safe for
// concurrent use: the single connection plus per-row SQL arithmetic makes
// every score update an atomic read-modify-write.
type Store struct {
	db     *sql.DB
	dbPath string
	log    *zap.Logger
}

// Open initializes the mastery database at the given path, creating the
// directory and schema as needed. Use ":memory:" for tests.
func Open(path string, log *zap.Logger) (*Store, error) {
	if path != ":memory:" {
		dir := filepath.Dir(path)
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	if _, err := db.Exec("PRAGMA busy_timeout = 5000"); err != nil {
		log.Debug("failed to set sqlite busy_timeout", zap.Error(err))
	}
	if _, err := db.Exec("PRAGMA journal_mode = WAL"); err != nil {
		log.Debug("failed to set sqlite journal_mode=WAL", zap.Error(err))
	}
	// synchronous=NORMAL is safe with WAL and much faster than FULL.
	if _, err := db.Exec("PRAGMA synchronous = NORMAL"); err != nil {
		log.Debug("failed to set sqlite synchronous=NORMAL", zap.Error(err))
	}

	s := &Store{db: db, dbPath: path, log: log}
	if err := s.initialize(); err != nil {
		db.Close()
		return nil, err
	}
	log.Info("mastery store ready", zap.String("path", path))
	return s, nil
}

func (s *Store) initialize() error {
	schema := `
	CREATE TABLE IF NOT EXISTS concept_mastery (
		concept_id TEXT PRIMARY KEY,
		title TEXT,
		times_explained INTEGER DEFAULT 0,
		times_quizzed INTEGER DEFAULT 0,
		times_taught_back INTEGER DEFAULT 0,
		last_score INTEGER DEFAULT 0,
		avg_score REAL DEFAULT 0.0,
		score_count INTEGER DEFAULT 0
	);
	`
	if _, err := s.db.Exec(schema); err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}
	return nil
}

// UpsertConcept registers a concept, inserting a zeroed record if absent.
// Idempotent: a second upsert for the same id never resets counters.
func (s *Store) UpsertConcept(ctx context.Context, conceptID, title string) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT OR IGNORE INTO concept_mastery (concept_id, title)
		VALUES (?, ?)
	`, conceptID, title)
	if err != nil {
		return fmt.Errorf("failed to upsert concept %s: %w", conceptID, err)
	}
	return nil
}

// MarkExplained bumps the concept's explanation counter. Returns ErrNotFound
// if the concept was never upserted.
func (s *Store) MarkExplained(ctx context.Context, conceptID string) error {
	return s.bumpCounter(ctx, "times_explained", conceptID)
}

// MarkQuizzed bumps the concept's quiz counter. Returns ErrNotFound if the
// concept was never upserted.
func (s *Store) MarkQuizzed(ctx context.Context, conceptID string) error {
	return s.bumpCounter(ctx, "times_quizzed", conceptID)
}

func (s *Store) bumpCounter(ctx context.Context, column, conceptID string) error {
	// column is one of the two fixed names above, never user input.
	res, err := s.db.ExecContext(ctx, fmt.Sprintf(`
		UPDATE concept_mastery SET %s = %s + 1 WHERE concept_id = ?
	`, column, column), conceptID)
	if err != nil {
		return fmt.Errorf("failed to bump %s for %s: %w", column, conceptID, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check update result: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("bump %s for %q: %w", column, conceptID, ErrNotFound)
	}
	return nil
}

// RecordTeachBack folds a new score into the concept's running average and
// returns the updated record. The update happens in a single transaction
// whose arithmetic runs inside the UPDATE statement, so concurrent callers
// for the same concept each see the prior committed average. Returns
// ErrNotFound if the concept was never upserted; the store is left
// unchanged in that case.
func (s *Store) RecordTeachBack(ctx context.Context, conceptID string, score int) (Record, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return Record{}, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	// All right-hand sides read the pre-update row, so this is one atomic
	// read-modify-write per concept.
	res, err := tx.ExecContext(ctx, `
		UPDATE concept_mastery
		SET last_score = ?,
		    avg_score = (avg_score * score_count + ?) / (score_count + 1),
		    score_count = score_count + 1,
		    times_taught_back = times_taught_back + 1
		WHERE concept_id = ?
	`, score, score, conceptID)
	if err != nil {
		return Record{}, fmt.Errorf("failed to update score for %s: %w", conceptID, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return Record{}, fmt.Errorf("failed to check update result: %w", err)
	}
	if affected == 0 {
		return Record{}, fmt.Errorf("record teach-back for %q: %w", conceptID, ErrNotFound)
	}

	rec, err := scanRecord(tx.QueryRowContext(ctx, `
		SELECT concept_id, title, times_explained, times_quizzed,
		       times_taught_back, last_score, avg_score, score_count
		FROM concept_mastery WHERE concept_id = ?
	`, conceptID))
	if err != nil {
		return Record{}, fmt.Errorf("failed to read updated record for %s: %w", conceptID, err)
	}

	if err := tx.Commit(); err != nil {
		return Record{}, fmt.Errorf("failed to commit score for %s: %w", conceptID, err)
	}

	s.log.Debug("teach-back recorded",
		zap.String("concept", conceptID),
		zap.Int("score", score),
		zap.Float64("avg", rec.AvgScore),
		zap.Int("count", rec.ScoreCount))
	return rec, nil
}

// WeakestConcepts returns up to limit attempted concepts ordered by
// ascending average score, ties broken by concept id for determinism.
// Concepts that were never scored are excluded.
func (s *Store) WeakestConcepts(ctx context.Context, limit int) ([]ConceptRank, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT title, avg_score, score_count
		FROM concept_mastery
		WHERE score_count > 0
		ORDER BY avg_score ASC, concept_id ASC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query weakest concepts: %w", err)
	}
	defer rows.Close()

	var ranks []ConceptRank
	for rows.Next() {
		var r ConceptRank
		if err := rows.Scan(&r.Title, &r.AvgScore, &r.ScoreCount); err != nil {
			return nil, fmt.Errorf("failed to scan rank row: %w", err)
		}
		ranks = append(ranks, r)
	}
	return ranks, rows.Err()
}

// Record returns the mastery record for one concept, or ErrNotFound.
func (s *Store) Record(ctx context.Context, conceptID string) (Record, error) {
	rec, err := scanRecord(s.db.QueryRowContext(ctx, `
		SELECT concept_id, title, times_explained, times_quizzed,
		       times_taught_back, last_score, avg_score, score_count
		FROM concept_mastery WHERE concept_id = ?
	`, conceptID))
	if errors.Is(err, sql.ErrNoRows) {
		return Record{}, fmt.Errorf("record for %q: %w", conceptID, ErrNotFound)
	}
	if err != nil {
		return Record{}, fmt.Errorf("failed to read record for %s: %w", conceptID, err)
	}
	return rec, nil
}

// AllRecords returns every mastery record in concept-id order. Used by the
// stats command.
func (s *Store) AllRecords(ctx context.Context) ([]Record, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT concept_id, title, times_explained, times_quizzed,
		       times_taught_back, last_score, avg_score, score_count
		FROM concept_mastery ORDER BY concept_id ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query records: %w", err)
	}
	defer rows.Close()

	var records []Record
	for rows.Next() {
		var rec Record
		if err := rows.Scan(&rec.ConceptID, &rec.Title, &rec.TimesExplained,
			&rec.TimesQuizzed, &rec.TimesTaughtBack, &rec.LastScore,
			&rec.AvgScore, &rec.ScoreCount); err != nil {
			return nil, fmt.Errorf("failed to scan record: %w", err)
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

// Close closes the database connection.
func (s *Store) Close() error {
	s.log.Debug("closing mastery store")
	return s.db.Close()
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanRecord(row rowScanner) (Record, error) {
	var rec Record
	err := row.Scan(&rec.ConceptID, &rec.Title, &rec.TimesExplained,
		&rec.TimesQuizzed, &rec.TimesTaughtBack, &rec.LastScore,
		&rec.AvgScore, &rec.ScoreCount)
	return rec, err
}
