// Package snapshots manages immutable portfolio history records.
// A snapshot's captured holdings are stored as a msgpack blob; the
// stored total is never re-derived from them on read.
package snapshots

import (
	"database/sql"
	"fmt"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/vmihailenco/msgpack/v5"

	"github.com/kwchan/folio/internal/domain"
)

// TotalPoint is one point of the net worth series.
type TotalPoint struct {
	Date  string  `json:"date"`
	Total float64 `json:"total_net_worth_hkd"`
}

// Repository handles snapshot database operations against history.db.
type Repository struct {
	db  *sql.DB
	log zerolog.Logger
}

// NewRepository creates a new snapshots repository.
func NewRepository(db *sql.DB, log zerolog.Logger) *Repository {
	return &Repository{
		db:  db,
		log: log.With().Str("repo", "snapshots").Logger(),
	}
}

// Create inserts a new snapshot. A missing id gets a fresh uuid.
func (r *Repository) Create(s *domain.Snapshot) error {
	if s.ID == "" {
		s.ID = uuid.New().String()
	}

	blob, err := msgpack.Marshal(s.Holdings)
	if err != nil {
		return fmt.Errorf("failed to marshal snapshot holdings: %w", err)
	}

	_, err = r.db.Exec(
		`INSERT INTO snapshots (id, date, total_net_worth_hkd, holdings_blob) VALUES (?, ?, ?, ?)`,
		s.ID, s.Date, s.TotalNetWorthHKD, blob,
	)
	if err != nil {
		return fmt.Errorf("failed to insert snapshot: %w", err)
	}

	r.log.Debug().Str("id", s.ID).Str("date", s.Date).Msg("Snapshot created")
	return nil
}

// CreateTx inserts a snapshot inside an existing transaction.
func CreateTx(tx *sql.Tx, s *domain.Snapshot) error {
	if s.ID == "" {
		s.ID = uuid.New().String()
	}

	blob, err := msgpack.Marshal(s.Holdings)
	if err != nil {
		return fmt.Errorf("failed to marshal snapshot holdings: %w", err)
	}

	_, err = tx.Exec(
		`INSERT INTO snapshots (id, date, total_net_worth_hkd, holdings_blob) VALUES (?, ?, ?, ?)`,
		s.ID, s.Date, s.TotalNetWorthHKD, blob,
	)
	if err != nil {
		return fmt.Errorf("failed to insert snapshot: %w", err)
	}

	return nil
}

// GetAll returns all snapshots ordered by date.
func (r *Repository) GetAll() ([]domain.Snapshot, error) {
	rows, err := r.db.Query(
		`SELECT id, date, total_net_worth_hkd, holdings_blob FROM snapshots ORDER BY date, created_at`,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query snapshots: %w", err)
	}
	defer rows.Close()

	var snaps []domain.Snapshot
	for rows.Next() {
		s, err := scanSnapshot(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan snapshot: %w", err)
		}
		snaps = append(snaps, s)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating snapshots: %w", err)
	}

	return snaps, nil
}

// GetByID returns a single snapshot, or nil when it does not exist.
func (r *Repository) GetByID(id string) (*domain.Snapshot, error) {
	row := r.db.QueryRow(
		`SELECT id, date, total_net_worth_hkd, holdings_blob FROM snapshots WHERE id = ?`, id,
	)

	s, err := scanSnapshot(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get snapshot %s: %w", id, err)
	}

	return &s, nil
}

// Delete removes a snapshot. Returns false when it does not exist.
func (r *Repository) Delete(id string) (bool, error) {
	result, err := r.db.Exec(`DELETE FROM snapshots WHERE id = ?`, id)
	if err != nil {
		return false, fmt.Errorf("failed to delete snapshot %s: %w", id, err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get rows affected: %w", err)
	}

	return affected > 0, nil
}

// ReplaceAllTx atomically replaces the entire history inside an existing
// transaction. Used by full imports.
func ReplaceAllTx(tx *sql.Tx, snaps []domain.Snapshot) error {
	if _, err := tx.Exec(`DELETE FROM snapshots`); err != nil {
		return fmt.Errorf("failed to clear snapshots: %w", err)
	}

	for i := range snaps {
		if err := CreateTx(tx, &snaps[i]); err != nil {
			return err
		}
	}

	return nil
}

// Totals returns the net worth series ordered by date, without
// decoding the holdings blobs.
func (r *Repository) Totals() ([]TotalPoint, error) {
	rows, err := r.db.Query(
		`SELECT date, total_net_worth_hkd FROM snapshots ORDER BY date, created_at`,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query snapshot totals: %w", err)
	}
	defer rows.Close()

	var points []TotalPoint
	for rows.Next() {
		var p TotalPoint
		if err := rows.Scan(&p.Date, &p.Total); err != nil {
			return nil, fmt.Errorf("failed to scan snapshot total: %w", err)
		}
		points = append(points, p)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating snapshot totals: %w", err)
	}

	return points, nil
}

// Count returns the number of snapshots.
func (r *Repository) Count() (int, error) {
	var count int
	if err := r.db.QueryRow(`SELECT COUNT(*) FROM snapshots`).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count snapshots: %w", err)
	}
	return count, nil
}

type scanner interface {
	Scan(dest ...interface{}) error
}

func scanSnapshot(s scanner) (domain.Snapshot, error) {
	var snap domain.Snapshot
	var blob []byte

	if err := s.Scan(&snap.ID, &snap.Date, &snap.TotalNetWorthHKD, &blob); err != nil {
		return snap, err
	}

	if err := msgpack.Unmarshal(blob, &snap.Holdings); err != nil {
		return snap, fmt.Errorf("failed to unmarshal snapshot holdings: %w", err)
	}

	if snap.Holdings == nil {
		snap.Holdings = []domain.ValuedHolding{}
	}

	return snap, nil
}
