// Package holdings manages the current portfolio positions: storage,
// normalization on write, and the CRUD operations behind the REST API.
package holdings

import (
	"database/sql"
	"fmt"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/kwchan/folio/internal/database"
	"github.com/kwchan/folio/internal/domain"
)

// Repository handles holding database operations against portfolio.db.
type Repository struct {
	db  *sql.DB
	log zerolog.Logger
}

// NewRepository creates a new holdings repository.
func NewRepository(db *sql.DB, log zerolog.Logger) *Repository {
	return &Repository{
		db:  db,
		log: log.With().Str("repo", "holdings").Logger(),
	}
}

const holdingColumns = `id, asset_type, market, ticker, company_name, custom_sector,
	quantity, cost_basis, option_type, strike_price, expiry_date, side`

// GetAll returns all holdings in insertion order.
func (r *Repository) GetAll() ([]domain.Holding, error) {
	query := `SELECT ` + holdingColumns + ` FROM holdings ORDER BY created_at, id`

	rows, err := r.db.Query(query)
	if err != nil {
		return nil, fmt.Errorf("failed to query holdings: %w", err)
	}
	defer rows.Close()

	var holdings []domain.Holding
	for rows.Next() {
		h, err := scanHolding(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan holding: %w", err)
		}
		holdings = append(holdings, h)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating holdings: %w", err)
	}

	return holdings, nil
}

// GetByID returns a single holding, or nil when it does not exist.
func (r *Repository) GetByID(id string) (*domain.Holding, error) {
	query := `SELECT ` + holdingColumns + ` FROM holdings WHERE id = ?`

	row := r.db.QueryRow(query, id)
	h, err := scanHolding(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get holding %s: %w", id, err)
	}

	return &h, nil
}

// Create inserts a new holding. Any client-supplied id is ignored; a
// fresh uuid is assigned and written back to the passed holding.
func (r *Repository) Create(h *domain.Holding) error {
	h.ID = uuid.New().String()

	query := `INSERT INTO holdings (` + holdingColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

	_, err := r.db.Exec(query,
		h.ID, h.AssetType, h.Market, h.Ticker, h.CompanyName, h.CustomSector,
		h.Quantity, h.CostBasis, h.OptionType, h.StrikePrice, h.ExpiryDate, h.Side,
	)
	if err != nil {
		return fmt.Errorf("failed to insert holding: %w", err)
	}

	r.log.Debug().Str("id", h.ID).Str("ticker", h.Ticker).Msg("Holding created")
	return nil
}

// Update replaces an existing holding's fields. Returns false when the
// holding does not exist.
func (r *Repository) Update(h *domain.Holding) (bool, error) {
	query := `UPDATE holdings SET
		asset_type = ?, market = ?, ticker = ?, company_name = ?, custom_sector = ?,
		quantity = ?, cost_basis = ?, option_type = ?, strike_price = ?,
		expiry_date = ?, side = ?, updated_at = datetime('now')
		WHERE id = ?`

	result, err := r.db.Exec(query,
		h.AssetType, h.Market, h.Ticker, h.CompanyName, h.CustomSector,
		h.Quantity, h.CostBasis, h.OptionType, h.StrikePrice, h.ExpiryDate, h.Side,
		h.ID,
	)
	if err != nil {
		return false, fmt.Errorf("failed to update holding %s: %w", h.ID, err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get rows affected: %w", err)
	}

	return affected > 0, nil
}

// Delete removes a holding. Returns false when it does not exist.
func (r *Repository) Delete(id string) (bool, error) {
	result, err := r.db.Exec(`DELETE FROM holdings WHERE id = ?`, id)
	if err != nil {
		return false, fmt.Errorf("failed to delete holding %s: %w", id, err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get rows affected: %w", err)
	}

	return affected > 0, nil
}

// ReplaceAll atomically replaces the entire current portfolio with the
// given holdings. Holdings without an id get a fresh uuid. Used by
// snapshot restore and import.
func (r *Repository) ReplaceAll(holdings []domain.Holding) error {
	return database.WithTransaction(r.db, func(tx *sql.Tx) error {
		return ReplaceAllTx(tx, holdings)
	})
}

// ReplaceAllTx performs ReplaceAll inside an existing transaction so
// callers can combine it with other writes.
func ReplaceAllTx(tx *sql.Tx, holdings []domain.Holding) error {
	if _, err := tx.Exec(`DELETE FROM holdings`); err != nil {
		return fmt.Errorf("failed to clear holdings: %w", err)
	}

	query := `INSERT INTO holdings (` + holdingColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

	for i := range holdings {
		h := &holdings[i]
		if h.ID == "" {
			h.ID = uuid.New().String()
		}
		_, err := tx.Exec(query,
			h.ID, h.AssetType, h.Market, h.Ticker, h.CompanyName, h.CustomSector,
			h.Quantity, h.CostBasis, h.OptionType, h.StrikePrice, h.ExpiryDate, h.Side,
		)
		if err != nil {
			return fmt.Errorf("failed to insert holding %s: %w", h.Ticker, err)
		}
	}

	return nil
}

// Count returns the number of holdings.
func (r *Repository) Count() (int, error) {
	var count int
	if err := r.db.QueryRow(`SELECT COUNT(*) FROM holdings`).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count holdings: %w", err)
	}
	return count, nil
}

// scanner abstracts *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...interface{}) error
}

func scanHolding(s scanner) (domain.Holding, error) {
	var h domain.Holding
	var optionType, expiryDate, side sql.NullString
	var strikePrice sql.NullFloat64

	err := s.Scan(
		&h.ID, &h.AssetType, &h.Market, &h.Ticker, &h.CompanyName, &h.CustomSector,
		&h.Quantity, &h.CostBasis, &optionType, &strikePrice, &expiryDate, &side,
	)
	if err != nil {
		return h, err
	}

	if optionType.Valid {
		h.OptionType = &optionType.String
	}
	if strikePrice.Valid {
		h.StrikePrice = &strikePrice.Float64
	}
	if expiryDate.Valid {
		h.ExpiryDate = &expiryDate.String
	}
	if side.Valid {
		h.Side = &side.String
	}

	return h, nil
}
