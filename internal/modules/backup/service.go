// Package backup implements full-portfolio export and import.
package backup

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/kwchan/folio/internal/database"
	"github.com/kwchan/folio/internal/domain"
	"github.com/kwchan/folio/internal/events"
	"github.com/kwchan/folio/internal/modules/snapshots"
)

// Import strategies.
const (
	// StrategyCurrent replaces the active holdings only, preserving
	// history. The outgoing holdings are snapshotted first so nothing
	// is silently lost.
	StrategyCurrent = "current"

	// StrategyFull replaces holdings and history with the imported
	// dataset.
	StrategyFull = "full"
)

// ErrInvalidDataset marks import failures caused by the payload rather
// than by storage.
var ErrInvalidDataset = errors.New("invalid dataset")

// HoldingStore is the holdings surface the backup service needs.
type HoldingStore interface {
	GetAll() ([]domain.Holding, error)
	ReplaceAll(holdings []domain.Holding) error
	Count() (int, error)
}

// SnapshotCapturer snapshots the current portfolio before a
// destructive import.
type SnapshotCapturer interface {
	Capture(ctx context.Context) (*domain.Snapshot, error)
}

// Service moves complete datasets in and out of the databases.
type Service struct {
	holdings  HoldingStore
	snapshots *snapshots.Repository
	capturer  SnapshotCapturer
	historyDB *sql.DB
	bus       *events.Bus
	log       zerolog.Logger
}

// NewService creates a new backup service.
func NewService(holdings HoldingStore, snapshotRepo *snapshots.Repository, capturer SnapshotCapturer, historyDB *sql.DB, bus *events.Bus, log zerolog.Logger) *Service {
	return &Service{
		holdings:  holdings,
		snapshots: snapshotRepo,
		capturer:  capturer,
		historyDB: historyDB,
		bus:       bus,
		log:       log.With().Str("component", "backup").Logger(),
	}
}

// Export assembles the complete dataset: every holding and every
// snapshot.
func (s *Service) Export() (*domain.Dataset, error) {
	hs, err := s.holdings.GetAll()
	if err != nil {
		return nil, fmt.Errorf("failed to export holdings: %w", err)
	}
	if hs == nil {
		hs = []domain.Holding{}
	}

	snaps, err := s.snapshots.GetAll()
	if err != nil {
		return nil, fmt.Errorf("failed to export snapshots: %w", err)
	}
	if snaps == nil {
		snaps = []domain.Snapshot{}
	}

	return &domain.Dataset{Holdings: hs, Snapshots: snaps}, nil
}

// Import loads a dataset using the given strategy. The whole payload
// is validated before anything is written, so a bad dataset leaves the
// databases untouched.
func (s *Service) Import(ctx context.Context, data *domain.Dataset, strategy string) error {
	if strategy != StrategyCurrent && strategy != StrategyFull {
		return fmt.Errorf("%w: unknown import strategy %q", ErrInvalidDataset, strategy)
	}

	for i := range data.Holdings {
		domain.Normalize(&data.Holdings[i])
		if err := data.Holdings[i].Validate(); err != nil {
			return fmt.Errorf("%w: holding at index %d: %v", ErrInvalidDataset, i, err)
		}
	}

	if strategy == StrategyCurrent {
		if err := s.snapshotCurrent(ctx); err != nil {
			return err
		}
	}

	if err := s.holdings.ReplaceAll(data.Holdings); err != nil {
		return fmt.Errorf("failed to import holdings: %w", err)
	}

	if strategy == StrategyFull {
		err := database.WithTransaction(s.historyDB, func(tx *sql.Tx) error {
			return snapshots.ReplaceAllTx(tx, data.Snapshots)
		})
		if err != nil {
			return fmt.Errorf("failed to import snapshots: %w", err)
		}
	}

	s.log.Info().
		Str("strategy", strategy).
		Int("holdings", len(data.Holdings)).
		Int("snapshots", len(data.Snapshots)).
		Msg("Dataset imported")

	s.bus.Publish(events.DataImported, map[string]interface{}{
		"strategy":  strategy,
		"holdings":  len(data.Holdings),
		"snapshots": len(data.Snapshots),
	})

	return nil
}

// snapshotCurrent preserves the outgoing holdings as a snapshot. An
// empty portfolio has nothing worth preserving.
func (s *Service) snapshotCurrent(ctx context.Context) error {
	count, err := s.holdings.Count()
	if err != nil {
		return fmt.Errorf("failed to count holdings before import: %w", err)
	}
	if count == 0 {
		return nil
	}

	if _, err := s.capturer.Capture(ctx); err != nil {
		return fmt.Errorf("failed to snapshot holdings before import: %w", err)
	}

	return nil
}
