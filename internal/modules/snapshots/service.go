package snapshots

import (
	"context"
	"fmt"
	"time"

	"github.com/markcheno/go-talib"
	"github.com/rs/zerolog"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/kwchan/folio/internal/domain"
	"github.com/kwchan/folio/internal/events"
	"github.com/kwchan/folio/internal/modules/portfolio"
)

// smaWindow is the moving average window for the net worth series.
const smaWindow = 7

// SummarySource produces the live portfolio summary to capture.
type SummarySource interface {
	Summary(ctx context.Context) (*domain.Summary, error)
}

// HoldingWriter replaces the active holdings during a restore.
type HoldingWriter interface {
	ReplaceAll(holdings []domain.Holding) error
}

// Stats summarizes the net worth series across all snapshots.
type Stats struct {
	Count         int       `json:"count"`
	Mean          float64   `json:"mean"`
	StdDev        float64   `json:"std_dev"`
	Min           float64   `json:"min"`
	Max           float64   `json:"max"`
	Latest        float64   `json:"latest"`
	ChangeAbs     float64   `json:"change_abs"`
	ChangePct     float64   `json:"change_pct"`
	Dates         []string  `json:"dates"`
	Totals        []float64 `json:"totals"`
	MovingAverage []float64 `json:"moving_average"`
}

// Service captures, restores and analyzes portfolio snapshots.
type Service struct {
	repo     *Repository
	summary  SummarySource
	holdings HoldingWriter
	bus      *events.Bus
	log      zerolog.Logger
}

// NewService creates a new snapshots service.
func NewService(repo *Repository, summary SummarySource, holdings HoldingWriter, bus *events.Bus, log zerolog.Logger) *Service {
	return &Service{
		repo:     repo,
		summary:  summary,
		holdings: holdings,
		bus:      bus,
		log:      log.With().Str("component", "snapshots").Logger(),
	}
}

// Capture values the current holdings and stores them as a new snapshot.
// An empty portfolio still produces a snapshot.
func (s *Service) Capture(ctx context.Context) (*domain.Snapshot, error) {
	summary, err := s.summary.Summary(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to build summary for snapshot: %w", err)
	}

	snap := &domain.Snapshot{
		Date:             time.Now().UTC().Format(time.RFC3339),
		TotalNetWorthHKD: summary.TotalNetWorthHKD,
		Holdings:         summary.Holdings,
	}

	if err := s.repo.Create(snap); err != nil {
		return nil, err
	}

	s.log.Info().
		Str("id", snap.ID).
		Float64("total_net_worth_hkd", snap.TotalNetWorthHKD).
		Int("holdings", len(snap.Holdings)).
		Msg("Snapshot captured")

	s.bus.Publish(events.SnapshotCreated, map[string]interface{}{
		"id":   snap.ID,
		"date": snap.Date,
	})

	return snap, nil
}

// List returns all snapshots ordered by date.
func (s *Service) List() ([]domain.Snapshot, error) {
	return s.repo.GetAll()
}

// Delete removes a snapshot. Returns false when it does not exist.
func (s *Service) Delete(id string) (bool, error) {
	deleted, err := s.repo.Delete(id)
	if err != nil || !deleted {
		return deleted, err
	}

	s.log.Info().Str("id", id).Msg("Snapshot deleted")
	s.bus.Publish(events.SnapshotDeleted, map[string]interface{}{"id": id})
	return true, nil
}

// Restore replaces the active holdings with a snapshot's captured
// holdings. The current holdings are overwritten without being
// snapshotted first. Returns nil when the snapshot does not exist.
func (s *Service) Restore(id string) (*domain.Snapshot, error) {
	snap, err := s.repo.GetByID(id)
	if err != nil || snap == nil {
		return nil, err
	}

	holdings := make([]domain.Holding, 0, len(snap.Holdings))
	for _, vh := range snap.Holdings {
		holdings = append(holdings, vh.Holding)
	}

	if err := s.holdings.ReplaceAll(holdings); err != nil {
		return nil, fmt.Errorf("failed to restore holdings from snapshot %s: %w", id, err)
	}

	s.log.Info().Str("id", id).Int("holdings", len(holdings)).Msg("Snapshot restored")
	s.bus.Publish(events.SnapshotRestored, map[string]interface{}{
		"id":   id,
		"date": snap.Date,
	})

	return snap, nil
}

// SnapshotSummary builds a dashboard summary for a stored snapshot.
// Distributions are recomputed from the captured holdings, but the
// total stays the value recorded at capture time. Returns nil when the
// snapshot does not exist.
func (s *Service) SnapshotSummary(id string) (*domain.Summary, error) {
	snap, err := s.repo.GetByID(id)
	if err != nil || snap == nil {
		return nil, err
	}

	return &domain.Summary{
		TotalNetWorthHKD: snap.TotalNetWorthHKD,
		Holdings:         snap.Holdings,
		Distributions:    portfolio.Aggregate(snap.Holdings),
	}, nil
}

// Stats computes descriptive statistics over the net worth series.
func (s *Service) Stats() (*Stats, error) {
	points, err := s.repo.Totals()
	if err != nil {
		return nil, err
	}

	stats := &Stats{
		Count:         len(points),
		Dates:         make([]string, 0, len(points)),
		Totals:        make([]float64, 0, len(points)),
		MovingAverage: []float64{},
	}

	if len(points) == 0 {
		return stats, nil
	}

	for _, p := range points {
		stats.Dates = append(stats.Dates, p.Date)
		stats.Totals = append(stats.Totals, p.Total)
	}

	stats.Mean = stat.Mean(stats.Totals, nil)
	stats.Min = floats.Min(stats.Totals)
	stats.Max = floats.Max(stats.Totals)
	stats.Latest = stats.Totals[len(stats.Totals)-1]

	if len(stats.Totals) > 1 {
		stats.StdDev = stat.StdDev(stats.Totals, nil)
	}

	first := stats.Totals[0]
	stats.ChangeAbs = stats.Latest - first
	if first != 0 {
		stats.ChangePct = stats.ChangeAbs / first * 100
	}

	if len(stats.Totals) >= smaWindow {
		stats.MovingAverage = talib.Sma(stats.Totals, smaWindow)
	}

	return stats, nil
}
