package scheduler

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/kwchan/folio/internal/domain"
)

// snapshotTimeout bounds one capture run, market data fetches included.
const snapshotTimeout = 5 * time.Minute

// SnapshotCapturer captures the current portfolio as a snapshot.
type SnapshotCapturer interface {
	Capture(ctx context.Context) (*domain.Snapshot, error)
}

// SnapshotJob captures a daily portfolio snapshot.
type SnapshotJob struct {
	capturer SnapshotCapturer
	log      zerolog.Logger
}

// NewSnapshotJob creates a new snapshot job.
func NewSnapshotJob(capturer SnapshotCapturer, log zerolog.Logger) *SnapshotJob {
	return &SnapshotJob{
		capturer: capturer,
		log:      log.With().Str("job", "daily_snapshot").Logger(),
	}
}

// Name returns the job name for the scheduler.
func (j *SnapshotJob) Name() string {
	return "daily_snapshot"
}

// Run executes the snapshot job.
func (j *SnapshotJob) Run() error {
	ctx, cancel := context.WithTimeout(context.Background(), snapshotTimeout)
	defer cancel()

	snap, err := j.capturer.Capture(ctx)
	if err != nil {
		return err
	}

	j.log.Info().
		Str("id", snap.ID).
		Float64("total_net_worth_hkd", snap.TotalNetWorthHKD).
		Msg("Daily snapshot captured")

	return nil
}
