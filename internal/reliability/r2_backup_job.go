package reliability

import (
	"context"
	"time"

	"github.com/rs/zerolog"
)

// backupTimeout bounds one backup run, upload and rotation included.
const backupTimeout = 10 * time.Minute

// R2BackupJob runs the offsite backup on a schedule.
type R2BackupJob struct {
	service       *R2BackupService
	retentionDays int
	log           zerolog.Logger
}

// NewR2BackupJob creates a new offsite backup job.
func NewR2BackupJob(service *R2BackupService, retentionDays int, log zerolog.Logger) *R2BackupJob {
	return &R2BackupJob{
		service:       service,
		retentionDays: retentionDays,
		log:           log.With().Str("job", "r2_backup").Logger(),
	}
}

// Name returns the job name for the scheduler.
func (j *R2BackupJob) Name() string {
	return "r2_backup"
}

// Run executes the backup job.
func (j *R2BackupJob) Run() error {
	ctx, cancel := context.WithTimeout(context.Background(), backupTimeout)
	defer cancel()

	if err := j.service.CreateAndUploadBackup(ctx); err != nil {
		return err
	}

	if err := j.service.RotateOldBackups(ctx, j.retentionDays); err != nil {
		// The backup itself succeeded, rotation will catch up next run.
		j.log.Warn().Err(err).Msg("Backup rotation failed")
	}

	return nil
}
