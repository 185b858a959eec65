package reliability

import (
	"bytes"
	"compress/gzip"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/rs/zerolog"

	"github.com/kwchan/folio/internal/domain"
)

const (
	backupPrefix = "folio-backup-"
	backupSuffix = ".json.gz"

	// Newest backups kept regardless of age.
	minBackupsToKeep = 3
)

// ObjectStore is the bucket surface the backup service needs. The R2
// client satisfies it.
type ObjectStore interface {
	Upload(ctx context.Context, key string, body io.Reader) error
	List(ctx context.Context, prefix string) ([]types.Object, error)
	Delete(ctx context.Context, key string) error
}

// Exporter produces the dataset to back up.
type Exporter interface {
	Export() (*domain.Dataset, error)
}

// BackupInfo describes one backup stored in the bucket.
type BackupInfo struct {
	Filename  string    `json:"filename"`
	Timestamp time.Time `json:"timestamp"`
	SizeBytes int64     `json:"size_bytes"`
	AgeHours  int64     `json:"age_hours"`
}

// R2BackupService ships gzipped dataset exports to R2 and rotates old
// ones out.
type R2BackupService struct {
	store    ObjectStore
	exporter Exporter
	log      zerolog.Logger
}

// NewR2BackupService creates a new offsite backup service.
func NewR2BackupService(store ObjectStore, exporter Exporter, log zerolog.Logger) *R2BackupService {
	return &R2BackupService{
		store:    store,
		exporter: exporter,
		log:      log.With().Str("service", "r2_backup").Logger(),
	}
}

// CreateAndUploadBackup exports the dataset and uploads it gzipped.
func (s *R2BackupService) CreateAndUploadBackup(ctx context.Context) error {
	s.log.Info().Msg("Starting offsite backup")
	startTime := time.Now()

	data, err := s.exporter.Export()
	if err != nil {
		return fmt.Errorf("failed to export dataset for backup: %w", err)
	}

	var buf bytes.Buffer
	gz := gzip.NewWriter(&buf)
	if err := json.NewEncoder(gz).Encode(data); err != nil {
		return fmt.Errorf("failed to encode backup: %w", err)
	}
	if err := gz.Close(); err != nil {
		return fmt.Errorf("failed to compress backup: %w", err)
	}

	name := backupPrefix + time.Now().UTC().Format("2006-01-02-150405") + backupSuffix
	if err := s.store.Upload(ctx, name, &buf); err != nil {
		return fmt.Errorf("failed to upload backup: %w", err)
	}

	s.log.Info().
		Dur("duration_ms", time.Since(startTime)).
		Str("archive", name).
		Int("holdings", len(data.Holdings)).
		Int("snapshots", len(data.Snapshots)).
		Msg("Offsite backup completed")

	return nil
}

// ListBackups lists all backups in the bucket, newest first.
func (s *R2BackupService) ListBackups(ctx context.Context) ([]BackupInfo, error) {
	objects, err := s.store.List(ctx, backupPrefix)
	if err != nil {
		return nil, fmt.Errorf("failed to list backups: %w", err)
	}

	backups := make([]BackupInfo, 0, len(objects))
	now := time.Now()

	for _, obj := range objects {
		if obj.Key == nil {
			continue
		}

		filename := *obj.Key
		if !strings.HasPrefix(filename, backupPrefix) || !strings.HasSuffix(filename, backupSuffix) {
			continue
		}

		timestampStr := strings.TrimSuffix(strings.TrimPrefix(filename, backupPrefix), backupSuffix)
		timestamp, err := time.Parse("2006-01-02-150405", timestampStr)
		if err != nil {
			s.log.Warn().Str("filename", filename).Msg("Failed to parse timestamp from filename")
			continue
		}

		var sizeBytes int64
		if obj.Size != nil {
			sizeBytes = *obj.Size
		}

		backups = append(backups, BackupInfo{
			Filename:  filename,
			Timestamp: timestamp,
			SizeBytes: sizeBytes,
			AgeHours:  int64(now.Sub(timestamp).Hours()),
		})
	}

	sort.Slice(backups, func(i, j int) bool {
		return backups[i].Timestamp.After(backups[j].Timestamp)
	})

	return backups, nil
}

// RotateOldBackups deletes backups older than the retention period.
// The newest minBackupsToKeep survive regardless of age, and a
// retention of 0 keeps everything.
func (s *R2BackupService) RotateOldBackups(ctx context.Context, retentionDays int) error {
	s.log.Info().Int("retention_days", retentionDays).Msg("Starting backup rotation")

	backups, err := s.ListBackups(ctx)
	if err != nil {
		return err
	}

	if len(backups) <= minBackupsToKeep || retentionDays == 0 {
		s.log.Info().Int("count", len(backups)).Msg("Nothing to rotate")
		return nil
	}

	cutoff := time.Now().AddDate(0, 0, -retentionDays)
	deleted := 0

	for i, backup := range backups {
		if i < minBackupsToKeep {
			continue
		}
		if !backup.Timestamp.Before(cutoff) {
			continue
		}

		if err := s.store.Delete(ctx, backup.Filename); err != nil {
			s.log.Error().Err(err).Str("filename", backup.Filename).Msg("Failed to delete old backup")
			continue
		}

		s.log.Info().
			Str("filename", backup.Filename).
			Time("timestamp", backup.Timestamp).
			Msg("Deleted old backup")
		deleted++
	}

	s.log.Info().
		Int("deleted", deleted).
		Int("remaining", len(backups)-deleted).
		Msg("Backup rotation completed")

	return nil
}
