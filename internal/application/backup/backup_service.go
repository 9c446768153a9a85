package backup

import (
	"context"
	"errors"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/markethub/backend/internal/domain/backup"
	"github.com/markethub/backend/internal/domain/shared"
	"go.uber.org/zap"
)

// Runner produces and restores database backup artifacts. The
// implementation shells out to pg_dump/pg_restore and falls back to a
// JSON export of whitelisted tables when the client binaries are
// missing.
type Runner interface {
	// Dump writes an artifact to dir and reports its path, kind and size
	Dump(ctx context.Context, dir string) (path string, kind backup.BackupKind, sizeBytes int64, err error)
	// Restore loads a pg_dump artifact back into the database
	Restore(ctx context.Context, path string) error
	// Remove deletes the local artifact
	Remove(path string) error
}

// ObjectStore uploads backup artifacts to remote storage
type ObjectStore interface {
	Upload(ctx context.Context, key, localPath string) error
}

// BackupService orchestrates backup runs and their history
type BackupService struct {
	repo   backup.BackupRepository
	runner Runner
	store  ObjectStore
	dir    string
	logger *zap.Logger
}

// NewBackupService creates a new backup service. store may be nil when
// no remote storage is configured; artifacts then stay local only.
func NewBackupService(
	repo backup.BackupRepository,
	runner Runner,
	store ObjectStore,
	dir string,
	logger *zap.Logger,
) *BackupService {
	return &BackupService{repo: repo, runner: runner, store: store, dir: dir, logger: logger}
}

// BackupDTO represents a backup record for the HTTP layer
type BackupDTO struct {
	ID         uuid.UUID  `json:"id"`
	Kind       string     `json:"kind"`
	Path       string     `json:"path"`
	SizeBytes  int64      `json:"size_bytes"`
	Status     string     `json:"status"`
	Error      string     `json:"error,omitempty"`
	RemoteKey  string     `json:"remote_key,omitempty"`
	Restorable bool       `json:"restorable"`
	FinishedAt *time.Time `json:"finished_at,omitempty"`
	CreatedAt  time.Time  `json:"created_at"`
}

// Run executes one backup: dump, verify, optional upload. The record
// is persisted up front so failed runs stay visible in history.
func (s *BackupService) Run(ctx context.Context) (*BackupDTO, error) {
	path, kind, size, dumpErr := s.runner.Dump(ctx, s.dir)

	record, err := backup.NewBackupRecord(kindOrDefault(kind), pathOrPlaceholder(path))
	if err != nil {
		return nil, err
	}

	if dumpErr != nil {
		record.MarkFailed(dumpErr.Error())
		if saveErr := s.repo.Save(ctx, record); saveErr != nil {
			s.logger.Error("Failed to save backup record", zap.Error(saveErr))
		}
		s.logger.Error("Backup run failed", zap.Error(dumpErr))
		return nil, shared.NewDomainError("BACKUP_FAILED", "Backup failed: "+dumpErr.Error())
	}

	if err := record.MarkVerified(size); err != nil {
		record.MarkFailed(err.Error())
		if saveErr := s.repo.Save(ctx, record); saveErr != nil {
			s.logger.Error("Failed to save backup record", zap.Error(saveErr))
		}
		return nil, err
	}

	if s.store != nil {
		key := "backups/" + record.ID.String() + "-" + record.CreatedAt.Format("20060102T150405")
		if err := s.store.Upload(ctx, key, path); err != nil {
			// Local artifact is still good; remote upload is best-effort
			s.logger.Warn("Backup upload failed", zap.String("key", key), zap.Error(err))
		} else if err := record.MarkUploaded(key); err != nil {
			s.logger.Warn("Failed to mark backup uploaded", zap.Error(err))
		}
	}

	if err := s.repo.Save(ctx, record); err != nil {
		s.logger.Error("Failed to save backup record", zap.Error(err))
		return nil, shared.NewDomainError("INTERNAL_ERROR", "Failed to save backup record")
	}

	s.logger.Info("Backup completed",
		zap.String("backup_id", record.ID.String()),
		zap.String("kind", string(record.Kind)),
		zap.Int64("size_bytes", record.SizeBytes))
	return toBackupDTO(record), nil
}

// Restore loads a verified pg_dump backup back into the database
func (s *BackupService) Restore(ctx context.Context, id uuid.UUID) error {
	record, err := s.find(ctx, id)
	if err != nil {
		return err
	}
	if !record.Restorable() {
		return shared.NewDomainError("NOT_RESTORABLE",
			"Only verified pg_dump backups can be restored")
	}
	if err := s.runner.Restore(ctx, record.Path); err != nil {
		s.logger.Error("Restore failed", zap.String("backup_id", id.String()), zap.Error(err))
		return shared.NewDomainError("RESTORE_FAILED", "Restore failed: "+err.Error())
	}
	s.logger.Info("Backup restored", zap.String("backup_id", id.String()))
	return nil
}

// GetByID retrieves a backup record
func (s *BackupService) GetByID(ctx context.Context, id uuid.UUID) (*BackupDTO, error) {
	record, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}
	return toBackupDTO(record), nil
}

// List retrieves backup history, most recent first
func (s *BackupService) List(ctx context.Context, limit int) ([]BackupDTO, error) {
	if limit <= 0 {
		limit = 50
	}
	records, err := s.repo.FindRecent(ctx, limit)
	if err != nil {
		s.logger.Error("Failed to list backups", zap.Error(err))
		return nil, shared.NewDomainError("INTERNAL_ERROR", "Failed to list backups")
	}
	dtos := make([]BackupDTO, len(records))
	for i := range records {
		dtos[i] = *toBackupDTO(&records[i])
	}
	return dtos, nil
}

// Delete removes the local artifact and marks the record deleted
func (s *BackupService) Delete(ctx context.Context, id uuid.UUID) error {
	record, err := s.find(ctx, id)
	if err != nil {
		return err
	}
	if err := record.MarkDeleted(); err != nil {
		return err
	}
	if err := s.runner.Remove(record.Path); err != nil {
		s.logger.Warn("Failed to remove backup artifact",
			zap.String("path", record.Path), zap.Error(err))
	}
	if err := s.repo.Save(ctx, record); err != nil {
		s.logger.Error("Failed to save backup record", zap.Error(err))
		return shared.NewDomainError("INTERNAL_ERROR", "Failed to delete backup")
	}
	return nil
}

// Prune deletes verified backups beyond the keep most recent ones,
// removing their local artifacts. Running and failed records are left
// alone. Returns the number of backups pruned.
func (s *BackupService) Prune(ctx context.Context, keep int) (int, error) {
	if keep <= 0 {
		return 0, nil
	}

	records, err := s.repo.FindByStatus(ctx, backup.BackupStatusVerified)
	if err != nil {
		s.logger.Error("Failed to list backups for pruning", zap.Error(err))
		return 0, shared.NewDomainError("INTERNAL_ERROR", "Failed to list backups")
	}
	if len(records) <= keep {
		return 0, nil
	}

	// Newest first; everything past keep gets pruned
	sort.Slice(records, func(i, j int) bool {
		return records[i].CreatedAt.After(records[j].CreatedAt)
	})

	pruned := 0
	for i := keep; i < len(records); i++ {
		record := &records[i]
		if err := record.MarkDeleted(); err != nil {
			continue
		}
		if err := s.runner.Remove(record.Path); err != nil {
			s.logger.Warn("Failed to remove backup artifact",
				zap.String("path", record.Path), zap.Error(err))
		}
		if err := s.repo.Save(ctx, record); err != nil {
			s.logger.Error("Failed to save pruned backup record",
				zap.String("backup_id", record.ID.String()), zap.Error(err))
			continue
		}
		pruned++
	}

	if pruned > 0 {
		s.logger.Info("Pruned old backups", zap.Int("pruned", pruned), zap.Int("kept", keep))
	}
	return pruned, nil
}

func (s *BackupService) find(ctx context.Context, id uuid.UUID) (*backup.BackupRecord, error) {
	record, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, shared.NewDomainError("BACKUP_NOT_FOUND", "Backup not found")
		}
		s.logger.Error("Failed to find backup", zap.Error(err))
		return nil, shared.NewDomainError("INTERNAL_ERROR", "Failed to find backup")
	}
	return record, nil
}

func kindOrDefault(kind backup.BackupKind) backup.BackupKind {
	if kind == "" {
		return backup.KindPgDump
	}
	return kind
}

func pathOrPlaceholder(path string) string {
	if path == "" {
		return "(not created)"
	}
	return path
}

func toBackupDTO(b *backup.BackupRecord) *BackupDTO {
	return &BackupDTO{
		ID:         b.ID,
		Kind:       string(b.Kind),
		Path:       b.Path,
		SizeBytes:  b.SizeBytes,
		Status:     string(b.Status),
		Error:      b.Error,
		RemoteKey:  b.RemoteKey,
		Restorable: b.Restorable(),
		FinishedAt: b.FinishedAt,
		CreatedAt:  b.CreatedAt,
	}
}
