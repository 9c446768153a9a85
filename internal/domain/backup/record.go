package backup

import (
	"context"
	"time"

	"github.com/markethub/backend/internal/domain/shared"
)

// BackupKind distinguishes how the artifact was produced
type BackupKind string

const (
	// KindPgDump is a pg_dump custom-format archive
	KindPgDump BackupKind = "pg_dump"
	// KindJSONExport is a JSON dump of whitelisted tables, used when
	// the postgres client binaries are not installed
	KindJSONExport BackupKind = "json_export"
)

// BackupStatus is the lifecycle state of a backup run
type BackupStatus string

const (
	BackupStatusRunning  BackupStatus = "running"
	BackupStatusVerified BackupStatus = "verified"
	BackupStatusFailed   BackupStatus = "failed"
	BackupStatusDeleted  BackupStatus = "deleted"
)

// BackupRecord tracks one backup artifact on disk and optionally in S3
type BackupRecord struct {
	shared.BaseAggregateRoot
	Kind       BackupKind   `gorm:"type:varchar(20);not null"`
	Path       string       `gorm:"type:varchar(500);not null"`
	SizeBytes  int64        `gorm:"not null;default:0"`
	Status     BackupStatus `gorm:"type:varchar(20);not null;default:'running';index"`
	Error      string       `gorm:"type:text"`
	RemoteKey  string       `gorm:"type:varchar(500)"`
	FinishedAt *time.Time
}

// TableName returns the table name for GORM
func (BackupRecord) TableName() string {
	return "backup_records"
}

// NewBackupRecord starts tracking a backup run
func NewBackupRecord(kind BackupKind, path string) (*BackupRecord, error) {
	if kind != KindPgDump && kind != KindJSONExport {
		return nil, shared.NewDomainError("INVALID_KIND", "Unknown backup kind: "+string(kind))
	}
	if path == "" {
		return nil, shared.NewDomainError("INVALID_PATH", "Backup path cannot be empty")
	}

	return &BackupRecord{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		Kind:              kind,
		Path:              path,
		Status:            BackupStatusRunning,
	}, nil
}

// MarkVerified records a completed, size-checked artifact
func (b *BackupRecord) MarkVerified(sizeBytes int64) error {
	if b.Status != BackupStatusRunning {
		return shared.NewDomainError("INVALID_STATE", "Only running backups can be verified")
	}
	if sizeBytes <= 0 {
		return shared.NewDomainError("EMPTY_BACKUP", "Backup artifact is empty")
	}
	now := time.Now()
	b.Status = BackupStatusVerified
	b.SizeBytes = sizeBytes
	b.FinishedAt = &now
	b.UpdatedAt = now
	b.IncrementVersion()
	return nil
}

// MarkFailed records a failed run
func (b *BackupRecord) MarkFailed(message string) {
	now := time.Now()
	b.Status = BackupStatusFailed
	b.Error = message
	b.FinishedAt = &now
	b.UpdatedAt = now
	b.IncrementVersion()
}

// MarkUploaded records the S3 object key of the uploaded artifact
func (b *BackupRecord) MarkUploaded(remoteKey string) error {
	if b.Status != BackupStatusVerified {
		return shared.NewDomainError("INVALID_STATE", "Only verified backups can be uploaded")
	}
	b.RemoteKey = remoteKey
	b.Touch()
	b.IncrementVersion()
	return nil
}

// MarkDeleted records that the local artifact was removed
func (b *BackupRecord) MarkDeleted() error {
	if b.Status == BackupStatusRunning {
		return shared.NewDomainError("INVALID_STATE", "Cannot delete a running backup")
	}
	b.Status = BackupStatusDeleted
	b.Touch()
	b.IncrementVersion()
	return nil
}

// Restorable reports whether pg_restore can use this record
func (b *BackupRecord) Restorable() bool {
	return b.Kind == KindPgDump && b.Status == BackupStatusVerified
}

// BackupRepository defines persistence for backup records
type BackupRepository interface {
	shared.Repository[BackupRecord]

	FindByStatus(ctx context.Context, status BackupStatus) ([]BackupRecord, error)
	FindRecent(ctx context.Context, limit int) ([]BackupRecord, error)
}
