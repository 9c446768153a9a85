package backup

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/markethub/backend/internal/domain/backup"
	"github.com/markethub/backend/internal/domain/shared"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type MockBackupRepository struct {
	mock.Mock
}

func (m *MockBackupRepository) FindByID(ctx context.Context, id uuid.UUID) (*backup.BackupRecord, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*backup.BackupRecord), args.Error(1)
}

func (m *MockBackupRepository) FindAll(ctx context.Context, filter shared.Filter) ([]backup.BackupRecord, error) {
	args := m.Called(ctx, filter)
	return args.Get(0).([]backup.BackupRecord), args.Error(1)
}

func (m *MockBackupRepository) Save(ctx context.Context, record *backup.BackupRecord) error {
	args := m.Called(ctx, record)
	return args.Error(0)
}

func (m *MockBackupRepository) Delete(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockBackupRepository) Count(ctx context.Context, filter shared.Filter) (int64, error) {
	args := m.Called(ctx, filter)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockBackupRepository) FindByStatus(ctx context.Context, status backup.BackupStatus) ([]backup.BackupRecord, error) {
	args := m.Called(ctx, status)
	return args.Get(0).([]backup.BackupRecord), args.Error(1)
}

func (m *MockBackupRepository) FindRecent(ctx context.Context, limit int) ([]backup.BackupRecord, error) {
	args := m.Called(ctx, limit)
	return args.Get(0).([]backup.BackupRecord), args.Error(1)
}

type MockRunner struct {
	mock.Mock
}

func (m *MockRunner) Dump(ctx context.Context, dir string) (string, backup.BackupKind, int64, error) {
	args := m.Called(ctx, dir)
	return args.String(0), args.Get(1).(backup.BackupKind), args.Get(2).(int64), args.Error(3)
}

func (m *MockRunner) Restore(ctx context.Context, path string) error {
	args := m.Called(ctx, path)
	return args.Error(0)
}

func (m *MockRunner) Remove(path string) error {
	args := m.Called(path)
	return args.Error(0)
}

type MockObjectStore struct {
	mock.Mock
}

func (m *MockObjectStore) Upload(ctx context.Context, key, localPath string) error {
	args := m.Called(ctx, key, localPath)
	return args.Error(0)
}

func TestBackupService_Run_PgDumpWithUpload(t *testing.T) {
	repo := new(MockBackupRepository)
	runner := new(MockRunner)
	store := new(MockObjectStore)
	service := NewBackupService(repo, runner, store, "/var/backups", zap.NewNop())

	runner.On("Dump", mock.Anything, "/var/backups").
		Return("/var/backups/db-20260830.dump", backup.KindPgDump, int64(1024*1024), nil)
	store.On("Upload", mock.Anything, mock.Anything, "/var/backups/db-20260830.dump").Return(nil)
	repo.On("Save", mock.Anything, mock.Anything).Return(nil)

	dto, err := service.Run(context.Background())

	require.NoError(t, err)
	assert.Equal(t, "pg_dump", dto.Kind)
	assert.Equal(t, "verified", dto.Status)
	assert.Equal(t, int64(1024*1024), dto.SizeBytes)
	assert.NotEmpty(t, dto.RemoteKey)
	assert.True(t, dto.Restorable)
	store.AssertExpectations(t)
}

func TestBackupService_Run_JSONFallbackNotRestorable(t *testing.T) {
	repo := new(MockBackupRepository)
	runner := new(MockRunner)
	service := NewBackupService(repo, runner, nil, "/var/backups", zap.NewNop())

	runner.On("Dump", mock.Anything, "/var/backups").
		Return("/var/backups/db-20260830.json", backup.KindJSONExport, int64(2048), nil)
	repo.On("Save", mock.Anything, mock.Anything).Return(nil)

	dto, err := service.Run(context.Background())

	require.NoError(t, err)
	assert.Equal(t, "json_export", dto.Kind)
	assert.Equal(t, "verified", dto.Status)
	assert.Empty(t, dto.RemoteKey)
	assert.False(t, dto.Restorable)
}

func TestBackupService_Run_DumpFailureRecorded(t *testing.T) {
	repo := new(MockBackupRepository)
	runner := new(MockRunner)
	service := NewBackupService(repo, runner, nil, "/var/backups", zap.NewNop())

	runner.On("Dump", mock.Anything, "/var/backups").
		Return("", backup.BackupKind(""), int64(0), errors.New("pg_dump: connection refused"))
	repo.On("Save", mock.Anything, mock.MatchedBy(func(r *backup.BackupRecord) bool {
		return r.Status == backup.BackupStatusFailed
	})).Return(nil)

	_, err := service.Run(context.Background())

	require.Error(t, err)
	domainErr, ok := err.(*shared.DomainError)
	require.True(t, ok)
	assert.Equal(t, "BACKUP_FAILED", domainErr.Code)
	repo.AssertExpectations(t)
}

func TestBackupService_Run_UploadFailureKeepsLocalArtifact(t *testing.T) {
	repo := new(MockBackupRepository)
	runner := new(MockRunner)
	store := new(MockObjectStore)
	service := NewBackupService(repo, runner, store, "/var/backups", zap.NewNop())

	runner.On("Dump", mock.Anything, mock.Anything).
		Return("/var/backups/db.dump", backup.KindPgDump, int64(512), nil)
	store.On("Upload", mock.Anything, mock.Anything, mock.Anything).
		Return(errors.New("s3: access denied"))
	repo.On("Save", mock.Anything, mock.Anything).Return(nil)

	dto, err := service.Run(context.Background())

	require.NoError(t, err)
	assert.Equal(t, "verified", dto.Status)
	assert.Empty(t, dto.RemoteKey)
}

func TestBackupService_Restore_RejectsJSONExport(t *testing.T) {
	repo := new(MockBackupRepository)
	runner := new(MockRunner)
	service := NewBackupService(repo, runner, nil, "/var/backups", zap.NewNop())

	record, err := backup.NewBackupRecord(backup.KindJSONExport, "/var/backups/db.json")
	require.NoError(t, err)
	require.NoError(t, record.MarkVerified(100))

	repo.On("FindByID", mock.Anything, record.ID).Return(record, nil)

	err = service.Restore(context.Background(), record.ID)

	require.Error(t, err)
	domainErr, ok := err.(*shared.DomainError)
	require.True(t, ok)
	assert.Equal(t, "NOT_RESTORABLE", domainErr.Code)
	runner.AssertNotCalled(t, "Restore", mock.Anything, mock.Anything)
}

func TestBackupService_Restore_PgDump(t *testing.T) {
	repo := new(MockBackupRepository)
	runner := new(MockRunner)
	service := NewBackupService(repo, runner, nil, "/var/backups", zap.NewNop())

	record, err := backup.NewBackupRecord(backup.KindPgDump, "/var/backups/db.dump")
	require.NoError(t, err)
	require.NoError(t, record.MarkVerified(100))

	repo.On("FindByID", mock.Anything, record.ID).Return(record, nil)
	runner.On("Restore", mock.Anything, "/var/backups/db.dump").Return(nil)

	require.NoError(t, service.Restore(context.Background(), record.ID))
	runner.AssertExpectations(t)
}

func TestBackupService_Prune(t *testing.T) {
	t.Run("prunes beyond keep, newest first", func(t *testing.T) {
		repo := new(MockBackupRepository)
		runner := new(MockRunner)
		service := NewBackupService(repo, runner, nil, "/var/backups", zap.NewNop())

		records := make([]backup.BackupRecord, 3)
		for i := range records {
			record, err := backup.NewBackupRecord(backup.KindPgDump, "/var/backups/db.dump")
			require.NoError(t, err)
			require.NoError(t, record.MarkVerified(100))
			record.CreatedAt = record.CreatedAt.Add(-time.Duration(i) * time.Hour)
			records[i] = *record
		}

		repo.On("FindByStatus", mock.Anything, backup.BackupStatusVerified).Return(records, nil)
		repo.On("Save", mock.Anything, mock.MatchedBy(func(r *backup.BackupRecord) bool {
			return r.Status == backup.BackupStatusDeleted
		})).Return(nil)
		runner.On("Remove", "/var/backups/db.dump").Return(nil)

		pruned, err := service.Prune(context.Background(), 2)
		require.NoError(t, err)
		assert.Equal(t, 1, pruned)
		repo.AssertExpectations(t)
	})

	t.Run("nothing to prune under keep", func(t *testing.T) {
		repo := new(MockBackupRepository)
		service := NewBackupService(repo, new(MockRunner), nil, "/var/backups", zap.NewNop())

		repo.On("FindByStatus", mock.Anything, backup.BackupStatusVerified).
			Return([]backup.BackupRecord{}, nil)

		pruned, err := service.Prune(context.Background(), 14)
		require.NoError(t, err)
		assert.Zero(t, pruned)
	})

	t.Run("non-positive keep is a no-op", func(t *testing.T) {
		repo := new(MockBackupRepository)
		service := NewBackupService(repo, new(MockRunner), nil, "/var/backups", zap.NewNop())

		pruned, err := service.Prune(context.Background(), 0)
		require.NoError(t, err)
		assert.Zero(t, pruned)
		repo.AssertNotCalled(t, "FindByStatus", mock.Anything, mock.Anything)
	})
}

func TestBackupService_Delete(t *testing.T) {
	repo := new(MockBackupRepository)
	runner := new(MockRunner)
	service := NewBackupService(repo, runner, nil, "/var/backups", zap.NewNop())

	record, err := backup.NewBackupRecord(backup.KindPgDump, "/var/backups/db.dump")
	require.NoError(t, err)
	require.NoError(t, record.MarkVerified(100))

	repo.On("FindByID", mock.Anything, record.ID).Return(record, nil)
	repo.On("Save", mock.Anything, record).Return(nil)
	runner.On("Remove", "/var/backups/db.dump").Return(nil)

	require.NoError(t, service.Delete(context.Background(), record.ID))
	assert.Equal(t, backup.BackupStatusDeleted, record.Status)
}
