// Package backup produces database backup artifacts. It shells out to
// the postgres client tools and degrades to a JSON export of the
// application tables when they are not installed.
package backup

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"time"

	backupapp "github.com/markethub/backend/internal/application/backup"
	"github.com/markethub/backend/internal/domain/backup"
	"github.com/markethub/backend/internal/infrastructure/config"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const (
	pgDumpBinary    = "pg_dump"
	pgRestoreBinary = "pg_restore"
	defaultTimeout  = 10 * time.Minute
)

// PgRunner implements the backup Runner using pg_dump/pg_restore
type PgRunner struct {
	dbConfig config.DatabaseConfig
	db       *gorm.DB
	timeout  time.Duration
	logger   *zap.Logger
}

// PgRunnerOption is a functional option for configuring PgRunner
type PgRunnerOption func(*PgRunner)

// WithTimeout sets the timeout for dump and restore runs
func WithTimeout(d time.Duration) PgRunnerOption {
	return func(r *PgRunner) {
		r.timeout = d
	}
}

// WithLogger sets the logger for the runner
func WithLogger(logger *zap.Logger) PgRunnerOption {
	return func(r *PgRunner) {
		r.logger = logger
	}
}

// NewPgRunner creates a runner. db is used for the JSON export fallback.
func NewPgRunner(dbConfig config.DatabaseConfig, db *gorm.DB, opts ...PgRunnerOption) *PgRunner {
	r := &PgRunner{
		dbConfig: dbConfig,
		db:       db,
		timeout:  defaultTimeout,
		logger:   zap.NewNop(),
	}

	for _, opt := range opts {
		opt(r)
	}

	return r
}

// Dump writes a backup artifact into dir. It prefers a pg_dump
// custom-format archive and falls back to a JSON export when the
// pg_dump binary is not on PATH.
func (r *PgRunner) Dump(ctx context.Context, dir string) (string, backup.BackupKind, int64, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", "", 0, fmt.Errorf("failed to create backup directory: %w", err)
	}

	binary, err := exec.LookPath(pgDumpBinary)
	if err != nil {
		r.logger.Warn("pg_dump not found, falling back to JSON export",
			zap.Error(err))
		path, size, exportErr := r.jsonExport(ctx, dir)
		if exportErr != nil {
			return "", "", 0, exportErr
		}
		return path, backup.KindJSONExport, size, nil
	}

	path := filepath.Join(dir, dumpFilename(time.Now(), "dump"))

	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	args := r.buildDumpArgs(path)
	cmd := exec.CommandContext(ctx, binary, args...)
	cmd.Env = append(os.Environ(), "PGPASSWORD="+r.dbConfig.Password)

	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		os.Remove(path)
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return "", "", 0, fmt.Errorf("pg_dump timed out after %v", r.timeout)
		}
		return "", "", 0, fmt.Errorf("pg_dump failed: %s: %w", stderr.String(), err)
	}

	info, err := os.Stat(path)
	if err != nil {
		return "", "", 0, fmt.Errorf("failed to stat backup artifact: %w", err)
	}

	r.logger.Info("Database dump complete",
		zap.String("path", path),
		zap.Int64("size_bytes", info.Size()))
	return path, backup.KindPgDump, info.Size(), nil
}

// Restore loads a pg_dump artifact back into the configured database
func (r *PgRunner) Restore(ctx context.Context, path string) error {
	if _, err := os.Stat(path); err != nil {
		return fmt.Errorf("backup artifact not readable: %w", err)
	}

	binary, err := exec.LookPath(pgRestoreBinary)
	if err != nil {
		return fmt.Errorf("pg_restore not found, cannot restore: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	args := r.buildRestoreArgs(path)
	cmd := exec.CommandContext(ctx, binary, args...)
	cmd.Env = append(os.Environ(), "PGPASSWORD="+r.dbConfig.Password)

	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return fmt.Errorf("pg_restore timed out after %v", r.timeout)
		}
		return fmt.Errorf("pg_restore failed: %s: %w", stderr.String(), err)
	}

	r.logger.Info("Database restore complete", zap.String("path", path))
	return nil
}

// Remove deletes the local artifact
func (r *PgRunner) Remove(path string) error {
	err := os.Remove(path)
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to remove backup artifact: %w", err)
	}
	return nil
}

func (r *PgRunner) buildDumpArgs(path string) []string {
	return []string{
		"--format", "custom",
		"--no-owner",
		"--host", r.dbConfig.Host,
		"--port", strconv.Itoa(r.dbConfig.Port),
		"--username", r.dbConfig.User,
		"--dbname", r.dbConfig.DBName,
		"--file", path,
	}
}

func (r *PgRunner) buildRestoreArgs(path string) []string {
	return []string{
		"--clean",
		"--if-exists",
		"--no-owner",
		"--host", r.dbConfig.Host,
		"--port", strconv.Itoa(r.dbConfig.Port),
		"--username", r.dbConfig.User,
		"--dbname", r.dbConfig.DBName,
		path,
	}
}

// dumpFilename builds a timestamped artifact name
func dumpFilename(now time.Time, ext string) string {
	return "markethub-" + now.UTC().Format("20060102-150405") + "." + ext
}

// Ensure PgRunner implements Runner
var _ backupapp.Runner = (*PgRunner)(nil)
