package backup

import (
	"strings"
	"testing"
	"time"

	"github.com/markethub/backend/internal/infrastructure/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testDBConfig() config.DatabaseConfig {
	return config.DatabaseConfig{
		Host:     "db.internal",
		Port:     5433,
		User:     "markethub",
		Password: "secret",
		DBName:   "markethub",
	}
}

func TestPgRunner_BuildDumpArgs(t *testing.T) {
	r := NewPgRunner(testDBConfig(), nil)

	args := r.buildDumpArgs("/backups/markethub-20260830-120000.dump")

	joined := strings.Join(args, " ")
	assert.Contains(t, joined, "--format custom")
	assert.Contains(t, joined, "--host db.internal")
	assert.Contains(t, joined, "--port 5433")
	assert.Contains(t, joined, "--username markethub")
	assert.Contains(t, joined, "--dbname markethub")
	assert.Contains(t, joined, "--file /backups/markethub-20260830-120000.dump")
	assert.NotContains(t, joined, "secret", "password goes through PGPASSWORD, never argv")
}

func TestPgRunner_BuildRestoreArgs(t *testing.T) {
	r := NewPgRunner(testDBConfig(), nil)

	args := r.buildRestoreArgs("/backups/a.dump")

	joined := strings.Join(args, " ")
	assert.Contains(t, joined, "--clean")
	assert.Contains(t, joined, "--if-exists")
	assert.Equal(t, "/backups/a.dump", args[len(args)-1])
}

func TestDumpFilename(t *testing.T) {
	at := time.Date(2026, 8, 30, 12, 30, 45, 0, time.UTC)

	assert.Equal(t, "markethub-20260830-123045.dump", dumpFilename(at, "dump"))
	assert.Equal(t, "markethub-20260830-123045.json", dumpFilename(at, "json"))
}

func TestPgRunner_RestoreMissingArtifact(t *testing.T) {
	r := NewPgRunner(testDBConfig(), nil)

	err := r.Restore(t.Context(), "/nonexistent/backup.dump")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not readable")
}

func TestPgRunner_RemoveMissingArtifactIsNoop(t *testing.T) {
	r := NewPgRunner(testDBConfig(), nil)

	assert.NoError(t, r.Remove("/nonexistent/backup.dump"))
}

func TestPgRunner_Options(t *testing.T) {
	r := NewPgRunner(testDBConfig(), nil, WithTimeout(time.Minute))

	assert.Equal(t, time.Minute, r.timeout)
}
