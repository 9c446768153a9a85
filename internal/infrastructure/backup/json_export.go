package backup

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"
)

// exportTables are the application tables included in a JSON export,
// dumped in an order that restores cleanly under foreign keys
var exportTables = []string{
	"roles",
	"users",
	"user_roles",
	"categories",
	"products",
	"orders",
	"order_items",
	"integrations",
	"mobile_screen_configs",
	"security_events",
	"security_alerts",
	"automation_rules",
	"bulk_operations",
	"change_events",
	"backup_records",
}

// jsonExportFile is the artifact layout of a JSON export
type jsonExportFile struct {
	ExportedAt time.Time             `json:"exported_at"`
	Tables     map[string][]tableRow `json:"tables"`
	RowCounts  map[string]int        `json:"row_counts"`
}

type tableRow = map[string]interface{}

// jsonExport dumps the application tables to a JSON file. This is the
// fallback when pg_dump is not installed; the artifact is not
// restorable by pg_restore and serves as a last-resort export.
func (r *PgRunner) jsonExport(ctx context.Context, dir string) (string, int64, error) {
	export := jsonExportFile{
		ExportedAt: time.Now().UTC(),
		Tables:     make(map[string][]tableRow, len(exportTables)),
		RowCounts:  make(map[string]int, len(exportTables)),
	}

	for _, table := range exportTables {
		var rows []tableRow
		if err := r.db.WithContext(ctx).Table(table).Find(&rows).Error; err != nil {
			return "", 0, fmt.Errorf("failed to export table %s: %w", table, err)
		}
		export.Tables[table] = rows
		export.RowCounts[table] = len(rows)
	}

	path := filepath.Join(dir, dumpFilename(time.Now(), "json"))

	file, err := os.Create(path)
	if err != nil {
		return "", 0, fmt.Errorf("failed to create export file: %w", err)
	}

	encoder := json.NewEncoder(file)
	if err := encoder.Encode(export); err != nil {
		file.Close()
		os.Remove(path)
		return "", 0, fmt.Errorf("failed to write export: %w", err)
	}
	if err := file.Close(); err != nil {
		return "", 0, fmt.Errorf("failed to close export file: %w", err)
	}

	info, err := os.Stat(path)
	if err != nil {
		return "", 0, fmt.Errorf("failed to stat export file: %w", err)
	}

	r.logger.Info("JSON export complete",
		zap.String("path", path),
		zap.Int("tables", len(exportTables)),
		zap.Int64("size_bytes", info.Size()))
	return path, info.Size(), nil
}
