package scheduler

import (
	"context"
	"time"

	"github.com/markethub/backend/internal/infrastructure/config"
	"go.uber.org/zap"
)

// AutomationEngine ticks schedule-triggered automation rules
type AutomationEngine interface {
	RunDue(ctx context.Context, now time.Time)
}

// SecurityScanner evaluates recent security events against thresholds
type SecurityScanner interface {
	Scan(ctx context.Context)
}

// EventPurger removes security events older than the retention period
type EventPurger interface {
	Purge(ctx context.Context, retention time.Duration) (int64, error)
}

// FeedTrimmer removes change feed entries older than the cutoff
type FeedTrimmer interface {
	DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error)
}

// BackupPruner removes verified backups beyond the keep most recent
type BackupPruner interface {
	Prune(ctx context.Context, keep int) (int, error)
}

// retentionInterval is how often retention jobs run; the cutoffs
// themselves come from configuration
const retentionInterval = time.Hour

// AutomationJob ticks the automation engine
func AutomationJob(cfg config.AutomationConfig, engine AutomationEngine) Job {
	return Job{
		Name:     "automation_tick",
		Interval: cfg.TickInterval,
		Fn: func(ctx context.Context) {
			engine.RunDue(ctx, time.Now())
		},
	}
}

// SecurityScanJob runs the threshold scan over recent security events
func SecurityScanJob(cfg config.SecurityConfig, scanner SecurityScanner) Job {
	return Job{
		Name:     "security_scan",
		Interval: cfg.ScanInterval,
		Fn: func(ctx context.Context) {
			scanner.Scan(ctx)
		},
	}
}

// SecurityRetentionJob purges security events past their retention
func SecurityRetentionJob(cfg config.SecurityConfig, purger EventPurger, logger *zap.Logger) Job {
	return Job{
		Name:       "security_event_retention",
		Interval:   retentionInterval,
		RunOnStart: true,
		Fn: func(ctx context.Context) {
			deleted, err := purger.Purge(ctx, cfg.EventRetention)
			if err != nil {
				logger.Error("Security event purge failed", zap.Error(err))
				return
			}
			if deleted > 0 {
				logger.Info("Purged old security events", zap.Int64("deleted", deleted))
			}
		},
	}
}

// ChangeFeedRetentionJob trims the change feed past its retention
func ChangeFeedRetentionJob(cfg config.SyncConfig, trimmer FeedTrimmer, logger *zap.Logger) Job {
	return Job{
		Name:       "change_feed_retention",
		Interval:   retentionInterval,
		RunOnStart: true,
		Fn: func(ctx context.Context) {
			deleted, err := trimmer.DeleteOlderThan(ctx, time.Now().Add(-cfg.Retention))
			if err != nil {
				logger.Error("Change feed trim failed", zap.Error(err))
				return
			}
			if deleted > 0 {
				logger.Info("Trimmed change feed", zap.Int64("deleted", deleted))
			}
		},
	}
}

// BackupRetentionJob prunes old backups down to the configured count
func BackupRetentionJob(cfg config.BackupConfig, pruner BackupPruner, logger *zap.Logger) Job {
	return Job{
		Name:     "backup_retention",
		Interval: retentionInterval,
		Fn: func(ctx context.Context) {
			if _, err := pruner.Prune(ctx, cfg.Retention); err != nil {
				logger.Error("Backup prune failed", zap.Error(err))
			}
		},
	}
}
