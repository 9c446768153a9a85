package security

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/markethub/backend/internal/domain/security"
	"go.uber.org/zap"
)

// MonitorConfig tunes the security scan thresholds
type MonitorConfig struct {
	// Window is how far back each scan looks
	Window time.Duration
	// FailedLoginThreshold raises an alert when one actor or IP
	// reaches this many failed logins inside the window
	FailedLoginThreshold int64
	// PermissionDeniedThreshold raises an alert when one actor
	// reaches this many denials inside the window
	PermissionDeniedThreshold int64
	// VolumeSigma is how many standard deviations above the mean the
	// latest hourly request count must be to count as an outlier
	VolumeSigma float64
	// VolumeHistoryHours is how many hourly buckets feed the
	// mean/stddev baseline
	VolumeHistoryHours int
}

// DefaultMonitorConfig returns the default scan thresholds
func DefaultMonitorConfig() MonitorConfig {
	return MonitorConfig{
		Window:                    15 * time.Minute,
		FailedLoginThreshold:      10,
		PermissionDeniedThreshold: 20,
		VolumeSigma:               3,
		VolumeHistoryHours:        24,
	}
}

// Monitor scans the security event trail for threshold breaches and
// volume outliers, raising alerts through the alert service. The
// scheduler drives Scan on an interval.
type Monitor struct {
	eventRepo security.SecurityEventRepository
	alerts    *AlertService
	config    MonitorConfig
	logger    *zap.Logger
}

// NewMonitor creates a security monitor
func NewMonitor(eventRepo security.SecurityEventRepository, alerts *AlertService, config MonitorConfig, logger *zap.Logger) *Monitor {
	def := DefaultMonitorConfig()
	if config.Window <= 0 {
		config.Window = def.Window
	}
	if config.FailedLoginThreshold <= 0 {
		config.FailedLoginThreshold = def.FailedLoginThreshold
	}
	if config.PermissionDeniedThreshold <= 0 {
		config.PermissionDeniedThreshold = def.PermissionDeniedThreshold
	}
	if config.VolumeSigma <= 0 {
		config.VolumeSigma = def.VolumeSigma
	}
	if config.VolumeHistoryHours <= 0 {
		config.VolumeHistoryHours = def.VolumeHistoryHours
	}
	return &Monitor{
		eventRepo: eventRepo,
		alerts:    alerts,
		config:    config,
		logger:    logger,
	}
}

// Scan runs all checks once. Individual check failures are logged and
// do not stop the remaining checks.
func (m *Monitor) Scan(ctx context.Context) {
	since := time.Now().Add(-m.config.Window)

	m.scanFailedLogins(ctx, since)
	m.scanPermissionDenials(ctx, since)
	m.scanRequestVolume(ctx)
}

func (m *Monitor) scanFailedLogins(ctx context.Context, since time.Time) {
	byActor, err := m.eventRepo.CountByActorSince(ctx, security.EventLoginFailed, since)
	if err != nil {
		m.logger.Warn("Failed login scan by actor failed", zap.Error(err))
	} else {
		m.raiseOverThreshold(ctx, "failed_logins_actor", "actor", byActor, m.config.FailedLoginThreshold)
	}

	byIP, err := m.eventRepo.CountByIPSince(ctx, security.EventLoginFailed, since)
	if err != nil {
		m.logger.Warn("Failed login scan by IP failed", zap.Error(err))
	} else {
		m.raiseOverThreshold(ctx, "failed_logins_ip", "IP", byIP, m.config.FailedLoginThreshold)
	}
}

func (m *Monitor) scanPermissionDenials(ctx context.Context, since time.Time) {
	byActor, err := m.eventRepo.CountByActorSince(ctx, security.EventPermissionDenied, since)
	if err != nil {
		m.logger.Warn("Permission denial scan failed", zap.Error(err))
		return
	}
	m.raiseOverThreshold(ctx, "permission_denials", "actor", byActor, m.config.PermissionDeniedThreshold)
}

func (m *Monitor) raiseOverThreshold(ctx context.Context, rule, keyLabel string, counts []security.ActorCount, threshold int64) {
	for _, c := range counts {
		if c.Count < threshold || c.Key == "" {
			continue
		}
		message := fmt.Sprintf("%d %s events from %s %q in the last %s",
			c.Count, rule, keyLabel, c.Key, m.config.Window)
		dedupKey := rule + ":" + c.Key
		if _, _, err := m.alerts.Raise(ctx, rule, severityFor(c.Count, threshold), message, dedupKey); err != nil {
			m.logger.Warn("Failed to raise alert", zap.String("rule", rule), zap.Error(err))
		}
	}
}

// scanRequestVolume flags the current hour when it sits more than
// VolumeSigma standard deviations above the historical mean
func (m *Monitor) scanRequestVolume(ctx context.Context) {
	since := time.Now().Add(-time.Duration(m.config.VolumeHistoryHours) * time.Hour)
	buckets, err := m.eventRepo.HourlyCounts(ctx, since)
	if err != nil {
		m.logger.Warn("Request volume scan failed", zap.Error(err))
		return
	}
	// need a baseline plus the current bucket
	if len(buckets) < 3 {
		return
	}

	current := buckets[len(buckets)-1]
	history := buckets[:len(buckets)-1]

	mean, stddev := meanStddev(history)
	if stddev == 0 {
		return
	}

	limit := mean + m.config.VolumeSigma*stddev
	if float64(current) <= limit {
		return
	}

	message := fmt.Sprintf("Request volume outlier: %d events this hour against a mean of %.1f (stddev %.1f)",
		current, mean, stddev)
	if _, _, err := m.alerts.Raise(ctx, "request_volume", security.SeverityWarning, message, "request_volume"); err != nil {
		m.logger.Warn("Failed to raise volume alert", zap.Error(err))
	}
}

func meanStddev(values []int64) (float64, float64) {
	if len(values) == 0 {
		return 0, 0
	}
	var sum float64
	for _, v := range values {
		sum += float64(v)
	}
	mean := sum / float64(len(values))

	var variance float64
	for _, v := range values {
		d := float64(v) - mean
		variance += d * d
	}
	variance /= float64(len(values))
	return mean, math.Sqrt(variance)
}

func severityFor(count, threshold int64) security.Severity {
	if count >= threshold*2 {
		return security.SeverityCritical
	}
	return security.SeverityWarning
}
