package security

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/markethub/backend/internal/domain/security"
	"github.com/markethub/backend/internal/domain/shared"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// MockSecurityEventRepository is a mock implementation of security.SecurityEventRepository
type MockSecurityEventRepository struct {
	mock.Mock
}

func (m *MockSecurityEventRepository) Save(ctx context.Context, event *security.SecurityEvent) error {
	args := m.Called(ctx, event)
	return args.Error(0)
}

func (m *MockSecurityEventRepository) FindByID(ctx context.Context, id string) (*security.SecurityEvent, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*security.SecurityEvent), args.Error(1)
}

func (m *MockSecurityEventRepository) FindAll(ctx context.Context, filter shared.Filter) (shared.Paginated[security.SecurityEvent], error) {
	args := m.Called(ctx, filter)
	return args.Get(0).(shared.Paginated[security.SecurityEvent]), args.Error(1)
}

func (m *MockSecurityEventRepository) CountByTypeSince(ctx context.Context, eventType security.EventType, since time.Time) (int64, error) {
	args := m.Called(ctx, eventType, since)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockSecurityEventRepository) CountByActorSince(ctx context.Context, eventType security.EventType, since time.Time) ([]security.ActorCount, error) {
	args := m.Called(ctx, eventType, since)
	return args.Get(0).([]security.ActorCount), args.Error(1)
}

func (m *MockSecurityEventRepository) CountByIPSince(ctx context.Context, eventType security.EventType, since time.Time) ([]security.ActorCount, error) {
	args := m.Called(ctx, eventType, since)
	return args.Get(0).([]security.ActorCount), args.Error(1)
}

func (m *MockSecurityEventRepository) HourlyCounts(ctx context.Context, since time.Time) ([]int64, error) {
	args := m.Called(ctx, since)
	return args.Get(0).([]int64), args.Error(1)
}

func (m *MockSecurityEventRepository) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	args := m.Called(ctx, cutoff)
	return args.Get(0).(int64), args.Error(1)
}

// MockAlertRepository is a mock implementation of security.AlertRepository
type MockAlertRepository struct {
	mock.Mock
}

func (m *MockAlertRepository) FindByID(ctx context.Context, id uuid.UUID) (*security.Alert, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*security.Alert), args.Error(1)
}

func (m *MockAlertRepository) FindAll(ctx context.Context, filter shared.Filter) ([]security.Alert, error) {
	args := m.Called(ctx, filter)
	return args.Get(0).([]security.Alert), args.Error(1)
}

func (m *MockAlertRepository) Save(ctx context.Context, alert *security.Alert) error {
	args := m.Called(ctx, alert)
	return args.Error(0)
}

func (m *MockAlertRepository) Delete(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockAlertRepository) Count(ctx context.Context, filter shared.Filter) (int64, error) {
	args := m.Called(ctx, filter)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockAlertRepository) FindByStatus(ctx context.Context, status security.AlertStatus, filter shared.Filter) (shared.Paginated[security.Alert], error) {
	args := m.Called(ctx, status, filter)
	return args.Get(0).(shared.Paginated[security.Alert]), args.Error(1)
}

func (m *MockAlertRepository) FindActiveByDedupKey(ctx context.Context, dedupKey string) (*security.Alert, error) {
	args := m.Called(ctx, dedupKey)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*security.Alert), args.Error(1)
}

func (m *MockAlertRepository) CountByStatus(ctx context.Context) (map[security.AlertStatus]int64, error) {
	args := m.Called(ctx)
	return args.Get(0).(map[security.AlertStatus]int64), args.Error(1)
}

func newTestMonitor(events *MockSecurityEventRepository, alerts *MockAlertRepository) *Monitor {
	alertSvc := NewAlertService(alerts, zap.NewNop())
	return NewMonitor(events, alertSvc, DefaultMonitorConfig(), zap.NewNop())
}

func noActorCounts() []security.ActorCount { return []security.ActorCount{} }

func TestMonitor_FailedLoginScan(t *testing.T) {
	t.Run("threshold breach raises alert", func(t *testing.T) {
		events := new(MockSecurityEventRepository)
		alerts := new(MockAlertRepository)
		monitor := newTestMonitor(events, alerts)

		events.On("CountByActorSince", mock.Anything, security.EventLoginFailed, mock.Anything).
			Return([]security.ActorCount{{Key: "jane@example.com", Count: 12}}, nil)
		events.On("CountByIPSince", mock.Anything, security.EventLoginFailed, mock.Anything).
			Return(noActorCounts(), nil)
		events.On("CountByActorSince", mock.Anything, security.EventPermissionDenied, mock.Anything).
			Return(noActorCounts(), nil)
		events.On("HourlyCounts", mock.Anything, mock.Anything).Return([]int64{}, nil)

		alerts.On("FindActiveByDedupKey", mock.Anything, "failed_logins_actor:jane@example.com").
			Return(nil, shared.ErrNotFound).Once()
		alerts.On("Save", mock.Anything, mock.MatchedBy(func(a *security.Alert) bool {
			return a.Rule == "failed_logins_actor" && a.Severity == security.SeverityWarning
		})).Return(nil).Once()

		monitor.Scan(context.Background())
		alerts.AssertExpectations(t)
	})

	t.Run("double threshold is critical", func(t *testing.T) {
		events := new(MockSecurityEventRepository)
		alerts := new(MockAlertRepository)
		monitor := newTestMonitor(events, alerts)

		events.On("CountByActorSince", mock.Anything, security.EventLoginFailed, mock.Anything).
			Return(noActorCounts(), nil)
		events.On("CountByIPSince", mock.Anything, security.EventLoginFailed, mock.Anything).
			Return([]security.ActorCount{{Key: "203.0.113.9", Count: 25}}, nil)
		events.On("CountByActorSince", mock.Anything, security.EventPermissionDenied, mock.Anything).
			Return(noActorCounts(), nil)
		events.On("HourlyCounts", mock.Anything, mock.Anything).Return([]int64{}, nil)

		alerts.On("FindActiveByDedupKey", mock.Anything, "failed_logins_ip:203.0.113.9").
			Return(nil, shared.ErrNotFound).Once()
		alerts.On("Save", mock.Anything, mock.MatchedBy(func(a *security.Alert) bool {
			return a.Severity == security.SeverityCritical
		})).Return(nil).Once()

		monitor.Scan(context.Background())
		alerts.AssertExpectations(t)
	})

	t.Run("active alert is touched not duplicated", func(t *testing.T) {
		events := new(MockSecurityEventRepository)
		alerts := new(MockAlertRepository)
		monitor := newTestMonitor(events, alerts)

		existing, err := security.NewAlert("failed_logins_actor", security.SeverityWarning, "m", "failed_logins_actor:jane@example.com")
		require.NoError(t, err)

		events.On("CountByActorSince", mock.Anything, security.EventLoginFailed, mock.Anything).
			Return([]security.ActorCount{{Key: "jane@example.com", Count: 12}}, nil)
		events.On("CountByIPSince", mock.Anything, security.EventLoginFailed, mock.Anything).
			Return(noActorCounts(), nil)
		events.On("CountByActorSince", mock.Anything, security.EventPermissionDenied, mock.Anything).
			Return(noActorCounts(), nil)
		events.On("HourlyCounts", mock.Anything, mock.Anything).Return([]int64{}, nil)

		alerts.On("FindActiveByDedupKey", mock.Anything, existing.DedupKey).Return(existing, nil).Once()
		alerts.On("Save", mock.Anything, existing).Return(nil).Once()

		monitor.Scan(context.Background())
		assert.Equal(t, 2, existing.Occurrences)
		alerts.AssertExpectations(t)
	})

	t.Run("below threshold stays quiet", func(t *testing.T) {
		events := new(MockSecurityEventRepository)
		alerts := new(MockAlertRepository)
		monitor := newTestMonitor(events, alerts)

		events.On("CountByActorSince", mock.Anything, security.EventLoginFailed, mock.Anything).
			Return([]security.ActorCount{{Key: "jane@example.com", Count: 2}}, nil)
		events.On("CountByIPSince", mock.Anything, security.EventLoginFailed, mock.Anything).
			Return(noActorCounts(), nil)
		events.On("CountByActorSince", mock.Anything, security.EventPermissionDenied, mock.Anything).
			Return(noActorCounts(), nil)
		events.On("HourlyCounts", mock.Anything, mock.Anything).Return([]int64{}, nil)

		monitor.Scan(context.Background())
		alerts.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
	})
}

func TestMonitor_RequestVolumeScan(t *testing.T) {
	baseline := []int64{100, 110, 90, 105, 95, 100, 108, 92}

	t.Run("outlier raises alert", func(t *testing.T) {
		events := new(MockSecurityEventRepository)
		alerts := new(MockAlertRepository)
		monitor := newTestMonitor(events, alerts)

		events.On("CountByActorSince", mock.Anything, mock.Anything, mock.Anything).Return(noActorCounts(), nil)
		events.On("CountByIPSince", mock.Anything, mock.Anything, mock.Anything).Return(noActorCounts(), nil)
		events.On("HourlyCounts", mock.Anything, mock.Anything).
			Return(append(append([]int64{}, baseline...), 500), nil)

		alerts.On("FindActiveByDedupKey", mock.Anything, "request_volume").Return(nil, shared.ErrNotFound).Once()
		alerts.On("Save", mock.Anything, mock.MatchedBy(func(a *security.Alert) bool {
			return a.Rule == "request_volume"
		})).Return(nil).Once()

		monitor.Scan(context.Background())
		alerts.AssertExpectations(t)
	})

	t.Run("normal volume stays quiet", func(t *testing.T) {
		events := new(MockSecurityEventRepository)
		alerts := new(MockAlertRepository)
		monitor := newTestMonitor(events, alerts)

		events.On("CountByActorSince", mock.Anything, mock.Anything, mock.Anything).Return(noActorCounts(), nil)
		events.On("CountByIPSince", mock.Anything, mock.Anything, mock.Anything).Return(noActorCounts(), nil)
		events.On("HourlyCounts", mock.Anything, mock.Anything).
			Return(append(append([]int64{}, baseline...), 112), nil)

		monitor.Scan(context.Background())
		alerts.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
	})

	t.Run("constant history never alerts", func(t *testing.T) {
		events := new(MockSecurityEventRepository)
		alerts := new(MockAlertRepository)
		monitor := newTestMonitor(events, alerts)

		events.On("CountByActorSince", mock.Anything, mock.Anything, mock.Anything).Return(noActorCounts(), nil)
		events.On("CountByIPSince", mock.Anything, mock.Anything, mock.Anything).Return(noActorCounts(), nil)
		events.On("HourlyCounts", mock.Anything, mock.Anything).
			Return([]int64{50, 50, 50, 50, 9000}, nil)

		// stddev of constant history is zero, the check opts out
		monitor.Scan(context.Background())
		alerts.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
	})
}

func TestMeanStddev(t *testing.T) {
	mean, stddev := meanStddev([]int64{2, 4, 4, 4, 5, 5, 7, 9})
	assert.InDelta(t, 5.0, mean, 1e-9)
	assert.InDelta(t, 2.0, stddev, 1e-9)

	mean, stddev = meanStddev(nil)
	assert.Zero(t, mean)
	assert.Zero(t, stddev)
}
