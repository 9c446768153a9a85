package telemetry

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// catalogRow is a minimal product projection for exercising traced queries.
type catalogRow struct {
	ID   uint   `gorm:"primaryKey"`
	SKU  string `gorm:"size:50"`
	Name string `gorm:"size:100"`
}

func newTracingTestGorm(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&catalogRow{}))
	return db
}

// tracingSpanContext starts a recording span and returns its context plus
// the recorder holding what was written to it.
func tracingSpanContext(t *testing.T) (context.Context, *tracetest.SpanRecorder) {
	t.Helper()
	recorder := tracetest.NewSpanRecorder()
	provider := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))
	t.Cleanup(func() { _ = provider.Shutdown(context.Background()) })

	ctx, span := provider.Tracer("db.test").Start(context.Background(), "catalog-query")
	t.Cleanup(func() { span.End() })
	return ctx, recorder
}

func spanAttribute(span sdktrace.ReadOnlySpan, key string) (string, bool) {
	for _, attr := range span.Attributes() {
		if string(attr.Key) == key {
			return attr.Value.Emit(), true
		}
	}
	return "", false
}

func TestDefaultDBTracingConfig(t *testing.T) {
	cfg := DefaultDBTracingConfig()

	assert.False(t, cfg.Enabled)
	assert.False(t, cfg.LogFullSQL, "bound variables must stay out of spans by default")
	assert.Equal(t, 200*time.Millisecond, cfg.SlowQueryThresh)
	assert.Equal(t, "postgresql", cfg.DBSystem)
}

func TestDBTracingPlugin_DisabledSkipsRegistration(t *testing.T) {
	db := newTracingTestGorm(t)
	plugin := NewDBTracingPlugin(DefaultDBTracingConfig(), zap.NewNop())

	require.NoError(t, plugin.RegisterOtelGorm(db))

	_, registered := db.Plugins["otelgorm"]
	assert.False(t, registered)
}

func TestDBTracingPlugin_EnabledRegistersOtelGorm(t *testing.T) {
	db := newTracingTestGorm(t)
	cfg := DefaultDBTracingConfig()
	cfg.Enabled = true
	plugin := NewDBTracingPlugin(cfg, zap.NewNop())

	require.NoError(t, plugin.RegisterOtelGorm(db))

	_, registered := db.Plugins["otelgorm"]
	assert.True(t, registered)
}

func TestDBTracingPlugin_EnrichSpanAttributes(t *testing.T) {
	ctx, recorder := tracingSpanContext(t)
	db := newTracingTestGorm(t)
	plugin := NewDBTracingPlugin(DBTracingConfig{Enabled: true, SlowQueryThresh: time.Hour}, zap.NewNop())

	session := db.Session(&gorm.Session{NewDB: true})
	session.Statement.Context = ctx
	session.Statement.Table = "order_items"
	session.Statement.RowsAffected = 3

	plugin.enrichSpan(session)

	spans := recorder.Started()
	require.Len(t, spans, 1)

	table, ok := spanAttribute(spans[0], "db.sql.table")
	require.True(t, ok)
	assert.Equal(t, "order_items", table)

	rows, ok := spanAttribute(spans[0], "db.rows_affected")
	require.True(t, ok)
	assert.Equal(t, "3", rows)
}

func TestDBTracingPlugin_SlowQueryEvent(t *testing.T) {
	ctx, recorder := tracingSpanContext(t)
	db := newTracingTestGorm(t)
	plugin := NewDBTracingPlugin(DBTracingConfig{Enabled: true, SlowQueryThresh: time.Nanosecond}, zap.NewNop())

	session := db.Session(&gorm.Session{NewDB: true})
	session.Statement.Context = context.WithValue(ctx, queryStartTimeKey, time.Now().Add(-time.Second))

	plugin.enrichSpan(session)

	spans := recorder.Started()
	require.Len(t, spans, 1)

	slow, ok := spanAttribute(spans[0], "db.slow_query")
	require.True(t, ok)
	assert.Equal(t, "true", slow)

	var sawWarning bool
	for _, event := range spans[0].Events() {
		if event.Name == "slow_query_warning" {
			sawWarning = true
		}
	}
	assert.True(t, sawWarning)
}

func TestDBTracingPlugin_FastQueryHasNoSlowTag(t *testing.T) {
	ctx, recorder := tracingSpanContext(t)
	db := newTracingTestGorm(t)
	plugin := NewDBTracingPlugin(DBTracingConfig{Enabled: true, SlowQueryThresh: time.Hour}, zap.NewNop())

	session := db.Session(&gorm.Session{NewDB: true})
	session.Statement.Context = context.WithValue(ctx, queryStartTimeKey, time.Now())

	plugin.enrichSpan(session)

	_, ok := spanAttribute(recorder.Started()[0], "db.slow_query")
	assert.False(t, ok)
}

func TestDBTracingPlugin_MarksErrors(t *testing.T) {
	t.Run("real error sets span status", func(t *testing.T) {
		ctx, recorder := tracingSpanContext(t)
		db := newTracingTestGorm(t)
		plugin := NewDBTracingPlugin(DBTracingConfig{Enabled: true, SlowQueryThresh: time.Hour}, zap.NewNop())

		session := db.Session(&gorm.Session{NewDB: true})
		session.Statement.Context = ctx
		session.Error = errors.New("deadlock detected")

		plugin.enrichSpan(session)

		span := recorder.Started()[0]
		assert.Equal(t, codes.Error, span.Status().Code)
		assert.Equal(t, "deadlock detected", span.Status().Description)
	})

	t.Run("record-not-found is not an error", func(t *testing.T) {
		ctx, recorder := tracingSpanContext(t)
		db := newTracingTestGorm(t)
		plugin := NewDBTracingPlugin(DBTracingConfig{Enabled: true, SlowQueryThresh: time.Hour}, zap.NewNop())

		session := db.Session(&gorm.Session{NewDB: true})
		session.Statement.Context = ctx
		session.Error = gorm.ErrRecordNotFound

		plugin.enrichSpan(session)

		span := recorder.Started()[0]
		assert.Equal(t, codes.Unset, span.Status().Code)
		assert.Empty(t, span.Events())
	})
}

func TestDBTracingPlugin_NoContextIsHarmless(t *testing.T) {
	db := newTracingTestGorm(t)
	plugin := NewDBTracingPlugin(DBTracingConfig{Enabled: true, SlowQueryThresh: time.Hour}, zap.NewNop())

	session := db.Session(&gorm.Session{NewDB: true})
	session.Statement.Context = nil

	assert.NotPanics(t, func() { plugin.enrichSpan(session) })
}

func TestDBTracingPlugin_TracedCatalogQueries(t *testing.T) {
	recorder := tracetest.NewSpanRecorder()
	provider := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))
	t.Cleanup(func() { _ = provider.Shutdown(context.Background()) })

	db := newTracingTestGorm(t)
	plugin := NewDBTracingPlugin(DBTracingConfig{
		Enabled:         true,
		SlowQueryThresh: time.Nanosecond, // everything counts as slow
		DBSystem:        "sqlite",
	}, zap.NewNop())
	require.NoError(t, plugin.RegisterOtelGorm(db))

	ctx, parent := provider.Tracer("db.test").Start(context.Background(), "restock-widgets")
	require.NoError(t, db.WithContext(ctx).Create(&catalogRow{SKU: "WIDGET-1", Name: "Widget"}).Error)

	var rows []catalogRow
	require.NoError(t, db.WithContext(ctx).Where("sku = ?", "WIDGET-1").Find(&rows).Error)
	parent.End()

	require.Len(t, rows, 1)

	// One span per statement plus the parent.
	spans := recorder.Started()
	require.GreaterOrEqual(t, len(spans), 3)

	var sawSlowTag bool
	for _, span := range spans {
		if slow, ok := spanAttribute(span, "db.slow_query"); ok && slow == "true" {
			sawSlowTag = true
		}
	}
	assert.True(t, sawSlowTag, "statement spans should carry the slow-query tag at a nanosecond threshold")
}
