package telemetry

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"go.opentelemetry.io/otel/trace"
)

// installSpanRecorder swaps the global tracer provider for one backed by
// an in-memory recorder so StartSpan output can be inspected.
func installSpanRecorder(t *testing.T) *tracetest.SpanRecorder {
	t.Helper()
	recorder := tracetest.NewSpanRecorder()
	provider := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))

	previous := otel.GetTracerProvider()
	otel.SetTracerProvider(provider)
	t.Cleanup(func() {
		otel.SetTracerProvider(previous)
		_ = provider.Shutdown(context.Background())
	})
	return recorder
}

func TestStartSpan(t *testing.T) {
	recorder := installSpanRecorder(t)

	ctx, span := StartSpan(context.Background(), "sales_order.create")
	require.NotNil(t, span)
	assert.True(t, span.SpanContext().IsValid())
	assert.Equal(t, span.SpanContext(), trace.SpanFromContext(ctx).SpanContext())
	span.End()

	ended := recorder.Ended()
	require.Len(t, ended, 1)
	assert.Equal(t, "sales_order.create", ended[0].Name())
	assert.Equal(t, trace.SpanKindInternal, ended[0].SpanKind())
	assert.Equal(t, TracerName, ended[0].InstrumentationScope().Name)
}

func TestStartSpan_WithOptions(t *testing.T) {
	recorder := installSpanRecorder(t)

	_, span := StartSpan(context.Background(), "channel.push",
		WithAttribute(SpanAttrEntityType, "product"),
		WithAttribute(SpanAttrSeq, int64(42)),
		WithSpanKind(trace.SpanKindProducer),
	)
	span.End()

	ended := recorder.Ended()
	require.Len(t, ended, 1)
	assert.Equal(t, trace.SpanKindProducer, ended[0].SpanKind())

	entityType, ok := spanAttribute(ended[0], SpanAttrEntityType)
	require.True(t, ok)
	assert.Equal(t, "product", entityType)
	seq, ok := spanAttribute(ended[0], SpanAttrSeq)
	require.True(t, ok)
	assert.Equal(t, "42", seq)
}

func TestStartServiceSpan(t *testing.T) {
	recorder := installSpanRecorder(t)

	_, span := StartServiceSpan(context.Background(), "inventory", "adjust")
	span.End()

	ended := recorder.Ended()
	require.Len(t, ended, 1)
	assert.Equal(t, "inventory.adjust", ended[0].Name())
}

func TestSetAttributes(t *testing.T) {
	recorder := installSpanRecorder(t)

	orderID := uuid.New()
	_, span := StartSpan(context.Background(), "sales_order.ship")
	SetAttributes(span,
		SpanAttrOrderID, orderID, // uuid.UUID goes through fmt.Stringer
		SpanAttrOrderNumber, "ORD-2026-000158",
		SpanAttrQuantity, 3,
	)
	span.End()

	ended := recorder.Ended()
	require.Len(t, ended, 1)

	got, ok := spanAttribute(ended[0], SpanAttrOrderID)
	require.True(t, ok)
	assert.Equal(t, orderID.String(), got)
	got, ok = spanAttribute(ended[0], SpanAttrOrderNumber)
	require.True(t, ok)
	assert.Equal(t, "ORD-2026-000158", got)
	got, ok = spanAttribute(ended[0], SpanAttrQuantity)
	require.True(t, ok)
	assert.Equal(t, "3", got)
}

func TestSetAttributes_MalformedPairs(t *testing.T) {
	recorder := installSpanRecorder(t)

	_, span := StartSpan(context.Background(), "sales_order.cancel")
	// Non-string key is skipped; trailing key without a value is dropped.
	SetAttributes(span, 123, "ignored", SpanAttrOrderStatus, "cancelled", "dangling")
	span.End()

	ended := recorder.Ended()
	require.Len(t, ended, 1)
	require.Len(t, ended[0].Attributes(), 1)
	status, ok := spanAttribute(ended[0], SpanAttrOrderStatus)
	require.True(t, ok)
	assert.Equal(t, "cancelled", status)
}

func TestSetAttribute_SupportedTypes(t *testing.T) {
	recorder := installSpanRecorder(t)

	_, span := StartSpan(context.Background(), "payment.capture")
	SetAttribute(span, "amount", 49.90)
	SetAttribute(span, "retries", 2)
	SetAttribute(span, "captured", true)
	SetAttribute(span, "skus", []string{"WIDGET-1", "WIDGET-2"})
	SetAttribute(span, "shard", int64(7))
	span.End()

	ended := recorder.Ended()
	require.Len(t, ended, 1)
	assert.Len(t, ended[0].Attributes(), 5)

	captured, ok := spanAttribute(ended[0], "captured")
	require.True(t, ok)
	assert.Equal(t, "true", captured)
}

func TestRecordError(t *testing.T) {
	recorder := installSpanRecorder(t)

	_, span := StartSpan(context.Background(), "sales_order.pay")
	RecordError(span, errors.New("insufficient stock"))
	span.End()

	ended := recorder.Ended()
	require.Len(t, ended, 1)
	assert.Equal(t, codes.Error, ended[0].Status().Code)
	assert.Equal(t, "insufficient stock", ended[0].Status().Description)

	require.Len(t, ended[0].Events(), 1)
	assert.Equal(t, "exception", ended[0].Events()[0].Name)
}

func TestRecordError_NilErrorIsIgnored(t *testing.T) {
	recorder := installSpanRecorder(t)

	_, span := StartSpan(context.Background(), "sales_order.pay")
	RecordError(span, nil)
	span.End()

	ended := recorder.Ended()
	require.Len(t, ended, 1)
	assert.Equal(t, codes.Unset, ended[0].Status().Code)
	assert.Empty(t, ended[0].Events())
}

func TestSetOK(t *testing.T) {
	recorder := installSpanRecorder(t)

	_, span := StartSpan(context.Background(), "report.daily_revenue")
	SetOK(span)
	span.End()

	ended := recorder.Ended()
	require.Len(t, ended, 1)
	assert.Equal(t, codes.Ok, ended[0].Status().Code)
}

func TestAddEvent(t *testing.T) {
	recorder := installSpanRecorder(t)

	_, span := StartSpan(context.Background(), "inventory.lock")
	AddEvent(span, "stock_locked",
		SpanAttrProductSKU, "WIDGET-1",
		SpanAttrQuantity, 5,
	)
	span.End()

	ended := recorder.Ended()
	require.Len(t, ended, 1)
	require.Len(t, ended[0].Events(), 1)

	event := ended[0].Events()[0]
	assert.Equal(t, "stock_locked", event.Name)
	require.Len(t, event.Attributes, 2)
}

func TestNilSpanHelpersDoNotPanic(t *testing.T) {
	assert.NotPanics(t, func() {
		SetAttributes(nil, SpanAttrOrderID, "x")
		SetAttribute(nil, SpanAttrOrderID, "x")
		RecordError(nil, errors.New("boom"))
		SetOK(nil)
		AddEvent(nil, "noop")
	})
}

func TestTraceAndSpanIDs(t *testing.T) {
	installSpanRecorder(t)

	t.Run("no span in context", func(t *testing.T) {
		assert.Empty(t, GetTraceID(context.Background()))
		assert.Empty(t, GetSpanID(context.Background()))
	})

	t.Run("recording span", func(t *testing.T) {
		ctx, span := StartSpan(context.Background(), "sales_order.get")
		defer span.End()

		assert.Equal(t, span.SpanContext().TraceID().String(), GetTraceID(ctx))
		assert.Equal(t, span.SpanContext().SpanID().String(), GetSpanID(ctx))
	})
}

func TestContextWithSpanRoundTrip(t *testing.T) {
	installSpanRecorder(t)

	_, span := StartSpan(context.Background(), "sales_order.list")
	defer span.End()

	ctx := ContextWithSpan(context.Background(), span)
	assert.Equal(t, span.SpanContext(), SpanFromContext(ctx).SpanContext())
}

func TestNestedSpans(t *testing.T) {
	recorder := installSpanRecorder(t)

	ctx, parent := StartSpan(context.Background(), "sales_order.create")
	_, child := StartSpan(ctx, "inventory.lock")
	child.End()
	parent.End()

	ended := recorder.Ended()
	require.Len(t, ended, 2)

	// Children end first.
	assert.Equal(t, "inventory.lock", ended[0].Name())
	assert.Equal(t, "sales_order.create", ended[1].Name())
	assert.Equal(t, parent.SpanContext().TraceID(), ended[0].SpanContext().TraceID())
	assert.Equal(t, parent.SpanContext().SpanID(), ended[0].Parent().SpanID())
}
