package metrics

import (
	"context"
	"testing"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric/noop"
)

func TestFilterAttributesDropsForbiddenLabels(t *testing.T) {
	attrs := FilterAttributes(
		attribute.String("kind", "detail"),
		attribute.String("guest_name", "Kim"),
		attribute.String("reason", "subtotal_row"),
	)
	if len(attrs) != 2 {
		t.Fatalf("expected 2 attributes, got %d", len(attrs))
	}
	if attrs[0].Key != "kind" && attrs[1].Key != "kind" {
		t.Fatalf("expected kind to be retained")
	}
	if attrs[0].Key != "reason" && attrs[1].Key != "reason" {
		t.Fatalf("expected reason to be retained")
	}
}

func TestNilMetricsAreSafe(t *testing.T) {
	var m *Metrics
	ctx := context.Background()

	m.RecordUpload(ctx, "detail", "appended")
	m.RecordLedgerAppend(ctx, "detail", 3)
	m.RecordRowsDropped(ctx, "short_row", 1)
	m.RecordReport(ctx, "cache")
	m.RecordUploadLock(ctx, "acquired")
}

func TestNewWithNoopProvider(t *testing.T) {
	m, err := New(Config{ServiceName: "amber-test"}, noop.NewMeterProvider())
	if err != nil {
		t.Fatalf("new metrics: %v", err)
	}
	m.RecordUpload(context.Background(), "otb_summary", "rejected")
	m.RecordLedgerAppend(context.Background(), "otb_summary_month", 0)
}
