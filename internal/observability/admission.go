package observability

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// AdmissionMetrics records admission controller outcomes. It satisfies the
// admission package's MetricsRecorder interface.
type AdmissionMetrics struct {
	decisions   metric.Int64Counter
	storeErrors metric.Int64Counter
}

// NewAdmissionMetrics creates the admission decision and store error counters.
func NewAdmissionMetrics() (*AdmissionMetrics, error) {
	meter := otel.Meter("postboard/admission")

	decisions, err := meter.Int64Counter(
		"admission.decisions",
		metric.WithDescription("Number of admission decisions by outcome"),
		metric.WithUnit("{decision}"),
	)
	if err != nil {
		return nil, err
	}

	storeErrors, err := meter.Int64Counter(
		"admission.store.errors",
		metric.WithDescription("Number of rate counter store failures"),
		metric.WithUnit("{error}"),
	)
	if err != nil {
		return nil, err
	}

	return &AdmissionMetrics{
		decisions:   decisions,
		storeErrors: storeErrors,
	}, nil
}

// RecordDecision counts one admission decision labelled by outcome.
func (am *AdmissionMetrics) RecordDecision(reason string) {
	am.decisions.Add(context.Background(), 1,
		metric.WithAttributes(attribute.String("outcome", reason)))
}

// RecordStoreError counts one rate counter store failure.
func (am *AdmissionMetrics) RecordStoreError() {
	am.storeErrors.Add(context.Background(), 1)
}
