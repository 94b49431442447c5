package observability

import (
	"context"
	"time"

	"postboard/internal/models"
	"postboard/internal/storage"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

// InstrumentedStorage wraps a storage.Storage implementation with
// OpenTelemetry tracing and metrics instrumentation.
type InstrumentedStorage struct {
	inner    storage.Storage
	tracer   trace.Tracer
	duration metric.Float64Histogram
	errors   metric.Int64Counter
}

// NewInstrumentedStorage creates a new storage wrapper that records trace spans,
// operation latency histograms, and error counters for every storage method call.
func NewInstrumentedStorage(inner storage.Storage) (*InstrumentedStorage, error) {
	tracer := otel.Tracer("postboard/storage")
	meter := otel.Meter("postboard/storage")

	duration, err := meter.Float64Histogram(
		"storage.operation.duration",
		metric.WithDescription("Duration of storage operations in seconds"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, err
	}

	errCounter, err := meter.Int64Counter(
		"storage.operation.errors",
		metric.WithDescription("Number of storage operation errors"),
		metric.WithUnit("{error}"),
	)
	if err != nil {
		return nil, err
	}

	return &InstrumentedStorage{
		inner:    inner,
		tracer:   tracer,
		duration: duration,
		errors:   errCounter,
	}, nil
}

func (s *InstrumentedStorage) startSpan(ctx context.Context, operation string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	ctx, span := s.tracer.Start(ctx, "storage."+operation,
		trace.WithAttributes(append([]attribute.KeyValue{
			attribute.String("storage.operation", operation),
		}, attrs...)...),
	)
	return ctx, span
}

func (s *InstrumentedStorage) record(ctx context.Context, span trace.Span, operation string, start time.Time, err error) {
	elapsed := time.Since(start).Seconds()
	attrs := metric.WithAttributes(attribute.String("operation", operation))

	s.duration.Record(ctx, elapsed, attrs)

	if err != nil {
		s.errors.Add(ctx, 1, attrs)
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	} else {
		span.SetStatus(codes.Ok, "")
	}

	span.End()
}

func (s *InstrumentedStorage) Members(ctx context.Context) ([]*models.Member, error) {
	ctx, span := s.startSpan(ctx, "Members")
	start := time.Now()
	result, err := s.inner.Members(ctx)
	s.record(ctx, span, "Members", start, err)
	return result, err
}

func (s *InstrumentedStorage) GetMember(ctx context.Context, id string) (*models.Member, error) {
	ctx, span := s.startSpan(ctx, "GetMember", attribute.String("member_id", id))
	start := time.Now()
	result, err := s.inner.GetMember(ctx, id)
	s.record(ctx, span, "GetMember", start, err)
	return result, err
}

func (s *InstrumentedStorage) GetMemberByTokenHash(ctx context.Context, hash string) (*models.Member, error) {
	// Deliberately no hash attribute on the span.
	ctx, span := s.startSpan(ctx, "GetMemberByTokenHash")
	start := time.Now()
	result, err := s.inner.GetMemberByTokenHash(ctx, hash)
	s.record(ctx, span, "GetMemberByTokenHash", start, err)
	return result, err
}

func (s *InstrumentedStorage) SaveMember(ctx context.Context, member *models.Member) error {
	ctx, span := s.startSpan(ctx, "SaveMember", attribute.String("member_id", member.ID))
	start := time.Now()
	err := s.inner.SaveMember(ctx, member)
	s.record(ctx, span, "SaveMember", start, err)
	return err
}

func (s *InstrumentedStorage) DeleteMember(ctx context.Context, id string) error {
	ctx, span := s.startSpan(ctx, "DeleteMember", attribute.String("member_id", id))
	start := time.Now()
	err := s.inner.DeleteMember(ctx, id)
	s.record(ctx, span, "DeleteMember", start, err)
	return err
}

func (s *InstrumentedStorage) Posts(ctx context.Context) ([]*models.Post, error) {
	ctx, span := s.startSpan(ctx, "Posts")
	start := time.Now()
	result, err := s.inner.Posts(ctx)
	s.record(ctx, span, "Posts", start, err)
	return result, err
}

func (s *InstrumentedStorage) GetPost(ctx context.Context, id int64) (*models.Post, error) {
	ctx, span := s.startSpan(ctx, "GetPost", attribute.Int64("post_id", id))
	start := time.Now()
	result, err := s.inner.GetPost(ctx, id)
	s.record(ctx, span, "GetPost", start, err)
	return result, err
}

func (s *InstrumentedStorage) PostsByAuthor(ctx context.Context, authorID int64) ([]*models.Post, error) {
	ctx, span := s.startSpan(ctx, "PostsByAuthor", attribute.Int64("author_id", authorID))
	start := time.Now()
	result, err := s.inner.PostsByAuthor(ctx, authorID)
	s.record(ctx, span, "PostsByAuthor", start, err)
	return result, err
}

func (s *InstrumentedStorage) SavePost(ctx context.Context, post *models.Post) error {
	ctx, span := s.startSpan(ctx, "SavePost", attribute.Int64("author_id", post.AuthorID))
	start := time.Now()
	err := s.inner.SavePost(ctx, post)
	s.record(ctx, span, "SavePost", start, err)
	return err
}

func (s *InstrumentedStorage) DeletePost(ctx context.Context, id int64) error {
	ctx, span := s.startSpan(ctx, "DeletePost", attribute.Int64("post_id", id))
	start := time.Now()
	err := s.inner.DeletePost(ctx, id)
	s.record(ctx, span, "DeletePost", start, err)
	return err
}

func (s *InstrumentedStorage) Ping(ctx context.Context) error {
	ctx, span := s.startSpan(ctx, "Ping")
	start := time.Now()
	err := s.inner.Ping(ctx)
	s.record(ctx, span, "Ping", start, err)
	return err
}

func (s *InstrumentedStorage) Close() error {
	return s.inner.Close()
}
