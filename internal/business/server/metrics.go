package server

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/openkcm/common-sdk/pkg/commoncfg"
	"github.com/openkcm/common-sdk/pkg/otlp"
	"github.com/samber/oops"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"

	slogctx "github.com/veqryn/slog-context"

	"github.com/lucid-framework/auth-gateway/internal/config"
	"github.com/lucid-framework/auth-gateway/internal/middleware/statuswriter"
)

var (
	counter metric.Int64Counter
	hist    metric.Int64Histogram
)

func initMeters(ctx context.Context, cfg *config.Config) error {
	meter := otel.Meter(
		"lucid/"+cfg.Application.Name,
		metric.WithInstrumentationVersion(otel.Version()),
		metric.WithInstrumentationAttributes(otlp.CreateAttributesFrom(cfg.Application)...),
	)

	var err error

	counter, err = meter.Int64Counter(
		"http.request_count",
		metric.WithDescription("Incoming request count"),
		metric.WithUnit("request"),
	)
	if err != nil {
		return oops.In("HTTP Server").
			WithContext(ctx).
			Wrapf(err, "creating request_count meter")
	}

	hist, err = meter.Int64Histogram(
		"http.duration",
		metric.WithDescription("Incoming end to end duration"),
		metric.WithUnit("milliseconds"),
	)
	if err != nil {
		return oops.In("HTTP Server").
			WithContext(ctx).
			Wrapf(err, "creating duration meter")
	}

	return nil
}

// newTraceMiddleware attaches a request ID, a span and the request
// metrics to every incoming request.
func newTraceMiddleware(cfg *config.Config) func(http.Handler) http.Handler {
	traceAttrs := otlp.CreateAttributesFrom(cfg.Application)
	tracer := otel.Tracer("HTTPServer", trace.WithInstrumentationAttributes(traceAttrs...))

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			// Request Id will be propagated through all method calls of this HTTP handler
			ctx := slogctx.With(r.Context(),
				commoncfg.AttrRequestID, uuid.NewString(),
			)

			parentCtx := otel.GetTextMapPropagator().Extract(ctx, propagation.HeaderCarrier(r.Header))

			ctx, span := tracer.Start(parentCtx, r.Method+" "+r.URL.Path, trace.WithAttributes(traceAttrs...))
			defer span.End()

			requestStartTime := time.Now()
			recorder := statuswriter.New(w)

			defer func() {
				elapsedTime := time.Since(requestStartTime)

				attrs := metric.WithAttributes(
					otlp.CreateAttributesFrom(cfg.Application,
						attribute.String("userAgent", r.UserAgent()),
						attribute.String("httpStatus", strconv.Itoa(recorder.Status())),
					)...,
				)

				counter.Add(ctx, 1, attrs)
				hist.Record(ctx, elapsedTime.Milliseconds(), attrs)
			}()

			next.ServeHTTP(recorder, r.WithContext(ctx))
		})
	}
}
