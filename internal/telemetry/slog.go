package telemetry

import (
	"context"
	"fmt"
	"log/slog"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

var meter = otel.Meter("jobstreet/internal/telemetry")

// SlogAPI implements API using the log/slog package, counts are also
// recorded on an otel gauge so they reach the metric exporter when one is
// configured.
type SlogAPI struct{}

// params are passed as slog key value pairs when they come in pairs with
// string keys, otherwise they are numbered.
func (SlogAPI) formatParams(out *[]any, params []any) {
	if len(params)%2 == 0 {
		paired := true
		for i := 0; i < len(params); i += 2 {
			if _, ok := params[i].(string); !ok {
				paired = false
				break
			}
		}
		if paired {
			*out = append(*out, params...)
			return
		}
	}
	for i, p := range params {
		*out = append(*out, fmt.Sprintf("params.%d", i), p)
	}
}

func (s SlogAPI) ReportBroken(id string, params ...any) {
	remainingPairs := []any{"id", id}
	s.formatParams(&remainingPairs, params)
	slog.Error("broken component", remainingPairs...)
}

func (s SlogAPI) ReportWarning(id string, params ...any) {
	remainingPairs := []any{"id", id}
	s.formatParams(&remainingPairs, params)
	slog.Warn("warning", remainingPairs...)
}

func (s SlogAPI) ReportDebug(id string, params ...any) {
	remainingPairs := []any{"id", id}
	s.formatParams(&remainingPairs, params)
	slog.Debug("debug", remainingPairs...)
}

func (s SlogAPI) ReportCount(id string, count int64) {
	slog.Info("count", "id", id, "n", count)
	gauge, err := meter.Int64Gauge("report_count")
	if err != nil {
		return
	}
	gauge.Record(
		context.Background(), count,
		metric.WithAttributes(attribute.String("id", id)),
	)
}
