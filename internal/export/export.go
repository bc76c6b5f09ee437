// Package export writes scrape results to timestamped files (json, csv, xlsx)
// and to a sqlite database.
package export

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"jobstreet-applied/internal/chrono"
	"jobstreet-applied/internal/records"
	"jobstreet-applied/lib/configuration"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

var tracer = otel.Tracer("jobstreet/internal/export")

const (
	DefaultDir    = "exports"
	DefaultPrefix = "jobstreet_jobs"

	// NoData is written in place of records when a run collected nothing.
	NoData = "No Data. Check log for details."

	timestampLayout = "20060102_150405"
)

type Options struct {
	Dir    string
	Prefix string
	Clock  chrono.TimeAPI
	// Database receives the sqlite export, a timestamped file in Dir is used
	// when neither a file nor a url is configured.
	Database configuration.Database
	RunID    string
}

type Exporter struct {
	dir      string
	prefix   string
	clock    chrono.TimeAPI
	database configuration.Database
	runID    string
}

func New(opts Options) Exporter {
	if opts.Dir == "" {
		opts.Dir = DefaultDir
	}
	if opts.Prefix == "" {
		opts.Prefix = DefaultPrefix
	}
	if opts.Clock == nil {
		opts.Clock = chrono.NewStandardTime()
	}
	return Exporter{
		dir:      opts.Dir,
		prefix:   opts.Prefix,
		clock:    opts.Clock,
		database: opts.Database,
		runID:    opts.RunID,
	}
}

// path returns <dir>/<prefix>_YYYYMMDD_HHMMSS.<ext>, creating dir.
func (e Exporter) path(ext string) (string, error) {
	err := os.MkdirAll(e.dir, 0755)
	if err != nil {
		return "", err
	}
	name := fmt.Sprintf("%s_%s.%s", e.prefix, e.clock.Now().Format(timestampLayout), ext)
	return filepath.Join(e.dir, name), nil
}

// Export writes result in every requested format and returns the written
// locations. A failing format does not stop the others, all failures are
// joined into the returned error.
func (e Exporter) Export(ctx context.Context, result records.Result, formats []string) ([]string, error) {
	ctx, span := tracer.Start(ctx, "Export")
	defer span.End()
	span.SetAttributes(
		attribute.StringSlice("formats", formats),
		attribute.Int("total_jobs", len(result.Records)),
	)

	var written []string
	var errs []error
	for _, format := range formats {
		location, err := e.exportOne(ctx, result, format)
		if err != nil {
			slog.ErrorContext(ctx, "export failed", "format", format, "err", err)
			errs = append(errs, fmt.Errorf("export %s: %w", format, err))
			continue
		}
		slog.InfoContext(ctx, "exported results", "format", format, "location", location, "total_jobs", len(result.Records))
		written = append(written, location)
	}

	err := errors.Join(errs...)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "export failed")
	}
	return written, err
}

func (e Exporter) exportOne(ctx context.Context, result records.Result, format string) (string, error) {
	switch format {
	case "json":
		return e.writeFile("json", func(path string) error { return writeJSON(path, result.Records) })
	case "csv":
		return e.writeFile("csv", func(path string) error { return writeCSV(path, result.Records) })
	case "xlsx":
		return e.writeFile("xlsx", func(path string) error { return writeXLSX(path, result.Records) })
	case "sqlite":
		return e.writeSQLite(ctx, result)
	}
	return "", fmt.Errorf("unknown export format %q", format)
}

func (e Exporter) writeFile(ext string, write func(path string) error) (string, error) {
	path, err := e.path(ext)
	if err != nil {
		return "", err
	}
	err = write(path)
	if err != nil {
		return "", err
	}
	return path, nil
}
