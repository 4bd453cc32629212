// Package ingest reads the tabular project export and geometrizes each row
// into a point feature.
package ingest

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/agentstation/featuresync/pkg/constants"
	"github.com/agentstation/featuresync/pkg/errors"
	"github.com/agentstation/featuresync/pkg/features"
	"github.com/agentstation/featuresync/pkg/logging"
)

// Format is a supported input format.
type Format string

const (
	FormatCSV  Format = "csv"
	FormatXLSX Format = "xlsx"
)

// DetectFormat picks the format from the file extension.
func DetectFormat(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv", ".txt":
		return FormatCSV, nil
	case ".xlsx", ".xlsm":
		return FormatXLSX, nil
	}
	return "", errors.NewValidationError("source", path, "unsupported file type (want .csv or .xlsx)")
}

// rowSource yields the header and then one record per call.
type rowSource interface {
	// Next returns the next record and its 1-based line number. It returns
	// io.EOF when the input is exhausted.
	Next() ([]string, int, error)
	Close() error
}

// Reader converts an export into a dataset.
type Reader struct {
	mapping  features.FieldMapping
	sr       features.SpatialReference
	layer    string
	encoding string
	sheet    string
	format   Format
}

// Option configures a Reader.
type Option func(*Reader)

// WithMapping sets the source to target field mapping.
func WithMapping(m features.FieldMapping) Option {
	return func(r *Reader) {
		if len(m) > 0 {
			r.mapping = m
		}
	}
}

// WithSpatialReference sets the reference the points are built in.
func WithSpatialReference(sr features.SpatialReference) Option {
	return func(r *Reader) {
		r.sr = sr
	}
}

// WithLayer names the resulting dataset.
func WithLayer(name string) Option {
	return func(r *Reader) {
		if name != "" {
			r.layer = name
		}
	}
}

// WithEncoding sets the character encoding of CSV input, e.g. "windows-1252".
func WithEncoding(name string) Option {
	return func(r *Reader) {
		r.encoding = name
	}
}

// WithSheet selects the worksheet of XLSX input. The first sheet is used by default.
func WithSheet(name string) Option {
	return func(r *Reader) {
		r.sheet = name
	}
}

// WithFormat overrides extension based format detection.
func WithFormat(f Format) Option {
	return func(r *Reader) {
		r.format = f
	}
}

// New creates a Reader.
func New(opts ...Option) (*Reader, error) {
	r := &Reader{
		mapping: features.DefaultMapping(),
		sr:      features.WGS84,
		layer:   constants.DefaultStagingLayer,
	}
	for _, opt := range opts {
		opt(r)
	}
	if err := r.mapping.Validate(); err != nil {
		return nil, err
	}
	if _, err := lookupEncoding(r.encoding); err != nil {
		return nil, err
	}
	switch r.format {
	case "", FormatCSV, FormatXLSX:
	default:
		return nil, errors.NewValidationError("format", r.format, "unsupported format")
	}
	return r, nil
}

// Read loads path into a dataset. Duplicate keys keep the last row.
func (r *Reader) Read(ctx context.Context, path string) (*features.Dataset, error) {
	logger := logging.FromContext(ctx)

	format := r.format
	if format == "" {
		var err error
		if format, err = DetectFormat(path); err != nil {
			return nil, err
		}
	}

	var (
		src rowSource
		err error
	)
	switch format {
	case FormatXLSX:
		src, err = openXLSX(path, r.sheet)
	default:
		src, err = openCSV(path, r.encoding)
	}
	if err != nil {
		return nil, err
	}
	defer func() {
		if err := src.Close(); err != nil {
			logger.Warn().Err(err).Str("path", path).Msg("Failed to close source")
		}
	}()

	ds, stats, err := r.convert(ctx, src, string(format), path)
	if err != nil {
		return nil, err
	}

	logger.Info().
		Str("path", path).
		Str("layer", ds.Name()).
		Int("rows", stats.rows).
		Int("features", ds.Len()).
		Int("blank", stats.blank).
		Int("duplicates", stats.duplicates).
		Msg("Ingested source")
	return ds, nil
}

type readStats struct {
	rows       int
	blank      int
	duplicates int
}

func (r *Reader) convert(ctx context.Context, src rowSource, format, path string) (*features.Dataset, readStats, error) {
	var stats readStats
	logger := logging.FromContext(ctx)

	header, _, err := src.Next()
	if err != nil {
		return nil, stats, errors.NewRowError(format, path, 1, "", "missing header", err)
	}
	index, err := r.headerIndex(header, format, path)
	if err != nil {
		return nil, stats, err
	}

	ds := features.NewDataset(r.layer, r.sr)
	for {
		record, line, err := src.Next()
		if err != nil {
			if isEOF(err) {
				break
			}
			return nil, stats, errors.NewRowError(format, path, line, "", "unreadable row: "+err.Error(), err)
		}
		stats.rows++
		if stats.rows%1000 == 0 {
			if err := ctx.Err(); err != nil {
				return nil, stats, err
			}
		}
		if blank(record) {
			stats.blank++
			continue
		}

		f, err := r.feature(record, index, line, format, path)
		if err != nil {
			return nil, stats, err
		}
		if ds.Add(f) {
			stats.duplicates++
			logger.Warn().
				Str("project", f.Key()).
				Int("line", line).
				Msg("Duplicate project in source, keeping the later row")
		}
	}
	return ds, stats, nil
}

func (r *Reader) headerIndex(header []string, format, path string) (map[string]int, error) {
	index := make(map[string]int, len(header))
	for i, h := range header {
		h = strings.TrimSpace(h)
		if _, seen := index[h]; !seen {
			index[h] = i
		}
	}
	var missing []string
	for _, src := range r.mapping.SourceFields() {
		if _, ok := index[src]; !ok {
			missing = append(missing, src)
		}
	}
	if len(missing) > 0 {
		return nil, errors.NewRowError(format, path, 1, strings.Join(missing, ", "),
			fmt.Sprintf("missing required column(s): %s", strings.Join(missing, ", ")), nil)
	}
	return index, nil
}

func (r *Reader) feature(record []string, index map[string]int, line int, format, path string) (features.Feature, error) {
	var p features.Project
	for _, pair := range r.mapping {
		raw := ""
		if i := index[pair.Source]; i < len(record) {
			raw = record[i]
		}
		if err := p.Set(pair.Target, raw); err != nil {
			return features.Feature{}, errors.NewRowError(format, path, line, pair.Source,
				fmt.Sprintf("invalid value %q: %v", raw, err), err)
		}
	}
	if strings.TrimSpace(p.Name) == "" {
		return features.Feature{}, errors.NewRowError(format, path, line, r.mapping[0].Source, "project name is empty", nil)
	}

	f, err := features.NewFeature(p, r.sr)
	if err != nil {
		column := ""
		var verr *errors.ValidationError
		if errors.As(err, &verr) {
			column = r.sourceFor(verr.Field)
		}
		return features.Feature{}, errors.NewRowError(format, path, line, column, "invalid location: "+err.Error(), err)
	}
	return f, nil
}

func (r *Reader) sourceFor(target string) string {
	for _, pair := range r.mapping {
		if pair.Target == target {
			return pair.Source
		}
	}
	return target
}

func blank(record []string) bool {
	for _, v := range record {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}
