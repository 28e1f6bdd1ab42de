package core

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"xrfcore/internal/rawfile"
	"xrfcore/internal/reader"
	"xrfcore/pkg/domain"
)

// ParseState is the terminal outcome of one normalize invocation.
type ParseState string

const (
	// StateParsed indicates measurement data was read from the raw file and
	// merged into the record.
	StateParsed ParseState = "parsed"
	// StateUnparsed indicates no measurement data was parsed: either the
	// record carries no raw file, no reader matched, or the file was empty.
	// The record still receives its baseline normalization.
	StateUnparsed ParseState = "unparsed"
)

// Pipeline converts raw X-ray fluorescence exports into the normalized
// measurement record. It is safe for concurrent use as long as each
// invocation operates on an independently owned record.
type Pipeline struct {
	readers *reader.Registry
	files   rawfile.Store
	norm    Normalizer
	logger  *zap.Logger
}

// NewPipeline constructs a pipeline. A nil registry falls back to the
// built-in format set; a nil normalizer falls back to the default with no
// sample resolution; a nil logger suppresses warnings.
func NewPipeline(registry *reader.Registry, files rawfile.Store, norm Normalizer, logger *zap.Logger) *Pipeline {
	if registry == nil {
		registry = reader.DefaultRegistry()
	}
	if norm == nil {
		norm = NewNormalizer(nil, logger)
	}
	return &Pipeline{readers: registry, files: files, norm: norm, logger: logger}
}

// Normalize runs the record through the ingestion state machine and always
// finishes with the baseline record derivations, whether or not raw data
// was parsed.
//
// Recoverable conditions (no raw file, no matching reader, empty file)
// degrade to StateUnparsed with a warning. A reader failure is fatal to the
// call and propagates unmodified; the raw file handle is released on every
// exit path.
func (p *Pipeline) Normalize(ctx context.Context, m *Measurement) (ParseState, error) {
	if m == nil {
		return "", fmt.Errorf("nil measurement")
	}
	state := StateUnparsed
	if m.DataFile != nil {
		rd, ok := p.readers.Resolve(*m.DataFile)
		if !ok {
			p.warn("no compatible reader found for raw data file", zap.String("data_file", *m.DataFile))
		} else {
			doc, err := p.parseRawFile(ctx, rd, *m.DataFile)
			if err != nil {
				return "", err
			}
			if doc.Empty() {
				p.warn("no measurement data found in raw data file", zap.String("data_file", *m.DataFile))
			} else {
				p.writeMeasurementData(doc, m)
				state = StateParsed
			}
		}
	}
	p.norm.NormalizeMeasurement(m)
	return state, nil
}

// parseRawFile acquires the raw file for the duration of one parse. The
// handle is closed before returning regardless of the parse outcome.
func (p *Pipeline) parseRawFile(ctx context.Context, rd reader.Reader, key string) (reader.Document, error) {
	_, rc, err := p.files.Get(ctx, key)
	if err != nil {
		return reader.Document{}, fmt.Errorf("acquire raw data file %q: %w", key, err)
	}
	defer func() { _ = rc.Close() }()
	return rd.Parse(rc, p.logger)
}

// writeMeasurementData builds the entity graph from the parsed document and
// merges it into the record without clobbering fields that already hold a
// value.
func (p *Pipeline) writeMeasurementData(doc reader.Document, m *Measurement) {
	results, samples := BuildEntities(doc, p.norm)

	settings := Settings{}
	p.norm.NormalizeSettings(&settings)

	derived := Measurement{
		Settings: settings,
		Results:  results,
		Samples:  samples,
	}
	*m = domain.MergeMeasurements(*m, derived)
}

func (p *Pipeline) warn(msg string, fields ...zap.Field) {
	if p.logger != nil {
		p.logger.Warn(msg, fields...)
	}
}
