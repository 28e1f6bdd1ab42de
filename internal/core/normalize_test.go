package core

import (
	"context"
	"errors"
	"io"
	"reflect"
	"strings"
	"testing"

	"go.uber.org/zap"

	"xrfcore/internal/rawfile"
	"xrfcore/internal/reader"
	"xrfcore/pkg/domain"
)

const exportFixture = `MEASUREMENT scan-01
APPLICATION Coatings
SAMPLE S-001
LAYER coating
ELEMENT Ni
MASS_FRACTION 0.8
ELEMENT Cr
MASS_FRACTION 0.2
MEASUREMENT scan-02
SAMPLE S-001
LAYER bulk
ELEMENT Fe
`

func newTestFiles(t *testing.T, key, content string) rawfile.Store {
	t.Helper()
	files := rawfile.NewMemory()
	if _, err := files.Put(context.Background(), key, strings.NewReader(content), rawfile.PutOptions{}); err != nil {
		t.Fatalf("seed raw file: %v", err)
	}
	return files
}

func TestPipelineParsesAndMerges(t *testing.T) {
	files := newTestFiles(t, "export.txt", exportFixture)
	p := NewPipeline(nil, files, nil, zap.NewNop())

	m := Measurement{DataFile: strp("export.txt")}
	state, err := p.Normalize(context.Background(), &m)
	if err != nil {
		t.Fatalf("normalize: %v", err)
	}
	if state != StateParsed {
		t.Fatalf("state: got %s want %s", state, StateParsed)
	}
	if len(m.Results) != 2 {
		t.Fatalf("results: got %d want 2", len(m.Results))
	}
	if len(m.Samples) != 1 || *m.Samples[0].LabID != "S-001" {
		t.Fatalf("samples: %+v", m.Samples)
	}
	if !m.Settings.IsZero() {
		t.Fatalf("settings populated from parse: %+v", m.Settings)
	}
	if !reflect.DeepEqual(m.Elements, []string{"Cr", "Fe", "Ni"}) {
		t.Fatalf("element summary: %v", m.Elements)
	}
	if m.Method != domain.MethodXRF {
		t.Fatalf("method: %q", m.Method)
	}
}

func TestPipelineKeepsManualData(t *testing.T) {
	files := newTestFiles(t, "export.txt", exportFixture)
	p := NewPipeline(nil, files, nil, zap.NewNop())

	m := Measurement{
		Name:     "manual",
		DataFile: strp("export.txt"),
		Results:  []MeasurementResult{{Name: strp("manual result")}},
	}
	state, err := p.Normalize(context.Background(), &m)
	if err != nil {
		t.Fatalf("normalize: %v", err)
	}
	if state != StateParsed {
		t.Fatalf("state: got %s want %s", state, StateParsed)
	}
	if m.Name != "manual" {
		t.Fatalf("manual name overwritten: %q", m.Name)
	}
	if len(m.Results) != 1 || *m.Results[0].Name != "manual result" {
		t.Fatalf("manual results overwritten: %+v", m.Results)
	}
	// The parse still contributed the fields that were empty.
	if len(m.Samples) != 1 {
		t.Fatalf("derived samples missing: %+v", m.Samples)
	}
}

func TestPipelineNoDataFile(t *testing.T) {
	p := NewPipeline(nil, rawfile.NewMemory(), nil, zap.NewNop())
	m := Measurement{Name: "bare"}
	state, err := p.Normalize(context.Background(), &m)
	if err != nil {
		t.Fatalf("normalize: %v", err)
	}
	if state != StateUnparsed {
		t.Fatalf("state: got %s want %s", state, StateUnparsed)
	}
	if m.Method != domain.MethodXRF {
		t.Fatalf("baseline normalization skipped: %q", m.Method)
	}
}

func TestPipelineNoMatchingReader(t *testing.T) {
	files := newTestFiles(t, "export.csv", "a,b,c")
	p := NewPipeline(nil, files, nil, zap.NewNop())
	m := Measurement{DataFile: strp("export.csv")}
	state, err := p.Normalize(context.Background(), &m)
	if err != nil {
		t.Fatalf("normalize: %v", err)
	}
	if state != StateUnparsed {
		t.Fatalf("state: got %s want %s", state, StateUnparsed)
	}
	if len(m.Results) != 0 {
		t.Fatalf("results from unreadable file: %+v", m.Results)
	}
}

func TestPipelineEmptyFile(t *testing.T) {
	files := newTestFiles(t, "export.txt", "# header only\n")
	p := NewPipeline(nil, files, nil, zap.NewNop())
	m := Measurement{DataFile: strp("export.txt")}
	state, err := p.Normalize(context.Background(), &m)
	if err != nil {
		t.Fatalf("normalize: %v", err)
	}
	if state != StateUnparsed {
		t.Fatalf("state: got %s want %s", state, StateUnparsed)
	}
	if m.Method != domain.MethodXRF {
		t.Fatalf("baseline normalization skipped: %q", m.Method)
	}
}

func TestPipelineMissingRawFileFails(t *testing.T) {
	p := NewPipeline(nil, rawfile.NewMemory(), nil, zap.NewNop())
	m := Measurement{DataFile: strp("gone.txt")}
	if _, err := p.Normalize(context.Background(), &m); err == nil {
		t.Fatalf("expected error for missing raw file")
	}
}

type failingReader struct{}

func (failingReader) Format() string { return "failing" }

func (failingReader) Parse(io.Reader, *zap.Logger) (reader.Document, error) {
	return reader.Document{}, errors.New("corrupt export")
}

func TestPipelineReaderErrorPropagates(t *testing.T) {
	files := newTestFiles(t, "export.txt", "whatever")
	reg := reader.NewRegistry()
	reg.Register(".txt", failingReader{})
	p := NewPipeline(reg, files, nil, zap.NewNop())

	m := Measurement{DataFile: strp("export.txt")}
	_, err := p.Normalize(context.Background(), &m)
	if err == nil || !strings.Contains(err.Error(), "corrupt export") {
		t.Fatalf("reader error not propagated: %v", err)
	}
}

func TestPipelineNilMeasurement(t *testing.T) {
	p := NewPipeline(nil, rawfile.NewMemory(), nil, nil)
	if _, err := p.Normalize(context.Background(), nil); err == nil {
		t.Fatalf("expected error for nil measurement")
	}
}
