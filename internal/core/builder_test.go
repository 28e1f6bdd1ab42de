package core

import (
	"testing"
	"time"

	"xrfcore/internal/reader"
)

func strp(s string) *string { return &s }

func f64p(v float64) *float64 { return &v }

func timep(t time.Time) *time.Time { return &t }

func TestBuildEntitiesOneResultPerEntry(t *testing.T) {
	doc := reader.Document{Entries: []reader.Entry{
		{Name: "scan-01", SampleName: strp("S-001")},
		{Name: "scan-02", SampleName: strp("S-002")},
		{Name: "scan-03", SampleName: strp("S-001")},
	}}
	results, samples := BuildEntities(doc, nil)
	if len(results) != 3 {
		t.Fatalf("results: got %d want 3", len(results))
	}
	if len(samples) != 2 {
		t.Fatalf("samples: got %d want 2 (dedup by identifier)", len(samples))
	}
	if *samples[0].LabID != "S-001" || *samples[1].LabID != "S-002" {
		t.Fatalf("sample order not first-occurrence: %v %v", *samples[0].LabID, *samples[1].LabID)
	}
}

func TestBuildEntitiesPreservesStructureAndOrder(t *testing.T) {
	ts := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	doc := reader.Document{Entries: []reader.Entry{{
		Name:        "scan",
		Application: strp("Coatings"),
		Date:        timep(ts),
		Layers: []reader.LayerEntry{
			{
				Name:        "coating",
				ThicknessNM: f64p(120.5),
				Elements: []reader.ElementEntry{
					{
						Symbol:               "Ni",
						MassFraction:         f64p(0.82),
						AtomicFraction:       f64p(0.79),
						Line:                 strp("Ka"),
						IntensityPeak:        f64p(10432.1),
						IntensityBackground:  f64p(210.4),
						IntensityBackground2: f64p(198.7),
					},
					{Symbol: "Cr"},
				},
			},
			{Name: "substrate", Elements: []reader.ElementEntry{{Symbol: "Fe"}}},
		},
	}}}

	results, _ := BuildEntities(doc, nil)
	if len(results) != 1 {
		t.Fatalf("results: got %d want 1", len(results))
	}
	res := results[0]
	if res.Name == nil || *res.Name != "Coatings" {
		t.Fatalf("result name: %v", res.Name)
	}
	if res.Date == nil || !res.Date.Equal(ts) {
		t.Fatalf("result date: %v", res.Date)
	}
	if len(res.Layers) != 2 || res.Layers[0].Name != "coating" || res.Layers[1].Name != "substrate" {
		t.Fatalf("layer order: %+v", res.Layers)
	}
	ni := res.Layers[0].Elements[0]
	if ni.Element != "Ni" ||
		*ni.MassFraction != 0.82 ||
		*ni.AtomicFraction != 0.79 ||
		*ni.Line != "Ka" ||
		*ni.IntensityPeak != 10432.1 ||
		*ni.IntensityBackground != 210.4 ||
		*ni.IntensityBackground2 != 198.7 {
		t.Fatalf("element values lost: %+v", ni)
	}
	cr := res.Layers[0].Elements[1]
	if cr.Element != "Cr" || cr.MassFraction != nil || cr.Line != nil {
		t.Fatalf("unset fields invented: %+v", cr)
	}
	if *res.Layers[0].ThicknessNM != 120.5 || res.Layers[1].ThicknessNM != nil {
		t.Fatalf("thickness handling: %+v", res.Layers)
	}
}

func TestBuildEntitiesSkipsUnidentifiedReferences(t *testing.T) {
	doc := reader.Document{Entries: []reader.Entry{
		{Name: "a"},
		{Name: "b", SampleName: strp("")},
		{Name: "c", SampleName: strp("S-1")},
	}}
	results, samples := BuildEntities(doc, nil)
	if len(results) != 3 {
		t.Fatalf("results: got %d want 3", len(results))
	}
	if len(samples) != 1 || *samples[0].LabID != "S-1" {
		t.Fatalf("expected only the identified reference: %+v", samples)
	}
}

func TestBuildEntitiesEmptyDocument(t *testing.T) {
	results, samples := BuildEntities(reader.Document{}, nil)
	if len(results) != 0 || len(samples) != 0 {
		t.Fatalf("empty document produced entities: %d results %d samples", len(results), len(samples))
	}
}

func TestBuildEntitiesNormalizesNewEntities(t *testing.T) {
	resolver := staticResolver{samples: map[string]Sample{
		"S-1": {Base: Base{ID: "sample-id-1"}, LabID: "S-1"},
	}}
	norm := NewNormalizer(resolver, nil)
	doc := reader.Document{Entries: []reader.Entry{{
		Name:       "scan",
		SampleName: strp("S-1"),
		Layers:     []reader.LayerEntry{{Name: "bulk"}},
	}}}

	results, samples := BuildEntities(doc, norm)
	if results[0].Name == nil || *results[0].Name != "bulk" {
		t.Fatalf("result name not derived from first layer: %v", results[0].Name)
	}
	if samples[0].SampleID == nil || *samples[0].SampleID != "sample-id-1" {
		t.Fatalf("reference not resolved: %+v", samples[0])
	}
}

type staticResolver struct {
	samples map[string]Sample
}

func (r staticResolver) FindSampleByLabID(labID string) (Sample, bool) {
	smp, ok := r.samples[labID]
	return smp, ok
}
