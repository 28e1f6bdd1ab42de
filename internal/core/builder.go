package core

import (
	"xrfcore/internal/reader"
)

// BuildEntities maps an ordered raw document into measurement results and
// deduplicated sample references. One result is built per entry, one layer
// per layer entry, and one elemental composition per element entry, all in
// document order. Values missing from the document stay unset; nothing is
// inferred and no error is raised for absent fields.
//
// Every new result and every first-occurrence sample reference is passed
// through the normalizer before being returned. A reference whose
// identifier equals an already collected one is dropped: the first
// occurrence wins. References without an identifier are not emitted.
//
// An empty document yields two empty slices, which callers treat as "no
// data found" rather than an error.
func BuildEntities(doc reader.Document, norm Normalizer) ([]MeasurementResult, []SampleReference) {
	results := make([]MeasurementResult, 0, len(doc.Entries))
	samples := make([]SampleReference, 0, len(doc.Entries))

	for _, entry := range doc.Entries {
		layers := make([]Layer, 0, len(entry.Layers))
		for _, rawLayer := range entry.Layers {
			elements := make([]ElementalComposition, 0, len(rawLayer.Elements))
			for _, rawElem := range rawLayer.Elements {
				elements = append(elements, ElementalComposition{
					Element:              rawElem.Symbol,
					MassFraction:         rawElem.MassFraction,
					AtomicFraction:       rawElem.AtomicFraction,
					Line:                 rawElem.Line,
					IntensityPeak:        rawElem.IntensityPeak,
					IntensityBackground:  rawElem.IntensityBackground,
					IntensityBackground2: rawElem.IntensityBackground2,
				})
			}
			layers = append(layers, Layer{
				Name:        rawLayer.Name,
				ThicknessNM: rawLayer.ThicknessNM,
				Elements:    elements,
			})
		}

		if ref := (SampleReference{LabID: entry.SampleName}); ref.LabID != nil && *ref.LabID != "" {
			if !containsReference(samples, ref) {
				if norm != nil {
					norm.NormalizeSampleReference(&ref)
				}
				samples = append(samples, ref)
			}
		}

		result := MeasurementResult{
			Name:   entry.Application,
			Date:   entry.Date,
			Layers: layers,
		}
		if norm != nil {
			norm.NormalizeResult(&result)
		}
		results = append(results, result)
	}
	return results, samples
}

func containsReference(refs []SampleReference, ref SampleReference) bool {
	for _, existing := range refs {
		if existing.Equal(ref) {
			return true
		}
	}
	return false
}
