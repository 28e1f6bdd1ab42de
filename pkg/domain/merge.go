package domain

// MergeMeasurements combines a freshly derived measurement record into a
// possibly pre-populated target record. The rule is applied per top-level
// field: a non-empty value on current is kept, otherwise the value from
// derived is taken. List-valued fields are replaced wholesale, never merged
// element-wise. Neither input is mutated; the merged record is a new value.
//
// The rule deliberately protects manually entered fields from automated
// imports: re-running an import with different source data never updates a
// field that already holds a value.
func MergeMeasurements(current, derived Measurement) Measurement {
	merged := CloneMeasurement(current)

	if merged.Name == "" {
		merged.Name = derived.Name
	}
	if merged.Method == "" {
		merged.Method = derived.Method
	}
	if merged.DataFile == nil {
		merged.DataFile = clonePtr(derived.DataFile)
	}
	if merged.Settings.IsZero() {
		merged.Settings = CloneSettings(derived.Settings)
	}
	if len(merged.Results) == 0 {
		merged.Results = cloneResults(derived.Results)
	}
	if len(merged.Samples) == 0 {
		merged.Samples = cloneSampleReferences(derived.Samples)
	}
	if len(merged.Elements) == 0 {
		merged.Elements = append([]string(nil), derived.Elements...)
	}
	return merged
}

func cloneResults(in []MeasurementResult) []MeasurementResult {
	if in == nil {
		return nil
	}
	out := make([]MeasurementResult, len(in))
	for i, r := range in {
		out[i] = CloneResult(r)
	}
	return out
}

func cloneSampleReferences(in []SampleReference) []SampleReference {
	if in == nil {
		return nil
	}
	out := make([]SampleReference, len(in))
	for i, s := range in {
		out[i] = CloneSampleReference(s)
	}
	return out
}
