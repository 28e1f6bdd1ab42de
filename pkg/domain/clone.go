package domain

func clonePtr[T any](p *T) *T {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

// CloneComposition returns a deep copy of an elemental composition.
func CloneComposition(c ElementalComposition) ElementalComposition {
	cp := c
	cp.MassFraction = clonePtr(c.MassFraction)
	cp.AtomicFraction = clonePtr(c.AtomicFraction)
	cp.Line = clonePtr(c.Line)
	cp.IntensityPeak = clonePtr(c.IntensityPeak)
	cp.IntensityBackground = clonePtr(c.IntensityBackground)
	cp.IntensityBackground2 = clonePtr(c.IntensityBackground2)
	return cp
}

// CloneLayer returns a deep copy of a layer including its element sequence.
func CloneLayer(l Layer) Layer {
	cp := l
	cp.ThicknessNM = clonePtr(l.ThicknessNM)
	if l.Elements != nil {
		cp.Elements = make([]ElementalComposition, len(l.Elements))
		for i, e := range l.Elements {
			cp.Elements[i] = CloneComposition(e)
		}
	}
	return cp
}

// CloneResult returns a deep copy of a measurement result.
func CloneResult(r MeasurementResult) MeasurementResult {
	cp := r
	cp.Name = clonePtr(r.Name)
	cp.Date = clonePtr(r.Date)
	if r.Layers != nil {
		cp.Layers = make([]Layer, len(r.Layers))
		for i, l := range r.Layers {
			cp.Layers[i] = CloneLayer(l)
		}
	}
	return cp
}

// CloneSampleReference returns a deep copy of a sample reference.
func CloneSampleReference(r SampleReference) SampleReference {
	cp := r
	cp.LabID = clonePtr(r.LabID)
	cp.SampleID = clonePtr(r.SampleID)
	return cp
}

// CloneSettings returns a deep copy of acquisition settings.
func CloneSettings(s Settings) Settings {
	cp := s
	cp.XRayEnergyEV = clonePtr(s.XRayEnergyEV)
	cp.CurrentUA = clonePtr(s.CurrentUA)
	cp.SpotSizeMM = clonePtr(s.SpotSizeMM)
	cp.IntegrationTimeS = clonePtr(s.IntegrationTimeS)
	cp.ElementLine = clonePtr(s.ElementLine)
	return cp
}

// CloneMeasurement returns a deep copy of a measurement record.
func CloneMeasurement(m Measurement) Measurement {
	cp := m
	cp.DataFile = clonePtr(m.DataFile)
	cp.Settings = CloneSettings(m.Settings)
	if m.Results != nil {
		cp.Results = make([]MeasurementResult, len(m.Results))
		for i, r := range m.Results {
			cp.Results[i] = CloneResult(r)
		}
	}
	if m.Samples != nil {
		cp.Samples = make([]SampleReference, len(m.Samples))
		for i, s := range m.Samples {
			cp.Samples[i] = CloneSampleReference(s)
		}
	}
	cp.Elements = append([]string(nil), m.Elements...)
	return cp
}

// CloneSample returns a deep copy of a sample record.
func CloneSample(s Sample) Sample {
	cp := s
	cp.Description = clonePtr(s.Description)
	return cp
}
