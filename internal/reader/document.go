// Package reader turns raw instrument export files into ordered measurement
// documents. Readers are selected by file-name suffix through a registry;
// the document types use ordered slices so that measurement, layer, and
// element order always reflects the emission order of the export.
package reader

import "time"

// Document is the raw semi-structured output of a reader: one entry per
// measurement, in emission order. An empty document means the file carried
// no measurement data, which callers treat as "nothing found", not an error.
type Document struct {
	Entries []Entry
}

// Empty reports whether the document carries no measurement entries.
func (d Document) Empty() bool { return len(d.Entries) == 0 }

// Entry is one raw measurement entry keyed by its measurement name. All
// fields except the name are optional; a nil pointer means the export did
// not carry the value.
type Entry struct {
	Name        string
	Application *string
	Date        *time.Time
	SampleName  *string
	Layers      []LayerEntry
}

// LayerEntry is one raw layer of a measurement entry, in stack order.
type LayerEntry struct {
	Name        string
	ThicknessNM *float64
	Elements    []ElementEntry
}

// ElementEntry carries the per-element readings of one layer, in emission
// order. Duplicate symbols within one layer are legal.
type ElementEntry struct {
	Symbol               string
	MassFraction         *float64
	AtomicFraction       *float64
	Line                 *string
	IntensityPeak        *float64
	IntensityBackground  *float64
	IntensityBackground2 *float64
}
