package reader

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"
)

// TXTReader parses the line-oriented text export produced by the XRF
// instrument software. The format is a flat sequence of stanzas:
//
//	MEASUREMENT <name>
//	APPLICATION <label>
//	DATE <timestamp>
//	SAMPLE <lab id>
//	LAYER <name>
//	THICKNESS <nm>
//	ELEMENT <symbol>
//	LINE <spectral line>
//	MASS_FRACTION <value>
//	ATOMIC_FRACTION <value>
//	INTENSITY_PEAK <value>
//	INTENSITY_BACKGROUND <value>
//	INTENSITY_BACKGROUND_2 <value>
//
// MEASUREMENT opens a new entry, LAYER a new layer within the current
// entry, ELEMENT a new composition within the current layer. Field lines
// apply to the innermost open scope. Blank lines and lines starting with
// '#' are ignored. Unknown keys and malformed values are skipped with a
// warning; missing fields stay unset. Only a stream read failure is an
// error.
type TXTReader struct{}

// Format implements Reader.
func (TXTReader) Format() string { return "xrf-txt" }

var txtDateLayouts = []string{
	"2006-01-02 15:04:05",
	time.RFC3339,
	"2006-01-02",
}

// Parse implements Reader.
func (TXTReader) Parse(r io.Reader, logger *zap.Logger) (Document, error) {
	var doc Document
	var entry *Entry
	var layer *LayerEntry
	var elem *ElementEntry

	warn := func(msg string, fields ...zap.Field) {
		if logger != nil {
			logger.Warn(msg, fields...)
		}
	}

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		key, value := splitKeyValue(line)

		switch strings.ToUpper(key) {
		case "MEASUREMENT":
			doc.Entries = append(doc.Entries, Entry{Name: value})
			entry = &doc.Entries[len(doc.Entries)-1]
			layer = nil
			elem = nil
		case "APPLICATION":
			if entry == nil {
				warn("application outside measurement", zap.Int("line", lineNo))
				continue
			}
			entry.Application = strPtr(value)
		case "DATE":
			if entry == nil {
				warn("date outside measurement", zap.Int("line", lineNo))
				continue
			}
			ts, err := parseTXTDate(value)
			if err != nil {
				warn("unparseable date", zap.Int("line", lineNo), zap.String("value", value))
				continue
			}
			entry.Date = &ts
		case "SAMPLE":
			if entry == nil {
				warn("sample outside measurement", zap.Int("line", lineNo))
				continue
			}
			entry.SampleName = strPtr(value)
		case "LAYER":
			if entry == nil {
				warn("layer outside measurement", zap.Int("line", lineNo))
				continue
			}
			entry.Layers = append(entry.Layers, LayerEntry{Name: value})
			layer = &entry.Layers[len(entry.Layers)-1]
			elem = nil
		case "THICKNESS":
			f, ok := parseTXTFloat(value, "thickness", lineNo, warn)
			if !ok || layer == nil {
				if layer == nil {
					warn("thickness outside layer", zap.Int("line", lineNo))
				}
				continue
			}
			layer.ThicknessNM = &f
		case "ELEMENT":
			if layer == nil {
				warn("element outside layer", zap.Int("line", lineNo))
				continue
			}
			layer.Elements = append(layer.Elements, ElementEntry{Symbol: value})
			elem = &layer.Elements[len(layer.Elements)-1]
		case "LINE":
			if elem == nil {
				warn("line outside element", zap.Int("line", lineNo))
				continue
			}
			elem.Line = strPtr(value)
		case "MASS_FRACTION":
			assignTXTFloat(&elem, value, "mass_fraction", lineNo, warn, func(e *ElementEntry, f float64) { e.MassFraction = &f })
		case "ATOMIC_FRACTION":
			assignTXTFloat(&elem, value, "atomic_fraction", lineNo, warn, func(e *ElementEntry, f float64) { e.AtomicFraction = &f })
		case "INTENSITY_PEAK":
			assignTXTFloat(&elem, value, "intensity_peak", lineNo, warn, func(e *ElementEntry, f float64) { e.IntensityPeak = &f })
		case "INTENSITY_BACKGROUND":
			assignTXTFloat(&elem, value, "intensity_background", lineNo, warn, func(e *ElementEntry, f float64) { e.IntensityBackground = &f })
		case "INTENSITY_BACKGROUND_2":
			assignTXTFloat(&elem, value, "intensity_background_2", lineNo, warn, func(e *ElementEntry, f float64) { e.IntensityBackground2 = &f })
		default:
			warn("unknown key skipped", zap.Int("line", lineNo), zap.String("key", key))
		}
	}
	if err := scanner.Err(); err != nil {
		return Document{}, fmt.Errorf("read xrf txt export: %w", err)
	}
	return doc, nil
}

func splitKeyValue(line string) (key, value string) {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return "", ""
	}
	key = fields[0]
	value = strings.TrimSpace(strings.TrimPrefix(line, key))
	return key, value
}

func parseTXTDate(value string) (time.Time, error) {
	for _, layout := range txtDateLayouts {
		if ts, err := time.Parse(layout, value); err == nil {
			return ts.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognised date %q", value)
}

func parseTXTFloat(value, field string, lineNo int, warn func(string, ...zap.Field)) (float64, bool) {
	f, err := strconv.ParseFloat(value, 64)
	if err != nil {
		warn("unparseable number skipped", zap.Int("line", lineNo), zap.String("field", field), zap.String("value", value))
		return 0, false
	}
	return f, true
}

func assignTXTFloat(elem **ElementEntry, value, field string, lineNo int, warn func(string, ...zap.Field), set func(*ElementEntry, float64)) {
	if *elem == nil {
		warn(field+" outside element", zap.Int("line", lineNo))
		return
	}
	if f, ok := parseTXTFloat(value, field, lineNo, warn); ok {
		set(*elem, f)
	}
}

func strPtr(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
