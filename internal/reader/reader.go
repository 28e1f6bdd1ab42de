package reader

import (
	"io"
	"path/filepath"
	"strings"

	"go.uber.org/zap"
)

// Reader parses one export format into an ordered document. Parse must be a
// pure function of the stream contents; a nil logger is tolerated.
type Reader interface {
	// Format names the export format for diagnostics.
	Format() string
	// Parse reads the full stream and returns the ordered document.
	Parse(r io.Reader, logger *zap.Logger) (Document, error)
}

// Registry maps a closed set of recognised file-name suffixes to reader
// implementations. Resolution is a pure function of the suffix; an
// unrecognised suffix yields an explicit "unresolved" result rather than a
// nil reader.
type Registry struct {
	readers map[string]Reader
}

// NewRegistry constructs an empty registry.
func NewRegistry() *Registry {
	return &Registry{readers: make(map[string]Reader)}
}

// Register maps a suffix (including the leading dot) to a reader. Suffixes
// are matched case-insensitively.
func (r *Registry) Register(suffix string, rd Reader) {
	if suffix == "" || rd == nil {
		return
	}
	r.readers[strings.ToLower(suffix)] = rd
}

// Resolve returns the reader for the file's suffix. The second return value
// is false when no reader is registered for the suffix.
func (r *Registry) Resolve(path string) (Reader, bool) {
	rd, ok := r.readers[strings.ToLower(filepath.Ext(path))]
	return rd, ok
}

// Suffixes returns the registered suffixes, for diagnostics.
func (r *Registry) Suffixes() []string {
	out := make([]string, 0, len(r.readers))
	for s := range r.readers {
		out = append(out, s)
	}
	return out
}

// DefaultRegistry returns the registry with the built-in format set.
// Currently exactly one suffix is mapped: ".txt".
func DefaultRegistry() *Registry {
	reg := NewRegistry()
	reg.Register(".txt", TXTReader{})
	return reg
}
