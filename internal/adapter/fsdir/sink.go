package fsdir

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/couchcryptid/fmap-wx-fixer/internal/fmap"
)

// Sink writes fixed fmaps into a directory under their input base names.
// It implements pipeline.Loader.
type Sink struct {
	dir string
}

// NewSink creates a Sink over dir. The directory is created on first Load.
func NewSink(dir string) *Sink {
	return &Sink{dir: dir}
}

// Load writes rec to dir/name, creating dir if needed.
func (s *Sink) Load(_ context.Context, name string, rec *fmap.Record) error {
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}
	return fmap.WriteFile(filepath.Join(s.dir, filepath.Base(name)), rec)
}
