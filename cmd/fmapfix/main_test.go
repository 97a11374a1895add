package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/fmap-wx-fixer/internal/adapter/fsdir"
	"github.com/couchcryptid/fmap-wx-fixer/internal/domain"
	"github.com/couchcryptid/fmap-wx-fixer/internal/fmap"
)

func TestRun_FixesDirectory(t *testing.T) {
	in := t.TempDir()
	out := filepath.Join(t.TempDir(), "fixed")
	metricsFile := filepath.Join(t.TempDir(), "fmapfix.prom")

	rec := fmap.NewRecord()
	rec.CloudMap.Set(0, 0, int32(domain.Sunny))
	rec.Visibility.Set(0, 0, 10)
	rec.CloudMap.Set(0, 1, int32(domain.Fair))
	rec.Visibility.Set(0, 1, 45)
	rec.TCU.Set(0, 1, 5)
	rec.CloudMap.Set(0, 2, int32(domain.Poor))
	rec.Visibility.Set(0, 2, 45)
	rec.TCU.Set(0, 2, 5)
	for x := 1; x < fmap.GridSize; x++ {
		for y := range fmap.GridSize {
			rec.CloudMap.Set(x, y, int32(domain.Inclement))
			rec.Visibility.Set(x, y, 25)
		}
	}
	for y := 3; y < fmap.GridSize; y++ {
		rec.CloudMap.Set(0, y, int32(domain.Inclement))
		rec.Visibility.Set(0, y, 25)
	}
	require.NoError(t, fmap.WriteFile(filepath.Join(in, "2024042612.fmap"), rec))
	require.NoError(t, os.WriteFile(filepath.Join(in, "readme.txt"), make([]byte, 100), 0o644))

	var stdout bytes.Buffer
	err := run([]string{"-i", in, "-o", out, "--metrics-file", metricsFile}, &stdout)
	require.NoError(t, err)

	assert.Contains(t, stdout.String(), "Fixed 1 fmap: 1 visibility cells raised, 1 TCU markers cleared.")

	got, err := fmap.ReadFile(filepath.Join(out, "2024042612.fmap"))
	require.NoError(t, err)
	assert.InDelta(t, 60, got.Visibility.At(0, 0), 0)
	assert.InDelta(t, 45, got.Visibility.At(0, 1), 0)
	assert.Equal(t, int32(0), got.TCU.At(0, 1))
	assert.Equal(t, int32(5), got.TCU.At(0, 2))

	_, err = os.Stat(filepath.Join(out, "readme.txt"))
	assert.ErrorIs(t, err, os.ErrNotExist)

	prom, err := os.ReadFile(metricsFile)
	require.NoError(t, err)
	assert.Contains(t, string(prom), "fmap_fixer_files_processed_total 1")
}

func TestRun_NoInputFound(t *testing.T) {
	in := t.TempDir()
	out := filepath.Join(t.TempDir(), "fixed")
	require.NoError(t, os.WriteFile(filepath.Join(in, "tiny.fmap"), make([]byte, 100), 0o644))

	err := run([]string{"-i", in, "-o", out}, &bytes.Buffer{})
	require.Error(t, err)
	assert.ErrorIs(t, err, fsdir.ErrNoInputFound)

	_, statErr := os.Stat(out)
	assert.ErrorIs(t, statErr, os.ErrNotExist, "output dir must not be created when nothing qualifies")
}

func TestRun_Help(t *testing.T) {
	var stdout bytes.Buffer
	require.NoError(t, run([]string{"--help"}, &stdout))
	assert.Contains(t, stdout.String(), "--mintcu")
}

func TestRun_BadConfig(t *testing.T) {
	err := run([]string{"-i", "x"}, &bytes.Buffer{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "--output")
}

func TestRun_StatusServer(t *testing.T) {
	in := t.TempDir()
	require.NoError(t, fmap.WriteFile(filepath.Join(in, "a.fmap"), fmap.NewRecord()))

	var stdout bytes.Buffer
	err := run([]string{"-i", in, "-o", t.TempDir(), "--metrics-addr", "127.0.0.1:0", "-m", "none"}, &stdout)
	require.NoError(t, err)
	assert.Contains(t, stdout.String(), "Fixed 1 fmap: 0 visibility cells raised, 0 TCU markers cleared.")
}
