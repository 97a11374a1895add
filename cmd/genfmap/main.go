// Command genfmap writes synthetic fmap files for exercising fmapfix and
// validate without real weather engine output. The maps are deterministic
// for a given seed and deliberately contain visibilities below every
// category floor and TCU markers in every category.
//
// Usage:
//
//	go run ./cmd/genfmap -out testdata/raw -count 4 -seed 42
package main

import (
	"flag"
	"fmt"
	"log"
	"math/rand/v2"
	"os"
	"path/filepath"
	"time"

	"github.com/couchcryptid/fmap-wx-fixer/internal/fmap"
)

// baseTime names the first generated map; each later map is six hours on,
// matching the weather engine's update cadence.
var baseTime = time.Date(2024, time.April, 26, 0, 0, 0, 0, time.UTC)

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	out := flag.String("out", "", "directory to write generated fmap files")
	count := flag.Int("count", 4, "number of files to generate")
	seed := flag.Uint64("seed", 42, "random seed")
	flag.Parse()

	if *out == "" || *count < 1 {
		flag.Usage()
		return fmt.Errorf("missing required flags: -out, -count >= 1")
	}
	if err := os.MkdirAll(*out, 0o755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}

	rng := rand.New(rand.NewPCG(*seed, *seed>>1|1))
	for i := range *count {
		name := baseTime.Add(time.Duration(i) * 6 * time.Hour).Format("2006010215") + ".fmap"
		rec := generate(rng)
		if err := fmap.WriteFile(filepath.Join(*out, name), rec); err != nil {
			return fmt.Errorf("write %s: %w", name, err)
		}
		log.Printf("%s: %d bytes", name, fmap.FileSize)
	}

	log.Printf("total: %d fmaps in %s", *count, *out)
	return nil
}

// generate builds one map of weather bands drifting west to east with noisy
// visibility and scattered TCU.
func generate(rng *rand.Rand) *fmap.Record {
	rec := fmap.NewRecord()
	rec.Version = 1
	rec.MoveDir = int32(rng.IntN(360))
	rec.MoveVel = float32(rng.IntN(30))
	rec.ContrailSunnyFt = 34000
	rec.ContrailFairFt = 30000
	rec.ContrailPoorFt = 28000
	rec.ContrailInclementFt = 26000

	offset := rng.IntN(fmap.GridSize)
	for x := range fmap.GridSize {
		for y := range fmap.GridSize {
			category := int32((x+offset)/15%4 + 1)
			rec.CloudMap.Set(x, y, category)
			rec.PressureMb.Set(x, y, 1020-float32(category)*6+float32(rng.NormFloat64()))
			rec.TemperatureC.Set(x, y, 15+float32(rng.NormFloat64()*3))
			rec.CloudBaseFt.Set(x, y, float32(12000-int(category)*2500+rng.IntN(500)))
			rec.CloudCoverage.Set(x, y, category*2+int32(rng.IntN(2)))
			rec.CloudSize.Set(x, y, rng.Float32()*float32(category))
			// A quarter of the cells get a visibility well under any floor.
			if rng.IntN(4) == 0 {
				rec.Visibility.Set(x, y, rng.Float32()*10)
			} else {
				rec.Visibility.Set(x, y, 20+rng.Float32()*60)
			}
			if rng.IntN(10) == 0 {
				rec.TCU.Set(x, y, 1)
			}
		}
	}

	for layer := range fmap.WindLayers {
		for row := range fmap.GridSize {
			for col := range fmap.GridSize {
				rec.WindMagnitudeKt[layer][row][col] = float32(10 + 8*layer + rng.IntN(10))
				rec.WindDirectionDeg[layer][row][col] = float32((270 + 5*layer + rng.IntN(20)) % 360)
			}
		}
	}
	return rec
}
