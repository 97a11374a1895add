// Command validate checks a directory of fixed fmaps against the inputs they
// were produced from. It decodes each pair and verifies that the fixer
// changed exactly what the thresholds call for and nothing else.
//
// Usage:
//
//	go run ./cmd/validate -input wx/raw -output wx/fixed \
//	  -sunny 60 -fair 40 -poor 30 -inclement 20 -mintcu fair
package main

import (
	"bytes"
	"context"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"math"
	"os"
	"path/filepath"

	"github.com/couchcryptid/fmap-wx-fixer/internal/adapter/fsdir"
	"github.com/couchcryptid/fmap-wx-fixer/internal/config"
	"github.com/couchcryptid/fmap-wx-fixer/internal/domain"
	"github.com/couchcryptid/fmap-wx-fixer/internal/fmap"
)

// phase tracks pass/fail for a validation phase.
type phase struct {
	name   string
	errors []string
}

func (p *phase) errorf(format string, args ...any) {
	p.errors = append(p.errors, fmt.Sprintf(format, args...))
}

func (p *phase) passed() bool { return len(p.errors) == 0 }

// pair is one decoded input and its fixed output.
type pair struct {
	name   string
	input  *fmap.Record
	output *fmap.Record
}

func main() {
	defaults := domain.DefaultThresholds()
	inputDir := flag.String("input", "", "directory containing the original fmap files")
	outputDir := flag.String("output", "", "directory containing the fixed fmap files")
	sunny := flag.Float64("sunny", float64(defaults.Sunny), "sunny visibility floor used for the fix")
	fair := flag.Float64("fair", float64(defaults.Fair), "fair visibility floor used for the fix")
	poor := flag.Float64("poor", float64(defaults.Poor), "poor visibility floor used for the fix")
	inclement := flag.Float64("inclement", float64(defaults.Inclement), "inclement visibility floor used for the fix")
	minTCU := flag.String("mintcu", "fair", "TCU category used for the fix, or none")
	flag.Parse()

	if *inputDir == "" || *outputDir == "" {
		flag.Usage()
		os.Exit(1)
	}

	opts := domain.FixOptions{Thresholds: domain.Thresholds{
		Sunny:     float32(*sunny),
		Fair:      float32(*fair),
		Poor:      float32(*poor),
		Inclement: float32(*inclement),
	}}
	if *minTCU != config.TCUDisabled {
		c, err := domain.ParseCategory(*minTCU)
		if err != nil {
			fmt.Fprintf(os.Stderr, "FATAL: %v\n", err)
			os.Exit(1)
		}
		opts.MinTCU = c
	}

	if code := run(os.Stdout, *inputDir, *outputDir, opts); code != 0 {
		os.Exit(code)
	}
}

func run(w io.Writer, inputDir, outputDir string, opts domain.FixOptions) int {
	fmt.Fprintln(w, "=== fmap Fix Validation ===")
	fmt.Fprintln(w)

	src := fsdir.NewSource(inputDir, slog.New(slog.NewTextHandler(io.Discard, nil)))
	files, err := src.Discover(context.Background())
	if err != nil {
		fmt.Fprintf(w, "FATAL: %v\n", err)
		return 1
	}

	parity := &phase{name: "Output file parity"}
	pairs := loadPairs(files, outputDir, parity)

	phases := []*phase{
		parity,
		validateUntouchedFields(pairs),
		validateVisibility(pairs, opts.Thresholds),
		validateTCU(pairs, opts.MinTCU),
		validateReproduction(pairs, opts),
	}

	fmt.Fprintln(w)
	allPassed := true
	for _, p := range phases {
		status := "PASS"
		if !p.passed() {
			status = fmt.Sprintf("FAIL (%d errors)", len(p.errors))
			allPassed = false
		}
		fmt.Fprintf(w, "  %-42s %s\n", p.name, status)
	}

	fmt.Fprintln(w)
	fmt.Fprintf(w, "Files: %d input, %d validated\n", len(files), len(pairs))

	for _, p := range phases {
		if p.passed() {
			continue
		}
		fmt.Fprintf(w, "\n--- %s ---\n", p.name)
		for i, e := range p.errors {
			if i >= 20 {
				fmt.Fprintf(w, "  ... and %d more\n", len(p.errors)-20)
				break
			}
			fmt.Fprintf(w, "  %s\n", e)
		}
	}

	if !allPassed {
		return 1
	}
	fmt.Fprintln(w, "\nAll validations passed.")
	return 0
}

// loadPairs decodes every input and its namesake in outputDir. Missing or
// undecodable outputs are recorded in parity and skipped.
func loadPairs(files []domain.InputFile, outputDir string, parity *phase) []pair {
	var pairs []pair
	for _, f := range files {
		in, err := fmap.ReadFile(f.Path)
		if err != nil {
			parity.errorf("%s: input does not decode: %v", f.Name, err)
			continue
		}
		outPath := filepath.Join(outputDir, f.Name)
		info, err := os.Stat(outPath)
		if err != nil {
			parity.errorf("%s: missing output: %v", f.Name, err)
			continue
		}
		if info.Size() != fmap.FileSize {
			parity.errorf("%s: output is %d bytes, want %d", f.Name, info.Size(), fmap.FileSize)
			continue
		}
		out, err := fmap.ReadFile(outPath)
		if err != nil {
			parity.errorf("%s: output does not decode: %v", f.Name, err)
			continue
		}
		pairs = append(pairs, pair{name: f.Name, input: in, output: out})
	}
	return pairs
}

// validateUntouchedFields checks that everything except visibility and TCU
// survived byte for byte.
func validateUntouchedFields(pairs []pair) *phase {
	p := &phase{name: "Header, wind, and untouched grids"}
	for _, pr := range pairs {
		in := pr.input.Clone()
		in.Visibility = pr.output.Visibility
		in.TCU = pr.output.TCU

		a, errA := in.MarshalBinary()
		b, errB := pr.output.MarshalBinary()
		if errA != nil || errB != nil {
			p.errorf("%s: re-encode failed: %v %v", pr.name, errA, errB)
			continue
		}
		if !bytes.Equal(a, b) {
			p.errorf("%s: fields other than visibility and TCU differ", pr.name)
		}
	}
	return p
}

func validateVisibility(pairs []pair, th domain.Thresholds) *phase {
	p := &phase{name: "Visibility floors"}
	for _, pr := range pairs {
		for i, code := range pr.input.CloudMap.Values {
			before := pr.input.Visibility.Values[i]
			after := pr.output.Visibility.Values[i]
			c := domain.Category(code)
			floor := th.For(c)
			switch {
			case c.Valid() && before < floor:
				if after != floor {
					p.errorf("%s cell %d (%s): visibility %.2f should be raised to %.2f, got %.2f", pr.name, i, c, before, floor, after)
				}
			case !math.IsNaN(float64(before)) && after != before:
				p.errorf("%s cell %d (%s): visibility changed from %.2f to %.2f", pr.name, i, c, before, after)
			}
		}
	}
	return p
}

func validateTCU(pairs []pair, minTCU domain.Category) *phase {
	p := &phase{name: "TCU markers"}
	for _, pr := range pairs {
		for i, code := range pr.input.CloudMap.Values {
			before := pr.input.TCU.Values[i]
			after := pr.output.TCU.Values[i]
			if minTCU != 0 && code <= int32(minTCU) {
				if after != 0 {
					p.errorf("%s cell %d (%s): TCU %d should be cleared", pr.name, i, domain.Category(code), after)
				}
				continue
			}
			if after != before {
				p.errorf("%s cell %d (%s): TCU changed from %d to %d", pr.name, i, domain.Category(code), before, after)
			}
		}
	}
	return p
}

// validateReproduction re-runs the fix on the input and compares bytes with the
// output on disk.
func validateReproduction(pairs []pair, opts domain.FixOptions) *phase {
	p := &phase{name: "Byte-exact reproduction"}
	for _, pr := range pairs {
		want := pr.input.Clone()
		domain.Fix(want, opts)
		a, errA := want.MarshalBinary()
		b, errB := pr.output.MarshalBinary()
		if errA != nil || errB != nil {
			p.errorf("%s: re-encode failed: %v %v", pr.name, errA, errB)
			continue
		}
		if !bytes.Equal(a, b) {
			p.errorf("%s: output differs from a fresh fix of the input", pr.name)
		}
	}
	return p
}
