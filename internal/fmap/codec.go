package fmap

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"
)

var (
	// ErrTruncated reports that the input ended before every field was read.
	// It wraps io.ErrUnexpectedEOF.
	ErrTruncated = fmt.Errorf("fmap truncated: %w", io.ErrUnexpectedEOF)

	// ErrUnsupportedGrid reports a header whose dimensions are not 59x59.
	ErrUnsupportedGrid = errors.New("unsupported fmap grid size")

	// ErrShape reports a record whose grids do not match its header.
	ErrShape = errors.New("fmap grid shape mismatch")
)

var le = binary.LittleEndian

// Decode reads one record from r. Fields are read in file order and a short
// read anywhere returns an error wrapping ErrTruncated. Bytes after the last
// field are not consumed.
func Decode(r io.Reader) (*Record, error) {
	d := &decoder{r: r}

	b := d.read("header", headerSize)
	if d.err != nil {
		return nil, d.err
	}
	rec := &Record{Header: decodeHeader(b)}

	if rec.Width != GridSize || rec.Height != GridSize {
		return nil, fmt.Errorf("%w: header declares %dx%d", ErrUnsupportedGrid, rec.Width, rec.Height)
	}
	w, h := int(rec.Width), int(rec.Height)

	rec.CloudMap = decodeGrid(d, "cloudmap", w, h, int32FromBits)
	rec.PressureMb = decodeGrid(d, "pressure", w, h, math.Float32frombits)
	rec.TemperatureC = decodeGrid(d, "temperature", w, h, math.Float32frombits)
	d.wind("wind magnitude", &rec.WindMagnitudeKt)
	d.wind("wind direction", &rec.WindDirectionDeg)
	rec.CloudBaseFt = decodeGrid(d, "cloud base", w, h, math.Float32frombits)
	rec.CloudCoverage = decodeGrid(d, "cloud coverage", w, h, int32FromBits)
	rec.CloudSize = decodeGrid(d, "cloud size", w, h, math.Float32frombits)
	rec.TCU = decodeGrid(d, "tcu", w, h, int32FromBits)
	rec.Visibility = decodeGrid(d, "visibility", w, h, math.Float32frombits)

	if d.err != nil {
		return nil, d.err
	}
	return rec, nil
}

// Encode writes rec to w in file order. For a 59x59 record the output is
// exactly FileSize bytes.
func Encode(w io.Writer, rec *Record) error {
	b, err := rec.MarshalBinary()
	if err != nil {
		return err
	}
	if _, err := w.Write(b); err != nil {
		return fmt.Errorf("write fmap: %w", err)
	}
	return nil
}

// MarshalBinary implements encoding.BinaryMarshaler.
func (r *Record) MarshalBinary() ([]byte, error) {
	if err := r.checkShape(); err != nil {
		return nil, err
	}

	b := make([]byte, 0, FileSize)
	b = appendHeader(b, &r.Header)
	b = appendGrid(b, r.CloudMap, int32Bits)
	b = appendGrid(b, r.PressureMb, math.Float32bits)
	b = appendGrid(b, r.TemperatureC, math.Float32bits)
	b = appendWind(b, &r.WindMagnitudeKt)
	b = appendWind(b, &r.WindDirectionDeg)
	b = appendGrid(b, r.CloudBaseFt, math.Float32bits)
	b = appendGrid(b, r.CloudCoverage, int32Bits)
	b = appendGrid(b, r.CloudSize, math.Float32bits)
	b = appendGrid(b, r.TCU, int32Bits)
	b = appendGrid(b, r.Visibility, math.Float32bits)
	return b, nil
}

// UnmarshalBinary implements encoding.BinaryUnmarshaler.
func (r *Record) UnmarshalBinary(data []byte) error {
	rec, err := Decode(bytes.NewReader(data))
	if err != nil {
		return err
	}
	*r = *rec
	return nil
}

func (r *Record) checkShape() error {
	if r.Width != GridSize || r.Height != GridSize {
		return fmt.Errorf("%w: header declares %dx%d", ErrUnsupportedGrid, r.Width, r.Height)
	}
	n := int(r.Width) * int(r.Height)
	lengths := []struct {
		name string
		len  int
	}{
		{"cloudmap", r.CloudMap.Len()},
		{"pressure", r.PressureMb.Len()},
		{"temperature", r.TemperatureC.Len()},
		{"cloud base", r.CloudBaseFt.Len()},
		{"cloud coverage", r.CloudCoverage.Len()},
		{"cloud size", r.CloudSize.Len()},
		{"tcu", r.TCU.Len()},
		{"visibility", r.Visibility.Len()},
	}
	for _, l := range lengths {
		if l.len != n {
			return fmt.Errorf("%w: %s has %d cells, header implies %d", ErrShape, l.name, l.len, n)
		}
	}
	return nil
}

// decoder reads fixed-size chunks and keeps the first error.
type decoder struct {
	r   io.Reader
	buf []byte
	err error
}

func (d *decoder) read(field string, n int) []byte {
	if d.err != nil {
		return nil
	}
	if cap(d.buf) < n {
		d.buf = make([]byte, n)
	}
	b := d.buf[:n]
	if _, err := io.ReadFull(d.r, b); err != nil {
		if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
			d.err = fmt.Errorf("decode %s: %w", field, ErrTruncated)
		} else {
			d.err = fmt.Errorf("decode %s: %w", field, err)
		}
		return nil
	}
	return b
}

func (d *decoder) wind(field string, dst *WindField) {
	b := d.read(field, windValues*4)
	if b == nil {
		return
	}
	for k := range windValues {
		layer, row, col := windCoords(k)
		dst[layer][row][col] = math.Float32frombits(le.Uint32(b[4*k:]))
	}
}

func decodeGrid[T int32 | float32](d *decoder, field string, w, h int, conv func(uint32) T) Grid[T] {
	b := d.read(field, w*h*4)
	if b == nil {
		return Grid[T]{}
	}
	g := NewGrid[T](w, h)
	for i := range g.Values {
		g.Values[i] = conv(le.Uint32(b[4*i:]))
	}
	return g
}

func decodeHeader(b []byte) Header {
	i32 := func(off int) int32 { return int32(le.Uint32(b[off:])) }
	return Header{
		Version:             i32(0),
		Width:               i32(4),
		Height:              i32(8),
		MoveDir:             i32(12),
		MoveVel:             math.Float32frombits(le.Uint32(b[16:])),
		Unknown02:           i32(20),
		Unknown03:           i32(24),
		ContrailSunnyFt:     i32(28),
		ContrailFairFt:      i32(32),
		ContrailPoorFt:      i32(36),
		ContrailInclementFt: i32(40),
	}
}

func appendHeader(b []byte, h *Header) []byte {
	b = le.AppendUint32(b, uint32(h.Version))
	b = le.AppendUint32(b, uint32(h.Width))
	b = le.AppendUint32(b, uint32(h.Height))
	b = le.AppendUint32(b, uint32(h.MoveDir))
	b = le.AppendUint32(b, math.Float32bits(h.MoveVel))
	b = le.AppendUint32(b, uint32(h.Unknown02))
	b = le.AppendUint32(b, uint32(h.Unknown03))
	b = le.AppendUint32(b, uint32(h.ContrailSunnyFt))
	b = le.AppendUint32(b, uint32(h.ContrailFairFt))
	b = le.AppendUint32(b, uint32(h.ContrailPoorFt))
	b = le.AppendUint32(b, uint32(h.ContrailInclementFt))
	return b
}

func appendGrid[T int32 | float32](b []byte, g Grid[T], conv func(T) uint32) []byte {
	for _, v := range g.Values {
		b = le.AppendUint32(b, conv(v))
	}
	return b
}

func appendWind(b []byte, f *WindField) []byte {
	for k := range windValues {
		layer, row, col := windCoords(k)
		b = le.AppendUint32(b, math.Float32bits(f[layer][row][col]))
	}
	return b
}

func int32FromBits(u uint32) int32 { return int32(u) }

func int32Bits(v int32) uint32 { return uint32(v) }
