// Package fmap reads and writes the fixed-layout binary weather maps ("fmap"
// files) produced by the flight simulator's weather engine.
//
// # Layout
//
// Every valid file is exactly [FileSize] bytes. All values are little-endian
// 32-bit integers or IEEE-754 floats, stored back to back with no padding:
//
//	header       11 values (see [Header]), 44 bytes
//	cloudmap     W*H int32     weather category per cell, 1..4
//	pressure     W*H float32   millibars
//	temperature  W*H float32   degrees Celsius
//	wind speed   59*59*10 float32, knots
//	wind dir     59*59*10 float32, degrees
//	cloud base   W*H float32   feet
//	coverage     W*H int32
//	cloud size   W*H float32
//	tcu          W*H int32     towering cumulus marker
//	visibility   W*H float32
//
// The 2-D grids are indexed [x][y] with y varying fastest, so cell (x, y)
// lives at x*H+y in the stored run. [Grid] keeps that flat order.
//
// The wind fields are always 59x59 with 10 altitude layers, whatever the
// header says. On disk the layer index varies fastest, then the row, then
// the column; [WindField] exposes them as [layer][row][col]. The same index
// function is used in both directions so an encode always inverts a decode.
//
// The weather engine only emits 59x59 maps. A header declaring any other
// size is rejected with [ErrUnsupportedGrid] because the wind layout of such
// a file is unknown.
package fmap
