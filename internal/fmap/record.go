package fmap

const (
	// GridSize is the edge length of every map the weather engine writes.
	GridSize = 59

	// WindLayers is the number of altitude bands in each wind field.
	WindLayers = 10

	// FileSize is the exact size in bytes of a valid fmap file.
	FileSize = headerSize + gridCount*GridSize*GridSize*4 + 2*windValues*4

	headerSize = 11 * 4
	gridCount  = 8
	windValues = GridSize * GridSize * WindLayers
)

// Header holds the scalar fields at the start of an fmap file, in file order.
type Header struct {
	Version int32
	Width   int32
	Height  int32

	// MoveDir and MoveVel describe how the weather system drifts over time.
	MoveDir int32
	MoveVel float32

	Unknown02 int32
	Unknown03 int32

	// Contrail altitudes per weather category, in feet.
	ContrailSunnyFt     int32
	ContrailFairFt      int32
	ContrailPoorFt      int32
	ContrailInclementFt int32
}

// Grid is a Width x Height field stored flat with y varying fastest.
type Grid[T int32 | float32] struct {
	Width  int
	Height int
	Values []T
}

// NewGrid allocates a zeroed grid.
func NewGrid[T int32 | float32](width, height int) Grid[T] {
	return Grid[T]{Width: width, Height: height, Values: make([]T, width*height)}
}

// At returns the value of cell (x, y).
func (g Grid[T]) At(x, y int) T {
	return g.Values[x*g.Height+y]
}

// Set stores v at cell (x, y).
func (g Grid[T]) Set(x, y int, v T) {
	g.Values[x*g.Height+y] = v
}

// Len returns the number of cells.
func (g Grid[T]) Len() int {
	return len(g.Values)
}

func (g Grid[T]) clone() Grid[T] {
	out := Grid[T]{Width: g.Width, Height: g.Height, Values: make([]T, len(g.Values))}
	copy(out.Values, g.Values)
	return out
}

// WindField is one wind quantity indexed [layer][row][col].
type WindField [WindLayers][GridSize][GridSize]float32

// Record is a decoded fmap file.
type Record struct {
	Header

	CloudMap         Grid[int32]
	PressureMb       Grid[float32]
	TemperatureC     Grid[float32]
	WindMagnitudeKt  WindField
	WindDirectionDeg WindField
	CloudBaseFt      Grid[float32]
	CloudCoverage    Grid[int32]
	CloudSize        Grid[float32]
	TCU              Grid[int32]
	Visibility       Grid[float32]
}

// NewRecord returns an empty 59x59 record with every grid allocated.
func NewRecord() *Record {
	return &Record{
		Header:        Header{Width: GridSize, Height: GridSize},
		CloudMap:      NewGrid[int32](GridSize, GridSize),
		PressureMb:    NewGrid[float32](GridSize, GridSize),
		TemperatureC:  NewGrid[float32](GridSize, GridSize),
		CloudBaseFt:   NewGrid[float32](GridSize, GridSize),
		CloudCoverage: NewGrid[int32](GridSize, GridSize),
		CloudSize:     NewGrid[float32](GridSize, GridSize),
		TCU:           NewGrid[int32](GridSize, GridSize),
		Visibility:    NewGrid[float32](GridSize, GridSize),
	}
}

// Clone returns a deep copy of r.
func (r *Record) Clone() *Record {
	return &Record{
		Header:           r.Header,
		CloudMap:         r.CloudMap.clone(),
		PressureMb:       r.PressureMb.clone(),
		TemperatureC:     r.TemperatureC.clone(),
		WindMagnitudeKt:  r.WindMagnitudeKt,
		WindDirectionDeg: r.WindDirectionDeg,
		CloudBaseFt:      r.CloudBaseFt.clone(),
		CloudCoverage:    r.CloudCoverage.clone(),
		CloudSize:        r.CloudSize.clone(),
		TCU:              r.TCU.clone(),
		Visibility:       r.Visibility.clone(),
	}
}

// windCoords maps position k of the stored wind run to its logical index.
// The layer varies fastest on disk, then the row, then the column.
func windCoords(k int) (layer, row, col int) {
	return k % WindLayers, (k / WindLayers) % GridSize, k / (WindLayers * GridSize)
}

// windIndex is the inverse of windCoords.
func windIndex(layer, row, col int) int {
	return col*GridSize*WindLayers + row*WindLayers + layer
}
