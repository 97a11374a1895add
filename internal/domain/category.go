package domain

import (
	"fmt"
	"strings"
)

// Category is the weather type the engine assigns to a grid cell. Higher
// values are worse weather.
type Category int32

const (
	Sunny Category = iota + 1
	Fair
	Poor
	Inclement
)

// Categories lists every category in the order the visibility passes run.
var Categories = []Category{Sunny, Fair, Poor, Inclement}

var categoryNames = map[Category]string{
	Sunny:     "sunny",
	Fair:      "fair",
	Poor:      "poor",
	Inclement: "inclement",
}

// ParseCategory maps a category name to its code. Matching ignores case and
// surrounding whitespace.
func ParseCategory(name string) (Category, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	for c, n := range categoryNames {
		if n == name {
			return c, nil
		}
	}
	return 0, fmt.Errorf("unknown weather category %q (want sunny, fair, poor or inclement)", name)
}

// Valid reports whether c is one of the four engine categories.
func (c Category) Valid() bool {
	return c >= Sunny && c <= Inclement
}

func (c Category) String() string {
	if n, ok := categoryNames[c]; ok {
		return n
	}
	return fmt.Sprintf("category(%d)", int32(c))
}
