// Package meter turns playback power into the waveform amplitude.
package meter

import "math"

const (
	DefaultMinDB = -80.0
	DefaultSize  = 400
	DefaultRoot  = 2.0
)

// Table maps decibels onto [0, 1] along a root curve, so quiet passages
// still move the waveform.
type Table struct {
	minDB       float64
	scaleFactor float64
	values      []float64
}

func DbToAmp(db float64) float64 {
	return math.Pow(10, 0.05*db)
}

func NewTable(minDB float64, size int, root float64) *Table {
	if size < 2 {
		size = 2
	}
	resolution := minDB / float64(size-1)
	minAmp := DbToAmp(minDB)
	invRange := 1 / (1 - minAmp)
	rroot := 1 / root

	values := make([]float64, size)
	for i := range values {
		amp := DbToAmp(float64(i) * resolution)
		values[i] = math.Pow((amp-minAmp)*invRange, rroot)
	}
	return &Table{minDB: minDB, scaleFactor: 1 / resolution, values: values}
}

func DefaultTable() *Table {
	return NewTable(DefaultMinDB, DefaultSize, DefaultRoot)
}

func (t *Table) Value(db float64) float64 {
	if db < t.minDB {
		return 0
	}
	if db >= 0 {
		return 1
	}
	i := int(db * t.scaleFactor)
	if i >= len(t.values) {
		i = len(t.values) - 1
	}
	return t.values[i]
}
