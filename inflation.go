package returns

import "iter"

// InflationIndex is a chronological series of consumer price index
// observations. The index level is unitless: only the ratio between two
// observations matters.
type InflationIndex struct {
	levels History[float64]
}

// NewInflationIndex returns an empty index.
func NewInflationIndex() *InflationIndex { return &InflationIndex{} }

// Record adds an index observation. An existing observation on the same date
// is overwritten.
func (x *InflationIndex) Record(on Date, level float64) { x.levels.Append(on, level) }

// Len returns the number of observations.
func (x *InflationIndex) Len() int { return x.levels.Len() }

// Levels iterates all observations in chronological order.
func (x *InflationIndex) Levels() iter.Seq2[Date, float64] { return x.levels.Values() }

// LevelAsOf returns the observation at or immediately before 'on', along with
// the date it was recorded.
func (x *InflationIndex) LevelAsOf(on Date) (Date, float64, bool) {
	return x.levels.DateAsOf(on)
}

// First returns the earliest observation.
func (x *InflationIndex) First() (Date, float64, bool) { return x.levels.First() }

// Latest returns the most recent observation.
func (x *InflationIndex) Latest() (Date, float64, bool) { return x.levels.Latest() }
