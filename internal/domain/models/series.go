package models

import "time"

// Observation is one provider data point in native unit and currency.
type Observation struct {
	Date  time.Time `json:"date"`
	Value float64   `json:"value"`
}

// RawSeries is a provider series, ordered by date, possibly irregular or empty.
type RawSeries struct {
	ID           string
	Observations []Observation
}

// Empty reports whether the series carries no observations.
func (r RawSeries) Empty() bool { return len(r.Observations) == 0 }

// Grid is the canonical month-end timeline.
type Grid []time.Time

// Series is a column aligned by index to a Grid.
type Series []Value

// FirstDefined returns the index of the first defined point, or -1.
func (s Series) FirstDefined() int {
	for i, v := range s {
		if v.OK {
			return i
		}
	}
	return -1
}

// AllUndefined reports whether no point of s is defined.
func (s Series) AllUndefined() bool { return s.FirstDefined() < 0 }

// Undefined returns a series of n undefined points.
func Undefined(n int) Series { return make(Series, n) }
