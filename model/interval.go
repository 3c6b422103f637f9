package model

import "math"

// Interval is a closed prediction interval with Lower <= Upper.
type Interval struct {
	Lower float64 `json:"lower"`
	Upper float64 `json:"upper"`
}

// Width returns the size of the interval.
func (i Interval) Width() float64 {
	return i.Upper - i.Lower
}

// Contains checks whether y falls inside the interval.
func (i Interval) Contains(y float64) bool {
	return y >= i.Lower && y <= i.Upper
}

// Bounded reports whether both ends of the interval are finite.
func (i Interval) Bounded() bool {
	return !math.IsInf(i.Lower, -1) && !math.IsInf(i.Upper, 1)
}

// Everything is the degenerate interval covering the whole real line.
func Everything() Interval {
	return Interval{Lower: math.Inf(-1), Upper: math.Inf(1)}
}
