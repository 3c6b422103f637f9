package stream

import "math"

// Stats is a set of statistical properties of a score sample.
type Stats struct {
	count          int
	sum            float64
	min, max       float64
	mean, dSquared float64
}

// NewStats creates a new Stats.
func NewStats() *Stats {
	return &Stats{
		min: math.MaxFloat64,
		max: -math.MaxFloat64,
	}
}

// Push adds another element to the set.
func (s *Stats) Push(v float64) {
	s.count++
	s.sum += v
	diff := (v - s.mean) / float64(s.count)
	mean := s.mean + diff
	squaredDiff := (v - mean) * (v - s.mean)
	s.dSquared += squaredDiff
	s.mean = mean

	if s.min > v {
		s.min = v
	}

	if s.max < v {
		s.max = v
	}
}

// Count returns the number of elements.
func (s Stats) Count() int {
	return s.count
}

// Avg returns the average value of the set.
func (s Stats) Avg() float64 {
	return s.mean
}

// Sum returns the sum of the set.
func (s Stats) Sum() float64 {
	return s.sum
}

// Min returns the smallest element of the set.
func (s Stats) Min() float64 {
	return s.min
}

// Max returns the largest element of the set.
func (s Stats) Max() float64 {
	return s.max
}

// Variance is the mathematical variance of the set.
func (s Stats) Variance() float64 {
	return s.dSquared / float64(s.count)
}

// StDev is the standard deviation of the set.
func (s Stats) StDev() float64 {
	return math.Sqrt(s.Variance())
}

// SampleVariance is the sample variance of the set.
func (s Stats) SampleVariance() float64 {
	return s.dSquared / float64(s.count-1)
}

// SampleStDev is the sample standard deviation of the set.
func (s Stats) SampleStDev() float64 {
	return math.Sqrt(s.SampleVariance())
}
