package neat

import (
	"math"

	"gonum.org/v1/gonum/stat"
)

// clamp restricts a value to a given range [minVal, maxVal].
func clamp(value, minVal, maxVal float64) float64 {
	return math.Max(minVal, math.Min(value, maxVal))
}

// Summary describes a sample of values.
type Summary struct {
	Count int
	Mean  float64
	Stdev float64
	Min   float64
	Max   float64
}

// Summarize computes count, mean, sample standard deviation and range of
// values. An empty sample yields the zero Summary.
func Summarize(values []float64) Summary {
	if len(values) == 0 {
		return Summary{}
	}
	s := Summary{Count: len(values), Min: values[0], Max: values[0]}
	for _, v := range values[1:] {
		s.Min = math.Min(s.Min, v)
		s.Max = math.Max(s.Max, v)
	}
	if len(values) < 2 {
		s.Mean = values[0]
		return s
	}
	s.Mean, s.Stdev = stat.MeanStdDev(values, nil)
	return s
}
