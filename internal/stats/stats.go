// Package stats reduces a scan result to summary statistics.
package stats

import "math"

// NoResult is the value of every field when the result set is empty.
const NoResult = -1.0

// Pair is one matching row: its resale price and floor area.
type Pair struct {
	Price float64 `json:"price"`
	Area  float64 `json:"area"`
}

// Stats summarizes the prices of a result set.
type Stats struct {
	MinPrice       float64 `json:"min_price"`
	MeanPrice      float64 `json:"mean_price"`
	StdDevPrice    float64 `json:"stddev_price"`
	MinPricePerSqm float64 `json:"min_price_per_sqm"`
	Count          int     `json:"count"`
}

// Category labels, in the order they are reported.
const (
	CategoryMinPrice       = "Minimum Price"
	CategoryMeanPrice      = "Average Price"
	CategoryStdDevPrice    = "Standard Deviation of Price"
	CategoryMinPricePerSqm = "Minimum Price per Square Meter"
)

// Category is a labelled statistic.
type Category struct {
	Name  string
	Value float64
}

// Compute returns the statistics of pairs. An empty input yields NoResult in
// every field. The standard deviation is the sample deviation (divisor n-1)
// and is 0 for a single pair.
func Compute(pairs []Pair) Stats {
	if len(pairs) == 0 {
		return Stats{
			MinPrice:       NoResult,
			MeanPrice:      NoResult,
			StdDevPrice:    NoResult,
			MinPricePerSqm: NoResult,
		}
	}

	minPrice := math.Inf(1)
	minPerSqm := math.Inf(1)
	var sum float64
	for _, p := range pairs {
		minPrice = math.Min(minPrice, p.Price)
		minPerSqm = math.Min(minPerSqm, p.Price/p.Area)
		sum += p.Price
	}
	n := float64(len(pairs))
	mean := sum / n

	var stddev float64
	if len(pairs) > 1 {
		var sq float64
		for _, p := range pairs {
			d := p.Price - mean
			sq += d * d
		}
		stddev = math.Sqrt(sq / (n - 1))
	}

	return Stats{
		MinPrice:       minPrice,
		MeanPrice:      mean,
		StdDevPrice:    stddev,
		MinPricePerSqm: minPerSqm,
		Count:          len(pairs),
	}
}

// Empty reports whether s describes an empty result set.
func (s Stats) Empty() bool {
	return s.Count == 0
}

// Categories returns the four statistics in report order.
func (s Stats) Categories() []Category {
	return []Category{
		{CategoryMinPrice, s.MinPrice},
		{CategoryMeanPrice, s.MeanPrice},
		{CategoryStdDevPrice, s.StdDevPrice},
		{CategoryMinPricePerSqm, s.MinPricePerSqm},
	}
}
