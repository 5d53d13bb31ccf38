package harness

import (
	"github.com/roach88/colscan/internal/scan"
	"github.com/roach88/colscan/internal/zone"
)

// Result is the outcome of a scenario execution.
type Result struct {
	// Pass is true when every check succeeded.
	Pass bool `json:"pass"`

	// Results holds one entry per strategy, in run order.
	Results []*scan.Result `json:"results"`

	// Zones is the zone map built for the dataset.
	Zones *zone.Map `json:"-"`

	// Errors describes every failed check. Empty if Pass is true.
	Errors []string `json:"errors,omitempty"`
}

// NewResult creates a passing result.
func NewResult() *Result {
	return &Result{
		Pass:    true,
		Results: []*scan.Result{},
		Errors:  []string{},
	}
}

// AddError records a failed check and marks the result as failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}

// For returns the result of one strategy, or nil if it did not run.
func (r *Result) For(s scan.Strategy) *scan.Result {
	for _, res := range r.Results {
		if res.Strategy == s {
			return res
		}
	}
	return nil
}
