package harness

import (
	"bytes"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/roach88/colscan/internal/scan"
	"github.com/roach88/colscan/internal/testutil"
)

// Scenario is one YAML test case.
type Scenario struct {
	// Name identifies the scenario and names its golden file.
	Name string `yaml:"name"`

	Description string `yaml:"description"`

	// Dataset holds the four query columns inline.
	Dataset testutil.Dataset `yaml:"dataset"`

	Query QuerySpec `yaml:"query"`

	// Strategies to run. Empty means all four.
	Strategies []string `yaml:"strategies,omitempty"`

	Expect *Expectation `yaml:"expect,omitempty"`

	Assertions []Assertion `yaml:"assertions,omitempty"`
}

// QuerySpec holds the query parameters of a scenario.
type QuerySpec struct {
	Year    int      `yaml:"year"`
	Month   int      `yaml:"month"`
	Town    string   `yaml:"town"`
	MinArea *float64 `yaml:"min_area,omitempty"`
}

// Expectation applies to every strategy's result.
type Expectation struct {
	Matched  *int           `yaml:"matched,omitempty"`
	Skipped  *int           `yaml:"skipped,omitempty"`
	NoResult bool           `yaml:"no_result,omitempty"`
	Stats    *ExpectedStats `yaml:"stats,omitempty"`
}

// ExpectedStats lists statistics to compare. Omitted fields are not checked.
type ExpectedStats struct {
	MinPrice       *float64 `yaml:"min_price,omitempty"`
	MeanPrice      *float64 `yaml:"mean_price,omitempty"`
	StdDevPrice    *float64 `yaml:"stddev_price,omitempty"`
	MinPricePerSqm *float64 `yaml:"min_price_per_sqm,omitempty"`
}

// Assertion is a structural check on the run.
type Assertion struct {
	Type string `yaml:"type"`

	// Year is the zone key (used by zone).
	Year int `yaml:"year,omitempty"`

	// Start and End are the expected zone bounds (used by zone).
	Start int `yaml:"start,omitempty"`
	End   int `yaml:"end,omitempty"`

	// Stage names a multi-stage step (used by stage_count).
	Stage string `yaml:"stage,omitempty"`

	// Strategy selects the result to inspect (used by scanned, no_zone and
	// fallback). stage_count defaults to normal.
	Strategy string `yaml:"strategy,omitempty"`

	// Count is the expected number of rows (used by stage_count and scanned).
	Count int `yaml:"count,omitempty"`
}

// Assertion type constants.
const (
	AssertZone       = "zone"
	AssertStageCount = "stage_count"
	AssertScanned    = "scanned"
	AssertNoZone     = "no_zone"
	AssertFallback   = "fallback"
)

var assertionTypes = map[string]bool{
	AssertZone:       true,
	AssertStageCount: true,
	AssertScanned:    true,
	AssertNoZone:     true,
	AssertFallback:   true,
}

// LoadScenario reads and parses a scenario YAML file. Unknown fields are
// rejected.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}
	return ParseScenario(data)
}

// ParseScenario parses and validates a scenario document.
func ParseScenario(data []byte) (*Scenario, error) {
	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}
	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}
	return &scenario, nil
}

// validateScenario checks that required fields are present and valid.
func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}
	if s.Description == "" {
		return fmt.Errorf("description is required")
	}
	if _, err := s.Dataset.Rows(); err != nil {
		return fmt.Errorf("dataset: %w", err)
	}
	if _, err := s.query(); err != nil {
		return fmt.Errorf("query: %w", err)
	}
	if _, err := s.strategies(); err != nil {
		return err
	}
	for i, a := range s.Assertions {
		if !assertionTypes[a.Type] {
			return fmt.Errorf("assertion %d: unknown type %q", i, a.Type)
		}
		if a.Strategy != "" {
			if _, err := scan.ParseStrategy(a.Strategy); err != nil {
				return fmt.Errorf("assertion %d: %w", i, err)
			}
		}
	}
	return nil
}

func (s *Scenario) query() (scan.Query, error) {
	q, err := scan.NewQuery(s.Query.Year, s.Query.Month, s.Query.Town)
	if err != nil {
		return scan.Query{}, err
	}
	if s.Query.MinArea != nil {
		q.MinArea = *s.Query.MinArea
	}
	return q, q.Validate()
}

func (s *Scenario) strategies() ([]scan.Strategy, error) {
	if len(s.Strategies) == 0 {
		return scan.Strategies, nil
	}
	out := make([]scan.Strategy, 0, len(s.Strategies))
	for _, name := range s.Strategies {
		st, err := scan.ParseStrategy(name)
		if err != nil {
			return nil, err
		}
		out = append(out, st)
	}
	return out, nil
}
