// Package harness runs column-store scan scenarios described in YAML.
//
// # Scenario Format
//
//	name: resale_sample
//	description: "Six-row sample, 2022 Jan/Feb in Bedok"
//	dataset:
//	  month: ["2021-01", "2022-01", ...]
//	  town: [BEDOK, BEDOK, ...]
//	  floor_area_sqm: ["85", "82", ...]
//	  resale_price: ["500000", "520000", ...]
//	query:
//	  year: 2022
//	  month: 1
//	  town: bedok
//	strategies: [normal, zm, ss, zmss]   # optional, defaults to all four
//	expect:
//	  matched: 3
//	  skipped: 0
//	  stats:
//	    min_price: 480000
//	    mean_price: 566666.67
//	assertions:
//	  - type: zone
//	    year: 2022
//	    start: 3
//	    end: 5
//	  - type: stage_count
//	    stage: area
//	    count: 3
//
// # Checks
//
// Every scenario writes its dataset to a fresh temporary column store, builds
// the offset store and zone map, and runs each strategy. Strategies that scan
// the same row range with different algorithms must return the same multiset
// of pairs and the same skip count. Expectations apply to every strategy.
// Statistics compare after rounding to two decimals, as they appear in the
// result artifacts.
//
// # Assertion Types
//
//   - zone: the zone map holds year with the given start and end
//   - stage_count: a multi-stage step kept count rows
//   - scanned: a strategy read count rows sequentially
//   - no_zone: a zoned strategy found no zone for the query year
//   - fallback: a zoned strategy scanned the full range
//
// # Golden Snapshots
//
// Snapshot renders every strategy's counters and artifact CSV without timing
// data, so the same scenario always produces the same bytes.
package harness
