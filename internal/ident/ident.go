// Package ident decodes a fixed-length identifier into query parameters.
//
// An identifier is nine alphanumeric characters. Counting from the end, the
// second character selects the year, the third the start month and the
// fourth the town. A selector that is not a digit decodes to the first
// entry's default (2020, January, BEDOK).
package ident

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
)

// Length is the required identifier length.
const Length = 9

// ErrInvalid is returned for identifiers of the wrong length or alphabet.
var ErrInvalid = errors.New("invalid identifier")

var alnum = regexp.MustCompile(`^[A-Za-z0-9]+$`)

var (
	years  = [10]int{2020, 2021, 2022, 2023, 2014, 2015, 2016, 2017, 2018, 2019}
	months = [10]int{10, 1, 2, 3, 4, 5, 6, 7, 8, 9}
	towns  = [10]string{
		"BEDOK",
		"BUKIT PANJANG",
		"CLEMENTI",
		"CHOA CHU KANG",
		"HOUGANG",
		"JURONG WEST",
		"PASIR RIS",
		"TAMPINES",
		"WOODLANDS",
		"YISHUN",
	}
)

const (
	defaultYear  = 2020
	defaultMonth = 1
	defaultTown  = "BEDOK"
)

// Params are the query parameters an identifier selects.
type Params struct {
	ID    string `json:"id"`
	Year  int    `json:"year"`
	Month int    `json:"month"`
	Town  string `json:"town"`
}

// Decode validates id and looks up its parameters. The returned ID is upper
// case.
func Decode(id string) (Params, error) {
	id = strings.TrimSpace(id)
	if len(id) != Length || !alnum.MatchString(id) {
		return Params{}, fmt.Errorf("%w %q: want %d letters or digits", ErrInvalid, id, Length)
	}
	n := len(id)
	p := Params{
		ID:    strings.ToUpper(id),
		Year:  defaultYear,
		Month: defaultMonth,
		Town:  defaultTown,
	}
	if d, ok := digit(id[n-2]); ok {
		p.Year = years[d]
	}
	if d, ok := digit(id[n-3]); ok {
		p.Month = months[d]
	}
	if d, ok := digit(id[n-4]); ok {
		p.Town = towns[d]
	}
	return p, nil
}

// Towns returns the towns an identifier can select, in selector order.
func Towns() []string {
	out := make([]string, len(towns))
	copy(out, towns[:])
	return out
}

func digit(c byte) (int, bool) {
	if c < '0' || c > '9' {
		return 0, false
	}
	return int(c - '0'), true
}
