package config

import (
	"fmt"
	"regexp"
	"slices"
	"strconv"
	"strings"
)

var yearPattern = regexp.MustCompile(`^\s*(\d+)\s*(?:-\s*(\d+))?\s*$`)

// ParseYears parses comma-separated years and inclusive ranges such as
// "2019, 2020-2022" into a sorted list without duplicates.
func ParseYears(specs ...string) ([]int, error) {
	var years []int
	for _, spec := range specs {
		for _, part := range strings.Split(spec, ",") {
			if strings.TrimSpace(part) == "" {
				continue
			}
			m := yearPattern.FindStringSubmatch(part)
			if m == nil {
				return nil, fmt.Errorf("unexpected year pattern %q", strings.TrimSpace(part))
			}
			from, err := strconv.Atoi(m[1])
			if err != nil {
				return nil, fmt.Errorf("year %q: %w", m[1], err)
			}
			to := from
			if m[2] != "" {
				if to, err = strconv.Atoi(m[2]); err != nil {
					return nil, fmt.Errorf("year %q: %w", m[2], err)
				}
			}
			if to < from {
				return nil, fmt.Errorf("year range %d-%d is reversed", from, to)
			}
			for y := from; y <= to; y++ {
				years = append(years, y)
			}
		}
	}
	slices.Sort(years)
	return slices.Compact(years), nil
}
