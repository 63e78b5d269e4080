// Package budget turns sheets into budgets and filters the aggregated result.
package budget

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// priorYearMarker in a header means "contextual year minus one".
const priorYearMarker = "Vorjahr"

var headerPattern = regexp.MustCompile(`^\s*(?P<type>.+?)\s*(?:(?P<year>\d+)|(?P<before>` + priorYearMarker + `))?\s*$`)

var (
	headerType   = headerPattern.SubexpIndex("type")
	headerYear   = headerPattern.SubexpIndex("year")
	headerBefore = headerPattern.SubexpIndex("before")
)

// Header is a classified value column header such as "Ist 2020" or "Plan Vorjahr".
type Header struct {
	TypeName  string
	Year      int
	HasYear   bool
	PriorYear bool
}

// ClassifyHeader splits text into budget type name and year information.
// Blank text or text without a type name is not a value column.
func ClassifyHeader(text string) (Header, bool) {
	if strings.TrimSpace(text) == "" {
		return Header{}, false
	}
	m := headerPattern.FindStringSubmatch(text)
	if m == nil {
		return Header{}, false
	}

	h := Header{TypeName: m[headerType], PriorYear: m[headerBefore] != ""}
	if y := m[headerYear]; y != "" {
		year, err := strconv.Atoi(y)
		if err != nil {
			return Header{}, false
		}
		h.Year, h.HasYear = year, true
	}
	return h, true
}

// ResolveYear returns the explicit year, or contextYear adjusted for the
// prior-year marker. It returns false when no year can be determined.
func (h Header) ResolveYear(contextYear string) (int, bool, error) {
	if h.HasYear {
		return h.Year, true, nil
	}
	contextYear = strings.TrimSpace(contextYear)
	if contextYear == "" {
		return 0, false, nil
	}
	year, err := strconv.Atoi(contextYear)
	if err != nil {
		return 0, false, fmt.Errorf("invalid budget year %q: %w", contextYear, err)
	}
	if h.PriorYear {
		year--
	}
	return year, true, nil
}

// ResolveYear is a convenience wrapper around ClassifyHeader and Header.ResolveYear.
func ResolveYear(header, contextYear string) (int, bool, error) {
	h, ok := ClassifyHeader(header)
	if !ok {
		return 0, false, nil
	}
	return h.ResolveYear(contextYear)
}
