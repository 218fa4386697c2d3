package ads

import (
	"fmt"
	"strings"
	"time"
)

// telescopeTerm anchors every observation query to the observatory.
const telescopeTerm = "SST"

// BuildTerms assembles the full-text search terms for one observation:
// the telescope, the instruments used and the observing date in its
// human-readable form ("25 May 2017"), the spelling publications use.
func BuildTerms(instruments []string, observed *time.Time) []string {
	terms := []string{telescopeTerm}
	for _, tag := range instruments {
		if tag = strings.TrimSpace(tag); tag != "" {
			terms = append(terms, tag)
		}
	}
	if observed != nil {
		terms = append(terms, observed.Format("2 January 2006"))
	}
	return terms
}

// BuildQuery renders search terms as an ADS full-text query, each term
// quoted and joined with AND.
func BuildQuery(terms []string) string {
	quoted := make([]string, 0, len(terms))
	for _, term := range terms {
		if term = strings.TrimSpace(term); term != "" {
			quoted = append(quoted, fmt.Sprintf("full:%q", term))
		}
	}
	return strings.Join(quoted, " AND ")
}
