package tagger

import (
	"regexp"
	"time"
)

// dateCandidate pairs a regex that recognizes a date-shaped substring with
// the time.Parse layout(s) that substring should be tried against, in
// document order of discovery.
var dateCandidates = []struct {
	pattern *regexp.Regexp
	layouts []string
}{
	{regexp.MustCompile(`\b\d{4}-\d{2}-\d{2}\b`), []string{"2006-01-02"}},
	{regexp.MustCompile(`\b\d{2}/\d{2}/\d{4}\b`), []string{"01/02/2006", "02/01/2006"}},
	{regexp.MustCompile(`\b\d{2}\.\d{2}\.\d{4}\b`), []string{"02.01.2006"}},
	{regexp.MustCompile(`\b(?:Jan(?:uary)?|Feb(?:ruary)?|Mar(?:ch)?|Apr(?:il)?|May|Jun(?:e)?|Jul(?:y)?|Aug(?:ust)?|Sep(?:tember)?|Oct(?:ober)?|Nov(?:ember)?|Dec(?:ember)?)\.?\s+\d{1,2},?\s+\d{4}\b`),
		[]string{"January 2, 2006", "Jan 2, 2006", "January 2 2006", "Jan 2 2006"}},
}

// inferDate scans body for the first date-shaped substring (in document
// order across all known patterns) and returns it parsed and normalized to
// UTC. It returns nil, false if nothing could be confidently parsed.
func inferDate(body string) (*time.Time, bool) {
	bestIndex := -1
	var bestMatch string
	var bestLayouts []string

	for _, candidate := range dateCandidates {
		loc := candidate.pattern.FindStringIndex(body)
		if loc == nil {
			continue
		}
		if bestIndex == -1 || loc[0] < bestIndex {
			bestIndex = loc[0]
			bestMatch = body[loc[0]:loc[1]]
			bestLayouts = candidate.layouts
		}
	}

	if bestIndex == -1 {
		return nil, false
	}

	for _, layout := range bestLayouts {
		if t, err := time.Parse(layout, bestMatch); err == nil {
			utc := t.UTC()
			return &utc, true
		}
	}
	return nil, false
}
