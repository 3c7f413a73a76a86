package infer

import (
	"fmt"
	"strings"
)

// confidenceReviewThreshold is the confidence below which the analyzer
// suggests manual review of the detected type.
const confidenceReviewThreshold = 0.8

// AnalyzeColumn classifies every value in a column and aggregates the
// results into a ColumnInfo. It never returns an error: an empty column
// yields a string-typed result with zero confidence and an explanatory
// note, and sample conversion failures are recorded in Errors.
func AnalyzeColumn(values []string, name string, index int, opts Options) ColumnInfo {
	opts = opts.withDefaults()

	info := ColumnInfo{
		Name:        name,
		Index:       index,
		TotalValues: len(values),
	}

	var nonEmpty []string
	unique := make(map[string]struct{})
	for _, v := range values {
		s := v
		if opts.trim() {
			s = strings.TrimSpace(s)
		}
		if s == "" {
			info.NullValues++
			continue
		}
		nonEmpty = append(nonEmpty, v)
		unique[s] = struct{}{}
	}
	info.NonEmptyValues = len(nonEmpty)
	info.UniqueValues = len(unique)

	if len(nonEmpty) == 0 {
		info.DetectedType = TypeString
		info.Confidence = 0
		info.Errors = append(info.Errors, "column has no values to analyze")
		return info
	}

	classified := nonEmpty
	if opts.SampleLimit > 0 && len(classified) > opts.SampleLimit {
		classified = classified[:opts.SampleLimit]
	}

	tally := make(map[Type]int)
	for _, v := range classified {
		tally[DetectType(v, opts)]++
	}

	// Winner is the highest tally. A tie first goes to the candidate
	// every classified value also converts to, so "1" landing in the
	// boolean vocabulary cannot flip a numeric column; any remaining
	// tie resolves to the earlier type in the fixed priority order.
	best := 0
	for _, n := range tally {
		if n > best {
			best = n
		}
	}
	var tied []Type
	for _, t := range detectionOrder {
		if tally[t] == best {
			tied = append(tied, t)
		}
	}
	winner := tied[0]
	if len(tied) > 1 {
		for _, t := range tied {
			if convertsAll(classified, t, opts) {
				winner = t
				break
			}
		}
	}

	var second Type
	for _, t := range detectionOrder {
		if t == winner || tally[t] == 0 {
			continue
		}
		if second == "" || tally[t] > tally[second] {
			second = t
		}
	}

	info.DetectedType = winner
	info.Confidence = float64(tally[winner]) / float64(len(classified))

	limit := min(MaxSamples, len(nonEmpty))
	info.Samples = append(info.Samples, nonEmpty[:limit]...)
	for _, raw := range info.Samples {
		converted, err := Convert(raw, winner, opts)
		if err != nil {
			info.Errors = append(info.Errors, err.Error())
			info.ConvertedSamples = append(info.ConvertedSamples, raw)
			continue
		}
		info.ConvertedSamples = append(info.ConvertedSamples, converted)
	}

	if info.Confidence < confidenceReviewThreshold {
		info.Suggestions = append(info.Suggestions, "low confidence, consider manual review")
	}
	if second != "" && second != winner {
		info.Suggestions = append(info.Suggestions, fmt.Sprintf("alternative type detected: %s", second))
	}

	return info
}

// convertsAll reports whether every value coerces to t without error.
func convertsAll(values []string, t Type, opts Options) bool {
	for _, v := range values {
		if _, err := Convert(v, t, opts); err != nil {
			return false
		}
	}
	return true
}
