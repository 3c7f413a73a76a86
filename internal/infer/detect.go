package infer

// detect.go implements the single-value classifier.
//
// Classification handles the messy reality of user-provided tabular
// data: currency symbols and thousands separators in numbers, multiple
// date formats, various boolean spellings, and null placeholders like
// "N/A". The priority order in DetectType must be preserved exactly;
// reordering it changes which of several overlapping formats wins.

import (
	"errors"
	"math"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"time"
)

var (
	// emailRegex: something@something.something, no whitespace, one '@'.
	emailRegex = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

	// dateShapeRegex matches D{1,4}[-/.]D{1,2}[-/.]D{1,4} before the
	// layouts are consulted, so "12.5" never reaches the date parser.
	dateShapeRegex = regexp.MustCompile(`^\d{1,4}[-/.]\d{1,2}[-/.]\d{1,4}$`)

	// dateTimeShapeRegex is a date shape followed by HH:mm[:ss].
	dateTimeShapeRegex = regexp.MustCompile(`^\d{1,4}[-/.]\d{1,2}[-/.]\d{1,4}[ T]\d{1,2}:\d{2}(:\d{2})?$`)

	// timeRegex: H{1,2}:MM[:SS] with an optional AM/PM suffix.
	timeRegex = regexp.MustCompile(`^\d{1,2}:\d{2}(:\d{2})?( ?[AaPp][Mm])?$`)

	// phoneRegex is applied after stripping spaces, hyphens, parens,
	// and dots. E.164-ish: optional '+', no leading zero, max 16 digits.
	phoneRegex = regexp.MustCompile(`^\+?[1-9]\d{0,15}$`)

	// numericRegex validates a normalized numeric string. Matches
	// integers, decimals, and scientific notation; rejects Inf, NaN,
	// and hex floats that strconv.ParseFloat would otherwise accept.
	numericRegex = regexp.MustCompile(`^[+-]?(\d+(\.\d*)?|\.\d+)([eE][+-]?\d+)?$`)

	phoneStripper = strings.NewReplacer(" ", "", "-", "", "(", "", ")", "", ".", "")
)

// dateTimeSuffixes are appended to each configured date layout when
// parsing datetime values.
var dateTimeSuffixes = []string{" 15:04:05", " 15:04", "T15:04:05", "T15:04"}

// DetectType inspects a single raw cell value and returns one candidate
// semantic type. It is pure and deterministic for fixed options.
func DetectType(value string, opts Options) Type {
	opts = opts.withDefaults()

	s := value
	if opts.trim() {
		s = strings.TrimSpace(s)
	}

	if s == "" || matchFold(opts.NullValues, s) {
		return TypeNull
	}
	if matchFold(opts.BooleanTrueValues, s) || matchFold(opts.BooleanFalseValues, s) {
		return TypeBoolean
	}

	// Fixed priority order; first match wins.
	switch {
	case emailRegex.MatchString(s):
		return TypeEmail
	case isAbsoluteURL(s):
		return TypeURL
	case isPhone(s):
		return TypePhone
	case isCurrency(s, opts):
		return TypeCurrency
	case isPercentage(s, opts):
		return TypePercentage
	case isDateTime(s, opts):
		return TypeDateTime
	case isDate(s, opts):
		return TypeDate
	case timeRegex.MatchString(s):
		return TypeTime
	}

	if f, err := parseNumber(s, opts); err == nil {
		if f == math.Trunc(f) {
			return TypeInteger
		}
		return TypeFloat
	}

	return TypeString
}

// matchFold reports whether s equals any entry case-insensitively.
func matchFold(set []string, s string) bool {
	for _, v := range set {
		if strings.EqualFold(v, s) {
			return true
		}
	}
	return false
}

// isAbsoluteURL reports whether s parses as an absolute URL with a host.
func isAbsoluteURL(s string) bool {
	u, err := url.Parse(s)
	return err == nil && u.IsAbs() && u.Host != ""
}

// isPhone checks the stripped digits against an E.164-ish pattern.
// Values shorter than 7 characters are too ambiguous to call phones,
// and date-shaped values ("15.03.2024") are excluded so dotted dates
// don't turn into digit runs.
func isPhone(s string) bool {
	if dateShapeRegex.MatchString(s) {
		return false
	}
	stripped := phoneStripper.Replace(s)
	return len(stripped) >= 7 && phoneRegex.MatchString(stripped)
}

// isCurrency requires a configured symbol AND a parseable remainder, so
// "$n/a" stays a string while "$1,234.50" is currency.
func isCurrency(s string, opts Options) bool {
	found := false
	rest := s
	for _, sym := range opts.CurrencySymbols {
		if sym == "" {
			continue
		}
		if strings.Contains(rest, sym) {
			found = true
			rest = strings.ReplaceAll(rest, sym, "")
		}
	}
	if !found {
		return false
	}
	_, err := parseNumber(strings.TrimSpace(rest), opts)
	return err == nil
}

func isPercentage(s string, opts Options) bool {
	if !strings.Contains(s, "%") {
		return false
	}
	rest := strings.TrimSpace(strings.ReplaceAll(s, "%", ""))
	_, err := parseNumber(rest, opts)
	return err == nil
}

func isDateTime(s string, opts Options) bool {
	if !dateTimeShapeRegex.MatchString(s) {
		return false
	}
	_, err := parseDateTime(s, opts)
	return err == nil
}

func isDate(s string, opts Options) bool {
	if !dateShapeRegex.MatchString(s) {
		return false
	}
	_, err := parseDate(s, opts)
	return err == nil
}

// parseDate tries each configured layout in order.
func parseDate(s string, opts Options) (time.Time, error) {
	for _, layout := range opts.DateFormats {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, errors.New("unrecognized date format")
}

// parseDateTime tries each configured date layout combined with the
// supported time suffixes, then falls back to a bare date.
func parseDateTime(s string, opts Options) (time.Time, error) {
	for _, layout := range opts.DateFormats {
		for _, suffix := range dateTimeSuffixes {
			if t, err := time.Parse(layout+suffix, s); err == nil {
				return t, nil
			}
		}
	}
	return parseDate(s, opts)
}

// parseNumber performs locale-aware numeric parsing: surrounding
// whitespace is stripped when trimming is enabled, every thousands
// separator is removed when it differs from the decimal separator, and
// a non-'.' decimal separator is mapped to '.'. Returns an error for
// anything that is not a finite number.
func parseNumber(s string, opts Options) (float64, error) {
	if opts.trim() {
		s = strings.TrimSpace(s)
	}
	if s == "" {
		return 0, errors.New("empty value")
	}

	ts, ds := opts.ThousandsSeparator, opts.DecimalSeparator
	// A space thousands separator is digit grouping, not surrounding
	// whitespace, so it (and its NBSP variant) is removed even when
	// trimming is disabled.
	if ts == " " || ts == " " {
		s = strings.ReplaceAll(s, " ", "")
		s = strings.ReplaceAll(s, " ", "")
		ts = ""
	}

	if opts.StrictMode && ts != "" && ts != ds && strings.Contains(s, ts) {
		if !validGrouping(s, ts, ds) {
			return 0, errors.New("malformed thousands grouping")
		}
	}
	if ts != "" && ts != ds {
		s = strings.ReplaceAll(s, ts, "")
	}
	if ds != "" && ds != "." {
		s = strings.ReplaceAll(s, ds, ".")
	}

	if !numericRegex.MatchString(s) {
		return 0, errors.New("not a number")
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, errors.New("not a number")
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, errors.New("not a finite number")
	}
	return f, nil
}

// validGrouping checks that thousands separators split the integer part
// into a leading group of 1-3 digits followed by groups of exactly 3.
func validGrouping(s string, ts, ds string) bool {
	s = strings.TrimLeft(s, "+-")
	intPart := s
	if ds != "" {
		if i := strings.Index(s, ds); i >= 0 {
			intPart = s[:i]
		}
	}
	groups := strings.Split(intPart, ts)
	if len(groups) < 2 {
		return true
	}
	if len(groups[0]) == 0 || len(groups[0]) > 3 {
		return false
	}
	for _, g := range groups[1:] {
		if len(g) != 3 {
			return false
		}
		for _, r := range g {
			if r < '0' || r > '9' {
				return false
			}
		}
	}
	return true
}
