package infer

import (
	"errors"
	"math"
	"strings"
	"time"
)

// Convert coerces a single raw value to the target semantic type.
// Blank values and null-vocabulary values convert to nil for every
// target. Failures return a *ConversionError carrying the raw value;
// Convert never panics and never returns a partial result.
//
// Returned Go types: boolean → bool, integer → int64, float/number/
// currency/percentage → float64, date/datetime → time.Time, everything
// else → string (trimmed).
func Convert(value string, target Type, opts Options) (any, error) {
	opts = opts.withDefaults()

	s := value
	if opts.trim() {
		s = strings.TrimSpace(s)
	}
	if s == "" || matchFold(opts.NullValues, s) {
		return nil, nil
	}

	switch target {
	case TypeNull:
		return nil, nil

	case TypeBoolean:
		if matchFold(opts.BooleanTrueValues, s) {
			return true, nil
		}
		if matchFold(opts.BooleanFalseValues, s) {
			return false, nil
		}
		return nil, &ConversionError{Value: value, Target: target, Reason: "not a recognized boolean value"}

	case TypeInteger:
		f, err := parseNumber(s, opts)
		if err != nil {
			return nil, &ConversionError{Value: value, Target: target, Reason: err.Error()}
		}
		if f != math.Trunc(f) {
			return nil, &ConversionError{Value: value, Target: target, Reason: "has a fractional part"}
		}
		return int64(f), nil

	case TypeFloat, TypeNumber:
		f, err := parseNumber(s, opts)
		if err != nil {
			return nil, &ConversionError{Value: value, Target: target, Reason: err.Error()}
		}
		return f, nil

	case TypeCurrency:
		f, err := parseNumber(currencyClean(s, opts), opts)
		if err != nil {
			return nil, &ConversionError{Value: value, Target: target, Reason: err.Error()}
		}
		return f, nil

	case TypePercentage:
		rest := strings.TrimSpace(strings.ReplaceAll(s, "%", ""))
		f, err := parseNumber(rest, opts)
		if err != nil {
			return nil, &ConversionError{Value: value, Target: target, Reason: err.Error()}
		}
		return f / 100, nil

	case TypeDate:
		t, err := parseDate(s, opts)
		if err != nil {
			return nil, &ConversionError{Value: value, Target: target, Reason: err.Error()}
		}
		return t, nil

	case TypeDateTime:
		t, err := parseDateTime(s, opts)
		if err != nil {
			return nil, &ConversionError{Value: value, Target: target, Reason: err.Error()}
		}
		return t, nil

	case TypeTime:
		if opts.StrictMode {
			norm, err := normalizeTime(s)
			if err != nil {
				return nil, &ConversionError{Value: value, Target: target, Reason: err.Error()}
			}
			return norm, nil
		}
		return s, nil

	default:
		// email, url, phone, string, unknown: trimmed passthrough.
		return s, nil
	}
}

// currencyClean strips everything except digits, separators, and sign
// so "$ 1,234.50" and "€1.234,50" both reach the numeric parser.
func currencyClean(s string, opts Options) string {
	var b strings.Builder
	for _, r := range s {
		switch {
		case r >= '0' && r <= '9', r == '+', r == '-', r == '.', r == ',':
			b.WriteRune(r)
		}
	}
	return b.String()
}

// timeLayouts accepted by strict-mode time normalization.
var timeLayouts = []string{"15:04:05", "15:04", "3:04:05 PM", "3:04 PM", "3:04:05PM", "3:04PM"}

// normalizeTime parses a clock value and reformats it as HH:MM:SS.
func normalizeTime(s string) (string, error) {
	up := strings.ToUpper(s)
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, up); err == nil {
			return t.Format("15:04:05"), nil
		}
	}
	return "", errors.New("not a valid time of day")
}
