package infer

// Options controls locale separators, boolean/null vocabularies, and
// date layouts used during classification and conversion. It is a plain
// value object passed at call time; there is no package-level mutable
// configuration.
//
// Start from DefaultOptions and override individual fields. Zero-valued
// slice and string fields are filled from the defaults on every call,
// so a partial Options{DecimalSeparator: ","} behaves as an override of
// the defaults rather than an empty configuration.
type Options struct {
	// DateFormats is the ordered list of accepted date layouts
	// (Go reference-time layouts). Earlier entries win.
	DateFormats []string

	// CurrencySymbols are the symbols that mark a value as currency.
	CurrencySymbols []string

	// DecimalSeparator is '.' or ','.
	DecimalSeparator string

	// ThousandsSeparator is ',', '.', or a space. Removed before
	// numeric parsing whenever it differs from DecimalSeparator.
	ThousandsSeparator string

	// BooleanTrueValues and BooleanFalseValues are matched
	// case-insensitively. No other value coerces to a boolean.
	BooleanTrueValues  []string
	BooleanFalseValues []string

	// NullValues are strings treated as null (case-insensitive).
	NullValues []string

	// TrimWhitespace trims cell values before classification and
	// conversion. Nil means the default (enabled).
	TrimWhitespace *bool

	// StrictMode tightens parsing: thousands grouping must be
	// well-formed, and time values are validated and normalized to
	// HH:MM:SS instead of passed through verbatim.
	StrictMode bool

	// SampleLimit caps how many non-empty values the analyzer
	// classifies per column. Zero means exhaustive. When set,
	// confidence is sample-based; the total/null/unique counts are
	// always exhaustive.
	SampleLimit int
}

// DefaultOptions returns the fixed default configuration.
func DefaultOptions() Options {
	return Options{
		DateFormats: []string{
			"2006-01-02", "2006/01/02", "2006.01.02",
			"01/02/2006", "1/2/2006",
			"01-02-2006", "1-2-2006",
			"02.01.2006", "2.1.2006",
			"Jan 2, 2006", "2 Jan 2006",
		},
		CurrencySymbols:    []string{"$", "€", "£", "¥", "₺"},
		DecimalSeparator:   ".",
		ThousandsSeparator: ",",
		BooleanTrueValues:  []string{"true", "yes", "y", "t", "1"},
		BooleanFalseValues: []string{"false", "no", "n", "f", "0"},
		NullValues:         []string{"null", "nil", "none", "n/a", "na", "-"},
		TrimWhitespace:     nil,
		StrictMode:         false,
		SampleLimit:        0,
	}
}

// withDefaults fills zero-valued fields from DefaultOptions so partial
// overrides merge with the defaults.
func (o Options) withDefaults() Options {
	def := DefaultOptions()
	if o.DateFormats == nil {
		o.DateFormats = def.DateFormats
	}
	if o.CurrencySymbols == nil {
		o.CurrencySymbols = def.CurrencySymbols
	}
	if o.DecimalSeparator == "" {
		o.DecimalSeparator = def.DecimalSeparator
	}
	if o.ThousandsSeparator == "" {
		o.ThousandsSeparator = def.ThousandsSeparator
	}
	if o.BooleanTrueValues == nil {
		o.BooleanTrueValues = def.BooleanTrueValues
	}
	if o.BooleanFalseValues == nil {
		o.BooleanFalseValues = def.BooleanFalseValues
	}
	if o.NullValues == nil {
		o.NullValues = def.NullValues
	}
	return o
}

// trim reports whether whitespace trimming is enabled.
func (o Options) trim() bool {
	return o.TrimWhitespace == nil || *o.TrimWhitespace
}
