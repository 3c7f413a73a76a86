// Package infer provides semantic type detection and conversion for
// tabular cell data. This package has no I/O dependencies and can be
// used by any frontend.
package infer

import "fmt"

// Type is a semantic type tag a raw cell value can be classified as.
type Type string

const (
	TypeString     Type = "string"
	TypeNumber     Type = "number"
	TypeInteger    Type = "integer"
	TypeFloat      Type = "float"
	TypeBoolean    Type = "boolean"
	TypeDate       Type = "date"
	TypeDateTime   Type = "datetime"
	TypeTime       Type = "time"
	TypeEmail      Type = "email"
	TypeURL        Type = "url"
	TypePhone      Type = "phone"
	TypeCurrency   Type = "currency"
	TypePercentage Type = "percentage"
	TypeNull       Type = "null"
	TypeUnknown    Type = "unknown"
)

// detectionOrder lists every type the classifier can produce, most
// specific first. Many formats overlap (a currency string is also a
// parseable number once the symbol is stripped), so classification must
// check the more constrained pattern first. The analyzer walks the same
// order when picking a column winner, which makes tally ties resolve to
// the more specific type deterministically.
var detectionOrder = []Type{
	TypeNull, TypeBoolean, TypeEmail, TypeURL, TypePhone,
	TypeCurrency, TypePercentage, TypeDateTime, TypeDate, TypeTime,
	TypeInteger, TypeFloat, TypeString,
}

// allTypes is the closed enumeration, including the aliases the
// classifier never emits (number, unknown) but the converter accepts.
var allTypes = []Type{
	TypeString, TypeNumber, TypeInteger, TypeFloat, TypeBoolean,
	TypeDate, TypeDateTime, TypeTime, TypeEmail, TypeURL, TypePhone,
	TypeCurrency, TypePercentage, TypeNull, TypeUnknown,
}

// AllTypes returns the closed set of semantic types.
func AllTypes() []Type {
	out := make([]Type, len(allTypes))
	copy(out, allTypes)
	return out
}

// Valid reports whether t is a member of the closed enumeration.
func (t Type) Valid() bool {
	for _, k := range allTypes {
		if t == k {
			return true
		}
	}
	return false
}

// MaxSamples is the number of representative raw values retained per
// analyzed column.
const MaxSamples = 10

// ColumnInfo describes the outcome of analyzing one column. It is
// recomputed on every analysis pass and carries no identity beyond the
// column index, which is stable within a single parse.
//
// Invariant: NonEmptyValues + NullValues == TotalValues.
type ColumnInfo struct {
	Name             string   `json:"name"`
	Index            int      `json:"index"`
	DetectedType     Type     `json:"detectedType"`
	Confidence       float64  `json:"confidence"`
	TotalValues      int      `json:"totalValues"`
	NonEmptyValues   int      `json:"nonEmptyValues"`
	NullValues       int      `json:"nullValues"`
	UniqueValues     int      `json:"uniqueValues"`
	Samples          []string `json:"samples,omitempty"`
	ConvertedSamples []any    `json:"convertedSamples,omitempty"`
	Errors           []string `json:"errors,omitempty"`
	Suggestions      []string `json:"suggestions,omitempty"`
}

// ConversionError reports a single value that could not be coerced to
// a target type. It always carries the offending raw value so callers
// can surface it without re-deriving context.
type ConversionError struct {
	Value  string
	Target Type
	Reason string
}

func (e *ConversionError) Error() string {
	return fmt.Sprintf("cannot convert %q to %s: %s", e.Value, e.Target, e.Reason)
}
