package infer

// ValueError records one cell that could not be converted during a
// batch conversion, positioned by its index in the input slice.
type ValueError struct {
	Index   int    `json:"index"`
	Value   string `json:"value"`
	Message string `json:"message"`
}

// ColumnResult is the outcome of a best-effort batch conversion.
// Converted always has the same length as the input; failed cells keep
// their original string value at the same index.
type ColumnResult struct {
	Converted []any        `json:"converted"`
	Errors    []ValueError `json:"errors,omitempty"`
}

// ConvertColumn converts every value independently to the target type.
// A failing cell never aborts the batch: the original value stays in
// place and a positional error is recorded.
func ConvertColumn(values []string, target Type, opts Options) ColumnResult {
	result := ColumnResult{Converted: make([]any, len(values))}
	for i, v := range values {
		converted, err := Convert(v, target, opts)
		if err != nil {
			result.Converted[i] = v
			result.Errors = append(result.Errors, ValueError{Index: i, Value: v, Message: err.Error()})
			continue
		}
		result.Converted[i] = converted
	}
	return result
}
