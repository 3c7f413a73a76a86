package infer

import (
	"errors"
	"math"
	"testing"
	"time"
)

// ---- Converter Tests ----

func TestConvertNullHandling(t *testing.T) {
	opts := DefaultOptions()
	targets := []Type{TypeString, TypeInteger, TypeFloat, TypeBoolean, TypeDate, TypeNull}
	for _, target := range targets {
		for _, v := range []string{"", "   ", "null", "N/A", "-"} {
			got, err := Convert(v, target, opts)
			if err != nil {
				t.Errorf("Convert(%q, %s) unexpected error: %v", v, target, err)
			}
			if got != nil {
				t.Errorf("Convert(%q, %s) = %v, want nil", v, target, got)
			}
		}
	}
}

func TestConvertBoolean(t *testing.T) {
	opts := DefaultOptions()
	tests := []struct {
		value   string
		want    bool
		wantErr bool
	}{
		{"true", true, false},
		{"YES", true, false},
		{"t", true, false},
		{"1", true, false},
		{"false", false, false},
		{"No", false, false},
		{"0", false, false},
		{"maybe", false, true},
		{"2", false, true},
	}
	for _, tt := range tests {
		got, err := Convert(tt.value, TypeBoolean, opts)
		if tt.wantErr {
			if err == nil {
				t.Errorf("Convert(%q, boolean) expected error, got %v", tt.value, got)
				continue
			}
			var ce *ConversionError
			if !errors.As(err, &ce) {
				t.Errorf("Convert(%q, boolean) error type %T, want *ConversionError", tt.value, err)
			} else if ce.Value != tt.value {
				t.Errorf("ConversionError.Value = %q, want %q", ce.Value, tt.value)
			}
			continue
		}
		if err != nil {
			t.Errorf("Convert(%q, boolean) unexpected error: %v", tt.value, err)
			continue
		}
		if got != tt.want {
			t.Errorf("Convert(%q, boolean) = %v, want %v", tt.value, got, tt.want)
		}
	}
}

func TestConvertInteger(t *testing.T) {
	opts := DefaultOptions()
	tests := []struct {
		value   string
		want    int64
		wantErr bool
	}{
		{"42", 42, false},
		{"-17", -17, false},
		{"1,234,567", 1234567, false},
		{"1.0", 1, false},
		{"3.5", 0, true},
		{"abc", 0, true},
	}
	for _, tt := range tests {
		got, err := Convert(tt.value, TypeInteger, opts)
		if tt.wantErr != (err != nil) {
			t.Errorf("Convert(%q, integer) error = %v, wantErr %v", tt.value, err, tt.wantErr)
			continue
		}
		if err == nil && got.(int64) != tt.want {
			t.Errorf("Convert(%q, integer) = %v, want %d", tt.value, got, tt.want)
		}
	}
}

func TestConvertLocaleNumbers(t *testing.T) {
	us := DefaultOptions()

	eu := DefaultOptions()
	eu.DecimalSeparator = ","
	eu.ThousandsSeparator = "."

	tests := []struct {
		name  string
		opts  Options
		value string
		want  float64
	}{
		{"us thousands", us, "1,234.56", 1234.56},
		{"eu thousands", eu, "1.234,56", 1234.56},
		{"us plain", us, "42.5", 42.5},
		{"eu plain", eu, "42,5", 42.5},
		{"negative", us, "-1,000.25", -1000.25},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Convert(tt.value, TypeFloat, tt.opts)
			if err != nil {
				t.Fatalf("Convert(%q, float) error: %v", tt.value, err)
			}
			if got.(float64) != tt.want {
				t.Errorf("Convert(%q, float) = %v, want %v", tt.value, got, tt.want)
			}
		})
	}
}

func TestConvertNumberAlias(t *testing.T) {
	got, err := Convert("7", TypeNumber, DefaultOptions())
	if err != nil {
		t.Fatalf("Convert(7, number) error: %v", err)
	}
	if got.(float64) != 7 {
		t.Errorf("Convert(7, number) = %v, want float64(7)", got)
	}
}

func TestConvertCurrency(t *testing.T) {
	opts := DefaultOptions()
	tests := []struct {
		value   string
		want    float64
		wantErr bool
	}{
		{"$1,234.50", 1234.50, false},
		{"€99", 99, false},
		{"-$42.00", -42, false},
		{"$ 10.25", 10.25, false},
		{"$abc", 0, true},
	}
	for _, tt := range tests {
		got, err := Convert(tt.value, TypeCurrency, opts)
		if tt.wantErr != (err != nil) {
			t.Errorf("Convert(%q, currency) error = %v, wantErr %v", tt.value, err, tt.wantErr)
			continue
		}
		if err == nil && got.(float64) != tt.want {
			t.Errorf("Convert(%q, currency) = %v, want %v", tt.value, got, tt.want)
		}
	}
}

func TestConvertPercentage(t *testing.T) {
	opts := DefaultOptions()
	tests := []struct {
		value string
		want  float64
	}{
		{"25%", 0.25},
		{"100%", 1.0},
		{"12.5%", 0.125},
		{"0%", 0},
	}
	for _, tt := range tests {
		got, err := Convert(tt.value, TypePercentage, opts)
		if err != nil {
			t.Errorf("Convert(%q, percentage) error: %v", tt.value, err)
			continue
		}
		if math.Abs(got.(float64)-tt.want) > 1e-12 {
			t.Errorf("Convert(%q, percentage) = %v, want %v", tt.value, got, tt.want)
		}
	}

	if _, err := Convert("percent", TypePercentage, opts); err == nil {
		t.Error("Convert(percent, percentage) expected error")
	}
}

func TestConvertDates(t *testing.T) {
	opts := DefaultOptions()

	got, err := Convert("2024-03-15", TypeDate, opts)
	if err != nil {
		t.Fatalf("Convert(2024-03-15, date) error: %v", err)
	}
	want := time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC)
	if !got.(time.Time).Equal(want) {
		t.Errorf("Convert(2024-03-15, date) = %v, want %v", got, want)
	}

	got, err = Convert("03/15/2024", TypeDate, opts)
	if err != nil {
		t.Fatalf("Convert(03/15/2024, date) error: %v", err)
	}
	if !got.(time.Time).Equal(want) {
		t.Errorf("Convert(03/15/2024, date) = %v, want %v", got, want)
	}

	got, err = Convert("2024-03-15 10:30:00", TypeDateTime, opts)
	if err != nil {
		t.Fatalf("Convert(datetime) error: %v", err)
	}
	wantDT := time.Date(2024, 3, 15, 10, 30, 0, 0, time.UTC)
	if !got.(time.Time).Equal(wantDT) {
		t.Errorf("Convert(datetime) = %v, want %v", got, wantDT)
	}

	// A datetime target accepts a bare date.
	got, err = Convert("2024-03-15", TypeDateTime, opts)
	if err != nil {
		t.Fatalf("Convert(bare date as datetime) error: %v", err)
	}
	if !got.(time.Time).Equal(want) {
		t.Errorf("Convert(bare date as datetime) = %v, want %v", got, want)
	}

	if _, err := Convert("not a date", TypeDate, opts); err == nil {
		t.Error("Convert(not a date, date) expected error")
	}
	if _, err := Convert("2024-13-01", TypeDate, opts); err == nil {
		t.Error("Convert(2024-13-01, date) expected error")
	}
}

func TestConvertTime(t *testing.T) {
	opts := DefaultOptions()

	got, err := Convert("10:30", TypeTime, opts)
	if err != nil {
		t.Fatalf("Convert(10:30, time) error: %v", err)
	}
	if got.(string) != "10:30" {
		t.Errorf("Convert(10:30, time) = %v, want passthrough", got)
	}

	strict := DefaultOptions()
	strict.StrictMode = true

	tests := []struct {
		value   string
		want    string
		wantErr bool
	}{
		{"10:30", "10:30:00", false},
		{"10:30:45", "10:30:45", false},
		{"9:15 PM", "21:15:00", false},
		{"25:00", "", true},
		{"not a time", "", true},
	}
	for _, tt := range tests {
		got, err := Convert(tt.value, TypeTime, strict)
		if tt.wantErr != (err != nil) {
			t.Errorf("strict Convert(%q, time) error = %v, wantErr %v", tt.value, err, tt.wantErr)
			continue
		}
		if err == nil && got.(string) != tt.want {
			t.Errorf("strict Convert(%q, time) = %q, want %q", tt.value, got, tt.want)
		}
	}
}

func TestConvertPassthrough(t *testing.T) {
	opts := DefaultOptions()
	for _, target := range []Type{TypeString, TypeEmail, TypeURL, TypePhone, TypeUnknown} {
		got, err := Convert("  some value  ", target, opts)
		if err != nil {
			t.Errorf("Convert(passthrough, %s) error: %v", target, err)
			continue
		}
		if got.(string) != "some value" {
			t.Errorf("Convert(passthrough, %s) = %q, want trimmed value", target, got)
		}
	}
}

func TestConvertNoTrim(t *testing.T) {
	opts := DefaultOptions()
	f := false
	opts.TrimWhitespace = &f

	if got, err := Convert("  42  ", TypeInteger, opts); err == nil {
		t.Errorf("Convert with trimming disabled = %v, want error for padded value", got)
	}
	got, err := Convert("42", TypeInteger, opts)
	if err != nil {
		t.Fatalf("Convert(42, integer) error: %v", err)
	}
	if got.(int64) != 42 {
		t.Errorf("Convert(42, integer) = %v, want 42", got)
	}
}

func TestConvertSpaceThousandsSeparator(t *testing.T) {
	opts := DefaultOptions()
	opts.ThousandsSeparator = " "

	got, err := Convert("1 234 567.5", TypeFloat, opts)
	if err != nil {
		t.Fatalf("Convert(1 234 567.5, float) error: %v", err)
	}
	if got.(float64) != 1234567.5 {
		t.Errorf("Convert(1 234 567.5, float) = %v, want 1234567.5", got)
	}

	// Grouping spaces are removed even when trimming is disabled.
	f := false
	opts.TrimWhitespace = &f
	got, err = Convert("1 234", TypeInteger, opts)
	if err != nil {
		t.Fatalf("Convert(1 234, integer) error: %v", err)
	}
	if got.(int64) != 1234 {
		t.Errorf("Convert(1 234, integer) = %v, want 1234", got)
	}
}

func TestConvertStrictGrouping(t *testing.T) {
	strict := DefaultOptions()
	strict.StrictMode = true

	if _, err := Convert("1,23.45", TypeFloat, strict); err == nil {
		t.Error("strict Convert(1,23.45, float) expected grouping error")
	}
	got, err := Convert("1,234,567.89", TypeFloat, strict)
	if err != nil {
		t.Fatalf("strict Convert(1,234,567.89, float) error: %v", err)
	}
	if got.(float64) != 1234567.89 {
		t.Errorf("strict Convert = %v, want 1234567.89", got)
	}

	// Lenient mode tolerates sloppy grouping.
	if _, err := Convert("1,23.45", TypeFloat, DefaultOptions()); err != nil {
		t.Errorf("lenient Convert(1,23.45, float) error: %v", err)
	}
}

func TestConversionErrorMessage(t *testing.T) {
	_, err := Convert("maybe", TypeBoolean, DefaultOptions())
	if err == nil {
		t.Fatal("expected error")
	}
	want := `cannot convert "maybe" to boolean: not a recognized boolean value`
	if err.Error() != want {
		t.Errorf("error = %q, want %q", err.Error(), want)
	}
}
