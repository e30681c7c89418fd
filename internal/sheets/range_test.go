package sheets

import (
	"testing"

	"milksync/internal/core"
)

func TestParseRange(t *testing.T) {
	tests := []struct {
		in   string
		want Range
	}{
		{"Sheet1!A1:G1", Range{Sheet: "Sheet1", StartCol: 1, StartRow: 1, EndCol: 7, EndRow: 1}},
		{"Sheet1!A2:G", Range{Sheet: "Sheet1", StartCol: 1, StartRow: 2, EndCol: 7, EndRow: 0}},
		{"'Milk 2024'!B3", Range{Sheet: "Milk 2024", StartCol: 2, StartRow: 3, EndCol: 2, EndRow: 3}},
		{"Sheet1!A:A", Range{Sheet: "Sheet1", StartCol: 1, StartRow: 1, EndCol: 1, EndRow: 0}},
		{"Sheet1!AA10:AB12", Range{Sheet: "Sheet1", StartCol: 27, StartRow: 10, EndCol: 28, EndRow: 12}},
	}
	for _, tt := range tests {
		got, err := ParseRange(tt.in)
		if err != nil {
			t.Errorf("ParseRange(%q) error: %v", tt.in, err)
			continue
		}
		if got != tt.want {
			t.Errorf("ParseRange(%q) = %+v, want %+v", tt.in, got, tt.want)
		}
	}
}

func TestParseRange_Invalid(t *testing.T) {
	for _, in := range []string{"", "A1:G1", "Sheet1!", "Sheet1!12", "Sheet1!A0", "Sheet1!G1:A1", "Sheet1!A5:B2"} {
		if _, err := ParseRange(in); err == nil {
			t.Errorf("ParseRange(%q) expected error", in)
		}
	}
}

func TestHeaderAndDataRange(t *testing.T) {
	if got := HeaderRange("Sheet1", core.DeliverySchema); got != "Sheet1!A1:G1" {
		t.Errorf("HeaderRange = %q", got)
	}
	if got := DataRange("Sheet1", core.DeliverySchema); got != "Sheet1!A2:G" {
		t.Errorf("DataRange = %q", got)
	}
}

func TestColumnLetter(t *testing.T) {
	cases := map[int]string{1: "A", 7: "G", 26: "Z", 27: "AA", 52: "AZ", 703: "AAA"}
	for in, want := range cases {
		if got := ColumnLetter(in); got != want {
			t.Errorf("ColumnLetter(%d) = %q, want %q", in, got, want)
		}
	}
}
