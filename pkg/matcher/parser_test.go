package matcher

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestExtractParcelNumber(t *testing.T) {
	tests := []struct {
		name   string
		folder string
		want   string
	}{
		{"parcel dash prefix", "Parcel-12345", "12345"},
		{"parcel space prefix", "Parcel 12345", "12345"},
		{"parcel underscore prefix", "parcel_12345", "12345"},
		{"property prefix", "Property-317703000043", "317703000043"},
		{"prefix case-insensitive", "PARCEL-9988", "9988"},
		{"bare digits", "317703000043", "317703000043"},
		{"digits with separators", "3177-03-000-043", "317703000043"},
		{"digits with spaces", "3177 03 000 043", "317703000043"},
		{"embedded digit run", "photos for 12345678 final", "12345678"},
		{"letter prefix stripped by digit extraction", "R317703043", "317703043"},
		{"short alphanumeric code kept whole", "A123", "A123"},
		{"mostly letters rejected", "Smith Family Home", ""},
		{"too short", "123", ""},
		{"empty", "", ""},
		{"whitespace only", "   ", ""},
		{"underscored name rejected by final pattern", "a_b_c_d", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.want, ExtractParcelNumber(tt.folder))
		})
	}
}

func TestExtractParcelNumberPatternPriority(t *testing.T) {
	// The explicit prefix wins even when other digit runs exist.
	require.Equal(t, "111", ExtractParcelNumber("Parcel-111 copy 22223333"))

	// Without a prefix, a mostly-numeric name keeps all its digits.
	require.Equal(t, "12345678", ExtractParcelNumber("1234-5678"))
}

func TestExtractParcelNumberDigitRunBounds(t *testing.T) {
	// Shorter than 4 digits never qualifies as a run.
	require.Equal(t, "", ExtractParcelNumber("lot 99"))

	// A 4-digit run is the minimum.
	require.Equal(t, "9901", ExtractParcelNumber("lot 9901"))
}
