package version

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCompare(t *testing.T) {
	tests := []struct {
		name   string
		local  string
		remote string
		want   Result
	}{
		{"local ahead by minor", "1.2", "1.1.1", Greater},
		{"remote extends equal prefix", "1.1", "1.1.1", Less},
		{"major beats minor", "2.0", "1.2", Greater},
		{"local extends equal prefix", "1.2.0", "1.2", Greater},
		{"remote ahead by major", "1.2", "2.0", Less},
		{"identical", "1.4.0", "1.4.0", Equal},
		{"same segments different length", "2.2", "2.2.1", Less},
		{"first segment decides", "10.0", "9.99.99", Greater},
		{"double digit segment", "1.2.9", "1.2.10", Less},
		{"equal segments equal length", "1.02", "1.2", Equal},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Compare(tt.local, tt.remote)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got, "Compare(%q, %q)", tt.local, tt.remote)
		})
	}
}

func TestCompareAntisymmetric(t *testing.T) {
	versions := []string{"1.1", "1.1.1", "1.2", "1.2.0", "2.0", "2.2", "2.2.1", "0.9.9", "10.0"}

	for _, a := range versions {
		for _, b := range versions {
			ab, err := Compare(a, b)
			require.NoError(t, err)
			ba, err := Compare(b, a)
			require.NoError(t, err)

			if a == b {
				assert.Equal(t, Equal, ab, "Compare(%q, %q)", a, b)
				continue
			}
			assert.Equal(t, -ab, ba, "Compare(%q, %q) vs Compare(%q, %q)", a, b, b, a)
		}
	}
}

func TestCompareNonNumeric(t *testing.T) {
	_, err := Compare("1.2", "1.2.beta")
	require.ErrorIs(t, err, ErrFormat)

	_, err = Compare("1.0-SNAPSHOT", "1.1")
	require.ErrorIs(t, err, ErrFormat)

	_, err = Compare("1.2", "1.-1")
	require.ErrorIs(t, err, ErrFormat)

	// Identical strings short-circuit before any segment parsing.
	got, err := Compare("2025.04-LTS", "2025.04-LTS")
	require.NoError(t, err)
	assert.Equal(t, Equal, got)
}
