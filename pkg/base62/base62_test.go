package base62

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEncode(t *testing.T) {
	tests := []struct {
		name string
		n    uint64
		want string
	}{
		{"zero", 0, "0"},
		{"single digit", 9, "9"},
		{"first lowercase", 10, "a"},
		{"last lowercase", 35, "z"},
		{"first uppercase", 36, "A"},
		{"last single char", 61, "Z"},
		{"base", 62, "10"},
		{"sequence start", 100000, "q0U"},
		{"sequence start successor", 100001, "q0V"},
		{"large number", 123456789, "8m0Kx"},
		{"max uint64", math.MaxUint64, "lYGhA16ahyf"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Encode(tt.n))
		})
	}
}

func TestDecode(t *testing.T) {
	tests := []struct {
		name    string
		s       string
		want    uint64
		wantErr error
	}{
		{name: "zero", s: "0", want: 0},
		{name: "base", s: "10", want: 62},
		{name: "sequence start", s: "q0U", want: 100000},
		{name: "large number", s: "8m0Kx", want: 123456789},
		{name: "max uint64", s: "lYGhA16ahyf", want: math.MaxUint64},
		{name: "empty string", s: "", wantErr: assert.AnError},
		{name: "invalid character", s: "q0U!", wantErr: ErrInvalidCharacter},
		{name: "overflow", s: "lYGhA16ahyg", wantErr: ErrOverflow},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Decode(tt.s)

			if tt.wantErr != nil {
				assert.Error(t, err)
				if tt.wantErr != assert.AnError {
					assert.ErrorIs(t, err, tt.wantErr)
				}
				return
			}

			assert.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestEncodeDecodeRoundTrip(t *testing.T) {
	values := []uint64{
		0, 1, 61, 62, 3843, 100000, 100001,
		uint64(1) << 32,
		math.MaxUint64 / 2,
		math.MaxUint64,
	}

	for _, n := range values {
		decoded, err := Decode(Encode(n))

		assert.NoError(t, err)
		assert.Equal(t, n, decoded)
	}
}

func TestEncodeInjective(t *testing.T) {
	seen := make(map[string]uint64)

	for n := uint64(99990); n < 101000; n++ {
		s := Encode(n)

		prev, ok := seen[s]
		assert.Falsef(t, ok, "Encode(%d) collides with Encode(%d): %q", n, prev, s)
		seen[s] = n
	}
}

func TestIsValid(t *testing.T) {
	tests := []struct {
		s    string
		want bool
	}{
		{"q0U", true},
		{"0123456789", true},
		{"abcXYZ", true},
		{"", false},
		{"q0U!", false},
		{"with space", false},
		{"under_score", false},
	}

	for _, tt := range tests {
		assert.Equalf(t, tt.want, IsValid(tt.s), "IsValid(%q)", tt.s)
	}
}
