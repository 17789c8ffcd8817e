package codec

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncodeKnownValues(t *testing.T) {
	cases := []struct {
		name string
		in   []byte
		want string
	}{
		{"empty", nil, ""},
		{"single byte", []byte{1}, "AQ"},
		{"three bytes", []byte{1, 2, 3}, "AQID"},
		{"two bytes", []byte{4, 5}, "BAU"},
		{"challenge", []byte{0, 0, 0}, "AAAA"},
		{"unsafe alphabet", []byte{0xfb, 0xef, 0xff}, "--__"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, Encode(tc.in))
		})
	}
}

func TestDecodeRestoresPadding(t *testing.T) {
	cases := []struct {
		in   string
		want []byte
	}{
		{"", nil},
		{"AQ", []byte{1}},
		{"BAU", []byte{4, 5}},
		{"AQID", []byte{1, 2, 3}},
		{"--__", []byte{0xfb, 0xef, 0xff}},
	}

	for _, tc := range cases {
		got, err := Decode(tc.in)
		require.NoError(t, err, "decode %q", tc.in)
		if len(tc.want) == 0 {
			assert.Empty(t, got)
		} else {
			assert.Equal(t, tc.want, got)
		}
	}
}

func TestRoundTripAllLengths(t *testing.T) {
	data := make([]byte, 0, 64)
	for i := 0; i < 64; i++ {
		encoded := Encode(data)

		assert.NotContains(t, encoded, "=")
		assert.NotContains(t, encoded, "+")
		assert.NotContains(t, encoded, "/")

		decoded, err := Decode(encoded)
		require.NoError(t, err, "length %d", i)
		assert.Equal(t, append([]byte{}, data...), append([]byte{}, decoded...))

		data = append(data, byte(i*7+3))
	}
}

func TestDecodeRejectsGarbage(t *testing.T) {
	for _, in := range []string{"!!!", "A Q", strings.Repeat("A", 5) + "="} {
		_, err := Decode(in)
		assert.Error(t, err, "input %q", in)
	}
}
