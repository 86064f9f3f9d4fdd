package sdfversion

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	tests := []struct {
		in   string
		want int
	}{
		{in: "1.5", want: 150},
		{in: "1.3", want: 130},
		{in: " 1.6 ", want: 160},
		{in: "1.06", want: 106},
		{in: "2", want: 200},
		{in: "0", want: 0},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := Parse(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseRejectsGarbage(t *testing.T) {
	for _, in := range []string{"", "one.two", "-1", "Inf"} {
		_, err := Parse(in)
		assert.Error(t, err, in)
	}
}

func TestFormat(t *testing.T) {
	assert.Equal(t, "1.5", Format(150))
	assert.Equal(t, "1.06", Format(106))
	assert.Equal(t, "1.0", Format(100))
	assert.Equal(t, "1.1", Format(110))
}

func TestCeiling(t *testing.T) {
	latest := Latest()
	assert.True(t, latest.Allows(10000))
	_, set := latest.Value()
	assert.False(t, set)
	assert.Equal(t, "latest", latest.String())

	c := Max(130)
	assert.True(t, c.Allows(130))
	assert.True(t, c.Allows(0))
	assert.False(t, c.Allows(150))
	assert.Equal(t, "1.3", c.String())

	parsed, err := ParseCeiling("1.3")
	require.NoError(t, err)
	assert.Equal(t, c, parsed)

	parsed, err = ParseCeiling("")
	require.NoError(t, err)
	assert.Equal(t, latest, parsed)
}
