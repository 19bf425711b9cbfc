package cellgrid

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPositionToString(t *testing.T) {
	cases := []struct {
		pos  Position
		want string
	}{
		{Position{0, 0}, "A1"},
		{Position{0, 1}, "B1"},
		{Position{0, 25}, "Z1"},
		{Position{0, 26}, "AA1"},
		{Position{0, 51}, "AZ1"},
		{Position{0, 52}, "BA1"},
		{Position{0, 701}, "ZZ1"},
		{Position{0, 702}, "AAA1"},
		{Position{2, 27}, "AB3"},
		{Position{99, 0}, "A100"},
		{Position{16383, 16383}, "XFD16384"},
	}

	for _, tc := range cases {
		t.Run(tc.want, func(t *testing.T) {
			assert.Equal(t, tc.want, tc.pos.String())
		})
	}

	assert.Equal(t, "", InvalidPosition.String())
}

func TestPositionRoundTrip(t *testing.T) {
	positions := []Position{
		{0, 0},
		{0, 25},
		{0, 26},
		{0, 701},
		{0, 702},
		{41, 3},
		{9998, 675},
		{16383, 16383},
	}

	for _, pos := range positions {
		t.Run(pos.String(), func(t *testing.T) {
			require.True(t, pos.IsValid())
			assert.Equal(t, pos, PositionFromString(pos.String()))
		})
	}
}

func TestPositionFromStringRejects(t *testing.T) {
	inputs := []string{
		"",
		"A",
		"1",
		"a1",
		"A0",
		"A-1",
		"AAAA1",
		"A123456",
		"ZZZ1",   // column 18277, beyond the grid
		"XFE1",   // one column past XFD
		"A16385", // one row past the limit
		"B3x",
		" A1",
		"A1 ",
		"A01",
	}

	for _, input := range inputs {
		t.Run(input, func(t *testing.T) {
			assert.Equal(t, InvalidPosition, PositionFromString(input))
		})
	}
}

func TestPositionIsValid(t *testing.T) {
	assert.True(t, Position{0, 0}.IsValid())
	assert.True(t, Position{MaxRows - 1, MaxCols - 1}.IsValid())

	assert.False(t, InvalidPosition.IsValid())
	assert.False(t, Position{-1, 0}.IsValid())
	assert.False(t, Position{0, -1}.IsValid())
	assert.False(t, Position{MaxRows, 0}.IsValid())
	assert.False(t, Position{0, MaxCols}.IsValid())
}

func TestPositionLess(t *testing.T) {
	assert.True(t, Position{0, 5}.Less(Position{1, 0}))
	assert.True(t, Position{1, 0}.Less(Position{1, 1}))
	assert.False(t, Position{1, 1}.Less(Position{1, 1}))
	assert.False(t, Position{2, 0}.Less(Position{1, 9}))
}
