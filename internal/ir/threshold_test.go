package ir

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseHPThreshold(t *testing.T) {
	tests := []struct {
		in    string
		op    CompareOp
		ratio BasisPoints
	}{
		{"<=50%", OpLessEqual, 5000},
		{"< 25%", OpLess, 2500},
		{">0.25", OpGreater, 2500},
		{">=100%", OpGreaterEqual, 10000},
		{"=12.5%", OpEqual, 1250},
		{"==1", OpEqual, 10000},
		{"!=0%", OpNotEqual, 0},
		{"30%", OpLessEqual, 3000},
		{".5", OpLessEqual, 5000},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			th, err := ParseHPThreshold(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.op, th.Op)
			assert.Equal(t, tt.ratio, th.Ratio)
		})
	}
}

func TestParseHPThreshold_Invalid(t *testing.T) {
	for _, in := range []string{"", "<=", "abc%", "<=50.123%", "-5%", "0.123456"} {
		t.Run(in, func(t *testing.T) {
			_, err := ParseHPThreshold(in)
			assert.Error(t, err)
		})
	}
}

func TestParseHPThreshold_RatioBounded(t *testing.T) {
	th, err := ParseHPThreshold("<=10000%")
	require.NoError(t, err)
	assert.Equal(t, MaxRatio, th.Ratio)

	for _, in := range []string{"<=99999999999999999%", ">10000.01%", "<1000000", "=9223372036854775807"} {
		t.Run(in, func(t *testing.T) {
			_, err := ParseHPThreshold(in)
			assert.Error(t, err)
		})
	}

	huge, err := ParseHPThreshold(">=10000%")
	require.NoError(t, err)
	assert.True(t, huge.Satisfied(1<<40, 1<<33))
	assert.False(t, huge.Satisfied(1, 1<<33))
}

func TestHPThreshold_Satisfied(t *testing.T) {
	half, err := ParseHPThreshold("<=50%")
	require.NoError(t, err)

	assert.True(t, half.Satisfied(40, 100), "40%% is at most half")
	assert.True(t, half.Satisfied(50, 100), "boundary is inclusive")
	assert.False(t, half.Satisfied(60, 100))
	assert.False(t, half.Satisfied(0, 0), "no max health never satisfies")

	above, err := ParseHPThreshold(">0.25")
	require.NoError(t, err)
	assert.True(t, above.Satisfied(26, 100))
	assert.False(t, above.Satisfied(250, 1000))
}

func TestHPThreshold_String(t *testing.T) {
	th, err := ParseHPThreshold("<=12.5%")
	require.NoError(t, err)
	assert.Equal(t, "<=12.5%", th.String())

	th, err = ParseHPThreshold(">0.5")
	require.NoError(t, err)
	assert.Equal(t, ">50%", th.String())
}
