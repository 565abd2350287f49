package dice_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"github.com/cory-johannsen/rollbridge/internal/dice"
)

func TestParse_SingleGroupWithConstant(t *testing.T) {
	e, err := dice.Parse("1d20 + 4")
	require.NoError(t, err)
	assert.Equal(t, "1d20+4", e.Raw)
	require.Len(t, e.Groups, 1)
	g := e.Groups[0]
	assert.Equal(t, "1d20", g.Text)
	assert.Equal(t, 0, g.Offset)
	assert.Equal(t, 1, g.Count)
	assert.Equal(t, 20, g.Faces)
	assert.False(t, g.HasKeep())
	assert.False(t, g.HasReroll())
	assert.Equal(t, 4, e.Constant)
}

func TestParse_KeepHighest(t *testing.T) {
	e, err := dice.Parse("2d20kh1+3")
	require.NoError(t, err)
	require.Len(t, e.Groups, 1)
	assert.Equal(t, dice.KeepRule{Kind: dice.KeepHighest, Count: 1}, e.Groups[0].Keep)
	assert.Equal(t, "2d20kh1", e.Groups[0].Text)
	assert.Equal(t, 3, e.Constant)
}

func TestParse_KeepLowest(t *testing.T) {
	e, err := dice.Parse("2d20kl1")
	require.NoError(t, err)
	assert.Equal(t, dice.KeepRule{Kind: dice.KeepLowest, Count: 1}, e.Groups[0].Keep)
}

func TestParse_RerollComparators(t *testing.T) {
	cases := []struct {
		expr string
		cmp  dice.Comparator
		val  int
	}{
		{"1d6ro<2", dice.CompareLess, 2},
		{"1d6ro<=2", dice.CompareLessOrEqual, 2},
		{"1d6ro>5", dice.CompareGreater, 5},
		{"1d6ro>=5", dice.CompareGreaterOrEqual, 5},
		{"1d6ro=1", dice.CompareEqual, 1},
	}
	for _, c := range cases {
		e, err := dice.Parse(c.expr)
		require.NoError(t, err, c.expr)
		require.Len(t, e.Groups, 1, c.expr)
		assert.Equal(t, dice.RerollRule{Comparator: c.cmp, Value: c.val}, e.Groups[0].Reroll, c.expr)
		assert.Equal(t, c.expr, e.Groups[0].Text)
	}
}

func TestParse_RepeatedFaceCountsStayDistinct(t *testing.T) {
	e, err := dice.Parse("1d6+1d8+2d6")
	require.NoError(t, err)
	require.Len(t, e.Groups, 3)
	assert.Equal(t, []string{"1d6", "1d8", "2d6"}, groupTexts(e))
	assert.Equal(t, []int{0, 4, 8}, groupOffsets(e))
}

func TestParse_ConstantFolding(t *testing.T) {
	cases := map[string]int{
		"1d20+1+1d4-3": -2,
		"1d20":         0,
		"1d4-1":        -1,
		"1-1d4":        1,
		"1d6-(2+1d4)":  -2,
		"-(1d6-3)":     3,
		"1d20+-1":      -1,
	}
	for in, want := range cases {
		e, err := dice.Parse(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, e.Constant, in)
	}
}

func TestParse_NegativeGroups(t *testing.T) {
	e, err := dice.Parse("1d8-1d4-(1d6-1d10)")
	require.NoError(t, err)
	require.Len(t, e.Groups, 4)
	assert.False(t, e.Groups[0].Negative)
	assert.True(t, e.Groups[1].Negative)
	assert.True(t, e.Groups[2].Negative)
	assert.False(t, e.Groups[3].Negative)
}

func TestParse_ConstantOnly(t *testing.T) {
	for in, want := range map[string]int{"5": 5, "-3": -3, "+4": 4} {
		e, err := dice.Parse(in)
		require.NoError(t, err, in)
		assert.Empty(t, e.Groups, in)
		assert.Equal(t, want, e.Constant, in)
		assert.Empty(t, e.Plan(), in)
	}
}

func TestParse_Invalid(t *testing.T) {
	for _, in := range []string{
		"",
		"   ",
		"3+4",
		"1d7",
		"1d6+1d7",
		"0d6",
		"2d20kh3",
		"2d20kh0",
		"1d6ro",
		"1d6ro<",
		"1d20k1",
		"1d20+",
		"(1d20",
		"1d20)",
		"2(1d6)",
		"1d20d6",
		"1d66",
		"--3",
		"d",
		"1d20+str",
	} {
		_, err := dice.Parse(in)
		assert.ErrorIs(t, err, dice.ErrInvalidExpression, "input %q", in)
	}
}

func TestParse_KeepBoundIncludesRerollDoubling(t *testing.T) {
	// Reroll doubles the physical dice, so keeping 3 of "2d20ro<2" is allowed.
	_, err := dice.Parse("2d20ro<2kh3")
	require.NoError(t, err)
}

func TestParse_DiceCountBound(t *testing.T) {
	e, err := dice.Parse("1000d6")
	require.NoError(t, err)
	assert.Equal(t, dice.Plan{6: 1000}, e.Plan())

	e, err = dice.Parse("500d6ro<2")
	require.NoError(t, err)
	assert.Equal(t, dice.Plan{6: 1000}, e.Plan())

	for _, in := range []string{
		"1001d6",
		"501d6ro<2",
		"4611686018427387904d6ro<2",
		"9223372036854775807d20",
		"99999999999999999999d6",
	} {
		_, err := dice.Parse(in)
		assert.ErrorIs(t, err, dice.ErrInvalidExpression, "input %q", in)
	}
}

func TestMustParse_PanicsOnInvalid(t *testing.T) {
	assert.Panics(t, func() { dice.MustParse("1d7") })
	assert.NotPanics(t, func() { dice.MustParse("1d8") })
}

// TestParse_Deterministic_Property verifies parsing the same input twice yields
// structurally identical values.
func TestParse_Deterministic_Property(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		in := genExpression().Draw(rt, "expression")
		a, errA := dice.Parse(in)
		b, errB := dice.Parse(in)
		require.NoError(rt, errA)
		require.NoError(rt, errB)
		assert.Equal(rt, a, b)
	})
}

// TestParse_Reparse_Property verifies the normalized form parses to the same value.
func TestParse_Reparse_Property(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		in := genExpression().Draw(rt, "expression")
		a, err := dice.Parse(in)
		require.NoError(rt, err)
		b, err := dice.Parse(a.Raw)
		require.NoError(rt, err)
		assert.Equal(rt, a, b)
	})
}

func groupTexts(e dice.ParsedExpression) []string {
	out := make([]string, len(e.Groups))
	for i, g := range e.Groups {
		out[i] = g.Text
	}
	return out
}

func groupOffsets(e dice.ParsedExpression) []int {
	out := make([]int, len(e.Groups))
	for i, g := range e.Groups {
		out[i] = g.Offset
	}
	return out
}
