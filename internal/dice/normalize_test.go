package dice_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"github.com/cory-johannsen/rollbridge/internal/dice"
)

func TestNormalize_StripsWhitespace(t *testing.T) {
	got, err := dice.Normalize(" 1d20 +\t4 ")
	require.NoError(t, err)
	assert.Equal(t, "1d20+4", got)
}

func TestNormalize_ExpandsBareDice(t *testing.T) {
	cases := map[string]string{
		"d6":        "1d6",
		"d20+d8":    "1d20+1d8",
		"2d6-d4":    "2d6-1d4",
		"(d6+2)":    "(1d6+2)",
		"10d10":     "10d10",
		"d20kh1":    "1d20kh1",
		"1d20 + d4": "1d20+1d4",
	}
	for in, want := range cases {
		got, err := dice.Normalize(in)
		require.NoError(t, err, "input %q", in)
		assert.Equal(t, want, got, "input %q", in)
	}
}

func TestNormalize_RejectsCharactersOutsideGrammar(t *testing.T) {
	for _, in := range []string{"1d20+dex", "1d6*2", "1D20", "2d6/2", "1d20+4 Shortsword", "1d20é"} {
		_, err := dice.Normalize(in)
		assert.ErrorIs(t, err, dice.ErrInvalidExpression, "input %q", in)
	}
}

func TestNormalize_EmptyIsNotAnError(t *testing.T) {
	got, err := dice.Normalize("   ")
	require.NoError(t, err)
	assert.Equal(t, "", got)
}

// TestNormalize_Idempotent_Property verifies normalize(normalize(E)) == normalize(E)
// for arbitrary strings over the grammar alphabet plus whitespace.
func TestNormalize_Idempotent_Property(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		in := rapid.StringMatching(`[0-9dkhlro<=>+\-() ]{0,24}`).Draw(rt, "expression")
		once, err := dice.Normalize(in)
		if err != nil {
			return
		}
		twice, err := dice.Normalize(once)
		require.NoError(rt, err)
		assert.Equal(rt, once, twice)
	})
}
