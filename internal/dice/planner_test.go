package dice_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"github.com/cory-johannsen/rollbridge/internal/dice"
)

func TestPlan(t *testing.T) {
	cases := map[string]dice.Plan{
		"2d20kh1+1d4": {20: 2, 4: 1},
		"1d6+1d8+2d6": {6: 3, 8: 1},
		"1d6ro<2":     {6: 2},
		"3d6ro=1+1d6": {6: 7},
		"4d6kh3-1d4":  {6: 4, 4: 1},
	}
	for in, want := range cases {
		assert.Equal(t, want, dice.MustParse(in).Plan(), in)
	}
}

func TestPlanDice_Empty(t *testing.T) {
	assert.Empty(t, dice.PlanDice(nil))
	assert.Equal(t, 0, dice.PlanDice(nil).Total())
	assert.Equal(t, "", dice.PlanDice(nil).String())
}

func TestPlan_FacesAndString(t *testing.T) {
	p := dice.Plan{4: 1, 20: 9, 10: 5}
	assert.Equal(t, []int{20, 10, 4}, p.Faces())
	assert.Equal(t, "9d20+5d10+1d4", p.String())
	assert.Equal(t, 15, p.Total())
}

// TestPlan_Total_Property verifies the plan requests exactly the physical dice
// of every group: count, doubled for a reroll.
func TestPlan_Total_Property(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		e, err := dice.Parse(genExpression().Draw(rt, "expression"))
		require.NoError(rt, err)
		want := 0
		for _, g := range e.Groups {
			n := g.Count
			if g.HasReroll() {
				n *= 2
			}
			want += n
		}
		assert.Equal(rt, want, e.Plan().Total())
	})
}

func TestFoldConstants(t *testing.T) {
	assert.Equal(t, 0, dice.FoldConstants(nil))
	assert.Equal(t, -2, dice.FoldConstants([]dice.ConstantTerm{{Value: 1}, {Value: -3}}))
}

func TestEvaluateSum(t *testing.T) {
	cases := map[string]int{
		"15+4":          19,
		"9+2-3":         8,
		"10-((3+4)+1)":  2,
		"-3":            -3,
		"(6+3+2)+2":     13,
		"1-(2-(3-4))":   -2,
		"0":             0,
		"100-(50+50)+1": 1,
		"-(1+2)-(-3+4)": -4,
	}
	for in, want := range cases {
		got, err := dice.EvaluateSum(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}
}

func TestEvaluateSum_RejectsNonSums(t *testing.T) {
	for _, in := range []string{"", "1d6", "2*3", "(1+2", "1+", "abc", "3 4"} {
		_, err := dice.EvaluateSum(in)
		assert.ErrorIs(t, err, dice.ErrReconciliationMismatch, "input %q", in)
	}
}
