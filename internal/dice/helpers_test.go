package dice_test

import (
	"fmt"
	"strconv"
	"strings"

	"pgregory.net/rapid"

	"github.com/cory-johannsen/rollbridge/internal/dice"
)

var faceSizes = []int{4, 6, 8, 10, 12, 20, 100}

// genGroup draws a valid dice group such as "3d6", "2d20kh1" or "1d8ro<=2".
func genGroup() *rapid.Generator[string] {
	return rapid.Custom(func(t *rapid.T) string {
		faces := rapid.SampledFrom(faceSizes).Draw(t, "faces")
		count := rapid.IntRange(1, 4).Draw(t, "count")
		s := fmt.Sprintf("%dd%d", count, faces)
		switch rapid.IntRange(0, 3).Draw(t, "suffix") {
		case 1:
			s += "kh" + strconv.Itoa(rapid.IntRange(1, count).Draw(t, "kh"))
		case 2:
			s += "kl" + strconv.Itoa(rapid.IntRange(1, count).Draw(t, "kl"))
		case 3:
			cmp := rapid.SampledFrom([]string{"<", "<=", ">", ">=", "="}).Draw(t, "cmp")
			s += "ro" + cmp + strconv.Itoa(rapid.IntRange(1, faces).Draw(t, "ro"))
		}
		return s
	})
}

// genExpression draws a valid expression of one to five terms that starts with a group.
func genExpression() *rapid.Generator[string] {
	return rapid.Custom(func(t *rapid.T) string {
		var b strings.Builder
		b.WriteString(genGroup().Draw(t, "first"))
		n := rapid.IntRange(0, 4).Draw(t, "terms")
		for i := 0; i < n; i++ {
			b.WriteString(rapid.SampledFrom([]string{"+", "-"}).Draw(t, "op"))
			if rapid.Bool().Draw(t, "constant") {
				b.WriteString(strconv.Itoa(rapid.IntRange(0, 20).Draw(t, "value")))
			} else {
				b.WriteString(genGroup().Draw(t, "group"))
			}
		}
		return b.String()
	})
}

// genFaces draws in-range face values satisfying plan.
func genFaces(t *rapid.T, plan dice.Plan) dice.FaceValues {
	values := make(dice.FaceValues, len(plan))
	for _, faces := range plan.Faces() {
		values[faces] = rapid.SliceOfN(rapid.IntRange(1, faces), plan[faces], plan[faces]).
			Draw(t, fmt.Sprintf("d%d", faces))
	}
	return values
}
