package dice

import (
	"sort"
	"strconv"
	"strings"
)

// Plan maps a die size to the number of physical dice the external roller must
// produce for it. It is the roll-count request handed to the roller.
type Plan map[int]int

// PlanDice accumulates the physical dice needed by groups.
//
// Postcondition: for each face count F, result[F] == sum of PhysicalCount() over
// the groups with Faces == F. A nil or empty groups slice yields an empty Plan.
func PlanDice(groups []DiceGroup) Plan {
	p := make(Plan, len(groups))
	for _, g := range groups {
		p[g.Faces] += g.PhysicalCount()
	}
	return p
}

// Plan returns the dice-to-roll mapping for e.
func (e ParsedExpression) Plan() Plan {
	return PlanDice(e.Groups)
}

// Total returns the number of physical dice across every face count.
func (p Plan) Total() int {
	n := 0
	for _, c := range p {
		n += c
	}
	return n
}

// Faces returns the planned die sizes, largest first.
func (p Plan) Faces() []int {
	faces := make([]int, 0, len(p))
	for f := range p {
		faces = append(faces, f)
	}
	sort.Sort(sort.Reverse(sort.IntSlice(faces)))
	return faces
}

// String renders the plan the way a grouped roller displays it, e.g. "9d20+5d10+1d4".
func (p Plan) String() string {
	parts := make([]string, 0, len(p))
	for _, f := range p.Faces() {
		parts = append(parts, strconv.Itoa(p[f])+"d"+strconv.Itoa(f))
	}
	return strings.Join(parts, "+")
}
