package dice

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// FaceValues holds rolled face values per die size, each slice in the order the
// external roller produced them.
type FaceValues map[int][]int

// ReconciledRoll is the recomputed result of a parsed expression once its
// physical dice are known. It is never mutated after construction.
//
// Postcondition (without crit doubling): Total == EvaluateSum(Substituted).
type ReconciledRoll struct {
	// Expression is the normalized expression that was rolled.
	Expression string
	// Kept holds, per dice group, the values counted toward the total.
	Kept [][]int
	// Values is Kept flattened in group order.
	Values []int
	// Total is the final result.
	Total int
	// Substituted is Expression with each dice group replaced by its kept values.
	Substituted string
	// Constant is the folded constant, for display only.
	Constant int
	// Critical is true when a crit policy adjusted this roll.
	Critical bool

	Complex      bool
	Advantage    bool
	Disadvantage bool
}

// String returns a human-readable audit string in the format:
//
//	"2d20kh1+4 → 15+4 = 19"
//
// Precondition: r.Expression is non-empty.
func (r ReconciledRoll) String() string {
	if r.Expression == "" {
		panic("dice: ReconciledRoll.String() precondition violated: Expression must be non-empty")
	}
	return fmt.Sprintf("%s → %s = %d", r.Expression, r.Substituted, r.Total)
}

// Reconcile regroups externally rolled face values against expr and recomputes
// the total.
//
// Values are matched positionally per die size: the Nth value of a size belongs
// to the Nth die of that size requested left to right in expr. For each group,
// rerolls are applied first (the front half of its values are primary rolls, the
// back half are candidates consumed in order), then the keep rule. crit may be nil.
//
// Precondition: expr comes from Parse.
// Postcondition: Returns a ReconciledRoll, or an error wrapping
// ErrReconciliationMismatch when values does not hold exactly expr.Plan()'s
// counts of in-range faces.
func Reconcile(expr ParsedExpression, values FaceValues, crit CritPolicy) (ReconciledRoll, error) {
	queues, err := matchValues(expr, values)
	if err != nil {
		return ReconciledRoll{}, err
	}

	kept := make([][]int, len(expr.Groups))
	var flat []int
	var b strings.Builder
	last := 0
	for i, g := range expr.Groups {
		n := g.PhysicalCount()
		q := queues[g.Faces]
		if len(q) < n {
			return ReconciledRoll{}, fmt.Errorf("%w: group %s needs %d d%d, %d left", ErrReconciliationMismatch, g.Text, n, g.Faces, len(q))
		}
		calc := make([]int, n)
		copy(calc, q[:n])
		queues[g.Faces] = q[n:]

		calc = applyReroll(g, calc)
		calc = applyKeep(g, calc)
		kept[i] = calc
		flat = append(flat, calc...)

		end := g.Offset + len(g.Text)
		if g.Offset < last || end > len(expr.Raw) || expr.Raw[g.Offset:end] != g.Text {
			return ReconciledRoll{}, fmt.Errorf("%w: group %s not found at offset %d", ErrReconciliationMismatch, g.Text, g.Offset)
		}
		b.WriteString(expr.Raw[last:g.Offset])
		b.WriteString(display(calc))
		last = end
	}
	b.WriteString(expr.Raw[last:])
	substituted := b.String()

	total, err := EvaluateSum(substituted)
	if err != nil {
		return ReconciledRoll{}, err
	}

	roll := ReconciledRoll{
		Expression:   expr.Raw,
		Kept:         kept,
		Values:       flat,
		Total:        total,
		Substituted:  substituted,
		Constant:     expr.Constant,
		Complex:      expr.IsComplex(),
		Advantage:    expr.IsAdvantage(),
		Disadvantage: expr.IsDisadvantage(),
	}
	if crit != nil {
		roll = crit.Apply(roll)
	}
	return roll, nil
}

// matchValues builds one consumption queue per die size, checking that values
// holds exactly the planned number of in-range faces for every size.
func matchValues(expr ParsedExpression, values FaceValues) (map[int][]int, error) {
	plan := expr.Plan()
	for faces, got := range values {
		if len(got) > 0 && plan[faces] == 0 {
			return nil, fmt.Errorf("%w: %d unrequested d%d values", ErrReconciliationMismatch, len(got), faces)
		}
	}
	queues := make(map[int][]int, len(plan))
	for faces, want := range plan {
		got := values[faces]
		if len(got) != want {
			return nil, fmt.Errorf("%w: planned %d d%d, received %d", ErrReconciliationMismatch, want, faces, len(got))
		}
		for _, v := range got {
			if v < 1 || v > faces {
				return nil, fmt.Errorf("%w: face %d out of range for d%d", ErrReconciliationMismatch, v, faces)
			}
		}
		queues[faces] = got
	}
	return queues, nil
}

// applyReroll replaces each primary roll the rule matches with the next unused
// candidate. Unused candidates are discarded.
func applyReroll(g DiceGroup, calc []int) []int {
	if !g.HasReroll() {
		return calc
	}
	primary, candidates := calc[:g.Count], calc[g.Count:]
	out := make([]int, len(primary))
	for i, v := range primary {
		if g.Reroll.Comparator.Holds(v, g.Reroll.Value) && len(candidates) > 0 {
			v, candidates = candidates[0], candidates[1:]
		}
		out[i] = v
	}
	return out
}

// applyKeep sorts and truncates calc according to the group's keep rule.
func applyKeep(g DiceGroup, calc []int) []int {
	switch g.Keep.Kind {
	case KeepHighest:
		sort.Sort(sort.Reverse(sort.IntSlice(calc)))
	case KeepLowest:
		sort.Ints(calc)
	default:
		return calc
	}
	if g.Keep.Count < len(calc) {
		calc = calc[:g.Keep.Count]
	}
	return calc
}

// display renders kept values: a bare value for one, "(a+b+...)" for several.
func display(values []int) string {
	if len(values) == 1 {
		return strconv.Itoa(values[0])
	}
	parts := make([]string, len(values))
	for i, v := range values {
		parts[i] = strconv.Itoa(v)
	}
	return "(" + strings.Join(parts, "+") + ")"
}
