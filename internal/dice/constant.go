package dice

// FoldConstants sums constant terms left to right.
//
// The folded value is display metadata: the literals stay embedded in the
// expression and are counted once, when the substituted expression is evaluated.
//
// Postcondition: returns 0 for an empty slice.
func FoldConstants(terms []ConstantTerm) int {
	total := 0
	for _, t := range terms {
		total += t.Value
	}
	return total
}
