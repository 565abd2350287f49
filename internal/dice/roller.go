package dice

// RollPlan produces face values for every die in plan using src, largest die
// size first, the way a grouped external roller fills a request.
//
// Precondition: src must be non-nil.
// Postcondition: len(result[F]) == plan[F] and every value is in [1, F].
func RollPlan(plan Plan, src Source) FaceValues {
	values := make(FaceValues, len(plan))
	for _, faces := range plan.Faces() {
		rolled := make([]int, plan[faces])
		for i := range rolled {
			rolled[i] = src.Intn(faces) + 1
		}
		values[faces] = rolled
	}
	return values
}

// Roll rolls the physical dice expr needs using src and reconciles them.
//
// Precondition: expr must come from Parse; src must be non-nil.
// Postcondition: Returns a ReconciledRoll with len(Kept) == len(expr.Groups).
func Roll(expr ParsedExpression, src Source) (ReconciledRoll, error) {
	return Reconcile(expr, RollPlan(expr.Plan(), src), nil)
}

// RollExpr parses expr and rolls it using src in a single call.
//
// Precondition: expr must be a valid dice expression string; src must be non-nil.
// Postcondition: Returns a ReconciledRoll or a parse/reconcile error.
func RollExpr(expr string, src Source) (ReconciledRoll, error) {
	e, err := Parse(expr)
	if err != nil {
		return ReconciledRoll{}, err
	}
	return Roll(e, src)
}
