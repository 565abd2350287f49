package main

import (
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/cory-johannsen/rollbridge/internal/dice"
	"github.com/cory-johannsen/rollbridge/internal/session"
)

func newPlanCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "plan <expression>",
		Short: "Show the dice an expression asks the roller for",
		Long: `Normalizes an expression (after modifier shorthand) and prints the dice
to request from the roller. Examples:

  plan 2d20kh1+dex+pb
  plan "d20 + 4"`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			roll, err := c.parser.ParseLine(strings.Join(args, " "), c.mods)
			if err != nil {
				return err
			}
			expr, err := dice.Parse(roll.Expression)
			if err != nil {
				return err
			}
			printPlan(cmd.OutOrStdout(), expr)
			return nil
		},
	}
}

func printPlan(w io.Writer, expr dice.ParsedExpression) {
	toRoll := expr.Plan().String()
	if toRoll == "" {
		toRoll = "none"
	}
	fmt.Fprintf(w, "expression:   %s\n", expr.Raw)
	fmt.Fprintf(w, "dice:         %s\n", toRoll)
	fmt.Fprintf(w, "constant:     %d\n", expr.Constant)
	fmt.Fprintf(w, "complex:      %t\n", expr.IsComplex())
	fmt.Fprintf(w, "advantage:    %t\n", expr.IsAdvantage())
	fmt.Fprintf(w, "disadvantage: %t\n", expr.IsDisadvantage())
}

func newReconcileCmd(c *cli) *cobra.Command {
	var (
		values []string
		crit   string
	)
	cmd := &cobra.Command{
		Use:   "reconcile <expression>",
		Short: "Reconcile rolled faces against an expression",
		Long: `Regroups faces rolled by an external roller against an expression and
recomputes its total. Faces are given per die size in the order rolled:

  reconcile 2d20kh1+4 --values 20=7,15
  reconcile "1d8+3" --values 8=2,7 --crit double_dice`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			expr, err := dice.Parse(strings.Join(args, " "))
			if err != nil {
				return err
			}
			faces, err := parseValues(values)
			if err != nil {
				return err
			}
			if len(faces) == 0 && expr.Plan().Total() > 0 {
				return errors.New("no values given; use --values <faces>=<v>,<v>")
			}
			var policy dice.CritPolicy
			if crit != "" {
				if policy, err = dice.ParsePolicy(crit); err != nil {
					return err
				}
				if expr, err = policy.Expand(expr); err != nil {
					return err
				}
			}

			out := dice.Resolve(expr, session.HostRollFor(expr.Plan(), faces), policy)
			if !out.Reconciled {
				return out.Err
			}
			fmt.Fprintln(cmd.OutOrStdout(), out.Roll.String())
			return nil
		},
	}
	cmd.Flags().StringArrayVar(&values, "values", nil, "faces for one die size as <faces>=<v>,<v>... (repeatable)")
	cmd.Flags().StringVar(&crit, "crit", "", "crit policy to apply: none, double_dice, add_max, double_total")
	return cmd
}

// parseValues reads "--values 20=7,15" flags into per-size faces. Repeated
// sizes append in flag order. No flags yield an empty set.
func parseValues(specs []string) (dice.FaceValues, error) {
	out := dice.FaceValues{}
	for _, spec := range specs {
		size, list, ok := strings.Cut(spec, "=")
		if !ok {
			return nil, fmt.Errorf("values %q: expected <faces>=<v>,<v>...", spec)
		}
		faces, err := strconv.Atoi(strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(size), "d")))
		if err != nil || !dice.IsSupportedFaces(faces) {
			return nil, fmt.Errorf("values %q: unsupported die size %q", spec, size)
		}
		for _, field := range strings.Split(list, ",") {
			v, err := strconv.Atoi(strings.TrimSpace(field))
			if err != nil {
				return nil, fmt.Errorf("values %q: %w", spec, err)
			}
			out[faces] = append(out[faces], v)
		}
	}
	return out, nil
}
