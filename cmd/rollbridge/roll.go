package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/cory-johannsen/rollbridge/internal/session"
)

func newRollCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "roll <slash command | expression>",
		Short: "Roll a chat line through a roll session",
		Long: `Rolls every slash command in a chat line, or a bare expression, and prints
the reconciled results. Examples:

  roll 2d20kh1+5
  roll "/hit 1d20+str Longsword /dmg 1d8+str Longsword:slashing"`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, release, err := c.openSession(cmd.Context())
			if err != nil {
				return err
			}
			defer release()
			return c.rollLine(cmd.Context(), s, strings.Join(args, " "), cmd.OutOrStdout())
		},
	}
}

func newReplCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "repl",
		Short: "Roll chat lines read from stdin in one session",
		Long: `Reads chat lines from stdin and rolls them in a single session, so a
critical hit carries over to the damage roll on a later line.
Type 'exit' or 'quit' to leave.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			s, release, err := c.openSession(cmd.Context())
			if err != nil {
				return err
			}
			defer release()
			return c.repl(cmd.Context(), s, cmd.InOrStdin(), cmd.OutOrStdout())
		},
	}
}

func (c *cli) repl(ctx context.Context, s *session.Session, in io.Reader, out io.Writer) error {
	scanner := bufio.NewScanner(in)
	for {
		fmt.Fprint(out, "> ")
		if !scanner.Scan() {
			fmt.Fprintln(out)
			return scanner.Err()
		}
		line := strings.TrimSpace(scanner.Text())
		switch line {
		case "":
			continue
		case "exit", "quit":
			return nil
		}
		if err := c.rollLine(ctx, s, line, out); err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			fmt.Fprintf(out, "error: %v\n", err)
		}
	}
}

// rollLine submits every command on line before waiting, so they queue in order.
// Commands that fail to parse are reported and the rest still roll.
func (c *cli) rollLine(ctx context.Context, s *session.Session, line string, out io.Writer) error {
	texts := c.parser.Registry().Split(line)
	if len(texts) == 0 {
		texts = []string{line}
	}

	var errs []error
	var tickets []*session.Ticket
	for _, text := range texts {
		roll, err := c.parser.ParseLine(text, c.mods)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		ticket, err := s.Submit(ctx, roll)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		tickets = append(tickets, ticket)
	}

	for _, ticket := range tickets {
		res, err := ticket.Wait(ctx)
		if err != nil {
			return err
		}
		c.logger.Debug("roll completed", zap.String("roll_id", res.ID), zap.Int("total", res.Total()))
		fmt.Fprintln(out, formatResult(res))
	}
	return errors.Join(errs...)
}
