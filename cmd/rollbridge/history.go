package main

import (
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/cory-johannsen/rollbridge/internal/command"
	"github.com/cory-johannsen/rollbridge/internal/storage/postgres"
	"github.com/cory-johannsen/rollbridge/internal/storage/redis"
)

func newHistoryCmd(c *cli) *cobra.Command {
	var (
		limit      int
		clearCache bool
	)
	cmd := &cobra.Command{
		Use:   "history",
		Short: "List recent recorded rolls for the selected entity",
		Long: `history lists rolls from PostgreSQL when history.enabled is set, otherwise
from the Redis recent-roll cache when cache.enabled is set.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			entity := c.cfg.Stats.Entity
			if clearCache {
				if !c.cfg.Cache.Enabled {
					return errors.New("--clear needs the roll cache; set cache.enabled")
				}
				recent, closeCache, err := c.openCache(ctx)
				if err != nil {
					return err
				}
				defer closeCache()
				return recent.Clear(ctx, entity)
			}

			switch {
			case c.cfg.History.Enabled:
				pool, err := c.openPool(ctx)
				if err != nil {
					return err
				}
				defer pool.Close()

				records, err := postgres.NewRollRepository(pool.DB()).ListRecent(ctx, entity, limit)
				if err != nil {
					return err
				}
				printHistory(cmd.OutOrStdout(), records)
			case c.cfg.Cache.Enabled:
				recent, closeCache, err := c.openCache(ctx)
				if err != nil {
					return err
				}
				defer closeCache()

				entries, err := recent.Recent(ctx, entity, limit)
				if err != nil {
					return err
				}
				printCached(cmd.OutOrStdout(), entries)
			default:
				return errors.New("roll history is disabled; set history.enabled or cache.enabled")
			}
			return nil
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 20, "maximum number of rolls to list")
	cmd.Flags().BoolVar(&clearCache, "clear", false, "drop the entity's cached rolls")
	return cmd
}

func printHistory(w io.Writer, records []postgres.RollRecord) {
	if len(records) == 0 {
		fmt.Fprintln(w, "no rolls recorded")
		return
	}
	for _, rec := range records {
		line := fmt.Sprintf("%s  %-24s %s → %s = %d",
			rec.CreatedAt.Local().Format(time.DateTime), recordLabel(rec), rec.Expression, rec.Substituted, rec.Total)
		switch {
		case rec.TimedOut:
			line += " (timed out)"
		case !rec.Reconciled:
			line += " (unreconciled)"
		case rec.Critical:
			line += " (critical)"
		}
		fmt.Fprintln(w, line)
	}
}

func printCached(w io.Writer, entries []redis.Entry) {
	if len(entries) == 0 {
		fmt.Fprintln(w, "no rolls cached")
		return
	}
	for _, e := range entries {
		line := fmt.Sprintf("%s  %-24s %s → %s = %d",
			e.CompletedAt.Local().Format(time.DateTime), e.Label, e.Expression, e.Substituted, e.Total)
		switch {
		case e.TimedOut:
			line += " (timed out)"
		case !e.Reconciled:
			line += " (unreconciled)"
		case e.Critical, e.CritHit:
			line += " (critical)"
		}
		fmt.Fprintln(w, line)
	}
}

func recordLabel(rec postgres.RollRecord) string {
	return command.Roll{
		Action:     rec.Action,
		RollType:   command.RollType(rec.RollType),
		DamageType: rec.DamageType,
	}.Label()
}
