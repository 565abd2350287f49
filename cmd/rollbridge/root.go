package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/cory-johannsen/rollbridge/internal/command"
	"github.com/cory-johannsen/rollbridge/internal/config"
	"github.com/cory-johannsen/rollbridge/internal/dice"
	"github.com/cory-johannsen/rollbridge/internal/observability"
	"github.com/cory-johannsen/rollbridge/internal/session"
	"github.com/cory-johannsen/rollbridge/internal/stats"
	"github.com/cory-johannsen/rollbridge/internal/storage/postgres"
	"github.com/cory-johannsen/rollbridge/internal/storage/redis"
)

// cli holds the flags and the state shared by every subcommand.
type cli struct {
	configPath string
	statsPath  string
	entity     string

	// src stands in for the external roller.
	src dice.Source

	cfg    config.Config
	logger *zap.Logger
	parser *command.Parser
	mods   *dice.StatModifiers
}

func newRootCmd(src dice.Source) *cobra.Command {
	c := &cli{src: src}
	root := &cobra.Command{
		Use:   "rollbridge",
		Short: "Dice expression engine and roll reconciliation",
		Long: `rollbridge plans dice expressions for an external roller, reconciles the
faces it returns against keep and reroll rules, and tracks critical hits
across a roll session.`,
		SilenceUsage:      true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error { return c.init() },
		PersistentPostRun: func(cmd *cobra.Command, _ []string) { c.close() },
	}

	flags := root.PersistentFlags()
	flags.StringVar(&c.configPath, "config", "", "path to configuration file (defaults and ROLLBRIDGE_ env when empty)")
	flags.StringVar(&c.statsPath, "stats", "", "stat block YAML file or directory for modifier shorthand")
	flags.StringVar(&c.entity, "entity", "", "stat block name to roll for")

	root.AddCommand(
		newPlanCmd(c),
		newReconcileCmd(c),
		newRollCmd(c),
		newReplCmd(c),
		newHistoryCmd(c),
	)
	return root
}

// init loads configuration, the logger and the selected stat block.
func (c *cli) init() error {
	start := time.Now()

	var err error
	if c.configPath != "" {
		c.cfg, err = config.Load(c.configPath)
	} else {
		c.cfg, err = config.LoadDefaults()
	}
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	if c.statsPath != "" {
		c.cfg.Stats.Path = c.statsPath
	}
	if c.entity != "" {
		c.cfg.Stats.Entity = c.entity
	}

	c.logger, err = observability.NewLogger(c.cfg.Logging)
	if err != nil {
		return fmt.Errorf("initializing logger: %w", err)
	}
	c.parser = command.NewParser(command.DefaultRegistry(), c.logger)

	if c.cfg.Stats.Path != "" {
		block, err := selectBlock(c.cfg.Stats)
		if err != nil {
			return err
		}
		mods := block.Modifiers()
		c.mods = &mods
		c.cfg.Stats.Entity = block.Name
		c.logger.Debug("stat block loaded",
			zap.String("entity", block.Name),
			zap.Int("proficiency", mods.Proficiency),
		)
	}

	c.logger.Debug("rollbridge initialized",
		zap.String("crit_policy", c.cfg.Roller.CritPolicy),
		zap.Int("crit_range", c.cfg.Roller.CritRange),
		zap.Bool("history", c.cfg.History.Enabled),
		zap.Bool("cache", c.cfg.Cache.Enabled),
		zap.Duration("elapsed", time.Since(start)),
	)
	return nil
}

func (c *cli) close() {
	if c.logger != nil {
		_ = observability.Sync(c.logger)
	}
}

// selectBlock loads the stat blocks at cfg.Path and picks cfg.Entity, or the
// first block when no entity is named.
func selectBlock(cfg config.StatsConfig) (*stats.Block, error) {
	blocks, err := stats.Load(cfg.Path)
	if err != nil {
		return nil, fmt.Errorf("loading stat blocks: %w", err)
	}
	if len(blocks) == 0 {
		return nil, fmt.Errorf("no stat blocks in %s", cfg.Path)
	}
	if cfg.Entity == "" {
		return blocks[0], nil
	}
	block, ok := stats.Find(blocks, cfg.Entity)
	if !ok {
		return nil, fmt.Errorf("no stat block named %q in %s", cfg.Entity, cfg.Path)
	}
	return block, nil
}

// openSession starts a roll session backed by the local roller, recording to
// PostgreSQL when history is enabled and to Redis when the cache is enabled.
// The returned func releases it.
func (c *cli) openSession(ctx context.Context) (*session.Session, func(), error) {
	opts := session.Options{
		Entity:     c.cfg.Stats.Entity,
		Timeout:    c.cfg.Roller.Timeout,
		CritRange:  c.cfg.Roller.CritRange,
		CritPolicy: c.cfg.Roller.Policy(),
	}

	var (
		recorders session.Recorders
		closers   []func()
	)
	release := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}

	if c.cfg.History.Enabled {
		pool, err := c.openPool(ctx)
		if err != nil {
			return nil, nil, err
		}
		closers = append(closers, pool.Close)
		recorders = append(recorders, postgres.NewRollRepository(pool.DB()))
	}
	if c.cfg.Cache.Enabled {
		recent, closeCache, err := c.openCache(ctx)
		if err != nil {
			release()
			return nil, nil, err
		}
		closers = append(closers, closeCache)
		recorders = append(recorders, recent)
	}
	if len(recorders) > 0 {
		opts.Recorder = recorders
	}

	provider := session.NewLocalProvider(c.src, c.logger)
	s := session.New(provider, dice.NewLoggedRoller(c.src, c.logger), opts, c.logger)
	provider.Bind(s)

	return s, func() {
		s.Close()
		release()
	}, nil
}

func (c *cli) openCache(ctx context.Context) (*redis.RecentRolls, func(), error) {
	start := time.Now()
	client, err := redis.NewClient(ctx, c.cfg.Cache)
	if err != nil {
		return nil, nil, fmt.Errorf("connecting to cache: %w", err)
	}
	c.logger.Info("cache connected",
		zap.String("addr", c.cfg.Cache.Addr),
		zap.Int("db", c.cfg.Cache.DB),
		zap.Duration("elapsed", time.Since(start)),
	)
	recent := redis.NewRecentRolls(client, c.cfg.Cache.TTL, c.cfg.Cache.MaxRolls)
	return recent, func() { _ = client.Close() }, nil
}

func (c *cli) openPool(ctx context.Context) (*postgres.Pool, error) {
	start := time.Now()
	pool, err := postgres.NewPool(ctx, c.cfg.Database)
	if err != nil {
		return nil, fmt.Errorf("connecting to database: %w", err)
	}
	if err := pool.Ready(ctx, postgres.ReadyTimeout); err != nil {
		pool.Close()
		return nil, err
	}
	c.logger.Info("database connected",
		zap.String("host", c.cfg.Database.Host),
		zap.Int("port", c.cfg.Database.Port),
		zap.String("database", c.cfg.Database.Name),
		zap.Duration("elapsed", time.Since(start)),
	)
	return pool, nil
}
