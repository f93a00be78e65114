package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"ratrace/internal/config"
	"ratrace/internal/game"
	"ratrace/internal/store"
)

// ratrace-sim plays refresh cycles against a saved game without a player,
// for soak runs and for tuning the day-type table.
func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.LoadSimFromEnv()
	if err != nil {
		slog.Error("load config", "err", err)
		os.Exit(1)
	}
	logger := cfg.Engine.Logger()

	saves, closeStore, err := store.Open(ctx, cfg.Store, logger)
	if err != nil {
		logger.Error("open store failed", "store", cfg.Store.Kind, "err", err)
		os.Exit(1)
	}
	defer closeStore()

	engine := game.NewEngine(saves, logger, game.Options{
		Seed:     cfg.Engine.Seed,
		Tunables: cfg.Engine.Tunables,
	})
	engine.Load(ctx)

	if cfg.Runs > 0 {
		tally := runBatch(ctx, engine, logger, cfg.Runs)
		d := engine.Dashboard()
		logger.Info("sim batch completed",
			"runs", cfg.Runs,
			"day_types", tally,
			"net_worth", game.FormatUSD(d.NetWorth),
			"out_of_rat_race", d.OutOfRatRace,
		)
		return
	}

	ticker := time.NewTicker(cfg.TickEvery)
	defer ticker.Stop()

	logger.Info("sim started", "tick_every", cfg.TickEvery.String(), "volatility", cfg.Engine.Tunables.Volatility)
	for {
		select {
		case <-ctx.Done():
			logger.Info("sim shutdown")
			return
		case <-ticker.C:
			rep := engine.Refresh(ctx)
			autoplay(ctx, engine, logger)
			logger.Info("refresh complete", "cycle", rep.Cycle, "day_type", rep.DayType, "payday", rep.Payday)
		}
	}
}

func runBatch(ctx context.Context, engine *game.Engine, logger *slog.Logger, runs int) map[game.DayType]int {
	tally := make(map[game.DayType]int)
	for i := 0; i < runs && ctx.Err() == nil; i++ {
		rep := engine.Refresh(ctx)
		tally[rep.DayType]++
		autoplay(ctx, engine, logger)
	}
	return tally
}

// autoplay accepts any offer checking can cover and sells a business as
// soon as an exit prompt shows up.
func autoplay(ctx context.Context, engine *game.Engine, logger *slog.Logger) {
	d := engine.Dashboard()
	if d.ExitPrompt != nil {
		if proceeds, err := engine.SellBusiness(ctx, d.ExitPrompt.BusinessID); err == nil {
			logger.Info("autoplay sold business", "business", d.ExitPrompt.BusinessID, "proceeds", game.FormatUSD(proceeds))
		}
	}
	for _, offer := range engine.Offers() {
		if offer.Opportunity == nil || offer.Opportunity.SetupCost > engine.Dashboard().Accounts.Checking {
			continue
		}
		if _, err := engine.RespondToOffer(ctx, offer.ID, true, game.AccountChecking); err != nil {
			logger.Debug("autoplay offer skipped", "offer", offer.ID, "err", err)
		}
	}
}
