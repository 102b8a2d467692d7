// Command manualsync runs one scoring pass by hand: a finished-match sync
// against the provider, or a recalculation of one round from stored scores.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strconv"

	"bolao/api/internal/client"
	"bolao/api/internal/config"
	"bolao/api/internal/models"
	"bolao/api/internal/repository"
	"bolao/api/internal/service"

	"github.com/rs/zerolog/log"
)

func main() {
	syncFinished := flag.Bool("sync-finished", false, "sync finished matches from football-data.org and rescore")
	recalculate := flag.Int64("recalculate", 0, "recalculate the given round id from stored scores")
	flag.Parse()

	if *syncFinished == (*recalculate > 0) {
		fmt.Fprintln(os.Stderr, "usage: manualsync -sync-finished | -recalculate <roundId>")
		os.Exit(2)
	}

	ctx := context.Background()
	cfg := config.MustLoad()

	db, err := repository.NewDatabase(ctx, repository.Config{
		Host:     cfg.DatabaseHost,
		Port:     strconv.Itoa(cfg.DatabasePort),
		User:     cfg.DatabaseUser,
		Password: cfg.DatabasePassword,
		Database: cfg.DatabaseName,
		SSLMode:  cfg.DatabaseSSLMode,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to database")
	}
	defer db.Close()

	log.Info().Msg("Validating service health...")
	if err := db.Health(ctx); err != nil {
		log.Fatal().Err(err).Msg("Database health check failed")
	}

	provider := client.NewClient(client.Options{
		BaseURL:       cfg.FootballDataBaseURL,
		Token:         cfg.FootballDataToken,
		CompetitionID: cfg.FootballDataCompetitionID,
		Timeout:       cfg.FootballDataTimeout,
		MaxRetries:    cfg.FootballDataMaxRetries,
	})

	engine := service.NewEngine(service.Stores{
		Rounds:      db.Rounds,
		Matches:     db.Matches,
		Predictions: db.Predictions,
		Tokens:      db.Tokens,
		Tx:          db,
	}, provider)

	var summary *models.RescoreSummary
	if *syncFinished {
		summary, err = engine.SyncFinished(ctx)
	} else {
		summary, err = engine.RecalculateRound(ctx, *recalculate)
	}
	if err != nil {
		db.Close()
		log.Fatal().Err(err).Str("kind", string(service.KindOf(err))).Msg("Manual sync failed")
	}

	log.Info().
		Int("matches_updated", summary.MatchesUpdated).
		Int("predictions_scored", summary.PredictionsScored).
		Int("rounds", summary.RoundsRecalculated).
		Msg("Manual sync complete.")
}
