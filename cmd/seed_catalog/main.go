package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/pageza/foodgram/backend/config"
	"github.com/pageza/foodgram/backend/internal/cache"
	"github.com/pageza/foodgram/backend/internal/database"
	"github.com/pageza/foodgram/backend/internal/logger"
	"github.com/pageza/foodgram/backend/internal/models"
	"github.com/pageza/foodgram/backend/internal/service"
)

var (
	ingredientsFile string
	tagsFile        string
)

var rootCmd = &cobra.Command{
	Use:   "seed_catalog",
	Short: "Import ingredient and tag reference data",
	Long: `Reads ingredients ([{"name": ..., "measurement_unit": ...}]) and tags
([{"name": ..., "color": ..., "slug": ...}]) from JSON files and inserts
the rows that do not exist yet.`,
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		return run(cmd.Context())
	},
}

func run(ctx context.Context) error {
	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	logger.Init(config.GetEnvironment().String(), cfg.LogLevel)

	var ingredients []models.Ingredient
	if err := readJSON(ingredientsFile, &ingredients); err != nil {
		return err
	}
	var tags []models.Tag
	if err := readJSON(tagsFile, &tags); err != nil {
		return err
	}

	db, err := database.Open(cfg)
	if err != nil {
		return err
	}
	if cfg.DBDriver == "sqlite" {
		if err := database.AutoMigrate(db); err != nil {
			return err
		}
	}

	var catalogCache service.Cache
	if database.RedisConfigured(cfg) {
		client, err := database.NewRedisClient(cfg)
		if err != nil {
			log.Warn().Err(err).Msg("redis unavailable, catalog cache will not be flushed")
		} else {
			defer client.Close()
			catalogCache = cache.NewRedisCache(client, "catalog", cfg.CacheTTL)
		}
	}

	result, err := service.NewCatalogService(db, catalogCache).Import(ctx, ingredients, tags)
	if err != nil {
		return err
	}

	log.Info().
		Int("ingredients_read", len(ingredients)).
		Int64("ingredients_added", result.Ingredients).
		Int("tags_read", len(tags)).
		Int64("tags_added", result.Tags).
		Msg("catalog imported")
	return nil
}

// readJSON decodes path into dest. An empty path leaves dest untouched.
func readJSON(path string, dest interface{}) error {
	if path == "" {
		return nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", path, err)
	}
	if err := json.Unmarshal(data, dest); err != nil {
		return fmt.Errorf("failed to parse %s: %w", path, err)
	}
	return nil
}

func main() {
	rootCmd.Flags().StringVar(&ingredientsFile, "ingredients", "data/ingredients.json", "ingredients JSON file, empty to skip")
	rootCmd.Flags().StringVar(&tagsFile, "tags", "data/tags.json", "tags JSON file, empty to skip")

	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
