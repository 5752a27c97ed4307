package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/schoolfinder/schoolfinder/internal/catalog"
	catalogrepo "github.com/schoolfinder/schoolfinder/internal/catalog/repository"
	"github.com/schoolfinder/schoolfinder/internal/config"
	"github.com/schoolfinder/schoolfinder/internal/database"
	"github.com/schoolfinder/schoolfinder/internal/search"
	"github.com/schoolfinder/schoolfinder/internal/server"
	"github.com/schoolfinder/schoolfinder/pkg/logger"
)

func newSeedCmd(cfg func() *config.Config) *cobra.Command {
	var file string
	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Load the school catalog into MongoDB and drop cached searches",
		RunE: func(cmd *cobra.Command, args []string) error {
			schools, err := loadSchools(file)
			if err != nil {
				return err
			}
			return seed(cmd.Context(), cfg(), schools)
		},
	}
	cmd.Flags().StringVarP(&file, "file", "f", "", "catalog YAML to load instead of the embedded one")
	return cmd
}

func loadSchools(file string) ([]catalog.School, error) {
	if file == "" {
		return catalog.Seed()
	}
	data, err := os.ReadFile(file)
	if err != nil {
		return nil, err
	}
	return catalog.Parse(data)
}

func seed(ctx context.Context, cfg *config.Config, schools []catalog.School) error {
	if cfg.MongoDB.URI == "" {
		return errors.New("MONGODB_URI is required to seed")
	}
	client, err := database.ConnectMongoWithRetry(ctx, cfg.MongoDB.URI, cfg.MongoDB.Timeout, 3, 0)
	if err != nil {
		return err
	}
	defer func() { _ = client.Disconnect(context.Background()) }()

	repo, err := catalogrepo.NewMongoRepo(ctx, client.Database(cfg.MongoDB.Database).Collection(server.SchoolsCollection))
	if err != nil {
		return err
	}
	inserted, modified, err := repo.Seed(ctx, schools)
	if err != nil {
		return fmt.Errorf("seed schools: %w", err)
	}
	logger.Infow("catalog seeded", "schools", len(schools), "inserted", inserted, "modified", modified)

	rdb, err := database.ConnectRedis(ctx, cfg.Redis)
	if err != nil {
		logger.Warnf("search cache not invalidated: %v", err)
		return nil
	}
	if rdb == nil {
		return nil
	}
	defer rdb.Close()
	n, err := search.NewRedisCache(rdb).Invalidate(ctx)
	if err != nil {
		logger.Warnf("search cache invalidation: %v", err)
		return nil
	}
	logger.Infof("dropped %d cached search pages", n)
	return nil
}
