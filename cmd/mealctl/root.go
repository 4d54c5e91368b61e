package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"
	"gorm.io/gorm"

	"nutriplan/internal/collab"
	"nutriplan/internal/config"
	"nutriplan/internal/db"
	"nutriplan/internal/db/mock"
	"nutriplan/internal/ingredients"
	applog "nutriplan/internal/log"
	"nutriplan/internal/snapshot"
	"nutriplan/internal/store"
)

// env is the database and model wiring shared by every subcommand.
type env struct {
	db     *gorm.DB
	stores *store.Stores
	collab *collab.Service
	index  *ingredients.Service
	close  func() error
}

type opener func(ctx context.Context) (*env, error)

func newEnv(database *gorm.DB, snapshots snapshot.Store, closeFn func() error) *env {
	stores := store.New(database)
	return &env{
		db:     database,
		stores: stores,
		collab: collab.NewService(collab.DefaultConfig(), stores.Ratings, snapshots),
		index:  ingredients.NewService(stores.Meals, snapshots),
		close:  closeFn,
	}
}

func openFromConfig(ctx context.Context) (*env, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if err := applog.SetLevel(cfg.Logging.Level); err != nil {
		return nil, err
	}
	if err := applog.SetFormat(cfg.Logging.Format); err != nil {
		return nil, err
	}

	var database *gorm.DB
	if cfg.Database.UseMock {
		database, err = mock.New(ctx)
	} else {
		database, err = db.Configure(cfg.Database)
	}
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	snapshots, closeSnapshots, err := snapshot.Open(cfg.Models.SnapshotBackend, cfg.Models.Dir)
	if err != nil {
		return nil, fmt.Errorf("open snapshots: %w", err)
	}
	return newEnv(database, snapshots, closeSnapshots), nil
}

func newRootCmd(open opener) *cobra.Command {
	var current *env

	root := &cobra.Command{
		Use:   "mealctl",
		Short: "Manage the meal catalogue and recommendation models",
		Long: `mealctl imports meals and ratings from CSV files and trains the
recommendation models against the configured database.

EXAMPLES:

  mealctl import meals meals.csv      # Add or update meals by name
  mealctl import ratings ratings.csv  # Add or overwrite user ratings
  mealctl train                       # Retrain both models
  mealctl train collab                # Retrain the collaborative model only
  mealctl status                      # Show catalogue and model status`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if cmd.Name() == "help" || cmd.Name() == "completion" {
				return nil
			}
			e, err := open(cmd.Context())
			if err != nil {
				return err
			}
			current = e
			return nil
		},
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			if current == nil || current.close == nil {
				return nil
			}
			err := current.close()
			current = nil
			return err
		},
	}

	envFor := func() (*env, error) {
		if current == nil {
			return nil, errors.New("environment not initialised")
		}
		return current, nil
	}

	root.AddCommand(
		newImportCmd(envFor),
		newTrainCmd(envFor),
		newStatusCmd(envFor),
	)
	return root
}
