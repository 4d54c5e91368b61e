package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"gorm.io/gorm"

	"nutriplan/internal/collab"
	"nutriplan/internal/config"
	"nutriplan/internal/handlers"
	"nutriplan/internal/ingredients"
	applog "nutriplan/internal/log"
	"nutriplan/internal/planner"
	"nutriplan/internal/recommend"
	"nutriplan/internal/retrain"
	"nutriplan/internal/service"
	"nutriplan/internal/snapshot"
	"nutriplan/internal/store"
)

// app holds the wired services and the resources that need closing.
type app struct {
	API      *handlers.API
	Collab   *collab.Service
	Index    *ingredients.Service
	Cache    *recommend.Cache
	Notifier retrain.Notifier

	closers []func() error
}

func buildApp(ctx context.Context, cfg config.Config, database *gorm.DB) (*app, error) {
	a := &app{}
	stores := store.New(database)

	snapshots, closeSnapshots, err := snapshot.Open(cfg.Models.SnapshotBackend, cfg.Models.Dir)
	if err != nil {
		return nil, err
	}
	a.closers = append(a.closers, closeSnapshots)

	a.Collab = collab.NewService(collab.DefaultConfig(), stores.Ratings, snapshots)
	a.Index = ingredients.NewService(stores.Meals, snapshots)
	a.Cache = recommend.NewCache(cfg.Recommend.CacheTTL)
	hybrid := recommend.NewHybrid(stores.Users, stores.Meals, stores.Preferences, stores.Consumption, a.Collab, a.Cache)

	notifier, err := a.retrainNotifier(ctx, cfg.Models)
	if err != nil {
		_ = a.Close()
		return nil, err
	}
	a.Notifier = notifier

	a.API = handlers.New(handlers.Deps{
		Users:       service.NewUsers(stores.Users, stores.Preferences, a.Cache),
		MealLog:     service.NewMealLog(stores.Users, stores.Meals, stores.Consumption, a.Cache),
		Ratings:     service.NewRatings(stores.Users, stores.Meals, stores.Ratings, a.Cache, notifier),
		Catalogue:   service.NewCatalogue(stores.Users, stores.Meals, a.Index, notifier),
		Saved:       service.NewSaved(stores.Users, stores.Saved),
		Recommender: hybrid,
		Planner:     planner.New(stores.Users, stores.Preferences, stores.Meals, cfg.Recommend.PlannerSeed),
		Collab:      a.Collab,
	})
	return a, nil
}

// jobs lists the retrains triggered by each change topic. New meals change
// the catalogue the collaborative model scores, so both models rebuild.
func (a *app) jobs() retrain.Jobs {
	collabJob := retrain.Job{Name: "collaborative", Run: func(ctx context.Context) error {
		_, err := a.Collab.Retrain(ctx)
		return err
	}}
	indexJob := retrain.Job{Name: "ingredients", Run: func(ctx context.Context) error {
		_, err := a.Index.Retrain(ctx)
		return err
	}}
	return retrain.Jobs{
		retrain.TopicRatingsChanged: {collabJob},
		retrain.TopicMealsChanged:   {indexJob, collabJob},
	}
}

func (a *app) clearCache(context.Context) {
	a.Cache.Clear()
}

func (a *app) retrainNotifier(ctx context.Context, cfg config.ModelConfig) (retrain.Notifier, error) {
	if cfg.RetrainMode == config.RetrainSync {
		return retrain.NewInline(a.jobs(), a.clearCache), nil
	}

	pubsub := retrain.NewPubSub()
	worker := retrain.NewWorker(pubsub, a.jobs(), cfg.RetrainDebounce, a.clearCache)
	workerCtx, stop := context.WithCancel(ctx)
	done := make(chan struct{})
	go func() {
		defer close(done)
		if err := worker.Run(workerCtx); err != nil && !errors.Is(err, context.Canceled) {
			applog.Error(ctx, "retrain worker stopped", "error", err)
		}
	}()
	a.closers = append(a.closers, closePubSub(pubsub, stop, done))

	select {
	case <-worker.Ready():
	case <-done:
		return nil, fmt.Errorf("retrain worker exited before subscribing")
	}
	return retrain.NewPublisher(pubsub), nil
}

func closePubSub(pubsub *gochannel.GoChannel, stop context.CancelFunc, done <-chan struct{}) func() error {
	return func() error {
		stop()
		err := pubsub.Close()
		<-done
		return err
	}
}

// bootstrapModels loads persisted models and retrains any that are missing
// or unreadable.
func (a *app) bootstrapModels(ctx context.Context) {
	if _, err := a.Index.EnsureLoaded(ctx); err != nil {
		applog.Info(ctx, "ingredient matcher unavailable, training", "reason", err)
		if _, err := a.Index.Retrain(ctx); err != nil {
			applog.Warn(ctx, "ingredient matcher not trained", "error", err)
		}
	}

	if _, err := a.Collab.EnsureLoaded(ctx); err != nil {
		applog.Info(ctx, "collaborative model unavailable, training", "reason", err)
		if _, err := a.Collab.Retrain(ctx); err != nil {
			applog.Warn(ctx, "collaborative model not trained", "error", err)
		}
	}
}

// Close releases resources in reverse order of acquisition.
func (a *app) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	return errors.Join(errs...)
}
