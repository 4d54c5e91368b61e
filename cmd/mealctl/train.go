package main

import (
	"fmt"
	"io"
	"sync"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

const (
	modelCollab      = "collab"
	modelIngredients = "ingredients"
	modelAll         = "all"
)

func newTrainCmd(envFor func() (*env, error)) *cobra.Command {
	return &cobra.Command{
		Use:       "train [collab|ingredients|all]",
		Short:     "Retrain recommendation models and persist their snapshots",
		Args:      cobra.MatchAll(cobra.MaximumNArgs(1), cobra.OnlyValidArgs),
		ValidArgs: []string{modelCollab, modelIngredients, modelAll},
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := envFor()
			if err != nil {
				return err
			}
			target := modelAll
			if len(args) == 1 {
				target = args[0]
			}

			out := &lockedWriter{w: cmd.OutOrStdout()}
			g, ctx := errgroup.WithContext(cmd.Context())
			if target == modelCollab || target == modelAll {
				g.Go(func() error {
					stats, err := e.collab.Retrain(ctx)
					if err != nil {
						return fmt.Errorf("train collaborative model: %w", err)
					}
					color.New(color.FgGreen).Fprintf(out,
						"collaborative model v%d: %d users, %d meals, %d ratings\n",
						stats.Version, stats.Users, stats.Meals, stats.Ratings)
					return nil
				})
			}
			if target == modelIngredients || target == modelAll {
				g.Go(func() error {
					status, err := e.index.Retrain(ctx)
					if err != nil {
						return fmt.Errorf("train ingredient matcher: %w", err)
					}
					color.New(color.FgGreen).Fprintf(out,
						"ingredient matcher: %d recipes, %d terms\n",
						status.RecipesCount, status.VocabularySize)
					return nil
				})
			}
			return g.Wait()
		},
	}
}

// lockedWriter serialises writes from concurrent training jobs.
type lockedWriter struct {
	mu sync.Mutex
	w  io.Writer
}

func (l *lockedWriter) Write(p []byte) (int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.w.Write(p)
}
