package main

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

func newStatusCmd(envFor func() (*env, error)) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show catalogue size and model status",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := envFor()
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			out := cmd.OutOrStdout()

			meals, err := e.stores.Meals.Count(ctx)
			if err != nil {
				return err
			}
			fmt.Fprintf(out, "meals:        %d\n", meals)

			ok := color.New(color.FgGreen)
			missing := color.New(color.FgYellow)

			if st := e.collab.Status(ctx); st.Available {
				ok.Fprintf(out, "collab:       trained v%d (%d users, %d meals, %d ratings)\n",
					st.Version, st.Users, st.Meals, st.Ratings)
			} else {
				missing.Fprintln(out, "collab:       not trained")
			}

			if st := e.index.Status(ctx); st.Trained {
				ok.Fprintf(out, "ingredients:  trained (%d recipes, %d terms)\n", st.RecipesCount, st.VocabularySize)
			} else {
				missing.Fprintln(out, "ingredients:  not trained")
			}
			return nil
		},
	}
}
