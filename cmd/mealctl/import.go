package main

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"gorm.io/gorm"

	"nutriplan/internal/apperr"
	"nutriplan/internal/service"
	"nutriplan/internal/store"
	"nutriplan/models"
)

func newImportCmd(envFor func() (*env, error)) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "import",
		Short: "Import catalogue data from CSV files",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "meals <csv>",
		Short: "Add or update meals, matched by name",
		Long: `Import meals from a CSV file with a header row.

COLUMNS:

  name (required), description, category, serving_size, calories, protein,
  carbohydrates, fat, fiber, sugar, sodium, ingredients, is_vegetarian,
  is_vegan, is_gluten_free, is_dairy_free, is_nut_free, is_halal, is_kosher

Meals whose name already exists (case-insensitive) are updated in place and
keep their ratings.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := envFor()
			if err != nil {
				return err
			}
			created, updated, err := importMeals(cmd, e, args[0])
			if err != nil {
				return err
			}
			color.New(color.FgGreen).Fprintf(cmd.OutOrStdout(),
				"Imported %d meals from %s (%d new, %d updated)\n",
				created+updated, filepath.Base(args[0]), created, updated)
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "ratings <csv>",
		Short: "Add or overwrite user ratings",
		Long: `Import ratings from a CSV file with the columns user_id, meal_id,
rating (1-5) and an optional review. A later row for the same user and meal
overwrites an earlier one.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := envFor()
			if err != nil {
				return err
			}
			n, err := importRatings(cmd, e, args[0])
			if err != nil {
				return err
			}
			color.New(color.FgGreen).Fprintf(cmd.OutOrStdout(),
				"Imported %d ratings from %s\n", n, filepath.Base(args[0]))
			return nil
		},
	})
	return cmd
}

func importMeals(cmd *cobra.Command, e *env, path string) (created, updated int, err error) {
	records, err := readCSV(path)
	if err != nil {
		return 0, 0, fmt.Errorf("read csv: %w", err)
	}

	ctx := cmd.Context()
	for idx, record := range records {
		meal, err := buildMeal(record)
		if err != nil {
			return created, updated, fmt.Errorf("record %d: %w", idx+1, err)
		}

		isNew := false
		err = e.db.Transaction(func(tx *gorm.DB) error {
			meals := store.New(tx).Meals
			existing, err := meals.FindByName(ctx, meal.Name)
			switch {
			case apperr.IsNotFound(err):
				isNew = true
				return meals.Create(ctx, meal)
			case err != nil:
				return err
			}
			meal.ID = existing.ID
			meal.CreatedAt = existing.CreatedAt
			meal.CreatedByUserID = existing.CreatedByUserID
			return meals.Update(ctx, meal)
		})
		if err != nil {
			return created, updated, fmt.Errorf("record %d (%s): %w", idx+1, meal.Name, err)
		}
		if isNew {
			created++
		} else {
			updated++
		}
	}
	return created, updated, nil
}

func buildMeal(record map[string]string) (*models.Meal, error) {
	meal := &models.Meal{
		Name:        normalizeText(record["name"]),
		Description: normalizeText(record["description"]),
		Category:    normalizeValue(record["category"]),
		ServingSize: normalizeValue(record["serving_size"]),
		Ingredients: strings.Join(models.SplitList(record["ingredients"]), ", "),
	}

	numbers := []struct {
		key string
		dst *float64
	}{
		{"calories", &meal.Calories},
		{"protein", &meal.Protein},
		{"carbohydrates", &meal.Carbohydrates},
		{"fat", &meal.Fat},
		{"fiber", &meal.Fiber},
		{"sugar", &meal.Sugar},
		{"sodium", &meal.Sodium},
	}
	for _, n := range numbers {
		v, err := parseNumber(record, n.key)
		if err != nil {
			return nil, err
		}
		*n.dst = v
	}

	flags := []struct {
		key string
		dst *bool
	}{
		{"is_vegetarian", &meal.IsVegetarian},
		{"is_vegan", &meal.IsVegan},
		{"is_gluten_free", &meal.IsGlutenFree},
		{"is_dairy_free", &meal.IsDairyFree},
		{"is_nut_free", &meal.IsNutFree},
		{"is_halal", &meal.IsHalal},
		{"is_kosher", &meal.IsKosher},
	}
	for _, f := range flags {
		v, err := parseFlag(record, f.key)
		if err != nil {
			return nil, err
		}
		*f.dst = v
	}

	if err := service.NormalizeMeal(meal); err != nil {
		return nil, err
	}
	return meal, nil
}

func importRatings(cmd *cobra.Command, e *env, path string) (int, error) {
	records, err := readCSV(path)
	if err != nil {
		return 0, fmt.Errorf("read csv: %w", err)
	}

	ctx := cmd.Context()
	imported := 0
	for idx, record := range records {
		userID, err := parseID(record, "user_id")
		if err != nil {
			return imported, fmt.Errorf("record %d: %w", idx+1, err)
		}
		mealID, err := parseID(record, "meal_id")
		if err != nil {
			return imported, fmt.Errorf("record %d: %w", idx+1, err)
		}
		value, err := parseNumber(record, "rating")
		if err != nil {
			return imported, fmt.Errorf("record %d: %w", idx+1, err)
		}
		if value < models.MinRating || value > models.MaxRating {
			return imported, fmt.Errorf("record %d: rating %.1f outside %.0f-%.0f", idx+1, value, models.MinRating, models.MaxRating)
		}

		if _, err := e.stores.Users.Get(ctx, userID); err != nil {
			return imported, fmt.Errorf("record %d: %w", idx+1, err)
		}
		if _, err := e.stores.Ratings.Upsert(ctx, userID, mealID, value, normalizeText(record["review"])); err != nil {
			return imported, fmt.Errorf("record %d: %w", idx+1, err)
		}
		imported++
	}
	return imported, nil
}
