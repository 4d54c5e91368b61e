package mock

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"nutriplan/internal/db"
	applog "nutriplan/internal/log"
	"nutriplan/internal/nutrition"
	"nutriplan/models"
)

// Open returns an empty, migrated in-memory sqlite database. Each call gets
// its own database so parallel callers never share rows.
func Open(ctx context.Context) (*gorm.DB, error) {
	dsn := fmt.Sprintf("file:nutriplan-%s?mode=memory&cache=shared", uuid.NewString())
	database, err := gorm.Open(sqlite.Open(dsn), db.GormConfig(logger.Silent))
	if err != nil {
		return nil, err
	}

	sqlDB, err := database.DB()
	if err != nil {
		return nil, err
	}
	// A single connection keeps the in-memory database alive and serialises writers.
	sqlDB.SetMaxOpenConns(1)

	if err := db.AutoMigrate(database); err != nil {
		return nil, err
	}
	applog.Debug(ctx, "mock database opened", "dsn", dsn)
	return database, nil
}

// New returns an in-memory sqlite database seeded with a representative
// catalogue, a few users and their ratings.
func New(ctx context.Context) (*gorm.DB, error) {
	applog.Debug(ctx, "initialising mock database")

	database, err := Open(ctx)
	if err != nil {
		return nil, err
	}

	if err := seed(ctx, database); err != nil {
		return nil, err
	}

	applog.Debug(ctx, "mock database ready")
	return database, nil
}

type mealSeed struct {
	name, description, category, serving, ingredients string
	calories, protein, carbs, fat, fiber, sugar, sodium float64
	flags                                               models.DietaryFlags
}

var catalogue = []mealSeed{
	{"Oatmeal with Berries", "Steel-cut oats with mixed berries and honey", models.CategoryBreakfast, "1 bowl", "oats, blueberries, strawberries, honey, almond milk",
		350, 12, 58, 8, 8, 25, 5, models.DietaryFlags{Vegetarian: true, Vegan: true, DairyFree: true}},
	{"Greek Yogurt Parfait", "Greek yogurt layered with granola and berries", models.CategoryBreakfast, "1 cup", "greek yogurt, granola, blueberries, honey",
		310, 20, 40, 7, 4, 22, 80, models.DietaryFlags{Vegetarian: true, GlutenFree: false}},
	{"Spinach Egg Scramble", "Scrambled eggs with spinach and feta", models.CategoryBreakfast, "1 plate", "eggs, spinach, feta cheese, olive oil",
		290, 22, 4, 20, 2, 2, 420, models.DietaryFlags{Vegetarian: true, GlutenFree: true, NutFree: true, Halal: true}},
	{"Avocado Toast", "Sourdough toast with smashed avocado and chili flakes", models.CategoryBreakfast, "2 slices", "sourdough bread, avocado, lemon, chili flakes",
		380, 10, 44, 18, 9, 3, 390, models.DietaryFlags{Vegetarian: true, Vegan: true, DairyFree: true, NutFree: true}},
	{"Greek Salad", "Fresh vegetables with feta cheese and olives", models.CategoryLunch, "1 serving", "cucumber, tomato, feta cheese, olives, red onion, olive oil",
		320, 12, 25, 22, 6, 8, 850, models.DietaryFlags{Vegetarian: true, GlutenFree: true, NutFree: true}},
	{"Chicken Caesar Wrap", "Grilled chicken with romaine and caesar dressing in a tortilla", models.CategoryLunch, "1 wrap", "chicken breast, romaine lettuce, parmesan, tortilla, caesar dressing",
		520, 38, 42, 20, 3, 4, 980, models.DietaryFlags{NutFree: true}},
	{"Lentil Soup", "Hearty red lentil soup with cumin", models.CategoryLunch, "1 bowl", "red lentils, carrot, onion, cumin, vegetable stock",
		280, 18, 45, 3, 15, 6, 600, models.DietaryFlags{Vegetarian: true, Vegan: true, GlutenFree: true, DairyFree: true, NutFree: true, Halal: true, Kosher: true}},
	{"Quinoa Buddha Bowl", "Quinoa with roasted chickpeas, kale and tahini", models.CategoryLunch, "1 bowl", "quinoa, chickpeas, kale, tahini, sweet potato",
		540, 20, 70, 20, 14, 9, 420, models.DietaryFlags{Vegetarian: true, Vegan: true, GlutenFree: true, DairyFree: true, Halal: true, Kosher: true}},
	{"Grilled Chicken Breast", "Lean grilled chicken breast with herbs", models.CategoryDinner, "100g", "chicken breast, garlic, rosemary, olive oil",
		231, 43.5, 0, 5, 0, 0, 78, models.DietaryFlags{GlutenFree: true, DairyFree: true, NutFree: true, Halal: true}},
	{"Salmon Fillet with Quinoa", "Baked salmon with quinoa and steamed vegetables", models.CategoryDinner, "1 plate", "salmon, quinoa, broccoli, lemon, olive oil",
		485, 38, 42, 18, 6, 3, 310, models.DietaryFlags{GlutenFree: true, DairyFree: true, NutFree: true, Kosher: true}},
	{"Beef Stir Fry", "Sliced beef with peppers and broccoli in soy glaze", models.CategoryDinner, "1 plate", "beef, bell pepper, broccoli, soy sauce, rice, ginger",
		610, 42, 60, 20, 4, 10, 1100, models.DietaryFlags{DairyFree: true, NutFree: true}},
	{"Vegetable Curry", "Mixed vegetables simmered in coconut curry", models.CategoryDinner, "1 bowl", "cauliflower, chickpeas, coconut milk, curry paste, rice, spinach",
		560, 15, 72, 22, 10, 12, 700, models.DietaryFlags{Vegetarian: true, Vegan: true, GlutenFree: true, DairyFree: true, Halal: true}},
	{"Mixed Nuts", "Roasted almonds, cashews and walnuts", models.CategorySnack, "30g", "almonds, cashews, walnuts, sea salt",
		180, 5, 6, 16, 2, 1, 90, models.DietaryFlags{Vegetarian: true, Vegan: true, GlutenFree: true, DairyFree: true, Halal: true, Kosher: true}},
	{"Apple with Peanut Butter", "Sliced apple with natural peanut butter", models.CategorySnack, "1 apple", "apple, peanut butter",
		250, 7, 30, 16, 5, 19, 150, models.DietaryFlags{Vegetarian: true, Vegan: true, GlutenFree: true, DairyFree: true}},
	{"Hummus and Carrots", "Classic hummus with carrot sticks", models.CategorySnack, "1 cup", "chickpeas, tahini, lemon, garlic, carrot",
		200, 7, 22, 10, 7, 5, 300, models.DietaryFlags{Vegetarian: true, Vegan: true, GlutenFree: true, DairyFree: true, Halal: true, Kosher: true}},
	{"Protein Shake", "Whey protein blended with banana and milk", models.CategorySnack, "1 glass", "whey protein, banana, milk",
		300, 32, 30, 6, 3, 18, 160, models.DietaryFlags{Vegetarian: true, GlutenFree: true, NutFree: true}},
}

type userSeed struct {
	email, username, first, last, gender, activity, goal string
	age                                                  int
	height, weight                                       float64
	pref                                                 models.Preference
}

var people = []userSeed{
	{"alex@nutriplan.app", "alex", "Alex", "Moreno", models.GenderMale, models.ActivityModeratelyActive, models.GoalMaintenance, 30, 175, 70,
		models.Preference{FavoriteIngredients: "chicken, quinoa", PreferredCuisine: "greek"}},
	{"sam@nutriplan.app", "sam", "Sam", "Okafor", models.GenderFemale, models.ActivityLightlyActive, models.GoalWeightLoss, 28, 165, 68,
		models.Preference{Vegetarian: true, DislikedIngredients: "olives"}},
	{"jo@nutriplan.app", "jo", "Jo", "Lindqvist", models.GenderOther, models.ActivityVeryActive, models.GoalMuscleGain, 35, 180, 82,
		models.Preference{FavoriteIngredients: "salmon, beef"}},
}

// ratings by user index, keyed by catalogue index.
var ratings = []map[int]float64{
	{0: 4, 4: 5, 5: 4, 8: 5, 9: 4, 12: 3},
	{0: 5, 1: 4, 4: 2, 6: 5, 7: 4, 11: 5, 14: 4},
	{2: 4, 5: 5, 8: 5, 9: 5, 10: 4, 15: 5},
}

func seed(ctx context.Context, database *gorm.DB) error {
	applog.Debug(ctx, "seeding mock database")

	return database.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		meals := make([]models.Meal, len(catalogue))
		for i, s := range catalogue {
			meals[i] = models.Meal{
				Name:          s.name,
				Description:   s.description,
				Category:      s.category,
				ServingSize:   s.serving,
				Calories:      s.calories,
				Protein:       s.protein,
				Carbohydrates: s.carbs,
				Fat:           s.fat,
				Fiber:         s.fiber,
				Sugar:         s.sugar,
				Sodium:        s.sodium,
				IsVegetarian:  s.flags.Vegetarian,
				IsVegan:       s.flags.Vegan,
				IsGlutenFree:  s.flags.GlutenFree,
				IsDairyFree:   s.flags.DairyFree,
				IsNutFree:     s.flags.NutFree,
				IsHalal:       s.flags.Halal,
				IsKosher:      s.flags.Kosher,
				Ingredients:   s.ingredients,
			}
		}
		if err := tx.Create(&meals).Error; err != nil {
			return fmt.Errorf("seed meals: %w", err)
		}

		for i, p := range people {
			user := models.User{
				Email:         p.email,
				Username:      p.username,
				FirstName:     p.first,
				LastName:      p.last,
				Age:           p.age,
				Gender:        p.gender,
				Height:        p.height,
				Weight:        p.weight,
				ActivityLevel: p.activity,
				Goal:          p.goal,
			}
			if targets, ok := nutrition.ComputeTargets(nutrition.ProfileFromUser(&user, nil)); ok {
				user.DailyCalorieTarget = &targets.Calories
				user.DailyProteinTarget = &targets.Protein
				user.DailyCarbTarget = &targets.Carbohydrates
				user.DailyFatTarget = &targets.Fat
			}
			if err := tx.Create(&user).Error; err != nil {
				return fmt.Errorf("seed user %s: %w", p.username, err)
			}

			pref := p.pref
			pref.UserID = user.ID
			if err := tx.Create(&pref).Error; err != nil {
				return fmt.Errorf("seed preference %s: %w", p.username, err)
			}

			for mealIdx, value := range ratings[i] {
				rating := models.MealRating{UserID: user.ID, MealID: meals[mealIdx].ID, Rating: value}
				if err := tx.Create(&rating).Error; err != nil {
					return fmt.Errorf("seed rating: %w", err)
				}
			}
		}

		for i := range meals {
			var sum float64
			var count int
			for _, byMeal := range ratings {
				if v, ok := byMeal[i]; ok {
					sum += v
					count++
				}
			}
			if count == 0 {
				continue
			}
			if err := tx.Model(&meals[i]).Updates(map[string]any{
				"average_rating": sum / float64(count),
				"rating_count":   count,
			}).Error; err != nil {
				return fmt.Errorf("seed rating aggregate: %w", err)
			}
		}

		applog.Debug(ctx, "mock database seeded", "meals", len(meals), "users", len(people))
		return nil
	})
}
