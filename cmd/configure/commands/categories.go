package commands

import (
	"context"
	"fmt"
	"os"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/taskmind/taskmind/internal/config"
	"github.com/taskmind/taskmind/internal/database"
	"github.com/taskmind/taskmind/internal/models"
)

// defaultGlobalCategories are seeded by "categories seed" when missing
var defaultGlobalCategories = []string{
	"Work",
	"Personal",
	"Health",
	"Finance",
	"Errands",
	"Learning",
}

// NewCategoriesCmd creates the categories command group
func NewCategoriesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "categories",
		Short: "Manage global categories",
		Long:  "List and seed the global categories shared by all users",
	}

	cmd.AddCommand(newCategoriesListCmd())
	cmd.AddCommand(newCategoriesSeedCmd())

	return cmd
}

func newCategoriesListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List global categories",
		RunE: func(cmd *cobra.Command, args []string) error {
			repo, cleanup, err := openCategoryRepo()
			if err != nil {
				return err
			}
			defer cleanup()

			categories, err := repo.GetGlobal(context.Background())
			if err != nil {
				return fmt.Errorf("failed to list global categories: %w", err)
			}

			if len(categories) == 0 {
				fmt.Println("No global categories configured")
				return nil
			}

			fmt.Println("Global categories:")
			for _, category := range categories {
				fmt.Printf("  - %s (used %d times)\n", category.Name, category.UsageFrequency)
			}

			return nil
		},
	}
}

func newCategoriesSeedCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "seed",
		Short: "Seed the default global categories",
		Long:  "Create the default global categories, skipping any that already exist",
		RunE: func(cmd *cobra.Command, args []string) error {
			repo, cleanup, err := openCategoryRepo()
			if err != nil {
				return err
			}
			defer cleanup()

			ctx := context.Background()

			existing, err := repo.GetGlobal(ctx)
			if err != nil {
				return fmt.Errorf("failed to list global categories: %w", err)
			}
			present := make(map[string]bool, len(existing))
			for _, category := range existing {
				present[category.Name] = true
			}

			created := 0
			for _, name := range defaultGlobalCategories {
				if present[name] {
					continue
				}
				category := &models.Category{
					ID:   uuid.New(),
					Name: name,
				}
				if err := repo.Create(ctx, category); err != nil {
					return fmt.Errorf("failed to create category %q: %w", name, err)
				}
				fmt.Printf("Created global category: %s\n", name)
				created++
			}

			if created == 0 {
				fmt.Println("All default global categories already exist")
			}

			return nil
		},
	}
}

func openCategoryRepo() (*database.CategoryRepository, func(), error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load config: %w", err)
	}

	db, err := database.New(cfg.DatabaseURL)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	cleanup := func() {
		if err := db.Close(); err != nil {
			fmt.Fprintf(os.Stderr, "Warning: failed to close database: %v\n", err)
		}
	}

	return database.NewCategoryRepository(db), cleanup, nil
}
