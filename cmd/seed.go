package cmd

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/Lumos-Labs-HQ/sprout/internal/config"
	"github.com/Lumos-Labs-HQ/sprout/internal/database"
	"github.com/Lumos-Labs-HQ/sprout/internal/seeder"

	_ "github.com/go-sql-driver/mysql"
	_ "github.com/jackc/pgx/v5/stdlib"
	_ "github.com/mattn/go-sqlite3"
)

var (
	seedFile       string
	seedInsertOnly bool
	seedDryRun     bool
)

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Apply seed files to the database",
	Long: `Reconcile the records declared in your YAML seed files against the database.
Existing rows are matched through each table's constraint columns and updated
in place; missing rows are inserted. Every file runs as one transaction.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}
		if err := cfg.Validate(); err != nil {
			return err
		}

		dbURL, err := cfg.GetDatabaseURL()
		if err != nil {
			return err
		}

		db, err := openDB(cfg.Database.Provider, dbURL)
		if err != nil {
			return fmt.Errorf("failed to connect to database: %w", err)
		}

		gw := database.NewGateway(cfg.Database.Provider, db)
		defer gw.Close()

		seeder.SetQuietDefault(cfg.Quiet || quietFlag || viper.GetBool("quiet"))

		var files []*seeder.SeedFile
		if seedFile != "" {
			file, err := seeder.LoadSeedFile(seedFile)
			if err != nil {
				return err
			}
			files = append(files, file)
		} else {
			files, err = seeder.LoadSeedDir(cfg.SeedsPath)
			if err != nil {
				return err
			}
		}

		if len(files) == 0 {
			color.Yellow("⚠️  No seed files found in %s", cfg.SeedsPath)
			return nil
		}

		return runSeedFiles(cmd.Context(), gw, files)
	},
}

func openDB(provider, url string) (*sql.DB, error) {
	var driverName string
	switch provider {
	case "postgresql", "postgres":
		driverName = "pgx"
	case "mysql":
		driverName = "mysql"
	case "sqlite", "sqlite3":
		driverName = "sqlite3"
	default:
		driverName = "pgx"
	}

	db, err := sql.Open(driverName, url)
	if err != nil {
		return nil, err
	}

	if err := db.Ping(); err != nil {
		return nil, err
	}

	return db, nil
}

func runSeedFiles(ctx context.Context, gw database.Gateway, files []*seeder.SeedFile) error {
	color.Cyan("🌱 Starting database seeding...")

	total := 0
	for _, file := range files {
		color.White("📄 %s", file.Path)

		for _, table := range file.Tables {
			engine, err := seeder.New(ctx, gw, table.Table, table.Constraints, table.Records, nil)
			if err != nil {
				return fmt.Errorf("failed to seed %s: %w", table.Table, err)
			}

			if seedDryRun {
				color.Yellow("  🔍 would seed %s (%d records)", table.Table, len(table.Records))
				continue
			}

			opts := seeder.DefaultOptions()
			opts.InsertOnly = table.InsertOnly || seedInsertOnly

			rows, err := engine.Seed(ctx, opts)
			if err != nil {
				return fmt.Errorf("failed to seed %s: %w", table.Table, err)
			}

			color.Green("  ✅ %s: %d records reconciled", table.Table, len(rows))
			total += len(rows)
		}
	}

	if seedDryRun {
		color.Yellow("🔍 Dry run, nothing written")
		return nil
	}

	color.Green("\n✅ Database seeding completed successfully! (%d records)", total)
	return nil
}

func init() {
	rootCmd.AddCommand(seedCmd)
	seedCmd.Flags().StringVar(&seedFile, "file", "", "Run a specific seed file")
	seedCmd.Flags().BoolVar(&seedInsertOnly, "insert-only", false, "Only create missing rows, never update matched ones")
	seedCmd.Flags().BoolVar(&seedDryRun, "dry-run", false, "Validate seed files without writing")
}
