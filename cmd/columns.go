package cmd

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/Lumos-Labs-HQ/sprout/internal/config"
	"github.com/Lumos-Labs-HQ/sprout/internal/database"
)

var columnsCmd = &cobra.Command{
	Use:   "columns <table>",
	Short: "Show the column metadata sprout sees for a table",
	Long: `Print the column snapshot the seeding engine works from: name, type,
nullability, schema default and primary-key flags. Useful for checking which
columns are valid constraint columns for a seed file.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
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

		columns, err := gw.ListColumns(cmd.Context(), args[0])
		if err != nil {
			return err
		}

		color.Cyan("📊 %s (%d columns)", args[0], len(columns))
		for _, col := range columns {
			line := fmt.Sprintf("  %-24s %-20s", col.Name, col.Type)
			if !col.Nullable {
				line += " NOT NULL"
			}
			if col.Default != "" {
				line += fmt.Sprintf(" DEFAULT %s", col.Default)
			}
			if col.IsPrimary {
				line += " PRIMARY KEY"
			}
			if col.IsAutoIncrement {
				line += " AUTO INCREMENT"
			}
			fmt.Println(line)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(columnsCmd)
}
