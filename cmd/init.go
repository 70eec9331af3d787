package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/Lumos-Labs-HQ/sprout/internal/config"
)

const defaultConfigFile = `{
  "version": "1",
  "seeds_path": "db/seeds",
  "database": {
    "provider": "postgresql",
    "url_env": "DATABASE_URL"
  }
}
`

const exampleSeedFile = `# Seed files declare the rows your database should contain. Re-running
# 'sprout seed' reconciles the database against them without duplicates.
tables:
  - table: countries
    # Columns used to match a record against an existing row.
    constraints: [code]
    records:
      - code: US
        name: United States
      - code: CA
        name: Canada
`

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize a new sprout project",
	Long:  `Create a sprout configuration file and a seeds directory with an example seed file.`,
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return initializeProject()
	},
}

func init() {
	rootCmd.AddCommand(initCmd)
}

func initializeProject() error {
	cfg := config.DefaultConfig()
	if err := cfg.EnsureDirectories(); err != nil {
		return err
	}

	if _, err := os.Stat("sprout.config.json"); os.IsNotExist(err) {
		if err := os.WriteFile("sprout.config.json", []byte(defaultConfigFile), 0644); err != nil {
			return fmt.Errorf("failed to create sprout.config.json: %w", err)
		}
	} else {
		fmt.Println("ℹ️  Skipped sprout.config.json (already exists)")
	}

	examplePath := cfg.SeedsPath + "/001_countries.yaml"
	if _, err := os.Stat(examplePath); os.IsNotExist(err) {
		if existing, err := cfg.GetSeedFiles(); err == nil && len(existing) > 0 {
			fmt.Println("ℹ️  Skipped example seed file (db/seeds already has seed files)")
		} else if err := os.WriteFile(examplePath, []byte(exampleSeedFile), 0644); err != nil {
			return fmt.Errorf("failed to create %s: %w", examplePath, err)
		}
	}

	fmt.Println("✅ Successfully initialized sprout project")
	fmt.Println()
	fmt.Println("📁 Project structure created:")
	fmt.Printf("   %s/\n", cfg.SeedsPath)
	fmt.Println()
	fmt.Println("🚀 Next steps:")
	fmt.Println("   edit db/seeds/001_countries.yaml  # Declare your seed records")
	fmt.Println("   sprout seed                       # Reconcile them into the database")

	return nil
}
