package cmd

import (
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	cfgFile   string
	quietFlag bool
	Version   = "1.3.2"
)

func showBanner() {
	greenColor := color.New(color.FgGreen, color.Bold)

	banner := []string{
		"╔══════════════════════════════════════════════╗",
		"║   ███████╗██████╗ ██████╗  ██████╗ ██╗   ██╗████████╗",
		"║   ██╔════╝██╔══██╗██╔══██╗██╔═══██╗██║   ██║╚══██╔══╝",
		"║   ███████╗██████╔╝██████╔╝██║   ██║██║   ██║   ██║",
		"║   ╚════██║██╔═══╝ ██╔══██╗██║   ██║██║   ██║   ██║",
		"║   ███████║██║     ██║  ██║╚██████╔╝╚██████╔╝   ██║",
		"║   ╚══════╝╚═╝     ╚═╝  ╚═╝ ╚═════╝  ╚═════╝    ╚═╝",
		"║                                              ║",
		"║     🌱 Idempotent Database Seeding 🌱        ║",
		"╚══════════════════════════════════════════════╝",
	}

	for _, line := range banner {
		greenColor.Println(line)
	}

	fmt.Print("              ")
	color.New(color.FgCyan, color.Bold).Print("Version: ")
	color.New(color.FgYellow, color.Bold).Printf("%s\n", Version)
}

var rootCmd = &cobra.Command{
	Use:   "sprout",
	Short: "Reconcile declared seed records against your database",
	Long: `
Sprout populates reference and fixture data from declarative YAML seed files.
Each record is matched against existing rows through a set of constraint
columns, so repeated runs converge to the declared state without duplicates.

Database Support:
- PostgreSQL
- MySQL
- SQLite`,

	Run: func(cmd *cobra.Command, args []string) {
		showVersion, _ := cmd.Flags().GetBool("version")
		if showVersion {
			fmt.Printf("sprout CLI version %s\n", Version)
			os.Exit(0)
		}

		if len(args) == 0 {
			showBanner()
			fmt.Println()
			cmd.Help()
		}
	},
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ./sprout.config.json)")
	rootCmd.PersistentFlags().BoolVarP(&quietFlag, "quiet", "q", false, "Suppress per-record progress output")

	rootCmd.Flags().BoolP("version", "v", false, "Show CLI version")
}

func initConfig() {
	if err := godotenv.Load(); err != nil {
		godotenv.Load(".env")
		godotenv.Load(".env.local")
	}

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.AddConfigPath(".")
		viper.SetConfigType("json")
		viper.SetConfigName("sprout.config")
	}

	viper.AutomaticEnv()

	viper.ReadInConfig()
}
