package cli

import (
	"fmt"
	"os"

	"github.com/ledgerline/ledgerline/internal/model"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	cfgFile string
	verbose bool
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "ledgerline",
	Short: "Ledgerline - structured bank statement extraction",
	Long: `Ledgerline turns free-form model responses about bank statement
documents into validated, structured transaction data.

It routes documents to a local vision-language backend or a remote
API, parses whatever shape the model answers with, checks the result
against the statement's own arithmetic, and reports every correction
it makes. Extracted numbers are never trusted silently: each result
carries a confidence score and the signals behind it.`,
	SilenceErrors: true,
	SilenceUsage:  true,
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}

// versionCmd represents the version command
var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println("ledgerline v0.2.1")
	},
}

func init() {
	cobra.OnInitialize(initConfig)

	// Global flags
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: $HOME/.ledgerline/config.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")

	_ = viper.BindPFlag("verbose", rootCmd.PersistentFlags().Lookup("verbose"))

	rootCmd.AddCommand(versionCmd)
}

// initConfig reads in config file and ENV variables
func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error finding home directory: %v\n", err)
			return
		}
		viper.AddConfigPath(home + "/.ledgerline")
		viper.SetConfigType("yaml")
		viper.SetConfigName("config")
	}

	// Read in environment variables that match LEDGERLINE_*
	viper.SetEnvPrefix("LEDGERLINE")
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err == nil && verbose {
		fmt.Fprintf(os.Stderr, "Using config file: %s\n", viper.ConfigFileUsed())
	}
}

// loadConfig builds the effective configuration: defaults overlaid
// with the config file and environment, then the OPENAI_API_KEY
// convenience variable for any openai backend without a key.
func loadConfig() (*model.Config, error) {
	cfg := model.DefaultConfig()
	if err := viper.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("parse configuration: %w", err)
	}

	if key := os.Getenv("OPENAI_API_KEY"); key != "" {
		for i := range cfg.Backends {
			if cfg.Backends[i].Kind == "openai" && cfg.Backends[i].APIKey == "" {
				cfg.Backends[i].APIKey = key
			}
		}
	}
	return cfg, nil
}
