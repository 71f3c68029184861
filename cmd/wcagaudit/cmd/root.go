// Package cmd implements the wcagaudit command line interface.
package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/hmarchand/wcagaudit/internal/config"
	"github.com/hmarchand/wcagaudit/internal/logging"
)

var (
	cfgFile   string
	logLevel  string
	logFormat string
	verbose   bool

	// Version info - set via SetVersion()
	appVersion string
	appCommit  string
	appDate    string

	// Populated by initConfig for all subcommands.
	appConfig *config.Config
	appLogger *logging.Logger

	flagViper = viper.New()
)

var rootCmd = &cobra.Command{
	Use:   "wcagaudit",
	Short: "Accessibility audit pipeline with deterministic rules and AI review",
	Long: `wcagaudit audits a set of pages against an accessibility criteria grid.
Deterministic rules decide what they can; ambiguous criteria go to an
external review service in batches, with a pause-then-retry policy when
the service stalls. Sessions checkpoint after every page and can resume.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(_ *cobra.Command, _ []string) error {
		return initConfig()
	},
}

func Execute() error {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		return err
	}
	return nil
}

func SetVersion(version, commit, date string) {
	appVersion = version
	appCommit = commit
	appDate = date
}

// GetVersion returns the application version string.
func GetVersion() string {
	return appVersion
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "",
		"config file (default: .wcagaudit.yaml)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info",
		"log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", "auto",
		"log format (auto, text, json)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false,
		"print per-criterion decisions while auditing")

	// Bind flags to viper (errors are nil when flag exists)
	_ = flagViper.BindPFlag("log.level", rootCmd.PersistentFlags().Lookup("log-level"))
	_ = flagViper.BindPFlag("log.format", rootCmd.PersistentFlags().Lookup("log-format"))
}

func initConfig() error {
	loader := config.NewLoaderWithViper(flagViper)
	if cfgFile != "" {
		loader.WithConfigFile(cfgFile)
	}

	cfg, err := loader.Load()
	if err != nil {
		return err
	}
	if err := config.Validate(cfg); err != nil {
		return err
	}

	appConfig = cfg
	appLogger = logging.New(logging.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
	})
	return nil
}
