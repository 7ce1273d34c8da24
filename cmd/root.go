package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/skeinhq/skein/internal/config"
	"github.com/skeinhq/skein/internal/logger"
	"github.com/skeinhq/skein/internal/storage"
)

var (
	debugMode             bool
	quietMode             bool
	version, commit, date string
)

// SetVersionInfo sets version information from ldflags
func SetVersionInfo(v, c, d string) {
	version, commit, date = v, c, d
}

var rootCmd = &cobra.Command{
	Use:   "skein",
	Short: "Session state engine for concurrent AI coding conversations",
	Long: `Skein keeps the durable state of concurrent AI-assisted coding sessions:
per-worktree session records, transcripts, and UI selection state. The
subcommands inspect and maintain the record store; the engine itself is
embedded by a host application.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	cobra.OnInitialize(initConfig)
	rootCmd.PersistentFlags().BoolVar(&debugMode, "debug", true, "Enable debug logging (on by default)")
	rootCmd.PersistentFlags().BoolVarP(&quietMode, "quiet", "q", false, "Reduce logging to info level only")
}

func initConfig() {
	if quietMode {
		logger.SetDebug(false)
	} else if debugMode {
		logger.SetDebug(true)
	}
}

// Execute runs the root command
func Execute() error {
	// Set version dynamically
	rootCmd.Version = version
	rootCmd.SetVersionTemplate(versionTemplate())
	return rootCmd.Execute()
}

func versionTemplate() string {
	if commit != "none" && commit != "" {
		return fmt.Sprintf("skein %s\n  commit: %s\n  built:  %s\n", version, commit, date)
	}
	return fmt.Sprintf("skein %s\n", version)
}

// openRecords loads the configuration and opens the record store at the
// effective data directory.
func openRecords() (*storage.Store, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("error loading config: %w", err)
	}
	dataDir, err := cfg.EffectiveDataDir()
	if err != nil {
		return nil, fmt.Errorf("error resolving data directory: %w", err)
	}
	return storage.NewStore(dataDir), nil
}
