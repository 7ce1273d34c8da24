package cmd

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/skeinhq/skein/internal/config"
	"github.com/skeinhq/skein/internal/logger"
	"github.com/skeinhq/skein/internal/storage"
)

var skipConfirm bool

var cleanCmd = &cobra.Command{
	Use:   "clean",
	Short: "Remove orphaned session data and log files",
	Long: `Scans the record store for session data directories no worktree index
references and removes them, then clears log files.

It will prompt for confirmation before proceeding unless the --yes flag is used.`,
	RunE: runClean,
}

func init() {
	cleanCmd.Flags().BoolVarP(&skipConfirm, "yes", "y", false, "Skip confirmation prompt")
	rootCmd.AddCommand(cleanCmd)
}

func runClean(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("error loading config: %w", err)
	}
	dataDir, err := cfg.EffectiveDataDir()
	if err != nil {
		return fmt.Errorf("error resolving data directory: %w", err)
	}
	return cleanDataDir(dataDir, os.Stdin)
}

// cleanDataDir runs the clean flow against one data directory, reading
// confirmation from the given input.
func cleanDataDir(dataDir string, input io.Reader) error {
	records := storage.NewStore(dataDir)

	orphans, err := records.FindOrphanedSessionData()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Warning: error finding orphaned session data: %v\n", err)
	}

	if len(orphans) == 0 {
		fmt.Println("Nothing to clean.")
		return nil
	}

	fmt.Println("This will remove:")
	fmt.Printf("  - %d orphaned session record(s)\n", len(orphans))
	for _, id := range orphans {
		fmt.Printf("      %s\n", id)
	}
	fmt.Println("  - All skein log files in /tmp")

	if !skipConfirm {
		if !confirm(input, "Continue?") {
			fmt.Println("Aborted.")
			return nil
		}
	}

	removed := 0
	for _, id := range orphans {
		if err := records.DeleteSessionData(id); err != nil {
			fmt.Fprintf(os.Stderr, "Warning: error removing session %s: %v\n", id, err)
			continue
		}
		removed++
	}

	logsCleared, err := logger.ClearLogs()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Warning: error clearing logs: %v\n", err)
	}

	fmt.Println()
	fmt.Println("Cleaned:")
	if removed > 0 {
		fmt.Printf("  - %d orphaned session record(s) removed\n", removed)
	}
	if logsCleared > 0 {
		fmt.Printf("  - %d log file(s) removed\n", logsCleared)
	}

	return nil
}

// confirm prompts the user for y/n confirmation
func confirm(input io.Reader, prompt string) bool {
	reader := bufio.NewReader(input)
	fmt.Printf("%s [y/N]: ", prompt)
	response, err := reader.ReadString('\n')
	if err != nil {
		return false
	}
	response = strings.ToLower(strings.TrimSpace(response))
	return response == "y" || response == "yes"
}
