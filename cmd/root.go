package cmd

import (
	"os"

	"github.com/spf13/cobra"
)

// rootCmd represents the base command for the mstodo bridge
var rootCmd = &cobra.Command{
	Use:   "mstodo",
	Short: "Bridges Microsoft To Do task lists into home-automation entities",
	Long: `mstodo connects a Microsoft account's To Do lists to a home-automation
setup: every task list becomes a calendar entity with due-today and
overdue task attributes, selected lists additionally get a task-count
sensor, and an HTTP service creates new tasks.

Authorization uses the OAuth2 authorization-code flow; tokens are
refreshed silently and persisted across restarts.`,
	SilenceUsage: true,
}

// version will be set by main
var version = "dev"

// SetVersion sets the version for the root command
func SetVersion(v string) {
	version = v
	rootCmd.Version = v
}

// Execute is the main entry point for the CLI application
func Execute() {
	rootCmd.SetVersionTemplate(`{{printf "mstodo version %s\n" .Version}}`)

	// If no subcommand is provided, run the serve command by default
	if len(os.Args) == 1 {
		os.Args = append(os.Args, "serve")
	}

	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.AddCommand(newServeCmd())
	rootCmd.AddCommand(newAuthCmd())
	rootCmd.AddCommand(newVersionCmd())
}
