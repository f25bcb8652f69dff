package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/hausops/mstodo/internal/auth"
	"github.com/hausops/mstodo/internal/config"
)

func newAuthCmd() *cobra.Command {
	var (
		showStatus bool
		revoke     bool
	)

	cmd := &cobra.Command{
		Use:   "auth [code]",
		Short: "Manage the Microsoft account authorization",
		Long: `Without arguments, prints the authorization URL to connect a Microsoft
account. Opening the URL and granting access redirects the browser to the
bridge's callback endpoint, which completes the flow automatically.

When the bridge is not reachable from the browser, the "code" query
parameter of the redirect can be pasted back as an argument to complete
the exchange manually.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}

			store := auth.NewStore(cfg.TokenPath)

			if revoke {
				if err := store.Clear(); err != nil {
					return fmt.Errorf("failed to remove stored token: %w", err)
				}
				cmd.Println("Stored token removed.")
				return nil
			}

			session, err := auth.NewSession(auth.Config{
				ClientID:     cfg.ClientID,
				ClientSecret: cfg.ClientSecret,
				RedirectURL:  cfg.RedirectURL(),
			}, store)
			if err != nil {
				return fmt.Errorf("failed to initialize session: %w", err)
			}

			if showStatus {
				cmd.Printf("State:      %s\n", session.State())
				cmd.Printf("Token file: %s\n", store.Path())
				return nil
			}

			if len(args) == 1 {
				if err := session.Exchange(cmd.Context(), args[0]); err != nil {
					return fmt.Errorf("authorization code exchange failed: %w", err)
				}
				cmd.Println("Authorization complete, token stored.")
				return nil
			}

			cmd.Println("Open the following URL to authorize Microsoft To Do:")
			cmd.Println()
			cmd.Println("  " + session.AuthCodeURL())
			return nil
		},
	}

	cmd.Flags().BoolVar(&showStatus, "status", false, "Show the current authorization state")
	cmd.Flags().BoolVar(&revoke, "revoke", false, "Remove the stored token")

	return cmd
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version number",
		Run: func(cmd *cobra.Command, _ []string) {
			cmd.Printf("mstodo version %s\n", version)
		},
	}
}
