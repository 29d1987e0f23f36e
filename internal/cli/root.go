package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/carepoint-rx/carepoint/internal/cli/commands"
)

var version = "dev" // Will be set during build

// NewRootCmd builds the command tree around an EnvLoader
func NewRootCmd(load commands.EnvLoader) *cobra.Command {
	root := &cobra.Command{
		Use:   "carepoint",
		Short: "CarePoint - your online pharmacy from the terminal",
		Long: `CarePoint CLI - Browse the catalog, place and track orders, and reach
support from your terminal.

Administrators can manage users, orders, products and tickets with the
admin command group.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print the version number",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "carepoint version %s\n", version)
		},
	})

	root.AddCommand(commands.NewLoginCmd(load))
	root.AddCommand(commands.NewLogoutCmd(load))
	root.AddCommand(commands.NewRegisterCmd(load))
	root.AddCommand(commands.NewWhoamiCmd(load))
	root.AddCommand(commands.NewProductsCmd(load))
	root.AddCommand(commands.NewOrdersCmd(load))
	root.AddCommand(commands.NewTicketsCmd(load))
	root.AddCommand(commands.NewQuestionnaireCmd(load))
	root.AddCommand(commands.NewAdminCmd(load))

	return root
}

// Execute runs the root command
func Execute() error {
	if err := NewRootCmd(commands.LoadEnv).Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return err
	}
	return nil
}
