package cli

import (
	"github.com/spf13/cobra"
)

var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Drop the persisted session",
	Long:  `Remove the persisted session token and forget the cached profile.`,
	RunE:  runLogout,
}

func init() {
	rootCmd.AddCommand(logoutCmd)
}

func runLogout(cmd *cobra.Command, args []string) error {
	if err := app.logout.Execute(); err != nil {
		return err
	}
	printerFor(cmd).Success("Signed out.")
	return nil
}
