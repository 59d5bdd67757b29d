package cli

import (
	"github.com/spf13/cobra"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the placectl version",
	Run: func(cmd *cobra.Command, args []string) {
		cmd.Printf("placectl %s\n", version)
	},
	// No config or wiring needed to print a version.
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error { return nil },
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
