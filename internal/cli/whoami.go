package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"placectl/internal/domain"
	"placectl/internal/output"
)

var whoamiCmd = &cobra.Command{
	Use:   "whoami",
	Short: "Show the signed-in portal profile",
	Long: `Display the profile of the signed-in account.

The profile is served from the local cache when it is fresh; use
--refresh to force a round trip to the portal.

Examples:
  placectl whoami                # Show the cached profile
  placectl whoami --refresh      # Bypass the cache
  placectl whoami --json         # Output as JSON`,
	RunE: runWhoami,
}

func init() {
	rootCmd.AddCommand(whoamiCmd)

	whoamiCmd.Flags().Bool("refresh", false, "bypass the profile cache")
	whoamiCmd.Flags().Bool("json", false, "output as JSON")
}

func runWhoami(cmd *cobra.Command, args []string) error {
	refresh, _ := cmd.Flags().GetBool("refresh")
	jsonOutput, _ := cmd.Flags().GetBool("json")

	ctx, cancel := context.WithTimeout(cmd.Context(), 30*time.Second)
	defer cancel()

	profile, err := app.getProfile.Execute(ctx, refresh)
	if err != nil {
		return whoamiError(err)
	}

	if jsonOutput {
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(profile)
	}

	tbl := output.NewTable(cmd.OutOrStdout())
	tbl.SetHeader([]string{"FIELD", "VALUE"})
	tbl.Append([]string{"Email", profile.Email})
	tbl.Append([]string{"Name", profile.Name})
	tbl.Append([]string{"Role", string(profile.Role)})
	if profile.Department != "" {
		tbl.Append([]string{"Department", profile.Department})
	}
	if profile.Year != "" {
		tbl.Append([]string{"Year", profile.Year})
	}
	if profile.JoiningDate != "" {
		tbl.Append([]string{"Joined", profile.JoiningDate})
	}
	tbl.Append([]string{"Dashboard", profile.Role.DashboardPath()})
	return tbl.Render()
}

func whoamiError(err error) error {
	switch {
	case errors.Is(err, domain.ErrUnauthenticated):
		return output.NewCLIError("not signed in", "", "run placectl login first", output.ExitAuthError)
	case errors.Is(err, domain.ErrNetwork):
		return output.NewCLIError("could not reach the portal", err.Error(), "check your connection and the portal.base_url setting", output.ExitNetwork)
	case errors.Is(err, domain.ErrMalformedProfile):
		return output.NewCLIError("the portal returned an unusable profile", err.Error(), "", output.ExitGeneral)
	default:
		var statusErr *domain.StatusError
		if errors.As(err, &statusErr) {
			return output.NewCLIError("the portal rejected the request", statusErr.Error(), "try again later", output.ExitGeneral)
		}
		return fmt.Errorf("fetching profile: %w", err)
	}
}
