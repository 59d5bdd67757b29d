package cli

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"placectl/internal/domain"
	"placectl/internal/output"
	"placectl/internal/usecase"
)

var dashboardCmd = &cobra.Command{
	Use:   "dashboard",
	Short: "Resolve the dashboard for the signed-in account",
	Long: `Check whether the signed-in account may reach a dashboard and print
where the portal would send it.

Without --require, any signed-in account is authorized and the command
prints its own dashboard. With --require, access is checked against the
given roles and the command fails when the account holds none of them.

Examples:
  placectl dashboard                       # Print this account's dashboard
  placectl dashboard --require pto         # Only placement training officers
  placectl dashboard --require pto,admin   # Officers or administrators`,
	RunE: runDashboard,
}

func init() {
	rootCmd.AddCommand(dashboardCmd)

	dashboardCmd.Flags().String("require", "", "comma-separated roles allowed through the gate (student, pto, pts, admin)")
}

func runDashboard(cmd *cobra.Command, args []string) error {
	requireFlag, _ := cmd.Flags().GetString("require")
	var require []string
	for _, raw := range strings.Split(requireFlag, ",") {
		if raw = strings.TrimSpace(raw); raw != "" {
			require = append(require, raw)
		}
	}

	allowed := domain.AllRoles
	if len(require) > 0 {
		allowed = make([]domain.Role, 0, len(require))
		for _, raw := range require {
			allowed = append(allowed, domain.ResolveRole(raw))
		}
	}

	ctx, cancel := context.WithTimeout(cmd.Context(), 30*time.Second)
	defer cancel()

	decision := app.authorize.Execute(ctx, allowed...)

	switch decision.State {
	case usecase.StateAuthorized:
		p := printerFor(cmd)
		p.Success("Authorized as %s (%s)", decision.Profile.Email, decision.Profile.Role)
		p.Print("Dashboard: %s", decision.Profile.Role.DashboardPath())
		return nil
	case usecase.StateForbidden:
		return output.NewCLIError(
			"access denied",
			fmt.Sprintf("this account does not hold any of: %s", strings.Join(require, ", ")),
			fmt.Sprintf("the portal would redirect to %s", decision.RedirectTo),
			output.ExitForbidden,
		)
	default:
		return output.NewCLIError(
			"not signed in",
			fmt.Sprintf("the portal would redirect to %s", decision.RedirectTo),
			"run placectl login first",
			output.ExitAuthError,
		)
	}
}
