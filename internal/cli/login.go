package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"placectl/internal/domain"
	"placectl/internal/output"
)

var readPasswordFunc = term.ReadPassword // mockable

var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Sign in to the placement portal",
	Long: `Authenticate against the portal identity API and persist the session token.

If the account requires a new password, placectl completes the
new-password challenge interactively before the session is issued.

Examples:
  placectl login                       # Prompt for email and password
  placectl login --email s1@uni.edu    # Prompt for password only`,
	RunE: runLogin,
}

func init() {
	rootCmd.AddCommand(loginCmd)

	loginCmd.Flags().StringP("email", "e", "", "account email")
}

func runLogin(cmd *cobra.Command, args []string) error {
	email, _ := cmd.Flags().GetString("email")
	in := bufio.NewReader(cmd.InOrStdin())

	var err error
	if email == "" {
		email, err = promptLine(cmd, in, "Email: ")
		if err != nil {
			return err
		}
	}
	if email == "" {
		return output.NewCLIError("email is required", "", "pass --email or enter one at the prompt", output.ExitUsageError)
	}

	password, err := promptPassword(cmd, in, "Password: ")
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(cmd.Context(), 30*time.Second)
	defer cancel()

	result, err := app.login.Execute(ctx, email, password)
	if err != nil {
		return loginError(err)
	}

	if result.Challenge != nil {
		if err := completeChallenge(ctx, cmd, in, result.Challenge, password); err != nil {
			return err
		}
	}

	return printSignedIn(ctx, cmd)
}

func completeChallenge(ctx context.Context, cmd *cobra.Command, in *bufio.Reader, ch *domain.Challenge, oldPassword string) error {
	printerFor(cmd).Warning("This account requires a new password before signing in.")

	newPassword, err := promptPassword(cmd, in, "New password: ")
	if err != nil {
		return err
	}
	confirm, err := promptPassword(cmd, in, "Confirm new password: ")
	if err != nil {
		return err
	}
	if newPassword != confirm {
		return output.NewCLIError("passwords do not match", "", "run placectl login again", output.ExitUsageError)
	}

	_, err = app.challenge.Execute(ctx, ch.Username, oldPassword, newPassword, ch.Session)
	if err != nil {
		if errors.Is(err, domain.ErrChallengeExpired) {
			return output.NewCLIError(
				"the sign-in challenge has expired",
				err.Error(),
				"run placectl login again to restart",
				output.ExitAuthError,
			)
		}
		return loginError(err)
	}
	return nil
}

func printSignedIn(ctx context.Context, cmd *cobra.Command) error {
	p := printerFor(cmd)
	profile, err := app.getProfile.Execute(ctx, false)
	if err != nil {
		// The session is persisted even when the profile lookup fails.
		p.Success("Signed in.")
		log.Warn("profile lookup after login failed", "error", err)
		return nil
	}
	p.Success("Signed in as %s (%s)", profile.Email, profile.Role)
	p.Print("Dashboard: %s", profile.Role.DashboardPath())
	return nil
}

func loginError(err error) error {
	switch {
	case errors.Is(err, domain.ErrInvalidCredentials):
		return output.NewCLIError("login failed", "incorrect username or password", "check your credentials and try again", output.ExitAuthError)
	case errors.Is(err, domain.ErrTooManyAttempts):
		return output.NewCLIError("too many login attempts", "", "wait a few seconds and try again", output.ExitAuthError)
	case errors.Is(err, domain.ErrNetwork):
		return output.NewCLIError("could not reach the portal", err.Error(), "check your connection and the portal.base_url setting", output.ExitNetwork)
	default:
		var statusErr *domain.StatusError
		if errors.As(err, &statusErr) {
			return output.NewCLIError("the portal rejected the request", statusErr.Error(), "try again later", output.ExitGeneral)
		}
		return err
	}
}

func promptLine(cmd *cobra.Command, in *bufio.Reader, prompt string) (string, error) {
	fmt.Fprint(cmd.OutOrStdout(), prompt)
	line, err := in.ReadString('\n')
	if err != nil && line == "" {
		return "", fmt.Errorf("reading input: %w", err)
	}
	return strings.TrimSpace(line), nil
}

func promptPassword(cmd *cobra.Command, in *bufio.Reader, prompt string) (string, error) {
	// Non-interactive input (tests, pipes) falls back to line reads.
	if !term.IsTerminal(int(os.Stdin.Fd())) {
		return promptLine(cmd, in, prompt)
	}
	fmt.Fprint(cmd.OutOrStdout(), prompt)
	pwd, err := readPasswordFunc(syscall.Stdin)
	fmt.Fprintln(cmd.OutOrStdout())
	if err != nil {
		return "", fmt.Errorf("reading password: %w", err)
	}
	return string(pwd), nil
}
