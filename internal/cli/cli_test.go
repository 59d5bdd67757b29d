package cli

import (
	"bytes"
	"errors"
	"io"
	"log/slog"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"placectl/internal/identitystub"
	"placectl/internal/output"
)

// setupCLITest points the CLI at an in-process identity stub and an
// isolated token file, so rootCmd.Execute wires everything for real.
func setupCLITest(t *testing.T) {
	t.Helper()

	stub := identitystub.New(identitystub.DefaultAccounts(), "cli-test-secret", slog.New(slog.NewTextHandler(io.Discard, nil)))
	server := httptest.NewServer(stub.Echo())
	t.Cleanup(server.Close)

	dir := t.TempDir()
	// Stand-in for t.Chdir, which requires Go 1.24+.
	old, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(old) })
	t.Setenv("HOME", dir)
	t.Setenv("PLACECTL_PORTAL_BASE_URL", server.URL)
	t.Setenv("PLACECTL_SESSION_TOKEN_FILE", filepath.Join(dir, "token"))
	t.Setenv("PLACECTL_OUTPUT_COLORS", "false")

	cfgFile = ""
	verbose = false

	// Flag values persist across Execute calls in the same binary.
	_ = loginCmd.Flags().Set("email", "")
	_ = whoamiCmd.Flags().Set("refresh", "false")
	_ = whoamiCmd.Flags().Set("json", "false")
	_ = dashboardCmd.Flags().Set("require", "")
}

func execute(t *testing.T, in string, args ...string) (string, error) {
	t.Helper()
	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetErr(buf)
	rootCmd.SetIn(bytes.NewBufferString(in))
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return buf.String(), err
}

func TestRootCmd_Help(t *testing.T) {
	setupCLITest(t)

	out, err := execute(t, "", "--help")
	require.NoError(t, err)
	for _, name := range []string{"login", "logout", "whoami", "dashboard", "version"} {
		assert.Contains(t, out, name)
	}
}

func TestLogin_WrongPassword(t *testing.T) {
	setupCLITest(t)

	_, err := execute(t, "wrong-password\n", "login", "--email", "student@portal.test")
	require.Error(t, err)

	var cliErr *output.CLIError
	require.True(t, errors.As(err, &cliErr))
	assert.Equal(t, output.ExitAuthError, cliErr.ExitCode)
}

func TestLoginThenWhoami(t *testing.T) {
	setupCLITest(t)

	_, err := execute(t, "Officer1!\n", "login", "--email", "pto@portal.test")
	require.NoError(t, err)

	out, err := execute(t, "", "whoami")
	require.NoError(t, err)
	assert.Contains(t, out, "pto@portal.test")
	assert.Contains(t, out, "PlacementTrainingOfficer")
	assert.Contains(t, out, "/pto")
}

func TestLogin_PromptsForEmail(t *testing.T) {
	setupCLITest(t)

	out, err := execute(t, "student@portal.test\nStudent1!\n", "login")
	require.NoError(t, err)
	assert.Contains(t, out, "Email:")
}

func TestLogin_NewPasswordChallenge(t *testing.T) {
	setupCLITest(t)

	// Password, then new password and its confirmation.
	_, err := execute(t, "Admin1!\nFresh-Pass-9\nFresh-Pass-9\n", "login", "--email", "admin@portal.test")
	require.NoError(t, err)

	out, err := execute(t, "", "whoami")
	require.NoError(t, err)
	assert.Contains(t, out, "admin@portal.test")
	assert.Contains(t, out, "/company-admin")
}

func TestLogin_ChallengeConfirmMismatch(t *testing.T) {
	setupCLITest(t)

	_, err := execute(t, "Admin1!\nFresh-Pass-9\nDifferent-1\n", "login", "--email", "admin@portal.test")
	require.Error(t, err)

	var cliErr *output.CLIError
	require.True(t, errors.As(err, &cliErr))
	assert.Equal(t, output.ExitUsageError, cliErr.ExitCode)
}

func TestWhoami_NotSignedIn(t *testing.T) {
	setupCLITest(t)

	_, err := execute(t, "", "whoami")
	require.Error(t, err)

	var cliErr *output.CLIError
	require.True(t, errors.As(err, &cliErr))
	assert.Equal(t, output.ExitAuthError, cliErr.ExitCode)
}

func TestDashboard_RequireRole(t *testing.T) {
	setupCLITest(t)

	_, err := execute(t, "Student1!\n", "login", "--email", "student@portal.test")
	require.NoError(t, err)

	out, err := execute(t, "", "dashboard")
	require.NoError(t, err)
	assert.Contains(t, out, "/student")

	_, err = execute(t, "", "dashboard", "--require", "pto")
	require.Error(t, err)
	var cliErr *output.CLIError
	require.True(t, errors.As(err, &cliErr))
	assert.Equal(t, output.ExitForbidden, cliErr.ExitCode)
}

func TestLogoutThenDashboard(t *testing.T) {
	setupCLITest(t)

	_, err := execute(t, "Student1!\n", "login", "--email", "student@portal.test")
	require.NoError(t, err)

	out, err := execute(t, "", "logout")
	require.NoError(t, err)
	assert.Contains(t, out, "Signed out")

	_, err = execute(t, "", "dashboard")
	require.Error(t, err)
	var cliErr *output.CLIError
	require.True(t, errors.As(err, &cliErr))
	assert.Equal(t, output.ExitAuthError, cliErr.ExitCode)
}
