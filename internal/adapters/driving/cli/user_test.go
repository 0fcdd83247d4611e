package cli

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zmg-ops/zmg-management/internal/core/domain"
)

func runCLI(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetErr(buf)
	rootCmd.SetIn(strings.NewReader(stdin))
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return buf.String(), err
}

func TestUserCmd_HasSubcommands(t *testing.T) {
	commands := userCmd.Commands()
	names := make([]string, 0, len(commands))
	for _, cmd := range commands {
		names = append(names, cmd.Name())
	}

	assert.ElementsMatch(t, []string{"add", "list", "setup-link", "set-password"}, names)
}

func TestUserAddCmd_RequiresEmail(t *testing.T) {
	setupTestApp(t)

	_, err := runCLI(t, "", "user", "add")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "accepts 1 arg(s)")
}

func TestUserAddCmd_CreatesUser(t *testing.T) {
	ta := setupTestApp(t)

	out, err := runCLI(t, "", "user", "add", "Ana@ZMG.test", "--name", "Ana", "--role", "manager")

	require.NoError(t, err)
	assert.Contains(t, out, "Added ana@zmg.test (manager")
	require.Contains(t, ta.users.users, "ana@zmg.test")
	assert.Equal(t, "Ana", ta.users.users["ana@zmg.test"].Name)
	assert.Empty(t, ta.auth.purposes)
}

func TestUserAddCmd_WithSetupLink(t *testing.T) {
	ta := setupTestApp(t)

	out, err := runCLI(t, "", "user", "add", "ana@zmg.test", "--setup-link")

	require.NoError(t, err)
	assert.Contains(t, out, "/setup-password?token=tok")
	assert.Equal(t, []domain.TokenPurpose{domain.PurposePasswordSetup}, ta.auth.purposes)
	assert.Equal(t, domain.RoleViewer, ta.users.users["ana@zmg.test"].Role)
}

func TestUserAddCmd_InvalidRole(t *testing.T) {
	setupTestApp(t)

	_, err := runCLI(t, "", "user", "add", "ana@zmg.test", "--role", "owner")

	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestUserListCmd(t *testing.T) {
	ta := setupTestApp(t)

	out, err := runCLI(t, "", "user", "list")
	require.NoError(t, err)
	assert.Contains(t, out, "No users")

	ta.users.users["b@zmg.test"] = &domain.User{Email: "b@zmg.test", Role: domain.RoleAdmin, Active: true, PasswordHash: "x"}
	ta.users.users["a@zmg.test"] = &domain.User{Email: "a@zmg.test", Role: domain.RoleViewer, Name: "Ana"}

	out, err = runCLI(t, "", "user", "list")
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 3)
	assert.Contains(t, lines[0], "EMAIL")
	assert.Contains(t, lines[1], "a@zmg.test")
	assert.Contains(t, lines[1], "Ana")
	assert.Contains(t, lines[2], "admin")
	assert.Contains(t, lines[2], "yes")
}

func TestUserSetupLinkCmd(t *testing.T) {
	ta := setupTestApp(t)

	_, err := runCLI(t, "", "user", "setup-link", "ana@zmg.test")
	require.NoError(t, err)

	_, err = runCLI(t, "", "user", "setup-link", "ana@zmg.test", "--reset")
	require.NoError(t, err)

	assert.Equal(t, []domain.TokenPurpose{domain.PurposePasswordSetup, domain.PurposePasswordReset}, ta.auth.purposes)
}

func TestUserSetPasswordCmd(t *testing.T) {
	t.Run("sets password from stdin", func(t *testing.T) {
		ta := setupTestApp(t)

		out, err := runCLI(t, "s3cretpass\ns3cretpass\n", "user", "set-password", "Admin@zmg.test")

		require.NoError(t, err)
		assert.Equal(t, "s3cretpass", ta.users.passwords["admin@zmg.test"])
		assert.Contains(t, out, "Password set for admin@zmg.test")
		assert.NotContains(t, out, "s3cretpass")
	})

	t.Run("mismatch", func(t *testing.T) {
		ta := setupTestApp(t)

		_, err := runCLI(t, "s3cretpass\nother1pass\n", "user", "set-password", "admin@zmg.test")

		require.Error(t, err)
		assert.Contains(t, err.Error(), "do not match")
		assert.Empty(t, ta.users.passwords)
	})

	t.Run("service error", func(t *testing.T) {
		ta := setupTestApp(t)
		ta.users.err = domain.ErrWeakPassword

		_, err := runCLI(t, "short\nshort\n", "user", "set-password", "admin@zmg.test")

		assert.ErrorIs(t, err, domain.ErrWeakPassword)
	})
}
