package cli

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/zmg-ops/zmg-management/internal/core/domain"
)

var userCmd = &cobra.Command{
	Use:   "user",
	Short: "Manage users",
	Long:  `Add and list users, issue password setup links and set passwords directly.`,
}

var userAddCmd = &cobra.Command{
	Use:   "add [email]",
	Short: "Add a user",
	Long: `Add an active user without a password.

Roles: admin, manager, engineer, viewer.
Use --setup-link to issue (and email) a password setup link right away.`,
	Args: cobra.ExactArgs(1),
	RunE: runUserAdd,
}

var userListCmd = &cobra.Command{
	Use:   "list",
	Short: "List users",
	Args:  cobra.NoArgs,
	RunE:  runUserList,
}

var userSetupLinkCmd = &cobra.Command{
	Use:   "setup-link [email]",
	Short: "Issue a password setup link",
	Long: `Issue a signed password setup link and email it to the user.
Use --reset for users that already have a password.`,
	Args: cobra.ExactArgs(1),
	RunE: runUserSetupLink,
}

var userSetPasswordCmd = &cobra.Command{
	Use:   "set-password [email]",
	Short: "Set a user's password",
	Long: `Set a password directly, e.g. to bootstrap the first admin.
The password is read from the terminal without echo, or from stdin when piped.
All of the user's sessions are ended.`,
	Args: cobra.ExactArgs(1),
	RunE: runUserSetPassword,
}

var (
	userName      string
	userRole      string
	userSetupLink bool
	userReset     bool
)

func init() {
	userAddCmd.Flags().StringVar(&userName, "name", "", "display name")
	userAddCmd.Flags().StringVar(&userRole, "role", string(domain.RoleViewer), "role")
	userAddCmd.Flags().BoolVar(&userSetupLink, "setup-link", false, "issue a password setup link")
	userSetupLinkCmd.Flags().BoolVar(&userReset, "reset", false, "issue a password reset link")

	userCmd.AddCommand(userAddCmd)
	userCmd.AddCommand(userListCmd)
	userCmd.AddCommand(userSetupLinkCmd)
	userCmd.AddCommand(userSetPasswordCmd)
	rootCmd.AddCommand(userCmd)
}

func runUserAdd(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	app, err := loadApp(ctx)
	if err != nil {
		return err
	}
	defer app.Close() //nolint:errcheck

	user, err := app.Users.Create(ctx, args[0], userName, domain.Role(userRole))
	if err != nil {
		return fmt.Errorf("failed to add user: %w", err)
	}
	cmd.Printf("Added %s (%s, id %s)\n", user.Email, user.Role, user.ID)

	if !userSetupLink {
		return nil
	}
	link, err := app.Auth.IssueSetupToken(ctx, user.Email, domain.PurposePasswordSetup)
	if err != nil {
		return fmt.Errorf("failed to issue setup link: %w", err)
	}
	cmd.Printf("Setup link (expires %s):\n  %s\n", link.ExpiresAt.Local().Format("2006-01-02 15:04"), link.URL)
	return nil
}

func runUserList(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	app, err := loadApp(ctx)
	if err != nil {
		return err
	}
	defer app.Close() //nolint:errcheck

	users, err := app.Users.List(ctx)
	if err != nil {
		return fmt.Errorf("failed to list users: %w", err)
	}
	if len(users) == 0 {
		cmd.Println("No users. Add one with: zmg user add <email> --role admin")
		return nil
	}

	cmd.Printf("%-32s %-10s %-8s %-8s %s\n", "EMAIL", "ROLE", "ACTIVE", "PASSWORD", "NAME")
	for _, u := range users {
		cmd.Printf("%-32s %-10s %-8s %-8s %s\n", u.Email, u.Role, yesNo(u.Active), yesNo(u.HasPassword()), u.Name)
	}
	return nil
}

func runUserSetupLink(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	app, err := loadApp(ctx)
	if err != nil {
		return err
	}
	defer app.Close() //nolint:errcheck

	purpose := domain.PurposePasswordSetup
	if userReset {
		purpose = domain.PurposePasswordReset
	}
	link, err := app.Auth.IssueSetupToken(ctx, args[0], purpose)
	if err != nil {
		return fmt.Errorf("failed to issue setup link: %w", err)
	}
	cmd.Printf("Setup link (expires %s):\n  %s\n", link.ExpiresAt.Local().Format("2006-01-02 15:04"), link.URL)
	return nil
}

func runUserSetPassword(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	app, err := loadApp(ctx)
	if err != nil {
		return err
	}
	defer app.Close() //nolint:errcheck

	in := bufio.NewReader(cmd.InOrStdin())
	cmd.Print("New password: ")
	password := readPassword(cmd.InOrStdin(), in)
	cmd.Println()
	cmd.Print("Repeat password: ")
	confirm := readPassword(cmd.InOrStdin(), in)
	cmd.Println()

	if password != confirm {
		return errors.New("passwords do not match")
	}
	if err := app.Users.SetPassword(ctx, args[0], password); err != nil {
		return fmt.Errorf("failed to set password: %w", err)
	}
	cmd.Printf("Password set for %s\n", domain.NormalizeEmail(args[0]))
	return nil
}

// readPassword reads without echo from a terminal, otherwise one line from in.
//
//nolint:errcheck // CLI helper, error ignored for UX
func readPassword(src io.Reader, in *bufio.Reader) string {
	if f, ok := src.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		password, err := term.ReadPassword(int(f.Fd()))
		if err == nil {
			return string(password)
		}
	}
	line, _ := in.ReadString('\n')
	return strings.TrimRight(line, "\r\n")
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}
