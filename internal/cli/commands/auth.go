package commands

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/carepoint-rx/carepoint/internal/cli/userconfig"
	"github.com/carepoint-rx/carepoint/internal/guard"
	"github.com/carepoint-rx/carepoint/internal/services"
)

// NewLoginCmd creates the login command
func NewLoginCmd(load EnvLoader) *cobra.Command {
	var email, password string

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Log in to CarePoint",
		RunE: withEnv(load, func(cmd *cobra.Command, args []string, env *Env) error {
			return runLogin(cmd, env, email, password)
		}),
	}

	cmd.Flags().StringVar(&email, "email", "", "Email address (or set CAREPOINT_EMAIL)")
	cmd.Flags().StringVar(&password, "password", "", "Password (or set CAREPOINT_PASSWORD, will prompt if not provided)")

	return cmd
}

func runLogin(cmd *cobra.Command, env *Env, email, password string) error {
	// Environment variables are useful for CI/CD
	if email == "" {
		email = os.Getenv("CAREPOINT_EMAIL")
	}
	if password == "" {
		password = os.Getenv("CAREPOINT_PASSWORD")
	}

	if email == "" {
		last, err := userconfig.GetLastEmail()
		if err != nil {
			env.Logger.Warn().Err(err).Msg("Failed to read remembered email")
		}
		if email, err = env.Prompter.Text("Email", last); err != nil {
			return fmt.Errorf("email is required (use --email flag or CAREPOINT_EMAIL env var): %w", err)
		}
	}

	if password == "" {
		var err error
		if password, err = env.Prompter.Password("Password"); err != nil {
			return fmt.Errorf("password is required (use --password flag or CAREPOINT_PASSWORD env var): %w", err)
		}
	}

	sess, err := env.Service.Login(cmd.Context(), services.LoginRequest{Email: email, Password: password})
	if err != nil {
		return err
	}

	if err := userconfig.SetLastEmail(email); err != nil {
		env.Logger.Warn().Err(err).Msg("Failed to remember email")
	}

	name := sess.Name
	if name == "" {
		name = email
	}
	fmt.Fprintf(env.Out, "✓ Logged in as %s (%s)\n", name, sess.Role)
	return nil
}

// NewLogoutCmd creates the logout command
func NewLogoutCmd(load EnvLoader) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Log out and forget the stored session",
		RunE: withEnv(load, func(cmd *cobra.Command, args []string, env *Env) error {
			if err := env.Service.Logout(cmd.Context()); err != nil {
				return err
			}
			fmt.Fprintln(env.Out, "✓ Logged out")
			return nil
		}),
	}
}

// NewWhoamiCmd creates the whoami command
func NewWhoamiCmd(load EnvLoader) *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the logged in account",
		RunE: guarded(load, guard.RequireAny, func(cmd *cobra.Command, args []string, env *Env) error {
			user, err := env.Service.Profile(cmd.Context())
			if err != nil {
				return err
			}

			w := newTable(env.Out)
			fmt.Fprintf(w, "ID:\t%d\n", user.ID)
			fmt.Fprintf(w, "Name:\t%s\n", orDash(user.Name))
			fmt.Fprintf(w, "Email:\t%s\n", orDash(user.Email))
			fmt.Fprintf(w, "Role:\t%s\n", orDash(user.Role))
			fmt.Fprintf(w, "Member since:\t%s\n", ago(user.CreatedAt))
			return w.Flush()
		}),
	}
}

// NewRegisterCmd creates the register command
func NewRegisterCmd(load EnvLoader) *cobra.Command {
	var req services.RegisterRequest

	cmd := &cobra.Command{
		Use:   "register",
		Short: "Create a customer account",
		RunE: withEnv(load, func(cmd *cobra.Command, args []string, env *Env) error {
			if req.Password == "" {
				pw, err := env.Prompter.Password("Password")
				if err != nil {
					return err
				}
				confirm, err := env.Prompter.Password("Confirm password")
				if err != nil {
					return err
				}
				req.Password, req.PasswordConfirmation = pw, confirm
			}
			if req.PasswordConfirmation == "" {
				req.PasswordConfirmation = req.Password
			}

			user, err := env.Service.Register(cmd.Context(), req)
			if err != nil {
				return err
			}

			fmt.Fprintf(env.Out, "✓ Account created for %s\n", user.Email)
			fmt.Fprintln(env.Out, "\nLog in with: carepoint login")
			return nil
		}),
	}

	cmd.Flags().StringVar(&req.Name, "name", "", "Full name")
	cmd.Flags().StringVar(&req.Email, "email", "", "Email address")
	cmd.Flags().StringVar(&req.Password, "password", "", "Password (will prompt if not provided)")
	cmd.Flags().StringVar(&req.Phone, "phone", "", "Phone number")
	cmd.Flags().StringVar(&req.DateOfBirth, "dob", "", "Date of birth (YYYY-MM-DD)")
	_ = cmd.MarkFlagRequired("name")
	_ = cmd.MarkFlagRequired("email")

	return cmd
}
