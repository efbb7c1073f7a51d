/*
Copyright © 2025 Ambor <saltbo@foxmail.com>

Permission is hereby granted, free of charge, to any person obtaining a copy
of this software and associated documentation files (the "Software"), to deal
in the Software without restriction, including without limitation the rights
to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
copies of the Software, and to permit persons to whom the Software is
furnished to do so, subject to the following conditions:

The above copyright notice and this permission notice shall be included in
all copies or substantial portions of the Software.

THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN
THE SOFTWARE.
*/
package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/eslsoft/kanaplay/internal/app"
	"github.com/eslsoft/kanaplay/internal/entity"
)

var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Validate an API token against the remote and store it",
	RunE: func(cmd *cobra.Command, args []string) error {
		token, _ := cmd.Flags().GetString("token")
		return withContainer(cmd, func(ctx context.Context, c *app.Container) error {
			user, err := c.Session.Login(ctx, token)
			if err != nil {
				return fmt.Errorf("login: %w", err)
			}
			printUser(cmd.OutOrStdout(), user)
			return nil
		})
	},
}

var guestCmd = &cobra.Command{
	Use:   "guest",
	Short: "Continue without an account",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withContainer(cmd, func(ctx context.Context, c *app.Container) error {
			user, err := c.Session.EnterAsGuest(ctx)
			if err != nil {
				return fmt.Errorf("enter as guest: %w", err)
			}
			printUser(cmd.OutOrStdout(), user)
			return nil
		})
	},
}

var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Forget the token and wipe synced data; recorded games are kept",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withContainer(cmd, func(ctx context.Context, c *app.Container) error {
			if err := c.Session.Logout(ctx); err != nil {
				return fmt.Errorf("logout: %w", err)
			}
			cmd.Println("logged out")
			return nil
		})
	},
}

var whoamiCmd = &cobra.Command{
	Use:   "whoami",
	Short: "Show the current user",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withContainer(cmd, func(ctx context.Context, c *app.Container) error {
			user, err := c.Session.CurrentUser(ctx)
			if errors.Is(err, entity.ErrNotFound) {
				cmd.Println("not signed in, use `login` or `guest`")
				return nil
			}
			if err != nil {
				return err
			}
			printUser(cmd.OutOrStdout(), user)
			return nil
		})
	},
}

func init() {
	rootCmd.AddCommand(loginCmd, guestCmd, logoutCmd, whoamiCmd)

	loginCmd.Flags().String("token", "", "personal API token")
	cobra.CheckErr(loginCmd.MarkFlagRequired("token"))
}

func printUser(w io.Writer, user *entity.User) {
	if user == nil {
		fmt.Fprintln(w, "no user")
		return
	}
	kind := "account"
	if user.Guest {
		kind = "guest"
	}
	fmt.Fprintf(w, "%s (%s) level %d, max level %d\n", user.Username, kind, user.Level, user.MaxLevelGranted)
}
