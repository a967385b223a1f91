package cli

import (
	"bufio"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"storefront/internal/identity"
)

// NewLoginCommand はトークンをトークンファイルに保存する。
// 開いている他のタブはファイルの変化を見てアカウント切り替えを行う。
func NewLoginCommand(rootOpts *RootOptions) *cobra.Command {
	var token string
	cmd := &cobra.Command{
		Use:   "login",
		Short: "Store an identity token",
		Long: `Store an identity token for the Remote Store. Without --token the token is
read from stdin.

Examples:
  storefront login --token eyJhbGciOi...
  cat token.txt | storefront login`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if token == "" {
				line, err := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
				if err != nil && line == "" {
					return NewExitError(ExitCommandError, "no token given")
				}
				token = line
			}
			token = strings.TrimSpace(token)

			id := identity.NewTokenGate(token).CurrentIdentity()
			if id == nil {
				return NewExitError(ExitCommandError, "token is malformed or expired")
			}
			if err := identity.SaveTokenFile(rootOpts.Client.TokenFile, token); err != nil {
				return WrapExitError(ExitCommandError, "failed to save token", err)
			}
			printIdentity(cmd, rootOpts, id)
			return nil
		},
	}
	cmd.Flags().StringVar(&token, "token", "", "identity token (JWT)")
	return cmd
}

// NewLogoutCommand はトークンファイルを消す。
func NewLogoutCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Forget the stored identity token",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := identity.RemoveTokenFile(rootOpts.Client.TokenFile); err != nil {
				return WrapExitError(ExitCommandError, "failed to remove token", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), "logged out")
			return nil
		},
	}
}

// NewWhoamiCommand は現在のアイデンティティを表示する。
func NewWhoamiCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the current identity",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			gate, err := identity.LoadTokenFile(rootOpts.Client.TokenFile)
			if err != nil {
				return WrapExitError(ExitCommandError, "failed to read token", err)
			}
			printIdentity(cmd, rootOpts, gate.CurrentIdentity())
			return nil
		},
	}
}

func printIdentity(cmd *cobra.Command, opts *RootOptions, id *identity.Identity) {
	w := cmd.OutOrStdout()
	if opts.Format == "json" {
		out := map[string]interface{}{"logged_in": id != nil}
		if id != nil {
			out["user_id"] = id.UserID
			out["role"] = id.Role
		}
		_ = writeJSON(w, out)
		return
	}
	if id == nil {
		fmt.Fprintln(w, "anonymous")
		return
	}
	fmt.Fprintf(w, "%s (%s)\n", id.UserID, id.Role)
}
