package main

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"
	"github.com/therealutkarshpriyadarshi/downloader/internal/auth"
)

type credentialFlags struct {
	username      string
	password      string
	passwordStdin bool
}

func (f *credentialFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&f.username, "username", "u", "", "Account username")
	cmd.Flags().StringVarP(&f.password, "password", "p", "", "Account password")
	cmd.Flags().BoolVar(&f.passwordStdin, "password-stdin", false, "Read the password from stdin")
	_ = cmd.MarkFlagRequired("username")
	cmd.MarkFlagsMutuallyExclusive("password", "password-stdin")
}

func (f *credentialFlags) resolvePassword(in io.Reader) (string, error) {
	if !f.passwordStdin {
		if f.password == "" {
			return "", errors.New("one of --password or --password-stdin is required")
		}
		return f.password, nil
	}

	line, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", fmt.Errorf("read password: %w", err)
	}
	password := strings.TrimRight(line, "\r\n")
	if password == "" {
		return "", errors.New("empty password on stdin")
	}
	return password, nil
}

func newUserCommand(ctx *commandContext) *cobra.Command {
	userCmd := &cobra.Command{
		Use:   "user",
		Short: "Manage API accounts",
	}

	userCmd.AddCommand(newUserCreateCommand(ctx))
	userCmd.AddCommand(newUserPasswdCommand(ctx))

	return userCmd
}

func newUserCreateCommand(ctx *commandContext) *cobra.Command {
	var flags credentialFlags

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create an account",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			password, err := flags.resolvePassword(cmd.InOrStdin())
			if err != nil {
				return err
			}

			return ctx.withAuth(cmd.Context(), func(svc *auth.Service) error {
				user, err := svc.CreateUser(cmd.Context(), flags.username, password)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Created user %s (%s)\n", user.Username, user.ID)
				return nil
			})
		},
	}
	flags.register(cmd)

	return cmd
}

func newUserPasswdCommand(ctx *commandContext) *cobra.Command {
	var flags credentialFlags

	cmd := &cobra.Command{
		Use:   "passwd",
		Short: "Set a new password and sign the account out everywhere",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			password, err := flags.resolvePassword(cmd.InOrStdin())
			if err != nil {
				return err
			}

			return ctx.withAuth(cmd.Context(), func(svc *auth.Service) error {
				if err := svc.SetPassword(cmd.Context(), flags.username, password); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Password updated for %s\n", strings.TrimSpace(flags.username))
				return nil
			})
		},
	}
	flags.register(cmd)

	return cmd
}
