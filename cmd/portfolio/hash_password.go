package main

import (
	"bufio"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/jonathan/portfolio-studio/internal/config"
)

func newHashPasswordCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "hash-password [password]",
		Short: "Hash an admin password for the config file",
		Long:  "Prints a bcrypt hash for [auth] password_hash. The password is read from stdin when not given.",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var password string
			if len(args) == 1 {
				password = args[0]
			} else {
				line, err := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
				if err != nil && line == "" {
					return fmt.Errorf("failed to read password: %w", err)
				}
				password = strings.TrimRight(line, "\r\n")
			}

			passwords, err := config.NewPasswordConfig()
			if err != nil {
				return err
			}
			hash, err := passwords.HashPassword(password)
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(a.out, hash)
			return err
		},
	}
}
