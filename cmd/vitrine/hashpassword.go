package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/crypto/bcrypt"
	"golang.org/x/term"
)

var hashPasswordCmd = &cobra.Command{
	Use:   "hash-password",
	Short: "Hash a status-server password using bcrypt",
	RunE: func(cmd *cobra.Command, args []string) error {
		fmt.Fprint(cmd.OutOrStdout(), "Password: ")
		pass, err := term.ReadPassword(int(os.Stdin.Fd()))
		fmt.Fprintln(cmd.OutOrStdout())
		if err != nil {
			return fmt.Errorf("cannot read password: %w", err)
		}

		fmt.Fprint(cmd.OutOrStdout(), "Confirm: ")
		confirm, err := term.ReadPassword(int(os.Stdin.Fd()))
		fmt.Fprintln(cmd.OutOrStdout())
		if err != nil {
			return fmt.Errorf("cannot read password: %w", err)
		}

		if string(pass) != string(confirm) {
			return fmt.Errorf("passwords do not match")
		}

		hash, err := bcrypt.GenerateFromPassword(pass, bcrypt.DefaultCost)
		if err != nil {
			return fmt.Errorf("cannot hash password: %w", err)
		}

		_, err = fmt.Fprintln(cmd.OutOrStdout(), string(hash))
		return err
	},
}

func init() {
	rootCmd.AddCommand(hashPasswordCmd)
}
