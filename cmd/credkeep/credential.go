package main

import (
	"errors"
	"fmt"
	"strings"

	"github.com/benaskins/credkeep/internal/audit"
	"github.com/benaskins/credkeep/internal/keychain"
	"github.com/spf13/cobra"
)

var showPassword bool

var addCmd = &cobra.Command{
	Use:   "add <service> <account> [password]",
	Short: "Add a generic password for a service",
	Long:  "Add a credential. If password is omitted, prompts for it (or reads stdin when piped).",
	Args:  cobra.RangeArgs(2, 3),
	RunE: func(cmd *cobra.Command, args []string) error {
		service, name := args[0], args[1]

		var password string
		if len(args) == 3 {
			password = args[2]
		} else {
			p, err := readSecret("Enter password: ")
			if err != nil {
				return err
			}
			password = p
		}

		auditLog, err := audit.NewLogger(cfg.AuditLog)
		if err != nil {
			return err
		}
		defer auditLog.Close()

		err = keychain.NewSystem().AddGenericPassword(service, keychain.Account{Name: name, Password: password})
		record(auditLog, audit.Entry{Action: audit.ActionCredentialAdd, Service: service, Account: name, Actor: "cli", Trigger: "manual"}, err)
		if err != nil {
			if errors.Is(err, keychain.ErrDuplicateItem) {
				return fmt.Errorf("%q already has an account %q: %w", service, name, err)
			}
			return err
		}
		fmt.Printf("Added %q to %q\n", name, service)
		return nil
	},
}

var findCmd = &cobra.Command{
	Use:   "find <service>",
	Short: "Show the first credential stored for a service",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		service := args[0]

		auditLog, err := audit.NewLogger(cfg.AuditLog)
		if err != nil {
			return err
		}
		defer auditLog.Close()

		account, err := keychain.NewSystem().FindGenericPasswordByService(service)
		record(auditLog, audit.Entry{Action: audit.ActionCredentialRead, Service: service, Account: account.Name, Actor: "cli", Trigger: "manual"}, err)
		if err != nil {
			return err
		}

		password := strings.Repeat("*", 8)
		if showPassword {
			password = account.Password
		}
		fmt.Printf("account:  %s\npassword: %s\n", account.Name, password)
		return nil
	},
}

var deleteCmd = &cobra.Command{
	Use:     "delete <service>",
	Short:   "Remove every credential stored for a service",
	Aliases: []string{"rm"},
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		service := args[0]

		auditLog, err := audit.NewLogger(cfg.AuditLog)
		if err != nil {
			return err
		}
		defer auditLog.Close()

		err = keychain.NewSystem().DeleteGenericPasswordsByService(service)
		record(auditLog, audit.Entry{Action: audit.ActionCredentialDelete, Service: service, Actor: "cli", Trigger: "manual"}, err)
		if errors.Is(err, keychain.ErrItemNotFound) {
			fmt.Printf("No credentials stored for %q\n", service)
			return nil
		}
		if err != nil {
			return err
		}
		fmt.Printf("Credentials for %q deleted\n", service)
		return nil
	},
}

func init() {
	findCmd.Flags().BoolVar(&showPassword, "show-password", false, "Print the password instead of masking it")
	rootCmd.AddCommand(addCmd)
	rootCmd.AddCommand(findCmd)
	rootCmd.AddCommand(deleteCmd)
}
