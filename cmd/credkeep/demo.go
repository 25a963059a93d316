package main

import (
	"fmt"

	"github.com/benaskins/credkeep/internal/audit"
	"github.com/benaskins/credkeep/internal/keychain"
	"github.com/spf13/cobra"
)

var demoService string

var demoCmd = &cobra.Command{
	Use:   "demo",
	Short: "Delete, add, find and clean up a sample credential",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		auditLog, err := audit.NewLogger(cfg.AuditLog)
		if err != nil {
			return err
		}
		defer auditLog.Close()

		kc := keychain.NewSystem()
		account := keychain.Account{Name: "foo", Password: "very safe password"}
		entry := func(action audit.Action) audit.Entry {
			return audit.Entry{Action: action, Service: demoService, Account: account.Name, Actor: "demo", Trigger: "manual"}
		}

		err = kc.DeleteGenericPasswordsByService(demoService)
		record(auditLog, entry(audit.ActionCredentialDelete), err)
		fmt.Printf("Delete: %s\n", result(err))

		err = kc.AddGenericPassword(demoService, account)
		record(auditLog, entry(audit.ActionCredentialAdd), err)
		fmt.Printf("Add: %s\n", result(err))

		found, err := kc.FindGenericPasswordByService(demoService)
		record(auditLog, entry(audit.ActionCredentialRead), err)
		if err != nil {
			fmt.Printf("Get: %s\n", result(err))
		} else {
			fmt.Printf("Get: ok %+v\n", found)
		}

		err = kc.DeleteGenericPasswordsByService(demoService)
		record(auditLog, entry(audit.ActionCredentialDelete), err)
		fmt.Printf("Cleanup: %s\n", result(err))
		return nil
	},
}

func result(err error) string {
	if err != nil {
		return "error: " + err.Error()
	}
	return "ok"
}

func init() {
	demoCmd.Flags().StringVar(&demoService, "service", "fancy-service", "Service name to exercise")
	rootCmd.AddCommand(demoCmd)
}
