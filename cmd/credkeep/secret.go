package main

import (
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
)

var secretCmd = &cobra.Command{
	Use:   "secret",
	Short: "Manage prefixed secrets in the Keychain",
}

var secretSetCmd = &cobra.Command{
	Use:   "set <key> [value]",
	Short: "Store a secret in the Keychain",
	Long:  "Store a secret. If value is omitted, reads from stdin (useful for piping).",
	Args:  cobra.RangeArgs(1, 2),
	RunE: func(cmd *cobra.Command, args []string) error {
		key := args[0]

		var value string
		if len(args) == 2 {
			value = args[1]
		} else {
			v, err := readSecret("Enter secret value: ")
			if err != nil {
				return err
			}
			value = v
		}

		store, closeStore, err := openSecretStore("cli")
		if err != nil {
			return err
		}
		defer closeStore()

		if err := store.Set(key, value); err != nil {
			return err
		}
		fmt.Printf("Secret %q stored\n", key)
		return nil
	},
}

var secretGetCmd = &cobra.Command{
	Use:   "get <key>",
	Short: "Retrieve a secret from the Keychain",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		store, closeStore, err := openSecretStore("cli")
		if err != nil {
			return err
		}
		defer closeStore()

		val, err := store.Get(args[0])
		if err != nil {
			return err
		}
		fmt.Println(val)
		return nil
	},
}

var secretListCmd = &cobra.Command{
	Use:     "list",
	Short:   "List all secrets",
	Aliases: []string{"ls"},
	RunE: func(cmd *cobra.Command, args []string) error {
		store, closeStore, err := openSecretStore("cli")
		if err != nil {
			return err
		}
		defer closeStore()

		keys, err := store.List()
		if err != nil {
			return err
		}

		if len(keys) == 0 {
			fmt.Println("No secrets stored")
			return nil
		}

		meta := store.Metadata().All()
		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "KEY\tCREATED\tLAST ROTATED")
		for _, k := range keys {
			created, rotated := "-", "-"
			if m := meta[k]; m != nil {
				created = formatTime(m.CreatedAt)
				rotated = formatTime(m.LastRotated)
			}
			fmt.Fprintf(w, "%s\t%s\t%s\n", k, created, rotated)
		}
		w.Flush()
		return nil
	},
}

var secretDeleteCmd = &cobra.Command{
	Use:     "delete <key>",
	Short:   "Remove a secret from the Keychain",
	Aliases: []string{"rm"},
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		store, closeStore, err := openSecretStore("cli")
		if err != nil {
			return err
		}
		defer closeStore()

		if err := store.Delete(args[0]); err != nil {
			return err
		}
		fmt.Printf("Secret %q deleted\n", args[0])
		return nil
	},
}

var secretRotateCmd = &cobra.Command{
	Use:   "rotate <key> <command>",
	Short: "Replace a secret with the output of a shell command",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		store, closeStore, err := openSecretStore("cli")
		if err != nil {
			return err
		}
		defer closeStore()

		if err := store.Rotate(args[0], args[1]); err != nil {
			return err
		}
		fmt.Printf("Secret %q rotated\n", args[0])
		return nil
	},
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.Local().Format(time.DateTime)
}

func init() {
	secretCmd.AddCommand(secretSetCmd)
	secretCmd.AddCommand(secretGetCmd)
	secretCmd.AddCommand(secretListCmd)
	secretCmd.AddCommand(secretDeleteCmd)
	secretCmd.AddCommand(secretRotateCmd)
	rootCmd.AddCommand(secretCmd)
}
