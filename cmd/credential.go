package cmd

import (
	"fmt"
	"strings"

	"github.com/pictophone/pictophone/internal/config"
	"github.com/pictophone/pictophone/internal/credentials"
	"github.com/spf13/cobra"
)

func newCredentialCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "credential",
		Short: "Manage the locally stored API key",
		Long: `Manage the API key stored on this machine.

Storing the key is opt-in: nothing is written unless you run "credential set"
or pass --remember to "run". The key lives in a single-entry file under your
user config directory.`,
	}

	cmd.AddCommand(newCredentialSetCmd())
	cmd.AddCommand(newCredentialShowCmd())
	cmd.AddCommand(newCredentialClearCmd())

	return cmd
}

func openStore() (*credentials.Store, error) {
	cfg := config.Load()
	return credentials.NewStore(cfg.StorageKey)
}

func newCredentialSetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "set <api-key>",
		Short: "Store an API key",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			key := strings.TrimSpace(args[0])
			if !strings.HasPrefix(key, "sk-") {
				return fmt.Errorf(`API key must start with "sk-"`)
			}
			store, err := openStore()
			if err != nil {
				return err
			}
			if err := store.Save(key); err != nil {
				return err
			}
			fmt.Println("API key stored")
			return nil
		},
	}
}

func newCredentialShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Show whether an API key is stored",
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := openStore()
			if err != nil {
				return err
			}
			key, err := store.Load()
			if err != nil {
				return err
			}
			if key == "" {
				fmt.Println("No API key stored")
				return nil
			}
			fmt.Printf("API key stored: %s\n", maskKey(key))
			return nil
		},
	}
}

func newCredentialClearCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Remove the stored API key",
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := openStore()
			if err != nil {
				return err
			}
			if err := store.Clear(); err != nil {
				return err
			}
			fmt.Println("API key cleared")
			return nil
		},
	}
}

// maskKey shows only the prefix and the last four characters
func maskKey(key string) string {
	if len(key) <= 7 {
		return "sk-****"
	}
	return key[:3] + "****" + key[len(key)-4:]
}
