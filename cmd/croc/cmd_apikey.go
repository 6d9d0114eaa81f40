package main

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"crocsthepen/internal/store"
)

var apikeyClear bool

var apikeyCmd = &cobra.Command{
	Use:   "apikey [key]",
	Short: "Save a Gemini API key for future commands",
	Long: `Stores the API key in the local store so it does not need to be
passed on every command. Environment variables and the --api-key flag take
precedence over the stored key.

Paid-tier capabilities (video, pro model) require a paid-tier key.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runAPIKey,
}

func init() {
	apikeyCmd.Flags().BoolVar(&apikeyClear, "clear", false, "Remove the stored key")
}

func runAPIKey(cmd *cobra.Command, args []string) error {
	a, err := openApp(context.Background(), false)
	if err != nil {
		return err
	}
	defer a.Close()

	if apikeyClear {
		if err := a.db.Delete(store.APIKeyKey()); err != nil {
			return err
		}
		fmt.Println("Stored API key removed.")
		return nil
	}
	if len(args) == 0 {
		return fmt.Errorf("provide a key to store, or --clear to remove it")
	}

	data, err := json.Marshal(args[0])
	if err != nil {
		return err
	}
	if err := a.db.Set(store.APIKeyKey(), data); err != nil {
		return err
	}
	fmt.Println("API key saved.")
	return nil
}

// storedAPIKey reads the saved key, empty when none.
func storedAPIKey(kv store.KV) string {
	data, err := kv.Get(store.APIKeyKey())
	if err != nil {
		return ""
	}
	var key string
	if err := json.Unmarshal(data, &key); err != nil {
		return ""
	}
	return key
}
