package cmd

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ietf2vcon/ietf2vcon/credentials"
)

// AuthCmd manages the stored Zulip API key.
var AuthCmd = &cobra.Command{
	Use:   "auth",
	Short: "Manage Zulip credentials",
	Long: `Manage the Zulip API key used to fetch session chat logs.

The key is stored in the operating system keyring. The
IETF2VCON_ZULIP_API_KEY environment variable overrides the stored key
when set.

Examples:
  # Store an API key (prompted, not echoed)
  ietf2vcon auth set

  # Show where the current key comes from
  ietf2vcon auth show

  # Remove the stored key
  ietf2vcon auth clear`,
}

var authSetCmd = &cobra.Command{
	Use:   "set",
	Short: "Store a Zulip API key in the system keyring",
	Args:  cobra.NoArgs,
	RunE:  runAuthSet,
}

var authShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show the stored Zulip API key (masked)",
	Args:  cobra.NoArgs,
	RunE:  runAuthShow,
}

var authClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Remove the stored Zulip API key",
	Args:  cobra.NoArgs,
	RunE:  runAuthClear,
}

func init() {
	AuthCmd.AddCommand(authSetCmd)
	AuthCmd.AddCommand(authShowCmd)
	AuthCmd.AddCommand(authClearCmd)
}

func runAuthSet(cmd *cobra.Command, args []string) error {
	key, err := credentials.PromptAPIKey("Zulip API key: ")
	if err != nil {
		return fmt.Errorf("reading API key: %w", err)
	}

	store := credentials.NewStore()
	if err := store.SetZulipAPIKey(key); err != nil {
		if errors.Is(err, credentials.ErrKeyringUnavailable) {
			return fmt.Errorf("%w (%s)", err, credentials.KeyringDescription())
		}
		return err
	}

	fmt.Printf("Stored Zulip API key in %s\n", credentials.KeyringDescription())
	return nil
}

func runAuthShow(cmd *cobra.Command, args []string) error {
	store := credentials.NewStore()
	key, err := store.ZulipAPIKey()
	if errors.Is(err, credentials.ErrNoCredentials) {
		fmt.Println("No Zulip API key configured")
		fmt.Println("Run 'ietf2vcon auth set' to store one")
		return nil
	}
	if err != nil {
		return err
	}

	fmt.Printf("Zulip API key: %s (from %s)\n", credentials.MaskCredential(key), store.Source())
	return nil
}

func runAuthClear(cmd *cobra.Command, args []string) error {
	store := credentials.NewStore()
	if err := store.DeleteZulipAPIKey(); err != nil {
		return err
	}
	fmt.Println("Removed stored Zulip API key")
	return nil
}
