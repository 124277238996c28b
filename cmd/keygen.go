package cmd

import (
	"github.com/spf13/cobra"

	"github.com/graviton-studio/logos-I/internal/crypto"
)

func newKeygenCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "keygen",
		Short: "Generate a token encryption key",
		Long: `Generate a random AES-256 key, base64 encoded, for the ENCRYPTION_KEY
setting. Store it in your secret manager; losing it makes every stored
credential unreadable.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			key, err := crypto.GenerateKey()
			if err != nil {
				return err
			}
			cmd.Println(key)
			return nil
		},
	}
}
