package cmd

import (
	"fmt"
	"os"

	"github.com/ethereum/go-ethereum/crypto"
	"github.com/jdforsythe/bloch/foundation/blockchain/signature"
	"github.com/spf13/cobra"
)

var generateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Generate a new key pair",
	RunE:  generateRun,
}

func init() {
	rootCmd.AddCommand(generateCmd)
}

func generateRun(cmd *cobra.Command, args []string) error {
	privateKey, err := crypto.GenerateKey()
	if err != nil {
		return err
	}

	if err := os.MkdirAll(accountPath, 0755); err != nil {
		return err
	}

	if err := crypto.SaveECDSA(getPrivateKeyPath(), privateKey); err != nil {
		return err
	}

	// These are the values the node expects in MINER_PUB_KEY and MINER_PRIV_KEY.
	fmt.Fprintln(cmd.OutOrStdout(), "address:", signature.PublicKeyToAddress(privateKey.PublicKey))
	fmt.Fprintln(cmd.OutOrStdout(), "private key:", signature.PrivateKeyToHex(privateKey))

	return nil
}
