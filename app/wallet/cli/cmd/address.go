package cmd

import (
	"fmt"

	"github.com/jdforsythe/bloch/foundation/blockchain/signature"
	"github.com/spf13/cobra"
)

var addressCmd = &cobra.Command{
	Use:   "address",
	Short: "Print the address of the wallet",
	RunE:  addressRun,
}

func init() {
	rootCmd.AddCommand(addressCmd)
}

func addressRun(cmd *cobra.Command, args []string) error {
	privateKey, err := loadPrivateKey()
	if err != nil {
		return err
	}

	fmt.Fprintln(cmd.OutOrStdout(), signature.PublicKeyToAddress(privateKey.PublicKey))

	return nil
}
