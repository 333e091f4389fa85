package cmd

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/jdforsythe/bloch/foundation/blockchain/balance"
	"github.com/jdforsythe/bloch/foundation/blockchain/database"
	"github.com/jdforsythe/bloch/foundation/blockchain/signature"
	"github.com/spf13/cobra"
)

var url string

var balanceCmd = &cobra.Command{
	Use:   "balance",
	Short: "Print the balance of the wallet",
	RunE:  balanceRun,
}

func init() {
	rootCmd.AddCommand(balanceCmd)
	balanceCmd.Flags().StringVarP(&url, "url", "u", "http://localhost:3001", "Url of the node.")
}

// balanceRun pulls the chain from the node and works out the balance of the
// wallet from it.
func balanceRun(cmd *cobra.Command, args []string) error {
	privateKey, err := loadPrivateKey()
	if err != nil {
		return err
	}

	address := signature.PublicKeyToAddress(privateKey.PublicKey)

	resp, err := http.Get(url + "/blocks")
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("node responded with status %d", resp.StatusCode)
	}

	var chain struct {
		Blocks []database.Block `json:"blocks"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&chain); err != nil {
		return fmt.Errorf("decoding blocks: %w", err)
	}

	if err := database.ValidateChain(chain.Blocks); err != nil {
		return fmt.Errorf("node shared an invalid chain: %w", err)
	}

	fmt.Fprintln(cmd.OutOrStdout(), balance.Current(address, chain.Blocks))

	return nil
}
