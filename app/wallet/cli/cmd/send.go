package cmd

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/jdforsythe/bloch/business/web/errs"
	"github.com/spf13/cobra"
)

var (
	to     string
	amount int64
)

var sendCmd = &cobra.Command{
	Use:   "send",
	Short: "Ask the node to send coins from its wallet",
	RunE:  sendRun,
}

func init() {
	rootCmd.AddCommand(sendCmd)
	sendCmd.Flags().StringVarP(&url, "url", "u", "http://localhost:3001", "Url of the node.")
	sendCmd.Flags().StringVarP(&to, "to", "t", "", "Address to send the coins to.")
	sendCmd.Flags().Int64VarP(&amount, "amount", "m", 0, "Amount to send.")
	sendCmd.MarkFlagRequired("to")
	sendCmd.MarkFlagRequired("amount")
}

func sendRun(cmd *cobra.Command, args []string) error {
	payload := struct {
		DestAddress string `json:"destAddress"`
		Amount      int64  `json:"amount"`
	}{
		DestAddress: to,
		Amount:      amount,
	}

	data, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	resp, err := http.Post(url+"/transaction", "application/json", bytes.NewReader(data))
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		var er errs.Response
		if err := json.NewDecoder(resp.Body).Decode(&er); err != nil {
			return fmt.Errorf("node responded with status %d", resp.StatusCode)
		}
		return fmt.Errorf("node responded with status %d: %s", resp.StatusCode, er.Error)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "sent %d coins to %s\n", amount, to)

	return nil
}
