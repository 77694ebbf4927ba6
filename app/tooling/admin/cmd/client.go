package cmd

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/spf13/cobra"

	"github.com/ardanlabs/ledger/foundation/ledger/address"
)

var (
	privateKey string
	to         string
	amount     uint64
	metadata   string
	requestID  string
)

var client = http.Client{Timeout: 10 * time.Second}

var balanceCmd = &cobra.Command{
	Use:   "balance",
	Short: "Print the balance of the address a private key controls",
	RunE: func(cmd *cobra.Command, args []string) error {
		addr := address.MakeV2(privateKey)

		var resp struct {
			Address struct {
				Balance uint64 `json:"balance"`
			} `json:"address"`
		}
		if err := call(http.MethodGet, "/v1/addresses/"+addr, nil, &resp); err != nil {
			return err
		}

		fmt.Fprintf(cmd.OutOrStdout(), "%s %d\n", addr, resp.Address.Balance)
		return nil
	},
}

var sendCmd = &cobra.Command{
	Use:   "send",
	Short: "Send value to an address or name",
	RunE: func(cmd *cobra.Command, args []string) error {
		req := struct {
			PrivateKey string `json:"privatekey"`
			To         string `json:"to"`
			Amount     uint64 `json:"amount"`
			Metadata   string `json:"metadata,omitempty"`
			RequestID  string `json:"requestId,omitempty"`
		}{
			PrivateKey: privateKey,
			To:         to,
			Amount:     amount,
			Metadata:   metadata,
			RequestID:  requestID,
		}

		var resp struct {
			Transaction struct {
				ID uint64 `json:"id"`
			} `json:"transaction"`
		}
		if err := call(http.MethodPost, "/v1/transactions", req, &resp); err != nil {
			return err
		}

		fmt.Fprintln(cmd.OutOrStdout(), "transaction", resp.Transaction.ID)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(balanceCmd)
	rootCmd.AddCommand(sendCmd)

	for _, c := range []*cobra.Command{balanceCmd, sendCmd} {
		c.Flags().StringVarP(&privateKey, "privatekey", "k", "", "Private key of the sender.")
		c.MarkFlagRequired("privatekey")
	}

	sendCmd.Flags().StringVarP(&to, "to", "t", "", "Recipient address or name.")
	sendCmd.Flags().Uint64VarP(&amount, "amount", "a", 0, "Value to send.")
	sendCmd.Flags().StringVarP(&metadata, "metadata", "m", "", "Metadata to attach.")
	sendCmd.Flags().StringVarP(&requestID, "request-id", "r", "", "Request id for safe retries.")
}

// call performs the request against the ledger service and decodes either
// the result or the error body.
func call(method string, path string, body any, result any) error {
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			return err
		}
	}

	req, err := http.NewRequest(method, url+path, &buf)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		var er struct {
			Error string `json:"error"`
			Code  string `json:"code"`
		}
		if err := json.NewDecoder(resp.Body).Decode(&er); err != nil {
			return fmt.Errorf("status %d", resp.StatusCode)
		}
		return fmt.Errorf("%s: %s", er.Code, er.Error)
	}

	return json.NewDecoder(resp.Body).Decode(result)
}
