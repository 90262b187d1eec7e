package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strconv"
	"time"

	"github.com/spf13/cobra"
)

var (
	baseURL string
	timeout time.Duration
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "fintrack-cli",
		Short: "FinTrack CLI tool",
		Long:  `A command line interface for interacting with the FinTrack API.`,
	}

	rootCmd.PersistentFlags().StringVar(&baseURL, "url", "http://localhost:8080", "Base URL of the FinTrack API")
	rootCmd.PersistentFlags().DurationVar(&timeout, "timeout", 10*time.Second, "Request timeout")

	rootCmd.AddCommand(accountCmd())
	rootCmd.AddCommand(categoryCmd())
	rootCmd.AddCommand(txnCmd())
	rootCmd.AddCommand(transferCmd())
	rootCmd.AddCommand(balanceCmd())
	rootCmd.AddCommand(auditCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

func accountCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "account",
		Short: "Account operations",
	}

	var kind, currency string
	createCmd := &cobra.Command{
		Use:   "create NAME",
		Short: "Create an account",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return doRequest(http.MethodPost, "/api/v1/accounts", map[string]any{
				"name":     args[0],
				"kind":     kind,
				"currency": currency,
			})
		},
	}
	createCmd.Flags().StringVar(&kind, "kind", "checking", "Account kind (checking, savings, credit, cash)")
	createCmd.Flags().StringVar(&currency, "currency", "USD", "ISO 4217 currency code")

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List accounts",
		RunE: func(cmd *cobra.Command, args []string) error {
			return doRequest(http.MethodGet, "/api/v1/accounts", nil)
		},
	}

	getCmd := &cobra.Command{
		Use:   "get ID",
		Short: "Show an account",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return doRequest(http.MethodGet, "/api/v1/accounts/"+args[0], nil)
		},
	}

	deleteCmd := &cobra.Command{
		Use:   "delete ID",
		Short: "Delete an account",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return doRequest(http.MethodDelete, "/api/v1/accounts/"+args[0], nil)
		},
	}

	cmd.AddCommand(createCmd, listCmd, getCmd, deleteCmd)
	return cmd
}

func categoryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "category",
		Short: "Category operations",
	}

	var parentID string
	createCmd := &cobra.Command{
		Use:   "create NAME",
		Short: "Create a category",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			payload := map[string]any{"name": args[0]}
			if parentID != "" {
				payload["parent_id"] = parentID
			}
			return doRequest(http.MethodPost, "/api/v1/categories", payload)
		},
	}
	createCmd.Flags().StringVar(&parentID, "parent", "", "Parent category ID")

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List categories",
		RunE: func(cmd *cobra.Command, args []string) error {
			return doRequest(http.MethodGet, "/api/v1/categories", nil)
		},
	}

	deleteCmd := &cobra.Command{
		Use:   "delete ID",
		Short: "Delete a category",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return doRequest(http.MethodDelete, "/api/v1/categories/"+args[0], nil)
		},
	}

	cmd.AddCommand(createCmd, listCmd, deleteCmd)
	return cmd
}

func txnCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "txn",
		Short: "Transaction operations",
	}

	var currency, description, occurredAt string
	addCmd := &cobra.Command{
		Use:   "add ACCOUNT_ID AMOUNT",
		Short: "Record a transaction (AMOUNT is a decimal string, e.g. -12.50)",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			payload := map[string]any{
				"account_id": args[0],
				"amount":     args[1],
				"currency":   currency,
			}
			if description != "" {
				payload["description"] = description
			}
			if occurredAt != "" {
				payload["occurred_at"] = occurredAt
			}
			return doRequest(http.MethodPost, "/api/v1/transactions", payload)
		},
	}
	addCmd.Flags().StringVar(&currency, "currency", "USD", "ISO 4217 currency code")
	addCmd.Flags().StringVar(&description, "desc", "", "Description")
	addCmd.Flags().StringVar(&occurredAt, "at", "", "Occurrence time (RFC 3339)")

	var accountID, categoryID string
	var limit int
	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List transactions",
		RunE: func(cmd *cobra.Command, args []string) error {
			q := "?"
			if accountID != "" {
				q += "account_id=" + accountID + "&"
			}
			if categoryID != "" {
				q += "category_id=" + categoryID + "&"
			}
			q += "limit=" + strconv.Itoa(limit)
			return doRequest(http.MethodGet, "/api/v1/transactions"+q, nil)
		},
	}
	listCmd.Flags().StringVar(&accountID, "account", "", "Filter by account ID")
	listCmd.Flags().StringVar(&categoryID, "category", "", "Filter by category ID")
	listCmd.Flags().IntVar(&limit, "limit", 50, "Maximum results")

	deleteCmd := &cobra.Command{
		Use:   "delete ID",
		Short: "Delete a transaction",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return doRequest(http.MethodDelete, "/api/v1/transactions/"+args[0], nil)
		},
	}

	cmd.AddCommand(addCmd, listCmd, deleteCmd)
	return cmd
}

func transferCmd() *cobra.Command {
	var currency, description string
	cmd := &cobra.Command{
		Use:   "transfer FROM_ID TO_ID AMOUNT",
		Short: "Move money between two accounts",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			payload := map[string]any{
				"from_account_id": args[0],
				"to_account_id":   args[1],
				"amount":          args[2],
				"currency":        currency,
			}
			if description != "" {
				payload["description"] = description
			}
			return doRequest(http.MethodPost, "/api/v1/transfers", payload)
		},
	}
	cmd.Flags().StringVar(&currency, "currency", "USD", "ISO 4217 currency code")
	cmd.Flags().StringVar(&description, "desc", "", "Description")
	return cmd
}

func balanceCmd() *cobra.Command {
	var asOf string
	cmd := &cobra.Command{
		Use:   "balance ACCOUNT_ID",
		Short: "Show an account balance",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := "/api/v1/accounts/" + args[0] + "/balance"
			if asOf != "" {
				path += "?as_of=" + asOf
			}
			return doRequest(http.MethodGet, path, nil)
		},
	}
	cmd.Flags().StringVar(&asOf, "as-of", "", "Balance as of this instant (RFC 3339)")
	return cmd
}

func auditCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "audit ACCOUNT_ID",
		Short: "Audit an account's ledger for inconsistencies",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return doRequest(http.MethodGet, "/api/v1/accounts/"+args[0]+"/audit", nil)
		},
	}
}

func doRequest(method, path string, payload any) error {
	var body io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return err
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequest(method, baseURL+path, body)
	if err != nil {
		return err
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	client := &http.Client{Timeout: timeout}
	resp, err := client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	respBody, _ := io.ReadAll(resp.Body)

	if resp.StatusCode >= http.StatusBadRequest {
		return fmt.Errorf("request failed (status %d): %s", resp.StatusCode, truncate(string(respBody), 500))
	}

	if len(respBody) == 0 {
		fmt.Println("OK")
		return nil
	}

	var parsed any
	if err := json.Unmarshal(respBody, &parsed); err != nil {
		fmt.Println(string(respBody))
		return nil
	}
	printJSON(parsed)
	return nil
}

func printJSON(v any) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		fmt.Printf("failed to render response: %v\n", err)
		return
	}
	fmt.Println(string(data))
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max-3] + "..."
}
