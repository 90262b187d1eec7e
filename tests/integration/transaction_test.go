package integration

import (
	"context"
	"net/http"
	"testing"

	"github.com/iho/fintrack/internal/adapter/http/dto"
	"github.com/iho/fintrack/tests/testutil"
)

func TestTransactionLedger(t *testing.T) {
	ctx := context.Background()
	app := testutil.NewTestApp(t)

	account := app.CreateTestAccount(ctx, "Main Checking", "checking", "USD")
	groceries := app.CreateTestCategory(ctx, "Groceries", nil)
	household := app.CreateTestCategory(ctx, "Household", nil)

	t.Run("append transaction with categorized splits", func(t *testing.T) {
		w := app.Do(http.MethodPost, "/api/v1/transactions", dto.CreateTransactionRequest{
			AccountID:   account.ID,
			Amount:      "-12.00",
			Currency:    "USD",
			Description: "supermarket run",
			Splits: []dto.SplitRequest{
				{CategoryID: groceries.ID, Amount: "-8.00"},
				{CategoryID: household.ID, Amount: "-4.00"},
			},
		})

		if w.Code != http.StatusCreated {
			t.Fatalf("expected status %d, got %d: %s", http.StatusCreated, w.Code, w.Body.String())
		}

		var resp dto.TransactionResponse
		app.Decode(w, &resp)

		if resp.Amount != "-12.00" {
			t.Errorf("expected amount -12.00, got %s", resp.Amount)
		}
		if len(resp.Splits) != 2 {
			t.Fatalf("expected 2 splits, got %d", len(resp.Splits))
		}
		if resp.Splits[0].Amount != "-8.00" || resp.Splits[1].Amount != "-4.00" {
			t.Errorf("unexpected split amounts: %+v", resp.Splits)
		}
	})

	t.Run("splits must cover the total exactly", func(t *testing.T) {
		w := app.Do(http.MethodPost, "/api/v1/transactions", dto.CreateTransactionRequest{
			AccountID: account.ID,
			Amount:    "-10.00",
			Currency:  "USD",
			Splits: []dto.SplitRequest{
				{CategoryID: groceries.ID, Amount: "-4.00"},
				{CategoryID: household.ID, Amount: "-5.00"},
			},
		})

		if w.Code != http.StatusUnprocessableEntity {
			t.Fatalf("expected status %d, got %d: %s", http.StatusUnprocessableEntity, w.Code, w.Body.String())
		}
	})

	t.Run("sub-minor-unit precision is rejected", func(t *testing.T) {
		w := app.Do(http.MethodPost, "/api/v1/transactions", dto.CreateTransactionRequest{
			AccountID: account.ID,
			Amount:    "-12.005",
			Currency:  "USD",
		})

		if w.Code != http.StatusUnprocessableEntity {
			t.Fatalf("expected status %d, got %d: %s", http.StatusUnprocessableEntity, w.Code, w.Body.String())
		}
	})

	t.Run("currency must match the account", func(t *testing.T) {
		w := app.Do(http.MethodPost, "/api/v1/transactions", dto.CreateTransactionRequest{
			AccountID: account.ID,
			Amount:    "-12.00",
			Currency:  "EUR",
		})

		if w.Code != http.StatusUnprocessableEntity {
			t.Fatalf("expected status %d, got %d: %s", http.StatusUnprocessableEntity, w.Code, w.Body.String())
		}
	})

	t.Run("rejected write leaves the ledger untouched", func(t *testing.T) {
		before := app.Do(http.MethodGet, "/api/v1/accounts/"+account.ID+"/balance", nil)
		var balance dto.BalanceResponse
		app.Decode(before, &balance)

		w := app.Do(http.MethodPost, "/api/v1/transactions", dto.CreateTransactionRequest{
			AccountID: account.ID,
			Amount:    "-99.00",
			Currency:  "USD",
			Splits: []dto.SplitRequest{
				{CategoryID: groceries.ID, Amount: "-1.00"},
			},
		})
		if w.Code != http.StatusUnprocessableEntity {
			t.Fatalf("expected rejection, got %d", w.Code)
		}

		after := app.Do(http.MethodGet, "/api/v1/accounts/"+account.ID+"/balance", nil)
		var balanceAfter dto.BalanceResponse
		app.Decode(after, &balanceAfter)

		if balanceAfter.Amount != balance.Amount {
			t.Errorf("balance changed after rejected write: %s -> %s", balance.Amount, balanceAfter.Amount)
		}
	})

	t.Run("edit replaces amount and keeps coverage", func(t *testing.T) {
		w := app.Do(http.MethodPost, "/api/v1/transactions", dto.CreateTransactionRequest{
			AccountID: account.ID,
			Amount:    "-20.00",
			Currency:  "USD",
		})
		if w.Code != http.StatusCreated {
			t.Fatalf("failed to record transaction: %d: %s", w.Code, w.Body.String())
		}

		var created dto.TransactionResponse
		app.Decode(w, &created)

		newAmount := "-25.00"
		w = app.Do(http.MethodPut, "/api/v1/transactions/"+created.ID, dto.UpdateTransactionRequest{
			Amount:   &newAmount,
			Currency: "USD",
		})
		if w.Code != http.StatusOK {
			t.Fatalf("expected status %d, got %d: %s", http.StatusOK, w.Code, w.Body.String())
		}

		var edited dto.TransactionResponse
		app.Decode(w, &edited)

		if edited.Amount != "-25.00" {
			t.Errorf("expected amount -25.00, got %s", edited.Amount)
		}
		if len(edited.Splits) != 1 || edited.Splits[0].Amount != "-25.00" {
			t.Errorf("expected covering split to follow the total, got %+v", edited.Splits)
		}
	})

	t.Run("delete removes the transaction", func(t *testing.T) {
		w := app.Do(http.MethodPost, "/api/v1/transactions", dto.CreateTransactionRequest{
			AccountID: account.ID,
			Amount:    "-5.00",
			Currency:  "USD",
		})
		var created dto.TransactionResponse
		app.Decode(w, &created)

		w = app.Do(http.MethodDelete, "/api/v1/transactions/"+created.ID, nil)
		if w.Code != http.StatusNoContent {
			t.Fatalf("expected status %d, got %d: %s", http.StatusNoContent, w.Code, w.Body.String())
		}

		w = app.Do(http.MethodGet, "/api/v1/transactions/"+created.ID, nil)
		if w.Code != http.StatusNotFound {
			t.Errorf("expected 404 after delete, got %d", w.Code)
		}
	})

	t.Run("list filters by category", func(t *testing.T) {
		w := app.Do(http.MethodGet, "/api/v1/transactions?category_id="+groceries.ID, nil)
		if w.Code != http.StatusOK {
			t.Fatalf("expected status %d, got %d: %s", http.StatusOK, w.Code, w.Body.String())
		}

		var resp dto.ListTransactionsResponse
		app.Decode(w, &resp)

		for _, txn := range resp.Transactions {
			found := false
			for _, s := range txn.Splits {
				if s.CategoryID == groceries.ID {
					found = true
				}
			}
			if !found {
				t.Errorf("transaction %s has no split in the filtered category", txn.ID)
			}
		}
	})
}

func TestAccountDeletionGuards(t *testing.T) {
	ctx := context.Background()
	app := testutil.NewTestApp(t)

	account := app.CreateTestAccount(ctx, "Busy", "checking", "USD")

	w := app.Do(http.MethodPost, "/api/v1/transactions", dto.CreateTransactionRequest{
		AccountID: account.ID,
		Amount:    "-1.00",
		Currency:  "USD",
	})
	if w.Code != http.StatusCreated {
		t.Fatalf("failed to record transaction: %d: %s", w.Code, w.Body.String())
	}

	w = app.Do(http.MethodDelete, "/api/v1/accounts/"+account.ID, nil)
	if w.Code != http.StatusConflict {
		t.Fatalf("expected status %d for account with history, got %d: %s", http.StatusConflict, w.Code, w.Body.String())
	}
}
