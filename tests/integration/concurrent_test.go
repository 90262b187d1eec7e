package integration

import (
	"context"
	"net/http"
	"sync"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/iho/fintrack/internal/adapter/http/dto"
	"github.com/iho/fintrack/tests/testutil"
)

// Concurrent transfers between a fixed set of accounts must conserve
// money: every transfer debits exactly what it credits, so the sum of
// all balances stays at zero no matter how the writes interleave.
func TestConcurrentTransfersConserveMoney(t *testing.T) {
	ctx := context.Background()
	app := testutil.NewTestApp(t)

	accounts := []string{
		app.CreateTestAccount(ctx, "Ring A", "checking", "USD").ID,
		app.CreateTestAccount(ctx, "Ring B", "savings", "USD").ID,
		app.CreateTestAccount(ctx, "Ring C", "cash", "USD").ID,
	}

	const workers = 12

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()

			from := accounts[i%len(accounts)]
			to := accounts[(i+1)%len(accounts)]

			w := app.Do(http.MethodPost, "/api/v1/transfers", dto.CreateTransferRequest{
				FromAccountID: from,
				ToAccountID:   to,
				Amount:        "7.00",
				Currency:      "USD",
			})
			// Lock contention may bounce a request; anything else is a bug.
			if w.Code != http.StatusCreated && w.Code != http.StatusConflict {
				t.Errorf("unexpected status %d: %s", w.Code, w.Body.String())
			}
		}(i)
	}
	wg.Wait()

	total := decimal.Zero
	for _, id := range accounts {
		var balance dto.BalanceResponse
		app.Decode(app.Do(http.MethodGet, "/api/v1/accounts/"+id+"/balance", nil), &balance)

		amount, err := decimal.NewFromString(balance.Amount)
		if err != nil {
			t.Fatalf("unparseable balance %q: %v", balance.Amount, err)
		}
		total = total.Add(amount)
	}

	if !total.IsZero() {
		t.Errorf("expected balances to sum to zero, got %s", total)
	}
}

func TestConcurrentAppendsAllLand(t *testing.T) {
	ctx := context.Background()
	app := testutil.NewTestApp(t)

	account := app.CreateTestAccount(ctx, "Hot Account", "checking", "USD")

	const writers = 10

	var wg sync.WaitGroup
	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()

			w := app.Do(http.MethodPost, "/api/v1/transactions", dto.CreateTransactionRequest{
				AccountID: account.ID,
				Amount:    "-1.00",
				Currency:  "USD",
			})
			if w.Code != http.StatusCreated {
				t.Errorf("unexpected status %d: %s", w.Code, w.Body.String())
			}
		}()
	}
	wg.Wait()

	var balance dto.BalanceResponse
	app.Decode(app.Do(http.MethodGet, "/api/v1/accounts/"+account.ID+"/balance", nil), &balance)

	if balance.Amount != "-10.00" {
		t.Errorf("expected balance -10.00 after %d appends, got %s", writers, balance.Amount)
	}
}
