package integration

import (
	"context"
	"net/http"
	"net/url"
	"testing"
	"time"

	"github.com/iho/fintrack/internal/adapter/http/dto"
	"github.com/iho/fintrack/tests/testutil"
)

func TestBalanceAsOf(t *testing.T) {
	ctx := context.Background()
	app := testutil.NewTestApp(t)

	account := app.CreateTestAccount(ctx, "History", "checking", "USD")

	jan := time.Date(2026, 1, 15, 12, 0, 0, 0, time.UTC)
	feb := time.Date(2026, 2, 15, 12, 0, 0, 0, time.UTC)

	for _, req := range []dto.CreateTransactionRequest{
		{AccountID: account.ID, Amount: "100.00", Currency: "USD", OccurredAt: &jan},
		{AccountID: account.ID, Amount: "-30.00", Currency: "USD", OccurredAt: &feb},
	} {
		if w := app.Do(http.MethodPost, "/api/v1/transactions", req); w.Code != http.StatusCreated {
			t.Fatalf("failed to record transaction: %d: %s", w.Code, w.Body.String())
		}
	}

	tests := []struct {
		name string
		asOf time.Time
		want string
	}{
		{"before any activity", time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC), "0.00"},
		{"at the first instant inclusive", jan, "100.00"},
		{"between the entries", time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC), "100.00"},
		{"after everything", time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC), "70.00"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := "/api/v1/accounts/" + account.ID + "/balance?as_of=" +
				url.QueryEscape(tt.asOf.Format(time.RFC3339))

			w := app.Do(http.MethodGet, path, nil)
			if w.Code != http.StatusOK {
				t.Fatalf("expected status %d, got %d: %s", http.StatusOK, w.Code, w.Body.String())
			}

			var balance dto.BalanceResponse
			app.Decode(w, &balance)

			if balance.Amount != tt.want {
				t.Errorf("expected balance %s, got %s", tt.want, balance.Amount)
			}
		})
	}
}

func TestAuditCleanLedger(t *testing.T) {
	ctx := context.Background()
	app := testutil.NewTestApp(t)

	checking := app.CreateTestAccount(ctx, "Checking", "checking", "USD")
	savings := app.CreateTestAccount(ctx, "Savings", "savings", "USD")
	groceries := app.CreateTestCategory(ctx, "Groceries", nil)

	if w := app.Do(http.MethodPost, "/api/v1/transactions", dto.CreateTransactionRequest{
		AccountID: checking.ID,
		Amount:    "-40.00",
		Currency:  "USD",
		Splits:    []dto.SplitRequest{{CategoryID: groceries.ID, Amount: "-40.00"}},
	}); w.Code != http.StatusCreated {
		t.Fatalf("failed to record transaction: %d: %s", w.Code, w.Body.String())
	}

	if w := app.Do(http.MethodPost, "/api/v1/transfers", dto.CreateTransferRequest{
		FromAccountID: savings.ID,
		ToAccountID:   checking.ID,
		Amount:        "40.00",
		Currency:      "USD",
	}); w.Code != http.StatusCreated {
		t.Fatalf("failed to execute transfer: %d: %s", w.Code, w.Body.String())
	}

	w := app.Do(http.MethodGet, "/api/v1/accounts/"+checking.ID+"/audit", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d: %s", http.StatusOK, w.Code, w.Body.String())
	}

	var audit dto.AuditResponse
	app.Decode(w, &audit)

	if len(audit.Findings) != 0 {
		t.Errorf("expected no findings on a clean ledger, got %+v", audit.Findings)
	}
}
