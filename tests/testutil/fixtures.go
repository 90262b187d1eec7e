package testutil

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/oklog/ulid/v2"

	adaptershttp "github.com/iho/fintrack/internal/adapter/http"
	"github.com/iho/fintrack/internal/adapter/http/handler"
	"github.com/iho/fintrack/internal/adapter/repository/memory"
	"github.com/iho/fintrack/internal/domain"
	"github.com/iho/fintrack/internal/lock"
	"github.com/iho/fintrack/internal/usecase"
)

// TestApp wires the full HTTP stack over the in-memory store so
// integration tests can exercise real routing, validation, and ledger
// semantics without external services.
type TestApp struct {
	Router http.Handler

	Accounts        *usecase.AccountUseCase
	Categories      *usecase.CategoryUseCase
	Ledger          *usecase.LedgerUseCase
	Transfers       *usecase.TransferUseCase
	Reconciliations *usecase.ReconciliationUseCase

	t *testing.T
}

type ulidGenerator struct{}

func (ulidGenerator) Generate() string {
	return ulid.Make().String()
}

// NewTestApp builds a TestApp backed by a fresh in-memory store.
func NewTestApp(t *testing.T) *TestApp {
	t.Helper()

	store := memory.New()
	txManager := memory.NewTxManager(store)
	accountRepo := memory.NewAccountRepository(store)
	categoryRepo := memory.NewCategoryRepository(store)
	txnRepo := memory.NewTransactionRepository(store)
	transferRepo := memory.NewTransferRepository(store)

	locker := lock.NewManager(2 * time.Second)
	idGen := ulidGenerator{}
	validator := domain.Validator{}

	accountUC := usecase.NewAccountUseCase(accountRepo, txnRepo, txManager, locker, idGen, nil)
	categoryUC := usecase.NewCategoryUseCase(categoryRepo, txnRepo, txManager, locker, idGen)
	ledgerUC := usecase.NewLedgerUseCase(txManager, accountRepo, categoryRepo, txnRepo, transferRepo, locker, idGen, nil, validator, nil)
	transferUC := usecase.NewTransferUseCase(txManager, accountRepo, txnRepo, transferRepo, locker, idGen, nil, validator, nil)
	reconUC := usecase.NewReconciliationUseCase(accountRepo, categoryRepo, txnRepo, transferRepo, nil, nil)

	router := adaptershttp.NewRouter(adaptershttp.RouterConfig{
		AccountHandler:        handler.NewAccountHandler(accountUC),
		CategoryHandler:       handler.NewCategoryHandler(categoryUC),
		TransactionHandler:    handler.NewTransactionHandler(ledgerUC),
		TransferHandler:       handler.NewTransferHandler(transferUC),
		ReconciliationHandler: handler.NewReconciliationHandler(reconUC),
		HealthHandler:         handler.NewHealthHandler(nil, nil),
	})

	return &TestApp{
		Router:          router,
		Accounts:        accountUC,
		Categories:      categoryUC,
		Ledger:          ledgerUC,
		Transfers:       transferUC,
		Reconciliations: reconUC,
		t:               t,
	}
}

// Do performs an HTTP request against the app's router. A non-nil
// body is JSON-encoded.
func (app *TestApp) Do(method, path string, body any) *httptest.ResponseRecorder {
	app.t.Helper()

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			app.t.Fatalf("failed to encode request body: %v", err)
		}
		reader = bytes.NewReader(data)
	}

	r := httptest.NewRequest(method, path, reader)
	if body != nil {
		r.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	app.Router.ServeHTTP(w, r)
	return w
}

// Decode parses a recorded JSON response into v.
func (app *TestApp) Decode(w *httptest.ResponseRecorder, v any) {
	app.t.Helper()

	if err := json.Unmarshal(w.Body.Bytes(), v); err != nil {
		app.t.Fatalf("failed to parse response %q: %v", w.Body.String(), err)
	}
}

// CreateTestAccount creates an account directly through the use case.
func (app *TestApp) CreateTestAccount(ctx context.Context, name, kind, currency string) *domain.Account {
	app.t.Helper()

	account, err := app.Accounts.CreateAccount(ctx, usecase.CreateAccountInput{
		Name:     name,
		Kind:     kind,
		Currency: currency,
	})
	if err != nil {
		app.t.Fatalf("failed to create test account: %v", err)
	}
	return account
}

// CreateTestCategory creates a category directly through the use case.
func (app *TestApp) CreateTestCategory(ctx context.Context, name string, parentID *string) *domain.Category {
	app.t.Helper()

	category, err := app.Categories.CreateCategory(ctx, usecase.CreateCategoryInput{
		Name:     name,
		ParentID: parentID,
	})
	if err != nil {
		app.t.Fatalf("failed to create test category: %v", err)
	}
	return category
}

// GenerateID generates a new ULID.
func GenerateID() string {
	return ulid.Make().String()
}
