package dto

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/iho/fintrack/internal/domain"
)

// ErrorResponse represents an error response.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}

// AccountResponse represents an account in API responses.
type AccountResponse struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Kind      string    `json:"kind"`
	Currency  string    `json:"currency"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// AccountFromDomain converts a domain account to a response.
func AccountFromDomain(account *domain.Account) AccountResponse {
	return AccountResponse{
		ID:        account.ID,
		Name:      account.Name,
		Kind:      string(account.Kind),
		Currency:  account.Currency,
		CreatedAt: account.CreatedAt,
		UpdatedAt: account.UpdatedAt,
	}
}

// AccountsFromDomain converts a slice of domain accounts.
func AccountsFromDomain(accounts []*domain.Account) []AccountResponse {
	out := make([]AccountResponse, 0, len(accounts))
	for _, account := range accounts {
		out = append(out, AccountFromDomain(account))
	}

	return out
}

// ListAccountsResponse wraps a list of accounts.
type ListAccountsResponse struct {
	Accounts []AccountResponse `json:"accounts"`
	Total    int64             `json:"total"`
}

// CategoryResponse represents a category in API responses.
type CategoryResponse struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	ParentID  *string   `json:"parent_id,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// CategoryFromDomain converts a domain category to a response.
func CategoryFromDomain(category *domain.Category) CategoryResponse {
	return CategoryResponse{
		ID:        category.ID,
		Name:      category.Name,
		ParentID:  category.ParentID,
		CreatedAt: category.CreatedAt,
	}
}

// CategoriesFromDomain converts a slice of domain categories.
func CategoriesFromDomain(categories []*domain.Category) []CategoryResponse {
	out := make([]CategoryResponse, 0, len(categories))
	for _, category := range categories {
		out = append(out, CategoryFromDomain(category))
	}

	return out
}

// ListCategoriesResponse wraps a list of categories.
type ListCategoriesResponse struct {
	Categories []CategoryResponse `json:"categories"`
	Total      int64              `json:"total"`
}

// SplitResponse represents one split of a transaction.
type SplitResponse struct {
	CategoryID string `json:"category_id,omitempty"`
	Amount     string `json:"amount"`
	Memo       string `json:"memo,omitempty"`
}

// TransactionResponse represents a transaction in API responses.
type TransactionResponse struct {
	ID          string          `json:"id"`
	AccountID   string          `json:"account_id"`
	Amount      string          `json:"amount"`
	Currency    string          `json:"currency"`
	Description string          `json:"description,omitempty"`
	OccurredAt  time.Time       `json:"occurred_at"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
	TransferID  *string         `json:"transfer_id,omitempty"`
	Splits      []SplitResponse `json:"splits"`
}

// TransactionFromDomain converts a domain transaction to a response.
func TransactionFromDomain(txn *domain.Transaction) TransactionResponse {
	splits := make([]SplitResponse, 0, len(txn.Splits))
	for _, s := range txn.Splits {
		splits = append(splits, SplitResponse{
			CategoryID: s.CategoryID,
			Amount:     FormatAmount(s.Amount),
			Memo:       s.Memo,
		})
	}

	return TransactionResponse{
		ID:          txn.ID,
		AccountID:   txn.AccountID,
		Amount:      FormatAmount(txn.Total),
		Currency:    txn.Total.Currency,
		Description: txn.Description,
		OccurredAt:  txn.OccurredAt,
		CreatedAt:   txn.CreatedAt,
		UpdatedAt:   txn.UpdatedAt,
		TransferID:  txn.TransferID,
		Splits:      splits,
	}
}

// TransactionsFromDomain converts a slice of domain transactions.
func TransactionsFromDomain(txns []*domain.Transaction) []TransactionResponse {
	out := make([]TransactionResponse, 0, len(txns))
	for _, txn := range txns {
		out = append(out, TransactionFromDomain(txn))
	}

	return out
}

// ListTransactionsResponse wraps a list of transactions.
type ListTransactionsResponse struct {
	Transactions []TransactionResponse `json:"transactions"`
	Total        int64                 `json:"total"`
}

// TransferResponse represents a transfer in API responses.
type TransferResponse struct {
	ID               string    `json:"id"`
	FromAccountID    string    `json:"from_account_id"`
	ToAccountID      string    `json:"to_account_id"`
	Amount           string    `json:"amount"`
	Currency         string    `json:"currency"`
	OutTransactionID string    `json:"out_transaction_id"`
	InTransactionID  string    `json:"in_transaction_id"`
	CreatedAt        time.Time `json:"created_at"`
}

// TransferFromDomain converts a domain transfer to a response.
func TransferFromDomain(transfer *domain.Transfer) TransferResponse {
	return TransferResponse{
		ID:               transfer.ID,
		FromAccountID:    transfer.FromAccountID,
		ToAccountID:      transfer.ToAccountID,
		Amount:           FormatAmount(transfer.Amount),
		Currency:         transfer.Amount.Currency,
		OutTransactionID: transfer.OutTransactionID,
		InTransactionID:  transfer.InTransactionID,
		CreatedAt:        transfer.CreatedAt,
	}
}

// TransfersFromDomain converts a slice of domain transfers.
func TransfersFromDomain(transfers []*domain.Transfer) []TransferResponse {
	out := make([]TransferResponse, 0, len(transfers))
	for _, transfer := range transfers {
		out = append(out, TransferFromDomain(transfer))
	}

	return out
}

// ListTransfersResponse wraps a list of transfers.
type ListTransfersResponse struct {
	Transfers []TransferResponse `json:"transfers"`
	Total     int64              `json:"total"`
}

// BalanceResponse represents a derived account balance.
type BalanceResponse struct {
	AccountID string    `json:"account_id"`
	Amount    string    `json:"amount"`
	Currency  string    `json:"currency"`
	AsOf      time.Time `json:"as_of"`
}

// BalanceFromDomain converts a derived balance to a response.
func BalanceFromDomain(accountID string, balance domain.Money, asOf time.Time) BalanceResponse {
	return BalanceResponse{
		AccountID: accountID,
		Amount:    FormatAmount(balance),
		Currency:  balance.Currency,
		AsOf:      asOf,
	}
}

// InconsistencyResponse represents one audit finding.
type InconsistencyResponse struct {
	Kind          string `json:"kind"`
	AccountID     string `json:"account_id"`
	TransactionID string `json:"transaction_id,omitempty"`
	TransferID    string `json:"transfer_id,omitempty"`
	CategoryID    string `json:"category_id,omitempty"`
	Detail        string `json:"detail"`
}

// AuditResponse wraps the findings of an account audit.
type AuditResponse struct {
	AccountID string                  `json:"account_id"`
	Findings  []InconsistencyResponse `json:"findings"`
	Total     int64                   `json:"total"`
}

// AuditFromDomain converts audit findings to a response.
func AuditFromDomain(accountID string, findings []domain.Inconsistency) AuditResponse {
	out := make([]InconsistencyResponse, 0, len(findings))
	for _, f := range findings {
		out = append(out, InconsistencyResponse{
			Kind:          string(f.Kind),
			AccountID:     f.AccountID,
			TransactionID: f.TransactionID,
			TransferID:    f.TransferID,
			CategoryID:    f.CategoryID,
			Detail:        f.Detail,
		})
	}

	return AuditResponse{
		AccountID: accountID,
		Findings:  out,
		Total:     int64(len(out)),
	}
}

// FormatAmount renders a monetary amount as a decimal string with the
// currency's full minor-unit precision ("-12.00", "5000").
func FormatAmount(m domain.Money) string {
	exp := domain.CurrencyExponent(m.Currency)

	return decimal.New(m.Amount, -exp).StringFixed(exp)
}
