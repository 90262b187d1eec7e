package dto

import (
	"fmt"
	"time"

	"github.com/iho/fintrack/internal/domain"
	"github.com/iho/fintrack/internal/usecase"
)

// Monetary amounts cross the API as decimal strings ("50.00") next to
// an ISO 4217 currency code. Parsing rejects anything that does not
// land exactly on a minor unit.

// CreateAccountRequest represents a request to create an account.
type CreateAccountRequest struct {
	Name     string `json:"name"`
	Kind     string `json:"kind"`
	Currency string `json:"currency"`
}

// ToUseCaseInput converts to use case input.
func (r *CreateAccountRequest) ToUseCaseInput() usecase.CreateAccountInput {
	return usecase.CreateAccountInput{
		Name:     r.Name,
		Kind:     r.Kind,
		Currency: r.Currency,
	}
}

// CreateCategoryRequest represents a request to create a category.
type CreateCategoryRequest struct {
	Name     string  `json:"name"`
	ParentID *string `json:"parent_id,omitempty"`
}

// ToUseCaseInput converts to use case input.
func (r *CreateCategoryRequest) ToUseCaseInput() usecase.CreateCategoryInput {
	return usecase.CreateCategoryInput{
		Name:     r.Name,
		ParentID: r.ParentID,
	}
}

// SplitRequest represents one split of a transaction request.
type SplitRequest struct {
	CategoryID string `json:"category_id,omitempty"`
	Amount     string `json:"amount"`
	Memo       string `json:"memo,omitempty"`
}

// CreateTransactionRequest represents a request to append a transaction.
type CreateTransactionRequest struct {
	AccountID   string         `json:"account_id"`
	Amount      string         `json:"amount"`
	Currency    string         `json:"currency"`
	OccurredAt  *time.Time     `json:"occurred_at,omitempty"`
	Description string         `json:"description,omitempty"`
	Splits      []SplitRequest `json:"splits,omitempty"`
}

// ToUseCaseInput converts to use case input.
func (r *CreateTransactionRequest) ToUseCaseInput() (usecase.AppendTransactionInput, error) {
	total, err := domain.ParseMoney(r.Amount, r.Currency)
	if err != nil {
		return usecase.AppendTransactionInput{}, err
	}

	splits, err := splitInputs(r.Splits, r.Currency)
	if err != nil {
		return usecase.AppendTransactionInput{}, err
	}

	return usecase.AppendTransactionInput{
		AccountID:   r.AccountID,
		Total:       total,
		OccurredAt:  r.OccurredAt,
		Description: r.Description,
		Splits:      splits,
	}, nil
}

// UpdateTransactionRequest carries replacement fields for an edit.
// Absent fields are left unchanged. Currency is required whenever
// Amount or Splits are present.
type UpdateTransactionRequest struct {
	Amount      *string        `json:"amount,omitempty"`
	Currency    string         `json:"currency,omitempty"`
	OccurredAt  *time.Time     `json:"occurred_at,omitempty"`
	Description *string        `json:"description,omitempty"`
	Splits      []SplitRequest `json:"splits,omitempty"`
}

// ToUseCaseInput converts to use case input.
func (r *UpdateTransactionRequest) ToUseCaseInput() (usecase.EditTransactionInput, error) {
	// Without a currency the decimal amounts have no scale, so guessing
	// one would silently misparse non-two-exponent currencies.
	if (r.Amount != nil || r.Splits != nil) && r.Currency == "" {
		return usecase.EditTransactionInput{}, fmt.Errorf("%w: currency is required with amount or splits", domain.ErrInvalidCurrency)
	}

	input := usecase.EditTransactionInput{
		OccurredAt:  r.OccurredAt,
		Description: r.Description,
	}

	if r.Amount != nil {
		total, err := domain.ParseMoney(*r.Amount, r.Currency)
		if err != nil {
			return usecase.EditTransactionInput{}, err
		}

		input.Total = &total
	}

	if r.Splits != nil {
		splits, err := splitInputs(r.Splits, r.Currency)
		if err != nil {
			return usecase.EditTransactionInput{}, err
		}

		input.Splits = splits
	}

	return input, nil
}

// CreateTransferRequest represents a request to execute a transfer.
type CreateTransferRequest struct {
	FromAccountID string     `json:"from_account_id"`
	ToAccountID   string     `json:"to_account_id"`
	Amount        string     `json:"amount"`
	Currency      string     `json:"currency"`
	OccurredAt    *time.Time `json:"occurred_at,omitempty"`
	Description   string     `json:"description,omitempty"`
}

// ToUseCaseInput converts to use case input.
func (r *CreateTransferRequest) ToUseCaseInput() (usecase.ExecuteTransferInput, error) {
	amount, err := domain.ParseMoney(r.Amount, r.Currency)
	if err != nil {
		return usecase.ExecuteTransferInput{}, err
	}

	return usecase.ExecuteTransferInput{
		FromAccountID: r.FromAccountID,
		ToAccountID:   r.ToAccountID,
		Amount:        amount,
		OccurredAt:    r.OccurredAt,
		Description:   r.Description,
	}, nil
}

func splitInputs(reqs []SplitRequest, currency string) ([]usecase.SplitInput, error) {
	if reqs == nil {
		return nil, nil
	}

	splits := make([]usecase.SplitInput, len(reqs))

	for i, s := range reqs {
		amount, err := domain.ParseMoney(s.Amount, currency)
		if err != nil {
			return nil, err
		}

		splits[i] = usecase.SplitInput{
			CategoryID: s.CategoryID,
			Amount:     amount.Amount,
			Memo:       s.Memo,
		}
	}

	return splits, nil
}
