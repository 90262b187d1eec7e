package usecase_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iho/fintrack/internal/domain"
	"github.com/iho/fintrack/internal/usecase"
)

// A 50.00 USD transfer debits the source and credits the destination
// with exactly negated totals.
func TestExecuteTransfer_ZeroSum(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	checking := f.mustAccount(t, "Checking", "checking", "USD")
	savings := f.mustAccount(t, "Savings", "savings", "USD")

	transfer, err := f.transfer.ExecuteTransfer(context.Background(), usecase.ExecuteTransferInput{
		FromAccountID: checking.ID,
		ToAccountID:   savings.ID,
		Amount:        domain.NewMoney(5000, "USD"),
	})
	require.NoError(t, err)

	out, err := f.ledger.GetTransaction(context.Background(), transfer.OutTransactionID)
	require.NoError(t, err)

	in, err := f.ledger.GetTransaction(context.Background(), transfer.InTransactionID)
	require.NoError(t, err)

	assert.Equal(t, int64(-5000), out.Total.Amount)
	assert.Equal(t, int64(5000), in.Total.Amount)
	assert.True(t, out.Total.Equal(in.Total.Neg()))
	require.NotNil(t, out.TransferID)
	require.NotNil(t, in.TransferID)
	assert.Equal(t, transfer.ID, *out.TransferID)
	assert.Equal(t, transfer.ID, *in.TransferID)

	asOf := time.Now().UTC().Add(time.Hour)

	fromBalance, err := f.recon.BalanceAsOf(context.Background(), checking.ID, asOf)
	require.NoError(t, err)
	assert.Equal(t, int64(-5000), fromBalance.Amount)

	toBalance, err := f.recon.BalanceAsOf(context.Background(), savings.ID, asOf)
	require.NoError(t, err)
	assert.Equal(t, int64(5000), toBalance.Amount)

	require.NoError(t, f.recon.CheckLedgerConsistency(context.Background()))
}

func TestExecuteTransfer_Errors(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	checking := f.mustAccount(t, "Checking", "checking", "USD")
	savings := f.mustAccount(t, "Savings", "savings", "USD")
	euro := f.mustAccount(t, "Euro Wallet", "cash", "EUR")

	tests := []struct {
		name    string
		input   usecase.ExecuteTransferInput
		wantErr error
	}{
		{
			name: "same account",
			input: usecase.ExecuteTransferInput{
				FromAccountID: checking.ID,
				ToAccountID:   checking.ID,
				Amount:        domain.NewMoney(100, "USD"),
			},
			wantErr: domain.ErrSameAccount,
		},
		{
			name: "zero amount",
			input: usecase.ExecuteTransferInput{
				FromAccountID: checking.ID,
				ToAccountID:   savings.ID,
				Amount:        domain.NewMoney(0, "USD"),
			},
			wantErr: domain.ErrInvalidAmount,
		},
		{
			name: "negative amount",
			input: usecase.ExecuteTransferInput{
				FromAccountID: checking.ID,
				ToAccountID:   savings.ID,
				Amount:        domain.NewMoney(-100, "USD"),
			},
			wantErr: domain.ErrInvalidAmount,
		},
		{
			name: "unknown source",
			input: usecase.ExecuteTransferInput{
				FromAccountID: "no-such-account",
				ToAccountID:   savings.ID,
				Amount:        domain.NewMoney(100, "USD"),
			},
			wantErr: domain.ErrUnknownAccount,
		},
		{
			name: "currency mismatch",
			input: usecase.ExecuteTransferInput{
				FromAccountID: checking.ID,
				ToAccountID:   euro.ID,
				Amount:        domain.NewMoney(100, "USD"),
			},
			wantErr: domain.ErrCurrencyMismatch,
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			_, err := f.transfer.ExecuteTransfer(context.Background(), tt.input)
			require.ErrorIs(t, err, tt.wantErr)
		})
	}
}

// Concurrent transfers between a fixed set of accounts must conserve
// total money: whatever interleaving occurs, the sum of all balances
// stays exactly what it was before.
func TestExecuteTransfer_ConcurrentConservation(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	ctx := context.Background()

	accounts := []*domain.Account{
		f.mustAccount(t, "A", "checking", "USD"),
		f.mustAccount(t, "B", "savings", "USD"),
		f.mustAccount(t, "C", "cash", "USD"),
	}

	const workers = 24

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)

		go func(i int) {
			defer wg.Done()

			from := accounts[i%len(accounts)]
			to := accounts[(i+1)%len(accounts)]

			_, err := f.transfer.ExecuteTransfer(ctx, usecase.ExecuteTransferInput{
				FromAccountID: from.ID,
				ToAccountID:   to.ID,
				Amount:        domain.NewMoney(int64(100+i), "USD"),
			})
			assert.NoError(t, err)
		}(i)
	}

	wg.Wait()

	asOf := time.Now().UTC().Add(time.Hour)

	var total int64
	for _, account := range accounts {
		balance, err := f.recon.BalanceAsOf(ctx, account.ID, asOf)
		require.NoError(t, err)
		total += balance.Amount
	}

	assert.Equal(t, int64(0), total)
	require.NoError(t, f.recon.CheckLedgerConsistency(ctx))
}

func TestListTransfersByAccount(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	checking := f.mustAccount(t, "Checking", "checking", "USD")
	savings := f.mustAccount(t, "Savings", "savings", "USD")
	cash := f.mustAccount(t, "Cash", "cash", "USD")

	_, err := f.transfer.ExecuteTransfer(context.Background(), usecase.ExecuteTransferInput{
		FromAccountID: checking.ID,
		ToAccountID:   savings.ID,
		Amount:        domain.NewMoney(5000, "USD"),
	})
	require.NoError(t, err)

	_, err = f.transfer.ExecuteTransfer(context.Background(), usecase.ExecuteTransferInput{
		FromAccountID: savings.ID,
		ToAccountID:   cash.ID,
		Amount:        domain.NewMoney(2000, "USD"),
	})
	require.NoError(t, err)

	transfers, err := f.transfer.ListTransfersByAccount(context.Background(), savings.ID, 0, 0)
	require.NoError(t, err)
	assert.Len(t, transfers, 2)

	transfers, err = f.transfer.ListTransfersByAccount(context.Background(), cash.ID, 0, 0)
	require.NoError(t, err)
	assert.Len(t, transfers, 1)
}
