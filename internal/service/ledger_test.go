package service

import (
	"io"
	"log/slog"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pinbank/internal/domain"
	"pinbank/internal/errors"
)

// memStore keeps the last saved registry in memory and counts saves, so
// tests can assert that every mutating operation persisted.
type memStore struct {
	saved   *domain.Registry
	saves   int
	failing bool
}

func (m *memStore) Load() (*domain.Registry, error) {
	if m.saved == nil {
		return domain.NewRegistry(), nil
	}
	return m.saved, nil
}

func (m *memStore) Save(reg *domain.Registry) error {
	if m.failing {
		return errors.NewAppError(errors.StorageFailure, "disk full")
	}
	m.saved = reg
	m.saves++
	return nil
}

func (m *memStore) Backup() (string, error) { return "", nil }
func (m *memStore) Restore(string) error    { return nil }

func newTestLedger(t *testing.T) (*Ledger, *memStore) {
	t.Helper()
	store := &memStore{}
	ledger, err := NewLedger(store, slog.New(slog.NewTextHandler(io.Discard, nil)))
	require.NoError(t, err)
	return ledger, store
}

func amt(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func TestCreateAccount(t *testing.T) {
	ledger, store := newTestLedger(t)

	acct, err := ledger.CreateAccount("Alice", "1234", amt("100.00"))
	require.NoError(t, err)

	assert.Len(t, acct.ID, 10)
	assert.Equal(t, "Alice", acct.OwnerName)
	assert.Len(t, acct.CredentialSalt, 16)
	assert.NotEmpty(t, acct.CredentialHash)
	assert.NotContains(t, acct.CredentialHash, "1234")
	assert.True(t, acct.Balance.Equal(amt("100.00")))

	require.Len(t, acct.Entries, 1)
	entry := acct.Entries[0]
	assert.Equal(t, domain.EntryDeposit, entry.Kind)
	assert.True(t, entry.Amount.Equal(amt("100.00")))
	assert.True(t, entry.BalanceAfter.Equal(amt("100.00")))

	assert.Equal(t, 1, store.saves, "creation must persist")
}

func TestCreateAccountZeroDeposit(t *testing.T) {
	ledger, _ := newTestLedger(t)

	acct, err := ledger.CreateAccount("Bob", "5678", decimal.Zero)
	require.NoError(t, err)
	assert.True(t, acct.Balance.IsZero())
	assert.Empty(t, acct.Entries, "zero initial deposit must not log an entry")
}

func TestCreateAccountValidation(t *testing.T) {
	ledger, store := newTestLedger(t)

	_, err := ledger.CreateAccount("", "1234", decimal.Zero)
	assert.ErrorIs(t, err, &errors.AppError{Code: errors.InvalidInput})

	_, err = ledger.CreateAccount("Alice", "12", decimal.Zero)
	assert.ErrorIs(t, err, &errors.AppError{Code: errors.InvalidInput})

	_, err = ledger.CreateAccount("Alice", "1234", amt("-1"))
	assert.ErrorIs(t, err, errors.ErrInvalidAmount)

	assert.Equal(t, 0, store.saves)
}

func TestAccountIDsUnique(t *testing.T) {
	ledger, _ := newTestLedger(t)

	seen := make(map[string]bool)
	for i := 0; i < 50; i++ {
		acct, err := ledger.CreateAccount("Owner", "1234", decimal.Zero)
		require.NoError(t, err)
		assert.False(t, seen[acct.ID], "duplicate id %s", acct.ID)
		seen[acct.ID] = true
	}
}

func TestAuthenticate(t *testing.T) {
	ledger, _ := newTestLedger(t)
	acct, err := ledger.CreateAccount("Alice", "1234", decimal.Zero)
	require.NoError(t, err)

	got, err := ledger.Authenticate(acct.ID, "1234")
	require.NoError(t, err)
	assert.Equal(t, acct.ID, got.ID)

	// Wrong PIN and unknown account must fail identically.
	_, badPIN := ledger.Authenticate(acct.ID, "9999")
	_, badID := ledger.Authenticate("0000000000", "1234")
	assert.ErrorIs(t, badPIN, errors.ErrAuthenticationFailed)
	assert.ErrorIs(t, badID, errors.ErrAuthenticationFailed)
	assert.Equal(t, badPIN, badID)
}

func TestDeposit(t *testing.T) {
	ledger, store := newTestLedger(t)
	acct, err := ledger.CreateAccount("Alice", "1234", amt("100.00"))
	require.NoError(t, err)

	got, err := ledger.Deposit(acct.ID, amt("25.50"))
	require.NoError(t, err)
	assert.True(t, got.Balance.Equal(amt("125.50")))

	require.Len(t, got.Entries, 2)
	entry := got.Entries[1]
	assert.Equal(t, domain.EntryDeposit, entry.Kind)
	assert.True(t, entry.Amount.Equal(amt("25.50")))
	assert.True(t, entry.BalanceAfter.Equal(amt("125.50")))

	assert.Equal(t, 2, store.saves)
}

func TestDepositInvalidAmount(t *testing.T) {
	ledger, _ := newTestLedger(t)
	acct, err := ledger.CreateAccount("Alice", "1234", decimal.Zero)
	require.NoError(t, err)

	_, err = ledger.Deposit(acct.ID, decimal.Zero)
	assert.ErrorIs(t, err, errors.ErrInvalidAmount)
	_, err = ledger.Deposit(acct.ID, amt("-5"))
	assert.ErrorIs(t, err, errors.ErrInvalidAmount)

	got, err := ledger.GetAccount(acct.ID)
	require.NoError(t, err)
	assert.Empty(t, got.Entries, "rejected deposit must not log")
}

func TestWithdraw(t *testing.T) {
	ledger, _ := newTestLedger(t)
	acct, err := ledger.CreateAccount("Alice", "1234", amt("100.00"))
	require.NoError(t, err)

	got, err := ledger.Withdraw(acct.ID, amt("30.00"))
	require.NoError(t, err)
	assert.True(t, got.Balance.Equal(amt("70.00")))

	entry := got.Entries[len(got.Entries)-1]
	assert.Equal(t, domain.EntryWithdraw, entry.Kind)
	assert.True(t, entry.Amount.Equal(amt("30.00")))
	assert.True(t, entry.BalanceAfter.Equal(amt("70.00")))
}

func TestWithdrawInsufficientFunds(t *testing.T) {
	ledger, _ := newTestLedger(t)
	acct, err := ledger.CreateAccount("Alice", "1234", amt("70.00"))
	require.NoError(t, err)

	_, err = ledger.Withdraw(acct.ID, amt("1000.00"))
	assert.ErrorIs(t, err, errors.ErrInsufficientFunds)

	got, err := ledger.GetAccount(acct.ID)
	require.NoError(t, err)
	assert.True(t, got.Balance.Equal(amt("70.00")), "failed withdrawal must not change the balance")
	assert.Len(t, got.Entries, 1)
}

func TestTransfer(t *testing.T) {
	ledger, store := newTestLedger(t)
	alice, err := ledger.CreateAccount("Alice", "1234", amt("70.00"))
	require.NoError(t, err)
	bob, err := ledger.CreateAccount("Bob", "5678", decimal.Zero)
	require.NoError(t, err)

	savesBefore := store.saves
	require.NoError(t, ledger.Transfer(alice.ID, bob.ID, amt("50.00")))
	assert.Equal(t, savesBefore+1, store.saves, "transfer must persist exactly once")

	gotAlice, err := ledger.GetAccount(alice.ID)
	require.NoError(t, err)
	gotBob, err := ledger.GetAccount(bob.ID)
	require.NoError(t, err)

	assert.True(t, gotAlice.Balance.Equal(amt("20.00")))
	assert.True(t, gotBob.Balance.Equal(amt("50.00")))

	// Conservation: total across both accounts unchanged.
	total := gotAlice.Balance.Add(gotBob.Balance)
	assert.True(t, total.Equal(amt("70.00")))

	out := gotAlice.Entries[len(gotAlice.Entries)-1]
	assert.Equal(t, domain.EntryTransferOut, out.Kind)
	assert.True(t, out.Amount.Equal(amt("50.00")))
	assert.True(t, out.BalanceAfter.Equal(amt("20.00")))
	assert.Contains(t, out.Description, bob.ID)

	in := gotBob.Entries[len(gotBob.Entries)-1]
	assert.Equal(t, domain.EntryTransferIn, in.Kind)
	assert.True(t, in.Amount.Equal(amt("50.00")))
	assert.True(t, in.BalanceAfter.Equal(amt("50.00")))
	assert.Contains(t, in.Description, alice.ID)
}

func TestTransferValidation(t *testing.T) {
	ledger, _ := newTestLedger(t)
	alice, err := ledger.CreateAccount("Alice", "1234", amt("10.00"))
	require.NoError(t, err)
	bob, err := ledger.CreateAccount("Bob", "5678", decimal.Zero)
	require.NoError(t, err)

	assert.ErrorIs(t, ledger.Transfer(alice.ID, bob.ID, decimal.Zero), errors.ErrInvalidAmount)
	assert.ErrorIs(t, ledger.Transfer(alice.ID, alice.ID, amt("1")), errors.ErrSameAccountTransfer)
	assert.ErrorIs(t, ledger.Transfer(alice.ID, "0000000000", amt("1")), errors.ErrDestinationNotFound)
	assert.ErrorIs(t, ledger.Transfer(alice.ID, bob.ID, amt("99.00")), errors.ErrInsufficientFunds)

	// No partial state from any rejected transfer.
	gotAlice, err := ledger.GetAccount(alice.ID)
	require.NoError(t, err)
	gotBob, err := ledger.GetAccount(bob.ID)
	require.NoError(t, err)
	assert.True(t, gotAlice.Balance.Equal(amt("10.00")))
	assert.True(t, gotBob.Balance.IsZero())
	assert.Len(t, gotAlice.Entries, 1)
	assert.Empty(t, gotBob.Entries)
}

func TestCloseAccount(t *testing.T) {
	ledger, _ := newTestLedger(t)
	acct, err := ledger.CreateAccount("Alice", "1234", decimal.Zero)
	require.NoError(t, err)

	require.NoError(t, ledger.CloseAccount(acct.ID))
	_, err = ledger.GetAccount(acct.ID)
	assert.ErrorIs(t, err, errors.ErrAccountNotFound)

	assert.ErrorIs(t, ledger.CloseAccount(acct.ID), errors.ErrAccountNotFound)
}

func TestCloseAccountNonZeroBalance(t *testing.T) {
	ledger, _ := newTestLedger(t)
	acct, err := ledger.CreateAccount("Alice", "1234", amt("5.00"))
	require.NoError(t, err)

	assert.ErrorIs(t, ledger.CloseAccount(acct.ID), errors.ErrAccountNotEmpty)

	// The explicit forfeit path closes regardless of balance.
	require.NoError(t, ledger.CloseAccountForfeit(acct.ID))
	_, err = ledger.GetAccount(acct.ID)
	assert.ErrorIs(t, err, errors.ErrAccountNotFound)
}

func TestGetEntriesIsACopy(t *testing.T) {
	ledger, _ := newTestLedger(t)
	acct, err := ledger.CreateAccount("Alice", "1234", amt("10.00"))
	require.NoError(t, err)

	entries, err := ledger.GetEntries(acct.ID)
	require.NoError(t, err)
	require.Len(t, entries, 1)

	entries[0].Description = "tampered"
	again, err := ledger.GetEntries(acct.ID)
	require.NoError(t, err)
	assert.Equal(t, "initial deposit", again[0].Description)
}

func TestListAccounts(t *testing.T) {
	ledger, _ := newTestLedger(t)
	_, err := ledger.CreateAccount("Alice", "1234", amt("100.00"))
	require.NoError(t, err)
	_, err = ledger.CreateAccount("Bob", "5678", decimal.Zero)
	require.NoError(t, err)

	summaries := ledger.ListAccounts()
	require.Len(t, summaries, 2)
	assert.Less(t, summaries[0].ID, summaries[1].ID, "summaries ordered by id")
	for _, s := range summaries {
		if s.OwnerName == "Alice" {
			assert.True(t, s.Balance.Equal(amt("100.00")))
			assert.Equal(t, 1, s.EntryCount)
		}
	}
}

func TestStorageFailureSurfaces(t *testing.T) {
	ledger, store := newTestLedger(t)
	acct, err := ledger.CreateAccount("Alice", "1234", amt("10.00"))
	require.NoError(t, err)

	store.failing = true
	_, err = ledger.Deposit(acct.ID, amt("1.00"))
	require.Error(t, err)
	assert.ErrorIs(t, err, &errors.AppError{Code: errors.StorageFailure})

	store.failing = false
	_, err = ledger.CreateAccount("Carol", "1111", decimal.Zero)
	require.NoError(t, err)
}

func TestCreateAccountRollsBackOnStorageFailure(t *testing.T) {
	ledger, store := newTestLedger(t)
	store.failing = true

	_, err := ledger.CreateAccount("Alice", "1234", decimal.Zero)
	require.Error(t, err)

	store.failing = false
	assert.Empty(t, ledger.ListAccounts(), "failed creation must not leave a registry entry")
}
