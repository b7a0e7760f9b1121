package service

import (
	"crypto/rand"
	"fmt"
	"log/slog"
	"math/big"
	"sort"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"pinbank/internal/domain"
	"pinbank/internal/errors"
	"pinbank/internal/util"
)

// accountIDSpace bounds generated ids to 10 numeric digits.
var accountIDSpace = big.NewInt(10_000_000_000)

// Ledger is the central authority over the account registry. A single mutex
// serializes every mutating operation, so a transfer touches both accounts
// and appends both log entries inside one critical section and no ordered
// two-lock scheme is needed. Reads return copies taken under the same lock.
type Ledger struct {
	mu     sync.Mutex
	accts  map[string]*domain.Account
	store  domain.RegistryStore
	logger *slog.Logger
}

// NewLedger restores the registry through the store and returns a ready
// engine. A corrupt store is surfaced to the caller, never treated as empty.
func NewLedger(store domain.RegistryStore, logger *slog.Logger) (*Ledger, error) {
	reg, err := store.Load()
	if err != nil {
		return nil, err
	}
	return &Ledger{
		accts:  reg.Accounts,
		store:  store,
		logger: logger,
	}, nil
}

// CreateAccount registers a new account with a fresh id, salted credential
// hash and, when initialDeposit is positive, a first DEPOSIT entry. The full
// registry is persisted before returning.
func (l *Ledger) CreateAccount(ownerName, pin string, initialDeposit decimal.Decimal) (*domain.Account, error) {
	if ownerName == "" {
		return nil, errors.NewAppError(errors.InvalidInput, "owner name must not be empty")
	}
	if !util.ValidPIN(pin) {
		return nil, errors.NewAppError(errors.InvalidInput, "PIN must be 4 to 6 digits")
	}
	if initialDeposit.IsNegative() {
		return nil, errors.ErrInvalidAmount
	}

	salt, err := util.NewSalt()
	if err != nil {
		return nil, errors.NewAppError(errors.InternalError, "failed to generate salt").WithDetails(err.Error())
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	id, err := l.newAccountID()
	if err != nil {
		return nil, err
	}

	acct := &domain.Account{
		ID:             id,
		OwnerName:      ownerName,
		CredentialSalt: salt,
		CredentialHash: util.HashPIN(pin, salt),
		Balance:        decimal.Zero,
		CreatedAt:      time.Now().UTC(),
	}
	if initialDeposit.IsPositive() {
		acct.Balance = initialDeposit
		acct.Entries = append(acct.Entries, domain.NewLedgerEntry(domain.EntryDeposit, initialDeposit, "initial deposit", acct.Balance))
	}
	l.accts[id] = acct

	if err := l.persist(); err != nil {
		delete(l.accts, id)
		return nil, err
	}

	l.logger.Info("Account created", "account_id", id, "owner", ownerName, "balance", acct.Balance)
	return acct.Copy(), nil
}

// Authenticate resolves an account by id and verifies the PIN against the
// stored salted hash. An unknown id and a wrong PIN fail identically so the
// caller learns nothing about which one it was.
func (l *Ledger) Authenticate(accountID, pin string) (*domain.Account, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	acct, ok := l.accts[accountID]
	if !ok || !util.VerifyPIN(pin, acct.CredentialSalt, acct.CredentialHash) {
		l.logger.Warn("Authentication failed", "account_id", accountID)
		return nil, errors.ErrAuthenticationFailed
	}
	return acct.Copy(), nil
}

// Deposit credits amount to the account and appends a DEPOSIT entry.
func (l *Ledger) Deposit(accountID string, amount decimal.Decimal) (*domain.Account, error) {
	if !amount.IsPositive() {
		return nil, errors.ErrInvalidAmount
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	acct, ok := l.accts[accountID]
	if !ok {
		return nil, errors.ErrAccountNotFound
	}

	acct.Balance = acct.Balance.Add(amount)
	acct.Entries = append(acct.Entries, domain.NewLedgerEntry(domain.EntryDeposit, amount, "deposit", acct.Balance))

	if err := l.persist(); err != nil {
		return nil, err
	}

	l.logger.Info("Deposit applied", "account_id", accountID, "amount", amount, "balance", acct.Balance)
	return acct.Copy(), nil
}

// Withdraw debits amount from the account and appends a WITHDRAW entry.
// The balance is never allowed to go negative.
func (l *Ledger) Withdraw(accountID string, amount decimal.Decimal) (*domain.Account, error) {
	if !amount.IsPositive() {
		return nil, errors.ErrInvalidAmount
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	acct, ok := l.accts[accountID]
	if !ok {
		return nil, errors.ErrAccountNotFound
	}
	if acct.Balance.LessThan(amount) {
		l.logger.Warn("Withdrawal rejected", "account_id", accountID, "amount", amount, "balance", acct.Balance)
		return nil, errors.ErrInsufficientFunds
	}

	acct.Balance = acct.Balance.Sub(amount)
	acct.Entries = append(acct.Entries, domain.NewLedgerEntry(domain.EntryWithdraw, amount, "withdrawal", acct.Balance))

	if err := l.persist(); err != nil {
		return nil, err
	}

	l.logger.Info("Withdrawal applied", "account_id", accountID, "amount", amount, "balance", acct.Balance)
	return acct.Copy(), nil
}

// Transfer moves amount between two distinct accounts. Both balance changes
// and both log entries happen inside one critical section with one persist,
// so the total across the two accounts is conserved exactly and durability is
// never split between the legs. Validation runs before any mutation.
func (l *Ledger) Transfer(fromID, toID string, amount decimal.Decimal) error {
	if !amount.IsPositive() {
		return errors.ErrInvalidAmount
	}
	if fromID == toID {
		return errors.ErrSameAccountTransfer
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	from, ok := l.accts[fromID]
	if !ok {
		return errors.ErrAccountNotFound
	}
	to, ok := l.accts[toID]
	if !ok {
		return errors.ErrDestinationNotFound
	}
	if from.Balance.LessThan(amount) {
		l.logger.Warn("Transfer rejected", "from", fromID, "to", toID, "amount", amount, "balance", from.Balance)
		return errors.ErrInsufficientFunds
	}

	from.Balance = from.Balance.Sub(amount)
	from.Entries = append(from.Entries, domain.NewLedgerEntry(domain.EntryTransferOut, amount, fmt.Sprintf("transfer to %s", toID), from.Balance))
	to.Balance = to.Balance.Add(amount)
	to.Entries = append(to.Entries, domain.NewLedgerEntry(domain.EntryTransferIn, amount, fmt.Sprintf("transfer from %s", fromID), to.Balance))

	if err := l.persist(); err != nil {
		return err
	}

	l.logger.Info("Transfer completed", "from", fromID, "to", toID, "amount", amount)
	return nil
}

// CloseAccount removes an account from the registry. The balance must be
// zero; CloseAccountForfeit is the explicit path for discarding funds.
func (l *Ledger) CloseAccount(accountID string) error {
	return l.close(accountID, false)
}

// CloseAccountForfeit removes an account regardless of balance. Remaining
// funds are forfeited; the caller is expected to have confirmed that.
func (l *Ledger) CloseAccountForfeit(accountID string) error {
	return l.close(accountID, true)
}

func (l *Ledger) close(accountID string, forfeit bool) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	acct, ok := l.accts[accountID]
	if !ok {
		return errors.ErrAccountNotFound
	}
	if !forfeit && !acct.Balance.IsZero() {
		return errors.ErrAccountNotEmpty
	}

	delete(l.accts, accountID)
	if err := l.persist(); err != nil {
		l.accts[accountID] = acct
		return err
	}

	l.logger.Info("Account closed", "account_id", accountID, "forfeited_balance", acct.Balance)
	return nil
}

// GetAccount is a pure lookup with no side effects.
func (l *Ledger) GetAccount(accountID string) (*domain.Account, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	acct, ok := l.accts[accountID]
	if !ok {
		return nil, errors.ErrAccountNotFound
	}
	return acct.Copy(), nil
}

// GetEntries returns a copy of the account's transaction log in append order.
func (l *Ledger) GetEntries(accountID string) ([]domain.LedgerEntry, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	acct, ok := l.accts[accountID]
	if !ok {
		return nil, errors.ErrAccountNotFound
	}
	out := make([]domain.LedgerEntry, len(acct.Entries))
	copy(out, acct.Entries)
	return out, nil
}

// ListAccounts returns summaries of every account, ordered by id.
func (l *Ledger) ListAccounts() []domain.AccountSummary {
	l.mu.Lock()
	defer l.mu.Unlock()

	out := make([]domain.AccountSummary, 0, len(l.accts))
	for _, acct := range l.accts {
		out = append(out, domain.AccountSummary{
			ID:         acct.ID,
			OwnerName:  acct.OwnerName,
			Balance:    acct.Balance,
			EntryCount: len(acct.Entries),
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Reload replaces all in-memory state from the store, used after an admin
// restore. The previous registry is discarded unconditionally on success.
func (l *Ledger) Reload() error {
	reg, err := l.store.Load()
	if err != nil {
		return err
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	l.accts = reg.Accounts
	l.logger.Info("Registry reloaded", "accounts", len(l.accts))
	return nil
}

// newAccountID draws 10-digit ids from crypto/rand until one is free.
// Uniqueness is structural: the collision check is against the live registry,
// not left to probability. Caller holds the lock.
func (l *Ledger) newAccountID() (string, error) {
	for {
		n, err := rand.Int(rand.Reader, accountIDSpace)
		if err != nil {
			return "", errors.NewAppError(errors.InternalError, "failed to generate account id").WithDetails(err.Error())
		}
		id := fmt.Sprintf("%010d", n)
		if _, taken := l.accts[id]; !taken {
			return id, nil
		}
	}
}

// persist writes the whole registry through the gateway. Caller holds the
// lock. On failure the in-memory mutation already happened; single-document
// writes keep durability consistent across both transfer legs either way.
func (l *Ledger) persist() error {
	if err := l.store.Save(&domain.Registry{Accounts: l.accts}); err != nil {
		l.logger.Error("Failed to persist registry", "error", err)
		return err
	}
	return nil
}
