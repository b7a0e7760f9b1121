package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Account holds identity, credential material, the current balance and the
// account's transaction log. Balances never go negative; every mutation goes
// through the ledger service, which appends the matching log entry under the
// same lock.
type Account struct {
	ID             string          `json:"account_id"`
	OwnerName      string          `json:"owner_name"`
	CredentialSalt string          `json:"credential_salt"`
	CredentialHash string          `json:"credential_hash"`
	Balance        decimal.Decimal `json:"balance"`
	Entries        []LedgerEntry   `json:"transaction_log"`
	CreatedAt      time.Time       `json:"created_at"`
}

// Copy returns a deep copy safe to hand outside the registry lock.
func (a *Account) Copy() *Account {
	cp := *a
	cp.Entries = make([]LedgerEntry, len(a.Entries))
	copy(cp.Entries, a.Entries)
	return &cp
}

// AccountSummary is the admin enumeration view of one account.
type AccountSummary struct {
	ID         string          `json:"account_id"`
	OwnerName  string          `json:"owner_name"`
	Balance    decimal.Decimal `json:"balance"`
	EntryCount int             `json:"entry_count"`
}

// Registry is the full persisted state: every active account keyed by id.
type Registry struct {
	Accounts map[string]*Account `json:"accounts"`
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{Accounts: make(map[string]*Account)}
}

// RegistryStore is the persistence gateway for the registry. Save must be
// atomic at the file level; Load must distinguish an absent store (empty
// registry, nil error) from a malformed one.
type RegistryStore interface {
	Load() (*Registry, error)
	Save(reg *Registry) error
	Backup() (string, error)
	Restore(name string) error
}
