package service

import (
	"crypto/subtle"
	"log/slog"

	"pinbank/internal/domain"
	"pinbank/internal/errors"
)

// Admin gates registry-wide operations behind a shared secret from config.
// The secret is a stand-in for a real credential store; it is at least
// compared in constant time and never logged.
type Admin struct {
	secret string
	ledger *Ledger
	store  domain.RegistryStore
	logger *slog.Logger
}

func NewAdmin(secret string, ledger *Ledger, store domain.RegistryStore, logger *slog.Logger) *Admin {
	return &Admin{
		secret: secret,
		ledger: ledger,
		store:  store,
		logger: logger,
	}
}

// Authorize checks the supplied secret. An empty configured secret disables
// admin access entirely rather than allowing everyone in.
func (a *Admin) Authorize(secret string) error {
	if a.secret == "" || subtle.ConstantTimeCompare([]byte(secret), []byte(a.secret)) != 1 {
		a.logger.Warn("Admin authorization rejected")
		return errors.ErrAdminDenied
	}
	return nil
}

// ListAccounts enumerates every account: id, owner, balance, entry count.
func (a *Admin) ListAccounts(secret string) ([]domain.AccountSummary, error) {
	if err := a.Authorize(secret); err != nil {
		return nil, err
	}
	return a.ledger.ListAccounts(), nil
}

// InspectAccount returns one account's full state, transaction log included.
func (a *Admin) InspectAccount(secret, accountID string) (*domain.Account, error) {
	if err := a.Authorize(secret); err != nil {
		return nil, err
	}
	return a.ledger.GetAccount(accountID)
}

// Backup copies the current store to a timestamped file and returns its name.
func (a *Admin) Backup(secret string) (string, error) {
	if err := a.Authorize(secret); err != nil {
		return "", err
	}
	name, err := a.store.Backup()
	if err != nil {
		a.logger.Error("Backup failed", "error", err)
		return "", err
	}
	a.logger.Info("Backup completed", "file", name)
	return name, nil
}

// Restore overwrites the store from the named backup, then reloads the live
// registry, replacing all in-memory state. A file that fails validation is
// rejected before anything is replaced.
func (a *Admin) Restore(secret, name string) error {
	if err := a.Authorize(secret); err != nil {
		return err
	}
	if err := a.store.Restore(name); err != nil {
		a.logger.Error("Restore failed", "file", name, "error", err)
		return err
	}
	if err := a.ledger.Reload(); err != nil {
		return err
	}
	a.logger.Info("Restore completed", "file", name)
	return nil
}

// CloseAccount force-closes an account, forfeiting any remaining balance.
func (a *Admin) CloseAccount(secret, accountID string) error {
	if err := a.Authorize(secret); err != nil {
		return err
	}
	return a.ledger.CloseAccountForfeit(accountID)
}
