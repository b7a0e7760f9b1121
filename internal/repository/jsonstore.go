package repository

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"pinbank/internal/domain"
	"pinbank/internal/errors"
)

const storeVersion = 1

// meta travels with every persisted document so the format can be migrated
// or swapped for a database backend later.
type meta struct {
	Storage   string    `json:"storage"`
	Version   int       `json:"version"`
	Timestamp time.Time `json:"timestamp"`
}

// document is the on-disk shape: the full registry plus metadata. It must
// round-trip exactly through Save/Load with no field loss.
type document struct {
	Meta     meta                       `json:"_meta"`
	Accounts map[string]*domain.Account `json:"accounts"`
}

// JSONStore persists the whole registry as one JSON document. Writes are
// atomic: a tmp file is written first and renamed over the store, so a crash
// mid-write never corrupts the previous state.
type JSONStore struct {
	path      string
	backupDir string
	logger    *slog.Logger
}

func NewJSONStore(path, backupDir string, logger *slog.Logger) *JSONStore {
	return &JSONStore{
		path:      path,
		backupDir: backupDir,
		logger:    logger,
	}
}

// Load reads the registry from disk. An absent store means an empty registry;
// a present but unreadable or malformed store is reported as corrupt_store
// rather than silently treated as empty.
func (s *JSONStore) Load() (*domain.Registry, error) {
	raw, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			s.logger.Info("No existing store, starting with empty registry", "path", s.path)
			return domain.NewRegistry(), nil
		}
		return nil, errors.NewAppError(errors.StorageFailure, "failed to read account store").WithDetails(err.Error())
	}

	reg, err := decodeRegistry(raw)
	if err != nil {
		s.logger.Error("Account store is corrupt", "path", s.path, "error", err)
		return nil, errors.ErrCorruptStore.WithDetails(err.Error())
	}

	s.logger.Info("Registry loaded", "path", s.path, "accounts", len(reg.Accounts))
	return reg, nil
}

// Save atomically writes the full registry to disk.
func (s *JSONStore) Save(reg *domain.Registry) error {
	doc := document{
		Meta: meta{
			Storage:   "json_registry",
			Version:   storeVersion,
			Timestamp: time.Now().UTC(),
		},
		Accounts: reg.Accounts,
	}

	raw, err := json.MarshalIndent(&doc, "", "  ")
	if err != nil {
		return errors.NewAppError(errors.StorageFailure, "failed to encode registry").WithDetails(err.Error())
	}

	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, raw, 0o600); err != nil {
		return errors.NewAppError(errors.StorageFailure, "failed to write account store").WithDetails(err.Error())
	}
	if err := os.Rename(tmp, s.path); err != nil {
		os.Remove(tmp)
		return errors.NewAppError(errors.StorageFailure, "failed to replace account store").WithDetails(err.Error())
	}
	return nil
}

// Backup copies the current store to a timestamped file in the backup
// directory and returns the backup file name.
func (s *JSONStore) Backup() (string, error) {
	raw, err := os.ReadFile(s.path)
	if err != nil {
		return "", errors.NewAppError(errors.StorageFailure, "nothing to back up").WithDetails(err.Error())
	}

	name := fmt.Sprintf("registry-%s.json", time.Now().UTC().Format("20060102-150405"))
	dest := filepath.Join(s.backupDir, name)
	if err := os.WriteFile(dest, raw, 0o600); err != nil {
		return "", errors.NewAppError(errors.StorageFailure, "failed to write backup").WithDetails(err.Error())
	}

	s.logger.Info("Backup written", "file", dest)
	return name, nil
}

// Restore overwrites the store from a named backup file. The file is decoded
// first: a malformed backup is rejected before any live state is touched.
// Bare names resolve against the backup directory.
func (s *JSONStore) Restore(name string) error {
	src := name
	if !filepath.IsAbs(src) && filepath.Dir(src) == "." {
		src = filepath.Join(s.backupDir, name)
	}

	raw, err := os.ReadFile(src)
	if err != nil {
		return errors.NewAppError(errors.StorageFailure, "failed to read backup file").WithDetails(err.Error())
	}
	if _, err := decodeRegistry(raw); err != nil {
		return errors.ErrCorruptStore.WithDetails(err.Error())
	}

	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, raw, 0o600); err != nil {
		return errors.NewAppError(errors.StorageFailure, "failed to write account store").WithDetails(err.Error())
	}
	if err := os.Rename(tmp, s.path); err != nil {
		os.Remove(tmp)
		return errors.NewAppError(errors.StorageFailure, "failed to replace account store").WithDetails(err.Error())
	}

	s.logger.Info("Store restored", "from", src)
	return nil
}

// decodeRegistry parses and validates a persisted document. Required fields
// are enforced here instead of defaulting silently.
func decodeRegistry(raw []byte) (*domain.Registry, error) {
	var doc document
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, err
	}

	reg := domain.NewRegistry()
	for id, acct := range doc.Accounts {
		if acct == nil {
			return nil, fmt.Errorf("account %q: empty record", id)
		}
		if acct.ID == "" || acct.ID != id {
			return nil, fmt.Errorf("account %q: id mismatch (%q)", id, acct.ID)
		}
		if acct.CredentialSalt == "" || acct.CredentialHash == "" {
			return nil, fmt.Errorf("account %q: missing credential material", id)
		}
		if acct.Balance.IsNegative() {
			return nil, fmt.Errorf("account %q: negative balance %s", id, acct.Balance)
		}
		reg.Accounts[id] = acct
	}
	return reg, nil
}

var _ domain.RegistryStore = (*JSONStore)(nil)
