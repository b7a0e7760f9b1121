package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// EntryKind classifies a ledger entry.
type EntryKind string

const (
	EntryDeposit     EntryKind = "DEPOSIT"
	EntryWithdraw    EntryKind = "WITHDRAW"
	EntryTransferOut EntryKind = "TRANSFER_OUT"
	EntryTransferIn  EntryKind = "TRANSFER_IN"
)

// LedgerEntry is one immutable record of a balance-affecting event. Entries
// are append-only: never edited, removed or reordered once written. Amount is
// the positive magnitude of the movement; BalanceAfter snapshots the account
// balance immediately after the entry applied, so history reads never need to
// replay prior entries.
type LedgerEntry struct {
	ID           uuid.UUID       `json:"id"`
	Timestamp    time.Time       `json:"timestamp"`
	Kind         EntryKind       `json:"kind"`
	Amount       decimal.Decimal `json:"amount"`
	Description  string          `json:"description"`
	BalanceAfter decimal.Decimal `json:"balance_after"`
}

// NewLedgerEntry stamps a fresh entry with the current time.
func NewLedgerEntry(kind EntryKind, amount decimal.Decimal, description string, balanceAfter decimal.Decimal) LedgerEntry {
	return LedgerEntry{
		ID:           uuid.New(),
		Timestamp:    time.Now().UTC(),
		Kind:         kind,
		Amount:       amount,
		Description:  description,
		BalanceAfter: balanceAfter,
	}
}
