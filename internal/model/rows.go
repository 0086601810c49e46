package model

import "time"

// Table names shared by every storage backend.
const (
	TableTransactions = "transactions"
	TableAccounts     = "accounts"
	TableSlots        = "slots"
)

// TransactionRow is the storage shape of a TransactionEvent. List fields hold
// JSON arrays.
type TransactionRow struct {
	Signature            string    `json:"signature" ch:"signature"`
	Slot                 uint64    `json:"slot" ch:"slot"`
	IsVote               bool      `json:"is_vote" ch:"is_vote"`
	TxIndex              uint64    `json:"tx_index" ch:"tx_index"`
	Success              bool      `json:"success" ch:"success"`
	Fee                  *uint64   `json:"fee" ch:"fee"`
	ComputeUnitsConsumed *uint64   `json:"compute_units_consumed" ch:"compute_units_consumed"`
	Timestamp            time.Time `json:"timestamp" ch:"timestamp"`
	PreBalances          string    `json:"pre_balances" ch:"pre_balances"`
	PostBalances         string    `json:"post_balances" ch:"post_balances"`
	LogMessages          string    `json:"log_messages" ch:"log_messages"`
	AccountKeys          string    `json:"account_keys" ch:"account_keys"`
	Instructions         string    `json:"instructions" ch:"instructions"`
}

// AccountRow is the storage shape of an AccountEvent.
type AccountRow struct {
	Pubkey       string    `json:"pubkey" ch:"pubkey"`
	Lamports     uint64    `json:"lamports" ch:"lamports"`
	Owner        string    `json:"owner" ch:"owner"`
	Executable   bool      `json:"executable" ch:"executable"`
	RentEpoch    uint64    `json:"rent_epoch" ch:"rent_epoch"`
	Data         string    `json:"data" ch:"data"`
	WriteVersion uint64    `json:"write_version" ch:"write_version"`
	TxnSignature *string   `json:"txn_signature" ch:"txn_signature"`
	Timestamp    time.Time `json:"timestamp" ch:"timestamp"`
}

// SlotRow is the storage shape of a SlotEvent.
type SlotRow struct {
	Slot      uint64    `json:"slot" ch:"slot"`
	Timestamp time.Time `json:"timestamp" ch:"timestamp"`
}
