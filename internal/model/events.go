package model

import "time"

// EventKind identifies the variant carried by an IndexEvent.
type EventKind string

const (
	KindAccount     EventKind = "account"
	KindTransaction EventKind = "transaction"
	KindSlot        EventKind = "slot"
	KindBlock       EventKind = "block"
)

// IndexEvent is a decoded stream update. The set of implementations is closed:
// AccountEvent, TransactionEvent, SlotEvent and BlockEvent.
type IndexEvent interface {
	Kind() EventKind
	isIndexEvent()
}

// AccountEvent is a write to an account of interest.
type AccountEvent struct {
	Pubkey       string    `json:"pubkey"`
	Owner        string    `json:"owner"`
	Lamports     uint64    `json:"lamports"`
	Executable   bool      `json:"executable"`
	RentEpoch    uint64    `json:"rent_epoch"`
	Data         string    `json:"data"`
	WriteVersion uint64    `json:"write_version"`
	TxnSignature *string   `json:"txn_signature,omitempty"`
	Slot         uint64    `json:"slot"`
	CapturedAt   time.Time `json:"captured_at"`
}

// Instruction is a compiled instruction with its indices resolved to keys.
type Instruction struct {
	ProgramID string   `json:"program_id"`
	Accounts  []string `json:"accounts"`
	Data      string   `json:"data"`
}

// TransactionEvent is a confirmed transaction touching a subscribed program.
type TransactionEvent struct {
	Signature            string        `json:"signature"`
	Slot                 uint64        `json:"slot"`
	IsVote               bool          `json:"is_vote"`
	Index                uint64        `json:"index"`
	Success              bool          `json:"success"`
	Fee                  *uint64       `json:"fee,omitempty"`
	ComputeUnitsConsumed *uint64       `json:"compute_units_consumed,omitempty"`
	PreBalances          []uint64      `json:"pre_balances"`
	PostBalances         []uint64      `json:"post_balances"`
	LogMessages          []string      `json:"log_messages"`
	AccountKeys          []string      `json:"account_keys"`
	Instructions         []Instruction `json:"instructions"`
}

// SlotEvent marks a slot advance.
type SlotEvent struct {
	Slot       uint64    `json:"slot"`
	CapturedAt time.Time `json:"captured_at"`
}

// BlockEvent is accepted from the stream but never persisted.
type BlockEvent struct {
	Slot       uint64 `json:"slot"`
	Blockhash  string `json:"blockhash"`
	ParentSlot uint64 `json:"parent_slot"`
}

func (AccountEvent) Kind() EventKind     { return KindAccount }
func (TransactionEvent) Kind() EventKind { return KindTransaction }
func (SlotEvent) Kind() EventKind        { return KindSlot }
func (BlockEvent) Kind() EventKind       { return KindBlock }

func (AccountEvent) isIndexEvent()     {}
func (TransactionEvent) isIndexEvent() {}
func (SlotEvent) isIndexEvent()        {}
func (BlockEvent) isIndexEvent()       {}
