package indexer

import (
	"encoding/json"
	"fmt"
	"time"

	"solanaScope/internal/model"
)

// TransformAccount maps an account event to its row. The capture timestamp
// of the event is kept.
func TransformAccount(ev model.AccountEvent) model.AccountRow {
	return model.AccountRow{
		Pubkey:       ev.Pubkey,
		Lamports:     ev.Lamports,
		Owner:        ev.Owner,
		Executable:   ev.Executable,
		RentEpoch:    ev.RentEpoch,
		Data:         ev.Data,
		WriteVersion: ev.WriteVersion,
		TxnSignature: ev.TxnSignature,
		Timestamp:    ev.CapturedAt.UTC(),
	}
}

// TransformTransaction maps a transaction event to its row, serializing list
// fields as JSON arrays and stamping the row with now.
func TransformTransaction(ev model.TransactionEvent, now time.Time) (model.TransactionRow, error) {
	pre, err := jsonList(ev.PreBalances)
	if err != nil {
		return model.TransactionRow{}, fmt.Errorf("encode pre_balances: %w", err)
	}
	post, err := jsonList(ev.PostBalances)
	if err != nil {
		return model.TransactionRow{}, fmt.Errorf("encode post_balances: %w", err)
	}
	logs, err := jsonList(ev.LogMessages)
	if err != nil {
		return model.TransactionRow{}, fmt.Errorf("encode log_messages: %w", err)
	}
	keys, err := jsonList(ev.AccountKeys)
	if err != nil {
		return model.TransactionRow{}, fmt.Errorf("encode account_keys: %w", err)
	}
	instructions, err := jsonList(normalizeInstructions(ev.Instructions))
	if err != nil {
		return model.TransactionRow{}, fmt.Errorf("encode instructions: %w", err)
	}

	return model.TransactionRow{
		Signature:            ev.Signature,
		Slot:                 ev.Slot,
		IsVote:               ev.IsVote,
		TxIndex:              ev.Index,
		Success:              ev.Success,
		Fee:                  ev.Fee,
		ComputeUnitsConsumed: ev.ComputeUnitsConsumed,
		Timestamp:            now.UTC(),
		PreBalances:          pre,
		PostBalances:         post,
		LogMessages:          logs,
		AccountKeys:          keys,
		Instructions:         instructions,
	}, nil
}

// TransformSlot maps a slot event to its row stamped with now.
func TransformSlot(ev model.SlotEvent, now time.Time) model.SlotRow {
	return model.SlotRow{
		Slot:      ev.Slot,
		Timestamp: now.UTC(),
	}
}

// jsonList encodes a slice as a JSON array; nil encodes as [] rather than null.
func jsonList[T any](items []T) (string, error) {
	if items == nil {
		items = []T{}
	}
	b, err := json.Marshal(items)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func normalizeInstructions(in []model.Instruction) []model.Instruction {
	out := make([]model.Instruction, len(in))
	for i, ix := range in {
		if ix.Accounts == nil {
			ix.Accounts = []string{}
		}
		out[i] = ix
	}
	return out
}
