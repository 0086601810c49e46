package geyser

import (
	"encoding/base64"
	"time"

	"github.com/mr-tron/base58"
	pb "github.com/rpcpool/yellowstone-grpc/examples/golang/proto"

	"solanaScope/internal/model"
)

// DecodeUpdate maps one wire update to an IndexEvent. The second return value
// is false when the update carries nothing to index: unknown payload kinds,
// pings, and account or transaction updates whose inner payload is absent.
func DecodeUpdate(update *pb.SubscribeUpdate, now time.Time) (model.IndexEvent, bool) {
	switch u := update.GetUpdateOneof().(type) {
	case *pb.SubscribeUpdate_Account:
		return decodeAccount(u.Account, now)
	case *pb.SubscribeUpdate_Transaction:
		return decodeTransaction(u.Transaction)
	case *pb.SubscribeUpdate_Slot:
		if u.Slot == nil {
			return nil, false
		}
		return model.SlotEvent{Slot: u.Slot.GetSlot(), CapturedAt: now.UTC()}, true
	case *pb.SubscribeUpdate_Block:
		if u.Block == nil {
			return nil, false
		}
		return model.BlockEvent{
			Slot:       u.Block.GetSlot(),
			Blockhash:  u.Block.GetBlockhash(),
			ParentSlot: u.Block.GetParentSlot(),
		}, true
	default:
		return nil, false
	}
}

func decodeAccount(update *pb.SubscribeUpdateAccount, now time.Time) (model.IndexEvent, bool) {
	info := update.GetAccount()
	if info == nil {
		return nil, false
	}

	var txnSignature *string
	if sig := info.GetTxnSignature(); len(sig) > 0 {
		encoded := base58.Encode(sig)
		txnSignature = &encoded
	}

	return model.AccountEvent{
		Pubkey:       base58.Encode(info.GetPubkey()),
		Owner:        base58.Encode(info.GetOwner()),
		Lamports:     info.GetLamports(),
		Executable:   info.GetExecutable(),
		RentEpoch:    info.GetRentEpoch(),
		Data:         base64.StdEncoding.EncodeToString(info.GetData()),
		WriteVersion: info.GetWriteVersion(),
		TxnSignature: txnSignature,
		Slot:         update.GetSlot(),
		CapturedAt:   now.UTC(),
	}, true
}

func decodeTransaction(update *pb.SubscribeUpdateTransaction) (model.IndexEvent, bool) {
	info := update.GetTransaction()
	if info == nil {
		return nil, false
	}

	event := model.TransactionEvent{
		Signature:    base58.Encode(info.GetSignature()),
		Slot:         update.GetSlot(),
		IsVote:       info.GetIsVote(),
		Index:        info.GetIndex(),
		PreBalances:  []uint64{},
		PostBalances: []uint64{},
		LogMessages:  []string{},
		AccountKeys:  []string{},
		Instructions: []model.Instruction{},
	}

	tx := info.GetTransaction()
	meta := info.GetMeta()
	if tx == nil || meta == nil {
		return event, true
	}

	fee := meta.GetFee()
	event.Success = meta.GetErr() == nil
	event.Fee = &fee
	if meta.ComputeUnitsConsumed != nil {
		units := meta.GetComputeUnitsConsumed()
		event.ComputeUnitsConsumed = &units
	}
	event.PreBalances = append(event.PreBalances, meta.GetPreBalances()...)
	event.PostBalances = append(event.PostBalances, meta.GetPostBalances()...)
	event.LogMessages = append(event.LogMessages, meta.GetLogMessages()...)

	message := tx.GetMessage()
	if message == nil {
		return event, true
	}

	keys := message.GetAccountKeys()
	for _, key := range keys {
		event.AccountKeys = append(event.AccountKeys, base58.Encode(key))
	}

	for _, ix := range message.GetInstructions() {
		event.Instructions = append(event.Instructions, decodeInstruction(ix, event.AccountKeys))
	}

	return event, true
}

// decodeInstruction resolves account indices against keys. An out-of-range
// program index yields an empty program id; out-of-range account indices are
// dropped.
func decodeInstruction(ix *pb.CompiledInstruction, keys []string) model.Instruction {
	programID := ""
	if idx := int(ix.GetProgramIdIndex()); idx < len(keys) {
		programID = keys[idx]
	}

	accounts := make([]string, 0, len(ix.GetAccounts()))
	for _, idx := range ix.GetAccounts() {
		if int(idx) < len(keys) {
			accounts = append(accounts, keys[idx])
		}
	}

	return model.Instruction{
		ProgramID: programID,
		Accounts:  accounts,
		Data:      base64.StdEncoding.EncodeToString(ix.GetData()),
	}
}
