package indexer

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"solanaScope/internal/model"
)

func TestTransformTransaction(t *testing.T) {
	fee := uint64(5000)
	units := uint64(1200)
	now := time.Date(2024, 5, 1, 14, 0, 0, 0, time.FixedZone("UTC+2", 2*60*60))

	row, err := TransformTransaction(model.TransactionEvent{
		Signature:            "sig",
		Slot:                 250,
		Index:                3,
		Success:              true,
		Fee:                  &fee,
		ComputeUnitsConsumed: &units,
		PreBalances:          []uint64{10, 20},
		PostBalances:         []uint64{5, 25},
		LogMessages:          []string{"Program log: \"quoted\""},
		AccountKeys:          []string{"k1", "k2"},
		Instructions: []model.Instruction{
			{ProgramID: "k2", Accounts: []string{"k1"}, Data: "AQID"},
			{ProgramID: "k1", Data: ""},
		},
	}, now)
	require.NoError(t, err)

	assert.Equal(t, "sig", row.Signature)
	assert.Equal(t, uint64(250), row.Slot)
	assert.Equal(t, uint64(3), row.TxIndex)
	assert.True(t, row.Success)
	assert.Equal(t, &fee, row.Fee)
	assert.Equal(t, &units, row.ComputeUnitsConsumed)
	assert.Equal(t, time.UTC, row.Timestamp.Location())
	assert.True(t, row.Timestamp.Equal(now))

	assert.Equal(t, "[10,20]", row.PreBalances)
	assert.Equal(t, "[5,25]", row.PostBalances)
	assert.Equal(t, `["k1","k2"]`, row.AccountKeys)

	var logs []string
	require.NoError(t, json.Unmarshal([]byte(row.LogMessages), &logs))
	assert.Equal(t, []string{"Program log: \"quoted\""}, logs)

	var instructions []model.Instruction
	require.NoError(t, json.Unmarshal([]byte(row.Instructions), &instructions))
	require.Len(t, instructions, 2)
	assert.Equal(t, []string{"k1"}, instructions[0].Accounts)
	assert.Equal(t, []string{}, instructions[1].Accounts)
	assert.NotContains(t, row.Instructions, "null")
}

func TestTransformTransactionEmptyListsAreArrays(t *testing.T) {
	row, err := TransformTransaction(model.TransactionEvent{Signature: "sig"}, time.Unix(0, 0))
	require.NoError(t, err)

	for name, value := range map[string]string{
		"pre_balances":  row.PreBalances,
		"post_balances": row.PostBalances,
		"log_messages":  row.LogMessages,
		"account_keys":  row.AccountKeys,
		"instructions":  row.Instructions,
	} {
		assert.Equal(t, "[]", value, name)
	}
	assert.Nil(t, row.Fee)
	assert.Nil(t, row.ComputeUnitsConsumed)
}

func TestTransformAccountKeepsCaptureTime(t *testing.T) {
	sig := "sig"
	captured := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	row := TransformAccount(model.AccountEvent{
		Pubkey:       "abc",
		Owner:        "owner",
		Lamports:     100,
		Executable:   true,
		RentEpoch:    18446744073709551615,
		Data:         "AAEC",
		WriteVersion: 9,
		TxnSignature: &sig,
		Slot:         77,
		CapturedAt:   captured,
	})

	assert.Equal(t, model.AccountRow{
		Pubkey:       "abc",
		Lamports:     100,
		Owner:        "owner",
		Executable:   true,
		RentEpoch:    18446744073709551615,
		Data:         "AAEC",
		WriteVersion: 9,
		TxnSignature: &sig,
		Timestamp:    captured,
	}, row)
}

func TestTransformSlot(t *testing.T) {
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.Local)
	row := TransformSlot(model.SlotEvent{Slot: 42}, now)
	assert.Equal(t, uint64(42), row.Slot)
	assert.Equal(t, time.UTC, row.Timestamp.Location())
	assert.True(t, row.Timestamp.Equal(now))
}
