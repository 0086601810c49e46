package geyser

import (
	"testing"

	pb "github.com/rpcpool/yellowstone-grpc/examples/golang/proto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildSubscribeRequest(t *testing.T) {
	req := BuildSubscribeRequest(Filters{
		Accounts: []string{"JUP6LkbZbjS1jKKwapdHNy74zcZ3tLUZoi5QNyVTaV4"},
		Programs: []string{"whirLbMiicVdio4qvUfM5KAg6Ct8VwpYzGff3uctyCc", "675kPX9MHTjS2zt1qfr1NYHuzeLXfQM9H24wFSUt1Mp8"},
	})

	require.NotNil(t, req.Commitment)
	assert.Equal(t, pb.CommitmentLevel_CONFIRMED, req.GetCommitment())

	accounts := req.Accounts[accountsFilterName]
	require.NotNil(t, accounts)
	assert.Equal(t, []string{"JUP6LkbZbjS1jKKwapdHNy74zcZ3tLUZoi5QNyVTaV4"}, accounts.Account)

	txs := req.Transactions[transactionsFilterName]
	require.NotNil(t, txs)
	assert.Len(t, txs.AccountInclude, 2)
	require.NotNil(t, txs.Vote)
	assert.False(t, *txs.Vote)
	require.NotNil(t, txs.Failed)
	assert.False(t, *txs.Failed)

	assert.Contains(t, req.Slots, slotsFilterName)
}

func TestBuildSubscribeRequestOmitsEmptyFilters(t *testing.T) {
	req := BuildSubscribeRequest(Filters{IncludeFailed: true})
	assert.Empty(t, req.Accounts)
	assert.Empty(t, req.Transactions)
	assert.Contains(t, req.Slots, slotsFilterName)
}

func TestBuildSubscribeRequestIncludeFailed(t *testing.T) {
	req := BuildSubscribeRequest(Filters{Programs: []string{"cpamdpZCGKUy5JxQXB4dcpGPiikHawvSWAd6mEn1sGG"}, IncludeFailed: true})
	assert.Nil(t, req.Transactions[transactionsFilterName].Failed)
}
