package geyser

import (
	pb "github.com/rpcpool/yellowstone-grpc/examples/golang/proto"
)

const (
	accountsFilterName     = "dex_accounts"
	transactionsFilterName = "dex_transactions"
	slotsFilterName        = "slots"
)

// Filters selects what the subscription streams back.
type Filters struct {
	// Accounts are account public keys whose writes are streamed.
	Accounts []string
	// Programs are program ids; transactions referencing any of them are streamed.
	Programs []string
	// IncludeFailed keeps transactions that already failed at consensus.
	IncludeFailed bool
}

// BuildSubscribeRequest builds the subscription at confirmed commitment.
// Empty key lists are omitted because geyser treats an empty list as
// "match everything".
func BuildSubscribeRequest(f Filters) *pb.SubscribeRequest {
	commitment := pb.CommitmentLevel_CONFIRMED
	vote := false

	req := &pb.SubscribeRequest{
		Accounts:     map[string]*pb.SubscribeRequestFilterAccounts{},
		Transactions: map[string]*pb.SubscribeRequestFilterTransactions{},
		Slots: map[string]*pb.SubscribeRequestFilterSlots{
			slotsFilterName: {},
		},
		Commitment: &commitment,
	}

	if len(f.Accounts) > 0 {
		req.Accounts[accountsFilterName] = &pb.SubscribeRequestFilterAccounts{
			Account: append([]string(nil), f.Accounts...),
		}
	}
	if len(f.Programs) > 0 {
		filter := &pb.SubscribeRequestFilterTransactions{
			AccountInclude: append([]string(nil), f.Programs...),
			Vote:           &vote,
		}
		// An unset failed flag streams both outcomes; true would stream only failures.
		if !f.IncludeFailed {
			failed := false
			filter.Failed = &failed
		}
		req.Transactions[transactionsFilterName] = filter
	}

	return req
}

// pingRequest answers a server ping. The reply repeats the full filter set:
// some server versions rebuild the subscription from every inbound request,
// and a ping-only request would clear it there.
func pingRequest(f Filters, id int32) *pb.SubscribeRequest {
	req := BuildSubscribeRequest(f)
	req.Ping = &pb.SubscribeRequestPing{Id: id}
	return req
}
