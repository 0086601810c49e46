package dex

import (
	"github.com/gagliardetto/solana-go"
)

// Program is a DEX program whose accounts and transactions are indexed.
type Program struct {
	Name string
	ID   solana.PublicKey
}

// Programs is the default subscription set.
var Programs = []Program{
	{Name: "jupiter_v6", ID: solana.MustPublicKeyFromBase58("JUP6LkbZbjS1jKKwapdHNy74zcZ3tLUZoi5QNyVTaV4")},
	{Name: "raydium_amm_v4", ID: solana.MustPublicKeyFromBase58("675kPX9MHTjS2zt1qfr1NYHuzeLXfQM9H24wFSUt1Mp8")},
	{Name: "meteora_damm_v2", ID: solana.MustPublicKeyFromBase58("cpamdpZCGKUy5JxQXB4dcpGPiikHawvSWAd6mEn1sGG")},
	{Name: "orca_whirlpool", ID: solana.MustPublicKeyFromBase58("whirLbMiicVdio4qvUfM5KAg6Ct8VwpYzGff3uctyCc")},
}

// DefaultProgramIDs returns the base58 ids of Programs.
func DefaultProgramIDs() []string {
	ids := make([]string, 0, len(Programs))
	for _, p := range Programs {
		ids = append(ids, p.ID.String())
	}
	return ids
}

// ProgramName returns the registry name for id, if known.
func ProgramName(id string) (string, bool) {
	for _, p := range Programs {
		if p.ID.String() == id {
			return p.Name, true
		}
	}
	return "", false
}
