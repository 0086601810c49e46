package dex

import (
	"fmt"
	"strings"

	"github.com/gagliardetto/solana-go"
)

// ParsePublicKeys validates base58 public keys and returns them in canonical
// form with duplicates removed.
func ParsePublicKeys(inputs []string) ([]string, error) {
	keys := make([]string, 0, len(inputs))
	seen := make(map[solana.PublicKey]struct{}, len(inputs))
	for _, input := range inputs {
		input = strings.TrimSpace(input)
		if input == "" {
			continue
		}
		key, err := solana.PublicKeyFromBase58(input)
		if err != nil {
			return nil, fmt.Errorf("invalid public key %s: %w", input, err)
		}
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		keys = append(keys, key.String())
	}
	return keys, nil
}
