package dex

import (
	"reflect"
	"testing"
)

func TestParsePublicKeys(t *testing.T) {
	got, err := ParsePublicKeys([]string{
		" JUP6LkbZbjS1jKKwapdHNy74zcZ3tLUZoi5QNyVTaV4 ",
		"",
		"whirLbMiicVdio4qvUfM5KAg6Ct8VwpYzGff3uctyCc",
		"JUP6LkbZbjS1jKKwapdHNy74zcZ3tLUZoi5QNyVTaV4",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := []string{
		"JUP6LkbZbjS1jKKwapdHNy74zcZ3tLUZoi5QNyVTaV4",
		"whirLbMiicVdio4qvUfM5KAg6Ct8VwpYzGff3uctyCc",
	}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("keys mismatch: %+v != %+v", got, want)
	}
}

func TestParsePublicKeysInvalid(t *testing.T) {
	if _, err := ParsePublicKeys([]string{"not-base58-0OIl"}); err == nil {
		t.Fatalf("expected error for invalid key")
	}
	if _, err := ParsePublicKeys([]string{"abc"}); err == nil {
		t.Fatalf("expected error for short key")
	}
}

func TestDefaultProgramIDs(t *testing.T) {
	ids := DefaultProgramIDs()
	if len(ids) != len(Programs) {
		t.Fatalf("expected %d ids, got %d", len(Programs), len(ids))
	}
	name, ok := ProgramName("675kPX9MHTjS2zt1qfr1NYHuzeLXfQM9H24wFSUt1Mp8")
	if !ok || name != "raydium_amm_v4" {
		t.Fatalf("unexpected program name %q (%v)", name, ok)
	}
	if _, ok := ProgramName("11111111111111111111111111111111"); ok {
		t.Fatalf("system program should not be registered")
	}
}
