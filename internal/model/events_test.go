package model

import "testing"

func TestIndexEventKinds(t *testing.T) {
	cases := []struct {
		event IndexEvent
		want  EventKind
	}{
		{AccountEvent{}, KindAccount},
		{TransactionEvent{}, KindTransaction},
		{SlotEvent{}, KindSlot},
		{BlockEvent{}, KindBlock},
	}

	for _, tc := range cases {
		if got := tc.event.Kind(); got != tc.want {
			t.Fatalf("kind mismatch for %T: %s != %s", tc.event, got, tc.want)
		}
	}
}
