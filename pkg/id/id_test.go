package id

import "testing"

func TestUUID_Unique(t *testing.T) {
	a, b := UUID(), UUID()
	if a == b {
		t.Error("expected UUIDs to be unique")
	}
	if len(a) != 36 {
		t.Errorf("unexpected UUID length: %d", len(a))
	}
}

func TestMessageID_Unique(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 1000; i++ {
		v := MessageID()
		if v == "" {
			t.Fatal("expected non-empty message id")
		}
		if seen[v] {
			t.Fatalf("duplicate message id: %s", v)
		}
		seen[v] = true
	}
}
