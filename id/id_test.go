package id_test

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/xraph/batchflow/id"
)

func TestNew_GeneratesPrefixedID(t *testing.T) {
	bid := id.NewBatchID()

	if bid.IsNil() {
		t.Fatal("NewBatchID returned nil ID")
	}
	if bid.Prefix() != id.PrefixBatch {
		t.Errorf("Prefix() = %q, want %q", bid.Prefix(), id.PrefixBatch)
	}
	if !strings.HasPrefix(bid.String(), "batch_") {
		t.Errorf("String() = %q, want batch_ prefix", bid.String())
	}
}

func TestNew_IDsAreUnique(t *testing.T) {
	seen := make(map[string]bool)
	for range 1000 {
		s := id.NewBatchID().String()
		if seen[s] {
			t.Fatalf("duplicate ID generated: %s", s)
		}
		seen[s] = true
	}
}

func TestParse_RoundTrip(t *testing.T) {
	original := id.NewRenderID()

	parsed, err := id.Parse(original.String())
	if err != nil {
		t.Fatalf("Parse(%q) error: %v", original.String(), err)
	}
	if parsed.String() != original.String() {
		t.Errorf("round trip: got %q, want %q", parsed.String(), original.String())
	}
}

func TestParse_RejectsInvalid(t *testing.T) {
	tests := []string{
		"",
		"not a typeid",
		"batch_!!!!",
	}
	for _, s := range tests {
		if _, err := id.Parse(s); err == nil {
			t.Errorf("Parse(%q) = nil error, want error", s)
		}
	}
}

func TestParseWithPrefix_RejectsWrongPrefix(t *testing.T) {
	rid := id.NewRenderID()

	if _, err := id.ParseBatchID(rid.String()); err == nil {
		t.Errorf("ParseBatchID(%q) = nil error, want prefix mismatch", rid.String())
	}
}

func TestNil_Behavior(t *testing.T) {
	if !id.Nil.IsNil() {
		t.Error("Nil.IsNil() = false, want true")
	}
	if id.Nil.String() != "" {
		t.Errorf("Nil.String() = %q, want empty", id.Nil.String())
	}
	if id.Nil.Prefix() != "" {
		t.Errorf("Nil.Prefix() = %q, want empty", id.Nil.Prefix())
	}
}

func TestJSON_RoundTrip(t *testing.T) {
	type wrapper struct {
		ID id.BatchID `json:"id"`
	}

	w := wrapper{ID: id.NewBatchID()}
	data, err := json.Marshal(w)
	if err != nil {
		t.Fatalf("marshal error: %v", err)
	}

	var decoded wrapper
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("unmarshal error: %v", err)
	}
	if decoded.ID.String() != w.ID.String() {
		t.Errorf("JSON round trip: got %q, want %q", decoded.ID.String(), w.ID.String())
	}
}
