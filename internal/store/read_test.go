package store

import (
	"context"
	"testing"

	"github.com/roach88/evrule/internal/engine"
	"github.com/roach88/evrule/internal/world"
)

func TestReadChain_Empty(t *testing.T) {
	s := createTestStore(t)

	firings, err := s.ReadChain(context.Background(), "nonexistent-chain")
	if err != nil {
		t.Fatalf("ReadChain() failed: %v", err)
	}

	// Should return empty slice, not nil
	if firings == nil {
		t.Error("firings is nil, want empty slice")
	}
	if len(firings) != 0 {
		t.Errorf("len(firings) = %d, want 0", len(firings))
	}
}

func TestReadChain_OrderedBySeq(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	// Recorded out of order.
	for _, seq := range []int64{3, 1, 2} {
		if err := s.RecordFiring(ctx, createTestFiring("chain-1", "R", seq)); err != nil {
			t.Fatalf("RecordFiring() failed: %v", err)
		}
	}
	if err := s.RecordFiring(ctx, createTestFiring("chain-2", "R", 4)); err != nil {
		t.Fatalf("RecordFiring() failed: %v", err)
	}

	firings, err := s.ReadChain(ctx, "chain-1")
	if err != nil {
		t.Fatalf("ReadChain() failed: %v", err)
	}
	if len(firings) != 3 {
		t.Fatalf("len(firings) = %d, want 3", len(firings))
	}
	for i, f := range firings {
		if f.Seq != int64(i+1) {
			t.Errorf("firings[%d].Seq = %d, want %d", i, f.Seq, i+1)
		}
	}
}

func TestReadChain_RoundTrip(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	r := createTestFiring("chain-1", "Weaken", 7)
	r.ParentSeq = 5
	r.Host = "Tank"
	r.Participants = engine.Pair(world.ID(3), world.NoID)
	r.Effects = []engine.EffectRecord{meEffect(1, 3, ""), meEffect(0, 3, "")}
	if err := s.RecordFiring(ctx, r); err != nil {
		t.Fatalf("RecordFiring() failed: %v", err)
	}

	firings, err := s.ReadChain(ctx, "chain-1")
	if err != nil {
		t.Fatalf("ReadChain() failed: %v", err)
	}
	f := firings[0]

	if f.ParentSeq != 5 || f.Host != "Tank" || f.Kind != "WhenCrush" || f.RuleSetHash != "test-hash" {
		t.Errorf("firing = %+v, fields lost", f)
	}
	if len(f.Participants) != 1 || f.Participants["Me"] != 3 {
		t.Errorf("Participants = %v, want map[Me:3]", f.Participants)
	}
	if len(f.Effects) != 2 || f.Effects[0].Component != 0 || f.Effects[1].Component != 1 {
		t.Errorf("Effects = %+v, want components 0,1 in order", f.Effects)
	}
	if f.Effects[0].Via != "Me" {
		t.Errorf("Via = %q, want Me", f.Effects[0].Via)
	}
}

func TestListFirings_Filter(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	weak := createTestFiring("chain-1", "Weaken", 1)
	guard := createTestFiring("chain-1", "Guard", 2)
	guard.Outcome = engine.OutcomeAborted
	guard.AbortedAt = "Me"
	again := createTestFiring("chain-2", "Weaken", 3)
	again.Outcome = engine.OutcomeAborted
	again.Kind = "WhenCrushed"

	for _, r := range []engine.FiringResult{weak, guard, again} {
		if err := s.RecordFiring(ctx, r); err != nil {
			t.Fatalf("RecordFiring() failed: %v", err)
		}
	}

	tests := []struct {
		name    string
		filter  string
		wantSeq []int64
	}{
		{"empty lists everything", "", []int64{1, 2, 3}},
		{"by rule set", `ruleset = "Weaken"`, []int64{1, 3}},
		{"and", `ruleset = "Weaken" AND outcome = "aborted"`, []int64{3}},
		{"or", `ruleset = "Guard" OR kind = "WhenCrushed"`, []int64{2, 3}},
		{"not equal", `outcome != "aborted"`, []int64{1}},
		{"seq range", `seq >= 2 AND seq < 3`, []int64{2}},
		{"chain", `chain_id = "chain-2"`, []int64{3}},
		{"no match", `host = "Tank"`, []int64{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			firings, err := s.ListFirings(ctx, tt.filter)
			if err != nil {
				t.Fatalf("ListFirings(%q) failed: %v", tt.filter, err)
			}
			if firings == nil {
				t.Fatal("firings is nil, want empty slice")
			}
			got := make([]int64, len(firings))
			for i, f := range firings {
				got[i] = f.Seq
			}
			if len(got) != len(tt.wantSeq) {
				t.Fatalf("seqs = %v, want %v", got, tt.wantSeq)
			}
			for i := range got {
				if got[i] != tt.wantSeq[i] {
					t.Errorf("seqs = %v, want %v", got, tt.wantSeq)
					break
				}
			}
		})
	}
}

func TestListFirings_BadFilter(t *testing.T) {
	s := createTestStore(t)

	for _, filter := range []string{`ruleset = `, `unknown = "x"`} {
		if _, err := s.ListFirings(context.Background(), filter); err == nil {
			t.Errorf("ListFirings(%q) expected error", filter)
		}
	}
}
