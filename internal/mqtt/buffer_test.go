package mqtt

import (
	"fmt"
	"testing"
)

func TestOutboxEmptyTake(t *testing.T) {
	ob := newOutbox(4)
	if got := ob.take(); got != nil {
		t.Errorf("expected nil from empty outbox, got %d messages", len(got))
	}
}

func TestOutboxKeepsOrder(t *testing.T) {
	ob := newOutbox(10)
	for i := 0; i < 5; i++ {
		ob.add(outMsg{topic: "club/status/system", payload: []byte{byte(i)}})
	}

	got := ob.take()
	if len(got) != 5 {
		t.Fatalf("expected 5 messages, got %d", len(got))
	}
	for i, m := range got {
		if m.payload[0] != byte(i) {
			t.Errorf("message %d: payload %d out of order", i, m.payload[0])
		}
	}
	if ob.len() != 0 || ob.take() != nil {
		t.Error("take should empty the outbox")
	}
}

func TestOutboxRetainedSupersedes(t *testing.T) {
	ob := newOutbox(10)
	ob.add(outMsg{topic: "club/status", payload: []byte("locked"), retained: true})
	ob.add(outMsg{topic: "club/status/system", payload: []byte("heartbeat")})
	ob.add(outMsg{topic: "club/status", payload: []byte("unlocked"), retained: true})

	got := ob.take()
	if len(got) != 2 {
		t.Fatalf("expected 2 messages, got %d", len(got))
	}
	if string(got[0].payload) != "heartbeat" {
		t.Errorf("first: got %q, want heartbeat", got[0].payload)
	}
	if got[1].topic != "club/status" || string(got[1].payload) != "unlocked" {
		t.Errorf("second: got %s %q, want latest club/status", got[1].topic, got[1].payload)
	}
}

func TestOutboxNonRetainedNotCoalesced(t *testing.T) {
	ob := newOutbox(10)
	ob.add(outMsg{topic: "club/status/system", payload: []byte("a")})
	ob.add(outMsg{topic: "club/status/system", payload: []byte("b")})

	if n := ob.len(); n != 2 {
		t.Errorf("non-retained messages must all be kept, got %d", n)
	}
}

func TestOutboxRetainedOnOtherTopicKept(t *testing.T) {
	ob := newOutbox(10)
	ob.add(outMsg{topic: "club/status", retained: true})
	ob.add(outMsg{topic: "club/status/system", retained: true})

	if n := ob.len(); n != 2 {
		t.Errorf("retained messages on different topics must both be kept, got %d", n)
	}
}

func TestOutboxDropsOldestWhenFull(t *testing.T) {
	ob := newOutbox(3)
	reported := 0
	for i := 0; i < 6; i++ {
		if ob.add(outMsg{topic: fmt.Sprintf("t/%d", i), payload: []byte{byte(i)}}) {
			reported++
		}
	}
	if reported != 1 {
		t.Errorf("overflow should be reported once per take, got %d", reported)
	}

	got := ob.take()
	if len(got) != 3 {
		t.Fatalf("expected 3 messages, got %d", len(got))
	}
	for i, m := range got {
		if want := byte(i + 3); m.payload[0] != want {
			t.Errorf("message %d: payload %d, want %d", i, m.payload[0], want)
		}
	}
}

func TestOutboxSupersedeDoesNotDrop(t *testing.T) {
	ob := newOutbox(2)
	ob.add(outMsg{topic: "club/status/system", payload: []byte("startup")})
	ob.add(outMsg{topic: "club/status", payload: []byte("1"), retained: true})
	if ob.add(outMsg{topic: "club/status", payload: []byte("2"), retained: true}) {
		t.Error("replacing a queued retained message is not an overflow")
	}

	got := ob.take()
	if len(got) != 2 || string(got[0].payload) != "startup" || string(got[1].payload) != "2" {
		t.Errorf("unexpected contents: %+v", got)
	}
}

func TestOutboxOverflowReportedAgainAfterTake(t *testing.T) {
	ob := newOutbox(1)
	ob.add(outMsg{topic: "a"})
	if !ob.add(outMsg{topic: "b"}) {
		t.Fatal("first overflow should be reported")
	}
	ob.take()
	ob.add(outMsg{topic: "c"})
	if !ob.add(outMsg{topic: "d"}) {
		t.Error("overflow after take should be reported again")
	}
}

func TestOutboxPreservesFields(t *testing.T) {
	ob := newOutbox(2)
	ob.add(outMsg{topic: "club/status", payload: []byte(`{"club":{}}`), qos: 1, retained: true})

	got := ob.take()
	if len(got) != 1 {
		t.Fatalf("expected 1 message, got %d", len(got))
	}
	m := got[0]
	if m.topic != "club/status" || string(m.payload) != `{"club":{}}` || m.qos != 1 || !m.retained {
		t.Errorf("fields not preserved: %+v", m)
	}
}
