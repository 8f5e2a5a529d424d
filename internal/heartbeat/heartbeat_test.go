package heartbeat

import (
	"io"
	"log/slog"
	"testing"
	"time"
)

var quiet = slog.New(slog.NewTextHandler(io.Discard, nil))

func TestNewRejectsNonPositiveInterval(t *testing.T) {
	for _, d := range []time.Duration{0, -time.Second} {
		if _, err := New(d, func() {}); err == nil {
			t.Errorf("New(%v) expected error", d)
		}
	}
}

func TestImmediateBeat(t *testing.T) {
	beats := make(chan struct{}, 1)
	s, err := New(time.Hour, func() {
		select {
		case beats <- struct{}{}:
		default:
		}
	}, WithImmediateStart(), WithLogger(quiet))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	s.Start()
	defer s.Stop()

	select {
	case <-beats:
	case <-time.After(2 * time.Second):
		t.Fatal("expected an immediate beat")
	}
}

func TestRepeatedBeats(t *testing.T) {
	beats := make(chan struct{}, 10)
	s, err := New(20*time.Millisecond, func() {
		select {
		case beats <- struct{}{}:
		default:
		}
	}, WithLogger(quiet))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	s.Start()

	for i := 0; i < 2; i++ {
		select {
		case <-beats:
		case <-time.After(2 * time.Second):
			t.Fatalf("beat %d did not arrive", i+1)
		}
	}

	if err := s.Stop(); err != nil {
		t.Errorf("Stop: %v", err)
	}
}

func TestNoBeatBeforeInterval(t *testing.T) {
	beats := make(chan struct{}, 1)
	s, err := New(time.Hour, func() { beats <- struct{}{} }, WithLogger(quiet))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	s.Start()
	defer s.Stop()

	select {
	case <-beats:
		t.Fatal("beat fired before the interval elapsed")
	case <-time.After(50 * time.Millisecond):
	}
}
