package logic

import (
	"reflect"
	"testing"
)

func TestClubIsClosed(t *testing.T) {
	tests := []struct {
		statusClosed, clubOff, want bool
	}{
		{false, false, false},
		{true, false, true},
		{true, true, false},
		{false, true, false},
	}
	for _, tt := range tests {
		if got := ClubIsClosed(tt.statusClosed, tt.clubOff); got != tt.want {
			t.Errorf("ClubIsClosed(%v, %v) = %v, want %v", tt.statusClosed, tt.clubOff, got, tt.want)
		}
	}
}

func TestShouldLockAndPower(t *testing.T) {
	tests := []struct {
		name      string
		snap      Snapshot
		wantLock  bool
		wantPower bool
	}{
		{"open and powered", Snapshot{PowerOn: true}, false, true},
		{"closed keeps power until sequencer drops it", Snapshot{ClubIsClosed: true, PowerOn: true}, true, true},
		{"off drops power immediately", Snapshot{ClubOff: true, PowerOn: true}, true, false},
		{"idle", Snapshot{}, false, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ShouldLock(tt.snap); got != tt.wantLock {
				t.Errorf("ShouldLock: got %v, want %v", got, tt.wantLock)
			}
			if got := ShouldPower(tt.snap); got != tt.wantPower {
				t.Errorf("ShouldPower: got %v, want %v", got, tt.wantPower)
			}
		})
	}
}

func TestLampFor(t *testing.T) {
	tests := []struct {
		snap Snapshot
		want string
	}{
		{Snapshot{}, "green"},
		{Snapshot{ClubIsClosed: true}, "yellow"},
		{Snapshot{ClubLocked: true}, "red-yellow"},
		{Snapshot{ClubLocked: true, ClubIsClosed: true}, "red"},
	}
	for _, tt := range tests {
		if got := LampFor(tt.snap).String(); got != tt.want {
			t.Errorf("LampFor(%+v) = %s, want %s", tt.snap, got, tt.want)
		}
	}

	if got := (Lamp{}).String(); got != "off" {
		t.Errorf("empty lamp: got %s, want off", got)
	}
}

func TestDiff(t *testing.T) {
	prev := Snapshot{ClubLocked: true, ClubIsClosed: true}
	cur := Snapshot{PowerOn: true, ClubOff: true}

	got := Diff(prev, cur)
	want := []Change{ChangePowerOn, ChangeUnlocked, ChangeOpened, ChangeOff}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Diff: got %v, want %v", got, want)
	}

	if got := Diff(cur, cur); got != nil {
		t.Errorf("Diff of equal snapshots: got %v, want nil", got)
	}
}

func TestLevelDecoding(t *testing.T) {
	if !LockedFromLevel(true) || LockedFromLevel(false) {
		t.Error("lock line: high must decode to locked")
	}
	if !StatusClosedFromLevel(true) || StatusClosedFromLevel(false) {
		t.Error("status line: high must decode to closed")
	}
}
