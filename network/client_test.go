package network

import (
	"errors"
	"testing"

	"github.com/automoto/dynamicai/shared/gamemath"
	"github.com/automoto/dynamicai/shared/messages"
	"github.com/leap-fish/necs/esync"
)

func TestClientStateString(t *testing.T) {
	tests := []struct {
		state ClientState
		want  string
	}{
		{StateDisconnected, "disconnected"},
		{StateJoined, "joined"},
		{StateError, "error"},
		{ClientState(42), "unknown"},
	}
	for _, tt := range tests {
		if got := tt.state.String(); got != tt.want {
			t.Errorf("ClientState(%d).String() = %q, want %q", tt.state, got, tt.want)
		}
	}
}

func TestClientJoinFlow(t *testing.T) {
	c := NewClient(nil)
	c.onJoinAccepted(nil, messages.JoinAccepted{NetworkID: 7, ServerName: "host", TickRate: 20, Zone: "woods"})

	if c.State() != StateJoined {
		t.Fatalf("state = %v, want joined", c.State())
	}
	want := Session{NetworkID: 7, ServerName: "host", TickRate: 20, Zone: "woods"}
	if got := c.Session(); got != want {
		t.Fatalf("Session = %+v, want %+v", got, want)
	}

	c.onJoinRejected(nil, messages.JoinRejected{Reason: "version mismatch"})
	if c.State() != StateError || c.LastError() == nil {
		t.Fatalf("state = %v err = %v, want error state", c.State(), c.LastError())
	}

	// A disconnect after a failure keeps the error visible.
	c.onDisconnect(nil, nil)
	if c.State() != StateError {
		t.Fatalf("state after disconnect = %v, want error", c.State())
	}
}

func TestClientKeepsLatestSnapshot(t *testing.T) {
	c := NewClient(nil)
	if c.LatestSnapshot() != nil {
		t.Fatal("LatestSnapshot before any snapshot is not nil")
	}

	c.onSnapshot(nil, make(esync.WorldSnapshot, 1))
	c.onSnapshot(nil, make(esync.WorldSnapshot, 2))

	snap := c.LatestSnapshot()
	if snap == nil || len(*snap) != 2 {
		t.Fatalf("LatestSnapshot = %v, want the second snapshot", snap)
	}
	if c.LatestSnapshot() != nil {
		t.Fatal("snapshot delivered twice")
	}
}

func TestClientSettingsResults(t *testing.T) {
	c := NewClient(nil)
	c.onSettingsResult(nil, messages.SettingsResult{Option: "enabled"})
	c.onSettingsResult(nil, messages.SettingsResult{Option: "globalRange", Error: "invalid option value"})

	got := c.DrainSettingsResults()
	if len(got) != 2 || got[1].Error == "" {
		t.Fatalf("results = %+v", got)
	}
	if rest := c.DrainSettingsResults(); len(rest) != 0 {
		t.Fatalf("second drain = %+v, want empty", rest)
	}
}

func TestClientSendWithoutConnection(t *testing.T) {
	c := NewClient(nil)
	if err := c.Move(gamemath.Vec3{X: 1}); !errors.Is(err, ErrNotConnected) {
		t.Fatalf("Move error = %v, want ErrNotConnected", err)
	}
}
