package channel

import (
	"github.com/looplab/fsm"
)

// Status is the connection lifecycle state of the client.
type Status string

const (
	StatusDisconnected Status = "disconnected"
	StatusConnecting   Status = "connecting"
	StatusConnected    Status = "connected"
)

// Lifecycle events. The transition table is the single authority on which
// state changes are legal; callers treat an invalid transition as a no-op.
const (
	eventDial      = "dial"      // disconnected -> connecting
	eventOpen      = "open"      // connecting   -> connected
	eventClose     = "close"     // connecting/connected -> disconnected
	eventHeartbeat = "heartbeat" // connected    -> connected (self-loop)
)

func newLifecycle() *fsm.FSM {
	return fsm.NewFSM(
		string(StatusDisconnected),
		fsm.Events{
			{Name: eventDial, Src: []string{string(StatusDisconnected)}, Dst: string(StatusConnecting)},
			{Name: eventOpen, Src: []string{string(StatusConnecting)}, Dst: string(StatusConnected)},
			{Name: eventClose, Src: []string{string(StatusConnecting), string(StatusConnected)}, Dst: string(StatusDisconnected)},
			{Name: eventHeartbeat, Src: []string{string(StatusConnected)}, Dst: string(StatusConnected)},
		},
		fsm.Callbacks{},
	)
}
