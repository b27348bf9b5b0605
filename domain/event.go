package domain

import "github.com/lightningnetwork/lnd/lnwire"

// ChannelState is the kind of a decoded channel state change.
type ChannelState int

const (
	ChannelPendingOpen   ChannelState = 1
	ChannelOpen          ChannelState = 2
	ChannelActive        ChannelState = 3
	ChannelInactive      ChannelState = 4
	ChannelClosed        ChannelState = 5
	ChannelFullyResolved ChannelState = 6
)

var (
	ChannelStateToString = map[ChannelState]string{
		ChannelPendingOpen:   "pending-open",
		ChannelOpen:          "open",
		ChannelActive:        "active",
		ChannelInactive:      "inactive",
		ChannelClosed:        "closed",
		ChannelFullyResolved: "fully-resolved",
	}
)

func (s ChannelState) String() string {
	if str, ok := ChannelStateToString[s]; ok {
		return str
	}

	return "unknown"
}

// RawChannelEvent is a notification as delivered by the event transport. An
// empty Data is a keepalive.
type RawChannelEvent struct {
	Data string `json:"data"`
}

// ChannelEvent is one of Keepalive, Pulse or Decoded.
type ChannelEvent interface {
	isChannelEvent()
}

// Keepalive carries no information and must be discarded.
type Keepalive struct{}

// Pulse is a non-empty notification whose payload could not be interpreted.
// It only tells that some channel changed.
type Pulse struct {
	Raw string
}

// Decoded is a channel state change with a known channel.
type Decoded struct {
	ChannelID lnwire.ShortChannelID
	State     ChannelState
}

func (Keepalive) isChannelEvent() {}
func (Pulse) isChannelEvent()     {}
func (Decoded) isChannelEvent()   {}
