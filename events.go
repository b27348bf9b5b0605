package ondemand

import (
	"encoding/base64"

	"github.com/lightningnetwork/lnd/lnrpc"
	"github.com/lightningnetwork/lnd/lnwire"
	"google.golang.org/protobuf/proto"

	"github.com/sebdeveloper6952/ondemand/domain"
)

var updateTypeToState = map[lnrpc.ChannelEventUpdate_UpdateType]domain.ChannelState{
	lnrpc.ChannelEventUpdate_PENDING_OPEN_CHANNEL:   domain.ChannelPendingOpen,
	lnrpc.ChannelEventUpdate_OPEN_CHANNEL:           domain.ChannelOpen,
	lnrpc.ChannelEventUpdate_ACTIVE_CHANNEL:         domain.ChannelActive,
	lnrpc.ChannelEventUpdate_INACTIVE_CHANNEL:       domain.ChannelInactive,
	lnrpc.ChannelEventUpdate_CLOSED_CHANNEL:         domain.ChannelClosed,
	lnrpc.ChannelEventUpdate_FULLY_RESOLVED_CHANNEL: domain.ChannelFullyResolved,
}

// DecodeChannelEvent interprets a raw notification payload. The payload is
// the base64 encoding of a serialized lnrpc.ChannelEventUpdate. An empty
// payload is a keepalive and anything that doesn't decode is a Pulse.
func DecodeChannelEvent(data string) domain.ChannelEvent {
	if data == "" {
		return domain.Keepalive{}
	}

	b, err := base64.StdEncoding.DecodeString(data)
	if err != nil {
		return domain.Pulse{Raw: data}
	}

	update := &lnrpc.ChannelEventUpdate{}
	if err := proto.Unmarshal(b, update); err != nil ||
		update.GetChannel() == nil {

		return domain.Pulse{Raw: data}
	}

	state, ok := updateTypeToState[update.GetType()]
	if !ok {
		return domain.Pulse{Raw: data}
	}

	var chanID uint64
	switch {
	case update.GetOpenChannel() != nil:
		chanID = update.GetOpenChannel().GetChanId()
	case update.GetClosedChannel() != nil:
		chanID = update.GetClosedChannel().GetChanId()
	}

	return domain.Decoded{
		ChannelID: lnwire.NewShortChanIDFromInt(chanID),
		State:     state,
	}
}
