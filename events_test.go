package ondemand

import (
	"encoding/base64"
	"testing"

	"github.com/lightningnetwork/lnd/lnrpc"
	"github.com/lightningnetwork/lnd/lnwire"
	"github.com/stretchr/testify/require"
	"google.golang.org/protobuf/proto"

	"github.com/sebdeveloper6952/ondemand/domain"
)

func encodeUpdate(t *testing.T, update *lnrpc.ChannelEventUpdate) string {
	t.Helper()

	b, err := proto.Marshal(update)
	require.NoError(t, err)

	return base64.StdEncoding.EncodeToString(b)
}

func TestDecodeChannelEvent(t *testing.T) {
	tests := []struct {
		name string
		data string
		want domain.ChannelEvent
	}{
		{
			name: "keepalive",
			data: "",
			want: domain.Keepalive{},
		},
		{
			name: "not base64",
			data: "trigger",
			want: domain.Pulse{Raw: "trigger"},
		},
		{
			name: "no channel",
			data: encodeUpdate(t, &lnrpc.ChannelEventUpdate{
				Type: lnrpc.ChannelEventUpdate_ACTIVE_CHANNEL,
			}),
			want: domain.Pulse{Raw: encodeUpdate(t, &lnrpc.ChannelEventUpdate{
				Type: lnrpc.ChannelEventUpdate_ACTIVE_CHANNEL,
			})},
		},
		{
			name: "open",
			data: encodeUpdate(t, &lnrpc.ChannelEventUpdate{
				Type: lnrpc.ChannelEventUpdate_OPEN_CHANNEL,
				Channel: &lnrpc.ChannelEventUpdate_OpenChannel{
					OpenChannel: &lnrpc.Channel{ChanId: 123456},
				},
			}),
			want: domain.Decoded{
				ChannelID: lnwire.NewShortChanIDFromInt(123456),
				State:     domain.ChannelOpen,
			},
		},
		{
			name: "closed",
			data: encodeUpdate(t, &lnrpc.ChannelEventUpdate{
				Type: lnrpc.ChannelEventUpdate_CLOSED_CHANNEL,
				Channel: &lnrpc.ChannelEventUpdate_ClosedChannel{
					ClosedChannel: &lnrpc.ChannelCloseSummary{ChanId: 77},
				},
			}),
			want: domain.Decoded{
				ChannelID: lnwire.NewShortChanIDFromInt(77),
				State:     domain.ChannelClosed,
			},
		},
		{
			name: "active",
			data: encodeUpdate(t, &lnrpc.ChannelEventUpdate{
				Type: lnrpc.ChannelEventUpdate_ACTIVE_CHANNEL,
				Channel: &lnrpc.ChannelEventUpdate_ActiveChannel{
					ActiveChannel: &lnrpc.ChannelPoint{OutputIndex: 1},
				},
			}),
			want: domain.Decoded{State: domain.ChannelActive},
		},
	}

	for _, test := range tests {
		test := test
		t.Run(test.name, func(t *testing.T) {
			require.Equal(t, test.want, DecodeChannelEvent(test.data))
		})
	}
}
