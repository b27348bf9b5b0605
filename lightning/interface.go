package lightning

import (
	"context"

	"github.com/btcsuite/btcd/btcutil"
	"github.com/lightningnetwork/lnd/lntypes"
	"github.com/lightningnetwork/lnd/lnwire"

	"github.com/sebdeveloper6952/ondemand/domain"
)

type Invoice struct {
	Hash   lntypes.Hash
	PayReq string
}

// RouteHint is a single private hop from the service node to us.
type RouteHint struct {
	NodePubkey                string
	ChannelID                 lnwire.ShortChannelID
	FeeBaseMsat               lnwire.MilliSatoshi
	FeeProportionalMillionths uint32
	CltvExpiryDelta           uint16
}

type InvoiceRequest struct {
	AmountSat  btcutil.Amount
	Memo       string
	Preimage   lntypes.Preimage
	RouteHints []RouteHint
}

// Service creates invoices on the wallet node.
type Service interface {
	AddInvoice(ctx context.Context, req *InvoiceRequest) (*Invoice, error)
}

type InvoiceUpdate struct {
	Settled bool
}

// InvoiceTracker reports when an invoice is paid on the wallet node.
type InvoiceTracker interface {
	TrackInvoice(ctx context.Context, hash lntypes.Hash) (chan *InvoiceUpdate, chan error)
}

// Signer signs arbitrary messages with the wallet's static identity key.
type Signer interface {
	SignMessage(ctx context.Context, msg []byte) (string, error)
}

// ChannelEventSource delivers channel state notifications until ctx is done
// or the source fails.
type ChannelEventSource interface {
	SubscribeChannelEvents(ctx context.Context) (chan domain.ChannelEvent, chan error)
}
