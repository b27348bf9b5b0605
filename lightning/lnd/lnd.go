package lnd

import (
	"context"
	"encoding/hex"
	"fmt"
	"math"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/lightninglabs/lndclient"
	"github.com/lightningnetwork/lnd/invoices"
	"github.com/lightningnetwork/lnd/keychain"
	"github.com/lightningnetwork/lnd/lnrpc/invoicesrpc"
	"github.com/lightningnetwork/lnd/lnrpc/signrpc"
	"github.com/lightningnetwork/lnd/lntypes"
	"github.com/lightningnetwork/lnd/lnwire"
	"github.com/lightningnetwork/lnd/zpay32"
	"github.com/sirupsen/logrus"
	"github.com/tv42/zbase32"

	"github.com/sebdeveloper6952/ondemand/domain"
	"github.com/sebdeveloper6952/ondemand/lightning"
	"github.com/sebdeveloper6952/ondemand/lightning/keysigner"
)

var nodeKeyLocator = keychain.KeyLocator{Family: keychain.KeyFamilyNodeKey}

// doubleHash makes the signer hash the message twice, as lnd's own
// SignMessage RPC does.
func doubleHash(req *signrpc.SignMessageReq) {
	req.DoubleHash = true
}

// Node is the wallet's lnd node. It creates invoices, signs with the node
// identity key and reports channel events.
type Node struct {
	svc *lndclient.GrpcLndServices

	client   lndclient.LightningClient
	signer   lndclient.SignerClient
	invoices lndclient.InvoicesClient

	log *logrus.Logger
}

func New(
	address string,
	grpcPort string,
	macaroonHex string,
	tlsData string,
	network lndclient.Network,
	log *logrus.Logger,
) (*Node, error) {
	svc, err := lndclient.NewLndServices(&lndclient.LndServicesConfig{
		LndAddress:        fmt.Sprintf("%s:%s", address, grpcPort),
		Network:           network,
		CustomMacaroonHex: macaroonHex,
		TLSData:           tlsData,
	})
	if err != nil {
		return nil, err
	}

	return &Node{
		svc:      svc,
		client:   svc.Client,
		signer:   svc.Signer,
		invoices: svc.Invoices,
		log:      log,
	}, nil
}

func (n *Node) Close() {
	if n.svc != nil {
		n.svc.Close()
	}
}

// IdentityPubkey returns the hex encoded node identity key.
func (n *Node) IdentityPubkey(ctx context.Context) (string, error) {
	info, err := n.client.GetInfo(ctx)
	if err != nil {
		return "", err
	}

	return hex.EncodeToString(info.IdentityPubkey[:]), nil
}

// SignMessage signs msg with the node identity key. The signature is a
// zbase32 encoded compact signature in the format of lnd's SignMessage RPC.
func (n *Node) SignMessage(ctx context.Context, msg []byte) (string, error) {
	sig, err := n.signer.SignMessage(
		ctx,
		keysigner.SignedMessage(msg),
		nodeKeyLocator,
		lndclient.SignCompact(),
		doubleHash,
	)
	if err != nil {
		return "", err
	}

	return zbase32.EncodeToString(sig), nil
}

func (n *Node) AddInvoice(
	ctx context.Context,
	req *lightning.InvoiceRequest,
) (*lightning.Invoice, error) {
	routeHints, err := hopHints(req.RouteHints)
	if err != nil {
		return nil, err
	}

	preimage := req.Preimage
	hash, payReq, err := n.client.AddInvoice(
		ctx,
		&invoicesrpc.AddInvoiceData{
			Memo:       req.Memo,
			Value:      lnwire.NewMSatFromSatoshis(req.AmountSat),
			Preimage:   &preimage,
			RouteHints: routeHints,
		},
	)
	if err != nil {
		return nil, err
	}

	return &lightning.Invoice{
		Hash:   hash,
		PayReq: payReq,
	}, nil
}

func hopHints(hints []lightning.RouteHint) ([][]zpay32.HopHint, error) {
	if len(hints) == 0 {
		return nil, nil
	}

	routeHints := make([][]zpay32.HopHint, 0, len(hints))
	for i := range hints {
		pubkeyBytes, err := hex.DecodeString(hints[i].NodePubkey)
		if err != nil {
			return nil, fmt.Errorf("route hint node pubkey: %w", err)
		}
		nodeID, err := btcec.ParsePubKey(pubkeyBytes)
		if err != nil {
			return nil, fmt.Errorf("route hint node pubkey: %w", err)
		}
		if hints[i].FeeBaseMsat > math.MaxUint32 {
			return nil, fmt.Errorf("route hint base fee %v out of range",
				hints[i].FeeBaseMsat)
		}

		routeHints = append(routeHints, []zpay32.HopHint{{
			NodeID:                    nodeID,
			ChannelID:                 hints[i].ChannelID.ToUint64(),
			FeeBaseMSat:               uint32(hints[i].FeeBaseMsat),
			FeeProportionalMillionths: hints[i].FeeProportionalMillionths,
			CLTVExpiryDelta:           hints[i].CltvExpiryDelta,
		}})
	}

	return routeHints, nil
}

// TrackInvoice reports once lnd has settled the invoice with hash.
func (n *Node) TrackInvoice(
	ctx context.Context,
	hash lntypes.Hash,
) (chan *lightning.InvoiceUpdate, chan error) {
	updates := make(chan *lightning.InvoiceUpdate)
	errors := make(chan error, 1)

	go func() {
		defer close(updates)
		defer close(errors)

		u, errs, err := n.invoices.SubscribeSingleInvoice(ctx, hash)
		if err != nil {
			errors <- err
			return
		}

		for {
			select {
			case update, ok := <-u:
				if !ok {
					return
				}
				n.log.Tracef("[lnd] invoice %s state %v", hash, update.State)
				if update.State != invoices.ContractSettled {
					continue
				}

				select {
				case updates <- &lightning.InvoiceUpdate{Settled: true}:
				case <-ctx.Done():
				}
				return
			case err := <-errs:
				errors <- err
				return
			case <-ctx.Done():
				return
			}
		}
	}()

	return updates, errors
}

func (n *Node) SubscribeChannelEvents(
	ctx context.Context,
) (chan domain.ChannelEvent, chan error) {
	events := make(chan domain.ChannelEvent)
	errors := make(chan error, 1)

	go func() {
		defer close(events)
		defer close(errors)

		updates, errs, err := n.client.SubscribeChannelEvents(ctx)
		if err != nil {
			errors <- err
			return
		}

		for {
			select {
			case update, ok := <-updates:
				if !ok {
					return
				}
				ev := channelEvent(update)
				n.log.Tracef("[lnd] channel event %+v", ev)

				select {
				case events <- ev:
				case <-ctx.Done():
					return
				}
			case err := <-errs:
				errors <- err
				return
			case <-ctx.Done():
				return
			}
		}
	}()

	return events, errors
}

func channelEvent(update *lndclient.ChannelEventUpdate) domain.ChannelEvent {
	var ev domain.Decoded

	switch update.UpdateType {
	case lndclient.PendingOpenChannelUpdate:
		ev.State = domain.ChannelPendingOpen
	case lndclient.OpenChannelUpdate:
		ev.State = domain.ChannelOpen
	case lndclient.ActiveChannelUpdate:
		ev.State = domain.ChannelActive
	case lndclient.InactiveChannelUpdate:
		ev.State = domain.ChannelInactive
	case lndclient.ClosedChannelUpdate:
		ev.State = domain.ChannelClosed
	case lndclient.FullyResolvedChannelUpdate:
		ev.State = domain.ChannelFullyResolved
	default:
		return domain.Pulse{Raw: fmt.Sprintf("%v", update.UpdateType)}
	}

	if update.OpenedChannelInfo != nil {
		ev.ChannelID = lnwire.NewShortChanIDFromInt(
			update.OpenedChannelInfo.ChannelID,
		)
	}
	if update.ClosedChannelInfo != nil {
		ev.ChannelID = lnwire.NewShortChanIDFromInt(
			update.ClosedChannelInfo.ChannelID,
		)
	}

	return ev
}
