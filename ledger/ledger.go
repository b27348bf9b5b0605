// Package ledger keeps the invoices issued through the on-demand channel
// service and resolves them by preimage.
package ledger

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/lightningnetwork/lnd/lntypes"
	"github.com/sirupsen/logrus"

	"github.com/sebdeveloper6952/ondemand/domain"
	"github.com/sebdeveloper6952/ondemand/lightning"
)

// Store persists invoices keyed by payment hash. Get returns
// domain.ErrInvoiceNotFound for an unknown hash.
type Store interface {
	Get(hash lntypes.Hash) (*domain.Invoice, error)
	Put(invoice *domain.Invoice) error
}

type Ledger struct {
	node  lightning.Service
	store Store
	log   *logrus.Logger
	now   func() time.Time
}

func New(node lightning.Service, store Store, log *logrus.Logger) *Ledger {
	if log == nil {
		log = logrus.New()
		log.SetFormatter(&logrus.TextFormatter{
			DisableColors: false,
			FullTimestamp: true,
		})
	}

	return &Ledger{
		node:  node,
		store: store,
		log:   log,
		now:   time.Now,
	}
}

// CreateInvoice adds an invoice on the node with a route hint through the
// service's temporary channel and records it as open.
func (l *Ledger) CreateInvoice(
	ctx context.Context,
	params *domain.InvoiceParams,
) (*domain.Invoice, error) {
	ln, err := l.node.AddInvoice(ctx, &lightning.InvoiceRequest{
		AmountSat: params.AmountSat,
		Memo:      params.Description,
		Preimage:  params.Preimage,
		RouteHints: []lightning.RouteHint{{
			NodePubkey:                params.Route.ServicePubkey,
			ChannelID:                 params.Route.FakeChannelID,
			FeeBaseMsat:               params.Route.FeeBaseMsat,
			FeeProportionalMillionths: params.Route.FeeProportionalMillionths,
			CltvExpiryDelta:           params.Route.CltvExpiryDelta,
		}},
	})
	if err != nil {
		return nil, err
	}

	if ln.Hash != params.Preimage.Hash() {
		return nil, fmt.Errorf("node returned hash %s for preimage of %s",
			ln.Hash, params.Preimage.Hash())
	}

	invoice := &domain.Invoice{
		PaymentHash:    ln.Hash,
		Preimage:       params.Preimage,
		PaymentRequest: ln.PayReq,
		AmountSat:      params.AmountSat,
		Description:    params.Description,
		Status:         domain.InvoiceOpen,
		ServicePubkey:  params.Route.ServicePubkey,
		FakeChannelID:  params.Route.FakeChannelID,
		CreatedAt:      l.now(),
	}
	if err := l.store.Put(invoice); err != nil {
		return nil, err
	}

	l.log.Debugf("[ledger] recorded invoice %s", invoice.PaymentHash)

	return invoice, nil
}

func (l *Ledger) LookupByPreimage(
	_ context.Context,
	preimage lntypes.Preimage,
) (*domain.Invoice, error) {
	invoice, err := l.store.Get(preimage.Hash())
	if err != nil {
		return nil, err
	}

	if invoice.Preimage != preimage {
		return nil, domain.ErrInvoiceNotFound
	}

	return invoice, nil
}

// SyncInvoice writes back an updated invoice. The invoice must exist.
func (l *Ledger) SyncInvoice(_ context.Context, invoice *domain.Invoice) error {
	if _, err := l.store.Get(invoice.PaymentHash); err != nil {
		if errors.Is(err, domain.ErrInvoiceNotFound) {
			return fmt.Errorf("sync %s: %w", invoice.PaymentHash, err)
		}
		return err
	}

	return l.store.Put(invoice)
}

func (l *Ledger) Invoice(_ context.Context, hash lntypes.Hash) (*domain.Invoice, error) {
	return l.store.Get(hash)
}
