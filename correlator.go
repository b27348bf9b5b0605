package ondemand

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/lightningnetwork/lnd/lntypes"
	"github.com/sirupsen/logrus"

	"github.com/sebdeveloper6952/ondemand/domain"
)

// SettlementLedger is the part of the invoice ledger the correlator needs.
type SettlementLedger interface {
	// LookupByPreimage returns domain.ErrInvoiceNotFound when no invoice
	// carries the preimage.
	LookupByPreimage(ctx context.Context, preimage lntypes.Preimage) (*domain.Invoice, error)
	SyncInvoice(ctx context.Context, invoice *domain.Invoice) error
}

// ArmPolicy decides what happens when a preimage is armed while a different
// one is still pending.
type ArmPolicy int

const (
	// ArmReject refuses the new preimage with domain.ErrSettlementPending.
	ArmReject ArmPolicy = iota

	// ArmReplace drops the old preimage in favour of the new one.
	ArmReplace
)

type CorrelatorConfig struct {
	Ledger SettlementLedger
	Policy ArmPolicy

	// OnSettled, if set, is called with every invoice the correlator
	// settles. It runs with the correlator locked and must not call back
	// into it.
	OnSettled func(invoice *domain.Invoice)

	Log *logrus.Logger
}

// Correlator holds the preimage of the single registration waiting for its
// channel and settles the matching invoice when a channel event arrives.
type Correlator struct {
	cfg CorrelatorConfig
	log *logrus.Logger

	mu      sync.Mutex
	pending *lntypes.Preimage
}

func NewCorrelator(cfg CorrelatorConfig) *Correlator {
	log := cfg.Log
	if log == nil {
		log = newLogger()
	}

	return &Correlator{
		cfg: cfg,
		log: log,
	}
}

// Arm makes preimage the pending settlement.
func (c *Correlator) Arm(preimage lntypes.Preimage) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.pending != nil && *c.pending != preimage {
		if c.cfg.Policy == ArmReject {
			return domain.ErrSettlementPending
		}
		c.log.Warnf("[correlator] replacing pending preimage for hash %s",
			c.pending.Hash())
	}

	c.pending = &preimage
	c.log.Debugf("[correlator] armed for hash %s", preimage.Hash())

	return nil
}

func (c *Correlator) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.pending = nil
}

// ClearIfPending clears the correlator only if preimage is the one it is
// waiting for.
func (c *Correlator) ClearIfPending(preimage lntypes.Preimage) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.pending == nil || *c.pending != preimage {
		return false
	}
	c.pending = nil

	return true
}

// Pending returns the pending preimage, false when idle.
func (c *Correlator) Pending() (lntypes.Preimage, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.pending == nil {
		return lntypes.Preimage{}, false
	}

	return *c.pending, true
}

// OnChannelEvent settles the invoice owning the pending preimage. Events that
// can't be a settlement, or that arrive while idle, are dropped. A ledger
// miss keeps the preimage pending so a later event can still resolve it.
func (c *Correlator) OnChannelEvent(ctx context.Context, ev domain.ChannelEvent) error {
	switch e := ev.(type) {
	case nil, domain.Keepalive:
		return nil
	case domain.Decoded:
		if e.State != domain.ChannelOpen && e.State != domain.ChannelActive {
			c.log.Tracef("[correlator] ignoring %s event for channel %s",
				e.State, e.ChannelID)
			return nil
		}
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.pending == nil {
		c.log.Debugf("[correlator] channel event without pending settlement")
		return nil
	}
	preimage := *c.pending

	invoice, err := c.cfg.Ledger.LookupByPreimage(ctx, preimage)
	if errors.Is(err, domain.ErrInvoiceNotFound) {
		c.log.Errorf("[correlator] no invoice for pending hash %s",
			preimage.Hash())
		return fmt.Errorf("%w: hash %s", domain.ErrLedgerLookupMiss,
			preimage.Hash())
	}
	if err != nil {
		return err
	}

	invoice.Status = domain.InvoiceSettled
	invoice.SettledAt = time.Now()
	if err := c.cfg.Ledger.SyncInvoice(ctx, invoice); err != nil {
		return fmt.Errorf("sync settled invoice: %w", err)
	}

	c.pending = nil
	c.log.Infof("[correlator] settled invoice %s", invoice.PaymentHash)

	if c.cfg.OnSettled != nil {
		c.cfg.OnSettled(invoice)
	}

	return nil
}
