package main

import (
	"context"
	"errors"
	"testing"

	"github.com/lightningnetwork/lnd/lntypes"
	"github.com/stretchr/testify/require"

	"github.com/sebdeveloper6952/ondemand"
	"github.com/sebdeveloper6952/ondemand/domain"
	"github.com/sebdeveloper6952/ondemand/lightning"
)

func TestConfigValidate(t *testing.T) {
	cfg := &config{}
	require.NoError(t, cfg.validate())

	cfg.Nostr.Relays = []string{"wss://relay.example.com"}
	require.Error(t, cfg.validate())

	cfg.Nostr.ServicePubkey = "a1b2"
	require.NoError(t, cfg.validate())
}

func TestConfigServiceURL(t *testing.T) {
	cfg := &config{Network: "regtest"}
	require.Equal(t, ondemand.RegtestURL, cfg.serviceURL())

	cfg.Network = "mainnet"
	require.Equal(t, ondemand.MainnetURL, cfg.serviceURL())

	cfg.ServiceURL = "http://localhost:8080/"
	require.Equal(t, "http://localhost:8080/", cfg.serviceURL())
}

type mockTracker struct {
	updates chan *lightning.InvoiceUpdate
	errs    chan error
	hash    lntypes.Hash
}

func newMockTracker() *mockTracker {
	return &mockTracker{
		updates: make(chan *lightning.InvoiceUpdate, 1),
		errs:    make(chan error, 1),
	}
}

func (m *mockTracker) TrackInvoice(
	_ context.Context,
	hash lntypes.Hash,
) (chan *lightning.InvoiceUpdate, chan error) {
	m.hash = hash
	return m.updates, m.errs
}

func TestWaitPaid(t *testing.T) {
	invoice := &domain.Invoice{PaymentHash: (&lntypes.Preimage{3}).Hash()}
	ctx := context.Background()

	t.Run("settled", func(t *testing.T) {
		tracker := newMockTracker()
		tracker.updates <- &lightning.InvoiceUpdate{Settled: true}

		require.NoError(t, waitPaid(ctx, tracker, invoice))
		require.Equal(t, invoice.PaymentHash, tracker.hash)
	})

	t.Run("error", func(t *testing.T) {
		tracker := newMockTracker()
		close(tracker.updates)
		tracker.errs <- errors.New("stream reset")

		require.ErrorContains(t, waitPaid(ctx, tracker, invoice), "stream reset")
	})

	t.Run("ended", func(t *testing.T) {
		tracker := newMockTracker()
		close(tracker.updates)
		close(tracker.errs)

		require.Error(t, waitPaid(ctx, tracker, invoice))
	})

	t.Run("cancelled", func(t *testing.T) {
		cancelled, cancel := context.WithCancel(ctx)
		cancel()

		require.ErrorIs(t,
			waitPaid(cancelled, newMockTracker(), invoice), context.Canceled)
	})
}
