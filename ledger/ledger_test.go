package ledger

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/lightningnetwork/lnd/lntypes"
	"github.com/lightningnetwork/lnd/lnwire"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"

	"github.com/sebdeveloper6952/ondemand/domain"
	"github.com/sebdeveloper6952/ondemand/lightning"
)

type mockNode struct {
	reqs []*lightning.InvoiceRequest
	err  error
	hash *lntypes.Hash
}

func (m *mockNode) AddInvoice(
	_ context.Context,
	req *lightning.InvoiceRequest,
) (*lightning.Invoice, error) {
	m.reqs = append(m.reqs, req)
	if m.err != nil {
		return nil, m.err
	}

	hash := req.Preimage.Hash()
	if m.hash != nil {
		hash = *m.hash
	}

	return &lightning.Invoice{
		Hash:   hash,
		PayReq: "lnbcrt50u1fake",
	}, nil
}

func testParams(t *testing.T) *domain.InvoiceParams {
	t.Helper()

	preimage, err := lntypes.MakePreimageFromStr(
		"59cd2bb8a8457893f78f732677df7fc985c5f7d855a230ee218b2fbaa50ac7ca",
	)
	require.NoError(t, err)

	return &domain.InvoiceParams{
		AmountSat:   5000,
		Description: "coffee",
		Preimage:    preimage,
		Route: domain.RegistrationResult{
			ServicePubkey:             "02a1633cafcc01ebfb6d78e39f687a1f0995c62fc95f51ead10a02ee0be551b5dc",
			FakeChannelID:             lnwire.NewShortChanIDFromInt(123456789),
			CltvExpiryDelta:           144,
			FeeBaseMsat:               1000,
			FeeProportionalMillionths: 100,
		},
	}
}

func stores(t *testing.T) map[string]Store {
	t.Helper()

	bolt, err := OpenBoltStore(filepath.Join(t.TempDir(), "ledger.db"))
	require.NoError(t, err)
	t.Cleanup(func() {
		require.NoError(t, bolt.Close())
	})

	return map[string]Store{
		"memory": NewMemStore(),
		"bolt":   bolt,
	}
}

func TestLedgerCreateLookupSync(t *testing.T) {
	for name, store := range stores(t) {
		store := store
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			node := &mockNode{}
			l := New(node, store, nil)

			params := testParams(t)
			invoice, err := l.CreateInvoice(ctx, params)
			require.NoError(t, err)
			require.Equal(t, domain.InvoiceOpen, invoice.Status)
			require.Equal(t, params.Preimage.Hash(), invoice.PaymentHash)
			require.Equal(t, "lnbcrt50u1fake", invoice.PaymentRequest)

			require.Len(t, node.reqs, 1)
			require.Equal(t, params.Preimage, node.reqs[0].Preimage)
			require.Equal(t, []lightning.RouteHint{{
				NodePubkey:                params.Route.ServicePubkey,
				ChannelID:                 params.Route.FakeChannelID,
				FeeBaseMsat:               1000,
				FeeProportionalMillionths: 100,
				CltvExpiryDelta:           144,
			}}, node.reqs[0].RouteHints)

			found, err := l.LookupByPreimage(ctx, params.Preimage)
			require.NoError(t, err)
			require.Equal(t, invoice.PaymentHash, found.PaymentHash)
			require.Equal(t, params.Route.FakeChannelID, found.FakeChannelID)
			require.Equal(t, domain.InvoiceOpen, found.Status)

			found.Status = domain.InvoiceSettled
			found.SettledAt = time.Now()
			require.NoError(t, l.SyncInvoice(ctx, found))

			synced, err := l.Invoice(ctx, invoice.PaymentHash)
			require.NoError(t, err)
			require.Equal(t, domain.InvoiceSettled, synced.Status)
			require.True(t, synced.SettledAt.Equal(found.SettledAt))
		})
	}
}

func TestLedgerLookupMiss(t *testing.T) {
	for name, store := range stores(t) {
		store := store
		t.Run(name, func(t *testing.T) {
			l := New(&mockNode{}, store, nil)

			_, err := l.LookupByPreimage(
				context.Background(), lntypes.Preimage{1},
			)
			require.ErrorIs(t, err, domain.ErrInvoiceNotFound)

			err = l.SyncInvoice(context.Background(), &domain.Invoice{
				PaymentHash: lntypes.Hash{2},
			})
			require.ErrorIs(t, err, domain.ErrInvoiceNotFound)
		})
	}
}

func TestLedgerCreateErrors(t *testing.T) {
	ctx := context.Background()
	params := testParams(t)

	nodeErr := errors.New("lnd unavailable")
	l := New(&mockNode{err: nodeErr}, NewMemStore(), nil)
	_, err := l.CreateInvoice(ctx, params)
	require.ErrorIs(t, err, nodeErr)

	wrong := lntypes.Hash{9}
	store := NewMemStore()
	l = New(&mockNode{hash: &wrong}, store, nil)
	_, err = l.CreateInvoice(ctx, params)
	require.Error(t, err)

	_, err = store.Get(wrong)
	require.ErrorIs(t, err, domain.ErrInvoiceNotFound)
}

func TestLedgerDefaultLogger(t *testing.T) {
	l := New(&mockNode{}, NewMemStore(), nil)

	formatter, ok := l.log.Formatter.(*logrus.TextFormatter)
	require.True(t, ok)
	require.True(t, formatter.FullTimestamp)
}
