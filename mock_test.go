package ondemand

import (
	"context"
	"errors"
	"sync"

	"github.com/lightningnetwork/lnd/lntypes"
	"github.com/sirupsen/logrus"

	"github.com/sebdeveloper6952/ondemand/domain"
)

const testNodePubkey = "03c9b1e1b1a1f0c7fd3db4ab9c03d1f2a1e95ac51fd6ba3f9d1c6e0a3a5c0b6a7d"

func testLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetLevel(logrus.TraceLevel)
	return logger
}

type mockSigner struct {
	mu   sync.Mutex
	msgs []string
	err  error
}

func (m *mockSigner) SignMessage(_ context.Context, msg []byte) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.msgs = append(m.msgs, string(msg))
	if m.err != nil {
		return "", m.err
	}

	return "sig:" + string(msg), nil
}

type mockLedger struct {
	mu        sync.Mutex
	invoices  map[lntypes.Hash]domain.Invoice
	lookups   int
	syncs     int
	creates   int
	syncErr   error
	createErr error
}

func newMockLedger() *mockLedger {
	return &mockLedger{
		invoices: make(map[lntypes.Hash]domain.Invoice),
	}
}

func (m *mockLedger) add(preimage lntypes.Preimage) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.invoices[preimage.Hash()] = domain.Invoice{
		PaymentHash: preimage.Hash(),
		Preimage:    preimage,
		Status:      domain.InvoiceOpen,
	}
}

func (m *mockLedger) get(hash lntypes.Hash) (domain.Invoice, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	invoice, ok := m.invoices[hash]
	return invoice, ok
}

func (m *mockLedger) touched() int {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.lookups + m.syncs
}

func (m *mockLedger) LookupByPreimage(
	_ context.Context,
	preimage lntypes.Preimage,
) (*domain.Invoice, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.lookups++
	invoice, ok := m.invoices[preimage.Hash()]
	if !ok {
		return nil, domain.ErrInvoiceNotFound
	}

	return &invoice, nil
}

func (m *mockLedger) SyncInvoice(_ context.Context, invoice *domain.Invoice) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.syncs++
	if m.syncErr != nil {
		return m.syncErr
	}
	if _, ok := m.invoices[invoice.PaymentHash]; !ok {
		return errors.New("sync of unknown invoice")
	}
	m.invoices[invoice.PaymentHash] = *invoice

	return nil
}

func (m *mockLedger) CreateInvoice(
	_ context.Context,
	params *domain.InvoiceParams,
) (*domain.Invoice, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.creates++
	if m.createErr != nil {
		return nil, m.createErr
	}

	invoice := domain.Invoice{
		PaymentHash:    params.Preimage.Hash(),
		Preimage:       params.Preimage,
		PaymentRequest: "lnbcrt1fake",
		AmountSat:      params.AmountSat,
		Description:    params.Description,
		Status:         domain.InvoiceOpen,
		ServicePubkey:  params.Route.ServicePubkey,
		FakeChannelID:  params.Route.FakeChannelID,
	}
	m.invoices[invoice.PaymentHash] = invoice

	return &invoice, nil
}

// mockCall serves canned bodies per endpoint and records request bodies.
type mockCall struct {
	mu        sync.Mutex
	responses map[string]string
	err       error
	requests  map[string][]byte
	onCall    func(endpoint string)
}

func newMockCall(responses map[string]string) *mockCall {
	return &mockCall{
		responses: responses,
		requests:  make(map[string][]byte),
	}
}

func (m *mockCall) call(_ context.Context, endpoint string, body []byte) ([]byte, error) {
	if m.onCall != nil {
		m.onCall(endpoint)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	m.requests[endpoint] = body
	if m.err != nil {
		return nil, m.err
	}

	res, ok := m.responses[endpoint]
	if !ok {
		return nil, errors.New("unexpected endpoint " + endpoint)
	}

	return []byte(res), nil
}

func (m *mockCall) request(endpoint string) ([]byte, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	b, ok := m.requests[endpoint]
	return b, ok
}
