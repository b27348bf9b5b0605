package ledger

import (
	"sync"

	"github.com/lightningnetwork/lnd/lntypes"

	"github.com/sebdeveloper6952/ondemand/domain"
)

type MemStore struct {
	mu       sync.RWMutex
	invoices map[lntypes.Hash]domain.Invoice
}

func NewMemStore() *MemStore {
	return &MemStore{
		invoices: make(map[lntypes.Hash]domain.Invoice),
	}
}

func (m *MemStore) Get(hash lntypes.Hash) (*domain.Invoice, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	invoice, ok := m.invoices[hash]
	if !ok {
		return nil, domain.ErrInvoiceNotFound
	}

	return &invoice, nil
}

func (m *MemStore) Put(invoice *domain.Invoice) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.invoices[invoice.PaymentHash] = *invoice

	return nil
}
