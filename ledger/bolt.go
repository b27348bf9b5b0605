package ledger

import (
	"encoding/json"
	"time"

	"github.com/btcsuite/btcd/btcutil"
	"github.com/lightningnetwork/lnd/lntypes"
	"github.com/lightningnetwork/lnd/lnwire"
	bolt "go.etcd.io/bbolt"

	"github.com/sebdeveloper6952/ondemand/domain"
)

var invoiceBucket = []byte("invoices")

// BoltStore keeps invoices in a bbolt database file.
type BoltStore struct {
	db *bolt.DB
}

func OpenBoltStore(path string) (*BoltStore, error) {
	db, err := bolt.Open(path, 0600, &bolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, err
	}

	err = db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(invoiceBucket)
		return err
	})
	if err != nil {
		db.Close()
		return nil, err
	}

	return &BoltStore{db: db}, nil
}

func (b *BoltStore) Close() error {
	return b.db.Close()
}

type invoiceRecord struct {
	Preimage       string `json:"preimage"`
	PaymentRequest string `json:"paymentRequest"`
	AmountSat      int64  `json:"amountSat"`
	Description    string `json:"description"`
	Status         string `json:"status"`
	ServicePubkey  string `json:"servicePubkey"`
	FakeChannelID  uint64 `json:"fakeChannelId"`
	CreatedAt      int64  `json:"createdAt"`
	SettledAt      int64  `json:"settledAt,omitempty"`
}

func (b *BoltStore) Get(hash lntypes.Hash) (*domain.Invoice, error) {
	var invoice *domain.Invoice

	err := b.db.View(func(tx *bolt.Tx) error {
		v := tx.Bucket(invoiceBucket).Get(hash[:])
		if v == nil {
			return domain.ErrInvoiceNotFound
		}

		var rec invoiceRecord
		if err := json.Unmarshal(v, &rec); err != nil {
			return err
		}

		preimage, err := lntypes.MakePreimageFromStr(rec.Preimage)
		if err != nil {
			return err
		}

		invoice = &domain.Invoice{
			PaymentHash:    hash,
			Preimage:       preimage,
			PaymentRequest: rec.PaymentRequest,
			AmountSat:      btcutil.Amount(rec.AmountSat),
			Description:    rec.Description,
			Status:         domain.InvoiceStatus(rec.Status),
			ServicePubkey:  rec.ServicePubkey,
			FakeChannelID:  lnwire.NewShortChanIDFromInt(rec.FakeChannelID),
			CreatedAt:      time.Unix(0, rec.CreatedAt),
		}
		if rec.SettledAt != 0 {
			invoice.SettledAt = time.Unix(0, rec.SettledAt)
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	return invoice, nil
}

func (b *BoltStore) Put(invoice *domain.Invoice) error {
	rec := invoiceRecord{
		Preimage:       invoice.Preimage.String(),
		PaymentRequest: invoice.PaymentRequest,
		AmountSat:      int64(invoice.AmountSat),
		Description:    invoice.Description,
		Status:         string(invoice.Status),
		ServicePubkey:  invoice.ServicePubkey,
		FakeChannelID:  invoice.FakeChannelID.ToUint64(),
		CreatedAt:      invoice.CreatedAt.UnixNano(),
	}
	if !invoice.SettledAt.IsZero() {
		rec.SettledAt = invoice.SettledAt.UnixNano()
	}

	v, err := json.Marshal(&rec)
	if err != nil {
		return err
	}

	return b.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(invoiceBucket).Put(invoice.PaymentHash[:], v)
	})
}
