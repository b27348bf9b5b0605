package domain

import (
	"time"

	"github.com/btcsuite/btcd/btcutil"
	"github.com/lightningnetwork/lnd/lntypes"
	"github.com/lightningnetwork/lnd/lnwire"
)

type InvoiceStatus string

const (
	InvoiceOpen    InvoiceStatus = "OPEN"
	InvoiceSettled InvoiceStatus = "SETTLED"
)

// InvoiceParams is everything needed to create an invoice routed through the
// service's temporary channel.
type InvoiceParams struct {
	AmountSat   btcutil.Amount
	Description string
	Preimage    lntypes.Preimage
	Route       RegistrationResult
}

// Invoice is a ledger entry.
type Invoice struct {
	PaymentHash    lntypes.Hash
	Preimage       lntypes.Preimage
	PaymentRequest string
	AmountSat      btcutil.Amount
	Description    string
	Status         InvoiceStatus
	ServicePubkey  string
	FakeChannelID  lnwire.ShortChannelID
	CreatedAt      time.Time
	SettledAt      time.Time
}
