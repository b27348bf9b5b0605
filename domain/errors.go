package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrAuthFailure is returned when the challenge could not be signed.
	ErrAuthFailure = errors.New("signing challenge failed")

	// ErrNetworkFailure covers transport and response decoding errors.
	ErrNetworkFailure = errors.New("service request failed")

	// ErrLedgerLookupMiss is returned when a settlement trigger arrived but
	// no ledger entry owns the pending preimage.
	ErrLedgerLookupMiss = errors.New("no invoice for pending preimage")

	ErrInvoiceNotFound = errors.New("invoice not found")

	// ErrSettlementPending is returned when arming while a different
	// preimage is still waiting for settlement.
	ErrSettlementPending = errors.New("another registration is pending settlement")

	ErrBelowMinimum = errors.New("amount below service minimum")
)

// ServiceRejectedError is a business error reported by the service, e.g.
// insufficient liquidity. Reason is the service's text verbatim.
type ServiceRejectedError struct {
	Reason string
}

func (e *ServiceRejectedError) Error() string {
	return fmt.Sprintf("service rejected request: %s", e.Reason)
}
