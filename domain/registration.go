package domain

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"

	"github.com/btcsuite/btcd/btcutil"
	"github.com/lightningnetwork/lnd/lntypes"
	"github.com/lightningnetwork/lnd/lnwire"
)

const (
	ResponseStatusOK    = "OK"
	ResponseStatusError = "ERROR"
)

// SignedRequest is the body of every authenticated call: the wallet node
// pubkey and a signature over the call's fixed challenge string.
type SignedRequest struct {
	Pubkey    string `json:"pubkey"`
	Signature string `json:"signature"`
}

// RegistrationRequest asks the service to open a channel for a payment to
// Preimage's hash.
type RegistrationRequest struct {
	NodePubkey string
	Signature  string
	Preimage   lntypes.Preimage
	AmountSat  btcutil.Amount
}

func (r *RegistrationRequest) MarshalJSON() ([]byte, error) {
	return json.Marshal(&struct {
		SignedRequest
		Preimage  string `json:"preimage"`
		AmountSat int64  `json:"amountSat"`
	}{
		SignedRequest: SignedRequest{
			Pubkey:    r.NodePubkey,
			Signature: r.Signature,
		},
		Preimage:  r.Preimage.String(),
		AmountSat: int64(r.AmountSat),
	})
}

// RegistrationResult holds the routing parameters of the temporary channel
// the service registered for us.
type RegistrationResult struct {
	ServicePubkey             string
	FakeChannelID             lnwire.ShortChannelID
	CltvExpiryDelta           uint16
	FeeBaseMsat               lnwire.MilliSatoshi
	FeeProportionalMillionths uint32
}

// RegisterResponse is the envelope of the register endpoint, either variant.
type RegisterResponse struct {
	Status                    string          `json:"status"`
	Reason                    string          `json:"reason,omitempty"`
	ServicePubkey             string          `json:"servicePubkey,omitempty"`
	FakeChannelID             json.RawMessage `json:"fakeChannelId,omitempty"`
	CltvExpiryDelta           uint16          `json:"cltvExpiryDelta,omitempty"`
	FeeBaseMsat               uint32          `json:"feeBaseMsat,omitempty"`
	FeeProportionalMillionths uint32          `json:"feeProportionalMillionths,omitempty"`
}

// Result converts an OK response. The fake channel id is accepted both as a
// JSON number and as a decimal string.
func (r *RegisterResponse) Result() (*RegistrationResult, error) {
	chanID, err := parseChannelID(r.FakeChannelID)
	if err != nil {
		return nil, fmt.Errorf("fakeChannelId: %w", err)
	}

	return &RegistrationResult{
		ServicePubkey:             r.ServicePubkey,
		FakeChannelID:             lnwire.NewShortChanIDFromInt(chanID),
		CltvExpiryDelta:           r.CltvExpiryDelta,
		FeeBaseMsat:               lnwire.MilliSatoshi(r.FeeBaseMsat),
		FeeProportionalMillionths: r.FeeProportionalMillionths,
	}, nil
}

func parseChannelID(raw json.RawMessage) (uint64, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return 0, errors.New("missing")
	}

	if raw[0] == '"' {
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return 0, err
		}
		return strconv.ParseUint(s, 10, 64)
	}

	return strconv.ParseUint(string(raw), 10, 64)
}

type CheckStatusResponse struct {
	State string `json:"state"`
}
