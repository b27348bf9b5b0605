package domain

import (
	"encoding/json"
	"fmt"

	"github.com/btcsuite/btcd/btcutil"
)

// ServiceStatus is a snapshot of the provider availability and pricing terms
// as reported by the service-status endpoint.
type ServiceStatus struct {
	Available         bool
	ApproxFeeSat      btcutil.Amount
	MinimumPaymentSat btcutil.Amount
	PeerAddress       string
}

type serviceStatusJSON struct {
	Status            bool   `json:"status"`
	ApproxFeeSat      uint64 `json:"approxFeeSat"`
	MinimumPaymentSat uint64 `json:"minimumPaymentSat"`
	Peer              string `json:"peer"`
}

func (s *ServiceStatus) UnmarshalJSON(b []byte) error {
	var raw serviceStatusJSON
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}

	*s = ServiceStatus{
		Available:         raw.Status,
		ApproxFeeSat:      btcutil.Amount(raw.ApproxFeeSat),
		MinimumPaymentSat: btcutil.Amount(raw.MinimumPaymentSat),
		PeerAddress:       raw.Peer,
	}

	return nil
}

func (s ServiceStatus) MarshalJSON() ([]byte, error) {
	return json.Marshal(&serviceStatusJSON{
		Status:            s.Available,
		ApproxFeeSat:      uint64(s.ApproxFeeSat),
		MinimumPaymentSat: uint64(s.MinimumPaymentSat),
		Peer:              s.PeerAddress,
	})
}

// UserRegistrationState is the registration state the service holds for this
// wallet. It is informational only.
type UserRegistrationState int

const (
	StateNotRegistered        UserRegistrationState = 1
	StateRegistered           UserRegistrationState = 2
	StateWaitingForSettlement UserRegistrationState = 3
)

var (
	UserStateToString = map[UserRegistrationState]string{
		StateNotRegistered:        "NOT_REGISTERED",
		StateRegistered:           "REGISTERED",
		StateWaitingForSettlement: "WAITING_FOR_SETTLEMENT",
	}

	stringToUserState = map[string]UserRegistrationState{
		"NOT_REGISTERED":         StateNotRegistered,
		"REGISTERED":             StateRegistered,
		"WAITING_FOR_SETTLEMENT": StateWaitingForSettlement,
	}
)

func (s UserRegistrationState) String() string {
	if str, ok := UserStateToString[s]; ok {
		return str
	}

	return fmt.Sprintf("UserRegistrationState(%d)", int(s))
}

// ParseUserRegistrationState maps the literal service state strings. Any other
// value is an error.
func ParseUserRegistrationState(s string) (UserRegistrationState, error) {
	state, ok := stringToUserState[s]
	if !ok {
		return 0, fmt.Errorf("unknown registration state %q", s)
	}

	return state, nil
}
