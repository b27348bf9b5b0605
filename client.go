package ondemand

import (
	"context"
	"crypto/rand"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/btcsuite/btcd/btcutil"
	"github.com/lightningnetwork/lnd/lntypes"
	"github.com/sirupsen/logrus"

	"github.com/sebdeveloper6952/ondemand/domain"
	"github.com/sebdeveloper6952/ondemand/lightning"
)

const (
	challengeCheckStatus = "CHECKSTATUS"
	challengeRegister    = "REGISTER"
)

// Ledger stores the invoices issued through the service.
type Ledger interface {
	SettlementLedger
	CreateInvoice(ctx context.Context, params *domain.InvoiceParams) (*domain.Invoice, error)
}

type ClientConfig struct {
	// NodePubkey is the hex encoded wallet identity key Signer signs with.
	NodePubkey string
	Signer     lightning.Signer
	Call       CallFunc
	Correlator *Correlator

	// Ledger is only needed by AddInvoice.
	Ledger Ledger

	// Probe, if set, is consulted by AddInvoice for the minimum payment.
	Probe *Probe

	Log *logrus.Logger
}

// Client performs the signed exchanges with the service.
type Client struct {
	cfg ClientConfig
	log *logrus.Logger
}

func NewClient(cfg ClientConfig) (*Client, error) {
	if cfg.NodePubkey == "" {
		return nil, errors.New("node pubkey is required")
	}
	if cfg.Signer == nil || cfg.Call == nil || cfg.Correlator == nil {
		return nil, errors.New("signer, caller and correlator are required")
	}

	log := cfg.Log
	if log == nil {
		log = newLogger()
	}

	return &Client{
		cfg: cfg,
		log: log,
	}, nil
}

func (c *Client) sign(ctx context.Context, challenge string) (domain.SignedRequest, error) {
	sig, err := c.cfg.Signer.SignMessage(ctx, []byte(challenge))
	if err != nil {
		return domain.SignedRequest{}, fmt.Errorf("%w: %v", domain.ErrAuthFailure, err)
	}

	return domain.SignedRequest{
		Pubkey:    c.cfg.NodePubkey,
		Signature: sig,
	}, nil
}

func (c *Client) CheckStatus(ctx context.Context) (domain.UserRegistrationState, error) {
	c.log.Tracef("[client] check status")

	signed, err := c.sign(ctx, challengeCheckStatus)
	if err != nil {
		return 0, err
	}

	body, err := json.Marshal(&signed)
	if err != nil {
		return 0, err
	}

	b, err := c.cfg.Call(ctx, EndpointCheckStatus, body)
	if err != nil {
		return 0, err
	}

	var res domain.CheckStatusResponse
	if err := json.Unmarshal(b, &res); err != nil {
		return 0, fmt.Errorf("%w: decode check status: %v",
			domain.ErrNetworkFailure, err)
	}

	state, err := domain.ParseUserRegistrationState(res.State)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", domain.ErrNetworkFailure, err)
	}

	return state, nil
}

// Register asks the service for a temporary channel for a payment of amount
// to preimage's hash. The correlator is armed with preimage before the
// request is sent and stays armed whatever the outcome; clearing it after a
// failure is up to the caller.
func (c *Client) Register(
	ctx context.Context,
	preimage lntypes.Preimage,
	amount btcutil.Amount,
) (*domain.RegistrationResult, error) {
	c.log.Tracef("[client] register %d sat", amount)

	if amount <= 0 {
		return nil, errors.New("amount must be positive")
	}

	signed, err := c.sign(ctx, challengeRegister)
	if err != nil {
		return nil, err
	}

	req := &domain.RegistrationRequest{
		NodePubkey: signed.Pubkey,
		Signature:  signed.Signature,
		Preimage:   preimage,
		AmountSat:  amount,
	}
	body, err := json.Marshal(req)
	if err != nil {
		return nil, err
	}

	if err := c.cfg.Correlator.Arm(preimage); err != nil {
		return nil, err
	}

	b, err := c.cfg.Call(ctx, EndpointRegister, body)
	if err != nil {
		return nil, err
	}

	var res domain.RegisterResponse
	if err := json.Unmarshal(b, &res); err != nil {
		return nil, fmt.Errorf("%w: decode register: %v",
			domain.ErrNetworkFailure, err)
	}

	switch res.Status {
	case domain.ResponseStatusError:
		c.log.Debugf("[client] register rejected: %s", res.Reason)
		return nil, &domain.ServiceRejectedError{Reason: res.Reason}
	case domain.ResponseStatusOK:
	default:
		return nil, fmt.Errorf("%w: unexpected register status %q",
			domain.ErrNetworkFailure, res.Status)
	}

	result, err := res.Result()
	if err != nil {
		return nil, fmt.Errorf("%w: decode register: %v",
			domain.ErrNetworkFailure, err)
	}

	c.log.Debugf("[client] registered fake channel %s", result.FakeChannelID)

	return result, nil
}

// AddInvoice registers a fresh preimage with the service and records an
// invoice routed through the temporary channel it returns.
func (c *Client) AddInvoice(
	ctx context.Context,
	amount btcutil.Amount,
	description string,
) (*domain.Invoice, error) {
	if c.cfg.Ledger == nil {
		return nil, errors.New("no ledger configured")
	}

	if c.cfg.Probe != nil {
		if status, ok := c.cfg.Probe.Status(); ok &&
			amount < status.MinimumPaymentSat {

			return nil, fmt.Errorf("%w: %v < %v", domain.ErrBelowMinimum,
				amount, status.MinimumPaymentSat)
		}
	}

	var preimage lntypes.Preimage
	if _, err := rand.Read(preimage[:]); err != nil {
		return nil, err
	}

	result, err := c.Register(ctx, preimage, amount)
	if err != nil {
		c.cfg.Correlator.ClearIfPending(preimage)
		return nil, fmt.Errorf("register: %w", err)
	}

	invoice, err := c.cfg.Ledger.CreateInvoice(ctx, &domain.InvoiceParams{
		AmountSat:   amount,
		Description: description,
		Preimage:    preimage,
		Route:       *result,
	})
	if err != nil {
		c.cfg.Correlator.ClearIfPending(preimage)
		return nil, fmt.Errorf("create invoice: %w", err)
	}

	return invoice, nil
}
