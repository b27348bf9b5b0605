package main

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/lightninglabs/lndclient"
	"github.com/sirupsen/logrus"

	"github.com/sebdeveloper6952/ondemand"
)

type lndConfig struct {
	Address     string `long:"addr" env:"LND_ADDR" default:"localhost" description:"lnd host"`
	GrpcPort    string `long:"grpcport" env:"LND_GRPC_PORT" default:"10009" description:"lnd gRPC port"`
	MacaroonHex string `long:"macaroonhex" env:"LND_MAC_HEX" description:"hex encoded lnd macaroon"`
	TLSPath     string `long:"tlspath" env:"LND_TLS_PATH" description:"path to lnd's tls.cert"`
}

type nostrConfig struct {
	Relays        []string `long:"relay" env:"ONDEMAND_NOSTR_RELAYS" env-delim:"," description:"relay to receive channel notifications from, repeatable"`
	ServicePubkey string   `long:"servicepubkey" env:"ONDEMAND_NOSTR_SERVICE_PUBKEY" description:"hex nostr pubkey the service publishes notifications with"`
}

type config struct {
	Network     string        `long:"network" env:"ONDEMAND_NETWORK" default:"mainnet" choice:"regtest" choice:"testnet" choice:"mainnet" description:"bitcoin network, selects the default service URL"`
	ServiceURL  string        `long:"lspurl" env:"ONDEMAND_URL" description:"on-demand channel service base URL, overrides the network default"`
	IdentityKey string        `long:"identitykey" env:"ONDEMAND_IDENTITY_KEY" description:"hex private key to sign with instead of the lnd node key"`
	LedgerPath  string        `long:"ledger" env:"ONDEMAND_LEDGER" description:"bbolt file to keep invoices in, in memory if empty"`
	Timeout     time.Duration `long:"timeout" env:"ONDEMAND_TIMEOUT" default:"30s" description:"deadline for each service request"`
	LogLevel    string        `long:"loglevel" env:"ONDEMAND_LOG_LEVEL" default:"info" description:"trace, debug, info, warn or error"`

	Lnd   lndConfig   `group:"lnd" namespace:"lnd"`
	Nostr nostrConfig `group:"nostr" namespace:"nostr"`
}

// validate rejects option combinations go-flags can't express.
func (c *config) validate() error {
	if len(c.Nostr.Relays) > 0 && c.Nostr.ServicePubkey == "" {
		return errors.New("--nostr.relay requires --nostr.servicepubkey")
	}

	return nil
}

func (c *config) serviceURL() string {
	if c.ServiceURL != "" {
		return c.ServiceURL
	}
	if c.Network == "regtest" {
		return ondemand.RegtestURL
	}

	return ondemand.MainnetURL
}

func (c *config) lndNetwork() lndclient.Network {
	switch c.Network {
	case "regtest":
		return lndclient.NetworkRegtest
	case "testnet":
		return lndclient.NetworkTestnet
	default:
		return lndclient.NetworkMainnet
	}
}

func (c *config) lndTLS() (string, error) {
	if c.Lnd.TLSPath == "" {
		return "", nil
	}

	tlsBytes, err := os.ReadFile(c.Lnd.TLSPath)
	if err != nil {
		return "", fmt.Errorf("read lnd tls cert: %w", err)
	}

	return string(tlsBytes), nil
}

func (c *config) logger() (*logrus.Logger, error) {
	logger := logrus.New()
	logger.SetFormatter(&logrus.TextFormatter{
		DisableColors: false,
		FullTimestamp: true,
	})

	level, err := logrus.ParseLevel(c.LogLevel)
	if err != nil {
		return nil, err
	}
	logger.SetLevel(level)

	return logger, nil
}
