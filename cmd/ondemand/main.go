package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/btcsuite/btcd/btcutil"
	flags "github.com/jessevdk/go-flags"
	"github.com/sirupsen/logrus"

	"github.com/sebdeveloper6952/ondemand"
	"github.com/sebdeveloper6952/ondemand/domain"
	"github.com/sebdeveloper6952/ondemand/ledger"
	"github.com/sebdeveloper6952/ondemand/lightning"
	"github.com/sebdeveloper6952/ondemand/lightning/keysigner"
	"github.com/sebdeveloper6952/ondemand/lightning/lnd"
	"github.com/sebdeveloper6952/ondemand/nostr"
)

func main() {
	cfg := &config{}
	parser := flags.NewParser(cfg, flags.Default)

	mustAddCommand(parser, "service-status",
		"Show the service availability and pricing",
		&serviceStatusCommand{cfg: cfg})
	mustAddCommand(parser, "check-status",
		"Show this wallet's registration state at the service",
		&checkStatusCommand{cfg: cfg})
	mustAddCommand(parser, "invoice",
		"Create an invoice paid through an on-demand channel and wait for it to settle",
		&invoiceCommand{cfg: cfg})

	if _, err := parser.Parse(); err != nil {
		var flagErr *flags.Error
		if errors.As(err, &flagErr) && flagErr.Type == flags.ErrHelp {
			return
		}
		os.Exit(1)
	}
}

func mustAddCommand(parser *flags.Parser, name, short string, cmd interface{}) {
	if _, err := parser.AddCommand(name, short, short, cmd); err != nil {
		panic(err)
	}
}

// signalContext is cancelled on SIGINT or SIGTERM.
func signalContext() (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGTERM, syscall.SIGINT)
	go func() {
		select {
		case <-sigChan:
			cancel()
		case <-ctx.Done():
		}
		signal.Stop(sigChan)
	}()

	return ctx, cancel
}

// runtime holds what a command connected to.
type runtime struct {
	log     *logrus.Logger
	service *ondemand.Service
	node    *lnd.Node
	sources []lightning.ChannelEventSource
	closers []func()
}

func (r *runtime) close() {
	for i := len(r.closers) - 1; i >= 0; i-- {
		r.closers[i]()
	}
}

// setup connects to lnd unless a local identity key is configured and the
// command doesn't need a node.
func setup(
	ctx context.Context,
	cfg *config,
	needNode bool,
	onSettled func(*domain.Invoice),
) (*runtime, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}

	log, err := cfg.logger()
	if err != nil {
		return nil, err
	}
	r := &runtime{log: log}

	if needNode || cfg.IdentityKey == "" {
		tlsData, err := cfg.lndTLS()
		if err != nil {
			return nil, err
		}
		node, err := lnd.New(
			cfg.Lnd.Address,
			cfg.Lnd.GrpcPort,
			cfg.Lnd.MacaroonHex,
			tlsData,
			cfg.lndNetwork(),
			log,
		)
		if err != nil {
			return nil, fmt.Errorf("connect lnd: %w", err)
		}
		r.node = node
		r.closers = append(r.closers, node.Close)
		r.sources = append(r.sources, node)
	}

	var (
		signer     lightning.Signer
		nodePubkey string
	)
	if cfg.IdentityKey != "" {
		key, err := keysigner.FromHex(cfg.IdentityKey)
		if err != nil {
			r.close()
			return nil, fmt.Errorf("identity key: %w", err)
		}
		signer = key
		nodePubkey, err = key.IdentityPubkey(ctx)
		if err != nil {
			r.close()
			return nil, err
		}
	} else {
		signer = r.node
		nodePubkey, err = r.node.IdentityPubkey(ctx)
		if err != nil {
			r.close()
			return nil, fmt.Errorf("lnd identity: %w", err)
		}
	}

	store, err := openStore(cfg, r)
	if err != nil {
		r.close()
		return nil, err
	}

	var invoiceNode lightning.Service
	if r.node != nil {
		invoiceNode = r.node
	}

	if len(cfg.Nostr.Relays) > 0 {
		r.sources = append(r.sources, nostr.NewSource(
			log, cfg.Nostr.Relays, cfg.Nostr.ServicePubkey,
		))
	}

	r.service, err = ondemand.NewService(ondemand.Config{
		NodePubkey: nodePubkey,
		Signer:     signer,
		Call:       ondemand.NewHTTPCaller(cfg.serviceURL(), nil),
		Ledger:     ledger.New(invoiceNode, store, log),
		OnSettled:  onSettled,
		Log:        log,
	})
	if err != nil {
		r.close()
		return nil, err
	}

	return r, nil
}

func openStore(cfg *config, r *runtime) (ledger.Store, error) {
	if cfg.LedgerPath == "" {
		return ledger.NewMemStore(), nil
	}

	store, err := ledger.OpenBoltStore(cfg.LedgerPath)
	if err != nil {
		return nil, fmt.Errorf("open ledger: %w", err)
	}
	r.closers = append(r.closers, func() {
		if err := store.Close(); err != nil {
			r.log.Errorf("close ledger %+v", err)
		}
	})

	return store, nil
}

type serviceStatusCommand struct {
	cfg *config
}

func (c *serviceStatusCommand) Execute(_ []string) error {
	ctx, cancel := signalContext()
	defer cancel()

	log, err := c.cfg.logger()
	if err != nil {
		return err
	}

	probe := ondemand.NewProbe(ondemand.NewHTTPCaller(c.cfg.serviceURL(), nil), log)

	reqCtx, reqCancel := context.WithTimeout(ctx, c.cfg.Timeout)
	defer reqCancel()

	if err := probe.Refresh(reqCtx); err != nil {
		return err
	}

	status, _ := probe.Status()
	fmt.Printf("active: %v\napprox fee: %v\nminimum payment: %v\npeer: %s\n",
		probe.IsActive(), status.ApproxFeeSat, status.MinimumPaymentSat,
		status.PeerAddress)

	return nil
}

type checkStatusCommand struct {
	cfg *config
}

func (c *checkStatusCommand) Execute(_ []string) error {
	ctx, cancel := signalContext()
	defer cancel()

	reqCtx, reqCancel := context.WithTimeout(ctx, c.cfg.Timeout)
	defer reqCancel()

	r, err := setup(reqCtx, c.cfg, false, nil)
	if err != nil {
		return err
	}
	defer r.close()

	state, err := r.service.Client.CheckStatus(reqCtx)
	if err != nil {
		return err
	}

	fmt.Println(state)

	return nil
}

type invoiceCommand struct {
	cfg *config

	Amount      int64  `long:"amt" required:"true" description:"amount in satoshis"`
	Description string `long:"memo" description:"invoice description"`
}

func (c *invoiceCommand) Execute(_ []string) error {
	ctx, cancel := signalContext()
	defer cancel()

	settled := make(chan *domain.Invoice, 1)
	r, err := setup(ctx, c.cfg, true, func(invoice *domain.Invoice) {
		select {
		case settled <- invoice:
		default:
		}
	})
	if err != nil {
		return err
	}
	defer r.close()

	reqCtx, reqCancel := context.WithTimeout(ctx, c.cfg.Timeout)
	defer reqCancel()

	if err := r.service.Probe.Refresh(reqCtx); err != nil {
		return err
	}
	if !r.service.Probe.IsActive() {
		return errors.New("on-demand channel service is not active")
	}

	// Sources subscribe asynchronously, an event sent before a subscription
	// is up is not seen.
	done := make(chan error, 1)
	go func() {
		done <- r.service.Run(ctx, r.sources...)
	}()

	invoice, err := r.service.Client.AddInvoice(
		reqCtx, btcutil.Amount(c.Amount), c.Description,
	)
	if err != nil {
		return err
	}

	fmt.Println(invoice.PaymentRequest)
	r.log.Infof("waiting for settlement of %s", invoice.PaymentHash)

	select {
	case inv := <-settled:
		r.log.Infof("channel open for %s, waiting for payment", inv.PaymentHash)
		return waitPaid(ctx, r.node, inv)
	case err := <-done:
		if err != nil {
			return err
		}
		return errors.New("channel event sources ended before settlement")
	case <-ctx.Done():
		return ctx.Err()
	}
}

// waitPaid blocks until lnd has settled the invoice.
func waitPaid(
	ctx context.Context,
	tracker lightning.InvoiceTracker,
	invoice *domain.Invoice,
) error {
	updates, errs := tracker.TrackInvoice(ctx, invoice.PaymentHash)

	for {
		select {
		case update, ok := <-updates:
			if !ok {
				updates = nil
				continue
			}
			if update.Settled {
				fmt.Printf("settled %s\n", invoice.PaymentHash)
				return nil
			}
		case err, ok := <-errs:
			if ok && err != nil {
				return fmt.Errorf("track invoice: %w", err)
			}
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return errors.New("invoice subscription ended before payment")
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}
