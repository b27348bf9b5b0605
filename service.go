package ondemand

import (
	"context"
	"errors"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/sebdeveloper6952/ondemand/domain"
	"github.com/sebdeveloper6952/ondemand/lightning"
)

type Config struct {
	NodePubkey string
	Signer     lightning.Signer
	Call       CallFunc
	Ledger     Ledger
	ArmPolicy  ArmPolicy
	OnSettled  func(invoice *domain.Invoice)
	Log        *logrus.Logger
}

// Service wires the probe, the registration client and the settlement
// correlator together and feeds channel events to the correlator.
type Service struct {
	Probe      *Probe
	Client     *Client
	Correlator *Correlator

	log *logrus.Logger
}

func NewService(cfg Config) (*Service, error) {
	if cfg.Ledger == nil {
		return nil, errors.New("ledger is required")
	}

	log := cfg.Log
	if log == nil {
		log = newLogger()
	}

	probe := NewProbe(cfg.Call, log)
	correlator := NewCorrelator(CorrelatorConfig{
		Ledger:    cfg.Ledger,
		Policy:    cfg.ArmPolicy,
		OnSettled: cfg.OnSettled,
		Log:       log,
	})

	client, err := NewClient(ClientConfig{
		NodePubkey: cfg.NodePubkey,
		Signer:     cfg.Signer,
		Call:       cfg.Call,
		Correlator: correlator,
		Ledger:     cfg.Ledger,
		Probe:      probe,
		Log:        log,
	})
	if err != nil {
		return nil, err
	}

	return &Service{
		Probe:      probe,
		Client:     client,
		Correlator: correlator,
		log:        log,
	}, nil
}

// Run subscribes to every source and hands their events to the correlator
// one at a time until ctx is done or all sources have ended. Correlator and
// source errors are logged, never returned.
func (s *Service) Run(ctx context.Context, sources ...lightning.ChannelEventSource) error {
	if len(sources) == 0 {
		return errors.New("must provide at least one channel event source")
	}

	events := make(chan domain.ChannelEvent)

	var wg sync.WaitGroup
	for i := range sources {
		wg.Add(1)
		go func(source lightning.ChannelEventSource) {
			defer wg.Done()

			evs, errs := source.SubscribeChannelEvents(ctx)
			for {
				select {
				case ev, ok := <-evs:
					if !ok {
						return
					}
					select {
					case events <- ev:
					case <-ctx.Done():
						return
					}
				case err, ok := <-errs:
					if ok && err != nil {
						s.log.Errorf("[service] channel event source %+v", err)
						return
					}
					// Closed error channel; keep draining events.
					errs = nil
				case <-ctx.Done():
					return
				}
			}
		}(sources[i])
	}

	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()

	for {
		select {
		case ev := <-events:
			if err := s.Correlator.OnChannelEvent(ctx, ev); err != nil {
				s.log.Errorf("[service] channel event %+v", err)
			}
		case <-done:
			return nil
		case <-ctx.Done():
			return nil
		}
	}
}
