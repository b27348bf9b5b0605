package nostr

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	goNostr "github.com/nbd-wtf/go-nostr"
	"github.com/sirupsen/logrus"

	"github.com/sebdeveloper6952/ondemand"
	"github.com/sebdeveloper6952/ondemand/domain"
)

// KindChannelEvent is the ephemeral event kind the service publishes channel
// notifications with.
const KindChannelEvent = 21121

// Source receives channel notifications the service publishes on nostr
// relays. Each event's content is either a JSON object with a data field or
// the data string itself.
type Source struct {
	relays        []string
	servicePubkey string
	kind          int
	log           *logrus.Logger
}

func NewSource(
	log *logrus.Logger,
	relays []string,
	servicePubkey string,
) *Source {
	return &Source{
		relays:        relays,
		servicePubkey: servicePubkey,
		kind:          KindChannelEvent,
		log:           log,
	}
}

func (s *Source) SubscribeChannelEvents(
	ctx context.Context,
) (chan domain.ChannelEvent, chan error) {
	events := make(chan domain.ChannelEvent)
	errs := make(chan error, 1)

	if len(s.relays) == 0 {
		errs <- errors.New("must provide at least one relay")
		close(errs)
		close(events)
		return events, errs
	}

	relays := make([]*goNostr.Relay, 0, len(s.relays))
	for i := range s.relays {
		relay, err := goNostr.RelayConnect(ctx, s.relays[i])
		if err != nil {
			s.log.Errorf("[nostr] connect %s %+v", s.relays[i], err)
			continue
		}
		relays = append(relays, relay)
	}
	if len(relays) == 0 {
		errs <- errors.New("could not connect to any relay")
		close(errs)
		close(events)
		return events, errs
	}

	var now = goNostr.Timestamp(time.Now().Unix())
	var filters goNostr.Filters = []goNostr.Filter{
		{
			Kinds:   []int{s.kind},
			Authors: []string{s.servicePubkey},
			Since:   &now,
		},
	}

	incoming := make(chan *goNostr.Event)
	for i := range relays {
		go func(relay *goNostr.Relay) {
			defer relay.Close()

			sub, err := relay.Subscribe(ctx, filters)
			if err != nil {
				s.log.Errorf("[nostr] subscribe %s %+v", relay.URL, err)
				return
			}
			defer sub.Unsub()

			for {
				select {
				case event, ok := <-sub.Events:
					if !ok {
						return
					}
					select {
					case incoming <- event:
					case <-ctx.Done():
						return
					}
				case <-ctx.Done():
					return
				}
			}
		}(relays[i])
	}

	go func() {
		defer close(events)
		defer close(errs)

		// Relays may deliver the same event more than once.
		seen := make(map[string]struct{})

		for {
			select {
			case event := <-incoming:
				if _, dup := seen[event.ID]; dup {
					continue
				}
				seen[event.ID] = struct{}{}

				data, err := s.payload(event)
				if err != nil {
					s.log.Warnf("[nostr] dropping event %s %+v", event.ID, err)
					continue
				}
				s.log.Tracef("[nostr] received channel event %s", event.ID)

				select {
				case events <- ondemand.DecodeChannelEvent(data):
				case <-ctx.Done():
					return
				}
			case <-ctx.Done():
				return
			}
		}
	}()

	return events, errs
}

// payload checks that event comes from the service and extracts its data.
func (s *Source) payload(event *goNostr.Event) (string, error) {
	if event.PubKey != s.servicePubkey {
		return "", errors.New("unexpected author")
	}
	if event.Kind != s.kind {
		return "", errors.New("unexpected kind")
	}

	ok, err := event.CheckSignature()
	if err != nil {
		return "", err
	}
	if !ok {
		return "", errors.New("invalid signature")
	}

	var raw domain.RawChannelEvent
	if err := json.Unmarshal([]byte(event.Content), &raw); err == nil {
		return raw.Data, nil
	}

	return event.Content, nil
}
