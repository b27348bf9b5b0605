package ondemand

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/sebdeveloper6952/ondemand/domain"
)

// Probe tracks whether the service is available and what it charges.
type Probe struct {
	call CallFunc
	log  *logrus.Logger

	mu     sync.RWMutex
	status *domain.ServiceStatus
}

func NewProbe(call CallFunc, log *logrus.Logger) *Probe {
	if log == nil {
		log = newLogger()
	}

	return &Probe{
		call: call,
		log:  log,
	}
}

// FetchStatus queries the service without touching the published status.
func (p *Probe) FetchStatus(ctx context.Context) (domain.ServiceStatus, error) {
	b, err := p.call(ctx, EndpointServiceStatus, nil)
	if err != nil {
		return domain.ServiceStatus{}, err
	}

	var status domain.ServiceStatus
	if err := json.Unmarshal(b, &status); err != nil {
		return domain.ServiceStatus{}, fmt.Errorf(
			"%w: decode service status: %v", domain.ErrNetworkFailure, err,
		)
	}

	return status, nil
}

// Refresh fetches and publishes the service status. On failure the status
// becomes unknown so an old successful snapshot is never left visible.
func (p *Probe) Refresh(ctx context.Context) error {
	status, err := p.FetchStatus(ctx)

	p.mu.Lock()
	defer p.mu.Unlock()

	if err != nil {
		p.log.Warnf("[probe] service status failed %+v", err)
		p.status = nil
		return err
	}

	p.log.Tracef("[probe] service status %+v", status)
	p.status = &status

	return nil
}

// Status returns the last published status, false if it is unknown.
func (p *Probe) Status() (domain.ServiceStatus, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	if p.status == nil {
		return domain.ServiceStatus{}, false
	}

	return *p.status, true
}

func (p *Probe) IsActive() bool {
	status, ok := p.Status()
	return ok && status.Available
}

// Run refreshes the status every interval until ctx is done.
func (p *Probe) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		// Errors are logged by Refresh.
		_ = p.Refresh(ctx)

		select {
		case <-ticker.C:
		case <-ctx.Done():
			return
		}
	}
}
