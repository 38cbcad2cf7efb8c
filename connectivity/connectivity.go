package connectivity

import (
	"context"
	"sync"

	"github.com/go-errors/errors"
	"github.com/the-lightning-land/wifid/network"
)

type State int

const (
	Offline State = iota
	Online
)

func (s State) String() string {
	switch s {
	case Offline:
		return "OFFLINE"
	case Online:
		return "ONLINE"
	default:
		return "INVALID STATE"
	}
}

func ParseState(s string) (State, error) {
	switch s {
	case "online", "ONLINE":
		return Online, nil
	case "offline", "OFFLINE":
		return Offline, nil
	default:
		return Offline, errors.Errorf("unknown connectivity state %v", s)
	}
}

type Reporter interface {
	CurrentState() State
	WaitForStateChange(context.Context, State) bool
}

// check NetworkReporters compliance to its interface during compile time
var _ Reporter = (*NetworkReporter)(nil)

type Config struct {
	Network network.Network
	Logger  Logger
}

// NetworkReporter follows the observation stream of a network facade.
type NetworkReporter struct {
	network network.Network
	log     Logger
	client  *network.ObservationClient
	done    chan struct{}

	mtx     sync.Mutex
	state   State
	changed chan struct{}
}

func NewReporter(config *Config) *NetworkReporter {
	reporter := &NetworkReporter{
		network: config.Network,
		changed: make(chan struct{}),
		done:    make(chan struct{}),
	}

	if config.Logger != nil {
		reporter.log = config.Logger
	} else {
		reporter.log = noopLogger{}
	}

	return reporter
}

func (r *NetworkReporter) Start() error {
	client, err := r.network.SubscribeObservations()
	if err != nil {
		return errors.Errorf("could not subscribe to observations: %v", err)
	}

	r.client = client

	info, err := r.network.CurrentConnectionInfo()
	if err != nil {
		r.log.Warnf("Could not get current connection: %v", err)
	} else {
		r.set(info.Connected)
	}

	go func() {
		defer close(r.done)

		for observation := range client.Observations {
			r.set(observation.Connected)
		}
	}()

	return nil
}

func (r *NetworkReporter) Stop() error {
	if r.client == nil {
		return nil
	}

	r.client.Cancel()
	<-r.done

	return nil
}

func (r *NetworkReporter) set(connected bool) {
	state := Offline
	if connected {
		state = Online
	}

	r.mtx.Lock()
	defer r.mtx.Unlock()

	if r.state == state {
		return
	}

	r.log.Infof("Connectivity changed from %v to %v", r.state, state)

	r.state = state
	close(r.changed)
	r.changed = make(chan struct{})
}

func (r *NetworkReporter) CurrentState() State {
	r.mtx.Lock()
	defer r.mtx.Unlock()

	return r.state
}

// WaitForStateChange blocks until the state differs from state. It reports
// false if ctx ends first.
func (r *NetworkReporter) WaitForStateChange(ctx context.Context, state State) bool {
	for {
		r.mtx.Lock()
		current := r.state
		changed := r.changed
		r.mtx.Unlock()

		if current != state {
			return true
		}

		select {
		case <-changed:
		case <-ctx.Done():
			return false
		}
	}
}
