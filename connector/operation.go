package connector

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/go-errors/errors"
	"github.com/google/uuid"
	"github.com/the-lightning-land/wifid/network"
	"github.com/the-lightning-land/wifid/result"
	"go.uber.org/atomic"
)

const DefaultTimeout = 10 * time.Second

type State int32

const (
	Idle State = iota
	RequestIssued
	AwaitingConfirmation
	Confirmed
	Rejected
	TimedOut
)

func (s State) String() string {
	switch s {
	case Idle:
		return "IDLE"
	case RequestIssued:
		return "REQUEST ISSUED"
	case AwaitingConfirmation:
		return "AWAITING CONFIRMATION"
	case Confirmed:
		return "CONFIRMED"
	case Rejected:
		return "REJECTED"
	case TimedOut:
		return "TIMED OUT"
	default:
		return "INVALID STATE"
	}
}

func (s State) Terminal() bool {
	return s == Confirmed || s == Rejected || s == TimedOut
}

var (
	errCouldNotConnect   = result.Errorf(result.CodeFailed, "failed: could not connect to wifi")
	errNoConnectivity    = result.Errorf(result.CodeCouldNotGetConnectivityManager, "could not get connectivity manager")
	errOperationCanceled = result.Errorf(result.CodeFailed, "failed: connection attempt was canceled")

	errLegacyCouldNotConnect = result.Errorf(result.CodeFailed, "Could not connect to network")
)

type operationConfig struct {
	Network  network.Network
	Strategy Strategy
	Request  network.ConnectionRequest
	Timeout  time.Duration
	Logger   Logger
	OnDone   func(*Operation)
}

// Operation connects to a single network and verifies the result. It
// completes its sink exactly once and releases every subscription it holds
// before doing so.
type Operation struct {
	ID       string
	Request  network.ConnectionRequest
	Deadline time.Time

	network  network.Network
	strategy Strategy
	timeout  time.Duration
	log      Logger
	onDone   func(*Operation)
	state    *atomic.Int32
	sink     *result.Sink

	// guards the fields below
	mtx          sync.Mutex
	request      *network.RequestClient
	observations *network.ObservationClient
	timer        *time.Timer
	handle       *network.Handle
	bound        bool
	quit         chan struct{}
}

func newOperation(config *operationConfig) *Operation {
	op := &Operation{
		ID:       uuid.New().String(),
		Request:  config.Request,
		network:  config.Network,
		strategy: config.Strategy,
		timeout:  config.Timeout,
		onDone:   config.OnDone,
		state:    atomic.NewInt32(int32(Idle)),
		sink:     result.NewSink(),
		quit:     make(chan struct{}),
	}

	if op.timeout <= 0 {
		op.timeout = DefaultTimeout
	}

	if config.Logger != nil {
		op.log = config.Logger
	} else {
		op.log = noopLogger{}
	}

	return op
}

func (o *Operation) State() State {
	return State(o.state.Load())
}

func (o *Operation) Sink() *result.Sink {
	return o.sink
}

// Handle returns the network the operation was granted, if any.
func (o *Operation) Handle() *network.Handle {
	o.mtx.Lock()
	defer o.mtx.Unlock()

	return o.handle
}

// Start issues the request and returns immediately. The outcome is delivered
// through the sink. Ending ctx rejects a pending operation.
func (o *Operation) Start(ctx context.Context) {
	o.mtx.Lock()

	if !o.state.CompareAndSwap(int32(Idle), int32(RequestIssued)) {
		o.mtx.Unlock()
		return
	}

	o.Deadline = time.Now().Add(o.timeout)

	observations, err := o.network.SubscribeObservations()
	if err != nil {
		o.mtx.Unlock()
		o.log.Errorf("Could not subscribe to observations: %v", err)
		o.finish(Rejected, unreachable(err))
		return
	}

	o.observations = observations

	criteria := o.strategy.Criteria(o.Request)

	o.log.Infof("Requesting network %q (%v, %v tier)", criteria.SSID, criteria.Security, o.strategy.Tier())

	request, err := o.network.RequestNetwork(criteria)
	if err != nil {
		o.mtx.Unlock()
		o.log.Errorf("Could not request network: %v", err)
		o.finish(Rejected, unreachable(err))
		return
	}

	o.request = request
	o.timer = time.AfterFunc(o.timeout, o.expire)

	o.mtx.Unlock()

	go o.run(ctx, request.Events, observations.Observations)
}

func unreachable(err error) *result.Error {
	if errors.Is(err, network.ErrUnavailable) {
		return errNoConnectivity
	}

	return result.Errorf(result.CodeFailed, "failed: %v", err)
}

// run serializes request events and observations of this operation.
func (o *Operation) run(ctx context.Context, events <-chan *network.RequestEvent, observations <-chan *network.Observation) {
	// an observation that arrives before the network is available is
	// evaluated once it is
	var pending *network.Observation

	for {
		select {
		case event, ok := <-events:
			if !ok {
				events = nil
				continue
			}

			switch event.Kind {
			case network.Available:
				if o.available(event.Handle) && pending != nil {
					o.evaluate(pending)
					pending = nil
				}
			case network.Unavailable:
				o.log.Warnf("Network %q is unavailable", o.Request.SSID)
				o.finish(Rejected, errCouldNotConnect)
			}

		case observation, ok := <-observations:
			if !ok {
				observations = nil
				continue
			}

			if !observation.Connected {
				continue
			}

			if o.State() == RequestIssued {
				pending = observation
				continue
			}

			o.evaluate(observation)

		case <-ctx.Done():
			o.finish(Rejected, errOperationCanceled)
			return

		case <-o.quit:
			return
		}
	}
}

// available moves the operation to AwaitingConfirmation. It reports false if
// the operation had already left RequestIssued.
func (o *Operation) available(handle *network.Handle) bool {
	if !o.state.CompareAndSwap(int32(RequestIssued), int32(AwaitingConfirmation)) {
		return false
	}

	o.log.Infof("Network %v is available", handle.ID)

	o.mtx.Lock()

	// the operation may have timed out in between
	if o.State().Terminal() {
		o.mtx.Unlock()
		return false
	}

	o.handle = handle

	if o.strategy.Bind(o.Request) {
		if o.network.BindProcessToNetwork(handle) {
			o.bound = true
		} else {
			o.log.Warnf("Could not bind process to network %v", handle.ID)
		}
	}
	o.mtx.Unlock()

	if !o.strategy.Verify() {
		o.finish(Confirmed, nil)
	}

	return true
}

func (o *Operation) evaluate(observation *network.Observation) {
	if o.State() != AwaitingConfirmation {
		return
	}

	observed := network.TrimQuotes(observation.SSID)

	if observed != o.Request.SSID {
		o.finish(Rejected, result.Errorf(result.CodeConnectNetworkFailed,
			"connect network failed: mismatched SSID (requested %q, observed %q)", o.Request.SSID, observed))
		return
	}

	o.log.Infof("Connected to %q with local address %v via gateway %v",
		observed, network.FormatIPv4(observation.Local), network.FormatIPv4(observation.Gateway))

	o.finish(Confirmed, nil)
}

func (o *Operation) expire() {
	target := o.Request.SSID
	if target == "" {
		target = "any wifi network"
	}

	o.finish(TimedOut, result.Errorf(result.CodeConnectNetworkFailed,
		"connect network failed: timeout connecting to %q", target))
}

// abort rejects the operation unless it already ended.
func (o *Operation) abort(err *result.Error) bool {
	return o.finish(Rejected, err)
}

// finish performs the single terminal transition. Every later call is a
// no-op that reports false.
func (o *Operation) finish(to State, err *result.Error) bool {
	var from State

	for {
		from = o.State()
		if from.Terminal() {
			return false
		}

		if o.state.CompareAndSwap(int32(from), int32(to)) {
			break
		}
	}

	o.release(to)

	// the owner learns about the outcome before the caller does
	if o.onDone != nil {
		o.onDone(o)
	}

	if err != nil {
		failure := o.strategy.Failure(err)
		o.log.Warnf("Connection to %q %v: %v", o.Request.SSID, strings.ToLower(to.String()), failure)
		o.sink.Fail(failure)
	} else {
		o.log.Infof("Connection to %q confirmed", o.Request.SSID)
		o.sink.Resolve(o.strategy.Success())
	}

	return true
}

func (o *Operation) release(to State) {
	o.mtx.Lock()
	defer o.mtx.Unlock()

	close(o.quit)

	if o.timer != nil {
		o.timer.Stop()
	}

	if o.request != nil {
		o.request.Cancel()
	}

	if o.observations != nil {
		o.observations.Cancel()
	}

	if to == Confirmed || o.handle == nil {
		return
	}

	// an unconfirmed network must not keep routing process traffic
	if o.bound {
		o.network.BindProcessToNetwork(nil)
		o.bound = false
	}

	if o.handle.Scoped {
		err := o.network.ReleaseNetwork(o.handle)
		if err != nil {
			o.log.Warnf("Could not release network %v: %v", o.handle.ID, err)
		}
	}
}
