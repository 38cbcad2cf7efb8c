package connector

import (
	"context"
	"sync"
	"time"

	"github.com/the-lightning-land/wifid/location"
	"github.com/the-lightning-land/wifid/network"
	"github.com/the-lightning-land/wifid/result"
)

type Config struct {
	Network  network.Network
	Location location.Checker
	Tier     network.Tier
	Timeout  time.Duration
	Logger   Logger
}

// Connector owns at most one pending connect operation and at most one
// pending route operation.
type Connector struct {
	network  network.Network
	location location.Checker
	strategy Strategy
	timeout  time.Duration
	log      Logger

	mtx    sync.Mutex
	active *Operation
	route  *Operation
	// scoped network granted to the last confirmed connect
	held *network.Handle
}

func New(config *Config) *Connector {
	connector := &Connector{
		network:  config.Network,
		location: config.Location,
		strategy: NewStrategy(config.Tier),
		timeout:  config.Timeout,
	}

	if config.Logger != nil {
		connector.log = config.Logger
	} else {
		connector.log = noopLogger{}
	}

	return connector
}

func (c *Connector) Tier() network.Tier {
	return c.strategy.Tier()
}

// Active returns the pending connect operation, or nil.
func (c *Connector) Active() *Operation {
	c.mtx.Lock()
	defer c.mtx.Unlock()

	return c.active
}

// Held returns the scoped network of the last confirmed connect, or nil.
func (c *Connector) Held() *network.Handle {
	c.mtx.Lock()
	defer c.mtx.Unlock()

	return c.held
}

// checkLocation fails fast when the location preconditions are not met.
func (c *Connector) checkLocation() *result.Error {
	if !c.location.PermissionGranted() {
		return result.Errorf(result.CodeLocationPermissionMissing, "Location permission is not granted")
	}

	enabled, err := c.location.ServiceEnabled()
	if err != nil {
		c.log.Errorf("Could not check location service: %v", err)
		return result.Errorf(result.CodeIsLocationServiceOnFailed, "%v", err)
	}

	if !enabled {
		return result.Errorf(result.CodeLocationOff, "Location service is turned off")
	}

	return nil
}

// Connect submits req and returns immediately. A second connect while one is
// pending is rejected with CodeConnectInProgress.
func (c *Connector) Connect(ctx context.Context, req network.ConnectionRequest) *result.Sink {
	if err := c.checkLocation(); err != nil {
		return result.Rejected(err.Code, err.Message)
	}

	c.mtx.Lock()

	if c.active != nil {
		c.mtx.Unlock()
		c.log.Warnf("Rejecting connect to %q while connecting to %q", req.SSID, c.active.Request.SSID)
		return result.Rejected(result.CodeConnectInProgress, "a connection attempt is already in progress")
	}

	op := newOperation(&operationConfig{
		Network:  c.network,
		Strategy: c.strategy,
		Request:  req,
		Timeout:  c.timeout,
		Logger:   c.log,
		OnDone:   c.connectDone,
	})

	c.active = op
	c.mtx.Unlock()

	op.Start(ctx)

	return op.Sink()
}

func (c *Connector) connectDone(op *Operation) {
	c.mtx.Lock()

	if c.active == op {
		c.active = nil
	}

	var replaced *network.Handle

	handle := op.Handle()
	if op.State() == Confirmed && handle != nil && handle.Scoped {
		if c.held != nil && c.held.ID != handle.ID {
			replaced = c.held
		}
		c.held = handle
	}

	c.mtx.Unlock()

	if replaced != nil {
		err := c.network.ReleaseNetwork(replaced)
		if err != nil {
			c.log.Warnf("Could not release network %v: %v", replaced.ID, err)
		}
	}
}

// Disconnect rejects a pending connect. On the scoped tier it releases the
// held network and clears the process binding, on the legacy tier it
// disconnects the interface.
func (c *Connector) Disconnect() error {
	c.mtx.Lock()
	active := c.active
	held := c.held
	c.held = nil
	c.mtx.Unlock()

	if active != nil {
		active.abort(result.Errorf(result.CodeFailed, "failed: disconnected"))
	}

	if c.strategy.Tier() == network.TierLegacy {
		return c.network.Disconnect()
	}

	if held != nil {
		err := c.network.ReleaseNetwork(held)
		if err != nil {
			return err
		}
	}

	c.network.BindProcessToNetwork(nil)

	return nil
}

// ForceRoute routes process traffic through Wi-Fi when enable is set, or
// clears the process binding otherwise. Binding is process-wide and
// last-writer-wins, it persists past disconnection until cleared.
func (c *Connector) ForceRoute(ctx context.Context, enable bool) *result.Sink {
	if !enable {
		c.mtx.Lock()
		route := c.route
		c.route = nil
		c.mtx.Unlock()

		if route != nil {
			route.abort(result.Errorf(result.CodeFailed, "failed: wifi usage no longer forced"))
		}

		c.network.BindProcessToNetwork(nil)

		return result.Resolved(nil)
	}

	c.mtx.Lock()

	if c.route != nil {
		c.mtx.Unlock()
		return result.Rejected(result.CodeConnectInProgress, "a wifi network is already being requested")
	}

	op := newOperation(&operationConfig{
		Network:  c.network,
		Strategy: routeStrategy{},
		Request:  network.ConnectionRequest{BindAsDefaultRoute: true},
		Timeout:  c.timeout,
		Logger:   c.log,
		OnDone:   c.routeDone,
	})

	c.route = op
	c.mtx.Unlock()

	op.Start(ctx)

	return op.Sink()
}

func (c *Connector) routeDone(op *Operation) {
	c.mtx.Lock()
	defer c.mtx.Unlock()

	if c.route == op {
		c.route = nil
	}
}
