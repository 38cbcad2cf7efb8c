package connector

import (
	"github.com/the-lightning-land/wifid/network"
	"github.com/the-lightning-land/wifid/result"
)

// Strategy decides how a connection request is issued on a capability tier
// and how its outcome is reported.
type Strategy interface {
	Tier() network.Tier
	Criteria(req network.ConnectionRequest) *network.Criteria
	// Bind reports whether process traffic is routed through the network as
	// soon as it becomes available.
	Bind(req network.ConnectionRequest) bool
	// Verify reports whether an available network still has to be confirmed
	// by an observation.
	Verify() bool
	Success() interface{}
	Failure(err *result.Error) *result.Error
}

func NewStrategy(tier network.Tier) Strategy {
	switch tier {
	case network.TierLegacy:
		return legacyStrategy{}
	default:
		return scopedStrategy{}
	}
}

type scopedStrategy struct{}

func (scopedStrategy) Tier() network.Tier {
	return network.TierScoped
}

func (scopedStrategy) Criteria(req network.ConnectionRequest) *network.Criteria {
	return &network.Criteria{
		SSID:       req.SSID,
		Passphrase: req.Passphrase,
		Security:   req.Security,
		Persist:    false,
	}
}

func (scopedStrategy) Bind(req network.ConnectionRequest) bool {
	return req.BindAsDefaultRoute
}

func (scopedStrategy) Verify() bool {
	return true
}

func (scopedStrategy) Success() interface{} {
	return nil
}

func (scopedStrategy) Failure(err *result.Error) *result.Error {
	if err.Code == result.CodeCouldNotGetConnectivityManager {
		return errCouldNotConnect
	}

	return err
}

type legacyStrategy struct{}

func (legacyStrategy) Tier() network.Tier {
	return network.TierLegacy
}

func (legacyStrategy) Criteria(req network.ConnectionRequest) *network.Criteria {
	return &network.Criteria{
		SSID:       req.SSID,
		Passphrase: req.Passphrase,
		Security:   req.Security,
		Persist:    true,
	}
}

func (legacyStrategy) Bind(req network.ConnectionRequest) bool {
	return false
}

func (legacyStrategy) Verify() bool {
	return true
}

func (legacyStrategy) Success() interface{} {
	return "connected"
}

// Failure keeps verification outcomes. Failures reported by the OS collapse
// into a single generic error.
func (legacyStrategy) Failure(err *result.Error) *result.Error {
	if err.Code == result.CodeConnectNetworkFailed {
		return err
	}

	return errLegacyCouldNotConnect
}

// routeStrategy requests any Wi-Fi network and routes process traffic
// through the first one that becomes available.
type routeStrategy struct{}

func (routeStrategy) Tier() network.Tier {
	return network.TierScoped
}

func (routeStrategy) Criteria(req network.ConnectionRequest) *network.Criteria {
	return &network.Criteria{}
}

func (routeStrategy) Bind(req network.ConnectionRequest) bool {
	return true
}

func (routeStrategy) Verify() bool {
	return false
}

func (routeStrategy) Success() interface{} {
	return nil
}

func (routeStrategy) Failure(err *result.Error) *result.Error {
	if err.Code == result.CodeCouldNotGetConnectivityManager {
		return err
	}

	return &result.Error{Code: result.CodeFailed, Message: err.Message}
}
