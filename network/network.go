package network

import (
	"net"

	"github.com/go-errors/errors"
)

// ErrUnavailable is returned when the underlying OS service cannot be reached.
var ErrUnavailable = errors.New("facility unavailable")

type SecurityKind int

const (
	SecurityWPA2 SecurityKind = iota
	SecurityWEP
	SecurityOpen
)

func (s SecurityKind) String() string {
	switch s {
	case SecurityWPA2:
		return "WPA2"
	case SecurityWEP:
		return "WEP"
	case SecurityOpen:
		return "Open"
	default:
		return "INVALID SECURITY"
	}
}

// SecurityFor derives the security kind of a join request.
func SecurityFor(passphrase string, isLegacyWep bool) SecurityKind {
	switch {
	case passphrase == "":
		return SecurityOpen
	case isLegacyWep:
		return SecurityWEP
	default:
		return SecurityWPA2
	}
}

// Tier is the platform capability tier that decides how joins are issued.
type Tier int

const (
	// TierScoped joins without persisting a profile and binds traffic to the
	// joined network.
	TierScoped Tier = iota
	// TierLegacy adds or updates a saved profile and switches to it.
	TierLegacy
)

func (t Tier) String() string {
	switch t {
	case TierScoped:
		return "scoped"
	case TierLegacy:
		return "legacy"
	default:
		return "INVALID TIER"
	}
}

func ParseTier(s string) (Tier, error) {
	switch s {
	case "scoped":
		return TierScoped, nil
	case "legacy":
		return TierLegacy, nil
	default:
		return 0, errors.Errorf("unknown tier %v", s)
	}
}

// ConnectionRequest is what a caller asks to join.
type ConnectionRequest struct {
	SSID               string
	Passphrase         string
	Security           SecurityKind
	BindAsDefaultRoute bool
}

// Criteria is handed to RequestNetwork. An empty SSID matches any Wi-Fi network.
type Criteria struct {
	SSID       string
	Passphrase string
	Security   SecurityKind
	Persist    bool
}

// Handle references a network that became available through RequestNetwork.
type Handle struct {
	ID        string
	SSID      string
	Interface string
	Scoped    bool
}

type RequestEventKind int

const (
	Available RequestEventKind = iota
	Unavailable
)

func (k RequestEventKind) String() string {
	switch k {
	case Available:
		return "AVAILABLE"
	case Unavailable:
		return "UNAVAILABLE"
	default:
		return "INVALID EVENT"
	}
}

type RequestEvent struct {
	Kind   RequestEventKind
	Handle *Handle
}

// RequestClient delivers the outcome of a RequestNetwork call. Cancel releases
// the underlying OS registration and may be called more than once.
type RequestClient struct {
	Events <-chan *RequestEvent
	Cancel func()
}

// Observation is a network-state-changed notification. SSID is reported the
// way the OS reports it and may be wrapped in double quotes.
type Observation struct {
	SSID      string `json:"ssid"`
	Connected bool   `json:"connected"`
	Gateway   net.IP `json:"gateway,omitempty"`
	Local     net.IP `json:"local,omitempty"`
}

type ObservationClient struct {
	Id           uint32
	Observations <-chan *Observation
	Cancel       func()
}

type ScanDoneClient struct {
	ScanDone <-chan bool
	Cancel   func()
}

type ConnectionInfo struct {
	Connected bool
	SSID      string
	BSSID     string
	RSSI      int
	Frequency int
	IP        net.IP
}

type ConfiguredNetwork struct {
	ID   string
	SSID string
}

// RawRecord holds the properties the OS reported for one access point. Err is
// set when the properties could not be read at all.
type RawRecord struct {
	ID    string
	Props map[string]interface{}
	Err   error
}

// Network is the capability facade over the OS Wi-Fi and connectivity services.
type Network interface {
	Start() error
	Stop() error
	Tier() Tier
	RequestNetwork(criteria *Criteria) (*RequestClient, error)
	ReleaseNetwork(handle *Handle) error
	// BindProcessToNetwork routes the process' traffic through handle, or
	// clears the binding when handle is nil.
	BindProcessToNetwork(handle *Handle) bool
	CurrentConnectionInfo() (*ConnectionInfo, error)
	SubscribeObservations() (*ObservationClient, error)
	ConfiguredNetworks() ([]*ConfiguredNetwork, error)
	RemoveNetwork(ssid string) (bool, error)
	Scan() error
	SubscribeScanDone() (*ScanDoneClient, error)
	ScanResults() ([]*RawRecord, error)
	WifiEnabled() (bool, error)
	SetWifiEnabled(enabled bool) error
	Disconnect() error
}
