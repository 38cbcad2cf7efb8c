package network

import (
	"fmt"
	"net"
	"sync"
	"time"
)

// check MockNetworks compliance to its interface during compile time
var _ Network = (*MockNetwork)(nil)

const mockRequestBuffer = 4

type MockConfig struct {
	Logger Logger
	// AutoConnect makes every request succeed after Delay, reporting an
	// observation for the requested ssid. Scans complete after Delay as well.
	AutoConnect bool
	Delay       time.Duration
	Tier        Tier
}

// MockNetwork is a synthetic facade. Tests drive it by injecting request
// events, observations and scan completions.
type MockNetwork struct {
	sync.Mutex
	log         Logger
	autoConnect bool
	delay       time.Duration
	tier        Tier
	started     bool
	observers   *observers
	nextRequest uint32
	requests    map[uint32]chan *RequestEvent
	scanClients map[uint32]chan bool
	nextScan    uint32
	criteria    []*Criteria
	released    []*Handle
	bound       *Handle
	info        *ConnectionInfo
	configured  []*ConfiguredNetwork
	records     []*RawRecord
	enabled     bool
	scans       int
}

func NewMockNetwork(config *MockConfig) *MockNetwork {
	n := &MockNetwork{
		autoConnect: config.AutoConnect,
		delay:       config.Delay,
		tier:        config.Tier,
		requests:    make(map[uint32]chan *RequestEvent),
		scanClients: make(map[uint32]chan bool),
		info:        &ConnectionInfo{},
		enabled:     true,
	}

	if config.Logger != nil {
		n.log = config.Logger
	} else {
		n.log = noopLogger{}
	}

	n.observers = newObservers(n.log)

	return n
}

func (n *MockNetwork) Start() error {
	n.Lock()
	n.started = true
	n.Unlock()

	return nil
}

func (n *MockNetwork) Stop() error {
	n.Lock()
	n.started = false
	n.Unlock()

	n.observers.closeAll()

	return nil
}

func (n *MockNetwork) Tier() Tier {
	return n.tier
}

func (n *MockNetwork) RequestNetwork(criteria *Criteria) (*RequestClient, error) {
	n.Lock()
	defer n.Unlock()

	if !n.started {
		return nil, ErrUnavailable
	}

	c := *criteria
	n.criteria = append(n.criteria, &c)

	id := n.nextRequest
	n.nextRequest++

	events := make(chan *RequestEvent, mockRequestBuffer)
	n.requests[id] = events

	if n.autoConnect {
		go n.autoComplete(&c)
	}

	var once sync.Once

	return &RequestClient{
		Events: events,
		Cancel: func() {
			once.Do(func() {
				n.Lock()
				defer n.Unlock()

				if events, ok := n.requests[id]; ok {
					delete(n.requests, id)
					close(events)
				}
			})
		},
	}, nil
}

func (n *MockNetwork) autoComplete(criteria *Criteria) {
	time.Sleep(n.delay)

	ssid := criteria.SSID
	if ssid == "" {
		ssid = "mock"
	}

	n.EmitAvailable(&Handle{
		ID:        fmt.Sprintf("mock/%v", ssid),
		SSID:      ssid,
		Interface: "mock0",
		Scoped:    criteria.SSID != "" && !criteria.Persist,
	})

	n.SetConnectionInfo(&ConnectionInfo{
		Connected: true,
		SSID:      ssid,
		BSSID:     "02:00:00:00:00:01",
		RSSI:      -42,
		Frequency: 2412,
		IP:        net.IPv4(192, 168, 4, 2),
	})

	n.Observe(&Observation{
		SSID:      fmt.Sprintf("%q", ssid),
		Connected: true,
		Gateway:   net.IPv4(192, 168, 4, 1),
		Local:     net.IPv4(192, 168, 4, 2),
	})
}

// EmitAvailable reports handle as available to every open request.
func (n *MockNetwork) EmitAvailable(handle *Handle) {
	n.emit(&RequestEvent{Kind: Available, Handle: handle})
}

// EmitUnavailable reports every open request as unsatisfiable.
func (n *MockNetwork) EmitUnavailable() {
	n.emit(&RequestEvent{Kind: Unavailable})
}

func (n *MockNetwork) emit(event *RequestEvent) {
	n.Lock()
	defer n.Unlock()

	for _, events := range n.requests {
		select {
		case events <- event:
		default:
		}
	}
}

// Observe delivers observation to every observation client.
func (n *MockNetwork) Observe(observation *Observation) {
	n.observers.notify(observation)
}

// OpenRequests returns the number of request registrations not yet cancelled.
func (n *MockNetwork) OpenRequests() int {
	n.Lock()
	defer n.Unlock()

	return len(n.requests)
}

// Observers returns the number of observation clients not yet cancelled.
func (n *MockNetwork) Observers() int {
	n.observers.Lock()
	defer n.observers.Unlock()

	return len(n.observers.clients)
}

// Criteria returns every criteria passed to RequestNetwork.
func (n *MockNetwork) Criteria() []*Criteria {
	n.Lock()
	defer n.Unlock()

	return append([]*Criteria(nil), n.criteria...)
}

func (n *MockNetwork) Bound() *Handle {
	n.Lock()
	defer n.Unlock()

	return n.bound
}

func (n *MockNetwork) Released() []*Handle {
	n.Lock()
	defer n.Unlock()

	return append([]*Handle(nil), n.released...)
}

func (n *MockNetwork) ReleaseNetwork(handle *Handle) error {
	n.Lock()
	defer n.Unlock()

	n.released = append(n.released, handle)

	return nil
}

func (n *MockNetwork) BindProcessToNetwork(handle *Handle) bool {
	n.Lock()
	defer n.Unlock()

	n.bound = handle

	return true
}

func (n *MockNetwork) SetConnectionInfo(info *ConnectionInfo) {
	n.Lock()
	n.info = info
	n.Unlock()
}

func (n *MockNetwork) CurrentConnectionInfo() (*ConnectionInfo, error) {
	n.Lock()
	defer n.Unlock()

	if !n.started {
		return nil, ErrUnavailable
	}

	info := *n.info

	return &info, nil
}

func (n *MockNetwork) SubscribeObservations() (*ObservationClient, error) {
	n.Lock()
	started := n.started
	n.Unlock()

	if !started {
		return nil, ErrUnavailable
	}

	return n.observers.subscribe(), nil
}

func (n *MockNetwork) SetConfiguredNetworks(configured []*ConfiguredNetwork) {
	n.Lock()
	n.configured = configured
	n.Unlock()
}

func (n *MockNetwork) ConfiguredNetworks() ([]*ConfiguredNetwork, error) {
	n.Lock()
	defer n.Unlock()

	return append([]*ConfiguredNetwork(nil), n.configured...), nil
}

func (n *MockNetwork) RemoveNetwork(ssid string) (bool, error) {
	n.Lock()
	defer n.Unlock()

	kept := n.configured[:0]
	for _, configured := range n.configured {
		if configured.SSID != ssid {
			kept = append(kept, configured)
		}
	}
	n.configured = kept

	return true, nil
}

func (n *MockNetwork) Scan() error {
	n.Lock()
	defer n.Unlock()

	if !n.started {
		return ErrUnavailable
	}

	n.scans++

	if n.autoConnect {
		go func() {
			time.Sleep(n.delay)
			n.CompleteScan(true)
		}()
	}

	return nil
}

// Scans returns how often a scan was triggered.
func (n *MockNetwork) Scans() int {
	n.Lock()
	defer n.Unlock()

	return n.scans
}

// CompleteScan notifies every scan-done client.
func (n *MockNetwork) CompleteScan(success bool) {
	n.Lock()
	defer n.Unlock()

	for _, done := range n.scanClients {
		select {
		case done <- success:
		default:
		}
	}
}

func (n *MockNetwork) SubscribeScanDone() (*ScanDoneClient, error) {
	n.Lock()
	defer n.Unlock()

	if !n.started {
		return nil, ErrUnavailable
	}

	id := n.nextScan
	n.nextScan++

	done := make(chan bool, 1)
	n.scanClients[id] = done

	var once sync.Once

	return &ScanDoneClient{
		ScanDone: done,
		Cancel: func() {
			once.Do(func() {
				n.Lock()
				defer n.Unlock()

				delete(n.scanClients, id)
				close(done)
			})
		},
	}, nil
}

// ScanDoneClients returns the number of scan-done clients not yet cancelled.
func (n *MockNetwork) ScanDoneClients() int {
	n.Lock()
	defer n.Unlock()

	return len(n.scanClients)
}

func (n *MockNetwork) SetScanResults(records []*RawRecord) {
	n.Lock()
	n.records = records
	n.Unlock()
}

func (n *MockNetwork) ScanResults() ([]*RawRecord, error) {
	n.Lock()
	defer n.Unlock()

	if !n.started {
		return nil, ErrUnavailable
	}

	return append([]*RawRecord(nil), n.records...), nil
}

func (n *MockNetwork) WifiEnabled() (bool, error) {
	n.Lock()
	defer n.Unlock()

	return n.enabled, nil
}

func (n *MockNetwork) SetWifiEnabled(enabled bool) error {
	n.Lock()
	n.enabled = enabled
	n.Unlock()

	return nil
}

func (n *MockNetwork) Disconnect() error {
	n.Lock()
	n.info = &ConnectionInfo{}
	n.Unlock()

	n.Observe(&Observation{Connected: false})

	return nil
}
