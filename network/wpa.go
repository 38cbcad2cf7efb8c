package network

import (
	"fmt"
	"sync"

	"github.com/go-errors/errors"
	"github.com/jackpal/gateway"
	"github.com/the-lightning-land/wifid/network/rfkill"
	"github.com/the-lightning-land/wifid/network/wpa"
)

// check WpaNetworks compliance to its interface during compile time
var _ Network = (*WpaNetwork)(nil)

type Config struct {
	Interface string
	Logger    Logger
	Binder    *Binder
}

type WpaNetwork struct {
	log       Logger
	wpa       *wpa.Wpa
	ifname    string
	iface     *wpa.Interface
	binder    *Binder
	radio     *rfkill.Switch
	observers *observers
	props     *wpa.PropertiesClient
	scopedMtx sync.Mutex
	scoped    map[string]*wpa.Network
}

func NewWpaNetwork(config *Config) *WpaNetwork {
	net := &WpaNetwork{
		ifname: config.Interface,
		wpa:    wpa.New(),
		binder: config.Binder,
		radio:  rfkill.New(),
		scoped: make(map[string]*wpa.Network),
	}

	if config.Logger != nil {
		net.log = config.Logger
	} else {
		net.log = noopLogger{}
	}

	if net.binder == nil {
		net.binder = NewBinder()
	}

	net.observers = newObservers(net.log)

	return net
}

func (n *WpaNetwork) Start() error {
	err := n.wpa.Start()
	if err != nil {
		return errors.Errorf("could not start wpa: %v", err)
	}

	iface, err := n.wpa.GetInterface(n.ifname)
	if err != nil {
		_ = n.Stop()
		return errors.Errorf("could not find interface %v: %v", n.ifname, err)
	}

	n.iface = iface

	n.props, err = iface.PropertiesChanged()
	if err != nil {
		_ = n.Stop()
		return errors.Errorf("could not listen to interface changes: %v", err)
	}

	go n.pumpObservations(n.props)

	return nil
}

func (n *WpaNetwork) Stop() error {
	if n.props != nil {
		n.props.Cancel()
		n.props = nil
	}

	n.observers.closeAll()

	err := n.wpa.Stop()
	if err != nil {
		return errors.Errorf("could not stop wpa: %v", err)
	}

	n.iface = nil

	return nil
}

func (n *WpaNetwork) Tier() Tier {
	if canBindToDevice() {
		return TierScoped
	}

	return TierLegacy
}

// pumpObservations turns interface state changes into observations.
func (n *WpaNetwork) pumpObservations(props *wpa.PropertiesClient) {
	for changes := range props.Changes {
		state, ok := changes["State"].(string)
		if !ok {
			continue
		}

		n.log.Debugf("Interface %v changed state to %v", n.ifname, state)

		n.observers.notify(n.observe(state))
	}
}

func (n *WpaNetwork) observe(state string) *Observation {
	observation := &Observation{
		Connected: state == wpa.StateCompleted,
	}

	if !observation.Connected {
		return observation
	}

	current, err := n.iface.CurrentNetwork()
	if err != nil {
		n.log.Warnf("Could not get current network: %v", err)
	} else if current != nil {
		observation.SSID, err = current.SSID()
		if err != nil {
			n.log.Warnf("Could not get ssid of current network: %v", err)
		}
	}

	observation.Local = interfaceIPv4(n.ifname)

	gw, err := gateway.DiscoverGateway()
	if err != nil {
		n.log.Debugf("Could not discover gateway: %v", err)
	} else {
		observation.Gateway = gw
	}

	return observation
}

func (n *WpaNetwork) RequestNetwork(criteria *Criteria) (*RequestClient, error) {
	if n.iface == nil {
		return nil, ErrUnavailable
	}

	changes, err := n.iface.PropertiesChanged()
	if err != nil {
		return nil, errors.Errorf("could not listen to interface changes: %v", err)
	}

	var target *wpa.Network

	if criteria.SSID != "" {
		target, err = n.addNetwork(criteria)
		if err != nil {
			changes.Cancel()
			return nil, err
		}
	}

	events := make(chan *RequestEvent, 2)
	quit := make(chan struct{})

	send := func(event *RequestEvent) bool {
		select {
		case events <- event:
			return true
		case <-quit:
			return false
		}
	}

	go func() {
		defer close(events)

		// any network satisfies a request without ssid, including the current one
		if target == nil {
			state, err := n.iface.State()
			if err == nil && state == wpa.StateCompleted {
				if handle := n.handle(nil, criteria); handle != nil {
					send(&RequestEvent{Kind: Available, Handle: handle})
				}
			}
		}

		associated := false

		for change := range changes.Changes {
			if state, ok := change["State"].(string); ok && state == wpa.StateCompleted {
				handle := n.handle(target, criteria)
				if handle == nil {
					continue
				}

				associated = true

				if !send(&RequestEvent{Kind: Available, Handle: handle}) {
					return
				}
			}

			if reason, ok := rejectedByAccessPoint(change); ok && !associated {
				n.log.Infof("Request for %v failed with disconnect reason %v", criteria.SSID, reason)

				if !send(&RequestEvent{Kind: Unavailable}) {
					return
				}
			}
		}
	}()

	var once sync.Once

	return &RequestClient{
		Events: events,
		Cancel: func() {
			once.Do(func() {
				close(quit)
				changes.Cancel()
			})
		},
	}, nil
}

// addNetwork adds the requested network and selects it. Persisted requests
// replace a saved profile with the same ssid and save the configuration.
func (n *WpaNetwork) addNetwork(criteria *Criteria) (*wpa.Network, error) {
	if criteria.Persist {
		_, err := n.removeNetworks(criteria.SSID)
		if err != nil {
			n.log.Warnf("Could not remove previous profile of %v: %v", criteria.SSID, err)
		}
	}

	target, err := n.iface.AddNetwork(networkArgs(criteria))
	if err != nil {
		return nil, errors.Errorf("could not add network %v: %v", criteria.SSID, err)
	}

	err = n.iface.SelectNetwork(target)
	if err != nil {
		_ = n.iface.RemoveNetwork(target)
		return nil, errors.Errorf("could not select network %v: %v", criteria.SSID, err)
	}

	if criteria.Persist {
		err := n.iface.SaveConfig()
		if err != nil {
			n.log.Warnf("Could not save config: %v", err)
		}
	} else {
		n.scopedMtx.Lock()
		n.scoped[target.String()] = target
		n.scopedMtx.Unlock()
	}

	return target, nil
}

// handle describes the network the interface completed association with. It
// returns nil when that is not the requested target.
func (n *WpaNetwork) handle(target *wpa.Network, criteria *Criteria) *Handle {
	current, err := n.iface.CurrentNetwork()
	if err != nil || current == nil {
		return nil
	}

	if target != nil && current.Path() != target.Path() {
		return nil
	}

	ssid, err := current.SSID()
	if err != nil {
		n.log.Warnf("Could not get ssid of %v: %v", current, err)
	}

	return &Handle{
		ID:        current.String(),
		SSID:      TrimQuotes(ssid),
		Interface: n.ifname,
		Scoped:    target != nil && !criteria.Persist,
	}
}

func networkArgs(criteria *Criteria) map[string]interface{} {
	args := map[string]interface{}{
		"ssid": criteria.SSID,
	}

	switch criteria.Security {
	case SecurityOpen:
		args["key_mgmt"] = "NONE"
	case SecurityWEP:
		args["key_mgmt"] = "NONE"
		args["wep_key0"] = criteria.Passphrase
		args["wep_tx_keyidx"] = uint32(0)
	default:
		args["psk"] = criteria.Passphrase
	}

	return args
}

func (n *WpaNetwork) ReleaseNetwork(handle *Handle) error {
	if handle == nil || n.iface == nil {
		return nil
	}

	n.scopedMtx.Lock()
	target, ok := n.scoped[handle.ID]
	delete(n.scoped, handle.ID)
	n.scopedMtx.Unlock()

	if !ok {
		return nil
	}

	err := n.iface.RemoveNetwork(target)
	if err != nil {
		return errors.Errorf("could not release network %v: %v", handle.SSID, err)
	}

	return nil
}

func (n *WpaNetwork) BindProcessToNetwork(handle *Handle) bool {
	if handle == nil {
		n.binder.Bind("")
		return true
	}

	if handle.Interface == "" {
		return false
	}

	n.binder.Bind(handle.Interface)

	return true
}

func (n *WpaNetwork) CurrentConnectionInfo() (*ConnectionInfo, error) {
	if n.iface == nil {
		return nil, ErrUnavailable
	}

	state, err := n.iface.State()
	if err != nil {
		return nil, errors.Errorf("could not get state: %v", err)
	}

	info := &ConnectionInfo{
		Connected: state == wpa.StateCompleted,
		IP:        interfaceIPv4(n.ifname),
	}

	bss, err := n.iface.CurrentBSS()
	if err != nil {
		return nil, errors.Errorf("could not get current bss: %v", err)
	}

	if bss == nil {
		return info, nil
	}

	props, err := bss.Properties()
	if err != nil {
		return nil, errors.Errorf("could not get current bss properties: %v", err)
	}

	record, err := RecordFromProperties(props)
	if err != nil {
		return nil, errors.Errorf("could not read current bss: %v", err)
	}

	info.SSID = record.SSID
	info.BSSID = record.BSSID
	info.RSSI = record.Level
	info.Frequency = record.Frequency

	return info, nil
}

func (n *WpaNetwork) SubscribeObservations() (*ObservationClient, error) {
	if n.iface == nil {
		return nil, ErrUnavailable
	}

	return n.observers.subscribe(), nil
}

func (n *WpaNetwork) ConfiguredNetworks() ([]*ConfiguredNetwork, error) {
	if n.iface == nil {
		return nil, ErrUnavailable
	}

	networks, err := n.iface.Networks()
	if err != nil {
		return nil, err
	}

	var configured []*ConfiguredNetwork

	for _, network := range networks {
		ssid, err := network.SSID()
		if err != nil {
			n.log.Warnf("Skipping configured network: %v", err)
			continue
		}

		configured = append(configured, &ConfiguredNetwork{
			ID:   network.String(),
			SSID: TrimQuotes(ssid),
		})
	}

	return configured, nil
}

// RemoveNetwork removes every saved profile of ssid. It reports true when
// there was nothing to remove.
func (n *WpaNetwork) RemoveNetwork(ssid string) (bool, error) {
	if n.iface == nil {
		return false, ErrUnavailable
	}

	removed, err := n.removeNetworks(ssid)

	return finishRemoval(n.log, ssid, removed, err, n.iface.SaveConfig), nil
}

// finishRemoval saves the configuration whenever a profile was removed, also
// after a later removal failed, so the saved config matches wpa_supplicant.
func finishRemoval(log Logger, ssid string, removed int, err error, save func() error) bool {
	if removed > 0 {
		saveErr := save()
		if saveErr != nil {
			log.Warnf("Could not save config: %v", saveErr)
		}
	}

	if err != nil {
		log.Errorf("Could not remove network %v after %d profiles: %v", ssid, removed, err)
		return false
	}

	return true
}

// rejectedByAccessPoint reports the disconnect reason of a property change if
// the access point turned the station down. wpa_supplicant reports
// disconnects it started itself with negative reasons.
func rejectedByAccessPoint(change map[string]interface{}) (int32, bool) {
	reason, ok := change["DisconnectReason"].(int32)
	if !ok || reason <= 0 {
		return 0, false
	}

	return reason, true
}

func (n *WpaNetwork) removeNetworks(ssid string) (int, error) {
	networks, err := n.iface.Networks()
	if err != nil {
		return 0, err
	}

	removed := 0

	for _, network := range networks {
		configured, err := network.SSID()
		if err != nil || TrimQuotes(configured) != ssid {
			continue
		}

		err = n.iface.RemoveNetwork(network)
		if err != nil {
			return removed, err
		}

		removed++
	}

	return removed, nil
}

func (n *WpaNetwork) Scan() error {
	if n.iface == nil {
		return ErrUnavailable
	}

	err := n.iface.Scan()
	if err != nil {
		return errors.Errorf("unable to scan: %v", err)
	}

	return nil
}

func (n *WpaNetwork) SubscribeScanDone() (*ScanDoneClient, error) {
	if n.iface == nil {
		return nil, ErrUnavailable
	}

	client, err := n.iface.ScanDone()
	if err != nil {
		return nil, errors.Errorf("unable to listen to scan completion: %v", err)
	}

	return &ScanDoneClient{
		ScanDone: client.ScanDone,
		Cancel:   client.Cancel,
	}, nil
}

func (n *WpaNetwork) ScanResults() ([]*RawRecord, error) {
	if n.iface == nil {
		return nil, ErrUnavailable
	}

	bsss, err := n.iface.BSSs()
	if err != nil {
		return nil, errors.Errorf("unable to get BSSs: %v", err)
	}

	records := make([]*RawRecord, 0, len(bsss))

	for _, bss := range bsss {
		props, err := bss.Properties()
		records = append(records, &RawRecord{
			ID:    bss.String(),
			Props: props,
			Err:   err,
		})
	}

	return records, nil
}

func (n *WpaNetwork) WifiEnabled() (bool, error) {
	blocked, err := n.radio.Blocked()
	if err != nil {
		return false, err
	}

	return !blocked, nil
}

func (n *WpaNetwork) SetWifiEnabled(enabled bool) error {
	return n.radio.SetBlocked(!enabled)
}

func (n *WpaNetwork) Disconnect() error {
	if n.iface == nil {
		return ErrUnavailable
	}

	return n.iface.Disconnect()
}

func (n *WpaNetwork) String() string {
	return fmt.Sprintf("wpa(%v)", n.ifname)
}
