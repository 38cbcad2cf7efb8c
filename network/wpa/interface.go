package wpa

import (
	"sync"

	"github.com/go-errors/errors"
	"github.com/godbus/dbus/v5"
)

type Interface struct {
	wpa *Wpa
	obj dbus.BusObject
}

func (i *Interface) String() string {
	return string(i.obj.Path())
}

func (i *Interface) Ifname() (string, error) {
	v, err := i.obj.GetProperty(interfaceIface + ".Ifname")
	if err != nil {
		return "", errors.Errorf("could not get ifname: %v", err)
	}

	ifname, ok := v.Value().(string)
	if !ok {
		return "", errors.Errorf("could not convert ifname: %v", v)
	}

	return ifname, nil
}

func (i *Interface) State() (string, error) {
	v, err := i.obj.GetProperty(interfaceIface + ".State")
	if err != nil {
		return "", errors.Errorf("could not get state: %v", err)
	}

	state, ok := v.Value().(string)
	if !ok {
		return "", errors.Errorf("could not convert state: %v", v)
	}

	return state, nil
}

func (i *Interface) Scan() error {
	call := i.obj.Call(interfaceIface+".Scan", 0, map[string]interface{}{
		"Type": "active",
	})
	if call.Err != nil {
		return errors.Errorf("could not scan: %v", call.Err)
	}

	return nil
}

type ScanDoneClient struct {
	ScanDone <-chan bool
	Cancel   func()
}

// ScanDone delivers the success flag of every completed scan until cancelled.
func (i *Interface) ScanDone() (*ScanDoneClient, error) {
	id, signals, err := i.wpa.router.subscribe(i.obj.Path(), interfaceIface, "ScanDone")
	if err != nil {
		return nil, err
	}

	doneChan := make(chan bool)
	quit := make(chan struct{})

	go func() {
		defer close(doneChan)

		for signal := range signals {
			if len(signal.Body) == 0 {
				continue
			}

			success, ok := signal.Body[0].(bool)
			if !ok {
				continue
			}

			select {
			case doneChan <- success:
			case <-quit:
				return
			}
		}
	}()

	var once sync.Once

	return &ScanDoneClient{
		ScanDone: doneChan,
		Cancel: func() {
			once.Do(func() {
				close(quit)
				i.wpa.router.unsubscribe(id)
			})
		},
	}, nil
}

type PropertiesClient struct {
	Changes <-chan map[string]interface{}
	Cancel  func()
}

// PropertiesChanged delivers the changed interface properties until cancelled.
func (i *Interface) PropertiesChanged() (*PropertiesClient, error) {
	id, signals, err := i.wpa.router.subscribe(i.obj.Path(), interfaceIface, "PropertiesChanged")
	if err != nil {
		return nil, err
	}

	changeChan := make(chan map[string]interface{})
	quit := make(chan struct{})

	go func() {
		defer close(changeChan)

		for signal := range signals {
			if len(signal.Body) == 0 {
				continue
			}

			changes, ok := unwrap(signal.Body[0]).(map[string]interface{})
			if !ok {
				continue
			}

			select {
			case changeChan <- changes:
			case <-quit:
				return
			}
		}
	}()

	var once sync.Once

	return &PropertiesClient{
		Changes: changeChan,
		Cancel: func() {
			once.Do(func() {
				close(quit)
				i.wpa.router.unsubscribe(id)
			})
		},
	}, nil
}

func (i *Interface) BSSs() ([]*BSS, error) {
	v, err := i.obj.GetProperty(interfaceIface + ".BSSs")
	if err != nil {
		return nil, errors.Errorf("could not get bsss: %v", err)
	}

	objectPaths, ok := v.Value().([]dbus.ObjectPath)
	if !ok {
		return nil, errors.Errorf("could not convert bsss: %v", v)
	}

	var bsss []*BSS

	for _, objectPath := range objectPaths {
		bsss = append(bsss, &BSS{
			obj: i.wpa.conn.Object(service, objectPath),
		})
	}

	return bsss, nil
}

// CurrentBSS returns nil while not associated.
func (i *Interface) CurrentBSS() (*BSS, error) {
	objectPath, err := i.objectPathProperty("CurrentBSS")
	if err != nil {
		return nil, err
	}

	if objectPath == "/" {
		return nil, nil
	}

	return &BSS{
		obj: i.wpa.conn.Object(service, objectPath),
	}, nil
}

// CurrentNetwork returns nil while no network is selected.
func (i *Interface) CurrentNetwork() (*Network, error) {
	objectPath, err := i.objectPathProperty("CurrentNetwork")
	if err != nil {
		return nil, err
	}

	if objectPath == "/" {
		return nil, nil
	}

	return i.network(objectPath), nil
}

func (i *Interface) Networks() ([]*Network, error) {
	v, err := i.obj.GetProperty(interfaceIface + ".Networks")
	if err != nil {
		return nil, errors.Errorf("could not get networks: %v", err)
	}

	objectPaths, ok := v.Value().([]dbus.ObjectPath)
	if !ok {
		return nil, errors.Errorf("could not convert networks: %v", v)
	}

	var networks []*Network

	for _, objectPath := range objectPaths {
		networks = append(networks, i.network(objectPath))
	}

	return networks, nil
}

func (i *Interface) objectPathProperty(name string) (dbus.ObjectPath, error) {
	v, err := i.obj.GetProperty(interfaceIface + "." + name)
	if err != nil {
		return "", errors.Errorf("could not get %v: %v", name, err)
	}

	objectPath, ok := v.Value().(dbus.ObjectPath)
	if !ok {
		return "", errors.Errorf("could not convert %v: %v", name, v)
	}

	return objectPath, nil
}

func (i *Interface) network(objectPath dbus.ObjectPath) *Network {
	return &Network{
		wpa: i.wpa,
		obj: i.wpa.conn.Object(service, objectPath),
	}
}

// AddNetwork adds a network block with the given wpa_supplicant parameters.
func (i *Interface) AddNetwork(args map[string]interface{}) (*Network, error) {
	call := i.obj.Call(interfaceIface+".AddNetwork", 0, args)
	if call.Err != nil {
		return nil, errors.Errorf("could not add network: %v", call.Err)
	}

	var objPath dbus.ObjectPath
	err := call.Store(&objPath)
	if err != nil {
		return nil, errors.Errorf("could not store value: %v", err)
	}

	return i.network(objPath), nil
}

func (i *Interface) SelectNetwork(net *Network) error {
	call := i.obj.Call(interfaceIface+".SelectNetwork", 0, net.obj.Path())
	if call.Err != nil {
		return errors.Errorf("could not select network: %v", call.Err)
	}

	return nil
}

func (i *Interface) RemoveNetwork(net *Network) error {
	call := i.obj.Call(interfaceIface+".RemoveNetwork", 0, net.obj.Path())
	if call.Err != nil {
		return errors.Errorf("could not remove network: %v", call.Err)
	}

	return nil
}

func (i *Interface) Disconnect() error {
	call := i.obj.Call(interfaceIface+".Disconnect", 0)
	if call.Err != nil {
		return errors.Errorf("could not disconnect: %v", call.Err)
	}

	return nil
}

// SaveConfig writes the configured networks to the wpa_supplicant config file.
func (i *Interface) SaveConfig() error {
	call := i.obj.Call(interfaceIface+".SaveConfig", 0)
	if call.Err != nil {
		return errors.Errorf("could not save config: %v", call.Err)
	}

	return nil
}
