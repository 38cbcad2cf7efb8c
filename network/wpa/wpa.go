// Package wpa is a thin client for the wpa_supplicant D-Bus API
// (fi.w1.wpa_supplicant1).
package wpa

import (
	"github.com/go-errors/errors"
	"github.com/godbus/dbus/v5"
)

const (
	service        = "fi.w1.wpa_supplicant1"
	servicePath    = "/fi/w1/wpa_supplicant1"
	interfaceIface = service + ".Interface"
	bssIface       = service + ".BSS"
	networkIface   = service + ".Network"
)

// States reported through the Interface State property.
const (
	StateCompleted    = "completed"
	StateDisconnected = "disconnected"
	StateInactive     = "inactive"
	StateScanning     = "scanning"
)

type Wpa struct {
	conn   *dbus.Conn
	obj    dbus.BusObject
	router *signalRouter
}

func New() *Wpa {
	return &Wpa{}
}

func (w *Wpa) Start() error {
	conn, err := dbus.ConnectSystemBus()
	if err != nil {
		return errors.Errorf("could not connect to system bus: %v", err)
	}

	w.conn = conn
	w.obj = conn.Object(service, servicePath)
	w.router = newSignalRouter(conn)

	go w.router.run()

	return nil
}

func (w *Wpa) Stop() error {
	if w.conn == nil {
		return nil
	}

	w.router.stop()

	err := w.conn.Close()
	if err != nil {
		return errors.Errorf("could not close system bus connection: %v", err)
	}

	w.conn = nil

	return nil
}

func (w *Wpa) GetInterface(ifname string) (*Interface, error) {
	if w.conn == nil {
		return nil, errors.New("wpa not started")
	}

	var objPath dbus.ObjectPath

	err := w.obj.Call(service+".GetInterface", 0, ifname).Store(&objPath)
	if err != nil {
		return nil, errors.Errorf("could not get interface %v: %v", ifname, err)
	}

	return &Interface{
		wpa: w,
		obj: w.conn.Object(service, objPath),
	}, nil
}

// unwrap replaces D-Bus variants, also nested in dictionaries, by their values.
func unwrap(v interface{}) interface{} {
	switch t := v.(type) {
	case dbus.Variant:
		return unwrap(t.Value())
	case map[string]dbus.Variant:
		m := make(map[string]interface{}, len(t))
		for k, val := range t {
			m[k] = unwrap(val.Value())
		}
		return m
	default:
		return v
	}
}
