package wpa

import (
	"github.com/go-errors/errors"
	"github.com/godbus/dbus/v5"
)

type Network struct {
	wpa *Wpa
	obj dbus.BusObject
}

func (n *Network) String() string {
	return string(n.obj.Path())
}

func (n *Network) Path() dbus.ObjectPath {
	return n.obj.Path()
}

// SSID returns the ssid as configured, which wpa_supplicant keeps quoted.
func (n *Network) SSID() (string, error) {
	v, err := n.obj.GetProperty(networkIface + ".Properties")
	if err != nil {
		return "", errors.Errorf("could not get network properties: %v", err)
	}

	props, ok := unwrap(v).(map[string]interface{})
	if !ok {
		return "", errors.Errorf("could not convert network properties of %v", n)
	}

	ssid, ok := props["ssid"].(string)
	if !ok {
		return "", errors.Errorf("network %v has no ssid", n)
	}

	return ssid, nil
}
