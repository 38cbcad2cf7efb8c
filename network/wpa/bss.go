package wpa

import (
	"github.com/go-errors/errors"
	"github.com/godbus/dbus/v5"
)

type BSS struct {
	obj dbus.BusObject
}

func (b *BSS) String() string {
	return string(b.obj.Path())
}

// Properties returns all BSS properties with variants unwrapped.
func (b *BSS) Properties() (map[string]interface{}, error) {
	call := b.obj.Call("org.freedesktop.DBus.Properties.GetAll", 0, bssIface)
	if call.Err != nil {
		return nil, errors.Errorf("could not get all properties: %v", call.Err)
	}

	props, ok := unwrap(call.Body[0]).(map[string]interface{})
	if !ok {
		return nil, errors.Errorf("could not convert properties of %v", b)
	}

	return props, nil
}
