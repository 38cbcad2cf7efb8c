package wpa

import (
	"testing"

	"github.com/godbus/dbus/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUnwrapNestedVariants(t *testing.T) {
	props := map[string]dbus.Variant{
		"SSID":      dbus.MakeVariant([]byte("HomeNet")),
		"Frequency": dbus.MakeVariant(uint16(5180)),
		"RSN": dbus.MakeVariant(map[string]dbus.Variant{
			"KeyMgmt": dbus.MakeVariant([]string{"wpa-psk"}),
		}),
	}

	unwrapped, ok := unwrap(props).(map[string]interface{})
	require.True(t, ok)

	assert.Equal(t, []byte("HomeNet"), unwrapped["SSID"])
	assert.Equal(t, uint16(5180), unwrapped["Frequency"])

	rsn, ok := unwrapped["RSN"].(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, []string{"wpa-psk"}, rsn["KeyMgmt"])
}

func TestDeliverSignalMatchesPathAndName(t *testing.T) {
	r := &signalRouter{
		subscribers: make(map[uint32]*subscriber),
	}

	wanted := make(chan *dbus.Signal, 1)
	other := make(chan *dbus.Signal, 1)

	r.subscribers[0] = &subscriber{
		path:    "/fi/w1/wpa_supplicant1/Interfaces/0",
		name:    interfaceIface + ".ScanDone",
		signals: wanted,
	}
	r.subscribers[1] = &subscriber{
		path:    "/fi/w1/wpa_supplicant1/Interfaces/1",
		name:    interfaceIface + ".ScanDone",
		signals: other,
	}

	r.deliverSignal(&dbus.Signal{
		Path: "/fi/w1/wpa_supplicant1/Interfaces/0",
		Name: interfaceIface + ".ScanDone",
		Body: []interface{}{true},
	})

	require.Len(t, wanted, 1)
	assert.Len(t, other, 0)

	// a full subscriber never blocks delivery
	r.deliverSignal(&dbus.Signal{
		Path: "/fi/w1/wpa_supplicant1/Interfaces/0",
		Name: interfaceIface + ".ScanDone",
	})
	assert.Len(t, wanted, 1)
}
