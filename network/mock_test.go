package network

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMockNetworkUnavailableUntilStarted(t *testing.T) {
	n := NewMockNetwork(&MockConfig{})

	_, err := n.RequestNetwork(&Criteria{SSID: "HomeNet"})
	assert.Equal(t, ErrUnavailable, err)

	_, err = n.SubscribeObservations()
	assert.Equal(t, ErrUnavailable, err)
}

func TestMockNetworkRequestLifecycle(t *testing.T) {
	n := NewMockNetwork(&MockConfig{})
	require.NoError(t, n.Start())

	client, err := n.RequestNetwork(&Criteria{SSID: "HomeNet"})
	require.NoError(t, err)
	assert.Equal(t, 1, n.OpenRequests())

	n.EmitAvailable(&Handle{ID: "0", SSID: "HomeNet"})

	event := <-client.Events
	assert.Equal(t, Available, event.Kind)
	assert.Equal(t, "HomeNet", event.Handle.SSID)

	client.Cancel()
	client.Cancel()
	assert.Equal(t, 0, n.OpenRequests())

	_, ok := <-client.Events
	assert.False(t, ok)
}

func TestMockNetworkAutoConnect(t *testing.T) {
	n := NewMockNetwork(&MockConfig{AutoConnect: true, Delay: time.Millisecond})
	require.NoError(t, n.Start())

	observations, err := n.SubscribeObservations()
	require.NoError(t, err)
	defer observations.Cancel()

	client, err := n.RequestNetwork(&Criteria{SSID: "HomeNet"})
	require.NoError(t, err)
	defer client.Cancel()

	event := <-client.Events
	assert.Equal(t, Available, event.Kind)

	observation := <-observations.Observations
	assert.True(t, observation.Connected)
	assert.Equal(t, `"HomeNet"`, observation.SSID)

	info, err := n.CurrentConnectionInfo()
	require.NoError(t, err)
	assert.Equal(t, "HomeNet", info.SSID)
}

func TestObserversDropForSlowClients(t *testing.T) {
	o := newObservers(noopLogger{})
	client := o.subscribe()

	for i := 0; i < observationBuffer+5; i++ {
		o.notify(&Observation{})
	}

	assert.Len(t, client.Observations, observationBuffer)

	client.Cancel()
	o.notify(&Observation{})
}

func TestNetworkArgs(t *testing.T) {
	assert.Equal(t, map[string]interface{}{
		"ssid": "HomeNet",
		"psk":  "secret123",
	}, networkArgs(&Criteria{SSID: "HomeNet", Passphrase: "secret123", Security: SecurityWPA2}))

	assert.Equal(t, map[string]interface{}{
		"ssid":     "Cafe",
		"key_mgmt": "NONE",
	}, networkArgs(&Criteria{SSID: "Cafe", Security: SecurityOpen}))

	args := networkArgs(&Criteria{SSID: "Old", Passphrase: "abcde", Security: SecurityWEP})
	assert.Equal(t, "abcde", args["wep_key0"])
	assert.Equal(t, "NONE", args["key_mgmt"])
}
