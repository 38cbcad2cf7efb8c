package pairing

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/the-lightning-land/wifid/network"
	"github.com/the-lightning-land/wifid/result"
)

type fakeManager struct {
	connected bool
	records   []*network.ScanRecord
	sink      *result.Sink
	ssid      string
	psk       string
	legacy    bool
	forced    *bool
}

func (m *fakeManager) ConnectionStatus() (bool, error) {
	return m.connected, nil
}

func (m *fakeManager) CurrentIPAddress() (string, error) {
	return "192.168.1.23", nil
}

func (m *fakeManager) CurrentSSID() (string, error) {
	return "HomeNet", nil
}

func (m *fakeManager) LoadScanResults() ([]*network.ScanRecord, error) {
	return m.records, nil
}

func (m *fakeManager) Connect(ssid string, passphrase string, isLegacyWep bool) *result.Sink {
	m.ssid = ssid
	m.psk = passphrase
	m.legacy = isLegacyWep
	return m.sink
}

func (m *fakeManager) ForceWifiUsage(enable bool) *result.Sink {
	m.forced = &enable
	return result.Resolved(nil)
}

func newTestController(m *fakeManager) *Controller {
	return &Controller{
		log:     noopLogger{},
		manager: m,
	}
}

func TestNetworkAvailabilityStatus(t *testing.T) {
	m := &fakeManager{connected: true}
	c := newTestController(m)

	status, err := c.networkAvailabilityStatus()
	require.NoError(t, err)
	assert.Equal(t, []byte{1}, status)

	m.connected = false

	status, err = c.networkAvailabilityStatus()
	require.NoError(t, err)
	assert.Equal(t, []byte{0}, status)
}

func TestWifiScanList(t *testing.T) {
	c := newTestController(&fakeManager{})

	payload, err := c.wifiScanList()
	require.NoError(t, err)
	assert.Equal(t, "[]", string(payload))

	c = newTestController(&fakeManager{records: []*network.ScanRecord{
		{SSID: "HomeNet", Level: -40, Capabilities: "[WPA2-PSK-CCMP][ESS]"},
	}})

	payload, err = c.wifiScanList()
	require.NoError(t, err)
	assert.JSONEq(t, `[{"ssid": "HomeNet", "level": -40, "capabilities": "[WPA2-PSK-CCMP][ESS]"}]`, string(payload))
}

func TestConnectSignal(t *testing.T) {
	m := &fakeManager{sink: result.NewSink()}
	c := newTestController(m)

	assert.Error(t, c.writeWifiConnectSignal([]byte{1}))

	require.NoError(t, c.writeWifiSsidString([]byte("HomeNet")))
	require.NoError(t, c.writeWifiPskString([]byte("secret123")))
	require.NoError(t, c.writeWifiConnectSignal([]byte{1}))

	assert.Equal(t, "HomeNet", m.ssid)
	assert.Equal(t, "secret123", m.psk)
	assert.False(t, m.legacy)

	payload, err := c.wifiConnectResult()
	require.NoError(t, err)
	assert.JSONEq(t, `{"ssid": "HomeNet", "pending": true}`, string(payload))

	m.sink.Reject(result.CodeConnectNetworkFailed, `connect network failed: timeout connecting to "HomeNet"`)

	require.Eventually(t, func() bool {
		payload, err := c.wifiConnectResult()
		if err != nil {
			return false
		}

		outcome := &connectOutcome{}
		return json.Unmarshal(payload, outcome) == nil && !outcome.Pending
	}, time.Second, time.Millisecond)

	payload, err = c.wifiConnectResult()
	require.NoError(t, err)
	assert.JSONEq(t, `{"ssid": "HomeNet", "pending": false, "error": {
		"code": "connectNetworkFailed",
		"message": "connect network failed: timeout connecting to \"HomeNet\""
	}}`, string(payload))
}

func TestConnectSignalIgnoresOtherValues(t *testing.T) {
	m := &fakeManager{sink: result.NewSink()}
	c := newTestController(m)

	require.NoError(t, c.writeWifiSsidString([]byte("HomeNet")))
	require.NoError(t, c.writeWifiConnectSignal([]byte{0}))

	assert.Equal(t, "", m.ssid)
}

func TestForceSignal(t *testing.T) {
	m := &fakeManager{}
	c := newTestController(m)

	require.NoError(t, c.writeWifiForceSignal([]byte{1}))
	require.NotNil(t, m.forced)
	assert.True(t, *m.forced)

	assert.Error(t, c.writeWifiForceSignal([]byte{7}))
}
