package api

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/the-lightning-land/wifid/location"
	"github.com/the-lightning-land/wifid/manager"
	"github.com/the-lightning-land/wifid/network"
	"github.com/the-lightning-land/wifid/result"
	"github.com/the-lightning-land/wifid/wifidb"
)

func newTestApi(t *testing.T, checker location.Checker) (*Api, *network.MockNetwork) {
	n := network.NewMockNetwork(&network.MockConfig{})
	require.NoError(t, n.Start())

	db, err := wifidb.Open(t.TempDir())
	require.NoError(t, err)

	t.Cleanup(func() {
		db.Close()
	})

	a := New(&Config{Version: "test"})

	m := manager.New(&manager.Config{
		Network:        n,
		Location:       checker,
		DB:             db,
		Tier:           network.TierScoped,
		ConnectTimeout: time.Second,
		ScanTimeout:    time.Second,
		Api:            a,
	})

	t.Cleanup(m.Shutdown)

	return a, n
}

func do(a *Api, method string, target string, body interface{}) *httptest.ResponseRecorder {
	var payload bytes.Buffer
	if body != nil {
		json.NewEncoder(&payload).Encode(body)
	}

	w := httptest.NewRecorder()
	a.ServeHTTP(w, httptest.NewRequest(method, target, &payload))

	return w
}

func TestGetNetworks(t *testing.T) {
	a, n := newTestApi(t, location.NewStaticChecker(true, true))

	n.SetScanResults([]*network.RawRecord{
		{ID: "0", Props: map[string]interface{}{
			"SSID":  []byte("HomeNet"),
			"BSSID": []byte{0xaa, 0xbb, 0xcc, 0xdd, 0xee, 0xff},
		}},
		{ID: "1", Props: map[string]interface{}{
			"SSID":  []byte(""),
			"BSSID": []byte{0xaa, 0xbb, 0xcc, 0xdd, 0xee, 0x00},
		}},
	})

	w := do(a, http.MethodGet, "/api/v1/networks", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var records []map[string]interface{}
	require.NoError(t, json.NewDecoder(w.Body).Decode(&records))
	require.Len(t, records, 1)
	assert.Equal(t, "HomeNet", records[0]["SSID"])
	assert.Equal(t, "aa:bb:cc:dd:ee:ff", records[0]["BSSID"])
	assert.Contains(t, records[0], "capabilities")
	assert.Contains(t, records[0], "timestamp")
}

func TestPostConnection(t *testing.T) {
	a, n := newTestApi(t, location.NewStaticChecker(true, true))

	go func() {
		for n.OpenRequests() == 0 {
			time.Sleep(time.Millisecond)
		}
		n.EmitAvailable(&network.Handle{ID: "0", SSID: "HomeNet", Scoped: true})
		n.Observe(&network.Observation{SSID: `"HomeNet"`, Connected: true})
	}()

	w := do(a, http.MethodPost, "/api/v1/connection", &postConnectionRequest{
		SSID:       "HomeNet",
		Passphrase: "secret123",
	})

	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"result": null}`, w.Body.String())
}

func TestPostConnectionLocationOff(t *testing.T) {
	a, n := newTestApi(t, location.NewStaticChecker(true, false))

	w := do(a, http.MethodPost, "/api/v1/connection", &postConnectionRequest{SSID: "HomeNet"})

	require.Equal(t, http.StatusPreconditionFailed, w.Code)

	res := &result.Error{}
	require.NoError(t, json.NewDecoder(w.Body).Decode(res))
	assert.Equal(t, &result.Error{
		Code:    result.CodeLocationOff,
		Message: "Location service is turned off",
	}, res)
	assert.Empty(t, n.Criteria())
}

func TestPostConnectionWithoutSSID(t *testing.T) {
	a, _ := newTestApi(t, location.NewStaticChecker(true, true))

	w := do(a, http.MethodPost, "/api/v1/connection", &postConnectionRequest{})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestWifi(t *testing.T) {
	a, _ := newTestApi(t, location.NewStaticChecker(true, true))

	w := do(a, http.MethodPut, "/api/v1/wifi", map[string]bool{"enabled": false})
	require.Equal(t, http.StatusOK, w.Code)

	w = do(a, http.MethodGet, "/api/v1/wifi", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"enabled": false}`, w.Body.String())

	w = do(a, http.MethodPut, "/api/v1/wifi", map[string]string{})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestGetStatus(t *testing.T) {
	a, n := newTestApi(t, location.NewStaticChecker(true, true))

	n.SetConnectionInfo(&network.ConnectionInfo{
		Connected: true,
		SSID:      "HomeNet",
		BSSID:     "aa:bb:cc:dd:ee:ff",
		RSSI:      -55,
		Frequency: 2437,
	})

	w := do(a, http.MethodGet, "/api/v1/status", nil)
	require.Equal(t, http.StatusOK, w.Code)

	res := &statusResponse{}
	require.NoError(t, json.NewDecoder(w.Body).Decode(res))
	assert.Equal(t, &statusResponse{
		State:     "OFFLINE",
		Connected: true,
		SSID:      "HomeNet",
		BSSID:     "AA:BB:CC:DD:EE:FF",
		RSSI:      -55,
		Frequency: 2437,
		IP:        "0.0.0.0",
	}, res)

	w = do(a, http.MethodGet, "/api/v1/status?wait=sideways", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestDeleteNetwork(t *testing.T) {
	a, _ := newTestApi(t, location.NewStaticChecker(true, true))

	w := do(a, http.MethodDelete, "/api/v1/networks/Nowhere", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"removed": true}`, w.Body.String())
}

func TestDaemon(t *testing.T) {
	a, _ := newTestApi(t, location.NewStaticChecker(true, true))

	w := do(a, http.MethodPut, "/api/v1/daemon", &putDaemonRequest{Name: "porch"})
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"name": "porch", "version": "test", "tier": "scoped"}`, w.Body.String())
}

func TestGetEvents(t *testing.T) {
	a, n := newTestApi(t, location.NewStaticChecker(true, true))

	server := httptest.NewServer(a)
	defer server.Close()

	url := "ws" + strings.TrimPrefix(server.URL, "http") + "/api/v1/events"

	c, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer c.Close()

	require.Eventually(t, func() bool {
		return n.Observers() == 1
	}, time.Second, time.Millisecond)

	n.Observe(&network.Observation{SSID: `"HomeNet"`, Connected: true})

	c.SetReadDeadline(time.Now().Add(time.Second))

	event := &getEventsEvent{}
	require.NoError(t, c.ReadJSON(event))
	assert.Equal(t, "HomeNet", event.SSID)
	assert.True(t, event.Connected)
	assert.Equal(t, "0.0.0.0", event.Gateway)
	assert.NotEmpty(t, event.Id)
}

func TestStatusOf(t *testing.T) {
	assert.Equal(t, http.StatusConflict, statusOf(result.CodeConnectInProgress))
	assert.Equal(t, http.StatusPreconditionFailed, statusOf(result.CodeLocationPermissionMissing))
	assert.Equal(t, http.StatusServiceUnavailable, statusOf(result.CodeCouldNotGetConnectivityManager))
	assert.Equal(t, http.StatusInternalServerError, statusOf(result.CodeFailed))
}

func TestPostScan(t *testing.T) {
	a, n := newTestApi(t, location.NewStaticChecker(true, true))

	n.SetScanResults([]*network.RawRecord{
		{ID: "0", Props: map[string]interface{}{
			"SSID":  []byte("Office"),
			"BSSID": []byte{0xaa, 0xbb, 0xcc, 0xdd, 0xee, 0x01},
		}},
	})

	go func() {
		for n.Scans() == 0 || n.ScanDoneClients() == 0 {
			time.Sleep(time.Millisecond)
		}
		n.CompleteScan(true)
	}()

	w := do(a, http.MethodPost, "/api/v1/networks/scan", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var records []map[string]interface{}
	require.NoError(t, json.NewDecoder(w.Body).Decode(&records))
	require.Len(t, records, 1)
	assert.Equal(t, "Office", records[0]["SSID"])
}

func TestGetStatusWaitsForState(t *testing.T) {
	n := network.NewMockNetwork(&network.MockConfig{})
	require.NoError(t, n.Start())

	db, err := wifidb.Open(t.TempDir())
	require.NoError(t, err)

	a := New(&Config{Version: "test"})

	m := manager.New(&manager.Config{
		Network:  n,
		Location: location.NewStaticChecker(true, true),
		DB:       db,
		Tier:     network.TierScoped,
		Api:      a,
	})

	ran := make(chan error, 1)
	go func() {
		ran <- m.Run()
	}()

	t.Cleanup(func() {
		m.Shutdown()
		<-ran
		db.Close()
	})

	require.Eventually(t, func() bool {
		return n.Observers() > 0
	}, time.Second, time.Millisecond)

	go func() {
		time.Sleep(20 * time.Millisecond)
		n.SetConnectionInfo(&network.ConnectionInfo{Connected: true, SSID: `"HomeNet"`})
		n.Observe(&network.Observation{SSID: `"HomeNet"`, Connected: true})
	}()

	w := do(a, http.MethodGet, "/api/v1/status?wait=ONLINE", nil)
	require.Equal(t, http.StatusOK, w.Code)

	res := &statusResponse{}
	require.NoError(t, json.NewDecoder(w.Body).Decode(res))
	assert.Equal(t, "ONLINE", res.State)
	assert.True(t, res.Connected)
	assert.Equal(t, "HomeNet", res.SSID)
}
