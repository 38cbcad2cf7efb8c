package pairing

import (
	"bytes"
	"encoding/json"
	"strings"
	"sync"
	"time"

	"github.com/go-errors/errors"
	"github.com/muka/go-bluetooth/api"
	"github.com/muka/go-bluetooth/linux/btmgmt"
	"github.com/muka/go-bluetooth/service"
	"github.com/the-lightning-land/wifid/result"
)

const (
	// Unique UUID suffix for the wifid onboarding service
	uuidSuffix = "-75dd-4a0e-b688-66b7df342cc6"

	// Prefix of the onboarding service UUID
	wifiServiceUuidPrefix = "CA00"

	// Where to expose the application
	objectName = "land.lightning"
	objectPath = "/wifid/pairing/service"

	defaultLocalName = "wifid"

	wifiServiceUuid           = wifiServiceUuidPrefix + "0000" + uuidSuffix
	networkAvailabilityStatus = wifiServiceUuidPrefix + "CA01" + uuidSuffix
	ipAddress                 = wifiServiceUuidPrefix + "CA02" + uuidSuffix
	wifiScanList              = wifiServiceUuidPrefix + "CA03" + uuidSuffix
	wifiSsidString            = wifiServiceUuidPrefix + "CA04" + uuidSuffix
	wifiPskString             = wifiServiceUuidPrefix + "CA05" + uuidSuffix
	wifiConnectSignal         = wifiServiceUuidPrefix + "CA06" + uuidSuffix
	wifiConnectResult         = wifiServiceUuidPrefix + "CA07" + uuidSuffix
	wifiForceSignal           = wifiServiceUuidPrefix + "CA08" + uuidSuffix
)

type Controller struct {
	log       Logger
	adapterId string
	manager   Manager
	app       *service.Application

	mtx    sync.Mutex
	ssid   string
	psk    string
	legacy bool
	// outcome of the last connect signal
	outcome *connectOutcome
}

type connectOutcome struct {
	SSID    string        `json:"ssid"`
	Pending bool          `json:"pending"`
	Error   *result.Error `json:"error,omitempty"`
}

func NewController(config *Config) (*Controller, error) {
	controller := &Controller{}

	if config.Logger != nil {
		controller.log = config.Logger
	} else {
		controller.log = noopLogger{}
	}

	// Assign the device adapter id (ex. hci0)
	controller.adapterId = config.AdapterId

	controller.manager = config.Manager

	localName := config.LocalName
	if localName == "" {
		localName = defaultLocalName
	}

	var err error

	app := GattApp(objectName, objectPath, localName)
	service := app.Service(Primary, wifiServiceUuid, Advertised)

	service.DeviceNameCharacteristic(localName).
		Describe("Device Name").
		PresentAsText()
	service.ManufacturerNameCharacteristic("The Lightning Land").
		Describe("Manufacturer Name").
		PresentAsText()
	service.ModelNumberCharacteristic("wifid").
		Describe("Model Number").
		PresentAsText()
	characteristics := []struct {
		uuid        string
		description string
		read        ReadFunc
		write       WriteFunc
	}{
		{networkAvailabilityStatus, "Network Availability Status", controller.readNetworkAvailabilityStatus, nil},
		{ipAddress, "IP Address", controller.readIpAddress, nil},
		{wifiScanList, "Wi-Fi Scan List", controller.readWifiScanList, nil},
		{wifiSsidString, "Wi-Fi SSID", controller.readWifiSsidString, controller.writeWifiSsidString},
		{wifiPskString, "Wi-Fi PSK", nil, controller.writeWifiPskString},
		{wifiConnectSignal, "Wi-Fi Connect Signal", nil, controller.writeWifiConnectSignal},
		{wifiConnectResult, "Wi-Fi Connect Result", controller.readWifiConnectResult, nil},
		{wifiForceSignal, "Wi-Fi Force Usage Signal", nil, controller.writeWifiForceSignal},
	}

	for _, c := range characteristics {
		service.Characteristic(c.uuid, c.read, c.write).Describe(c.description)
	}

	controller.app, err = app.Run()
	if err != nil {
		return nil, errors.Errorf("Could not start app: %v", err)
	}

	return controller, nil
}

func (c *Controller) Start() error {
	mgmt := btmgmt.NewBtMgmt(c.adapterId)
	err := mgmt.Reset()
	if err != nil {
		return errors.Errorf("Reset %s: %v", c.adapterId, err)
	}

	// Sleep to give the device some time after the reset
	time.Sleep(time.Millisecond * 500)

	gattManager, err := api.GetGattManager(c.adapterId)
	if err != nil {
		return errors.Errorf("Get gatt manager failed: %v", err)
	}

	err = gattManager.RegisterApplication(c.app.Path(), map[string]interface{}{})
	if err != nil {
		return errors.Errorf("Register failed: %v", err)
	}

	err = c.app.StartAdvertising(c.adapterId)
	if err != nil {
		return errors.Errorf("Failed to advertise: %v", err)
	}

	return nil
}

func (c *Controller) Stop() error {
	err := c.app.StopAdvertising()
	if err != nil {
		return errors.Errorf("Could not stop advertising: %v", err)
	}

	gattManager, err := api.GetGattManager(c.adapterId)
	if err != nil {
		return errors.Errorf("Get gatt manager failed: %v", err)
	}

	err = gattManager.UnregisterApplication(c.app.Path())
	if err != nil {
		return errors.Errorf("Unregister failed: %v", err)
	}

	return nil
}

func (c *Controller) readNetworkAvailabilityStatus() ([]byte, error) {
	c.log.Infof("Reading network availability...")
	return c.networkAvailabilityStatus()
}

func (c *Controller) networkAvailabilityStatus() ([]byte, error) {
	connected, err := c.manager.ConnectionStatus()
	if err != nil {
		return nil, errors.Errorf("Could not get wifi status: %v", err)
	}

	if connected {
		return []byte{1}, nil
	}

	return []byte{0}, nil
}

func (c *Controller) readIpAddress() ([]byte, error) {
	c.log.Infof("Reading ip address...")

	ip, err := c.manager.CurrentIPAddress()
	if err != nil {
		return nil, errors.Errorf("Could not get ip address: %v", err)
	}

	return []byte(ip), nil
}

func (c *Controller) readWifiScanList() ([]byte, error) {
	c.log.Infof("Reading wifi scan list...")
	return c.wifiScanList()
}

type WifiScanListItem struct {
	Ssid         string `json:"ssid"`
	Level        int    `json:"level"`
	Capabilities string `json:"capabilities"`
}

func (c *Controller) wifiScanList() ([]byte, error) {
	records, err := c.manager.LoadScanResults()
	if err != nil {
		return nil, errors.Errorf("Could not get wifi scan list: %v", err)
	}

	wifiScanList := []*WifiScanListItem{} // Use literal instead of declaration so it serializes into empty json array
	for _, record := range records {
		wifiScanList = append(wifiScanList, &WifiScanListItem{
			Ssid:         record.SSID,
			Level:        record.Level,
			Capabilities: record.Capabilities,
		})
	}

	payload, err := json.Marshal(wifiScanList)
	if err != nil {
		return nil, errors.Errorf("Could not serialize wifi scan list: %v", err)
	}

	return payload, nil
}

func (c *Controller) readWifiSsidString() ([]byte, error) {
	c.log.Infof("Reading wifi ssid...")

	ssid, err := c.manager.CurrentSSID()
	if err != nil {
		return nil, errors.Errorf("Could not get wifi ssid: %v", err)
	}

	return []byte(ssid), nil
}

func (c *Controller) writeWifiSsidString(value []byte) error {
	ssid := string(value)

	c.log.Infof("Writing wifi ssid to %v", ssid)

	c.mtx.Lock()
	c.ssid = ssid
	c.mtx.Unlock()

	return nil
}

func (c *Controller) writeWifiPskString(value []byte) error {
	psk := string(value)
	stars := strings.Repeat("*", len(psk))

	c.log.Infof("Writing wifi psk to %v", stars)

	c.mtx.Lock()
	c.psk = psk
	c.mtx.Unlock()

	return nil
}

// writeWifiConnectSignal starts connecting on 1, or on 2 for a legacy WEP
// network. The outcome can be read from the connect result characteristic.
func (c *Controller) writeWifiConnectSignal(value []byte) error {
	c.log.Infof("Writing wifi connect signal to %v", value)

	if !bytes.Equal(value, []byte{1}) && !bytes.Equal(value, []byte{2}) {
		return nil
	}

	c.mtx.Lock()
	ssid := c.ssid
	psk := c.psk
	c.legacy = bytes.Equal(value, []byte{2})
	legacy := c.legacy

	if ssid == "" {
		c.mtx.Unlock()
		return errors.New("Could not connect to wifi: no ssid was written")
	}

	outcome := &connectOutcome{SSID: ssid, Pending: true}
	c.outcome = outcome
	c.mtx.Unlock()

	sink := c.manager.Connect(ssid, psk, legacy)

	go func() {
		<-sink.Done()

		_, _, err := sink.Result()

		c.mtx.Lock()
		outcome.Pending = false
		outcome.Error = result.AsError(err)
		c.mtx.Unlock()

		if err != nil {
			c.log.Errorf("Could not connect to wifi %v: %v", ssid, err)
		} else {
			c.log.Infof("Connected to wifi %v", ssid)
		}
	}()

	return nil
}

func (c *Controller) readWifiConnectResult() ([]byte, error) {
	c.log.Infof("Reading wifi connect result...")
	return c.wifiConnectResult()
}

func (c *Controller) wifiConnectResult() ([]byte, error) {
	c.mtx.Lock()
	defer c.mtx.Unlock()

	if c.outcome == nil {
		return []byte("null"), nil
	}

	payload, err := json.Marshal(c.outcome)
	if err != nil {
		return nil, errors.Errorf("Could not serialize connect result: %v", err)
	}

	return payload, nil
}

// writeWifiForceSignal forces traffic through Wi-Fi on 1 and stops on 0.
func (c *Controller) writeWifiForceSignal(value []byte) error {
	c.log.Infof("Writing wifi force signal to %v", value)

	if len(value) != 1 || value[0] > 1 {
		return errors.Errorf("Invalid wifi force signal %v", value)
	}

	sink := c.manager.ForceWifiUsage(value[0] == 1)

	go func() {
		<-sink.Done()

		if _, _, err := sink.Result(); err != nil {
			c.log.Errorf("Could not force wifi usage: %v", err)
		}
	}()

	return nil
}
