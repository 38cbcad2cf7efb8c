package pairing

import (
	"github.com/the-lightning-land/wifid/network"
	"github.com/the-lightning-land/wifid/result"
)

// Manager is the part of the wifi manager the pairing service exposes.
type Manager interface {
	ConnectionStatus() (bool, error)
	CurrentIPAddress() (string, error)
	CurrentSSID() (string, error)
	LoadScanResults() ([]*network.ScanRecord, error)
	Connect(ssid string, passphrase string, isLegacyWep bool) *result.Sink
	ForceWifiUsage(enable bool) *result.Sink
}

type Config struct {
	Logger    Logger
	AdapterId string
	LocalName string
	Manager   Manager
}
