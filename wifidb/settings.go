package wifidb

var (
	nameKey        = []byte("name")
	forceWifiKey   = []byte("forceWifi")
	lastNetworkKey = []byte("lastNetwork")
)

// LastNetwork is the network the daemon last joined. The passphrase is never
// stored.
type LastNetwork struct {
	SSID     string `json:"ssid"`
	Security string `json:"security"`
	Legacy   bool   `json:"legacy"`
}

// GetName returns an empty name if none was set.
func (db *DB) GetName() (string, error) {
	var name string

	_, err := db.getJSON(settingsBucket, nameKey, &name)
	if err != nil {
		return "", err
	}

	return name, nil
}

func (db *DB) SetName(name string) error {
	return db.setJSON(settingsBucket, nameKey, name)
}

func (db *DB) GetForceWifi() (bool, error) {
	var force bool

	_, err := db.getJSON(settingsBucket, forceWifiKey, &force)
	if err != nil {
		return false, err
	}

	return force, nil
}

func (db *DB) SetForceWifi(force bool) error {
	return db.setJSON(settingsBucket, forceWifiKey, force)
}

// GetLastNetwork returns nil if no network was joined yet.
func (db *DB) GetLastNetwork() (*LastNetwork, error) {
	network := &LastNetwork{}

	found, err := db.getJSON(settingsBucket, lastNetworkKey, network)
	if err != nil {
		return nil, err
	}

	if !found {
		return nil, nil
	}

	return network, nil
}

// SetLastNetwork with nil forgets the last network.
func (db *DB) SetLastNetwork(network *LastNetwork) error {
	return db.setJSON(settingsBucket, lastNetworkKey, network)
}
