package manager

import (
	"context"
	"strings"

	"github.com/go-errors/errors"
	"github.com/the-lightning-land/wifid/network"
	"github.com/the-lightning-land/wifid/result"
	"github.com/the-lightning-land/wifid/scanner"
	"github.com/the-lightning-land/wifid/wifidb"
)

// facilityError turns a facade error into the error callers see.
func facilityError(err error) *result.Error {
	if errors.Is(err, network.ErrUnavailable) {
		return result.Errorf(result.CodeCouldNotGetConnectivityManager, "could not get connectivity manager")
	}

	return result.Errorf(result.CodeFailed, "%v", err)
}

// LoadScanResults returns the latest scan results. Records that could not be
// converted are logged and left out.
func (m *Manager) LoadScanResults() ([]*network.ScanRecord, error) {
	records, err := m.scanner.Load()
	return m.scanResults(records, err)
}

// RescanAndLoadResults triggers a fresh scan before loading the results.
func (m *Manager) RescanAndLoadResults(ctx context.Context) ([]*network.ScanRecord, error) {
	records, err := m.scanner.RescanAndLoad(ctx)
	return m.scanResults(records, err)
}

func (m *Manager) scanResults(records []*network.ScanRecord, err error) ([]*network.ScanRecord, error) {
	var recordErrs scanner.RecordErrors
	if errors.As(err, &recordErrs) {
		m.log.Warnf("Skipped scan records: %v", recordErrs)
		return records, nil
	}

	if err != nil {
		m.log.Errorf("Could not load scan results: %v", err)
		return nil, facilityError(err)
	}

	return records, nil
}

func (m *Manager) IsWifiEnabled() (bool, error) {
	enabled, err := m.network.WifiEnabled()
	if err != nil {
		return false, facilityError(err)
	}

	return enabled, nil
}

func (m *Manager) SetWifiEnabled(enabled bool) error {
	m.log.Infof("Setting wifi enabled to %v", enabled)

	err := m.network.SetWifiEnabled(enabled)
	if err != nil {
		return facilityError(err)
	}

	return nil
}

// Connect joins ssid and verifies the connection. The returned sink
// completes once the connection is confirmed or failed.
func (m *Manager) Connect(ssid string, passphrase string, isLegacyWep bool) *result.Sink {
	req := network.ConnectionRequest{
		SSID:               ssid,
		Passphrase:         passphrase,
		Security:           network.SecurityFor(passphrase, isLegacyWep),
		BindAsDefaultRoute: m.connector.Tier() == network.TierScoped,
	}

	m.log.Infof("Connecting to wifi %q with passphrase %v", ssid, strings.Repeat("*", len(passphrase)))

	sink := m.connector.Connect(m.ctx, req)

	go m.rememberNetwork(sink, req)

	return sink
}

func (m *Manager) rememberNetwork(sink *result.Sink, req network.ConnectionRequest) {
	select {
	case <-sink.Done():
	case <-m.ctx.Done():
		return
	}

	_, _, err := sink.Result()
	if err != nil {
		return
	}

	err = m.db.SetLastNetwork(&wifidb.LastNetwork{
		SSID:     req.SSID,
		Security: req.Security.String(),
		Legacy:   m.connector.Tier() == network.TierLegacy,
	})
	if err != nil {
		m.log.Errorf("Could not save last network: %v", err)
	}
}

func (m *Manager) Disconnect() error {
	m.log.Infof("Disconnecting from wifi")

	err := m.connector.Disconnect()
	if err != nil {
		return facilityError(err)
	}

	return nil
}

// ForceWifiUsage routes the daemon's traffic through Wi-Fi, or stops doing
// so. The choice is remembered across restarts.
func (m *Manager) ForceWifiUsage(enable bool) *result.Sink {
	m.log.Infof("Forcing wifi usage %v", enable)

	err := m.db.SetForceWifi(enable)
	if err != nil {
		m.log.Errorf("Could not save forced wifi usage: %v", err)
	}

	return m.connector.ForceRoute(m.ctx, enable)
}

func (m *Manager) connectionInfo() (*network.ConnectionInfo, error) {
	info, err := m.network.CurrentConnectionInfo()
	if err != nil {
		return nil, facilityError(err)
	}

	return info, nil
}

func (m *Manager) ConnectionStatus() (bool, error) {
	info, err := m.connectionInfo()
	if err != nil {
		return false, err
	}

	return info.Connected, nil
}

func (m *Manager) CurrentSSID() (string, error) {
	info, err := m.connectionInfo()
	if err != nil {
		return "", err
	}

	return network.TrimQuotes(info.SSID), nil
}

func (m *Manager) CurrentBSSID() (string, error) {
	info, err := m.connectionInfo()
	if err != nil {
		return "", err
	}

	return strings.ToUpper(info.BSSID), nil
}

func (m *Manager) SignalStrength() (int, error) {
	info, err := m.connectionInfo()
	if err != nil {
		return 0, err
	}

	return info.RSSI, nil
}

func (m *Manager) Frequency() (int, error) {
	info, err := m.connectionInfo()
	if err != nil {
		return 0, err
	}

	return info.Frequency, nil
}

// CurrentIPAddress returns 0.0.0.0 while no address is assigned.
func (m *Manager) CurrentIPAddress() (string, error) {
	info, err := m.connectionInfo()
	if err != nil {
		return "", err
	}

	return network.FormatIPv4(info.IP), nil
}

// RemoveNetwork removes the saved profile of ssid. Removing an ssid that is
// not saved succeeds.
func (m *Manager) RemoveNetwork(ssid string) (bool, error) {
	m.log.Infof("Removing network %q", ssid)

	configured, err := m.network.ConfiguredNetworks()
	if err != nil {
		return false, facilityError(err)
	}

	found := false
	for _, c := range configured {
		if network.TrimQuotes(c.SSID) == ssid {
			found = true
			break
		}
	}

	if !found {
		return true, nil
	}

	removed, err := m.network.RemoveNetwork(ssid)
	if err != nil {
		return false, facilityError(err)
	}

	last, err := m.db.GetLastNetwork()
	if err != nil {
		m.log.Warnf("Could not retrieve last network: %v", err)
	} else if removed && last != nil && last.SSID == ssid {
		err := m.db.SetLastNetwork(nil)
		if err != nil {
			m.log.Errorf("Could not forget last network: %v", err)
		}
	}

	return removed, nil
}

func (m *Manager) IsLocationServiceEnabled() (bool, error) {
	enabled, err := m.location.ServiceEnabled()
	if err != nil {
		return false, result.Errorf(result.CodeIsLocationServiceOnFailed, "%v", err)
	}

	return enabled, nil
}

func (m *Manager) ConfiguredNetworks() ([]*network.ConfiguredNetwork, error) {
	configured, err := m.network.ConfiguredNetworks()
	if err != nil {
		return nil, facilityError(err)
	}

	return configured, nil
}
