package manager

import (
	"context"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"
	"github.com/the-lightning-land/wifid/location"
	"github.com/the-lightning-land/wifid/network"
	"github.com/the-lightning-land/wifid/result"
	"github.com/the-lightning-land/wifid/wifidb"
)

type ManagerSuite struct {
	suite.Suite
	network *network.MockNetwork
	db      *wifidb.DB
	manager *Manager
	ran     chan error
}

func (s *ManagerSuite) SetupTest() {
	s.network = network.NewMockNetwork(&network.MockConfig{})
	s.Require().NoError(s.network.Start())

	var err error
	s.db, err = wifidb.Open(s.T().TempDir())
	s.Require().NoError(err)

	s.manager = New(&Config{
		Network:        s.network,
		Location:       location.NewStaticChecker(true, true),
		DB:             s.db,
		Tier:           network.TierScoped,
		ConnectTimeout: time.Second,
		ScanTimeout:    time.Second,
	})

	s.ran = make(chan error, 1)
	go func() {
		s.ran <- s.manager.Run()
	}()

	// the connectivity reporter is subscribed once the manager runs
	s.Require().Eventually(func() bool {
		return s.network.Observers() > 0
	}, time.Second, time.Millisecond)
}

func (s *ManagerSuite) TearDownTest() {
	s.manager.Shutdown()
	s.Require().NoError(<-s.ran)
	s.Require().NoError(s.db.Close())
}

func (s *ManagerSuite) wait(sink *result.Sink) (interface{}, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	return sink.Wait(ctx)
}

func (s *ManagerSuite) TestConnectRemembersNetwork() {
	sink := s.manager.Connect("HomeNet", "secret123", false)

	criteria := s.network.Criteria()
	s.Require().Len(criteria, 1)
	s.Equal(network.SecurityWPA2, criteria[0].Security)

	s.network.EmitAvailable(&network.Handle{ID: "0", SSID: "HomeNet", Scoped: true})
	s.network.Observe(&network.Observation{SSID: `"HomeNet"`, Connected: true})

	_, err := s.wait(sink)
	s.Require().NoError(err)

	s.Eventually(func() bool {
		last, err := s.db.GetLastNetwork()
		return err == nil && last != nil && last.SSID == "HomeNet"
	}, time.Second, 5*time.Millisecond)

	last, err := s.db.GetLastNetwork()
	s.Require().NoError(err)
	s.Equal(&wifidb.LastNetwork{SSID: "HomeNet", Security: "WPA2"}, last)
}

func (s *ManagerSuite) TestConnectSecurity() {
	s.manager.Connect("Cafe", "", false)
	s.manager.Disconnect()
	s.manager.Connect("Old", "abcde", true)

	criteria := s.network.Criteria()
	s.Require().Len(criteria, 2)
	s.Equal(network.SecurityOpen, criteria[0].Security)
	s.Equal(network.SecurityWEP, criteria[1].Security)
}

func (s *ManagerSuite) TestConnectFailureIsNotRemembered() {
	sink := s.manager.Connect("HomeNet", "secret123", false)

	s.network.EmitUnavailable()

	_, err := s.wait(sink)
	s.Equal(result.CodeFailed, result.CodeOf(err))

	time.Sleep(10 * time.Millisecond)

	last, err := s.db.GetLastNetwork()
	s.Require().NoError(err)
	s.Nil(last)
}

func (s *ManagerSuite) TestShutdownRejectsPendingConnect() {
	sink := s.manager.Connect("HomeNet", "secret123", false)

	s.manager.Shutdown()

	_, err := s.wait(sink)
	s.Equal(result.CodeFailed, result.CodeOf(err))
}

func (s *ManagerSuite) TestForceWifiUsageIsRemembered() {
	sink := s.manager.ForceWifiUsage(true)

	s.network.EmitAvailable(&network.Handle{ID: "2", SSID: "Cafe"})

	_, err := s.wait(sink)
	s.Require().NoError(err)
	s.NotNil(s.network.Bound())

	force, err := s.db.GetForceWifi()
	s.Require().NoError(err)
	s.True(force)

	_, err = s.wait(s.manager.ForceWifiUsage(false))
	s.Require().NoError(err)
	s.Nil(s.network.Bound())

	force, err = s.db.GetForceWifi()
	s.Require().NoError(err)
	s.False(force)
}

func (s *ManagerSuite) TestConnectionInfo() {
	s.network.SetConnectionInfo(&network.ConnectionInfo{
		Connected: true,
		SSID:      `"HomeNet"`,
		BSSID:     "aa:bb:cc:dd:ee:ff",
		RSSI:      -61,
		Frequency: 5180,
		IP:        net.IPv4(192, 168, 1, 23),
	})

	connected, err := s.manager.ConnectionStatus()
	s.Require().NoError(err)
	s.True(connected)

	ssid, err := s.manager.CurrentSSID()
	s.Require().NoError(err)
	s.Equal("HomeNet", ssid)

	bssid, err := s.manager.CurrentBSSID()
	s.Require().NoError(err)
	s.Equal("AA:BB:CC:DD:EE:FF", bssid)

	rssi, err := s.manager.SignalStrength()
	s.Require().NoError(err)
	s.Equal(-61, rssi)

	freq, err := s.manager.Frequency()
	s.Require().NoError(err)
	s.Equal(5180, freq)

	ip, err := s.manager.CurrentIPAddress()
	s.Require().NoError(err)
	s.Equal("192.168.1.23", ip)
}

func (s *ManagerSuite) TestCurrentIPAddressWithoutAddress() {
	ip, err := s.manager.CurrentIPAddress()
	s.Require().NoError(err)
	s.Equal("0.0.0.0", ip)
}

func (s *ManagerSuite) TestConnectionInfoUnavailable() {
	s.Require().NoError(s.network.Stop())

	_, err := s.manager.ConnectionStatus()
	s.Equal(result.CodeCouldNotGetConnectivityManager, result.CodeOf(err))

	_, err = s.manager.LoadScanResults()
	s.Equal(result.CodeCouldNotGetConnectivityManager, result.CodeOf(err))

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	_, err = s.manager.RescanAndLoadResults(ctx)
	s.Equal(result.CodeCouldNotGetConnectivityManager, result.CodeOf(err))
}

func (s *ManagerSuite) TestRemoveNetwork() {
	s.network.SetConfiguredNetworks([]*network.ConfiguredNetwork{
		{ID: "0", SSID: "HomeNet"},
		{ID: "1", SSID: "Office"},
	})
	s.Require().NoError(s.db.SetLastNetwork(&wifidb.LastNetwork{SSID: "Office"}))

	removed, err := s.manager.RemoveNetwork("Nowhere")
	s.Require().NoError(err)
	s.True(removed)

	removed, err = s.manager.RemoveNetwork("Office")
	s.Require().NoError(err)
	s.True(removed)

	configured, err := s.manager.ConfiguredNetworks()
	s.Require().NoError(err)
	s.Equal([]*network.ConfiguredNetwork{{ID: "0", SSID: "HomeNet"}}, configured)

	last, err := s.db.GetLastNetwork()
	s.Require().NoError(err)
	s.Nil(last)
}

func (s *ManagerSuite) TestScanResultsSkipBrokenRecords() {
	s.network.SetScanResults([]*network.RawRecord{
		{ID: "0", Props: map[string]interface{}{
			"SSID":  []byte("HomeNet"),
			"BSSID": []byte{1, 2, 3, 4, 5, 6},
		}},
		{ID: "1", Props: map[string]interface{}{}},
		{ID: "2", Props: map[string]interface{}{
			"SSID":  []byte(""),
			"BSSID": []byte{1, 2, 3, 4, 5, 7},
		}},
	})

	records, err := s.manager.LoadScanResults()
	s.Require().NoError(err)
	s.Require().Len(records, 1)
	s.Equal("HomeNet", records[0].SSID)
}

func (s *ManagerSuite) TestWifiEnabled() {
	s.Require().NoError(s.manager.SetWifiEnabled(false))

	enabled, err := s.manager.IsWifiEnabled()
	s.Require().NoError(err)
	s.False(enabled)
}

func (s *ManagerSuite) TestLocationServiceEnabled() {
	enabled, err := s.manager.IsLocationServiceEnabled()
	s.Require().NoError(err)
	s.True(enabled)
}

func (s *ManagerSuite) TestName() {
	s.Require().NoError(s.manager.SetName("porch"))

	name, err := s.manager.GetName()
	s.Require().NoError(err)
	s.Equal("porch", name)
}

func TestManagerSuite(t *testing.T) {
	suite.Run(t, new(ManagerSuite))
}
