package manager

import (
	"context"
	"net"
	"sync"

	"github.com/go-errors/errors"
	"github.com/the-lightning-land/wifid/connectivity"
	"github.com/the-lightning-land/wifid/connector"
	"github.com/the-lightning-land/wifid/location"
	"github.com/the-lightning-land/wifid/network"
	"github.com/the-lightning-land/wifid/scanner"
	"github.com/the-lightning-land/wifid/wifidb"
)

// Manager is the single entry point every transport calls into.
type Manager struct {
	network   network.Network
	location  location.Checker
	db        *wifidb.DB
	connector *connector.Connector
	scanner   *scanner.Scanner
	reporter  *connectivity.NetworkReporter
	api       Api
	apiListen string
	log       Logger

	ctx      context.Context
	cancel   context.CancelFunc
	done     chan struct{}
	doneOnce sync.Once

	listenerMtx  sync.Mutex
	apiListeners []net.Listener
}

func New(config *Config) *Manager {
	m := &Manager{
		network:   config.Network,
		location:  config.Location,
		db:        config.DB,
		api:       config.Api,
		apiListen: config.ApiListen,
		done:      make(chan struct{}),
	}

	if config.Logger != nil {
		m.log = config.Logger
	} else {
		m.log = noopLogger{}
	}

	m.ctx, m.cancel = context.WithCancel(context.Background())

	m.connector = connector.New(&connector.Config{
		Network:  config.Network,
		Location: config.Location,
		Tier:     config.Tier,
		Timeout:  config.ConnectTimeout,
		Logger:   m.log,
	})

	m.scanner = scanner.New(&scanner.Config{
		Network: config.Network,
		Timeout: config.ScanTimeout,
		Logger:  m.log,
	})

	m.reporter = connectivity.NewReporter(&connectivity.Config{
		Network: config.Network,
		Logger:  m.log,
	})

	if config.Api != nil {
		config.Api.SetManager(m)
	}

	return m
}

// Run blocks until Shutdown is called.
func (m *Manager) Run() error {
	m.log.Infof("Starting manager on %v tier...", m.connector.Tier())

	err := m.reporter.Start()
	if err != nil {
		return errors.Errorf("could not start connectivity reporter: %v", err)
	}

	defer func() {
		err := m.reporter.Stop()
		if err != nil {
			m.log.Errorf("Could not stop connectivity reporter: %v", err)
		}
	}()

	lastNetwork, err := m.db.GetLastNetwork()
	if err != nil {
		m.log.Warnf("Could not retrieve last network: %v", err)
	} else if lastNetwork != nil {
		m.log.Infof("Last joined network was %q (%v)", lastNetwork.SSID, lastNetwork.Security)
	} else {
		m.log.Infof("No network was joined yet.")
	}

	forceWifi, err := m.db.GetForceWifi()
	if err != nil {
		m.log.Warnf("Could not retrieve forced wifi usage: %v", err)
	}

	if forceWifi {
		go m.restoreForcedWifi()
	}

	if m.api != nil && m.apiListen != "" {
		lis, err := net.Listen("tcp", m.apiListen)
		if err != nil {
			return errors.Errorf("api unable to listen on %v: %v", m.apiListen, err)
		}

		m.listenerMtx.Lock()
		m.apiListeners = append(m.apiListeners, lis)
		m.listenerMtx.Unlock()

		m.log.Infof("Serving api on %v", lis.Addr())

		go func() {
			err := m.api.Serve(lis)
			if err != nil {
				m.log.Errorf("Could not serve api: %v", err)
			}
		}()
	}

	<-m.done

	m.log.Infof("Stopped manager.")

	return nil
}

func (m *Manager) restoreForcedWifi() {
	m.log.Infof("Restoring forced wifi usage")

	_, err := m.connector.ForceRoute(m.ctx, true).Wait(m.ctx)
	if err != nil {
		m.log.Warnf("Could not restore forced wifi usage: %v", err)
	}
}

// Shutdown rejects pending operations and lets Run return.
func (m *Manager) Shutdown() {
	m.doneOnce.Do(func() {
		m.cancel()

		m.listenerMtx.Lock()
		for _, lis := range m.apiListeners {
			err := lis.Close()
			if err != nil {
				m.log.Errorf("Could not close listener: %v", err)
			}
		}
		m.apiListeners = nil
		m.listenerMtx.Unlock()

		close(m.done)
	})
}

func (m *Manager) Tier() network.Tier {
	return m.connector.Tier()
}

func (m *Manager) Connectivity() connectivity.Reporter {
	return m.reporter
}

// SubscribeObservations streams network state changes until the client is
// cancelled.
func (m *Manager) SubscribeObservations() (*network.ObservationClient, error) {
	return m.network.SubscribeObservations()
}

func (m *Manager) GetName() (string, error) {
	m.log.Infof("Getting name")

	name, err := m.db.GetName()
	if err != nil {
		return "", errors.Errorf("Failed getting name: %v", err)
	}

	return name, nil
}

func (m *Manager) SetName(name string) error {
	m.log.Infof("Setting name")

	err := m.db.SetName(name)
	if err != nil {
		return errors.Errorf("Failed setting name: %v", err)
	}

	return nil
}
