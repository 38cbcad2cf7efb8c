package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/jessevdk/go-flags"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"github.com/the-lightning-land/wifid/api"
	"github.com/the-lightning-land/wifid/location"
	"github.com/the-lightning-land/wifid/manager"
	"github.com/the-lightning-land/wifid/network"
	"github.com/the-lightning-land/wifid/pairing"
	"github.com/the-lightning-land/wifid/wifidb"
	"golang.org/x/sync/errgroup"
	// Blank import to set up profiling HTTP handlers.
	_ "net/http/pprof"
)

var (
	// commit stores the current commit hash of this build. This should be set using -ldflags during compilation.
	Commit string
	// version stores the version string of this build. This should be set using -ldflags during compilation.
	Version string
	// date stores the date of this build. This should be set using -ldflags during compilation.
	Date string
)

// wifidMain is the true entry point for wifid. This is required since defers
// created in the top-level scope of a main method aren't executed if os.Exit() is called.
func wifidMain() error {
	log.SetOutput(os.Stdout)
	log.SetLevel(log.InfoLevel)

	// Load CLI configuration and defaults
	cfg, err := loadConfig()
	if e, ok := err.(*flags.Error); ok && e.Type == flags.ErrHelp {
		return nil
	} else if err != nil {
		return errors.Wrap(err, "failed parsing arguments")
	}

	// Set logger into debug mode if called with --debug
	if cfg.Debug {
		log.SetLevel(log.DebugLevel)
		log.Info("Setting debug mode.")
	}

	log.Debug("Loaded config.")

	// Print version of the daemon
	log.Infof("Version %s (commit %s)", Version, Commit)
	log.Infof("Built on %s", Date)

	// Stop here if only version was requested
	if cfg.ShowVersion {
		return nil
	}

	if cfg.Profiling.Listen != "" {
		go func() {
			log.Infof("Starting profiling server on %v", cfg.Profiling.Listen)
			// Redirect the root path
			http.Handle("/", http.RedirectHandler("/debug/pprof", http.StatusSeeOther))
			// All other handlers are registered on DefaultServeMux through the import of pprof
			err := http.ListenAndServe(cfg.Profiling.Listen, nil)
			if err != nil {
				log.Errorf("Could not run profiler: %v", err)
			}
		}()
	}

	// wifi.db persistently stores the daemon's settings and the last joined network
	wifiDB, err := wifidb.Open(cfg.DataDir)
	if err != nil {
		return errors.Wrap(err, "could not open wifi.db")
	}

	log.Infof("Opened %v", wifiDB.Path())

	defer func() {
		err := wifiDB.Close()
		if err != nil {
			log.Errorf("Could not close wifi.db: %v", err)
		} else {
			log.Info("Closed wifi.db.")
		}
	}()

	// The networking facility every connection attempt goes through
	var n network.Network

	switch cfg.Net {
	case "wpa":
		n = network.NewWpaNetwork(&network.Config{
			Interface: cfg.Interface,
			Logger:    log.New().WithField("system", "network"),
		})

		log.Infof("Created wpa_supplicant network on %v.", cfg.Interface)
	case "mock":
		n = network.NewMockNetwork(&network.MockConfig{
			Logger:      log.New().WithField("system", "network"),
			AutoConnect: true,
		})

		log.Info("Created a mock network.")
	default:
		return errors.Errorf("unknown networking type %v", cfg.Net)
	}

	err = n.Start()
	if err != nil {
		return errors.Wrap(err, "could not start network")
	}

	defer func() {
		err := n.Stop()
		if err != nil {
			log.Errorf("Could not properly shut down network: %v", err)
		} else {
			log.Info("Stopped network.")
		}
	}()

	tier := n.Tier()
	if cfg.Tier != "auto" {
		tier, err = network.ParseTier(cfg.Tier)
		if err != nil {
			return errors.Wrap(err, "could not parse tier")
		}
	}

	log.Infof("Joining networks on the %v tier.", tier)

	// Location services gate every connection attempt
	var l location.Checker

	switch cfg.Location {
	case "geoclue":
		geoclue := location.NewGeoclueChecker(&location.GeoclueConfig{
			Permission: cfg.LocationConfig.Permission,
			Logger:     log.New().WithField("system", "location"),
		})

		err := geoclue.Start()
		if err != nil {
			return errors.Wrap(err, "could not start location checker")
		}

		defer func() {
			err := geoclue.Stop()
			if err != nil {
				log.Errorf("Could not properly stop location checker: %v", err)
			}
		}()

		l = geoclue

		log.Info("Created GeoClue2 location checker.")
	case "static":
		l = location.NewStaticChecker(cfg.LocationConfig.Permission, cfg.LocationConfig.Enabled)

		log.Infof("Created static location checker (permission %v, enabled %v).",
			cfg.LocationConfig.Permission, cfg.LocationConfig.Enabled)
	default:
		return errors.Errorf("unknown location type %v", cfg.Location)
	}

	api := api.New(&api.Config{
		Version: Version,
		Log:     log.New().WithField("system", "api"),
	})

	log.Infof("Created API")

	// central controller for everything the daemon does
	m := manager.New(&manager.Config{
		Network:        n,
		Location:       l,
		DB:             wifiDB,
		Tier:           tier,
		ConnectTimeout: cfg.ConnectTimeout,
		ScanTimeout:    cfg.ScanTimeout,
		Api:            api,
		ApiListen:      cfg.Api.Listen,
		Logger:         log.New().WithField("system", "manager"),
	})

	log.Infof("Created manager.")

	// create subsystem responsible for pairing
	if cfg.Pairing.Adapter != "" {
		pairingController, err := pairing.NewController(&pairing.Config{
			Logger:    log.New().WithField("system", "pairing"),
			AdapterId: cfg.Pairing.Adapter,
			LocalName: cfg.Pairing.Name,
			Manager:   m,
		})
		if err != nil {
			return errors.Wrap(err, "could not create pairing controller")
		}

		log.Infof("Created pairing controller.")

		err = pairingController.Start()
		if err != nil {
			return errors.Wrap(err, "could not start pairing controller")
		}

		log.Infof("Started pairing controller on %v.", cfg.Pairing.Adapter)

		defer func() {
			err := pairingController.Stop()
			if err != nil {
				log.Errorf("Could not properly shut down pairing controller: %v", err)
			}

			log.Infof("Stopped pairing controller.")
		}()
	}

	g, ctx := errgroup.WithContext(context.Background())

	// blocks until the manager is shut down
	g.Go(func() error {
		return m.Run()
	})

	// Handle interrupt signals correctly
	g.Go(func() error {
		signals := make(chan os.Signal, 1)
		signal.Notify(signals, os.Interrupt, syscall.SIGTERM)
		defer signal.Stop(signals)

		select {
		case sig := <-signals:
			log.Info(sig)
			log.Info("Received an interrupt, stopping manager...")
		case <-ctx.Done():
		}

		m.Shutdown()

		return nil
	})

	err = g.Wait()
	if err != nil {
		return errors.Wrap(err, "failed running manager")
	}

	// finish with no error
	return nil
}

func main() {
	// Call the "real" main in a nested manner so the defers will properly
	// be executed in the case of a graceful shutdown.
	if err := wifidMain(); err != nil {
		if e, ok := err.(*flags.Error); ok && e.Type == flags.ErrHelp {
		} else {
			log.WithError(err).Println("Failed running wifid.")
		}
		os.Exit(1)
	}
}
