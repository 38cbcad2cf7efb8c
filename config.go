package main

import (
	"os"
	"path/filepath"
	"time"

	"github.com/jessevdk/go-flags"
)

const (
	defaultConfigFilename = "wifid.conf"
	defaultDataDir        = "/var/lib/wifid"
	defaultNet            = "wpa"
	defaultInterface      = "wlan0"
	defaultTier           = "auto"
	defaultLocation       = "geoclue"
	defaultApiListen      = ":9000"
	defaultAdapter        = "hci0"
	defaultPairingName    = "wifid"
)

type locationConfig struct {
	Permission bool `long:"permission" description:"Whether the daemon holds the location permission"`
	Enabled    bool `long:"enabled" description:"Whether location services are on (static checker only)"`
}

type apiConfig struct {
	Listen string `long:"listen" description:"Address the HTTP api listens on, empty disables it"`
}

type pairingConfig struct {
	Adapter string `long:"adapter" description:"Bluetooth adapter used for pairing, empty disables it"`
	Name    string `long:"name" description:"Local name advertised while pairing"`
}

type profilingConfig struct {
	Listen string `long:"listen" description:"Address the pprof server listens on"`
}

type config struct {
	ConfigFile     string           `long:"configfile" description:"Path to configuration file"`
	ShowVersion    bool             `short:"v" long:"version" description:"Display version information and exit"`
	Debug          bool             `long:"debug" description:"Start in debug mode"`
	DataDir        string           `long:"datadir" description:"The directory to store wifid's data within"`
	Net            string           `long:"net" description:"The networking backend" choice:"wpa" choice:"mock"`
	Interface      string           `long:"interface" description:"The wireless interface wpa_supplicant manages"`
	Tier           string           `long:"tier" description:"How networks are joined" choice:"auto" choice:"scoped" choice:"legacy"`
	ConnectTimeout time.Duration    `long:"connect-timeout" description:"How long a connection attempt may take"`
	ScanTimeout    time.Duration    `long:"scan-timeout" description:"How long a scan may take"`
	Location       string           `long:"location" description:"How location services are checked" choice:"geoclue" choice:"static"`
	LocationConfig *locationConfig  `group:"Location" namespace:"location"`
	Api            *apiConfig       `group:"API" namespace:"api"`
	Pairing        *pairingConfig   `group:"Pairing" namespace:"pairing"`
	Profiling      *profilingConfig `group:"Profiling" namespace:"profiling"`
}

// loadConfig parses the command line, then the config file, and the command
// line again so flags take precedence over the file.
func loadConfig() (*config, error) {
	defaultCfg := config{
		DataDir:        defaultDataDir,
		Net:            defaultNet,
		Interface:      defaultInterface,
		Tier:           defaultTier,
		ConnectTimeout: 10 * time.Second,
		ScanTimeout:    15 * time.Second,
		Location:       defaultLocation,
		LocationConfig: &locationConfig{
			Permission: true,
		},
		Api: &apiConfig{
			Listen: defaultApiListen,
		},
		Pairing: &pairingConfig{
			Adapter: defaultAdapter,
			Name:    defaultPairingName,
		},
		Profiling: &profilingConfig{},
	}

	preCfg := defaultCfg
	if _, err := flags.Parse(&preCfg); err != nil {
		return nil, err
	}

	if preCfg.ShowVersion {
		return &preCfg, nil
	}

	configFile := preCfg.ConfigFile
	if configFile == "" {
		configFile = filepath.Join(preCfg.DataDir, defaultConfigFilename)
	}

	cfg := defaultCfg
	parser := flags.NewParser(&cfg, flags.Default)

	err := flags.NewIniParser(parser).ParseFile(configFile)
	if err != nil {
		if _, ok := err.(*os.PathError); !ok || preCfg.ConfigFile != "" {
			return nil, err
		}
	}

	if _, err := parser.Parse(); err != nil {
		return nil, err
	}

	return &cfg, nil
}
