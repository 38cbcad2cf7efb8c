package manager

import (
	"time"

	"github.com/the-lightning-land/wifid/location"
	"github.com/the-lightning-land/wifid/network"
	"github.com/the-lightning-land/wifid/wifidb"
)

type Config struct {
	Network        network.Network
	Location       location.Checker
	DB             *wifidb.DB
	Tier           network.Tier
	ConnectTimeout time.Duration
	ScanTimeout    time.Duration
	// Api is served on ApiListen while the manager runs. Either may be left
	// empty to run without api.
	Api       Api
	ApiListen string
	Logger    Logger
}
