package api

import (
	"net"
	"net/http"

	"github.com/go-errors/errors"
	"github.com/gorilla/mux"
	"github.com/the-lightning-land/wifid/manager"
)

// check Apis compliance to the interface the manager serves during compile time
var _ manager.Api = (*Api)(nil)

type Config struct {
	Version string
	Log     Logger
}

type Api struct {
	manager *manager.Manager
	router  *mux.Router
	version string
	log     Logger
}

func New(config *Config) *Api {
	api := &Api{
		router:  mux.NewRouter(),
		version: config.Version,
	}

	if config.Log != nil {
		api.log = config.Log
	} else {
		api.log = noopLogger{}
	}

	api.router.Handle("/api/v1/daemon", api.handleGetDaemon()).Methods(http.MethodGet)
	api.router.Handle("/api/v1/daemon", api.handlePutDaemon()).Methods(http.MethodPut)

	api.router.Handle("/api/v1/networks", api.handleGetNetworks()).Methods(http.MethodGet)
	api.router.Handle("/api/v1/networks/scan", api.handlePostScan()).Methods(http.MethodPost)
	api.router.Handle("/api/v1/networks/saved", api.handleGetSavedNetworks()).Methods(http.MethodGet)
	api.router.Handle("/api/v1/networks/{ssid}", api.handleDeleteNetwork()).Methods(http.MethodDelete)

	api.router.Handle("/api/v1/wifi", api.handleGetWifi()).Methods(http.MethodGet)
	api.router.Handle("/api/v1/wifi", api.handlePutWifi()).Methods(http.MethodPut)

	api.router.Handle("/api/v1/connection", api.handlePostConnection()).Methods(http.MethodPost)
	api.router.Handle("/api/v1/connection", api.handleDeleteConnection()).Methods(http.MethodDelete)
	api.router.Handle("/api/v1/route", api.handlePutRoute()).Methods(http.MethodPut)

	api.router.Handle("/api/v1/status", api.handleGetStatus()).Methods(http.MethodGet)
	api.router.Handle("/api/v1/location", api.handleGetLocation()).Methods(http.MethodGet)
	api.router.Handle("/api/v1/events", api.handleGetEvents()).Methods(http.MethodGet)

	return api
}

func (a *Api) SetManager(manager *manager.Manager) {
	a.manager = manager
}

func (a *Api) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	a.router.ServeHTTP(w, r)
}

func (a *Api) Serve(l net.Listener) error {
	err := http.Serve(l, a.router)
	if err != nil && !errors.Is(err, net.ErrClosed) {
		return errors.Errorf("Unable to serve api: %v", err)
	}

	return nil
}
