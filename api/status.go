package api

import (
	"net/http"

	"github.com/the-lightning-land/wifid/connectivity"
)

type statusResponse struct {
	State     string `json:"state"`
	Connected bool   `json:"connected"`
	SSID      string `json:"ssid"`
	BSSID     string `json:"bssid"`
	RSSI      int    `json:"rssi"`
	Frequency int    `json:"frequency"`
	IP        string `json:"ip"`
}

type locationResponse struct {
	Enabled bool `json:"enabled"`
}

// handleGetStatus optionally blocks until the connectivity state named by
// the wait query parameter is reached.
func (a *Api) handleGetStatus() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		reporter := a.manager.Connectivity()

		if wait := r.URL.Query().Get("wait"); wait != "" {
			wanted, err := connectivity.ParseState(wait)
			if err != nil {
				a.jsonError(w, err.Error(), http.StatusBadRequest)
				return
			}

			if current := reporter.CurrentState(); current != wanted {
				if !reporter.WaitForStateChange(r.Context(), current) {
					return
				}
			}
		}

		res := &statusResponse{
			State: reporter.CurrentState().String(),
		}

		var err error

		if res.Connected, err = a.manager.ConnectionStatus(); err != nil {
			a.jsonResultError(w, err)
			return
		}

		if res.SSID, err = a.manager.CurrentSSID(); err != nil {
			a.jsonResultError(w, err)
			return
		}

		if res.BSSID, err = a.manager.CurrentBSSID(); err != nil {
			a.jsonResultError(w, err)
			return
		}

		if res.RSSI, err = a.manager.SignalStrength(); err != nil {
			a.jsonResultError(w, err)
			return
		}

		if res.Frequency, err = a.manager.Frequency(); err != nil {
			a.jsonResultError(w, err)
			return
		}

		if res.IP, err = a.manager.CurrentIPAddress(); err != nil {
			a.jsonResultError(w, err)
			return
		}

		a.jsonResponse(w, res, http.StatusOK)
	}
}

func (a *Api) handleGetLocation() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		enabled, err := a.manager.IsLocationServiceEnabled()
		if err != nil {
			a.jsonResultError(w, err)
			return
		}

		a.jsonResponse(w, &locationResponse{Enabled: enabled}, http.StatusOK)
	}
}
