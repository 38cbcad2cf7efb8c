package api

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"
)

type wifiResponse struct {
	Enabled bool `json:"enabled"`
}

type putWifiRequest struct {
	Enabled *bool `json:"enabled"`
}

type deleteNetworkResponse struct {
	Removed bool `json:"removed"`
}

type savedNetworkResponse struct {
	SSID string `json:"ssid"`
}

func (a *Api) handleGetNetworks() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		records, err := a.manager.LoadScanResults()
		if err != nil {
			a.jsonResultError(w, err)
			return
		}

		a.jsonResponse(w, records, http.StatusOK)
	}
}

func (a *Api) handlePostScan() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		records, err := a.manager.RescanAndLoadResults(r.Context())
		if err != nil {
			a.jsonResultError(w, err)
			return
		}

		a.jsonResponse(w, records, http.StatusOK)
	}
}

func (a *Api) handleGetSavedNetworks() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		configured, err := a.manager.ConfiguredNetworks()
		if err != nil {
			a.jsonResultError(w, err)
			return
		}

		res := []*savedNetworkResponse{}
		for _, c := range configured {
			res = append(res, &savedNetworkResponse{SSID: c.SSID})
		}

		a.jsonResponse(w, res, http.StatusOK)
	}
}

func (a *Api) handleDeleteNetwork() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ssid := mux.Vars(r)["ssid"]

		removed, err := a.manager.RemoveNetwork(ssid)
		if err != nil {
			a.jsonResultError(w, err)
			return
		}

		a.jsonResponse(w, &deleteNetworkResponse{Removed: removed}, http.StatusOK)
	}
}

func (a *Api) handleGetWifi() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		enabled, err := a.manager.IsWifiEnabled()
		if err != nil {
			a.jsonResultError(w, err)
			return
		}

		a.jsonResponse(w, &wifiResponse{Enabled: enabled}, http.StatusOK)
	}
}

func (a *Api) handlePutWifi() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		req := putWifiRequest{}
		err := json.NewDecoder(r.Body).Decode(&req)
		if err != nil {
			a.jsonError(w, err.Error(), http.StatusBadRequest)
			return
		}

		if req.Enabled == nil {
			a.jsonError(w, "enabled is required", http.StatusBadRequest)
			return
		}

		err = a.manager.SetWifiEnabled(*req.Enabled)
		if err != nil {
			a.jsonResultError(w, err)
			return
		}

		a.jsonResponse(w, &wifiResponse{Enabled: *req.Enabled}, http.StatusOK)
	}
}
