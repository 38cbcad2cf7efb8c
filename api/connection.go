package api

import (
	"encoding/json"
	"net/http"
)

type postConnectionRequest struct {
	SSID        string `json:"ssid"`
	Passphrase  string `json:"passphrase"`
	IsLegacyWep bool   `json:"isLegacyWep"`
}

type resultResponse struct {
	Result interface{} `json:"result"`
}

type putRouteRequest struct {
	Enabled bool `json:"enabled"`
}

func (a *Api) handlePostConnection() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		req := postConnectionRequest{}
		err := json.NewDecoder(r.Body).Decode(&req)
		if err != nil {
			a.jsonError(w, err.Error(), http.StatusBadRequest)
			return
		}

		if req.SSID == "" {
			a.jsonError(w, "ssid is required", http.StatusBadRequest)
			return
		}

		v, err := a.manager.Connect(req.SSID, req.Passphrase, req.IsLegacyWep).Wait(r.Context())
		if r.Context().Err() != nil {
			// client went away, the connection attempt continues
			return
		}

		if err != nil {
			a.jsonResultError(w, err)
			return
		}

		a.jsonResponse(w, &resultResponse{Result: v}, http.StatusOK)
	}
}

func (a *Api) handleDeleteConnection() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		err := a.manager.Disconnect()
		if err != nil {
			a.jsonResultError(w, err)
			return
		}

		a.jsonResponse(w, &resultResponse{}, http.StatusOK)
	}
}

func (a *Api) handlePutRoute() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		req := putRouteRequest{}
		err := json.NewDecoder(r.Body).Decode(&req)
		if err != nil {
			a.jsonError(w, err.Error(), http.StatusBadRequest)
			return
		}

		v, err := a.manager.ForceWifiUsage(req.Enabled).Wait(r.Context())
		if r.Context().Err() != nil {
			return
		}

		if err != nil {
			a.jsonResultError(w, err)
			return
		}

		a.jsonResponse(w, &resultResponse{Result: v}, http.StatusOK)
	}
}
