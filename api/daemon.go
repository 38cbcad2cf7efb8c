package api

import (
	"encoding/json"
	"net/http"
)

type daemonResponse struct {
	Name    string `json:"name"`
	Version string `json:"version"`
	Tier    string `json:"tier"`
}

type putDaemonRequest struct {
	Name string `json:"name"`
}

func (a *Api) daemon(w http.ResponseWriter) {
	name, err := a.manager.GetName()
	if err != nil {
		a.jsonError(w, err.Error(), http.StatusInternalServerError)
		return
	}

	a.jsonResponse(w, &daemonResponse{
		Name:    name,
		Version: a.version,
		Tier:    a.manager.Tier().String(),
	}, http.StatusOK)
}

func (a *Api) handleGetDaemon() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		a.daemon(w)
	}
}

func (a *Api) handlePutDaemon() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		req := putDaemonRequest{}
		err := json.NewDecoder(r.Body).Decode(&req)
		if err != nil {
			a.jsonError(w, err.Error(), http.StatusBadRequest)
			return
		}

		err = a.manager.SetName(req.Name)
		if err != nil {
			a.jsonError(w, err.Error(), http.StatusInternalServerError)
			return
		}

		a.daemon(w)
	}
}
