package api

import (
	"encoding/json"
	"net/http"

	"github.com/the-lightning-land/wifid/result"
)

func (a *Api) jsonResponse(w http.ResponseWriter, v interface{}, code int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	err := json.NewEncoder(w).Encode(v)
	if err != nil {
		a.log.Errorf("Could not respond with JSON: %v", err)
	}
}

func (a *Api) jsonError(w http.ResponseWriter, message string, code int) {
	a.jsonResponse(w, &result.Error{
		Code:    result.CodeFailed,
		Message: message,
	}, code)
}

// jsonResultError responds with the code and message of err.
func (a *Api) jsonResultError(w http.ResponseWriter, err error) {
	e := result.AsError(err)
	a.jsonResponse(w, e, statusOf(e.Code))
}

func statusOf(code result.Code) int {
	switch code {
	case result.CodeConnectInProgress:
		return http.StatusConflict
	case result.CodeLocationPermissionMissing, result.CodeLocationOff:
		return http.StatusPreconditionFailed
	case result.CodeCouldNotGetConnectivityManager:
		return http.StatusServiceUnavailable
	case result.CodeConnectNetworkFailed:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
