package stubservice

import (
	"encoding/json"
	"fmt"
	"log"
	"net/http"
)

// writeJSON writes v as a JSON response with the given status.
func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("writeJSON: failed to encode response: %v", err)
	}
}

// apiError is the error envelope of the application's HTTP API.
type apiError struct {
	StatusCode int    `json:"statusCode"`
	Error      string `json:"error"`
	Message    string `json:"message,omitempty"`
}

func writeAPIError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, apiError{StatusCode: status, Error: http.StatusText(status), Message: message})
}

func notFound(w http.ResponseWriter) {
	writeAPIError(w, http.StatusNotFound, "")
}

func unauthorized(w http.ResponseWriter) {
	w.Header().Set("WWW-Authenticate", `Basic realm="security" charset="UTF-8"`)
	writeAPIError(w, http.StatusUnauthorized, "Unauthorized")
}

func rbacForbidden(w http.ResponseWriter, spaceID string) {
	writeAPIError(w, http.StatusForbidden, fmt.Sprintf("Unauthorized to get %s space", spaceID))
}

func legacyForbidden(w http.ResponseWriter, username string) {
	action := fmt.Sprintf("action [indices:data/read/get] is unauthorized for user [%s]", username)
	writeAPIError(w, http.StatusForbidden, fmt.Sprintf("%s: [security_exception] %s", action, action))
}

// storeError is the error envelope of the backing store's API.
type storeError struct {
	Error struct {
		Type   string `json:"type"`
		Reason string `json:"reason"`
	} `json:"error"`
	Status int `json:"status"`
}

func writeStoreError(w http.ResponseWriter, status int, errorType, reason string) {
	var e storeError
	e.Error.Type = errorType
	e.Error.Reason = reason
	e.Status = status
	writeJSON(w, status, e)
}
