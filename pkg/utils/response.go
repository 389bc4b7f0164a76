package utils

import (
	"encoding/json"
	"net/http"

	"k8s.io/klog/v2"
)

// ErrorBody is the JSON shape of every error response.
type ErrorBody struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

// RespondJSON 发送JSON响应
func RespondJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		klog.Errorf("failed to encode response: %v", err)
	}
}

// RespondError 发送错误响应
func RespondError(w http.ResponseWriter, status int, message string) {
	RespondJSON(w, status, ErrorBody{Error: message})
}

// RespondErrorDetails sends an error with the underlying cause attached.
func RespondErrorDetails(w http.ResponseWriter, status int, message string, cause error) {
	body := ErrorBody{Error: message}
	if cause != nil {
		body.Details = cause.Error()
	}
	RespondJSON(w, status, body)
}
