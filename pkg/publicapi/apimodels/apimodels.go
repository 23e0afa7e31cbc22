// Package apimodels holds the JSON bodies exchanged with the control plane.
package apimodels

import (
	"net/http"
	"strings"

	"github.com/bacalhau-project/cryri/pkg/models"
)

type SubmitJobResponse struct {
	ID string `json:"id"`
}

type ListJobsResponse struct {
	Jobs []models.JobSummary `json:"jobs"`
}

type ListInstanceTypesResponse struct {
	InstanceTypes []models.InstanceType `json:"instance_types"`
}

// ErrorResponse is the error body returned by the control plane. Some
// endpoints use "error" instead of "message".
type ErrorResponse struct {
	Message string `json:"message,omitempty"`
	Error   string `json:"error,omitempty"`
}

// RemoteMessage extracts the human readable error text from a failed response
// body. JSON error bodies yield their message, anything else is returned as
// trimmed text. An empty body falls back to the HTTP status text.
func RemoteMessage(statusCode int, body []byte, decoded *ErrorResponse) string {
	if decoded != nil {
		if decoded.Message != "" {
			return decoded.Message
		}
		if decoded.Error != "" {
			return decoded.Error
		}
	}
	if text := strings.TrimSpace(string(body)); text != "" {
		return text
	}
	return http.StatusText(statusCode)
}
