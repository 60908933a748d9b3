// Package httpx writes JSON and RFC7807 problem responses.
package httpx

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5/middleware"
)

// ProblemContentType is the media type of problem responses.
const ProblemContentType = "application/problem+json"

// problemTypePrefix namespaces problem types; the suffix is the title slug,
// e.g. urn:freelanceflow:problem:validation-failed.
const problemTypePrefix = "urn:freelanceflow:problem:"

// ProblemDetail is an RFC7807 problem body. Instance carries the request ID
// when the RequestID middleware ran, so clients can quote it to operators.
type ProblemDetail struct {
	Type     string `json:"type,omitempty"`
	Title    string `json:"title"`
	Status   int    `json:"status"`
	Detail   string `json:"detail,omitempty"`
	Instance string `json:"instance,omitempty"`
}

// JSON sends a JSON response with the given status code.
func JSON(w http.ResponseWriter, status int, data any) {
	write(w, "application/json", status, data)
}

// Problem sends an RFC7807 problem response for r.
func Problem(w http.ResponseWriter, r *http.Request, status int, title, detail string) {
	p := ProblemDetail{
		Type:   ProblemType(title),
		Title:  title,
		Status: status,
		Detail: detail,
	}
	if id := middleware.GetReqID(r.Context()); id != "" {
		p.Instance = "urn:request:" + id
	}
	write(w, ProblemContentType, status, p)
}

// ProblemType returns the type URI used for problems titled title.
func ProblemType(title string) string {
	return problemTypePrefix + strings.ReplaceAll(strings.ToLower(strings.TrimSpace(title)), " ", "-")
}

// DecodeJSON decodes JSON request body into the target struct.
func DecodeJSON(r *http.Request, target any) error {
	return json.NewDecoder(r.Body).Decode(target)
}

func write(w http.ResponseWriter, contentType string, status int, data any) {
	w.Header().Set("Content-Type", contentType)
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}
