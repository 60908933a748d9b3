package httpx

import (
	"errors"
	"net/http"
)

// ErrorMapping pairs a sentinel error with the problem response it produces.
type ErrorMapping struct {
	Target error
	Status int
	Title  string
}

// RespondError writes the first mapping err matches using RFC7807. detail is
// shown to the client; unmatched errors become a 500 without detail.
func RespondError(w http.ResponseWriter, r *http.Request, err error, detail string, mappings ...ErrorMapping) {
	for _, m := range mappings {
		if errors.Is(err, m.Target) {
			Problem(w, r, m.Status, m.Title, detail)
			return
		}
	}
	Problem(w, r, http.StatusInternalServerError, "Internal Error", "")
}
