package handlers

import (
	"encoding/json"
	"net/http"

	"goxbridge/xerr"
)

func responseJSON(w http.ResponseWriter, data interface{}, code int) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.Header().Set("X-Content-Type-Options", "nosniff")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(data)
}

// responseError maps an error kind to a status code and serializes only the
// kind and message: the context bag stays server-side.
func responseError(w http.ResponseWriter, err error) {
	code := http.StatusInternalServerError
	switch xerr.KindOf(err) {
	case xerr.KindUnauthorized:
		code = http.StatusUnauthorized
	case xerr.KindNotFound:
		code = http.StatusNotFound
	}

	responseJSON(w, &APIError{
		Kind:    string(xerr.KindOf(err)),
		Message: err.Error(),
	}, code)
}
