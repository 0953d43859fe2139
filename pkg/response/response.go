package response

import (
	"encoding/json"
	"net/http"
)

// JSON writes v as the response body with the given status code.
func JSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

type errorBody struct {
	ErrorMessage string `json:"errorMessage"`
}

// Error writes a JSON error envelope with the given status code.
func Error(w http.ResponseWriter, status int, msg string) {
	JSON(w, status, errorBody{ErrorMessage: msg})
}
