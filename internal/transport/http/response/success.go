package response

import (
	"encoding/json"
	"net/http"
)

// Envelope wraps every successful body as {"data": ...}.
type Envelope struct {
	Data any `json:"data"`
}

func WriteJSON(w http.ResponseWriter, status int, v any) {
	h := w.Header()
	if h.Get("Content-Type") == "" {
		h.Set("Content-Type", "application/json; charset=utf-8")
	}
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func OK(w http.ResponseWriter, data any) { WriteJSON(w, http.StatusOK, Envelope{Data: data}) }

func NoContent(w http.ResponseWriter) { w.WriteHeader(http.StatusNoContent) }
