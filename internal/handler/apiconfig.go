package handler

import (
	"encoding/json"
	"net/http"

	"github.com/angeloszaimis/map-gateway/internal/apiurl"
)

// APIConfigHandler serves the resolved base URLs so the frontend can pick
// them up at runtime instead of at build time.
func APIConfigHandler(cfg apiurl.Config) http.HandlerFunc {
	body, err := json.Marshal(cfg)
	if err != nil {
		// Config only holds strings.
		panic(err)
	}

	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Header().Set("Cache-Control", "no-cache")
		_, _ = w.Write(body)
	}
}
