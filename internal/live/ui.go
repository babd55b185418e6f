package live

import (
	_ "embed"
	"net/http"
)

//go:embed static/index.html
var indexHTML []byte

// UI serves the single-page client.
func UI() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.Write(indexHTML)
	})
}
