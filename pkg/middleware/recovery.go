package middleware

import (
	"encoding/json"
	"log"
	"net/http"
	"runtime/debug"

	"github.com/boardhive/boardhive/internal/model"
)

// Recovery converts handler panics into the standard API error envelope.
// The stack trace goes to the log, never to the client.
func Recovery(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				log.Printf("Panic handling %s %s: %v\n%s", r.Method, r.URL.Path, rec, debug.Stack())

				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(model.ErrInternalServer.Status)
				if err := json.NewEncoder(w).Encode(model.ErrInternalServer); err != nil {
					log.Printf("Failed to encode panic response: %v", err)
				}
			}
		}()

		next.ServeHTTP(w, r)
	})
}
