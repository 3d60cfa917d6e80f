package middleware

import (
	"log"
	"net/http"
	"time"
)

// Paths polled by scrapers and load balancers; logging every hit drowns
// out the request log.
var quietPaths = map[string]bool{
	"/health":  true,
	"/metrics": true,
}

// loggedWriter records the outcome of a request for the access log
type loggedWriter struct {
	http.ResponseWriter
	status int
	bytes  int
}

func (lw *loggedWriter) WriteHeader(status int) {
	lw.status = status
	lw.ResponseWriter.WriteHeader(status)
}

func (lw *loggedWriter) Write(b []byte) (int, error) {
	n, err := lw.ResponseWriter.Write(b)
	lw.bytes += n
	return n, err
}

// Logging writes one access-log line per request
func Logging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if quietPaths[r.URL.Path] {
			next.ServeHTTP(w, r)
			return
		}

		start := time.Now()
		lw := &loggedWriter{ResponseWriter: w, status: http.StatusOK}

		next.ServeHTTP(lw, r)

		log.Printf("%s %s %d %dB %s from %s",
			r.Method, r.URL.Path, lw.status, lw.bytes, time.Since(start), r.RemoteAddr)
	})
}
