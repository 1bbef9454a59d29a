package security

import (
	"bytes"
	"io"
	"net/http"
)

// BodyLimit rejects request payloads larger than Max bytes with HTTP 413.
// The body is buffered so downstream handlers read it unchanged.
type BodyLimit struct {
	Max int64
}

func (b BodyLimit) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if b.Max <= 0 || r.Body == nil {
			next.ServeHTTP(w, r)
			return
		}
		if r.ContentLength > b.Max {
			http.Error(w, "request entity too large", http.StatusRequestEntityTooLarge)
			return
		}

		var buf bytes.Buffer
		n, err := io.Copy(&buf, io.LimitReader(r.Body, b.Max+1))
		_ = r.Body.Close()
		if err != nil {
			http.Error(w, "invalid request body", http.StatusBadRequest)
			return
		}
		if n > b.Max {
			http.Error(w, "request entity too large", http.StatusRequestEntityTooLarge)
			return
		}

		r.Body = io.NopCloser(&buf)
		r.ContentLength = n
		next.ServeHTTP(w, r)
	})
}
