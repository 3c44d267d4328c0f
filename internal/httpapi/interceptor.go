package httpapi

import (
	"bytes"
	"net/http"
	"time"

	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/Solideomyers/guests-app/cache"
)

// HeaderCache reports whether a read was served from the cache.
const HeaderCache = "X-Cache"

// KeyFunc derives the cache key of a read. An empty key skips the cache.
type KeyFunc func(r *http.Request) string

// cachedResponse is the stored form of a successful read.
type cachedResponse struct {
	Status      int    `json:"status"`
	ContentType string `json:"contentType"`
	Body        []byte `json:"body"`
}

// CacheInterceptor serves GET requests from the cache and stores successful
// non-empty responses on a miss. Other methods pass straight through.
// Population is best effort: a failed Set never affects the response.
func CacheInterceptor(c cache.CacheService, ttl time.Duration, keyFn KeyFunc) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Method != http.MethodGet {
				next.ServeHTTP(w, r)
				return
			}
			key := keyFn(r)
			if key == "" {
				next.ServeHTTP(w, r)
				return
			}

			var hit cachedResponse
			if c.Get(r.Context(), key, &hit) {
				w.Header().Set("Content-Type", hit.ContentType)
				w.Header().Set(HeaderCache, "HIT")
				w.WriteHeader(hit.Status)
				_, _ = w.Write(hit.Body)
				return
			}

			w.Header().Set(HeaderCache, "MISS")
			var buf bytes.Buffer
			ww := chimiddleware.NewWrapResponseWriter(w, r.ProtoMajor)
			ww.Tee(&buf)

			next.ServeHTTP(ww, r)

			if ww.Status() != http.StatusOK || buf.Len() == 0 {
				return
			}
			c.Set(r.Context(), key, cachedResponse{
				Status:      http.StatusOK,
				ContentType: ww.Header().Get("Content-Type"),
				Body:        buf.Bytes(),
			}, ttl)
		})
	}
}
