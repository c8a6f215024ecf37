package server

import (
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"google.golang.org/grpc"
)

var httpAttrs = metric.WithAttributes(attribute.String("protocol", "http"))

func httpMid(h http.Handler, log zerolog.Logger, latency metric.Int64Histogram) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/metrics", "/health":
			h.ServeHTTP(w, r)
			return
		}

		t := time.Now()
		remote := r.Header.Get("x-forwarded-for")
		if remote == "" {
			remote = r.RemoteAddr
		}
		ua := r.Header.Get("user-agent")

		defer func() {
			d := time.Since(t)
			latency.Record(r.Context(), d.Milliseconds(), httpAttrs)
			log.Debug().
				Str("src", remote).
				Str("url", r.URL.String()).
				Str("user-agent", ua).
				Dur("dur", d).
				Msg("served")
		}()

		h.ServeHTTP(w, r)
	})
}

var healthOK = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
})

// grpcDispatch sends grpc requests to gs and everything else to h
func grpcDispatch(gs *grpc.Server, h http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.ProtoMajor == 2 && strings.HasPrefix(r.Header.Get("Content-Type"), "application/grpc") {
			gs.ServeHTTP(w, r)
			return
		}
		h.ServeHTTP(w, r)
	})
}

var corsMethods = []string{http.MethodOptions, http.MethodGet, http.MethodPost}

// cors answers preflight requests for origins ending in one of allowedSuffix,
// "*" allows all origins
func cors(h http.Handler, allowedSuffix []string) http.Handler {
	allowedMeths := strings.Join(corsMethods, ", ")
	meth := map[string]struct{}{}
	for _, m := range corsMethods {
		meth[m] = struct{}{}
	}

	var allowAllOrigin bool
	if (len(allowedSuffix) == 1) && (allowedSuffix[0] == "*") {
		allowAllOrigin = true
	}
	as := func(o string) string {
		if allowAllOrigin {
			return "*"
		}
		if o == "" {
			return ""
		}
		for _, s := range allowedSuffix {
			if strings.HasSuffix(o, s) {
				return o
			}
		}
		return ""
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := meth[r.Method]; !ok {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		if r.Method != http.MethodOptions {
			if o := as(r.Header.Get("origin")); o != "" {
				w.Header().Set("Access-Control-Allow-Origin", o)
				if o != "*" {
					w.Header().Add("Vary", "Origin")
				}
			}
			h.ServeHTTP(w, r)
			return
		}

		o := as(r.Header.Get("origin"))
		if o == "" {
			w.WriteHeader(http.StatusForbidden)
			return
		}
		w.Header().Set("Access-Control-Allow-Origin", o)
		w.Header().Set("Access-Control-Allow-Methods", allowedMeths)
		w.Header().Set("Access-Control-Max-Age", "86400")
		if o != "*" {
			w.Header().Add("Vary", "Origin")
		}
		w.WriteHeader(http.StatusNoContent)
	})
}
