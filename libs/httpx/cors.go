package httpx

import (
	"net/http"
	"strconv"
	"strings"
	"time"
)

// CORSPolicy lists what browsers calling the planner API are allowed to do.
// An empty AllowedOrigins disables CORS handling.
type CORSPolicy struct {
	AllowedOrigins   []string
	AllowedMethods   []string
	AllowedHeaders   []string
	AllowCredentials bool
	MaxAge           time.Duration
}

type corsRules struct {
	wildcard    bool
	origins     map[string]struct{}
	credentials bool
	preflight   map[string]string
}

func (p CORSPolicy) compile() corsRules {
	rules := corsRules{origins: map[string]struct{}{}, credentials: p.AllowCredentials, preflight: map[string]string{}}
	for _, o := range p.AllowedOrigins {
		switch o = strings.TrimSpace(o); o {
		case "":
		case "*":
			rules.wildcard = true
		default:
			rules.origins[strings.ToLower(o)] = struct{}{}
		}
	}
	if v := joinNonEmpty(p.AllowedMethods); v != "" {
		rules.preflight["Access-Control-Allow-Methods"] = v
	}
	if v := joinNonEmpty(p.AllowedHeaders); v != "" {
		rules.preflight["Access-Control-Allow-Headers"] = v
	}
	if secs := int(p.MaxAge / time.Second); secs > 0 {
		rules.preflight["Access-Control-Max-Age"] = strconv.Itoa(secs)
	}
	return rules
}

// allow returns the Access-Control-Allow-Origin value for origin. A wildcard
// echoes the origin when credentials are allowed since browsers reject "*" then.
func (c corsRules) allow(origin string) (string, bool) {
	if _, ok := c.origins[strings.ToLower(origin)]; ok {
		return origin, true
	}
	if !c.wildcard {
		return "", false
	}
	if c.credentials {
		return origin, true
	}
	return "*", true
}

func WithCORS(p CORSPolicy) Middleware {
	rules := p.compile()
	if !rules.wildcard && len(rules.origins) == 0 {
		return func(next http.Handler) http.Handler { return next }
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			origin := r.Header.Get("Origin")
			allowed, ok := "", false
			if origin != "" {
				allowed, ok = rules.allow(origin)
			}
			if !ok {
				next.ServeHTTP(w, r)
				return
			}

			h := w.Header()
			h.Set("Access-Control-Allow-Origin", allowed)
			if rules.credentials {
				h.Set("Access-Control-Allow-Credentials", "true")
			}
			for k, v := range rules.preflight {
				h.Set(k, v)
			}
			h.Add("Vary", "Origin")

			if r.Method == http.MethodOptions && r.Header.Get("Access-Control-Request-Method") != "" {
				h.Add("Vary", "Access-Control-Request-Method")
				h.Add("Vary", "Access-Control-Request-Headers")
				w.WriteHeader(http.StatusNoContent)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func joinNonEmpty(values []string) string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return strings.Join(out, ", ")
}
