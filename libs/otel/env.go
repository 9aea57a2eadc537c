package otelx

import (
	"os"
	"strings"
)

// lookupEnv is a var so tests can stub the environment.
var lookupEnv = os.LookupEnv

func envString(key, fallback string) string {
	if v, ok := lookupEnv(key); ok && strings.TrimSpace(v) != "" {
		return strings.TrimSpace(v)
	}
	return fallback
}

func envBool(key string, fallback bool) bool {
	switch strings.ToLower(envString(key, "")) {
	case "1", "true", "yes", "on":
		return true
	case "0", "false", "no", "off":
		return false
	default:
		return fallback
	}
}
