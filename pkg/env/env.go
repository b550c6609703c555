package env

import (
	"os"
	"strconv"
	"strings"
)

// Get returns the value of the given environment variable or a fallback.
// The LOCALLOOP_-prefixed spelling wins over the bare name, so deployments
// can scope shared variables like LOG_FORMAT to this service.
func Get(key, fallback string) string {
	if val := os.Getenv("LOCALLOOP_" + key); val != "" {
		return val
	}
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

// Bool reads a boolean flag with the same prefix resolution as Get.
func Bool(key string, fallback bool) bool {
	raw := strings.TrimSpace(Get(key, ""))
	if raw == "" {
		return fallback
	}
	parsed, err := strconv.ParseBool(raw)
	if err != nil {
		return fallback
	}
	return parsed
}
