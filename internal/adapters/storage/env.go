package storage

import (
	"os"
	"strconv"
	"strings"
)

// EnvOr returns the trimmed env value or def when empty.
func EnvOr(key, def string) string {
	v := strings.TrimSpace(strings.Trim(os.Getenv(key), `"`))
	if v == "" {
		return def
	}
	return v
}

// EnvBoolOr returns the parsed bool env value or def on empty/parse failure.
func EnvBoolOr(key string, def bool) bool {
	v := EnvOr(key, "")
	if v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return def
	}
	return b
}
