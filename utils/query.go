package utils

import (
	"net/url"
	"strconv"
)

// IntQuery reads an integer query parameter, returning def when it is missing or malformed.
func IntQuery(values url.Values, key string, def int) int {
	raw := values.Get(key)
	if raw == "" {
		return def
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return def
	}
	return v
}
