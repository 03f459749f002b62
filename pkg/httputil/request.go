package httputil

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"
)

// ParseQueryString returns a trimmed query parameter or a default
func ParseQueryString(r *http.Request, key string, defaultVal string) string {
	if v := strings.TrimSpace(r.URL.Query().Get(key)); v != "" {
		return v
	}
	return defaultVal
}

// ParseQueryBool parses a boolean query parameter with a default
func ParseQueryBool(r *http.Request, key string, defaultVal bool) (bool, error) {
	v := r.URL.Query().Get(key)
	if v == "" {
		return defaultVal, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return defaultVal, fmt.Errorf("invalid %s: %q", key, v)
	}
	return b, nil
}

// RequireQuery returns the query parameter or writes a 400 and reports false
func RequireQuery(w http.ResponseWriter, r *http.Request, key string) (string, bool) {
	v := ParseQueryString(r, key, "")
	if v == "" {
		WriteBadRequest(w, fmt.Sprintf("%s is required", key))
		return "", false
	}
	return v, true
}
