// Package auth resolves the caller's bearer credential from an inbound
// request. The gateway never mints or verifies tokens itself; the opaque
// value is forwarded to the upstream that issued it.
package auth

import (
	"net/http"
	"strings"
)

const bearerPrefix = "Bearer "

// HeaderToken returns the text following the "Bearer " prefix of the
// Authorization header, verbatim. No trimming: the upstream receives
// exactly what the client sent.
func HeaderToken(r *http.Request) (string, bool) {
	authz := r.Header.Get("Authorization")
	if !strings.HasPrefix(authz, bearerPrefix) {
		return "", false
	}
	return authz[len(bearerPrefix):], true
}

// Resolve picks the caller credential. The Authorization header wins;
// bodyToken is the value of a "token" field some legacy clients carry in
// the request body instead (empty when absent).
func Resolve(r *http.Request, bodyToken string) (string, bool) {
	if token, ok := HeaderToken(r); ok {
		return token, true
	}
	if bodyToken != "" {
		return bodyToken, true
	}
	return "", false
}
