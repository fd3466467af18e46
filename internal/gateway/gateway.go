// Package gateway holds the per-resource relay handlers: resolve the
// caller credential, build one upstream request, translate the result.
package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/go-chi/render"

	"monitoring-gateway/internal/relay"
	"monitoring-gateway/internal/task"
	"monitoring-gateway/internal/upstream"
	"monitoring-gateway/internal/userdir"
)

// Directory is the user-directory collaborator the login handler needs:
// it maps an upstream identity to the locally persisted role.
type Directory interface {
	EnsureUser(ctx context.Context, phone string) (*userdir.User, error)
}

type Gateway struct {
	upstream *upstream.Client
	relay    *relay.Relay
	tasks    *task.Lifecycle
	users    Directory
}

func New(client *upstream.Client, rl *relay.Relay, lifecycle *task.Lifecycle, users Directory) *Gateway {
	return &Gateway{
		upstream: client,
		relay:    rl,
		tasks:    lifecycle,
		users:    users,
	}
}

const errBearerRequired = "Bearer token is required"

type errorResponse struct {
	Error any `json:"error"`
}

func respondError(w http.ResponseWriter, r *http.Request, status int, message string) {
	render.Status(r, status)
	render.JSON(w, r, errorResponse{Error: message})
}

// upstreamError wraps whatever error body the upstream answered with so
// the client sees it under the error key; an empty or non-JSON body falls
// back to a local message.
func upstreamError(res *upstream.Result, fallback string) errorResponse {
	if res == nil || len(res.Body) == 0 {
		return errorResponse{Error: fallback}
	}
	if json.Valid(res.Body) {
		return errorResponse{Error: json.RawMessage(res.Body)}
	}
	return errorResponse{Error: string(res.Body)}
}

// writeRaw relays the upstream response to the client byte for byte,
// status included.
func writeRaw(w http.ResponseWriter, res *upstream.Result) {
	writeRawStatus(w, res, res.Status)
}

func writeRawStatus(w http.ResponseWriter, res *upstream.Result, status int) {
	if res.ContentType != "" {
		w.Header().Set("Content-Type", res.ContentType)
	}
	w.WriteHeader(status)
	_, _ = w.Write(res.Body)
}

// decodeStripToken reads a JSON object body, removes the legacy token
// field, and returns the token alongside the remaining fields re-encoded.
// The stripped token must never reach the upstream as a body field.
func decodeStripToken(r *http.Request) (string, []byte, error) {
	fields := map[string]json.RawMessage{}
	if err := render.DecodeJSON(r.Body, &fields); err != nil && !errors.Is(err, io.EOF) {
		return "", nil, err
	}

	var token string
	if raw, ok := fields["token"]; ok {
		_ = json.Unmarshal(raw, &token)
		delete(fields, "token")
	}

	body, err := json.Marshal(fields)
	if err != nil {
		return "", nil, err
	}
	return token, body, nil
}

// peekToken pulls a top-level token field out of a JSON body without
// disturbing it; the body is still forwarded verbatim.
func peekToken(body []byte) string {
	var probe struct {
		Token string `json:"token"`
	}
	_ = json.Unmarshal(body, &probe)
	return probe.Token
}
