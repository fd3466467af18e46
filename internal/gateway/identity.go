package gateway

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"

	"monitoring-gateway/internal/auth"
	"monitoring-gateway/internal/upstream"
)

// SendCode relays the verification-code request anonymously; the identity
// upstream is the one handing out credentials here.
func (g *Gateway) SendCode(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		respondError(w, r, http.StatusBadRequest, "cannot read body")
		return
	}

	res, err := g.upstream.Do(r.Context(), upstream.Request{
		Service:     upstream.Identity,
		Method:      http.MethodPost,
		Path:        "/users/sendcode",
		Body:        body,
		ContentType: "application/json",
	})
	if err != nil {
		slog.Error("sendcode request failed", "err", err)
		writeExternalAPIError(w, r, nil)
		return
	}
	if res.Status >= http.StatusBadRequest {
		slog.Error("sendcode rejected", "status", res.Status)
		writeExternalAPIError(w, r, res)
		return
	}
	writeRawStatus(w, res, http.StatusOK)
}

type externalAPIError struct {
	Error   string `json:"error"`
	Details any    `json:"details"`
}

func writeExternalAPIError(w http.ResponseWriter, r *http.Request, res *upstream.Result) {
	out := externalAPIError{Error: "External API error"}
	if res != nil && len(res.Body) > 0 {
		if json.Valid(res.Body) {
			out.Details = json.RawMessage(res.Body)
		} else {
			out.Details = string(res.Body)
		}
	}
	render.Status(r, http.StatusInternalServerError)
	render.JSON(w, r, out)
}

type loginRequest struct {
	Username string `json:"username"`
	Code     string `json:"code"`
}

// Login relays the credentials to the identity upstream and, on success,
// augments the returned token pair with the locally resolved role.
func (g *Gateway) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := render.DecodeJSON(r.Body, &req); err != nil {
		respondError(w, r, http.StatusBadRequest, "invalid json")
		return
	}

	body, err := json.Marshal(req)
	if err != nil {
		respondError(w, r, http.StatusInternalServerError, "internal server error")
		return
	}

	res, err := g.upstream.Do(r.Context(), upstream.Request{
		Service:     upstream.Identity,
		Method:      http.MethodPost,
		Path:        "/users/login",
		Body:        body,
		ContentType: "application/json",
	})
	if err != nil {
		slog.Error("login request failed", "err", err)
		respondError(w, r, http.StatusInternalServerError, "identity service unavailable")
		return
	}
	if res.Status >= http.StatusBadRequest {
		slog.Error("login rejected", "status", res.Status)
		if len(res.Body) > 0 && json.Valid(res.Body) {
			writeRawStatus(w, res, http.StatusBadRequest)
			return
		}
		respondError(w, r, http.StatusBadRequest, "Login failed")
		return
	}

	tokens := map[string]any{}
	if err := json.Unmarshal(res.Body, &tokens); err != nil {
		slog.Error("login response not json", "err", err)
		respondError(w, r, http.StatusInternalServerError, "invalid response from identity service")
		return
	}

	user, err := g.users.EnsureUser(r.Context(), req.Username)
	if err != nil {
		slog.Error("user directory lookup failed", "err", err)
		respondError(w, r, http.StatusInternalServerError, "internal server error")
		return
	}
	tokens["role"] = user.Role

	render.Status(r, http.StatusOK)
	render.JSON(w, r, tokens)
}

type refreshRequest struct {
	Token        string `json:"token"`
	RefreshToken string `json:"refreshToken"`
}

// Refresh needs both halves of the token pair in the body; a rejected
// refresh maps to 401.
func (g *Gateway) Refresh(w http.ResponseWriter, r *http.Request) {
	var req refreshRequest
	if err := render.DecodeJSON(r.Body, &req); err != nil {
		respondError(w, r, http.StatusBadRequest, "invalid json")
		return
	}
	if req.Token == "" || req.RefreshToken == "" {
		respondError(w, r, http.StatusBadRequest, "Token and refreshToken required")
		return
	}

	body, err := json.Marshal(req)
	if err != nil {
		respondError(w, r, http.StatusInternalServerError, "internal server error")
		return
	}

	res, err := g.upstream.Do(r.Context(), upstream.Request{
		Service:     upstream.Identity,
		Method:      http.MethodPost,
		Path:        "/users/refresh",
		Body:        body,
		ContentType: "application/json",
	})
	if err != nil {
		slog.Error("refresh request failed", "err", err)
		respondError(w, r, http.StatusInternalServerError, "identity service unavailable")
		return
	}
	if res.Status >= http.StatusBadRequest {
		slog.Error("refresh rejected", "status", res.Status)
		if len(res.Body) > 0 && json.Valid(res.Body) {
			writeRawStatus(w, res, http.StatusUnauthorized)
			return
		}
		respondError(w, r, http.StatusUnauthorized, "Refresh failed")
		return
	}
	writeRawStatus(w, res, http.StatusOK)
}

// Profile passes the upstream response through, status included.
func (g *Gateway) Profile(w http.ResponseWriter, r *http.Request) {
	token, ok := auth.Resolve(r, "")
	if !ok {
		respondError(w, r, http.StatusBadRequest, errBearerRequired)
		return
	}

	res, err := g.upstream.Do(r.Context(), upstream.Request{
		Service: upstream.Identity,
		Method:  http.MethodGet,
		Path:    "/users/profile",
		Token:   token,
	})
	if err != nil {
		slog.Error("profile request failed", "err", err)
		respondError(w, r, http.StatusInternalServerError, "Profile fetch failed")
		return
	}
	if res.Status >= http.StatusBadRequest && len(res.Body) == 0 {
		respondError(w, r, res.Status, "Profile fetch failed")
		return
	}
	writeRaw(w, res)
}

// DownloadFile relays a binary document; failures surface as plain text,
// never a half-written binary body.
func (g *Gateway) DownloadFile(w http.ResponseWriter, r *http.Request) {
	token, ok := auth.Resolve(r, "")
	if !ok {
		respondError(w, r, http.StatusBadRequest, errBearerRequired)
		return
	}

	folder := chi.URLParam(r, "folder")
	id := chi.URLParam(r, "id")

	res, err := g.upstream.Do(r.Context(), upstream.Request{
		Service: upstream.Identity,
		Method:  http.MethodGet,
		Path:    "/files/" + folder + "/" + id,
		Token:   token,
	})
	if err != nil {
		slog.Error("file download failed", "err", err, "folder", folder, "id", id)
		http.Error(w, "file load error", http.StatusInternalServerError)
		return
	}
	if res.Status >= http.StatusBadRequest {
		slog.Error("file download rejected", "status", res.Status, "folder", folder, "id", id)
		http.Error(w, "file load error", http.StatusInternalServerError)
		return
	}
	writeRaw(w, res)
}
