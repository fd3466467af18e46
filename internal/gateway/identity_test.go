package gateway

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"monitoring-gateway/internal/userdir"
)

func TestLoginAugmentsRole(t *testing.T) {
	spy := newSpy(http.StatusOK, "application/json", `{"token":"t","refreshToken":"r"}`)
	dir := &fakeDirectory{role: userdir.RoleWorker}
	g := newTestGateway(t, spy, spy, dir)

	r := httptest.NewRequest(http.MethodPost, "/users/login",
		strings.NewReader(`{"username":"77001234567","code":"1234"}`))
	rr := httptest.NewRecorder()
	g.Login(rr, r)

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `{"token":"t","refreshToken":"r","role":"worker"}`, rr.Body.String())

	assert.Equal(t, []string{"77001234567"}, dir.phones)

	out := spy.lastCall(t)
	assert.Equal(t, "/users/login", out.Path)
	assert.Empty(t, out.Authz, "login is anonymous")
	assert.JSONEq(t, `{"username":"77001234567","code":"1234"}`, string(out.Body))
}

func TestLoginUpstreamRejection(t *testing.T) {
	spy := newSpy(http.StatusUnauthorized, "application/json", `{"error":"bad code"}`)
	g := newTestGateway(t, spy, spy, &fakeDirectory{role: userdir.RoleWorker})

	r := httptest.NewRequest(http.MethodPost, "/users/login",
		strings.NewReader(`{"username":"77001234567","code":"0000"}`))
	rr := httptest.NewRecorder()
	g.Login(rr, r)

	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.JSONEq(t, `{"error":"bad code"}`, rr.Body.String())
}

func TestLoginDirectoryFailure(t *testing.T) {
	spy := newSpy(http.StatusOK, "application/json", `{"token":"t","refreshToken":"r"}`)
	dir := &fakeDirectory{err: errors.New("user not found")}
	g := newTestGateway(t, spy, spy, dir)

	r := httptest.NewRequest(http.MethodPost, "/users/login",
		strings.NewReader(`{"username":"77001234567","code":"1234"}`))
	rr := httptest.NewRecorder()
	g.Login(rr, r)

	assert.Equal(t, http.StatusInternalServerError, rr.Code)
	assert.JSONEq(t, `{"error":"internal server error"}`, rr.Body.String())
	assert.NotContains(t, rr.Body.String(), "user not found")
}

func TestSendCodeForwards(t *testing.T) {
	spy := newSpy(http.StatusOK, "application/json", `{"sent":true}`)
	g := newTestGateway(t, spy, spy, &fakeDirectory{role: userdir.RoleWorker})

	r := httptest.NewRequest(http.MethodPost, "/users/sendcode",
		strings.NewReader(`{"username":"77001234567"}`))
	rr := httptest.NewRecorder()
	g.SendCode(rr, r)

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, `{"sent":true}`, rr.Body.String())

	out := spy.lastCall(t)
	assert.Equal(t, "/users/sendcode", out.Path)
	assert.Empty(t, out.Authz)
	assert.Equal(t, `{"username":"77001234567"}`, string(out.Body))
}

func TestSendCodeUpstreamError(t *testing.T) {
	spy := newSpy(http.StatusBadRequest, "application/json", `{"reason":"unknown number"}`)
	g := newTestGateway(t, spy, spy, &fakeDirectory{role: userdir.RoleWorker})

	r := httptest.NewRequest(http.MethodPost, "/users/sendcode",
		strings.NewReader(`{"username":"bad"}`))
	rr := httptest.NewRecorder()
	g.SendCode(rr, r)

	assert.Equal(t, http.StatusInternalServerError, rr.Code)
	assert.JSONEq(t, `{"error":"External API error","details":{"reason":"unknown number"}}`, rr.Body.String())
}

func TestSendCodeTransportFailure(t *testing.T) {
	g := newDownGateway(t)

	r := httptest.NewRequest(http.MethodPost, "/users/sendcode", strings.NewReader(`{}`))
	rr := httptest.NewRecorder()
	g.SendCode(rr, r)

	assert.Equal(t, http.StatusInternalServerError, rr.Code)
	assert.JSONEq(t, `{"error":"External API error","details":null}`, rr.Body.String())
}

func TestRefreshRequiresBothTokens(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"missing refresh token", `{"token":"t"}`},
		{"missing token", `{"refreshToken":"r"}`},
		{"empty body", `{}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			spy := newSpy(http.StatusOK, "application/json", `{}`)
			g := newTestGateway(t, spy, spy, &fakeDirectory{role: userdir.RoleWorker})

			r := httptest.NewRequest(http.MethodPost, "/users/refresh", strings.NewReader(tt.body))
			rr := httptest.NewRecorder()
			g.Refresh(rr, r)

			assert.Equal(t, http.StatusBadRequest, rr.Code)
			assert.JSONEq(t, `{"error":"Token and refreshToken required"}`, rr.Body.String())
			assert.Zero(t, spy.callCount())
		})
	}
}

func TestRefreshRejectionMapsTo401(t *testing.T) {
	spy := newSpy(http.StatusBadRequest, "application/json", `{"error":"expired"}`)
	g := newTestGateway(t, spy, spy, &fakeDirectory{role: userdir.RoleWorker})

	r := httptest.NewRequest(http.MethodPost, "/users/refresh",
		strings.NewReader(`{"token":"t","refreshToken":"r"}`))
	rr := httptest.NewRecorder()
	g.Refresh(rr, r)

	assert.Equal(t, http.StatusUnauthorized, rr.Code)
	assert.JSONEq(t, `{"error":"expired"}`, rr.Body.String())
}

func TestRefreshSuccess(t *testing.T) {
	spy := newSpy(http.StatusOK, "application/json", `{"token":"t2","refreshToken":"r2"}`)
	g := newTestGateway(t, spy, spy, &fakeDirectory{role: userdir.RoleWorker})

	r := httptest.NewRequest(http.MethodPost, "/users/refresh",
		strings.NewReader(`{"token":"t","refreshToken":"r"}`))
	rr := httptest.NewRecorder()
	g.Refresh(rr, r)

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, `{"token":"t2","refreshToken":"r2"}`, rr.Body.String())

	out := spy.lastCall(t)
	assert.Equal(t, "/users/refresh", out.Path)
	assert.JSONEq(t, `{"token":"t","refreshToken":"r"}`, string(out.Body))
}

func TestProfilePreservesUpstreamStatus(t *testing.T) {
	spy := newSpy(http.StatusForbidden, "application/json", `{"error":"denied"}`)
	g := newTestGateway(t, spy, spy, &fakeDirectory{role: userdir.RoleWorker})

	r := httptest.NewRequest(http.MethodGet, "/users/profile", nil)
	r.Header.Set("Authorization", "Bearer abc123")
	rr := httptest.NewRecorder()
	g.Profile(rr, r)

	assert.Equal(t, http.StatusForbidden, rr.Code)
	assert.Equal(t, `{"error":"denied"}`, rr.Body.String())

	out := spy.lastCall(t)
	assert.Equal(t, "/users/profile", out.Path)
	assert.Equal(t, "Bearer abc123", out.Authz)
}

func TestDownloadFileCopiesContentType(t *testing.T) {
	spy := newSpy(http.StatusOK, "image/png", "\x89PNG-raw-bytes")
	g := newTestGateway(t, spy, spy, &fakeDirectory{role: userdir.RoleWorker})

	r := httptest.NewRequest(http.MethodGet, "/files/photos/abc", nil)
	r.Header.Set("Authorization", "Bearer abc123")
	r = withURLParam(r, "folder", "photos")
	r = withURLParam(r, "id", "abc")
	rr := httptest.NewRecorder()
	g.DownloadFile(rr, r)

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "image/png", rr.Header().Get("Content-Type"))
	assert.Equal(t, "\x89PNG-raw-bytes", rr.Body.String())

	out := spy.lastCall(t)
	assert.Equal(t, "/files/photos/abc", out.Path)
}

func TestDownloadFileFailureIsPlainText(t *testing.T) {
	g := newDownGateway(t)

	r := httptest.NewRequest(http.MethodGet, "/files/photos/abc", nil)
	r.Header.Set("Authorization", "Bearer abc123")
	r = withURLParam(r, "folder", "photos")
	r = withURLParam(r, "id", "abc")
	rr := httptest.NewRecorder()
	g.DownloadFile(rr, r)

	assert.Equal(t, http.StatusInternalServerError, rr.Code)
	assert.Equal(t, "file load error\n", rr.Body.String())
	assert.Contains(t, rr.Header().Get("Content-Type"), "text/plain")
}
