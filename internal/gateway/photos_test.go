package gateway

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"monitoring-gateway/internal/relay"
	"monitoring-gateway/internal/userdir"
)

type photoResponse struct {
	OK               bool    `json:"ok"`
	PhotoProductName *string `json:"photoProductName"`
	PhotoPriceName   *string `json:"photoPriceName"`
}

func TestUploadPhotosProductOnly(t *testing.T) {
	spy := newSpy(http.StatusOK, "", "")
	g := newTestGateway(t, spy, spy, &fakeDirectory{role: userdir.RoleWorker})

	body, contentType := multipartBody(t, nil, []relay.File{{
		Field:       "PhotoProduct",
		Name:        "cat.png",
		ContentType: "image/png",
		Data:        []byte("png-bytes"),
	}})

	r := httptest.NewRequest(http.MethodPut, "/photos/taskDetail/update", body)
	r.Header.Set("Content-Type", contentType)
	rr := httptest.NewRecorder()
	g.UploadPhotos(rr, r)

	assert.Equal(t, http.StatusOK, rr.Code)

	var resp photoResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	assert.True(t, resp.OK)
	require.NotNil(t, resp.PhotoProductName)
	assert.True(t, strings.HasSuffix(*resp.PhotoProductName, "-cat.png"))
	assert.Nil(t, resp.PhotoPriceName, "absent file stays null")

	require.Equal(t, 1, spy.callCount(), "one relay call per present file")
	out := spy.lastCall(t)
	assert.Equal(t, http.MethodPost, out.Method)
	assert.Equal(t, "/picture/"+url.PathEscape(*resp.PhotoProductName), out.Path)
	assert.Equal(t, "application/octet-stream", out.ContentType)
	assert.Equal(t, "png-bytes", string(out.Body))
}

func TestUploadPhotosBothFiles(t *testing.T) {
	spy := newSpy(http.StatusOK, "", "")
	g := newTestGateway(t, spy, spy, &fakeDirectory{role: userdir.RoleWorker})

	body, contentType := multipartBody(t, nil, []relay.File{
		{Field: "PhotoProduct", Name: "cat.png", ContentType: "image/png", Data: []byte("a")},
		{Field: "PhotoPrice", Name: "price tag.jpg", ContentType: "image/jpeg", Data: []byte("b")},
	})

	r := httptest.NewRequest(http.MethodPut, "/photos/taskDetail/update", body)
	r.Header.Set("Content-Type", contentType)
	rr := httptest.NewRecorder()
	g.UploadPhotos(rr, r)

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, 2, spy.callCount())

	var resp photoResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	require.NotNil(t, resp.PhotoProductName)
	require.NotNil(t, resp.PhotoPriceName)
	assert.True(t, strings.HasSuffix(*resp.PhotoPriceName, "-price tag.jpg"))
}

func TestUploadPhotosNoFiles(t *testing.T) {
	spy := newSpy(http.StatusOK, "", "")
	g := newTestGateway(t, spy, spy, &fakeDirectory{role: userdir.RoleWorker})

	body, contentType := multipartBody(t, map[string]string{"TaskDetailId": "7"}, nil)

	r := httptest.NewRequest(http.MethodPut, "/photos/taskDetail/update", body)
	r.Header.Set("Content-Type", contentType)
	rr := httptest.NewRecorder()
	g.UploadPhotos(rr, r)

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `{"ok":true,"photoProductName":null,"photoPriceName":null}`, rr.Body.String())
	assert.Zero(t, spy.callCount())
}

func TestUploadPhotosRelayFailure(t *testing.T) {
	spy := newSpy(http.StatusBadGateway, "", "storage down")
	g := newTestGateway(t, spy, spy, &fakeDirectory{role: userdir.RoleWorker})

	body, contentType := multipartBody(t, nil, []relay.File{{
		Field: "PhotoProduct", Name: "cat.png", ContentType: "image/png", Data: []byte("a"),
	}})

	r := httptest.NewRequest(http.MethodPut, "/photos/taskDetail/update", body)
	r.Header.Set("Content-Type", contentType)
	rr := httptest.NewRecorder()
	g.UploadPhotos(rr, r)

	assert.Equal(t, http.StatusInternalServerError, rr.Code)
	assert.JSONEq(t, `{"error":"failed to store photo"}`, rr.Body.String())
}
