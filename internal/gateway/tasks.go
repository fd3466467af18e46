package gateway

import (
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"

	"monitoring-gateway/internal/auth"
	"monitoring-gateway/internal/relay"
	"monitoring-gateway/internal/upstream"
)

const maxUploadMemory = 32 << 20

// CreateTask relays POST /task/create; the legacy body token is stripped
// and a successful response is normalized to 201.
func (g *Gateway) CreateTask(w http.ResponseWriter, r *http.Request) {
	bodyToken, body, err := decodeStripToken(r)
	if err != nil {
		respondError(w, r, http.StatusBadRequest, "invalid json")
		return
	}
	token, ok := auth.Resolve(r, bodyToken)
	if !ok {
		respondError(w, r, http.StatusBadRequest, errBearerRequired)
		return
	}

	res, err := g.upstream.Do(r.Context(), upstream.Request{
		Service:     upstream.Monitoring,
		Method:      http.MethodPost,
		Path:        "/task/create",
		Token:       token,
		Body:        body,
		ContentType: "application/json",
	})
	if err != nil {
		slog.Error("task create failed", "err", err)
		respondError(w, r, http.StatusInternalServerError, "monitoring service unavailable")
		return
	}
	if res.Status >= http.StatusBadRequest {
		slog.Error("task create rejected", "status", res.Status)
		render.Status(r, http.StatusInternalServerError)
		render.JSON(w, r, upstreamError(res, "task create failed"))
		return
	}
	writeRawStatus(w, res, http.StatusCreated)
}

func (g *Gateway) ListTasks(w http.ResponseWriter, r *http.Request) {
	token, ok := auth.Resolve(r, "")
	if !ok {
		respondError(w, r, http.StatusBadRequest, errBearerRequired)
		return
	}

	res, err := g.upstream.Do(r.Context(), upstream.Request{
		Service: upstream.Monitoring,
		Method:  http.MethodGet,
		Path:    "/task",
		Token:   token,
	})
	if err != nil {
		slog.Error("task list failed", "err", err)
		respondError(w, r, http.StatusInternalServerError, "monitoring service unavailable")
		return
	}
	if res.Status >= http.StatusBadRequest {
		slog.Error("task list rejected", "status", res.Status)
		render.Status(r, http.StatusInternalServerError)
		render.JSON(w, r, upstreamError(res, "task list failed"))
		return
	}
	writeRaw(w, res)
}

func (g *Gateway) GetTask(w http.ResponseWriter, r *http.Request) {
	token, ok := auth.Resolve(r, "")
	if !ok {
		respondError(w, r, http.StatusBadRequest, errBearerRequired)
		return
	}

	res, err := g.upstream.Do(r.Context(), upstream.Request{
		Service: upstream.Monitoring,
		Method:  http.MethodGet,
		Path:    "/task/" + chi.URLParam(r, "id"),
		Token:   token,
	})
	if err != nil {
		slog.Error("task get failed", "err", err)
		respondError(w, r, http.StatusInternalServerError, "monitoring service unavailable")
		return
	}
	if res.Status >= http.StatusBadRequest {
		slog.Error("task get rejected", "status", res.Status)
		render.Status(r, http.StatusInternalServerError)
		render.JSON(w, r, upstreamError(res, "task get failed"))
		return
	}
	writeRaw(w, res)
}

// UpdateTaskStatus is the generic status update: the body goes upstream
// verbatim and an upstream rejection keeps its status.
func (g *Gateway) UpdateTaskStatus(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		respondError(w, r, http.StatusBadRequest, "cannot read body")
		return
	}
	token, ok := auth.Resolve(r, peekToken(body))
	if !ok {
		respondError(w, r, http.StatusBadRequest, errBearerRequired)
		return
	}

	res, err := g.upstream.Do(r.Context(), upstream.Request{
		Service:     upstream.Monitoring,
		Method:      http.MethodPut,
		Path:        "/task/" + chi.URLParam(r, "id"),
		Token:       token,
		Body:        body,
		ContentType: "application/json",
	})
	if err != nil {
		slog.Error("task status update failed", "err", err)
		respondError(w, r, http.StatusInternalServerError, "monitoring service unavailable")
		return
	}
	if res.Status >= http.StatusBadRequest {
		slog.Error("task status update rejected", "status", res.Status)
		render.Status(r, res.Status)
		render.JSON(w, r, upstreamError(res, "task status update failed"))
		return
	}
	writeRaw(w, res)
}

// UpdateTaskDetailByID relays the generic per-detail update; upstream
// rejections keep their status.
func (g *Gateway) UpdateTaskDetailByID(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		respondError(w, r, http.StatusBadRequest, "cannot read body")
		return
	}
	token, ok := auth.Resolve(r, peekToken(body))
	if !ok {
		respondError(w, r, http.StatusBadRequest, errBearerRequired)
		return
	}

	res, err := g.upstream.Do(r.Context(), upstream.Request{
		Service:     upstream.Monitoring,
		Method:      http.MethodPut,
		Path:        "/task/detail/" + chi.URLParam(r, "id"),
		Token:       token,
		Body:        body,
		ContentType: "application/json",
	})
	if err != nil {
		slog.Error("task detail update failed", "err", err)
		respondError(w, r, http.StatusInternalServerError, "monitoring service unavailable")
		return
	}
	if res.Status >= http.StatusBadRequest {
		slog.Error("task detail update rejected", "status", res.Status)
		render.Status(r, res.Status)
		render.JSON(w, r, upstreamError(res, "task detail update failed"))
		return
	}
	writeRaw(w, res)
}

// UpdateDetail is the canonical taskDetail/update handler: multipart
// bodies are recomposed through the allow-set, anything else is treated
// as a plain JSON passthrough.
func (g *Gateway) UpdateDetail(w http.ResponseWriter, r *http.Request) {
	if strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data") {
		g.updateDetailMultipart(w, r)
		return
	}
	g.updateDetailJSON(w, r)
}

func (g *Gateway) updateDetailMultipart(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(maxUploadMemory); err != nil {
		respondError(w, r, http.StatusBadRequest, "invalid multipart form")
		return
	}
	token, ok := auth.Resolve(r, r.FormValue("token"))
	if !ok {
		respondError(w, r, http.StatusBadRequest, errBearerRequired)
		return
	}

	fields := make(map[string]string, len(r.MultipartForm.Value))
	for name, values := range r.MultipartForm.Value {
		if len(values) > 0 {
			fields[name] = values[0]
		}
	}

	var files []relay.File
	for _, field := range []string{"PhotoProduct", "PhotoPrice"} {
		f, err := formFile(r, field)
		if err != nil {
			respondError(w, r, http.StatusBadRequest, "invalid file part")
			return
		}
		if f != nil {
			files = append(files, *f)
		}
	}

	body, contentType, err := relay.ComposeDetailUpdate(fields, files)
	if err != nil {
		slog.Error("compose detail update failed", "err", err)
		respondError(w, r, http.StatusInternalServerError, "internal server error")
		return
	}

	res, err := g.upstream.Do(r.Context(), upstream.Request{
		Service:     upstream.Monitoring,
		Method:      http.MethodPut,
		Path:        "/taskDetail/update",
		Token:       token,
		Body:        body,
		ContentType: contentType,
	})
	if err != nil {
		slog.Error("detail update failed", "err", err)
		respondError(w, r, http.StatusInternalServerError, "monitoring service unavailable")
		return
	}
	if res.Status >= http.StatusBadRequest {
		slog.Error("detail update rejected", "status", res.Status)
		render.Status(r, http.StatusInternalServerError)
		render.JSON(w, r, upstreamError(res, "detail update failed"))
		return
	}
	writeRaw(w, res)
}

func (g *Gateway) updateDetailJSON(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		respondError(w, r, http.StatusBadRequest, "cannot read body")
		return
	}
	token, ok := auth.Resolve(r, peekToken(body))
	if !ok {
		respondError(w, r, http.StatusBadRequest, errBearerRequired)
		return
	}

	res, err := g.upstream.Do(r.Context(), upstream.Request{
		Service:     upstream.Monitoring,
		Method:      http.MethodPut,
		Path:        "/taskDetail/update",
		Token:       token,
		Body:        body,
		ContentType: "application/json",
	})
	if err != nil {
		slog.Error("detail update failed", "err", err)
		respondError(w, r, http.StatusInternalServerError, "monitoring service unavailable")
		return
	}
	if res.Status >= http.StatusBadRequest {
		slog.Error("detail update rejected", "status", res.Status)
		render.Status(r, http.StatusInternalServerError)
		render.JSON(w, r, upstreamError(res, "detail update failed"))
		return
	}
	writeRaw(w, res)
}

type startTaskRequest struct {
	Lat   float64 `json:"lat"`
	Lng   float64 `json:"lng"`
	Token string  `json:"token"`
}

// StartTask is the IN_PROGRESS transition shortcut.
func (g *Gateway) StartTask(w http.ResponseWriter, r *http.Request) {
	var req startTaskRequest
	if err := render.DecodeJSON(r.Body, &req); err != nil && !errors.Is(err, io.EOF) {
		respondError(w, r, http.StatusBadRequest, "invalid json")
		return
	}
	token, ok := auth.Resolve(r, req.Token)
	if !ok {
		respondError(w, r, http.StatusBadRequest, errBearerRequired)
		return
	}

	res, err := g.tasks.Start(r.Context(), token, chi.URLParam(r, "id"), req.Lat, req.Lng)
	g.writeTransition(w, r, res, err)
}

// CompleteTask is the COMPLETED transition shortcut.
func (g *Gateway) CompleteTask(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		respondError(w, r, http.StatusBadRequest, "cannot read body")
		return
	}
	token, ok := auth.Resolve(r, peekToken(body))
	if !ok {
		respondError(w, r, http.StatusBadRequest, errBearerRequired)
		return
	}

	res, err := g.tasks.Complete(r.Context(), token, chi.URLParam(r, "id"))
	g.writeTransition(w, r, res, err)
}

func (g *Gateway) writeTransition(w http.ResponseWriter, r *http.Request, res *upstream.Result, err error) {
	if err != nil {
		slog.Error("task transition failed", "err", err)
		respondError(w, r, http.StatusInternalServerError, "monitoring service unavailable")
		return
	}
	if res.Status >= http.StatusBadRequest {
		slog.Error("task transition rejected", "status", res.Status)
		render.Status(r, res.Status)
		render.JSON(w, r, upstreamError(res, "task transition failed"))
		return
	}
	writeRaw(w, res)
}

func formFile(r *http.Request, field string) (*relay.File, error) {
	file, header, err := r.FormFile(field)
	if err != nil {
		if errors.Is(err, http.ErrMissingFile) {
			return nil, nil
		}
		return nil, err
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		return nil, err
	}
	return &relay.File{
		Field:       field,
		Name:        header.Filename,
		ContentType: header.Header.Get("Content-Type"),
		Data:        data,
	}, nil
}
