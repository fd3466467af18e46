// Package relay forwards uploaded photos to the monitoring picture store
// and composes multipart bodies for the task-detail update upstream.
package relay

import (
	"bytes"
	"context"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"net/url"
	"strconv"
	"time"

	"monitoring-gateway/internal/upstream"
)

// File is one uploaded part, held fully in memory for the duration of the
// relay call.
type File struct {
	Field       string
	Name        string
	ContentType string
	Data        []byte
}

// StorageKey derives the picture store identifier for an upload. Keys are
// a millisecond timestamp plus the original filename; two uploads in the
// same millisecond with the same name collide, matching the key space the
// picture upstream already holds.
func StorageKey(name string, now time.Time) string {
	return strconv.FormatInt(now.UnixMilli(), 10) + "-" + name
}

type Relay struct {
	client *upstream.Client
	now    func() time.Time
}

func New(client *upstream.Client) *Relay {
	return &Relay{client: client, now: time.Now}
}

// Store sends the raw bytes to the monitoring picture endpoint as an
// octet-stream and returns the storage key the picture was filed under.
func (rl *Relay) Store(ctx context.Context, f File) (string, error) {
	key := StorageKey(f.Name, rl.now())

	res, err := rl.client.Do(ctx, upstream.Request{
		Service:     upstream.Monitoring,
		Method:      http.MethodPost,
		Path:        "/picture/" + url.PathEscape(key),
		Body:        f.Data,
		ContentType: "application/octet-stream",
	})
	if err != nil {
		return "", fmt.Errorf("store picture: %w", err)
	}
	if res.Status >= http.StatusBadRequest {
		return "", fmt.Errorf("picture upstream returned %d", res.Status)
	}
	return key, nil
}

// detailFields is the allow-set of form fields forwarded to the
// taskDetail update upstream; anything else the client sent is dropped.
var detailFields = []string{"TaskDetailId", "GoodId", "PriceUnit", "Lat", "Lng"}

// ComposeDetailUpdate builds the multipart body for the task-detail
// update call: allow-set fields first, then the file parts with their
// original filename and declared content type. The returned content type
// carries the boundary.
func ComposeDetailUpdate(fields map[string]string, files []File) ([]byte, string, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	for _, name := range detailFields {
		value, ok := fields[name]
		if !ok {
			continue
		}
		if err := w.WriteField(name, value); err != nil {
			return nil, "", fmt.Errorf("write field %s: %w", name, err)
		}
	}

	for _, f := range files {
		header := make(textproto.MIMEHeader)
		header.Set("Content-Disposition",
			fmt.Sprintf(`form-data; name=%q; filename=%q`, f.Field, f.Name))
		header.Set("Content-Type", f.ContentType)

		part, err := w.CreatePart(header)
		if err != nil {
			return nil, "", fmt.Errorf("create part %s: %w", f.Field, err)
		}
		if _, err := part.Write(f.Data); err != nil {
			return nil, "", fmt.Errorf("write part %s: %w", f.Field, err)
		}
	}

	if err := w.Close(); err != nil {
		return nil, "", fmt.Errorf("close multipart body: %w", err)
	}
	return buf.Bytes(), w.FormDataContentType(), nil
}
