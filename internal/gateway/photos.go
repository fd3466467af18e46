package gateway

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/render"
)

type photoUploadResponse struct {
	OK               bool    `json:"ok"`
	PhotoProductName *string `json:"photoProductName"`
	PhotoPriceName   *string `json:"photoPriceName"`
}

// UploadPhotos relays the product and price photos to the picture store,
// one independent call per present file. An absent file stays null in the
// response and triggers no relay call. Nothing is persisted locally; the
// client carries the returned keys into its detail update.
func (g *Gateway) UploadPhotos(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(maxUploadMemory); err != nil {
		respondError(w, r, http.StatusBadRequest, "invalid multipart form")
		return
	}

	resp := photoUploadResponse{OK: true}

	for _, part := range []struct {
		field string
		dest  **string
	}{
		{"PhotoProduct", &resp.PhotoProductName},
		{"PhotoPrice", &resp.PhotoPriceName},
	} {
		f, err := formFile(r, part.field)
		if err != nil {
			respondError(w, r, http.StatusBadRequest, "invalid file part")
			return
		}
		if f == nil {
			continue
		}
		key, err := g.relay.Store(r.Context(), *f)
		if err != nil {
			slog.Error("photo relay failed", "err", err, "field", part.field)
			respondError(w, r, http.StatusInternalServerError, "failed to store photo")
			return
		}
		*part.dest = &key
	}

	render.Status(r, http.StatusOK)
	render.JSON(w, r, resp)
}
