package gateway

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/render"

	"monitoring-gateway/internal/auth"
	"monitoring-gateway/internal/upstream"
)

// ListGoods relays GET /goods with the inbound query string forwarded
// verbatim.
func (g *Gateway) ListGoods(w http.ResponseWriter, r *http.Request) {
	token, ok := auth.Resolve(r, "")
	if !ok {
		respondError(w, r, http.StatusBadRequest, errBearerRequired)
		return
	}

	res, err := g.upstream.Do(r.Context(), upstream.Request{
		Service: upstream.Monitoring,
		Method:  http.MethodGet,
		Path:    "/goods",
		Query:   r.URL.Query(),
		Token:   token,
	})
	if err != nil {
		slog.Error("goods request failed", "err", err)
		respondError(w, r, http.StatusInternalServerError, "monitoring service unavailable")
		return
	}
	if res.Status >= http.StatusBadRequest {
		slog.Error("goods upstream rejected", "status", res.Status)
		render.Status(r, http.StatusInternalServerError)
		render.JSON(w, r, upstreamError(res, "goods request failed"))
		return
	}
	writeRaw(w, res)
}

// CreateMarket accepts the legacy body-token form: the token field is
// stripped before the rest of the payload goes upstream.
func (g *Gateway) CreateMarket(w http.ResponseWriter, r *http.Request) {
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
		Path:        "/market/create",
		Token:       token,
		Body:        body,
		ContentType: "application/json",
	})
	if err != nil {
		slog.Error("market create failed", "err", err)
		respondError(w, r, http.StatusInternalServerError, "monitoring service unavailable")
		return
	}
	if res.Status >= http.StatusBadRequest {
		slog.Error("market create rejected", "status", res.Status)
		render.Status(r, http.StatusInternalServerError)
		render.JSON(w, r, upstreamError(res, "market create failed"))
		return
	}
	writeRawStatus(w, res, http.StatusOK)
}

func (g *Gateway) ListMarkets(w http.ResponseWriter, r *http.Request) {
	token, ok := auth.Resolve(r, "")
	if !ok {
		respondError(w, r, http.StatusBadRequest, errBearerRequired)
		return
	}

	res, err := g.upstream.Do(r.Context(), upstream.Request{
		Service: upstream.Monitoring,
		Method:  http.MethodGet,
		Path:    "/markets",
		Token:   token,
	})
	if err != nil {
		slog.Error("markets request failed", "err", err)
		respondError(w, r, http.StatusInternalServerError, "monitoring service unavailable")
		return
	}
	if res.Status >= http.StatusBadRequest {
		slog.Error("markets upstream rejected", "status", res.Status)
		render.Status(r, http.StatusInternalServerError)
		render.JSON(w, r, upstreamError(res, "markets request failed"))
		return
	}
	writeRaw(w, res)
}
