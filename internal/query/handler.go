// Package query serves the read side of the HTTP API.
package query

import (
	"context"
	"fmt"
	"net/http"

	"github.com/go-sod/sidx/internal/api"
	"github.com/go-sod/sidx/internal/byteutil"
	"github.com/go-sod/sidx/internal/httputil"
	"github.com/go-sod/sidx/internal/layer"
	"github.com/go-sod/sidx/pkg/geom"
)

const maxBodyBytes = 1024 * 1024

func NewHandler(cfg *Config, querier layer.Querier) (*Handler, error) {
	if querier == nil {
		return nil, fmt.Errorf("layer querier is not defined")
	}
	return &Handler{
		cfg:     cfg,
		querier: querier,
	}, nil
}

type Handler struct {
	querier layer.Querier
	cfg     *Config
}

// Register mounts every query endpoint on mux.
func (h *Handler) Register(mux *http.ServeMux) {
	mux.HandleFunc("/search", h.Search)
	mux.HandleFunc("/nearest", h.Nearest)
	mux.HandleFunc("/within", h.Within)
	mux.HandleFunc("/dump", h.Dump)
	mux.HandleFunc("/layers", h.Layers)
}

func (h *Handler) context(r *http.Request) (context.Context, context.CancelFunc) {
	return context.WithTimeout(r.Context(), h.cfg.RequestTimeout)
}

// Search answers POST /search with every point inside the rectangle.
func (h *Handler) Search(w http.ResponseWriter, r *http.Request) {
	var req api.SearchRequest
	ctx, cancel := h.context(r)
	defer cancel()

	if !httputil.CheckJSONRequest(ctx, w, r, http.MethodPost) ||
		!httputil.DecodeJSON(ctx, w, r, maxBodyBytes, &req) {
		return
	}
	points, err := h.querier.Search(ctx, req.Layer, req.Rect)
	if err != nil {
		httputil.RespLayerErr(ctx, w, err)
		return
	}
	httputil.RespJSON(ctx, w, http.StatusOK, api.PointsResponse{Points: points})
}

// Nearest answers POST /nearest with the closest point, or the k closest
// ones ordered by distance when k is above one.
func (h *Handler) Nearest(w http.ResponseWriter, r *http.Request) {
	var req api.NearestRequest
	ctx, cancel := h.context(r)
	defer cancel()

	if !httputil.CheckJSONRequest(ctx, w, r, http.MethodPost) ||
		!httputil.DecodeJSON(ctx, w, r, maxBodyBytes, &req) {
		return
	}
	if h.cfg.MaxK > 0 && req.K > h.cfg.MaxK {
		httputil.RespBadRequest(ctx, w, "k is too large, max allowed is %d", h.cfg.MaxK)
		return
	}

	resp := api.NearestResponse{Points: []geom.Point{}}
	if req.K > 1 {
		points, err := h.querier.KNearest(ctx, req.Layer, req.Point, req.K)
		if err != nil {
			httputil.RespLayerErr(ctx, w, err)
			return
		}
		resp.Found, resp.Points = len(points) > 0, points
	} else {
		p, ok, err := h.querier.Nearest(ctx, req.Layer, req.Point)
		if err != nil {
			httputil.RespLayerErr(ctx, w, err)
			return
		}
		if ok {
			resp.Found, resp.Points = true, []geom.Point{p}
		}
	}
	httputil.RespJSON(ctx, w, http.StatusOK, resp)
}

// Within answers POST /within with the points inside a radius.
func (h *Handler) Within(w http.ResponseWriter, r *http.Request) {
	var req api.WithinRequest
	ctx, cancel := h.context(r)
	defer cancel()

	if !httputil.CheckJSONRequest(ctx, w, r, http.MethodPost) ||
		!httputil.DecodeJSON(ctx, w, r, maxBodyBytes, &req) {
		return
	}
	points, err := h.querier.Within(ctx, req.Layer, req.Point, req.Radius, req.Metric)
	if err != nil {
		httputil.RespLayerErr(ctx, w, err)
		return
	}
	httputil.RespJSON(ctx, w, http.StatusOK, api.PointsResponse{Points: points})
}

// Dump answers GET /dump?layer=name with the textual tree structure.
func (h *Handler) Dump(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := h.context(r)
	defer cancel()

	if !httputil.CheckMethod(ctx, w, r, http.MethodGet) {
		return
	}
	buf := byteutil.GetBytesBuf()
	defer byteutil.PutBytesBuf(buf)
	if err := h.querier.Dump(ctx, r.URL.Query().Get("layer"), buf); err != nil {
		httputil.RespLayerErr(ctx, w, err)
		return
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = buf.WriteTo(w)
}

// Layers answers GET /layers with the statistics of every layer.
func (h *Handler) Layers(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := h.context(r)
	defer cancel()

	if !httputil.CheckMethod(ctx, w, r, http.MethodGet) {
		return
	}
	httputil.RespJSON(ctx, w, http.StatusOK, h.querier.Stats(ctx))
}
