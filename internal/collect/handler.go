// Package collect serves the write side of the HTTP API.
package collect

import (
	"context"
	"fmt"
	"net/http"

	"github.com/go-sod/sidx/internal/api"
	"github.com/go-sod/sidx/internal/httputil"
	"github.com/go-sod/sidx/internal/layer"
	"github.com/go-sod/sidx/internal/logging"
)

const maxBodyBytes = 64 * 1024 * 1024

func NewHandler(cfg *Config, collector layer.Collector) (*Handler, error) {
	if collector == nil {
		return nil, fmt.Errorf("layer collector is not defined")
	}
	return &Handler{
		collector: collector,
		cfg:       cfg,
	}, nil
}

type Handler struct {
	collector layer.Collector
	cfg       *Config
}

// Register mounts the handler on mux.
func (h *Handler) Register(mux *http.ServeMux) {
	mux.Handle("/points", h)
	mux.HandleFunc("/layer", h.handleDrop)
}

// ServeHTTP inserts the posted points or, for DELETE, removes them.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	var req api.PointsRequest
	ctx, cancel := context.WithTimeout(r.Context(), h.cfg.RequestTimeout)
	defer cancel()
	logger := logging.FromContext(ctx)

	if !httputil.CheckJSONRequest(ctx, w, r, http.MethodPost, http.MethodDelete) {
		return
	}
	if !httputil.DecodeJSON(ctx, w, r, maxBodyBytes, &req) {
		return
	}
	if h.cfg.MaxBatch > 0 && len(req.Points) > h.cfg.MaxBatch {
		httputil.RespBadRequest(ctx, w, "data items is too large, max allowed len is %d", h.cfg.MaxBatch)
		return
	}

	if r.Method == http.MethodDelete {
		removed, err := h.collector.Delete(ctx, req.Layer, req.Points...)
		if err != nil {
			httputil.RespLayerErr(ctx, w, err)
			return
		}
		logger.Infof("Removed %d of %d points from layer %s", removed, len(req.Points), req.Layer)
		httputil.RespJSON(ctx, w, http.StatusOK, api.DeleteResponse{Removed: removed})
		return
	}

	if err := h.collector.Insert(ctx, req.Layer, req.Points...); err != nil {
		httputil.RespLayerErr(ctx, w, err)
		return
	}
	logger.Infof("Collected %d points for layer %s", len(req.Points), req.Layer)
	httputil.RespJSON(ctx, w, http.StatusOK, api.StatusResponse{Status: "ok"})
}

func (h *Handler) handleDrop(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.cfg.RequestTimeout)
	defer cancel()

	if !httputil.CheckMethod(ctx, w, r, http.MethodDelete) {
		return
	}
	name := r.URL.Query().Get("layer")
	if !h.collector.Drop(ctx, name) {
		httputil.RespLayerErr(ctx, w, fmt.Errorf("%w: %s", layer.ErrLayerNotFound, name))
		return
	}
	httputil.RespJSON(ctx, w, http.StatusOK, api.StatusResponse{Status: "ok"})
}
