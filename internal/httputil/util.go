package httputil

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/go-sod/sidx/internal/layer"
	"github.com/go-sod/sidx/internal/logging"
	"github.com/go-sod/sidx/pkg/geom"
)

const contentTypeJSON = "application/json"

// CheckJSONRequest answers with 405 or 415 and returns false when r does not
// use method or does not carry a JSON body.
func CheckJSONRequest(ctx context.Context, w http.ResponseWriter, r *http.Request, methods ...string) bool {
	if !CheckMethod(ctx, w, r, methods...) {
		return false
	}
	if t := r.Header.Get("content-type"); !strings.HasPrefix(t, contentTypeJSON) {
		RespError(ctx, w, http.StatusUnsupportedMediaType, "content-type is not application/json")
		return false
	}
	return true
}

func CheckMethod(ctx context.Context, w http.ResponseWriter, r *http.Request, methods ...string) bool {
	for _, m := range methods {
		if r.Method == m {
			return true
		}
	}
	w.Header().Set("Allow", strings.Join(methods, ", "))
	RespError(ctx, w, http.StatusMethodNotAllowed, fmt.Sprintf("method %v is not allowed", r.Method))
	return false
}

// DecodeJSON reads at most maxBytes of body into v, answering malformed
// input itself. It returns false when the handler must stop.
func DecodeJSON(ctx context.Context, w http.ResponseWriter, r *http.Request, maxBytes int64, v interface{}) bool {
	defer r.Body.Close()

	r.Body = http.MaxBytesReader(w, r.Body, maxBytes)
	d := json.NewDecoder(r.Body)
	d.DisallowUnknownFields()
	if err := d.Decode(v); err != nil {
		DecodeErr(ctx, w, err)
		return false
	}
	return true
}

func DecodeErr(ctx context.Context, w http.ResponseWriter, err error) {
	var (
		syntaxErr      *json.SyntaxError
		unmarshalError *json.UnmarshalTypeError
		maxBytesErr    *http.MaxBytesError
	)
	switch {
	case errors.As(err, &syntaxErr):
		RespBadRequest(ctx, w, "malformed json at position %v", syntaxErr.Offset)
	case errors.Is(err, io.ErrUnexpectedEOF):
		RespBadRequest(ctx, w, "malformed json")
	case errors.As(err, &unmarshalError):
		RespBadRequest(ctx, w, "invalid value %v at position %v", unmarshalError.Field, unmarshalError.Offset)
	case strings.HasPrefix(err.Error(), "json: unknown field"):
		fieldName := strings.TrimPrefix(err.Error(), "json: unknown field ")
		RespBadRequest(ctx, w, "unknown field %s", fieldName)
	case errors.Is(err, io.EOF):
		RespBadRequest(ctx, w, "body must not be empty")
	case errors.As(err, &maxBytesErr):
		RespError(ctx, w, http.StatusRequestEntityTooLarge, fmt.Sprintf("request body exceeds %d bytes", maxBytesErr.Limit))
	default:
		RespInternalError(ctx, w, "failed to decode json %v", err)
	}
}

// RespLayerErr maps errors of the layer store onto HTTP statuses.
func RespLayerErr(ctx context.Context, w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, layer.ErrLayerNotFound):
		RespError(ctx, w, http.StatusNotFound, err.Error())
	case errors.Is(err, layer.ErrLayerFull):
		RespError(ctx, w, http.StatusConflict, err.Error())
	case errors.Is(err, layer.ErrEmptyName),
		errors.Is(err, layer.ErrNonFinite),
		errors.Is(err, layer.ErrInvalidRect),
		errors.Is(err, layer.ErrInvalidRadius),
		errors.Is(err, geom.ErrUnknownDistance):
		RespBadRequest(ctx, w, "%v", err)
	default:
		RespInternalError(ctx, w, "layer operation failed: %v", err)
	}
}

func RespBadRequest(ctx context.Context, w http.ResponseWriter, format string, args ...interface{}) {
	msg := fmt.Sprintf(format, args...)
	logging.FromContext(ctx).Debug(msg)
	RespError(ctx, w, http.StatusBadRequest, msg)
}

func RespInternalError(ctx context.Context, w http.ResponseWriter, format string, args ...interface{}) {
	logging.FromContext(ctx).Errorf(format, args...)
	RespError(ctx, w, http.StatusInternalServerError, "internal error")
}

// RespError writes {"error": msg} with the given status.
func RespError(ctx context.Context, w http.ResponseWriter, status int, msg string) {
	RespJSON(ctx, w, status, struct {
		Error string `json:"error"`
	}{Error: msg})
}

func RespJSON(ctx context.Context, w http.ResponseWriter, status int, v interface{}) {
	bytes, err := json.Marshal(v)
	if err != nil {
		logging.FromContext(ctx).Errorf("failed to encode output json: %v", err)
		http.Error(w, `{"error": "internal error"}`, http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", contentTypeJSON)
	w.WriteHeader(status)
	_, _ = w.Write(bytes)
}
