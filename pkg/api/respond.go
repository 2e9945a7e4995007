package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/ammar0144/recordsapi/pkg/httpcache"
	"github.com/ammar0144/recordsapi/pkg/query"
	"github.com/ammar0144/recordsapi/pkg/repository"
)

const maxBodyBytes = 1 << 20

var errBadRequest = errors.New("bad request")

type errorBody struct {
	Error string `json:"error"`
}

// writeError maps err onto a status code. Validation failures are the
// client's fault and carry their message; anything else is logged and hidden.
func writeError(w http.ResponseWriter, r *http.Request, logger *slog.Logger, err error) {
	status := http.StatusInternalServerError
	msg := http.StatusText(status)

	switch {
	case query.IsClientError(err), errors.Is(err, errBadRequest):
		status = http.StatusBadRequest
		msg = err.Error()
	case repository.IsNotFound(err):
		status = http.StatusNotFound
		msg = err.Error()
	default:
		logger.Error("request failed",
			"method", r.Method,
			"path", r.URL.Path,
			"error", err,
		)
	}

	_ = httpcache.JSON(w, status, errorBody{Error: msg})
}

func parseID(r *http.Request) (uint, error) {
	raw := chi.URLParam(r, "id")
	id, err := strconv.ParseUint(raw, 10, strconv.IntSize)
	if err != nil || id == 0 {
		return 0, fmt.Errorf("%w: invalid id %q", errBadRequest, raw)
	}
	return uint(id), nil
}

func decodeBody(w http.ResponseWriter, r *http.Request, dest any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dest); err != nil {
		return fmt.Errorf("%w: invalid request body: %v", errBadRequest, err)
	}
	return nil
}
