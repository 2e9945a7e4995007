package httpcache

import (
	"encoding/json"
	"net/http"

	"github.com/ammar0144/recordsapi/pkg/cache"
)

const contentTypeJSON = "application/json; charset=utf-8"

// kindRecorder is implemented by the capturing writer so the response path a
// handler used is known when the entry is stored.
type kindRecorder interface {
	recordKind(kind cache.ContentKind)
}

// JSON writes v as a JSON body. Handlers behind Wrap should use JSON or Raw so
// that hits are replayed through the same path.
func JSON(w http.ResponseWriter, status int, v any) error {
	body, err := json.Marshal(v)
	if err != nil {
		return err
	}
	if rec, ok := w.(kindRecorder); ok {
		rec.recordKind(cache.KindJSON)
	}
	w.Header().Set("Content-Type", contentTypeJSON)
	w.WriteHeader(status)
	_, err = w.Write(body)
	return err
}

// Raw writes body verbatim with the given content type
func Raw(w http.ResponseWriter, status int, contentType string, body []byte) error {
	if rec, ok := w.(kindRecorder); ok {
		rec.recordKind(cache.KindRaw)
	}
	if contentType != "" {
		w.Header().Set("Content-Type", contentType)
	}
	w.WriteHeader(status)
	_, err := w.Write(body)
	return err
}

// replay writes a cached entry back through the path that produced it
func replay(w http.ResponseWriter, e cache.Entry) {
	switch e.Kind {
	case cache.KindJSON:
		ct := e.ContentType
		if ct == "" {
			ct = contentTypeJSON
		}
		w.Header().Set("Content-Type", ct)
		w.WriteHeader(e.Status)
		_, _ = w.Write(e.Payload)
	default:
		_ = Raw(w, e.Status, e.ContentType, e.Payload)
	}
}
