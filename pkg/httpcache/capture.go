package httpcache

import (
	"bytes"
	"mime"
	"net/http"

	"github.com/ammar0144/recordsapi/pkg/cache"
)

// captureWriter forwards a response to the client unchanged while keeping a
// copy of its status and body.
type captureWriter struct {
	http.ResponseWriter
	status      int
	wroteHeader bool
	kind        cache.ContentKind
	body        bytes.Buffer
}

func newCaptureWriter(w http.ResponseWriter) *captureWriter {
	return &captureWriter{ResponseWriter: w, status: http.StatusOK}
}

func (cw *captureWriter) recordKind(kind cache.ContentKind) {
	cw.kind = kind
}

func (cw *captureWriter) WriteHeader(code int) {
	if cw.wroteHeader {
		return
	}
	cw.status = code
	cw.wroteHeader = true
	cw.ResponseWriter.WriteHeader(code)
}

func (cw *captureWriter) Write(b []byte) (int, error) {
	if !cw.wroteHeader {
		cw.WriteHeader(http.StatusOK)
	}
	cw.body.Write(b)
	return cw.ResponseWriter.Write(b)
}

// Unwrap lets http.ResponseController reach the underlying writer
func (cw *captureWriter) Unwrap() http.ResponseWriter {
	return cw.ResponseWriter
}

// contentKind returns the recorded path, falling back to the content type for
// handlers that wrote to the ResponseWriter directly.
func (cw *captureWriter) contentKind() cache.ContentKind {
	if cw.kind != "" {
		return cw.kind
	}
	mt, _, err := mime.ParseMediaType(cw.Header().Get("Content-Type"))
	if err == nil && mt == "application/json" {
		return cache.KindJSON
	}
	return cache.KindRaw
}

func (cw *captureWriter) entry(key string) cache.Entry {
	return cache.NewEntry(key, cw.status, cw.contentKind(), cw.Header().Get("Content-Type"), cw.body.Bytes(), 0)
}
