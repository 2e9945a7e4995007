package api

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/ammar0144/recordsapi/pkg/httpcache"
	"github.com/ammar0144/recordsapi/pkg/query"
	"github.com/ammar0144/recordsapi/pkg/repository"
)

// Resource is a collection exposed under /api/{name}
type Resource interface {
	Name() string
	routes(cached func(http.Handler) http.Handler) chi.Router
}

// idSetter is implemented by models whose primary key can be taken from the URL
type idSetter interface {
	SetID(id uint)
}

// ResourceHandler serves list, detail and write routes of one entity type
type ResourceHandler[T repository.Entity] struct {
	repo   repository.Repository[T]
	logger *slog.Logger
}

// NewResource exposes repo as an API resource named after repo.Resource()
func NewResource[T repository.Entity](repo repository.Repository[T], logger *slog.Logger) *ResourceHandler[T] {
	if logger == nil {
		logger = slog.Default()
	}
	return &ResourceHandler[T]{
		repo:   repo,
		logger: logger.With("resource", repo.Resource()),
	}
}

// Name implements Resource
func (h *ResourceHandler[T]) Name() string {
	return h.repo.Resource()
}

func (h *ResourceHandler[T]) routes(cached func(http.Handler) http.Handler) chi.Router {
	r := chi.NewRouter()

	r.With(cached).Get("/", h.list)
	r.With(cached).Get("/{id}", h.get)

	r.Post("/", h.create)
	r.Put("/{id}", h.update)
	r.Delete("/{id}", h.delete)

	return r
}

func (h *ResourceHandler[T]) list(w http.ResponseWriter, r *http.Request) {
	req, err := query.ParseRequest(r.URL.RawQuery)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	page, err := h.repo.List(r.Context(), req)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	_ = httpcache.JSON(w, http.StatusOK, page)
}

func (h *ResourceHandler[T]) get(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	entity, err := h.repo.FindByID(r.Context(), id)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	_ = httpcache.JSON(w, http.StatusOK, entity)
}

func (h *ResourceHandler[T]) create(w http.ResponseWriter, r *http.Request) {
	var entity T
	if err := decodeBody(w, r, &entity); err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	if err := h.repo.Create(r.Context(), &entity); err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	_ = httpcache.JSON(w, http.StatusCreated, entity)
}

func (h *ResourceHandler[T]) update(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	entity, err := h.repo.FindByID(r.Context(), id)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	// fields missing from the body keep their stored values
	if err := decodeBody(w, r, entity); err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	if s, ok := any(entity).(idSetter); ok {
		s.SetID(id)
	}

	if err := h.repo.Update(r.Context(), entity); err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	_ = httpcache.JSON(w, http.StatusOK, entity)
}

func (h *ResourceHandler[T]) delete(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	if err := h.repo.Delete(r.Context(), id); err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
