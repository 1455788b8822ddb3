package http

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	"github.com/acmecommerce/shopflow/internal/product/application"
	"github.com/acmecommerce/shopflow/internal/product/domain"
	"github.com/acmecommerce/shopflow/pkg/apperror"
	"github.com/acmecommerce/shopflow/pkg/httpx"
)

type Handler struct {
	log     *slog.Logger
	service *application.Service
	tracer  trace.Tracer
}

func NewHandler(log *slog.Logger, service *application.Service) *Handler {
	return &Handler{
		log:     log,
		service: service,
		tracer:  otel.Tracer("product-http"),
	}
}

func (h *Handler) Routes() http.Handler {
	r := chi.NewRouter()
	r.Post("/", h.create)
	r.Get("/", h.list)
	r.Get("/paginated", h.listPaginated)
	r.Get("/active", h.listActive)
	r.Get("/search", h.search)
	r.Get("/{id}", h.getByID)
	r.Put("/{id}", h.update)
	r.Delete("/{id}", h.delete)
	return r
}

func pathID(r *http.Request) (int64, error) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		return 0, apperror.Invalid("invalid product id")
	}
	return id, nil
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	ctx, span := h.tracer.Start(r.Context(), "CreateProduct")
	defer span.End()

	var in domain.Input
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		httpx.WriteError(w, apperror.Invalid("invalid request body"))
		return
	}
	p, err := h.service.Create(ctx, in)
	if err != nil {
		httpx.WriteError(w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusCreated, p)
}

func (h *Handler) getByID(w http.ResponseWriter, r *http.Request) {
	ctx, span := h.tracer.Start(r.Context(), "GetProduct")
	defer span.End()

	id, err := pathID(r)
	if err != nil {
		httpx.WriteError(w, err)
		return
	}
	p, err := h.service.GetByID(ctx, id)
	if err != nil {
		httpx.WriteError(w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, p)
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	ctx, span := h.tracer.Start(r.Context(), "ListProducts")
	defer span.End()

	ps, err := h.service.List(ctx)
	if err != nil {
		httpx.WriteError(w, err)
		return
	}
	if ps == nil {
		ps = []domain.Product{}
	}
	httpx.WriteJSON(w, http.StatusOK, ps)
}

func (h *Handler) listPaginated(w http.ResponseWriter, r *http.Request) {
	ctx, span := h.tracer.Start(r.Context(), "ListProductsPaginated")
	defer span.End()

	req := httpx.ParsePageRequest(r, "id", false)
	ps, total, err := h.service.Page(ctx, pageQuery(req, false))
	if err != nil {
		httpx.WriteError(w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, httpx.NewPage(ps, req, total))
}

func (h *Handler) listActive(w http.ResponseWriter, r *http.Request) {
	ctx, span := h.tracer.Start(r.Context(), "ListActiveProducts")
	defer span.End()

	req := httpx.ParsePageRequest(r, "id", false)
	ps, total, err := h.service.Page(ctx, pageQuery(req, true))
	if err != nil {
		httpx.WriteError(w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, httpx.NewPage(ps, req, total))
}

func (h *Handler) search(w http.ResponseWriter, r *http.Request) {
	ctx, span := h.tracer.Start(r.Context(), "SearchProducts")
	defer span.End()

	req := httpx.ParsePageRequest(r, "id", false)
	ps, total, err := h.service.Search(ctx, r.URL.Query().Get("keyword"), pageQuery(req, false))
	if err != nil {
		httpx.WriteError(w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, httpx.NewPage(ps, req, total))
}

func (h *Handler) update(w http.ResponseWriter, r *http.Request) {
	ctx, span := h.tracer.Start(r.Context(), "UpdateProduct")
	defer span.End()

	id, err := pathID(r)
	if err != nil {
		httpx.WriteError(w, err)
		return
	}
	var in domain.Input
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		httpx.WriteError(w, apperror.Invalid("invalid request body"))
		return
	}
	p, err := h.service.Update(ctx, id, in)
	if err != nil {
		httpx.WriteError(w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, p)
}

func (h *Handler) delete(w http.ResponseWriter, r *http.Request) {
	ctx, span := h.tracer.Start(r.Context(), "DeleteProduct")
	defer span.End()

	id, err := pathID(r)
	if err != nil {
		httpx.WriteError(w, err)
		return
	}
	if err := h.service.Delete(ctx, id); err != nil {
		httpx.WriteError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func pageQuery(req httpx.PageRequest, onlyActive bool) application.PageQuery {
	return application.PageQuery{
		Page:       req.Page,
		Size:       req.Size,
		SortBy:     req.SortBy,
		Desc:       req.Desc,
		OnlyActive: onlyActive,
	}
}
