package integration

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	productapp "github.com/acmecommerce/shopflow/internal/product/application"
	"github.com/acmecommerce/shopflow/pkg/apperror"
	"github.com/acmecommerce/shopflow/pkg/httpx"
)

type Handler struct {
	log      *slog.Logger
	client   *Client
	products *productapp.Service
	tracer   trace.Tracer
}

func NewHandler(log *slog.Logger, client *Client, products *productapp.Service) *Handler {
	return &Handler{
		log:      log,
		client:   client,
		products: products,
		tracer:   otel.Tracer("integration-http"),
	}
}

func (h *Handler) Routes() http.Handler {
	r := chi.NewRouter()
	r.Get("/external-posts", h.externalPosts)
	r.Get("/external-post/{id}", h.externalPost)
	r.Get("/product-with-external/{id}", h.productWithExternal)
	return r
}

func (h *Handler) externalPosts(w http.ResponseWriter, r *http.Request) {
	ctx, span := h.tracer.Start(r.Context(), "FetchExternalPosts")
	defer span.End()

	posts, err := h.client.FetchPosts(ctx)
	if err != nil {
		h.log.Error("external posts fetch failed", "err", err)
		httpx.WriteError(w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, map[string]any{
		"source":     "External API (JSONPlaceholder)",
		"totalPosts": len(posts),
		"posts":      posts,
		"message":    "Data fetched from external API successfully",
	})
}

func (h *Handler) externalPost(w http.ResponseWriter, r *http.Request) {
	ctx, span := h.tracer.Start(r.Context(), "FetchExternalPost")
	defer span.End()

	id, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil {
		httpx.WriteError(w, apperror.Invalid("invalid post id"))
		return
	}
	post, err := h.client.FetchPostByID(ctx, id)
	if err != nil {
		h.log.Error("external post fetch failed", "post_id", id, "err", err)
		httpx.WriteError(w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, post)
}

func (h *Handler) productWithExternal(w http.ResponseWriter, r *http.Request) {
	ctx, span := h.tracer.Start(r.Context(), "ProductWithExternal")
	defer span.End()

	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		httpx.WriteError(w, apperror.Invalid("invalid product id"))
		return
	}
	product, err := h.products.GetByID(ctx, id)
	if err != nil {
		httpx.WriteError(w, err)
		return
	}
	// The external record id mirrors the product id so the combined view
	// stays deterministic.
	post, err := h.client.FetchPostByID(ctx, int(id))
	if err != nil {
		httpx.WriteError(w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, map[string]any{
		"product":      product,
		"externalData": post,
		"message":      "Product data combined with external API data",
	})
}
