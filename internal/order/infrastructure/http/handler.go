package http

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	"github.com/acmecommerce/shopflow/internal/order/application"
	"github.com/acmecommerce/shopflow/internal/order/domain"
	"github.com/acmecommerce/shopflow/pkg/apperror"
	"github.com/acmecommerce/shopflow/pkg/httpx"
	"github.com/acmecommerce/shopflow/pkg/idempotency"
)

type Handler struct {
	log     *slog.Logger
	service *application.Service
	idem    *idempotency.Store
	tracer  trace.Tracer
}

// NewHandler builds the order HTTP surface. idem may be nil, in which case
// the Idempotency-Key header is ignored.
func NewHandler(log *slog.Logger, service *application.Service, idem *idempotency.Store) *Handler {
	return &Handler{
		log:     log,
		service: service,
		idem:    idem,
		tracer:  otel.Tracer("order-http"),
	}
}

func (h *Handler) Routes() http.Handler {
	r := chi.NewRouter()
	r.Post("/", h.create)
	r.Get("/", h.list)
	r.Get("/paginated", h.listPaginated)
	r.Get("/order-number/{orderNumber}", h.getByOrderNumber)
	r.Get("/customer/{email}", h.listByCustomer)
	r.Get("/{id}", h.getByID)
	r.Patch("/{id}/status", h.updateStatus)
	r.Delete("/{id}", h.delete)
	return r
}

func pathID(r *http.Request) (int64, error) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		return 0, apperror.Invalid("invalid order id")
	}
	return id, nil
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	ctx, span := h.tracer.Start(r.Context(), "CreateOrder")
	defer span.End()

	var in domain.Input
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		httpx.WriteError(w, apperror.Invalid("invalid request body"))
		return
	}

	idemKey := ""
	if h.idem != nil {
		if k := r.Header.Get("Idempotency-Key"); k != "" {
			idemKey = h.idem.Key(k)
			ok, existing, err := h.idem.Claim(ctx, idemKey)
			if err != nil {
				h.log.Warn("idempotency claim failed, proceeding unguarded", "err", err)
				idemKey = ""
			} else if !ok {
				if existing == "" {
					httpx.WriteJSON(w, http.StatusConflict,
						map[string]string{"error": "request with this idempotency key is already in progress"})
					return
				}
				o, err := h.service.GetByOrderNumber(ctx, existing)
				if err != nil {
					httpx.WriteError(w, err)
					return
				}
				httpx.WriteJSON(w, http.StatusOK, o)
				return
			}
		}
	}

	o, err := h.service.Create(ctx, in)
	if err != nil {
		if idemKey != "" {
			if relErr := h.idem.Release(ctx, idemKey); relErr != nil {
				h.log.Warn("idempotency release failed", "err", relErr)
			}
		}
		httpx.WriteError(w, err)
		return
	}
	if idemKey != "" {
		if err := h.idem.Complete(ctx, idemKey, o.OrderNumber); err != nil {
			h.log.Warn("idempotency complete failed", "order_number", o.OrderNumber, "err", err)
		}
	}
	httpx.WriteJSON(w, http.StatusCreated, o)
}

func (h *Handler) getByID(w http.ResponseWriter, r *http.Request) {
	ctx, span := h.tracer.Start(r.Context(), "GetOrder")
	defer span.End()

	id, err := pathID(r)
	if err != nil {
		httpx.WriteError(w, err)
		return
	}
	o, err := h.service.GetByID(ctx, id)
	if err != nil {
		httpx.WriteError(w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, o)
}

func (h *Handler) getByOrderNumber(w http.ResponseWriter, r *http.Request) {
	ctx, span := h.tracer.Start(r.Context(), "GetOrderByNumber")
	defer span.End()

	o, err := h.service.GetByOrderNumber(ctx, chi.URLParam(r, "orderNumber"))
	if err != nil {
		httpx.WriteError(w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, o)
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	ctx, span := h.tracer.Start(r.Context(), "ListOrders")
	defer span.End()

	os, err := h.service.List(ctx)
	if err != nil {
		httpx.WriteError(w, err)
		return
	}
	if os == nil {
		os = []domain.Order{}
	}
	httpx.WriteJSON(w, http.StatusOK, os)
}

func (h *Handler) listPaginated(w http.ResponseWriter, r *http.Request) {
	ctx, span := h.tracer.Start(r.Context(), "ListOrdersPaginated")
	defer span.End()

	req := httpx.ParsePageRequest(r, "createdAt", true)
	os, total, err := h.service.Page(ctx, application.PageQuery{
		Page:   req.Page,
		Size:   req.Size,
		SortBy: req.SortBy,
		Desc:   req.Desc,
	})
	if err != nil {
		httpx.WriteError(w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, httpx.NewPage(os, req, total))
}

func (h *Handler) listByCustomer(w http.ResponseWriter, r *http.Request) {
	ctx, span := h.tracer.Start(r.Context(), "ListOrdersByCustomer")
	defer span.End()

	req := httpx.ParsePageRequest(r, "createdAt", true)
	os, total, err := h.service.PageByCustomer(ctx, chi.URLParam(r, "email"), req.Page, req.Size)
	if err != nil {
		httpx.WriteError(w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, httpx.NewPage(os, req, total))
}

func (h *Handler) updateStatus(w http.ResponseWriter, r *http.Request) {
	ctx, span := h.tracer.Start(r.Context(), "UpdateOrderStatus")
	defer span.End()

	id, err := pathID(r)
	if err != nil {
		httpx.WriteError(w, err)
		return
	}
	status, err := domain.ParseStatus(r.URL.Query().Get("status"))
	if err != nil {
		httpx.WriteError(w, err)
		return
	}
	o, err := h.service.UpdateStatus(ctx, id, status)
	if err != nil {
		httpx.WriteError(w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, o)
}

func (h *Handler) delete(w http.ResponseWriter, r *http.Request) {
	ctx, span := h.tracer.Start(r.Context(), "DeleteOrder")
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
