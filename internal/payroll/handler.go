package payroll

import (
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/austral-hr/austral-hr/internal/platform/httpx"
	"github.com/austral-hr/austral-hr/internal/shared"
)

// Handler exposes payroll computation and record maintenance endpoints.
type Handler struct {
	logger   *slog.Logger
	service  *Service
	validate *validator.Validate
}

func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service, validate: validator.New()}
}

// MountRoutes registers payroll routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Post("/preview", h.preview)
	r.Post("/deduplicate", h.deduplicate)
	r.Get("/", h.list)
	r.Get("/{id}", h.get)
	r.Delete("/{id}", h.delete)
}

func (h *Handler) preview(w http.ResponseWriter, r *http.Request) {
	var req PreviewRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Malformed Request", err.Error())
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.Problem(w, http.StatusUnprocessableEntity, "Validation Failed", err.Error())
		return
	}
	if !h.authorize(w, r, req.CompanyID) {
		return
	}
	draft, err := h.service.Preview(r.Context(), req)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, draft)
}

func (h *Handler) deduplicate(w http.ResponseWriter, r *http.Request) {
	var req DeduplicateRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Malformed Request", err.Error())
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.Problem(w, http.StatusUnprocessableEntity, "Validation Failed", err.Error())
		return
	}
	period, err := shared.NewPeriod(req.Year, req.Month)
	if err != nil {
		httpx.Problem(w, http.StatusUnprocessableEntity, "Validation Failed", err.Error())
		return
	}
	if !h.authorize(w, r, req.CompanyID) {
		return
	}
	report, err := h.service.Deduplicate(r.Context(), req.CompanyID, period)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, report)
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	companyID, ok := queryInt64(r, "companyId")
	if !ok {
		httpx.Problem(w, http.StatusBadRequest, "Malformed Request", "companyId required")
		return
	}
	year, _ := queryInt64(r, "year")
	month, _ := queryInt64(r, "month")
	period, err := shared.NewPeriod(int(year), int(month))
	if err != nil {
		httpx.Problem(w, http.StatusUnprocessableEntity, "Validation Failed", err.Error())
		return
	}
	if !h.authorize(w, r, companyID) {
		return
	}
	records, err := h.service.List(r.Context(), companyID, period)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"payrolls": records})
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	companyID, ok := queryInt64(r, "companyId")
	if !ok {
		httpx.Problem(w, http.StatusBadRequest, "Malformed Request", "companyId required")
		return
	}
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Malformed Request", "invalid payroll id")
		return
	}
	if !h.authorize(w, r, companyID) {
		return
	}
	rec, err := h.service.Get(r.Context(), companyID, id)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, rec)
}

func (h *Handler) delete(w http.ResponseWriter, r *http.Request) {
	companyID, ok := queryInt64(r, "companyId")
	if !ok {
		httpx.Problem(w, http.StatusBadRequest, "Malformed Request", "companyId required")
		return
	}
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Malformed Request", "invalid payroll id")
		return
	}
	if !h.authorize(w, r, companyID) {
		return
	}
	if err := h.service.Delete(r.Context(), companyID, id); err != nil {
		h.respondError(w, r, err)
		return
	}
	httpx.NoContent(w)
}

func (h *Handler) respondError(w http.ResponseWriter, r *http.Request, err error) {
	httpx.RespondError(w, h.logger.With(slog.String("path", r.URL.Path)), err)
}

// authorize rejects requests whose forwarded actor belongs to another company.
// A zero actor means the caller came through an unscoped internal channel.
func (h *Handler) authorize(w http.ResponseWriter, r *http.Request, companyID int64) bool {
	actor := shared.ActorFromContext(r.Context())
	if actor.CompanyID != 0 && actor.CompanyID != companyID {
		h.respondError(w, r, fmt.Errorf("%w: company %d", shared.ErrForbidden, companyID))
		return false
	}
	return true
}

func queryInt64(r *http.Request, key string) (int64, bool) {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return 0, false
	}
	v, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}
