package voucher

import (
	"errors"
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

// Handler exposes centralization and voucher lifecycle endpoints.
type Handler struct {
	logger   *slog.Logger
	service  *Service
	validate *validator.Validate
}

func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service, validate: validator.New()}
}

// MountCentralizationRoutes registers the payroll-batch operations.
func (h *Handler) MountCentralizationRoutes(r chi.Router) {
	r.Post("/commit", h.commit)
	r.Post("/centralize", h.centralize)
	r.Post("/undo", h.undo)
}

// MountVoucherRoutes registers voucher lifecycle routes.
func (h *Handler) MountVoucherRoutes(r chi.Router) {
	r.Get("/", h.list)
	r.Get("/{id}", h.get)
	r.Post("/{id}/post", h.post)
	r.Post("/{id}/reverse", h.reverse)
	r.Delete("/{id}", h.delete)
}

func (h *Handler) commit(w http.ResponseWriter, r *http.Request) {
	var req CommitRequest
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
	result, err := h.service.Commit(r.Context(), req)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, result)
}

func (h *Handler) centralize(w http.ResponseWriter, r *http.Request) {
	var req CentralizeRequest
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
	result, err := h.service.CentralizeExisting(r.Context(), req)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, result)
}

func (h *Handler) undo(w http.ResponseWriter, r *http.Request) {
	var req UndoRequest
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
	result, err := h.service.UndoCentralization(r.Context(), req.CompanyID, period)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, result)
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
	vouchers, err := h.service.List(r.Context(), companyID, period)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"vouchers": vouchers})
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	companyID, id, ok := h.scopedID(w, r)
	if !ok {
		return
	}
	v, err := h.service.Get(r.Context(), companyID, id)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, v)
}

func (h *Handler) post(w http.ResponseWriter, r *http.Request) {
	companyID, id, ok := h.scopedID(w, r)
	if !ok {
		return
	}
	v, err := h.service.Post(r.Context(), companyID, id)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, v)
}

func (h *Handler) reverse(w http.ResponseWriter, r *http.Request) {
	companyID, id, ok := h.scopedID(w, r)
	if !ok {
		return
	}
	var req ReverseRequest
	if r.ContentLength > 0 {
		if err := httpx.DecodeJSON(r, &req); err != nil {
			httpx.Problem(w, http.StatusBadRequest, "Malformed Request", err.Error())
			return
		}
	}
	req.CompanyID = companyID
	req.VoucherID = id
	v, err := h.service.Reverse(r.Context(), req)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, v)
}

func (h *Handler) delete(w http.ResponseWriter, r *http.Request) {
	companyID, id, ok := h.scopedID(w, r)
	if !ok {
		return
	}
	if err := h.service.Delete(r.Context(), companyID, id); err != nil {
		h.respondError(w, r, err)
		return
	}
	httpx.NoContent(w)
}

func (h *Handler) scopedID(w http.ResponseWriter, r *http.Request) (int64, uuid.UUID, bool) {
	companyID, ok := queryInt64(r, "companyId")
	if !ok {
		httpx.Problem(w, http.StatusBadRequest, "Malformed Request", "companyId required")
		return 0, uuid.Nil, false
	}
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Malformed Request", "invalid voucher id")
		return 0, uuid.Nil, false
	}
	if !h.authorize(w, r, companyID) {
		return 0, uuid.Nil, false
	}
	return companyID, id, true
}

func (h *Handler) respondError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, ErrUnbalanced):
		httpx.Problem(w, http.StatusConflict, "Unbalanced Voucher", err.Error())
	case errors.Is(err, ErrInvalidStatus), errors.Is(err, ErrPayrollReversal), errors.Is(err, ErrAlreadyCentralized):
		httpx.Problem(w, http.StatusConflict, "Invalid Transition", err.Error())
	default:
		httpx.RespondError(w, h.logger.With(slog.String("path", r.URL.Path)), err)
	}
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
