package adaptor

import (
	"net/http"
	"strconv"

	"salon-booking/internal/dto/request"
	"salon-booking/internal/usecase"
	"salon-booking/pkg/utils"

	"go.uber.org/zap"
)

type ReconcileHandler struct {
	service usecase.ReconcileService
	log     *zap.Logger
}

func NewReconcileHandler(service usecase.ReconcileService, log *zap.Logger) *ReconcileHandler {
	return &ReconcileHandler{
		service: service,
		log:     log.With(zap.String("handler", "reconcile")),
	}
}

// ListInconsistencies handles GET /api/reconciliation/inconsistencies?include_resolved=&page=&per_page=
func (h *ReconcileHandler) ListInconsistencies(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	includeResolved, _ := strconv.ParseBool(query.Get("include_resolved"))

	req := &request.ListInconsistenciesRequest{
		PaginatedRequest: request.PaginatedRequest{
			Page:    utils.ParseInt(query.Get("page"), 1),
			PerPage: utils.ParseInt(query.Get("per_page"), 20),
		},
		IncludeResolved: includeResolved,
	}

	items, err := h.service.ListInconsistencies(r.Context(), req)
	if err != nil {
		handleServiceError(w, h.log, err, "list inconsistencies")
		return
	}

	utils.ResponseSuccess(w, "success", items)
}

// Repair handles POST /api/reconciliation/repair, running one repair pass
// on demand.
func (h *ReconcileHandler) Repair(w http.ResponseWriter, r *http.Request) {
	repaired, err := h.service.RepairPending(r.Context())
	if err != nil {
		handleServiceError(w, h.log, err, "repair inconsistencies")
		return
	}

	utils.ResponseSuccess(w, "Repair pass finished", map[string]int{"repaired": repaired})
}
