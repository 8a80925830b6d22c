package handler

import (
	"net/http"
	"strconv"

	"voteon/internal/service"
	"voteon/pkg/logger"
)

// AuditHandler exposes the audit trail to election officials.
type AuditHandler struct {
	audit  *service.AuditService
	logger *logger.Logger
}

func NewAuditHandler(audit *service.AuditService, log *logger.Logger) *AuditHandler {
	return &AuditHandler{audit: audit, logger: log}
}

// List handles GET /api/v1/audit
func (h *AuditHandler) List(w http.ResponseWriter, r *http.Request) {
	limit := 100
	if raw := r.URL.Query().Get("limit"); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil {
			limit = parsed
		}
	}

	entries, err := h.audit.List(r.Context(), limit)
	if err != nil {
		respondError(w, h.logger, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{"entries": entries})
}
