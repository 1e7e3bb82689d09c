package v1

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/Prasadchowdar/100CroresClub/internal/api/middleware"
	"github.com/Prasadchowdar/100CroresClub/internal/api/response"
	"github.com/Prasadchowdar/100CroresClub/internal/model"
	"github.com/Prasadchowdar/100CroresClub/internal/service"
)

type AuditHandler struct {
	auditService *service.AuditService
}

func NewAuditHandler(auditService *service.AuditService) *AuditHandler {
	return &AuditHandler{auditService: auditService}
}

func RegisterAuditRoutes(group *gin.RouterGroup, auditService *service.AuditService) {
	if auditService == nil {
		return
	}

	handler := NewAuditHandler(auditService)
	audit := group.Group("/admin/audit-logs")
	audit.Use(middleware.JWTAuth(), middleware.RequireRole(string(model.UserRoleAdmin)))
	audit.GET("", handler.List)
}

func (h *AuditHandler) List(c *gin.Context) {
	page := parseIntOrDefault(c.Query("page"), 1)
	pageSize := parseIntOrDefault(c.Query("page_size"), 20)

	filter := service.AuditFilter{}
	if raw := strings.TrimSpace(c.Query("action")); raw != "" {
		filter.Action = &raw
	}
	if raw := strings.TrimSpace(c.Query("resource_type")); raw != "" {
		filter.ResourceType = &raw
	}
	if raw := strings.TrimSpace(c.Query("actor_type")); raw != "" {
		actorType := model.ActorType(strings.ToLower(raw))
		switch actorType {
		case model.ActorTypeUser, model.ActorTypeAdmin, model.ActorTypeSystem:
			filter.ActorType = &actorType
		default:
			response.Fail(c, http.StatusBadRequest, response.ErrInvalidInput, "invalid actor_type")
			return
		}
	}
	if raw := strings.TrimSpace(c.Query("actor_id")); raw != "" {
		actorID, err := uuid.Parse(raw)
		if err != nil {
			response.Fail(c, http.StatusBadRequest, response.ErrInvalidInput, "invalid actor_id")
			return
		}
		filter.ActorID = &actorID
	}
	if ts, err := parseLogTime(c.Query("start_time")); err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidInput, "invalid start_time")
		return
	} else if !ts.IsZero() {
		filter.StartTime = &ts
	}
	if ts, err := parseLogTime(c.Query("end_time")); err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidInput, "invalid end_time")
		return
	} else if !ts.IsZero() {
		filter.EndTime = &ts
	}

	items, total, err := h.auditService.List(c.Request.Context(), page, pageSize, filter)
	if err != nil {
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal, "internal error")
		return
	}

	response.Paginated(c, items, page, pageSize, total)
}
