package v1

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/Prasadchowdar/100CroresClub/internal/api/middleware"
	"github.com/Prasadchowdar/100CroresClub/internal/api/response"
	"github.com/Prasadchowdar/100CroresClub/internal/model"
	"github.com/Prasadchowdar/100CroresClub/internal/service"
	systemlog "github.com/Prasadchowdar/100CroresClub/pkg/logger"
)

type SystemHandler struct {
	systemService *service.SystemService
	logStore      *systemlog.SystemLogStore
}

func NewSystemHandler(systemService *service.SystemService, logStore *systemlog.SystemLogStore) *SystemHandler {
	return &SystemHandler{
		systemService: systemService,
		logStore:      logStore,
	}
}

func RegisterSystemRoutes(
	group *gin.RouterGroup,
	systemService *service.SystemService,
	logStore *systemlog.SystemLogStore,
) {
	if systemService == nil {
		return
	}

	handler := NewSystemHandler(systemService, logStore)
	system := group.Group("/admin/system")
	system.Use(middleware.JWTAuth(), middleware.RequireRole(string(model.UserRoleAdmin)))
	system.GET("/status", handler.Status)
	system.GET("/logs", handler.QueryLogs)
}

func (h *SystemHandler) Status(c *gin.Context) {
	response.Success(c, h.systemService.Status(c.Request.Context()))
}

func (h *SystemHandler) QueryLogs(c *gin.Context) {
	if h.logStore == nil {
		response.Fail(c, http.StatusServiceUnavailable, response.ErrInternal, "log store not configured")
		return
	}

	page := parseIntOrDefault(c.Query("page"), 1)
	pageSize := parseIntOrDefault(c.Query("page_size"), 50)

	from, err := parseLogTime(c.Query("from"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidInput, "invalid from")
		return
	}
	to, err := parseLogTime(c.Query("to"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidInput, "invalid to")
		return
	}

	entries, total := h.logStore.QueryLogs(
		c.Query("level"),
		from, to,
		c.Query("keyword"),
		page, pageSize,
	)

	response.Paginated(c, entries, page, pageSize, total)
}

func parseLogTime(raw string) (time.Time, error) {
	value := strings.TrimSpace(raw)
	if value == "" {
		return time.Time{}, nil
	}

	if ts, err := time.Parse(time.RFC3339, value); err == nil {
		return ts.UTC(), nil
	}
	if ts, err := time.Parse("2006-01-02", value); err == nil {
		return ts.UTC(), nil
	}

	return time.Time{}, errors.New("invalid time")
}
