package v1

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/Prasadchowdar/100CroresClub/internal/api/middleware"
	"github.com/Prasadchowdar/100CroresClub/internal/api/response"
	"github.com/Prasadchowdar/100CroresClub/internal/model"
	"github.com/Prasadchowdar/100CroresClub/internal/service"
)

type SettingsHandler struct {
	settingsService *service.SettingsService
}

type setProgramEndDateRequest struct {
	EndDate string `json:"end_date" binding:"required"`
}

type setMaintenanceRequest struct {
	Enabled *bool `json:"enabled" binding:"required"`
}

func NewSettingsHandler(settingsService *service.SettingsService) *SettingsHandler {
	return &SettingsHandler{settingsService: settingsService}
}

func RegisterSettingsRoutes(group *gin.RouterGroup, settingsService *service.SettingsService) {
	if settingsService == nil {
		return
	}

	handler := NewSettingsHandler(settingsService)
	group.GET("/program", handler.GetProgram)

	admin := group.Group("/admin/settings")
	admin.Use(middleware.JWTAuth(), middleware.RequireRole(string(model.UserRoleAdmin)))
	admin.PUT(
		"/program-end-date",
		middleware.AuditLog("settings.program_end_date", "settings"),
		handler.SetProgramEndDate,
	)
	admin.PUT(
		"/maintenance",
		middleware.AuditLog("settings.maintenance", "settings"),
		handler.SetMaintenance,
	)
}

// GetProgram is the public countdown endpoint.
func (h *SettingsHandler) GetProgram(c *gin.Context) {
	endDate, err := h.settingsService.ProgramEndDate(c.Request.Context())
	if err != nil {
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal, "internal error")
		return
	}

	response.Success(c, gin.H{"end_date": endDate})
}

func (h *SettingsHandler) SetProgramEndDate(c *gin.Context) {
	adminID, ok := adminIDFromClaims(c)
	if !ok {
		return
	}

	var req setProgramEndDateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidInput, "invalid request")
		return
	}

	endDate, err := h.settingsService.SetProgramEndDate(c.Request.Context(), adminID, req.EndDate)
	if err != nil {
		handleSettingsError(c, err)
		return
	}

	response.Success(c, gin.H{"end_date": endDate})
}

// SetMaintenance persists the flag and flips the in-process gate so the
// change takes effect without a restart.
func (h *SettingsHandler) SetMaintenance(c *gin.Context) {
	adminID, ok := adminIDFromClaims(c)
	if !ok {
		return
	}

	var req setMaintenanceRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.Enabled == nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidInput, "invalid request")
		return
	}

	if err := h.settingsService.SetMaintenanceMode(c.Request.Context(), adminID, *req.Enabled); err != nil {
		handleSettingsError(c, err)
		return
	}

	middleware.SetMaintenanceMode(*req.Enabled)
	response.Success(c, gin.H{"maintenance_mode": *req.Enabled})
}

func handleSettingsError(c *gin.Context, err error) {
	if err == nil {
		return
	}
	if errors.Is(err, service.ErrInvalidEndDate) {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidEndDate, "invalid program end date")
		return
	}
	response.Fail(c, http.StatusInternalServerError, response.ErrInternal, "internal error")
}

func adminIDFromClaims(c *gin.Context) (uuid.UUID, bool) {
	claims, ok := middleware.GetClaims(c)
	if !ok {
		response.Fail(c, http.StatusUnauthorized, response.ErrUnauthorized, "unauthorized")
		return uuid.Nil, false
	}

	adminID, err := uuid.Parse(claims.UserID)
	if err != nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrUnauthorized, "unauthorized")
		return uuid.Nil, false
	}
	return adminID, true
}
