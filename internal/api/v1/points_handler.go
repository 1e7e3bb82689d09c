package v1

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/Prasadchowdar/100CroresClub/internal/api/middleware"
	"github.com/Prasadchowdar/100CroresClub/internal/api/response"
	"github.com/Prasadchowdar/100CroresClub/internal/service"
)

type PointsHandler struct {
	pointsService *service.PointsService
}

func NewPointsHandler(pointsService *service.PointsService) *PointsHandler {
	return &PointsHandler{pointsService: pointsService}
}

func RegisterPointsRoutes(group *gin.RouterGroup, pointsService *service.PointsService) {
	if pointsService == nil {
		return
	}

	handler := NewPointsHandler(pointsService)
	points := group.Group("/points")
	points.Use(middleware.JWTAuth())
	points.GET("", handler.Summary)
	points.POST(
		"/claim-daily",
		middleware.RateLimit("user_id", 10, time.Minute),
		middleware.AuditLog("points.claim_daily", "points"),
		handler.ClaimDaily,
	)
	points.GET("/cooldown", handler.Cooldown)
}

func (h *PointsHandler) Summary(c *gin.Context) {
	claims, ok := middleware.GetClaims(c)
	if !ok {
		response.Fail(c, http.StatusUnauthorized, response.ErrUnauthorized, "unauthorized")
		return
	}

	summary, err := h.pointsService.Summary(c.Request.Context(), claims.UserID)
	if err != nil {
		handleAuthError(c, err)
		return
	}

	response.Success(c, summary)
}

// ClaimDaily always answers 200. A claim inside the current reward day
// returns awarded=false with the remaining cooldown instead of failing.
func (h *PointsHandler) ClaimDaily(c *gin.Context) {
	claims, ok := middleware.GetClaims(c)
	if !ok {
		response.Fail(c, http.StatusUnauthorized, response.ErrUnauthorized, "unauthorized")
		return
	}

	result, err := h.pointsService.ClaimDaily(c.Request.Context(), claims.UserID)
	if err != nil {
		handleAuthError(c, err)
		return
	}

	response.Success(c, result)
}

func (h *PointsHandler) Cooldown(c *gin.Context) {
	claims, ok := middleware.GetClaims(c)
	if !ok {
		response.Fail(c, http.StatusUnauthorized, response.ErrUnauthorized, "unauthorized")
		return
	}

	info, err := h.pointsService.Cooldown(c.Request.Context(), claims.UserID)
	if err != nil {
		handleAuthError(c, err)
		return
	}

	response.Success(c, info)
}
