package v1

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/Prasadchowdar/100CroresClub/internal/api/middleware"
	"github.com/Prasadchowdar/100CroresClub/internal/api/response"
	inputsanitize "github.com/Prasadchowdar/100CroresClub/internal/api/sanitize"
	"github.com/Prasadchowdar/100CroresClub/internal/service"
)

type ReferralHandler struct {
	referralService *service.ReferralService
}

type applyReferralRequest struct {
	ReferralCode string `json:"referral_code" binding:"required"`
}

func NewReferralHandler(referralService *service.ReferralService) *ReferralHandler {
	return &ReferralHandler{referralService: referralService}
}

func RegisterReferralRoutes(group *gin.RouterGroup, referralService *service.ReferralService) {
	if referralService == nil {
		return
	}

	handler := NewReferralHandler(referralService)
	referrals := group.Group("/referrals")
	referrals.Use(middleware.JWTAuth())
	referrals.POST(
		"/apply",
		middleware.RateLimit("user_id", 10, time.Minute),
		middleware.AuditLog("referral.apply", "referral"),
		handler.Apply,
	)
	referrals.GET("/stats", handler.Stats)
}

// Apply links the caller to the owner of the submitted code. Guard
// outcomes (unknown code, own code, already referred) come back as a
// 200 with success=false rather than an error status.
func (h *ReferralHandler) Apply(c *gin.Context) {
	claims, ok := middleware.GetClaims(c)
	if !ok {
		response.Fail(c, http.StatusUnauthorized, response.ErrUnauthorized, "unauthorized")
		return
	}

	var req applyReferralRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidInput, "invalid request")
		return
	}

	result, err := h.referralService.Apply(c.Request.Context(), claims.UserID, inputsanitize.Text(req.ReferralCode))
	if err != nil {
		handleAuthError(c, err)
		return
	}

	response.Success(c, result)
}

func (h *ReferralHandler) Stats(c *gin.Context) {
	claims, ok := middleware.GetClaims(c)
	if !ok {
		response.Fail(c, http.StatusUnauthorized, response.ErrUnauthorized, "unauthorized")
		return
	}

	stats, err := h.referralService.Stats(c.Request.Context(), claims.UserID)
	if err != nil {
		handleAuthError(c, err)
		return
	}

	response.Success(c, stats)
}
