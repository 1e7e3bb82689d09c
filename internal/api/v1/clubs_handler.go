package v1

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Prasadchowdar/100CroresClub/internal/api/middleware"
	"github.com/Prasadchowdar/100CroresClub/internal/api/response"
	"github.com/Prasadchowdar/100CroresClub/internal/service"
)

type ClubsHandler struct {
	userService *service.UserService
	tiers       *service.ClubTierTable
}

func NewClubsHandler(userService *service.UserService, tiers *service.ClubTierTable) *ClubsHandler {
	return &ClubsHandler{
		userService: userService,
		tiers:       tiers,
	}
}

func RegisterClubRoutes(group *gin.RouterGroup, userService *service.UserService, tiers *service.ClubTierTable) {
	if userService == nil || tiers == nil {
		return
	}

	handler := NewClubsHandler(userService, tiers)
	clubs := group.Group("/clubs")
	clubs.GET("", handler.List)
	clubs.GET("/status", middleware.JWTAuth(), handler.Status)
}

// List is public so the landing page can render the tier ladder
// without a session.
func (h *ClubsHandler) List(c *gin.Context) {
	response.Success(c, h.tiers.Tiers())
}

func (h *ClubsHandler) Status(c *gin.Context) {
	claims, ok := middleware.GetClaims(c)
	if !ok {
		response.Fail(c, http.StatusUnauthorized, response.ErrUnauthorized, "unauthorized")
		return
	}

	user, err := h.userService.GetByID(c.Request.Context(), claims.UserID)
	if err != nil {
		handleAuthError(c, err)
		return
	}

	response.Success(c, gin.H{
		"club_tier":       user.ClubTier,
		"referrals_count": user.ReferralsCount,
		"tiers":           h.tiers.StatusFor(user.ReferralsCount),
	})
}
