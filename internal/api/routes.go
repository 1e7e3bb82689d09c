package api

import (
	"github.com/gin-gonic/gin"

	v1 "github.com/Prasadchowdar/100CroresClub/internal/api/v1"
	"github.com/Prasadchowdar/100CroresClub/internal/service"
	systemlog "github.com/Prasadchowdar/100CroresClub/pkg/logger"
)

// Services bundles everything the HTTP layer needs. Nil entries are
// skipped so partial wiring in tests stays cheap.
type Services struct {
	Auth     *service.AuthService
	Referral *service.ReferralService
	Points   *service.PointsService
	Users    *service.UserService
	Admin    *service.AdminService
	Audit    *service.AuditService
	Settings *service.SettingsService
	System   *service.SystemService
	Tiers    *service.ClubTierTable
	LogStore *systemlog.SystemLogStore
}

func RegisterV1Routes(group *gin.RouterGroup, svcs Services) {
	v1.RegisterAuthRoutes(group, svcs.Auth)
	v1.RegisterReferralRoutes(group, svcs.Referral)
	v1.RegisterPointsRoutes(group, svcs.Points)
	v1.RegisterClubRoutes(group, svcs.Users, svcs.Tiers)
	v1.RegisterSettingsRoutes(group, svcs.Settings)
	v1.RegisterAdminRoutes(group, svcs.Admin, svcs.Users)
	v1.RegisterAuditRoutes(group, svcs.Audit)
	v1.RegisterSystemRoutes(group, svcs.System, svcs.LogStore)
}
