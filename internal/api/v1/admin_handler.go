package v1

import (
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/Prasadchowdar/100CroresClub/internal/api/middleware"
	"github.com/Prasadchowdar/100CroresClub/internal/api/response"
	inputsanitize "github.com/Prasadchowdar/100CroresClub/internal/api/sanitize"
	"github.com/Prasadchowdar/100CroresClub/internal/model"
	"github.com/Prasadchowdar/100CroresClub/internal/service"
)

type AdminHandler struct {
	adminService *service.AdminService
	userService  *service.UserService
}

type adminSignupRequest struct {
	FullName string `json:"full_name" binding:"required"`
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type adminLoginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type verifyOTPRequest struct {
	OTPCode string `json:"otp_code" binding:"required"`
}

type changePasswordRequest struct {
	OTPCode     string `json:"otp_code" binding:"required"`
	NewPassword string `json:"new_password" binding:"required"`
}

type changeEmailRequest struct {
	OTPCode  string `json:"otp_code" binding:"required"`
	NewEmail string `json:"new_email" binding:"required"`
}

func NewAdminHandler(adminService *service.AdminService, userService *service.UserService) *AdminHandler {
	return &AdminHandler{
		adminService: adminService,
		userService:  userService,
	}
}

func RegisterAdminRoutes(group *gin.RouterGroup, adminService *service.AdminService, userService *service.UserService) {
	if adminService == nil || userService == nil {
		return
	}

	handler := NewAdminHandler(adminService, userService)
	admin := group.Group("/admin")
	admin.POST(
		"/signup",
		middleware.RateLimit("ip", 3, time.Minute),
		handler.Signup,
	)
	admin.POST(
		"/login",
		middleware.RateLimit("ip", 5, time.Minute),
		middleware.RateLimitByJSONField("email", 10, time.Minute),
		handler.Login,
	)

	gated := admin.Group("")
	gated.Use(middleware.JWTAuth(), middleware.RequireRole(string(model.UserRoleAdmin)))
	gated.GET("/me", handler.Me)
	gated.GET("/users", handler.ListUsers)
	gated.GET("/users/:id", handler.GetUser)
	gated.POST(
		"/otp/send",
		middleware.RateLimit("user_id", 3, time.Minute),
		handler.SendOTP,
	)
	gated.POST("/otp/verify", handler.VerifyOTP)
	gated.POST(
		"/password",
		middleware.AuditLog("admin.change_password", "admin"),
		handler.ChangePassword,
	)
	gated.POST(
		"/email",
		middleware.AuditLog("admin.change_email", "admin"),
		handler.ChangeEmail,
	)
}

func (h *AdminHandler) Signup(c *gin.Context) {
	var req adminSignupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidInput, "invalid request")
		return
	}

	admin, token, err := h.adminService.Signup(c.Request.Context(), service.AdminSignupRequest{
		FullName: inputsanitize.Strict(req.FullName),
		Email:    inputsanitize.Text(req.Email),
		Password: req.Password,
	})
	if err != nil {
		handleAdminError(c, err)
		return
	}

	setSecureCookie(c, accessTokenCookieName, token, int(accessTokenTTL.Seconds()))
	response.Success(c, gin.H{
		"admin":        admin,
		"access_token": token,
	})
}

func (h *AdminHandler) Login(c *gin.Context) {
	var req adminLoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidInput, "invalid request")
		return
	}

	admin, token, err := h.adminService.Login(c.Request.Context(), inputsanitize.Text(req.Email), req.Password)
	if err != nil {
		handleAdminError(c, err)
		return
	}

	setSecureCookie(c, accessTokenCookieName, token, int(accessTokenTTL.Seconds()))
	response.Success(c, gin.H{
		"admin":        admin,
		"access_token": token,
	})
}

func (h *AdminHandler) Me(c *gin.Context) {
	claims, ok := middleware.GetClaims(c)
	if !ok {
		response.Fail(c, http.StatusUnauthorized, response.ErrUnauthorized, "unauthorized")
		return
	}

	admin, err := h.adminService.GetByID(c.Request.Context(), claims.UserID)
	if err != nil {
		handleAdminError(c, err)
		return
	}

	response.Success(c, admin)
}

func (h *AdminHandler) ListUsers(c *gin.Context) {
	page := parseIntOrDefault(c.Query("page"), 1)
	pageSize := parseIntOrDefault(c.Query("page_size"), 20)

	var filters []service.UserFilter
	if keyword := strings.TrimSpace(c.Query("keyword")); keyword != "" {
		filters = append(filters, service.ByKeyword(inputsanitize.Strict(keyword)))
	}
	if raw := strings.TrimSpace(c.Query("referred_by")); raw != "" {
		referrerID, err := uuid.Parse(raw)
		if err != nil {
			response.Fail(c, http.StatusBadRequest, response.ErrInvalidInput, "invalid referred_by")
			return
		}
		filters = append(filters, service.ByReferrer(referrerID))
	}
	if raw := strings.TrimSpace(c.Query("min_tier")); raw != "" {
		tier, err := strconv.Atoi(raw)
		if err != nil || tier < 0 {
			response.Fail(c, http.StatusBadRequest, response.ErrInvalidInput, "invalid min_tier")
			return
		}
		filters = append(filters, service.ByMinTier(tier))
	}

	users, total, err := h.userService.List(c.Request.Context(), page, pageSize, filters...)
	if err != nil {
		handleAdminError(c, err)
		return
	}

	response.Paginated(c, users, page, pageSize, total)
}

func (h *AdminHandler) GetUser(c *gin.Context) {
	user, err := h.userService.GetByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		handleAuthError(c, err)
		return
	}

	response.Success(c, user)
}

// SendOTP issues a fresh code for the calling admin. The code itself
// never leaves the server; only the expiry is returned.
func (h *AdminHandler) SendOTP(c *gin.Context) {
	claims, ok := middleware.GetClaims(c)
	if !ok {
		response.Fail(c, http.StatusUnauthorized, response.ErrUnauthorized, "unauthorized")
		return
	}

	otp, err := h.adminService.SendOTP(c.Request.Context(), claims.UserID)
	if err != nil {
		handleAdminError(c, err)
		return
	}

	response.Success(c, gin.H{
		"message":    "otp sent",
		"expires_at": otp.ExpiresAt,
	})
}

func (h *AdminHandler) VerifyOTP(c *gin.Context) {
	claims, ok := middleware.GetClaims(c)
	if !ok {
		response.Fail(c, http.StatusUnauthorized, response.ErrUnauthorized, "unauthorized")
		return
	}

	var req verifyOTPRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidInput, "invalid request")
		return
	}

	if err := h.adminService.VerifyOTP(c.Request.Context(), claims.UserID, req.OTPCode); err != nil {
		handleAdminError(c, err)
		return
	}

	response.Success(c, gin.H{"valid": true})
}

func (h *AdminHandler) ChangePassword(c *gin.Context) {
	claims, ok := middleware.GetClaims(c)
	if !ok {
		response.Fail(c, http.StatusUnauthorized, response.ErrUnauthorized, "unauthorized")
		return
	}

	var req changePasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidInput, "invalid request")
		return
	}

	if err := h.adminService.ChangePassword(c.Request.Context(), claims.UserID, req.OTPCode, req.NewPassword); err != nil {
		handleAdminError(c, err)
		return
	}

	clearCookie(c, accessTokenCookieName)
	response.Success(c, gin.H{"message": "password changed"})
}

func (h *AdminHandler) ChangeEmail(c *gin.Context) {
	claims, ok := middleware.GetClaims(c)
	if !ok {
		response.Fail(c, http.StatusUnauthorized, response.ErrUnauthorized, "unauthorized")
		return
	}

	var req changeEmailRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidInput, "invalid request")
		return
	}

	if err := h.adminService.ChangeEmail(c.Request.Context(), claims.UserID, req.OTPCode, inputsanitize.Text(req.NewEmail)); err != nil {
		handleAdminError(c, err)
		return
	}

	response.Success(c, gin.H{"message": "email changed"})
}

func handleAdminError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrInvalidCredentials):
		response.Fail(c, http.StatusUnauthorized, response.ErrPasswordWrong, "email or password incorrect")
	case errors.Is(err, service.ErrAdminNotFound):
		response.Fail(c, http.StatusNotFound, response.ErrAdminNotFound, "admin not found")
	case errors.Is(err, service.ErrEmailTaken):
		response.Fail(c, http.StatusConflict, response.ErrEmailTaken, "email already registered")
	case errors.Is(err, service.ErrOTPInvalid):
		response.Fail(c, http.StatusForbidden, response.ErrOTPInvalid, "otp invalid or expired")
	case errors.Is(err, service.ErrInvalidAdminInput):
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidInput, "invalid admin input")
	case errors.Is(err, service.ErrInvalidUserID):
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidInput, "invalid request")
	default:
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal, "internal error")
	}
}

func parseIntOrDefault(raw string, def int) int {
	if strings.TrimSpace(raw) == "" {
		return def
	}
	value, err := strconv.Atoi(raw)
	if err != nil || value <= 0 {
		return def
	}
	return value
}
