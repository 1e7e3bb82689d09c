package v1

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/Prasadchowdar/100CroresClub/internal/api/middleware"
	"github.com/Prasadchowdar/100CroresClub/internal/api/response"
	inputsanitize "github.com/Prasadchowdar/100CroresClub/internal/api/sanitize"
	"github.com/Prasadchowdar/100CroresClub/internal/service"
)

const (
	accessTokenCookieName = "access_token"
	accessTokenTTL        = 24 * time.Hour
)

type AuthHandler struct {
	authService *service.AuthService
}

type signupRequest struct {
	Phone        string `json:"phone" binding:"required"`
	Password     string `json:"password" binding:"required"`
	Name         string `json:"name" binding:"required"`
	ReferralCode string `json:"referral_code"`
}

type loginRequest struct {
	Phone    string `json:"phone" binding:"required"`
	Password string `json:"password" binding:"required"`
}

func NewAuthHandler(authService *service.AuthService) *AuthHandler {
	return &AuthHandler{authService: authService}
}

func RegisterAuthRoutes(group *gin.RouterGroup, authService *service.AuthService) {
	if authService == nil {
		return
	}

	handler := NewAuthHandler(authService)
	auth := group.Group("/auth")
	auth.POST(
		"/signup",
		middleware.RateLimit("ip", 5, time.Minute),
		middleware.RateLimitByJSONField("phone", 3, time.Minute),
		handler.Signup,
	)
	auth.POST(
		"/login",
		middleware.RateLimit("ip", 5, time.Minute),
		middleware.RateLimitByJSONField("phone", 10, time.Minute),
		handler.Login,
	)
	auth.POST("/logout", handler.Logout)
	auth.GET("/me", middleware.JWTAuth(), handler.Me)
}

func (h *AuthHandler) Signup(c *gin.Context) {
	var req signupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidInput, "invalid request")
		return
	}

	user, token, err := h.authService.Signup(c.Request.Context(), service.SignupRequest{
		Phone:        inputsanitize.Text(req.Phone),
		Password:     req.Password,
		Name:         inputsanitize.Strict(req.Name),
		ReferralCode: inputsanitize.Text(req.ReferralCode),
	})
	if err != nil {
		handleAuthError(c, err)
		return
	}

	setSecureCookie(c, accessTokenCookieName, token, int(accessTokenTTL.Seconds()))
	response.Success(c, gin.H{
		"user":         user,
		"access_token": token,
	})
}

func (h *AuthHandler) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidInput, "invalid request")
		return
	}

	user, token, err := h.authService.Login(
		c.Request.Context(),
		inputsanitize.Text(req.Phone),
		req.Password,
	)
	if err != nil {
		handleAuthError(c, err)
		return
	}

	setSecureCookie(c, accessTokenCookieName, token, int(accessTokenTTL.Seconds()))
	response.Success(c, gin.H{
		"user":         user,
		"access_token": token,
	})
}

func (h *AuthHandler) Logout(c *gin.Context) {
	clearCookie(c, accessTokenCookieName)
	response.Success(c, gin.H{"message": "logout success"})
}

func (h *AuthHandler) Me(c *gin.Context) {
	claims, ok := middleware.GetClaims(c)
	if !ok {
		response.Fail(c, http.StatusUnauthorized, response.ErrUnauthorized, "unauthorized")
		return
	}

	user, err := h.authService.GetByID(c.Request.Context(), claims.UserID)
	if err != nil {
		handleAuthError(c, err)
		return
	}

	response.Success(c, user)
}

func handleAuthError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrInvalidCredentials):
		response.Fail(c, http.StatusUnauthorized, response.ErrPasswordWrong, "phone or password incorrect")
	case errors.Is(err, service.ErrUserNotFound):
		response.Fail(c, http.StatusNotFound, response.ErrUserNotFound, "user not found")
	case errors.Is(err, service.ErrPhoneTaken):
		response.Fail(c, http.StatusConflict, response.ErrPhoneTaken, "phone already registered")
	case errors.Is(err, service.ErrInvalidSignupInput):
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidInput, "invalid signup input")
	case errors.Is(err, service.ErrCodeSpaceExhausted):
		response.Fail(c, http.StatusInternalServerError, response.ErrCodeSpaceExhausted, "could not allocate referral code")
	case errors.Is(err, service.ErrInvalidUserID):
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidInput, "invalid request")
	default:
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal, "internal error")
	}
}

func setSecureCookie(c *gin.Context, name, value string, maxAge int) {
	c.SetSameSite(http.SameSiteStrictMode)
	c.SetCookie(name, value, maxAge, "/", "", true, true)
}

func clearCookie(c *gin.Context, name string) {
	c.SetSameSite(http.SameSiteStrictMode)
	c.SetCookie(name, "", -1, "/", "", true, true)
}
