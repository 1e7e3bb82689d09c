package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
)

func newMaintenanceRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(MaintenanceMode())

	api := router.Group("/api/v1")
	api.POST("/admin/login", func(c *gin.Context) { c.Status(http.StatusOK) })
	api.GET("/points", func(c *gin.Context) { c.Status(http.StatusOK) })
	return router
}

func TestMaintenanceMode_BlocksMemberTraffic(t *testing.T) {
	router := newMaintenanceRouter()
	SetMaintenanceMode(true)
	t.Cleanup(func() { SetMaintenanceMode(false) })

	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/api/v1/points", nil))
	if resp.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503 for member traffic under maintenance, got %d", resp.Code)
	}
}

func TestMaintenanceMode_AdminLoginStaysOpen(t *testing.T) {
	router := newMaintenanceRouter()
	SetMaintenanceMode(true)
	t.Cleanup(func() { SetMaintenanceMode(false) })

	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, httptest.NewRequest(http.MethodPost, "/api/v1/admin/login", nil))
	if resp.Code != http.StatusOK {
		t.Fatalf("expected admin login to pass the gate, got %d", resp.Code)
	}
}

func TestMaintenanceMode_OffPassesEverything(t *testing.T) {
	router := newMaintenanceRouter()
	SetMaintenanceMode(false)

	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/api/v1/points", nil))
	if resp.Code != http.StatusOK {
		t.Fatalf("expected pass-through with flag down, got %d", resp.Code)
	}
}
