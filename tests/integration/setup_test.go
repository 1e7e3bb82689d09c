//go:build integration

package integration

import (
	"bytes"
	"context"
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/json"
	"encoding/pem"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	testcontainers "github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
	"go.uber.org/zap"

	"github.com/Prasadchowdar/100CroresClub/internal/api"
	"github.com/Prasadchowdar/100CroresClub/internal/api/response"
	"github.com/Prasadchowdar/100CroresClub/internal/event"
	"github.com/Prasadchowdar/100CroresClub/internal/repository"
	"github.com/Prasadchowdar/100CroresClub/internal/repository/postgres"
	"github.com/Prasadchowdar/100CroresClub/internal/service"
	systemlog "github.com/Prasadchowdar/100CroresClub/pkg/logger"
)

const memberPassword = "MemberPass123!"

type apiEnvelope struct {
	Code       int                  `json:"code"`
	Message    string               `json:"message"`
	Data       json.RawMessage      `json:"data"`
	Pagination *response.Pagination `json:"pagination,omitempty"`
}

type integrationEnv struct {
	pool       *pgxpool.Pool
	router     *gin.Engine
	privateKey *rsa.PrivateKey

	userRepo    repository.UserRepository
	auditRepo   repository.AuditRepository
	pointsSvc   *service.PointsService
	settingsSvc *service.SettingsService
}

var suite *integrationEnv

func TestMain(m *testing.M) {
	gin.SetMode(gin.TestMode)

	env, err := buildIntegrationEnv()
	if err != nil {
		fmt.Fprintf(os.Stderr, "integration setup failed: %v\n", err)
		os.Exit(1)
	}
	suite = env

	code := m.Run()

	if suite != nil && suite.pool != nil {
		suite.pool.Close()
	}

	os.Exit(code)
}

func buildIntegrationEnv() (*integrationEnv, error) {
	ctx := context.Background()
	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "postgres:16-alpine",
			ExposedPorts: []string{"5432/tcp"},
			Env: map[string]string{
				"POSTGRES_USER":     "postgres",
				"POSTGRES_PASSWORD": "postgres",
				"POSTGRES_DB":       "croreclub_test",
			},
			WaitingFor: wait.ForListeningPort("5432/tcp").WithStartupTimeout(90 * time.Second),
		},
		Started: true,
	})
	if err != nil {
		return nil, err
	}

	host, err := container.Host(ctx)
	if err != nil {
		return nil, err
	}
	port, err := container.MappedPort(ctx, "5432/tcp")
	if err != nil {
		return nil, err
	}

	dsn := fmt.Sprintf("postgres://postgres:postgres@%s:%s/croreclub_test?sslmode=disable", host, port.Port())
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, err
	}

	deadline := time.Now().Add(30 * time.Second)
	for {
		if pingErr := pool.Ping(ctx); pingErr == nil {
			break
		}
		if time.Now().After(deadline) {
			return nil, errors.New("postgres did not become ready")
		}
		time.Sleep(500 * time.Millisecond)
	}

	if err := applyAllMigrations(ctx, pool); err != nil {
		return nil, err
	}

	privateKey, err := rsa.GenerateKey(rand.Reader, 2048)
	if err != nil {
		return nil, err
	}
	if err := setPublicKeyEnv(privateKey); err != nil {
		return nil, err
	}

	logger := zap.NewNop()
	userRepo := postgres.NewUserRepository(pool)
	adminRepo := postgres.NewAdminRepository(pool)
	otpRepo := postgres.NewOTPRepository(pool)
	auditRepo := postgres.NewAuditRepository(pool)
	settingRepo := postgres.NewSettingRepository(pool)

	tiers := service.DefaultClubTierTable()
	eventBus := event.NewBus()
	clock := service.SystemClock()
	logStore := systemlog.NewSystemLogStore(200)

	authSvc := service.NewAuthService(userRepo, auditRepo, pool, tiers, eventBus, privateKey, clock, logger)
	referralSvc := service.NewReferralService(userRepo, auditRepo, pool, tiers, eventBus, logger)
	pointsSvc := service.NewPointsService(userRepo, auditRepo, pool, clock, logger)
	userSvc := service.NewUserService(userRepo)
	adminSvc := service.NewAdminService(adminRepo, otpRepo, auditRepo, privateKey, clock, logger)
	auditSvc := service.NewAuditService(auditRepo)
	settingsSvc := service.NewSettingsService(settingRepo, auditRepo, clock, logger)
	systemSvc := service.NewSystemService(pool, logger)

	router := gin.New()
	apiV1 := router.Group("/api/v1")
	api.RegisterV1Routes(apiV1, api.Services{
		Auth:     authSvc,
		Referral: referralSvc,
		Points:   pointsSvc,
		Users:    userSvc,
		Admin:    adminSvc,
		Audit:    auditSvc,
		Settings: settingsSvc,
		System:   systemSvc,
		Tiers:    tiers,
		LogStore: logStore,
	})

	return &integrationEnv{
		pool:        pool,
		router:      router,
		privateKey:  privateKey,
		userRepo:    userRepo,
		auditRepo:   auditRepo,
		pointsSvc:   pointsSvc,
		settingsSvc: settingsSvc,
	}, nil
}

func setPublicKeyEnv(privateKey *rsa.PrivateKey) error {
	publicKeyDER, err := x509.MarshalPKIXPublicKey(&privateKey.PublicKey)
	if err != nil {
		return err
	}

	publicPEM := pem.EncodeToMemory(&pem.Block{
		Type:  "PUBLIC KEY",
		Bytes: publicKeyDER,
	})
	return os.Setenv("CRORECLUB_JWT_PUBLIC_KEY", string(publicPEM))
}

func applyAllMigrations(ctx context.Context, pool *pgxpool.Pool) error {
	migrationsDir, err := findMigrationsDir()
	if err != nil {
		return err
	}

	entries, err := os.ReadDir(migrationsDir)
	if err != nil {
		return err
	}

	files := make([]string, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".up.sql") {
			continue
		}
		files = append(files, entry.Name())
	}
	sort.Strings(files)

	for _, file := range files {
		// #nosec G304 -- migration file list comes from controlled test directory.
		raw, err := os.ReadFile(filepath.Join(migrationsDir, file))
		if err != nil {
			return err
		}
		if strings.TrimSpace(string(raw)) == "" {
			continue
		}
		if _, err := pool.Exec(ctx, string(raw)); err != nil {
			return err
		}
	}

	return nil
}

func findMigrationsDir() (string, error) {
	dir, err := os.Getwd()
	if err != nil {
		return "", err
	}

	for {
		candidate := filepath.Join(dir, "migrations")
		if stat, err := os.Stat(candidate); err == nil && stat.IsDir() {
			return candidate, nil
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			return "", errors.New("could not locate migrations directory")
		}
		dir = parent
	}
}

func getEnv(t *testing.T) *integrationEnv {
	t.Helper()
	if suite == nil {
		t.Fatal("integration environment not initialized")
	}
	return suite
}

// Phones, emails, and client addresses must all be unique: the rate
// limit windows are process-global, so reuse across tests would
// throttle later requests.
var (
	phoneCounter atomic.Int64
	emailCounter atomic.Int64
	ipCounter    atomic.Int64
)

func uniquePhone() string {
	return fmt.Sprintf("91234%05d", phoneCounter.Add(1))
}

func uniqueEmail() string {
	return fmt.Sprintf("ops%05d@example.com", emailCounter.Add(1))
}

func uniqueClientIP() string {
	n := ipCounter.Add(1)
	return fmt.Sprintf("10.42.%d.%d", n/250, n%250+1)
}

func performJSONRequest(
	t *testing.T,
	handler http.Handler,
	method string,
	path string,
	payload interface{},
	clientIP string,
	cookies []*http.Cookie,
) *httptest.ResponseRecorder {
	t.Helper()

	var body []byte
	if payload != nil {
		raw, err := json.Marshal(payload)
		if err != nil {
			t.Fatalf("marshal payload: %v", err)
		}
		body = raw
	}

	req := httptest.NewRequest(method, path, bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if clientIP != "" {
		req.Header.Set("X-Forwarded-For", clientIP)
	}
	for _, cookie := range cookies {
		if cookie != nil {
			req.AddCookie(cookie)
		}
	}

	recorder := httptest.NewRecorder()
	handler.ServeHTTP(recorder, req)
	return recorder
}

func decodeEnvelope(t *testing.T, resp *httptest.ResponseRecorder) apiEnvelope {
	t.Helper()

	var envelope apiEnvelope
	if err := json.Unmarshal(resp.Body.Bytes(), &envelope); err != nil {
		t.Fatalf("decode response body: %v, raw=%s", err, resp.Body.String())
	}
	return envelope
}

func jsonUnmarshal(raw json.RawMessage, dst interface{}) error {
	return json.Unmarshal(raw, dst)
}

func accessCookie(token string) *http.Cookie {
	return &http.Cookie{Name: "access_token", Value: token}
}

type memberSession struct {
	ID           string
	Phone        string
	ReferralCode string
	Token        string
	ClientIP     string
}

func signupMember(t *testing.T, referralCode string) memberSession {
	t.Helper()
	env := getEnv(t)

	phone := uniquePhone()
	clientIP := uniqueClientIP()
	payload := map[string]interface{}{
		"phone":    phone,
		"password": memberPassword,
		"name":     "Integration Member",
	}
	if referralCode != "" {
		payload["referral_code"] = referralCode
	}

	resp := performJSONRequest(t, env.router, http.MethodPost, "/api/v1/auth/signup", payload, clientIP, nil)
	if resp.Code != http.StatusOK {
		t.Fatalf("signup failed, status=%d body=%s", resp.Code, resp.Body.String())
	}

	envelope := decodeEnvelope(t, resp)
	if envelope.Code != 0 {
		t.Fatalf("signup failed, code=%d message=%s", envelope.Code, envelope.Message)
	}

	var payloadOut struct {
		User struct {
			ID           string `json:"id"`
			ReferralCode string `json:"referral_code"`
		} `json:"user"`
		AccessToken string `json:"access_token"`
	}
	if err := json.Unmarshal(envelope.Data, &payloadOut); err != nil {
		t.Fatalf("decode signup payload: %v", err)
	}

	return memberSession{
		ID:           payloadOut.User.ID,
		Phone:        phone,
		ReferralCode: payloadOut.User.ReferralCode,
		Token:        payloadOut.AccessToken,
		ClientIP:     clientIP,
	}
}

type adminSession struct {
	ID       string
	Email    string
	Token    string
	ClientIP string
}

func signupPlatformAdmin(t *testing.T) adminSession {
	t.Helper()
	env := getEnv(t)

	email := uniqueEmail()
	clientIP := uniqueClientIP()
	resp := performJSONRequest(t, env.router, http.MethodPost, "/api/v1/admin/signup", map[string]interface{}{
		"full_name": "Integration Admin",
		"email":     email,
		"password":  "AdminPass123!",
	}, clientIP, nil)
	if resp.Code != http.StatusOK {
		t.Fatalf("admin signup failed, status=%d body=%s", resp.Code, resp.Body.String())
	}

	envelope := decodeEnvelope(t, resp)
	var payloadOut struct {
		Admin struct {
			ID    string `json:"id"`
			Email string `json:"email"`
		} `json:"admin"`
		AccessToken string `json:"access_token"`
	}
	if err := json.Unmarshal(envelope.Data, &payloadOut); err != nil {
		t.Fatalf("decode admin payload: %v", err)
	}

	return adminSession{
		ID:       payloadOut.Admin.ID,
		Email:    email,
		Token:    payloadOut.AccessToken,
		ClientIP: clientIP,
	}
}
