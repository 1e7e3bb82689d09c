package v1

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
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	testcontainers "github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/Prasadchowdar/100CroresClub/internal/api/response"
	"github.com/Prasadchowdar/100CroresClub/internal/event"
	"github.com/Prasadchowdar/100CroresClub/internal/repository/postgres"
	"github.com/Prasadchowdar/100CroresClub/internal/service"
)

type apiResponse struct {
	Code       int                  `json:"code"`
	Message    string               `json:"message"`
	Data       json.RawMessage      `json:"data"`
	Pagination *response.Pagination `json:"pagination,omitempty"`
}

// fakeClock lets claim tests move across reward-day boundaries without
// sleeping.
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock(now time.Time) *fakeClock {
	return &fakeClock{now: now.UTC()}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Set(now time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = now.UTC()
}

var (
	testKeyOnce    sync.Once
	testPrivateKey *rsa.PrivateKey
	testKeyErr     error
)

// testSigningKey returns the process-wide RSA keypair. The verifying
// middleware caches the public key from the environment on first use,
// so every test must share one pair.
func testSigningKey(t *testing.T) *rsa.PrivateKey {
	t.Helper()

	testKeyOnce.Do(func() {
		key, err := rsa.GenerateKey(rand.Reader, 2048)
		if err != nil {
			testKeyErr = err
			return
		}

		der, err := x509.MarshalPKIXPublicKey(&key.PublicKey)
		if err != nil {
			testKeyErr = err
			return
		}
		pemBytes := pem.EncodeToMemory(&pem.Block{Type: "PUBLIC KEY", Bytes: der})
		if err := os.Setenv("CRORECLUB_JWT_PUBLIC_KEY", string(pemBytes)); err != nil {
			testKeyErr = err
			return
		}

		testPrivateKey = key
	})
	if testKeyErr != nil {
		t.Fatalf("prepare signing key: %v", testKeyErr)
	}
	return testPrivateKey
}

type testServer struct {
	router   *gin.Engine
	pool     *pgxpool.Pool
	clock    *fakeClock
	clientIP string
}

// testClientIPCounter hands every test server its own source address.
// The rate limit windows are process-global, so tests sharing one IP
// would throttle each other.
var testClientIPCounter atomic.Int64

func nextTestClientIP() string {
	n := testClientIPCounter.Add(1)
	return fmt.Sprintf("10.9.%d.%d", n/250, n%250+1)
}

// Phone numbers must be unique process-wide too: the per-phone signup
// limiter shares its windows across test servers.
var testPhoneCounter atomic.Int64

func nextTestPhone() string {
	return fmt.Sprintf("98765%05d", testPhoneCounter.Add(1))
}

func (s *testServer) perform(
	t *testing.T,
	method string,
	path string,
	payload map[string]any,
	cookies []*http.Cookie,
) *httptest.ResponseRecorder {
	t.Helper()

	var bodyBytes []byte
	if payload != nil {
		raw, err := json.Marshal(payload)
		if err != nil {
			t.Fatalf("marshal payload: %v", err)
		}
		bodyBytes = raw
	}

	req := httptest.NewRequest(method, path, bytes.NewReader(bodyBytes))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Forwarded-For", s.clientIP)
	for _, cookie := range cookies {
		if cookie != nil {
			req.AddCookie(cookie)
		}
	}

	resp := httptest.NewRecorder()
	s.router.ServeHTTP(resp, req)
	return resp
}

func setupTestServer(t *testing.T) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)

	pool := startPostgresForAPITest(t)
	privateKey := testSigningKey(t)
	clock := newFakeClock(time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC))

	userRepo := postgres.NewUserRepository(pool)
	adminRepo := postgres.NewAdminRepository(pool)
	otpRepo := postgres.NewOTPRepository(pool)
	settingRepo := postgres.NewSettingRepository(pool)

	tiers := service.DefaultClubTierTable()
	bus := event.NewBus()

	authSvc := service.NewAuthService(userRepo, nil, pool, tiers, bus, privateKey, clock, nil)
	referralSvc := service.NewReferralService(userRepo, nil, pool, tiers, bus, nil)
	pointsSvc := service.NewPointsService(userRepo, nil, pool, clock, nil)
	userSvc := service.NewUserService(userRepo)
	adminSvc := service.NewAdminService(adminRepo, otpRepo, nil, privateKey, clock, nil)
	settingsSvc := service.NewSettingsService(settingRepo, nil, clock, nil)

	router := gin.New()
	group := router.Group("/api/v1")
	RegisterAuthRoutes(group, authSvc)
	RegisterReferralRoutes(group, referralSvc)
	RegisterPointsRoutes(group, pointsSvc)
	RegisterClubRoutes(group, userSvc, tiers)
	RegisterSettingsRoutes(group, settingsSvc)
	RegisterAdminRoutes(group, adminSvc, userSvc)

	return &testServer{
		router:   router,
		pool:     pool,
		clock:    clock,
		clientIP: nextTestClientIP(),
	}
}

type signupResult struct {
	User struct {
		ID             string `json:"id"`
		Phone          string `json:"phone"`
		Name           string `json:"name"`
		Points         int64  `json:"points"`
		ReferralCode   string `json:"referral_code"`
		ReferralsCount int    `json:"referrals_count"`
		ClubTier       int    `json:"club_tier"`
	} `json:"user"`
	AccessToken string `json:"access_token"`
}

func signupUser(t *testing.T, s *testServer, referralCode string) signupResult {
	t.Helper()

	payload := map[string]any{
		"phone":    nextTestPhone(),
		"password": "password123",
		"name":     "Test Member",
	}
	if referralCode != "" {
		payload["referral_code"] = referralCode
	}

	resp := s.perform(t, http.MethodPost, "/api/v1/auth/signup", payload, nil)
	if resp.Code != http.StatusOK {
		t.Fatalf("signup failed with status %d: %s", resp.Code, resp.Body.String())
	}

	body := decodeAPIResponse(t, resp.Body.Bytes())
	if body.Code != 0 {
		t.Fatalf("signup failed with app code %d: %s", body.Code, body.Message)
	}

	var result signupResult
	if err := json.Unmarshal(body.Data, &result); err != nil {
		t.Fatalf("decode signup data: %v", err)
	}
	if result.AccessToken == "" {
		t.Fatal("signup returned empty access token")
	}
	return result
}

func authCookie(token string) *http.Cookie {
	return &http.Cookie{Name: accessTokenCookieName, Value: token}
}

func mustUnmarshal(t *testing.T, raw json.RawMessage, dst any) {
	t.Helper()
	if err := json.Unmarshal(raw, dst); err != nil {
		t.Fatalf("decode payload: %v", err)
	}
}

func decodeAPIResponse(t *testing.T, raw []byte) apiResponse {
	t.Helper()

	var resp apiResponse
	if err := json.Unmarshal(raw, &resp); err != nil {
		t.Fatalf("decode response body: %v", err)
	}
	return resp
}

func findCookieByName(cookies []*http.Cookie, name string) *http.Cookie {
	for _, cookie := range cookies {
		if cookie.Name == name {
			return cookie
		}
	}
	return nil
}

func startPostgresForAPITest(t *testing.T) *pgxpool.Pool {
	t.Helper()
	testcontainers.SkipIfProviderIsNotHealthy(t)

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
		t.Skipf("skipping test because docker/testcontainers is unavailable: %v", err)
	}

	t.Cleanup(func() {
		_ = container.Terminate(context.Background())
	})

	host, err := container.Host(ctx)
	if err != nil {
		t.Fatalf("container host: %v", err)
	}
	port, err := container.MappedPort(ctx, "5432/tcp")
	if err != nil {
		t.Fatalf("container mapped port: %v", err)
	}

	dsn := fmt.Sprintf("postgres://postgres:postgres@%s:%s/croreclub_test?sslmode=disable", host, port.Port())
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		t.Fatalf("create pgx pool: %v", err)
	}
	t.Cleanup(pool.Close)

	deadline := time.Now().Add(30 * time.Second)
	for {
		err = pool.Ping(ctx)
		if err == nil {
			break
		}
		if time.Now().After(deadline) {
			t.Fatalf("postgres did not become ready: %v", err)
		}
		time.Sleep(500 * time.Millisecond)
	}

	applyMigrationsForAPITest(t, ctx, pool)
	return pool
}

func applyMigrationsForAPITest(t *testing.T, ctx context.Context, pool *pgxpool.Pool) {
	t.Helper()

	migrationsDir := filepath.Join(findRepoRootForAPITest(t), "migrations")
	entries, err := os.ReadDir(migrationsDir)
	if err != nil {
		t.Fatalf("read migrations dir: %v", err)
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
		raw, err := os.ReadFile(filepath.Join(migrationsDir, file))
		if err != nil {
			t.Fatalf("read migration %s: %v", file, err)
		}
		if strings.TrimSpace(string(raw)) == "" {
			continue
		}
		if _, err := pool.Exec(ctx, string(raw)); err != nil {
			t.Fatalf("apply migration %s: %v", file, err)
		}
	}
}

func findRepoRootForAPITest(t *testing.T) string {
	t.Helper()

	dir, err := os.Getwd()
	if err != nil {
		t.Fatalf("getwd: %v", err)
	}

	for {
		_, statErr := os.Stat(filepath.Join(dir, "go.mod"))
		if statErr == nil {
			return dir
		}
		if !errors.Is(statErr, os.ErrNotExist) {
			t.Fatalf("stat go.mod: %v", statErr)
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			t.Fatal("could not locate repository root")
		}
		dir = parent
	}
}
