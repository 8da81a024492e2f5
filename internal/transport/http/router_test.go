package httptransport

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"xup/internal/company"
	companyStore "xup/internal/company/store"
	"xup/internal/identity"
	identityHandler "xup/internal/identity/handler"
	identityStore "xup/internal/identity/store"
	"xup/internal/platform/metrics"
	"xup/internal/platform/middleware"
	id "xup/pkg/domain"
	"xup/pkg/testutil"
)

type pingFunc func(ctx context.Context) error

func (f pingFunc) Ping(ctx context.Context) error { return f(ctx) }

func newTestRouter(t *testing.T, limiter *middleware.RateLimiter, checks map[string]Pinger) http.Handler {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil))

	companies := company.NewService(companyStore.NewInMemory())
	broker := identity.NewService(identityStore.NewInMemory(), companies, "router-test-key", "xup-test")

	return NewRouter(Dependencies{
		Logger:        logger,
		Metrics:       metrics.New(),
		RateLimiter:   limiter,
		AllowedOrigin: "*",
		Resources: []Registrar{
			company.NewHandler(companies, logger),
			identity.NewHandler(broker, logger),
		},
		HealthChecks: checks,
	})
}

type createdCompany struct {
	Company struct {
		BUID        id.BUID `json:"buid"`
		ProjectName string  `json:"projectName"`
	} `json:"company"`
}

func TestProvisionalCredentialBecomesFoundAfterRegistration(t *testing.T) {
	router := newTestRouter(t, nil, nil)
	var (
		issued *identityHandler.EstablishResponse
		buid   id.BUID
	)

	testutil.Given(t, "a provisional credential for a@x.com", func(t *testing.T) {
		rr := testutil.DoJSON(t, router, http.MethodPost, APIPrefix+"/tempcomp/email", map[string]string{"email": "a@x.com"})
		testutil.AssertStatus(t, rr, http.StatusCreated)
		issued = testutil.UnmarshalResponse[identityHandler.EstablishResponse](t, rr)
		require.NotEmpty(t, issued.Token)
	})
	require.NotNil(t, issued)

	testutil.When(t, "the token is verified before registration", func(t *testing.T) {
		rr := testutil.DoJSON(t, router, http.MethodPost, APIPrefix+"/tempcomp/verify", map[string]string{"token": issued.Token})
		testutil.Then(t, "no company is found", func(t *testing.T) {
			testutil.AssertStatus(t, rr, http.StatusOK)
			resp := testutil.UnmarshalResponse[identityHandler.VerifyResponse](t, rr)
			assert.False(t, resp.Found)
			buid = resp.BUID
		})
	})
	require.False(t, buid.IsNil())

	testutil.When(t, "a company registers with the provisional buid", func(t *testing.T) {
		rr := testutil.DoJSON(t, router, http.MethodPost, APIPrefix+"/company", map[string]any{
			"buid":        buid.String(),
			"projectName": "P",
			"email":       "a@x.com",
			"projectUrl":  "https://x.com",
		})
		testutil.AssertStatus(t, rr, http.StatusCreated)
		created := testutil.UnmarshalResponse[createdCompany](t, rr)
		assert.Equal(t, buid, created.Company.BUID)
	})

	testutil.Then(t, "the same token now reports the company", func(t *testing.T) {
		rr := testutil.DoJSON(t, router, http.MethodPost, APIPrefix+"/tempcomp/verify", map[string]string{"token": issued.Token})
		testutil.AssertStatus(t, rr, http.StatusOK)
		resp := testutil.UnmarshalResponse[identityHandler.VerifyResponse](t, rr)
		assert.True(t, resp.Found)
		assert.Equal(t, buid, resp.BUID)
		assert.Equal(t, "P", resp.ProjectName)
		assert.Equal(t, "a@x.com", resp.Email)
	})
}

func TestRouterMiddleware(t *testing.T) {
	router := newTestRouter(t, nil, nil)

	t.Run("request id is echoed", func(t *testing.T) {
		req := testutil.NewJSONRequest(t, http.MethodGet, "/health", nil)
		req.Header.Set(middleware.RequestIDHeader, "req-123")
		rr := testutil.DoRequest(router, req)
		testutil.AssertStatus(t, rr, http.StatusOK)
		assert.Equal(t, "req-123", rr.Header().Get(middleware.RequestIDHeader))
	})

	t.Run("preflight answered by CORS", func(t *testing.T) {
		rr := testutil.DoRequest(router, testutil.NewJSONRequest(t, http.MethodOptions, APIPrefix+"/company", nil))
		assert.Equal(t, http.StatusNoContent, rr.Code)
		assert.Equal(t, "*", rr.Header().Get("Access-Control-Allow-Origin"))
	})

	t.Run("unknown route is a JSON 404", func(t *testing.T) {
		rr := testutil.DoRequest(router, testutil.NewJSONRequest(t, http.MethodGet, "/nope", nil))
		testutil.AssertStatusAndError(t, rr, http.StatusNotFound, "not_found")
	})

	t.Run("metrics are exposed", func(t *testing.T) {
		testutil.DoJSON(t, router, http.MethodPost, APIPrefix+"/tempcomp/email", map[string]string{"email": "m@x.com"})
		rr := testutil.DoRequest(router, testutil.NewJSONRequest(t, http.MethodGet, "/metrics", nil))
		testutil.AssertStatus(t, rr, http.StatusOK)
		assert.Contains(t, rr.Body.String(), "xup_http_requests_total")
	})
}

func TestRouterRateLimit(t *testing.T) {
	limiter := middleware.NewRateLimiter(middleware.RateLimitConfig{Requests: 2, Window: time.Minute}, slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil)), nil)
	t.Cleanup(limiter.Stop)
	router := newTestRouter(t, limiter, nil)

	verify := func(forwardedFor string) *httptest.ResponseRecorder {
		req := testutil.NewJSONRequest(t, http.MethodPost, APIPrefix+"/tempcomp/verify", map[string]string{"otp": "zzzzzz"})
		req.Header.Set("X-Forwarded-For", forwardedFor)
		return testutil.DoRequest(router, req)
	}

	testutil.AssertStatus(t, verify("10.1.1.1"), http.StatusNotFound)
	testutil.AssertStatus(t, verify("10.1.1.2"), http.StatusNotFound)
	testutil.AssertStatus(t, verify("10.1.1.3"), http.StatusTooManyRequests)

	t.Run("health is outside the limited prefix", func(t *testing.T) {
		rr := testutil.DoRequest(router, testutil.NewJSONRequest(t, http.MethodGet, "/health", nil))
		testutil.AssertStatus(t, rr, http.StatusOK)
	})
}

func TestHealth(t *testing.T) {
	t.Run("healthy dependencies", func(t *testing.T) {
		router := newTestRouter(t, nil, map[string]Pinger{
			"database": pingFunc(func(context.Context) error { return nil }),
		})
		rr := testutil.DoRequest(router, testutil.NewJSONRequest(t, http.MethodGet, "/health", nil))
		testutil.AssertStatus(t, rr, http.StatusOK)
		resp := testutil.UnmarshalResponse[healthResponse](t, rr)
		assert.Equal(t, "ok", resp.Status)
		assert.Equal(t, "ok", resp.Checks["database"])
	})

	t.Run("unreachable dependency degrades", func(t *testing.T) {
		router := newTestRouter(t, nil, map[string]Pinger{
			"database": pingFunc(func(context.Context) error { return nil }),
			"redis":    pingFunc(func(context.Context) error { return errors.New("connection refused") }),
		})
		rr := testutil.DoRequest(router, testutil.NewJSONRequest(t, http.MethodGet, "/health", nil))
		testutil.AssertStatus(t, rr, http.StatusServiceUnavailable)
		resp := testutil.UnmarshalResponse[healthResponse](t, rr)
		assert.Equal(t, "degraded", resp.Status)
		assert.Equal(t, "unavailable", resp.Checks["redis"])
	})
}
