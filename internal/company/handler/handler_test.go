package handler

import (
	"bytes"
	"log/slog"
	"net/http"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"xup/internal/company/models"
	"xup/internal/company/service"
	"xup/internal/company/store"
	id "xup/pkg/domain"
	"xup/pkg/testutil"
)

func newCompanyRouter(t *testing.T) http.Handler {
	t.Helper()
	svc := service.New(store.NewInMemory(), service.WithTelegramAuthBaseURL("https://auth.example.com"))
	logger := slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil))

	r := chi.NewRouter()
	New(svc, logger).Register(r)
	return r
}

func createCompany(t *testing.T, router http.Handler, body map[string]any) *models.Company {
	t.Helper()
	rr := testutil.DoJSON(t, router, http.MethodPost, "/company", body)
	testutil.AssertStatus(t, rr, http.StatusCreated)
	resp := testutil.UnmarshalResponse[companyResponse](t, rr)
	require.NotNil(t, resp.Company)
	return resp.Company
}

func TestCompanyLifecycleViaHandlers(t *testing.T) {
	router := newCompanyRouter(t)
	buid := id.NewBUID()

	created := createCompany(t, router, map[string]any{
		"buid":        buid.String(),
		"projectName": "Acme",
		"email":       "Owner@Acme.io",
		"projectUrl":  "https://acme.io",
	})
	assert.Equal(t, buid, created.BUID)
	assert.Equal(t, 1, created.TeamSize)
	assert.Equal(t, "owner@acme.io", created.Email)

	t.Run("get by id", func(t *testing.T) {
		rr := testutil.DoRequest(router, testutil.NewJSONRequest(t, http.MethodGet, "/company/"+created.ID.String(), nil))
		testutil.AssertStatus(t, rr, http.StatusOK)
		resp := testutil.UnmarshalResponse[companyResponse](t, rr)
		assert.Equal(t, "Acme", resp.Company.ProjectName)
	})

	t.Run("lookup by buid and by email", func(t *testing.T) {
		rr := testutil.DoJSON(t, router, http.MethodPost, "/company/lookup", map[string]string{"buid": buid.String()})
		testutil.AssertStatus(t, rr, http.StatusOK)

		rr = testutil.DoJSON(t, router, http.MethodPost, "/company/lookup", map[string]string{"email": "OWNER@acme.io"})
		testutil.AssertStatus(t, rr, http.StatusOK)
		resp := testutil.UnmarshalResponse[companyResponse](t, rr)
		assert.Equal(t, created.ID, resp.Company.ID)
	})

	t.Run("duplicate buid conflicts", func(t *testing.T) {
		rr := testutil.DoJSON(t, router, http.MethodPost, "/company", map[string]any{
			"buid":        buid.String(),
			"projectName": "Other",
			"email":       "other@acme.io",
			"projectUrl":  "https://other.io",
		})
		testutil.AssertStatusAndError(t, rr, http.StatusConflict, "conflict")
	})

	t.Run("duplicate email conflicts", func(t *testing.T) {
		rr := testutil.DoJSON(t, router, http.MethodPost, "/company", map[string]any{
			"projectName": "Other",
			"email":       "owner@acme.io",
			"projectUrl":  "https://other.io",
		})
		testutil.AssertStatus(t, rr, http.StatusConflict)
	})

	t.Run("partial update keeps untouched fields", func(t *testing.T) {
		rr := testutil.DoJSON(t, router, http.MethodPut, "/company/"+created.ID.String(), map[string]any{"teamSize": 5})
		testutil.AssertStatus(t, rr, http.StatusOK)
		resp := testutil.UnmarshalResponse[companyResponse](t, rr)
		assert.Equal(t, 5, resp.Company.TeamSize)
		assert.Equal(t, "Acme", resp.Company.ProjectName)
		assert.Equal(t, buid, resp.Company.BUID)
	})

	t.Run("buid is not an updatable field", func(t *testing.T) {
		rr := testutil.DoJSON(t, router, http.MethodPut, "/company/"+created.ID.String(), map[string]any{"buid": id.NewBUID().String()})
		testutil.AssertStatus(t, rr, http.StatusBadRequest)
	})

	t.Run("link telegram auth", func(t *testing.T) {
		rr := testutil.DoJSON(t, router, http.MethodPost, "/company/telegram-auth/link", map[string]string{
			"buid":        buid.String(),
			"callbackUrl": "https://bot.example.com/cb",
		})
		testutil.AssertStatus(t, rr, http.StatusOK)
		resp := testutil.UnmarshalResponse[linkResponse](t, rr)
		assert.Equal(t, "https://auth.example.com/customer/telegram_auth/"+buid.String(), resp.AuthURL)

		rr = testutil.DoRequest(router, testutil.NewJSONRequest(t, http.MethodGet, "/company/"+created.ID.String(), nil))
		got := testutil.UnmarshalResponse[companyResponse](t, rr)
		assert.True(t, got.Company.TelegramAuthStatus)
		assert.Len(t, got.Company.TelegramAuth, 6)
		assert.Equal(t, "https://bot.example.com/cb", got.Company.TelegramAuthCallbackURL)
	})

	t.Run("explicit telegram auth update", func(t *testing.T) {
		rr := testutil.DoJSON(t, router, http.MethodPut, "/company/"+created.ID.String()+"/telegram-auth", map[string]any{
			"telegramAuthStatus": false,
		})
		testutil.AssertStatus(t, rr, http.StatusOK)
		resp := testutil.UnmarshalResponse[companyResponse](t, rr)
		assert.False(t, resp.Company.TelegramAuthStatus)
	})

	t.Run("delete then get is not found", func(t *testing.T) {
		rr := testutil.DoRequest(router, testutil.NewJSONRequest(t, http.MethodDelete, "/company/"+created.ID.String(), nil))
		testutil.AssertStatus(t, rr, http.StatusOK)

		rr = testutil.DoRequest(router, testutil.NewJSONRequest(t, http.MethodGet, "/company/"+created.ID.String(), nil))
		testutil.AssertStatusAndError(t, rr, http.StatusNotFound, "not_found")
	})
}

func TestCompanyHandlerErrors(t *testing.T) {
	router := newCompanyRouter(t)

	tests := []struct {
		name   string
		method string
		path   string
		body   any
		status int
	}{
		{"missing required fields", http.MethodPost, "/company", map[string]any{"projectName": "x"}, http.StatusBadRequest},
		{"malformed id", http.MethodGet, "/company/not-a-uuid", nil, http.StatusBadRequest},
		{"unknown id", http.MethodGet, "/company/" + id.NewCompanyID().String(), nil, http.StatusNotFound},
		{"link unknown buid", http.MethodPost, "/company/telegram-auth/link",
			map[string]string{"buid": id.NewBUID().String(), "callbackUrl": "https://cb.example.com"}, http.StatusNotFound},
		{"link missing callback", http.MethodPost, "/company/telegram-auth/link",
			map[string]string{"buid": id.NewBUID().String()}, http.StatusBadRequest},
		{"unknown json field", http.MethodPost, "/company/lookup", map[string]string{"nope": "x"}, http.StatusBadRequest},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			rr := testutil.DoJSON(t, router, tc.method, tc.path, tc.body)
			testutil.AssertStatus(t, rr, tc.status)
		})
	}

	t.Run("empty body", func(t *testing.T) {
		rr := testutil.DoRequest(router, testutil.NewRequestWithBody(t, http.MethodPost, "/company", ""))
		testutil.AssertStatusAndError(t, rr, http.StatusBadRequest, "bad_request")
	})
}
