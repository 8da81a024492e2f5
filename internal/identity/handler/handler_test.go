package handler

import (
	"bytes"
	"context"
	"log/slog"
	"net/http"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	companyModels "xup/internal/company/models"
	companyService "xup/internal/company/service"
	companyStore "xup/internal/company/store"
	"xup/internal/identity/adapters"
	"xup/internal/identity/service"
	"xup/internal/identity/store"
	"xup/internal/identity/token"
	id "xup/pkg/domain"
	"xup/pkg/testutil"
)

type fixture struct {
	router    http.Handler
	companies *companyService.Service
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	companies := companyService.New(companyStore.NewInMemory())
	broker := service.New(
		store.NewInMemory(),
		adapters.NewCompanyRegistryAdapter(companies),
		token.NewService("handler-test-signing-key", "xup-test"),
	)
	logger := slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil))

	r := chi.NewRouter()
	New(broker, logger).Register(r)
	return &fixture{router: r, companies: companies}
}

func (f *fixture) createCompany(t *testing.T, buid id.BUID, p companyModels.Profile) {
	t.Helper()
	_, err := f.companies.Create(context.Background(), companyService.CreateCompany{BUID: &buid, Profile: p})
	require.NoError(t, err)
}

func TestEmailCredentialFlow(t *testing.T) {
	f := newFixture(t)

	rr := testutil.DoJSON(t, f.router, http.MethodPost, "/tempcomp/email", map[string]string{"email": "A@X.com"})
	testutil.AssertStatus(t, rr, http.StatusCreated)
	issued := testutil.UnmarshalResponse[EstablishResponse](t, rr)
	assert.Equal(t, msgIssued, issued.Message)
	assert.NotEmpty(t, issued.Token)
	assert.Empty(t, issued.OTP)

	var buid id.BUID
	t.Run("no company yet", func(t *testing.T) {
		rr := testutil.DoJSON(t, f.router, http.MethodPost, "/tempcomp/verify", map[string]string{"token": issued.Token})
		testutil.AssertStatus(t, rr, http.StatusOK)
		resp := testutil.UnmarshalResponse[VerifyResponse](t, rr)
		assert.False(t, resp.Found)
		assert.Equal(t, msgNotFound, resp.Message)
		assert.False(t, resp.BUID.IsNil())
		buid = resp.BUID
	})
	require.False(t, buid.IsNil())

	t.Run("second live credential for the same address conflicts", func(t *testing.T) {
		rr := testutil.DoJSON(t, f.router, http.MethodPost, "/tempcomp/email", map[string]string{"email": "a@x.com"})
		testutil.AssertStatusAndError(t, rr, http.StatusConflict, "conflict")
	})

	t.Run("found once the company registers with the buid", func(t *testing.T) {
		f.createCompany(t, buid, companyModels.Profile{
			ProjectName: "P",
			Email:       "a@x.com",
			ProjectURL:  "https://x.com",
		})

		rr := testutil.DoJSON(t, f.router, http.MethodPost, "/tempcomp/verify", map[string]string{"token": issued.Token})
		testutil.AssertStatus(t, rr, http.StatusOK)
		resp := testutil.UnmarshalResponse[VerifyResponse](t, rr)
		assert.True(t, resp.Found)
		assert.Equal(t, msgFound, resp.Message)
		assert.Equal(t, buid, resp.BUID)
		assert.Equal(t, "P", resp.ProjectName)
		assert.Equal(t, "a@x.com", resp.Email)
	})
}

func TestChatCredentialFlow(t *testing.T) {
	f := newFixture(t)
	buid := id.NewBUID()
	f.createCompany(t, buid, companyModels.Profile{
		ProjectName:    "Bot",
		Email:          "bot@x.com",
		ProjectURL:     "https://bot.x.com",
		TelegramChatID: "777",
	})

	rr := testutil.DoJSON(t, f.router, http.MethodPost, "/tempcomp/chat", map[string]string{"chatId": "777"})
	testutil.AssertStatus(t, rr, http.StatusCreated)
	issued := testutil.UnmarshalResponse[EstablishResponse](t, rr)
	assert.Len(t, issued.OTP, 6)
	assert.Empty(t, issued.Token)

	rr = testutil.DoJSON(t, f.router, http.MethodPost, "/tempcomp/verify", map[string]string{"otp": issued.OTP})
	testutil.AssertStatus(t, rr, http.StatusOK)
	resp := testutil.UnmarshalResponse[VerifyResponse](t, rr)
	assert.True(t, resp.Found)
	assert.Equal(t, buid, resp.BUID)
	assert.Equal(t, "Bot", resp.ProjectName)
}

func TestEstablishDoesNotDiscloseBUID(t *testing.T) {
	f := newFixture(t)
	f.createCompany(t, id.NewBUID(), companyModels.Profile{
		ProjectName:    "Known",
		Email:          "known@x.com",
		ProjectURL:     "https://known.x.com",
		TelegramChatID: "555",
	})

	tests := []struct {
		name string
		path string
		body map[string]string
	}{
		{"registered email", "/tempcomp/email", map[string]string{"email": "known@x.com"}},
		{"unknown email", "/tempcomp/email", map[string]string{"email": "new@x.com"}},
		{"registered chat", "/tempcomp/chat", map[string]string{"chatId": "555"}},
		{"unknown chat", "/tempcomp/chat", map[string]string{"chatId": "556"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := testutil.DoJSON(t, f.router, http.MethodPost, tt.path, tt.body)
			testutil.AssertStatus(t, rr, http.StatusCreated)
			body := testutil.UnmarshalResponse[map[string]any](t, rr)
			assert.NotContains(t, *body, "buid")
			assert.Equal(t, msgIssued, (*body)["message"])
		})
	}
}

func TestCredentialErrors(t *testing.T) {
	f := newFixture(t)

	tests := []struct {
		name       string
		path       string
		body       any
		wantStatus int
		wantCode   string
	}{
		{"malformed email", "/tempcomp/email", map[string]string{"email": "nope"}, http.StatusBadRequest, "validation_error"},
		{"unknown field", "/tempcomp/email", map[string]string{"mail": "a@x.com"}, http.StatusBadRequest, "bad_request"},
		{"missing chat id", "/tempcomp/chat", map[string]string{"chatId": ""}, http.StatusBadRequest, "validation_error"},
		{"verify without credential", "/tempcomp/verify", map[string]string{}, http.StatusBadRequest, "validation_error"},
		{"garbage token", "/tempcomp/verify", map[string]string{"token": "not.a.jwt"}, http.StatusBadRequest, "invalid_credential"},
		{"unknown otp", "/tempcomp/verify", map[string]string{"otp": "zzzzzz"}, http.StatusNotFound, "not_found"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := testutil.DoJSON(t, f.router, http.MethodPost, tt.path, tt.body)
			testutil.AssertStatusAndError(t, rr, tt.wantStatus, tt.wantCode)
		})
	}
}
