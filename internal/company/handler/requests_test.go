package handler

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/suite"

	dErrors "xup/pkg/domain-errors"
)

// CompanyRequestSuite tests request normalization and validation.
type CompanyRequestSuite struct {
	suite.Suite
}

func TestCompanyRequestSuite(t *testing.T) {
	suite.Run(t, new(CompanyRequestSuite))
}

func (s *CompanyRequestSuite) validCreate() *CreateCompanyRequest {
	return &CreateCompanyRequest{
		ProjectName: "Acme",
		Email:       "Owner@Acme.io",
		ProjectURL:  "https://acme.io",
	}
}

func (s *CompanyRequestSuite) TestCreateValidation() {
	s.Run("valid request passes and email is lower-cased", func() {
		req := s.validCreate()
		req.Normalize()
		s.NoError(req.Validate())
		s.Equal("owner@acme.io", req.Email)
	})

	s.Run("project name over 128 characters rejected", func() {
		req := s.validCreate()
		req.ProjectName = strings.Repeat("a", 129)
		s.True(dErrors.HasCode(req.Validate(), dErrors.CodeValidation))
	})

	s.Run("missing project url rejected", func() {
		req := s.validCreate()
		req.ProjectURL = ""
		err := req.Validate()
		s.Require().Error(err)
		s.Contains(err.Error(), "projectUrl is required")
	})

	s.Run("malformed email rejected", func() {
		req := s.validCreate()
		req.Email = "not-an-email"
		s.Contains(req.Validate().Error(), "email must be a valid address")
	})

	s.Run("malformed url rejected", func() {
		req := s.validCreate()
		req.ProjectURL = "not a url"
		s.Contains(req.Validate().Error(), "projectUrl must be a valid URL")
	})

	s.Run("malformed buid rejected", func() {
		req := s.validCreate()
		req.BUID = "123"
		s.Contains(req.Validate().Error(), "buid must be a valid UUID")
	})

	s.Run("team size zero rejected", func() {
		req := s.validCreate()
		zero := 0
		req.TeamSize = &zero
		s.Contains(req.Validate().Error(), "teamSize must be at least 1")
	})

	s.Run("omitted team size defaults later", func() {
		req := s.validCreate()
		s.NoError(req.Validate())
		s.Equal(0, req.Profile().TeamSize)
	})
}

func (s *CompanyRequestSuite) TestLookupValidation() {
	s.Run("requires exactly one selector", func() {
		s.Error((&LookupRequest{}).Validate())
		s.Error((&LookupRequest{BUID: "550e8400-e29b-41d4-a716-446655440000", Email: "a@x.com"}).Validate())
	})

	s.Run("email selector", func() {
		req := &LookupRequest{Email: " A@X.com "}
		req.Normalize()
		s.NoError(req.Validate())
		s.Equal("a@x.com", req.Email)
	})
}

func (s *CompanyRequestSuite) TestUpdateValidation() {
	s.Run("empty project name rejected", func() {
		name := "  "
		req := &UpdateCompanyRequest{ProjectName: &name}
		req.Normalize()
		s.Error(req.Validate())
	})

	s.Run("partial update passes", func() {
		size := 3
		req := &UpdateCompanyRequest{TeamSize: &size}
		s.NoError(req.Validate())
		s.Equal(&size, req.Update().TeamSize)
	})
}

func (s *CompanyRequestSuite) TestLinkValidation() {
	s.Run("both fields required", func() {
		err := (&LinkTelegramAuthRequest{BUID: "550e8400-e29b-41d4-a716-446655440000"}).Validate()
		s.Require().Error(err)
		s.Contains(err.Error(), "buid and callbackUrl are required")
	})

	s.Run("callback must be a url", func() {
		err := (&LinkTelegramAuthRequest{
			BUID:        "550e8400-e29b-41d4-a716-446655440000",
			CallbackURL: "nope nope",
		}).Validate()
		s.Require().Error(err)
	})
}
