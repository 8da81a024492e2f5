package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"xup/internal/company/metrics"
	"xup/internal/company/models"
	"xup/internal/company/store"
	"xup/pkg/attrs"
	id "xup/pkg/domain"
	dErrors "xup/pkg/domain-errors"
	"xup/pkg/email"
	"xup/pkg/platform/audit"
	"xup/pkg/platform/secrets"
	"xup/pkg/platform/sentinel"
	"xup/pkg/requestcontext"
)

// DefaultTelegramAuthBaseURL is the host used to build telegram auth URLs.
const DefaultTelegramAuthBaseURL = "https://xup.app"

var tracer = otel.Tracer("xup/company")

type Store interface {
	CreateIfAbsent(ctx context.Context, c *models.Company) error
	FindByID(ctx context.Context, companyID id.CompanyID) (*models.Company, error)
	FindByBUID(ctx context.Context, buid id.BUID) (*models.Company, error)
	FindByEmail(ctx context.Context, email string) (*models.Company, error)
	FindByTelegramChatID(ctx context.Context, chatID string) (*models.Company, error)
	Update(ctx context.Context, c *models.Company) error
	Delete(ctx context.Context, companyID id.CompanyID) error
}

type AuditPublisher interface {
	Emit(ctx context.Context, event audit.Event) error
}

// CreateCompany is the input of Create. A nil BUID asks the service to mint one.
type CreateCompany struct {
	BUID    *id.BUID
	Profile models.Profile
}

// Service owns the company registry.
type Service struct {
	store          Store
	logger         *slog.Logger
	auditPublisher AuditPublisher
	metrics        *metrics.Metrics
	authBaseURL    string
	newCode        func() (string, error)
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

func WithAuditPublisher(publisher AuditPublisher) Option {
	return func(s *Service) {
		s.auditPublisher = publisher
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

// WithTelegramAuthBaseURL sets the host prefix of generated auth URLs.
func WithTelegramAuthBaseURL(base string) Option {
	return func(s *Service) {
		if base = strings.TrimRight(strings.TrimSpace(base), "/"); base != "" {
			s.authBaseURL = base
		}
	}
}

// WithCodeGenerator replaces the linkage code source.
func WithCodeGenerator(gen func() (string, error)) Option {
	return func(s *Service) {
		if gen != nil {
			s.newCode = gen
		}
	}
}

func New(st Store, opts ...Option) *Service {
	s := &Service{
		store:       st,
		authBaseURL: DefaultTelegramAuthBaseURL,
		newCode:     func() (string, error) { return secrets.Code(secrets.CodeLength) },
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Create registers a company. A supplied buid must be unused.
func (s *Service) Create(ctx context.Context, req CreateCompany) (_ *models.Company, err error) {
	ctx, span := tracer.Start(ctx, "company.Create")
	defer func() { endSpan(span, err) }()
	if s.metrics != nil {
		defer s.metrics.ObserveCreate(time.Now())
	}

	buid := id.NewBUID()
	if req.BUID != nil {
		buid = *req.BUID
	}
	span.SetAttributes(attribute.String("buid", buid.String()))

	profile := req.Profile
	profile.ProjectName = strings.TrimSpace(profile.ProjectName)
	profile.Email = email.Normalize(profile.Email)
	profile.ProjectURL = strings.TrimSpace(profile.ProjectURL)
	profile.TelegramChatID = strings.TrimSpace(profile.TelegramChatID)

	c, err := models.NewCompany(id.NewCompanyID(), buid, profile, requestcontext.Now(ctx))
	if err != nil {
		return nil, toValidation(err)
	}

	if err := s.store.CreateIfAbsent(ctx, c); err != nil {
		switch {
		case errors.Is(err, store.ErrBUIDTaken):
			return nil, dErrors.New(dErrors.CodeConflict, "a company with this buid already exists")
		case errors.Is(err, store.ErrEmailTaken):
			return nil, dErrors.New(dErrors.CodeConflict, "a company with this email already exists")
		case errors.Is(err, sentinel.ErrAlreadyUsed):
			return nil, dErrors.New(dErrors.CodeConflict, "company already exists")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to create company")
	}

	s.logAudit(ctx, audit.EventCompanyCreated, "buid", c.BUID.String(), "company_id", c.ID.String())
	if s.metrics != nil {
		s.metrics.IncrementCreated()
	}
	return c, nil
}

// Get returns a company by its internal id.
func (s *Service) Get(ctx context.Context, companyID id.CompanyID) (_ *models.Company, err error) {
	ctx, span := tracer.Start(ctx, "company.Get")
	defer func() { endSpan(span, err) }()
	return s.lookup(ctx, func() (*models.Company, error) { return s.store.FindByID(ctx, companyID) })
}

// GetByBUID returns the company registered under buid.
func (s *Service) GetByBUID(ctx context.Context, buid id.BUID) (_ *models.Company, err error) {
	ctx, span := tracer.Start(ctx, "company.GetByBUID", trace.WithAttributes(attribute.String("buid", buid.String())))
	defer func() { endSpan(span, err) }()
	return s.lookup(ctx, func() (*models.Company, error) { return s.store.FindByBUID(ctx, buid) })
}

// GetByEmail returns the company registered with addr, ignoring case.
func (s *Service) GetByEmail(ctx context.Context, addr string) (_ *models.Company, err error) {
	ctx, span := tracer.Start(ctx, "company.GetByEmail")
	defer func() { endSpan(span, err) }()
	addr = email.Normalize(addr)
	if addr == "" {
		return nil, dErrors.New(dErrors.CodeValidation, "email is required")
	}
	return s.lookup(ctx, func() (*models.Company, error) { return s.store.FindByEmail(ctx, addr) })
}

// GetByTelegramChatID returns the oldest company bound to chatID.
func (s *Service) GetByTelegramChatID(ctx context.Context, chatID string) (_ *models.Company, err error) {
	ctx, span := tracer.Start(ctx, "company.GetByTelegramChatID")
	defer func() { endSpan(span, err) }()
	chatID = strings.TrimSpace(chatID)
	if chatID == "" {
		return nil, dErrors.New(dErrors.CodeValidation, "chat id is required")
	}
	return s.lookup(ctx, func() (*models.Company, error) { return s.store.FindByTelegramChatID(ctx, chatID) })
}

// Update merges the set fields of u into the company. The buid never changes.
func (s *Service) Update(ctx context.Context, companyID id.CompanyID, u models.Update) (_ *models.Company, err error) {
	ctx, span := tracer.Start(ctx, "company.Update")
	defer func() { endSpan(span, err) }()

	if u.IsEmpty() {
		return nil, dErrors.New(dErrors.CodeValidation, "no fields to update")
	}
	c, err := s.load(ctx, companyID)
	if err != nil {
		return nil, err
	}
	if u.Email != nil {
		normalized := email.Normalize(*u.Email)
		u.Email = &normalized
	}
	if err := c.Apply(u, requestcontext.Now(ctx)); err != nil {
		return nil, toValidation(err)
	}
	if err := s.save(ctx, c); err != nil {
		return nil, err
	}
	s.logAudit(ctx, audit.EventCompanyUpdated, "buid", c.BUID.String(), "company_id", c.ID.String())
	return c, nil
}

// UpdateTelegramAuth records an explicit change of the linkage fields.
func (s *Service) UpdateTelegramAuth(ctx context.Context, companyID id.CompanyID, u models.TelegramAuthUpdate) (_ *models.Company, err error) {
	ctx, span := tracer.Start(ctx, "company.UpdateTelegramAuth")
	defer func() { endSpan(span, err) }()

	if u.IsEmpty() {
		return nil, dErrors.New(dErrors.CodeValidation, "no fields to update")
	}
	c, err := s.load(ctx, companyID)
	if err != nil {
		return nil, err
	}
	c.ApplyTelegramAuth(u, requestcontext.Now(ctx))
	if err := s.save(ctx, c); err != nil {
		return nil, err
	}
	s.logAudit(ctx, audit.EventTelegramAuthUpdated, "buid", c.BUID.String(), "company_id", c.ID.String())
	return c, nil
}

// Delete removes a company permanently.
func (s *Service) Delete(ctx context.Context, companyID id.CompanyID) (err error) {
	ctx, span := tracer.Start(ctx, "company.Delete")
	defer func() { endSpan(span, err) }()

	c, err := s.load(ctx, companyID)
	if err != nil {
		return err
	}
	if err := s.store.Delete(ctx, companyID); err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return dErrors.New(dErrors.CodeNotFound, "company not found")
		}
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to delete company")
	}
	s.logAudit(ctx, audit.EventCompanyDeleted, "buid", c.BUID.String(), "company_id", c.ID.String())
	if s.metrics != nil {
		s.metrics.IncrementDeleted()
	}
	return nil
}

// LinkTelegramAuth mints a linkage code for the company registered under buid
// and returns the URL the user follows to complete the link.
func (s *Service) LinkTelegramAuth(ctx context.Context, buid id.BUID, callbackURL string) (_ *models.TelegramLink, err error) {
	ctx, span := tracer.Start(ctx, "company.LinkTelegramAuth", trace.WithAttributes(attribute.String("buid", buid.String())))
	defer func() { endSpan(span, err) }()

	callbackURL = strings.TrimSpace(callbackURL)
	if buid.IsNil() || callbackURL == "" {
		return nil, dErrors.New(dErrors.CodeValidation, "buid and callbackUrl are required")
	}

	c, err := s.lookup(ctx, func() (*models.Company, error) { return s.store.FindByBUID(ctx, buid) })
	if err != nil {
		return nil, err
	}
	code, err := s.newCode()
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to generate linkage code")
	}
	if err := c.RequestTelegramLink(code, callbackURL, requestcontext.Now(ctx)); err != nil {
		return nil, toValidation(err)
	}
	if err := s.save(ctx, c); err != nil {
		return nil, err
	}

	s.logAudit(ctx, audit.EventTelegramAuthLinked, "buid", c.BUID.String(), "company_id", c.ID.String())
	if s.metrics != nil {
		s.metrics.IncrementTelegramLinks()
	}
	return &models.TelegramLink{
		BUID:    c.BUID,
		AuthURL: fmt.Sprintf("%s/customer/telegram_auth/%s", s.authBaseURL, c.BUID),
		Code:    code,
	}, nil
}

func (s *Service) lookup(ctx context.Context, find func() (*models.Company, error)) (*models.Company, error) {
	if s.metrics != nil {
		defer s.metrics.ObserveLookup(time.Now())
	}
	c, err := find()
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "company not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load company")
	}
	return c, nil
}

func (s *Service) load(ctx context.Context, companyID id.CompanyID) (*models.Company, error) {
	return s.lookup(ctx, func() (*models.Company, error) { return s.store.FindByID(ctx, companyID) })
}

func (s *Service) save(ctx context.Context, c *models.Company) error {
	if err := s.store.Update(ctx, c); err != nil {
		switch {
		case errors.Is(err, sentinel.ErrNotFound):
			return dErrors.New(dErrors.CodeNotFound, "company not found")
		case errors.Is(err, store.ErrEmailTaken):
			return dErrors.New(dErrors.CodeConflict, "a company with this email already exists")
		}
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to update company")
	}
	return nil
}

func toValidation(err error) error {
	if dErrors.HasCode(err, dErrors.CodeInvariantViolation) {
		var de *dErrors.Error
		if errors.As(err, &de) {
			return dErrors.New(dErrors.CodeValidation, de.Message)
		}
	}
	return err
}

func endSpan(span trace.Span, err error) {
	if err != nil && dErrors.CodeOf(err) == dErrors.CodeInternal {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}

func (s *Service) logAudit(ctx context.Context, event audit.AuditEvent, attributes ...any) {
	requestID := requestcontext.RequestID(ctx)
	if requestID != "" {
		attributes = append(attributes, "request_id", requestID)
	}
	args := append(attributes, "event", string(event), "log_type", "audit")
	if s.logger != nil {
		s.logger.InfoContext(ctx, string(event), args...)
	}
	if s.auditPublisher == nil {
		return
	}
	_ = s.auditPublisher.Emit(ctx, audit.Event{
		Subject:   attrs.ExtractString(attributes, "buid"),
		CompanyID: attrs.ExtractString(attributes, "company_id"),
		Action:    string(event),
		RequestID: requestID,
		ClientIP:  requestcontext.ClientIP(ctx),
	})
}
