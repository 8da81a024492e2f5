package service

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"xup/internal/identity/metrics"
	"xup/internal/identity/models"
	"xup/internal/identity/ports"
	"xup/internal/identity/store"
	"xup/internal/identity/token"
	"xup/pkg/attrs"
	id "xup/pkg/domain"
	dErrors "xup/pkg/domain-errors"
	"xup/pkg/email"
	"xup/pkg/platform/audit"
	"xup/pkg/platform/secrets"
	"xup/pkg/platform/sentinel"
	"xup/pkg/requestcontext"
)

// maxCodeAttempts bounds regeneration after one-time code collisions.
const maxCodeAttempts = 5

const invalidCredential = "invalid or expired credential"

var tracer = otel.Tracer("xup/identity")

type Store interface {
	CreateIfAbsent(ctx context.Context, c *models.Credential, now time.Time) error
	FindByCode(ctx context.Context, code string, now time.Time) (*models.Credential, error)
	FindByIdentifier(ctx context.Context, identifier models.Identifier, now time.Time) (*models.Credential, error)
	DeleteExpired(ctx context.Context, now time.Time) (int, error)
}

type TokenService interface {
	Issue(identifier models.Identifier, buid id.BUID, issuedAt, expiresAt time.Time) (string, error)
	Validate(tokenString string, now time.Time) (*token.Claims, error)
}

type AuditPublisher interface {
	Emit(ctx context.Context, event audit.Event) error
}

// Service is the provisional identity broker.
type Service struct {
	store          Store
	registry       ports.CompanyRegistry
	tokens         TokenService
	ttl            time.Duration
	logger         *slog.Logger
	auditPublisher AuditPublisher
	metrics        *metrics.Metrics
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

// WithTTL sets the credential lifetime. Non-positive values are ignored.
func WithTTL(ttl time.Duration) Option {
	return func(s *Service) {
		if ttl > 0 {
			s.ttl = ttl
		}
	}
}

// WithCodeGenerator replaces the one-time code source.
func WithCodeGenerator(gen func() (string, error)) Option {
	return func(s *Service) {
		if gen != nil {
			s.newCode = gen
		}
	}
}

func New(st Store, registry ports.CompanyRegistry, tokens TokenService, opts ...Option) *Service {
	s := &Service{
		store:    st,
		registry: registry,
		tokens:   tokens,
		ttl:      models.DefaultTTL,
		newCode:  func() (string, error) { return secrets.Code(secrets.CodeLength) },
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// EstablishByEmail issues a provisional credential keyed to an email address.
// The buid of a company registered with that email is reused.
func (s *Service) EstablishByEmail(ctx context.Context, addr string) (*models.Issued, error) {
	addr = email.Normalize(addr)
	if addr == "" {
		return nil, dErrors.New(dErrors.CodeValidation, "email is required")
	}
	if !email.IsValid(addr) {
		return nil, dErrors.New(dErrors.CodeValidation, "email must be a valid address")
	}
	return s.establish(ctx, models.EmailIdentifier(addr), s.registry.FindByEmail)
}

// EstablishByChatID issues a provisional credential keyed to a chat id.
func (s *Service) EstablishByChatID(ctx context.Context, chatID string) (*models.Issued, error) {
	chatID = strings.TrimSpace(chatID)
	if chatID == "" {
		return nil, dErrors.New(dErrors.CodeValidation, "chat id is required")
	}
	if len(chatID) > models.MaxChatIDLength {
		return nil, dErrors.New(dErrors.CodeValidation, "chat id must be 64 characters or less")
	}
	return s.establish(ctx, models.ChatIdentifier(chatID), s.registry.FindByTelegramChatID)
}

func (s *Service) establish(
	ctx context.Context,
	identifier models.Identifier,
	lookup func(context.Context, string) (*ports.CompanyRef, error),
) (_ *models.Issued, err error) {
	ctx, span := tracer.Start(ctx, "identity.Establish",
		trace.WithAttributes(attribute.String("channel", string(identifier.Channel))))
	defer func() { endSpan(span, err) }()
	if s.metrics != nil {
		defer s.metrics.ObserveEstablish(time.Now())
	}

	buid := id.NewBUID()
	ref, err := lookup(ctx, identifier.Value)
	switch {
	case err == nil:
		buid = ref.BUID
	case errors.Is(err, sentinel.ErrNotFound):
	default:
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to look up company")
	}

	now := requestcontext.Now(ctx)
	expiresAt := now.Add(s.ttl)
	signed, err := s.tokens.Issue(identifier, buid, now, expiresAt)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to sign credential")
	}

	cred, err := s.persist(ctx, identifier, buid, signed, now, expiresAt)
	if err != nil {
		return nil, err
	}

	s.logAudit(ctx, audit.EventCredentialIssued,
		"buid", buid.String(),
		"channel", string(identifier.Channel),
	)
	if s.metrics != nil {
		s.metrics.IncrementIssued(string(identifier.Channel))
	}
	return &models.Issued{
		Channel:   identifier.Channel,
		BUID:      buid,
		Token:     cred.Token,
		Code:      cred.Code,
		ExpiresAt: cred.ExpiresAt,
	}, nil
}

// persist inserts the credential, regenerating the code on collisions.
func (s *Service) persist(ctx context.Context, identifier models.Identifier, buid id.BUID, signed string, now, expiresAt time.Time) (*models.Credential, error) {
	for attempt := 0; attempt < maxCodeAttempts; attempt++ {
		code, err := s.newCode()
		if err != nil {
			return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to generate one-time code")
		}
		cred, err := models.NewCredential(identifier, buid, signed, code, now, expiresAt)
		if err != nil {
			return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to build credential")
		}

		err = s.store.CreateIfAbsent(ctx, cred, now)
		switch {
		case err == nil:
			return cred, nil
		case errors.Is(err, store.ErrCodeTaken):
			if s.metrics != nil {
				s.metrics.IncrementCodeCollision()
			}
			continue
		case errors.Is(err, store.ErrIdentifierTaken):
			return nil, dErrors.New(dErrors.CodeConflict, "a live credential already exists for this identifier")
		default:
			return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to store credential")
		}
	}
	return nil, dErrors.New(dErrors.CodeInternal, "could not allocate a unique one-time code")
}

// VerifyToken checks a signed token and reports whether a company exists for
// its buid. The provisional record the token was issued with must still be live.
func (s *Service) VerifyToken(ctx context.Context, tokenString string) (_ *models.Verification, err error) {
	ctx, span := tracer.Start(ctx, "identity.VerifyToken")
	defer func() { endSpan(span, err) }()

	tokenString = strings.TrimSpace(tokenString)
	if tokenString == "" {
		return nil, dErrors.New(dErrors.CodeValidation, "token is required")
	}
	now := requestcontext.Now(ctx)

	claims, buid, err := s.validate(ctx, tokenString, now)
	if err != nil {
		return nil, err
	}

	cred, err := s.store.FindByIdentifier(ctx, claims.Identifier(), now)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			s.reject(ctx, "credential record not found", buid.String())
			return nil, dErrors.New(dErrors.CodeNotFound, "provisional credential not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load credential")
	}
	if cred.BUID != buid {
		s.reject(ctx, "credential record superseded", buid.String())
		return nil, dErrors.New(dErrors.CodeNotFound, "provisional credential not found")
	}

	return s.resolve(ctx, claims, buid)
}

// VerifyCode resolves a one-time code to its token and verifies it.
func (s *Service) VerifyCode(ctx context.Context, code string) (_ *models.Verification, err error) {
	ctx, span := tracer.Start(ctx, "identity.VerifyCode")
	defer func() { endSpan(span, err) }()

	code = strings.TrimSpace(code)
	if code == "" {
		return nil, dErrors.New(dErrors.CodeValidation, "otp is required")
	}
	now := requestcontext.Now(ctx)

	cred, err := s.store.FindByCode(ctx, code, now)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			s.reject(ctx, "unknown or expired code", "")
			return nil, dErrors.New(dErrors.CodeNotFound, "invalid credential")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load credential")
	}

	claims, buid, err := s.validate(ctx, cred.Token, now)
	if err != nil {
		return nil, err
	}
	return s.resolve(ctx, claims, buid)
}

// SweepExpired deletes provisional records expired as of requestcontext.Now(ctx).
func (s *Service) SweepExpired(ctx context.Context) (int, error) {
	removed, err := s.store.DeleteExpired(ctx, requestcontext.Now(ctx))
	if err != nil {
		return 0, err
	}
	if removed > 0 {
		s.logAudit(ctx, audit.EventCredentialsSwept, "count", removed)
		if s.metrics != nil {
			s.metrics.AddSwept(removed)
		}
	}
	return removed, nil
}

func (s *Service) validate(ctx context.Context, tokenString string, now time.Time) (*token.Claims, id.BUID, error) {
	claims, err := s.tokens.Validate(tokenString, now)
	if err != nil {
		s.reject(ctx, "token validation failed", "")
		return nil, id.BUID{}, dErrors.New(dErrors.CodeInvalidCredential, invalidCredential)
	}
	buid, err := claims.ParseBUID()
	if err != nil {
		s.reject(ctx, "token carries no buid", "")
		return nil, id.BUID{}, dErrors.New(dErrors.CodeInvalidCredential, invalidCredential)
	}
	return claims, buid, nil
}

// resolve looks the buid up in the registry. A chat-bound credential only
// matches a company bound to the same chat id.
func (s *Service) resolve(ctx context.Context, claims *token.Claims, buid id.BUID) (*models.Verification, error) {
	ref, err := s.registry.FindByBUID(ctx, buid)
	if err != nil && !errors.Is(err, sentinel.ErrNotFound) {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to look up company")
	}

	found := ref != nil && (claims.ChatID == "" || ref.TelegramChatID == claims.ChatID)
	s.logAudit(ctx, audit.EventCredentialVerified,
		"buid", buid.String(),
		"channel", string(claims.Identifier().Channel),
		"found", found,
	)
	if !found {
		s.countVerification(metrics.OutcomeNotFound)
		return &models.Verification{Found: false, BUID: buid}, nil
	}
	s.countVerification(metrics.OutcomeFound)
	return &models.Verification{
		Found:       true,
		BUID:        ref.BUID,
		ProjectName: ref.ProjectName,
		Email:       ref.Email,
	}, nil
}

func (s *Service) reject(ctx context.Context, reason, buid string) {
	s.logAudit(ctx, audit.EventCredentialRejected, "reason", reason, "buid", buid)
	s.countVerification(metrics.OutcomeRejected)
}

func (s *Service) countVerification(outcome string) {
	if s.metrics != nil {
		s.metrics.IncrementVerification(outcome)
	}
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
		Action:    string(event),
		Channel:   attrs.ExtractString(attributes, "channel"),
		Reason:    attrs.ExtractString(attributes, "reason"),
		RequestID: requestID,
		ClientIP:  requestcontext.ClientIP(ctx),
	})
}
